package http

import (
	"log/slog"
	"net/http"

	"github.com/atvirokodosprendimai/tokip/internal/application"
	"github.com/atvirokodosprendimai/tokip/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Handler struct {
	service *application.GoalService
	logger  *slog.Logger
}

// NewRouter mounts one route per kind and verb. Every kind gets the same
// handlers, parameterized by its descriptor.
func NewRouter(service *application.GoalService, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{service: service, logger: logger}
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/", h.handleIndex)
	r.Get("/static/app.css", h.handleStylesheet)
	r.Get("/favicon.ico", h.handleFavicon)

	r.Route("/api", func(api chi.Router) {
		api.Get("/tree", h.handleAPITree)
		for _, kind := range domain.Kinds() {
			plural := "/" + kind.Spec().Plural
			api.Get(plural, h.handleAPIList(kind))
			api.Post(plural, h.handleAPICreate(kind))
			api.Get(plural+"/{id}", h.handleAPIGet(kind))
			api.Put(plural+"/{id}", h.handleAPIUpdate(kind))
			api.Delete(plural+"/{id}", h.handleAPIDelete(kind))
		}
	})

	for _, kind := range domain.Kinds() {
		base := "/" + string(kind)
		r.Get(base, h.handleTable(kind))
		r.Post(base, h.handleCreate(kind))
		r.Get(base+"/{id}", h.handleFragment(kind, application.FragmentPage))
		r.Get(base+"/{id}/row", h.handleFragment(kind, application.FragmentRow))
		r.Get(base+"/{id}/form", h.handleFragment(kind, application.FragmentForm))
		r.Put(base+"/{id}", h.handleUpdate(kind))
		r.Delete(base+"/{id}", h.handleDelete(kind))
		for _, child := range kind.Spec().Children {
			r.Get(base+"/{id}/"+child.Spec().Plural, h.handleChildren(child))
		}
	}
	r.Delete("/{resource}/{id}", h.handleDeleteAny)

	r.NotFound(h.handleNotFound)

	return r
}
