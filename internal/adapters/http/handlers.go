package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/a-h/templ"
	"github.com/atvirokodosprendimai/tokip/internal/application"
	"github.com/atvirokodosprendimai/tokip/internal/domain"
	"github.com/atvirokodosprendimai/tokip/internal/ui"
	"github.com/go-chi/chi/v5"
	"github.com/starfederation/datastar-go/datastar"
)

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	frag, err := h.service.Resolve(r.Context(), application.FragmentRequest{Kind: domain.KindTheme, Fragment: application.FragmentTable})
	if err != nil {
		h.renderError(w, r, err, true)
		return
	}
	renderHTMLFragments(r.Context(), w, http.StatusOK, ui.IndexPage(*frag.Table))
}

func (h *Handler) handleStylesheet(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(ui.Stylesheet())
}

func (h *Handler) handleFavicon(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(ui.Favicon())
}

// handleTable lists every record of kind.
func (h *Handler) handleTable(kind domain.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		frag, err := h.service.Resolve(r.Context(), application.FragmentRequest{Kind: kind, Fragment: application.FragmentTable})
		if err != nil {
			h.renderError(w, r, err, false)
			return
		}
		renderHTMLFragments(r.Context(), w, http.StatusOK, ui.Fragment(frag))
	}
}

func (h *Handler) handleChildren(child domain.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			h.renderError(w, r, err, false)
			return
		}
		frag, err := h.service.Resolve(r.Context(), application.FragmentRequest{Kind: child, Fragment: application.FragmentTable, ParentID: &id})
		if err != nil {
			h.renderError(w, r, err, false)
			return
		}
		renderHTMLFragments(r.Context(), w, http.StatusOK, ui.Fragment(frag))
	}
}

// handleFragment serves page, row and form views of a single record.
func (h *Handler) handleFragment(kind domain.Kind, fragment application.FragmentKind) http.HandlerFunc {
	fullPage := fragment == application.FragmentPage
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			h.renderError(w, r, err, fullPage)
			return
		}
		frag, err := h.service.Resolve(r.Context(), application.FragmentRequest{Kind: kind, ID: id, Fragment: fragment})
		if err != nil {
			h.renderError(w, r, err, fullPage)
			return
		}
		renderHTMLFragments(r.Context(), w, http.StatusOK, ui.Fragment(frag))
	}
}

// handleCreate inserts a record and sends the client back to the listing it
// came from. Datastar clients get the refreshed listing patched in instead.
func (h *Handler) handleCreate(kind domain.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, err := decodePayload(r)
		if err != nil {
			h.renderError(w, r, err, false)
			return
		}
		in, err := createInput(kind, payload)
		if err != nil {
			h.renderError(w, r, err, false)
			return
		}

		rec, err := h.service.Create(r.Context(), kind, in)
		if err != nil {
			h.renderError(w, r, err, false)
			return
		}

		if !isDatastar(r) {
			http.Redirect(w, r, ui.ListingURL(rec), http.StatusSeeOther)
			return
		}
		table, err := h.listingFor(r.Context(), rec)
		if err != nil {
			h.renderError(w, r, err, false)
			return
		}
		h.patch(w, r, ui.Table(table))
	}
}

func (h *Handler) handleUpdate(kind domain.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			h.renderError(w, r, err, false)
			return
		}
		payload, err := decodePayload(r)
		if err != nil {
			h.renderError(w, r, err, false)
			return
		}
		patch, err := patchFromPayload(payload)
		if err != nil {
			h.renderError(w, r, err, false)
			return
		}

		rec, err := h.service.Update(r.Context(), kind, id, patch)
		if err != nil {
			h.renderError(w, r, err, false)
			return
		}

		if isDatastar(r) {
			h.patch(w, r, ui.Row(rec))
			return
		}
		renderHTMLFragments(r.Context(), w, http.StatusOK, ui.Row(rec))
	}
}

func (h *Handler) handleDelete(kind domain.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.deleteRecord(w, r, kind)
	}
}

// handleDeleteAny is the uniform DELETE /{resource}/{id} route. The resource
// may be singular or plural.
func (h *Handler) handleDeleteAny(w http.ResponseWriter, r *http.Request) {
	kind, err := domain.ParseKind(chi.URLParam(r, "resource"))
	if err != nil {
		h.renderError(w, r, err, false)
		return
	}
	h.deleteRecord(w, r, kind)
}

func (h *Handler) deleteRecord(w http.ResponseWriter, r *http.Request, kind domain.Kind) {
	id, err := pathID(r)
	if err != nil {
		h.renderError(w, r, err, false)
		return
	}

	var existing *domain.Record
	if isDatastar(r) {
		if rec, err := h.service.Get(r.Context(), kind, id); err == nil {
			existing = &rec
		}
	}

	if err := h.service.Delete(r.Context(), kind, id); err != nil {
		h.renderError(w, r, err, false)
		return
	}

	if existing == nil {
		w.WriteHeader(http.StatusOK)
		return
	}
	table, err := h.listingFor(r.Context(), *existing)
	if err != nil {
		// The record is gone either way; a stale listing is not worth a failure.
		w.WriteHeader(http.StatusOK)
		return
	}
	h.patch(w, r, ui.Table(table))
}

func (h *Handler) handleNotFound(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, r, domain.ErrNotFound, !isDatastar(r))
}

func (h *Handler) listingFor(ctx context.Context, rec domain.Record) (application.TablePayload, error) {
	req := application.FragmentRequest{Kind: rec.Kind, Fragment: application.FragmentTable}
	if _, parentID, ok := rec.ParentRef(); ok {
		req.ParentID = &parentID
	}
	frag, err := h.service.Resolve(ctx, req)
	if err != nil {
		return application.TablePayload{}, err
	}
	return *frag.Table, nil
}

// patch streams fragments to a datastar client as element patches.
func (h *Handler) patch(w http.ResponseWriter, r *http.Request, fragments ...templ.Component) {
	sse := datastar.NewSSE(w, r)
	for _, fragment := range fragments {
		if err := sse.PatchElementTempl(fragment); err != nil {
			h.logger.WarnContext(r.Context(), "datastar patch failed", "path", r.URL.Path, "error", err)
			return
		}
	}
}

// renderError turns the error taxonomy into a status code and the error
// fragment. Internal details are logged, never rendered.
func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, err error, fullPage bool) {
	status := domain.HTTPStatus(err)
	message := domain.PublicMessage(err)
	if status >= http.StatusInternalServerError || errors.Is(err, domain.ErrInternal) {
		h.logger.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	if fullPage {
		renderHTMLFragments(r.Context(), w, status, ui.ErrorPage(status, message))
		return
	}
	renderHTMLFragments(r.Context(), w, status, ui.ErrorFragment(status, message))
}

func renderHTMLFragments(ctx context.Context, w http.ResponseWriter, status int, fragments ...templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	for _, fragment := range fragments {
		if fragment == nil {
			continue
		}
		_ = fragment.Render(ctx, w)
	}
}
