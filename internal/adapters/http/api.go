package http

import (
	"encoding/json"
	"net/http"

	"github.com/atvirokodosprendimai/tokip/internal/domain"
)

type apiError struct {
	Error string `json:"error"`
}

// handleAPIList returns the raw collection. A failing store yields an empty
// list rather than an error.
func (h *Handler) handleAPIList(kind domain.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parentID, err := parseOptionalUintSignal(r.URL.Query().Get("parent_id"), "parent_id")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
			return
		}
		items, err := h.service.List(r.Context(), kind, domain.Filter{ParentID: parentID})
		if err != nil {
			h.logger.ErrorContext(r.Context(), "api list degraded", "kind", string(kind), "error", err)
			items = []domain.Record{}
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func (h *Handler) handleAPIGet(kind domain.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			h.writeAPIError(w, r, err)
			return
		}
		rec, err := h.service.Get(r.Context(), kind, id)
		if err != nil {
			h.writeAPIError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func (h *Handler) handleAPICreate(kind domain.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, err := decodePayload(r)
		if err != nil {
			h.writeAPIError(w, r, err)
			return
		}
		in, err := createInput(kind, payload)
		if err != nil {
			h.writeAPIError(w, r, err)
			return
		}
		rec, err := h.service.Create(r.Context(), kind, in)
		if err != nil {
			h.writeAPIError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, rec)
	}
}

func (h *Handler) handleAPIUpdate(kind domain.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			h.writeAPIError(w, r, err)
			return
		}
		payload, err := decodePayload(r)
		if err != nil {
			h.writeAPIError(w, r, err)
			return
		}
		patch, err := patchFromPayload(payload)
		if err != nil {
			h.writeAPIError(w, r, err)
			return
		}
		rec, err := h.service.Update(r.Context(), kind, id, patch)
		if err != nil {
			h.writeAPIError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func (h *Handler) handleAPIDelete(kind domain.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			h.writeAPIError(w, r, err)
			return
		}
		if err := h.service.Delete(r.Context(), kind, id); err != nil {
			h.writeAPIError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"deleted": true, "kind": kind, "id": id})
	}
}

func (h *Handler) handleAPITree(w http.ResponseWriter, r *http.Request) {
	forest, err := h.service.Tree(r.Context())
	if err != nil {
		h.writeAPIError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, forest)
}

func (h *Handler) writeAPIError(w http.ResponseWriter, r *http.Request, err error) {
	status := domain.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "api request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, apiError{Error: domain.PublicMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
