package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/atvirokodosprendimai/tokip/internal/application"
	"github.com/atvirokodosprendimai/tokip/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/starfederation/datastar-go/datastar"
)

const maxPayloadBytes = 1 << 20

func isDatastar(r *http.Request) bool {
	return r.Header.Get("Datastar-Request") == "true"
}

// decodePayload flattens a write request into string fields. Forms, datastar
// signals and plain JSON objects are accepted.
func decodePayload(r *http.Request) (map[string]string, error) {
	out := make(map[string]string)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch {
	case mediaType == "application/x-www-form-urlencoded" || mediaType == "multipart/form-data":
		var err error
		if mediaType == "multipart/form-data" {
			err = r.ParseMultipartForm(maxPayloadBytes)
		} else {
			err = r.ParseForm()
		}
		if err != nil {
			return nil, domain.BadRequest("invalid form: %v", err)
		}
		for key, values := range r.Form {
			if len(values) > 0 {
				out[key] = values[0]
			}
		}
		return out, nil

	case isDatastar(r):
		signals := make(map[string]any)
		if err := datastar.ReadSignals(r, &signals); err != nil {
			return nil, domain.BadRequest("invalid signals: %v", err)
		}
		return flatten(signals), nil
	}

	raw := make(map[string]any)
	dec := json.NewDecoder(io.LimitReader(r.Body, maxPayloadBytes))
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		return nil, domain.BadRequest("invalid json: %v", err)
	}
	return flatten(raw), nil
}

func flatten(in map[string]any) map[string]string {
	out := make(map[string]string, len(in))
	for key, value := range in {
		switch v := value.(type) {
		case nil:
		case string:
			out[key] = v
		case float64:
			out[key] = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			out[key] = strconv.FormatBool(v)
		default:
			out[key] = fmt.Sprint(v)
		}
	}
	return out
}

// createInput reads a create payload. The title may come as "title" or
// "new_title"; the parent id under the kind's parent field or "parent_id".
func createInput(kind domain.Kind, payload map[string]string) (application.CreateInput, error) {
	spec := kind.Spec()
	in := application.CreateInput{Title: firstNonEmpty(payload["title"], payload["new_title"])}

	if !spec.IsRoot() {
		raw := firstNonEmpty(payload[spec.ParentField], payload["parent_id"])
		parentID, err := parseRequiredUintSignal(raw, spec.ParentField)
		if err != nil {
			return application.CreateInput{}, domain.BadRequest("%v", err)
		}
		in.ParentID = parentID
	}

	if raw := strings.TrimSpace(payload["status"]); raw != "" {
		status, err := domain.ParseStatus(raw)
		if err != nil {
			return application.CreateInput{}, err
		}
		in.Status = &status
	}
	return in, nil
}

// patchFromPayload keeps only the fields present in the payload. A status
// sent for a kind without settable status is rejected by the service.
func patchFromPayload(payload map[string]string) (domain.Patch, error) {
	var patch domain.Patch
	if title, ok := payload["title"]; ok {
		patch.Title = &title
	} else if title, ok := payload["new_title"]; ok {
		patch.Title = &title
	}
	if raw := strings.TrimSpace(payload["status"]); raw != "" {
		status, err := domain.ParseStatus(raw)
		if err != nil {
			return domain.Patch{}, err
		}
		patch.Status = &status
	}
	return patch, nil
}

func pathID(r *http.Request) (uint, error) {
	id, err := parseRequiredUintSignal(chi.URLParam(r, "id"), "id")
	if err != nil {
		return 0, domain.BadRequest("%v", err)
	}
	return id, nil
}

func parseRequiredUintSignal(raw string, field string) (uint, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, fmt.Errorf("%s is required", field)
	}
	parsed, err := strconv.ParseUint(trimmed, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", field)
	}
	return uint(parsed), nil
}

func parseOptionalUintSignal(raw string, field string) (*uint, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseUint(trimmed, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be an integer", field)
	}
	v := uint(parsed)
	return &v, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
