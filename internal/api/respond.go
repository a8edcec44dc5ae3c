package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/mesh-intelligence/planbook/pkg/types"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, types.ErrorBody{Detail: detail})
}

// fail maps err to a status and detail. what names the entity for 404
// details, e.g. "Project" gives "Project not found".
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, what string) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, types.ErrUnauthorized):
		writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
	case errors.Is(err, types.ErrForbidden):
		writeDetail(w, http.StatusForbidden, "Insufficient permissions")
	case errors.Is(err, types.ErrUnknownSection), errors.Is(err, types.ErrUnknownTable):
		writeDetail(w, http.StatusNotFound, "Table not found")
	case errors.Is(err, types.ErrUnknownField):
		writeDetail(w, http.StatusNotFound, "Field not found")
	case errors.Is(err, types.ErrNotFound):
		if what == "" {
			what = "Item"
		}
		writeDetail(w, http.StatusNotFound, what+" not found")
	case errors.Is(err, types.ErrImageTooLarge), errors.As(err, &tooLarge):
		writeDetail(w, http.StatusRequestEntityTooLarge, "Payload too large")
	case errors.Is(err, types.ErrEmailTaken):
		writeDetail(w, http.StatusBadRequest, "Email already registered")
	case errors.Is(err, types.ErrInvalidData),
		errors.Is(err, types.ErrInvalidID),
		errors.Is(err, types.ErrInvalidRole),
		errors.Is(err, types.ErrImageType):
		writeDetail(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decode reads a JSON body of at most limit bytes into v.
func decode(w http.ResponseWriter, r *http.Request, limit int64, v any) error {
	body := http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return fmt.Errorf("%w: malformed request body", types.ErrInvalidData)
	}
	return nil
}
