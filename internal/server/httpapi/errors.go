package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/DAC098/TJ2-sub001/internal/common"
)

// errorResponse is the JSON body for every non-2xx answer.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// statusForError maps service-layer sentinels onto HTTP statuses. Anything
// unrecognized is an internal error.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrorValidation), errors.Is(err, common.ErrorUnknownCustomField):
		return http.StatusBadRequest, "validation"
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrSessionExpired):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, common.ErrorForbidden), errors.Is(err, common.ErrSessionNotVerified):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, common.ErrorTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout, "timeout"
	case errors.Is(err, common.ErrorDuplicateKey), errors.Is(err, common.ErrorAlreadyExists), errors.Is(err, common.ErrorOwnershipMismatch):
		return http.StatusConflict, "conflict"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, tag := statusForError(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err.Error())
		message = "internal error"
	}
	writeJSON(w, status, errorResponse{Error: tag, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
