package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vasapolrittideah/mflix-api/services/mflix-service/internal/payload"
	"github.com/vasapolrittideah/mflix-api/services/mflix-service/internal/repository"
	"github.com/vasapolrittideah/mflix-api/shared/validator"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, payload.ErrorResponse{Error: msg})
}

// decode reads a JSON body into dst and validates it, writing a 400 on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}

	if err := h.validator.Struct(dst); err != nil {
		var verr *validator.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, payload.ErrorResponse{Error: "validation failed", Fields: verr.Fields})
			return false
		}

		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}

	return true
}

func (h *Handler) writeRepositoryError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, repository.ErrDuplicateKey):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, repository.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrStore):
		h.logger.Error().Err(err).Msg(msg)
		writeError(w, http.StatusServiceUnavailable, "service unavailable")
	default:
		h.logger.Error().Err(err).Msg(msg)
		writeError(w, http.StatusInternalServerError, "something went wrong")
	}
}
