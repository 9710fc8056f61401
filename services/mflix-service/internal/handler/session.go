package handler

import (
	"net/http"

	"github.com/vasapolrittideah/mflix-api/services/mflix-service/internal/payload"
)

// CreateSession stores a token minted by the auth service as the user's only session.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req payload.CreateSessionRequest
	if !h.decode(w, r, &req) {
		return
	}

	ok, err := h.sessions.CreateSession(r.Context(), req.Email, req.Token)
	if err != nil {
		h.writeRepositoryError(w, err, "failed to create session")
		return
	}
	if !ok {
		writeError(w, http.StatusConflict, "session could not be created")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	ok, err := h.sessions.DeleteUserSessions(r.Context(), userEmailFromContext(r.Context()))
	if err != nil {
		h.writeRepositoryError(w, err, "failed to delete sessions")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "no active session")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
