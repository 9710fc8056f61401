package handler

import (
	"net/http"

	"github.com/vasapolrittideah/mflix-api/services/mflix-service/internal/model"
	"github.com/vasapolrittideah/mflix-api/services/mflix-service/internal/payload"
)

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req payload.RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}

	user := &model.User{Email: req.Email, Name: req.Name, Password: req.Password}

	ok, err := h.users.AddUser(r.Context(), user)
	if err != nil {
		h.writeRepositoryError(w, err, "failed to register user")
		return
	}
	if !ok {
		writeError(w, http.StatusInternalServerError, "something went wrong")
		return
	}

	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetUser(r.Context(), userEmailFromContext(r.Context()))
	if err != nil {
		h.writeRepositoryError(w, err, "failed to get user")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *Handler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var req payload.UpdatePreferencesRequest
	if !h.decode(w, r, &req) {
		return
	}

	ok, err := h.users.UpdateUserPreferences(r.Context(), userEmailFromContext(r.Context()), req.Preferences)
	if err != nil {
		h.writeRepositoryError(w, err, "failed to update preferences")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteCurrentUser(w http.ResponseWriter, r *http.Request) {
	ok, err := h.users.DeleteUser(r.Context(), userEmailFromContext(r.Context()))
	if err != nil {
		h.writeRepositoryError(w, err, "failed to delete user")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetCurrentUserComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.comments.GetUserComments(r.Context(), userEmailFromContext(r.Context()))
	if err != nil {
		h.writeRepositoryError(w, err, "failed to list user comments")
		return
	}
	if comments == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"comments": comments})
}

func toUserResponse(user *model.User) payload.UserResponse {
	return payload.UserResponse{
		Email:       user.Email,
		Name:        user.Name,
		Preferences: user.Preferences,
	}
}
