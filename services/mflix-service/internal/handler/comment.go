package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vasapolrittideah/mflix-api/services/mflix-service/internal/model"
	"github.com/vasapolrittideah/mflix-api/services/mflix-service/internal/payload"
)

func (h *Handler) GetComment(w http.ResponseWriter, r *http.Request) {
	comment, err := h.comments.GetComment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeRepositoryError(w, err, "failed to get comment")
		return
	}
	if comment == nil {
		writeError(w, http.StatusNotFound, "comment not found")
		return
	}

	writeJSON(w, http.StatusOK, comment)
}

func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	var req payload.AddCommentRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.users.GetUser(r.Context(), userEmailFromContext(r.Context()))
	if err != nil {
		h.writeRepositoryError(w, err, "failed to get comment author")
		return
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "user not found")
		return
	}

	comment := &model.Comment{
		ID:    h.newID(),
		Name:  user.Name,
		Email: user.Email,
		Text:  req.Text,
		Date:  h.now(),
	}
	if req.MovieID != "" {
		// Already validated as an ObjectID hex string.
		comment.MovieID, _ = bson.ObjectIDFromHex(req.MovieID)
	}

	created, err := h.comments.AddComment(r.Context(), comment)
	if err != nil {
		h.writeRepositoryError(w, err, "failed to add comment")
		return
	}
	if created == nil {
		writeError(w, http.StatusInternalServerError, "something went wrong")
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	var req payload.UpdateCommentRequest
	if !h.decode(w, r, &req) {
		return
	}

	ok, err := h.comments.UpdateComment(r.Context(), chi.URLParam(r, "id"), req.Text, userEmailFromContext(r.Context()))
	if err != nil {
		h.writeRepositoryError(w, err, "failed to update comment")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "comment not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	ok, err := h.comments.DeleteComment(r.Context(), chi.URLParam(r, "id"), userEmailFromContext(r.Context()))
	if err != nil {
		h.writeRepositoryError(w, err, "failed to delete comment")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "comment not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) MostActiveCommenters(w http.ResponseWriter, r *http.Request) {
	critics, err := h.comments.MostActiveCommenters(r.Context())
	if err != nil {
		h.writeRepositoryError(w, err, "failed to build critics report")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"critics": critics})
}
