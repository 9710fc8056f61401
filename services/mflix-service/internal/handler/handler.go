package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/mflix-api/services/mflix-service/internal/repository"
	"github.com/vasapolrittideah/mflix-api/shared/metrics"
	"github.com/vasapolrittideah/mflix-api/shared/validator"
)

// Handler exposes the repositories over HTTP.
type Handler struct {
	logger         *zerolog.Logger
	users          repository.UserRepository
	sessions       repository.SessionRepository
	comments       repository.CommentRepository
	validator      *validator.Validator
	internalAPIKey string
	newID          func() string
	now            func() time.Time
}

// NewHandler creates a Handler. Requests to the internal routes must carry internalAPIKey;
// when it is empty the internal routes reject everything.
func NewHandler(
	logger *zerolog.Logger,
	users repository.UserRepository,
	sessions repository.SessionRepository,
	comments repository.CommentRepository,
	internalAPIKey string,
) *Handler {
	return &Handler{
		logger:         logger,
		users:          users,
		sessions:       sessions,
		comments:       comments,
		validator:      validator.New(),
		internalAPIKey: internalAPIKey,
		newID:          uuid.NewString,
		now:            time.Now,
	}
}

// Routes builds the router. metricsHandler is mounted on /metrics when not nil.
func (h *Handler) Routes(metricsHandler http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/users", h.Register)
		r.Get("/comments/{id}", h.GetComment)
		r.Get("/reports/critics", h.MostActiveCommenters)

		r.Group(func(r chi.Router) {
			r.Use(h.authenticate)

			r.Get("/users/me", h.GetCurrentUser)
			r.Put("/users/me/preferences", h.UpdatePreferences)
			r.Delete("/users/me", h.DeleteCurrentUser)
			r.Get("/users/me/comments", h.GetCurrentUserComments)

			r.Delete("/sessions/me", h.Logout)

			r.Post("/comments", h.AddComment)
			r.Put("/comments/{id}", h.UpdateComment)
			r.Delete("/comments/{id}", h.DeleteComment)
		})
	})

	r.Route("/internal/v1", func(r chi.Router) {
		r.Use(h.requireInternalKey)
		r.Post("/sessions", h.CreateSession)
	})

	return r
}
