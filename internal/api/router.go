package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func Router(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/v1/health", h.Health)

	r.Post("/v1/doorbells/{doorbellID}/ring", h.Ring)

	r.Route("/v1/sessions/{token}", func(r chi.Router) {
		r.Post("/intake", h.Intake)
		r.Post("/messages", h.VisitorSend)
		r.Get("/messages", h.SessionMessages)
		r.Delete("/", h.CloseSession)
	})

	r.Route("/v1/notifications/{notificationID}", func(r chi.Router) {
		r.Get("/messages", h.OwnerMessages)
		r.Post("/messages", h.OwnerSend)
		r.Post("/close", h.CloseNotification)
	})

	return r
}
