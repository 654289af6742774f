package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/roundup/internal/workflow"
)

// RouterConfig carries the options NewRouter needs besides the service.
type RouterConfig struct {
	AuthEnabled bool
	Token       string
	// MaxUploadBytes bounds uploaded content.
	MaxUploadBytes int64
	// Events, if non-nil, is mounted at GET /events inside the auth group.
	Events http.Handler
}

// NewRouter creates a chi router with all API routes mounted.
func NewRouter(svc *workflow.Service, cfg RouterConfig) chi.Router {
	h := NewHandler(svc, cfg.MaxUploadBytes)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(cfg.AuthEnabled, cfg.Token))

	// Documents.
	r.Get("/documents", h.ListDocuments)
	r.Post("/documents", h.CreateDocument)
	r.Post("/documents/upload", h.UploadFile)
	r.Get("/documents/{id}", h.GetDocument)
	r.Delete("/documents/{id}", h.DeleteDocument)

	// Workflow steps.
	r.Post("/documents/{id}/clean", h.CleanDocument)
	r.Put("/documents/{id}/cleaned", h.SaveCleaned)
	r.Put("/documents/{id}/step", h.UpdateStep)
	r.Post("/documents/{id}/rounds", h.ParseRounds)
	r.Get("/documents/{id}/rounds", h.ListRounds)

	// Rounds.
	r.Put("/rounds/{id}", h.UpdateRound)
	r.Get("/search", h.Search)
	r.Post("/normalize", h.Normalize)

	if cfg.Events != nil {
		r.Get("/events", cfg.Events.ServeHTTP)
	}

	return r
}
