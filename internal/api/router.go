package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/scry-mcq/internal/api/middleware"
	"github.com/phrazzld/scry-mcq/internal/api/shared"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status      string `json:"status"`
	Persistence string `json:"persistence"`
}

// RouterConfig holds the collaborators mounted by NewRouter.
type RouterConfig struct {
	Generations *GenerationHandler

	// Persistence names the run store backing the service, reported by /health.
	Persistence string

	Logger *slog.Logger
}

// NewRouter builds the HTTP routes.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Trace(cfg.Logger))
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		shared.RespondWithJSON(w, req, http.StatusOK, HealthResponse{
			Status:      "ok",
			Persistence: cfg.Persistence,
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/generations", cfg.Generations.CreateGeneration)
		r.Get("/generations/jobs/{id}", cfg.Generations.GetJob)
		r.Get("/generations/{id}", cfg.Generations.GetGeneration)
	})

	return r
}
