package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"mediagen/internal/http/handlers"
	"mediagen/internal/middleware"
)

// NewRouter assembles the public API surface.
func NewRouter(app *handlers.App, rateLimitPerMin int) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID, chimw.RealIP, chimw.Recoverer)
	r.Use(middleware.Logger(app.Logger))
	if rateLimitPerMin > 0 {
		r.Use(middleware.RateLimit(rateLimitPerMin, time.Minute))
	}

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/jobs", func(r chi.Router) {
		r.Post("/", app.SubmitJob)
		r.Get("/{job_id}", app.JobStatus)
		r.Delete("/{job_id}", app.CancelJob)
	})

	r.Post("/v1/callbacks/{provider_id}", app.ProviderCallback)
	r.Get("/v1/providers", app.Providers)
	r.Get("/v1/reports", app.Report)

	return r
}
