package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"mediagen/internal/domain"
	"mediagen/internal/infra"
	"mediagen/internal/infra/geoip"
	"mediagen/internal/middleware"
	"mediagen/internal/poller"
	"mediagen/internal/registry"
)

// JobService is the lifecycle manager surface the API depends on.
type JobService interface {
	Submit(ctx context.Context, kind domain.JobKind, req domain.Requirements, criteria domain.SelectionCriteria, region string) (string, error)
	Cancel(ctx context.Context, jobID string) error
	GetStatus(ctx context.Context, jobID string) (*domain.Job, error)
}

// CallbackSink accepts validated provider webhook payloads.
type CallbackSink interface {
	HandleCallback(providerID string, payload poller.CallbackPayload) error
}

// Reporter serves outcome aggregates.
type Reporter interface {
	Report(ctx context.Context, filter domain.ReportFilter) ([]domain.ReportRow, error)
}

// App carries the dependencies shared by all HTTP handlers.
type App struct {
	Logger    infra.Logger
	Jobs      JobService
	Callbacks CallbackSink
	Reports   Reporter
	Registry  *registry.Registry
	Geo       geoip.CountryResolver
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, kind, message string) {
	a.json(w, code, map[string]any{
		"error": map[string]string{"code": kind, "message": message},
	})
}

// region resolves the submitting client's country code, best effort.
func (a *App) region(r *http.Request) string {
	if a.Geo == nil {
		return ""
	}
	code, err := a.Geo.CountryCode(middleware.ClientIP(r))
	if err != nil {
		return ""
	}
	return code
}

// Health reports service liveness.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}
