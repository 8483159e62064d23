package handlers

import (
	"errors"
	"net/http"
	"time"

	"mediagen/internal/domain"
)

// Report aggregates the outcome log, grouped by provider, kind, or region.
func (a *App) Report(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.ReportFilter{
		ProviderID: q.Get("provider"),
		Kind:       domain.JobKind(q.Get("kind")),
		Region:     q.Get("region"),
		GroupBy:    q.Get("group_by"),
	}
	var err error
	if filter.Since, err = parseTimeParam(q.Get("since")); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "since must be RFC 3339")
		return
	}
	if filter.Until, err = parseTimeParam(q.Get("until")); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "until must be RFC 3339")
		return
	}

	rows, err := a.Reports.Report(r.Context(), filter)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidRequest) {
			a.error(w, http.StatusBadRequest, "bad_request", "unknown group_by dimension")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to build report")
		return
	}
	if rows == nil {
		rows = []domain.ReportRow{}
	}
	a.json(w, http.StatusOK, map[string]any{"items": rows})
}

func parseTimeParam(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, value)
}
