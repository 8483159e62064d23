package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"mediagen/internal/domain"
	"mediagen/internal/poller"
)

// ProviderCallback ingests push updates from callback-capable providers.
// Payloads referencing unknown or superseded attempts are acknowledged
// and dropped; providers retrying a stale delivery gain nothing from an
// error response.
func (a *App) ProviderCallback(w http.ResponseWriter, r *http.Request) {
	providerID := chi.URLParam(r, "provider_id")
	if providerID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "provider_id required")
		return
	}
	var payload poller.CallbackPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if payload.ExternalJobRef == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "external_job_ref required")
		return
	}
	if err := a.Callbacks.HandleCallback(providerID, payload); err != nil {
		if errors.Is(err, domain.ErrStaleAttempt) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to process callback")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
