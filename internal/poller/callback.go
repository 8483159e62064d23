package poller

import (
	"strings"

	"mediagen/internal/domain"
	"mediagen/internal/provider"
)

// CallbackPayload is the webhook body push-based providers deliver.
type CallbackPayload struct {
	ExternalJobRef string                 `json:"external_job_ref"`
	Status         string                 `json:"status"`
	Progress       int                    `json:"progress"`
	Error          string                 `json:"error,omitempty"`
	Result         *CallbackResultPayload `json:"result,omitempty"`
}

// CallbackResultPayload is the artifact section of a callback.
type CallbackResultPayload struct {
	ArtifactURL     string  `json:"artifact_url"`
	DurationSeconds int     `json:"duration_seconds"`
	Transcript      string  `json:"transcript,omitempty"`
	QualityScore    float64 `json:"quality_score"`
}

// HandleCallback validates a provider push against the in-flight attempt
// set and forwards it. Payloads for unknown or superseded attempts are
// dropped with domain.ErrStaleAttempt; they must never surface to a
// client or mutate job state.
func (p *Poller) HandleCallback(providerID string, payload CallbackPayload) error {
	key := watchKey(providerID, payload.ExternalJobRef)
	p.mu.Lock()
	w, ok := p.inflight[key]
	p.mu.Unlock()
	if !ok {
		p.logger.Debug().
			Str("provider_id", providerID).
			Str("external_ref", payload.ExternalJobRef).
			Msg("poller: callback for unknown attempt dropped")
		return domain.ErrStaleAttempt
	}

	// Feed the watchdog so a chatty provider is never timed out.
	select {
	case w.resetCh <- struct{}{}:
	default:
	}

	state, errClass := normalizeCallbackStatus(payload.Status)
	var result *domain.Result
	if state == provider.StateCompleted && payload.Result != nil {
		result = &domain.Result{
			ArtifactURL:     payload.Result.ArtifactURL,
			DurationSeconds: payload.Result.DurationSeconds,
			Transcript:      payload.Result.Transcript,
			QualityScore:    payload.Result.QualityScore,
		}
	}
	progress := payload.Progress
	if state == provider.StateCompleted {
		progress = 100
	}
	p.forward(w, state, progress, result, payload.Error, errClass)
	return nil
}

func normalizeCallbackStatus(status string) (string, domain.FailureClass) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "completed", "succeeded", "done":
		return provider.StateCompleted, ""
	case "failed", "error":
		return provider.StateFailed, domain.FailureTransient
	default:
		return provider.StateProcessing, ""
	}
}
