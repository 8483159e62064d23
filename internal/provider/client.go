package provider

import (
	"context"

	"mediagen/internal/domain"
)

// Spec carries everything a provider needs to start generating one artifact.
type Spec struct {
	JobID        string              `json:"job_id"`
	AttemptID    string              `json:"attempt_id"`
	Kind         domain.JobKind      `json:"kind"`
	Requirements domain.Requirements `json:"requirements"`
	CallbackURL  string              `json:"callback_url,omitempty"`
}

// Provider-reported job states, as normalized by the client layer.
const (
	StateProcessing = "processing"
	StateCompleted  = "completed"
	StateFailed     = "failed"
)

// Status is a normalized provider status report.
type Status struct {
	State        string
	Progress     int
	Result       *domain.Result
	ErrorMessage string
	ErrorClass   domain.FailureClass
}

// Client is the outbound surface of one external generation provider.
// Submit and QueryStatus both honor context cancellation; errors are
// classified via domain.ProviderError so the lifecycle manager can apply
// its retry policy without inspecting provider payloads.
type Client interface {
	Submit(ctx context.Context, spec Spec) (externalRef string, err error)
	QueryStatus(ctx context.Context, externalRef string) (Status, error)
}
