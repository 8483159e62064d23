package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrUnknownProvider   = errors.New("unknown provider")
	ErrInvalidRequest    = errors.New("invalid request")
	ErrJobTerminal       = errors.New("job already terminal")
	ErrStaleAttempt      = errors.New("stale attempt")
	ErrInvalidTransition = errors.New("invalid state transition")
)

// FailureCause distinguishes why a job ended in the failed state.
type FailureCause string

const (
	FailureCauseNone               FailureCause = ""
	FailureCauseNoCapableProvider  FailureCause = "no_capable_provider"
	FailureCauseProvidersExhausted FailureCause = "providers_exhausted"
	FailureCauseInvalidRequest     FailureCause = "invalid_request"
)

// Retryable reports whether resubmitting the same request could plausibly
// succeed. An exhausted ranked list usually means transient provider
// trouble; a structurally invalid request or an empty capability match
// will fail identically every time.
func (c FailureCause) Retryable() bool {
	switch c {
	case FailureCauseInvalidRequest, FailureCauseNoCapableProvider:
		return false
	}
	return true
}

// FailureClass classifies a provider-level failure for retry policy.
type FailureClass string

const (
	// FailureTransient covers network blips and transient provider errors.
	FailureTransient FailureClass = "transient"
	// FailureRateLimited means the provider shed the request.
	FailureRateLimited FailureClass = "rate_limited"
	// FailureTimeout is synthesized when a provider goes quiet.
	FailureTimeout FailureClass = "timeout"
	// FailureProviderRejected means this provider refused the exact
	// parameter combination; another provider may still accept it.
	FailureProviderRejected FailureClass = "provider_rejected"
	// FailureInvalidRequest means the request is structurally invalid for
	// every provider. No fallback.
	FailureInvalidRequest FailureClass = "invalid_request"
)

// Retryable reports whether the class consumes an attempt and permits
// fallback to the next ranked provider.
func (c FailureClass) Retryable() bool {
	switch c {
	case FailureTransient, FailureRateLimited, FailureTimeout:
		return true
	}
	return false
}

// AllowsFallback reports whether the next ranked provider may be tried.
// Provider-specific rejections fall back once even though they are not
// retryable against the same provider.
func (c FailureClass) AllowsFallback() bool {
	return c.Retryable() || c == FailureProviderRejected
}

// ProviderError is a classified failure returned by provider calls.
type ProviderError struct {
	Class   FailureClass
	Message string
}

func (e *ProviderError) Error() string {
	return string(e.Class) + ": " + e.Message
}

// ClassifyProviderError extracts the failure class from an error,
// defaulting to transient so unknown failures stay retryable.
func ClassifyProviderError(err error) FailureClass {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr.Class
	}
	return FailureTransient
}
