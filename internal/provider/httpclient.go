package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"mediagen/internal/domain"
)

// HTTPClient talks to a provider exposing the common generation API:
// POST {base}/jobs to submit, GET {base}/jobs/{ref} to poll.
type HTTPClient struct {
	providerID string
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     zerolog.Logger
}

// HTTPOptions configures an HTTPClient.
type HTTPOptions struct {
	ProviderID string
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

func NewHTTPClient(opts HTTPOptions) (*HTTPClient, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("provider %q: base url is required", opts.ProviderID)
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPClient{
		providerID: opts.ProviderID,
		baseURL:    base,
		apiKey:     opts.APIKey,
		httpClient: httpClient,
		logger:     opts.Logger,
	}, nil
}

type submitResponse struct {
	JobRef string `json:"job_ref"`
}

type statusResponse struct {
	Status   string  `json:"status"`
	Progress int     `json:"progress"`
	Error    string  `json:"error,omitempty"`
	Result   *struct {
		ArtifactURL     string  `json:"artifact_url"`
		DurationSeconds int     `json:"duration_seconds"`
		Transcript      string  `json:"transcript,omitempty"`
		QualityScore    float64 `json:"quality_score"`
	} `json:"result,omitempty"`
}

// Submit starts a generation job and returns the provider's reference.
func (c *HTTPClient) Submit(ctx context.Context, spec Spec) (string, error) {
	body, err := json.Marshal(spec)
	if err != nil {
		return "", fmt.Errorf("encode job spec: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/jobs", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build submit request: %w", err)
	}
	c.prepare(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &domain.ProviderError{Class: domain.FailureTransient, Message: err.Error()}
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp); err != nil {
		return "", err
	}
	var out submitResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return "", &domain.ProviderError{Class: domain.FailureTransient, Message: "decode submit response: " + err.Error()}
	}
	if out.JobRef == "" {
		return "", &domain.ProviderError{Class: domain.FailureTransient, Message: "submit response missing job_ref"}
	}
	c.logger.Debug().
		Str("provider_id", c.providerID).
		Str("job_id", spec.JobID).
		Str("external_ref", out.JobRef).
		Msg("provider: job submitted")
	return out.JobRef, nil
}

// QueryStatus polls the provider for the current state of a submitted job.
func (c *HTTPClient) QueryStatus(ctx context.Context, externalRef string) (Status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/jobs/"+externalRef, nil)
	if err != nil {
		return Status{}, fmt.Errorf("build status request: %w", err)
	}
	c.prepare(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Status{}, &domain.ProviderError{Class: domain.FailureTransient, Message: err.Error()}
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp); err != nil {
		return Status{}, err
	}
	var out statusResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return Status{}, &domain.ProviderError{Class: domain.FailureTransient, Message: "decode status response: " + err.Error()}
	}
	return normalizeStatus(out), nil
}

func (c *HTTPClient) prepare(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// checkStatus maps HTTP status codes onto the failure taxonomy. Client
// rejections are provider-specific (another provider may accept the same
// request); everything else stays retryable.
func (c *HTTPClient) checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return &domain.ProviderError{Class: domain.FailureRateLimited, Message: c.errorBody(resp)}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return &domain.ProviderError{Class: domain.FailureProviderRejected, Message: c.errorBody(resp)}
	default:
		return &domain.ProviderError{Class: domain.FailureTransient, Message: c.errorBody(resp)}
	}
}

func (c *HTTPClient) errorBody(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = resp.Status
	}
	return fmt.Sprintf("%s: %s", c.providerID, msg)
}

func normalizeStatus(raw statusResponse) Status {
	st := Status{Progress: raw.Progress}
	switch strings.ToLower(strings.TrimSpace(raw.Status)) {
	case "completed", "succeeded", "done":
		st.State = StateCompleted
		st.Progress = 100
		if raw.Result != nil {
			st.Result = &domain.Result{
				ArtifactURL:     raw.Result.ArtifactURL,
				DurationSeconds: raw.Result.DurationSeconds,
				Transcript:      raw.Result.Transcript,
				QualityScore:    raw.Result.QualityScore,
			}
		}
	case "failed", "error":
		st.State = StateFailed
		st.ErrorMessage = raw.Error
		st.ErrorClass = domain.FailureTransient
	default:
		st.State = StateProcessing
	}
	return st
}

var _ Client = (*HTTPClient)(nil)
