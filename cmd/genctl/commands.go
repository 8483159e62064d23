package main

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/spf13/cobra"
)

type jobView struct {
	JobID              string `json:"job_id"`
	Kind               string `json:"kind"`
	State              string `json:"state"`
	Progress           int    `json:"progress"`
	SelectedProviderID string `json:"selected_provider_id"`
	AttemptCount       int    `json:"attempt_count"`
	Attempts           []struct {
		Number       int    `json:"number"`
		ProviderID   string `json:"provider_id"`
		Outcome      string `json:"outcome"`
		ErrorMessage string `json:"error_message,omitempty"`
	} `json:"attempts"`
	Result *struct {
		ArtifactURL     string  `json:"artifact_url"`
		DurationSeconds int     `json:"duration_seconds"`
		QualityScore    float64 `json:"quality_score"`
	} `json:"result"`
	Error *struct {
		Message   string `json:"message"`
		Cause     string `json:"cause"`
		Retryable bool   `json:"retryable"`
	} `json:"error"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type providerView struct {
	ID           string `json:"id"`
	DisplayName  string `json:"display_name"`
	Capabilities struct {
		Kinds              []string `json:"kinds"`
		MaxDurationSeconds int      `json:"max_duration_seconds"`
	} `json:"capabilities"`
	CostTier int  `json:"cost_tier"`
	Callback bool `json:"callback"`
	Stats    struct {
		Attempts          int     `json:"attempts"`
		Successes         int     `json:"successes"`
		Reliability       float64 `json:"reliability"`
		AvgLatencySeconds float64 `json:"avg_latency_seconds"`
		AvgQuality        float64 `json:"avg_quality"`
	} `json:"stats"`
}

type reportView struct {
	Key               string  `json:"key"`
	Attempts          int     `json:"attempts"`
	Successes         int     `json:"successes"`
	Failures          int     `json:"failures"`
	Timeouts          int     `json:"timeouts"`
	AvgQuality        float64 `json:"avg_quality"`
	AvgGenerationSecs float64 `json:"avg_generation_seconds"`
}

func newSubmitCommand() *cobra.Command {
	var (
		kind        string
		duration    string
		style       string
		quality     string
		industry    string
		features    []string
		qualityPref string
		speed       string
		budget      int
	)
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a generation job",
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{
				"kind": kind,
				"requirements": map[string]any{
					"duration_class": duration,
					"style":          style,
					"quality_tier":   quality,
					"industry":       industry,
					"features":       features,
				},
				"criteria": map[string]any{
					"quality_preference": qualityPref,
					"speed_priority":     speed,
					"budget_ceiling":     budget,
				},
			}
			var job jobView
			if err := newAPIClient().do(http.MethodPost, "/v1/jobs", nil, body, &job); err != nil {
				return err
			}
			return renderJob(job)
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "job kind: podcast or video")
	cmd.Flags().StringVar(&duration, "duration", "standard", "duration class: short, standard, extended")
	cmd.Flags().StringVar(&style, "style", "", "content style hint")
	cmd.Flags().StringVar(&quality, "quality", "standard", "requested quality tier")
	cmd.Flags().StringVar(&industry, "industry", "", "industry vertical hint")
	cmd.Flags().StringSliceVar(&features, "feature", nil, "required provider feature (repeatable)")
	cmd.Flags().StringVar(&qualityPref, "quality-pref", "standard", "selection quality preference: standard or high")
	cmd.Flags().StringVar(&speed, "speed", "normal", "selection speed priority: normal or fast")
	cmd.Flags().IntVar(&budget, "budget", 0, "cost tier ceiling, 0 for no limit")
	_ = cmd.MarkFlagRequired("kind")
	return cmd
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status <job_id>",
		Short: "Show the current state of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var job jobView
			if err := newAPIClient().do(http.MethodGet, "/v1/jobs/"+args[0], nil, nil, &job); err != nil {
				return err
			}
			return renderJob(job)
		},
	}
}

func newCancelCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <job_id>",
		Short: "Cancel a running job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newAPIClient().do(http.MethodDelete, "/v1/jobs/"+args[0], nil, nil, nil); err != nil {
				return err
			}
			fmt.Println("cancelled", args[0])
			return nil
		},
	}
}

func newProvidersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List registered providers with rolling statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			var out struct {
				Items []providerView `json:"items"`
			}
			if err := newAPIClient().do(http.MethodGet, "/v1/providers", nil, nil, &out); err != nil {
				return err
			}
			return renderProviders(out.Items)
		},
	}
}

func newReportCommand() *cobra.Command {
	var (
		groupBy    string
		providerID string
		kind       string
		region     string
		since      string
		until      string
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Aggregate outcome records",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			q.Set("group_by", groupBy)
			setIf(q, "provider", providerID)
			setIf(q, "kind", kind)
			setIf(q, "region", region)
			setIf(q, "since", since)
			setIf(q, "until", until)
			var out struct {
				Items []reportView `json:"items"`
			}
			if err := newAPIClient().do(http.MethodGet, "/v1/reports", q, nil, &out); err != nil {
				return err
			}
			return renderReport(groupBy, out.Items)
		},
	}
	cmd.Flags().StringVar(&groupBy, "group-by", "provider", "dimension: provider, kind, region")
	cmd.Flags().StringVar(&providerID, "provider", "", "filter by provider id")
	cmd.Flags().StringVar(&kind, "kind", "", "filter by job kind")
	cmd.Flags().StringVar(&region, "region", "", "filter by submission region")
	cmd.Flags().StringVar(&since, "since", "", "filter: RFC 3339 lower bound")
	cmd.Flags().StringVar(&until, "until", "", "filter: RFC 3339 upper bound")
	return cmd
}

func setIf(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}
