package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-isatty"
)

// stdoutIsTTY gates the table renderer: piped output gets plain JSON so
// the CLI composes with jq and scripts.
func stdoutIsTTY() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	return t
}

func renderJob(job jobView) error {
	if !stdoutIsTTY() {
		return printJSON(job)
	}
	t := newTable()
	t.AppendRow(table.Row{"job", job.JobID})
	t.AppendRow(table.Row{"kind", job.Kind})
	t.AppendRow(table.Row{"state", job.State})
	t.AppendRow(table.Row{"progress", fmt.Sprintf("%d%%", job.Progress)})
	if job.SelectedProviderID != "" {
		t.AppendRow(table.Row{"provider", job.SelectedProviderID})
	}
	t.AppendRow(table.Row{"attempts", job.AttemptCount})
	if job.Result != nil {
		t.AppendRow(table.Row{"artifact", job.Result.ArtifactURL})
		t.AppendRow(table.Row{"quality", fmt.Sprintf("%.1f", job.Result.QualityScore)})
	}
	if job.Error != nil {
		t.AppendRow(table.Row{"error", job.Error.Message})
		if job.Error.Cause != "" {
			t.AppendRow(table.Row{"cause", job.Error.Cause})
		}
		t.AppendRow(table.Row{"retryable", job.Error.Retryable})
	}
	t.Render()

	if len(job.Attempts) > 0 {
		at := newTable()
		at.AppendHeader(table.Row{"#", "provider", "outcome", "error"})
		for _, a := range job.Attempts {
			at.AppendRow(table.Row{a.Number, a.ProviderID, a.Outcome, a.ErrorMessage})
		}
		at.Render()
	}
	return nil
}

func renderProviders(items []providerView) error {
	if !stdoutIsTTY() {
		return printJSON(items)
	}
	t := newTable()
	t.AppendHeader(table.Row{"id", "name", "kinds", "cost", "push", "attempts", "reliability", "avg quality", "avg latency"})
	for _, p := range items {
		t.AppendRow(table.Row{
			p.ID,
			p.DisplayName,
			strings.Join(p.Capabilities.Kinds, ","),
			p.CostTier,
			p.Callback,
			p.Stats.Attempts,
			fmt.Sprintf("%.2f", p.Stats.Reliability),
			fmt.Sprintf("%.1f", p.Stats.AvgQuality),
			fmt.Sprintf("%.0fs", p.Stats.AvgLatencySeconds),
		})
	}
	t.Render()
	return nil
}

func renderReport(groupBy string, items []reportView) error {
	if !stdoutIsTTY() {
		return printJSON(items)
	}
	t := newTable()
	t.AppendHeader(table.Row{groupBy, "attempts", "ok", "failed", "timeout", "avg quality", "avg gen time"})
	for _, row := range items {
		t.AppendRow(table.Row{
			row.Key,
			row.Attempts,
			row.Successes,
			row.Failures,
			row.Timeouts,
			fmt.Sprintf("%.1f", row.AvgQuality),
			fmt.Sprintf("%.0fs", row.AvgGenerationSecs),
		})
	}
	t.Render()
	return nil
}
