// Package output renders run and aggregate statistics for the console and
// as standalone HTML reports.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ramazansakin/firedrill/internal/metrics"
)

// PrintRunSummary outputs a human-readable summary for one run.
func PrintRunSummary(w io.Writer, index, totalRuns int, stats metrics.RunStats) {
	fmt.Fprintf(w, "\n--- Test Run %d/%d ---\n", index, totalRuns)
	fmt.Fprintf(w, "  Total Requests:    %d\n", stats.Total)
	fmt.Fprintf(w, "  Successful:        %d\n", stats.Successful)
	fmt.Fprintf(w, "  Failed:            %d\n", stats.Failed)
	fmt.Fprintf(w, "  Success Rate:      %.2f%%\n", stats.SuccessRate)
	if stats.NoSuccesses {
		fmt.Fprintf(w, "  Avg Response Time: 0.00 ms (no successful requests)\n")
		return
	}
	fmt.Fprintf(w, "  Avg Response Time: %.2f ms\n", stats.MeanMs)
	fmt.Fprintf(w, "  Min/Max:           %.2f ms / %.2f ms\n", stats.MinMs, stats.MaxMs)
}

// PrintAggregate outputs the combined statistics across all runs.
func PrintAggregate(w io.Writer, stats metrics.AggregateStats) {
	fmt.Fprintln(w, "\n--- Aggregate Results ---")
	fmt.Fprintf(w, "Runs:              %d\n", stats.Runs)
	fmt.Fprintf(w, "Total Requests:    %d\n", stats.Total)
	fmt.Fprintf(w, "Successful:        %d\n", stats.Successful)
	fmt.Fprintf(w, "Failed:            %d\n", stats.Failed)
	fmt.Fprintf(w, "Success Rate:      %.2f%%\n", stats.SuccessRate)

	if stats.NoSuccesses {
		fmt.Fprintln(w, "\nNo successful requests: latency figures are zero.")
	} else {
		fmt.Fprintln(w, "\nLatency:")
		fmt.Fprintf(w, "  Min:             %.2f ms\n", stats.MinMs)
		fmt.Fprintf(w, "  Max:             %.2f ms\n", stats.MaxMs)
		fmt.Fprintf(w, "  Mean:            %.2f ms\n", stats.MeanMs)
		fmt.Fprintf(w, "  P50:             %.2f ms\n", stats.P50Ms)
		fmt.Fprintf(w, "  P90:             %.2f ms\n", stats.P90Ms)
		fmt.Fprintf(w, "  P99:             %.2f ms\n", stats.P99Ms)
	}

	if len(stats.PerRun) > 1 {
		fmt.Fprintln(w, "\nPer-Run Trend:")
		for i, run := range stats.PerRun {
			fmt.Fprintf(w, "  Run %d: success=%.2f%%, avg=%.2f ms\n", i+1, run.SuccessRate, run.MeanMs)
		}
	}

	if len(stats.Errors) > 0 {
		fmt.Fprintln(w, "\nFirst Errors:")
		for _, record := range stats.Errors {
			if record.StatusCode > 0 {
				fmt.Fprintf(w, "  - %s [%d]: %s\n", record.Endpoint, record.StatusCode, record.Error)
			} else {
				fmt.Fprintf(w, "  - %s: %s\n", record.Endpoint, record.Error)
			}
		}
		if stats.ErrorsTotal > len(stats.Errors) {
			fmt.Fprintf(w, "  ... and %d more errors\n", stats.ErrorsTotal-len(stats.Errors))
		}
	}
}

// PrintJSONAggregate outputs the aggregate statistics as indented JSON.
func PrintJSONAggregate(w io.Writer, stats metrics.AggregateStats) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(stats)
}
