package metrics

import (
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// maxAggregateErrors caps the combined error preview across all runs.
const maxAggregateErrors = 25

// RunSummary is the per-run entry kept in run order for trend inspection.
type RunSummary struct {
	RunID       string  `json:"run_id"`
	Total       int     `json:"total_requests"`
	Successful  int     `json:"successful_requests"`
	Failed      int     `json:"failed_requests"`
	SuccessRate float64 `json:"success_rate"`
	MeanMs      float64 `json:"avg_time_ms"`
}

// AggregateStats combines statistics across repeated runs. Latency figures
// are recomputed over the concatenation of every run's successful samples,
// not averaged across runs.
type AggregateStats struct {
	Runs        int           `json:"runs"`
	Total       int           `json:"total_requests"`
	Successful  int           `json:"successful_requests"`
	Failed      int           `json:"failed_requests"`
	SuccessRate float64       `json:"success_rate"`
	MinMs       float64       `json:"min_time_ms"`
	MaxMs       float64       `json:"max_time_ms"`
	MeanMs      float64       `json:"avg_time_ms"`
	P50Ms       float64       `json:"p50_time_ms"`
	P90Ms       float64       `json:"p90_time_ms"`
	P99Ms       float64       `json:"p99_time_ms"`
	NoSuccesses bool          `json:"no_successes"`
	Errors      []ErrorRecord `json:"errors,omitempty"`
	ErrorsTotal int           `json:"errors_total"`
	PerRun      []RunSummary  `json:"per_run"`
}

// Aggregate combines an ordered sequence of RunStats into one record.
func Aggregate(runs []RunStats) AggregateStats {
	agg := AggregateStats{Runs: len(runs)}

	// Samples span 1µs to 60s with 3 significant figures, recorded in
	// microseconds.
	hist := hdrhistogram.New(1, 60_000_000, 3)

	var sum float64
	var samples int
	for _, run := range runs {
		agg.Total += run.Total
		agg.Successful += run.Successful
		agg.Failed += run.Failed
		agg.ErrorsTotal += run.Failed

		for _, latency := range run.LatenciesMs {
			sum += latency
			samples++
			if agg.MinMs == 0 || latency < agg.MinMs {
				agg.MinMs = latency
			}
			if latency > agg.MaxMs {
				agg.MaxMs = latency
			}
			us := int64(latency * float64(time.Millisecond/time.Microsecond))
			if us < hist.LowestTrackableValue() {
				us = hist.LowestTrackableValue()
			}
			if us > hist.HighestTrackableValue() {
				us = hist.HighestTrackableValue()
			}
			_ = hist.RecordValue(us)
		}

		for _, record := range run.Errors {
			if len(agg.Errors) < maxAggregateErrors {
				agg.Errors = append(agg.Errors, record)
			}
		}

		agg.PerRun = append(agg.PerRun, RunSummary{
			RunID:       run.RunID,
			Total:       run.Total,
			Successful:  run.Successful,
			Failed:      run.Failed,
			SuccessRate: run.SuccessRate,
			MeanMs:      run.MeanMs,
		})
	}

	if samples > 0 {
		agg.MeanMs = sum / float64(samples)
		agg.P50Ms = float64(hist.ValueAtQuantile(50)) / 1000
		agg.P90Ms = float64(hist.ValueAtQuantile(90)) / 1000
		agg.P99Ms = float64(hist.ValueAtQuantile(99)) / 1000
	} else {
		agg.NoSuccesses = true
	}
	if agg.Total > 0 {
		agg.SuccessRate = float64(agg.Successful) / float64(agg.Total) * 100
	}

	return agg
}
