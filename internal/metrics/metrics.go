// Package metrics defines outcome records and the per-run and cross-run
// statistics computed over them.
package metrics

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// maxRunErrors caps the error preview kept on a single run's statistics.
const maxRunErrors = 10

// Outcome is the result record of one dispatched HTTP request. Each endpoint
// task owns its outcome list exclusively until it is handed to the
// orchestrator's collection point.
type Outcome struct {
	Endpoint    string  `json:"endpoint"`
	Method      string  `json:"method"`
	Success     bool    `json:"success"`
	StatusCode  int     `json:"status_code,omitempty"`
	LatencyMs   float64 `json:"latency_ms"`
	Error       string  `json:"error,omitempty"`
	RequestData string  `json:"request_data,omitempty"`
}

// ErrorRecord is a compact failure entry kept for report previews.
type ErrorRecord struct {
	Endpoint   string `json:"endpoint"`
	StatusCode int    `json:"status_code,omitempty"`
	Error      string `json:"error"`
}

// RunStats summarizes one complete run. Latency aggregates cover successful
// outcomes only; when every request failed they are zero and NoSuccesses is
// set instead of reporting NaN.
type RunStats struct {
	RunID       string        `json:"run_id"`
	Total       int           `json:"total_requests"`
	Successful  int           `json:"successful_requests"`
	Failed      int           `json:"failed_requests"`
	MinMs       float64       `json:"min_time_ms"`
	MaxMs       float64       `json:"max_time_ms"`
	MeanMs      float64       `json:"avg_time_ms"`
	SuccessRate float64       `json:"success_rate"`
	NoSuccesses bool          `json:"no_successes"`
	LatenciesMs []float64     `json:"-"`
	Errors      []ErrorRecord `json:"errors,omitempty"`
	Duration    time.Duration `json:"-"`
	DurationMs  float64       `json:"duration_ms"`
}

// Compute derives RunStats from a run's combined outcome list.
func Compute(outcomes []Outcome, duration time.Duration) RunStats {
	stats := RunStats{
		RunID:      ulid.Make().String(),
		Total:      len(outcomes),
		Duration:   duration,
		DurationMs: float64(duration) / float64(time.Millisecond),
	}

	var sum float64
	for _, outcome := range outcomes {
		if !outcome.Success {
			stats.Failed++
			if len(stats.Errors) < maxRunErrors {
				stats.Errors = append(stats.Errors, ErrorRecord{
					Endpoint:   outcome.Endpoint,
					StatusCode: outcome.StatusCode,
					Error:      outcome.Error,
				})
			}
			continue
		}
		stats.Successful++
		latency := outcome.LatencyMs
		stats.LatenciesMs = append(stats.LatenciesMs, latency)
		sum += latency
		if stats.MinMs == 0 || latency < stats.MinMs {
			stats.MinMs = latency
		}
		if latency > stats.MaxMs {
			stats.MaxMs = latency
		}
	}

	if stats.Successful > 0 {
		stats.MeanMs = sum / float64(stats.Successful)
	} else {
		stats.NoSuccesses = true
	}
	if stats.Total > 0 {
		stats.SuccessRate = float64(stats.Successful) / float64(stats.Total) * 100
	}

	return stats
}
