// Package runner drives one load-test run: a bounded pool of endpoint tasks,
// each sending its requests strictly in sequence.
package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ramazansakin/firedrill/internal/config"
	"github.com/ramazansakin/firedrill/internal/metrics"
	"github.com/ramazansakin/firedrill/internal/payload"
	"github.com/ramazansakin/firedrill/internal/resolver"
)

// Executor sends one request and reports its outcome. Implementations must
// be safe for concurrent use.
type Executor interface {
	Do(ctx context.Context, method, target string, headers map[string]string, body any, jsonBody bool) metrics.Outcome
}

// Runner executes all configured endpoints for a single run.
type Runner struct {
	cfg      *config.Config
	exec     Executor
	resolver *resolver.Resolver
	limiter  *rate.Limiter
	stderr   io.Writer
}

// New creates a Runner. The config is shared read-only; a global rate limit
// is applied across all endpoint tasks when cfg.Rate > 0.
func New(cfg *config.Config, exec Executor, res *resolver.Resolver) *Runner {
	r := &Runner{
		cfg:      cfg,
		exec:     exec,
		resolver: res,
		stderr:   os.Stderr,
	}
	if cfg.Rate > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(cfg.Rate), cfg.Rate)
	}
	return r
}

// SetStderr redirects task failure logging, primarily for tests.
func (r *Runner) SetStderr(w io.Writer) {
	if w == nil {
		w = io.Discard
	}
	r.stderr = w
}

type taskResult struct {
	endpoint string
	outcomes []metrics.Outcome
	err      error
}

// Run fans one task per endpoint out over at most cfg.Workers concurrent
// slots and collects outcome lists in completion order. A failing task is
// logged and excluded; it never aborts its siblings.
func (r *Runner) Run(ctx context.Context) []metrics.Outcome {
	endpoints := r.cfg.Endpoints
	permits := make(chan struct{}, r.workers())
	results := make(chan taskResult, len(endpoints))

	for _, spec := range endpoints {
		spec := spec
		go func() {
			select {
			case permits <- struct{}{}:
			case <-ctx.Done():
				results <- taskResult{endpoint: taskName(spec), err: ctx.Err()}
				return
			}
			defer func() { <-permits }()

			outcomes, err := r.runEndpointTask(ctx, spec)
			results <- taskResult{endpoint: taskName(spec), outcomes: outcomes, err: err}
		}()
	}

	var combined []metrics.Outcome
	for range endpoints {
		result := <-results
		if result.err != nil {
			fmt.Fprintf(r.stderr, "[firedrill] endpoint %s task failed: %v\n", result.endpoint, result.err)
			continue
		}
		combined = append(combined, result.outcomes...)
	}
	return combined
}

func (r *Runner) workers() int {
	if r.cfg.Workers < 1 {
		return 1
	}
	return r.cfg.Workers
}

// runEndpointTask isolates panics so one broken endpoint cannot take down
// the run.
func (r *Runner) runEndpointTask(ctx context.Context, spec config.EndpointSpec) (outcomes []metrics.Outcome, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			outcomes = nil
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return r.runEndpoint(ctx, spec)
}

// runEndpoint sends the configured number of requests strictly sequentially,
// resolving a fresh body for every iteration so dynamic values differ per
// request.
func (r *Runner) runEndpoint(ctx context.Context, spec config.EndpointSpec) ([]metrics.Outcome, error) {
	rawBody, err := payload.Load(spec.Body)
	if err != nil {
		return nil, err
	}

	total := r.cfg.RequestsPerEndpoint
	outcomes := make([]metrics.Outcome, 0, total)
	for i := 0; i < total; i++ {
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				break
			}
		}

		target := JoinURL(r.cfg.Target, r.resolver.ResolveString(spec.Path))
		headers := r.requestHeaders(spec)
		var body any
		if rawBody != nil {
			body = r.resolver.Resolve(rawBody)
		}

		outcome := r.exec.Do(ctx, spec.Method, target, headers, body, spec.JSONBody)
		if !outcome.Success && r.cfg.LogErrors {
			fmt.Fprintf(r.stderr, "[firedrill] request failed: %s %s: %s\n", outcome.Method, outcome.Endpoint, outcome.Error)
		}
		outcomes = append(outcomes, outcome)

		if ctx.Err() != nil {
			break
		}
		if spec.DelayMs > 0 && i < total-1 {
			if !sleepCtx(ctx, time.Duration(spec.DelayMs)*time.Millisecond) {
				break
			}
		}
	}
	return outcomes, nil
}

// requestHeaders merges default and endpoint headers, resolving template
// references in the values. Endpoint headers win on conflict.
func (r *Runner) requestHeaders(spec config.EndpointSpec) map[string]string {
	if len(r.cfg.DefaultHeaders) == 0 && len(spec.Headers) == 0 {
		return nil
	}
	headers := make(map[string]string, len(r.cfg.DefaultHeaders)+len(spec.Headers))
	for key, value := range r.cfg.DefaultHeaders {
		headers[key] = r.resolver.ResolveString(value)
	}
	for key, value := range spec.Headers {
		headers[key] = r.resolver.ResolveString(value)
	}
	return headers
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func taskName(spec config.EndpointSpec) string {
	if spec.Name != "" {
		return spec.Name
	}
	return spec.Method + " " + spec.Path
}

// JoinURL joins the base URL and an endpoint path with exactly one slash.
func JoinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
