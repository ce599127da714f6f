package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ramazansakin/firedrill/internal/metrics"
	"github.com/ramazansakin/firedrill/internal/tracing"
)

// maxErrorBodyBytes bounds the response snippet attached to failure messages.
const maxErrorBodyBytes = 1024

// HTTPError represents a response with an error status code.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Executor sends one HTTP request per call and always returns a populated
// outcome record; transport errors and error statuses never propagate.
type Executor struct {
	Client    *http.Client
	Tracer    trace.Tracer
	Propagate bool
}

// Do dispatches a single request. Elapsed time is measured with the
// monotonic clock from immediately before dispatch until the response body
// is fully received, covering connection setup and TLS handshake.
func (e *Executor) Do(ctx context.Context, method, target string, headers map[string]string, body any, jsonBody bool) metrics.Outcome {
	if ctx == nil {
		ctx = context.Background()
	}

	outcome := metrics.Outcome{Endpoint: target, Method: method}

	payload, contentType, err := encodeBody(method, body, jsonBody)
	if err != nil {
		outcome.Error = fmt.Sprintf("encode body: %v", err)
		return outcome
	}

	var span trace.Span
	if e.Tracer != nil {
		ctx, span = tracing.StartRequestSpan(ctx, e.Tracer, method, target)
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		outcome.Error = err.Error()
		finishSpan(span, err, 0)
		return outcome
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	if contentType != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", contentType)
	}
	if e.Propagate {
		tracing.InjectHTTPHeaders(ctx, req.Header)
	}

	start := time.Now()
	resp, err := e.Client.Do(req)
	if err != nil {
		outcome.LatencyMs = elapsedMs(start)
		outcome.Error = err.Error()
		outcome.RequestData = snapshot(payload)
		finishSpan(span, err, 0)
		return outcome
	}

	snippet, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	outcome.LatencyMs = elapsedMs(start)
	outcome.StatusCode = resp.StatusCode

	if readErr != nil {
		outcome.Error = readErr.Error()
		outcome.RequestData = snapshot(payload)
		finishSpan(span, readErr, resp.StatusCode)
		return outcome
	}

	if resp.StatusCode >= 400 {
		httpErr := &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
		outcome.Error = httpErr.Error()
		outcome.RequestData = snapshot(payload)
		finishSpan(span, httpErr, resp.StatusCode)
		return outcome
	}

	outcome.Success = true
	finishSpan(span, nil, resp.StatusCode)
	return outcome
}

func elapsedMs(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}

func finishSpan(span trace.Span, err error, statusCode int) {
	if span == nil {
		return
	}
	var attrs []attribute.KeyValue
	if statusCode > 0 {
		attrs = append(attrs, attribute.Int("http.response.status_code", statusCode))
	}
	tracing.EndSpan(span, err, attrs...)
}

// encodeBody renders the resolved body for the wire. Bodies are only sent
// with methods that carry one; JSON encoding marshals the structure, form
// encoding flattens a mapping into URL-encoded pairs.
func encodeBody(method string, body any, jsonBody bool) ([]byte, string, error) {
	if body == nil {
		return nil, "", nil
	}
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
	default:
		return nil, "", nil
	}

	if jsonBody {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, "", err
		}
		return data, "application/json", nil
	}

	switch v := body.(type) {
	case string:
		return []byte(v), "application/x-www-form-urlencoded", nil
	case map[string]any:
		form := url.Values{}
		for key, value := range v {
			form.Set(key, fmt.Sprint(value))
		}
		return []byte(form.Encode()), "application/x-www-form-urlencoded", nil
	default:
		return nil, "", fmt.Errorf("form encoding requires a mapping or string body, got %T", body)
	}
}

func snapshot(payload []byte) string {
	if len(payload) == 0 {
		return ""
	}
	return string(payload)
}
