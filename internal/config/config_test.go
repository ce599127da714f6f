package config_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/ramazansakin/firedrill/internal/config"
)

func validConfig() config.Config {
	return config.Config{
		Target: "http://api.test",
		Endpoints: []config.EndpointSpec{
			{Name: "health", Method: "GET", Path: "/health", JSONBody: true},
		},
		Workers:             10,
		RequestsPerEndpoint: 100,
		Runs:                5,
	}
}

func TestValidateAcceptsValidConfig(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestValidateCollectsAllIssues(t *testing.T) {
	cfg := config.Config{
		Workers:             0,
		RequestsPerEndpoint: 0,
		Runs:                0,
		Rate:                -1,
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}

	var verr config.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	issues := strings.Join(verr.Issues(), "\n")
	for _, want := range []string{"target", "endpoint", "workers", "requests_per_endpoint", "runs", "rate"} {
		if !strings.Contains(issues, want) {
			t.Errorf("expected issue mentioning %q, got:\n%s", want, issues)
		}
	}
}

func TestValidateEndpointIssues(t *testing.T) {
	cfg := validConfig()
	cfg.Endpoints = []config.EndpointSpec{
		{Name: "a", Method: "GET", Path: "/x", JSONBody: true},
		{Name: "A", Method: "TRACE", Path: "", DelayMs: -1},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{"path is required", "delay_ms", "unsupported method", "duplicate name"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %q in %q", want, msg)
		}
	}
}

func TestValidateTracing(t *testing.T) {
	cfg := validConfig()
	cfg.Tracing = config.TracingConfig{Endpoint: "localhost:4317", SampleRate: 2.0, Protocol: "udp"}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "sample_rate") || !strings.Contains(msg, "protocol") {
		t.Errorf("expected tracing issues, got %q", msg)
	}

	// Disabled tracing is not validated.
	cfg.Tracing = config.TracingConfig{SampleRate: 5.0, Protocol: "udp"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected disabled tracing to be skipped, got %v", err)
	}
}

func TestTracingEnabled(t *testing.T) {
	if (config.TracingConfig{}).Enabled() {
		t.Error("expected tracing disabled without endpoint")
	}
	if !(config.TracingConfig{Endpoint: "localhost:4317"}).Enabled() {
		t.Error("expected tracing enabled with endpoint")
	}
	if (config.TracingConfig{Propagate: true}).ShouldPropagate() {
		t.Error("expected no propagation while disabled")
	}
}
