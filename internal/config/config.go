package config

import (
	"fmt"
	"strings"
	"time"
)

// Config holds the full test plan. It is immutable after loading and is
// shared read-only by all concurrent endpoint tasks.
type Config struct {
	Target              string            `mapstructure:"target"`
	Endpoints           []EndpointSpec    `mapstructure:"endpoints"`
	Workers             int               `mapstructure:"workers"`
	RequestsPerEndpoint int               `mapstructure:"requests_per_endpoint"`
	Runs                int               `mapstructure:"runs"`
	DefaultHeaders      map[string]string `mapstructure:"default_headers"`
	Variables           map[string]any    `mapstructure:"variables"`
	Generators          map[string]any    `mapstructure:"generators"`
	Datasets            map[string]any    `mapstructure:"datasets"`
	Ranges              map[string]any    `mapstructure:"ranges"`
	Timeout             time.Duration     `mapstructure:"timeout"`
	Rate                int               `mapstructure:"rate"`
	Seed                int64             `mapstructure:"seed"`
	ReportDir           string            `mapstructure:"report_dir"`
	JSONOutput          bool              `mapstructure:"json_output"`
	LogErrors           bool              `mapstructure:"log_errors"`
	Tracing             TracingConfig     `mapstructure:"tracing"`
	ConfigFile          string            `mapstructure:"-"`
}

// EndpointSpec describes one endpoint under test. Specs are views into the
// Config and are never mutated after load.
type EndpointSpec struct {
	Name     string            `mapstructure:"name"`
	Method   string            `mapstructure:"method"`
	Path     string            `mapstructure:"path"`
	Body     any               `mapstructure:"body"`
	DelayMs  int               `mapstructure:"delay_ms"`
	JSONBody bool              `mapstructure:"json_body"`
	Headers  map[string]string `mapstructure:"headers"`
}

// TracingConfig controls the optional OTLP trace exporter.
type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"`
	ServiceName string  `mapstructure:"service_name"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	Insecure    bool    `mapstructure:"insecure"`
	Propagate   bool    `mapstructure:"propagate"`
}

// Enabled reports whether an exporter endpoint is configured.
func (t TracingConfig) Enabled() bool {
	return strings.TrimSpace(t.Endpoint) != ""
}

// ShouldPropagate reports whether W3C trace headers should be injected into
// outgoing requests.
func (t TracingConfig) ShouldPropagate() bool {
	return t.Enabled() && t.Propagate
}

// ValidationError aggregates every problem found during validation so users
// can fix a config in one pass.
type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

func (c Config) Validate() error {
	var issues []string

	if strings.TrimSpace(c.Target) == "" {
		issues = append(issues, "target is required (use --help for usage information)")
	}
	if len(c.Endpoints) == 0 {
		issues = append(issues, "at least one endpoint is required")
	}
	if c.Workers < 1 {
		issues = append(issues, "workers must be >= 1")
	}
	if c.RequestsPerEndpoint < 1 {
		issues = append(issues, "requests_per_endpoint must be >= 1")
	}
	if c.Runs < 1 {
		issues = append(issues, "runs must be >= 1")
	}
	if c.Rate < 0 {
		issues = append(issues, "rate must be >= 0")
	}
	if c.Timeout < 0 {
		issues = append(issues, "timeout must be >= 0")
	}

	issues = append(issues, validateEndpoints(c.Endpoints)...)
	issues = append(issues, validateTracing(c.Tracing)...)

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

func validateEndpoints(endpoints []EndpointSpec) []string {
	var issues []string
	seenNames := map[string]int{}
	for idx, ep := range endpoints {
		if strings.TrimSpace(ep.Path) == "" {
			issues = append(issues, fmt.Sprintf("endpoints[%d]: path is required", idx))
		}
		if ep.DelayMs < 0 {
			issues = append(issues, fmt.Sprintf("endpoints[%d]: delay_ms must be >= 0", idx))
		}
		switch ep.Method {
		case "GET", "HEAD", "POST", "PUT", "PATCH", "DELETE", "OPTIONS":
		default:
			issues = append(issues, fmt.Sprintf("endpoints[%d]: unsupported method %q", idx, ep.Method))
		}
		name := strings.TrimSpace(ep.Name)
		if name != "" {
			key := strings.ToLower(name)
			if prev, ok := seenNames[key]; ok {
				issues = append(issues, fmt.Sprintf("endpoints[%d]: duplicate name also defined at index %d", idx, prev))
			} else {
				seenNames[key] = idx
			}
		}
	}
	return issues
}

func validateTracing(t TracingConfig) []string {
	var issues []string
	if !t.Enabled() {
		return nil
	}
	if t.SampleRate < 0 || t.SampleRate > 1.0 {
		issues = append(issues, fmt.Sprintf("tracing: sample_rate must be between 0.0 and 1.0, got %g", t.SampleRate))
	}
	switch strings.ToLower(strings.TrimSpace(t.Protocol)) {
	case "", "grpc", "http":
	default:
		issues = append(issues, fmt.Sprintf("tracing: protocol must be 'grpc' or 'http', got %q", t.Protocol))
	}
	return issues
}
