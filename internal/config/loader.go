package config

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const defaultTimeout = 30 * time.Second

// Loader handles loading configuration from files and command-line arguments.
type Loader struct{}

// ErrHelpRequested is returned when the user requests help via --help flag.
var ErrHelpRequested = errors.New("help requested")

// NewLoader creates a new configuration Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses command-line arguments and configuration files to produce a Config.
func (Loader) Load(args []string) (*Config, error) {
	cmd := newFlagCommand()
	if err := cmd.Flags().Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
		return nil, err
	}

	flagSet := cmd.Flags()
	if helpFlag := flagSet.Lookup("help"); helpFlag != nil {
		if wantsHelp, err := strconv.ParseBool(helpFlag.Value.String()); err == nil && wantsHelp {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
	}

	configPath := flagSet.Lookup("config").Value.String()
	if len(args) == 0 && configPath == "" {
		displayHelp(cmd)
		return nil, ErrHelpRequested
	}

	cfgViper := viper.New()
	if configPath != "" {
		cfgViper.SetConfigFile(configPath)
		if err := cfgViper.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	settings := cfgViper.AllSettings()

	cfg := &Config{
		Workers:             10,
		RequestsPerEndpoint: 100,
		Runs:                5,
		Timeout:             defaultTimeout,
		ReportDir:           "reports",
		DefaultHeaders:      map[string]string{},
		Tracing:             TracingConfig{SampleRate: 1.0},
		ConfigFile:          configPath,
	}

	if err := applyConfigSettings(cfg, settings); err != nil {
		return nil, err
	}

	if err := applyFlagOverrides(cfg, flagSet); err != nil {
		return nil, err
	}

	cfg.Target = strings.TrimSpace(cfg.Target)
	if cfg.DefaultHeaders == nil {
		cfg.DefaultHeaders = map[string]string{}
	}

	return cfg, nil
}

// applyConfigSettings applies settings from a config file to the Config struct.
func applyConfigSettings(cfg *Config, settings map[string]any) error {
	if len(settings) == 0 {
		return nil
	}

	if raw, ok := lookupSetting(settings, "target", "base_url", "baseurl"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("target: %w", err)
		}
		cfg.Target = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "endpoints"); ok {
		endpoints, err := parseEndpoints(raw)
		if err != nil {
			return fmt.Errorf("endpoints: %w", err)
		}
		cfg.Endpoints = endpoints
	}

	if raw, ok := lookupSetting(settings, "workers", "num_workers"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("workers: %w", err)
		}
		cfg.Workers = val
	}

	if raw, ok := lookupSetting(settings, "requests_per_endpoint", "requestsperendpoint"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("requests_per_endpoint: %w", err)
		}
		cfg.RequestsPerEndpoint = val
	}

	if raw, ok := lookupSetting(settings, "runs", "num_test_runs"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("runs: %w", err)
		}
		cfg.Runs = val
	}

	if raw, ok := lookupSetting(settings, "default_headers", "defaultheaders", "headers"); ok {
		hdrs, err := asStringMap(raw)
		if err != nil {
			return fmt.Errorf("default_headers: %w", err)
		}
		if cfg.DefaultHeaders == nil {
			cfg.DefaultHeaders = map[string]string{}
		}
		for k, v := range hdrs {
			cfg.DefaultHeaders[http.CanonicalHeaderKey(k)] = v
		}
	}

	for _, table := range []struct {
		key  string
		dest *map[string]any
	}{
		{"variables", &cfg.Variables},
		{"generators", &cfg.Generators},
		{"datasets", &cfg.Datasets},
		{"ranges", &cfg.Ranges},
	} {
		if raw, ok := lookupSetting(settings, table.key); ok {
			m, err := asAnyMap(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", table.key, err)
			}
			*table.dest = m
		}
	}

	if raw, ok := lookupSetting(settings, "timeout"); ok {
		dur, err := asDuration(raw)
		if err != nil {
			return fmt.Errorf("timeout: %w", err)
		}
		cfg.Timeout = dur
	}

	if raw, ok := lookupSetting(settings, "rate"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("rate: %w", err)
		}
		cfg.Rate = val
	}

	if raw, ok := lookupSetting(settings, "seed"); ok {
		val, err := asInt64(raw)
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		cfg.Seed = val
	}

	if raw, ok := lookupSetting(settings, "report_dir", "reportdir", "report-dir"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("report_dir: %w", err)
		}
		cfg.ReportDir = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "json_output", "jsonoutput", "json-output"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("json_output: %w", err)
		}
		cfg.JSONOutput = val
	}

	if raw, ok := lookupSetting(settings, "log_errors", "logerrors", "log-errors"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("log_errors: %w", err)
		}
		cfg.LogErrors = val
	}

	if raw, ok := lookupSetting(settings, "tracing"); ok {
		tracing, err := parseTracing(raw)
		if err != nil {
			return fmt.Errorf("tracing: %w", err)
		}
		cfg.Tracing = tracing
	}

	return nil
}

func parseEndpoints(value any) ([]EndpointSpec, error) {
	if value == nil {
		return nil, nil
	}
	items, err := toInterfaceSlice(value)
	if err != nil {
		return nil, err
	}
	endpoints := make([]EndpointSpec, 0, len(items))
	for idx, item := range items {
		entry, err := toStringKeyMap(item)
		if err != nil {
			return nil, fmt.Errorf("index %d: %w", idx, err)
		}
		endpoint, err := buildEndpoint(entry)
		if err != nil {
			return nil, fmt.Errorf("index %d: %w", idx, err)
		}
		endpoints = append(endpoints, endpoint)
	}
	return endpoints, nil
}

func buildEndpoint(settings map[string]any) (EndpointSpec, error) {
	endpoint := EndpointSpec{Method: "GET", JSONBody: true}
	if raw, ok := lookupSetting(settings, "name"); ok {
		val, err := asString(raw)
		if err != nil {
			return EndpointSpec{}, fmt.Errorf("name: %w", err)
		}
		endpoint.Name = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(settings, "method"); ok {
		val, err := asString(raw)
		if err != nil {
			return EndpointSpec{}, fmt.Errorf("method: %w", err)
		}
		if strings.TrimSpace(val) != "" {
			endpoint.Method = strings.ToUpper(strings.TrimSpace(val))
		}
	}
	if raw, ok := lookupSetting(settings, "path"); ok {
		val, err := asString(raw)
		if err != nil {
			return EndpointSpec{}, fmt.Errorf("path: %w", err)
		}
		endpoint.Path = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(settings, "body", "data"); ok {
		endpoint.Body = normalizeValue(raw)
	}
	if raw, ok := lookupSetting(settings, "delay_ms", "delayms", "delay"); ok {
		val, err := asInt(raw)
		if err != nil {
			return EndpointSpec{}, fmt.Errorf("delay_ms: %w", err)
		}
		endpoint.DelayMs = val
	}
	if raw, ok := lookupSetting(settings, "json_body", "jsonbody", "json_content"); ok {
		val, err := asBool(raw)
		if err != nil {
			return EndpointSpec{}, fmt.Errorf("json_body: %w", err)
		}
		endpoint.JSONBody = val
	}
	if raw, ok := lookupSetting(settings, "headers"); ok {
		hdrs, err := asStringMap(raw)
		if err != nil {
			return EndpointSpec{}, fmt.Errorf("headers: %w", err)
		}
		if len(hdrs) > 0 {
			endpoint.Headers = map[string]string{}
			for key, value := range hdrs {
				trimmedKey := strings.TrimSpace(key)
				if trimmedKey == "" {
					return EndpointSpec{}, fmt.Errorf("headers: key cannot be empty")
				}
				endpoint.Headers[http.CanonicalHeaderKey(trimmedKey)] = value
			}
		}
	}
	return endpoint, nil
}

func parseTracing(value any) (TracingConfig, error) {
	if value == nil {
		return TracingConfig{SampleRate: 1.0}, nil
	}
	entry, err := toStringKeyMap(value)
	if err != nil {
		return TracingConfig{}, err
	}
	tracing := TracingConfig{SampleRate: 1.0}
	if raw, ok := lookupSetting(entry, "endpoint"); ok {
		val, err := asString(raw)
		if err != nil {
			return TracingConfig{}, fmt.Errorf("endpoint: %w", err)
		}
		tracing.Endpoint = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(entry, "protocol"); ok {
		val, err := asString(raw)
		if err != nil {
			return TracingConfig{}, fmt.Errorf("protocol: %w", err)
		}
		tracing.Protocol = strings.ToLower(strings.TrimSpace(val))
	}
	if raw, ok := lookupSetting(entry, "service_name", "servicename", "service-name"); ok {
		val, err := asString(raw)
		if err != nil {
			return TracingConfig{}, fmt.Errorf("service_name: %w", err)
		}
		tracing.ServiceName = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(entry, "sample_rate", "samplerate", "sample-rate"); ok {
		val, err := asFloat64(raw)
		if err != nil {
			return TracingConfig{}, fmt.Errorf("sample_rate: %w", err)
		}
		tracing.SampleRate = val
	}
	if raw, ok := lookupSetting(entry, "insecure"); ok {
		val, err := asBool(raw)
		if err != nil {
			return TracingConfig{}, fmt.Errorf("insecure: %w", err)
		}
		tracing.Insecure = val
	}
	if raw, ok := lookupSetting(entry, "propagate"); ok {
		val, err := asBool(raw)
		if err != nil {
			return TracingConfig{}, fmt.Errorf("propagate: %w", err)
		}
		tracing.Propagate = val
	}
	return tracing, nil
}
