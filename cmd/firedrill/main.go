package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ramazansakin/firedrill/internal/config"
	"github.com/ramazansakin/firedrill/internal/httpclient"
	"github.com/ramazansakin/firedrill/internal/metrics"
	"github.com/ramazansakin/firedrill/internal/output"
	"github.com/ramazansakin/firedrill/internal/provider"
	"github.com/ramazansakin/firedrill/internal/resolver"
	"github.com/ramazansakin/firedrill/internal/runner"
	"github.com/ramazansakin/firedrill/internal/tracing"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	tracer, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := tracer.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: tracing shutdown: %v\n", err)
		}
	}()

	registry := provider.NewRegistry(cfg.Ranges, cfg.Seed)
	res := resolver.New(registry, cfg.Variables, cfg.Generators, cfg.Datasets, cfg.Ranges)

	exec := &httpclient.Executor{
		Client:    httpclient.NewClient(cfg.Timeout),
		Propagate: tracer.ShouldPropagate(),
	}
	if cfg.Tracing.Enabled() {
		exec.Tracer = tracer.Tracer()
	}

	r := runner.New(cfg, exec, res)

	fmt.Printf("Starting load test against %s (%d endpoints, %d workers, %d requests/endpoint, %d runs)\n",
		cfg.Target, len(cfg.Endpoints), cfg.Workers, cfg.RequestsPerEndpoint, cfg.Runs)

	runs := make([]metrics.RunStats, 0, cfg.Runs)
	for i := 1; i <= cfg.Runs; i++ {
		start := time.Now()
		outcomes := r.Run(ctx)
		stats := metrics.Compute(outcomes, time.Since(start))

		if !cfg.JSONOutput {
			output.PrintRunSummary(os.Stdout, i, cfg.Runs, stats)
		}
		runs = append(runs, stats)

		if ctx.Err() != nil {
			fmt.Fprintln(os.Stderr, "\nInterrupted, reporting completed runs.")
			break
		}
	}

	agg := metrics.Aggregate(runs)

	if cfg.JSONOutput {
		if err := output.PrintJSONAggregate(os.Stdout, agg); err != nil {
			return err
		}
	} else {
		output.PrintAggregate(os.Stdout, agg)
	}

	if cfg.ReportDir != "" {
		path, err := output.WriteHTMLReport(cfg.ReportDir, cfg.Target, agg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: HTML report: %v\n", err)
		} else if !cfg.JSONOutput {
			fmt.Printf("\nHTML report written to %s\n", path)
		}
	}

	return nil
}
