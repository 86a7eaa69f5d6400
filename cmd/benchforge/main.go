package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/torosent/benchforge/internal/bench"
	"github.com/torosent/benchforge/internal/config"
	"github.com/torosent/benchforge/internal/dashboard"
	"github.com/torosent/benchforge/internal/envinfo"
	"github.com/torosent/benchforge/internal/logging"
	"github.com/torosent/benchforge/internal/output"
	"github.com/torosent/benchforge/internal/progress"
	"github.com/torosent/benchforge/internal/scheduler"
	"github.com/torosent/benchforge/internal/suite"
	"github.com/torosent/benchforge/internal/threshold"
	"github.com/torosent/benchforge/internal/tracing"
)

const shutdownGrace = 5 * time.Second

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

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	thresholds, err := threshold.ParseAll(cfg.Thresholds)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	provider, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer shutdownCancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	var callbacks scheduler.Callbacks
	if !cfg.JSONOutput && !cfg.Dashboard {
		callbacks.OnProgress = progressPrinter(os.Stdout)
		callbacks.OnSuiteComplete = func(name string, result *suite.Result) {
			status := "ok"
			if !result.Success {
				status = "failed"
			}
			fmt.Fprintf(os.Stdout, "\rsuite %s finished (%s) in %s%s\n", name, status, result.Duration.Round(time.Millisecond), clearToEOL)
		}
	}

	sched := scheduler.New(scheduler.Options{
		Name: cfg.Name,
		Config: scheduler.Config{
			Enabled:         cfg.Parallel.Enabled,
			MaxWorkers:      cfg.Parallel.MaxWorkers,
			Isolate:         cfg.Parallel.Isolate,
			ContinueOnError: cfg.Parallel.ContinueOnError,
		},
		Logger:    logger,
		Callbacks: callbacks,
		Tracer:    provider.Tracer(),
	})

	if err := registerSuites(sched, cfg, logger); err != nil {
		return err
	}

	var dash *dashboard.Dashboard
	if cfg.Dashboard {
		dash, err = dashboard.New(sched, dashboard.RunConfig{
			Name:       cfg.Name,
			Workers:    dashboardWorkers(cfg),
			Iterations: cfg.Iterations,
			Timeout:    cfg.Timeout,
			Rate:       cfg.Rate,
			ConfigFile: cfg.ConfigFile,
		}, cancel)
		if err != nil {
			return err
		}
		dash.Start()
		defer func() {
			if dash != nil {
				dash.Stop()
			}
		}()
	}

	report, runErr := sched.RunAll(ctx)
	if report == nil {
		return runErr
	}
	report.Environment = envinfo.Collect(context.Background())

	var thresholdResults []threshold.Result
	if len(thresholds) > 0 {
		thresholdResults = threshold.NewEvaluator(thresholds).Evaluate(report)
	}

	if dash != nil {
		dash.Stop()
		dash = nil
	}

	if cfg.JSONOutput {
		if err := output.PrintJSONReport(os.Stdout, report); err != nil {
			return err
		}
	} else {
		output.PrintReport(os.Stdout, report)
		output.PrintThresholdResults(os.Stdout, thresholdResults)
	}

	if cfg.ReportFile != "" {
		if err := output.WriteReportFile(cfg.ReportFile, report); err != nil {
			return err
		}
		logger.Info("report written", "path", cfg.ReportFile)
	}
	if cfg.HTMLOutput != "" {
		if err := output.WriteHTMLReport(cfg.HTMLOutput, report, thresholdResults); err != nil {
			return err
		}
		logger.Info("html report written", "path", cfg.HTMLOutput)
	}

	if runErr != nil {
		return runErr
	}
	if n := len(report.Failures); n > 0 {
		return fmt.Errorf("%d of %d suites failed", n, n+len(report.Suites))
	}
	if n := countFailed(thresholdResults); n > 0 {
		return fmt.Errorf("%d threshold(s) not met", n)
	}
	return nil
}

// registerSuites builds a Benchmark per configured suite and registers it.
// The configured timeout is enforced cooperatively per task, so partial
// results survive an overrun; the scheduler itself runs without a deadline.
func registerSuites(sched *scheduler.Scheduler, cfg *config.Config, logger *slog.Logger) error {
	for _, sc := range cfg.Suites {
		iterations := cfg.Iterations
		if sc.Iterations > 0 {
			iterations = sc.Iterations
		}
		warmup := cfg.Warmup
		if sc.Warmup > 0 {
			warmup = sc.Warmup
		}

		b := bench.New(sc.Name, bench.Options{
			Iterations: iterations,
			Warmup:     warmup,
			Timeout:    cfg.Timeout,
			Rate:       cfg.Rate,
		}, logger)
		for _, tc := range sc.Tasks {
			b.AddTask(tc.Name, bench.Command(tc.Command), tc.Tags...)
		}

		if err := sched.Register(suite.Descriptor{
			Name:      sc.Name,
			Runnable:  b,
			DependsOn: sc.DependsOn,
			Tags:      sc.Tags,
		}); err != nil {
			return err
		}
	}
	return nil
}

func dashboardWorkers(cfg *config.Config) int {
	if !cfg.Parallel.Enabled {
		return 0
	}
	return cfg.Parallel.MaxWorkers
}

func countFailed(results []threshold.Result) int {
	n := 0
	for _, r := range results {
		if !r.Pass {
			n++
		}
	}
	return n
}

const clearToEOL = "\x1b[K"

// progressPrinter writes a single rewriting progress line to w.
func progressPrinter(w io.Writer) progress.Func {
	return func(snap progress.Snapshot) {
		if snap.Total == 0 {
			return
		}
		fmt.Fprintf(w, "\r[%5.1f%%] %d/%d iterations | %s / %s (%s)%s",
			snap.Percentage, snap.Current, snap.Total,
			snap.Suite, snap.Task, snap.Phase, clearToEOL)
	}
}
