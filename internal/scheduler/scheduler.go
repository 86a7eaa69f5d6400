// Package scheduler runs registered suites under a bounded concurrency
// budget while respecting declared execution-order dependencies, capturing
// per-suite failures instead of propagating them.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/torosent/benchforge/internal/graph"
	"github.com/torosent/benchforge/internal/guard"
	"github.com/torosent/benchforge/internal/progress"
	"github.com/torosent/benchforge/internal/semaphore"
	"github.com/torosent/benchforge/internal/suite"
)

// Config controls scheduling behavior.
type Config struct {
	Enabled         bool          // run suites concurrently; false forces the serial path
	MaxWorkers      int           // concurrency budget, >= 1
	Isolate         bool          // reserved, currently a no-op
	ContinueOnError bool          // honored by the serial path only; parallel modes always continue past failures
	Timeout         time.Duration // per-suite deadline, 0 disables
}

// DefaultConfig returns the defaults: parallel with 4 workers, continue on
// error, no deadline.
func DefaultConfig() Config {
	return Config{Enabled: true, MaxWorkers: 4, ContinueOnError: true}
}

func (c *Config) normalize() {
	if c.MaxWorkers < 1 {
		c.MaxWorkers = 1
	}
}

// Callbacks are invoked synchronously at well-defined lifecycle points.
type Callbacks struct {
	OnProgress      progress.Func
	OnSuiteStart    func(name string)
	OnSuiteComplete func(name string, result *suite.Result)
}

// Options configure a Scheduler.
type Options struct {
	Name      string // run name stamped on the report
	Config    Config
	Logger    *slog.Logger
	Callbacks Callbacks
	Tracer    trace.Tracer // optional; no-op when nil
}

// Scheduler owns suite registration, admission, lifecycle bookkeeping and
// report assembly for one run at a time.
type Scheduler struct {
	name       string
	cfg        Config
	logger     *slog.Logger
	callbacks  Callbacks
	tracer     trace.Tracer
	aggregator *progress.Aggregator

	mu      sync.Mutex
	suites  []suite.Descriptor
	names   map[string]bool
	state   *executionState
	results map[string]*suite.Result
	errs    []error
}

// New creates a scheduler from the given options.
func New(opt Options) *Scheduler {
	opt.Config.normalize()
	logger := opt.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tracer := opt.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("benchforge/scheduler")
	}
	name := opt.Name
	if name == "" {
		name = "benchforge"
	}
	return &Scheduler{
		name:       name,
		cfg:        opt.Config,
		logger:     logger.With("component", "scheduler"),
		callbacks:  opt.Callbacks,
		tracer:     tracer,
		aggregator: progress.NewAggregator(opt.Callbacks.OnProgress),
		names:      make(map[string]bool),
	}
}

// Register adds a suite descriptor. Names must be unique; descriptors are
// copied and immutable afterwards.
func (s *Scheduler) Register(desc suite.Descriptor) error {
	if desc.Name == "" {
		return fmt.Errorf("suite name must not be empty")
	}
	if desc.Runnable == nil {
		return fmt.Errorf("suite %q has no runnable", desc.Name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.names[desc.Name] {
		return fmt.Errorf("suite %q already registered", desc.Name)
	}
	desc.DependsOn = append([]string(nil), desc.DependsOn...)
	desc.Tags = append([]string(nil), desc.Tags...)
	s.names[desc.Name] = true
	s.suites = append(s.suites, desc)
	return nil
}

// Aggregator exposes the progress aggregator for live views.
func (s *Scheduler) Aggregator() *progress.Aggregator {
	return s.aggregator
}

// Counts reports running/completed/total suite counts for the current run.
func (s *Scheduler) Counts() (running, completed, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return 0, 0, len(s.suites)
	}
	return s.state.runningCount, s.state.completedCount, s.state.totalCount
}

// Errors returns the run-level error list collected by the last RunAll.
func (s *Scheduler) Errors() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]error(nil), s.errs...)
}

// RunAll validates the dependency graph, executes every suite, and
// assembles the report. Graph-validation failures abort before any suite
// executes. Suite-level failures are captured, never returned; the only
// error after validation is external cancellation.
func (s *Scheduler) RunAll(ctx context.Context) (*suite.Report, error) {
	s.mu.Lock()
	suites := append([]suite.Descriptor(nil), s.suites...)
	s.mu.Unlock()

	order, err := graph.TopologicalSort(suites)
	if err != nil {
		return nil, err
	}

	hasDeps := false
	for _, d := range suites {
		if len(d.DependsOn) > 0 {
			hasDeps = true
			break
		}
	}

	s.mu.Lock()
	s.state = newExecutionState(len(suites))
	s.results = make(map[string]*suite.Result, len(suites))
	s.errs = nil
	s.mu.Unlock()

	s.logger.Info("run started",
		"suites", len(suites),
		"max_workers", s.cfg.MaxWorkers,
		"parallel", s.cfg.Enabled,
		"dependencies", hasDeps)

	switch {
	case !s.cfg.Enabled:
		s.runSerial(ctx, suites, order)
	case !hasDeps:
		s.runFanOut(ctx, suites)
	default:
		s.runDependencyLoop(ctx, suites)
	}

	report := s.buildReport(suites)
	s.logger.Info("run finished",
		"succeeded", len(report.Suites),
		"failed", len(report.Failures))

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

// runSerial executes suites one at a time in topological order. This is the
// only mode where ContinueOnError=false halts further scheduling.
func (s *Scheduler) runSerial(ctx context.Context, suites []suite.Descriptor, order []string) {
	byName := make(map[string]suite.Descriptor, len(suites))
	for _, d := range suites {
		byName[d.Name] = d
	}
	for _, name := range order {
		if ctx.Err() != nil {
			return
		}
		res := s.executeSuite(ctx, byName[name])
		if !res.Success && !s.cfg.ContinueOnError {
			s.logger.Warn("halting after suite failure", "suite", name)
			return
		}
	}
}

// runFanOut launches every suite concurrently; the semaphore bounds how many
// run at once. Failures never halt siblings in this mode.
func (s *Scheduler) runFanOut(ctx context.Context, suites []suite.Descriptor) {
	sem := semaphore.New(s.cfg.MaxWorkers)
	var wg sync.WaitGroup
	for _, d := range suites {
		wg.Add(1)
		go func(d suite.Descriptor) {
			defer wg.Done()
			if err := sem.Acquire(ctx); err != nil {
				s.recordAborted(d.Name, err)
				return
			}
			defer sem.Release()
			s.executeSuite(ctx, d)
		}(d)
	}
	wg.Wait()
}

// runDependencyLoop repeatedly computes the ready set, admits as many ready
// suites as permits currently allow, then waits for the earliest in-flight
// completion before recomputing readiness.
func (s *Scheduler) runDependencyLoop(ctx context.Context, suites []suite.Descriptor) {
	sem := semaphore.New(s.cfg.MaxWorkers)
	completions := make(chan *suite.Result)
	launched := make(map[string]bool, len(suites))
	inFlight := 0

	for {
		s.mu.Lock()
		completed := s.state.completedSet()
		s.mu.Unlock()

		if ctx.Err() == nil {
			for _, d := range graph.Executable(suites, completed) {
				if launched[d.Name] {
					continue
				}
				if !sem.TryAcquire() {
					// Permits exhausted for this tick; the rest of the
					// ready set is picked up after the next completion.
					break
				}
				launched[d.Name] = true
				inFlight++
				go func(d suite.Descriptor) {
					completions <- s.executeSuite(ctx, d)
				}(d)
			}
		}

		if inFlight == 0 {
			return
		}
		<-completions
		sem.Release()
		inFlight--
	}
}

// executeSuite runs one suite end to end: lifecycle bookkeeping, progress
// wiring, the timeout race, and capture of any error. A suite is marked
// completed whatever the outcome.
func (s *Scheduler) executeSuite(ctx context.Context, d suite.Descriptor) *suite.Result {
	start := time.Now()
	s.mu.Lock()
	s.state.markRunning(d.Name, start)
	s.mu.Unlock()

	if s.callbacks.OnSuiteStart != nil {
		s.callbacks.OnSuiteStart(d.Name)
	}
	s.logger.Info("suite started", "suite", d.Name)

	spanCtx, span := s.tracer.Start(ctx, "suite.run",
		trace.WithAttributes(attribute.String("suite.name", d.Name)))

	if notifier, ok := d.Runnable.(progress.Notifier); ok {
		name := d.Name
		notifier.SetProgressFunc(func(snap progress.Snapshot) {
			s.aggregator.Update(name, snap)
		})
	}

	var records []suite.Record
	runErr := guard.WithTimeout(spanCtx, s.cfg.Timeout, "run", d.Name, func(runCtx context.Context) (err error) {
		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("suite %q panicked: %v", d.Name, p)
			}
		}()
		recs, err := d.Runnable.Run(runCtx)
		records = recs
		return err
	}, nil)

	end := time.Now()
	result := &suite.Result{
		Name:      d.Name,
		Duration:  end.Sub(start),
		StartTime: start,
		EndTime:   end,
	}

	switch {
	case runErr == nil:
		result.Success = true
		result.Records = records
	case isTimeout(runErr):
		// The runnable was abandoned mid-flight; its records slice must not
		// be read, it may still be written by the stray goroutine.
		result.Err = runErr
		s.logger.Warn("suite timed out", "suite", d.Name, "timeout", s.cfg.Timeout)
	default:
		result.Err = runErr
		result.Records = records
		s.logger.Warn("suite failed", "suite", d.Name, "error", runErr)
	}

	if result.Success {
		span.SetStatus(codes.Ok, "")
		s.logger.Info("suite completed", "suite", d.Name, "duration", result.Duration)
	} else {
		span.RecordError(result.Err)
		span.SetStatus(codes.Error, result.Err.Error())
	}
	span.End()

	s.mu.Lock()
	s.state.markCompleted(d.Name)
	s.results[d.Name] = result
	if !result.Success {
		s.errs = append(s.errs, fmt.Errorf("suite %q: %w", d.Name, result.Err))
	}
	s.mu.Unlock()

	s.aggregator.Remove(d.Name)
	if s.callbacks.OnSuiteComplete != nil {
		s.callbacks.OnSuiteComplete(d.Name, result)
	}
	return result
}

// recordAborted marks a suite that never got to run (cancelled while queued).
func (s *Scheduler) recordAborted(name string, err error) {
	now := time.Now()
	result := &suite.Result{Name: name, StartTime: now, EndTime: now, Err: err}
	s.mu.Lock()
	s.state.markCompleted(name)
	s.results[name] = result
	s.errs = append(s.errs, fmt.Errorf("suite %q: %w", name, err))
	s.mu.Unlock()
}

func (s *Scheduler) buildReport(suites []suite.Descriptor) *suite.Report {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := &suite.Report{
		Name:        s.name,
		RunID:       ulid.Make().String(),
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}
	for _, d := range suites {
		res, ok := s.results[d.Name]
		if !ok {
			continue
		}
		if res.Success {
			report.Suites = append(report.Suites, suite.SuiteReport{
				Name:       d.Name,
				Records:    res.Records,
				DurationMs: float64(res.Duration) / float64(time.Millisecond),
				Timestamp:  res.StartTime,
			})
			continue
		}
		failure := suite.FailureReport{
			Name:       d.Name,
			DurationMs: float64(res.Duration) / float64(time.Millisecond),
		}
		if res.Err != nil {
			failure.Error = res.Err.Error()
		}
		report.Failures = append(report.Failures, failure)
	}
	return report
}

func isTimeout(err error) bool {
	var terr *guard.TimeoutError
	return errors.As(err, &terr)
}
