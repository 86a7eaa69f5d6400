// Package bench is the built-in benchmark engine. It times named tasks over
// warmup and measured iterations and produces the result records the
// scheduler consumes; the scheduler itself treats it as an opaque runnable.
package bench

import (
	"context"
	"io"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/torosent/benchforge/internal/guard"
	"github.com/torosent/benchforge/internal/progress"
	"github.com/torosent/benchforge/internal/stats"
	"github.com/torosent/benchforge/internal/suite"
)

// TaskFunc is one measured unit of work. It must honor ctx cancellation.
type TaskFunc func(ctx context.Context) error

// Task is a named workload within a benchmark.
type Task struct {
	Name string
	Fn   TaskFunc
	Tags []string
}

// Options control how each task is measured.
type Options struct {
	Iterations int           // measured iterations per task
	Warmup     int           // unmeasured iterations before timing starts
	Timeout    time.Duration // per-task deadline, 0 disables
	Rate       float64       // max iterations per second, 0 unpaced
}

func (o *Options) normalize() {
	if o.Iterations <= 0 {
		o.Iterations = 100
	}
	if o.Warmup < 0 {
		o.Warmup = 0
	}
}

// Benchmark runs its tasks in order and reports per-task records.
// It implements suite.Runnable and progress.Notifier.
type Benchmark struct {
	name     string
	opt      Options
	tasks    []Task
	progress progress.Func
	logger   *slog.Logger
	records  []suite.Record
}

// New creates a benchmark. logger may be nil.
func New(name string, opt Options, logger *slog.Logger) *Benchmark {
	opt.normalize()
	if logger == nil {
		logger = slog.Default()
	}
	return &Benchmark{
		name:   name,
		opt:    opt,
		logger: logger.With("component", "bench", "suite", name),
	}
}

// AddTask appends a named task.
func (b *Benchmark) AddTask(name string, fn TaskFunc, tags ...string) {
	b.tasks = append(b.tasks, Task{Name: name, Fn: fn, Tags: tags})
}

// SetProgressFunc registers a progress sink. Implements progress.Notifier.
func (b *Benchmark) SetProgressFunc(fn progress.Func) {
	b.progress = fn
}

// Run measures every task in order. A task error or overrun is captured in
// that task's record and the remaining tasks still run; only ctx
// cancellation aborts the pass early.
func (b *Benchmark) Run(ctx context.Context) ([]suite.Record, error) {
	records := make([]suite.Record, 0, len(b.tasks))
	for i, task := range b.tasks {
		records = append(records, b.runTask(ctx, task, i))
		if err := ctx.Err(); err != nil {
			b.records = records
			return records, err
		}
	}
	b.records = records
	return records, nil
}

func (b *Benchmark) runTask(ctx context.Context, task Task, index int) suite.Record {
	for i := 0; i < b.opt.Warmup; i++ {
		if ctx.Err() != nil {
			break
		}
		_ = task.Fn(ctx)
		b.notify(task.Name, i+1, b.opt.Warmup, progress.PhaseWarmup, index)
	}

	var limiter *rate.Limiter
	if b.opt.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(b.opt.Rate), 1)
	}

	g := guard.New(b.opt.Timeout)
	g.Start()

	for i := 0; i < b.opt.Iterations; i++ {
		if ctx.Err() != nil {
			rec := recordFromSamples(task, g.Partial().Samples)
			rec.Status = suite.StatusFailed
			rec.Error = ctx.Err().Error()
			return rec
		}
		if g.TimedOut() {
			b.logger.Warn("task overran deadline",
				"task", task.Name,
				"completed_iterations", g.Completed(),
				"timeout", b.opt.Timeout)
			return g.PartialRecord(task.Name, task.Tags)
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				rec := recordFromSamples(task, g.Partial().Samples)
				rec.Status = suite.StatusFailed
				rec.Error = err.Error()
				return rec
			}
		}

		start := time.Now()
		err := task.Fn(ctx)
		elapsed := time.Since(start)
		if err != nil {
			b.logger.Warn("task failed", "task", task.Name, "iteration", i+1, "error", err)
			rec := recordFromSamples(task, g.Partial().Samples)
			rec.Status = suite.StatusFailed
			rec.Error = err.Error()
			return rec
		}
		g.RecordIteration(elapsed)
		b.notify(task.Name, i+1, b.opt.Iterations, progress.PhaseRunning, index)
	}

	if g.TimedOut() {
		// The deadline elapsed during the final iterations; the record is
		// still a partial one.
		return g.PartialRecord(task.Name, task.Tags)
	}

	b.notify(task.Name, b.opt.Iterations, b.opt.Iterations, progress.PhaseComplete, index)
	return recordFromSamples(task, g.Partial().Samples)
}

// notify reports suite-level progress: current/total count measured
// iterations across all tasks so aggregated percentages stay meaningful.
func (b *Benchmark) notify(taskName string, current, total int, phase progress.Phase, taskIndex int) {
	if b.progress == nil {
		return
	}
	suiteTotal := len(b.tasks) * b.opt.Iterations
	suiteCurrent := taskIndex * b.opt.Iterations
	if phase != progress.PhaseWarmup {
		suiteCurrent += current
	}
	snap := progress.Snapshot{
		Suite:   b.name,
		Task:    taskName,
		Current: suiteCurrent,
		Total:   suiteTotal,
		Phase:   phase,
	}
	if snap.Total > 0 {
		snap.Percentage = float64(snap.Current) / float64(snap.Total) * 100
	}
	b.progress(snap)
}

func recordFromSamples(task Task, samples []time.Duration) suite.Record {
	st := stats.FromDurations(samples)
	return suite.Record{
		Name:         task.Name,
		Status:       suite.StatusSuccess,
		Iterations:   st.Count,
		Tags:         task.Tags,
		TotalMs:      stats.Ms(st.Total),
		AvgMs:        stats.Ms(st.Mean),
		MinMs:        stats.Ms(st.Min),
		MaxMs:        stats.Ms(st.Max),
		P50Ms:        stats.Ms(st.P50),
		P90Ms:        stats.Ms(st.P90),
		P99Ms:        stats.Ms(st.P99),
		OpsPerSecond: st.OpsPerSecond,
	}
}

// PrintResults writes a human-readable summary of the last run.
func (b *Benchmark) PrintResults(w io.Writer) {
	PrintRecords(w, b.name, b.records)
}
