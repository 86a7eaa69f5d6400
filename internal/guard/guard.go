// Package guard tracks per-task deadlines and preserves partial measurements
// when a task overruns, so an overrun yields a synthesized result instead of
// nothing.
package guard

import (
	"fmt"
	"time"

	"github.com/torosent/benchforge/internal/suite"
)

// Guard tracks one task's deadline and accumulates completed iterations so a
// result can be synthesized even on overrun. Not safe for concurrent use;
// each task gets its own guard.
type Guard struct {
	timeout time.Duration
	start   time.Time
	samples []time.Duration
	total   time.Duration
}

// Partial is the state accumulated before a deadline fired.
type Partial struct {
	Completed int
	Samples   []time.Duration
	Total     time.Duration
}

// New creates a guard with the given timeout. A timeout <= 0 disables the
// deadline; TimedOut then always reports false.
func New(timeout time.Duration) *Guard {
	return &Guard{timeout: timeout}
}

// Start records the beginning instant.
func (g *Guard) Start() {
	g.start = time.Now()
}

// RecordIteration appends one completed iteration's duration.
func (g *Guard) RecordIteration(d time.Duration) {
	g.samples = append(g.samples, d)
	g.total += d
}

// Completed returns the number of recorded iterations.
func (g *Guard) Completed() int {
	return len(g.samples)
}

// TimedOut reports whether the elapsed time since Start exceeds the timeout.
// Pure observation; it never interrupts anything.
func (g *Guard) TimedOut() bool {
	if g.timeout <= 0 {
		return false
	}
	return time.Since(g.start) > g.timeout
}

// Partial returns a copy of the accumulated state.
func (g *Guard) Partial() Partial {
	samples := make([]time.Duration, len(g.samples))
	copy(samples, g.samples)
	return Partial{Completed: len(samples), Samples: samples, Total: g.total}
}

// PartialRecord synthesizes a timeout-status record from the iterations
// completed so far. With zero iterations the record carries zero throughput
// and an explicit error; otherwise avg/min/max and ops/sec are derived from
// the samples.
func (g *Guard) PartialRecord(name string, tags []string) suite.Record {
	rec := suite.Record{
		Name:       name,
		Status:     suite.StatusTimeout,
		Iterations: len(g.samples),
		Tags:       tags,
		TotalMs:    durationMs(g.total),
	}

	if len(g.samples) == 0 {
		rec.Error = fmt.Sprintf("task %q timed out with no completed iterations", name)
		return rec
	}

	min, max := g.samples[0], g.samples[0]
	for _, s := range g.samples[1:] {
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}

	avg := g.total / time.Duration(len(g.samples))
	rec.AvgMs = durationMs(avg)
	rec.MinMs = durationMs(min)
	rec.MaxMs = durationMs(max)
	if rec.AvgMs > 0 {
		rec.OpsPerSecond = 1000 / rec.AvgMs
	}
	return rec
}

func durationMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
