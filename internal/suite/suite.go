package suite

import (
	"context"
	"io"
	"time"
)

// Status describes the outcome of a single benchmark task.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusTimeout Status = "timeout"
)

// Record is one task's measured outcome within a suite run.
type Record struct {
	Name       string   `json:"name"`
	Status     Status   `json:"status"`
	Iterations int      `json:"iterations"`
	Tags       []string `json:"tags,omitempty"`
	Error      string   `json:"error,omitempty"`

	// Millisecond-based fields for JSON consumers.
	TotalMs      float64 `json:"total_ms"`
	AvgMs        float64 `json:"avg_ms"`
	MinMs        float64 `json:"min_ms"`
	MaxMs        float64 `json:"max_ms"`
	P50Ms        float64 `json:"p50_ms,omitempty"`
	P90Ms        float64 `json:"p90_ms,omitempty"`
	P99Ms        float64 `json:"p99_ms,omitempty"`
	OpsPerSecond float64 `json:"ops_per_second"`
}

// Runnable is the unit of work a suite executes. Run produces the ordered
// task records for one pass over the suite's workload; it must honor ctx
// cancellation between units of work.
type Runnable interface {
	Run(ctx context.Context) ([]Record, error)
	PrintResults(w io.Writer)
}

// Descriptor registers a named runnable with optional execution-order
// dependencies. Immutable after registration.
type Descriptor struct {
	Name      string
	Runnable  Runnable
	DependsOn []string
	Tags      []string
}

// Result captures one suite execution, whatever its outcome.
type Result struct {
	Name      string
	Records   []Record
	Duration  time.Duration
	StartTime time.Time
	EndTime   time.Time
	Success   bool
	Err       error
}
