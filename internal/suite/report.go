package suite

import "time"

// SuiteReport is the per-suite section of a run report. Only suites that
// completed successfully appear in Report.Suites.
type SuiteReport struct {
	Name       string    `json:"name"`
	Records    []Record  `json:"results"`
	DurationMs float64   `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

// FailureReport retains failed or timed-out suites for diagnostics.
type FailureReport struct {
	Name       string  `json:"name"`
	Error      string  `json:"error"`
	DurationMs float64 `json:"duration_ms"`
}

// Report is the assembled output of a scheduler run.
type Report struct {
	Name        string            `json:"name"`
	RunID       string            `json:"run_id"`
	Suites      []SuiteReport     `json:"suites"`
	Failures    []FailureReport   `json:"failures,omitempty"`
	GeneratedAt string            `json:"generated_at"`
	Environment map[string]string `json:"environment,omitempty"`
}
