package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/torosent/benchforge/internal/suite"
	"github.com/torosent/benchforge/internal/threshold"
)

// PrintReport outputs a human-readable summary report.
func PrintReport(w io.Writer, report *suite.Report) {
	fmt.Fprintf(w, "\n--- Benchmark Results: %s ---\n", report.Name)
	fmt.Fprintf(w, "Run ID:        %s\n", report.RunID)
	fmt.Fprintf(w, "Generated At:  %s\n", report.GeneratedAt)
	fmt.Fprintf(w, "Suites:        %d succeeded, %d failed\n", len(report.Suites), len(report.Failures))

	for _, s := range report.Suites {
		fmt.Fprintf(w, "\n%s (%.1fms)\n", s.Name, s.DurationMs)
		for _, rec := range s.Records {
			switch rec.Status {
			case suite.StatusTimeout:
				fmt.Fprintf(w, "  - %s: TIMEOUT after %d iters, avg=%.3fms, ops=%.2f\n",
					rec.Name, rec.Iterations, rec.AvgMs, rec.OpsPerSecond)
			case suite.StatusFailed:
				fmt.Fprintf(w, "  - %s: FAILED after %d iters: %s\n", rec.Name, rec.Iterations, rec.Error)
			default:
				fmt.Fprintf(w, "  - %s: %d iters, avg=%.3fms, min=%.3fms, max=%.3fms, p99=%.3fms, ops=%.2f\n",
					rec.Name, rec.Iterations, rec.AvgMs, rec.MinMs, rec.MaxMs, rec.P99Ms, rec.OpsPerSecond)
			}
		}
	}

	if len(report.Failures) > 0 {
		fmt.Fprintln(w, "\nFailed Suites:")
		for _, f := range report.Failures {
			fmt.Fprintf(w, "  - %s (%.1fms): %s\n", f.Name, f.DurationMs, f.Error)
		}
	}

	if len(report.Environment) > 0 {
		fmt.Fprintln(w, "\nEnvironment:")
		keys := make([]string, 0, len(report.Environment))
		for k := range report.Environment {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "  %s: %s\n", k, report.Environment[k])
		}
	}
}

// PrintJSONReport outputs a JSON-formatted report.
func PrintJSONReport(w io.Writer, report *suite.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// PrintThresholdResults outputs threshold evaluation outcomes.
func PrintThresholdResults(w io.Writer, results []threshold.Result) {
	if len(results) == 0 {
		return
	}
	fmt.Fprintln(w, "\nThresholds:")
	for _, r := range results {
		mark := "PASS"
		if !r.Pass {
			mark = "FAIL"
		}
		fmt.Fprintf(w, "  [%s] %s\n", mark, r.Message)
	}
}
