package bench

import (
	"fmt"
	"io"

	"github.com/torosent/benchforge/internal/suite"
)

// PrintRecords writes a human-readable per-task summary.
func PrintRecords(w io.Writer, name string, records []suite.Record) {
	fmt.Fprintf(w, "\n--- %s ---\n", name)
	if len(records) == 0 {
		fmt.Fprintln(w, "No results recorded.")
		return
	}
	for _, rec := range records {
		switch rec.Status {
		case suite.StatusSuccess:
			fmt.Fprintf(w, "  %-24s %d iters | avg %.3fms | min %.3fms | max %.3fms | p99 %.3fms | %.2f ops/s\n",
				rec.Name, rec.Iterations, rec.AvgMs, rec.MinMs, rec.MaxMs, rec.P99Ms, rec.OpsPerSecond)
		case suite.StatusTimeout:
			fmt.Fprintf(w, "  %-24s TIMEOUT after %d iters | avg %.3fms | %.2f ops/s\n",
				rec.Name, rec.Iterations, rec.AvgMs, rec.OpsPerSecond)
			if rec.Error != "" {
				fmt.Fprintf(w, "    %s\n", rec.Error)
			}
		default:
			fmt.Fprintf(w, "  %-24s FAILED after %d iters: %s\n", rec.Name, rec.Iterations, rec.Error)
		}
	}
}
