package config

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// newFlagCommand creates a cobra command with all flags configured.
func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "benchforge",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

// configureFlags sets up all CLI flags on the provided flag set.
func configureFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "Path to configuration file (JSON or YAML)")
	flags.String("name", "", "Run name stamped on the report")

	// Scheduling flags
	flags.IntP("max-workers", "w", 4, "Maximum number of suites running concurrently")
	flags.Bool("serial", false, "Run suites one at a time instead of concurrently")
	flags.Bool("isolate", false, "Reserved for per-suite isolation (currently a no-op)")
	flags.Bool("continue-on-error", true, "Keep scheduling after a suite fails (serial mode only)")
	flags.Duration("timeout", 0, "Per-task deadline (e.g. 500ms, 10s; 0 disables)")

	// Measurement flags
	flags.IntP("iterations", "n", 100, "Measured iterations per task")
	flags.Int("warmup", 0, "Unmeasured warmup iterations per task")
	flags.Float64("rate", 0, "Max iterations per second per task (0 means unpaced)")

	// Output flags
	flags.Bool("json-output", false, "Emit the report as JSON on stdout")
	flags.Bool("dashboard", false, "Show live terminal dashboard while running")
	flags.String("html-output", "", "Write an HTML report to the given path")
	flags.String("report-file", "", "Write the JSON report to the given path")
	flags.StringSlice("threshold", nil, "Result assertion, e.g. 'login:p99<250ms' (repeatable)")

	// Logging flags
	flags.String("log-level", "info", "Log level: debug, info, warn, error")
	flags.String("log-format", "text", "Log format: text or json")

	// Tracing flags
	flags.String("otel-endpoint", "", "OTLP exporter endpoint (enables tracing)")
	flags.String("otel-protocol", "grpc", "OTLP transport: grpc or http")
	flags.String("otel-service-name", "", "Service name reported on spans")
	flags.Bool("otel-insecure", false, "Disable TLS for the OTLP exporter")
}

func displayHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	cmd.SetOut(out)
	_ = cmd.Help()
}
