package config

import (
	"fmt"
	"os"
	"time"
)

// Config is the full benchforge configuration, merged from a config file and
// CLI flag overrides.
type Config struct {
	Name       string         `mapstructure:"name"`
	Suites     []SuiteConfig  `mapstructure:"suites"`
	Parallel   ParallelConfig `mapstructure:"parallel"`
	Timeout    time.Duration  `mapstructure:"timeout"`
	Iterations int            `mapstructure:"iterations"`
	Warmup     int            `mapstructure:"warmup"`
	Rate       float64        `mapstructure:"rate"`
	JSONOutput bool           `mapstructure:"json_output"`
	Dashboard  bool           `mapstructure:"dashboard"`
	HTMLOutput string         `mapstructure:"html_output"`
	ReportFile string         `mapstructure:"report_file"`
	Thresholds []string       `mapstructure:"thresholds"`
	LogLevel   string         `mapstructure:"log_level"`
	LogFormat  string         `mapstructure:"log_format"`
	Tracing    TracingConfig  `mapstructure:"tracing"`
	ConfigFile string         `mapstructure:"-"`
}

// ParallelConfig controls the suite scheduler.
type ParallelConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	MaxWorkers      int  `mapstructure:"max_workers"`
	Isolate         bool `mapstructure:"isolate"` // reserved, currently a no-op
	ContinueOnError bool `mapstructure:"continue_on_error"`
}

// SuiteConfig declares one suite: its tasks, optional dependencies on other
// suites, and per-suite measurement overrides.
type SuiteConfig struct {
	Name       string       `mapstructure:"name"`
	DependsOn  []string     `mapstructure:"depends_on"`
	Tags       []string     `mapstructure:"tags"`
	Iterations int          `mapstructure:"iterations"`
	Warmup     int          `mapstructure:"warmup"`
	Tasks      []TaskConfig `mapstructure:"tasks"`
}

// TaskConfig declares one timed command within a suite.
type TaskConfig struct {
	Name    string   `mapstructure:"name"`
	Command []string `mapstructure:"command"`
	Tags    []string `mapstructure:"tags"`
}

// TracingConfig configures the OTLP trace exporter.
type TracingConfig struct {
	Endpoint    string `mapstructure:"endpoint"`
	Protocol    string `mapstructure:"protocol"` // "grpc" or "http"
	ServiceName string `mapstructure:"service_name"`
	Insecure    bool   `mapstructure:"insecure"`
}

// Enabled reports whether an exporter endpoint is configured, either
// directly or through the standard OTEL_EXPORTER_OTLP_ENDPOINT variable.
func (t TracingConfig) Enabled() bool {
	return t.Endpoint != "" || os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != ""
}

// Default returns the configuration defaults applied before file and flag
// merging.
func Default() *Config {
	return &Config{
		Name: "benchforge",
		Parallel: ParallelConfig{
			Enabled:         true,
			MaxWorkers:      4,
			ContinueOnError: true,
		},
		Iterations: 100,
		LogLevel:   "info",
		LogFormat:  "text",
		Tracing:    TracingConfig{Protocol: "grpc"},
	}
}

// Validate checks the merged configuration.
func (c *Config) Validate() error {
	if c.Parallel.MaxWorkers < 1 {
		return fmt.Errorf("parallel.max_workers must be at least 1, got %d", c.Parallel.MaxWorkers)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	if c.Iterations < 1 {
		return fmt.Errorf("iterations must be at least 1, got %d", c.Iterations)
	}
	if c.Warmup < 0 {
		return fmt.Errorf("warmup must not be negative")
	}
	if len(c.Suites) == 0 {
		return fmt.Errorf("no suites configured")
	}

	seen := make(map[string]bool, len(c.Suites))
	for _, s := range c.Suites {
		if s.Name == "" {
			return fmt.Errorf("suite name must not be empty")
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate suite name %q", s.Name)
		}
		seen[s.Name] = true
		if len(s.Tasks) == 0 {
			return fmt.Errorf("suite %q has no tasks", s.Name)
		}
		for _, task := range s.Tasks {
			if task.Name == "" {
				return fmt.Errorf("suite %q contains a task with no name", s.Name)
			}
			if len(task.Command) == 0 {
				return fmt.Errorf("task %q in suite %q has no command", task.Name, s.Name)
			}
		}
	}
	// Dangling depends_on references and cycles are the resolver's domain,
	// reported when the run starts.

	switch c.Tracing.Protocol {
	case "", "grpc", "http":
	default:
		return fmt.Errorf("tracing.protocol must be %q or %q, got %q", "grpc", "http", c.Tracing.Protocol)
	}
	return nil
}
