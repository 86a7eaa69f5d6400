package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func writeConfigFile(t *testing.T, doc map[string]any) string {
	t.Helper()
	data, err := yaml.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	path := filepath.Join(t.TempDir(), "benchforge.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func baseDoc() map[string]any {
	return map[string]any{
		"name": "nightly",
		"suites": []map[string]any{
			{
				"name": "core",
				"tasks": []map[string]any{
					{"name": "noop", "command": []string{"true"}},
				},
			},
			{
				"name":       "extended",
				"depends_on": []string{"core"},
				"tasks": []map[string]any{
					{"name": "sleep", "command": []string{"sleep", "0"}},
				},
			},
		},
		"parallel": map[string]any{
			"max_workers": 2,
		},
		"timeout":    "500ms",
		"iterations": 10,
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfigFile(t, baseDoc())
	cfg, err := NewLoader().Load([]string{"--config", path})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	if cfg.Name != "nightly" {
		t.Fatalf("name: %q", cfg.Name)
	}
	if len(cfg.Suites) != 2 {
		t.Fatalf("expected 2 suites, got %d", len(cfg.Suites))
	}
	if got := cfg.Suites[1].DependsOn; len(got) != 1 || got[0] != "core" {
		t.Fatalf("depends_on lost: %v", got)
	}
	if cfg.Parallel.MaxWorkers != 2 {
		t.Fatalf("max_workers: %d", cfg.Parallel.MaxWorkers)
	}
	if cfg.Timeout != 500*time.Millisecond {
		t.Fatalf("timeout: %s", cfg.Timeout)
	}
	if cfg.Iterations != 10 {
		t.Fatalf("iterations: %d", cfg.Iterations)
	}
	// File did not set these; defaults must hold.
	if !cfg.Parallel.Enabled || !cfg.Parallel.ContinueOnError {
		t.Fatalf("defaults lost: %+v", cfg.Parallel)
	}
}

func TestFlagsOverrideFile(t *testing.T) {
	path := writeConfigFile(t, baseDoc())
	cfg, err := NewLoader().Load([]string{
		"--config", path,
		"--max-workers", "8",
		"--serial",
		"--iterations", "3",
		"--timeout", "2s",
		"--threshold", "core:p99<100ms",
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Parallel.MaxWorkers != 8 {
		t.Fatalf("flag override lost: %d", cfg.Parallel.MaxWorkers)
	}
	if cfg.Parallel.Enabled {
		t.Fatal("--serial did not disable parallel execution")
	}
	if cfg.Iterations != 3 || cfg.Timeout != 2*time.Second {
		t.Fatalf("overrides lost: iters=%d timeout=%s", cfg.Iterations, cfg.Timeout)
	}
	if len(cfg.Thresholds) != 1 || cfg.Thresholds[0] != "core:p99<100ms" {
		t.Fatalf("thresholds: %v", cfg.Thresholds)
	}
}

func TestLoadNoArgsShowsHelp(t *testing.T) {
	_, err := NewLoader().Load(nil)
	if !errors.Is(err, ErrHelpRequested) {
		t.Fatalf("expected ErrHelpRequested, got %v", err)
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := NewLoader().Load([]string{"--config", "/does/not/exist.yaml"})
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no suites", func(c *Config) { c.Suites = nil }},
		{"zero workers", func(c *Config) { c.Parallel.MaxWorkers = 0 }},
		{"negative timeout", func(c *Config) { c.Timeout = -time.Second }},
		{"zero iterations", func(c *Config) { c.Iterations = 0 }},
		{"negative warmup", func(c *Config) { c.Warmup = -1 }},
		{"duplicate suites", func(c *Config) { c.Suites = append(c.Suites, c.Suites[0]) }},
		{"empty suite name", func(c *Config) { c.Suites[0].Name = "" }},
		{"suite without tasks", func(c *Config) { c.Suites[0].Tasks = nil }},
		{"task without command", func(c *Config) { c.Suites[0].Tasks[0].Command = nil }},
		{"bad tracing protocol", func(c *Config) { c.Tracing.Protocol = "carrier-pigeon" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			cfg.Suites = []SuiteConfig{{
				Name:  "core",
				Tasks: []TaskConfig{{Name: "noop", Command: []string{"true"}}},
			}}
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestTracingEnabled(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	if (TracingConfig{}).Enabled() {
		t.Fatal("tracing enabled with no endpoint anywhere")
	}
	if !(TracingConfig{Endpoint: "localhost:4317"}).Enabled() {
		t.Fatal("configured endpoint should enable tracing")
	}

	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")
	if !(TracingConfig{}).Enabled() {
		t.Fatal("OTEL_EXPORTER_OTLP_ENDPOINT should enable tracing")
	}
}
