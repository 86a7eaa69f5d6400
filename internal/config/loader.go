package config

import (
	"errors"
	"strconv"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Loader handles loading configuration from files and command-line arguments.
type Loader struct{}

// ErrHelpRequested is returned when the user requests help via --help flag.
var ErrHelpRequested = errors.New("help requested")

// NewLoader creates a new configuration Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses command-line arguments and the configuration file to produce a
// merged Config. Precedence: defaults < file < flags.
func (Loader) Load(args []string) (*Config, error) {
	cmd := newFlagCommand()
	if err := cmd.Flags().Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
		return nil, err
	}

	flagSet := cmd.Flags()
	if helpFlag := flagSet.Lookup("help"); helpFlag != nil {
		if wantsHelp, err := strconv.ParseBool(helpFlag.Value.String()); err == nil && wantsHelp {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
	}

	configPath := flagSet.Lookup("config").Value.String()
	if len(args) == 0 && configPath == "" {
		displayHelp(cmd)
		return nil, ErrHelpRequested
	}

	cfg := Default()
	cfg.ConfigFile = configPath

	if configPath != "" {
		v := viper.New()
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
		if err := v.Unmarshal(cfg); err != nil {
			return nil, err
		}
	}

	if err := applyFlagOverrides(cfg, flagSet); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFlagOverrides copies explicitly-set flags over file settings.
func applyFlagOverrides(cfg *Config, flags *pflag.FlagSet) error {
	var err error
	set := func(name string, apply func() error) {
		if err != nil || !flags.Changed(name) {
			return
		}
		err = apply()
	}

	setString := func(name string, dst *string) {
		set(name, func() error {
			v, gerr := flags.GetString(name)
			*dst = v
			return gerr
		})
	}
	setInt := func(name string, dst *int) {
		set(name, func() error {
			v, gerr := flags.GetInt(name)
			*dst = v
			return gerr
		})
	}
	setBool := func(name string, dst *bool) {
		set(name, func() error {
			v, gerr := flags.GetBool(name)
			*dst = v
			return gerr
		})
	}
	setDuration := func(name string, dst *time.Duration) {
		set(name, func() error {
			v, gerr := flags.GetDuration(name)
			*dst = v
			return gerr
		})
	}

	setString("name", &cfg.Name)
	setInt("max-workers", &cfg.Parallel.MaxWorkers)
	set("serial", func() error {
		v, gerr := flags.GetBool("serial")
		cfg.Parallel.Enabled = !v
		return gerr
	})
	setBool("isolate", &cfg.Parallel.Isolate)
	setBool("continue-on-error", &cfg.Parallel.ContinueOnError)
	setDuration("timeout", &cfg.Timeout)
	setInt("iterations", &cfg.Iterations)
	setInt("warmup", &cfg.Warmup)
	set("rate", func() error {
		v, gerr := flags.GetFloat64("rate")
		cfg.Rate = v
		return gerr
	})
	setBool("json-output", &cfg.JSONOutput)
	setBool("dashboard", &cfg.Dashboard)
	setString("html-output", &cfg.HTMLOutput)
	setString("report-file", &cfg.ReportFile)
	set("threshold", func() error {
		v, gerr := flags.GetStringSlice("threshold")
		cfg.Thresholds = v
		return gerr
	})
	setString("log-level", &cfg.LogLevel)
	setString("log-format", &cfg.LogFormat)
	setString("otel-endpoint", &cfg.Tracing.Endpoint)
	setString("otel-protocol", &cfg.Tracing.Protocol)
	setString("otel-service-name", &cfg.Tracing.ServiceName)
	setBool("otel-insecure", &cfg.Tracing.Insecure)

	return err
}
