// Package config loads the daemon's configuration from environment
// variables and a YAML file, in that order of precedence over compiled-in
// defaults, and supports hot-reloading the log level from a running file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/kyco-project/kyco/internal/bytesize"
)

// Config is the kyco daemon's complete configuration.
//
// Configuration sources, in order of precedence:
//  1. Environment variables (KYCO_*) (highest priority)
//  2. Configuration file (YAML)
//  3. Default values (lowest priority)
//
// No per-field CLI flags exist; the --config flag only selects the file.
type Config struct {
	// Listen is the address the acceptor binds to, "" or "0.0.0.0" for
	// every interface.
	Listen string `mapstructure:"listen" yaml:"listen"`

	// Port is the TCP port switches connect to.
	Port int `mapstructure:"port" validate:"required,min=1,max=65535" yaml:"port"`

	// ShutdownTimeout bounds how long Stop waits for in-flight connection
	// readers to drain before force-closing their connections.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`

	// Buffers lists additional dispatcher buffers beyond the mandatory
	// raw and app buffers, e.g. ["msg_in", "msg_out"].
	Buffers []string `mapstructure:"buffers" yaml:"buffers,omitempty"`

	// MaxFrameSize bounds how many unconsumed bytes the acceptor will
	// accumulate per connection while waiting for the codec to decode a
	// complete frame. A switch that never completes a frame within this
	// limit is disconnected. Accepts human-readable sizes like "1Mi".
	MaxFrameSize bytesize.ByteSize `mapstructure:"max_frame_size" validate:"required" yaml:"max_frame_size"`

	// NAppsRoot is the filesystem path NApps would be addressed under if
	// loaded from disk. Retained for addressing continuity; this
	// implementation resolves NApps from a compile-time registry and
	// never scans this directory.
	NAppsRoot string `mapstructure:"napps_root" yaml:"napps_root,omitempty"`

	// NApps lists the "author/napp" names to load at startup, resolved
	// from the compile-time registry.
	NApps []string `mapstructure:"napps" yaml:"napps,omitempty"`

	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Telemetry controls OpenTelemetry distributed tracing and
	// Pyroscope continuous profiling.
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// Metrics controls the Prometheus metrics registry.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output.
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive).
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format is the log output format: text or json.
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output is where logs are written: stdout, stderr, or a file path.
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry tracing and Pyroscope profiling.
type TelemetryConfig struct {
	// Enabled controls whether distributed tracing is enabled.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the OTLP collector endpoint (host:port).
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// Insecure controls whether to use a non-TLS connection to the
	// collector.
	Insecure bool `mapstructure:"insecure" yaml:"insecure"`

	// SampleRate controls the trace sampling rate, 0.0 to 1.0.
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`

	// Profiling contains Pyroscope continuous profiling configuration.
	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
type ProfilingConfig struct {
	// Enabled controls whether continuous profiling is enabled.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the Pyroscope server endpoint (URL).
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// ProfileTypes selects which profile types to collect.
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// MetricsConfig configures the Prometheus metrics registry and its HTTP
// exposition endpoint.
type MetricsConfig struct {
	// Enabled controls whether metrics collection and the HTTP endpoint
	// are active.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// BindAddress is the address:port the metrics endpoint listens on.
	BindAddress string `mapstructure:"bind_address" validate:"omitempty" yaml:"bind_address"`
}

// Load loads configuration from configPath (or the default location if
// empty), environment variables, and defaults, then validates the result.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	if _, err := readConfigFile(v); err != nil {
		return nil, err
	}

	cfg := GetDefaultConfig()
	// AutomaticEnv needs a chance to override defaults even without a
	// file on disk, so this runs whether or not one was found.
	if err := v.Unmarshal(cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks cfg against its struct tags using go-playground/validator.
func Validate(cfg *Config) error {
	return validator.New().Struct(cfg)
}

// Save writes cfg to path as YAML, creating parent directories as needed.
func Save(cfg *Config, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: create directory: %w", err)
		}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write file: %w", err)
	}
	return nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("KYCO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}

	v.AddConfigPath(DefaultConfigDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

func readConfigFile(v *viper.Viper) (found bool, err error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("config: read file: %w", err)
	}
	return true, nil
}

// DefaultConfigDir returns $XDG_CONFIG_HOME/kyco, or ~/.config/kyco, or
// "." if the home directory cannot be determined.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "kyco")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "kyco")
}

// DefaultConfigPath returns the default configuration file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// DefaultConfigExists reports whether a config file exists at the default
// location.
func DefaultConfigExists() bool {
	_, err := os.Stat(DefaultConfigPath())
	return err == nil
}

// configDecodeHooks returns the combined decode hook used to unmarshal
// custom types viper's defaults don't know about. Passing any DecodeHook
// option to viper.Unmarshal replaces its built-in hook chain rather than
// extending it, so the two hooks viper enables by default (string ->
// time.Duration, comma-separated string -> slice) are re-added here
// alongside byteSizeDecodeHook.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		byteSizeDecodeHook(),
	)
}

// byteSizeDecodeHook converts strings and numbers to bytesize.ByteSize,
// so config files and KYCO_MAX_FRAME_SIZE can use human-readable sizes
// like "1Mi" or "512Ki" instead of a raw byte count.
func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return bytesize.ParseByteSize(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}
