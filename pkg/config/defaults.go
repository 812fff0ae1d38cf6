package config

import (
	"strings"
	"time"

	"github.com/kyco-project/kyco/internal/bytesize"
)

// ApplyDefaults fills in zero-valued fields of cfg with sensible defaults.
// Explicit values, including explicit zero/false where distinguishable,
// are preserved.
func ApplyDefaults(cfg *Config) {
	if cfg.Port == 0 {
		cfg.Port = 6653 // conventional OpenFlow controller port
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.MaxFrameSize == 0 {
		cfg.MaxFrameSize = bytesize.MiB
	}

	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyMetricsDefaults(&cfg.Metrics)
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}
	applyProfilingDefaults(&cfg.Profiling)
}

func applyProfilingDefaults(cfg *ProfilingConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "http://localhost:4040"
	}
	if len(cfg.ProfileTypes) == 0 {
		cfg.ProfileTypes = []string{"cpu", "alloc_objects", "inuse_objects", "goroutines"}
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Enabled && cfg.BindAddress == "" {
		cfg.BindAddress = ":9090"
	}
}

// defaultNApps lists the core NApps a fresh deployment loads without any
// explicit "napps:" configuration: topology tracking and the hello-based
// handshake that populates the switch registry.
var defaultNApps = []string{"kyco/topology", "kyco/handshake"}

// GetDefaultConfig returns a Config with every default applied, suitable
// as a starting point for `kycod config init`.
func GetDefaultConfig() *Config {
	cfg := &Config{
		Listen:  "0.0.0.0",
		Buffers: []string{},
		NApps:   append([]string(nil), defaultNApps...),
	}
	ApplyDefaults(cfg)
	return cfg
}
