package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/kyco-project/kyco/internal/logger"
	"github.com/kyco-project/kyco/internal/telemetry"
	"github.com/kyco-project/kyco/pkg/codec"
	"github.com/kyco-project/kyco/pkg/config"
	"github.com/kyco-project/kyco/pkg/controller"
	"github.com/kyco-project/kyco/pkg/metrics"

	// Registers the bundled core NApps against the compile-time registry.
	_ "github.com/kyco-project/kyco/pkg/napp/builtin"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the kyco dispatch core",
	Long: `Start binds the listening socket, launches one dispatcher loop per
buffer, and loads the configured NApps.

Examples:
  kycod start
  kycod start --config /etc/kyco/config.yaml
  KYCO_LOGGING_LEVEL=DEBUG kycod start`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	configPath := GetConfigFile()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "kyco",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(context.Background()); err != nil {
			logger.Error("telemetry shutdown error", logger.Err(err))
		}
	}()

	profilingShutdown, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "kyco",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	})
	if err != nil {
		return fmt.Errorf("initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", logger.Err(err))
		}
	}()

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		reg := metrics.Init()
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		metricsServer = &http.Server{Addr: cfg.Metrics.BindAddress, Handler: mux}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server error", logger.Err(err))
			}
		}()
		logger.Info("metrics enabled", "addr", cfg.Metrics.BindAddress)
	}

	if watchPath := resolveWatchPath(configPath); watchPath != "" {
		if err := config.WatchLogLevel(ctx, watchPath); err != nil {
			logger.Warn("config hot-reload disabled", logger.Err(err))
		}
	}

	ctrl := controller.New(controller.Config{
		BindAddress:     cfg.Listen,
		Port:            cfg.Port,
		ShutdownTimeout: cfg.ShutdownTimeout,
		MaxFrameSize:    cfg.MaxFrameSize,
		Buffers:         cfg.Buffers,
		NApps:           cfg.NApps,
	}, codec.NewLineCodec())

	if err := ctrl.Start(ctx); err != nil {
		return fmt.Errorf("start controller: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("kycod is running, press Ctrl+C to stop")
	<-sigCh
	signal.Stop(sigCh)
	logger.Info("shutdown signal received")

	if metricsServer != nil {
		_ = metricsServer.Shutdown(context.Background())
	}

	if err := ctrl.Stop(); err != nil {
		logger.Error("controller stopped with error", logger.Err(err))
		return err
	}

	logger.Info("kycod stopped")
	return nil
}

func resolveWatchPath(configPath string) string {
	if configPath != "" {
		return configPath
	}
	if config.DefaultConfigExists() {
		return config.DefaultConfigPath()
	}
	return ""
}
