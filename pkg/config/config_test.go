package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyco-project/kyco/internal/bytesize"
	"github.com/kyco-project/kyco/pkg/config"
)

func TestGetDefaultConfigPassesValidation(t *testing.T) {
	cfg := config.GetDefaultConfig()
	require.NoError(t, config.Validate(cfg))
	assert.Equal(t, 6653, cfg.Port)
	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, bytesize.MiB, cfg.MaxFrameSize)
}

func TestLoadParsesHumanReadableMaxFrameSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"listen: 10.0.0.1\nport: 16653\nmax_frame_size: 4Mi\nlogging:\n  level: info\n  format: text\n  output: stdout\n",
	), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4*bytesize.MiB, cfg.MaxFrameSize)
}

func TestLoadEnvOverridesMaxFrameSizeWithHumanReadableString(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, config.Save(config.GetDefaultConfig(), path))

	t.Setenv("KYCO_MAX_FRAME_SIZE", "2Mi")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2*bytesize.MiB, cfg.MaxFrameSize)
}

func TestLoadWithoutFileFallsBackToDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 6653, cfg.Port)
}

func TestLoadReadsYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, config.Save(&config.Config{
		Listen:          "10.0.0.1",
		Port:            16653,
		ShutdownTimeout: 0,
		Logging: config.LoggingConfig{
			Level:  "debug",
			Format: "json",
			Output: "stdout",
		},
	}, path))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.1", cfg.Listen)
	assert.Equal(t, 16653, cfg.Port)
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	// ShutdownTimeout was zero in the file, defaults must fill it in.
	assert.NotZero(t, cfg.ShutdownTimeout)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, config.Save(&config.Config{
		Listen:          "10.0.0.1",
		Port:            16653,
		ShutdownTimeout: 0,
		Logging: config.LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}, path))

	t.Setenv("KYCO_PORT", "26653")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 26653, cfg.Port)
}

func TestValidateRejectsOutOfRangePort(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Port = 70000

	require.Error(t, config.Validate(cfg))
}

func TestValidateRejectsUnknownLogLevel(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Logging.Level = "VERBOSE"

	require.Error(t, config.Validate(cfg))
}

func TestSaveWritesReadableYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := config.GetDefaultConfig()

	require.NoError(t, config.Save(cfg, path))

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Port, loaded.Port)
}

func TestDefaultConfigDirRespectsXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-test-home")
	assert.Equal(t, "/tmp/xdg-test-home/kyco", config.DefaultConfigDir())
}
