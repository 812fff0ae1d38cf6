package commands

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestVersionCommandPrintsVersion(t *testing.T) {
	Version, Commit, Date = "1.2.3", "abcdef", "2026-01-01"
	out := execute(t, "version")
	assert.Contains(t, out, "1.2.3")
	assert.Contains(t, out, "abcdef")
}

func TestConfigInitWriteThenShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	execute(t, "--config", path, "config", "init")
	out := execute(t, "--config", path, "config", "show")

	assert.Contains(t, out, "listen")
	assert.Contains(t, out, "6653")
}

func TestConfigInitForceOverwritesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	execute(t, "--config", path, "config", "init")
	out := execute(t, "--config", path, "config", "init", "--force")
	assert.Contains(t, out, "configuration written")
}

func TestConfigValidateOnDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	execute(t, "--config", path, "config", "init")

	out := execute(t, "--config", path, "config", "validate")
	assert.Contains(t, out, "valid")
}

func TestNappListIncludesTopology(t *testing.T) {
	out := execute(t, "napp", "list")
	assert.Contains(t, out, "kyco/topology")
}

func TestNappListIncludesHandshake(t *testing.T) {
	out := execute(t, "napp", "list")
	assert.Contains(t, out, "kyco/handshake")
}
