package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  port: \":9090\"\n"))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Port)
	assert.Equal(t, Default().Mask, cfg.Mask)
	assert.Equal(t, Default().GrabCut, cfg.GrabCut)
	assert.Equal(t, []string{".jpg", ".jpeg", ".png"}, cfg.Upload.AllowedExts)
	assert.Equal(t, "@every 10m", cfg.Janitor.Schedule)
	assert.Equal(t, time.Hour, cfg.Janitor.Retention)
	assert.Empty(t, cfg.TryOn.Command)
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
redis:
  enabled: false
  ttl: 2h
mask:
  auto_threshold: false
  threshold: 240
  kernel_size: 7
  default_strategy: grabcut
grabcut:
  iterations: 3
  max_dimension: 400
tryon:
  command: /opt/viton/run.sh
  args: ["{cloth}", "{output}"]
  timeout: 90s
`))
	require.NoError(t, err)

	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 2*time.Hour, cfg.Redis.TTL)
	assert.False(t, cfg.Mask.AutoThreshold)
	assert.Equal(t, 240, cfg.Mask.Threshold)
	assert.Equal(t, 7, cfg.Mask.KernelSize)
	assert.Equal(t, "grabcut", cfg.Mask.DefaultStrategy)
	assert.Equal(t, 3, cfg.GrabCut.Iterations)
	assert.Equal(t, 400, cfg.GrabCut.MaxDimension)
	assert.Equal(t, 3, cfg.GrabCut.MaxConcurrent)
	assert.Equal(t, "/opt/viton/run.sh", cfg.TryOn.Command)
	assert.Equal(t, []string{"{cloth}", "{output}"}, cfg.TryOn.Args)
	assert.Equal(t, 90*time.Second, cfg.TryOn.Timeout)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "threshold out of range", body: "mask:\n  threshold: 300\n"},
		{name: "even kernel", body: "mask:\n  kernel_size: 4\n"},
		{name: "no iterations", body: "grabcut:\n  iterations: 0\n"},
		{name: "no workers", body: "grabcut:\n  max_concurrent: 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestDefault_Valid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}
