package service

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/TIANLI0/ClothMask/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shellRunner(t *testing.T, script string, timeout time.Duration) *TryOnRunner {
	t.Helper()
	cfg := &config.TryOnConfig{
		Command: "sh",
		Args:    []string{"-c", script, "tryon", "{cloth}", "{mask}", "{output}"},
		Timeout: timeout,
	}
	return NewTryOnRunner(cfg, t.TempDir())
}

func writeInputs(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	cloth := filepath.Join(dir, "cloth.jpg")
	maskPath := filepath.Join(dir, "cloth_mask.png")
	require.NoError(t, os.WriteFile(cloth, []byte("cloth"), 0644))
	require.NoError(t, os.WriteFile(maskPath, []byte("mask"), 0644))
	return cloth, maskPath
}

func TestTryOnRunner_Disabled(t *testing.T) {
	r := NewTryOnRunner(&config.TryOnConfig{}, t.TempDir())
	assert.False(t, r.Enabled())

	_, err := r.Run(context.Background(), "a.jpg", "a_mask.png")
	assert.ErrorIs(t, err, ErrTryOnDisabled)
}

func TestTryOnRunner_SingleResult(t *testing.T) {
	cloth, maskPath := writeInputs(t)
	r := shellRunner(t, `cat "$1" "$2" > "$3/result.jpg"`, time.Minute)
	require.True(t, r.Enabled())

	out, err := r.Run(context.Background(), cloth, maskPath)
	require.NoError(t, err)
	require.Len(t, out.Results, 1)
	assert.Equal(t, filepath.Join(out.Dir, "result.jpg"), out.Results[0])

	data, err := os.ReadFile(out.Results[0])
	require.NoError(t, err)
	assert.Equal(t, "clothmask", string(data))
}

func TestTryOnRunner_SeparateOutputDirs(t *testing.T) {
	cloth, maskPath := writeInputs(t)
	r := shellRunner(t, `cp "$1" "$3/b.jpg" && cp "$1" "$3/a.jpg"`, time.Minute)

	first, err := r.Run(context.Background(), cloth, maskPath)
	require.NoError(t, err)
	second, err := r.Run(context.Background(), cloth, maskPath)
	require.NoError(t, err)

	assert.NotEqual(t, first.Dir, second.Dir)
	assert.Equal(t, []string{filepath.Join(first.Dir, "a.jpg"), filepath.Join(first.Dir, "b.jpg")}, first.Results)
}

func TestTryOnRunner_Failures(t *testing.T) {
	tests := []struct {
		name    string
		script  string
		timeout time.Duration
	}{
		{name: "non-zero exit", script: "echo boom >&2; exit 3", timeout: time.Minute},
		{name: "no results", script: "true", timeout: time.Minute},
		{name: "timeout", script: "sleep 5", timeout: 50 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cloth, maskPath := writeInputs(t)
			_, err := shellRunner(t, tt.script, tt.timeout).Run(context.Background(), cloth, maskPath)
			assert.Error(t, err)
		})
	}
}

func TestZipResults(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"1.jpg", "2.jpg"} {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(name), 0644))
		paths = append(paths, p)
	}

	dst := filepath.Join(dir, "results.zip")
	require.NoError(t, ZipResults(dst, paths))

	zr, err := zip.OpenReader(dst)
	require.NoError(t, err)
	defer zr.Close()
	require.Len(t, zr.File, 2)
	assert.Equal(t, "1.jpg", zr.File[0].Name)
	assert.Equal(t, "2.jpg", zr.File[1].Name)

	assert.Error(t, ZipResults(filepath.Join(dir, "bad.zip"), []string{filepath.Join(dir, "missing.jpg")}))
}
