package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gpastrain/internal/models"
	"gpastrain/pkg/gpa"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, runtime.NumCPU(), cfg.Processing.Workers)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gpa.yaml")
	data := `
processing:
  workers: 3
gpa:
  angle: 12.5
  mode: Dilitation
gvectors:
  - x: 8
    y: 0.5
    refine:
      - {top: -10, left: -10, bottom: 10, right: 10}
  - x: -0.5
    y: 8
output:
  report: out.yaml
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 3, cfg.Processing.Workers)
	assert.Equal(t, 12.5, cfg.GPA.Angle)
	assert.True(t, cfg.GPA.SnapToPeak, "unset keys keep their defaults")
	assert.Equal(t, "out.yaml", cfg.Output.Report)

	want := []GVector{
		{X: 8, Y: 0.5, Refine: []models.Rect{{Top: -10, Left: -10, Bottom: 10, Right: 10}}},
		{X: -0.5, Y: 8},
	}
	if diff := cmp.Diff(want, cfg.GVectors); diff != "" {
		t.Errorf("gvectors mismatch (-want +got):\n%s", diff)
	}

	m, err := cfg.Mode()
	require.NoError(t, err)
	assert.Equal(t, gpa.Dilatation, m)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("gpa: [unclosed"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly 2 gvectors")

	cfg.GVectors = make([]GVector, 2)
	assert.NoError(t, cfg.Validate())

	cfg.Processing.Workers = 0
	cfg.GPA.Mode = "shear"
	cfg.GPA.Sigma = -1
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "processing.workers")
	assert.Contains(t, err.Error(), "gpa.sigma")
	assert.Contains(t, err.Error(), "shear")
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "gpa.yaml")
	require.NoError(t, CreateDefaultConfigFile(path))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Len(t, cfg.GVectors[1].Refine, 1)

	cfg.GPA.Mode = gpa.Rotation.String()
	require.NoError(t, SaveConfig(cfg, path))

	reloaded, err := LoadConfig(path)
	require.NoError(t, err)
	if diff := cmp.Diff(cfg, reloaded); diff != "" {
		t.Errorf("reload mismatch (-want +got):\n%s", diff)
	}
}
