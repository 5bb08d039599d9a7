package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "GPX", cfg.GPXRoot)
	assert.Equal(t, "Clean_Files", cfg.OutDir)
	assert.Equal(t, "nearest", cfg.JoinMode)
	assert.Equal(t, 100.0, cfg.LineBufferMeters)
	assert.NotEmpty(t, cfg.DevicePatterns)
	assert.Equal(t, "Protocolos 1 y 2", cfg.Protocols["p1"].PathPattern)
	assert.Equal(t, "Protocolos 1 y 2", cfg.Protocols["p2"].PathPattern)
	assert.Equal(t, "Protocolo 3", cfg.Protocols["p3"].PathPattern)
}

func TestLoadNoFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().GPXRoot, cfg.GPXRoot)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
gpx_root: /data/tracks
kml_path: /data/plan.kml
join_mode: within
line_buffer_meters: 50
protocols:
  p3:
    path_pattern: Protocolo 3
    start: "2023-05-10T00:00:00Z"
    end: "2023-05-11T00:00:00Z"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/tracks", cfg.GPXRoot)
	assert.Equal(t, "/data/plan.kml", cfg.KMLPath)
	assert.Equal(t, "within", cfg.JoinMode)
	assert.Equal(t, 50.0, cfg.LineBufferMeters)

	start, end, err := cfg.Protocols["p3"].Window()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 5, 10, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2023, 5, 11, 0, 0, 0, 0, time.UTC), end)
}

func TestLoadNormalizesProtocolKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
protocols:
  P3:
    path_pattern: Salida tres
  "1":
    path_pattern: Salida uno
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Salida tres", cfg.Protocols["p3"].PathPattern)
	assert.Equal(t, "Salida uno", cfg.Protocols["p1"].PathPattern)
	assert.NotContains(t, cfg.Protocols, "P3")
	assert.NotContains(t, cfg.Protocols, "1")

	// Untouched protocols keep their defaults.
	assert.Equal(t, "Protocolos 1 y 2", cfg.Protocols["p2"].PathPattern)
}

func TestLoadRejectsUnknownProtocolKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
protocols:
  p9:
    path_pattern: nada
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("TRACKREF_JOIN_MODE", "within")
	t.Setenv("TRACKREF_OUT_DIR", "/tmp/out")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "within", cfg.JoinMode)
	assert.Equal(t, "/tmp/out", cfg.OutDir)
}

func TestWindowOpenSides(t *testing.T) {
	start, end, err := ProtocolConfig{}.Window()
	require.NoError(t, err)
	assert.True(t, start.IsZero())
	assert.True(t, end.IsZero())
}

func TestWindowBadTimestamp(t *testing.T) {
	_, _, err := ProtocolConfig{Start: "ayer"}.Window()
	assert.Error(t, err)
}
