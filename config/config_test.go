package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/detlite/go-detlite/detector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "detlite.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestDefaultIsValid(t *testing.T) {

	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, detector.TinyYOLOv2ModelFile, cfg.ModelFile())
}

func TestLoadOverridesDefaults(t *testing.T) {

	path := writeConfig(t, `
execution_provider: gpu
model_variant: region-proposal
confidence_threshold: 0.65
capture:
  source: video.mp4
stream:
  display: mjpeg
log:
  level: debug
  development: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "gpu", cfg.ExecutionProvider)
	assert.Equal(t, "region-proposal", cfg.ModelVariant)
	assert.Equal(t, float32(0.65), cfg.ConfidenceThreshold)
	assert.Equal(t, "video.mp4", cfg.Capture.Source)
	assert.Equal(t, "mjpeg", cfg.Stream.Display)
	assert.True(t, cfg.Log.Development)

	// untouched keys keep their defaults
	assert.Equal(t, 640, cfg.Capture.Width)
	assert.Equal(t, 60, cfg.Stream.RefreshRate)
	assert.Equal(t, detector.SSDMobileNetV1ModelFile, cfg.ModelFile())
}

func TestLoadUnknownProviderAccepted(t *testing.T) {

	// providers are rejected by the detector on initialize
	cfg, err := Load(writeConfig(t, "execution_provider: webgpu\n"))

	require.NoError(t, err)
	assert.Equal(t, "webgpu", cfg.ExecutionProvider)
}

func TestLoadErrors(t *testing.T) {

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "model_variant: [grid\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {

	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{name: "variant", modify: func(c *Config) { c.ModelVariant = "yolov8" }},
		{name: "threshold above one", modify: func(c *Config) { c.ConfidenceThreshold = 1.5 }},
		{name: "threshold negative", modify: func(c *Config) { c.ConfidenceThreshold = -0.1 }},
		{name: "model file", modify: func(c *Config) { c.Models.TinyYOLOv2 = "" }},
		{name: "source", modify: func(c *Config) { c.Capture.Source = "" }},
		{name: "refresh rate", modify: func(c *Config) { c.Stream.RefreshRate = 0 }},
		{name: "fps frequency", modify: func(c *Config) { c.Stream.FPSFrequency = -1 }},
		{name: "display", modify: func(c *Config) { c.Stream.Display = "tty" }},
		{name: "mjpeg without addr", modify: func(c *Config) {
			c.Stream.Display = "mjpeg"
			c.MetricsAddr = ""
		}},
		{name: "threads", modify: func(c *Config) { c.Runtime.IntraOpThreads = -2 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
