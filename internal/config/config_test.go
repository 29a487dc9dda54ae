package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chriskillpack/bpreader"
)

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bpreader.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.Backend)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 60*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "../tmp_images/bp-test.png", cfg.Image)
	assert.Equal(t, bpreader.DefaultPromptPath, cfg.Prompts)
	assert.Equal(t, bpreader.DefaultLimits, cfg.Limits)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
backend: ollama
model: llava:13b
max_retries: 1
request_timeout: 15s
ollama:
  server: http://gpu-box:11434
limits:
  systolic:
    max: 230
log:
  level: debug
  format: json
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ollama", cfg.Backend)
	assert.Equal(t, "llava:13b", cfg.Model)
	assert.Equal(t, 1, cfg.MaxRetries)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "http://gpu-box:11434", cfg.Ollama.Server)
	assert.Equal(t, bpreader.Range{Min: 60, Max: 230}, cfg.Limits.Systolic)
	assert.Equal(t, bpreader.DefaultLimits.Diastolic, cfg.Limits.Diastolic)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, "backend: llama\n")
	t.Setenv("BPREADER_BACKEND", "openai")
	t.Setenv("BPREADER_MAX_RETRIES", "5")
	t.Setenv("BPREADER_LIMITS_PULSE_MAX", "180")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.Backend)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 180, cfg.Limits.Pulse.Max)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalid(t *testing.T) {
	tests := map[string]string{
		"backend": "backend: gemini\n",
		"retries": "max_retries: -1\n",
		"limits":  "limits:\n  diastolic:\n    min: 140\n",
	}
	for name, yaml := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadExampleLeavesModelToBackend(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config", "bpreader.example.yaml"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Model)
	assert.Equal(t, bpreader.DefaultLimits, cfg.Limits)
}
