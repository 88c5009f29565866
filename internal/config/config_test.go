package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/raysh454/crumb/internal/history"
	"github.com/raysh454/crumb/internal/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, history.DefaultCap, cfg.History.Cap)
	assert.Equal(t, scoring.DefaultWeights(), cfg.Scoring)
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := writeFile(t, "crumb.yaml", `
log:
  level: debug
  format: json
history:
  driver: memory
  cap: 10
chrome:
  url: https://shop.example.com
  timeout: 30s
scoring:
  tracking:
    ratio_weight: 40
    volume_multiplier: 3
    volume_cap: 10
server:
  addr: 0.0.0.0:9000
  allowed_origins: [http://localhost:5173]
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "memory", cfg.History.Driver)
	assert.Equal(t, 10, cfg.History.Cap)
	assert.Equal(t, "https://shop.example.com", cfg.Chrome.URL)
	assert.Equal(t, 30*time.Second, cfg.Chrome.Timeout)
	assert.True(t, cfg.Chrome.Headless, "unset fields keep defaults")
	assert.Equal(t, 40.0, cfg.Scoring.Tracking.RatioWeight)
	assert.Equal(t, 25.0, cfg.Scoring.Advertising.RatioWeight)
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Addr)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.AllowedOrigins)
}

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, "crumb.json", `{"history": {"driver": "sqlite", "path": "/tmp/h.db", "cap": 5}}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/h.db", cfg.History.Path)
	assert.Equal(t, 5, cfg.History.Cap)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"bad level":         "log:\n  level: loud\n",
		"unknown driver":    "history:\n  driver: redis\n",
		"postgres no dsn":   "history:\n  driver: postgres\n",
		"bad url":           "chrome:\n  url: not-a-url\n",
		"missing companies": "companies_file: /does/not/exist.yaml\n",
		"zero storage unit": "scoring:\n  local_storage_unit_kb: 0\n",
		"empty addr":        "server:\n  addr: \"\"\n",
	}
	for name, body := range cases {
		_, err := Load(writeFile(t, "c.yaml", body))
		assert.Error(t, err, name)
	}
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "broken.json", `{"log":`))
	assert.Error(t, err)
}
