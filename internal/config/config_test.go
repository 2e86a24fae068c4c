package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 800.0, cfg.Viewport.Width)
	assert.Equal(t, 16, cfg.Layout.MaxPasses)
	assert.Equal(t, 60.0, cfg.Transitions.TickRate)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 250*time.Millisecond, cfg.Watch.MinInterval)
}

func TestFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vista.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: debug
  format: json
viewport:
  width: 1024
layout:
  max_passes: 4
cache:
  ttl: 30s
`), 0o644))

	v := New(path)
	require.NoError(t, Read(v))
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 1024.0, cfg.Viewport.Width)
	assert.Equal(t, 600.0, cfg.Viewport.Height)
	assert.Equal(t, 4, cfg.Layout.MaxPasses)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
}

func TestEnvironmentOverridesDefaults(t *testing.T) {
	t.Setenv("VISTA_VIEWPORT_HEIGHT", "320")
	t.Setenv("VISTA_LOG_LEVEL", "warn")

	v := New("")
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 320.0, cfg.Viewport.Height)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestMissingFiles(t *testing.T) {
	t.Chdir(t.TempDir())
	assert.NoError(t, Read(New("")), "no vista.yaml on the search path is fine")
	assert.Error(t, Read(New(filepath.Join(t.TempDir(), "absent.yaml"))))
}

func TestValidation(t *testing.T) {
	for name, mutate := range map[string]func(*Config){
		"level":       func(c *Config) { c.Log.Level = "loud" },
		"format":      func(c *Config) { c.Log.Format = "xml" },
		"viewport":    func(c *Config) { c.Viewport.Width = 0 },
		"passes":      func(c *Config) { c.Layout.MaxPasses = 0 },
		"tick rate":   func(c *Config) { c.Transitions.TickRate = -1 },
		"ttl":         func(c *Config) { c.Cache.TTL = 0 },
		"interval":    func(c *Config) { c.Watch.MinInterval = -time.Second },
		"concurrency": func(c *Config) { c.Batch.Concurrency = 0 },
	} {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	v := New("")
	v.Set("layout.max_passes", 0)
	_, err := Load(v)
	assert.ErrorIs(t, err, ErrInvalid)
}
