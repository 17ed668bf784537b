package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("CONFIG_ENV", "missing")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "release", cfg.Mode)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 54*time.Second, cfg.PingPeriod)
	assert.Equal(t, 500, cfg.HistoryLimit)
	assert.Equal(t, 1024, cfg.SendBuffer)
	assert.Equal(t, "drop", cfg.Backpressure)
	assert.Equal(t, RateLimit{Count: 30, Interval: time.Second}, cfg.RateLimit)
}

func TestLoad_FileEnvAndFlags(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "config"), 0o755))
	yaml := []byte(`
mode: debug
port: 9000
history_limit: 10
backpressure: kick
rate_limit:
  count: 5
  interval: 2s
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config", "config.test.yaml"), yaml, 0o644))
	t.Setenv("CONFIG_ENV", "test")
	t.Setenv("MEET_SEND_BUFFER", "64")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("port", 8080, "")
	require.NoError(t, flags.Parse([]string{"--port", "9100"}))

	cfg, err := Load(flags)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Mode)
	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, 10, cfg.HistoryLimit)
	assert.Equal(t, 64, cfg.SendBuffer)
	assert.Equal(t, "kick", cfg.Backpressure)
	assert.Equal(t, RateLimit{Count: 5, Interval: 2 * time.Second}, cfg.RateLimit)
}

func TestValidate(t *testing.T) {
	base := Config{Port: 8080, SendBuffer: 100, HistoryLimit: 10, Backpressure: "drop"}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "ok", mutate: func(*Config) {}},
		{name: "unbounded history", mutate: func(c *Config) { c.HistoryLimit = 0; c.SendBuffer = 8 }},
		{name: "unbounded history no room for replay", mutate: func(c *Config) { c.HistoryLimit = 0; c.SendBuffer = 2 }, wantErr: true},
		{name: "exact fit", mutate: func(c *Config) { c.SendBuffer = 12 }},
		{name: "no room for greetings", mutate: func(c *Config) { c.SendBuffer = 11 }, wantErr: true},
		{name: "bad port", mutate: func(c *Config) { c.Port = 0 }, wantErr: true},
		{name: "negative history", mutate: func(c *Config) { c.HistoryLimit = -1 }, wantErr: true},
		{name: "buffer too small", mutate: func(c *Config) { c.SendBuffer = 10 }, wantErr: true},
		{name: "unknown policy", mutate: func(c *Config) { c.Backpressure = "block" }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			err := c.validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestReplayBudget(t *testing.T) {
	c := Config{SendBuffer: 8}
	assert.Equal(t, 6, c.ReplayBudget())
}
