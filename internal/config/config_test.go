package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dicklesworthstone/sysmon/internal/errors"
)

// isolate keeps Find from picking up real config files.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func testFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("sysmon", pflag.ContinueOnError)
	fs.Int("history", 0, "")
	fs.String("interval", "", "")
	fs.String("load-window", "", "")
	fs.String("gpu-command", "", "")
	fs.String("gpu-timeout", "", "")
	fs.Bool("no-gpu", false, "")
	fs.Bool("debug", false, "")
	fs.String("log-file", "", "")
	fs.Bool("json", false, "")
	fs.Bool("json-stream", false, "")
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 59, cfg.History)
	assert.Equal(t, 5*time.Second, cfg.Interval)
	assert.Equal(t, time.Second, cfg.CPU.LoadWindow)
	assert.Equal(t, "coretemp", cfg.CPU.SensorPrefix)
	assert.True(t, cfg.GPU.Enabled)
	assert.Equal(t, "nvidia-smi", cfg.GPU.Command)
	assert.NoError(t, cfg.Validate())
}

func TestParseInterval(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"5s", 5 * time.Second, false},
		{"1m", time.Minute, false},
		{"5", 5 * time.Second, false},
		{"2.5", 2500 * time.Millisecond, false},
		{"soon", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseInterval(tt.in)
			if tt.wantErr {
				assert.True(t, errors.IsCode(err, errors.ErrConfig))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero history", func(c *Config) { c.History = 0 }},
		{"short interval", func(c *Config) { c.Interval = 100 * time.Millisecond }},
		{"load window exceeds interval", func(c *Config) { c.Interval = time.Second; c.CPU.LoadWindow = 2 * time.Second }},
		{"zero load window", func(c *Config) { c.CPU.LoadWindow = 0 }},
		{"empty gpu command", func(c *Config) { c.GPU.Command = "" }},
		{"zero gpu timeout", func(c *Config) { c.GPU.Timeout = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrConfig))
		})
	}

	cfg := Default()
	cfg.GPU.Enabled = false
	cfg.GPU.Command = ""
	assert.NoError(t, cfg.Validate(), "GPU options are ignored when disabled")
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
history: 10
interval: 3
cpu:
  sensor_prefix: k10temp
gpu:
  command: /usr/bin/nvidia-smi
  timeout: 1s
`), 0o644))

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.History)
	assert.Equal(t, 3*time.Second, cfg.Interval)
	assert.Equal(t, "k10temp", cfg.CPU.SensorPrefix)
	assert.Equal(t, "/usr/bin/nvidia-smi", cfg.GPU.Command)
	assert.Equal(t, time.Second, cfg.GPU.Timeout)
}

func TestLoadFindsLocalFile(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("history: 7\n"), 0o644))

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.History)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	isolate(t)

	_, err := Load("/nonexistent/sysmon.yaml", nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestLoadEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("SYSMON_INTERVAL", "10")
	t.Setenv("SYSMON_GPU_ENABLED", "false")
	t.Setenv("SYSMON_HISTORY", "30")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.Interval)
	assert.False(t, cfg.GPU.Enabled)
	assert.Equal(t, 30, cfg.History)
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	isolate(t)
	t.Setenv("SYSMON_INTERVAL", "10")

	cfg, err := Load("", testFlags(t, "--interval", "2s", "--history", "3", "--no-gpu", "--json"))
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.Interval)
	assert.Equal(t, 3, cfg.History)
	assert.False(t, cfg.GPU.Enabled)
	assert.True(t, cfg.JSON)
}

func TestLoadUnchangedFlagsKeepDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("", testFlags(t))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	isolate(t)

	_, err := Load("", testFlags(t, "--interval", "whenever"))
	assert.True(t, errors.IsCode(err, errors.ErrConfig))

	_, err = Load("", testFlags(t, "--history", "0"))
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}
