package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Dicklesworthstone/sysmon/internal/errors"
)

const (
	// EnvPrefix prefixes environment overrides, e.g. SYSMON_INTERVAL or SYSMON_GPU_ENABLED.
	EnvPrefix = "SYSMON"
	// ConfigFileName is looked up in the working directory.
	ConfigFileName = "sysmon.yaml"
	// GlobalConfigDir holds the per-user config file.
	GlobalConfigDir = ".config/sysmon"
	// GlobalConfigFile is the per-user config file name.
	GlobalConfigFile = "config.yaml"
)

// flagKeys maps command-line flags to config keys.
var flagKeys = map[string]string{
	"history":     "history",
	"interval":    "interval",
	"load-window": "cpu.load_window",
	"gpu-command": "gpu.command",
	"gpu-timeout": "gpu.timeout",
	"debug":       "log.debug",
	"log-file":    "log.file",
	"json":        "json",
	"json-stream": "json_stream",
}

// Load resolves configuration from defaults, an optional YAML file,
// SYSMON_* environment variables and flags, in increasing precedence.
// path may be empty to search the default locations.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, errors.WrapWithCode(err, errors.ErrConfig, "Cannot bind flag --"+name, "")
				}
			}
		}
	}

	file, err := Find(path)
	if err != nil {
		return Config{}, err
	}
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to read config file "+file,
				"Check the file is valid YAML")
		}
	}

	cfg, err := parseConfig(v)
	if err != nil {
		return Config{}, err
	}
	if flags != nil {
		if noGPU, err := flags.GetBool("no-gpu"); err == nil && noGPU {
			cfg.GPU.Enabled = false
		}
	}
	return cfg, cfg.Validate()
}

// Find returns the config file to read: the explicit path if given,
// then ./sysmon.yaml, then ~/.config/sysmon/config.yaml. An empty
// result means no file was found.
func Find(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Specified config file not found: "+explicit,
				"Check the path is correct")
		}
		return explicit, nil
	}

	if cwd, err := os.Getwd(); err == nil {
		local := filepath.Join(cwd, ConfigFileName)
		if _, err := os.Stat(local); err == nil {
			return local, nil
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		global := filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
		if _, err := os.Stat(global); err == nil {
			return global, nil
		}
	}
	return "", nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("history", d.History)
	v.SetDefault("interval", d.Interval.String())
	v.SetDefault("cpu.load_window", d.CPU.LoadWindow.String())
	v.SetDefault("cpu.sensor_prefix", d.CPU.SensorPrefix)
	v.SetDefault("gpu.enabled", d.GPU.Enabled)
	v.SetDefault("gpu.command", d.GPU.Command)
	v.SetDefault("gpu.timeout", d.GPU.Timeout.String())
	v.SetDefault("log.debug", d.Log.Debug)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("json", d.JSON)
	v.SetDefault("json_stream", d.JSONStream)
}

// parseConfig reads keys individually so intervals may be written as
// bare seconds as well as durations.
func parseConfig(v *viper.Viper) (Config, error) {
	var cfg Config
	var err error

	cfg.History = v.GetInt("history")
	if cfg.Interval, err = ParseInterval(v.GetString("interval")); err != nil {
		return Config{}, err
	}
	if cfg.CPU.LoadWindow, err = ParseInterval(v.GetString("cpu.load_window")); err != nil {
		return Config{}, err
	}
	cfg.CPU.SensorPrefix = v.GetString("cpu.sensor_prefix")
	cfg.GPU.Enabled = v.GetBool("gpu.enabled")
	cfg.GPU.Command = v.GetString("gpu.command")
	if cfg.GPU.Timeout, err = ParseInterval(v.GetString("gpu.timeout")); err != nil {
		return Config{}, err
	}
	cfg.Log.Debug = v.GetBool("log.debug")
	cfg.Log.File = v.GetString("log.file")
	cfg.JSON = v.GetBool("json")
	cfg.JSONStream = v.GetBool("json_stream")
	return cfg, nil
}
