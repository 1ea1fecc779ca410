package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/Dicklesworthstone/sysmon/internal/errors"
	"github.com/Dicklesworthstone/sysmon/internal/history"
	"github.com/Dicklesworthstone/sysmon/internal/monitor"
	"github.com/Dicklesworthstone/sysmon/internal/sampler"
)

// MinInterval is the shortest accepted tick interval.
const MinInterval = 500 * time.Millisecond

// Config carries runtime options for sysmon.
type Config struct {
	History  int           // retained observations per family
	Interval time.Duration // time between cycle starts
	CPU      CPUConfig
	GPU      GPUConfig
	Log      LogConfig

	JSON       bool // print one snapshot and exit
	JSONStream bool // print one snapshot per cycle until interrupted
}

// CPUConfig configures the CPU sampler.
type CPUConfig struct {
	LoadWindow   time.Duration
	SensorPrefix string
}

// GPUConfig configures the external GPU query.
type GPUConfig struct {
	Enabled bool
	Command string
	Timeout time.Duration
}

// LogConfig configures diagnostics output.
type LogConfig struct {
	Debug bool
	File  string
}

func Default() Config {
	return Config{
		History:  history.DefaultSize,
		Interval: monitor.DefaultInterval,
		CPU: CPUConfig{
			LoadWindow:   sampler.DefaultLoadWindow,
			SensorPrefix: sampler.DefaultSensorPrefix,
		},
		GPU: GPUConfig{
			Enabled: true,
			Command: sampler.DefaultGPUCommand,
			Timeout: sampler.DefaultGPUTimeout,
		},
	}
}

// Validate checks option ranges.
func (c Config) Validate() error {
	if c.History < 1 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Invalid history size: %d", c.History),
			"Retain at least one observation per metric")
	}
	if c.Interval < MinInterval {
		return errors.New(errors.ErrConfig,
			"Interval too short",
			"Minimum interval is "+MinInterval.String())
	}
	if c.CPU.LoadWindow <= 0 || c.CPU.LoadWindow >= c.Interval {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("CPU load window %s must be positive and shorter than the interval %s", c.CPU.LoadWindow, c.Interval),
			"Lower cpu.load_window or raise interval")
	}
	if c.GPU.Enabled {
		if c.GPU.Command == "" {
			return errors.New(errors.ErrConfig, "GPU command is empty", "Set gpu.command or disable GPU sampling with --no-gpu")
		}
		if c.GPU.Timeout <= 0 {
			return errors.New(errors.ErrConfig, "GPU timeout must be positive", "Use a duration like 3s")
		}
	}
	return nil
}

// ParseInterval accepts a Go duration ("5s", "1m") or bare seconds ("5", "2.5").
func ParseInterval(s string) (time.Duration, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Invalid duration: %q", s),
			"Use a duration like 5s or a number of seconds")
	}
	return time.Duration(secs * float64(time.Second)), nil
}
