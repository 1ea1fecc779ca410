// Package sampler produces one Sample per invocation for each metric family.
//
// CPU and memory readings come from gopsutil; GPU readings come from an
// external query tool. Samplers return errors instead of panicking and
// never retain history: the monitor engine owns all series.
package sampler

import (
	"bytes"
	"context"
	"math"
	"os/exec"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/Dicklesworthstone/sysmon/internal/model"
)

// Sampler produces one reading of a metric family.
type Sampler interface {
	Family() model.Family
	// Sample takes a reading. When firstRun is set the reading also
	// carries calibration values for the family, if it has any.
	Sample(ctx context.Context, firstRun bool) (Reading, error)
}

// Reading is the result of one successful Sample call.
type Reading struct {
	Sample model.Sample
	CPU    *model.CPUThresholds  // first run only
	Memory *model.MemoryCapacity // first run only
}

// CPUSource is the host API consumed by the CPU sampler.
type CPUSource interface {
	Temperatures(ctx context.Context) ([]host.TemperatureStat, error)
	// Percent measures overall load integrated over window; it blocks for window.
	Percent(ctx context.Context, window time.Duration) (float64, error)
}

// MemorySource is the host API consumed by the memory sampler.
type MemorySource interface {
	VirtualMemory(ctx context.Context) (*mem.VirtualMemoryStat, error)
}

// Host reads CPU and memory statistics through gopsutil.
type Host struct{}

func (Host) Temperatures(ctx context.Context) ([]host.TemperatureStat, error) {
	return host.SensorsTemperaturesWithContext(ctx)
}

func (Host) Percent(ctx context.Context, window time.Duration) (float64, error) {
	pcts, err := cpu.PercentWithContext(ctx, window, false)
	if err != nil {
		return 0, err
	}
	if len(pcts) == 0 {
		return 0, errNoCPUPercent
	}
	return pcts[0], nil
}

func (Host) VirtualMemory(ctx context.Context) (*mem.VirtualMemoryStat, error) {
	return mem.VirtualMemoryWithContext(ctx)
}

// Runner executes an external command, keeping stdout and stderr apart.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return nil, nil, ctx.Err()
	}
	return stdout.Bytes(), stderr.Bytes(), err
}

// ToMiB converts bytes to mebibytes rounded to two decimal places.
func ToMiB(b uint64) float64 {
	return math.Round(float64(b)/(1024*1024)*100) / 100
}
