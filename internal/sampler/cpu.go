package sampler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/host"

	"github.com/Dicklesworthstone/sysmon/internal/errors"
	"github.com/Dicklesworthstone/sysmon/internal/logger"
	"github.com/Dicklesworthstone/sysmon/internal/model"
)

const (
	// DefaultLoadWindow is how long the load measurement integrates.
	DefaultLoadWindow = time.Second
	// DefaultSensorPrefix selects per-core sensors from the hwmon list.
	DefaultSensorPrefix = "coretemp"
)

var errNoCPUPercent = fmt.Errorf("cpu percent returned no values")

// CPU samples overall load and per-core temperatures.
type CPU struct {
	src    CPUSource
	window time.Duration
	prefix string
	now    func() time.Time
	log    logger.Logger
}

// CPUOption configures a CPU sampler.
type CPUOption func(*CPU)

// WithLoadWindow sets the load integration window.
func WithLoadWindow(d time.Duration) CPUOption { return func(c *CPU) { c.window = d } }

// WithSensorPrefix sets the sensor key prefix treated as core sensors.
func WithSensorPrefix(p string) CPUOption { return func(c *CPU) { c.prefix = p } }

// NewCPU creates a CPU sampler reading from src.
func NewCPU(src CPUSource, log logger.Logger, opts ...CPUOption) *CPU {
	c := &CPU{
		src:    src,
		window: DefaultLoadWindow,
		prefix: DefaultSensorPrefix,
		now:    time.Now,
		log:    log,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *CPU) Family() model.Family { return model.FamilyCPU }

// Sample reads core temperatures, then blocks for the load window.
// Thresholds are taken from the first reported core only.
func (c *CPU) Sample(ctx context.Context, firstRun bool) (Reading, error) {
	ts := c.now()

	temps, err := c.src.Temperatures(ctx)
	cores := c.cores(temps)
	if len(cores) == 0 {
		return Reading{}, errors.SensorUnavailable(err, fmt.Sprintf("no %q temperature sensors", c.prefix))
	}
	if err != nil {
		// gopsutil reports unreadable sensors as warnings next to partial results
		c.log.Debug("partial sensor read: %v", err)
	}

	pct, err := c.src.Percent(ctx, c.window)
	if err != nil {
		return Reading{}, errors.SensorUnavailable(err, "cpu load unavailable")
	}

	sample := model.NewSample(ts)
	sample.Set(model.FieldCPUPercent, pct)
	for _, core := range cores {
		sample.Set(core.SensorKey, core.Temperature)
	}

	r := Reading{Sample: sample}
	if firstRun {
		r.CPU = &model.CPUThresholds{High: cores[0].High, Critical: cores[0].Critical}
	}
	return r, nil
}

func (c *CPU) cores(temps []host.TemperatureStat) []host.TemperatureStat {
	var out []host.TemperatureStat
	for _, t := range temps {
		if strings.HasPrefix(t.SensorKey, c.prefix) {
			out = append(out, t)
		}
	}
	return out
}
