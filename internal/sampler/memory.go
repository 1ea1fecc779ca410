package sampler

import (
	"context"
	"time"

	"github.com/Dicklesworthstone/sysmon/internal/errors"
	"github.com/Dicklesworthstone/sysmon/internal/model"
)

// Memory column labels.
const (
	MemPercent   = model.FieldMemPercent
	MemAvailable = "available [MiB]"
	MemUsed      = "used [MiB]"
)

// Memory samples virtual memory usage.
type Memory struct {
	src MemorySource
	now func() time.Time
}

// NewMemory creates a memory sampler reading from src.
func NewMemory(src MemorySource) *Memory {
	return &Memory{src: src, now: time.Now}
}

func (m *Memory) Family() model.Family { return model.FamilyMemory }

func (m *Memory) Sample(ctx context.Context, firstRun bool) (Reading, error) {
	ts := m.now()
	vm, err := m.src.VirtualMemory(ctx)
	if err != nil || vm == nil {
		return Reading{}, errors.SensorUnavailable(err, "virtual memory statistics unavailable")
	}

	sample := model.NewSample(ts)
	sample.Set(MemPercent, vm.UsedPercent)
	sample.Set(MemAvailable, ToMiB(vm.Available))
	sample.Set(MemUsed, ToMiB(vm.Used))

	r := Reading{Sample: sample}
	if firstRun {
		r.Memory = &model.MemoryCapacity{TotalMiB: ToMiB(vm.Total)}
	}
	return r, nil
}
