package monitor

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dicklesworthstone/sysmon/internal/logger"
	"github.com/Dicklesworthstone/sysmon/internal/model"
	"github.com/Dicklesworthstone/sysmon/internal/sampler"
)

func TestEngineRetainsLastN(t *testing.T) {
	cpu := valuesSampler(model.FamilyCPU, "cpu_percent", 10, 20, 30, 40)
	e := NewEngine([]sampler.Sampler{cpu}, 3)
	ctx := context.Background()

	e.RunCycle(ctx, true)
	e.RunCycle(ctx, false)
	e.RunCycle(ctx, false)
	assert.Equal(t, []float64{10, 20, 30}, e.Column(model.FamilyCPU, "cpu_percent"))

	e.RunCycle(ctx, false)
	assert.Equal(t, []float64{20, 30, 40}, e.Column(model.FamilyCPU, "cpu_percent"))
	assert.Equal(t, 3, e.Rows(model.FamilyCPU).Len())
	assert.Equal(t, []bool{true, false, false, false}, cpu.calls())
}

func TestEngineLengthNeverExceedsCapacity(t *testing.T) {
	e := NewEngine([]sampler.Sampler{constSampler(model.FamilyMemory, "percent [%]", 50)}, 4)

	for i := 0; i < 20; i++ {
		snap := e.RunCycle(context.Background(), i == 0)
		assert.LessOrEqual(t, snap.View(model.FamilyMemory).Len(), 4)
	}
	assert.Equal(t, 4, e.Snapshot().View(model.FamilyMemory).Len())
	assert.Equal(t, uint64(20), e.Snapshot().Cycle)
}

func TestEngineCalibrationSetOnce(t *testing.T) {
	cpu := &scriptSampler{family: model.FamilyCPU, step: func(call int, firstRun bool) (sampler.Reading, error) {
		r := reading(call, "cpu_percent", 1)
		if firstRun {
			r.CPU = &model.CPUThresholds{High: 80 + float64(call), Critical: 100 + float64(call)}
		}
		return r, nil
	}}
	mem := &scriptSampler{family: model.FamilyMemory, step: func(call int, firstRun bool) (sampler.Reading, error) {
		r := reading(call, "percent [%]", 1)
		r.Memory = &model.MemoryCapacity{TotalMiB: 1000 + float64(call)}
		return r, nil
	}}
	e := NewEngine([]sampler.Sampler{cpu, mem}, 5)
	ctx := context.Background()

	assert.Nil(t, e.Calibration().CPU)
	e.RunCycle(ctx, true)

	cal := e.Calibration()
	require.NotNil(t, cal.CPU)
	require.NotNil(t, cal.Memory)
	assert.Equal(t, model.CPUThresholds{High: 80, Critical: 100}, *cal.CPU)
	assert.Equal(t, 1000.0, cal.Memory.TotalMiB)

	for i := 0; i < 5; i++ {
		e.RunCycle(ctx, false)
	}
	// A second first-run cycle must not overwrite values either.
	e.RunCycle(ctx, true)

	cal = e.Calibration()
	assert.Equal(t, model.CPUThresholds{High: 80, Critical: 100}, *cal.CPU)
	assert.Equal(t, 1000.0, cal.Memory.TotalMiB)
}

func TestEngineCalibrationRequiresFirstRunSuccess(t *testing.T) {
	cpu := &scriptSampler{family: model.FamilyCPU, step: func(call int, firstRun bool) (sampler.Reading, error) {
		if call == 0 {
			return sampler.Reading{}, fmt.Errorf("sensors not ready")
		}
		r := reading(call, "cpu_percent", 1)
		r.CPU = &model.CPUThresholds{High: 90, Critical: 105}
		return r, nil
	}}
	e := NewEngine([]sampler.Sampler{cpu}, 5)

	e.RunCycle(context.Background(), true)
	e.RunCycle(context.Background(), false)

	assert.Nil(t, e.Calibration().CPU)
	assert.Equal(t, 1, e.Snapshot().View(model.FamilyCPU).Len())
}

func TestEngineGPUUnavailable(t *testing.T) {
	gpu := sampler.NewGPU(fakeRunner{stdout: smiOK, stderr: "No devices were found"}, "nvidia-smi", 0)
	cpu := constSampler(model.FamilyCPU, "cpu_percent", 5)
	log := logger.NewBufferLogger()
	e := NewEngine([]sampler.Sampler{cpu, gpu}, 59, WithLogger(log))

	require.NotPanics(t, func() {
		for i := 0; i < 25; i++ {
			e.RunCycle(context.Background(), i == 0)
		}
	})

	view := e.Snapshot().View(model.FamilyGPU)
	assert.Zero(t, view.Len())
	assert.False(t, view.Schema.Ready(), "schema stays undefined until a query succeeds")
	assert.Zero(t, e.Rows(model.FamilyGPU).Len())
	assert.Equal(t, 25, e.Snapshot().View(model.FamilyCPU).Len())
	assert.Contains(t, e.Snapshot().Errors[model.FamilyGPU], "nvidia-smi reported an error")
	assert.True(t, log.HasLevel("warn"))
}

func TestEngineGPUSchemaFixedOnFirstSuccess(t *testing.T) {
	runner := &switchRunner{}
	gpu := sampler.NewGPU(runner, "", 0)
	e := NewEngine([]sampler.Sampler{gpu}, 10)
	ctx := context.Background()

	runner.out = fakeRunner{stderr: "driver not loaded"}
	e.RunCycle(ctx, true)
	assert.False(t, e.Snapshot().View(model.FamilyGPU).Schema.Ready())

	runner.out = fakeRunner{stdout: smiOK}
	e.RunCycle(ctx, false)
	e.RunCycle(ctx, false)

	view := e.Snapshot().View(model.FamilyGPU)
	assert.Equal(t, 2, view.Len())
	require.Len(t, view.Schema, len(sampler.GPUFields))
	assert.Equal(t, "utilization.gpu [%]", view.Schema[3])
	assert.Equal(t, []float64{45, 45}, e.Snapshot().ChartData(model.Charts[3]))
	assert.Empty(t, e.Snapshot().Errors[model.FamilyGPU])
}

type switchRunner struct{ out fakeRunner }

func (s *switchRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	return s.out.Run(ctx, name, args...)
}

func TestEnginePartialFailure(t *testing.T) {
	cpu := constSampler(model.FamilyCPU, "cpu_percent", 10)
	gpu := sampler.NewGPU(fakeRunner{stdout: smiOK}, "", 0)
	mem := &scriptSampler{family: model.FamilyMemory, step: func(call int, _ bool) (sampler.Reading, error) {
		if call == 1 {
			return sampler.Reading{}, fmt.Errorf("meminfo unreadable")
		}
		return reading(call, "percent [%]", 30), nil
	}}
	e := NewEngine([]sampler.Sampler{cpu, gpu, mem}, 59)
	ctx := context.Background()

	before := e.RunCycle(ctx, true)
	after := e.RunCycle(ctx, false)

	assert.Equal(t, before.View(model.FamilyCPU).Len()+1, after.View(model.FamilyCPU).Len())
	assert.Equal(t, before.View(model.FamilyGPU).Len()+1, after.View(model.FamilyGPU).Len())
	assert.Equal(t, before.View(model.FamilyMemory).Len(), after.View(model.FamilyMemory).Len())
	assert.Contains(t, after.Errors[model.FamilyMemory], "meminfo unreadable")

	recovered := e.RunCycle(ctx, false)
	assert.Equal(t, 2, recovered.View(model.FamilyMemory).Len())
	assert.NotContains(t, recovered.Errors, model.FamilyMemory)
}

func TestEngineContainsPanics(t *testing.T) {
	bad := &scriptSampler{family: model.FamilyMemory, step: func(int, bool) (sampler.Reading, error) {
		panic("nil map write")
	}}
	cpu := constSampler(model.FamilyCPU, "cpu_percent", 1)
	e := NewEngine([]sampler.Sampler{bad, cpu}, 5)

	require.NotPanics(t, func() { e.RunCycle(context.Background(), true) })
	snap := e.Snapshot()
	assert.Equal(t, 1, snap.View(model.FamilyCPU).Len())
	assert.Contains(t, snap.Errors[model.FamilyMemory], "panicked")
}

func TestEngineSkipsDisabledNetworkSampler(t *testing.T) {
	log := logger.NewBufferLogger()
	e := NewEngine([]sampler.Sampler{sampler.Network{}}, 5, WithLogger(log))

	snap := e.RunCycle(context.Background(), true)
	assert.Empty(t, snap.Errors)
	assert.False(t, log.HasLevel("warn"))
	_, ok := snap.Series[model.FamilyNetwork]
	assert.False(t, ok)
}

func TestEngineSnapshotsAreImmutable(t *testing.T) {
	e := NewEngine([]sampler.Sampler{valuesSampler(model.FamilyCPU, "cpu_percent", 1, 2, 3, 4)}, 2)
	ctx := context.Background()

	first := e.RunCycle(ctx, true)
	e.RunCycle(ctx, false)
	e.RunCycle(ctx, false)
	e.RunCycle(ctx, false)

	assert.Equal(t, []float64{1}, first.Column(model.FamilyCPU, "cpu_percent"))
	assert.Equal(t, uint64(1), first.Cycle)
	assert.Equal(t, []float64{3, 4}, e.Column(model.FamilyCPU, "cpu_percent"))
}

func TestEngineLifecycleStates(t *testing.T) {
	var e *Engine
	var during []model.State
	observer := &scriptSampler{family: model.FamilyCPU, step: func(call int, _ bool) (sampler.Reading, error) {
		during = append(during, e.Snapshot().State)
		return reading(call, "cpu_percent", 1), nil
	}}
	e = NewEngine([]sampler.Sampler{observer}, 5)

	assert.Equal(t, model.StateIdle, e.Snapshot().State)
	first := e.RunCycle(context.Background(), true)
	assert.Equal(t, model.StateStreaming, first.State)
	assert.True(t, first.FirstRun)
	assert.False(t, e.RunCycle(context.Background(), false).FirstRun)

	assert.Equal(t, []model.State{model.StateCalibrating, model.StateStreaming}, during)
}

func TestEngineNotifiesAfterCycle(t *testing.T) {
	e := NewEngine([]sampler.Sampler{constSampler(model.FamilyCPU, "cpu_percent", 1)}, 5)
	ch, cancel := e.Notifier().Subscribe()
	defer cancel()

	e.RunCycle(context.Background(), true)

	select {
	case <-ch:
	default:
		t.Fatal("expected a change notification after the cycle")
	}
}

func TestEngineSharedNotifier(t *testing.T) {
	n := NewNotifier()
	e := NewEngine([]sampler.Sampler{constSampler(model.FamilyCPU, "cpu_percent", 1)}, 2, WithNotifier(n))
	require.Same(t, n, e.Notifier())

	ch, cancel := n.Subscribe()
	defer cancel()
	e.RunCycle(context.Background(), true)

	select {
	case <-ch:
	default:
		t.Fatal("expected a change event on the shared notifier")
	}
}
