package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/Dicklesworthstone/sysmon/internal/model"
	"github.com/Dicklesworthstone/sysmon/internal/sampler"
)

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// scriptSampler returns whatever step produces for each call.
type scriptSampler struct {
	family model.Family
	step   func(call int, firstRun bool) (sampler.Reading, error)

	mu        sync.Mutex
	firstRuns []bool
}

func (s *scriptSampler) Family() model.Family { return s.family }

func (s *scriptSampler) Sample(_ context.Context, firstRun bool) (sampler.Reading, error) {
	s.mu.Lock()
	call := len(s.firstRuns)
	s.firstRuns = append(s.firstRuns, firstRun)
	s.mu.Unlock()
	return s.step(call, firstRun)
}

func (s *scriptSampler) calls() []bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]bool(nil), s.firstRuns...)
}

func reading(call int, label string, v float64) sampler.Reading {
	s := model.NewSample(base.Add(time.Duration(call) * time.Second))
	s.Set(label, v)
	return sampler.Reading{Sample: s}
}

// constSampler always succeeds with value v for label.
func constSampler(f model.Family, label string, v float64) *scriptSampler {
	return &scriptSampler{family: f, step: func(call int, _ bool) (sampler.Reading, error) {
		return reading(call, label, v), nil
	}}
}

// valuesSampler yields values[call] for label.
func valuesSampler(f model.Family, label string, values ...float64) *scriptSampler {
	return &scriptSampler{family: f, step: func(call int, _ bool) (sampler.Reading, error) {
		return reading(call, label, values[call]), nil
	}}
}

// fakeRunner emulates the GPU query tool.
type fakeRunner struct {
	stdout, stderr string
	err            error
}

func (f fakeRunner) Run(context.Context, string, ...string) ([]byte, []byte, error) {
	return []byte(f.stdout), []byte(f.stderr), f.err
}

const smiOK = "name, pstate, temperature.gpu, utilization.gpu [%], utilization.memory [%], power.draw [W], enforced.power.limit [W]\n" +
	"NVIDIA GeForce RTX 3080, P2, 61, 45, 12, 220.51, 320.00\n"
