package monitor

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Dicklesworthstone/sysmon/internal/errors"
	"github.com/Dicklesworthstone/sysmon/internal/history"
	"github.com/Dicklesworthstone/sysmon/internal/logger"
	"github.com/Dicklesworthstone/sysmon/internal/model"
	"github.com/Dicklesworthstone/sysmon/internal/sampler"
)

// Engine runs sampling cycles and owns all history and calibration state.
type Engine struct {
	mu          sync.Mutex // serializes cycles; the engine is the single writer
	samplers    []sampler.Sampler
	series      map[model.Family]*history.Series
	calibration model.Calibration
	errs        map[model.Family]string
	cycle       uint64

	snap     atomic.Pointer[model.Snapshot]
	notifier *Notifier
	log      logger.Logger
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l logger.Logger) Option { return func(e *Engine) { e.log = l } }

// WithNotifier shares a notifier with other components.
func WithNotifier(n *Notifier) Option { return func(e *Engine) { e.notifier = n } }

// NewEngine creates an engine retaining capacity samples per family.
// Series exist for every selectable family even if no sampler feeds them.
func NewEngine(samplers []sampler.Sampler, capacity int, opts ...Option) *Engine {
	e := &Engine{
		samplers: samplers,
		series:   make(map[model.Family]*history.Series),
		errs:     make(map[model.Family]string),
		notifier: NewNotifier(),
		log:      logger.Noop(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	for _, f := range model.Selectable() {
		e.series[f] = history.NewSeries(f, capacity)
	}
	e.snap.Store(model.EmptySnapshot())
	return e
}

// Notifier returns the engine's change notifier.
func (e *Engine) Notifier() *Notifier { return e.notifier }

// Snapshot returns the latest published snapshot. It is never nil and
// must not be modified.
func (e *Engine) Snapshot() *model.Snapshot { return e.snap.Load() }

// Column returns the latest values of one column of family f, for charting.
func (e *Engine) Column(f model.Family, label string) []float64 {
	return e.Snapshot().Column(f, label)
}

// Rows returns the latest detail table for family f.
func (e *Engine) Rows(f model.Family) model.Table { return e.Snapshot().Rows(f) }

// Calibration returns the captured calibration values.
func (e *Engine) Calibration() model.Calibration { return e.Snapshot().Calibration }

// RunCycle samples every family once, in order, and publishes a new snapshot.
// Calibration values are captured only when firstRun is set and the
// family's sampler succeeded. A failing sampler leaves its series unchanged.
func (e *Engine) RunCycle(ctx context.Context, firstRun bool) *model.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	if firstRun {
		calibrating := *e.snap.Load()
		calibrating.State = model.StateCalibrating
		e.snap.Store(&calibrating)
	}

	start := e.now()
	appended := 0
	for _, s := range e.samplers {
		if e.sampleOne(ctx, s, firstRun) {
			appended++
		}
	}
	e.cycle++

	snap := e.buildSnapshot()
	snap.FirstRun = firstRun
	e.snap.Store(snap)
	e.log.Debug("cycle %d: %d/%d families updated in %s", e.cycle, appended, len(e.samplers), e.now().Sub(start).Round(time.Millisecond))
	e.notifier.Publish()
	return snap
}

// sampleOne runs a single sampler behind a failure boundary and reports
// whether its series grew.
func (e *Engine) sampleOne(ctx context.Context, s sampler.Sampler, firstRun bool) bool {
	family := s.Family()
	r, err := e.safeSample(ctx, s, firstRun)
	if stderrors.Is(err, sampler.ErrDisabled) {
		return false
	}
	if err != nil {
		e.errs[family] = errors.Summary(err)
		e.log.Warn("%s sampler: %s", family, errors.Summary(err))
		return false
	}

	series, ok := e.series[family]
	if !ok {
		e.log.Debug("no series for family %s", family)
		return false
	}
	if err := series.Append(r.Sample); err != nil {
		e.errs[family] = err.Error()
		e.log.Warn("%s append: %v", family, err)
		return false
	}
	delete(e.errs, family)

	if firstRun {
		e.calibrate(family, r)
	}
	return true
}

func (e *Engine) safeSample(ctx context.Context, s sampler.Sampler, firstRun bool) (r sampler.Reading, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = errors.New(errors.ErrSampler, fmt.Sprintf("%s sampler panicked: %v", s.Family(), p), "")
		}
	}()
	return s.Sample(ctx, firstRun)
}

// calibrate stores first-run values; values already set are never replaced.
func (e *Engine) calibrate(family model.Family, r sampler.Reading) {
	if r.CPU != nil && e.calibration.CPU == nil {
		th := *r.CPU
		e.calibration.CPU = &th
		e.log.Info("calibrated %s: high=%.1f critical=%.1f", family, th.High, th.Critical)
	}
	if r.Memory != nil && e.calibration.Memory == nil {
		mc := *r.Memory
		e.calibration.Memory = &mc
		e.log.Info("calibrated %s: total=%.2f MiB", family, mc.TotalMiB)
	}
}

func (e *Engine) buildSnapshot() *model.Snapshot {
	snap := &model.Snapshot{
		Cycle:       e.cycle,
		State:       model.StateStreaming,
		Taken:       e.now(),
		Calibration: e.calibration,
		Series:      make(map[model.Family]model.SeriesView, len(e.series)),
		Errors:      make(map[model.Family]string, len(e.errs)),
	}
	for f, s := range e.series {
		snap.Series[f] = s.View()
	}
	for f, msg := range e.errs {
		snap.Errors[f] = msg
	}
	return snap
}
