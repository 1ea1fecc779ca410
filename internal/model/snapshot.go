package model

import (
	"strings"
	"time"
)

// CPUThresholds are the temperature limits reported by the first core sensor.
type CPUThresholds struct {
	High     float64 `json:"high"`
	Critical float64 `json:"critical"`
}

// MemoryCapacity is the total RAM in MiB.
type MemoryCapacity struct {
	TotalMiB float64 `json:"total_mib"`
}

// Calibration holds values captured once during the first cycle.
// A nil field means the family has not been calibrated.
type Calibration struct {
	CPU    *CPUThresholds  `json:"cpu,omitempty"`
	Memory *MemoryCapacity `json:"memory,omitempty"`
}

// SeriesView is an immutable copy of one family's history.
type SeriesView struct {
	Family   Family   `json:"family"`
	Capacity int      `json:"capacity"`
	Schema   Schema   `json:"schema"`
	Samples  []Sample `json:"samples"`
}

// Len returns the number of retained samples.
func (v SeriesView) Len() int { return len(v.Samples) }

// Column returns the numeric values of label across all samples, oldest first.
// Samples without a numeric value for label are skipped.
func (v SeriesView) Column(label string) []float64 {
	out := make([]float64, 0, len(v.Samples))
	for _, s := range v.Samples {
		if val, ok := s.Values[label]; ok {
			out = append(out, val)
		}
	}
	return out
}

// Table renders the view as rows, oldest first.
func (v SeriesView) Table() Table {
	return NewTable(v.Family, v.Schema, v.Samples)
}

// Snapshot is what the display layer reads. The engine publishes a new
// Snapshot after every cycle and never mutates a published one.
//
// State is the engine state once the producing cycle has finished, so even
// the calibrating cycle's output reports streaming. FirstRun marks that output.
type Snapshot struct {
	Cycle       uint64                `json:"cycle"`
	State       State                 `json:"state"`
	FirstRun    bool                  `json:"first_run"`
	Taken       time.Time             `json:"taken"`
	Calibration Calibration           `json:"calibration"`
	Series      map[Family]SeriesView `json:"series"`
	Errors      map[Family]string     `json:"errors,omitempty"`
}

// EmptySnapshot is published before the first cycle completes.
func EmptySnapshot() *Snapshot {
	return &Snapshot{
		State:  StateIdle,
		Series: map[Family]SeriesView{},
		Errors: map[Family]string{},
	}
}

// View returns the series view for f (zero value if unknown).
func (s *Snapshot) View(f Family) SeriesView {
	if v, ok := s.Series[f]; ok {
		return v
	}
	return SeriesView{Family: f}
}

// Rows returns the detail table for f.
func (s *Snapshot) Rows(f Family) Table { return s.View(f).Table() }

// Column returns one column of f, oldest first.
func (s *Snapshot) Column(f Family, label string) []float64 { return s.View(f).Column(label) }

// Chart describes one dashboard panel plotting a single column.
type Chart struct {
	Name   string
	Title  string
	Family Family
	Field  string
}

// Fields plotted by the dashboard.
const (
	FieldCPUPercent = "cpu_percent"
	FieldMemPercent = "percent [%]"
	FieldGPUUtil    = "utilization.gpu"
	fieldPackage    = "package"
)

// Charts lists the dashboard panels in display order.
var Charts = []Chart{
	{Name: "cpu", Title: "CPU Utilization (%)", Family: FamilyCPU, Field: FieldCPUPercent},
	{Name: "cpu_temp", Title: "CPU Temperature (°C)", Family: FamilyCPU, Field: fieldPackage},
	{Name: "memory", Title: "Memory (used %)", Family: FamilyMemory, Field: FieldMemPercent},
	{Name: "gpu", Title: "GPU Utilization (%)", Family: FamilyGPU, Field: FieldGPUUtil},
}

// Column resolves the chart's field against schema. The temperature chart
// prefers a package sensor and falls back to the first core sensor.
func (c Chart) Column(schema Schema) (string, bool) {
	if c.Field != fieldPackage {
		return schema.Resolve(c.Field)
	}
	for _, col := range schema {
		if strings.Contains(strings.ToLower(col), fieldPackage) {
			return col, true
		}
	}
	for _, col := range schema {
		if col != FieldCPUPercent {
			return col, true
		}
	}
	return "", false
}

// ChartData returns the values plotted by c.
func (s *Snapshot) ChartData(c Chart) []float64 {
	v := s.View(c.Family)
	col, ok := c.Column(v.Schema)
	if !ok {
		return nil
	}
	return v.Column(col)
}
