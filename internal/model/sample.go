package model

import (
	"strconv"
	"strings"
	"time"
)

// TimestampColumn is the leading column of every detail table.
const TimestampColumn = "timestamp"

// TimestampLayout matches the precision of the sampler clock.
const TimestampLayout = "2006-01-02 15:04:05.000000"

// Sample is one timestamped reading from a metric family.
// Values holds numeric cells, Text holds non-numeric ones (GPU name, power state).
// A Sample is read-only once a sampler has returned it.
type Sample struct {
	Timestamp time.Time          `json:"timestamp"`
	Labels    []string           `json:"labels"`
	Values    map[string]float64 `json:"values"`
	Text      map[string]string  `json:"text,omitempty"`
}

// NewSample returns an empty sample stamped with ts.
func NewSample(ts time.Time) Sample {
	return Sample{Timestamp: ts, Values: make(map[string]float64)}
}

// Set records a numeric value, keeping first-seen label order.
func (s *Sample) Set(label string, v float64) {
	if !s.has(label) {
		s.Labels = append(s.Labels, label)
	}
	s.Values[label] = v
}

// SetText records a non-numeric value, keeping first-seen label order.
func (s *Sample) SetText(label, v string) {
	if !s.has(label) {
		s.Labels = append(s.Labels, label)
	}
	if s.Text == nil {
		s.Text = make(map[string]string)
	}
	s.Text[label] = v
}

// Value returns the numeric value for label.
func (s Sample) Value(label string) (float64, bool) {
	v, ok := s.Values[label]
	return v, ok
}

// Cell formats the value for label as table text; missing labels render empty.
func (s Sample) Cell(label string) string {
	if label == TimestampColumn {
		return s.Timestamp.Format(TimestampLayout)
	}
	if v, ok := s.Values[label]; ok {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return s.Text[label]
}

func (s Sample) has(label string) bool {
	if _, ok := s.Values[label]; ok {
		return true
	}
	_, ok := s.Text[label]
	return ok
}

// Schema is the ordered column set of a series. A nil Schema means
// "not yet available": no successful sample has fixed it.
type Schema []string

// Ready reports whether the schema has been fixed.
func (s Schema) Ready() bool { return s != nil }

// Has reports whether label is part of the schema.
func (s Schema) Has(label string) bool {
	for _, c := range s {
		if c == label {
			return true
		}
	}
	return false
}

// Resolve finds the column for a field name. Columns may carry a
// bracketed unit suffix, so "utilization.gpu" resolves to "utilization.gpu [%]".
func (s Schema) Resolve(field string) (string, bool) {
	if s.Has(field) {
		return field, true
	}
	for _, c := range s {
		if strings.HasPrefix(c, field+" [") {
			return c, true
		}
	}
	return "", false
}

// Table is a rendered row set for the detail view.
type Table struct {
	Family  Family     `json:"family"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Len returns the number of rows.
func (t Table) Len() int { return len(t.Rows) }

// NewTable renders samples (oldest first) against schema. The timestamp
// column always leads.
func NewTable(family Family, schema Schema, samples []Sample) Table {
	t := Table{Family: family, Columns: []string{TimestampColumn}}
	if !schema.Ready() {
		return t
	}
	t.Columns = append(t.Columns, schema...)
	t.Rows = make([][]string, 0, len(samples))
	for _, s := range samples {
		row := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			row[i] = s.Cell(c)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// Newest returns a copy of t with rows ordered newest first.
func (t Table) Newest() Table {
	out := Table{Family: t.Family, Columns: t.Columns, Rows: make([][]string, len(t.Rows))}
	for i, r := range t.Rows {
		out.Rows[len(t.Rows)-1-i] = r
	}
	return out
}
