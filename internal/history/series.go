package history

import (
	"fmt"
	"time"

	"github.com/Dicklesworthstone/sysmon/internal/model"
)

// Series is the bounded history of one metric family. Its column schema is
// fixed by the first appended sample and never changes afterwards.
//
// A Series is not safe for concurrent use; the engine is its only writer
// and readers go through View copies.
type Series struct {
	family  model.Family
	ring    *Ring[model.Sample]
	schema  model.Schema
	lastAdd time.Time
}

// NewSeries creates an empty series for family retaining capacity samples.
func NewSeries(family model.Family, capacity int) *Series {
	return &Series{family: family, ring: NewRing[model.Sample](capacity)}
}

// Family returns the series' metric family.
func (s *Series) Family() model.Family { return s.family }

// Len returns the number of retained samples.
func (s *Series) Len() int { return s.ring.Len() }

// Cap returns the retention capacity.
func (s *Series) Cap() int { return s.ring.Cap() }

// Schema returns the fixed column set, or nil before the first append.
func (s *Series) Schema() model.Schema { return s.schema }

// Append pushes sample, evicting the oldest entry once at capacity.
// Timestamps must be non-decreasing within a series. The comparison uses
// the monotonic clock reading when both timestamps carry one, so a wall
// clock step backwards does not stall the series.
func (s *Series) Append(sample model.Sample) error {
	if s.ring.Len() > 0 && sample.Timestamp.Before(s.lastAdd) {
		return fmt.Errorf("%s sample at %s is older than the newest entry", s.family, sample.Timestamp)
	}
	if !s.schema.Ready() {
		s.schema = append(model.Schema{}, sample.Labels...)
	}
	s.ring.Push(sample)
	s.lastAdd = sample.Timestamp
	return nil
}

// View returns an immutable copy of the series for publication to readers.
func (s *Series) View() model.SeriesView {
	var schema model.Schema
	if s.schema.Ready() {
		schema = append(model.Schema{}, s.schema...)
	}
	samples := s.ring.All()
	if samples == nil {
		samples = []model.Sample{}
	}
	return model.SeriesView{
		Family:   s.family,
		Capacity: s.ring.Cap(),
		Schema:   schema,
		Samples:  samples,
	}
}
