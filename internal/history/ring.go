// Package history keeps bounded, insertion-ordered metric history.
//
// Each metric family owns one Series backed by a fixed-size ring buffer,
// so appending past capacity evicts the oldest entry in O(1).
package history

// DefaultSize is the default number of observations retained per family.
const DefaultSize = 59

// Ring is a fixed-size circular buffer.
type Ring[T any] struct {
	data  []T
	head  int // next write position
	count int
}

// NewRing creates a ring buffer holding at most size values.
// A non-positive size falls back to DefaultSize.
func NewRing[T any](size int) *Ring[T] {
	if size <= 0 {
		size = DefaultSize
	}
	return &Ring[T]{data: make([]T, size)}
}

// Push appends v, overwriting the oldest value when full.
// It reports whether a value was evicted.
func (r *Ring[T]) Push(v T) (evicted bool) {
	evicted = r.count == len(r.data)
	r.data[r.head] = v
	r.head = (r.head + 1) % len(r.data)
	if !evicted {
		r.count++
	}
	return evicted
}

// Len returns the number of stored values.
func (r *Ring[T]) Len() int { return r.count }

// Cap returns the buffer capacity.
func (r *Ring[T]) Cap() int { return len(r.data) }

// Last returns the newest value.
func (r *Ring[T]) Last() (T, bool) {
	var zero T
	if r.count == 0 {
		return zero, false
	}
	return r.data[(r.head-1+len(r.data))%len(r.data)], true
}

// GetLast returns up to count newest values in chronological order (oldest first).
func (r *Ring[T]) GetLast(count int) []T {
	if count <= 0 || r.count == 0 {
		return nil
	}
	if count > r.count {
		count = r.count
	}

	size := len(r.data)
	result := make([]T, count)
	// head points at the next write, so the newest value is at head-1
	start := (r.head - count + size) % size
	for i := 0; i < count; i++ {
		result[i] = r.data[(start+i)%size]
	}
	return result
}

// All returns every stored value in chronological order.
func (r *Ring[T]) All() []T { return r.GetLast(r.count) }
