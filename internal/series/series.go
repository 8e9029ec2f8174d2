package series

import (
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// TimeWindow is a closed interval [Start, Stop] of timestamps. It is used
// both to slice a TimeSeries and to parameterize the correction kernel.
type TimeWindow struct {
	Start time.Time
	Stop  time.Time
}

// NewWindow builds a window from two timestamps.
func NewWindow(start, stop time.Time) TimeWindow {
	return TimeWindow{Start: start, Stop: stop}
}

// Valid reports whether the window's start is strictly earlier than its stop.
func (w TimeWindow) Valid() bool {
	return w.Start.Before(w.Stop)
}

// Contains reports whether t falls inside the window, endpoints included.
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.Stop)
}

// Span returns the window's duration.
func (w TimeWindow) Span() time.Duration {
	return w.Stop.Sub(w.Start)
}

// Shift returns the window rigidly translated by d. Both endpoints move by
// the same offset, so the span is preserved.
func (w TimeWindow) Shift(d time.Duration) TimeWindow {
	return TimeWindow{Start: w.Start.Add(d), Stop: w.Stop.Add(d)}
}

// String returns the window as "[YYYY-MM-DD, YYYY-MM-DD]".
func (w TimeWindow) String() string {
	return fmt.Sprintf("[%s, %s]", w.Start.Format(DateLayout), w.Stop.Format(DateLayout))
}

// TimeSeries is an ordered mapping from timestamp to value with strictly
// increasing timestamps. A series is never mutated in place: slicing shares
// the backing arrays and every transformation builds a new series.
type TimeSeries struct {
	times  []time.Time
	values []float64
}

// New builds a series from parallel timestamp and value slices. The slices
// must be the same non-zero length and the timestamps strictly increasing.
func New(times []time.Time, values []float64) (*TimeSeries, error) {
	if len(times) != len(values) {
		return nil, fmt.Errorf("times and values length mismatch: %d vs %d", len(times), len(values))
	}
	if len(times) == 0 {
		return nil, fmt.Errorf("empty series")
	}
	for i := 1; i < len(times); i++ {
		if !times[i].After(times[i-1]) {
			return nil, fmt.Errorf("timestamps not strictly increasing at index %d (%s then %s)",
				i, times[i-1].Format(DateLayout), times[i].Format(DateLayout))
		}
	}
	return &TimeSeries{times: times, values: values}, nil
}

// Len returns the number of observations.
func (s *TimeSeries) Len() int {
	return len(s.times)
}

// Time returns the i-th timestamp.
func (s *TimeSeries) Time(i int) time.Time {
	return s.times[i]
}

// Value returns the i-th value.
func (s *TimeSeries) Value(i int) float64 {
	return s.values[i]
}

// Bounds returns the window spanned by the first and last timestamps.
func (s *TimeSeries) Bounds() TimeWindow {
	return TimeWindow{Start: s.times[0], Stop: s.times[len(s.times)-1]}
}

// Times returns a copy of the timestamps.
func (s *TimeSeries) Times() []time.Time {
	out := make([]time.Time, len(s.times))
	copy(out, s.times)
	return out
}

// Values returns a copy of the values.
func (s *TimeSeries) Values() []float64 {
	out := make([]float64, len(s.values))
	copy(out, s.values)
	return out
}

// Clone returns an independent copy of the series.
func (s *TimeSeries) Clone() *TimeSeries {
	return &TimeSeries{times: s.Times(), values: s.Values()}
}

// Slice returns the sub-series of observations falling inside w, endpoints
// included. The result shares backing arrays with s. A window covering no
// observations yields an error.
func (s *TimeSeries) Slice(w TimeWindow) (*TimeSeries, error) {
	lo := sort.Search(len(s.times), func(i int) bool { return !s.times[i].Before(w.Start) })
	hi := sort.Search(len(s.times), func(i int) bool { return s.times[i].After(w.Stop) })
	if lo >= hi {
		return nil, fmt.Errorf("window %s covers no observations", w)
	}
	return &TimeSeries{times: s.times[lo:hi], values: s.values[lo:hi]}, nil
}

// IndexOf returns the position of timestamp t, or false when the series has
// no observation at exactly t.
func (s *TimeSeries) IndexOf(t time.Time) (int, bool) {
	i := sort.Search(len(s.times), func(i int) bool { return !s.times[i].Before(t) })
	if i < len(s.times) && s.times[i].Equal(t) {
		return i, true
	}
	return 0, false
}

// Mean returns the arithmetic mean of the values inside w.
func (s *TimeSeries) Mean(w TimeWindow) (float64, error) {
	sub, err := s.Slice(w)
	if err != nil {
		return 0, err
	}
	return stat.Mean(sub.values, nil), nil
}

// Concat joins segments into one series. Segments must be given in
// chronological order with no timestamp overlap between consecutive
// segments; no reconciliation is attempted.
func Concat(segments ...*TimeSeries) (*TimeSeries, error) {
	if len(segments) == 0 {
		return nil, fmt.Errorf("no segments to concatenate")
	}
	n := 0
	for _, seg := range segments {
		n += seg.Len()
	}
	times := make([]time.Time, 0, n)
	values := make([]float64, 0, n)
	for _, seg := range segments {
		times = append(times, seg.times...)
		values = append(values, seg.values...)
	}
	return New(times, values)
}
