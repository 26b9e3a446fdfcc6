// Package forecast models an hourly weather forecast as an ordered, immutable
// series of prediction points and aggregates windows of it into slices.
package forecast

import (
	"fmt"
	"iter"
	"time"
)

// MaxPoints is the forecast horizon in hourly points. Longer inputs are truncated.
const MaxPoints = 48

// Forecast is an ordered, non-empty series of at most MaxPoints predictions.
// It is never mutated after construction and is safe for concurrent readers.
type Forecast struct {
	points []PredictionPoint
}

// New parses the first MaxPoints records into a Forecast. A single malformed
// record fails the whole forecast. A local time repeated on a fall-back day
// resolves to the occurrence that keeps the series increasing.
func New(records []Record, p Parser) (*Forecast, error) {
	if len(records) == 0 {
		return nil, ErrEmptyForecast
	}
	if len(records) > MaxPoints {
		records = records[:MaxPoints]
	}

	points := make([]PredictionPoint, 0, len(records))
	var prev time.Time
	for i, r := range records {
		pt, err := p.parseAfter(r, prev)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		points = append(points, pt)
		prev = pt.TimeStamp
	}
	return build(points)
}

// FromPoints builds a Forecast from already parsed points, applying the same
// horizon cap and ordering check as New. The input slice is copied.
func FromPoints(points []PredictionPoint) (*Forecast, error) {
	if len(points) == 0 {
		return nil, ErrEmptyForecast
	}
	if len(points) > MaxPoints {
		points = points[:MaxPoints]
	}
	owned := make([]PredictionPoint, len(points))
	copy(owned, points)
	return build(owned)
}

func build(points []PredictionPoint) (*Forecast, error) {
	for i := 1; i < len(points); i++ {
		if !points[i].TimeStamp.After(points[i-1].TimeStamp) {
			return nil, fmt.Errorf("%w: point %d at %s does not follow %s", ErrUnordered,
				i, points[i].TimeStamp.Format(time.RFC3339), points[i-1].TimeStamp.Format(time.RFC3339))
		}
	}
	return &Forecast{points: points}, nil
}

// Len returns the number of retained points.
func (f *Forecast) Len() int {
	return len(f.points)
}

// Points returns a copy of the retained points.
func (f *Forecast) Points() []PredictionPoint {
	out := make([]PredictionPoint, len(f.points))
	copy(out, f.points)
	return out
}

// TimeSpan returns the timestamps of the first and last points.
func (f *Forecast) TimeSpan() (start, end time.Time) {
	return f.points[0].TimeStamp, f.points[len(f.points)-1].TimeStamp
}

// PredictionsInRange returns the points with start <= TimeStamp <= end in
// order. Ranges reaching outside the forecast horizon are rejected with
// ErrOutOfRange rather than clipped. The returned sequence can be iterated
// any number of times.
func (f *Forecast) PredictionsInRange(start, end time.Time) (iter.Seq[PredictionPoint], error) {
	first, last := f.TimeSpan()
	switch {
	case start.After(end):
		return nil, fmt.Errorf("%w: start %s is after end %s", ErrOutOfRange,
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	case start.Before(first):
		return nil, fmt.Errorf("%w: start %s precedes first point %s", ErrOutOfRange,
			start.Format(time.RFC3339), first.Format(time.RFC3339))
	case end.After(last):
		return nil, fmt.Errorf("%w: end %s exceeds last point %s", ErrOutOfRange,
			end.Format(time.RFC3339), last.Format(time.RFC3339))
	}
	return f.scan(start, end), nil
}

// PredictionsWithin is the permissive counterpart of PredictionsInRange: it
// yields whatever points fall in [start, end] and never fails.
func (f *Forecast) PredictionsWithin(start, end time.Time) iter.Seq[PredictionPoint] {
	return f.scan(start, end)
}

// scan walks forward once and stops at the first point past end; it relies on
// the ascending order checked at construction.
func (f *Forecast) scan(start, end time.Time) iter.Seq[PredictionPoint] {
	return func(yield func(PredictionPoint) bool) {
		on := false
		for _, p := range f.points {
			if !on {
				if p.TimeStamp.Before(start) {
					continue
				}
				on = true
			}
			if p.TimeStamp.After(end) {
				return
			}
			if !yield(p) {
				return
			}
		}
	}
}

// ValuesInRange aggregates the points in [start, end] into a Slice.
func (f *Forecast) ValuesInRange(start, end time.Time) (Slice, error) {
	seq, err := f.PredictionsInRange(start, end)
	if err != nil {
		return Slice{}, err
	}

	var points []PredictionPoint
	for p := range seq {
		points = append(points, p)
	}
	return newSlice(points)
}
