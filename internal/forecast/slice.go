package forecast

import (
	"slices"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Slice summarizes a contiguous window of a Forecast. StartTime and EndTime
// are the timestamps of the first and last points actually included, which
// may be narrower than the requested window.
type Slice struct {
	StartTime          time.Time           `json:"startTime"`
	EndTime            time.Time           `json:"endTime"`
	AverageTemperature float64             `json:"averageTemperature"`
	TotalPrecipitation float64             `json:"totalPrecipitation"`
	PrecipitationTypes []PrecipitationType `json:"precipitationTypes"` // distinct, sorted
	Points             int                 `json:"points"`
}

func newSlice(points []PredictionPoint) (Slice, error) {
	if len(points) == 0 {
		return Slice{}, ErrEmptyRange
	}

	temps := make([]float64, len(points))
	amounts := make([]float64, len(points))
	seen := make(map[PrecipitationType]struct{})
	var types []PrecipitationType

	for i, p := range points {
		temps[i] = p.Temperature
		amounts[i] = p.Precipitation
		if _, ok := seen[p.PrecipitationType]; !ok {
			seen[p.PrecipitationType] = struct{}{}
			types = append(types, p.PrecipitationType)
		}
	}
	slices.Sort(types)

	return Slice{
		StartTime:          points[0].TimeStamp,
		EndTime:            points[len(points)-1].TimeStamp,
		AverageTemperature: stat.Mean(temps, nil),
		TotalPrecipitation: floats.Sum(amounts),
		PrecipitationTypes: types,
		Points:             len(points),
	}, nil
}

// Duration is the time between the first and last included points.
func (s Slice) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

// PrecipitationPerHour returns the total precipitation spread over the slice
// duration. A single-point slice has no duration and yields ErrZeroDuration.
func (s Slice) PrecipitationPerHour() (float64, error) {
	hours := s.Duration().Hours()
	if hours == 0 {
		return 0, ErrZeroDuration
	}
	return s.TotalPrecipitation / hours, nil
}

// HasPrecipitationType reports whether t was observed in the slice.
func (s Slice) HasPrecipitationType(t PrecipitationType) bool {
	_, found := slices.BinarySearch(s.PrecipitationTypes, t)
	return found
}
