package forecast

import (
	"errors"
	"slices"
	"testing"
	"time"
	_ "time/tzdata"
)

var base = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return base.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func hourlyRecords(n int) []Record {
	records := make([]Record, n)
	for i := range records {
		records[i] = Record{
			"localTimeIso": base.Add(time.Duration(i) * time.Hour).Format("2006-01-02T15:04:05"),
			"temp":         float64(i),
			"precipType":   "none",
			"prec50":       0.0,
		}
	}
	return records
}

// fourHours is the 00:00-03:00 forecast with temperatures 0,2,4,6,
// precipitation 1,0,1,0 and alternating rain/none.
func fourHours(t *testing.T) *Forecast {
	t.Helper()

	temps := []float64{0, 2, 4, 6}
	amounts := []float64{1, 0, 1, 0}
	types := []string{"rain", "none", "rain", "none"}

	records := make([]Record, len(temps))
	for i := range records {
		records[i] = Record{
			"localTimeIso": at(i, 0).Format("2006-01-02T15:04:05"),
			"temp":         temps[i],
			"precipType":   types[i],
			"prec50":       amounts[i],
		}
	}

	f, err := New(records, NewParser(WithLocation(time.UTC)))
	if err != nil {
		t.Fatalf("unexpected error building forecast: %v", err)
	}
	return f
}

func collect(t *testing.T, f *Forecast, start, end time.Time) []PredictionPoint {
	t.Helper()
	seq, err := f.PredictionsInRange(start, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var out []PredictionPoint
	for p := range seq {
		out = append(out, p)
	}
	return out
}

func TestNewKeepsAllPointsUpToHorizon(t *testing.T) {
	for _, n := range []int{1, 2, 24, MaxPoints} {
		f, err := New(hourlyRecords(n), NewParser(WithLocation(time.UTC)))
		if err != nil {
			t.Fatalf("n=%d: unexpected error: %v", n, err)
		}
		if f.Len() != n {
			t.Fatalf("n=%d: expected %d points, got %d", n, n, f.Len())
		}
	}
}

func TestNewTruncatesToFirst48(t *testing.T) {
	records := hourlyRecords(60)
	// A malformed record past the horizon is never parsed.
	records[55] = Record{"localTimeIso": "garbage"}

	f, err := New(records, NewParser(WithLocation(time.UTC)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Len() != MaxPoints {
		t.Fatalf("expected %d points, got %d", MaxPoints, f.Len())
	}

	start, end := f.TimeSpan()
	if !start.Equal(base) {
		t.Fatalf("expected first point at %s, got %s", base, start)
	}
	if want := base.Add(47 * time.Hour); !end.Equal(want) {
		t.Fatalf("expected last point at %s, got %s", want, end)
	}
}

func TestNewEmpty(t *testing.T) {
	if _, err := New(nil, NewParser()); !errors.Is(err, ErrEmptyForecast) {
		t.Fatalf("expected ErrEmptyForecast, got %v", err)
	}
	if _, err := FromPoints(nil); !errors.Is(err, ErrEmptyForecast) {
		t.Fatalf("expected ErrEmptyForecast, got %v", err)
	}
}

func TestNewMalformedRecordFailsWholeForecast(t *testing.T) {
	records := hourlyRecords(5)
	delete(records[3], "temp")

	f, err := New(records, NewParser(WithLocation(time.UTC)))
	if f != nil {
		t.Fatalf("expected no forecast, got %d points", f.Len())
	}
	if !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
}

func TestNewRejectsUnorderedPoints(t *testing.T) {
	records := hourlyRecords(4)
	records[1], records[2] = records[2], records[1]
	if _, err := New(records, NewParser(WithLocation(time.UTC))); !errors.Is(err, ErrUnordered) {
		t.Fatalf("expected ErrUnordered, got %v", err)
	}

	dup := hourlyRecords(3)
	dup[2]["localTimeIso"] = dup[1]["localTimeIso"]
	if _, err := New(dup, NewParser(WithLocation(time.UTC))); !errors.Is(err, ErrUnordered) {
		t.Fatalf("expected ErrUnordered for duplicate timestamp, got %v", err)
	}
}

func copenhagen(t *testing.T) *time.Location {
	t.Helper()
	cph, err := time.LoadLocation("Europe/Copenhagen")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return cph
}

func localRecords(labels ...string) []Record {
	records := make([]Record, len(labels))
	for i, l := range labels {
		records[i] = Record{
			"localTimeIso": l,
			"temp":         float64(i),
			"precipType":   "none",
			"prec50":       0.0,
		}
	}
	return records
}

func TestNewFallBackRepeatedHour(t *testing.T) {
	records := localRecords(
		"2024-10-27T01:00:00",
		"2024-10-27T02:00:00",
		"2024-10-27T02:00:00",
		"2024-10-27T03:00:00",
	)

	f, err := New(records, NewParser(WithLocation(copenhagen(t))))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []time.Time{
		time.Date(2024, 10, 26, 23, 0, 0, 0, time.UTC),
		time.Date(2024, 10, 27, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 10, 27, 1, 0, 0, 0, time.UTC),
		time.Date(2024, 10, 27, 2, 0, 0, 0, time.UTC),
	}
	got := f.Points()
	if len(got) != len(want) {
		t.Fatalf("expected %d points, got %d", len(want), len(got))
	}
	for i := range want {
		if !got[i].TimeStamp.Equal(want[i]) {
			t.Fatalf("point %d: expected %s, got %s", i, want[i], got[i].TimeStamp.UTC())
		}
	}
}

func TestNewSpringForwardGap(t *testing.T) {
	cph := copenhagen(t)

	f, err := New(localRecords(
		"2024-03-31T01:00:00",
		"2024-03-31T03:00:00",
		"2024-03-31T04:00:00",
	), NewParser(WithLocation(cph)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	start, end := f.TimeSpan()
	if want := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC); !start.Equal(want) {
		t.Fatalf("expected start %s, got %s", want, start.UTC())
	}
	if end.Sub(start) != 2*time.Hour {
		t.Fatalf("expected two hours across the gap, got %s", end.Sub(start))
	}

	// 02:00 is skipped on this day; read at either offset it collides with a neighbour.
	_, err = New(localRecords(
		"2024-03-31T01:00:00",
		"2024-03-31T02:00:00",
		"2024-03-31T03:00:00",
	), NewParser(WithLocation(cph)))
	if !errors.Is(err, ErrMalformedTimestamp) {
		t.Fatalf("expected ErrMalformedTimestamp, got %v", err)
	}
}

func TestPointsReturnsCopy(t *testing.T) {
	f := fourHours(t)
	pts := f.Points()
	pts[0].Temperature = 100

	if f.Points()[0].Temperature != 0 {
		t.Fatal("mutating Points() result changed the forecast")
	}
}

func TestFromPointsCopiesInput(t *testing.T) {
	pts := fourHours(t).Points()
	f, err := FromPoints(pts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pts[1].Temperature = -40

	if f.Points()[1].Temperature != 2 {
		t.Fatal("forecast aliases the caller's slice")
	}
}

func TestTimeSpan(t *testing.T) {
	f := fourHours(t)
	start, end := f.TimeSpan()
	pts := f.Points()

	if !start.Equal(pts[0].TimeStamp) || !end.Equal(pts[len(pts)-1].TimeStamp) {
		t.Fatalf("unexpected span %s..%s", start, end)
	}
	if !start.Equal(at(0, 0)) || !end.Equal(at(3, 0)) {
		t.Fatalf("expected 00:00..03:00, got %s..%s", start, end)
	}
}

func TestPredictionsInRange(t *testing.T) {
	f := fourHours(t)

	tests := []struct {
		name       string
		start, end time.Time
		wantHours  []int
	}{
		{"whole horizon", at(0, 0), at(3, 0), []int{0, 1, 2, 3}},
		{"prefix", at(0, 0), at(2, 0), []int{0, 1, 2}},
		{"inner bounds between points", at(0, 30), at(2, 30), []int{1, 2}},
		{"single instant", at(1, 0), at(1, 0), []int{1}},
		{"empty gap", at(1, 30), at(1, 30), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := collect(t, f, tt.start, tt.end)
			if len(got) != len(tt.wantHours) {
				t.Fatalf("expected %d points, got %d", len(tt.wantHours), len(got))
			}
			for i, h := range tt.wantHours {
				if !got[i].TimeStamp.Equal(at(h, 0)) {
					t.Fatalf("point %d: expected %s, got %s", i, at(h, 0), got[i].TimeStamp)
				}
			}
		})
	}
}

func TestPredictionsInRangeOutOfRange(t *testing.T) {
	f := fourHours(t)

	tests := []struct {
		name       string
		start, end time.Time
	}{
		{"start before horizon", at(-1, 0), at(2, 0)},
		{"end after horizon", at(1, 0), at(4, 0)},
		{"entirely after horizon", at(4, 0), at(5, 0)},
		{"inverted window", at(2, 0), at(1, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.PredictionsInRange(tt.start, tt.end); !errors.Is(err, ErrOutOfRange) {
				t.Fatalf("expected ErrOutOfRange from PredictionsInRange, got %v", err)
			}
			if _, err := f.ValuesInRange(tt.start, tt.end); !errors.Is(err, ErrOutOfRange) {
				t.Fatalf("expected ErrOutOfRange from ValuesInRange, got %v", err)
			}
		})
	}
}

func TestPredictionsInRangeIsRestartable(t *testing.T) {
	f := fourHours(t)
	seq, err := f.PredictionsInRange(at(1, 0), at(3, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var first, second []PredictionPoint
	for p := range seq {
		first = append(first, p)
	}
	for p := range seq {
		second = append(second, p)
	}
	if !slices.Equal(first, second) {
		t.Fatalf("iterations differ: %v vs %v", first, second)
	}

	again := collect(t, f, at(1, 0), at(3, 0))
	if !slices.Equal(first, again) {
		t.Fatalf("repeated calls differ: %v vs %v", first, again)
	}
}

func TestPredictionsInRangeStopsEarly(t *testing.T) {
	f := fourHours(t)
	seq, err := f.PredictionsInRange(at(0, 0), at(3, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	n := 0
	for range seq {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Fatalf("expected to stop after 2 points, got %d", n)
	}
}

func TestPredictionsWithinClips(t *testing.T) {
	f := fourHours(t)

	var got []time.Time
	for p := range f.PredictionsWithin(at(2, 0), at(10, 0)) {
		got = append(got, p.TimeStamp)
	}
	if len(got) != 2 || !got[0].Equal(at(2, 0)) || !got[1].Equal(at(3, 0)) {
		t.Fatalf("unexpected points %v", got)
	}

	n := 0
	for range f.PredictionsWithin(at(5, 0), at(6, 0)) {
		n++
	}
	if n != 0 {
		t.Fatalf("expected no points beyond horizon, got %d", n)
	}
}

func TestValuesInRange(t *testing.T) {
	f := fourHours(t)

	s, err := f.ValuesInRange(at(0, 0), at(2, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.AverageTemperature != 2.0 {
		t.Fatalf("expected average temperature 2.0, got %v", s.AverageTemperature)
	}
	if s.TotalPrecipitation != 2 {
		t.Fatalf("expected total precipitation 2, got %v", s.TotalPrecipitation)
	}
	if !slices.Equal(s.PrecipitationTypes, []PrecipitationType{"none", "rain"}) {
		t.Fatalf("unexpected precipitation types %v", s.PrecipitationTypes)
	}
	if !s.StartTime.Equal(at(0, 0)) || !s.EndTime.Equal(at(2, 0)) {
		t.Fatalf("unexpected bounds %s..%s", s.StartTime, s.EndTime)
	}
	if s.Points != 3 {
		t.Fatalf("expected 3 points, got %d", s.Points)
	}

	rate, err := s.PrecipitationPerHour()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rate != 1.0 {
		t.Fatalf("expected 1.0 per hour, got %v", rate)
	}
}

func TestValuesInRangeReportsActualBounds(t *testing.T) {
	f := fourHours(t)

	s, err := f.ValuesInRange(at(0, 30), at(2, 45))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.StartTime.Equal(at(1, 0)) || !s.EndTime.Equal(at(2, 0)) {
		t.Fatalf("expected bounds 01:00..02:00, got %s..%s", s.StartTime, s.EndTime)
	}
	if s.Duration() != time.Hour {
		t.Fatalf("expected 1h duration, got %s", s.Duration())
	}
}

func TestValuesInRangeEmpty(t *testing.T) {
	f := fourHours(t)
	if _, err := f.ValuesInRange(at(1, 30), at(1, 30)); !errors.Is(err, ErrEmptyRange) {
		t.Fatalf("expected ErrEmptyRange, got %v", err)
	}
}

func TestValuesInRangeSinglePoint(t *testing.T) {
	f := fourHours(t)

	s, err := f.ValuesInRange(at(1, 0), at(1, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Duration() != 0 {
		t.Fatalf("expected zero duration, got %s", s.Duration())
	}
	if s.AverageTemperature != 2 {
		t.Fatalf("expected temperature 2, got %v", s.AverageTemperature)
	}
	if _, err := s.PrecipitationPerHour(); !errors.Is(err, ErrZeroDuration) {
		t.Fatalf("expected ErrZeroDuration, got %v", err)
	}
}

func TestHasPrecipitationType(t *testing.T) {
	s, err := fourHours(t).ValuesInRange(at(1, 0), at(1, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.HasPrecipitationType("none") {
		t.Fatal("expected none to be observed")
	}
	if s.HasPrecipitationType("rain") {
		t.Fatal("did not expect rain in a dry hour")
	}
}
