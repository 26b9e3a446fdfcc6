package forecast

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// PrecipitationType is the feed's precipitation label (e.g. "rain", "snow").
// The vocabulary is open; no value is rejected.
type PrecipitationType string

// PredictionPoint is one hourly prediction.
type PredictionPoint struct {
	TimeStamp         time.Time         `json:"timeStamp"`
	Temperature       float64           `json:"temperature"`
	PrecipitationType PrecipitationType `json:"precipitationType"`
	Precipitation     float64           `json:"precipitation"`
}

// Record is a raw per-point mapping as decoded from the feed.
type Record map[string]any

// Band is the record key holding the precipitation amount. The feed exposes
// several percentile estimates per point.
type Band string

const (
	Band50 Band = "prec50"
	Band90 Band = "prec90"
)

const (
	KeyTimestamp         = "localTimeIso"
	KeyTemperature       = "temp"
	KeyPrecipitationType = "precipType"
)

// timestamp layouts tried in order; fractional seconds are accepted by
// time.Parse even when the layout omits them.
var (
	offsetLayouts = []string{
		time.RFC3339,
		"2006-01-02T15:04:05Z0700",
		"2006-01-02T15:04Z07:00",
	}
	localLayouts = []string{
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
	}
)

// Parser converts raw records into prediction points.
type Parser struct {
	band     Band
	location *time.Location
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithBand selects which precipitation key the parser reads.
func WithBand(b Band) ParserOption {
	return func(p *Parser) {
		p.band = b
	}
}

// WithLocation sets the zone used for timestamps that carry no offset.
func WithLocation(loc *time.Location) ParserOption {
	return func(p *Parser) {
		if loc != nil {
			p.location = loc
		}
	}
}

// NewParser returns a Parser reading Band50 in time.Local unless configured otherwise.
func NewParser(opts ...ParserOption) Parser {
	p := Parser{
		band:     Band50,
		location: time.Local,
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// Band reports the precipitation key this parser reads.
func (p Parser) Band() Band {
	return p.band
}

// Parse builds a PredictionPoint from one raw record. A local time that
// occurs twice on a fall-back day resolves to its first occurrence.
func (p Parser) Parse(r Record) (PredictionPoint, error) {
	return p.parseAfter(r, time.Time{})
}

// parseAfter parses r, resolving an ambiguous local time to the earliest
// reading strictly after prev.
func (p Parser) parseAfter(r Record, prev time.Time) (PredictionPoint, error) {
	rawTS, err := stringField(r, KeyTimestamp)
	if err != nil {
		return PredictionPoint{}, err
	}
	ts, err := p.parseTimestamp(rawTS, prev)
	if err != nil {
		return PredictionPoint{}, &FieldError{Field: KeyTimestamp, Err: err}
	}

	temp, err := numberField(r, KeyTemperature)
	if err != nil {
		return PredictionPoint{}, err
	}

	label, err := stringField(r, KeyPrecipitationType)
	if err != nil {
		return PredictionPoint{}, err
	}

	key := string(p.bandOrDefault())
	amount, err := numberField(r, key)
	if err != nil {
		return PredictionPoint{}, err
	}
	if amount < 0 {
		return PredictionPoint{}, &FieldError{Field: key, Err: fmt.Errorf("%w: negative amount %v", ErrInvalidField, amount)}
	}

	return PredictionPoint{
		TimeStamp:         ts,
		Temperature:       temp,
		PrecipitationType: PrecipitationType(label),
		Precipitation:     amount,
	}, nil
}

func (p Parser) bandOrDefault() Band {
	if p.band == "" {
		return Band50
	}
	return p.band
}

func (p Parser) parseTimestamp(s string, prev time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range offsetLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	loc := p.location
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range localLayouts {
		// The wall clock is read as UTC first, then matched against the
		// offsets the zone uses around that date.
		wall, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		candidates := localCandidates(wall, loc)
		if len(candidates) == 0 {
			return time.Time{}, fmt.Errorf("%w: %q does not exist in %s", ErrMalformedTimestamp, s, loc)
		}
		for _, c := range candidates {
			if c.After(prev) {
				return c, nil
			}
		}
		return candidates[0], nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, s)
}

// localCandidates returns, in ascending order, every instant whose wall clock
// in loc equals wall. That is two instants on a fall-back hour and none
// inside a spring-forward gap.
func localCandidates(wall time.Time, loc *time.Location) []time.Time {
	var out []time.Time
	for _, ref := range []time.Time{wall.Add(-12 * time.Hour), wall.Add(12 * time.Hour)} {
		_, offset := ref.In(loc).Zone()
		c := wall.Add(-time.Duration(offset) * time.Second).In(loc)
		if !sameWallClock(c, wall) {
			continue
		}
		if len(out) > 0 && out[0].Equal(c) {
			continue
		}
		out = append(out, c)
	}
	if len(out) == 2 && out[1].Before(out[0]) {
		out[0], out[1] = out[1], out[0]
	}
	return out
}

func sameWallClock(t, wall time.Time) bool {
	y, mo, d := t.Date()
	h, mi, sec := t.Clock()
	return time.Date(y, mo, d, h, mi, sec, t.Nanosecond(), time.UTC).Equal(wall)
}
