package forecast

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingField is returned when a raw record lacks a required key.
	ErrMissingField = errors.New("missing field")
	// ErrMalformedTimestamp is returned when a timestamp is not ISO-8601 local time.
	ErrMalformedTimestamp = errors.New("malformed timestamp")
	// ErrInvalidField is returned when a field is present but has an unusable value.
	ErrInvalidField = errors.New("invalid field")

	ErrEmptyForecast = errors.New("forecast has no points")
	ErrUnordered     = errors.New("forecast points are not in ascending time order")
	ErrOutOfRange    = errors.New("requested range is outside the forecast horizon")
	ErrEmptyRange    = errors.New("no forecast points in requested range")
	ErrZeroDuration  = errors.New("slice has zero duration")
)

// FieldError ties a parse failure to the record key that caused it.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%v: %q", e.Err, e.Field)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
