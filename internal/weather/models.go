package weather

import (
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/dmi-forecast/internal/forecast"
)

// Snapshot is one successfully fetched forecast together with where and when
// it came from.
type Snapshot struct {
	ID        uuid.UUID          `json:"id"`
	Provider  string             `json:"provider"`
	Area      int                `json:"area"`
	FetchedAt time.Time          `json:"fetchedAt"` // always UTC
	Forecast  *forecast.Forecast `json:"-"`
}

// Age returns how long ago the snapshot was fetched.
func (s Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.FetchedAt)
}
