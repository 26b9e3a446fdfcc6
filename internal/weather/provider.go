package weather

import (
	"context"
	"time"

	"github.com/i474232898/dmi-forecast/internal/forecast"
)

// Provider abstracts the forecast source (the DMI NinJo feed in production).
type Provider interface {
	Name() string
	Area() int
	Fetch(ctx context.Context) (*forecast.Forecast, error)
}

// Store is the contract the in-memory snapshot store must satisfy.
type Store interface {
	Save(snapshot Snapshot)
	Latest(now time.Time) (Snapshot, error)
}
