package store

import (
	"errors"
	"sync"
	"time"

	"github.com/i474232898/dmi-forecast/internal/weather"
)

var (
	// ErrNotFound is returned when no forecast has been fetched yet.
	ErrNotFound = errors.New("no forecast available")
	// ErrStale is returned when the latest forecast is older than the configured max age.
	ErrStale = errors.New("forecast is stale")
)

// MemoryStore is a concurrency-safe holder for the most recent snapshot.
type MemoryStore struct {
	mu sync.RWMutex

	latest *weather.Snapshot

	// maxAge bounds how old a snapshot may be before reads fail (0 = unlimited).
	maxAge time.Duration
}

// NewMemoryStore creates a new MemoryStore.
// If maxAge is <= 0, snapshots never go stale.
func NewMemoryStore(maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		maxAge: maxAge,
	}
}

// Save replaces the current snapshot. Snapshots fetched earlier than the
// current one are ignored.
func (s *MemoryStore) Save(snapshot weather.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.latest != nil && snapshot.FetchedAt.Before(s.latest.FetchedAt) {
		return
	}
	s.latest = &snapshot
}

// Latest returns the current snapshot as of now.
func (s *MemoryStore) Latest(now time.Time) (weather.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.latest == nil {
		return weather.Snapshot{}, ErrNotFound
	}
	if s.maxAge > 0 && s.latest.Age(now) > s.maxAge {
		return *s.latest, ErrStale
	}
	return *s.latest, nil
}
