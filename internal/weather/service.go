package weather

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/i474232898/dmi-forecast/internal/forecast"
)

// Service fetches forecasts from the provider, keeps the latest good one in
// the store and answers range queries against it.
type Service struct {
	store    Store
	provider Provider
	log      *zap.SugaredLogger
	now      func() time.Time
}

// NewService creates a new Service. A nil logger disables logging.
func NewService(store Store, provider Provider, log *zap.SugaredLogger) *Service {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Service{
		store:    store,
		provider: provider,
		log:      log,
		now:      time.Now,
	}
}

// Refresh fetches a fresh forecast and stores it. On failure the previously
// stored snapshot is left untouched.
func (s *Service) Refresh(ctx context.Context) (Snapshot, error) {
	if s.provider == nil {
		return Snapshot{}, fmt.Errorf("no forecast provider configured")
	}

	started := s.now()
	f, err := s.provider.Fetch(ctx)
	if err != nil {
		s.log.Warnw("forecast fetch failed; keeping last good snapshot",
			"provider", s.provider.Name(),
			"area", s.provider.Area(),
			"error", err,
		)
		return Snapshot{}, err
	}

	snapshot := Snapshot{
		ID:        uuid.New(),
		Provider:  s.provider.Name(),
		Area:      s.provider.Area(),
		FetchedAt: s.now().UTC(),
		Forecast:  f,
	}
	s.store.Save(snapshot)

	start, end := f.TimeSpan()
	s.log.Infow("forecast refreshed",
		"id", snapshot.ID,
		"area", snapshot.Area,
		"points", f.Len(),
		"from", start,
		"to", end,
		"took", s.now().Sub(started),
	)
	return snapshot, nil
}

// Latest returns the current snapshot.
func (s *Service) Latest() (Snapshot, error) {
	return s.store.Latest(s.now())
}

// Slice aggregates the latest forecast over [from, to].
func (s *Service) Slice(from, to time.Time) (Snapshot, forecast.Slice, error) {
	snap, err := s.Latest()
	if err != nil {
		return Snapshot{}, forecast.Slice{}, err
	}
	slice, err := snap.Forecast.ValuesInRange(from, to)
	if err != nil {
		return snap, forecast.Slice{}, err
	}
	return snap, slice, nil
}

// Points returns the latest forecast's points in [from, to]. With clip set,
// a window reaching past the horizon is narrowed instead of rejected.
func (s *Service) Points(from, to time.Time, clip bool) (Snapshot, []forecast.PredictionPoint, error) {
	snap, err := s.Latest()
	if err != nil {
		return Snapshot{}, nil, err
	}

	points := []forecast.PredictionPoint{}
	if clip {
		for p := range snap.Forecast.PredictionsWithin(from, to) {
			points = append(points, p)
		}
		return snap, points, nil
	}

	seq, err := snap.Forecast.PredictionsInRange(from, to)
	if err != nil {
		return snap, nil, err
	}
	for p := range seq {
		points = append(points, p)
	}
	return snap, points, nil
}
