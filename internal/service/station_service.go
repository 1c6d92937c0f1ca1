package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"voltcity/internal/models"
)

// toggleAttempts bounds the re-read loop on a lost toggle race.
const toggleAttempts = 2

// StationService exposes operator-facing registry operations. Toggles share
// the registry's compare-and-set primitive; a lost race here is harmless
// (last-writer-wins, no money attached), so the service just re-reads and
// tries once more.
type StationService struct {
	registry StationRegistry
	events   StationEventSink
	logger   *zap.Logger
}

// NewStationService builds service.
func NewStationService(registry StationRegistry, events StationEventSink, logger *zap.Logger) *StationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StationService{registry: registry, events: events, logger: logger}
}

// List returns all stations.
func (s *StationService) List(ctx context.Context) ([]models.Station, error) {
	return s.registry.List(ctx)
}

// Stats returns per-status counts for the operator dashboard.
func (s *StationService) Stats(ctx context.Context) (*models.StationStats, error) {
	return s.registry.Stats(ctx)
}

// Toggle flips a station between service and maintenance: Offline becomes
// Available, anything else becomes Offline.
func (s *StationService) Toggle(ctx context.Context, stationID int64) (models.StationStatus, error) {
	var lastErr error
	for attempt := 0; attempt < toggleAttempts; attempt++ {
		station, err := s.registry.GetByID(ctx, stationID)
		if err != nil {
			return "", err
		}

		next := models.StationOffline
		if station.Status == models.StationOffline {
			next = models.StationAvailable
		}

		if err := s.registry.Transition(ctx, stationID, station.Status, next); err != nil {
			if errors.Is(err, models.ErrStateMismatch) {
				lastErr = err
				continue
			}
			return "", err
		}

		if s.events != nil {
			s.events.StationChanged(stationID, station.Name, next)
		}
		s.logger.Info("station toggled",
			zap.Int64("station_id", stationID),
			zap.String("from", string(station.Status)),
			zap.String("to", string(next)),
		)
		return next, nil
	}
	return "", lastErr
}
