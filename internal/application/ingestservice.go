package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ericfisherdev/sensorhub/internal/domain/model"
	"github.com/ericfisherdev/sensorhub/internal/domain/port/driven"
)

// publishTimeout bounds how long a single sink may hold up an ingestion call.
const publishTimeout = 2 * time.Second

// IngestService appends readings to the log and announces them to the
// configured publishers.
type IngestService struct {
	store      driven.ReadingStore
	publishers []driven.ReadingPublisher
	logger     *slog.Logger
	now        func() time.Time
}

// NewIngestService creates an IngestService. publishers may be empty.
func NewIngestService(store driven.ReadingStore, logger *slog.Logger, publishers ...driven.ReadingPublisher) *IngestService {
	return &IngestService{
		store:      store,
		publishers: publishers,
		logger:     logger,
		now:        time.Now,
	}
}

// StoreReading stamps the measurements with the current server time, appends
// them to the log and returns the persisted reading. Values are stored as
// given; no range checks are applied.
//
// Publishing happens after the insert has committed. A failing publisher is
// logged and does not fail the call.
func (s *IngestService) StoreReading(ctx context.Context, m model.Measurements) (model.SensorReading, error) {
	// Microsecond precision is the finest both storage backends keep.
	ts := s.now().UTC().Truncate(time.Microsecond)

	reading, err := s.store.Insert(ctx, m, ts)
	if err != nil {
		return model.SensorReading{}, fmt.Errorf("store reading: %w", err)
	}

	s.publish(ctx, reading)

	return reading, nil
}

func (s *IngestService) publish(ctx context.Context, reading model.SensorReading) {
	for _, p := range s.publishers {
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		err := p.Publish(pubCtx, reading)
		cancel()
		if err != nil {
			s.logger.Warn("reading publish failed",
				"sink", p.Name(),
				"reading_id", reading.ID,
				"error", err,
			)
		}
	}
}
