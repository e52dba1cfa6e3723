package application

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ericfisherdev/sensorhub/internal/domain/model"
	"github.com/ericfisherdev/sensorhub/internal/domain/port/driven"
)

// Paging limits and defaults for history queries.
const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100

	maxPage = math.MaxInt64 / MaxPageSize

	// Stored timestamps use a four-digit year.
	minBoundYear = 0
	maxBoundYear = 9999
)

// HistoryQuery holds the caller-supplied history parameters.
type HistoryQuery struct {
	Page      int
	PageSize  int
	StartDate *time.Time
	EndDate   *time.Time
}

// QueryService serves the latest reading and paginated reading history.
type QueryService struct {
	store driven.ReadingStore
}

// NewQueryService creates a QueryService backed by the given store.
func NewQueryService(store driven.ReadingStore) *QueryService {
	return &QueryService{store: store}
}

// GetLatest returns the most recent reading, or ErrNoReadings when the log is
// empty.
func (s *QueryService) GetLatest(ctx context.Context) (model.SensorReading, error) {
	reading, err := s.store.Latest(ctx)
	if errors.Is(err, driven.ErrNotFound) {
		return model.SensorReading{}, ErrNoReadings
	}
	if err != nil {
		return model.SensorReading{}, fmt.Errorf("get latest reading: %w", err)
	}
	return reading, nil
}

// GetHistory returns one page of readings, most recent first. A page past the
// end yields no readings but still reports the filtered total.
func (s *QueryService) GetHistory(ctx context.Context, q HistoryQuery) (model.HistoryPage, error) {
	if err := q.validate(); err != nil {
		return model.HistoryPage{}, err
	}

	filter := model.HistoryFilter{
		Start: ceilMicro(q.StartDate),
		End:   floorMicro(q.EndDate),
	}
	offset := int64(q.Page-1) * int64(q.PageSize)

	readings, total, err := s.store.History(ctx, filter, q.PageSize, offset)
	if err != nil {
		return model.HistoryPage{}, fmt.Errorf("get reading history: %w", err)
	}
	if readings == nil {
		readings = []model.SensorReading{}
	}

	return model.HistoryPage{
		Readings: readings,
		Total:    total,
		Page:     q.Page,
		PageSize: q.PageSize,
	}, nil
}

func (q HistoryQuery) validate() error {
	ve := &ValidationError{}
	switch {
	case q.Page < 1:
		ve.add("page", "must be greater than or equal to 1")
	case int64(q.Page) > maxPage:
		ve.add("page", "is too large")
	}
	if q.PageSize < 1 || q.PageSize > MaxPageSize {
		ve.add("page_size", fmt.Sprintf("must be between 1 and %d", MaxPageSize))
	}
	startOK := checkBoundYear(ve, "start_date", ceilMicro(q.StartDate))
	endOK := checkBoundYear(ve, "end_date", q.EndDate)
	if startOK && endOK && q.StartDate != nil && q.EndDate != nil && q.StartDate.After(*q.EndDate) {
		ve.add("start_date", "must not be after end_date")
	}
	return ve.errOrNil()
}

// checkBoundYear records a field error when t falls outside the years the
// store can represent, in UTC. A nil bound is valid.
func checkBoundYear(ve *ValidationError, field string, t *time.Time) bool {
	if t == nil {
		return true
	}
	if y := t.UTC().Year(); y < minBoundYear || y > maxBoundYear {
		ve.add(field, fmt.Sprintf("year must be between %04d and %d in UTC", minBoundYear, maxBoundYear))
		return false
	}
	return true
}

// Stored timestamps carry microsecond precision, so bounds are snapped
// inwards to the nearest microsecond before reaching the store.
func ceilMicro(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := t.UTC().Truncate(time.Microsecond)
	if c.Before(t.UTC()) {
		c = c.Add(time.Microsecond)
	}
	return &c
}

func floorMicro(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	f := t.UTC().Truncate(time.Microsecond)
	return &f
}
