package application_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/ericfisherdev/sensorhub/internal/domain/model"
	"github.com/ericfisherdev/sensorhub/internal/domain/port/driven"
)

// --- Mock implementations ---

type mockConfigStore struct {
	cfg     *model.Configuration
	err     error
	upserts int
}

func (m *mockConfigStore) Get(_ context.Context) (model.Configuration, error) {
	if m.err != nil {
		return model.Configuration{}, m.err
	}
	if m.cfg == nil {
		return model.Configuration{}, driven.ErrNotFound
	}
	return *m.cfg, nil
}

func (m *mockConfigStore) Upsert(_ context.Context, cfg model.Configuration) (model.Configuration, error) {
	if m.err != nil {
		return model.Configuration{}, m.err
	}
	m.upserts++
	m.cfg = &cfg
	return cfg, nil
}

// memReadingStore keeps readings in memory and applies the same ordering and
// inclusive bounds as the SQL adapters.
type memReadingStore struct {
	mu       sync.Mutex
	readings []model.SensorReading
	nextID   int64
	err      error

	lastFilter model.HistoryFilter
	lastLimit  int
	lastOffset int64
}

func (m *memReadingStore) Insert(_ context.Context, meas model.Measurements, ts time.Time) (model.SensorReading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return model.SensorReading{}, m.err
	}
	m.nextID++
	r := model.SensorReading{ID: m.nextID, Measurements: meas, Timestamp: ts}
	m.readings = append(m.readings, r)
	return r, nil
}

func (m *memReadingStore) sorted() []model.SensorReading {
	out := append([]model.SensorReading(nil), m.readings...)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (m *memReadingStore) Latest(_ context.Context) (model.SensorReading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return model.SensorReading{}, m.err
	}
	all := m.sorted()
	if len(all) == 0 {
		return model.SensorReading{}, driven.ErrNotFound
	}
	return all[0], nil
}

func (m *memReadingStore) History(_ context.Context, f model.HistoryFilter, limit int, offset int64) ([]model.SensorReading, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastFilter, m.lastLimit, m.lastOffset = f, limit, offset
	if m.err != nil {
		return nil, 0, m.err
	}

	var matched []model.SensorReading
	for _, r := range m.sorted() {
		if f.Start != nil && r.Timestamp.Before(*f.Start) {
			continue
		}
		if f.End != nil && r.Timestamp.After(*f.End) {
			continue
		}
		matched = append(matched, r)
	}

	total := int64(len(matched))
	if offset >= total {
		return nil, total, nil
	}
	end := offset + int64(limit)
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (m *memReadingStore) Count(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.readings)), m.err
}

type recordingPublisher struct {
	name      string
	err       error
	published []model.SensorReading
}

func (p *recordingPublisher) Name() string { return p.name }

func (p *recordingPublisher) Publish(ctx context.Context, r model.SensorReading) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("publish called without deadline")
	}
	p.published = append(p.published, r)
	return p.err
}
