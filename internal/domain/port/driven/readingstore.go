package driven

import (
	"context"
	"time"

	"github.com/ericfisherdev/sensorhub/internal/domain/model"
)

// ReadingStore defines the driven port for the append-only reading log.
//
// Ordering for Latest and History is timestamp descending, then id
// descending so equal timestamps resolve to the most recently inserted row.
type ReadingStore interface {
	// Insert appends a reading stamped with ts and returns it with its
	// assigned ID.
	Insert(ctx context.Context, m model.Measurements, ts time.Time) (model.SensorReading, error)
	// Latest returns ErrNotFound when the log is empty.
	Latest(ctx context.Context) (model.SensorReading, error)
	// History returns at most limit readings starting at offset, plus the
	// count of all readings matching filter.
	History(ctx context.Context, filter model.HistoryFilter, limit int, offset int64) ([]model.SensorReading, int64, error)
	// Count returns the total number of stored readings.
	Count(ctx context.Context) (int64, error)
}
