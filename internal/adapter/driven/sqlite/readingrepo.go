package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ericfisherdev/sensorhub/internal/domain/model"
	"github.com/ericfisherdev/sensorhub/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ReadingStore = (*ReadingRepo)(nil)

// timestampLayout is fixed width so stored timestamps sort lexically.
const timestampLayout = "2006-01-02T15:04:05.000000Z"

const readingColumns = `id, ds18b20_temp, dht11_temp, humidity, ir, bpm, bpm_avg, timestamp`

// ReadingRepo is the SQLite implementation of the ReadingStore port interface.
type ReadingRepo struct {
	db *DB
}

// NewReadingRepo creates a new ReadingRepo backed by the given DB.
func NewReadingRepo(db *DB) *ReadingRepo {
	return &ReadingRepo{db: db}
}

// Insert appends one reading stamped with ts.
func (r *ReadingRepo) Insert(ctx context.Context, m model.Measurements, ts time.Time) (model.SensorReading, error) {
	const query = `
		INSERT INTO sensor_data (ds18b20_temp, dht11_temp, humidity, ir, bpm, bpm_avg, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	ts = ts.UTC()
	result, err := r.db.Writer.ExecContext(ctx, query,
		m.DS18B20Temp, m.DHT11Temp, m.Humidity, m.IR, m.BPM, m.BPMAvg, formatTime(ts),
	)
	if err != nil {
		return model.SensorReading{}, fmt.Errorf("insert reading: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return model.SensorReading{}, fmt.Errorf("read inserted reading id: %w", err)
	}

	return model.SensorReading{ID: id, Measurements: m, Timestamp: ts}, nil
}

// Latest returns the most recent reading, or driven.ErrNotFound when the log
// is empty.
func (r *ReadingRepo) Latest(ctx context.Context) (model.SensorReading, error) {
	const query = `SELECT ` + readingColumns + ` FROM sensor_data ORDER BY timestamp DESC, id DESC LIMIT 1`

	reading, err := scanReading(r.db.Reader.QueryRowContext(ctx, query))
	if errors.Is(err, sql.ErrNoRows) {
		return model.SensorReading{}, driven.ErrNotFound
	}
	if err != nil {
		return model.SensorReading{}, fmt.Errorf("get latest reading: %w", err)
	}

	return *reading, nil
}

// History returns one page of readings matching filter together with the
// count of all matching readings. Both statements run in one transaction so
// the page and the total come from the same snapshot.
func (r *ReadingRepo) History(ctx context.Context, filter model.HistoryFilter, limit int, offset int64) ([]model.SensorReading, int64, error) {
	where, args := historyWhere(filter)

	tx, err := r.db.Reader.BeginTx(ctx, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("begin history transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Read-only; rollback just releases the snapshot.

	var total int64
	countQuery := `SELECT COUNT(*) FROM sensor_data` + where
	if err := tx.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count readings: %w", err)
	}

	pageQuery := `SELECT ` + readingColumns + ` FROM sensor_data` + where +
		` ORDER BY timestamp DESC, id DESC LIMIT ? OFFSET ?`
	rows, err := tx.QueryContext(ctx, pageQuery, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("query readings: %w", err)
	}
	defer rows.Close()

	readings := make([]model.SensorReading, 0, limit)
	for rows.Next() {
		reading, err := scanReading(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan reading: %w", err)
		}
		readings = append(readings, *reading)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate readings: %w", err)
	}

	return readings, total, nil
}

// Count returns the number of stored readings.
func (r *ReadingRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.Reader.QueryRowContext(ctx, `SELECT COUNT(*) FROM sensor_data`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count readings: %w", err)
	}
	return n, nil
}

// historyWhere builds the WHERE clause shared by the count and page queries.
func historyWhere(filter model.HistoryFilter) (string, []any) {
	var conds []string
	var args []any

	if filter.Start != nil {
		conds = append(conds, "timestamp >= ?")
		args = append(args, formatTime(*filter.Start))
	}
	if filter.End != nil {
		conds = append(conds, "timestamp <= ?")
		args = append(args, formatTime(*filter.End))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReading(s scanner) (*model.SensorReading, error) {
	var reading model.SensorReading
	var ts string

	err := s.Scan(
		&reading.ID, &reading.DS18B20Temp, &reading.DHT11Temp, &reading.Humidity,
		&reading.IR, &reading.BPM, &reading.BPMAvg, &ts,
	)
	if err != nil {
		return nil, err
	}

	reading.Timestamp, err = parseTime(ts)
	if err != nil {
		return nil, fmt.Errorf("parse timestamp: %w", err)
	}

	return &reading, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// parseTime tries the storage layout first, then other SQLite datetime formats.
func parseTime(s string) (time.Time, error) {
	formats := []string{
		timestampLayout,
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05.000",
		time.RFC3339Nano,
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}
