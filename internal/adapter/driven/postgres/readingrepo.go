package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ericfisherdev/sensorhub/internal/domain/model"
	"github.com/ericfisherdev/sensorhub/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ReadingStore = (*ReadingRepo)(nil)

const readingColumns = `id, ds18b20_temp, dht11_temp, humidity, ir, bpm, bpm_avg, timestamp`

// ReadingRepo is the PostgreSQL implementation of the ReadingStore port interface.
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
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	ts = ts.UTC()
	var id int64
	err := r.db.Pool.QueryRow(ctx, query,
		m.DS18B20Temp, m.DHT11Temp, m.Humidity, m.IR, m.BPM, m.BPMAvg, ts,
	).Scan(&id)
	if err != nil {
		return model.SensorReading{}, fmt.Errorf("insert reading: %w", err)
	}

	return model.SensorReading{ID: id, Measurements: m, Timestamp: ts}, nil
}

// Latest returns the most recent reading, or driven.ErrNotFound when the log
// is empty.
func (r *ReadingRepo) Latest(ctx context.Context) (model.SensorReading, error) {
	const query = `SELECT ` + readingColumns + ` FROM sensor_data ORDER BY timestamp DESC, id DESC LIMIT 1`

	reading, err := scanReading(r.db.Pool.QueryRow(ctx, query))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.SensorReading{}, driven.ErrNotFound
	}
	if err != nil {
		return model.SensorReading{}, fmt.Errorf("get latest reading: %w", err)
	}

	return reading, nil
}

// History returns one page of readings matching filter together with the
// count of all matching readings, read from a single repeatable-read snapshot.
func (r *ReadingRepo) History(ctx context.Context, filter model.HistoryFilter, limit int, offset int64) ([]model.SensorReading, int64, error) {
	where, args := historyWhere(filter)

	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("begin history transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // Read-only; rollback just releases the snapshot.

	var total int64
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM sensor_data`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count readings: %w", err)
	}

	n := len(args)
	pageQuery := `SELECT ` + readingColumns + ` FROM sensor_data` + where +
		` ORDER BY timestamp DESC, id DESC LIMIT $` + strconv.Itoa(n+1) + ` OFFSET $` + strconv.Itoa(n+2)

	rows, err := tx.Query(ctx, pageQuery, append(args, limit, offset)...)
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
		readings = append(readings, reading)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate readings: %w", err)
	}

	return readings, total, nil
}

// Count returns the number of stored readings.
func (r *ReadingRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM sensor_data`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count readings: %w", err)
	}
	return n, nil
}

// historyWhere builds the WHERE clause shared by the count and page queries
// with positional placeholders starting at $1.
func historyWhere(filter model.HistoryFilter) (string, []any) {
	var conds []string
	var args []any

	if filter.Start != nil {
		args = append(args, filter.Start.UTC())
		conds = append(conds, "timestamp >= $"+strconv.Itoa(len(args)))
	}
	if filter.End != nil {
		args = append(args, filter.End.UTC())
		conds = append(conds, "timestamp <= $"+strconv.Itoa(len(args)))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanReading(row pgx.Row) (model.SensorReading, error) {
	var reading model.SensorReading

	err := row.Scan(
		&reading.ID, &reading.DS18B20Temp, &reading.DHT11Temp, &reading.Humidity,
		&reading.IR, &reading.BPM, &reading.BPMAvg, &reading.Timestamp,
	)
	if err != nil {
		return model.SensorReading{}, err
	}

	reading.Timestamp = reading.Timestamp.UTC()
	return reading, nil
}
