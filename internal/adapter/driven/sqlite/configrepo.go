package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ericfisherdev/sensorhub/internal/domain/model"
	"github.com/ericfisherdev/sensorhub/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ConfigStore = (*ConfigRepo)(nil)

// configRowID is the key of the only row sensor_config may hold.
const configRowID = 1

// ConfigRepo is the SQLite implementation of the ConfigStore port interface.
type ConfigRepo struct {
	db *DB
}

// NewConfigRepo creates a new ConfigRepo backed by the given DB.
func NewConfigRepo(db *DB) *ConfigRepo {
	return &ConfigRepo{db: db}
}

// Get retrieves the device configuration. Returns driven.ErrNotFound if it
// has never been set.
func (r *ConfigRepo) Get(ctx context.Context) (model.Configuration, error) {
	const query = `SELECT ssid, password FROM sensor_config WHERE id = ?`

	var cfg model.Configuration
	err := r.db.Reader.QueryRowContext(ctx, query, configRowID).Scan(&cfg.SSID, &cfg.Password)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Configuration{}, driven.ErrNotFound
	}
	if err != nil {
		return model.Configuration{}, fmt.Errorf("get sensor config: %w", err)
	}

	return cfg, nil
}

// Upsert inserts the configuration row or overwrites it in place.
func (r *ConfigRepo) Upsert(ctx context.Context, cfg model.Configuration) (model.Configuration, error) {
	const query = `
		INSERT INTO sensor_config (id, ssid, password)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			ssid = excluded.ssid,
			password = excluded.password
		RETURNING ssid, password
	`

	var stored model.Configuration
	err := r.db.Writer.QueryRowContext(ctx, query, configRowID, cfg.SSID, cfg.Password).
		Scan(&stored.SSID, &stored.Password)
	if err != nil {
		return model.Configuration{}, fmt.Errorf("upsert sensor config: %w", err)
	}

	return stored, nil
}
