package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/sensorhub/internal/domain/model"
	"github.com/ericfisherdev/sensorhub/internal/domain/port/driven"
)

func TestConfigRepo_GetUnset(t *testing.T) {
	db := setupTestDB(t)
	repo := NewConfigRepo(db)

	_, err := repo.Get(context.Background())
	assert.ErrorIs(t, err, driven.ErrNotFound)
}

func TestConfigRepo_UpsertInsertsThenGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewConfigRepo(db)
	ctx := context.Background()

	stored, err := repo.Upsert(ctx, model.Configuration{SSID: "home", Password: "hunter2"})
	require.NoError(t, err)
	assert.Equal(t, model.Configuration{SSID: "home", Password: "hunter2"}, stored)

	got, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, stored, got)
}

func TestConfigRepo_UpsertKeepsSingleRow(t *testing.T) {
	db := setupTestDB(t)
	repo := NewConfigRepo(db)
	ctx := context.Background()

	for _, cfg := range []model.Configuration{
		{SSID: "a", Password: "b"},
		{SSID: "c", Password: "d"},
		{SSID: "e", Password: "f"},
	} {
		_, err := repo.Upsert(ctx, cfg)
		require.NoError(t, err)
	}

	var rows int
	require.NoError(t, db.Reader.QueryRowContext(ctx, `SELECT COUNT(*) FROM sensor_config`).Scan(&rows))
	assert.Equal(t, 1, rows)

	got, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.Configuration{SSID: "e", Password: "f"}, got)
}

func TestConfigRepo_SecondRowRejected(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := db.Writer.ExecContext(ctx, `INSERT INTO sensor_config (id, ssid, password) VALUES (2, 'x', 'y')`)
	assert.Error(t, err, "only the fixed singleton key may be inserted")
}
