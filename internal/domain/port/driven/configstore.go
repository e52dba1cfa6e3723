// Package driven defines secondary port interfaces for external adapters.
package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/sensorhub/internal/domain/model"
)

// ErrNotFound is returned by store lookups when no matching row exists.
var ErrNotFound = errors.New("not found")

// ConfigStore defines the driven port for the singleton device configuration.
// Get returns ErrNotFound if the configuration has never been set.
// Upsert inserts the row on first use and overwrites it afterwards, in a
// single atomic statement, returning the stored values.
type ConfigStore interface {
	Get(ctx context.Context) (model.Configuration, error)
	Upsert(ctx context.Context, cfg model.Configuration) (model.Configuration, error)
}
