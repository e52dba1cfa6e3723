package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/ericfisherdev/sensorhub/internal/domain/model"
	"github.com/ericfisherdev/sensorhub/internal/domain/port/driven"
)

// ConfigService reads and replaces the singleton device configuration.
type ConfigService struct {
	store driven.ConfigStore
}

// NewConfigService creates a ConfigService backed by the given store.
func NewConfigService(store driven.ConfigStore) *ConfigService {
	return &ConfigService{store: store}
}

// GetConfig returns the stored configuration, or ErrConfigNotSet when
// SetConfig has never been called.
func (s *ConfigService) GetConfig(ctx context.Context) (model.Configuration, error) {
	cfg, err := s.store.Get(ctx)
	if errors.Is(err, driven.ErrNotFound) {
		return model.Configuration{}, ErrConfigNotSet
	}
	if err != nil {
		return model.Configuration{}, fmt.Errorf("get configuration: %w", err)
	}
	return cfg, nil
}

// SetConfig overwrites the configuration, creating it on first use. Both
// values must be non-empty.
func (s *ConfigService) SetConfig(ctx context.Context, ssid, password string) (model.Configuration, error) {
	ve := &ValidationError{}
	if ssid == "" {
		ve.add("ssid", "must not be empty")
	}
	if password == "" {
		ve.add("password", "must not be empty")
	}
	if err := ve.errOrNil(); err != nil {
		return model.Configuration{}, err
	}

	cfg, err := s.store.Upsert(ctx, model.Configuration{SSID: ssid, Password: password})
	if err != nil {
		return model.Configuration{}, fmt.Errorf("set configuration: %w", err)
	}
	return cfg, nil
}
