// Package mqtt implements the MQTT driving adapters: a client that subscribes
// to an external broker and an in-process broker. Both feed device payloads
// into the same Intake.
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ericfisherdev/sensorhub/internal/domain/model"
	"github.com/ericfisherdev/sensorhub/internal/observability"
)

// ReadingIngester stores one reading. *application.IngestService satisfies it.
type ReadingIngester interface {
	StoreReading(ctx context.Context, m model.Measurements) (model.SensorReading, error)
}

// ErrInvalidPayload is returned for payloads that are not a complete reading.
var ErrInvalidPayload = errors.New("invalid reading payload")

// payload mirrors the JSON body devices send to POST /sensor/data.
type payload struct {
	DS18B20Temp *float64 `json:"ds18b20_temp"`
	DHT11Temp   *float64 `json:"dht11_temp"`
	Humidity    *float64 `json:"humidity"`
	IR          *int64   `json:"ir"`
	BPM         *float64 `json:"bpm"`
	BPMAvg      *float64 `json:"bpm_avg"`
}

// decodePayload parses a device payload. Every field is required.
func decodePayload(data []byte) (model.Measurements, error) {
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return model.Measurements{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	var missing []string
	for _, f := range []struct {
		name    string
		present bool
	}{
		{"ds18b20_temp", p.DS18B20Temp != nil},
		{"dht11_temp", p.DHT11Temp != nil},
		{"humidity", p.Humidity != nil},
		{"ir", p.IR != nil},
		{"bpm", p.BPM != nil},
		{"bpm_avg", p.BPMAvg != nil},
	} {
		if !f.present {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return model.Measurements{}, fmt.Errorf("%w: missing %s", ErrInvalidPayload, strings.Join(missing, ", "))
	}

	return model.Measurements{
		DS18B20Temp: *p.DS18B20Temp,
		DHT11Temp:   *p.DHT11Temp,
		Humidity:    *p.Humidity,
		IR:          *p.IR,
		BPM:         *p.BPM,
		BPMAvg:      *p.BPMAvg,
	}, nil
}

// Intake turns MQTT messages on one topic into stored readings.
type Intake struct {
	topic   string
	ingest  ReadingIngester
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewIntake creates an Intake for topic. metrics may be nil.
func NewIntake(topic string, ingest ReadingIngester, metrics *observability.Metrics, logger *slog.Logger) *Intake {
	return &Intake{
		topic:   topic,
		ingest:  ingest,
		metrics: metrics,
		logger:  logger,
	}
}

// Topic returns the topic the intake consumes.
func (in *Intake) Topic() string {
	return in.topic
}

// Handle stores the payload when topic matches. Messages on other topics are
// ignored and return nil.
func (in *Intake) Handle(ctx context.Context, topic string, data []byte) error {
	if topic != in.topic {
		return nil
	}

	m, err := decodePayload(data)
	if err != nil {
		in.logger.Warn("dropping mqtt payload", "topic", topic, "error", err)
		return err
	}

	reading, err := in.ingest.StoreReading(ctx, m)
	if err != nil {
		in.logger.Error("failed to store mqtt reading", "topic", topic, "error", err)
		return err
	}
	in.metrics.ReadingIngested("mqtt")

	in.logger.Debug("mqtt reading stored", "id", reading.ID)
	return nil
}
