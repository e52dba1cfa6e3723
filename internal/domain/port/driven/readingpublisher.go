package driven

import (
	"context"

	"github.com/ericfisherdev/sensorhub/internal/domain/model"
)

// ReadingPublisher announces a persisted reading to an external sink.
// Name identifies the sink in logs and metrics.
type ReadingPublisher interface {
	Name() string
	Publish(ctx context.Context, reading model.SensorReading) error
}
