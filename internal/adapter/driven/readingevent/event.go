// Package readingevent defines the wire form of a stored reading as it is
// announced to message sinks.
package readingevent

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ericfisherdev/sensorhub/internal/domain/model"
)

// Event mirrors the reading object served by the HTTP API.
type Event struct {
	ID          int64     `json:"id"`
	DS18B20Temp float64   `json:"ds18b20_temp"`
	DHT11Temp   float64   `json:"dht11_temp"`
	Humidity    float64   `json:"humidity"`
	IR          int64     `json:"ir"`
	BPM         float64   `json:"bpm"`
	BPMAvg      float64   `json:"bpm_avg"`
	Timestamp   time.Time `json:"timestamp"`
}

// FromReading converts a stored reading to its event form.
func FromReading(r model.SensorReading) Event {
	return Event{
		ID:          r.ID,
		DS18B20Temp: r.DS18B20Temp,
		DHT11Temp:   r.DHT11Temp,
		Humidity:    r.Humidity,
		IR:          r.IR,
		BPM:         r.BPM,
		BPMAvg:      r.BPMAvg,
		Timestamp:   r.Timestamp.UTC(),
	}
}

// Encode marshals a reading into its JSON event payload.
func Encode(r model.SensorReading) ([]byte, error) {
	data, err := json.Marshal(FromReading(r))
	if err != nil {
		return nil, fmt.Errorf("marshal reading event %d: %w", r.ID, err)
	}
	return data, nil
}
