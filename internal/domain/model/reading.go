package model

import "time"

// Vitals thresholds used to flag a reading on the dashboard.
const (
	MinNormalBPM      = 60.0
	MaxNormalBPM      = 100.0
	MinNormalBodyTemp = 36.2
	MaxNormalBodyTemp = 37.5
)

// Measurements are the six values a device reports in one push.
type Measurements struct {
	DS18B20Temp float64 // body sensor, degrees Celsius
	DHT11Temp   float64 // ambient, degrees Celsius
	Humidity    float64 // relative, percent
	IR          int64   // raw infrared value from the pulse sensor
	BPM         float64
	BPMAvg      float64
}

// SensorReading is one immutable entry of the reading log. ID and Timestamp
// are assigned by the server when the reading is stored.
type SensorReading struct {
	ID int64
	Measurements
	Timestamp time.Time
}

// AbnormalBPM reports whether the averaged pulse rate lies outside the normal
// resting range.
func (r SensorReading) AbnormalBPM() bool {
	return r.BPMAvg < MinNormalBPM || r.BPMAvg > MaxNormalBPM
}

// AbnormalBodyTemp reports whether the body sensor temperature lies outside
// the normal range.
func (r SensorReading) AbnormalBodyTemp() bool {
	return r.DS18B20Temp < MinNormalBodyTemp || r.DS18B20Temp > MaxNormalBodyTemp
}
