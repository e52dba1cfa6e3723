package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/sensorhub/internal/application"
	"github.com/ericfisherdev/sensorhub/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeValidation writes a 422 carrying one detail entry per rejected field.
func writeValidation(w http.ResponseWriter, ve *application.ValidationError) {
	details := make([]fieldErrorResponse, 0, len(ve.Fields))
	for _, f := range ve.Fields {
		details = append(details, fieldErrorResponse{Field: f.Field, Message: f.Message})
	}
	writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
		Error:   "validation failed",
		Details: details,
	})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error   string               `json:"error"`
	Details []fieldErrorResponse `json:"details,omitempty"`
}

type fieldErrorResponse struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// MessageResponse is the body of the liveness greeting at the root path.
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// ConfigurationRequest is the JSON body for POST /sensor/configure. Pointer
// fields distinguish a missing field from an empty one.
type ConfigurationRequest struct {
	SSID     *string `json:"ssid"`
	Password *string `json:"password"`
}

// ConfigurationResponse is the JSON representation of the device configuration.
type ConfigurationResponse struct {
	SSID     string `json:"ssid"`
	Password string `json:"password"`
}

// ReadingRequest is the JSON body for POST /sensor/data.
type ReadingRequest struct {
	DS18B20Temp *float64 `json:"ds18b20_temp"`
	DHT11Temp   *float64 `json:"dht11_temp"`
	Humidity    *float64 `json:"humidity"`
	IR          *int64   `json:"ir"`
	BPM         *float64 `json:"bpm"`
	BPMAvg      *float64 `json:"bpm_avg"`
}

// ReadingResponse is the JSON representation of a stored sensor reading.
type ReadingResponse struct {
	ID          int64   `json:"id"`
	DS18B20Temp float64 `json:"ds18b20_temp"`
	DHT11Temp   float64 `json:"dht11_temp"`
	Humidity    float64 `json:"humidity"`
	IR          int64   `json:"ir"`
	BPM         float64 `json:"bpm"`
	BPMAvg      float64 `json:"bpm_avg"`
	Timestamp   string  `json:"timestamp"`
}

// HistoryResponse is one page of reading history.
type HistoryResponse struct {
	Data       []ReadingResponse `json:"data"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int64             `json:"total_pages"`
}

// measurements checks that every field is present and returns the domain
// value. Missing fields are reported together.
func (req ReadingRequest) measurements() (model.Measurements, *application.ValidationError) {
	ve := &application.ValidationError{}
	required := func(field string, present bool) {
		if !present {
			ve.Fields = append(ve.Fields, application.FieldError{Field: field, Message: "field required"})
		}
	}
	required("ds18b20_temp", req.DS18B20Temp != nil)
	required("dht11_temp", req.DHT11Temp != nil)
	required("humidity", req.Humidity != nil)
	required("ir", req.IR != nil)
	required("bpm", req.BPM != nil)
	required("bpm_avg", req.BPMAvg != nil)
	if len(ve.Fields) > 0 {
		return model.Measurements{}, ve
	}

	return model.Measurements{
		DS18B20Temp: *req.DS18B20Temp,
		DHT11Temp:   *req.DHT11Temp,
		Humidity:    *req.Humidity,
		IR:          *req.IR,
		BPM:         *req.BPM,
		BPMAvg:      *req.BPMAvg,
	}, nil
}

func toConfigurationResponse(cfg model.Configuration) ConfigurationResponse {
	return ConfigurationResponse{SSID: cfg.SSID, Password: cfg.Password}
}

// toReadingResponse converts a domain SensorReading to its JSON representation.
// Timestamps are rendered in UTC with sub-second precision.
func toReadingResponse(r model.SensorReading) ReadingResponse {
	return ReadingResponse{
		ID:          r.ID,
		DS18B20Temp: r.DS18B20Temp,
		DHT11Temp:   r.DHT11Temp,
		Humidity:    r.Humidity,
		IR:          r.IR,
		BPM:         r.BPM,
		BPMAvg:      r.BPMAvg,
		Timestamp:   r.Timestamp.UTC().Format(time.RFC3339Nano),
	}
}

func toHistoryResponse(p model.HistoryPage) HistoryResponse {
	data := make([]ReadingResponse, 0, len(p.Readings))
	for _, r := range p.Readings {
		data = append(data, toReadingResponse(r))
	}
	return HistoryResponse{
		Data:       data,
		Total:      p.Total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: p.TotalPages(),
	}
}
