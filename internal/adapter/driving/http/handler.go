// Package httphandler implements the JSON REST driving adapter.
package httphandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ericfisherdev/sensorhub/internal/application"
	"github.com/ericfisherdev/sensorhub/internal/observability"
)

// maxBodyBytes caps request bodies; device payloads are a few hundred bytes.
const maxBodyBytes = 64 << 10

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	configSvc *application.ConfigService
	ingestSvc *application.IngestService
	querySvc  *application.QueryService
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// NewHandler creates a Handler with all required dependencies. metrics may be nil.
func NewHandler(
	configSvc *application.ConfigService,
	ingestSvc *application.IngestService,
	querySvc *application.QueryService,
	metrics *observability.Metrics,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		configSvc: configSvc,
		ingestSvc: ingestSvc,
		querySvc:  querySvc,
		metrics:   metrics,
		logger:    logger,
	}
}

// RegisterAPIRoutes registers all JSON API routes on the provided mux.
func RegisterAPIRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("GET /{$}", h.Root)
	mux.HandleFunc("GET /sensor/configure", h.GetConfig)
	mux.HandleFunc("POST /sensor/configure", h.SetConfig)
	mux.HandleFunc("GET /sensor/data", h.GetLatest)
	mux.HandleFunc("POST /sensor/data", h.StoreReading)
	mux.HandleFunc("GET /sensor/history", h.GetHistory)
	mux.HandleFunc("GET /health", h.Health)

	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics.Handler())
	}
}

// Root confirms the API is reachable.
func (h *Handler) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Sensor API is live!"})
}

// GetConfig returns the stored device configuration.
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.configSvc.GetConfig(r.Context())
	if errors.Is(err, application.ErrConfigNotSet) {
		writeError(w, http.StatusNotFound, "Configuration not set")
		return
	}
	if err != nil {
		h.internalError(w, r, "failed to get configuration", err)
		return
	}

	writeJSON(w, http.StatusOK, toConfigurationResponse(cfg))
}

// SetConfig creates or replaces the device configuration.
func (h *Handler) SetConfig(w http.ResponseWriter, r *http.Request) {
	var req ConfigurationRequest
	if ve := decodeBody(w, r, &req); ve != nil {
		writeValidation(w, ve)
		return
	}

	ve := &application.ValidationError{}
	if req.SSID == nil {
		ve.Fields = append(ve.Fields, application.FieldError{Field: "ssid", Message: "field required"})
	}
	if req.Password == nil {
		ve.Fields = append(ve.Fields, application.FieldError{Field: "password", Message: "field required"})
	}
	if len(ve.Fields) > 0 {
		writeValidation(w, ve)
		return
	}

	cfg, err := h.configSvc.SetConfig(r.Context(), *req.SSID, *req.Password)
	if ve, ok := application.IsValidation(err); ok {
		writeValidation(w, ve)
		return
	}
	if err != nil {
		h.internalError(w, r, "failed to set configuration", err)
		return
	}

	writeJSON(w, http.StatusOK, toConfigurationResponse(cfg))
}

// StoreReading appends one reading pushed by a device.
func (h *Handler) StoreReading(w http.ResponseWriter, r *http.Request) {
	var req ReadingRequest
	if ve := decodeBody(w, r, &req); ve != nil {
		writeValidation(w, ve)
		return
	}

	m, ve := req.measurements()
	if ve != nil {
		writeValidation(w, ve)
		return
	}

	reading, err := h.ingestSvc.StoreReading(r.Context(), m)
	if err != nil {
		h.internalError(w, r, "failed to store reading", err)
		return
	}
	h.metrics.ReadingIngested("http")

	writeJSON(w, http.StatusOK, toReadingResponse(reading))
}

// GetLatest returns the most recent reading.
func (h *Handler) GetLatest(w http.ResponseWriter, r *http.Request) {
	reading, err := h.querySvc.GetLatest(r.Context())
	if errors.Is(err, application.ErrNoReadings) {
		writeError(w, http.StatusNotFound, "No data available")
		return
	}
	if err != nil {
		h.internalError(w, r, "failed to get latest reading", err)
		return
	}

	writeJSON(w, http.StatusOK, toReadingResponse(reading))
}

// GetHistory returns one page of readings, most recent first.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	q, ve := parseHistoryQuery(r.URL.Query())
	if ve != nil {
		writeValidation(w, ve)
		return
	}

	page, err := h.querySvc.GetHistory(r.Context(), q)
	if ve, ok := application.IsValidation(err); ok {
		writeValidation(w, ve)
		return
	}
	if err != nil {
		h.internalError(w, r, "failed to get reading history", err)
		return
	}

	writeJSON(w, http.StatusOK, toHistoryResponse(page))
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// internalError logs err with the request id and writes a generic 500. The
// underlying error text never reaches the client.
func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.ErrorContext(r.Context(), msg,
		"error", err,
		"request_id", RequestID(r.Context()),
	)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// decodeBody decodes a JSON object body into dst. Syntax and type problems are
// reported as validation failures so they surface as 422.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) *application.ValidationError {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))

	err := dec.Decode(dst)
	if err == nil {
		if dec.More() {
			return singleFieldError("body", "must contain a single JSON object")
		}
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &typeErr) && typeErr.Field != "":
		return singleFieldError(typeErr.Field, fmt.Sprintf("must be of type %s", jsonTypeName(typeErr)))
	case errors.As(err, &maxErr):
		return singleFieldError("body", "is too large")
	case errors.Is(err, io.EOF):
		return singleFieldError("body", "field required")
	default:
		return singleFieldError("body", "must be a valid JSON object")
	}
}

func jsonTypeName(e *json.UnmarshalTypeError) string {
	switch e.Type.Kind().String() {
	case "int64", "int":
		return "integer"
	case "float64":
		return "number"
	case "string":
		return "string"
	default:
		return e.Type.String()
	}
}

func singleFieldError(field, message string) *application.ValidationError {
	return &application.ValidationError{Fields: []application.FieldError{{Field: field, Message: message}}}
}
