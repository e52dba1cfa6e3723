// Package web implements the HTML dashboard driving adapter using templ components.
package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/ericfisherdev/sensorhub/internal/adapter/driving/web/templates"
	"github.com/ericfisherdev/sensorhub/internal/application"
	"github.com/ericfisherdev/sensorhub/internal/domain/model"
)

// DashboardPageSize is the number of history rows per dashboard page.
const DashboardPageSize = 15

// Handler is the web GUI driving adapter that serves HTML via templ components.
type Handler struct {
	configSvc *application.ConfigService
	querySvc  *application.QueryService
	logger    *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(configSvc *application.ConfigService, querySvc *application.QueryService, logger *slog.Logger) *Handler {
	return &Handler{
		configSvc: configSvc,
		querySvc:  querySvc,
		logger:    logger,
	}
}

// Dashboard renders the dashboard page. A missing configuration or an empty
// log render as placeholders rather than errors.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var latest *model.SensorReading
	reading, err := h.querySvc.GetLatest(ctx)
	switch {
	case err == nil:
		latest = &reading
	case !errors.Is(err, application.ErrNoReadings):
		h.fail(w, r, "failed to load latest reading", err)
		return
	}

	var cfg *model.Configuration
	c, err := h.configSvc.GetConfig(ctx)
	switch {
	case err == nil:
		cfg = &c
	case !errors.Is(err, application.ErrConfigNotSet):
		h.fail(w, r, "failed to load configuration", err)
		return
	}

	page, err := h.querySvc.GetHistory(ctx, application.HistoryQuery{
		Page:     parsePage(r.URL.Query().Get("page")),
		PageSize: DashboardPageSize,
	})
	if _, ok := application.IsValidation(err); ok {
		http.Error(w, "invalid page", http.StatusBadRequest)
		return
	}
	if err != nil {
		h.fail(w, r, "failed to load history", err)
		return
	}

	component := templates.Dashboard(toDashboardViewModel(latest, cfg, page))
	layout := templates.Layout("Sensor dashboard", component)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := layout.Render(ctx, w); err != nil {
		h.logger.Error("failed to render dashboard", "error", err)
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.ErrorContext(r.Context(), msg, "error", err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}
