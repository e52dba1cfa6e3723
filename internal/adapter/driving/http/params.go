package httphandler

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ericfisherdev/sensorhub/internal/application"
)

// Accepted layouts for start_date and end_date, tried in order. Layouts
// without a zone are read as UTC.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// parseHistoryQuery reads page, page_size, start_date and end_date. Range
// checks are left to the query service; only syntax is checked here.
func parseHistoryQuery(v url.Values) (application.HistoryQuery, *application.ValidationError) {
	q := application.HistoryQuery{
		Page:     application.DefaultPage,
		PageSize: application.DefaultPageSize,
	}
	ve := &application.ValidationError{}

	if raw := v.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			ve.Fields = append(ve.Fields, application.FieldError{Field: "page", Message: "must be an integer"})
		}
		q.Page = n
	}
	if raw := v.Get("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			ve.Fields = append(ve.Fields, application.FieldError{Field: "page_size", Message: "must be an integer"})
		}
		q.PageSize = n
	}

	for _, p := range []struct {
		name string
		dst  **time.Time
	}{
		{"start_date", &q.StartDate},
		{"end_date", &q.EndDate},
	} {
		raw := strings.TrimSpace(v.Get(p.name))
		if raw == "" {
			continue
		}
		t, ok := parseDate(raw)
		if !ok {
			ve.Fields = append(ve.Fields, application.FieldError{Field: p.name, Message: "must be a valid date-time"})
			continue
		}
		*p.dst = &t
	}

	if len(ve.Fields) > 0 {
		return application.HistoryQuery{}, ve
	}
	return q, nil
}

func parseDate(raw string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
