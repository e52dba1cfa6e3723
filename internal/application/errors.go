package application

import (
	"errors"
	"strings"
)

// Sentinel errors returned when a lookup finds nothing to return.
var (
	ErrConfigNotSet = errors.New("configuration not set")
	ErrNoReadings   = errors.New("no data available")
)

// FieldError describes why a single input field was rejected.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError is returned when caller input is rejected before any
// storage access takes place.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// add records a field failure.
func (e *ValidationError) add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// errOrNil returns e when at least one field failed, nil otherwise.
func (e *ValidationError) errOrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// IsValidation reports whether err is (or wraps) a *ValidationError and
// returns it.
func IsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
