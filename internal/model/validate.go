package model

import (
	"encoding/json"
	"strings"
)

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string
	Message string
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// ValidateEvent checks an inbound event candidate for constraint violations
// before it is allowed near the store. It returns a *ValidationError if any
// rules fail, or nil if the event is acceptable.
func ValidateEvent(e *Event) error {
	var ve ValidationError

	if e.Timestamp <= 0 {
		ve.Errors = append(ve.Errors, FieldError{Field: "timestamp", Message: "must be a positive epoch-milliseconds integer"})
	}
	if strings.TrimSpace(e.SessionID) == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "session_id", Message: "is required"})
	}
	if strings.TrimSpace(e.EventType) == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "event_type", Message: "is required"})
	}

	// Payload is opaque but must at least be well-formed JSON.
	if len(e.Payload) > 0 && !json.Valid(e.Payload) {
		ve.Errors = append(ve.Errors, FieldError{Field: "payload", Message: "must be well-formed JSON"})
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}
