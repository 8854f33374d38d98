package service

import (
	"strings"

	"contact-triage-go/internal/repository"
)

var (
	// ErrNotFound is returned when the requested record does not exist
	ErrNotFound = repository.ErrNotFound
	// ErrStoreUnavailable is wrapped by every persistence failure
	ErrStoreUnavailable = repository.ErrStoreUnavailable
)

// FieldError describes one invalid input field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports every invalid field of a request
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}
