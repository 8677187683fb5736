package models

import "fmt"

// ValidationError names the offending request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

func fieldError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
