// Package domain defines core types, interfaces, and errors for the blending service.
package domain

import "fmt"

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ValidationError indicates invalid input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConflictError indicates a conflict (e.g., duplicate resource).
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// UnknownFieldError indicates a reference to a field key that is not present
// in the relevant dataset or blend namespace.
type UnknownFieldError struct {
	Message string
}

func (e *UnknownFieldError) Error() string { return e.Message }

// ForeignFieldError indicates a field owned by one dataset was supplied where
// a field owned by a different dataset was required.
type ForeignFieldError struct {
	Message string
}

func (e *ForeignFieldError) Error() string { return e.Message }

// InvalidMappingError indicates a join mapping pair or extra field references
// fields that do not belong to the participating datasets.
type InvalidMappingError struct {
	Message string
}

func (e *InvalidMappingError) Error() string { return e.Message }

// MetricRequiredError indicates a query requested output with no resolvable
// metric field across the participating datasets.
type MetricRequiredError struct {
	Message string
}

func (e *MetricRequiredError) Error() string { return e.Message }

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrConflict creates a ConflictError with a formatted message.
func ErrConflict(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// ErrUnknownField creates an UnknownFieldError with a formatted message.
func ErrUnknownField(format string, args ...interface{}) *UnknownFieldError {
	return &UnknownFieldError{Message: fmt.Sprintf(format, args...)}
}

// ErrForeignField creates a ForeignFieldError with a formatted message.
func ErrForeignField(format string, args ...interface{}) *ForeignFieldError {
	return &ForeignFieldError{Message: fmt.Sprintf(format, args...)}
}

// ErrInvalidMapping creates an InvalidMappingError with a formatted message.
func ErrInvalidMapping(format string, args ...interface{}) *InvalidMappingError {
	return &InvalidMappingError{Message: fmt.Sprintf(format, args...)}
}

// ErrMetricRequired creates a MetricRequiredError with a formatted message.
func ErrMetricRequired(format string, args ...interface{}) *MetricRequiredError {
	return &MetricRequiredError{Message: fmt.Sprintf(format, args...)}
}
