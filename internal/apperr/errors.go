package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents the category of a client-side error
type ErrorType string

const (
	// ErrTypeValidation indicates a local precondition failure; never reaches the network
	ErrTypeValidation ErrorType = "validation"

	// ErrTypeService indicates a non-success HTTP response from the analysis service
	ErrTypeService ErrorType = "service"

	// ErrTypeFilter indicates a non-success response to a filter round trip
	ErrTypeFilter ErrorType = "filter"

	// ErrTypeTransport indicates a network failure or a malformed response body
	ErrTypeTransport ErrorType = "transport"

	// ErrTypeEmptyResult indicates an operation that needs results ran on an empty set
	ErrTypeEmptyResult ErrorType = "empty_result"

	// ErrTypeNoSelection indicates a highlight without a target file
	ErrTypeNoSelection ErrorType = "no_selection"

	// ErrTypeBusy indicates a workflow dispatched while already loading in exclusive mode
	ErrTypeBusy ErrorType = "busy"
)

// ServiceError is returned for any non-success HTTP response.
type ServiceError struct {
	Type       ErrorType `json:"type"`
	Operation  string    `json:"operation"`
	StatusCode int       `json:"status_code,omitempty"`
	// Message is user-facing: the server detail, or a localized fallback
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

// Error implements the error interface
func (e *ServiceError) Error() string {
	parts := []string{fmt.Sprintf("type=%s", e.Type)}
	if e.Operation != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Operation))
	}
	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}
	parts = append(parts, e.Message)
	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause=%s", e.Cause.Error()))
	}
	return strings.Join(parts, ": ")
}

// Unwrap returns the underlying error
func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// Is matches another ServiceError of the same type
func (e *ServiceError) Is(target error) bool {
	if se, ok := target.(*ServiceError); ok {
		return e.Type == se.Type
	}
	return false
}

// UserMessage returns the text meant for the notification area
func (e *ServiceError) UserMessage() string {
	return e.Message
}

// ValidationError represents a local precondition failure
type ValidationError struct {
	Field   string `json:"field"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// UserMessage returns the text meant for the notification area
func (e *ValidationError) UserMessage() string {
	return e.Message
}

// EmptyResultError is returned when an operation needs a non-empty result set
type EmptyResultError struct {
	Operation string `json:"operation"`
	Message   string `json:"message"`
}

// Error implements the error interface
func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("%s: no results available: %s", e.Operation, e.Message)
}

// UserMessage returns the text meant for the notification area
func (e *EmptyResultError) UserMessage() string {
	return e.Message
}

// NoSelectionError is returned when highlight has no target file
type NoSelectionError struct {
	Message string `json:"message"`
}

// Error implements the error interface
func (e *NoSelectionError) Error() string {
	return "highlight: no target file selected: " + e.Message
}

// UserMessage returns the text meant for the notification area
func (e *NoSelectionError) UserMessage() string {
	return e.Message
}

// BusyError is returned in exclusive mode when a workflow is already loading
type BusyError struct {
	Workflow string `json:"workflow"`
}

// Error implements the error interface
func (e *BusyError) Error() string {
	return fmt.Sprintf("workflow %s is already running", e.Workflow)
}

// DecodeError describes a malformed ResultLine pair. It is recorded on the
// parsed record and never aborts a batch.
type DecodeError struct {
	Line   string `json:"line"`
	Pair   string `json:"pair"`
	Reason string `json:"reason"`
}

// Error implements the error interface
func (e *DecodeError) Error() string {
	return fmt.Sprintf("malformed pair %q in line %q: %s", e.Pair, e.Line, e.Reason)
}

// Error constructors

// NewServiceError creates a service error for an operation
func NewServiceError(op string, status int, message string) *ServiceError {
	return &ServiceError{
		Type:       ErrTypeService,
		Operation:  op,
		StatusCode: status,
		Message:    message,
	}
}

// NewFilterError creates the service error surfaced by the filter round trip
func NewFilterError(status int, message string) *ServiceError {
	return &ServiceError{
		Type:       ErrTypeFilter,
		Operation:  "filter",
		StatusCode: status,
		Message:    message,
	}
}

// NewTransportError wraps a network or body decoding failure
func NewTransportError(op, message string, cause error) *ServiceError {
	return &ServiceError{
		Type:      ErrTypeTransport,
		Operation: op,
		Message:   message,
		Cause:     cause,
	}
}

// NewValidationError creates a validation error
func NewValidationError(field, value, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// NewEmptyResultError creates an empty result error
func NewEmptyResultError(op, message string) *EmptyResultError {
	return &EmptyResultError{Operation: op, Message: message}
}

// NewNoSelectionError creates a no selection error
func NewNoSelectionError(message string) *NoSelectionError {
	return &NoSelectionError{Message: message}
}

// NewBusyError creates a busy error
func NewBusyError(workflow string) *BusyError {
	return &BusyError{Workflow: workflow}
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsServiceError checks if an error came back from the service, including filter errors
func IsServiceError(err error) bool {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Type == ErrTypeService || se.Type == ErrTypeFilter
	}
	return false
}

// IsFilterError checks if an error is a filter error
func IsFilterError(err error) bool {
	var se *ServiceError
	return errors.As(err, &se) && se.Type == ErrTypeFilter
}

// IsTransportError checks if an error is a transport error
func IsTransportError(err error) bool {
	var se *ServiceError
	return errors.As(err, &se) && se.Type == ErrTypeTransport
}

// IsEmptyResultError checks if an error is an empty result error
func IsEmptyResultError(err error) bool {
	var ee *EmptyResultError
	return errors.As(err, &ee)
}

// IsNoSelectionError checks if an error is a no selection error
func IsNoSelectionError(err error) bool {
	var ne *NoSelectionError
	return errors.As(err, &ne)
}

// IsBusyError checks if an error is a busy error
func IsBusyError(err error) bool {
	var be *BusyError
	return errors.As(err, &be)
}

// UserMessage extracts the user-facing text of err
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var um interface{ UserMessage() string }
	if errors.As(err, &um) {
		if msg := um.UserMessage(); msg != "" {
			return msg
		}
	}
	return err.Error()
}
