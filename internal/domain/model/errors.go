package model

import (
	"errors"
	"fmt"
)

// Error kinds. The children wrap their parent class so callers can match either.
var (
	ErrNotFound            = errors.New("not found")
	ErrInvalid             = errors.New("invalid")
	ErrDeviceLimitExceeded = errors.New("device limit exceeded")

	ErrGatewayNotFound   = fmt.Errorf("gateway %w", ErrNotFound)
	ErrDeviceNotFound    = fmt.Errorf("device %w", ErrNotFound)
	ErrDeviceNotAttached = fmt.Errorf("device not attached: %w", ErrNotFound)
	ErrGatewayInvalid    = fmt.Errorf("gateway %w", ErrInvalid)
	ErrDeviceInvalid     = fmt.Errorf("device %w", ErrInvalid)

	ErrInvalidStatus      = errors.New("invalid device status")
	ErrDuplicate          = errors.New("duplicate key")
	ErrDatabaseConnection = errors.New("database connection error")
	ErrDatabaseQuery      = errors.New("database query error")
	ErrCacheUnavailable   = errors.New("cache unavailable")
)

const (
	KindGatewayNotFound     = "GatewayNotFound"
	KindDeviceNotFound      = "DeviceNotFound"
	KindDeviceNotAttached   = "DeviceNotAttached"
	KindGatewayInvalid      = "GatewayInvalid"
	KindDeviceInvalid       = "DeviceInvalid"
	KindDeviceLimitExceeded = "DeviceLimitExceeded"
)

// DomainError pairs an error kind with the message shown to API clients.
type DomainError struct {
	Kind    error
	Message string
}

func NewDomainError(kind error, format string, args ...any) *DomainError {
	return &DomainError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

func (e *DomainError) Error() string {
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Kind
}

// Expected marks domain rejections as part of normal operation.
func (e *DomainError) Expected() bool {
	return true
}

// ErrorKind returns the wire name of a domain error, or "" for anything else.
// The most specific kind wins.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrDeviceNotAttached):
		return KindDeviceNotAttached
	case errors.Is(err, ErrGatewayNotFound):
		return KindGatewayNotFound
	case errors.Is(err, ErrDeviceNotFound):
		return KindDeviceNotFound
	case errors.Is(err, ErrDeviceLimitExceeded):
		return KindDeviceLimitExceeded
	case errors.Is(err, ErrGatewayInvalid):
		return KindGatewayInvalid
	case errors.Is(err, ErrDeviceInvalid):
		return KindDeviceInvalid
	default:
		return ""
	}
}

// ErrorMessage returns the client-facing message carried by err.
func ErrorMessage(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}

	return err.Error()
}

type ValidationError struct {
	Field   string
	Message string
	Code    string
}

type ValidationErrors struct {
	Errors []ValidationError
}

func (v *ValidationErrors) Error() string {
	if len(v.Errors) == 0 {
		return "validation failed"
	}

	return v.Errors[0].Message
}

func (v *ValidationErrors) Add(field, message, code string) {
	v.Errors = append(v.Errors, ValidationError{
		Field:   field,
		Message: message,
		Code:    code,
	})
}

func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

func (v *ValidationErrors) Expected() bool {
	return true
}

// Fields flattens the errors into a field to message map. The first message per field wins.
func (v *ValidationErrors) Fields() map[string]string {
	fields := make(map[string]string, len(v.Errors))

	for _, e := range v.Errors {
		if _, ok := fields[e.Field]; !ok {
			fields[e.Field] = e.Message
		}
	}

	return fields
}

// OrNil returns v as an error only when it holds at least one entry.
func (v *ValidationErrors) OrNil() error {
	if v.HasErrors() {
		return v
	}

	return nil
}

func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{
		Errors: make([]ValidationError, 0),
	}
}
