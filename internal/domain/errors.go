package domain

import (
	"errors"
	"fmt"
)

// Error types for domain-specific errors
type ErrorType string

const (
	ErrorTypeEngineUnavailable ErrorType = "engine_unavailable"
	ErrorTypeExtraction        ErrorType = "extraction"
	ErrorTypeModelUnavailable  ErrorType = "model_unavailable"
	ErrorTypeTransport         ErrorType = "transport"
	ErrorTypeTimeout           ErrorType = "timeout"
	ErrorTypeValidation        ErrorType = "validation"
	ErrorTypeParse             ErrorType = "parse"
	ErrorTypeInputTooLarge     ErrorType = "input_too_large"
	ErrorTypeInvalidInput      ErrorType = "invalid_input"
	ErrorTypeNotFound          ErrorType = "not_found"
	ErrorTypeStorage           ErrorType = "storage"
	ErrorTypeConfig            ErrorType = "config"
	ErrorTypeIO                ErrorType = "io"
)

// DomainError represents a domain-specific error with context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches any DomainError of the same type, so sentinels work with errors.Is.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Type == e.Type
}

// NewError creates a new domain error
func NewError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// Sentinels for errors.Is checks.
var (
	ErrModelUnavailable = &DomainError{Type: ErrorTypeModelUnavailable}
	ErrInputTooLarge    = &DomainError{Type: ErrorTypeInputTooLarge}
	ErrNotFound         = &DomainError{Type: ErrorTypeNotFound}
	ErrTimeout          = &DomainError{Type: ErrorTypeTimeout}
)

// IsType reports whether any error in err's chain is a DomainError of type t.
func IsType(err error, t ErrorType) bool {
	var de *DomainError
	for err != nil {
		if errors.As(err, &de) {
			if de.Type == t {
				return true
			}
			err = de.Err
			continue
		}
		return false
	}
	return false
}

// TypeOf returns the type of the outermost DomainError in err's chain, or "".
func TypeOf(err error) ErrorType {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Type
	}
	return ""
}

// Common error constructors
func EngineUnavailableError(message string, err error) *DomainError {
	return NewError(ErrorTypeEngineUnavailable, message, err)
}

func ExtractionError(message string, err error) *DomainError {
	return NewError(ErrorTypeExtraction, message, err)
}

func ModelUnavailableError(message string) *DomainError {
	return NewError(ErrorTypeModelUnavailable, message, nil)
}

func TransportError(message string, err error) *DomainError {
	return NewError(ErrorTypeTransport, message, err)
}

func TimeoutError(message string, err error) *DomainError {
	return NewError(ErrorTypeTimeout, message, err)
}

func ValidationError(message string, err error) *DomainError {
	return NewError(ErrorTypeValidation, message, err)
}

func ParseError(message string, err error) *DomainError {
	return NewError(ErrorTypeParse, message, err)
}

func InputTooLargeError(size, limit int) *DomainError {
	return NewError(ErrorTypeInputTooLarge, fmt.Sprintf("input too large: %d characters exceeds limit of %d", size, limit), nil)
}

func InvalidInputError(message string) *DomainError {
	return NewError(ErrorTypeInvalidInput, message, nil)
}

func NotFoundError(message string) *DomainError {
	return NewError(ErrorTypeNotFound, message, nil)
}

func StorageError(message string, err error) *DomainError {
	return NewError(ErrorTypeStorage, message, err)
}

func ConfigError(message string, err error) *DomainError {
	return NewError(ErrorTypeConfig, message, err)
}

func IOError(message string, err error) *DomainError {
	return NewError(ErrorTypeIO, message, err)
}
