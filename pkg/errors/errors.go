package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeFatalSetup represents a search surface that could not be prepared
	ErrorTypeFatalSetup ErrorType = "fatal_setup"
	// ErrorTypeBrowser represents automation runtime failures during a crawl
	ErrorTypeBrowser ErrorType = "browser"
	// ErrorTypeExtraction represents a single listing that could not be read
	ErrorTypeExtraction ErrorType = "extraction"
	// ErrorTypeStore represents lead store failures
	ErrorTypeStore ErrorType = "store"
	// ErrorTypeCache represents cache-related errors
	ErrorTypeCache ErrorType = "cache"
	// ErrorTypePublisher represents publisher-related errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeValidation represents validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// LeadError represents a discovery-specific error
type LeadError struct {
	Type    ErrorType
	Engine  string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *LeadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Engine, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Engine, e.Message)
}

// Unwrap returns the underlying error
func (e *LeadError) Unwrap() error {
	return e.Err
}

// IsFatal returns true if the error ends a crawl
func (e *LeadError) IsFatal() bool {
	switch e.Type {
	case ErrorTypeFatalSetup, ErrorTypeBrowser, ErrorTypeValidation, ErrorTypeConfiguration:
		return true
	default:
		return false
	}
}

// IsType reports whether err wraps a LeadError of the given type
func IsType(err error, errType ErrorType) bool {
	var le *LeadError
	if errors.As(err, &le) {
		return le.Type == errType
	}
	return false
}

// New creates a new LeadError
func New(errType ErrorType, engine, message string, err error) *LeadError {
	return &LeadError{
		Type:    errType,
		Engine:  engine,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewFatalSetup creates a new fatal setup error
func NewFatalSetup(engine, message string, err error) *LeadError {
	return New(ErrorTypeFatalSetup, engine, message, err)
}

// NewBrowser creates a new browser error
func NewBrowser(engine, message string, err error) *LeadError {
	return New(ErrorTypeBrowser, engine, message, err)
}

// NewExtraction creates a new extraction error
func NewExtraction(engine, message string, err error) *LeadError {
	return New(ErrorTypeExtraction, engine, message, err)
}

// NewStore creates a new store error
func NewStore(backend, message string, err error) *LeadError {
	return New(ErrorTypeStore, backend, message, err)
}

// NewCache creates a new cache error
func NewCache(message string, err error) *LeadError {
	return New(ErrorTypeCache, "", message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(message string, err error) *LeadError {
	return New(ErrorTypePublisher, "", message, err)
}

// NewValidation creates a new validation error
func NewValidation(message string) *LeadError {
	return New(ErrorTypeValidation, "", message, nil)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *LeadError {
	return New(ErrorTypeConfiguration, "", message, err)
}
