package service

import (
	"errors"
	"fmt"
)

// Common service errors. The API layer maps them to HTTP status codes.
var (
	// ErrGenerationFailed wraps a pipeline abort. The pipeline error stays in the chain.
	ErrGenerationFailed = errors.New("generation run failed")

	// ErrPersistenceFailed is returned when a finished run could not be stored.
	ErrPersistenceFailed = errors.New("failed to store generation run")

	// ErrAsyncUnavailable is returned by Submit when no background runner is configured.
	ErrAsyncUnavailable = errors.New("asynchronous generation is not available")

	// ErrRunNotFound indicates that no stored run has the requested ID.
	ErrRunNotFound = errors.New("generation run not found")

	// ErrJobNotFound indicates that no job has the requested ID.
	ErrJobNotFound = errors.New("generation job not found")

	// Construction errors.
	ErrNilPipeline = errors.New("pipeline cannot be nil")
	ErrNilRunStore = errors.New("run store cannot be nil")
	ErrNilLogger   = errors.New("logger cannot be nil")
)

// GenerationServiceError adds the failed operation to an unexpected error.
type GenerationServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface.
func (e *GenerationServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generation service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("generation service %s failed: %s", e.Operation, e.Message)
}

// Unwrap supports errors.Is and errors.As.
func (e *GenerationServiceError) Unwrap() error {
	return e.Err
}

// NewGenerationServiceError wraps err with operation context. Nil stays nil.
func NewGenerationServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}
	return &GenerationServiceError{Operation: operation, Message: message, Err: err}
}
