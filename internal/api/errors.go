package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/scry-mcq/internal/domain"
	"github.com/phrazzld/scry-mcq/internal/service"
	"github.com/phrazzld/scry-mcq/internal/task"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// exposing the errors themselves.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest

	case errors.Is(err, service.ErrRunNotFound),
		errors.Is(err, service.ErrJobNotFound):
		return http.StatusNotFound

	case errors.Is(err, service.ErrAsyncUnavailable),
		errors.Is(err, task.ErrQueueFull),
		errors.Is(err, task.ErrRunnerStopped):
		return http.StatusServiceUnavailable

	case errors.Is(err, service.ErrGenerationFailed):
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a user-facing message for err.
func GetSafeErrorMessage(err error) string {
	switch {
	case err == nil:
		return "An unexpected error occurred"
	case errors.Is(err, domain.ErrValidation):
		return SanitizeValidationError(err)
	case errors.Is(err, service.ErrRunNotFound):
		return "Generation run not found"
	case errors.Is(err, service.ErrJobNotFound):
		return "Generation job not found"
	case errors.Is(err, service.ErrAsyncUnavailable):
		return "Asynchronous generation is not available"
	case errors.Is(err, task.ErrQueueFull), errors.Is(err, task.ErrRunnerStopped):
		return "Generation queue is unavailable, try again later"
	case errors.Is(err, service.ErrGenerationFailed):
		return "Question generation failed"
	case errors.Is(err, service.ErrPersistenceFailed):
		return "Failed to store generation run"
	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError reduces a validation error to a short message
// naming the offending field.
func SanitizeValidationError(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return fmt.Sprintf("Invalid %s: %s", fe.Field(), getValidationTagMessage(fe.Tag()))
	}

	switch {
	case errors.Is(err, domain.ErrEmptySourceText):
		return "Invalid SourceText: required field"
	case errors.Is(err, domain.ErrInvalidBloomLevel):
		return "Invalid BloomLevel: invalid value"
	}
	return "Validation error"
}

func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "gt", "gte", "min":
		return "too small"
	case "lt", "lte", "max":
		return "too large"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
