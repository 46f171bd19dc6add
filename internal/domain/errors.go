package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidBloomLevel is returned when a taxonomy level is not recognized.
	ErrInvalidBloomLevel = errors.New("invalid bloom level")

	// ErrEmptySourceText is returned when a request carries no source text.
	ErrEmptySourceText = errors.New("source text cannot be empty")

	// ErrInvalidQuestion is returned when an MCQ payload is structurally invalid.
	ErrInvalidQuestion = errors.New("invalid question payload")
)
