package generation

import "errors"

// Common errors returned by the generation package
var (
	// ErrGenerationFailed is returned when a generation call fails for any general reason
	ErrGenerationFailed = errors.New("generation call failed")

	// ErrInvalidResponse is returned when the model response cannot be parsed or is malformed
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrContentBlocked is returned when the model blocks the content due to safety filters
	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrTransientFailure is returned for temporary errors that might resolve on retry
	ErrTransientFailure = errors.New("transient error during generation")

	// ErrInvalidConfig is returned when the client or engine configuration is invalid
	ErrInvalidConfig = errors.New("invalid generator configuration")

	// ErrUnknownShape is returned when a request names a shape the client cannot produce
	ErrUnknownShape = errors.New("unknown response shape")
)

// IsGenerationFailure reports whether err belongs to the failure class a
// single generation exchange can produce (network, timeout, malformed or
// blocked response).
func IsGenerationFailure(err error) bool {
	return errors.Is(err, ErrGenerationFailed) ||
		errors.Is(err, ErrInvalidResponse) ||
		errors.Is(err, ErrContentBlocked) ||
		errors.Is(err, ErrTransientFailure)
}
