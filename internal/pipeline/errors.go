package pipeline

import "errors"

// Errors returned by Orchestrator.Run. Per-item failures never surface
// here; they are recorded on the item and the run continues.
var (
	// ErrNoContexts is returned when context generation yields nothing.
	ErrNoContexts = errors.New("context generation produced no contexts")

	// ErrContextGeneration wraps a failed context generation call.
	ErrContextGeneration = errors.New("context generation failed")

	// ErrNoQuestions is returned when every question generation call fails.
	ErrNoQuestions = errors.New("question generation failed for every context")

	// ErrAdmission wraps a gate wait that ended without admission, which
	// only happens once the run context is done.
	ErrAdmission = errors.New("admission failed")

	ErrNilContextEngine  = errors.New("context engine cannot be nil")
	ErrNilQuestionEngine = errors.New("question engine cannot be nil")
	ErrNilLogger         = errors.New("logger cannot be nil")
)
