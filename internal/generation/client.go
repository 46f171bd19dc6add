package generation

import "context"

// Shape names the JSON document a request expects back.
type Shape string

// Response shapes understood by every Client.
const (
	ShapeContexts        Shape = "contexts"
	ShapeReview          Shape = "review"
	ShapeRefinedContext  Shape = "refined_context"
	ShapeQuestion        Shape = "question"
	ShapeRefinedQuestion Shape = "refined_question"
)

// Shapes lists every known shape.
func Shapes() []Shape {
	return []Shape{ShapeContexts, ShapeReview, ShapeRefinedContext, ShapeQuestion, ShapeRefinedQuestion}
}

// Request is a single exchange with the generative service.
type Request struct {
	// Model identifies the model to call.
	Model string

	// Instruction is the fully formatted prompt.
	Instruction string

	// Shape is the structure the response must follow.
	Shape Shape
}

// Client is the boundary to the external generative service.
// Generate blocks until the service answers, then decodes the JSON
// response into out, which must point to the type registered for
// req.Shape (see the *Response types in this package).
//
// Errors wrap one of ErrGenerationFailed, ErrInvalidResponse,
// ErrContentBlocked or ErrTransientFailure.
type Client interface {
	Generate(ctx context.Context, req Request, out any) error
}
