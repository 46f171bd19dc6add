package pipeline

import (
	"context"

	"github.com/phrazzld/scry-mcq/internal/domain"
)

// ContextEngine generates, reviews and refines contexts.
// generation.Engine satisfies it.
type ContextEngine interface {
	GenerateContexts(ctx context.Context, req domain.GenerationRequest) ([]string, error)
	ReviewContext(ctx context.Context, req domain.GenerationRequest, content string) (domain.Review, error)
	RefineContext(ctx context.Context, req domain.GenerationRequest, item domain.ContextItem) (string, error)
}

// QuestionEngine generates, reviews and refines questions. contextText is
// always the final text of the context the question belongs to.
// generation.Engine satisfies it.
type QuestionEngine interface {
	GenerateQuestion(ctx context.Context, req domain.GenerationRequest, contextText string) (domain.MCQ, error)
	ReviewQuestion(
		ctx context.Context,
		req domain.GenerationRequest,
		contextText string,
		q domain.MCQ,
	) (domain.Review, error)
	RefineQuestion(
		ctx context.Context,
		req domain.GenerationRequest,
		contextText string,
		item domain.QuestionItem,
	) (domain.MCQ, error)
}
