package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/phrazzld/scry-mcq/internal/domain"
)

// Common engine construction errors
var (
	ErrNilClient = errors.New("generation client cannot be nil")
	ErrNilLogger = errors.New("logger cannot be nil")
)

// Engine implements context and question generation, review and
// refinement on top of a Client. It is safe for concurrent use.
type Engine struct {
	client    Client
	templates *template.Template
	logger    *slog.Logger
}

// NewEngine creates an Engine and parses its prompt templates.
func NewEngine(client Client, logger *slog.Logger) (*Engine, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	if logger == nil {
		return nil, ErrNilLogger
	}

	tmpl, err := loadTemplates()
	if err != nil {
		return nil, err
	}

	return &Engine{
		client:    client,
		templates: tmpl,
		logger:    logger.With("component", "generation_engine"),
	}, nil
}

// call renders a prompt and performs one exchange.
func (e *Engine) call(
	ctx context.Context,
	req domain.GenerationRequest,
	name string,
	data promptData,
	shape Shape,
	out any,
) error {
	prompt, err := render(e.templates, name, data)
	if err != nil {
		return err
	}

	e.logger.DebugContext(ctx, "calling generation client",
		"template", name,
		"shape", shape,
		"prompt_length", len(prompt))

	return e.client.Generate(ctx, Request{Model: req.Model, Instruction: prompt, Shape: shape}, out)
}

// GenerateContexts produces up to req.ItemCount contexts from the source text.
// Blank contexts in the response are dropped.
func (e *Engine) GenerateContexts(ctx context.Context, req domain.GenerationRequest) ([]string, error) {
	var resp ContextsResponse
	if err := e.call(ctx, req, tmplContextGenerate, newPromptData(req), ShapeContexts, &resp); err != nil {
		return nil, err
	}

	contexts := make([]string, 0, len(resp.Contexts))
	for _, c := range resp.Contexts {
		if text := strings.TrimSpace(c.Context); text != "" {
			contexts = append(contexts, text)
		}
	}
	if len(contexts) == 0 {
		return nil, fmt.Errorf("%w: no contexts in response", ErrInvalidResponse)
	}
	return contexts, nil
}

// ReviewContext reviews one context against the source text.
func (e *Engine) ReviewContext(ctx context.Context, req domain.GenerationRequest, content string) (domain.Review, error) {
	data := newPromptData(req)
	data.Context = content

	var resp ReviewResponse
	if err := e.call(ctx, req, tmplContextReview, data, ShapeReview, &resp); err != nil {
		return domain.Review{}, err
	}
	return toReview(resp), nil
}

// RefineContext rewrites a context to address its review feedback.
func (e *Engine) RefineContext(ctx context.Context, req domain.GenerationRequest, item domain.ContextItem) (string, error) {
	data := newPromptData(req)
	data.Context = item.Content
	data.Feedback = feedback(item.Suggestions, item.ReviewFeedback)

	var resp RefinedContextResponse
	if err := e.call(ctx, req, tmplContextRefine, data, ShapeRefinedContext, &resp); err != nil {
		return "", err
	}

	refined := strings.TrimSpace(resp.ContextNew)
	if refined == "" {
		return "", fmt.Errorf("%w: refined context is empty", ErrInvalidResponse)
	}
	return refined, nil
}

// GenerateQuestion writes one question from a context.
func (e *Engine) GenerateQuestion(ctx context.Context, req domain.GenerationRequest, contextText string) (domain.MCQ, error) {
	data := newPromptData(req)
	data.Context = contextText

	var resp QuestionResponse
	if err := e.call(ctx, req, tmplQuestionGenerate, data, ShapeQuestion, &resp); err != nil {
		return domain.MCQ{}, err
	}
	return validQuestion(resp.Question)
}

// ReviewQuestion reviews one question against the context it came from.
func (e *Engine) ReviewQuestion(
	ctx context.Context,
	req domain.GenerationRequest,
	contextText string,
	q domain.MCQ,
) (domain.Review, error) {
	data := newPromptData(req)
	data.Context = contextText
	js, err := questionJSON(q)
	if err != nil {
		return domain.Review{}, err
	}
	data.QuestionJSON = js

	var resp ReviewResponse
	if err := e.call(ctx, req, tmplQuestionReview, data, ShapeReview, &resp); err != nil {
		return domain.Review{}, err
	}
	return toReview(resp), nil
}

// RefineQuestion rewrites a question to address its review feedback.
func (e *Engine) RefineQuestion(
	ctx context.Context,
	req domain.GenerationRequest,
	contextText string,
	item domain.QuestionItem,
) (domain.MCQ, error) {
	data := newPromptData(req)
	data.Context = contextText
	data.Feedback = feedback(item.Suggestions, item.ReviewFeedback)
	js, err := questionJSON(item.Question)
	if err != nil {
		return domain.MCQ{}, err
	}
	data.QuestionJSON = js

	var resp RefinedQuestionResponse
	if err := e.call(ctx, req, tmplQuestionRefine, data, ShapeRefinedQuestion, &resp); err != nil {
		return domain.MCQ{}, err
	}
	return validQuestion(resp.MCQNew)
}

func validQuestion(q QuestionSchema) (domain.MCQ, error) {
	mcq := q.ToDomain()
	if err := mcq.Validate(); err != nil {
		return domain.MCQ{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return mcq, nil
}

func questionJSON(q domain.MCQ) (string, error) {
	b, err := json.MarshalIndent(QuestionFromDomain(q), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal question: %w", err)
	}
	return string(b), nil
}

// toReview drops blank suggestions so whitespace never blocks approval.
func toReview(resp ReviewResponse) domain.Review {
	suggestions := make([]string, 0, len(resp.Suggestions))
	for _, s := range resp.Suggestions {
		if s = strings.TrimSpace(s); s != "" {
			suggestions = append(suggestions, s)
		}
	}
	return domain.Review{Evaluation: resp.Evaluation, Suggestions: suggestions}
}

// feedback is the reviewer input to a refine prompt: the suggestions one
// per line, or the evaluation text when there are none.
func feedback(suggestions []string, evaluation string) string {
	if len(suggestions) == 0 {
		return evaluation
	}
	return "- " + strings.Join(suggestions, "\n- ")
}
