package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/phrazzld/scry-mcq/internal/domain"
)

// EngineCall records one call made to a mock engine.
type EngineCall struct {
	Method  string
	Content string
}

type callLog struct {
	mu    sync.Mutex
	calls []EngineCall
}

func (l *callLog) record(method, content string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, EngineCall{Method: method, Content: content})
}

// Calls returns a copy of every call received so far, in arrival order.
func (l *callLog) Calls() []EngineCall {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]EngineCall(nil), l.calls...)
}

// CallCount returns how many calls of method were made.
func (l *callLog) CallCount(method string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, c := range l.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// MockContextEngine implements pipeline.ContextEngine for testing.
// Without Fn fields it generates req.ItemCount numbered contexts, approves
// every review and appends " (refined)" on refinement.
type MockContextEngine struct {
	GenerateContextsFn func(ctx context.Context, req domain.GenerationRequest) ([]string, error)
	ReviewContextFn    func(ctx context.Context, req domain.GenerationRequest, content string) (domain.Review, error)
	RefineContextFn    func(ctx context.Context, req domain.GenerationRequest, item domain.ContextItem) (string, error)

	callLog
}

// GenerateContexts implements pipeline.ContextEngine
func (m *MockContextEngine) GenerateContexts(ctx context.Context, req domain.GenerationRequest) ([]string, error) {
	m.record("GenerateContexts", "")
	if m.GenerateContextsFn != nil {
		return m.GenerateContextsFn(ctx, req)
	}
	out := make([]string, req.ItemCount)
	for i := range out {
		out[i] = fmt.Sprintf("context %d", i)
	}
	return out, nil
}

// ReviewContext implements pipeline.ContextEngine
func (m *MockContextEngine) ReviewContext(
	ctx context.Context,
	req domain.GenerationRequest,
	content string,
) (domain.Review, error) {
	m.record("ReviewContext", content)
	if m.ReviewContextFn != nil {
		return m.ReviewContextFn(ctx, req, content)
	}
	return domain.Review{Evaluation: "looks good", Suggestions: []string{}}, nil
}

// RefineContext implements pipeline.ContextEngine
func (m *MockContextEngine) RefineContext(
	ctx context.Context,
	req domain.GenerationRequest,
	item domain.ContextItem,
) (string, error) {
	m.record("RefineContext", item.Content)
	if m.RefineContextFn != nil {
		return m.RefineContextFn(ctx, req, item)
	}
	return item.Content + " (refined)", nil
}

// MockQuestionEngine implements pipeline.QuestionEngine for testing.
// Without Fn fields it writes a valid question whose stem names its
// context, approves every review and returns the question unchanged on
// refinement with " (refined)" appended to the stem.
type MockQuestionEngine struct {
	GenerateQuestionFn func(ctx context.Context, req domain.GenerationRequest, contextText string) (domain.MCQ, error)
	ReviewQuestionFn   func(
		ctx context.Context,
		req domain.GenerationRequest,
		contextText string,
		q domain.MCQ,
	) (domain.Review, error)
	RefineQuestionFn func(
		ctx context.Context,
		req domain.GenerationRequest,
		contextText string,
		item domain.QuestionItem,
	) (domain.MCQ, error)

	callLog
}

// GenerateQuestion implements pipeline.QuestionEngine
func (m *MockQuestionEngine) GenerateQuestion(
	ctx context.Context,
	req domain.GenerationRequest,
	contextText string,
) (domain.MCQ, error) {
	m.record("GenerateQuestion", contextText)
	if m.GenerateQuestionFn != nil {
		return m.GenerateQuestionFn(ctx, req, contextText)
	}
	return SampleMCQ("question about " + contextText), nil
}

// ReviewQuestion implements pipeline.QuestionEngine
func (m *MockQuestionEngine) ReviewQuestion(
	ctx context.Context,
	req domain.GenerationRequest,
	contextText string,
	q domain.MCQ,
) (domain.Review, error) {
	m.record("ReviewQuestion", q.Stem)
	if m.ReviewQuestionFn != nil {
		return m.ReviewQuestionFn(ctx, req, contextText, q)
	}
	return domain.Review{Evaluation: "looks good", Suggestions: []string{}}, nil
}

// RefineQuestion implements pipeline.QuestionEngine
func (m *MockQuestionEngine) RefineQuestion(
	ctx context.Context,
	req domain.GenerationRequest,
	contextText string,
	item domain.QuestionItem,
) (domain.MCQ, error) {
	m.record("RefineQuestion", item.Question.Stem)
	if m.RefineQuestionFn != nil {
		return m.RefineQuestionFn(ctx, req, contextText, item)
	}
	q := item.Question
	q.Stem += " (refined)"
	return q, nil
}

// SampleMCQ returns a valid four-option question with the given stem.
func SampleMCQ(stem string) domain.MCQ {
	return domain.MCQ{
		Stem: stem,
		Options: []domain.Option{
			{ID: "A", Text: "first", IsCorrect: true},
			{ID: "B", Text: "second"},
			{ID: "C", Text: "third"},
			{ID: "D", Text: "fourth"},
		},
		CorrectAnswerID: "A",
		Rationale: domain.Rationale{
			BloomLevelAnalysis:  "recall of a stated fact",
			AnswerJustification: "stated in the context",
			DistractorJustifications: []domain.OptionNote{
				{ID: "B", Text: "plausible but unstated"},
				{ID: "C", Text: "common confusion"},
				{ID: "D", Text: "opposite claim"},
			},
		},
	}
}
