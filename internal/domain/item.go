package domain

// Review is the verdict of one review call. An empty suggestion set
// means the artifact is approved.
type Review struct {
	Evaluation  string   `json:"evaluation"`
	Suggestions []string `json:"suggestions"`
}

// Approved reports whether the review asks for no changes.
func (r Review) Approved() bool {
	return len(r.Suggestions) == 0
}

// ContextItem is an analytical context derived from the source text.
//
// Invariants: after a successful review Approved == (len(Suggestions) == 0);
// IterationCount only grows, by one per refinement; Forced marks an item
// approved because a cap or a refine failure stopped its loop.
type ContextItem struct {
	Content        string   `json:"content"`
	ReviewFeedback string   `json:"review_feedback"`
	Suggestions    []string `json:"suggestions"`
	Approved       bool     `json:"approved"`
	Forced         bool     `json:"forced"`
	IterationCount int      `json:"iteration_count"`
}

// NewContextItem returns a fresh, unapproved item for content.
func NewContextItem(content string) ContextItem {
	return ContextItem{Content: content, Suggestions: []string{}}
}

// Settled reports whether the item needs no further review or refinement.
func (c ContextItem) Settled() bool {
	return c.Approved
}

// CapReached reports whether the item has used its refinement budget.
func (c ContextItem) CapReached(maxIterations int) bool {
	return c.IterationCount >= maxIterations
}

// WithReview applies a review verdict.
func (c ContextItem) WithReview(r Review) ContextItem {
	c.ReviewFeedback = r.Evaluation
	c.Suggestions = cloneStrings(r.Suggestions)
	c.Approved = r.Approved()
	return c
}

// WithReviewFailure records a failed review call and leaves the verdict as it was.
func (c ContextItem) WithReviewFailure(msg string) ContextItem {
	c.ReviewFeedback = msg
	c.Suggestions = cloneStrings(c.Suggestions)
	return c
}

// WithRefinement replaces the content with a refined version and resets
// the verdict so the next review judges the new content.
func (c ContextItem) WithRefinement(content string) ContextItem {
	c.Content = content
	c.ReviewFeedback = ""
	c.Suggestions = []string{}
	c.Approved = false
	c.IterationCount++
	return c
}

// ForceApproved approves the item without a clean review. Suggestions
// are discarded.
func (c ContextItem) ForceApproved() ContextItem {
	c.Approved = true
	c.Forced = true
	c.Suggestions = []string{}
	return c
}

// WithRefineFailure force-approves the item keeping its content and
// storing msg as feedback.
func (c ContextItem) WithRefineFailure(msg string) ContextItem {
	c = c.ForceApproved()
	c.ReviewFeedback = msg
	return c
}

// QuestionItem is a multiple-choice question generated from the context
// at SourceContextIndex. It follows the same invariants as ContextItem.
// An item whose generation failed carries GenerationError, has no
// payload, and is settled from the start.
type QuestionItem struct {
	Question           MCQ      `json:"question"`
	SourceContextIndex int      `json:"source_context_index"`
	ReviewFeedback     string   `json:"review_feedback"`
	Suggestions        []string `json:"suggestions"`
	Approved           bool     `json:"approved"`
	Forced             bool     `json:"forced"`
	IterationCount     int      `json:"iteration_count"`
	GenerationError    string   `json:"generation_error,omitempty"`
}

// NewQuestionItem returns a fresh, unapproved question for context index idx.
func NewQuestionItem(idx int, q MCQ) QuestionItem {
	return QuestionItem{Question: q.Normalized(), SourceContextIndex: idx, Suggestions: []string{}}
}

// FailedQuestionItem holds the slot of a question whose generation failed.
func FailedQuestionItem(idx int, msg string) QuestionItem {
	return QuestionItem{SourceContextIndex: idx, Suggestions: []string{}, GenerationError: msg}
}

// HasPayload reports whether the question was generated.
func (q QuestionItem) HasPayload() bool {
	return q.GenerationError == ""
}

// Settled reports whether the item needs no further review or refinement.
func (q QuestionItem) Settled() bool {
	return q.Approved || !q.HasPayload()
}

// CapReached reports whether the item has used its refinement budget.
func (q QuestionItem) CapReached(maxIterations int) bool {
	return q.IterationCount >= maxIterations
}

// WithReview applies a review verdict.
func (q QuestionItem) WithReview(r Review) QuestionItem {
	q.ReviewFeedback = r.Evaluation
	q.Suggestions = cloneStrings(r.Suggestions)
	q.Approved = r.Approved()
	return q
}

// WithReviewFailure records a failed review call and leaves the verdict as it was.
func (q QuestionItem) WithReviewFailure(msg string) QuestionItem {
	q.ReviewFeedback = msg
	q.Suggestions = cloneStrings(q.Suggestions)
	return q
}

// WithRefinement replaces the payload with a refined question.
func (q QuestionItem) WithRefinement(mcq MCQ) QuestionItem {
	q.Question = mcq.Normalized()
	q.ReviewFeedback = ""
	q.Suggestions = []string{}
	q.Approved = false
	q.IterationCount++
	return q
}

// ForceApproved approves the item without a clean review. Suggestions
// are discarded.
func (q QuestionItem) ForceApproved() QuestionItem {
	q.Approved = true
	q.Forced = true
	q.Suggestions = []string{}
	return q
}

// WithRefineFailure force-approves the item keeping its payload and
// storing msg as feedback.
func (q QuestionItem) WithRefineFailure(msg string) QuestionItem {
	q = q.ForceApproved()
	q.ReviewFeedback = msg
	return q
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
