package generation

import (
	"github.com/phrazzld/scry-mcq/internal/domain"
)

// ContextsResponse is the ShapeContexts document.
type ContextsResponse struct {
	Contexts []ContextEntry `json:"contexts"`
}

// ContextEntry is one generated context.
type ContextEntry struct {
	Context string `json:"context"`
}

// ReviewResponse is the ShapeReview document.
type ReviewResponse struct {
	Evaluation  string   `json:"evaluation"`
	Suggestions []string `json:"suggestions"`
}

// RefinedContextResponse is the ShapeRefinedContext document.
type RefinedContextResponse struct {
	ContextNew string `json:"context_new"`
	Refinement string `json:"refinement"`
}

// QuestionResponse is the ShapeQuestion document.
type QuestionResponse struct {
	Question QuestionSchema `json:"question"`
}

// RefinedQuestionResponse is the ShapeRefinedQuestion document.
type RefinedQuestionResponse struct {
	MCQNew QuestionSchema `json:"mcq_new"`
}

// OptionSchema is an option, or an option-keyed note, on the wire.
type OptionSchema struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// ReasoningSchema is the rationale block of a question on the wire.
type ReasoningSchema struct {
	BloomLevelAnalysis      string         `json:"bloom_level_analysis"`
	TacticAnalysis          string         `json:"tactic_analysis"`
	AnswerJustification     string         `json:"answer_justification"`
	DistractorJustification []OptionSchema `json:"distractor_justification"`
}

// QuestionSchema is a multiple-choice question on the wire.
type QuestionSchema struct {
	Stem          string          `json:"stem"`
	Options       []OptionSchema  `json:"options"`
	CorrectAnswer string          `json:"correct_answer"`
	Reasoning     ReasoningSchema `json:"reasoning"`
}

// ToDomain converts the wire question into a domain.MCQ. The result is
// not validated.
func (q QuestionSchema) ToDomain() domain.MCQ {
	opts := make([]domain.Option, 0, len(q.Options))
	for _, o := range q.Options {
		opts = append(opts, domain.Option{ID: o.ID, Text: o.Text, IsCorrect: o.ID == q.CorrectAnswer})
	}
	notes := make([]domain.OptionNote, 0, len(q.Reasoning.DistractorJustification))
	for _, n := range q.Reasoning.DistractorJustification {
		notes = append(notes, domain.OptionNote{ID: n.ID, Text: n.Text})
	}
	return domain.MCQ{
		Stem:            q.Stem,
		Options:         opts,
		CorrectAnswerID: q.CorrectAnswer,
		Rationale: domain.Rationale{
			BloomLevelAnalysis:       q.Reasoning.BloomLevelAnalysis,
			TacticAnalysis:           q.Reasoning.TacticAnalysis,
			AnswerJustification:      q.Reasoning.AnswerJustification,
			DistractorJustifications: notes,
		},
	}
}

// QuestionFromDomain converts a domain.MCQ back into its wire form, used
// when a question is sent to the model for review or refinement.
func QuestionFromDomain(q domain.MCQ) QuestionSchema {
	opts := make([]OptionSchema, 0, len(q.Options))
	for _, o := range q.Options {
		opts = append(opts, OptionSchema{ID: o.ID, Text: o.Text})
	}
	notes := make([]OptionSchema, 0, len(q.Rationale.DistractorJustifications))
	for _, n := range q.Rationale.DistractorJustifications {
		notes = append(notes, OptionSchema{ID: n.ID, Text: n.Text})
	}
	return QuestionSchema{
		Stem:          q.Stem,
		Options:       opts,
		CorrectAnswer: q.CorrectAnswerID,
		Reasoning: ReasoningSchema{
			BloomLevelAnalysis:      q.Rationale.BloomLevelAnalysis,
			TacticAnalysis:          q.Rationale.TacticAnalysis,
			AnswerJustification:     q.Rationale.AnswerJustification,
			DistractorJustification: notes,
		},
	}
}
