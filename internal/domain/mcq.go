package domain

import (
	"fmt"
)

// Option is one answer choice of a multiple-choice question.
type Option struct {
	ID        string `json:"id" validate:"required"`
	Text      string `json:"text" validate:"required"`
	IsCorrect bool   `json:"is_correct"`
}

// OptionNote attaches an explanation to an option by ID.
type OptionNote struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Rationale explains why the question is built the way it is.
type Rationale struct {
	BloomLevelAnalysis       string       `json:"bloom_level_analysis"`
	TacticAnalysis           string       `json:"tactic_analysis"`
	AnswerJustification      string       `json:"answer_justification"`
	DistractorJustifications []OptionNote `json:"distractor_justifications"`
}

// MCQ is the structured payload of a generated question.
type MCQ struct {
	Stem            string    `json:"stem" validate:"required"`
	Options         []Option  `json:"options" validate:"min=2,dive"`
	CorrectAnswerID string    `json:"correct_answer_id" validate:"required"`
	Rationale       Rationale `json:"rationale"`
}

// Validate checks the payload shape: a stem, at least two options with
// unique IDs, and a correct answer ID naming one of them.
func (q MCQ) Validate() error {
	if err := validate.Struct(q); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidQuestion, err)
	}

	seen := make(map[string]struct{}, len(q.Options))
	found := false
	for _, opt := range q.Options {
		if _, dup := seen[opt.ID]; dup {
			return fmt.Errorf("%w: duplicate option id %q", ErrInvalidQuestion, opt.ID)
		}
		seen[opt.ID] = struct{}{}
		if opt.ID == q.CorrectAnswerID {
			found = true
		}
	}
	if !found {
		return fmt.Errorf("%w: correct answer %q is not an option", ErrInvalidQuestion, q.CorrectAnswerID)
	}
	return nil
}

// Normalized returns a copy whose option IsCorrect flags agree with
// CorrectAnswerID.
func (q MCQ) Normalized() MCQ {
	out := q
	out.Options = make([]Option, len(q.Options))
	for i, opt := range q.Options {
		opt.IsCorrect = opt.ID == q.CorrectAnswerID
		out.Options[i] = opt
	}
	if q.Rationale.DistractorJustifications != nil {
		out.Rationale.DistractorJustifications = append([]OptionNote(nil), q.Rationale.DistractorJustifications...)
	}
	return out
}
