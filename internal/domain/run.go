package domain

import (
	"time"

	"github.com/google/uuid"
)

// Stage tags the orchestrator's position in the run state machine.
type Stage string

// Run stages in the order the orchestrator visits them.
const (
	StageStart              Stage = "start"
	StageContextsGenerated  Stage = "contexts_generated"
	StageContextsReviewed   Stage = "contexts_reviewed"
	StageContextsRefined    Stage = "contexts_refined"
	StageQuestionsGenerated Stage = "questions_generated"
	StageQuestionsReviewed  Stage = "questions_reviewed"
	StageQuestionsRefined   Stage = "questions_refined"
	StageComplete           Stage = "complete"
)

// RunState is the orchestrator's working memory for one run. Item order
// is significant: Questions[i] was generated from Contexts[i].
type RunState struct {
	ID            uuid.UUID
	Request       GenerationRequest
	Contexts      []ContextItem
	Questions     []QuestionItem
	Stage         Stage
	ContextRound  int
	QuestionRound int
	StartedAt     time.Time
}

// NewRunState returns the initial state of a run for req.
func NewRunState(req GenerationRequest) *RunState {
	return &RunState{
		ID:        uuid.New(),
		Request:   req,
		Stage:     StageStart,
		StartedAt: time.Now().UTC(),
	}
}

// Result snapshots the state as a RunResult.
func (s *RunState) Result() *RunResult {
	return &RunResult{
		ID:                      s.ID,
		Request:                 s.Request,
		Contexts:                append([]ContextItem(nil), s.Contexts...),
		Questions:               append([]QuestionItem(nil), s.Questions...),
		FinalStage:              s.Stage,
		TotalContextIterations:  s.ContextRound,
		TotalQuestionIterations: s.QuestionRound,
		StartedAt:               s.StartedAt,
		CompletedAt:             time.Now().UTC(),
	}
}

// RunResult is what a completed run hands back to its caller for persistence.
type RunResult struct {
	ID                      uuid.UUID         `json:"id"`
	Request                 GenerationRequest `json:"request"`
	Contexts                []ContextItem     `json:"contexts"`
	Questions               []QuestionItem    `json:"questions"`
	FinalStage              Stage             `json:"final_stage"`
	TotalContextIterations  int               `json:"total_context_iterations"`
	TotalQuestionIterations int               `json:"total_question_iterations"`
	StartedAt               time.Time         `json:"started_at"`
	CompletedAt             time.Time         `json:"completed_at"`
}

// FailedQuestions returns the indices of questions that were never generated.
func (r *RunResult) FailedQuestions() []int {
	var out []int
	for i, q := range r.Questions {
		if !q.HasPayload() {
			out = append(out, i)
		}
	}
	return out
}

// ForcedCount returns how many contexts and questions were force-approved.
func (r *RunResult) ForcedCount() (contexts, questions int) {
	for _, c := range r.Contexts {
		if c.Forced {
			contexts++
		}
	}
	for _, q := range r.Questions {
		if q.Forced {
			questions++
		}
	}
	return contexts, questions
}
