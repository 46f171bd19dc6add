package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/scry-mcq/internal/admission"
	"github.com/phrazzld/scry-mcq/internal/domain"
	"github.com/phrazzld/scry-mcq/internal/events"
	"github.com/phrazzld/scry-mcq/internal/redact"
)

// Orchestrator runs generation requests through the context and question
// stages. It holds no per-run state and is safe for concurrent use; each
// Run gets its own admission gate.
type Orchestrator struct {
	contexts  ContextEngine
	questions QuestionEngine
	emitter   events.EventEmitter
	logger    *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithEmitter sends run progress events to emitter.
func WithEmitter(emitter events.EventEmitter) Option {
	return func(o *Orchestrator) {
		o.emitter = emitter
	}
}

// NewOrchestrator creates an Orchestrator over the given engines.
func NewOrchestrator(
	contexts ContextEngine,
	questions QuestionEngine,
	logger *slog.Logger,
	opts ...Option,
) (*Orchestrator, error) {
	if contexts == nil {
		return nil, ErrNilContextEngine
	}
	if questions == nil {
		return nil, ErrNilQuestionEngine
	}
	if logger == nil {
		return nil, ErrNilLogger
	}

	o := &Orchestrator{
		contexts:  contexts,
		questions: questions,
		logger:    logger.With("component", "orchestrator"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Run executes one generation run and blocks until it completes or aborts.
// An invalid request fails before any external call is made.
func (o *Orchestrator) Run(ctx context.Context, req domain.GenerationRequest) (*domain.RunResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	gate := admission.NewGate(admission.Config{
		MaxConcurrent: req.MaxConcurrency,
		MinInterval:   req.RequestDelay,
	}, o.logger)
	return o.RunWithGate(ctx, req, gate)
}

// RunWithGate is Run with a caller-supplied gate. The gate must not be
// shared with another run in progress.
func (o *Orchestrator) RunWithGate(
	ctx context.Context,
	req domain.GenerationRequest,
	gate *admission.Gate,
) (*domain.RunResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	state := domain.NewRunState(req)
	r := &run{
		o:      o,
		req:    req,
		state:  state,
		gate:   gate,
		rounds: req.Rounds(),
		logger: o.logger.With("run_id", state.ID),
	}
	return r.execute(ctx)
}

// run is the working memory of one Run call.
type run struct {
	o      *Orchestrator
	req    domain.GenerationRequest
	state  *domain.RunState
	gate   *admission.Gate
	rounds int
	logger *slog.Logger
}

func (r *run) execute(ctx context.Context) (*domain.RunResult, error) {
	start := time.Now()
	r.logger.InfoContext(ctx, "generation run started",
		"item_count", r.req.ItemCount,
		"bloom_level", r.req.BloomLevel,
		"model", r.req.Model,
		"max_iterations", r.req.MaxIterations,
		"max_rounds", r.rounds,
		"max_concurrency", r.req.MaxConcurrency,
		"request_delay", r.req.RequestDelay)
	r.emit(ctx, events.TypeRunStarted, "")

	for r.state.Stage != domain.StageComplete {
		next, err := r.step(ctx)
		if err != nil {
			r.logger.ErrorContext(ctx, "generation run aborted",
				"stage", r.state.Stage,
				"error", redact.Error(err))
			r.emit(ctx, events.TypeRunFailed, redact.Error(err))
			return nil, err
		}
		r.logger.DebugContext(ctx, "stage transition", "from", r.state.Stage, "to", next)
		r.state.Stage = next
		r.emit(ctx, events.TypeStageReached, "")
	}

	result := r.state.Result()
	forcedContexts, forcedQuestions := result.ForcedCount()
	r.logger.InfoContext(ctx, "generation run completed",
		"contexts", len(result.Contexts),
		"questions", len(result.Questions),
		"failed_questions", len(result.FailedQuestions()),
		"forced_contexts", forcedContexts,
		"forced_questions", forcedQuestions,
		"context_rounds", result.TotalContextIterations,
		"question_rounds", result.TotalQuestionIterations,
		"duration_ms", time.Since(start).Milliseconds())
	r.emit(ctx, events.TypeRunCompleted, "")
	return result, nil
}

// step performs the work of leaving the current stage and returns the
// stage it arrives at.
func (r *run) step(ctx context.Context) (domain.Stage, error) {
	switch r.state.Stage {
	case domain.StageStart:
		return domain.StageContextsGenerated, r.generateContexts(ctx)

	case domain.StageContextsGenerated, domain.StageContextsRefined:
		return domain.StageContextsReviewed, r.reviewContexts(ctx)

	case domain.StageContextsReviewed:
		if r.state.ContextRound < r.rounds && anyUnsettled(r.state.Contexts) {
			return domain.StageContextsRefined, r.refineContexts(ctx)
		}
		r.closeContextLoop(ctx)
		return domain.StageQuestionsGenerated, r.generateQuestions(ctx)

	case domain.StageQuestionsGenerated, domain.StageQuestionsRefined:
		return domain.StageQuestionsReviewed, r.reviewQuestions(ctx)

	case domain.StageQuestionsReviewed:
		if r.state.QuestionRound < r.rounds && anyUnsettled(r.state.Questions) {
			return domain.StageQuestionsRefined, r.refineQuestions(ctx)
		}
		r.closeQuestionLoop(ctx)
		return domain.StageComplete, nil
	}
	return "", fmt.Errorf("unknown run stage %q", r.state.Stage)
}

func (r *run) generateContexts(ctx context.Context) error {
	var contexts []string
	err := r.gate.Do(ctx, func(ctx context.Context) error {
		var err error
		contexts, err = r.o.contexts.GenerateContexts(ctx, r.req)
		return err
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %w", ErrContextGeneration, err)
	}

	switch n := len(contexts); {
	case n == 0:
		return ErrNoContexts
	case n > r.req.ItemCount:
		r.logger.WarnContext(ctx, "more contexts than requested, truncating",
			"requested", r.req.ItemCount,
			"received", n)
		contexts = contexts[:r.req.ItemCount]
	case n < r.req.ItemCount:
		r.logger.WarnContext(ctx, "fewer contexts than requested",
			"requested", r.req.ItemCount,
			"received", n)
	}

	items := make([]domain.ContextItem, len(contexts))
	for i, c := range contexts {
		items[i] = domain.NewContextItem(c)
	}
	r.state.Contexts = items
	return nil
}

func (r *run) reviewContexts(ctx context.Context) error {
	next, err := reviewAll(ctx, r.gate, r.state.Contexts,
		func(ctx context.Context, _ int, c domain.ContextItem) (domain.Review, error) {
			return r.o.contexts.ReviewContext(ctx, r.req, c.Content)
		}, r.logger.With("stage", "context_review"))
	if err != nil {
		return err
	}
	r.state.Contexts = next
	return nil
}

func (r *run) refineContexts(ctx context.Context) error {
	next, err := refineAll(ctx, r.gate, r.state.Contexts, r.req.MaxIterations,
		func(ctx context.Context, _ int, c domain.ContextItem) (domain.ContextItem, error) {
			content, err := r.o.contexts.RefineContext(ctx, r.req, c)
			if err != nil {
				return c, err
			}
			return c.WithRefinement(content), nil
		}, r.logger.With("stage", "context_refine"))
	if err != nil {
		return err
	}
	r.state.Contexts = next
	r.state.ContextRound++
	return nil
}

func (r *run) closeContextLoop(ctx context.Context) {
	var forced int
	r.state.Contexts, forced = forceUnsettled(r.state.Contexts)
	if forced > 0 {
		r.logger.InfoContext(ctx, "context round budget exhausted, forced approval",
			"forced", forced,
			"rounds", r.state.ContextRound)
	}
}

// generateQuestions writes one question per context, approved or not. A
// failed generation keeps its slot as a settled item without a payload.
func (r *run) generateQuestions(ctx context.Context) error {
	outcomes, err := RunStage(ctx, r.gate, r.state.Contexts, Step[domain.ContextItem, domain.QuestionItem]{
		Call: func(ctx context.Context, i int, c domain.ContextItem) (domain.QuestionItem, error) {
			q, err := r.o.questions.GenerateQuestion(ctx, r.req, c.Content)
			if err != nil {
				return domain.QuestionItem{}, err
			}
			return domain.NewQuestionItem(i, q), nil
		},
	})
	if err != nil {
		return err
	}

	questions := make([]domain.QuestionItem, len(outcomes))
	var firstErr error
	failed := 0
	for i, oc := range outcomes {
		if oc.Err != nil {
			msg := redact.Error(oc.Err)
			r.logger.WarnContext(ctx, "question generation failed",
				"index", i,
				"error", msg)
			questions[i] = domain.FailedQuestionItem(i, "generation failed: "+msg)
			if firstErr == nil {
				firstErr = oc.Err
			}
			failed++
			continue
		}
		questions[i] = oc.Value
	}
	if failed == len(questions) {
		return fmt.Errorf("%w: %w", ErrNoQuestions, firstErr)
	}
	r.state.Questions = questions
	return nil
}

// contextFor is the text of the context question i was generated from.
func (r *run) contextFor(q domain.QuestionItem) string {
	return r.state.Contexts[q.SourceContextIndex].Content
}

func (r *run) reviewQuestions(ctx context.Context) error {
	next, err := reviewAll(ctx, r.gate, r.state.Questions,
		func(ctx context.Context, _ int, q domain.QuestionItem) (domain.Review, error) {
			return r.o.questions.ReviewQuestion(ctx, r.req, r.contextFor(q), q.Question)
		}, r.logger.With("stage", "question_review"))
	if err != nil {
		return err
	}
	r.state.Questions = next
	return nil
}

func (r *run) refineQuestions(ctx context.Context) error {
	next, err := refineAll(ctx, r.gate, r.state.Questions, r.req.MaxIterations,
		func(ctx context.Context, _ int, q domain.QuestionItem) (domain.QuestionItem, error) {
			mcq, err := r.o.questions.RefineQuestion(ctx, r.req, r.contextFor(q), q)
			if err != nil {
				return q, err
			}
			return q.WithRefinement(mcq), nil
		}, r.logger.With("stage", "question_refine"))
	if err != nil {
		return err
	}
	r.state.Questions = next
	r.state.QuestionRound++
	return nil
}

func (r *run) closeQuestionLoop(ctx context.Context) {
	var forced int
	r.state.Questions, forced = forceUnsettled(r.state.Questions)
	if forced > 0 {
		r.logger.InfoContext(ctx, "question round budget exhausted, forced approval",
			"forced", forced,
			"rounds", r.state.QuestionRound)
	}
}

// emit publishes a run event. Emission failures are logged and otherwise
// ignored.
func (r *run) emit(ctx context.Context, eventType, errText string) {
	if r.o.emitter == nil {
		return
	}
	event, err := events.NewRunEvent(eventType, r.state.ID, string(r.state.Stage), r.progress(errText))
	if err != nil {
		r.logger.WarnContext(ctx, "failed to build run event", "event_type", eventType, "error", err)
		return
	}
	if err := r.o.emitter.EmitEvent(ctx, event); err != nil {
		r.logger.WarnContext(ctx, "failed to emit run event", "event_type", eventType, "error", err)
	}
}

func (r *run) progress(errText string) events.Progress {
	p := events.Progress{
		Contexts:  len(r.state.Contexts),
		Questions: len(r.state.Questions),
		Error:     errText,
	}

	// Round and counts describe the phase currently in flight.
	if len(r.state.Questions) > 0 {
		p.Round = r.state.QuestionRound
		for _, q := range r.state.Questions {
			tally(&p, q.Approved, q.Forced, q.HasPayload())
		}
		return p
	}
	p.Round = r.state.ContextRound
	for _, c := range r.state.Contexts {
		tally(&p, c.Approved, c.Forced, true)
	}
	return p
}

func tally(p *events.Progress, approved, forced, ok bool) {
	switch {
	case !ok:
		p.Failed++
	case forced:
		p.Forced++
	case approved:
		p.Approved++
	default:
		p.Pending++
	}
}
