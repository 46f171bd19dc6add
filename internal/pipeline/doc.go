// Package pipeline drives one generation run from source text to a set of
// reviewed multiple-choice questions.
//
// A run walks a fixed state machine. Contexts are generated in one call,
// then reviewed and refined in rounds until every context is approved or
// the iteration limits are reached. One question is generated per context
// and goes through the same review and refine loop. Every per-item call
// inside a stage is fanned out concurrently by RunStage and throttled by a
// request-scoped admission.Gate; results are always merged back by item
// index, so Questions[i] is the question for Contexts[i].
package pipeline
