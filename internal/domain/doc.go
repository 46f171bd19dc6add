// Package domain contains the core entities of the question-generation
// pipeline: the immutable GenerationRequest, the context and question
// items that flow through the review/refine loop, the structured MCQ
// payload, and the RunState/RunResult of a single run. It is independent
// of the generative service, transport, and storage that surround it.
//
// Item transitions are pure: every With*/Force* method returns a new
// value and never mutates the receiver or shares its slices.
package domain
