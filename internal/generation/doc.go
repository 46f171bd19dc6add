// Package generation defines the boundary between the pipeline and the
// external generative service (Gemini), and the engines built on it.
//
// Client is the opaque request/response contract: one formatted
// instruction in, one JSON document of a known Shape out. Engine turns
// pipeline operations (generate, review, refine for contexts and
// questions) into prompts, calls the Client, and validates what comes
// back so the rest of the pipeline only sees well-formed domain values.
package generation
