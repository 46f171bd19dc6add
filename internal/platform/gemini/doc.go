// Package gemini implements generation.Client on top of Google's Gemini API.
//
// This package is an infrastructure adapter: it turns a generation.Request
// into a structured-output call, asking the model for JSON that matches the
// schema of the requested Shape, and decodes the answer into the caller's
// response type. Nothing outside this package depends on genai types.
//
// Error handling:
//   - call failures are retried with exponential backoff and jitter
//   - responses that are empty or do not decode are retried the same way
//   - safety blocks are permanent and returned at once, wrapping
//     generation.ErrContentBlocked
package gemini
