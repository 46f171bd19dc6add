// Package service contains the application use cases. GenerationService
// turns caller input into a validated generation request, runs the
// pipeline synchronously or as a background job, and persists the
// finished run.
package service
