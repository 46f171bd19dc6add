// Package store defines the persistence port for finished generation runs.
// The pipeline never talks to storage; the service layer hands a
// completed RunResult to a RunStore implementation.
package store
