// Package api exposes the generation service over HTTP: synchronous and
// queued generation runs, run and job lookup, and a health check.
package api
