// Package events carries progress notifications out of a generation run.
//
// The orchestrator emits a RunEvent when a run starts, each time it reaches
// a new stage, and when it completes or fails. Emission never affects the
// run itself: emitter errors are logged and dropped by the caller.
//
// The primary components are:
// - RunEvent: one progress notification with a JSON payload
// - EventHandler: interface for components that consume events
// - EventEmitter: interface for components that publish events
// - InMemoryEventEmitter and LoggingHandler: the in-process implementations
package events
