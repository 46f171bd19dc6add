// Package admission provides the rate-limited admission gate that guards
// calls to the external generative service.
//
// A Gate hands out monotonically numbered tickets and admits them in
// strict arrival order, never holding more than a configured number of
// tickets at once and never admitting two tickets closer together than a
// configured interval. The gate only delays; it has no timeout of its
// own. Callers bound waiting with a context.
//
// A gate is constructed per run and passed to the pipeline, so no state
// leaks from one run into the next.
package admission
