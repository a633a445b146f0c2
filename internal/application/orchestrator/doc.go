// Package orchestrator implements the core coordination logic of the
// service.
//
// The manager owns graph definitions and their executions:
//   - Validating submitted graph snapshots (including cycle rejection)
//   - Serving ordering, level-plan, and DOT queries
//   - Managing execution lifecycle (start, monitor, cancel)
//   - Publishing lifecycle events to the event bus
//   - Tracking execution state via the store
//
// Executions run on the worker pool; task-level concurrency within one
// execution is bounded by the resolver.
package orchestrator
