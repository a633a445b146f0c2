// Package workers implements the worker pool that runs graph executions.
//
// The pool manages a fixed number of goroutines consuming a bounded job
// queue. One job is one full graph execution; task-level concurrency
// inside an execution is bounded separately by the resolver. The health
// monitor tracks worker status and logs metrics on an interval.
package workers
