// Package resolver executes named tasks in dependency order against a
// depgraph level plan.
//
// The resolver only sequences opaque task handles; what a task does is
// decided entirely by the Executor that runs it. Sequential execution is
// fail-fast. Parallel execution runs one level at a time, bounded by a
// weighted semaphore, and always drains the current level before a
// failure is surfaced — no later level ever starts.
package resolver
