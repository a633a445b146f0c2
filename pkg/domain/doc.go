// Package domain holds the shared types of the dagforge service: stored
// graph definitions, execution state, and lifecycle events.
package domain
