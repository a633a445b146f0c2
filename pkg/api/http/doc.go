// Package http provides the HTTP REST API implementation.
//
// The HTTP server exposes endpoints for:
//   - Graph submission and management
//   - Ordering, parallel-plan, and DOT queries
//   - Execution start, status, and cancellation
//   - Health checks
//   - Prometheus metrics
package http
