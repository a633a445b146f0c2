// Package storage provides Store implementations.
//
// Implementations:
//   - redis: Redis with JSON serialization and TTL on execution records
//   - memory: In-memory for development and testing
package storage
