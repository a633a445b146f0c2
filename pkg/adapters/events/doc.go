// Package events provides EventBus implementations.
//
// Implementations:
//   - redis: Redis Streams with consumer groups
//   - memory: In-memory for development and testing
package events
