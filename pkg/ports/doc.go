// Package ports defines the interfaces the application layer depends on.
// Concrete implementations live under pkg/adapters.
package ports
