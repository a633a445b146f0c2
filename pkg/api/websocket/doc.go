// Package websocket provides real-time event streaming via WebSocket.
//
// Clients can connect to /api/v1/executions/:id/ws to receive real-time
// updates about a running execution and its tasks.
package websocket
