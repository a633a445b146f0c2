package domain

import (
	"time"

	"github.com/dagforge/dagforge/pkg/depgraph"
)

// ExecutionStatus is the lifecycle state of an execution or of a single
// task within it.
type ExecutionStatus string

const (
	ExecutionStatusPending   ExecutionStatus = "pending"
	ExecutionStatusSubmitted ExecutionStatus = "submitted"
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"
	ExecutionStatusCancelled ExecutionStatus = "cancelled"
)

// Terminal reports whether the status is a terminal one.
func (s ExecutionStatus) Terminal() bool {
	switch s {
	case ExecutionStatusCompleted, ExecutionStatusFailed, ExecutionStatusCancelled:
		return true
	}
	return false
}

// StoredGraph is a named graph definition kept in storage as a structural
// snapshot.
type StoredGraph struct {
	ID        string             `json:"id"`
	Name      string             `json:"name,omitempty"`
	Snapshot  *depgraph.Snapshot `json:"snapshot"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// TaskState tracks one task within an execution.
type TaskState struct {
	Name        string          `json:"name"`
	Status      ExecutionStatus `json:"status"`
	Result      any             `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// ExecutionState is the full record of one graph execution. Task results
// live only here; the resolver itself keeps nothing across calls.
type ExecutionState struct {
	ExecutionID string                `json:"execution_id"`
	GraphID     string                `json:"graph_id"`
	Status      ExecutionStatus       `json:"status"`
	TaskStates  map[string]*TaskState `json:"task_states"`
	Error       string                `json:"error,omitempty"`
	SubmittedAt time.Time             `json:"submitted_at"`
	StartedAt   *time.Time            `json:"started_at,omitempty"`
	CompletedAt *time.Time            `json:"completed_at,omitempty"`
}

// EventType identifies a lifecycle event.
type EventType string

const (
	EventTypeExecutionSubmitted EventType = "execution.submitted"
	EventTypeExecutionStarted   EventType = "execution.started"
	EventTypeExecutionCompleted EventType = "execution.completed"
	EventTypeExecutionFailed    EventType = "execution.failed"
	EventTypeExecutionCancelled EventType = "execution.cancelled"
	EventTypeTaskStarted        EventType = "task.started"
	EventTypeTaskCompleted      EventType = "task.completed"
	EventTypeTaskFailed         EventType = "task.failed"
)

// Event bus topics.
const (
	TopicExecutionEvents = "execution.events"
	TopicTaskEvents      = "task.events"
)

// Event is one lifecycle event published on the event bus.
type Event struct {
	ID          string         `json:"id"`
	Type        EventType      `json:"type"`
	ExecutionID string         `json:"execution_id"`
	GraphID     string         `json:"graph_id,omitempty"`
	TaskName    string         `json:"task_name,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
	Data        map[string]any `json:"data,omitempty"`
}
