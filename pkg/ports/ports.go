package ports

import (
	"context"
	"errors"
	"time"

	"github.com/dagforge/dagforge/pkg/domain"
)

// ErrNotFound is wrapped by Store implementations when a graph or
// execution does not exist.
var ErrNotFound = errors.New("not found")

// Store persists graph definitions and execution records.
type Store interface {
	SaveGraph(ctx context.Context, graph *domain.StoredGraph) error
	GetGraph(ctx context.Context, id string) (*domain.StoredGraph, error)
	DeleteGraph(ctx context.Context, id string) error
	ListGraphs(ctx context.Context) ([]*domain.StoredGraph, error)

	SaveExecution(ctx context.Context, state *domain.ExecutionState) error
	GetExecution(ctx context.Context, id string) (*domain.ExecutionState, error)
	ListExecutions(ctx context.Context, graphID string) ([]*domain.ExecutionState, error)
}

// EventHandler processes one event delivered by an EventBus subscription.
type EventHandler func(ctx context.Context, event domain.Event) error

// EventBus publishes and delivers lifecycle events by topic.
type EventBus interface {
	Publish(ctx context.Context, topic string, event domain.Event) error
	Subscribe(ctx context.Context, topic string, handler EventHandler) error
	Unsubscribe(ctx context.Context, topic string) error
	Close() error
}

// MetricsCollector records service metrics.
type MetricsCollector interface {
	RecordGraphSubmitted(status string)
	RecordExecutionStarted()
	RecordExecutionCompleted(status string, duration time.Duration)
	RecordTaskExecuted(status string, duration time.Duration)
	SetActiveExecutions(count int)
	SetQueueDepth(depth int)
	RecordWorkerPoolStatus(idle, busy, stopped int)
}
