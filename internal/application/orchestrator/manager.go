package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dagforge/dagforge/internal/application/workers"
	"github.com/dagforge/dagforge/pkg/depgraph"
	"github.com/dagforge/dagforge/pkg/depgraph/resolver"
	"github.com/dagforge/dagforge/pkg/domain"
	"github.com/dagforge/dagforge/pkg/ports"
)

// Manager coordinates graph definitions and their executions.
type Manager struct {
	store     ports.Store
	eventBus  ports.EventBus
	metrics   ports.MetricsCollector
	validator *Validator
	pool      *workers.Pool
	executor  resolver.Executor
	logger    *zap.Logger

	maxTaskConcurrency int
	executionTimeout   time.Duration

	executions sync.Map // execution ID -> *executionContext
	active     atomic.Int64
}

// executionContext tracks a live execution and its cancel function.
type executionContext struct {
	executionID string
	graphID     string
	cancel      context.CancelFunc

	mu     sync.RWMutex
	status domain.ExecutionStatus
}

func (e *executionContext) setStatus(s domain.ExecutionStatus) {
	e.mu.Lock()
	e.status = s
	e.mu.Unlock()
}

func (e *executionContext) getStatus() domain.ExecutionStatus {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.status
}

// NewManager creates a new orchestration manager.
func NewManager(
	store ports.Store,
	eventBus ports.EventBus,
	metrics ports.MetricsCollector,
	pool *workers.Pool,
	executor resolver.Executor,
	logger *zap.Logger,
	maxTaskConcurrency int,
	executionTimeout time.Duration,
) *Manager {
	return &Manager{
		store:              store,
		eventBus:           eventBus,
		metrics:            metrics,
		validator:          NewValidator(),
		pool:               pool,
		executor:           executor,
		logger:             logger,
		maxTaskConcurrency: maxTaskConcurrency,
		executionTimeout:   executionTimeout,
	}
}

// SubmitGraph validates and persists a graph definition, returning its
// assigned ID.
func (m *Manager) SubmitGraph(ctx context.Context, name string, snap *depgraph.Snapshot) (string, error) {
	if err := m.validator.Validate(snap); err != nil {
		m.metrics.RecordGraphSubmitted("rejected")
		return "", fmt.Errorf("graph validation failed: %w", err)
	}

	now := time.Now()
	stored := &domain.StoredGraph{
		ID:        uuid.New().String(),
		Name:      name,
		Snapshot:  snap,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := m.store.SaveGraph(ctx, stored); err != nil {
		m.metrics.RecordGraphSubmitted("failed")
		return "", fmt.Errorf("failed to save graph: %w", err)
	}

	m.metrics.RecordGraphSubmitted("accepted")
	m.logger.Info("graph submitted",
		zap.String("graph_id", stored.ID),
		zap.String("name", name),
		zap.Int("nodes", len(snap.Nodes)),
		zap.Int("edges", len(snap.Edges)))

	return stored.ID, nil
}

// GetGraph returns a stored graph definition.
func (m *Manager) GetGraph(ctx context.Context, graphID string) (*domain.StoredGraph, error) {
	return m.store.GetGraph(ctx, graphID)
}

// ListGraphs returns all stored graph definitions.
func (m *Manager) ListGraphs(ctx context.Context) ([]*domain.StoredGraph, error) {
	return m.store.ListGraphs(ctx)
}

// DeleteGraph removes a stored graph definition.
func (m *Manager) DeleteGraph(ctx context.Context, graphID string) error {
	return m.store.DeleteGraph(ctx, graphID)
}

// Order returns the topological execution order for a stored graph.
func (m *Manager) Order(ctx context.Context, graphID string) ([]string, error) {
	g, _, err := m.liveGraph(ctx, graphID)
	if err != nil {
		return nil, err
	}
	return g.TopologicalSort()
}

// Plan returns the level-based parallel execution plan for a stored
// graph.
func (m *Manager) Plan(ctx context.Context, graphID string) ([][]string, error) {
	g, _, err := m.liveGraph(ctx, graphID)
	if err != nil {
		return nil, err
	}
	return g.ParallelGroups()
}

// DOT renders a stored graph in Graphviz DOT format.
func (m *Manager) DOT(ctx context.Context, graphID string) (string, error) {
	g, stored, err := m.liveGraph(ctx, graphID)
	if err != nil {
		return "", err
	}
	name := stored.Name
	if name == "" {
		name = "dagforge"
	}
	return g.DOT(name), nil
}

// liveGraph rebuilds the in-memory graph for a stored definition.
func (m *Manager) liveGraph(ctx context.Context, graphID string) (*depgraph.Graph, *domain.StoredGraph, error) {
	stored, err := m.store.GetGraph(ctx, graphID)
	if err != nil {
		return nil, nil, err
	}
	g, err := depgraph.FromSnapshot(stored.Snapshot)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to rebuild graph %s: %w", graphID, err)
	}
	return g, stored, nil
}

// StartExecution creates an execution for a stored graph and submits it
// to the worker pool.
func (m *Manager) StartExecution(ctx context.Context, graphID string) (string, error) {
	g, stored, err := m.liveGraph(ctx, graphID)
	if err != nil {
		return "", err
	}

	res := resolver.NewFromGraph(g, m.logger)

	executionID := uuid.New().String()
	now := time.Now()

	state := &domain.ExecutionState{
		ExecutionID: executionID,
		GraphID:     graphID,
		Status:      domain.ExecutionStatusSubmitted,
		TaskStates:  make(map[string]*domain.TaskState, len(stored.Snapshot.Nodes)),
		SubmittedAt: now,
	}
	for _, node := range stored.Snapshot.Nodes {
		state.TaskStates[node.ID] = &domain.TaskState{
			Name:   node.ID,
			Status: domain.ExecutionStatusPending,
		}
	}

	if err := m.store.SaveExecution(ctx, state); err != nil {
		return "", fmt.Errorf("failed to save execution: %w", err)
	}

	runCtx, cancel := context.WithTimeout(context.Background(), m.executionTimeout)

	execCtx := &executionContext{
		executionID: executionID,
		graphID:     graphID,
		cancel:      cancel,
		status:      domain.ExecutionStatusSubmitted,
	}
	m.executions.Store(executionID, execCtx)
	m.metrics.SetActiveExecutions(int(m.active.Add(1)))

	m.publishEvent(ctx, domain.EventTypeExecutionSubmitted, executionID, graphID, "", nil)

	err = m.pool.Submit(func(context.Context) {
		m.runExecution(runCtx, execCtx, state, res)
	})
	if err != nil {
		cancel()
		m.executions.Delete(executionID)
		m.metrics.SetActiveExecutions(int(m.active.Add(-1)))

		state.Status = domain.ExecutionStatusFailed
		state.Error = err.Error()
		completed := time.Now()
		state.CompletedAt = &completed
		if saveErr := m.store.SaveExecution(ctx, state); saveErr != nil {
			m.logger.Error("failed to save rejected execution",
				zap.String("execution_id", executionID),
				zap.Error(saveErr))
		}
		return "", fmt.Errorf("failed to submit execution: %w", err)
	}

	m.logger.Info("execution submitted",
		zap.String("execution_id", executionID),
		zap.String("graph_id", graphID))

	return executionID, nil
}

// runExecution drives one graph execution on a pool worker.
func (m *Manager) runExecution(ctx context.Context, execCtx *executionContext, state *domain.ExecutionState, res *resolver.Resolver) {
	defer func() {
		execCtx.cancel()
		m.executions.Delete(execCtx.executionID)
		m.metrics.SetActiveExecutions(int(m.active.Add(-1)))
	}()

	var stateMu sync.Mutex

	started := time.Now()
	stateMu.Lock()
	state.Status = domain.ExecutionStatusRunning
	state.StartedAt = &started
	stateMu.Unlock()
	execCtx.setStatus(domain.ExecutionStatusRunning)
	m.saveState(ctx, state, &stateMu)

	m.metrics.RecordExecutionStarted()
	m.publishEvent(ctx, domain.EventTypeExecutionStarted, execCtx.executionID, execCtx.graphID, "", nil)

	instrumented := m.instrument(execCtx.executionID, execCtx.graphID, state, &stateMu)
	_, err := res.ExecuteParallel(ctx, instrumented, m.maxTaskConcurrency)

	completed := time.Now()
	var status domain.ExecutionStatus
	var eventType domain.EventType
	var data map[string]any

	switch {
	case err != nil && ctx.Err() != nil:
		status = domain.ExecutionStatusCancelled
		eventType = domain.EventTypeExecutionCancelled
	case err != nil:
		status = domain.ExecutionStatusFailed
		eventType = domain.EventTypeExecutionFailed
		data = map[string]any{"error": err.Error()}
	default:
		status = domain.ExecutionStatusCompleted
		eventType = domain.EventTypeExecutionCompleted
	}

	stateMu.Lock()
	state.Status = status
	state.CompletedAt = &completed
	if err != nil {
		state.Error = err.Error()
	}
	stateMu.Unlock()
	execCtx.setStatus(status)

	// Save with a fresh context; the execution context may already be
	// cancelled or timed out.
	saveCtx, saveCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer saveCancel()
	m.saveState(saveCtx, state, &stateMu)

	m.metrics.RecordExecutionCompleted(string(status), completed.Sub(started))
	m.publishEvent(saveCtx, eventType, execCtx.executionID, execCtx.graphID, "", data)

	m.logger.Info("execution finished",
		zap.String("execution_id", execCtx.executionID),
		zap.String("graph_id", execCtx.graphID),
		zap.String("status", string(status)),
		zap.Duration("duration", completed.Sub(started)))
}

// instrument wraps the configured executor with per-task state updates,
// events, and metrics.
func (m *Manager) instrument(executionID, graphID string, state *domain.ExecutionState, stateMu *sync.Mutex) resolver.Executor {
	return resolver.ExecutorFunc(func(ctx context.Context, name string, task any) (any, error) {
		start := time.Now()

		stateMu.Lock()
		ts := state.TaskStates[name]
		if ts == nil {
			ts = &domain.TaskState{Name: name}
			state.TaskStates[name] = ts
		}
		ts.Status = domain.ExecutionStatusRunning
		ts.StartedAt = &start
		stateMu.Unlock()

		m.publishEvent(ctx, domain.EventTypeTaskStarted, executionID, graphID, name, nil)

		result, err := m.executor.Execute(ctx, name, task)

		completed := time.Now()
		duration := completed.Sub(start)

		stateMu.Lock()
		ts.CompletedAt = &completed
		if err != nil {
			ts.Status = domain.ExecutionStatusFailed
			ts.Error = err.Error()
		} else {
			ts.Status = domain.ExecutionStatusCompleted
			ts.Result = result
		}
		stateMu.Unlock()

		if err != nil {
			m.metrics.RecordTaskExecuted("failed", duration)
			m.publishEvent(ctx, domain.EventTypeTaskFailed, executionID, graphID, name,
				map[string]any{"error": err.Error()})
			return nil, err
		}

		m.metrics.RecordTaskExecuted("completed", duration)
		m.publishEvent(ctx, domain.EventTypeTaskCompleted, executionID, graphID, name, nil)

		// Persist progress so status queries see per-task results while
		// the execution is still running.
		m.saveState(ctx, state, stateMu)

		return result, nil
	})
}

// saveState persists execution state under the state mutex so stores
// never observe a half-updated task map.
func (m *Manager) saveState(ctx context.Context, state *domain.ExecutionState, stateMu *sync.Mutex) {
	stateMu.Lock()
	err := m.store.SaveExecution(ctx, state)
	stateMu.Unlock()
	if err != nil {
		m.logger.Error("failed to save execution state",
			zap.String("execution_id", state.ExecutionID),
			zap.Error(err))
	}
}

// GetExecution returns the stored state of an execution.
func (m *Manager) GetExecution(ctx context.Context, executionID string) (*domain.ExecutionState, error) {
	return m.store.GetExecution(ctx, executionID)
}

// ListExecutions returns executions, optionally filtered by graph ID.
func (m *Manager) ListExecutions(ctx context.Context, graphID string) ([]*domain.ExecutionState, error) {
	return m.store.ListExecutions(ctx, graphID)
}

// CancelExecution cancels a running execution.
func (m *Manager) CancelExecution(ctx context.Context, executionID string) error {
	value, ok := m.executions.Load(executionID)
	if !ok {
		state, err := m.store.GetExecution(ctx, executionID)
		if err != nil {
			return err
		}
		if state.Status.Terminal() {
			return fmt.Errorf("execution %s is already %s", executionID, state.Status)
		}
		return fmt.Errorf("execution %s is not running", executionID)
	}

	execCtx := value.(*executionContext)
	if execCtx.getStatus().Terminal() {
		return fmt.Errorf("execution %s is already %s", executionID, execCtx.getStatus())
	}

	m.logger.Info("cancelling execution",
		zap.String("execution_id", executionID),
		zap.String("graph_id", execCtx.graphID))

	execCtx.cancel()
	return nil
}

// ActiveExecutions returns the number of executions currently tracked.
func (m *Manager) ActiveExecutions() int {
	return int(m.active.Load())
}

// publishEvent publishes a lifecycle event, routing task events to the
// task topic.
func (m *Manager) publishEvent(ctx context.Context, eventType domain.EventType, executionID, graphID, taskName string, data map[string]any) {
	topic := domain.TopicExecutionEvents
	switch eventType {
	case domain.EventTypeTaskStarted, domain.EventTypeTaskCompleted, domain.EventTypeTaskFailed:
		topic = domain.TopicTaskEvents
	}

	event := domain.Event{
		ID:          uuid.New().String(),
		Type:        eventType,
		ExecutionID: executionID,
		GraphID:     graphID,
		TaskName:    taskName,
		Timestamp:   time.Now(),
		Data:        data,
	}

	if err := m.eventBus.Publish(ctx, topic, event); err != nil {
		m.logger.Error("failed to publish event",
			zap.String("type", string(eventType)),
			zap.String("execution_id", executionID),
			zap.Error(err))
	}
}

// Shutdown cancels all live executions.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.logger.Info("shutting down orchestration manager")

	m.executions.Range(func(_, value any) bool {
		execCtx := value.(*executionContext)
		execCtx.cancel()
		return true
	})

	return nil
}
