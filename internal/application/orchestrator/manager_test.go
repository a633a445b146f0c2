package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dagforge/dagforge/internal/application/workers"
	"github.com/dagforge/dagforge/pkg/adapters/events/memory"
	memorystorage "github.com/dagforge/dagforge/pkg/adapters/storage/memory"
	"github.com/dagforge/dagforge/pkg/depgraph"
	"github.com/dagforge/dagforge/pkg/depgraph/resolver"
	"github.com/dagforge/dagforge/pkg/domain"
	"github.com/dagforge/dagforge/pkg/ports"
)

type nopMetrics struct{}

func (nopMetrics) RecordGraphSubmitted(string)                    {}
func (nopMetrics) RecordExecutionStarted()                        {}
func (nopMetrics) RecordExecutionCompleted(string, time.Duration) {}
func (nopMetrics) RecordTaskExecuted(string, time.Duration)       {}
func (nopMetrics) SetActiveExecutions(int)                        {}
func (nopMetrics) SetQueueDepth(int)                              {}
func (nopMetrics) RecordWorkerPoolStatus(int, int, int)           {}

func newTestManager(t *testing.T, executor resolver.Executor) *Manager {
	t.Helper()

	if executor == nil {
		executor = resolver.ExecutorFunc(func(ctx context.Context, name string, task any) (any, error) {
			return task, nil
		})
	}

	pool := workers.NewPool(2, 8, nopMetrics{}, zap.NewNop(), time.Minute)
	if err := pool.Start(); err != nil {
		t.Fatalf("pool.Start: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = pool.Shutdown(ctx)
	})

	return NewManager(
		memorystorage.NewStore(),
		memory.NewEventBus(),
		nopMetrics{},
		pool,
		executor,
		zap.NewNop(),
		2,
		30*time.Second,
	)
}

func chainSnapshot() *depgraph.Snapshot {
	return &depgraph.Snapshot{
		Nodes: []depgraph.NodeSnapshot{
			{ID: "a", Data: "step-a"},
			{ID: "b", Data: "step-b"},
			{ID: "c", Data: "step-c"},
		},
		Edges: []depgraph.EdgeSnapshot{
			{Source: "b", Target: "a"},
			{Source: "c", Target: "b"},
		},
	}
}

func waitTerminal(t *testing.T, m *Manager, executionID string) *domain.ExecutionState {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		state, err := m.GetExecution(context.Background(), executionID)
		if err != nil {
			t.Fatalf("GetExecution: %v", err)
		}
		if state.Status.Terminal() {
			return state
		}
		if time.Now().After(deadline) {
			t.Fatalf("execution stuck in status %s", state.Status)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSubmitGraphAndQueries(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, nil)

	graphID, err := m.SubmitGraph(ctx, "pipeline", chainSnapshot())
	if err != nil {
		t.Fatalf("SubmitGraph: %v", err)
	}

	stored, err := m.GetGraph(ctx, graphID)
	if err != nil {
		t.Fatalf("GetGraph: %v", err)
	}
	if stored.Name != "pipeline" {
		t.Errorf("Name = %s, want pipeline", stored.Name)
	}

	order, err := m.Order(ctx, graphID)
	if err != nil {
		t.Fatalf("Order: %v", err)
	}
	if !reflect.DeepEqual(order, []string{"a", "b", "c"}) {
		t.Errorf("order = %v, want [a b c]", order)
	}

	plan, err := m.Plan(ctx, graphID)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if !reflect.DeepEqual(plan, [][]string{{"a"}, {"b"}, {"c"}}) {
		t.Errorf("plan = %v, want [[a] [b] [c]]", plan)
	}

	dot, err := m.DOT(ctx, graphID)
	if err != nil {
		t.Fatalf("DOT: %v", err)
	}
	if !strings.HasPrefix(dot, "digraph pipeline {") {
		t.Errorf("DOT output missing header: %q", dot)
	}
	if !strings.Contains(dot, `"b" -> "a";`) {
		t.Errorf("DOT output missing edge: %q", dot)
	}

	graphs, err := m.ListGraphs(ctx)
	if err != nil {
		t.Fatalf("ListGraphs: %v", err)
	}
	if len(graphs) != 1 {
		t.Errorf("ListGraphs returned %d, want 1", len(graphs))
	}

	if err := m.DeleteGraph(ctx, graphID); err != nil {
		t.Fatalf("DeleteGraph: %v", err)
	}
	if _, err := m.GetGraph(ctx, graphID); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("GetGraph after delete = %v, want ErrNotFound", err)
	}
}

func TestSubmitGraphRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, nil)

	snap := &depgraph.Snapshot{
		Nodes: []depgraph.NodeSnapshot{{ID: "a"}, {ID: "b"}},
		Edges: []depgraph.EdgeSnapshot{
			{Source: "a", Target: "b"},
			{Source: "b", Target: "a"},
		},
	}
	if _, err := m.SubmitGraph(ctx, "cyclic", snap); err == nil {
		t.Fatal("cyclic graph accepted")
	}

	graphs, err := m.ListGraphs(ctx)
	if err != nil {
		t.Fatalf("ListGraphs: %v", err)
	}
	if len(graphs) != 0 {
		t.Errorf("rejected graph was stored: %d graphs", len(graphs))
	}
}

func TestStartExecutionCompletes(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, nil)

	graphID, err := m.SubmitGraph(ctx, "pipeline", chainSnapshot())
	if err != nil {
		t.Fatalf("SubmitGraph: %v", err)
	}

	executionID, err := m.StartExecution(ctx, graphID)
	if err != nil {
		t.Fatalf("StartExecution: %v", err)
	}

	state := waitTerminal(t, m, executionID)
	if state.Status != domain.ExecutionStatusCompleted {
		t.Fatalf("Status = %s, want completed (error: %s)", state.Status, state.Error)
	}
	for name, ts := range state.TaskStates {
		if ts.Status != domain.ExecutionStatusCompleted {
			t.Errorf("task %s status = %s, want completed", name, ts.Status)
		}
	}
	if state.TaskStates["a"].Result != "step-a" {
		t.Errorf("task a result = %v, want step-a", state.TaskStates["a"].Result)
	}

	executions, err := m.ListExecutions(ctx, graphID)
	if err != nil {
		t.Fatalf("ListExecutions: %v", err)
	}
	if len(executions) != 1 {
		t.Errorf("ListExecutions returned %d, want 1", len(executions))
	}
}

func TestStartExecutionUnknownGraph(t *testing.T) {
	m := newTestManager(t, nil)

	_, err := m.StartExecution(context.Background(), "ghost")
	if !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestExecutionFailure(t *testing.T) {
	ctx := context.Background()
	failing := resolver.ExecutorFunc(func(ctx context.Context, name string, task any) (any, error) {
		if name == "b" {
			return nil, fmt.Errorf("step b exploded")
		}
		return task, nil
	})
	m := newTestManager(t, failing)

	graphID, err := m.SubmitGraph(ctx, "pipeline", chainSnapshot())
	if err != nil {
		t.Fatalf("SubmitGraph: %v", err)
	}
	executionID, err := m.StartExecution(ctx, graphID)
	if err != nil {
		t.Fatalf("StartExecution: %v", err)
	}

	state := waitTerminal(t, m, executionID)
	if state.Status != domain.ExecutionStatusFailed {
		t.Fatalf("Status = %s, want failed", state.Status)
	}
	if state.Error == "" {
		t.Error("failed execution carries no error")
	}
	if got := state.TaskStates["a"].Status; got != domain.ExecutionStatusCompleted {
		t.Errorf("task a status = %s, want completed", got)
	}
	if got := state.TaskStates["b"].Status; got != domain.ExecutionStatusFailed {
		t.Errorf("task b status = %s, want failed", got)
	}
	if got := state.TaskStates["c"].Status; got != domain.ExecutionStatusPending {
		t.Errorf("task c status = %s, want pending (never started)", got)
	}
}

func TestCancelExecution(t *testing.T) {
	ctx := context.Background()
	blocking := resolver.ExecutorFunc(func(ctx context.Context, name string, task any) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	m := newTestManager(t, blocking)

	graphID, err := m.SubmitGraph(ctx, "pipeline", chainSnapshot())
	if err != nil {
		t.Fatalf("SubmitGraph: %v", err)
	}
	executionID, err := m.StartExecution(ctx, graphID)
	if err != nil {
		t.Fatalf("StartExecution: %v", err)
	}

	// Let the execution reach its first blocking task.
	deadline := time.Now().Add(2 * time.Second)
	for {
		state, err := m.GetExecution(ctx, executionID)
		if err != nil {
			t.Fatalf("GetExecution: %v", err)
		}
		if state.Status == domain.ExecutionStatusRunning {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("execution never started running: %s", state.Status)
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := m.CancelExecution(ctx, executionID); err != nil {
		t.Fatalf("CancelExecution: %v", err)
	}

	state := waitTerminal(t, m, executionID)
	if state.Status != domain.ExecutionStatusCancelled {
		t.Fatalf("Status = %s, want cancelled", state.Status)
	}

	// Cancelling a finished execution fails cleanly.
	if err := m.CancelExecution(ctx, executionID); err == nil {
		t.Error("cancelling a terminal execution did not fail")
	}
}
