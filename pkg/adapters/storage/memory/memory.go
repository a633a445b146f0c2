package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/dagforge/dagforge/pkg/domain"
	"github.com/dagforge/dagforge/pkg/ports"
)

// Store implements ports.Store using in-memory maps. Intended for
// development and testing.
type Store struct {
	mu         sync.RWMutex
	graphs     map[string]*domain.StoredGraph
	executions map[string]*domain.ExecutionState
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		graphs:     make(map[string]*domain.StoredGraph),
		executions: make(map[string]*domain.ExecutionState),
	}
}

// SaveGraph stores a graph definition, replacing any previous version.
func (s *Store) SaveGraph(ctx context.Context, graph *domain.StoredGraph) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *graph
	s.graphs[graph.ID] = &copied
	return nil
}

// GetGraph retrieves a graph definition.
func (s *Store) GetGraph(ctx context.Context, id string) (*domain.StoredGraph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.graphs[id]
	if !ok {
		return nil, fmt.Errorf("graph %s: %w", id, ports.ErrNotFound)
	}
	copied := *g
	return &copied, nil
}

// DeleteGraph removes a graph definition.
func (s *Store) DeleteGraph(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.graphs[id]; !ok {
		return fmt.Errorf("graph %s: %w", id, ports.ErrNotFound)
	}
	delete(s.graphs, id)
	return nil
}

// ListGraphs returns every stored graph definition.
func (s *Store) ListGraphs(ctx context.Context) ([]*domain.StoredGraph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	graphs := make([]*domain.StoredGraph, 0, len(s.graphs))
	for _, g := range s.graphs {
		copied := *g
		graphs = append(graphs, &copied)
	}
	return graphs, nil
}

// SaveExecution stores an execution record, replacing any previous
// version.
func (s *Store) SaveExecution(ctx context.Context, state *domain.ExecutionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *state
	s.executions[state.ExecutionID] = &copied
	return nil
}

// GetExecution retrieves an execution record.
func (s *Store) GetExecution(ctx context.Context, id string) (*domain.ExecutionState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.executions[id]
	if !ok {
		return nil, fmt.Errorf("execution %s: %w", id, ports.ErrNotFound)
	}
	copied := *e
	return &copied, nil
}

// ListExecutions returns the executions of one graph, or every execution
// when graphID is empty.
func (s *Store) ListExecutions(ctx context.Context, graphID string) ([]*domain.ExecutionState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	executions := make([]*domain.ExecutionState, 0, len(s.executions))
	for _, e := range s.executions {
		if graphID != "" && e.GraphID != graphID {
			continue
		}
		copied := *e
		executions = append(executions, &copied)
	}
	return executions, nil
}
