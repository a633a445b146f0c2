package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dagforge/dagforge/pkg/domain"
	"github.com/dagforge/dagforge/pkg/ports"
)

const (
	graphKeyPrefix     = "dagforge:graph:"
	executionKeyPrefix = "dagforge:execution:"
)

// Store implements ports.Store on Redis with JSON values. Graph
// definitions are kept until deleted; execution records expire after the
// configured TTL.
type Store struct {
	client       *redis.Client
	logger       *zap.Logger
	executionTTL time.Duration
}

// NewStore creates a Redis-backed store.
func NewStore(client *redis.Client, executionTTL time.Duration, logger *zap.Logger) *Store {
	return &Store{
		client:       client,
		logger:       logger,
		executionTTL: executionTTL,
	}
}

// SaveGraph stores a graph definition without expiry.
func (s *Store) SaveGraph(ctx context.Context, graph *domain.StoredGraph) error {
	data, err := json.Marshal(graph)
	if err != nil {
		return fmt.Errorf("failed to marshal graph: %w", err)
	}

	if err := s.client.Set(ctx, graphKey(graph.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save graph: %w", err)
	}

	s.logger.Debug("graph saved", zap.String("graph_id", graph.ID))
	return nil
}

// GetGraph retrieves a graph definition.
func (s *Store) GetGraph(ctx context.Context, id string) (*domain.StoredGraph, error) {
	data, err := s.client.Get(ctx, graphKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("graph %s: %w", id, ports.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get graph: %w", err)
	}

	var graph domain.StoredGraph
	if err := json.Unmarshal(data, &graph); err != nil {
		return nil, fmt.Errorf("failed to unmarshal graph: %w", err)
	}
	return &graph, nil
}

// DeleteGraph removes a graph definition.
func (s *Store) DeleteGraph(ctx context.Context, id string) error {
	deleted, err := s.client.Del(ctx, graphKey(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete graph: %w", err)
	}
	if deleted == 0 {
		return fmt.Errorf("graph %s: %w", id, ports.ErrNotFound)
	}

	s.logger.Debug("graph deleted", zap.String("graph_id", id))
	return nil
}

// ListGraphs returns every stored graph definition.
func (s *Store) ListGraphs(ctx context.Context) ([]*domain.StoredGraph, error) {
	keys, err := s.scanKeys(ctx, graphKeyPrefix+"*")
	if err != nil {
		return nil, err
	}

	graphs := make([]*domain.StoredGraph, 0, len(keys))
	for _, key := range keys {
		data, err := s.client.Get(ctx, key).Bytes()
		if err != nil {
			continue
		}
		var graph domain.StoredGraph
		if err := json.Unmarshal(data, &graph); err != nil {
			continue
		}
		graphs = append(graphs, &graph)
	}
	return graphs, nil
}

// SaveExecution stores an execution record with the configured TTL.
func (s *Store) SaveExecution(ctx context.Context, state *domain.ExecutionState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal execution: %w", err)
	}

	if err := s.client.Set(ctx, executionKey(state.ExecutionID), data, s.executionTTL).Err(); err != nil {
		return fmt.Errorf("failed to save execution: %w", err)
	}

	s.logger.Debug("execution saved",
		zap.String("execution_id", state.ExecutionID),
		zap.String("status", string(state.Status)))
	return nil
}

// GetExecution retrieves an execution record.
func (s *Store) GetExecution(ctx context.Context, id string) (*domain.ExecutionState, error) {
	data, err := s.client.Get(ctx, executionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("execution %s: %w", id, ports.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get execution: %w", err)
	}

	var state domain.ExecutionState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal execution: %w", err)
	}
	return &state, nil
}

// ListExecutions returns the executions of one graph, or every execution
// when graphID is empty.
func (s *Store) ListExecutions(ctx context.Context, graphID string) ([]*domain.ExecutionState, error) {
	keys, err := s.scanKeys(ctx, executionKeyPrefix+"*")
	if err != nil {
		return nil, err
	}

	executions := make([]*domain.ExecutionState, 0, len(keys))
	for _, key := range keys {
		data, err := s.client.Get(ctx, key).Bytes()
		if err != nil {
			continue
		}
		var state domain.ExecutionState
		if err := json.Unmarshal(data, &state); err != nil {
			continue
		}
		if graphID != "" && state.GraphID != graphID {
			continue
		}
		executions = append(executions, &state)
	}
	return executions, nil
}

// scanKeys collects every key matching pattern via SCAN.
func (s *Store) scanKeys(ctx context.Context, pattern string) ([]string, error) {
	var cursor uint64
	var keys []string

	for {
		batch, next, err := s.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan keys: %w", err)
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return keys, nil
}

func graphKey(id string) string {
	return graphKeyPrefix + id
}

func executionKey(id string) string {
	return executionKeyPrefix + id
}
