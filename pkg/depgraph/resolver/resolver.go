package resolver

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/dagforge/dagforge/pkg/depgraph"
)

// DependencyError reports a name that was declared as a dependency but
// never registered with a task, discovered when the resolver reaches it
// during execution.
type DependencyError struct {
	Task string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("dependency %q is not a registered task", e.Task)
}

// Resolver wraps a dependency graph with named task handles and optional
// per-task executor overrides, and runs the tasks in dependency order.
type Resolver struct {
	graph  *depgraph.Graph
	logger *zap.Logger

	mu        sync.Mutex
	tasks     map[string]struct{}
	executors map[string]Executor
}

// New creates an empty resolver. A nil logger is replaced by a no-op one.
func New(logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		graph:     depgraph.New(),
		logger:    logger,
		tasks:     make(map[string]struct{}),
		executors: make(map[string]Executor),
	}
}

// NewFromGraph wraps an existing graph, treating every current node as a
// registered task whose handle is the node payload.
func NewFromGraph(g *depgraph.Graph, logger *zap.Logger) *Resolver {
	r := New(logger)
	r.graph = g
	order, err := g.TopologicalSort()
	if err != nil {
		// A graph that cannot be ordered still wraps; execution will
		// surface the CycleError.
		return r
	}
	for _, name := range order {
		r.tasks[name] = struct{}{}
	}
	return r
}

// Graph exposes the underlying dependency graph.
func (r *Resolver) Graph() *depgraph.Graph {
	return r.graph
}

// Register adds a task under name with one dependency edge per entry in
// deps, auto-creating referenced nodes, plus an optional executor
// override (nil means use the default passed at execution time). A
// dependency that would close a cycle is rejected with the offending edge
// rolled back.
func (r *Resolver) Register(name string, task any, deps []string, executor Executor) error {
	r.graph.AddNode(name, task, nil)
	for _, dep := range deps {
		if err := r.graph.AddDependency(name, dep); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.tasks[name] = struct{}{}
	if executor != nil {
		r.executors[name] = executor
	}
	return nil
}

// Unregister removes name's executor override and deletes its node along
// with every edge touching it. It returns false when name was never part
// of the graph.
func (r *Resolver) Unregister(name string) bool {
	r.mu.Lock()
	delete(r.tasks, name)
	delete(r.executors, name)
	r.mu.Unlock()

	return r.graph.RemoveNode(name)
}

// Order returns the sequential execution order.
func (r *Resolver) Order() ([]string, error) {
	return r.graph.TopologicalSort()
}

// ExecutionPlan returns the level plan: every task in one level has all
// of its dependencies in earlier levels, so members of a level may run
// concurrently.
func (r *Resolver) ExecutionPlan() ([][]string, error) {
	return r.graph.ParallelGroups()
}

// ExecuteSequential runs every task in topological order, stopping at the
// first failure. Results are keyed by task name and returned as far as
// execution got.
func (r *Resolver) ExecuteSequential(ctx context.Context, def Executor) (map[string]any, error) {
	order, err := r.Order()
	if err != nil {
		return nil, err
	}

	results := make(map[string]any, len(order))
	for _, name := range order {
		task, err := r.taskFor(name)
		if err != nil {
			return results, err
		}

		r.logger.Debug("executing task", zap.String("task", name))
		out, err := r.executorFor(name, def).Execute(ctx, name, task)
		if err != nil {
			return results, fmt.Errorf("task %s failed: %w", name, err)
		}
		results[name] = out
	}
	return results, nil
}

// ExecuteParallel runs the execution plan level by level. Tasks within a
// level run as independent goroutines with at most maxConcurrency in
// flight, and the next level starts only once the current one has fully
// drained. When tasks fail, the level still drains before the first
// failure is returned and no later level starts.
func (r *Resolver) ExecuteParallel(ctx context.Context, def Executor, maxConcurrency int) (map[string]any, error) {
	plan, err := r.ExecutionPlan()
	if err != nil {
		return nil, err
	}
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}

	sem := semaphore.NewWeighted(int64(maxConcurrency))
	results := make(map[string]any)
	var resultsMu sync.Mutex

	for i, level := range plan {
		r.logger.Debug("executing level",
			zap.Int("level", i),
			zap.Int("tasks", len(level)))

		var (
			wg       sync.WaitGroup
			errMu    sync.Mutex
			firstErr error
		)
		setErr := func(err error) {
			errMu.Lock()
			if firstErr == nil {
				firstErr = err
			}
			errMu.Unlock()
		}

		for _, name := range level {
			task, err := r.taskFor(name)
			if err != nil {
				setErr(err)
				continue
			}
			if err := sem.Acquire(ctx, 1); err != nil {
				setErr(err)
				break
			}

			wg.Add(1)
			go func(name string, task any) {
				defer wg.Done()
				defer sem.Release(1)

				out, err := r.executorFor(name, def).Execute(ctx, name, task)
				if err != nil {
					r.logger.Warn("task failed",
						zap.String("task", name),
						zap.Error(err))
					setErr(fmt.Errorf("task %s failed: %w", name, err))
					return
				}

				resultsMu.Lock()
				results[name] = out
				resultsMu.Unlock()
			}(name, task)
		}

		// Level barrier: dependency correctness relies on it.
		wg.Wait()

		if firstErr != nil {
			return results, firstErr
		}
	}
	return results, nil
}

// taskFor returns the task handle for name, or a DependencyError when
// name was only ever auto-created as someone's dependency.
func (r *Resolver) taskFor(name string) (any, error) {
	r.mu.Lock()
	_, registered := r.tasks[name]
	r.mu.Unlock()

	if !registered {
		return nil, &DependencyError{Task: name}
	}
	n, ok := r.graph.Node(name)
	if !ok {
		return nil, &DependencyError{Task: name}
	}
	return n.Data, nil
}

func (r *Resolver) executorFor(name string, def Executor) Executor {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.executors[name]; ok {
		return e
	}
	return def
}
