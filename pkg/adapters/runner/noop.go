package runner

import "context"

// NoopExecutor succeeds without doing anything. Useful for dry runs and
// for exercising scheduling behavior in tests.
type NoopExecutor struct{}

// NewNoopExecutor creates a no-op executor.
func NewNoopExecutor() *NoopExecutor {
	return &NoopExecutor{}
}

// Execute implements resolver.Executor.
func (e *NoopExecutor) Execute(ctx context.Context, name string, task any) (any, error) {
	return nil, nil
}
