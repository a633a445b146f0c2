package resolver

import "context"

// Executor runs a single registered task. Implementations decide what a
// task handle means; the resolver only sequences them.
type Executor interface {
	Execute(ctx context.Context, name string, task any) (any, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, name string, task any) (any, error)

// Execute implements Executor.
func (f ExecutorFunc) Execute(ctx context.Context, name string, task any) (any, error) {
	return f(ctx, name, task)
}
