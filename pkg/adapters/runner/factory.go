package runner

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dagforge/dagforge/pkg/depgraph/resolver"
)

// Config holds executor factory configuration.
type Config struct {
	Kind    string
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewExecutor creates a task executor for the configured kind.
func NewExecutor(cfg *Config) (resolver.Executor, error) {
	switch cfg.Kind {
	case "shell":
		return NewShellExecutor(cfg.Timeout, cfg.Logger), nil
	case "noop", "":
		return NewNoopExecutor(), nil
	default:
		return nil, fmt.Errorf("unsupported runner kind: %s", cfg.Kind)
	}
}
