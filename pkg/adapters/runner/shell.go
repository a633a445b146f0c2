package runner

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ShellExecutor runs a task's command payload through sh -c. Tasks with
// no command payload succeed without running anything, so pure grouping
// nodes cost nothing.
type ShellExecutor struct {
	timeout time.Duration
	logger  *zap.Logger
}

// NewShellExecutor creates a shell executor. A nil logger is replaced by
// a no-op one; a zero timeout disables the per-task deadline.
func NewShellExecutor(timeout time.Duration, logger *zap.Logger) *ShellExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShellExecutor{
		timeout: timeout,
		logger:  logger,
	}
}

// Execute runs the task's command and returns its combined output.
func (e *ShellExecutor) Execute(ctx context.Context, name string, task any) (any, error) {
	if task == nil {
		return nil, nil
	}
	command, ok := task.(string)
	if !ok {
		return nil, fmt.Errorf("task %s: payload is not a command string", name)
	}
	if strings.TrimSpace(command) == "" {
		return nil, nil
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	e.logger.Debug("running command",
		zap.String("task", name),
		zap.String("command", command))

	start := time.Now()
	output, err := exec.CommandContext(ctx, "sh", "-c", command).CombinedOutput()
	if err != nil {
		return string(output), fmt.Errorf("command failed: %w", err)
	}

	e.logger.Debug("command finished",
		zap.String("task", name),
		zap.Duration("duration", time.Since(start)))

	return string(output), nil
}
