package depgraph

import (
	"fmt"
	"strings"
)

// CycleError reports an edge insertion that would close a cycle, a
// self-loop, or a cyclic graph reaching topological ordering. Path holds
// the offending cycle when it could be derived.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	if len(e.Path) == 0 {
		return "dependency cycle detected"
	}
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Path, " -> "))
}

// NodeNotFoundError reports an operation that requires an existing node.
type NodeNotFoundError struct {
	ID string
}

func (e *NodeNotFoundError) Error() string {
	return fmt.Sprintf("node not found: %s", e.ID)
}
