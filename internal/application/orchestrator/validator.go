package orchestrator

import (
	"fmt"

	"github.com/dagforge/dagforge/pkg/depgraph"
)

// Validator validates submitted graph snapshots.
type Validator struct{}

// NewValidator creates a new graph validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks a snapshot before it is accepted for storage. Stored
// definitions must declare every node explicitly; the live graph's
// auto-creation of edge endpoints is a mutation convenience, not a
// submission format.
func (v *Validator) Validate(snap *depgraph.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("graph is nil")
	}
	if len(snap.Nodes) == 0 {
		return fmt.Errorf("graph must have at least one node")
	}

	nodeIDs := make(map[string]bool, len(snap.Nodes))
	for _, node := range snap.Nodes {
		if node.ID == "" {
			return fmt.Errorf("node ID is required")
		}
		if nodeIDs[node.ID] {
			return fmt.Errorf("duplicate node ID: %s", node.ID)
		}
		nodeIDs[node.ID] = true
	}

	for _, edge := range snap.Edges {
		if !nodeIDs[edge.Source] {
			return fmt.Errorf("edge references undeclared source node: %s", edge.Source)
		}
		if !nodeIDs[edge.Target] {
			return fmt.Errorf("edge references undeclared target node: %s", edge.Target)
		}
	}

	// Replaying the snapshot applies the same cycle rejection as live
	// construction.
	if _, err := depgraph.FromSnapshot(snap); err != nil {
		return fmt.Errorf("invalid graph structure: %w", err)
	}

	return nil
}
