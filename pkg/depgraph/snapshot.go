package depgraph

// Snapshot is the loss-free structural export of a graph. Each edge means
// Source depends on Target.
type Snapshot struct {
	Nodes []NodeSnapshot `json:"nodes"`
	Edges []EdgeSnapshot `json:"edges"`
}

// NodeSnapshot is one exported node.
type NodeSnapshot struct {
	ID       string            `json:"id"`
	Data     any               `json:"data,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// EdgeSnapshot is one exported dependency edge.
type EdgeSnapshot struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Snapshot exports the graph structure with nodes and edges in lexical
// order.
func (g *Graph) Snapshot() *Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	ids := g.nodeIDs()
	snap := &Snapshot{
		Nodes: make([]NodeSnapshot, 0, len(ids)),
	}
	for _, id := range ids {
		n := g.nodes[id]
		node := NodeSnapshot{ID: id, Data: n.Data}
		if len(n.Metadata) > 0 {
			node.Metadata = copyMetadata(n.Metadata)
		}
		snap.Nodes = append(snap.Nodes, node)
	}
	for _, id := range ids {
		for _, dep := range sortedIDs(g.deps[id]) {
			snap.Edges = append(snap.Edges, EdgeSnapshot{Source: id, Target: dep})
		}
	}
	return snap
}

// FromSnapshot rebuilds a graph by replaying AddNode and then
// AddDependency in snapshot order. A snapshot whose edges close a cycle
// is rejected with the same CycleError live construction produces.
func FromSnapshot(snap *Snapshot) (*Graph, error) {
	g := New()
	for _, n := range snap.Nodes {
		g.AddNode(n.ID, n.Data, n.Metadata)
	}
	for _, e := range snap.Edges {
		if err := g.AddDependency(e.Source, e.Target); err != nil {
			return nil, err
		}
	}
	return g, nil
}
