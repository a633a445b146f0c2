package depgraph

import "sort"

// TopologicalSort returns every node id ordered so that each node appears
// after all of its dependencies (Kahn's algorithm). Equally-ready nodes
// are emitted in lexical order, which makes the result deterministic. A
// CycleError is returned when fewer ids than nodes can be ordered; the
// insertion-time guard makes that unreachable for live graphs, but it
// protects graphs assembled by snapshot replay.
func (g *Graph) TopologicalSort() ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.topologicalSort()
}

// topologicalSort implements Kahn's algorithm over the dependency edges.
// In-degree here means the number of unsatisfied dependencies of a node,
// not classical incoming edges. Callers must hold g.mu.
func (g *Graph) topologicalSort() ([]string, error) {
	indegree := make(map[string]int, len(g.nodes))
	for id := range g.nodes {
		indegree[id] = len(g.deps[id])
	}

	ready := make([]string, 0, len(g.nodes))
	for id, deg := range indegree {
		if deg == 0 {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(g.nodes))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		unlocked := false
		for dependent := range g.dependents[id] {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				ready = append(ready, dependent)
				unlocked = true
			}
		}
		if unlocked {
			sort.Strings(ready)
		}
	}

	if len(order) != len(g.nodes) {
		return nil, &CycleError{}
	}
	return order, nil
}

// ParallelGroups returns node ids grouped into execution levels: every
// dependency of a node in group i lives in some group j < i, so the
// members of one group may run concurrently. Each group is sorted for
// determinism. A stalled pass with nodes remaining means the graph is
// cyclic and yields a CycleError.
func (g *Graph) ParallelGroups() ([][]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.parallelGroups()
}

func (g *Graph) parallelGroups() ([][]string, error) {
	completed := make(map[string]struct{}, len(g.nodes))
	remaining := make(map[string]struct{}, len(g.nodes))
	for id := range g.nodes {
		remaining[id] = struct{}{}
	}

	var groups [][]string
	for len(remaining) > 0 {
		var group []string
		for id := range remaining {
			satisfied := true
			for dep := range g.deps[id] {
				if _, ok := completed[dep]; !ok {
					satisfied = false
					break
				}
			}
			if satisfied {
				group = append(group, id)
			}
		}
		if len(group) == 0 {
			return nil, &CycleError{}
		}

		sort.Strings(group)
		for _, id := range group {
			completed[id] = struct{}{}
			delete(remaining, id)
		}
		groups = append(groups, group)
	}
	return groups, nil
}

// Depth returns the length of the longest dependency chain below id: 0
// for a node with no dependencies, otherwise one more than the deepest
// direct dependency. Depths for the whole graph are computed in a single
// topological pass, so diamond-shaped graphs cost linear time. Unknown
// ids yield a NodeNotFoundError.
func (g *Graph) Depth(id string) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[id]; !ok {
		return 0, &NodeNotFoundError{ID: id}
	}

	order, err := g.topologicalSort()
	if err != nil {
		return 0, err
	}

	depth := make(map[string]int, len(order))
	for _, n := range order {
		deepest := 0
		for dep := range g.deps[n] {
			if d := depth[dep] + 1; d > deepest {
				deepest = d
			}
		}
		depth[n] = deepest
	}
	return depth[id], nil
}
