package depgraph

// cyclePathFrom probes for a dependency path that leads from start back
// to start. It returns the cycle as a node sequence beginning and ending
// with start, or nil when no such path exists. Callers must hold g.mu.
//
// The walk is a depth-first search over an explicit stack so that very
// deep graphs cannot exhaust the goroutine stack.
func (g *Graph) cyclePathFrom(start string) []string {
	parent := make(map[string]string, len(g.nodes))
	stack := make([]string, 0, len(g.deps[start]))
	for dep := range g.deps[start] {
		parent[dep] = start
		stack = append(stack, dep)
	}

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if id == start {
			// Walk the parent chain back to start to reconstruct the cycle.
			path := []string{start}
			for cur := parent[start]; cur != start; cur = parent[cur] {
				path = append(path, cur)
			}
			path = append(path, start)
			reverse(path)
			return path
		}

		for dep := range g.deps[id] {
			if _, seen := parent[dep]; seen {
				continue
			}
			parent[dep] = id
			stack = append(stack, dep)
		}
	}
	return nil
}

func reverse(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// HasCycle reports whether any dependency cycle exists anywhere in the
// graph. Insertion-time probing keeps live graphs acyclic; this full
// check guards graphs assembled by snapshot replay.
func (g *Graph) HasCycle() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.hasCycle()
}

// hasCycle runs an iterative three-color depth-first search over the
// dependency edges. Callers must hold g.mu.
func (g *Graph) hasCycle() bool {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)

	type frame struct {
		id      string
		pending []string
	}

	state := make(map[string]int, len(g.nodes))
	for id := range g.nodes {
		if state[id] != unvisited {
			continue
		}

		state[id] = visiting
		stack := []frame{{id: id, pending: sortedIDs(g.deps[id])}}

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if len(top.pending) == 0 {
				state[top.id] = done
				stack = stack[:len(stack)-1]
				continue
			}

			next := top.pending[len(top.pending)-1]
			top.pending = top.pending[:len(top.pending)-1]

			switch state[next] {
			case visiting:
				return true
			case done:
				// Already known to be safe.
			default:
				state[next] = visiting
				stack = append(stack, frame{id: next, pending: sortedIDs(g.deps[next])})
			}
		}
	}
	return false
}
