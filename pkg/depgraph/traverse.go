package depgraph

import "sort"

// Dependencies returns the ids that id directly depends on. Unknown ids
// yield an empty slice; they are treated as nodes with no edges.
func (g *Graph) Dependencies(id string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	return sortedIDs(g.deps[id])
}

// Dependents returns the ids that directly depend on id. Unknown ids
// yield an empty slice.
func (g *Graph) Dependents(id string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	return sortedIDs(g.dependents[id])
}

// AllDependencies returns the transitive closure of id's dependencies,
// excluding id itself, discovered breadth-first.
func (g *Graph) AllDependencies(id string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.closure(id, g.deps)
}

// AllDependents returns every id that transitively depends on id,
// excluding id itself.
func (g *Graph) AllDependents(id string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.closure(id, g.dependents)
}

// closure walks adj breadth-first from id. Callers must hold g.mu.
func (g *Graph) closure(id string, adj map[string]map[string]struct{}) []string {
	seen := map[string]struct{}{id: {}}
	queue := []string{id}

	var out []string
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for next := range adj[cur] {
			if _, ok := seen[next]; ok {
				continue
			}
			seen[next] = struct{}{}
			out = append(out, next)
			queue = append(queue, next)
		}
	}
	sort.Strings(out)
	return out
}

// Roots returns the ids with no dependents, in lexical order.
func (g *Graph) Roots() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	var roots []string
	for id := range g.nodes {
		if len(g.dependents[id]) == 0 {
			roots = append(roots, id)
		}
	}
	sort.Strings(roots)
	return roots
}

// Leaves returns the ids with no dependencies, in lexical order.
func (g *Graph) Leaves() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	var leaves []string
	for id := range g.nodes {
		if len(g.deps[id]) == 0 {
			leaves = append(leaves, id)
		}
	}
	sort.Strings(leaves)
	return leaves
}

// Subgraph returns the induced subgraph over ids: the named nodes that
// exist in g plus exactly the edges with both endpoints among them. Ids
// unknown to g are ignored. Node metadata is copied so the two graphs
// stay independent.
func (g *Graph) Subgraph(ids []string) *Graph {
	g.mu.Lock()
	defer g.mu.Unlock()

	keep := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := g.nodes[id]; ok {
			keep[id] = struct{}{}
		}
	}

	sub := New()
	for id := range keep {
		n := g.nodes[id]
		sub.nodes[id] = &Node{ID: id, Data: n.Data, Metadata: copyMetadata(n.Metadata)}
		sub.deps[id] = make(map[string]struct{})
		sub.dependents[id] = make(map[string]struct{})
	}
	for id := range keep {
		for dep := range g.deps[id] {
			if _, ok := keep[dep]; ok {
				sub.deps[id][dep] = struct{}{}
				sub.dependents[dep][id] = struct{}{}
			}
		}
	}
	return sub
}

// Reverse returns a copy of the graph with every edge flipped, so a
// node's dependents in g become its dependencies in the result. Queries
// such as "what depends transitively on X" then reuse the ordinary
// traversal code on the reversed graph.
func (g *Graph) Reverse() *Graph {
	g.mu.Lock()
	defer g.mu.Unlock()

	rev := New()
	for id, n := range g.nodes {
		rev.nodes[id] = &Node{ID: id, Data: n.Data, Metadata: copyMetadata(n.Metadata)}
		rev.deps[id] = make(map[string]struct{})
		rev.dependents[id] = make(map[string]struct{})
	}
	for id, set := range g.deps {
		for dep := range set {
			rev.deps[dep][id] = struct{}{}
			rev.dependents[id][dep] = struct{}{}
		}
	}
	return rev
}
