package depgraph

import (
	"sort"
	"sync"
)

// Node is a single vertex in a dependency graph. Nodes are identified
// solely by ID; Data and Metadata are caller-owned payloads.
type Node struct {
	ID       string
	Data     any
	Metadata map[string]string
}

// Graph is a mutable directed acyclic graph of string-identified nodes.
//
// The deps map records what each node depends on; the dependents map is
// its inverse. Both are kept symmetric: an edge (a depends on b) exists
// iff b is in deps[a] and a is in dependents[b].
//
// One exclusive lock guards every operation, including read traversals.
// Graphs in this domain (build and task graphs) are small, so the monitor
// design trades read concurrency for correctness.
type Graph struct {
	mu         sync.Mutex
	nodes      map[string]*Node
	deps       map[string]map[string]struct{}
	dependents map[string]map[string]struct{}
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:      make(map[string]*Node),
		deps:       make(map[string]map[string]struct{}),
		dependents: make(map[string]map[string]struct{}),
	}
}

// ensureNode creates the node and its adjacency sets if absent.
// Callers must hold g.mu.
func (g *Graph) ensureNode(id string) *Node {
	if n, ok := g.nodes[id]; ok {
		return n
	}
	n := &Node{ID: id, Metadata: make(map[string]string)}
	g.nodes[id] = n
	g.deps[id] = make(map[string]struct{})
	g.dependents[id] = make(map[string]struct{})
	return n
}

// AddNode adds a node or merges payloads into an existing one: a non-nil
// data value replaces the stored one and metadata entries are
// shallow-merged. AddNode never fails.
func (g *Graph) AddNode(id string, data any, metadata map[string]string) *Node {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := g.ensureNode(id)
	if data != nil {
		n.Data = data
	}
	for k, v := range metadata {
		n.Metadata[k] = v
	}
	return n
}

// Node returns a copy of the node for id. Mutating the copy does not
// touch the graph; payload changes go through AddNode so they happen
// under the graph's lock.
func (g *Graph) Node(id string) (*Node, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, false
	}
	return &Node{ID: n.ID, Data: n.Data, Metadata: copyMetadata(n.Metadata)}, true
}

// RemoveNode deletes a node and every edge touching it, in both
// directions. It returns false when the node does not exist.
func (g *Graph) RemoveNode(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[id]; !ok {
		return false
	}
	for dep := range g.deps[id] {
		delete(g.dependents[dep], id)
	}
	for dependent := range g.dependents[id] {
		delete(g.deps[dependent], id)
	}
	delete(g.nodes, id)
	delete(g.deps, id)
	delete(g.dependents, id)
	return true
}

// AddDependency records that id depends on dependsOn, creating either
// endpoint if absent. The edge is inserted speculatively and probed for a
// cycle; on detection it is rolled back before the error is returned, so
// a failed call leaves the graph exactly as it was. Self-loops are
// rejected with the same CycleError.
func (g *Graph) AddDependency(id, dependsOn string) error {
	if id == dependsOn {
		return &CycleError{Path: []string{id, id}}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.ensureNode(id)
	g.ensureNode(dependsOn)

	if _, ok := g.deps[id][dependsOn]; ok {
		return nil
	}

	g.deps[id][dependsOn] = struct{}{}
	g.dependents[dependsOn][id] = struct{}{}

	if path := g.cyclePathFrom(id); path != nil {
		delete(g.deps[id], dependsOn)
		delete(g.dependents[dependsOn], id)
		return &CycleError{Path: path}
	}
	return nil
}

// RemoveDependency removes a single edge. It returns false when the edge
// is not present and never fails.
func (g *Graph) RemoveDependency(id, dependsOn string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.deps[id][dependsOn]; !ok {
		return false
	}
	delete(g.deps[id], dependsOn)
	delete(g.dependents[dependsOn], id)
	return true
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return len(g.nodes)
}

// EdgeCount returns the number of dependency edges.
func (g *Graph) EdgeCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	count := 0
	for _, set := range g.deps {
		count += len(set)
	}
	return count
}

// sortedIDs returns the members of a set in lexical order.
func sortedIDs(set map[string]struct{}) []string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// nodeIDs returns every node id in lexical order. Callers must hold g.mu.
func (g *Graph) nodeIDs() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func copyMetadata(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
