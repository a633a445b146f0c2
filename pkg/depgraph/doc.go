// Package depgraph implements a mutable directed acyclic graph with
// cycle-rejecting edge insertion, deterministic topological ordering,
// and level-based parallel execution planning.
//
// A Graph behaves as a monitor object: a single exclusive lock guards
// every mutation and every traversal. The resolver subpackage executes
// registered tasks against the level plan produced here.
package depgraph
