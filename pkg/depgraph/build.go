package depgraph

import (
	"strings"
	"time"
)

// MetadataSources is the metadata key under which AddTarget records the
// comma-joined source list of a target.
const MetadataSources = "sources"

// MTimeFunc resolves a target id to its modification time. A non-nil
// error means the id cannot be resolved to an artifact.
type MTimeFunc func(id string) (time.Time, error)

// BuildGraph specializes Graph for build targets: a node's payload is its
// build command and its dependency edges point at its sources.
type BuildGraph struct {
	*Graph
}

// NewBuildGraph creates an empty build graph.
func NewBuildGraph() *BuildGraph {
	return &BuildGraph{Graph: New()}
}

// AddTarget registers target with its sources and optional build command.
// The command becomes the node payload, the source list is recorded in
// metadata, and one dependency edge is added per source. A source that
// would close a cycle is rejected with that edge rolled back.
func (b *BuildGraph) AddTarget(target string, sources []string, command string) error {
	var data any
	if command != "" {
		data = command
	}
	b.AddNode(target, data, map[string]string{MetadataSources: strings.Join(sources, ",")})

	for _, src := range sources {
		if err := b.AddDependency(target, src); err != nil {
			return err
		}
	}
	return nil
}

// BuildOrder returns the order in which target and its transitive
// dependencies must be built: the induced subgraph over that set,
// topologically sorted.
func (b *BuildGraph) BuildOrder(target string) ([]string, error) {
	if _, ok := b.Node(target); !ok {
		return nil, &NodeNotFoundError{ID: target}
	}
	ids := append(b.AllDependencies(target), target)
	return b.Subgraph(ids).TopologicalSort()
}

// NeedsRebuild reports whether target must be rebuilt: always when the
// target itself has no resolvable timestamp, otherwise when any direct
// dependency is newer than the target.
//
// A dependency whose timestamp cannot be resolved is skipped rather than
// treated as stale. Callers that want a missing input to force a rebuild
// must surface it through mtime as a timestamp of their choosing.
func (b *BuildGraph) NeedsRebuild(target string, mtime MTimeFunc) bool {
	targetTime, err := mtime(target)
	if err != nil {
		return true
	}

	for _, dep := range b.Dependencies(target) {
		depTime, err := mtime(dep)
		if err != nil {
			continue
		}
		if depTime.After(targetTime) {
			return true
		}
	}
	return false
}
