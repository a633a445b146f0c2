package depgraph

import (
	"fmt"
	"strings"
)

// DOT renders the graph as a Graphviz digraph block named name. Nodes
// are listed first, then one edge statement per dependency, all in
// lexical order; quote characters in ids are escaped. The format is
// write-only, meant for external Graphviz tooling.
func (g *Graph) DOT(name string) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "digraph %s {\n", name)

	ids := g.nodeIDs()
	for _, id := range ids {
		fmt.Fprintf(&b, "    \"%s\";\n", escapeDOT(id))
	}
	for _, id := range ids {
		for _, dep := range sortedIDs(g.deps[id]) {
			fmt.Fprintf(&b, "    \"%s\" -> \"%s\";\n", escapeDOT(id), escapeDOT(dep))
		}
	}

	b.WriteString("}\n")
	return b.String()
}

func escapeDOT(id string) string {
	return strings.ReplaceAll(id, `"`, `\"`)
}
