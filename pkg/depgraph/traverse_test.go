package depgraph

import (
	"reflect"
	"testing"
)

// buildDiamond wires d -> {b, c} -> a with an extra leaf e under b.
func buildDiamond(t *testing.T) *Graph {
	t.Helper()
	g := New()
	for _, e := range [][2]string{
		{"b", "a"}, {"c", "a"}, {"d", "b"}, {"d", "c"}, {"b", "e"},
	} {
		mustAdd(t, g, e[0], e[1])
	}
	return g
}

func TestTransitiveClosures(t *testing.T) {
	g := buildDiamond(t)

	tests := []struct {
		name string
		got  []string
		want []string
	}{
		{"AllDependencies(d)", g.AllDependencies("d"), []string{"a", "b", "c", "e"}},
		{"AllDependencies(b)", g.AllDependencies("b"), []string{"a", "e"}},
		{"AllDependencies(a)", g.AllDependencies("a"), nil},
		{"AllDependents(a)", g.AllDependents("a"), []string{"b", "c", "d"}},
		{"AllDependents(e)", g.AllDependents("e"), []string{"b", "d"}},
		{"AllDependents(d)", g.AllDependents("d"), nil},
	}
	for _, tt := range tests {
		if !reflect.DeepEqual(tt.got, tt.want) {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestRootsAndLeaves(t *testing.T) {
	g := buildDiamond(t)

	if got, want := g.Roots(), []string{"d"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Roots = %v, want %v", got, want)
	}
	if got, want := g.Leaves(), []string{"a", "e"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Leaves = %v, want %v", got, want)
	}
}

func TestSubgraph(t *testing.T) {
	g := buildDiamond(t)
	g.AddNode("b", "payload", map[string]string{"k": "v"})

	sub := g.Subgraph([]string{"a", "b", "d", "ghost"})

	if sub.NodeCount() != 3 {
		t.Fatalf("NodeCount = %d, want 3", sub.NodeCount())
	}
	if got := sub.Dependencies("b"); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("sub Dependencies(b) = %v, want [a] (edge to e dropped)", got)
	}
	if got := sub.Dependencies("d"); !reflect.DeepEqual(got, []string{"b"}) {
		t.Errorf("sub Dependencies(d) = %v, want [b] (edge to c dropped)", got)
	}

	n, ok := sub.Node("b")
	if !ok {
		t.Fatal("node b missing from subgraph")
	}
	if n.Data != "payload" || n.Metadata["k"] != "v" {
		t.Errorf("payloads not carried: Data=%v Metadata=%v", n.Data, n.Metadata)
	}

	// Metadata stored in the subgraph must not alias the original graph:
	// writing through AddNode on one side must not show up on the other.
	sub.AddNode("b", nil, map[string]string{"k": "changed"})
	orig, _ := g.Node("b")
	if orig.Metadata["k"] != "v" {
		t.Error("subgraph metadata aliases the original graph")
	}
}

func TestReverse(t *testing.T) {
	g := buildDiamond(t)
	rev := g.Reverse()

	if got := rev.Dependencies("a"); !reflect.DeepEqual(got, []string{"b", "c"}) {
		t.Errorf("rev Dependencies(a) = %v, want [b c]", got)
	}
	if got := rev.Dependents("b"); !reflect.DeepEqual(got, []string{"a", "e"}) {
		t.Errorf("rev Dependents(b) = %v, want [a e]", got)
	}

	// Double reversal restores the structure.
	if !reflect.DeepEqual(g.Snapshot(), rev.Reverse().Snapshot()) {
		t.Error("Reverse().Reverse() does not restore the graph")
	}
}
