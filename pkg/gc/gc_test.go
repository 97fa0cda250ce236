package gc

import "testing"

// testNode is a minimal CycleCapable for exercising Sweep without pulling
// in value/frame.
type testNode struct {
	name    string
	count   int32
	edges   []CycleCapable
	broken  bool
}

func (n *testNode) RefCount() int32  { return n.count }
func (n *testNode) Retain()          { n.count++ }
func (n *testNode) RefSubOne() int32 { n.count--; return n.count }
func (n *testNode) Edges() []CycleCapable { return n.edges }
func (n *testNode) BreakCycle()      { n.broken = true }

func TestSweepBreaksSelfCycleWithNoExternalReferences(t *testing.T) {
	a := &testNode{name: "a", count: 1}
	b := &testNode{name: "b", count: 1}
	a.edges = []CycleCapable{b}
	b.edges = []CycleCapable{a}

	dead := Sweep([]CycleCapable{a})

	if len(dead) != 2 {
		t.Fatalf("expected both cycle members dead, got %d", len(dead))
	}
	if !a.broken || !b.broken {
		t.Fatalf("expected BreakCycle called on both nodes: a=%v b=%v", a.broken, b.broken)
	}
}

func TestSweepSparesNodeWithExternalReference(t *testing.T) {
	a := &testNode{name: "a", count: 1}
	b := &testNode{name: "b", count: 2} // one edge from a, one "external" reference
	a.edges = []CycleCapable{b}
	b.edges = []CycleCapable{a}

	dead := Sweep([]CycleCapable{a})

	for _, n := range dead {
		if n == b {
			t.Fatalf("b has an external reference and should survive the sweep")
		}
	}
}

func TestSweepLeafNodeNeverCollected(t *testing.T) {
	leaf := &testNode{name: "leaf", count: 1}

	dead := Sweep([]CycleCapable{leaf})

	if len(dead) != 0 {
		t.Fatalf("a root with no cyclic self-reference should never be collected by this sweep, got %d dead", len(dead))
	}
	if leaf.broken {
		t.Fatalf("leaf should not have had BreakCycle called")
	}
}

func TestSweepHandlesDisjointRoots(t *testing.T) {
	x := &testNode{name: "x", count: 1}
	y := &testNode{name: "y", count: 1}
	x.edges = []CycleCapable{y}
	y.edges = []CycleCapable{x}

	z := &testNode{name: "z", count: 1}

	dead := Sweep([]CycleCapable{x, z})

	if len(dead) != 2 {
		t.Fatalf("expected only the x/y cycle collected, got %d", len(dead))
	}
	if z.broken {
		t.Fatalf("z has no cycle and should not be broken")
	}
}
