package graph

import "testing"

type constNode struct {
	v     float64
	resets int
}

func (c *constNode) Inputs() []NodeID   { return nil }
func (c *constNode) Tick(g *Graph) float64 { return c.v }
func (c *constNode) Reset()             { c.resets++ }

type sumNode struct {
	inputs []NodeID
}

func (s *sumNode) Inputs() []NodeID { return s.inputs }
func (s *sumNode) Tick(g *Graph) float64 {
	total := 0.0
	for _, id := range s.inputs {
		total += g.Output(id)
	}
	return total
}
func (s *sumNode) Reset() {}

func TestTickOrdersDependenciesBeforeDependents(t *testing.T) {
	g := New()
	a := g.AddNode(&constNode{v: 2})
	b := g.AddNode(&constNode{v: 3})
	sum := g.AddNode(&sumNode{inputs: []NodeID{a, b}})
	g.SetOutputNode(sum)

	if err := g.Recompute(); err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	if got := g.Tick(); got != 5 {
		t.Fatalf("Tick() = %v, want 5", got)
	}
}

func TestRecomputeDetectsCycle(t *testing.T) {
	g := New()
	a := g.AddNode(&sumNode{})
	b := g.AddNode(&sumNode{inputs: []NodeID{a}})
	node, _ := g.Node(a)
	node.(*sumNode).inputs = []NodeID{b}

	if err := g.Recompute(); err == nil {
		t.Fatal("expected ErrGraphCycle, got nil")
	} else if _, ok := err.(ErrGraphCycle); !ok {
		t.Fatalf("expected ErrGraphCycle, got %T: %v", err, err)
	}
}

func TestRemovedNodeIDIsStale(t *testing.T) {
	g := New()
	id := g.AddNode(&constNode{v: 1})
	g.RemoveNode(id)

	if _, ok := g.Node(id); ok {
		t.Fatal("expected stale id to miss after RemoveNode")
	}
	if got := g.Output(id); got != 0 {
		t.Fatalf("Output(stale) = %v, want 0", got)
	}
}

func TestAddNodeReusesFreedSlotWithNewGeneration(t *testing.T) {
	g := New()
	first := g.AddNode(&constNode{v: 1})
	g.RemoveNode(first)
	second := g.AddNode(&constNode{v: 2})

	if second.Index != first.Index {
		t.Fatalf("expected slot reuse, got different index %d vs %d", second.Index, first.Index)
	}
	if second.Generation == first.Generation {
		t.Fatal("expected generation to change on slot reuse")
	}
}

func TestPanicResetsEveryLiveNode(t *testing.T) {
	g := New()
	c := &constNode{v: 1}
	g.AddNode(c)

	g.Panic()

	if c.resets != 1 {
		t.Fatalf("expected Reset called once, got %d", c.resets)
	}
}

func TestFillProducesRequestedLength(t *testing.T) {
	g := New()
	id := g.AddNode(&constNode{v: 0.5})
	g.SetOutputNode(id)
	if err := g.Recompute(); err != nil {
		t.Fatalf("Recompute: %v", err)
	}

	out := g.Fill(8)
	if len(out) != 8 {
		t.Fatalf("len(Fill(8)) = %d, want 8", len(out))
	}
	for i, v := range out {
		if v != 0.5 {
			t.Fatalf("out[%d] = %v, want 0.5", i, v)
		}
	}
}
