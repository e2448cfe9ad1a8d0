package graph

import "fmt"

// ErrGraphCycle is returned by Graph.Recompute when the node dependency
// graph is not a DAG (spec.md §3: "Cycles in the graph are forbidden").
type ErrGraphCycle struct {
	Node NodeID
}

func (e ErrGraphCycle) Error() string {
	return fmt.Sprintf("graph: cycle detected reaching node %d/%d", e.Node.Index, e.Node.Generation)
}

type slot struct {
	generation uint32
	occupied   bool
	node       Node
	output     float64
}

// Graph owns every node's state; nodes are mutated only through Tick,
// called from the graph's own evaluation loop. External callers hold only
// NodeIDs (spec.md §3, "Ownership").
type Graph struct {
	slots    []slot
	freeList []uint32

	order      []NodeID
	orderDirty bool

	outputNode NodeID
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{orderDirty: true}
}

// AddNode inserts n and returns its stable id. Marks the topology dirty;
// callers must call Recompute before the next Tick/Fill.
func (g *Graph) AddNode(n Node) NodeID {
	if len(g.freeList) > 0 {
		idx := g.freeList[len(g.freeList)-1]
		g.freeList = g.freeList[:len(g.freeList)-1]
		s := &g.slots[idx]
		s.occupied = true
		s.node = n
		s.output = 0
		g.orderDirty = true
		return NodeID{Index: idx, Generation: s.generation}
	}
	idx := uint32(len(g.slots))
	g.slots = append(g.slots, slot{generation: 1, occupied: true, node: n})
	g.orderDirty = true
	return NodeID{Index: idx, Generation: 1}
}

// RemoveNode frees id's slot. Structural edits are expected to happen only
// between blocks (spec.md §4.3, "edits apply atomically between blocks").
func (g *Graph) RemoveNode(id NodeID) {
	if int(id.Index) >= len(g.slots) {
		return
	}
	s := &g.slots[id.Index]
	if !s.occupied || s.generation != id.Generation {
		return
	}
	s.occupied = false
	s.node = nil
	s.generation++
	g.freeList = append(g.freeList, id.Index)
	g.orderDirty = true
}

// Node returns the node at id, or (nil, false) if id is stale or empty.
func (g *Graph) Node(id NodeID) (Node, bool) {
	if int(id.Index) >= len(g.slots) {
		return nil, false
	}
	s := &g.slots[id.Index]
	if !s.occupied || s.generation != id.Generation {
		return nil, false
	}
	return s.node, true
}

// Output returns the last value Tick computed for id (0 for a stale or
// unresolved id — never panics, since an output node may legitimately
// reference a node removed in the same edit batch).
func (g *Graph) Output(id NodeID) float64 {
	if int(id.Index) >= len(g.slots) {
		return 0
	}
	s := &g.slots[id.Index]
	if !s.occupied || s.generation != id.Generation {
		return 0
	}
	return s.output
}

// SetOutputNode designates which node's value is written to the audio
// buffer during Fill/Tick.
func (g *Graph) SetOutputNode(id NodeID) {
	g.outputNode = id
}

// Recompute rebuilds the cached topological order, returning ErrGraphCycle
// if the dependency graph is not acyclic. Cheap to call unconditionally;
// it no-ops if nothing changed since the last call.
func (g *Graph) Recompute() error {
	if !g.orderDirty {
		return nil
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make([]uint8, len(g.slots))
	var order []NodeID
	var visit func(idx uint32) error
	visit = func(idx uint32) error {
		if color[idx] == black {
			return nil
		}
		if color[idx] == gray {
			return ErrGraphCycle{Node: NodeID{Index: idx, Generation: g.slots[idx].generation}}
		}
		color[idx] = gray
		s := &g.slots[idx]
		for _, dep := range s.node.Inputs() {
			if !dep.Valid() || int(dep.Index) >= len(g.slots) {
				continue
			}
			if g.slots[dep.Index].generation != dep.Generation || !g.slots[dep.Index].occupied {
				continue
			}
			if err := visit(dep.Index); err != nil {
				return err
			}
		}
		color[idx] = black
		order = append(order, NodeID{Index: idx, Generation: s.generation})
		return nil
	}

	for idx := range g.slots {
		if !g.slots[idx].occupied {
			continue
		}
		if err := visit(uint32(idx)); err != nil {
			return err
		}
	}

	g.order = order
	g.orderDirty = false
	return nil
}

// Tick advances every live node by exactly one sample, in topological
// order, and returns the output node's value. Recompute must have been
// called (with no structural edits since) before the first Tick.
func (g *Graph) Tick() float64 {
	for _, id := range g.order {
		s := &g.slots[id.Index]
		if s.generation != id.Generation || !s.occupied {
			continue
		}
		s.output = s.node.Tick(g)
	}
	return g.Output(g.outputNode)
}

// Fill renders n consecutive samples via repeated Tick calls. Nodes whose
// update rule is block-linear still go through Tick once per sample here;
// spec.md §4.3's per-block contract is about producing bit-identical
// results versus a genuinely per-sample caller, not about a separate code
// path — Fill is Tick in a loop, so the two agree by construction.
func (g *Graph) Fill(n int) []float32 {
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = float32(g.Tick())
	}
	return out
}

// Panic resets every node's persistent state to silence (spec.md §4.4).
func (g *Graph) Panic() {
	for i := range g.slots {
		if g.slots[i].occupied {
			g.slots[i].node.Reset()
			g.slots[i].output = 0
		}
	}
}

// Len returns the number of live (occupied) node slots.
func (g *Graph) Len() int {
	n := 0
	for _, s := range g.slots {
		if s.occupied {
			n++
		}
	}
	return n
}
