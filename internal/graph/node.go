package graph

// Node is the interface every DSP node (internal/dsp) implements. A node's
// Tick is called exactly once per sample, in topological order; by the
// time it runs, every NodeID it names in Inputs() has already been ticked
// this sample and its value is available via Graph.Output.
type Node interface {
	// Inputs returns every node this node reads from, used to build the
	// dependency graph for topological ordering and cycle detection.
	Inputs() []NodeID
	// Tick advances the node's internal state by one sample and returns
	// its output. Must never allocate, block, or panic; numerical safety
	// (clamping, flush-to-zero, NaN substitution) is the node's own
	// responsibility.
	Tick(g *Graph) float64
	// Reset zeroes all persistent state (phase, filter memory, delay
	// buffer, envelope stage) — used by Graph.Panic.
	Reset()
}

// SignalKind discriminates a Signal's variant.
type SignalKind int

const (
	// SignalValue is a plain constant scalar.
	SignalValue SignalKind = iota
	// SignalNode resolves to another node's current output, including
	// (per the DSL compiler's lowering) a PatternScalar node standing in
	// for an inline pattern-string parameter.
	SignalNode
)

// Signal is a node input: either a constant or a reference to another
// node's output (spec.md §3, "A Signal input is one of: constant value,
// node-id reference, or embedded pattern string" — the pattern-string
// case is lowered by internal/dsl into a PatternScalar node plus a
// SignalNode reference, so Signal itself only needs two variants).
type Signal struct {
	Kind SignalKind
	Value float64
	Node  NodeID
}

// ValueSignal builds a constant Signal.
func ValueSignal(v float64) Signal { return Signal{Kind: SignalValue, Value: v} }

// NodeSignal builds a Signal that reads another node's output.
func NodeSignal(id NodeID) Signal { return Signal{Kind: SignalNode, Node: id} }

// Resolve reads the signal's current value given a graph to pull node
// outputs from.
func (s Signal) Resolve(g *Graph) float64 {
	if s.Kind == SignalNode {
		return g.Output(s.Node)
	}
	return s.Value
}
