package dsp

import "loomcycle/internal/graph"

// ScheduledValue is one scalar update within a block: at sample offset
// Offset (0-based, relative to the start of the current block) the node's
// held output becomes Value.
type ScheduledValue struct {
	Offset int
	Value  float64
}

// PatternScalar is how an inline pattern-string parameter reaches the
// audio-rate graph: internal/scheduler queries the pattern once per block
// and calls SetSchedule with the resulting (offset, value) pairs in order;
// PatternScalar holds the most recent value between scheduled updates and
// emits it every Tick, advancing its own per-sample counter so it knows
// when the next update in the block's schedule is due. This is the
// resolution of spec.md §3's "Pattern" signal variant, kept out of
// graph.Signal itself (see internal/graph/node.go).
type PatternScalar struct {
	held     float64
	schedule []ScheduledValue
	cursor   int
	offset   int
}

func (p *PatternScalar) Inputs() []graph.NodeID { return nil }

func (p *PatternScalar) Reset() {
	p.held = 0
	p.schedule = nil
	p.cursor = 0
	p.offset = 0
}

// SetSchedule installs this block's updates and resets the per-sample
// counter to 0; called once per block by the scheduler before any Tick in
// that block.
func (p *PatternScalar) SetSchedule(schedule []ScheduledValue) {
	p.schedule = schedule
	p.cursor = 0
	p.offset = 0
}

func (p *PatternScalar) Tick(g *graph.Graph) float64 {
	for p.cursor < len(p.schedule) && p.schedule[p.cursor].Offset <= p.offset {
		p.held = p.schedule[p.cursor].Value
		p.cursor++
	}
	p.offset++
	return p.held
}
