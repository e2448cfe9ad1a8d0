package dsp

import (
	"math"

	"loomcycle/internal/graph"
)

// FilterMode selects which SVF output is taken: one of its three simultaneous
// outputs (low, high, band), or the notch formed as low + high.
type FilterMode int

const (
	FilterLowpass FilterMode = iota
	FilterHighpass
	FilterBandpass
	FilterNotch
)

const (
	filterMinCutoff = 20.0
	filterMinQ      = 0.1
	filterMaxQ      = 40.0
	// filterExplodeGuard bounds the SVF's internal state; state beyond this
	// magnitude means the filter has gone numerically unstable (extreme
	// cutoff/Q at a low sample rate) and is reset rather than left to emit
	// Inf/NaN into the graph (spec.md §6, numerical-safety severity).
	filterExplodeGuard = 1e6
)

// StateVariableFilter is a Chamberlin two-pole state variable filter,
// grounded on internal/apu's fixed-point channel mixing style (explicit
// per-sample state fields updated with plain arithmetic, no feedback
// delay lines) generalized to continuous float64 filter state since the
// teacher's APU never implements a filter of its own — spec.md §4.1 is the
// first place this engine needs one.
type StateVariableFilter struct {
	Mode   FilterMode
	Input  graph.Signal
	Cutoff graph.Signal
	Q      graph.Signal

	SampleRate float64

	low, band float64
}

func (f *StateVariableFilter) Inputs() []graph.NodeID {
	var ids []graph.NodeID
	for _, s := range []graph.Signal{f.Input, f.Cutoff, f.Q} {
		if s.Kind == graph.SignalNode {
			ids = append(ids, s.Node)
		}
	}
	return ids
}

func (f *StateVariableFilter) Reset() {
	f.low = 0
	f.band = 0
}

func (f *StateVariableFilter) Tick(g *graph.Graph) float64 {
	if f.SampleRate <= 0 {
		return 0
	}

	input := f.Input.Resolve(g)
	cutoff := f.Cutoff.Resolve(g)
	q := f.Q.Resolve(g)

	maxCutoff := 0.45 * f.SampleRate
	if cutoff < filterMinCutoff {
		cutoff = filterMinCutoff
	} else if cutoff > maxCutoff {
		cutoff = maxCutoff
	}
	if q < filterMinQ {
		q = filterMinQ
	} else if q > filterMaxQ {
		q = filterMaxQ
	}

	freq := 2 * math.Sin(math.Pi*cutoff/f.SampleRate)
	damp := 1 / q

	high := input - f.low - damp*f.band
	f.band += freq * high
	f.low += freq * f.band

	if math.IsNaN(f.low) || math.IsNaN(f.band) ||
		math.Abs(f.low) > filterExplodeGuard || math.Abs(f.band) > filterExplodeGuard {
		f.low, f.band = 0, 0
		return 0
	}

	switch f.Mode {
	case FilterHighpass:
		return high
	case FilterBandpass:
		return f.band
	case FilterNotch:
		return f.low + high
	default:
		return f.low
	}
}
