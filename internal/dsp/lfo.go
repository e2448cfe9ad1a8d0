package dsp

import (
	"math"

	"loomcycle/internal/graph"
)

// LFO is an Oscillator restricted to sub-audio rates and meant to feed
// another node's parameter Signal rather than the audio output directly —
// the natural generalization of "oscillators ... at minimum polyblep" once
// graph.Signal already supports Node references as modulation sources
// (spec.md §4.1, supplemented). It mirrors Oscillator's phase accumulator;
// the only differences are the caller's intent (patched into a Cutoff/Gain/
// Pan signal, not the output node) and that polyBLEP correction is skipped
// since sub-audio edges never alias.
type LFO struct {
	Shape Shape
	Freq  graph.Signal

	SampleRate float64

	phase float64
}

func (l *LFO) Inputs() []graph.NodeID {
	if l.Freq.Kind == graph.SignalNode {
		return []graph.NodeID{l.Freq.Node}
	}
	return nil
}

func (l *LFO) Reset() { l.phase = 0 }

func (l *LFO) Tick(g *graph.Graph) float64 {
	if l.SampleRate <= 0 {
		return 0
	}
	freq := l.Freq.Resolve(g)
	step := freq / l.SampleRate

	var out float64
	switch l.Shape {
	case ShapeTriangle:
		out = 4*math.Abs(l.phase-math.Floor(l.phase+0.5)) - 1
	case ShapeSaw:
		out = 2*l.phase - 1
	case ShapeSquare:
		if l.phase < 0.5 {
			out = 1
		} else {
			out = -1
		}
	default: // ShapeSine
		out = math.Sin(2 * math.Pi * l.phase)
	}

	l.phase += step
	l.phase -= math.Floor(l.phase)

	return out
}
