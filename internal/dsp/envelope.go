package dsp

import (
	"math"

	"loomcycle/internal/graph"
)

// EnvStage is one state of an Envelope's state machine.
type EnvStage int

const (
	EnvIdle EnvStage = iota
	EnvAttack
	EnvDecay
	EnvSustain
	EnvRelease
)

// Envelope is a single-sample ADSR state machine: linear attack, exponential
// decay and release with time constant segment/3 (spec.md §4.1). A rising
// edge on Trigger starts Attack; a falling edge starts Release regardless of
// stage. Carried over in spirit from internal/apu/fm_opm.go's envLevel
// pop-reduction ramp, generalized from a single rising ramp into a full
// four-stage machine with explicit EnvStage states, in the teacher's own
// switch-over-named-states idiom (see internal/apu's Channel state fields).
type Envelope struct {
	Attack  graph.Signal
	Decay   graph.Signal
	Sustain graph.Signal
	Release graph.Signal
	Trigger graph.Signal

	SampleRate float64

	stage      EnvStage
	level      float64
	lastTrig   float64
	everTrig   bool
}

func (e *Envelope) Inputs() []graph.NodeID {
	var ids []graph.NodeID
	for _, s := range []graph.Signal{e.Attack, e.Decay, e.Sustain, e.Release, e.Trigger} {
		if s.Kind == graph.SignalNode {
			ids = append(ids, s.Node)
		}
	}
	return ids
}

func (e *Envelope) Reset() {
	e.stage = EnvIdle
	e.level = 0
	e.lastTrig = 0
	e.everTrig = false
}

// Stage reports the envelope's current stage, for voice-manager bookkeeping
// (spec.md §4.4 "idle voices are stolen first").
func (e *Envelope) Stage() EnvStage { return e.stage }

func (e *Envelope) Tick(g *graph.Graph) float64 {
	trig := e.Trigger.Resolve(g)
	rising := e.everTrig && trig > 0 && e.lastTrig <= 0
	falling := e.everTrig && trig <= 0 && e.lastTrig > 0
	if !e.everTrig && trig > 0 {
		rising = true
	}
	e.lastTrig = trig
	e.everTrig = true

	if rising {
		e.stage = EnvAttack
	} else if falling {
		e.stage = EnvRelease
	}

	if e.SampleRate <= 0 {
		return 0
	}

	attack := e.Attack.Resolve(g)
	decay := e.Decay.Resolve(g)
	sustain := e.Sustain.Resolve(g)
	release := e.Release.Resolve(g)

	switch e.stage {
	case EnvIdle:
		e.level = 0
	case EnvAttack:
		if attack <= 0 {
			e.level = 1
		} else {
			e.level += 1.0 / (attack * e.SampleRate)
		}
		if e.level >= 1 {
			e.level = 1
			e.stage = EnvDecay
		}
	case EnvDecay:
		if decay <= 0 {
			e.level = sustain
			e.stage = EnvSustain
		} else {
			tau := decay / 3
			coeff := math.Exp(-1 / (tau * e.SampleRate))
			e.level = sustain + (e.level-sustain)*coeff
			if math.Abs(e.level-sustain) < 1e-4 {
				e.level = sustain
				e.stage = EnvSustain
			}
		}
	case EnvSustain:
		e.level = sustain
	case EnvRelease:
		if release <= 0 {
			e.level = 0
			e.stage = EnvIdle
		} else {
			tau := release / 3
			coeff := math.Exp(-1 / (tau * e.SampleRate))
			e.level *= coeff
			if e.level < 1e-4 {
				e.level = 0
				e.stage = EnvIdle
			}
		}
	}

	return e.level
}
