package dsp

import (
	"math"

	"loomcycle/internal/graph"
)

// dynamicsMinLevel floors the envelope follower's tracked level so a
// fully-silent input never produces a -Inf dB reading.
const dynamicsMinLevel = 1e-6

// Compressor is a feedforward envelope-follower gain-reduction node:
// grounded on the gain-reduction shape in the retrieval pack's
// grimnir_radio DSP-graph node catalogue (AGC/Compressor/Limiter nodes
// there shell out to an external GStreamer pipeline string); this one runs
// inline on the audio thread as spec.md §5 requires, since an external
// process per node is not an option here. ThresholdDB and RatioToOne are
// plain numbers (no per-sample modulation — compressors are normally set
// once per voice/bus, not swept).
type Compressor struct {
	Input graph.Signal

	ThresholdDB float64
	RatioToOne  float64 // e.g. 4 means 4:1; values <= 1 disable reduction
	AttackMs    float64
	ReleaseMs   float64

	SampleRate float64

	envelope float64
}

func (c *Compressor) Inputs() []graph.NodeID {
	if c.Input.Kind == graph.SignalNode {
		return []graph.NodeID{c.Input.Node}
	}
	return nil
}

func (c *Compressor) Reset() { c.envelope = 0 }

func (c *Compressor) Tick(g *graph.Graph) float64 {
	input := c.Input.Resolve(g)
	if c.SampleRate <= 0 {
		return input
	}

	rectified := math.Abs(input)
	coeff := attackReleaseCoeff(c.AttackMs, c.SampleRate)
	if rectified < c.envelope {
		coeff = attackReleaseCoeff(c.ReleaseMs, c.SampleRate)
	}
	c.envelope += (rectified - c.envelope) * coeff

	level := c.envelope
	if level < dynamicsMinLevel {
		level = dynamicsMinLevel
	}
	levelDB := 20 * math.Log10(level)

	ratio := c.RatioToOne
	if ratio < 1 {
		ratio = 1
	}

	var gainReductionDB float64
	if levelDB > c.ThresholdDB {
		overshoot := levelDB - c.ThresholdDB
		gainReductionDB = overshoot - overshoot/ratio
	}

	gain := math.Pow(10, -gainReductionDB/20)
	return input * gain
}

// Limiter is a Compressor fixed at an effectively infinite ratio and a fast
// attack — the brick-wall special case of the same envelope-follower
// machinery, kept as a distinct node so call sites can say what they mean
// (spec.md §4.1's DSP-nodes budget lists both by name).
type Limiter struct {
	Input graph.Signal

	ThresholdDB float64
	ReleaseMs   float64

	SampleRate float64

	inner Compressor
	built bool
}

func (l *Limiter) Inputs() []graph.NodeID {
	if l.Input.Kind == graph.SignalNode {
		return []graph.NodeID{l.Input.Node}
	}
	return nil
}

func (l *Limiter) Reset() { l.inner.Reset() }

func (l *Limiter) Tick(g *graph.Graph) float64 {
	if !l.built {
		l.inner = Compressor{
			Input:       l.Input,
			ThresholdDB: l.ThresholdDB,
			RatioToOne:  1000,
			AttackMs:    0.1,
			ReleaseMs:   l.ReleaseMs,
			SampleRate:  l.SampleRate,
		}
		l.built = true
	}
	l.inner.Input = l.Input
	return l.inner.Tick(g)
}

// attackReleaseCoeff converts a time constant in milliseconds into the
// one-pole smoothing coefficient applied once per sample.
func attackReleaseCoeff(ms, sampleRate float64) float64 {
	if ms <= 0 {
		return 1
	}
	return 1 - math.Exp(-1/(ms/1000*sampleRate))
}
