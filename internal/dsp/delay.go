package dsp

import "loomcycle/internal/graph"

// Delay is a circular-buffer delay line with linear-interpolated
// fractional-sample read, feedback applied to the write path and a dry/wet
// output mix (spec.md §4.1). Grounded on internal/apu/pcm.go's ring-buffer
// sample playback style (write cursor modulo buffer length), generalized
// from a one-shot playback cursor into a read/write pair so the same buffer
// supports feedback.
type Delay struct {
	Input    graph.Signal
	Time     graph.Signal
	Feedback graph.Signal
	Mix      graph.Signal

	SampleRate float64
	MaxTime    float64

	buf        []float64
	writeIndex int
}

// NewDelay allocates the ring buffer at construction, sized from
// SampleRate/MaxTime (both fixed at construction, unlike Reverb's
// per-tick-resolved RoomSize), so Tick never allocates on the audio thread.
func NewDelay(input, timeSig, feedback, mix graph.Signal, sampleRate, maxTime float64) *Delay {
	n := int(maxTime*sampleRate) + 1
	if n < 1 {
		n = 1
	}
	return &Delay{
		Input:      input,
		Time:       timeSig,
		Feedback:   feedback,
		Mix:        mix,
		SampleRate: sampleRate,
		MaxTime:    maxTime,
		buf:        make([]float64, n),
	}
}

func (d *Delay) Inputs() []graph.NodeID {
	var ids []graph.NodeID
	for _, s := range []graph.Signal{d.Input, d.Time, d.Feedback, d.Mix} {
		if s.Kind == graph.SignalNode {
			ids = append(ids, s.Node)
		}
	}
	return ids
}

func (d *Delay) Reset() {
	for i := range d.buf {
		d.buf[i] = 0
	}
	d.writeIndex = 0
}

func (d *Delay) Tick(g *graph.Graph) float64 {
	if d.SampleRate <= 0 || len(d.buf) == 0 {
		return 0
	}

	input := d.Input.Resolve(g)
	delayTime := d.Time.Resolve(g)
	feedback := d.Feedback.Resolve(g)
	mix := d.Mix.Resolve(g)

	if delayTime < 0 {
		delayTime = 0
	}
	maxDelaySamples := float64(len(d.buf) - 1)
	delaySamples := delayTime * d.SampleRate
	if delaySamples > maxDelaySamples {
		delaySamples = maxDelaySamples
	}

	readPos := float64(d.writeIndex) - delaySamples
	n := float64(len(d.buf))
	for readPos < 0 {
		readPos += n
	}
	i0 := int(readPos)
	frac := readPos - float64(i0)
	i1 := (i0 + 1) % len(d.buf)
	wet := d.buf[i0]*(1-frac) + d.buf[i1]*frac

	if feedback < 0 {
		feedback = 0
	} else if feedback > 1 {
		feedback = 1
	}
	d.buf[d.writeIndex] = input + wet*feedback
	d.writeIndex = (d.writeIndex + 1) % len(d.buf)

	if mix < 0 {
		mix = 0
	} else if mix > 1 {
		mix = 1
	}
	return input*(1-mix) + wet*mix
}
