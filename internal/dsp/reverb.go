package dsp

import "loomcycle/internal/graph"

// combFilter is one parallel branch of the reverb: a fixed-length circular
// buffer read and written one sample apart, feedback-scaled, the same
// ring-cursor idiom Delay uses but with an integer delay length fixed at
// construction rather than a modulated Signal.
type combFilter struct {
	buf      []float64
	index    int
	feedback float64
}

func newCombFilter(delaySamples int, feedback float64) *combFilter {
	if delaySamples < 1 {
		delaySamples = 1
	}
	return &combFilter{buf: make([]float64, delaySamples), feedback: feedback}
}

func (c *combFilter) tick(input float64) float64 {
	out := c.buf[c.index]
	c.buf[c.index] = input + out*c.feedback
	c.index = (c.index + 1) % len(c.buf)
	return out
}

func (c *combFilter) reset() {
	for i := range c.buf {
		c.buf[i] = 0
	}
	c.index = 0
}

// allpassFilter is a Freeverb-style allpass section: same ring-buffer
// read/write as combFilter, but the output is the delayed value minus the
// (unscaled) input, while input plus feedback-scaled delayed value is written
// back into the buffer.
type allpassFilter struct {
	buf      []float64
	index    int
	feedback float64
}

func newAllpassFilter(delaySamples int, feedback float64) *allpassFilter {
	if delaySamples < 1 {
		delaySamples = 1
	}
	return &allpassFilter{buf: make([]float64, delaySamples), feedback: feedback}
}

func (a *allpassFilter) tick(input float64) float64 {
	buffered := a.buf[a.index]
	out := -input + buffered
	a.buf[a.index] = input + buffered*a.feedback
	a.index = (a.index + 1) % len(a.buf)
	return out
}

func (a *allpassFilter) reset() {
	for i := range a.buf {
		a.buf[i] = 0
	}
	a.index = 0
}

// combTuningsMs are the four parallel comb-filter delay times (milliseconds)
// of a Schroeder/Moorer-style reverb tank, spread apart so their resonances
// don't reinforce the same frequencies.
var combTuningsMs = [4]float64{29.7, 37.1, 41.1, 43.7}

// allpassTuningsMs are the two series allpass stages that follow the comb
// bank, diffusing the comb resonances into a smoother tail.
var allpassTuningsMs = [2]float64{5.0, 1.7}

// Reverb is a Schroeder/Moorer-style reverberator: four comb filters in
// parallel feeding two allpass filters in series, the DSP-nodes budget item
// spec.md lists but never specifies the construction of. Built on the same
// circular-buffer idiom as Delay, since a comb filter is exactly a
// fixed-delay feedback line.
type Reverb struct {
	Input  graph.Signal
	RoomSize graph.Signal // feedback coefficient, clamped [0, 0.98]
	Mix    graph.Signal   // dry/wet, clamped [0, 1]

	SampleRate float64

	combs    [4]*combFilter
	allpasses [2]*allpassFilter
	built    bool
}

func (r *Reverb) Inputs() []graph.NodeID {
	var ids []graph.NodeID
	for _, s := range []graph.Signal{r.Input, r.RoomSize, r.Mix} {
		if s.Kind == graph.SignalNode {
			ids = append(ids, s.Node)
		}
	}
	return ids
}

func (r *Reverb) ensureBuilt(feedback float64) {
	if r.built {
		return
	}
	for i, ms := range combTuningsMs {
		r.combs[i] = newCombFilter(int(ms/1000*r.SampleRate), feedback)
	}
	for i, ms := range allpassTuningsMs {
		r.allpasses[i] = newAllpassFilter(int(ms/1000*r.SampleRate), 0.5)
	}
	r.built = true
}

func (r *Reverb) Reset() {
	for _, c := range r.combs {
		if c != nil {
			c.reset()
		}
	}
	for _, a := range r.allpasses {
		if a != nil {
			a.reset()
		}
	}
}

func (r *Reverb) Tick(g *graph.Graph) float64 {
	if r.SampleRate <= 0 {
		return 0
	}

	input := r.Input.Resolve(g)
	roomSize := r.RoomSize.Resolve(g)
	mix := r.Mix.Resolve(g)

	if roomSize < 0 {
		roomSize = 0
	} else if roomSize > 0.98 {
		roomSize = 0.98
	}
	if mix < 0 {
		mix = 0
	} else if mix > 1 {
		mix = 1
	}

	r.ensureBuilt(roomSize)
	for _, c := range r.combs {
		c.feedback = roomSize
	}

	var wet float64
	for _, c := range r.combs {
		wet += c.tick(input)
	}
	wet /= float64(len(r.combs))
	for _, a := range r.allpasses {
		wet = a.tick(wet)
	}

	return input*(1-mix) + wet*mix
}
