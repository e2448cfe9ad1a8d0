package dsp

import (
	"loomcycle/internal/control"
	"loomcycle/internal/graph"
	"loomcycle/internal/samplebank"
	"loomcycle/internal/voice"
)

// Sample is the graph node a triggered pattern event ultimately reaches: it
// asks its voice.Pool for a fresh voice on Trigger(), then every Tick mixes
// every active voice belonging to it down to a mono signal (stereo panning
// is applied one layer up, in internal/engine, since graph.Node.Tick
// returns a single float64).
type Sample struct {
	Bank *samplebank.Bank
	Pool *voice.Pool

	// SampleRef selects the PCM slot the next Trigger call plays; set by
	// internal/scheduler immediately before calling Trigger so a single
	// node can serve a whole sample map (spec.md §4.5 "sample ~bd <n>").
	SampleRef string
	CutGroup  int

	// Channel names the bind this node was assigned to (e.g. `~bass` ->
	// "bass"); empty for an unbound sample() expression. Voices triggered
	// here carry it so Tick can silence them via Surface.ChannelMuted.
	Channel string
	Surface *control.Surface

	// id identifies this node's own voices in the pool it shares with every
	// other sample() node in the program (the voice budget and stealing
	// policy are global, but each node must only mix down what it
	// triggered). Assigned lazily on first Trigger.
	id uint64
}

// nextSampleNodeID hands out Sample node identities. The engine compiles and
// ticks one program at a time on a single thread, so a plain counter (same
// style as voice.Pool's own nextID) is enough.
var nextSampleNodeID uint64

func (s *Sample) ownerID() uint64 {
	if s.id == 0 {
		nextSampleNodeID++
		s.id = nextSampleNodeID
	}
	return s.id
}

func (s *Sample) Inputs() []graph.NodeID { return nil }

func (s *Sample) Reset() {
	if s.Pool != nil {
		s.Pool.Hush()
	}
}

// Trigger starts a new voice playing SampleRef at the given gain/pan/speed.
// Called by internal/scheduler at the exact intra-block sample offset a
// pattern event fires.
func (s *Sample) Trigger(gain, pan, speed float64) uint64 {
	return s.Pool.Trigger(s.SampleRef, gain, pan, speed, s.CutGroup, s.Channel, s.ownerID())
}

func (s *Sample) Tick(g *graph.Graph) float64 {
	if s.Pool == nil || s.Bank == nil {
		return 0
	}
	total := 0.0
	voices := s.Pool.Voices()
	for i := range voices {
		v := &voices[i]
		if !v.Active || v.Owner != s.id {
			continue
		}
		pcm, ok := s.Bank.Get(v.SampleRef)
		if !ok {
			s.Pool.Deactivate(i)
			continue
		}
		frameCount := len(pcm.Frames) / maxInt(pcm.Channels, 1)
		if v.Position >= float64(frameCount) {
			s.Pool.Deactivate(i)
			continue
		}

		muted := s.Surface != nil && v.Channel != "" && s.Surface.ChannelMuted(v.Channel)
		if !muted {
			sampleValue := readFrameMono(pcm, v.Position)
			total += sampleValue * v.Gain
		}

		v.Position += v.Speed
		if v.Position >= float64(frameCount) {
			s.Pool.Deactivate(i)
		}
	}
	return total
}

// readFrameMono linearly interpolates a (possibly multi-channel, downmixed
// to mono) sample at a fractional frame position.
func readFrameMono(pcm *samplebank.PCM, pos float64) float64 {
	channels := maxInt(pcm.Channels, 1)
	frameCount := len(pcm.Frames) / channels
	if frameCount == 0 {
		return 0
	}
	i0 := int(pos)
	i1 := i0 + 1
	if i1 >= frameCount {
		i1 = frameCount - 1
	}
	frac := pos - float64(i0)

	v0 := monoAt(pcm, i0, channels)
	v1 := monoAt(pcm, i1, channels)
	return v0*(1-frac) + v1*frac
}

func monoAt(pcm *samplebank.PCM, frame, channels int) float64 {
	base := frame * channels
	if base < 0 || base+channels > len(pcm.Frames) {
		return 0
	}
	sum := 0.0
	for c := 0; c < channels; c++ {
		sum += pcm.Frames[base+c]
	}
	return sum / float64(channels)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
