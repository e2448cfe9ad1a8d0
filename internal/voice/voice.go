// Package voice implements the polyphonic voice manager: a fixed-capacity
// pool of sample-playback voices, cut groups, voice stealing, and
// equal-power stereo panning (spec.md §4.4). Grounded on internal/apu's
// fixed four-channel Channels array generalized into an open pool sized at
// construction, with the same "each channel/voice owns its own playback
// state" shape the teacher's APU uses.
package voice

import "math"

// Stage mirrors dsp.EnvStage without importing internal/dsp, since voice
// only needs to know idle vs. active vs. releasing for stealing decisions.
type Stage int

const (
	StageIdle Stage = iota
	StageActive
	StageReleasing
)

// Voice is one playback slot: a sample reference, playback position, and
// the gain/pan/speed parameters it was triggered with.
type Voice struct {
	ID        uint64
	Active    bool
	CutGroup  int
	SampleRef string
	Gain      float64
	Pan       float64
	Speed     float64
	Position  float64
	Stage     Stage
	TriggerAt uint64
	ReleaseAt float64 // seconds of release remaining once in StageReleasing

	// Channel names the live-control channel this voice belongs to (the
	// `~name` it was bound to), empty if unbound. internal/dsp.Sample reads
	// it to honor internal/control.Surface.MuteChannel.
	Channel string

	// Owner identifies which dsp.Sample node triggered this voice. The pool
	// is shared across every sample() node in a program so the voice budget
	// and stealing policy are global, but each node's Tick must only mix
	// down the voices it triggered itself, not every voice in the pool.
	Owner uint64
}

// Pool is a fixed-capacity set of voices (spec.md §4.4, default capacity 64).
type Pool struct {
	voices   []Voice
	nextID   uint64
	clock    uint64
	capacity int
}

// NewPool creates a pool with the given capacity (spec.md default: 64).
func NewPool(capacity int) *Pool {
	if capacity < 1 {
		capacity = 1
	}
	return &Pool{voices: make([]Voice, capacity), capacity: capacity}
}

// Trigger starts a new voice playing sampleRef, returning its id. If every
// slot is occupied, the stealing policy in steal() picks a victim: idle
// first (none, by construction, since a full pool has none idle), else the
// oldest-triggered voice that is not releasing, else the oldest-triggered
// voice overall. Retriggering a cut group first begins a
// fast (5ms) release on every other voice sharing that group.
func (p *Pool) Trigger(sampleRef string, gain, pan, speed float64, cutGroup int, channel string, owner uint64) uint64 {
	p.clock++
	if cutGroup != 0 {
		for i := range p.voices {
			v := &p.voices[i]
			if v.Active && v.CutGroup == cutGroup {
				v.Stage = StageReleasing
				v.ReleaseAt = 0.005
			}
		}
	}

	idx := p.findFreeSlot()
	if idx < 0 {
		idx = p.steal()
	}

	p.nextID++
	id := p.nextID
	p.voices[idx] = Voice{
		ID:        id,
		Active:    true,
		CutGroup:  cutGroup,
		SampleRef: sampleRef,
		Gain:      gain,
		Pan:       pan,
		Speed:     speed,
		Position:  0,
		Stage:     StageActive,
		TriggerAt: p.clock,
		Channel:   channel,
		Owner:     owner,
	}
	return id
}

func (p *Pool) findFreeSlot() int {
	for i := range p.voices {
		if !p.voices[i].Active {
			return i
		}
	}
	return -1
}

// steal picks a victim index when every slot is occupied: prefer the
// oldest-triggered voice still in StageActive (releasing voices are skipped),
// falling back to the oldest-triggered voice overall
// (spec.md §4.4 voice-stealing policy).
func (p *Pool) steal() int {
	best := -1
	for i := range p.voices {
		if p.voices[i].Stage != StageActive {
			continue
		}
		if best < 0 || p.voices[i].TriggerAt < p.voices[best].TriggerAt {
			best = i
		}
	}
	if best >= 0 {
		return best
	}
	for i := range p.voices {
		if best < 0 || p.voices[i].TriggerAt < p.voices[best].TriggerAt {
			best = i
		}
	}
	return best
}

// ReleaseAll begins release on every active voice in cutGroup (0 matches
// voices with no cut group assigned only if explicitly requested via group 0).
func (p *Pool) ReleaseAll(cutGroup int) {
	for i := range p.voices {
		v := &p.voices[i]
		if v.Active && v.CutGroup == cutGroup {
			v.Stage = StageReleasing
		}
	}
}

// Hush immediately silences every voice (spec.md §5, channel hush).
func (p *Pool) Hush() {
	for i := range p.voices {
		p.voices[i] = Voice{}
	}
}

// Panic is Hush under another name, kept distinct so call sites read
// according to spec.md §4.4's own vocabulary ("panic(): set every voice to
// Idle immediately").
func (p *Pool) Panic() { p.Hush() }

// Voices returns the live slot snapshot for the audio thread to mix; the
// caller must not retain the slice across calls since Pool reuses storage.
func (p *Pool) Voices() []Voice { return p.voices }

// Deactivate marks slot i as idle, called by the sample player once a
// voice's playback position runs past the end of its sample.
func (p *Pool) Deactivate(i int) {
	if i >= 0 && i < len(p.voices) {
		p.voices[i] = Voice{}
	}
}

// EqualPowerPan returns the (left, right) gain multipliers for pan in
// [-1, 1] using the equal-power law (spec.md §4.4).
func EqualPowerPan(pan float64) (left, right float64) {
	if pan < -1 {
		pan = -1
	} else if pan > 1 {
		pan = 1
	}
	angle := (pan + 1) * math.Pi / 4
	return math.Cos(angle), math.Sin(angle)
}
