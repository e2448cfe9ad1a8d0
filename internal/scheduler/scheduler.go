// Package scheduler queries pattern algebra once per render block and turns
// the resulting haps into sample-accurate actions against the signal graph:
// PatternScalar schedule updates and voice triggers (spec.md §4.5).
//
// Grounded on internal/clock/scheduler.go's MasterClock: "track when each
// component should next run, advance by the minimum necessary amount, call
// its step function" becomes "track each binding's last-fired whole spans,
// query the pattern over the block's cycle window, dedup against what
// already fired." cps replaces the fixed CPUSpeed/APUSpeed ratio as the
// single tempo parameter translating cycles to wall-clock seconds.
package scheduler

import (
	"loomcycle/internal/dsp"
	"loomcycle/internal/frac"
	"loomcycle/internal/pattern"
)

// dedupRingSize bounds how many recently-fired whole spans a binding
// remembers; a block never straddles more overlapping events than this in
// practice, and bounding it keeps the scheduler allocation-free in steady
// state (spec.md §5, audio thread must not allocate, but the scheduler
// itself runs on the control thread — this bound is about predictability,
// not an audio-thread constraint).
const dedupRingSize = 8

// ScalarBinding drives one dsp.PatternScalar node from a float64 pattern.
type ScalarBinding struct {
	Pattern pattern.Pattern[float64]
	Target  *dsp.PatternScalar

	ring  [dedupRingSize]frac.TimeSpan
	ringN int
}

// TriggerEvent is one voice-trigger instruction carried by a trigger
// pattern's values.
type TriggerEvent struct {
	SampleRef string
	Gain      float64
	Pan       float64
	Speed     float64
}

// TriggerBinding drives one dsp.Sample node's voice triggers from a
// TriggerEvent pattern.
type TriggerBinding struct {
	Pattern pattern.Pattern[TriggerEvent]
	Target  *dsp.Sample

	ring  [dedupRingSize]frac.TimeSpan
	ringN int
}

func seen(ring *[dedupRingSize]frac.TimeSpan, n int, span frac.TimeSpan) bool {
	for i := 0; i < n; i++ {
		if ring[i].Begin.Equal(span.Begin) && ring[i].End.Equal(span.End) {
			return true
		}
	}
	return false
}

func remember(ring *[dedupRingSize]frac.TimeSpan, n *int, span frac.TimeSpan) {
	if *n < dedupRingSize {
		ring[*n] = span
		*n++
		return
	}
	copy(ring[:], ring[1:])
	ring[dedupRingSize-1] = span
}

// Scheduler owns the transport (cps, samples emitted so far) and the set of
// bindings it drives each block.
type Scheduler struct {
	SampleRate float64
	CPS        float64

	samplesEmitted uint64

	scalars  []*ScalarBinding
	triggers []*TriggerBinding
}

// New creates a scheduler at the given sample rate and initial tempo.
func New(sampleRate, cps float64) *Scheduler {
	return &Scheduler{SampleRate: sampleRate, CPS: cps}
}

// BPM sets the transport from a beats-per-minute value and a cycle's beat
// count (spec.md §4.5's "cps = bpm / (60 * beatsPerCycle)").
func (s *Scheduler) BPM(bpm, beatsPerCycle float64) {
	if beatsPerCycle <= 0 {
		beatsPerCycle = 4
	}
	s.CPS = bpm / (60 * beatsPerCycle)
}

// AddScalar registers a pattern-driven scalar parameter.
func (s *Scheduler) AddScalar(b *ScalarBinding) { s.scalars = append(s.scalars, b) }

// AddTrigger registers a pattern-driven sample trigger.
func (s *Scheduler) AddTrigger(b *TriggerBinding) { s.triggers = append(s.triggers, b) }

// cycleWindow returns the [begin,end) cycle-space span a block of n samples
// covers, given samples already emitted.
// cycleFracDenominator bounds the precision of the float->Fraction
// conversion at the transport boundary; cycle positions computed this way
// are only ever compared for dedup equality within one scheduler run, never
// accumulated, so this is not a source of long-run drift.
const cycleFracDenominator = 1 << 20

func (s *Scheduler) cycleWindow(n int) frac.TimeSpan {
	if s.CPS <= 0 || s.SampleRate <= 0 {
		return frac.NewSpan(frac.Zero, frac.Zero)
	}
	secondsPerSample := 1.0 / s.SampleRate
	beginSeconds := float64(s.samplesEmitted) * secondsPerSample
	endSeconds := float64(s.samplesEmitted+uint64(n)) * secondsPerSample
	begin := frac.FromFloat(beginSeconds*s.CPS, cycleFracDenominator)
	end := frac.FromFloat(endSeconds*s.CPS, cycleFracDenominator)
	return frac.NewSpan(begin, end)
}

// sampleOffset converts a cycle-space instant into a 0-based sample offset
// within the block that started at samplesEmitted.
func (s *Scheduler) sampleOffset(cyclePos frac.Fraction) int {
	seconds := cyclePos.ToFloat() / s.CPS
	sampleIndex := seconds * s.SampleRate
	offset := int(sampleIndex) - int(s.samplesEmitted)
	if offset < 0 {
		offset = 0
	}
	return offset
}

// RunBlock queries every binding over this block's cycle window and
// installs the resulting schedule/triggers, then advances the transport by
// n samples. Must be called exactly once per block, before the graph ticks
// that block's samples.
func (s *Scheduler) RunBlock(n int) {
	if s.CPS <= 0 || s.SampleRate <= 0 {
		s.samplesEmitted += uint64(n)
		return
	}
	window := s.cycleWindow(n)
	state := pattern.State{Span: window}

	for _, b := range s.scalars {
		haps := b.Pattern.Query(state)
		var schedule []dsp.ScheduledValue
		for _, h := range haps {
			if h.Whole == nil {
				continue
			}
			if seen(&b.ring, b.ringN, *h.Whole) {
				continue
			}
			remember(&b.ring, &b.ringN, *h.Whole)
			schedule = append(schedule, dsp.ScheduledValue{
				Offset: s.sampleOffset(h.Whole.Begin),
				Value:  h.Value,
			})
		}
		if schedule != nil {
			b.Target.SetSchedule(schedule)
		}
	}

	for _, b := range s.triggers {
		haps := b.Pattern.Query(state)
		for _, h := range haps {
			if h.Whole == nil {
				continue
			}
			if seen(&b.ring, b.ringN, *h.Whole) {
				continue
			}
			remember(&b.ring, &b.ringN, *h.Whole)
			ev := h.Value
			b.Target.SampleRef = ev.SampleRef
			b.Target.Trigger(ev.Gain, ev.Pan, ev.Speed)
		}
	}

	s.samplesEmitted += uint64(n)
}

// SamplesEmitted reports the transport position in samples, for tests and
// diagnostics.
func (s *Scheduler) SamplesEmitted() uint64 { return s.samplesEmitted }
