package dsp

import (
	"math"
	"testing"

	"loomcycle/internal/control"
	"loomcycle/internal/graph"
	"loomcycle/internal/samplebank"
	"loomcycle/internal/voice"
)

func runNode(g *graph.Graph, id graph.NodeID, n int) []float64 {
	g.SetOutputNode(id)
	if err := g.Recompute(); err != nil {
		panic(err)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = g.Tick()
	}
	return out
}

func TestOscillatorSinePhaseWraps(t *testing.T) {
	g := graph.New()
	osc := &Oscillator{Shape: ShapeSine, Freq: graph.ValueSignal(1), SampleRate: 4}
	id := g.AddNode(osc)
	out := runNode(g, id, 4)

	// At 1Hz sampled at 4Hz, one full cycle every 4 samples: phases 0, .25, .5, .75
	want := []float64{math.Sin(0), math.Sin(math.Pi / 2), math.Sin(math.Pi), math.Sin(3 * math.Pi / 2)}
	for i := range want {
		if math.Abs(out[i]-want[i]) > 1e-9 {
			t.Fatalf("sample %d = %v, want %v", i, out[i], want[i])
		}
	}
}

func TestOscillatorSquareSign(t *testing.T) {
	g := graph.New()
	osc := &Oscillator{Shape: ShapeSquare, Freq: graph.ValueSignal(1), SampleRate: 8}
	id := g.AddNode(osc)
	out := runNode(g, id, 8)
	if out[0] <= 0 {
		t.Fatalf("expected positive half first, got %v", out[0])
	}
	if out[4] >= 0 {
		t.Fatalf("expected negative half at sample 4, got %v", out[4])
	}
}

func TestNoiseStaysInRange(t *testing.T) {
	g := graph.New()
	n := &Noise{Seed: 1}
	id := g.AddNode(n)
	out := runNode(g, id, 100)
	for _, v := range out {
		if v < -1 || v >= 1 {
			t.Fatalf("expected a value in [-1, 1), got %v", v)
		}
	}
}

func TestEnvelopeReachesSustainThenReleasesToZero(t *testing.T) {
	g := graph.New()
	env := &Envelope{
		Attack:     graph.ValueSignal(0.01),
		Decay:      graph.ValueSignal(0.01),
		Sustain:    graph.ValueSignal(0.5),
		Release:    graph.ValueSignal(0.01),
		Trigger:    graph.ValueSignal(1),
		SampleRate: 1000,
	}
	id := g.AddNode(env)
	out := runNode(g, id, 100)
	last := out[len(out)-1]
	if math.Abs(last-0.5) > 0.05 {
		t.Fatalf("expected envelope to settle near sustain 0.5, got %v", last)
	}

	env.Trigger = graph.ValueSignal(0)
	out2 := runNode(g, id, 200)
	tail := out2[len(out2)-1]
	if tail > 0.01 {
		t.Fatalf("expected envelope to decay to ~0 after release, got %v", tail)
	}
}

func TestFilterLowpassAttenuatesHighFrequencyMoreThanDC(t *testing.T) {
	g := graph.New()
	osc := &Oscillator{Shape: ShapeSine, Freq: graph.ValueSignal(8000), SampleRate: 44100}
	oscID := g.AddNode(osc)
	filt := &StateVariableFilter{
		Mode:       FilterLowpass,
		Input:      graph.NodeSignal(oscID),
		Cutoff:     graph.ValueSignal(200),
		Q:          graph.ValueSignal(0.7),
		SampleRate: 44100,
	}
	filtID := g.AddNode(filt)
	out := runNode(g, filtID, 1000)

	peak := 0.0
	for _, v := range out[200:] {
		if math.Abs(v) > peak {
			peak = math.Abs(v)
		}
	}
	if peak > 0.5 {
		t.Fatalf("expected strong attenuation of 8kHz through 200Hz lowpass, peak=%v", peak)
	}
}

func TestDelayFeedbackClampedToUnity(t *testing.T) {
	g := graph.New()
	d := &Delay{
		Input:      graph.ValueSignal(0),
		Time:       graph.ValueSignal(0.001),
		Feedback:   graph.ValueSignal(2.0),
		Mix:        graph.ValueSignal(1),
		SampleRate: 1000,
		MaxTime:    1,
	}
	id := g.AddNode(d)
	_ = runNode(g, id, 2000)
	// with input 0 and clamped feedback <= 1, output must never blow up.
	out := runNode(g, id, 10)
	for _, v := range out {
		if math.IsNaN(v) || math.Abs(v) > 10 {
			t.Fatalf("delay feedback exploded: %v", v)
		}
	}
}

func TestArithmeticDivByZeroIsZeroNotNaN(t *testing.T) {
	a := &Arithmetic{Op: ArithDiv, Left: graph.ValueSignal(1), Right: graph.ValueSignal(0)}
	if got := a.Tick(nil); got != 0 {
		t.Fatalf("1/0 = %v, want 0", got)
	}
}

func TestReverbMixZeroIsDry(t *testing.T) {
	g := graph.New()
	r := &Reverb{
		Input:      graph.ValueSignal(0.3),
		RoomSize:   graph.ValueSignal(0.5),
		Mix:        graph.ValueSignal(0),
		SampleRate: 1000,
	}
	id := g.AddNode(r)
	out := runNode(g, id, 5)
	for _, v := range out {
		if math.Abs(v-0.3) > 1e-9 {
			t.Fatalf("expected dry passthrough at mix=0, got %v", v)
		}
	}
}

func TestReverbTailDoesNotExplode(t *testing.T) {
	g := graph.New()
	osc := &Oscillator{Shape: ShapeSine, Freq: graph.ValueSignal(220), SampleRate: 8000}
	oscID := g.AddNode(osc)
	r := &Reverb{
		Input:      graph.NodeSignal(oscID),
		RoomSize:   graph.ValueSignal(0.9),
		Mix:        graph.ValueSignal(0.5),
		SampleRate: 8000,
	}
	id := g.AddNode(r)
	out := runNode(g, id, 4000)
	for _, v := range out {
		if math.IsNaN(v) || math.Abs(v) > 10 {
			t.Fatalf("reverb tail exploded: %v", v)
		}
	}
}

func TestLFOStaysInRangeAtSubAudioRate(t *testing.T) {
	g := graph.New()
	lfo := &LFO{Shape: ShapeSine, Freq: graph.ValueSignal(2), SampleRate: 1000}
	id := g.AddNode(lfo)
	out := runNode(g, id, 1000)
	for _, v := range out {
		if v < -1.0001 || v > 1.0001 {
			t.Fatalf("LFO output out of range: %v", v)
		}
	}
}

func TestCompressorReducesGainAboveThreshold(t *testing.T) {
	g := graph.New()
	osc := &Oscillator{Shape: ShapeSine, Freq: graph.ValueSignal(440), SampleRate: 44100}
	oscID := g.AddNode(osc)
	comp := &Compressor{
		Input:       graph.NodeSignal(oscID),
		ThresholdDB: -20,
		RatioToOne:  4,
		AttackMs:    1,
		ReleaseMs:   50,
		SampleRate:  44100,
	}
	id := g.AddNode(comp)
	out := runNode(g, id, 4410)

	peak := 0.0
	for _, v := range out[1000:] {
		if math.Abs(v) > peak {
			peak = math.Abs(v)
		}
	}
	if peak >= 1.0 {
		t.Fatalf("expected compressor to reduce a full-scale sine below unity, peak=%v", peak)
	}
}

func TestLimiterNeverExceedsThresholdByMuch(t *testing.T) {
	g := graph.New()
	lim := &Limiter{
		Input:       graph.ValueSignal(1.0),
		ThresholdDB: -6,
		ReleaseMs:   20,
		SampleRate:  44100,
	}
	id := g.AddNode(lim)
	out := runNode(g, id, 44100)
	last := out[len(out)-1]
	// -6dB ~= 0.5 amplitude; allow generous slack since this is a soft-knee-free limiter.
	if math.Abs(last) > 0.6 {
		t.Fatalf("expected limiter to settle near -6dB (~0.5), got %v", last)
	}
}

func TestSampleMutesVoicesOnMutedChannelOnly(t *testing.T) {
	pool := voice.NewPool(4)
	bank := samplebank.New()
	bank.Insert("bd", &samplebank.PCM{SampleRate: 8, Channels: 1, Frames: []float64{1, 1, 1, 1, 1, 1, 1, 1}})
	surface := control.NewSurface(nil)

	bass := &Sample{Pool: pool, Bank: bank, SampleRef: "bd", Channel: "bass", Surface: surface}
	lead := &Sample{Pool: pool, Bank: bank, SampleRef: "bd", Channel: "lead", Surface: surface}

	bass.Trigger(1, 0, 1)
	lead.Trigger(1, 0, 1)

	if bass.Tick(nil) == 0 {
		t.Fatal("expected unmuted bass voice to produce non-zero output")
	}
	if lead.Tick(nil) == 0 {
		t.Fatal("expected unmuted lead voice to produce non-zero output")
	}

	surface.MuteChannel("bass", true)
	if out := bass.Tick(nil); out != 0 {
		t.Fatalf("expected muted bass channel to produce silence, got %v", out)
	}
	if lead.Tick(nil) == 0 {
		t.Fatal("expected lead channel to stay audible while only bass is muted")
	}
}

func TestPatternScalarHoldsBetweenScheduledUpdates(t *testing.T) {
	p := &PatternScalar{}
	p.SetSchedule([]ScheduledValue{{Offset: 2, Value: 0.5}, {Offset: 5, Value: 0.9}})

	var out []float64
	for i := 0; i < 8; i++ {
		out = append(out, p.Tick(nil))
	}
	want := []float64{0, 0, 0.5, 0.5, 0.5, 0.9, 0.9, 0.9}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("sample %d = %v, want %v", i, out[i], want[i])
		}
	}
}
