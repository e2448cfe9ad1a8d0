package scheduler

import (
	"testing"

	"loomcycle/internal/dsp"
	"loomcycle/internal/pattern"
	"loomcycle/internal/samplebank"
	"loomcycle/internal/voice"
)

func TestScalarBindingInstallsScheduleOncePerEvent(t *testing.T) {
	s := New(8, 1) // 1 cycle/sec, 8 samples/sec -> 8 samples per cycle
	target := &dsp.PatternScalar{}
	s.AddScalar(&ScalarBinding{
		Pattern: pattern.Pure(0.5),
		Target:  target,
	})

	s.RunBlock(8)

	out := make([]float64, 8)
	for i := range out {
		out[i] = target.Tick(nil)
	}
	for i, v := range out {
		if v != 0.5 {
			t.Fatalf("sample %d = %v, want 0.5", i, v)
		}
	}
}

func TestScalarBindingDedupsAcrossBlocks(t *testing.T) {
	s := New(8, 1)
	target := &dsp.PatternScalar{}
	binding := &ScalarBinding{Pattern: pattern.Pure(1.0), Target: target}
	s.AddScalar(binding)

	s.RunBlock(4)
	s.RunBlock(4)

	if binding.ringN == 0 {
		t.Fatal("expected dedup ring to record the fired whole")
	}
}

func TestTriggerBindingFiresVoice(t *testing.T) {
	pool := voice.NewPool(4)
	bank := samplebank.New()
	bank.Insert("bd", &samplebank.PCM{SampleRate: 8, Channels: 1, Frames: []float64{1, 1, 1, 1}})

	sampleNode := &dsp.Sample{Pool: pool, Bank: bank}

	s := New(8, 1)
	s.AddTrigger(&TriggerBinding{
		Pattern: pattern.Pure(TriggerEvent{SampleRef: "bd", Gain: 1, Speed: 1}),
		Target:  sampleNode,
	})

	s.RunBlock(8)

	out := sampleNode.Tick(nil)
	if out == 0 {
		t.Fatal("expected triggered voice to produce non-zero output")
	}
}

func TestBPMSetsCPS(t *testing.T) {
	s := New(44100, 0)
	s.BPM(120, 4)
	want := 120.0 / (60 * 4)
	if s.CPS != want {
		t.Fatalf("CPS = %v, want %v", s.CPS, want)
	}
}
