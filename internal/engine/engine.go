// Package engine ties the signal graph, scheduler, voice pool, sample bank,
// and live-control surface into the one object a hosting CLI drives block
// by block (spec.md §5). Grounded on
// internal/emulator/emulator.go's Emulator struct (which bundles CPU, PPU,
// APU, Clock, and Logger behind Start/Stop/Pause/Resume/Reset and a
// RunFrame loop) — generalized from a fixed-hardware component set and a
// 60fps video frame cadence to this engine's own components and a
// configurable audio block size.
package engine

import (
	"loomcycle/internal/config"
	"loomcycle/internal/control"
	"loomcycle/internal/debug"
	"loomcycle/internal/dsl"
	"loomcycle/internal/engerr"
	"loomcycle/internal/samplebank"
	"loomcycle/internal/scheduler"
	"loomcycle/internal/voice"
)

// Engine is the top-level runtime: one voice pool and sample bank shared
// across every staged program, one live-control surface holding the active
// graph, and a scheduler rebuilt each time a new program is compiled (its
// bindings reference that program's own graph nodes, so it cannot outlive
// them).
type Engine struct {
	Config config.Config
	Logger *debug.Logger

	Bank    *samplebank.Bank
	Pool    *voice.Pool
	Surface *control.Surface

	scheduler *scheduler.Scheduler

	samplesRendered uint64
}

// New builds an Engine from cfg: opens the sample bank (loading its
// manifest if cfg.ManifestPath is set), sizes the voice pool, and starts
// with an empty rig and a scheduler running at cfg's default tempo.
func New(cfg config.Config, logger *debug.Logger) (*Engine, error) {
	if logger == nil {
		logger = debug.NewLogger(10000)
	}

	bank := samplebank.New()
	if cfg.ManifestPath != "" {
		if err := bank.LoadManifestFile(cfg.ManifestPath); err != nil {
			return nil, engerr.NewConstructionError("engine-init", "loading sample manifest %q: %v", cfg.ManifestPath, err)
		}
	}

	pool := voice.NewPool(cfg.VoicePoolSize)
	sched := scheduler.New(float64(cfg.SampleRate), 1)
	sched.BPM(cfg.DefaultBPM, cfg.BeatsPerCycle)

	e := &Engine{
		Config:    cfg,
		Logger:    logger,
		Bank:      bank,
		Pool:      pool,
		Surface:   control.NewSurface(nil),
		scheduler: sched,
	}
	return e, nil
}

// LoadProgram compiles source into a new graph, stages it as the active
// rig (a single atomic swap, taking effect at the next block boundary —
// spec.md §5), installs its scheduler bindings, and applies any
// tempo/hush/panic statements it contained. The previous program's graph is
// discarded in full; nothing about it is reused (spec.md §4.3's "whole
// graphs are replaced, not patched").
func (e *Engine) LoadProgram(source string) error {
	result, err := dsl.Compile(source, dsl.Env{
		SampleRate: float64(e.Config.SampleRate),
		Bank:       e.Bank,
		Pool:       e.Pool,
		Surface:    e.Surface,
	})
	if err != nil {
		return err
	}

	if err := result.Graph.Recompute(); err != nil {
		return engerr.NewConstructionError("engine-load", "compiled graph has a cycle: %v", err)
	}

	cps := e.currentCPS()
	if result.Tempo != nil {
		if result.Tempo.HasCPS {
			cps = result.Tempo.CPS
		} else if result.Tempo.HasBPM {
			beatsPerCycle := result.Tempo.BeatsPerCycle
			if beatsPerCycle <= 0 {
				beatsPerCycle = 4
			}
			cps = result.Tempo.BPM / (60 * beatsPerCycle)
		}
	}

	nextSched := scheduler.New(float64(e.Config.SampleRate), cps)
	for _, b := range result.ScalarBindings {
		nextSched.AddScalar(b)
	}
	for _, b := range result.TriggerBindings {
		nextSched.AddTrigger(b)
	}
	e.scheduler = nextSched
	e.Surface.Stage(&control.Rig{Graph: result.Graph, OutputNode: result.OutputNode})

	if result.HushChannel != nil {
		if *result.HushChannel == "" {
			e.Surface.Hush()
		} else {
			e.Surface.MuteChannel(*result.HushChannel, true)
		}
	}
	if result.Panic {
		e.Surface.Panic()
	}

	e.Logger.Logf(debug.ComponentEngine, debug.LogLevelInfo, "loaded program (%d scalar bindings, %d trigger bindings)", len(result.ScalarBindings), len(result.TriggerBindings))
	return nil
}

func (e *Engine) currentCPS() float64 {
	if e.scheduler == nil {
		return e.Config.DefaultBPM / (60 * e.Config.BeatsPerCycle)
	}
	return e.scheduler.CPS
}

// RenderBlock advances the scheduler by n samples and ticks the active rig
// n times, returning n interleaved stereo frames (left, right alternating).
// Stereo placement is a block-level approximation: since a graph.Node's
// Tick returns one mono float64 per sample (spec.md §3), individual voice
// pan isn't carried through the node graph — instead each sample's output
// is split left/right using the gain-weighted average pan of the voices
// active that sample, via voice.EqualPowerPan. A silent block (no active
// voices) pans dead center.
func (e *Engine) RenderBlock(n int) []float32 {
	e.scheduler.RunBlock(n)

	rig := e.Surface.Current()
	out := make([]float32, n*2)
	if rig == nil || rig.Graph == nil {
		e.samplesRendered += uint64(n)
		return out
	}

	for i := 0; i < n; i++ {
		value := rig.Graph.Tick()
		pan := e.averageActivePan()
		left, right := voice.EqualPowerPan(pan)
		out[i*2] = float32(value * left)
		out[i*2+1] = float32(value * right)
	}
	e.samplesRendered += uint64(n)
	return out
}

// averageActivePan is the gain-weighted mean pan of every currently active
// voice, or 0 (center) when nothing is playing.
func (e *Engine) averageActivePan() float64 {
	voices := e.Pool.Voices()
	var weighted, totalWeight float64
	for i := range voices {
		v := &voices[i]
		if !v.Active {
			continue
		}
		weighted += v.Pan * v.Gain
		totalWeight += v.Gain
	}
	if totalWeight == 0 {
		return 0
	}
	return weighted / totalWeight
}

// Render offline-renders durationSeconds of audio in e.Config.BlockSize
// chunks, returning the full interleaved stereo buffer — the non-realtime
// counterpart to the online device-backed loop in cmd/loomlive.
func (e *Engine) Render(durationSeconds float64) []float32 {
	totalSamples := int(durationSeconds * float64(e.Config.SampleRate))
	out := make([]float32, 0, totalSamples*2)
	for rendered := 0; rendered < totalSamples; {
		n := e.Config.BlockSize
		if rendered+n > totalSamples {
			n = totalSamples - rendered
		}
		out = append(out, e.RenderBlock(n)...)
		rendered += n
	}
	return out
}

// Hush silences every active voice without discarding the loaded program.
func (e *Engine) Hush() { e.Surface.Hush() }

// Panic is Hush under its own name, matching spec.md §4.4.
func (e *Engine) Panic() { e.Surface.Panic() }

// SamplesRendered reports the total sample count rendered since New.
func (e *Engine) SamplesRendered() uint64 { return e.samplesRendered }
