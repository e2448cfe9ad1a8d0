// Package control implements the live-control surface: hush/panic, channel
// routing, and staged graph swap-in at block boundaries (spec.md §5).
// Grounded on internal/devkit/service.go's hot-reload service loop (compile
// a new program, validate it, then install it into the running target) —
// the same "build the replacement fully before it's visible" shape, but
// using an atomic pointer swap rather than devkit's sync.RWMutex, since the
// installation point here is the audio thread's block boundary and must
// never block on a lock (spec.md §5).
package control

import (
	"sync/atomic"

	"loomcycle/internal/graph"
)

// Rig is everything one render block needs: the active graph plus its
// output node. Swapped as a single unit so the audio thread never observes
// a half-updated graph.
type Rig struct {
	Graph      *graph.Graph
	OutputNode graph.NodeID
}

// Surface is the control-thread-facing API. The audio thread only ever
// calls Current() and ChannelMuted(), both lock-free snapshot reads, so
// that a control-thread edit can never stall a render block (spec.md §5).
type Surface struct {
	active atomic.Pointer[Rig]

	mutedChannels atomic.Pointer[map[string]bool]
}

// NewSurface creates a control surface with an initial (possibly empty) rig.
func NewSurface(initial *Rig) *Surface {
	s := &Surface{}
	if initial == nil {
		initial = &Rig{Graph: graph.New()}
	}
	s.active.Store(initial)
	empty := map[string]bool{}
	s.mutedChannels.Store(&empty)
	return s
}

// Current returns the rig the audio thread should render this block. Safe
// to call every block: never blocks, never allocates.
func (s *Surface) Current() *Rig {
	return s.active.Load()
}

// Stage installs a fully-built rig as the one returned by future Current()
// calls. Control-thread only; takes effect for the next block, not
// mid-block (spec.md §4.3/§5).
func (s *Surface) Stage(r *Rig) {
	s.active.Store(r)
}

// Hush silences every voice in the active rig's graph without tearing the
// graph down (spec.md §5).
func (s *Surface) Hush() {
	r := s.active.Load()
	if r != nil && r.Graph != nil {
		r.Graph.Panic()
	}
}

// Panic is Hush under spec.md §4.4's own name, kept as a distinct method so
// call sites can say what they mean.
func (s *Surface) Panic() {
	s.Hush()
}

// MuteChannel marks a named channel muted: builds a new snapshot map with
// name's entry changed and installs it with one atomic store, the same
// "build the replacement fully before it's visible" shape internal/
// samplebank.Bank uses for its manifest swap, and for the same reason —
// ChannelMuted below is called from dsp.Sample.Tick, once per active voice
// per sample, and must never block on a lock.
func (s *Surface) MuteChannel(name string, muted bool) {
	old := *s.mutedChannels.Load()
	next := make(map[string]bool, len(old)+1)
	for k, v := range old {
		next[k] = v
	}
	next[name] = muted
	s.mutedChannels.Store(&next)
}

// ChannelMuted reports whether name is currently muted. Lock-free: safe to
// call from the audio thread's per-sample render loop.
func (s *Surface) ChannelMuted(name string) bool {
	return (*s.mutedChannels.Load())[name]
}
