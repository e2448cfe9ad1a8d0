package samplebank

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Bank is the concurrent name -> PCM store the audio thread reads samples
// from. Reads (from Sample nodes, every block) use an atomic.Pointer
// snapshot rather than internal/devkit's sync.RWMutex-guarded Service
// pattern — an RWMutex can still block a reader behind a writer's critical
// section, which the audio thread must never do (spec.md §5, "control
// thread only" for inserts). Inserts and reloads build a new snapshot map
// and swap it in; existing readers keep using the old map until they next
// load the pointer, so no insert is ever observed half-built.
type Bank struct {
	snapshot atomic.Pointer[map[string]*PCM]

	loadMu sync.Mutex
}

// New creates an empty bank.
func New() *Bank {
	b := &Bank{}
	empty := map[string]*PCM{}
	b.snapshot.Store(&empty)
	return b
}

// Get returns the PCM registered under name, or (nil, false). Safe to call
// from the audio thread: never allocates, never blocks.
func (b *Bank) Get(name string) (*PCM, bool) {
	m := *b.snapshot.Load()
	pcm, ok := m[name]
	return pcm, ok
}

// LoadManifestFile loads every sample named in the manifest at path and
// installs them in one atomic swap. Control-thread only.
func (b *Bank) LoadManifestFile(path string) error {
	manifest, err := LoadManifest(path)
	if err != nil {
		return err
	}

	b.loadMu.Lock()
	defer b.loadMu.Unlock()

	next := make(map[string]*PCM, len(manifest.Samples))
	old := *b.snapshot.Load()
	for k, v := range old {
		next[k] = v
	}

	for _, entry := range manifest.Samples {
		pcm, err := loadWAV(entry.Path)
		if err != nil {
			return fmt.Errorf("samplebank: loading %q: %w", entry.Name, err)
		}
		next[entry.Name] = pcm
	}

	b.snapshot.Store(&next)
	return nil
}

// Insert registers a single sample directly (used by tests and by code
// that decodes samples by some other means than a manifest file).
func (b *Bank) Insert(name string, pcm *PCM) {
	b.loadMu.Lock()
	defer b.loadMu.Unlock()

	old := *b.snapshot.Load()
	next := make(map[string]*PCM, len(old)+1)
	for k, v := range old {
		next[k] = v
	}
	next[name] = pcm
	b.snapshot.Store(&next)
}

// Len reports how many samples are currently registered.
func (b *Bank) Len() int {
	return len(*b.snapshot.Load())
}
