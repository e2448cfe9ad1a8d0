package debug

import (
	"fmt"
	"sync"
	"time"
)

// Logger is the centralized logging system. All writes go through a
// buffered channel drained by a background goroutine, so Log never blocks
// the caller — critical since runtime bounded errors (spec.md §7.2) are
// logged from code paths that must not stall the audio thread.
type Logger struct {
	entries    []LogEntry
	entriesMu  sync.RWMutex
	maxEntries int
	writeIndex int
	entryCount int

	componentEnabled map[Component]bool
	componentMu      sync.RWMutex

	minLevel LogLevel
	levelMu  sync.RWMutex

	logChan chan LogEntry

	shutdown chan struct{}
	wg       sync.WaitGroup

	onceMu   sync.Mutex
	onceSeen map[string]bool
}

// NewLogger creates a new logger instance with every component enabled by
// default (unlike the teacher's opt-in default — this engine has no UI
// toggle panel, so a silent logger would hide every runtime bounded error).
func NewLogger(maxEntries int) *Logger {
	if maxEntries < 100 {
		maxEntries = 100
	}

	logger := &Logger{
		entries:          make([]LogEntry, maxEntries),
		maxEntries:       maxEntries,
		componentEnabled: make(map[Component]bool),
		minLevel:         LogLevelInfo,
		logChan:          make(chan LogEntry, 1000),
		shutdown:         make(chan struct{}),
		onceSeen:         make(map[string]bool),
	}

	for _, c := range []Component{
		ComponentPattern, ComponentNotation, ComponentGraph, ComponentDSP,
		ComponentVoice, ComponentScheduler, ComponentControl, ComponentEngine,
	} {
		logger.componentEnabled[c] = true
	}

	logger.wg.Add(1)
	go logger.processLogs()

	return logger
}

func (l *Logger) processLogs() {
	defer l.wg.Done()

	for {
		select {
		case entry := <-l.logChan:
			l.addEntry(entry)
		case <-l.shutdown:
			for {
				select {
				case entry := <-l.logChan:
					l.addEntry(entry)
				default:
					return
				}
			}
		}
	}
}

func (l *Logger) addEntry(entry LogEntry) {
	l.entriesMu.Lock()
	defer l.entriesMu.Unlock()

	l.entries[l.writeIndex] = entry
	l.writeIndex = (l.writeIndex + 1) % l.maxEntries

	if l.entryCount < l.maxEntries {
		l.entryCount++
	}
}

// Log logs a message with the specified component and level.
func (l *Logger) Log(component Component, level LogLevel, message string, data map[string]interface{}) {
	l.componentMu.RLock()
	enabled := l.componentEnabled[component]
	l.componentMu.RUnlock()

	if !enabled {
		return
	}

	l.levelMu.RLock()
	minLevel := l.minLevel
	l.levelMu.RUnlock()

	if level > minLevel {
		return
	}

	entry := LogEntry{
		Timestamp: time.Now(),
		Component: component,
		Level:     level,
		Message:   message,
		Data:      data,
	}

	select {
	case l.logChan <- entry:
	default:
		// Channel full: drop rather than block. Dropping a log line is
		// always preferable to stalling the thread that produced it.
	}
}

// Logf logs a formatted message.
func (l *Logger) Logf(component Component, level LogLevel, format string, args ...interface{}) {
	l.Log(component, level, fmt.Sprintf(format, args...), nil)
}

// Once logs a message only the first time it is called with a given key,
// for the lifetime of the Logger. This is the "log once per occurrence"
// mechanism spec.md §7.2 requires for runtime bounded errors (a pathological
// pattern or parameter shouldn't spam the log every block).
func (l *Logger) Once(key string, component Component, level LogLevel, message string) {
	l.onceMu.Lock()
	if l.onceSeen[key] {
		l.onceMu.Unlock()
		return
	}
	l.onceSeen[key] = true
	l.onceMu.Unlock()
	l.Log(component, level, message, nil)
}

// GetEntries returns a copy of all log entries, oldest first.
func (l *Logger) GetEntries() []LogEntry {
	l.entriesMu.RLock()
	defer l.entriesMu.RUnlock()

	if l.entryCount == 0 {
		return []LogEntry{}
	}

	entries := make([]LogEntry, l.entryCount)

	if l.entryCount < l.maxEntries {
		copy(entries, l.entries[:l.entryCount])
	} else {
		for i := 0; i < l.entryCount; i++ {
			idx := (l.writeIndex + i) % l.maxEntries
			entries[i] = l.entries[idx]
		}
	}

	return entries
}

// GetRecentEntries returns the most recent count entries.
func (l *Logger) GetRecentEntries(count int) []LogEntry {
	all := l.GetEntries()
	if count >= len(all) {
		return all
	}
	return all[len(all)-count:]
}

// Clear empties the entry buffer (not the Once dedup set).
func (l *Logger) Clear() {
	l.entriesMu.Lock()
	defer l.entriesMu.Unlock()

	l.entryCount = 0
	l.writeIndex = 0
}

// SetComponentEnabled enables or disables logging for a component.
func (l *Logger) SetComponentEnabled(component Component, enabled bool) {
	l.componentMu.Lock()
	defer l.componentMu.Unlock()
	l.componentEnabled[component] = enabled
}

// IsComponentEnabled reports whether a component is enabled.
func (l *Logger) IsComponentEnabled(component Component) bool {
	l.componentMu.RLock()
	defer l.componentMu.RUnlock()
	return l.componentEnabled[component]
}

// SetMinLevel sets the most verbose log level that will be recorded:
// entries at that level or any more severe one (Error, Warning, ...) are kept.
func (l *Logger) SetMinLevel(level LogLevel) {
	l.levelMu.Lock()
	defer l.levelMu.Unlock()
	l.minLevel = level
}

// GetMinLevel returns the minimum log level.
func (l *Logger) GetMinLevel() LogLevel {
	l.levelMu.RLock()
	defer l.levelMu.RUnlock()
	return l.minLevel
}

// Shutdown stops the background goroutine after draining pending entries.
func (l *Logger) Shutdown() {
	close(l.shutdown)
	l.wg.Wait()
}
