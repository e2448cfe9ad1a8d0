package debug

import (
	"testing"
	"time"
)

func TestOnceLogsOnlyFirstCall(t *testing.T) {
	l := NewLogger(100)
	defer l.Shutdown()

	l.Once("nan-on-node-3", ComponentDSP, LogLevelWarning, "node 3 produced NaN, substituting silence")
	l.Once("nan-on-node-3", ComponentDSP, LogLevelWarning, "node 3 produced NaN, substituting silence")
	l.Once("nan-on-node-3", ComponentDSP, LogLevelWarning, "node 3 produced NaN, substituting silence")

	// Once itself dedupes synchronously on onceMu; only one entry ever
	// reaches the channel, so a short wait for the drain goroutine is
	// enough to make the assertion deterministic.
	time.Sleep(20 * time.Millisecond)

	entries := l.GetEntries()
	if len(entries) != 1 {
		t.Fatalf("expected exactly 1 entry logged, got %d", len(entries))
	}
}
