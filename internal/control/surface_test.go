package control

import (
	"testing"

	"loomcycle/internal/graph"
)

func TestStageSwapsCurrentRig(t *testing.T) {
	s := NewSurface(nil)
	first := s.Current()

	second := &Rig{Graph: graph.New()}
	s.Stage(second)

	if s.Current() != second {
		t.Fatal("expected Current() to return the staged rig")
	}
	if s.Current() == first {
		t.Fatal("expected Current() to no longer return the original rig")
	}
}

func TestMuteChannelRoundTrips(t *testing.T) {
	s := NewSurface(nil)
	if s.ChannelMuted("bass") {
		t.Fatal("expected channel unmuted by default")
	}
	s.MuteChannel("bass", true)
	if !s.ChannelMuted("bass") {
		t.Fatal("expected channel muted after MuteChannel(true)")
	}
}
