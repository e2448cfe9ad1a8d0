package notation

import (
	"testing"

	"loomcycle/internal/frac"
	"loomcycle/internal/pattern"
)

func queryWholeCycle(t *testing.T, src string) []pattern.Hap[string] {
	t.Helper()
	p, err := Compile(src)
	if err != nil {
		t.Fatalf("Compile(%q): %v", src, err)
	}
	return p.Query(pattern.State{Span: frac.NewSpan(frac.Zero, frac.One)})
}

func TestCompileSimpleSequence(t *testing.T) {
	haps := queryWholeCycle(t, "bd sn hh")
	if len(haps) != 3 {
		t.Fatalf("expected 3 events, got %d: %+v", len(haps), haps)
	}
	want := []string{"bd", "sn", "hh"}
	for i, h := range haps {
		if h.Value != want[i] {
			t.Errorf("event %d: got %q, want %q", i, h.Value, want[i])
		}
	}
}

func TestCompileRest(t *testing.T) {
	haps := queryWholeCycle(t, "bd ~ sn ~")
	if len(haps) != 2 {
		t.Fatalf("expected 2 events (rests produce none), got %d", len(haps))
	}
}

func TestCompileBracketGroupSubdivides(t *testing.T) {
	haps := queryWholeCycle(t, "bd [hh hh]")
	if len(haps) != 3 {
		t.Fatalf("expected 3 events, got %d: %+v", len(haps), haps)
	}
	if !haps[0].Part.Begin.Equal(frac.Zero) {
		t.Errorf("bd should start at 0, got %v", haps[0].Part.Begin)
	}
	if !haps[1].Part.Begin.Equal(frac.New(1, 2)) {
		t.Errorf("first hh should start at 1/2, got %v", haps[1].Part.Begin)
	}
	if !haps[2].Part.Begin.Equal(frac.New(3, 4)) {
		t.Errorf("second hh should start at 3/4, got %v", haps[2].Part.Begin)
	}
}

func TestCompileStack(t *testing.T) {
	haps := queryWholeCycle(t, "[bd, hh hh]")
	if len(haps) != 3 {
		t.Fatalf("expected 3 events (1 bd + 2 hh), got %d: %+v", len(haps), haps)
	}
}

func TestCompileAlternationPicksDifferentCyclePerQuery(t *testing.T) {
	p, err := Compile("<bd sn>")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	cyc0 := p.Query(pattern.State{Span: frac.NewSpan(frac.Zero, frac.One)})
	cyc1 := p.Query(pattern.State{Span: frac.NewSpan(frac.One, frac.FromInt(2))})
	if len(cyc0) != 1 || len(cyc1) != 1 {
		t.Fatalf("expected one event per cycle, got %d and %d", len(cyc0), len(cyc1))
	}
	if cyc0[0].Value != "bd" || cyc1[0].Value != "sn" {
		t.Errorf("expected bd then sn, got %q then %q", cyc0[0].Value, cyc1[0].Value)
	}
}

func TestCompileEuclid(t *testing.T) {
	haps := queryWholeCycle(t, "bd(3,8)")
	if len(haps) != 3 {
		t.Fatalf("expected 3 hits, got %d: %+v", len(haps), haps)
	}
}

func TestCompileWeight(t *testing.T) {
	haps := queryWholeCycle(t, "bd@3 sn")
	if len(haps) != 2 {
		t.Fatalf("expected 2 events, got %d", len(haps))
	}
	if !haps[0].Part.Begin.Equal(frac.Zero) {
		t.Errorf("bd should start at 0, got %v", haps[0].Part.Begin)
	}
	if !haps[1].Part.Begin.Equal(frac.New(3, 4)) {
		t.Errorf("sn should start at 3/4 (weight 3:1), got %v", haps[1].Part.Begin)
	}
}

func TestCompileReplicate(t *testing.T) {
	haps := queryWholeCycle(t, "bd!3")
	if len(haps) != 3 {
		t.Fatalf("expected 3 identical bd events, got %d", len(haps))
	}
}

func TestCompileFastShrinksSlot(t *testing.T) {
	haps := queryWholeCycle(t, "bd*2 sn")
	if len(haps) != 3 {
		t.Fatalf("expected 2 bd + 1 sn = 3 events, got %d: %+v", len(haps), haps)
	}
}

func TestCompileInvalidSyntaxReturnsError(t *testing.T) {
	if _, err := Compile("bd("); err == nil {
		t.Fatalf("expected parse error for unterminated euclid group")
	}
}
