package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"loomcycle/internal/frac"
)

// genFraction produces a Fraction with a small positive denominator, wide
// enough to exercise non-trivial cycle arithmetic without rapid needing to
// shrink forever.
func genFraction(t *rapid.T, label string) frac.Fraction {
	num := rapid.Int64Range(-12, 12).Draw(t, label+"_num")
	den := rapid.Int64Range(1, 8).Draw(t, label+"_den")
	return frac.New(num, den)
}

func genPositiveFraction(t *rapid.T, label string) frac.Fraction {
	num := rapid.Int64Range(1, 12).Draw(t, label+"_num")
	den := rapid.Int64Range(1, 8).Draw(t, label+"_den")
	return frac.New(num, den)
}

func genSpan(t *rapid.T) frac.TimeSpan {
	begin := genFraction(t, "begin")
	width := genPositiveFraction(t, "width")
	return frac.NewSpan(begin, begin.Add(width))
}

// normalize strips pointer identity from Whole so reflect.DeepEqual-style
// comparisons only see values.
func normalize[T comparable](haps []Hap[T]) []struct {
	HasWhole bool
	Whole    frac.TimeSpan
	Part     frac.TimeSpan
	Value    T
} {
	out := make([]struct {
		HasWhole bool
		Whole    frac.TimeSpan
		Part     frac.TimeSpan
		Value    T
	}, len(haps))
	for i, h := range haps {
		out[i].Part = h.Part
		out[i].Value = h.Value
		if h.Whole != nil {
			out[i].HasWhole = true
			out[i].Whole = *h.Whole
		}
	}
	return out
}

func TestFastOneIsIdentity(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		v := rapid.IntRange(0, 100).Draw(rt, "v")
		p := Pure(v)
		s := State{Span: genSpan(rt)}
		want := normalize(p.Query(s))
		got := normalize(Fast(p, frac.One).Query(s))
		assert.Equal(rt, want, got)
	})
}

func TestFastComposeInverse(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		v := rapid.IntRange(0, 100).Draw(rt, "v")
		k := genPositiveFraction(rt, "k")
		p := Pure(v)
		s := State{Span: genSpan(rt)}
		want := normalize(p.Query(s))
		roundTripped := Fast(Fast(p, k), frac.One.Div(k))
		got := normalize(roundTripped.Query(s))
		assert.Equal(rt, want, got)
	})
}

func TestRevInvolution(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		v := rapid.IntRange(0, 100).Draw(rt, "v")
		p := Pure(v)
		s := State{Span: genSpan(rt)}
		want := normalize(p.Query(s))
		got := normalize(Rev(Rev(p)).Query(s))
		assert.Equal(rt, want, got)
	})
}

func TestCatSingletonIsIdentity(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		v := rapid.IntRange(0, 100).Draw(rt, "v")
		p := Pure(v)
		s := State{Span: genSpan(rt)}
		want := normalize(p.Query(s))
		got := normalize(Cat(p).Query(s))
		assert.Equal(rt, want, got)
	})
}

func TestStackWithSilenceIsIdentity(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		v := rapid.IntRange(0, 100).Draw(rt, "v")
		p := Pure(v)
		s := State{Span: genSpan(rt)}
		want := normalize(p.Query(s))
		got := normalize(Stack(p, Silence[int]()).Query(s))
		assert.Equal(rt, want, got)
	})
}

func TestSlowcatRepeatIsIdentity(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		v := rapid.IntRange(0, 100).Draw(rt, "v")
		n := rapid.IntRange(1, 5).Draw(rt, "n")
		p := Pure(v)
		ps := make([]Pattern[int], n)
		for i := range ps {
			ps[i] = p
		}
		s := State{Span: genSpan(rt)}
		want := normalize(p.Query(s))
		got := normalize(Slowcat(ps...).Query(s))
		assert.Equal(rt, want, got)
	})
}

func TestDegradeByZeroIsIdentity(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		v := rapid.IntRange(0, 100).Draw(rt, "v")
		p := Pure(v)
		s := State{Span: genSpan(rt)}
		want := normalize(p.Query(s))
		got := normalize(DegradeBy(p, 0, 7).Query(s))
		assert.Equal(rt, want, got)
	})
}

func TestDegradeByOneIsSilence(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		v := rapid.IntRange(0, 100).Draw(rt, "v")
		p := Pure(v)
		s := State{Span: genSpan(rt)}
		got := DegradeBy(p, 1, 7).Query(s)
		assert.Empty(rt, got)
	})
}

func TestSomeoneZeroIsIdentity(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		v := rapid.IntRange(0, 100).Draw(rt, "v")
		p := Pure(v)
		s := State{Span: genSpan(rt)}
		want := normalize(p.Query(s))
		got := normalize(Someone(p, 0, 7, func(q Pattern[int]) Pattern[int] { return Rev(q) }).Query(s))
		assert.Equal(rt, want, got)
	})
}

func TestSomeoneOneAppliesTransformEverywhere(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		v := rapid.IntRange(0, 100).Draw(rt, "v")
		p := Pure(v)
		s := State{Span: genSpan(rt)}
		want := normalize(Rev(p).Query(s))
		got := normalize(Someone(p, 1, 7, func(q Pattern[int]) Pattern[int] { return Rev(q) }).Query(s))
		assert.Equal(rt, want, got)
	})
}

func TestSomeonePartitionsEventsBetweenPlainAndTransformed(t *testing.T) {
	p := Fast(Run(8), frac.One)
	s := State{Span: frac.NewSpan(frac.Zero, frac.FromInt(4))}
	plain := p.Query(s)
	transformed := Someone(p, 0.5, 7, func(q Pattern[int64]) Pattern[int64] {
		return MapPattern(q, func(v int64) int64 { return v + 1000 })
	}).Query(s)
	assert.Equal(t, len(plain), len(transformed))
	changed := false
	for i := range plain {
		if transformed[i].Value != plain[i].Value {
			changed = true
			assert.Equal(t, plain[i].Value+1000, transformed[i].Value)
		}
	}
	assert.True(t, changed, "expected at least one event to be replaced by the transform")
}

func TestQueryIsPureAndDeterministic(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		v := rapid.IntRange(0, 100).Draw(rt, "v")
		p := Fast(Cat(Pure(v), Pure(v+1)), frac.New(3, 2))
		s := State{Span: genSpan(rt)}
		a := normalize(p.Query(s))
		b := normalize(p.Query(s))
		assert.Equal(rt, a, b)
	})
}

func TestZeroWidthSpanYieldsNoDiscreteEvents(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		v := rapid.IntRange(0, 100).Draw(rt, "v")
		at := genFraction(rt, "at")
		p := Pure(v)
		got := p.Query(State{Span: frac.NewSpan(at, at)})
		assert.Empty(rt, got)
	})
}

func TestEuclideanFullIsAllHits(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.Int64Range(1, 16).Draw(rt, "n")
		p := Euclidean(1, n, n, 0)
		got := p.Query(State{Span: frac.NewSpan(frac.Zero, frac.One)})
		require.Len(rt, got, int(n))
		for _, h := range got {
			assert.Equal(rt, 1, h.Value)
		}
	})
}

func TestEuclideanZeroPulsesIsSilent(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.Int64Range(1, 16).Draw(rt, "n")
		p := Euclidean(1, 0, n, 0)
		got := p.Query(State{Span: frac.NewSpan(frac.Zero, frac.One)})
		assert.Empty(rt, got)
	})
}

func TestEuclideanEvenSpacing(t *testing.T) {
	// A well-known Euclidean rhythm: E(3,8) is the standard tresillo,
	// hits at steps 0, 3, 6.
	p := Euclidean(true, 3, 8, 0)
	got := p.Query(State{Span: frac.NewSpan(frac.Zero, frac.One)})
	require.Len(t, got, 3)
	expected := []frac.Fraction{frac.Zero, frac.New(3, 8), frac.New(6, 8)}
	for i, h := range got {
		assert.True(t, h.Part.Begin.Equal(expected[i]), "hit %d at %v, want %v", i, h.Part.Begin, expected[i])
	}
}
