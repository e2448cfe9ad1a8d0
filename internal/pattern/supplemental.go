package pattern

import (
	"math"

	"loomcycle/internal/frac"
)

// perCycle is the common shape behind Every/WhenMod/SomeCyclesBy: pick a sub-pattern (or a transform of p) per integer cycle
// and query only that cycle's slice of it.
func perCycle[T any](pick func(cycleNum int64) Pattern[T]) Pattern[T] {
	return New(func(s State) []Hap[T] {
		var all []Hap[T]
		for _, cyc := range s.Span.CycleSpans() {
			c := cyc.Begin.Floor()
			all = append(all, pick(c).Query(s.WithSpan(cyc))...)
		}
		return sortHaps(all)
	})
}

// WhenMod applies f(p) on cycles where cycleNum%n == remainder, else plays
// p unchanged.
func WhenMod[T any](p Pattern[T], n, remainder int64, f func(Pattern[T]) Pattern[T]) Pattern[T] {
	if n <= 0 {
		return p
	}
	transformed := f(p)
	return perCycle(func(c int64) Pattern[T] {
		m := c % n
		if m < 0 {
			m += n
		}
		if m == remainder {
			return transformed
		}
		return p
	})
}

// Every applies f(p) once every n cycles (cycleNum%n == 0), else plays p.
func Every[T any](p Pattern[T], n int64, f func(Pattern[T]) Pattern[T]) Pattern[T] {
	return WhenMod(p, n, 0, f)
}

// Palindrome alternates p and Rev(p) every other cycle.
func Palindrome[T any](p Pattern[T]) Pattern[T] {
	return Slowcat(p, Rev(p))
}

// Iter rotates p by an additional 1/n cycle on each successive cycle,
// cycling back after n steps.
func Iter[T any](p Pattern[T], n int64) Pattern[T] {
	if n <= 0 {
		return p
	}
	ps := make([]Pattern[T], n)
	for i := int64(0); i < n; i++ {
		ps[i] = Rotate(p, frac.New(i, n))
	}
	return Slowcat(ps...)
}

// SomeCyclesBy applies f(p) on cycles whose deterministic hash falls below
// probability, else plays p unchanged.
func SomeCyclesBy[T any](p Pattern[T], probability float64, salt int64, f func(Pattern[T]) Pattern[T]) Pattern[T] {
	transformed := f(p)
	return perCycle(func(c int64) Pattern[T] {
		span := frac.NewSpan(frac.FromInt(c), frac.FromInt(c+1))
		if hashFraction(span, salt) < probability {
			return transformed
		}
		return p
	})
}

// Someone applies f(p) to individual events rather than whole cycles: an
// event whose hashed onset falls below probability is replaced by the
// correspondingly-hashed event from f(p), reusing the same DegradeBy/
// UndegradeBy split (and so the same hashFraction) so the two halves
// partition cleanly. Unlike SomeCyclesBy, which swaps in f(p) for an entire
// cycle at a time, this decides per event.
func Someone[T any](p Pattern[T], probability float64, salt int64, f func(Pattern[T]) Pattern[T]) Pattern[T] {
	if probability <= 0 {
		return p
	}
	if probability >= 1 {
		return f(p)
	}
	kept := DegradeBy(p, probability, salt)
	replaced := UndegradeBy(f(p), probability, salt)
	return Stack(kept, replaced)
}

// Ply repeats each event's value n times within its own Whole span,
// equally subdividing it.
func Ply[T any](p Pattern[T], n int64) Pattern[T] {
	if n <= 1 {
		return p
	}
	return New(func(s State) []Hap[T] {
		var all []Hap[T]
		for _, h := range p.Query(s) {
			if h.Whole == nil {
				all = append(all, h)
				continue
			}
			w := *h.Whole
			width := w.Width().Div(frac.FromInt(n))
			for i := int64(0); i < n; i++ {
				subBegin := w.Begin.Add(width.Mul(frac.FromInt(i)))
				subEnd := subBegin.Add(width)
				sub := frac.NewSpan(subBegin, subEnd)
				part, ok := sub.Intersect(h.Part)
				if !ok {
					continue
				}
				all = append(all, Hap[T]{Whole: &sub, Part: part, Value: h.Value, Controls: h.Controls})
			}
		}
		return sortHaps(all)
	})
}

// Linger repeats the first `t` proportion of each cycle (0 < t <= 1) to
// fill the whole cycle.
func Linger[T any](p Pattern[T], t frac.Fraction) Pattern[T] {
	if t.LessEq(frac.Zero) {
		return Silence[T]()
	}
	if t.GreaterEq(frac.One) {
		return p
	}
	return New(func(s State) []Hap[T] {
		var all []Hap[T]
		for _, cyc := range s.Span.CycleSpans() {
			c := frac.FromInt(cyc.Begin.Floor())
			cycleEnd := c.Add(frac.One)
			for tileBegin := c; tileBegin.LessThan(cycleEnd); tileBegin = tileBegin.Add(t) {
				tileEnd := tileBegin.Add(t)
				if tileEnd.GreaterThan(cycleEnd) {
					tileEnd = cycleEnd
				}
				tile := frac.NewSpan(tileBegin, tileEnd)
				overlap, ok := tile.Intersect(cyc)
				if !ok {
					continue
				}
				toInner := func(x frac.Fraction) frac.Fraction { return x.Sub(tileBegin).Add(c) }
				fromInner := func(x frac.Fraction) frac.Fraction { return x.Sub(c).Add(tileBegin) }
				haps := p.Query(s.WithSpan(overlap.WithTime(toInner)))
				for _, h := range haps {
					h.Part = h.Part.WithTime(fromInner)
					if h.Whole != nil {
						w := h.Whole.WithTime(fromInner)
						h.Whole = &w
					}
					all = append(all, h)
				}
			}
		}
		return sortHaps(all)
	})
}

// Segment samples p at n equally spaced points per cycle, turning a
// continuous (Signal) pattern into n discrete steps per cycle.
func Segment[T any](p Pattern[T], n int64) Pattern[T] {
	if n <= 0 {
		return Silence[T]()
	}
	return New(func(s State) []Hap[T] {
		var all []Hap[T]
		for _, cyc := range s.Span.CycleSpans() {
			c := frac.FromInt(cyc.Begin.Floor())
			for i := int64(0); i < n; i++ {
				slot := frac.NewSpan(c.Add(frac.New(i, n)), c.Add(frac.New(i+1, n)))
				overlap, ok := slot.Intersect(cyc)
				if !ok {
					continue
				}
				haps := p.Query(s.WithSpan(frac.NewSpan(slot.Begin, slot.Begin)))
				if len(haps) == 0 {
					continue
				}
				all = append(all, Hap[T]{Whole: &slot, Part: overlap, Value: haps[0].Value})
			}
		}
		return sortHaps(all)
	})
}

// Range rescales a [0,1]-valued pattern linearly into [lo, hi].
func Range(p Pattern[float64], lo, hi float64) Pattern[float64] {
	return MapPattern(p, func(v float64) float64 { return lo + v*(hi-lo) })
}

// RangeX rescales a [0,1]-valued pattern exponentially into [lo, hi]
// (lo, hi must be > 0), useful for frequency/time controls perceived
// logarithmically.
func RangeX(p Pattern[float64], lo, hi float64) Pattern[float64] {
	ratio := hi / lo
	return MapPattern(p, func(v float64) float64 {
		return lo * math.Pow(ratio, v)
	})
}

// Chop subdivides each event into n sequential slices of the same sample,
// tagging each with begin/end controls in [0,1] marking its slice of the
// underlying source.
func Chop(p Pattern[string], n int64) Pattern[string] {
	if n <= 1 {
		return p
	}
	return New(func(s State) []Hap[string] {
		var all []Hap[string]
		for _, h := range p.Query(s) {
			if h.Whole == nil {
				all = append(all, h)
				continue
			}
			w := *h.Whole
			width := w.Width().Div(frac.FromInt(n))
			baseBegin, baseEnd := 0.0, 1.0
			if v, ok := h.Controls["begin"]; ok {
				baseBegin = v
			}
			if v, ok := h.Controls["end"]; ok {
				baseEnd = v
			}
			span := baseEnd - baseBegin
			for i := int64(0); i < n; i++ {
				subBegin := w.Begin.Add(width.Mul(frac.FromInt(i)))
				subEnd := subBegin.Add(width)
				sub := frac.NewSpan(subBegin, subEnd)
				part, ok := sub.Intersect(h.Part)
				if !ok {
					continue
				}
				nh := Hap[string]{Whole: &sub, Part: part, Value: h.Value, Controls: cloneControls(h.Controls)}
				nh = nh.WithControl("begin", baseBegin+span*float64(i)/float64(n))
				nh = nh.WithControl("end", baseBegin+span*float64(i+1)/float64(n))
				all = append(all, nh)
			}
		}
		return sortHaps(all)
	})
}

// Striate distributes n begin/end slices of p's samples across n
// successive cycles worth of structure within a single cycle (the
// interleaved counterpart to Chop).
func Striate(p Pattern[string], n int64) Pattern[string] {
	if n <= 1 {
		return p
	}
	ps := make([]Pattern[string], n)
	for i := int64(0); i < n; i++ {
		b, e := float64(i)/float64(n), float64(i+1)/float64(n)
		ps[i] = New(func(s State) []Hap[string] {
			haps := p.Query(s)
			out := make([]Hap[string], len(haps))
			for j, h := range haps {
				out[j] = h.WithControl("begin", b).WithControl("end", e)
			}
			return out
		})
	}
	return Cat(ps...)
}

// Stutter repeats each event n times in place, each repeat shifted later
// by t cycles from the previous one.
func Stutter[T any](p Pattern[T], n int64, t frac.Fraction) Pattern[T] {
	if n <= 1 {
		return p
	}
	reps := make([]Pattern[T], n)
	for i := int64(0); i < n; i++ {
		reps[i] = Rotate(p, t.Mul(frac.FromInt(i)))
	}
	return Stack(reps...)
}
