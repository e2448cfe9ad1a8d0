package pattern

import "loomcycle/internal/frac"

// Fast speeds a pattern up by k: it queries p over span*k and maps the
// resulting event times back down by /k. Fast(1) is the identity
// (spec.md §8 universal law).
func Fast[T any](p Pattern[T], k frac.Fraction) Pattern[T] {
	if k.IsZero() {
		return Silence[T]()
	}
	return New(func(s State) []Hap[T] {
		scaled := s.Span.WithTime(func(t frac.Fraction) frac.Fraction { return t.Mul(k) })
		haps := p.Query(s.WithSpan(scaled))
		out := make([]Hap[T], len(haps))
		unscale := func(t frac.Fraction) frac.Fraction { return t.Div(k) }
		for i, h := range haps {
			h.Part = h.Part.WithTime(unscale)
			if h.Whole != nil {
				w := h.Whole.WithTime(unscale)
				h.Whole = &w
			}
			out[i] = h
		}
		return out
	})
}

// Slow is Fast(1/k).
func Slow[T any](p Pattern[T], k frac.Fraction) Pattern[T] {
	return Fast(p, frac.One.Div(k))
}

// Hurry speeds up the pattern and also multiplies the "speed" control by k,
// for use by sample-triggering patterns where faster playback should also
// pitch the sample up. Per DESIGN.md's recorded Open Question decision,
// Hurry does not touch delay-node time parameters.
func Hurry(p Pattern[string], k frac.Fraction) Pattern[string] {
	sped := Fast(p, k)
	return New(func(s State) []Hap[string] {
		haps := sped.Query(s)
		out := make([]Hap[string], len(haps))
		for i, h := range haps {
			prev := h.Controls["speed"]
			if prev == 0 {
				prev = 1
			}
			out[i] = h.WithControl("speed", prev*k.ToFloat())
		}
		return out
	})
}

// Rev reflects each cycle about its own midpoint.
func Rev[T any](p Pattern[T]) Pattern[T] {
	return New(func(s State) []Hap[T] {
		var all []Hap[T]
		for _, cyc := range s.Span.CycleSpans() {
			c := cyc.Begin.Floor()
			reflectPoint := frac.FromInt(2*c + 1)
			reflect := func(t frac.Fraction) frac.Fraction { return reflectPoint.Sub(t) }
			// Reflecting swaps begin/end ordering, so build the reflected
			// query span explicitly rather than via WithTime.
			reflectedSpan := frac.NewSpan(reflect(cyc.End), reflect(cyc.Begin))
			haps := p.Query(s.WithSpan(reflectedSpan))
			for _, h := range haps {
				newPart := frac.NewSpan(reflect(h.Part.End), reflect(h.Part.Begin))
				h.Part = newPart
				if h.Whole != nil {
					w := frac.NewSpan(reflect(h.Whole.End), reflect(h.Whole.Begin))
					h.Whole = &w
				}
				all = append(all, h)
			}
		}
		return sortHaps(all)
	})
}

// Rotate shifts every event later by delta cycles (negative delta shifts
// earlier).
func Rotate[T any](p Pattern[T], delta frac.Fraction) Pattern[T] {
	return New(func(s State) []Hap[T] {
		shifted := s.Span.WithTime(func(t frac.Fraction) frac.Fraction { return t.Sub(delta) })
		haps := p.Query(s.WithSpan(shifted))
		out := make([]Hap[T], len(haps))
		unshift := func(t frac.Fraction) frac.Fraction { return t.Add(delta) }
		for i, h := range haps {
			h.Part = h.Part.WithTime(unshift)
			if h.Whole != nil {
				w := h.Whole.WithTime(unshift)
				h.Whole = &w
			}
			out[i] = h
		}
		return out
	})
}

// Compress fits p's own per-cycle content into the sub-range [b, e) of each
// cycle, silent elsewhere. Requires 0 <= b < e <= 1.
func Compress[T any](p Pattern[T], b, e frac.Fraction) Pattern[T] {
	width := e.Sub(b)
	if width.LessEq(frac.Zero) {
		return Silence[T]()
	}
	return New(func(s State) []Hap[T] {
		var all []Hap[T]
		for _, cyc := range s.Span.CycleSpans() {
			c := frac.FromInt(cyc.Begin.Floor())
			slot := frac.NewSpan(c.Add(b), c.Add(e))
			overlap, ok := slot.Intersect(cyc)
			if !ok {
				continue
			}
			toInner := func(t frac.Fraction) frac.Fraction { return t.Sub(c.Add(b)).Div(width).Add(c) }
			fromInner := func(t frac.Fraction) frac.Fraction { return t.Sub(c).Mul(width).Add(c.Add(b)) }
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
		return sortHaps(all)
	})
}

// Zoom takes the content of p's own cycle found within [b, e) and stretches
// it to fill the whole cycle (the complement of Compress).
func Zoom[T any](p Pattern[T], b, e frac.Fraction) Pattern[T] {
	width := e.Sub(b)
	if width.LessEq(frac.Zero) {
		return Silence[T]()
	}
	return New(func(s State) []Hap[T] {
		var all []Hap[T]
		for _, cyc := range s.Span.CycleSpans() {
			c := frac.FromInt(cyc.Begin.Floor())
			toInner := func(t frac.Fraction) frac.Fraction { return t.Sub(c).Mul(width).Add(c.Add(b)) }
			fromInner := func(t frac.Fraction) frac.Fraction { return t.Sub(c.Add(b)).Div(width).Add(c) }
			haps := p.Query(s.WithSpan(cyc.WithTime(toInner)))
			for _, h := range haps {
				h.Part = h.Part.WithTime(fromInner)
				if h.Whole != nil {
					w := h.Whole.WithTime(fromInner)
					h.Whole = &w
				}
				all = append(all, h)
			}
		}
		return sortHaps(all)
	})
}

// Slice masks p down to the i-th of n equal per-cycle slots: events outside
// the slot are dropped, events straddling it are clipped. n == 0 is
// silence.
func Slice[T any](p Pattern[T], n, i int64) Pattern[T] {
	if n <= 0 {
		return Silence[T]()
	}
	idx := i % n
	if idx < 0 {
		idx += n
	}
	return New(func(s State) []Hap[T] {
		var all []Hap[T]
		for _, cyc := range s.Span.CycleSpans() {
			c := frac.FromInt(cyc.Begin.Floor())
			slot := frac.NewSpan(c.Add(frac.New(idx, n)), c.Add(frac.New(idx+1, n)))
			window, ok := slot.Intersect(cyc)
			if !ok {
				continue
			}
			haps := p.Query(s.WithSpan(window))
			for _, h := range haps {
				part, ok := h.Part.Intersect(slot)
				if !ok {
					continue
				}
				h.Part = part
				all = append(all, h)
			}
		}
		return sortHaps(all)
	})
}

// Bite picks pattern qs[c%len(qs)] for cycle c and confines its events to
// the 1/n slot indexed by c%n.
func Bite[T any](n int64, qs []Pattern[T]) Pattern[T] {
	m := int64(len(qs))
	if n <= 0 || m == 0 {
		return Silence[T]()
	}
	return New(func(s State) []Hap[T] {
		var all []Hap[T]
		for _, cyc := range s.Span.CycleSpans() {
			c := cyc.Begin.Floor()
			k := c % n
			if k < 0 {
				k += n
			}
			j := c % m
			if j < 0 {
				j += m
			}
			cBase := frac.FromInt(c)
			slot := frac.NewSpan(cBase.Add(frac.New(k, n)), cBase.Add(frac.New(k+1, n)))
			window, ok := slot.Intersect(cyc)
			if !ok {
				continue
			}
			haps := qs[j].Query(s.WithSpan(frac.NewSpan(cBase, cBase.Add(frac.One))))
			for _, h := range haps {
				part, ok := h.Part.Intersect(window)
				if !ok {
					continue
				}
				h.Part = part
				all = append(all, h)
			}
		}
		return sortHaps(all)
	})
}

// Jux zips p with f(p), positionally pairing queried events (truncated to
// the shorter of the two streams) into stereo-style [2]T pairs.
func Jux[T any](p Pattern[T], f func(Pattern[T]) Pattern[T]) Pattern[[2]T] {
	right := f(p)
	return New(func(s State) []Hap[[2]T] {
		left := p.Query(s)
		rite := right.Query(s)
		n := len(left)
		if len(rite) < n {
			n = len(rite)
		}
		out := make([]Hap[[2]T], n)
		for i := 0; i < n; i++ {
			out[i] = Hap[[2]T]{
				Whole:    cloneSpan(left[i].Whole),
				Part:     left[i].Part,
				Value:    [2]T{left[i].Value, rite[i].Value},
				Controls: left[i].Controls,
			}
		}
		return out
	})
}

// Run produces a Cat of pure(0)..pure(n-1).
func Run(n int64) Pattern[int64] {
	ps := make([]Pattern[int64], n)
	for i := int64(0); i < n; i++ {
		ps[i] = Pure(i)
	}
	return Cat(ps...)
}
