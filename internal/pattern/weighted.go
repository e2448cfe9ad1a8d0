package pattern

import "loomcycle/internal/frac"

// Weighted pairs a pattern with its relative share of a WeightedCat cycle.
type Weighted[T any] struct {
	Weight  frac.Fraction
	Pattern Pattern[T]
}

// WeightedCat is Cat generalized to unequal slot widths, proportional to
// each entry's Weight. Cat is the special case where every weight is 1.
// Used by the mini-notation compiler for "@" weighted sequencing.
func WeightedCat[T any](entries ...Weighted[T]) Pattern[T] {
	if len(entries) == 0 {
		return Silence[T]()
	}
	total := frac.Zero
	for _, e := range entries {
		total = total.Add(e.Weight)
	}
	if total.LessEq(frac.Zero) {
		return Silence[T]()
	}
	return New(func(s State) []Hap[T] {
		var all []Hap[T]
		for _, cyc := range s.Span.CycleSpans() {
			cycleStart := frac.FromInt(cyc.Begin.Floor())
			offset := frac.Zero
			for _, e := range entries {
				slotBegin := cycleStart.Add(offset.Div(total))
				offset = offset.Add(e.Weight)
				slotEnd := cycleStart.Add(offset.Div(total))
				slot := frac.NewSpan(slotBegin, slotEnd)
				overlap, ok := slot.Intersect(cyc)
				if !ok || slot.Width().LessEq(frac.Zero) {
					continue
				}
				width := slot.Width()
				toInner := func(t frac.Fraction) frac.Fraction {
					return t.Sub(slotBegin).Div(width).Add(cycleStart)
				}
				fromInner := func(t frac.Fraction) frac.Fraction {
					return t.Sub(cycleStart).Mul(width).Add(slotBegin)
				}
				haps := e.Pattern.Query(s.WithSpan(overlap.WithTime(toInner)))
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
