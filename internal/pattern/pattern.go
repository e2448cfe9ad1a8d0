package pattern

import (
	"sort"

	"loomcycle/internal/frac"
)

// State is the input to a pattern query: the span of cycle-time being
// asked about, plus any ambient controls (tempo-relative modifiers, etc.)
// threaded down from the caller. State is a value type; patterns never
// mutate it.
type State struct {
	Span     frac.TimeSpan
	Controls map[string]float64
}

// WithSpan returns a copy of s with a different query span.
func (s State) WithSpan(span frac.TimeSpan) State {
	s.Span = span
	return s
}

// Query is the single operation every Pattern exposes: given a State,
// return the Haps whose Part overlaps it, ordered by Part.Begin.
type Query[T any] func(State) []Hap[T]

// Pattern wraps a Query function as a value. Patterns are cheap to copy
// (a Pattern is just a closure pointer) and are pure: querying the same
// Pattern with the same State twice returns identical events every time.
type Pattern[T any] struct {
	query Query[T]
}

// New wraps a raw query function as a Pattern.
func New[T any](q Query[T]) Pattern[T] {
	return Pattern[T]{query: q}
}

// Query runs the pattern's query function. Returns an empty slice (never
// nil-panics) for degenerate spans.
func (p Pattern[T]) Query(s State) []Hap[T] {
	if p.query == nil {
		return nil
	}
	return p.query(s)
}

// Silence is the pattern that never produces events.
func Silence[T any]() Pattern[T] {
	return New(func(State) []Hap[T] { return nil })
}

// Pure repeats v once per cycle, with Whole/Part spanning exactly that
// cycle (clipped to the query window).
func Pure[T any](v T) Pattern[T] {
	return New(func(s State) []Hap[T] {
		if s.Span.Empty() {
			return nil
		}
		var haps []Hap[T]
		for _, cyc := range s.Span.CycleSpans() {
			whole := frac.NewSpan(frac.FromInt(cyc.Begin.Floor()), frac.FromInt(cyc.Begin.Floor()+1))
			part, ok := whole.Intersect(cyc)
			if !ok {
				continue
			}
			haps = append(haps, Hap[T]{Whole: &whole, Part: part, Value: v})
		}
		return haps
	})
}

// Signal produces one continuous (whole-less) event per query, evaluating f
// at the midpoint of the query span.
func Signal[T any](f func(frac.Fraction) T) Pattern[T] {
	return New(func(s State) []Hap[T] {
		if s.Span.Empty() {
			return []Hap[T]{{Whole: nil, Part: s.Span, Value: f(s.Span.Mid())}}
		}
		return []Hap[T]{{Whole: nil, Part: s.Span, Value: f(s.Span.Mid())}}
	})
}

// sortHaps stable-sorts by Part.Begin, matching the ordering invariant
// every query result must satisfy (spec.md §3 "Invariants").
func sortHaps[T any](haps []Hap[T]) []Hap[T] {
	sort.SliceStable(haps, func(i, j int) bool {
		return haps[i].Part.Begin.LessThan(haps[j].Part.Begin)
	})
	return haps
}

// Stack plays every pattern simultaneously; results are the union of all
// queries, stable-sorted by Part.Begin.
func Stack[T any](ps ...Pattern[T]) Pattern[T] {
	return New(func(s State) []Hap[T] {
		var all []Hap[T]
		for _, p := range ps {
			all = append(all, p.Query(s)...)
		}
		return sortHaps(all)
	})
}

// Cat divides each cycle into len(ps) equal sub-intervals, playing pattern
// i (time-scaled and translated) in sub-interval i.
func Cat[T any](ps ...Pattern[T]) Pattern[T] {
	n := int64(len(ps))
	if n == 0 {
		return Silence[T]()
	}
	return New(func(s State) []Hap[T] {
		var all []Hap[T]
		for _, cyc := range s.Span.CycleSpans() {
			cycleNum := cyc.Begin.Floor()
			cycleStart := frac.FromInt(cycleNum)
			for i := int64(0); i < n; i++ {
				slotBegin := cycleStart.Add(frac.New(i, n))
				slotEnd := cycleStart.Add(frac.New(i+1, n))
				slot := frac.NewSpan(slotBegin, slotEnd)
				overlap, ok := slot.Intersect(cyc)
				if !ok || (overlap.Empty() && !cyc.Empty()) {
					continue
				}
				// Map overlap (in absolute cycle time) into sub-pattern's
				// own [cycleNum, cycleNum+1) time domain.
				toInner := func(t frac.Fraction) frac.Fraction {
					return t.Sub(slotBegin).Mul(frac.FromInt(n)).Add(cycleStart)
				}
				fromInner := func(t frac.Fraction) frac.Fraction {
					return t.Sub(cycleStart).Div(frac.FromInt(n)).Add(slotBegin)
				}
				innerSpan := overlap.WithTime(toInner)
				haps := ps[i].Query(s.WithSpan(innerSpan))
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

// Slowcat plays pattern c%n stretched across the whole of cycle c (mini-
// notation's <a b> alternation).
func Slowcat[T any](ps ...Pattern[T]) Pattern[T] {
	n := int64(len(ps))
	if n == 0 {
		return Silence[T]()
	}
	return New(func(s State) []Hap[T] {
		var all []Hap[T]
		for _, cyc := range s.Span.CycleSpans() {
			cycleNum := cyc.Begin.Floor()
			idx := cycleNum % n
			if idx < 0 {
				idx += n
			}
			// Translate this query cycle to the cycle the sub-pattern
			// thinks it's in: pattern plays its own cycle (cycleNum/n)
			// stretched 1:1 onto cycleNum.
			innerCycle := cycleNum / n
			if cycleNum < 0 && cycleNum%n != 0 {
				innerCycle--
			}
			offset := frac.FromInt(cycleNum - innerCycle)
			toInner := func(t frac.Fraction) frac.Fraction { return t.Sub(offset) }
			fromInner := func(t frac.Fraction) frac.Fraction { return t.Add(offset) }
			innerSpan := cyc.WithTime(toInner)
			haps := ps[idx].Query(s.WithSpan(innerSpan))
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

// MapPattern transforms every value produced by p, preserving timing.
func MapPattern[T, U any](p Pattern[T], f func(T) U) Pattern[U] {
	return New(func(s State) []Hap[U] {
		in := p.Query(s)
		out := make([]Hap[U], len(in))
		for i, h := range in {
			out[i] = MapValue(h, f)
		}
		return out
	})
}

// FilterHaps keeps only Haps whose value satisfies pred.
func FilterHaps[T any](p Pattern[T], pred func(Hap[T]) bool) Pattern[T] {
	return New(func(s State) []Hap[T] {
		in := p.Query(s)
		out := make([]Hap[T], 0, len(in))
		for _, h := range in {
			if pred(h) {
				out = append(out, h)
			}
		}
		return out
	})
}
