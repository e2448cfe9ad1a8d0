package pattern

import "loomcycle/internal/frac"

// bjorklund computes the most-even distribution of `pulses` hits across
// `steps` slots using Bjorklund's algorithm (the same construction behind
// the Euclidean rhythms of music theory). No library in the retrieval pack
// implements this; it is a standard, self-contained combinatorial
// algorithm and is hand-rolled here.
func bjorklund(pulses, steps int64) []bool {
	if steps <= 0 {
		return nil
	}
	if pulses <= 0 {
		return make([]bool, steps)
	}
	if pulses >= steps {
		out := make([]bool, steps)
		for i := range out {
			out[i] = true
		}
		return out
	}

	groups := make([][]bool, pulses)
	for i := range groups {
		groups[i] = []bool{true}
	}
	remainder := make([][]bool, steps-pulses)
	for i := range remainder {
		remainder[i] = []bool{false}
	}

	for len(remainder) > 1 {
		n := len(groups)
		if len(remainder) < n {
			n = len(remainder)
		}
		var newGroups [][]bool
		for i := 0; i < n; i++ {
			newGroups = append(newGroups, append(append([]bool{}, groups[i]...), remainder[i]...))
		}
		var leftover [][]bool
		if len(groups) > n {
			leftover = append(leftover, groups[n:]...)
		}
		if len(remainder) > n {
			leftover = append(leftover, remainder[n:]...)
		}
		groups = newGroups
		remainder = leftover
	}

	var out []bool
	for _, g := range groups {
		out = append(out, g...)
	}
	for _, g := range remainder {
		out = append(out, g...)
	}
	return out
}

// Euclidean builds a pattern that plays v on the `steps`-slot Euclidean
// rhythm for (pulses, steps), rotated by rotation slots. Negative rotation
// wraps modulo steps (SPEC_FULL.md §7 Open Question (b)). steps <= 0 or
// pulses <= 0 yields silence.
func Euclidean[T any](v T, pulses, steps, rotation int64) Pattern[T] {
	return EuclideanPattern(Pure(v), pulses, steps, rotation)
}

// EuclideanPattern is Euclidean generalized to an arbitrary sub-pattern:
// p plays, in full, on each hit step of the (pulses, steps) rhythm.
func EuclideanPattern[T any](p Pattern[T], pulses, steps, rotation int64) Pattern[T] {
	if steps <= 0 || pulses <= 0 {
		return Silence[T]()
	}
	slots := bjorklund(pulses, steps)
	rot := rotation % steps
	if rot < 0 {
		rot += steps
	}
	rotated := make([]bool, steps)
	for i, hit := range slots {
		rotated[(int64(i)-rot%steps+steps)%steps] = hit
	}
	ps := make([]Pattern[T], steps)
	for i, hit := range rotated {
		if hit {
			ps[i] = p
		} else {
			ps[i] = Silence[T]()
		}
	}
	return Cat(ps...)
}

// hashFraction deterministically mixes a TimeSpan and a salt into [0, 1).
// Used by DegradeBy so the same event always degrades the same way
// regardless of how it is queried (spec.md §4.2 purity requirement).
func hashFraction(span frac.TimeSpan, salt int64) float64 {
	mix := func(x uint64) uint64 {
		x ^= x >> 33
		x *= 0xff51afd7ed558ccd
		x ^= x >> 33
		x *= 0xc4ceb9fe1a85ec53
		x ^= x >> 33
		return x
	}
	h := mix(uint64(span.Begin.Num)*0x9E3779B97F4A7C15 + uint64(span.Begin.Den))
	h = mix(h ^ uint64(span.End.Num)*0xBF58476D1CE4E5B9 + uint64(span.End.Den))
	h = mix(h ^ uint64(salt))
	return float64(h>>11) / float64(1<<53)
}

// DegradeBy randomly (but deterministically) drops events: an event whose
// hashed onset falls below probability is removed. probability 0 keeps
// everything; probability 1 drops everything (spec.md §8 universal laws).
func DegradeBy[T any](p Pattern[T], probability float64, salt int64) Pattern[T] {
	if probability <= 0 {
		return p
	}
	if probability >= 1 {
		return Silence[T]()
	}
	return FilterHaps(p, func(h Hap[T]) bool {
		span := h.Part
		if h.Whole != nil {
			span = *h.Whole
		}
		return hashFraction(span, salt) >= probability
	})
}

// UndegradeBy is the complement of DegradeBy: keeps only the events
// DegradeBy would drop.
func UndegradeBy[T any](p Pattern[T], probability float64, salt int64) Pattern[T] {
	if probability <= 0 {
		return Silence[T]()
	}
	if probability >= 1 {
		return p
	}
	return FilterHaps(p, func(h Hap[T]) bool {
		span := h.Part
		if h.Whole != nil {
			span = *h.Whole
		}
		return hashFraction(span, salt) < probability
	})
}
