package frac

// TimeSpan is a half-open-ish interval [Begin, End] of cycle positions with
// Begin <= End. Spans are allowed to be zero-width (Begin == End); a query
// over a zero-width span always yields no events (spec.md "Boundary
// behaviors").
type TimeSpan struct {
	Begin Fraction
	End   Fraction
}

// NewSpan builds a span, panicking if begin > end — malformed spans are a
// programming error in this engine, not a runtime condition to recover from.
func NewSpan(begin, end Fraction) TimeSpan {
	if begin.GreaterThan(end) {
		panic("frac: span begin after end")
	}
	return TimeSpan{begin, end}
}

// Mid returns the midpoint of the span, used by continuous Signal patterns.
func (s TimeSpan) Mid() Fraction {
	return s.Begin.Add(s.End).Div(FromInt(2))
}

// Width returns End - Begin.
func (s TimeSpan) Width() Fraction {
	return s.End.Sub(s.Begin)
}

// Empty reports whether the span has zero width.
func (s TimeSpan) Empty() bool {
	return s.Begin.Equal(s.End)
}

// Intersect returns the overlap of two spans and whether one exists. Two
// spans that merely touch at a point produce a zero-width intersection,
// which callers generally treat as "no event" unless the touching span
// itself was zero-width to begin with (spec.md: "part intervals ... touch
// its boundaries").
func (s TimeSpan) Intersect(o TimeSpan) (TimeSpan, bool) {
	begin := Max(s.Begin, o.Begin)
	end := Min(s.End, o.End)
	if begin.GreaterThan(end) {
		return TimeSpan{}, false
	}
	return TimeSpan{begin, end}, true
}

// Contains reports whether t lies within s (inclusive of endpoints).
func (s TimeSpan) Contains(t Fraction) bool {
	return s.Begin.LessEq(t) && t.LessEq(s.End)
}

// WithTime remaps both endpoints of the span through f. Used by Fast/Slow/
// Rotate to translate between a pattern's own time domain and the query's.
func (s TimeSpan) WithTime(f func(Fraction) Fraction) TimeSpan {
	return TimeSpan{f(s.Begin), f(s.End)}
}

// CycleSpans splits s into one sub-span per integer cycle it overlaps, in
// ascending order. Used by Pure and Cat to iterate whole cycles within a
// query window.
func (s TimeSpan) CycleSpans() []TimeSpan {
	if s.Empty() {
		return []TimeSpan{s}
	}
	var spans []TimeSpan
	cur := s.Begin
	for cur.LessThan(s.End) {
		cycleEnd := FromInt(cur.Floor() + 1)
		end := Min(cycleEnd, s.End)
		spans = append(spans, TimeSpan{cur, end})
		cur = end
	}
	if len(spans) == 0 {
		spans = append(spans, s)
	}
	return spans
}

// CycleOf returns floor(t), the integer cycle t falls within.
func CycleOf(t Fraction) int64 { return t.Floor() }
