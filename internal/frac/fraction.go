// Package frac implements exact rational arithmetic for cycle-position time.
//
// Every cycle position in loomcycle is a Fraction, never a float. Floats only
// appear at the audio-sample boundary, where exactness no longer matters.
package frac

import "fmt"

// Fraction is an exact rational number, always stored reduced with Den > 0.
type Fraction struct {
	Num int64
	Den int64
}

// Zero, One and Half are convenience constants.
var (
	Zero = Fraction{0, 1}
	One  = Fraction{1, 1}
	Half = Fraction{1, 2}
)

func gcd(a, b int64) int64 {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}

// New builds a reduced Fraction. Panics if den == 0, matching the teacher's
// convention of failing loudly on malformed hardware register state rather
// than silently producing garbage (see apu.go's SampleRate==0 guard).
func New(num, den int64) Fraction {
	if den == 0 {
		panic("frac: zero denominator")
	}
	if den < 0 {
		num, den = -num, -den
	}
	g := gcd(num, den)
	return Fraction{num / g, den / g}
}

// FromInt builds an integral Fraction.
func FromInt(n int64) Fraction { return Fraction{n, 1} }

// FromFloat approximates a float64 as a Fraction with the given denominator
// limit. Only used at the DSL boundary (literal numbers in source), never
// inside the pattern/graph core.
func FromFloat(f float64, maxDen int64) Fraction {
	if f == 0 {
		return Zero
	}
	sign := int64(1)
	if f < 0 {
		sign = -1
		f = -f
	}
	num, den := int64(0), int64(1)
	whole := int64(f)
	frac := f - float64(whole)
	if frac > 0 {
		num = int64(frac * float64(maxDen))
		den = maxDen
	}
	total := New(whole*den+num, den)
	return New(sign*total.Num, total.Den)
}

func (a Fraction) Add(b Fraction) Fraction {
	return New(a.Num*b.Den+b.Num*a.Den, a.Den*b.Den)
}

func (a Fraction) Sub(b Fraction) Fraction {
	return New(a.Num*b.Den-b.Num*a.Den, a.Den*b.Den)
}

func (a Fraction) Mul(b Fraction) Fraction {
	return New(a.Num*b.Num, a.Den*b.Den)
}

func (a Fraction) Div(b Fraction) Fraction {
	if b.Num == 0 {
		panic("frac: division by zero")
	}
	return New(a.Num*b.Den, a.Den*b.Num)
}

func (a Fraction) Neg() Fraction { return Fraction{-a.Num, a.Den} }

// Mod returns a mod b in the mathematical sense (result has the sign of b,
// i.e. always non-negative for positive b). Used for cycle-position wrap.
func (a Fraction) Mod(b Fraction) Fraction {
	q := a.Div(b).Floor()
	return a.Sub(FromInt(q).Mul(b))
}

// Floor returns the greatest integer <= a.
func (a Fraction) Floor() int64 {
	if a.Num >= 0 {
		return a.Num / a.Den
	}
	q := a.Num / a.Den
	if a.Num%a.Den != 0 {
		q--
	}
	return q
}

// Ceil returns the smallest integer >= a.
func (a Fraction) Ceil() int64 {
	if a.Num <= 0 {
		return a.Num / a.Den
	}
	q := a.Num / a.Den
	if a.Num%a.Den != 0 {
		q++
	}
	return q
}

// CyclePos returns a - floor(a), always in [0, 1).
func (a Fraction) CyclePos() Fraction {
	return a.Sub(FromInt(a.Floor()))
}

func (a Fraction) Cmp(b Fraction) int {
	lhs := a.Num * b.Den
	rhs := b.Num * a.Den
	switch {
	case lhs < rhs:
		return -1
	case lhs > rhs:
		return 1
	default:
		return 0
	}
}

func (a Fraction) Equal(b Fraction) bool    { return a.Cmp(b) == 0 }
func (a Fraction) LessThan(b Fraction) bool { return a.Cmp(b) < 0 }
func (a Fraction) LessEq(b Fraction) bool   { return a.Cmp(b) <= 0 }
func (a Fraction) GreaterThan(b Fraction) bool {
	return a.Cmp(b) > 0
}
func (a Fraction) GreaterEq(b Fraction) bool { return a.Cmp(b) >= 0 }
func (a Fraction) IsZero() bool              { return a.Num == 0 }

// Min and Max pick the lesser/greater of two Fractions.
func Min(a, b Fraction) Fraction {
	if a.LessEq(b) {
		return a
	}
	return b
}

func Max(a, b Fraction) Fraction {
	if a.GreaterEq(b) {
		return a
	}
	return b
}

// ToFloat converts to float64. Lossy; the spec requires this is only ever
// used at the audio-sample boundary, never inside pattern/graph logic.
func (a Fraction) ToFloat() float64 {
	return float64(a.Num) / float64(a.Den)
}

func (a Fraction) String() string {
	if a.Den == 1 {
		return fmt.Sprintf("%d", a.Num)
	}
	return fmt.Sprintf("%d/%d", a.Num, a.Den)
}
