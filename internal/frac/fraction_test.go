package frac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReduction(t *testing.T) {
	f := New(2, 4)
	assert.Equal(t, Fraction{1, 2}, f)

	f = New(-2, 4)
	assert.Equal(t, Fraction{-1, 2}, f)

	f = New(2, -4)
	assert.Equal(t, Fraction{-1, 2}, f)
}

func TestZeroDenominatorPanics(t *testing.T) {
	assert.Panics(t, func() { New(1, 0) })
}

func TestArithmetic(t *testing.T) {
	a := New(1, 4)
	b := New(1, 2)

	assert.Equal(t, New(3, 4), a.Add(b))
	assert.Equal(t, New(-1, 4), a.Sub(b))
	assert.Equal(t, New(1, 8), a.Mul(b))
	assert.Equal(t, New(1, 2), a.Div(b))
}

func TestDivisionByZeroPanics(t *testing.T) {
	assert.Panics(t, func() { One.Div(Zero) })
}

func TestFloorCeil(t *testing.T) {
	assert.Equal(t, int64(1), New(3, 2).Floor())
	assert.Equal(t, int64(-2), New(-3, 2).Floor())
	assert.Equal(t, int64(2), New(3, 2).Ceil())
	assert.Equal(t, int64(-1), New(-3, 2).Ceil())
}

func TestCyclePos(t *testing.T) {
	assert.Equal(t, New(1, 2), New(5, 2).CyclePos())
	assert.Equal(t, New(1, 2), New(-3, 2).CyclePos())
}

func TestMod(t *testing.T) {
	assert.Equal(t, New(1, 2), New(5, 2).Mod(One))
	assert.True(t, New(-1, 2).Mod(One).GreaterEq(Zero))
}

func TestCmp(t *testing.T) {
	assert.True(t, New(1, 3).LessThan(New(1, 2)))
	assert.True(t, New(1, 2).GreaterThan(New(1, 3)))
	assert.True(t, New(2, 4).Equal(New(1, 2)))
}

func TestSpanIntersect(t *testing.T) {
	s1 := NewSpan(Zero, One)
	s2 := NewSpan(Half, FromInt(2))
	got, ok := s1.Intersect(s2)
	require.True(t, ok)
	assert.Equal(t, NewSpan(Half, One), got)

	s3 := NewSpan(FromInt(2), FromInt(3))
	_, ok = s1.Intersect(s3)
	assert.False(t, ok)
}

func TestSpanBeginAfterEndPanics(t *testing.T) {
	assert.Panics(t, func() { NewSpan(One, Zero) })
}

func TestCycleSpans(t *testing.T) {
	s := NewSpan(New(1, 2), New(5, 2))
	spans := s.CycleSpans()
	require.Len(t, spans, 3)
	assert.Equal(t, NewSpan(New(1, 2), One), spans[0])
	assert.Equal(t, NewSpan(One, FromInt(2)), spans[1])
	assert.Equal(t, NewSpan(FromInt(2), New(5, 2)), spans[2])
}

func TestEmptySpanYieldsSingleSpan(t *testing.T) {
	s := NewSpan(Half, Half)
	spans := s.CycleSpans()
	require.Len(t, spans, 1)
	assert.True(t, spans[0].Empty())
}
