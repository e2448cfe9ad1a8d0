package notation

import (
	"fmt"

	"loomcycle/internal/frac"
	"loomcycle/internal/pattern"
)

// Compile parses a mini-notation source string and compiles it directly to
// a Pattern[string]. Word atoms are returned verbatim, including numeric
// literals; internal/dsl decides how to interpret them (sample name, note
// name, bare number) for the node it's binding the pattern to.
func Compile(source string) (pattern.Pattern[string], error) {
	lx := NewLexer(source)
	tokens, err := lx.Tokenize()
	if err != nil {
		return pattern.Silence[string](), err
	}
	seq, err := NewParser(tokens).Parse()
	if err != nil {
		return pattern.Silence[string](), err
	}
	return compileNode(seq), nil
}

func compileNode(n Node) pattern.Pattern[string] {
	switch v := n.(type) {
	case Word:
		return pattern.Pure(v.Value)
	case Rest:
		return pattern.Silence[string]()
	case Sequence:
		return compileSequence(v)
	case Stack:
		layers := make([]pattern.Pattern[string], len(v.Layers))
		for i, l := range v.Layers {
			layers[i] = compileNode(l)
		}
		return pattern.Stack(layers...)
	case Alternate:
		terms := make([]pattern.Pattern[string], len(v.Terms))
		for i, t := range v.Terms {
			terms[i] = compileNode(t)
		}
		return pattern.Slowcat(terms...)
	case FastMod:
		return pattern.Fast(compileNode(v.Target), frac.FromFloat(v.Factor, 1000))
	case SlowMod:
		return pattern.Slow(compileNode(v.Target), frac.FromFloat(v.Factor, 1000))
	case EuclidMod:
		return pattern.EuclideanPattern(compileNode(v.Target), v.Pulses, v.Steps, v.Rotation)
	default:
		panic(fmt.Sprintf("notation: unhandled node type %T", n))
	}
}

func compileSequence(seq Sequence) pattern.Pattern[string] {
	if len(seq.Terms) == 0 {
		return pattern.Silence[string]()
	}
	if len(seq.Terms) == 1 && seq.Terms[0].Weight == 1 {
		return compileNode(seq.Terms[0].Node)
	}
	entries := make([]pattern.Weighted[string], len(seq.Terms))
	for i, t := range seq.Terms {
		entries[i] = pattern.Weighted[string]{
			Weight:  frac.FromFloat(t.Weight, 1000),
			Pattern: compileNode(t.Node),
		}
	}
	return pattern.WeightedCat(entries...)
}
