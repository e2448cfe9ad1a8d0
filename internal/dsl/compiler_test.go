package dsl

import (
	"testing"

	"loomcycle/internal/samplebank"
	"loomcycle/internal/voice"
)

func testEnv() Env {
	return Env{
		SampleRate: 48000,
		Bank:       samplebank.New(),
		Pool:       voice.NewPool(8),
	}
}

func TestCompilePipelineBuildsGraphWithOutput(t *testing.T) {
	result, err := Compile(`sine(440) >> lpf(800, 0.7)`, testEnv())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !result.OutputNode.Valid() {
		t.Fatalf("expected a valid output node")
	}
	if result.Graph.Len() != 2 {
		t.Fatalf("expected 2 nodes (oscillator + filter), got %d", result.Graph.Len())
	}
	if err := result.Graph.Recompute(); err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	result.Graph.SetOutputNode(result.OutputNode)
	if v := result.Graph.Tick(); v != v {
		t.Fatalf("expected a real number from Tick, got NaN")
	}
}

func TestCompileBindingsAreReferencedLater(t *testing.T) {
	result, err := Compile("~osc = sine(220)\n~osc >> gain(0.5)\n", testEnv())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if result.Graph.Len() != 2 {
		t.Fatalf("expected 2 nodes (oscillator + gain), got %d", result.Graph.Len())
	}
}

func TestCompileTempoStmtSetsResult(t *testing.T) {
	result, err := Compile("bpm 120, 4", testEnv())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if result.Tempo == nil || !result.Tempo.HasBPM || result.Tempo.BPM != 120 {
		t.Fatalf("expected a BPM tempo setting of 120, got %+v", result.Tempo)
	}
}

func TestCompileHushStmtSetsChannel(t *testing.T) {
	result, err := Compile(`hush(bass)`, testEnv())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if result.HushChannel == nil || *result.HushChannel != "bass" {
		t.Fatalf("expected hush channel %q, got %v", "bass", result.HushChannel)
	}
}

func TestCompileSamplePatternRegistersTriggerBinding(t *testing.T) {
	result, err := Compile(`sample("bd sn")`, testEnv())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(result.TriggerBindings) != 1 {
		t.Fatalf("expected 1 trigger binding, got %d", len(result.TriggerBindings))
	}
}

func TestCompileUndefinedReferenceIsAnError(t *testing.T) {
	_, err := Compile(`~missing >> gain(0.5)`, testEnv())
	if err == nil {
		t.Fatalf("expected an error for an undefined ~reference")
	}
}

func TestCompilePipeRightMustBeCall(t *testing.T) {
	_, err := Compile(`sine(440) >> 5`, testEnv())
	if err == nil {
		t.Fatalf("expected an error when '>>' right side is not a call")
	}
}

func TestCompileBinaryExprOnAPatternArgument(t *testing.T) {
	result, err := Compile(`sine("220 440") * 0.5`, testEnv())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !result.OutputNode.Valid() {
		t.Fatalf("expected a valid output node")
	}
	if len(result.ScalarBindings) != 1 {
		t.Fatalf("expected the pattern literal to register 1 scalar binding, got %d", len(result.ScalarBindings))
	}
	// oscillator + the pattern-scalar node feeding its frequency + the
	// multiply node.
	if result.Graph.Len() != 3 {
		t.Fatalf("expected 3 nodes, got %d", result.Graph.Len())
	}
}

func TestCompileBinaryExprFoldsConstants(t *testing.T) {
	result, err := Compile(`sine(220 + 20)`, testEnv())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if result.Graph.Len() != 1 {
		t.Fatalf("expected constant folding to avoid an arithmetic node, got %d nodes", result.Graph.Len())
	}
}

func TestCompileDollarPipeAppliesNamedTransform(t *testing.T) {
	result, err := Compile(`sample("bd sn" $ fast(2))`, testEnv())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(result.TriggerBindings) != 1 {
		t.Fatalf("expected 1 trigger binding, got %d", len(result.TriggerBindings))
	}
}

func TestCompilePipeIntoPatternTransform(t *testing.T) {
	result, err := Compile(`sample("bd sn" >> rev())`, testEnv())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(result.TriggerBindings) != 1 {
		t.Fatalf("expected 1 trigger binding, got %d", len(result.TriggerBindings))
	}
}

func TestCompileEveryWithNestedTransformCall(t *testing.T) {
	_, err := Compile(`sample("bd sn sn sn" >> every(4, fast(2)))`, testEnv())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
}

func TestCompileNotchFilterBuiltin(t *testing.T) {
	result, err := Compile(`sine(440) >> notch(800, 0.7)`, testEnv())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if result.Graph.Len() != 2 {
		t.Fatalf("expected 2 nodes (oscillator + filter), got %d", result.Graph.Len())
	}
}

func TestCompileEveryWithBoundTransformReference(t *testing.T) {
	_, err := Compile("~double = fast(2)\nsample(\"bd sn sn sn\" >> every(4, ~double))\n", testEnv())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
}

func TestCompileBareTransformWithoutPatternIsAnError(t *testing.T) {
	_, err := Compile(`fast(2)`, testEnv())
	if err == nil {
		t.Fatalf("expected an error: a bare transform isn't a signal output")
	}
}
