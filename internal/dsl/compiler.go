package dsl

import (
	"strconv"

	"loomcycle/internal/control"
	"loomcycle/internal/dsp"
	"loomcycle/internal/engerr"
	"loomcycle/internal/frac"
	"loomcycle/internal/graph"
	"loomcycle/internal/notation"
	"loomcycle/internal/pattern"
	"loomcycle/internal/samplebank"
	"loomcycle/internal/scheduler"
	"loomcycle/internal/voice"
)

// valueKind discriminates what a compiled expression produced.
type valueKind int

const (
	vNumber valueKind = iota
	vSignal
	vPattern
	vTransform
)

// value is the compiler's working representation of an expression result: a
// bare number, a live graph signal (a node's output), a not-yet-materialized
// mini-notation pattern, or a named pattern-transform waiting to be applied
// (the argument to every/whenmod/jux, or the right side of a "$"/">>").
type value struct {
	kind      valueKind
	number    float64
	signal    graph.Signal
	pat       pattern.Pattern[string]
	transform func(pattern.Pattern[string]) pattern.Pattern[string]
}

// toSignal lowers any value into a graph.Signal, materializing a pattern
// into a PatternScalar node plus a ScalarBinding on first numeric use.
func (c *Compiler) toSignal(v value) graph.Signal {
	switch v.kind {
	case vPattern:
		return c.materializeNumericPattern(v.pat)
	case vSignal:
		return v.signal
	case vNumber:
		return graph.ValueSignal(v.number)
	default:
		return graph.ValueSignal(0)
	}
}

// argSignal reads argument i as a Signal, or a default constant if absent.
func (c *Compiler) argSignal(args []value, i int, def float64) graph.Signal {
	if i < len(args) {
		return c.toSignal(args[i])
	}
	return graph.ValueSignal(def)
}

// TempoSetting is the transport change a TempoStmt requests.
type TempoSetting struct {
	HasCPS        bool
	CPS           float64
	HasBPM        bool
	BPM           float64
	BeatsPerCycle float64
}

// Result is everything compiling a program produces: the graph to render,
// its output node, the scheduler bindings pattern literals installed, and
// any transport/live-control actions the program's statements requested.
type Result struct {
	Graph           *graph.Graph
	OutputNode      graph.NodeID
	ScalarBindings  []*scheduler.ScalarBinding
	TriggerBindings []*scheduler.TriggerBinding
	Tempo           *TempoSetting
	HushChannel     *string // nil = no hush requested; "" = hush everything
	Panic           bool
}

// Env supplies the compiler with the shared runtime resources node
// constructors need but that aren't expressible in the language itself.
type Env struct {
	SampleRate float64
	Bank       *samplebank.Bank
	Pool       *voice.Pool
	Surface    *control.Surface // optional; wires sample() voices to MuteChannel
}

// Compiler walks a parsed Program and builds a graph.Graph plus scheduler
// bindings. Grounded on internal/corelx/codegen.go's table-driven
// switch-on-node-type walk, generalized from bytecode emission to graph
// node construction.
type Compiler struct {
	env             Env
	g               *graph.Graph
	bindings        map[string]value // `~name` bindings
	currentBindName string           // set while compiling a BindStmt's value, tags sample() voices with their channel
	result          Result
}

// Compile parses and compiles source in one step.
func Compile(source string, env Env) (*Result, error) {
	lexer := NewLexer(source)
	tokens, err := lexer.Tokenize()
	if err != nil {
		return nil, engerr.NewConstructionError("dsl-lex", "%v", err)
	}
	stmts, err := NewParser(tokens).Parse()
	if err != nil {
		return nil, engerr.NewConstructionError("dsl-parse", "%v", err)
	}
	return CompileProgram(stmts, env)
}

// CompileProgram compiles an already-parsed statement list.
func CompileProgram(stmts []Stmt, env Env) (*Result, error) {
	c := &Compiler{
		env:      env,
		g:        graph.New(),
		bindings: map[string]value{},
	}

	var last value
	haveOutput := false

	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *TempoStmt:
			c.result.Tempo = &TempoSetting{
				HasCPS: s.HasCPS, CPS: s.CPS,
				HasBPM: s.HasBPM, BPM: s.BPM, BeatsPerCycle: s.BeatsPerCycle,
			}
		case *HushStmt:
			ch := s.Channel
			c.result.HushChannel = &ch
		case *PanicStmt:
			c.result.Panic = true
		case *BindStmt:
			c.currentBindName = s.Name
			v, err := c.compileExpr(s.Value)
			c.currentBindName = ""
			if err != nil {
				return nil, err
			}
			c.bindings[s.Name] = v
		case *ExprStmt:
			v, err := c.compileExpr(s.Value)
			if err != nil {
				return nil, err
			}
			last = v
			haveOutput = true
		default:
			return nil, engerr.NewConstructionError("dsl-compile", "unknown statement type %T", stmt)
		}
	}

	if haveOutput {
		if last.kind == vPattern {
			last = value{kind: vSignal, signal: c.materializeNumericPattern(last.pat)}
		}
		if last.kind != vSignal {
			return nil, engerr.NewConstructionError("dsl-compile", "program output must be a signal, not a bare number")
		}
		if last.signal.Kind != graph.SignalNode {
			return nil, engerr.NewConstructionError("dsl-compile", "program output must reference a graph node")
		}
		c.result.OutputNode = last.signal.Node
		c.g.SetOutputNode(c.result.OutputNode)
	}

	c.result.Graph = c.g
	return &c.result, nil
}

func (c *Compiler) compileExpr(e Expr) (value, error) {
	switch expr := e.(type) {
	case *NumberLit:
		return value{kind: vNumber, number: expr.Value}, nil
	case *Ref:
		v, ok := c.bindings[expr.Name]
		if !ok {
			return value{}, engerr.NewConstructionError("dsl-compile", "%d:%d: undefined reference ~%s", expr.Position.Line, expr.Position.Col, expr.Name)
		}
		return v, nil
	case *StringLit:
		strPattern, err := notation.Compile(expr.Value)
		if err != nil {
			return value{}, engerr.NewConstructionError("dsl-pattern", "%d:%d: %v", expr.Position.Line, expr.Position.Col, err)
		}
		return value{kind: vPattern, pat: strPattern}, nil
	case *Call:
		return c.compileCall(expr, nil)
	case *Pipe:
		left, err := c.compileExpr(expr.Left)
		if err != nil {
			return value{}, err
		}
		call, ok := expr.Right.(*Call)
		if !ok {
			return value{}, engerr.NewConstructionError("dsl-compile", "%d:%d: right side of '>>' must be a function call", expr.Position.Line, expr.Position.Col)
		}
		return c.compileCall(call, &left)
	case *DollarPipe:
		left, err := c.compileExpr(expr.Left)
		if err != nil {
			return value{}, err
		}
		if left.kind != vPattern {
			return value{}, engerr.NewConstructionError("dsl-compile", "%d:%d: left side of '$' must be a pattern", expr.Position.Line, expr.Position.Col)
		}
		call, ok := expr.Right.(*Call)
		if !ok {
			return value{}, engerr.NewConstructionError("dsl-compile", "%d:%d: right side of '$' must be a pattern-transform call", expr.Position.Line, expr.Position.Col)
		}
		fn, err := c.resolvePatternTransform(call)
		if err != nil {
			return value{}, err
		}
		return value{kind: vPattern, pat: fn(left.pat)}, nil
	case *BinaryExpr:
		return c.compileBinary(expr)
	default:
		return value{}, engerr.NewConstructionError("dsl-compile", "unknown expression type %T", e)
	}
}

func (c *Compiler) compileBinary(expr *BinaryExpr) (value, error) {
	left, err := c.compileExpr(expr.Left)
	if err != nil {
		return value{}, err
	}
	right, err := c.compileExpr(expr.Right)
	if err != nil {
		return value{}, err
	}
	if left.kind == vNumber && right.kind == vNumber {
		return value{kind: vNumber, number: foldArith(expr.Op, left.number, right.number)}, nil
	}
	node := &dsp.Arithmetic{Op: arithOpFor(expr.Op), Left: c.toSignal(left), Right: c.toSignal(right)}
	id := c.g.AddNode(node)
	return value{kind: vSignal, signal: graph.NodeSignal(id)}, nil
}

func foldArith(op TokenType, a, b float64) float64 {
	switch op {
	case TokenPlus:
		return a + b
	case TokenMinus:
		return a - b
	case TokenStar:
		return a * b
	case TokenSlash:
		if b == 0 {
			return 0
		}
		return a / b
	default:
		return 0
	}
}

func arithOpFor(op TokenType) dsp.ArithOp {
	switch op {
	case TokenPlus:
		return dsp.ArithAdd
	case TokenMinus:
		return dsp.ArithSub
	case TokenSlash:
		return dsp.ArithDiv
	default:
		return dsp.ArithMul
	}
}

// materializeNumericPattern lowers a bare mini-notation pattern used as a
// numeric expression into a PatternScalar node plus a registered
// ScalarBinding, resolving spec.md §3's third Signal variant the way
// internal/graph/node.go documents.
func (c *Compiler) materializeNumericPattern(strPattern pattern.Pattern[string]) graph.Signal {
	numPattern := pattern.MapPattern(strPattern, func(s string) float64 {
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return n
	})

	target := &dsp.PatternScalar{}
	id := c.g.AddNode(target)
	c.result.ScalarBindings = append(c.result.ScalarBindings, &scheduler.ScalarBinding{
		Pattern: numPattern,
		Target:  target,
	})
	return graph.NodeSignal(id)
}

// materializeTriggerPattern lowers a trigger-valued pattern into a
// TriggerBinding against a fresh Sample node. Reads pan/gain/speed overrides
// off each Hap's Controls (set by Hurry's "speed" tag or jux's "pan" tag)
// rather than hardcoding the defaults MapPattern's callback can't see.
func (c *Compiler) materializeTriggerPattern(strPattern pattern.Pattern[string], cutGroup int) (value, error) {
	triggerPattern := pattern.New(func(s pattern.State) []pattern.Hap[scheduler.TriggerEvent] {
		haps := strPattern.Query(s)
		out := make([]pattern.Hap[scheduler.TriggerEvent], len(haps))
		for i, h := range haps {
			ev := scheduler.TriggerEvent{SampleRef: h.Value, Gain: 1, Pan: 0, Speed: 1}
			if g, ok := h.Controls["gain"]; ok {
				ev.Gain = g
			}
			if p, ok := h.Controls["pan"]; ok {
				ev.Pan = p
			}
			if sp, ok := h.Controls["speed"]; ok {
				ev.Speed = sp
			}
			out[i] = pattern.Hap[scheduler.TriggerEvent]{Whole: h.Whole, Part: h.Part, Value: ev, Controls: h.Controls}
		}
		return out
	})

	target := &dsp.Sample{
		Bank:     c.env.Bank,
		Pool:     c.env.Pool,
		CutGroup: cutGroup,
		Channel:  c.currentBindName,
		Surface:  c.env.Surface,
	}
	id := c.g.AddNode(target)
	c.result.TriggerBindings = append(c.result.TriggerBindings, &scheduler.TriggerBinding{
		Pattern: triggerPattern,
		Target:  target,
	})
	return value{kind: vSignal, signal: graph.NodeSignal(id)}, nil
}

// compileCall dispatches to one of: the "sample"/"run"/"bite" pattern
// constructors, a pattern-transform (fast, slow, rev, ...), or a signal-node
// builtin. If piped is non-nil, it is prepended as the call's implicit
// first argument (or, for a transform, applied directly).
func (c *Compiler) compileCall(call *Call, piped *value) (value, error) {
	switch call.Name {
	case "sample":
		return c.compileSampleCall(call)
	case "run":
		return c.compileRunCall(call)
	case "bite":
		return c.compileBiteCall(call)
	}

	if tb, ok := patternTransforms[call.Name]; ok {
		fn, err := tb(c, call)
		if err != nil {
			return value{}, err
		}
		if piped != nil {
			if piped.kind != vPattern {
				return value{}, engerr.NewConstructionError("dsl-compile", "%d:%d: %q needs a pattern on the left of '>>'", call.Position.Line, call.Position.Col, call.Name)
			}
			return value{kind: vPattern, pat: fn(piped.pat)}, nil
		}
		return value{kind: vTransform, transform: fn}, nil
	}

	var argValues []value
	if piped != nil {
		argValues = append(argValues, *piped)
	}
	for _, a := range call.Args {
		v, err := c.compileExpr(a)
		if err != nil {
			return value{}, err
		}
		argValues = append(argValues, v)
	}

	builder, ok := builtins[call.Name]
	if !ok {
		return value{}, engerr.NewConstructionError("dsl-compile", "%d:%d: unknown function %q", call.Position.Line, call.Position.Col, call.Name)
	}
	return builder(c, call, argValues)
}

// compileSampleCall handles sample(pattern, [cutGroup]) specially since its
// first argument is always a trigger pattern, never a signal.
func (c *Compiler) compileSampleCall(call *Call) (value, error) {
	if len(call.Args) == 0 {
		return value{}, engerr.NewConstructionError("dsl-compile", "%d:%d: sample() requires a pattern argument", call.Position.Line, call.Position.Col)
	}
	v, err := c.compileExpr(call.Args[0])
	if err != nil {
		return value{}, err
	}
	if v.kind != vPattern {
		return value{}, engerr.NewConstructionError("dsl-compile", "%d:%d: sample()'s first argument must be a pattern", call.Position.Line, call.Position.Col)
	}
	cutGroup := 0
	if len(call.Args) > 1 {
		cv, err := c.compileExpr(call.Args[1])
		if err != nil {
			return value{}, err
		}
		if cv.kind == vNumber {
			cutGroup = int(cv.number)
		}
	}
	return c.materializeTriggerPattern(v.pat, cutGroup)
}

// compileRunCall handles run(n): a pattern constructor, not a transform of
// an existing pattern.
func (c *Compiler) compileRunCall(call *Call) (value, error) {
	n, err := c.numberArgAt(call, 0, 0)
	if err != nil {
		return value{}, err
	}
	intPattern := pattern.Run(int64(n))
	strPattern := pattern.MapPattern(intPattern, func(v int64) string { return strconv.FormatInt(v, 10) })
	return value{kind: vPattern, pat: strPattern}, nil
}

// compileBiteCall handles bite(n, sub1, sub2, ...): another pattern
// constructor, picking one sub-pattern per cycle and confining it to a
// 1/n slot (internal/pattern/transforms.go's Bite).
func (c *Compiler) compileBiteCall(call *Call) (value, error) {
	if len(call.Args) < 2 {
		return value{}, engerr.NewConstructionError("dsl-compile", "%d:%d: bite() requires a slot count and at least one sub-pattern", call.Position.Line, call.Position.Col)
	}
	n, err := c.numberArgAt(call, 0, 0)
	if err != nil {
		return value{}, err
	}
	qs := make([]pattern.Pattern[string], 0, len(call.Args)-1)
	for _, a := range call.Args[1:] {
		v, err := c.compileExpr(a)
		if err != nil {
			return value{}, err
		}
		if v.kind != vPattern {
			return value{}, engerr.NewConstructionError("dsl-compile", "%d:%d: bite()'s sub-patterns must be patterns", call.Position.Line, call.Position.Col)
		}
		qs = append(qs, v.pat)
	}
	return value{kind: vPattern, pat: pattern.Bite(int64(n), qs)}, nil
}

// numberArgAt compiles call.Args[i] and requires it to be a plain number,
// returning def if the argument is absent.
func (c *Compiler) numberArgAt(call *Call, i int, def float64) (float64, error) {
	if i >= len(call.Args) {
		return def, nil
	}
	v, err := c.compileExpr(call.Args[i])
	if err != nil {
		return 0, err
	}
	if v.kind != vNumber {
		return 0, engerr.NewConstructionError("dsl-compile", "%d:%d: argument %d of %q must be a number", call.Position.Line, call.Position.Col, i, call.Name)
	}
	return v.number, nil
}

// fracArgAt is numberArgAt converted at the DSL boundary into an exact
// Fraction, the same frac.FromFloat(_, 1000) idiom internal/notation uses
// for literal numbers from source.
func (c *Compiler) fracArgAt(call *Call, i int, def float64) (frac.Fraction, error) {
	n, err := c.numberArgAt(call, i, def)
	if err != nil {
		return frac.Fraction{}, err
	}
	return frac.FromFloat(n, 1000), nil
}

// transformArgAt requires call.Args[i] to be either a pattern-transform call
// (e.g. fast(2)) or a `~name` bound to one (via "~double = fast(2)"), for
// higher-order transforms like every/whenmod/jux.
func (c *Compiler) transformArgAt(call *Call, i int) (func(pattern.Pattern[string]) pattern.Pattern[string], error) {
	if i >= len(call.Args) {
		return nil, engerr.NewConstructionError("dsl-compile", "%d:%d: %q requires a transform argument", call.Position.Line, call.Position.Col, call.Name)
	}
	switch arg := call.Args[i].(type) {
	case *Call:
		return c.resolvePatternTransform(arg)
	case *Ref:
		v, err := c.compileExpr(arg)
		if err != nil {
			return nil, err
		}
		if v.kind != vTransform {
			return nil, engerr.NewConstructionError("dsl-compile", "%d:%d: ~%s is not a pattern transform", arg.Position.Line, arg.Position.Col, arg.Name)
		}
		return v.transform, nil
	default:
		return nil, engerr.NewConstructionError("dsl-compile", "%d:%d: argument %d of %q must be a pattern-transform call or reference", call.Position.Line, call.Position.Col, i, call.Name)
	}
}

// resolvePatternTransform looks up a pattern-transform call by name and
// builds its closure from its own parameter arguments (ignoring any piped
// value, since a bare transform reference has none yet).
func (c *Compiler) resolvePatternTransform(call *Call) (func(pattern.Pattern[string]) pattern.Pattern[string], error) {
	tb, ok := patternTransforms[call.Name]
	if !ok {
		return nil, engerr.NewConstructionError("dsl-compile", "%d:%d: %q is not a pattern transform", call.Position.Line, call.Position.Col, call.Name)
	}
	return tb(c, call)
}

// mapStringToFloatAndBack round-trips a Pattern[string] through
// Pattern[float64] so float64-typed transforms (Range/RangeX) can still be
// wired into the otherwise uniformly Pattern[string] "$"/">>" chain.
func mapStringToFloatAndBack(p pattern.Pattern[string], f func(pattern.Pattern[float64]) pattern.Pattern[float64]) pattern.Pattern[string] {
	numeric := pattern.MapPattern(p, func(s string) float64 {
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return n
	})
	back := f(numeric)
	return pattern.MapPattern(back, func(v float64) string {
		return strconv.FormatFloat(v, 'f', -1, 64)
	})
}

// tagPan returns p with every event's "pan" control set, used by jux to
// approximate a stereo split within the single Pattern[string] pipeline
// (rather than Jux[T]'s [2]T pairing, which can't fit this chain's type).
func tagPan(p pattern.Pattern[string], pan float64) pattern.Pattern[string] {
	return pattern.New(func(s pattern.State) []pattern.Hap[string] {
		haps := p.Query(s)
		out := make([]pattern.Hap[string], len(haps))
		for i, h := range haps {
			out[i] = h.WithControl("pan", pan)
		}
		return out
	})
}

// patternTransformBuilder builds a pattern-transform closure from a call's
// own parameter arguments (not from a piped pattern, which is applied by
// the caller once the closure is built).
type patternTransformBuilder func(c *Compiler, call *Call) (func(pattern.Pattern[string]) pattern.Pattern[string], error)

var patternTransforms map[string]patternTransformBuilder

func init() {
	patternTransforms = map[string]patternTransformBuilder{
		"fast": func(c *Compiler, call *Call) (func(pattern.Pattern[string]) pattern.Pattern[string], error) {
			k, err := c.fracArgAt(call, 0, 1)
			if err != nil {
				return nil, err
			}
			return func(p pattern.Pattern[string]) pattern.Pattern[string] { return pattern.Fast(p, k) }, nil
		},
		"slow": func(c *Compiler, call *Call) (func(pattern.Pattern[string]) pattern.Pattern[string], error) {
			k, err := c.fracArgAt(call, 0, 1)
			if err != nil {
				return nil, err
			}
			return func(p pattern.Pattern[string]) pattern.Pattern[string] { return pattern.Slow(p, k) }, nil
		},
		"hurry": func(c *Compiler, call *Call) (func(pattern.Pattern[string]) pattern.Pattern[string], error) {
			k, err := c.fracArgAt(call, 0, 1)
			if err != nil {
				return nil, err
			}
			return func(p pattern.Pattern[string]) pattern.Pattern[string] { return pattern.Hurry(p, k) }, nil
		},
		"rev": func(c *Compiler, call *Call) (func(pattern.Pattern[string]) pattern.Pattern[string], error) {
			return pattern.Rev[string], nil
		},
		"rotate": func(c *Compiler, call *Call) (func(pattern.Pattern[string]) pattern.Pattern[string], error) {
			delta, err := c.fracArgAt(call, 0, 0)
			if err != nil {
				return nil, err
			}
			return func(p pattern.Pattern[string]) pattern.Pattern[string] { return pattern.Rotate(p, delta) }, nil
		},
		"degrade_by": func(c *Compiler, call *Call) (func(pattern.Pattern[string]) pattern.Pattern[string], error) {
			prob, err := c.numberArgAt(call, 0, 0.5)
			if err != nil {
				return nil, err
			}
			salt, err := c.numberArgAt(call, 1, 0)
			if err != nil {
				return nil, err
			}
			return func(p pattern.Pattern[string]) pattern.Pattern[string] { return pattern.DegradeBy(p, prob, int64(salt)) }, nil
		},
		"palindrome": func(c *Compiler, call *Call) (func(pattern.Pattern[string]) pattern.Pattern[string], error) {
			return pattern.Palindrome[string], nil
		},
		"iter": func(c *Compiler, call *Call) (func(pattern.Pattern[string]) pattern.Pattern[string], error) {
			n, err := c.numberArgAt(call, 0, 1)
			if err != nil {
				return nil, err
			}
			return func(p pattern.Pattern[string]) pattern.Pattern[string] { return pattern.Iter(p, int64(n)) }, nil
		},
		"ply": func(c *Compiler, call *Call) (func(pattern.Pattern[string]) pattern.Pattern[string], error) {
			n, err := c.numberArgAt(call, 0, 1)
			if err != nil {
				return nil, err
			}
			return func(p pattern.Pattern[string]) pattern.Pattern[string] { return pattern.Ply(p, int64(n)) }, nil
		},
		"linger": func(c *Compiler, call *Call) (func(pattern.Pattern[string]) pattern.Pattern[string], error) {
			t, err := c.fracArgAt(call, 0, 1)
			if err != nil {
				return nil, err
			}
			return func(p pattern.Pattern[string]) pattern.Pattern[string] { return pattern.Linger(p, t) }, nil
		},
		"segment": func(c *Compiler, call *Call) (func(pattern.Pattern[string]) pattern.Pattern[string], error) {
			n, err := c.numberArgAt(call, 0, 1)
			if err != nil {
				return nil, err
			}
			return func(p pattern.Pattern[string]) pattern.Pattern[string] { return pattern.Segment(p, int64(n)) }, nil
		},
		"slice": func(c *Compiler, call *Call) (func(pattern.Pattern[string]) pattern.Pattern[string], error) {
			n, err := c.numberArgAt(call, 0, 1)
			if err != nil {
				return nil, err
			}
			i, err := c.numberArgAt(call, 1, 0)
			if err != nil {
				return nil, err
			}
			return func(p pattern.Pattern[string]) pattern.Pattern[string] { return pattern.Slice(p, int64(n), int64(i)) }, nil
		},
		"chop": func(c *Compiler, call *Call) (func(pattern.Pattern[string]) pattern.Pattern[string], error) {
			n, err := c.numberArgAt(call, 0, 1)
			if err != nil {
				return nil, err
			}
			return func(p pattern.Pattern[string]) pattern.Pattern[string] { return pattern.Chop(p, int64(n)) }, nil
		},
		"striate": func(c *Compiler, call *Call) (func(pattern.Pattern[string]) pattern.Pattern[string], error) {
			n, err := c.numberArgAt(call, 0, 1)
			if err != nil {
				return nil, err
			}
			return func(p pattern.Pattern[string]) pattern.Pattern[string] { return pattern.Striate(p, int64(n)) }, nil
		},
		"stutter": func(c *Compiler, call *Call) (func(pattern.Pattern[string]) pattern.Pattern[string], error) {
			n, err := c.numberArgAt(call, 0, 1)
			if err != nil {
				return nil, err
			}
			t, err := c.fracArgAt(call, 1, 0.125)
			if err != nil {
				return nil, err
			}
			return func(p pattern.Pattern[string]) pattern.Pattern[string] { return pattern.Stutter(p, int64(n), t) }, nil
		},
		"compress": func(c *Compiler, call *Call) (func(pattern.Pattern[string]) pattern.Pattern[string], error) {
			b, err := c.fracArgAt(call, 0, 0)
			if err != nil {
				return nil, err
			}
			e, err := c.fracArgAt(call, 1, 1)
			if err != nil {
				return nil, err
			}
			return func(p pattern.Pattern[string]) pattern.Pattern[string] { return pattern.Compress(p, b, e) }, nil
		},
		"zoom": func(c *Compiler, call *Call) (func(pattern.Pattern[string]) pattern.Pattern[string], error) {
			b, err := c.fracArgAt(call, 0, 0)
			if err != nil {
				return nil, err
			}
			e, err := c.fracArgAt(call, 1, 1)
			if err != nil {
				return nil, err
			}
			return func(p pattern.Pattern[string]) pattern.Pattern[string] { return pattern.Zoom(p, b, e) }, nil
		},
		"range": func(c *Compiler, call *Call) (func(pattern.Pattern[string]) pattern.Pattern[string], error) {
			lo, err := c.numberArgAt(call, 0, 0)
			if err != nil {
				return nil, err
			}
			hi, err := c.numberArgAt(call, 1, 1)
			if err != nil {
				return nil, err
			}
			return func(p pattern.Pattern[string]) pattern.Pattern[string] {
				return mapStringToFloatAndBack(p, func(fp pattern.Pattern[float64]) pattern.Pattern[float64] {
					return pattern.Range(fp, lo, hi)
				})
			}, nil
		},
		"rangex": func(c *Compiler, call *Call) (func(pattern.Pattern[string]) pattern.Pattern[string], error) {
			lo, err := c.numberArgAt(call, 0, 1)
			if err != nil {
				return nil, err
			}
			hi, err := c.numberArgAt(call, 1, 1)
			if err != nil {
				return nil, err
			}
			return func(p pattern.Pattern[string]) pattern.Pattern[string] {
				return mapStringToFloatAndBack(p, func(fp pattern.Pattern[float64]) pattern.Pattern[float64] {
					return pattern.RangeX(fp, lo, hi)
				})
			}, nil
		},
		"every": func(c *Compiler, call *Call) (func(pattern.Pattern[string]) pattern.Pattern[string], error) {
			n, err := c.numberArgAt(call, 0, 1)
			if err != nil {
				return nil, err
			}
			f, err := c.transformArgAt(call, 1)
			if err != nil {
				return nil, err
			}
			return func(p pattern.Pattern[string]) pattern.Pattern[string] { return pattern.Every(p, int64(n), f) }, nil
		},
		"whenmod": func(c *Compiler, call *Call) (func(pattern.Pattern[string]) pattern.Pattern[string], error) {
			a, err := c.numberArgAt(call, 0, 1)
			if err != nil {
				return nil, err
			}
			b, err := c.numberArgAt(call, 1, 0)
			if err != nil {
				return nil, err
			}
			f, err := c.transformArgAt(call, 2)
			if err != nil {
				return nil, err
			}
			return func(p pattern.Pattern[string]) pattern.Pattern[string] { return pattern.WhenMod(p, int64(a), int64(b), f) }, nil
		},
		"jux": func(c *Compiler, call *Call) (func(pattern.Pattern[string]) pattern.Pattern[string], error) {
			f, err := c.transformArgAt(call, 0)
			if err != nil {
				return nil, err
			}
			return func(p pattern.Pattern[string]) pattern.Pattern[string] {
				return pattern.Stack(tagPan(p, -1), tagPan(f(p), 1))
			}, nil
		},
		"someone": func(c *Compiler, call *Call) (func(pattern.Pattern[string]) pattern.Pattern[string], error) {
			prob, err := c.numberArgAt(call, 0, 0.5)
			if err != nil {
				return nil, err
			}
			salt, err := c.numberArgAt(call, 1, 0)
			if err != nil {
				return nil, err
			}
			f, err := c.transformArgAt(call, 2)
			if err != nil {
				return nil, err
			}
			return func(p pattern.Pattern[string]) pattern.Pattern[string] {
				return pattern.Someone(p, prob, int64(salt), f)
			}, nil
		},
	}
}

type builtinFunc func(c *Compiler, call *Call, args []value) (value, error)

var builtins map[string]builtinFunc

func init() {
	builtins = map[string]builtinFunc{
		"sine":       oscillatorBuiltin(dsp.ShapeSine),
		"tri":        oscillatorBuiltin(dsp.ShapeTriangle),
		"saw":        oscillatorBuiltin(dsp.ShapeSaw),
		"square":     oscillatorBuiltin(dsp.ShapeSquare),
		"noise":      noiseBuiltin,
		"lpf":        filterBuiltin(dsp.FilterLowpass),
		"hpf":        filterBuiltin(dsp.FilterHighpass),
		"bpf":        filterBuiltin(dsp.FilterBandpass),
		"notch":      filterBuiltin(dsp.FilterNotch),
		"delay":      delayBuiltin,
		"adsr":       adsrBuiltin,
		"add":        arithBuiltin(dsp.ArithAdd),
		"sub":        arithBuiltin(dsp.ArithSub),
		"mul":        arithBuiltin(dsp.ArithMul),
		"div":        arithBuiltin(dsp.ArithDiv),
		"mod":        arithBuiltin(dsp.ArithMod),
		"gain":       arithBuiltin(dsp.ArithMul),
		"reverb":     reverbBuiltin,
		"lfo":        lfoBuiltin(dsp.ShapeSine),
		"compressor": compressorBuiltin,
		"limiter":    limiterBuiltin,
	}
}

func reverbBuiltin(c *Compiler, call *Call, args []value) (value, error) {
	if len(args) < 1 {
		return value{}, engerr.NewConstructionError("dsl-compile", "%d:%d: reverb requires an input signal", call.Position.Line, call.Position.Col)
	}
	node := &dsp.Reverb{
		Input:      c.toSignal(args[0]),
		RoomSize:   c.argSignal(args, 1, 0.5),
		Mix:        c.argSignal(args, 2, 0.3),
		SampleRate: c.env.SampleRate,
	}
	id := c.g.AddNode(node)
	return value{kind: vSignal, signal: graph.NodeSignal(id)}, nil
}

func lfoBuiltin(shape dsp.Shape) builtinFunc {
	return func(c *Compiler, call *Call, args []value) (value, error) {
		if len(args) < 1 {
			return value{}, engerr.NewConstructionError("dsl-compile", "%d:%d: lfo requires a frequency argument", call.Position.Line, call.Position.Col)
		}
		node := &dsp.LFO{Shape: shape, Freq: c.toSignal(args[0]), SampleRate: c.env.SampleRate}
		id := c.g.AddNode(node)
		return value{kind: vSignal, signal: graph.NodeSignal(id)}, nil
	}
}

func compressorBuiltin(c *Compiler, call *Call, args []value) (value, error) {
	if len(args) < 1 {
		return value{}, engerr.NewConstructionError("dsl-compile", "%d:%d: compressor requires an input signal", call.Position.Line, call.Position.Col)
	}
	node := &dsp.Compressor{
		Input:       c.toSignal(args[0]),
		ThresholdDB: numberArg(args, 1, -20),
		RatioToOne:  numberArg(args, 2, 4),
		AttackMs:    numberArg(args, 3, 5),
		ReleaseMs:   numberArg(args, 4, 50),
		SampleRate:  c.env.SampleRate,
	}
	id := c.g.AddNode(node)
	return value{kind: vSignal, signal: graph.NodeSignal(id)}, nil
}

func limiterBuiltin(c *Compiler, call *Call, args []value) (value, error) {
	if len(args) < 1 {
		return value{}, engerr.NewConstructionError("dsl-compile", "%d:%d: limiter requires an input signal", call.Position.Line, call.Position.Col)
	}
	node := &dsp.Limiter{
		Input:       c.toSignal(args[0]),
		ThresholdDB: numberArg(args, 1, -3),
		ReleaseMs:   numberArg(args, 2, 20),
		SampleRate:  c.env.SampleRate,
	}
	id := c.g.AddNode(node)
	return value{kind: vSignal, signal: graph.NodeSignal(id)}, nil
}

// numberArg reads a plain numeric argument (not a modulatable Signal) —
// used for Compressor/Limiter parameters that are set once, not per-sample.
func numberArg(args []value, i int, def float64) float64 {
	if i < len(args) && args[i].kind == vNumber {
		return args[i].number
	}
	return def
}

func oscillatorBuiltin(shape dsp.Shape) builtinFunc {
	return func(c *Compiler, call *Call, args []value) (value, error) {
		if len(args) < 1 {
			return value{}, engerr.NewConstructionError("dsl-compile", "%d:%d: oscillator requires a frequency argument", call.Position.Line, call.Position.Col)
		}
		node := &dsp.Oscillator{Shape: shape, Freq: c.toSignal(args[0]), SampleRate: c.env.SampleRate}
		id := c.g.AddNode(node)
		return value{kind: vSignal, signal: graph.NodeSignal(id)}, nil
	}
}

func noiseBuiltin(c *Compiler, call *Call, args []value) (value, error) {
	seed := uint16(1)
	if len(args) > 0 && args[0].kind == vNumber {
		seed = uint16(args[0].number)
	}
	id := c.g.AddNode(&dsp.Noise{Seed: seed})
	return value{kind: vSignal, signal: graph.NodeSignal(id)}, nil
}

func filterBuiltin(mode dsp.FilterMode) builtinFunc {
	return func(c *Compiler, call *Call, args []value) (value, error) {
		if len(args) < 1 {
			return value{}, engerr.NewConstructionError("dsl-compile", "%d:%d: filter requires an input signal", call.Position.Line, call.Position.Col)
		}
		node := &dsp.StateVariableFilter{
			Mode:       mode,
			Input:      c.toSignal(args[0]),
			Cutoff:     c.argSignal(args, 1, 1000),
			Q:          c.argSignal(args, 2, 0.7),
			SampleRate: c.env.SampleRate,
		}
		id := c.g.AddNode(node)
		return value{kind: vSignal, signal: graph.NodeSignal(id)}, nil
	}
}

func delayBuiltin(c *Compiler, call *Call, args []value) (value, error) {
	if len(args) < 1 {
		return value{}, engerr.NewConstructionError("dsl-compile", "%d:%d: delay requires an input signal", call.Position.Line, call.Position.Col)
	}
	timeSignal := c.argSignal(args, 1, 0.25)
	maxTime := 2.0
	if len(args) > 1 && args[1].kind == vNumber && args[1].number > maxTime {
		maxTime = args[1].number
	}
	node := dsp.NewDelay(c.toSignal(args[0]), timeSignal, c.argSignal(args, 2, 0.3), c.argSignal(args, 3, 0.3), c.env.SampleRate, maxTime)
	id := c.g.AddNode(node)
	return value{kind: vSignal, signal: graph.NodeSignal(id)}, nil
}

func adsrBuiltin(c *Compiler, call *Call, args []value) (value, error) {
	if len(args) < 1 {
		return value{}, engerr.NewConstructionError("dsl-compile", "%d:%d: adsr requires a trigger signal", call.Position.Line, call.Position.Col)
	}
	node := &dsp.Envelope{
		Trigger:    c.toSignal(args[0]),
		Attack:     c.argSignal(args, 1, 0.01),
		Decay:      c.argSignal(args, 2, 0.1),
		Sustain:    c.argSignal(args, 3, 0.7),
		Release:    c.argSignal(args, 4, 0.2),
		SampleRate: c.env.SampleRate,
	}
	id := c.g.AddNode(node)
	return value{kind: vSignal, signal: graph.NodeSignal(id)}, nil
}

func arithBuiltin(op dsp.ArithOp) builtinFunc {
	return func(c *Compiler, call *Call, args []value) (value, error) {
		if len(args) < 2 {
			return value{}, engerr.NewConstructionError("dsl-compile", "%d:%d: %s requires two arguments", call.Position.Line, call.Position.Col, call.Name)
		}
		node := &dsp.Arithmetic{Op: op, Left: c.toSignal(args[0]), Right: c.toSignal(args[1])}
		id := c.g.AddNode(node)
		return value{kind: vSignal, signal: graph.NodeSignal(id)}, nil
	}
}
