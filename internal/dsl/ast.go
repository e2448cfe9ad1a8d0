// Package dsl implements the live-coding surface language: the statement
// grammar for tempo/channel control plus an expression language of
// oscillator/filter/envelope calls and `>>` pipes, compiled directly to an
// internal/graph.Graph and a set of internal/scheduler bindings (spec.md
// §6). AST shape grounded on internal/corelx/ast.go (small Stmt/Expr marker
// interfaces, a Position embedded in every node); the compiler is grounded
// on internal/corelx/codegen.go's table-driven switch-on-node-type walk.
package dsl

// Position is a source location, used for diagnostics.
type Position struct {
	Line, Col int
}

// Node is any AST node.
type Node interface {
	Pos() Position
}

// Stmt is a top-level program statement.
type Stmt interface {
	Node
	isStmt()
}

// TempoStmt sets the transport, either by direct cycles-per-second or by
// beats-per-minute plus a beats-per-cycle divisor (spec.md §4.5).
type TempoStmt struct {
	Position      Position
	HasCPS        bool
	CPS           float64
	HasBPM        bool
	BPM           float64
	BeatsPerCycle float64
}

func (s *TempoStmt) Pos() Position { return s.Position }
func (*TempoStmt) isStmt()         {}

// BindStmt names an expression's result for later `~name` reference.
type BindStmt struct {
	Position Position
	Name     string
	Value    Expr
}

func (s *BindStmt) Pos() Position { return s.Position }
func (*BindStmt) isStmt()         {}

// HushStmt silences one channel, or every voice if Channel is empty.
type HushStmt struct {
	Position Position
	Channel  string
}

func (s *HushStmt) Pos() Position { return s.Position }
func (*HushStmt) isStmt()         {}

// PanicStmt resets the whole graph to silence.
type PanicStmt struct {
	Position Position
}

func (s *PanicStmt) Pos() Position { return s.Position }
func (*PanicStmt) isStmt()         {}

// ExprStmt evaluates an expression for its side effect of building graph
// nodes; the last ExprStmt in a program becomes its audio output.
type ExprStmt struct {
	Position Position
	Value    Expr
}

func (s *ExprStmt) Pos() Position { return s.Position }
func (*ExprStmt) isStmt()         {}

// Expr is any expression.
type Expr interface {
	Node
	isExpr()
}

// NumberLit is a float literal.
type NumberLit struct {
	Position Position
	Value    float64
}

func (e *NumberLit) Pos() Position { return e.Position }
func (*NumberLit) isExpr()         {}

// StringLit is a quoted mini-notation pattern source string.
type StringLit struct {
	Position Position
	Value    string
}

func (e *StringLit) Pos() Position { return e.Position }
func (*StringLit) isExpr()         {}

// Ref is a `~name` reference to an earlier BindStmt.
type Ref struct {
	Position Position
	Name     string
}

func (e *Ref) Pos() Position { return e.Position }
func (*Ref) isExpr()         {}

// Call invokes a builtin node constructor by name.
type Call struct {
	Position Position
	Name     string
	Args     []Expr
}

func (e *Call) Pos() Position { return e.Position }
func (*Call) isExpr()         {}

// Pipe is `left >> right`, where right must be a Call; Left is prepended
// to right's argument list as its implicit first argument.
type Pipe struct {
	Position Position
	Left     Expr
	Right    Expr
}

func (e *Pipe) Pos() Position { return e.Position }
func (*Pipe) isExpr()         {}

// BinaryExpr is `left Op right`, one of the arithmetic operators + - * /.
type BinaryExpr struct {
	Position Position
	Op       TokenType
	Left     Expr
	Right    Expr
}

func (e *BinaryExpr) Pos() Position { return e.Position }
func (*BinaryExpr) isExpr()         {}

// DollarPipe is `left $ right`, where right must be a Call naming a
// pattern-transform; the same implicit-first-argument convention as Pipe,
// but dispatched against the pattern-transform registry instead of a
// signal-node builtin.
type DollarPipe struct {
	Position Position
	Left     Expr
	Right    Expr
}

func (e *DollarPipe) Pos() Position { return e.Position }
func (*DollarPipe) isExpr()         {}
