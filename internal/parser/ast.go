package parser

// Program is the root AST node: every node parsed across every source
// file handed to the compiler (spec.md §4.2 — a file contains nodes).
type Program struct {
	Nodes []*Node
}

// Node is a named, self-contained unit of dialogue: a header block
// terminated by "---" and a body terminated by "===".
//
//	title: Start
//	tags: intro
//	---
//	Welcome, traveler.
//	===
type Node struct {
	Title   string
	Headers []Header // every "key: value" header line, in source order
	Body    []Statement
	Line    int // line of the "title:" header
}

// Header is one raw "key: value" line from a node's header block. Title is
// lifted onto Node.Title for convenience; all headers (including "title")
// are also kept here verbatim for the declaration/string-extraction passes
// and for round-tripping to the bytecode Program's node Tags.
type Header struct {
	Key   string
	Value string
	Line  int
}

// Statement is any body-level construct. Concrete types: LineStatement,
// OptionGroup, Command, IfStatement, SetStatement, DeclareStatement,
// JumpStatement, StopStatement, CallStatement.
type Statement interface {
	statementNode()
	Pos() int
}

// LineStatement is a piece of narrative text, possibly interpolated with
// expressions and tagged with trailing hashtags.
//
//	You have {$gold} gold remaining. #vo:narrator_01
type LineStatement struct {
	Text          string // text with "{n}" placeholders substituted for each Interpolation
	Interpolations []Expr
	Hashtags      []string
	LineID        string // explicit "#line:xxx" hashtag, if present; else ""
	Line          int
}

// OptionGroup is one or more consecutive shortcut options (spec.md
// "Shortcut option"), each with optional condition and indented sub-body.
//
//	-> Go north
//	    You arrive at the gate.
//	-> Go south <<if $has_map>>
//	    You find a shortcut.
type OptionGroup struct {
	Options []*Option
	Line    int
}

// Option is a single "-> text" shortcut, guarded by an optional
// "<<if cond>>" trailing condition and followed by an indented sub-body
// that runs only when the option is chosen.
type Option struct {
	Text          string
	Interpolations []Expr
	Hashtags      []string
	LineID        string
	Condition     Expr // nil if the option is unconditional
	Body          []Statement
	Line          int
}

// Command is a custom "<<name args...>>" invocation not recognized as one
// of the DSL's built-in statement forms.
//
//	<<give_item "sword">>
type Command struct {
	Name string
	Args []Expr
	Line int
}

// IfStatement is an if/elseif*/else chain. Branches[0] is the "if";
// subsequent entries are "elseif"; Else is nil when there is no "else".
//
//	<<if $gold >= 10>>
//	    You can afford it.
//	<<elseif $gold >= 5>>
//	    Almost there.
//	<<else>>
//	    Come back later.
//	<<endif>>
type IfStatement struct {
	Branches []IfBranch
	Else     []Statement
	Line     int
}

// IfBranch is one condition/body pair within an IfStatement.
type IfBranch struct {
	Condition Expr
	Body      []Statement
}

// SetStatement assigns to an already-declared (or implicitly declared)
// variable: "<<set $x = expr>>", or a compound form "<<set $x += expr>>".
type SetStatement struct {
	Variable string
	Op       string // "=", "+=", "-=", "*=", "/="
	Value    Expr
	Line     int
}

// DeclareStatement introduces a variable with a literal default value and
// an optional free-text description.
//
//	<<declare $gold = 0>>
//	<<declare $player_name = "Traveler" "The name shown in dialogue">>
type DeclareStatement struct {
	Variable    string
	Default     Expr
	Description string
	Line        int
}

// JumpStatement transfers control to another node: "<<jump NodeName>>".
type JumpStatement struct {
	Target string
	Line   int
}

// StopStatement ends the dialogue run: "<<stop>>".
type StopStatement struct {
	Line int
}

// CallStatement invokes a function purely for its side effect, discarding
// any return value: "<<call some_function(1, 2)>>".
type CallStatement struct {
	Call *CallExpr
	Line int
}

func (*LineStatement) statementNode()    {}
func (*OptionGroup) statementNode()      {}
func (*Command) statementNode()          {}
func (*IfStatement) statementNode()      {}
func (*SetStatement) statementNode()     {}
func (*DeclareStatement) statementNode() {}
func (*JumpStatement) statementNode()    {}
func (*StopStatement) statementNode()    {}
func (*CallStatement) statementNode()    {}

func (s *LineStatement) Pos() int    { return s.Line }
func (s *OptionGroup) Pos() int      { return s.Line }
func (s *Command) Pos() int          { return s.Line }
func (s *IfStatement) Pos() int      { return s.Line }
func (s *SetStatement) Pos() int     { return s.Line }
func (s *DeclareStatement) Pos() int { return s.Line }
func (s *JumpStatement) Pos() int    { return s.Line }
func (s *StopStatement) Pos() int    { return s.Line }
func (s *CallStatement) Pos() int    { return s.Line }

// Expr is any expression node. Concrete types: NumberLiteral,
// StringLiteral, BoolLiteral, VariableRef, UnaryExpr, BinaryExpr, CallExpr.
type Expr interface {
	exprNode()
	Pos() int
}

// NumberLiteral is a bare numeric literal, e.g. "10" or "3.5".
type NumberLiteral struct {
	Value float64
	Line  int
}

// StringLiteral is a double-quoted string literal.
type StringLiteral struct {
	Value string
	Line  int
}

// BoolLiteral is the "true"/"false" keyword literal.
type BoolLiteral struct {
	Value bool
	Line  int
}

// VariableRef references a "$name" variable.
type VariableRef struct {
	Name string
	Line int
}

// UnaryExpr is a prefix operator applied to a single operand: "-x", "not x".
type UnaryExpr struct {
	Op      string
	Operand Expr
	Line    int
}

// BinaryExpr is an infix operator expression: arithmetic, comparison, or
// boolean (and/or/xor).
type BinaryExpr struct {
	Op    string
	Left  Expr
	Right Expr
	Line  int
}

// CallExpr is a named function call with positional arguments, used both
// for library functions and for operators lowered via the Library (e.g. a
// "+" between two Strings dispatches the same way a named call would).
type CallExpr struct {
	Function string
	Args     []Expr
	Line     int
}

func (*NumberLiteral) exprNode() {}
func (*StringLiteral) exprNode() {}
func (*BoolLiteral) exprNode()   {}
func (*VariableRef) exprNode()   {}
func (*UnaryExpr) exprNode()     {}
func (*BinaryExpr) exprNode()    {}
func (*CallExpr) exprNode()      {}

func (e *NumberLiteral) Pos() int { return e.Line }
func (e *StringLiteral) Pos() int { return e.Line }
func (e *BoolLiteral) Pos() int   { return e.Line }
func (e *VariableRef) Pos() int   { return e.Line }
func (e *UnaryExpr) Pos() int     { return e.Line }
func (e *BinaryExpr) Pos() int    { return e.Line }
func (e *CallExpr) Pos() int      { return e.Line }
