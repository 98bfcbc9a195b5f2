// Package checker implements the DSL's static type checker: a two-phase
// gather/solve pass over the parsed tree that assigns a types.Type to
// every expression and resolves each variable's declared type (spec.md
// §4.4 "Type checking").
package checker

import (
	"fmt"

	"github.com/barun-bash/dialogic/internal/decl"
	"github.com/barun-bash/dialogic/internal/diag"
	"github.com/barun-bash/dialogic/internal/library"
	"github.com/barun-bash/dialogic/internal/parser"
	"github.com/barun-bash/dialogic/internal/types"
)

// constraint records one observed use of a variable at a given type,
// gathered during the first pass and consumed during solve.
type constraint struct {
	name string
	typ  types.Type
	line int
}

// Checker runs the gather/solve type checking pass over a parsed program
// against a declaration table and an operator/function Library.
type Checker struct {
	decls       *decl.Table
	lib         *library.Registry
	diag        *diag.Diagnostics
	constraints []constraint
	// deferred holds names with no default and no resolved usage
	// constraint, keyed by name to the line of first reference. A later
	// file in the same compile may still supply a declaration for them
	// (spec.md §4.4 "deferred type diagnostics"), so Check does not emit
	// these directly — the caller surfaces whatever remains after every
	// file in the compile has been checked.
	deferred map[string]int
}

// New returns a Checker over decls (already populated by decl.Collect)
// using lib to resolve operator and function signatures.
func New(decls *decl.Table, lib *library.Registry, d *diag.Diagnostics) *Checker {
	return &Checker{decls: decls, lib: lib, diag: d, deferred: make(map[string]int)}
}

// Check runs the gather phase over every node in prog, then solves
// variable types against their gathered constraints and declared
// defaults. It returns the set of variable names left Undefined at
// fixpoint (no default, no usage constraint) — the caller is expected to
// carry these across files in a multi-file compile and only report the
// ones still unresolved once every file has been checked.
func (c *Checker) Check(prog *parser.Program) map[string]int {
	for _, node := range prog.Nodes {
		c.gatherBody(node.Body)
	}
	c.solve()
	return c.deferred
}

// Deferred returns the names (and first-reference lines) left Undefined
// after the most recent Check call.
func (c *Checker) Deferred() map[string]int { return c.deferred }

func (c *Checker) gatherBody(stmts []parser.Statement) {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *parser.LineStatement:
			for _, e := range s.Interpolations {
				c.infer(e)
			}
		case *parser.OptionGroup:
			for _, opt := range s.Options {
				for _, e := range opt.Interpolations {
					c.infer(e)
				}
				if opt.Condition != nil {
					c.expect(opt.Condition, types.TBool, "option condition")
				}
				c.gatherBody(opt.Body)
			}
		case *parser.IfStatement:
			for _, branch := range s.Branches {
				c.expect(branch.Condition, types.TBool, "if condition")
				c.gatherBody(branch.Body)
			}
			c.gatherBody(s.Else)
		case *parser.SetStatement:
			valType := c.infer(s.Value)
			op := s.Op
			if op != "=" {
				// Compound assignment ("+=" etc.) applies its arithmetic
				// operator between the variable's current value and Value.
				op = string(op[0])
				c.observeOperator(op, []types.Type{c.varType(s.Variable, s.Line), valType}, s.Line)
			}
			c.constrain(s.Variable, valType, s.Line)
		case *parser.DeclareStatement:
			// Declarations are typed by decl.Collect from their literal
			// default; nothing further to infer here.
		case *parser.Command:
			for _, e := range s.Args {
				c.infer(e)
			}
		case *parser.CallStatement:
			c.infer(s.Call)
		}
	}
}

// infer computes (and caches, via the returned value) the static type of
// an expression, gathering variable-usage constraints as it descends.
func (c *Checker) infer(e parser.Expr) types.Type {
	switch ex := e.(type) {
	case *parser.NumberLiteral:
		return types.TNumber
	case *parser.StringLiteral:
		return types.TString
	case *parser.BoolLiteral:
		return types.TBool
	case *parser.VariableRef:
		return c.varType(ex.Name, ex.Line)
	case *parser.UnaryExpr:
		operandType := c.infer(ex.Operand)
		op := ex.Op
		if op == "-" {
			op = "neg"
		}
		return c.observeOperator(op, []types.Type{operandType}, ex.Line)
	case *parser.BinaryExpr:
		left := c.infer(ex.Left)
		right := c.infer(ex.Right)
		return c.observeOperator(ex.Op, []types.Type{left, right}, ex.Line)
	case *parser.CallExpr:
		return c.inferCall(ex)
	default:
		return types.Undefined
	}
}

func (c *Checker) inferCall(ex *parser.CallExpr) types.Type {
	argTypes := make([]types.Type, len(ex.Args))
	for i, a := range ex.Args {
		argTypes[i] = c.infer(a)
	}
	fn, ok := c.lib.Lookup(ex.Function)
	if !ok {
		msg := fmt.Sprintf("call to unknown function %q", ex.Function)
		if closest := diag.FindClosest(ex.Function, c.lib.Names(), 0.5); closest != "" {
			msg += fmt.Sprintf(" (did you mean %q?)", closest)
		}
		c.diag.AddError(diag.SingleLine(ex.Line, 0, 0), "E-TYPE-001", msg)
		return types.Undefined
	}
	if len(fn.Sig.Params) != len(argTypes) {
		c.diag.AddError(diag.SingleLine(ex.Line, 0, 0), "E-TYPE-002",
			fmt.Sprintf("%s expects %d argument(s), got %d", ex.Function, len(fn.Sig.Params), len(argTypes)))
		return fn.Sig.Return
	}
	for i, want := range fn.Sig.Params {
		if want.Kind == types.KindAny || !argTypes[i].IsConcrete() {
			continue
		}
		if !want.Equal(argTypes[i]) {
			c.diag.AddError(diag.SingleLine(ex.Line, 0, 0), "E-TYPE-003",
				fmt.Sprintf("%s argument %d: expected %s, got %s", ex.Function, i+1, want, argTypes[i]))
		}
	}
	return fn.Sig.Return
}

// observeOperator resolves op against the Library's overload table. When
// every operand type is concrete and no overload matches, it reports a
// type error (E-TYPE-004); when any operand is not yet concrete, it
// returns Any without checking or recording anything further.
func (c *Checker) observeOperator(op string, argTypes []types.Type, line int) types.Type {
	concrete := true
	for _, t := range argTypes {
		if !t.IsConcrete() {
			concrete = false
		}
	}
	if !concrete {
		// At least one operand is still an unresolved variable reference;
		// defer the operator's verdict to solve() by treating it as Any
		// for now. The variable's own constraint was already recorded by
		// infer's VariableRef case.
		return types.Any
	}
	if fn, ok := c.lib.ResolveOperator(op, argTypes); ok {
		return fn.Sig.Return
	}
	c.diag.AddError(diag.SingleLine(line, 0, 0), "E-TYPE-004",
		fmt.Sprintf("operator %q has no overload for operand types %v", op, argTypes))
	return types.Undefined
}

// expect requires e to resolve to want (used for if/option conditions,
// which must be Bool).
func (c *Checker) expect(e parser.Expr, want types.Type, context string) {
	got := c.infer(e)
	if got.IsConcrete() && !got.Equal(want) {
		c.diag.AddError(diag.SingleLine(e.Pos(), 0, 0), "E-TYPE-005",
			fmt.Sprintf("%s must be %s, got %s", context, want, got))
	}
}

// varType returns a variable's declared type if known, registering a
// gather-phase constraint and an implicit declaration table entry
// otherwise.
func (c *Checker) varType(name string, line int) types.Type {
	d := c.decls.EnsureImplicit(name)
	if d.Type.IsConcrete() {
		return d.Type
	}
	c.constraints = append(c.constraints, constraint{name: name, typ: types.Undefined, line: line})
	if _, seen := c.deferred[name]; !seen {
		c.deferred[name] = line
	}
	return types.Any
}

// constrain records that name was assigned a value of type valType,
// influencing the solved type of implicitly-declared variables.
func (c *Checker) constrain(name string, valType types.Type, line int) {
	if !valType.IsConcrete() {
		return
	}
	d := c.decls.EnsureImplicit(name)
	if d.Type.IsConcrete() && !d.Type.Equal(valType) {
		c.diag.AddError(diag.SingleLine(line, 0, 0), "E-TYPE-006",
			fmt.Sprintf("%s assigned %s, but was already resolved to %s", name, valType, d.Type))
		return
	}
	if !d.Type.IsConcrete() {
		d.Type = valType
		delete(c.deferred, name)
	}
}

// solve defaults every implicit declaration left Undefined: a variable
// with a default value resolves to that default's type; a variable with
// no default and no resolved constraint remains in c.deferred for the
// caller to report once the whole multi-file compile has run (spec.md
// §4.4).
func (c *Checker) solve() {
	for _, d := range c.decls.All() {
		if d.Type.IsConcrete() {
			delete(c.deferred, d.Name)
			continue
		}
		if d.HasDefault {
			d.Type = types.FromValueKind(d.Default.Kind())
			delete(c.deferred, d.Name)
		}
	}
}

// ReportDeferred turns any names still unresolved at the end of a
// multi-file compile into diagnostics. Call this once, after every file
// in the compile has been checked. decls supplies the known declared
// names for "did you mean" suggestions against a likely typo.
func ReportDeferred(d *diag.Diagnostics, deferred map[string]int, decls *decl.Table) {
	var known []string
	for _, entry := range decls.All() {
		if entry.Name != "" && !entry.IsImplicit {
			known = append(known, entry.Name)
		}
	}
	for name, line := range deferred {
		msg := fmt.Sprintf("variable %s is never declared and its type cannot be inferred", name)
		if closest := diag.FindClosest(name, known, 0.5); closest != "" && closest != name {
			msg += fmt.Sprintf(" (did you mean %q?)", closest)
		}
		d.AddError(diag.SingleLine(line, 0, 0), "E-TYPE-007", msg)
	}
}
