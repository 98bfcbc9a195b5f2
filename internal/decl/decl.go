// Package decl implements the declaration pass: walking a parsed dialogue
// tree to build the authoritative variable schema (spec.md §4.3
// "Declaration pass", §3 "Declaration").
package decl

import (
	"fmt"

	"github.com/barun-bash/dialogic/internal/diag"
	"github.com/barun-bash/dialogic/internal/parser"
	"github.com/barun-bash/dialogic/internal/types"
)

// Location records where a declaration came from: an explicit
// "<<declare>>" statement in a specific file/node/line, or "external" for
// declarations supplied by the host rather than any source file.
type Location struct {
	External bool
	File     string
	Node     string
	Line     int
}

func (l Location) String() string {
	if l.External {
		return "<external>"
	}
	return fmt.Sprintf("%s:%s:%d", l.File, l.Node, l.Line)
}

// Declaration is the authoritative record for one variable: its name,
// optional default, optional free-text description, source location, and
// whether it was introduced implicitly by first use rather than an
// explicit "<<declare>>" (spec.md §3).
type Declaration struct {
	Name        string
	Default     types.Value
	HasDefault  bool
	Description string
	Location    Location
	IsImplicit  bool
	Type        types.Type // filled in by the checker; Undefined until then
}

// Table is the declaration table for one compilation: every known
// variable name mapped to its Declaration, in first-seen order.
type Table struct {
	entries map[string]*Declaration
	order   []string
}

// NewTable returns an empty declaration table.
func NewTable() *Table {
	return &Table{entries: make(map[string]*Declaration)}
}

// Get returns the declaration for name, if any.
func (t *Table) Get(name string) (*Declaration, bool) {
	d, ok := t.entries[name]
	return d, ok
}

// All returns every declaration in first-seen order.
func (t *Table) All() []*Declaration {
	out := make([]*Declaration, len(t.order))
	for i, name := range t.order {
		out[i] = t.entries[name]
	}
	return out
}

// Put inserts or replaces the declaration for its name, recording
// insertion order the first time the name is seen.
func (t *Table) Put(d *Declaration) {
	if _, exists := t.entries[d.Name]; !exists {
		t.order = append(t.order, d.Name)
	}
	t.entries[d.Name] = d
}

// EnsureImplicit returns the existing declaration for name, or creates and
// stores a new implicit one with Undefined type if none exists yet. Used
// by the type checker's gather phase when it encounters a variable
// reference with no prior "<<declare>>" (spec.md §4.4).
func (t *Table) EnsureImplicit(name string) *Declaration {
	if d, ok := t.entries[name]; ok {
		return d
	}
	d := &Declaration{Name: name, IsImplicit: true, Type: types.Undefined}
	t.Put(d)
	return d
}

// Collect walks every node in prog, recording one Declaration per
// "<<declare $x = expr>>" statement, and appends a diagnostic when the
// same name is declared twice with incompatible literal types (spec.md
// §4.3). The default's literal type is required — declaring against a
// non-literal expression is a parse-time shape the checker never sees, so
// it is rejected here with a diagnostic rather than silently coerced.
func Collect(prog *parser.Program, file string, d *diag.Diagnostics) *Table {
	table := NewTable()
	for _, node := range prog.Nodes {
		collectBody(table, node.Body, file, node.Title, d)
	}
	return table
}

func collectBody(table *Table, stmts []parser.Statement, file, node string, d *diag.Diagnostics) {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *parser.DeclareStatement:
			collectDeclare(table, s, file, node, d)
		case *parser.IfStatement:
			for _, branch := range s.Branches {
				collectBody(table, branch.Body, file, node, d)
			}
			collectBody(table, s.Else, file, node, d)
		case *parser.OptionGroup:
			for _, opt := range s.Options {
				collectBody(table, opt.Body, file, node, d)
			}
		}
	}
}

func collectDeclare(table *Table, s *parser.DeclareStatement, file, node string, d *diag.Diagnostics) {
	value, typ, ok := literalValue(s.Default)
	if !ok {
		d.AddError(diag.SingleLine(s.Line, 0, 0), "E-DECL-001",
			fmt.Sprintf("declaration of %s must have a literal default value", s.Variable))
		return
	}

	loc := Location{File: file, Node: node, Line: s.Line}
	if existing, found := table.Get(s.Variable); found && !existing.IsImplicit {
		if !existing.Type.Equal(typ) {
			d.AddError(diag.SingleLine(s.Line, 0, 0), "E-DECL-002",
				fmt.Sprintf("%s redeclared with incompatible type (was %s, now %s) at %s",
					s.Variable, existing.Type, typ, existing.Location))
			return
		}
	}

	table.Put(&Declaration{
		Name:        s.Variable,
		Default:     value,
		HasDefault:  true,
		Description: s.Description,
		Location:    loc,
		Type:        typ,
	})
}

// literalValue evaluates a declaration's default expression, which must be
// a bare literal per spec.md §4.3.
func literalValue(e parser.Expr) (types.Value, types.Type, bool) {
	switch lit := e.(type) {
	case *parser.NumberLiteral:
		return types.Number(lit.Value), types.TNumber, true
	case *parser.StringLiteral:
		return types.String(lit.Value), types.TString, true
	case *parser.BoolLiteral:
		return types.Bool(lit.Value), types.TBool, true
	case *parser.UnaryExpr:
		if lit.Op == "-" {
			if num, ok := lit.Operand.(*parser.NumberLiteral); ok {
				return types.Number(-num.Value), types.TNumber, true
			}
		}
		return types.Value{}, types.Undefined, false
	default:
		return types.Value{}, types.Undefined, false
	}
}
