// Package codegen lowers a parsed (and type-checked) dialogue tree into a
// bytecode.Program: one linear instruction stream per node, with labels
// resolved to local instruction indexes (spec.md §4.5 "Code generation").
package codegen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/barun-bash/dialogic/internal/bytecode"
	"github.com/barun-bash/dialogic/internal/decl"
	"github.com/barun-bash/dialogic/internal/parser"
	"github.com/barun-bash/dialogic/internal/stringtable"
	"github.com/barun-bash/dialogic/internal/types"
)

// Generate lowers every node in prog into a bytecode.Program, deriving
// each line/option's stable line ID the same way stringtable.Extract
// does, and seeding the program's initial variable values from
// declarations. file must match the filename stringtable.Extract was
// called with for this same source, since implicit line IDs are
// re-derived here from the identical (file, node, line, text) tuple
// rather than threaded through a shared table.
func Generate(prog *parser.Program, file string, declarations *decl.Table) *bytecode.Program {
	out := bytecode.NewProgram()
	for _, node := range prog.Nodes {
		out.Nodes[node.Title] = generateNode(node, file)
	}
	for _, d := range declarations.All() {
		out.InitialValues[d.Name] = toInitialValue(d)
	}
	return out
}

func toInitialValue(d *decl.Declaration) bytecode.InitialValue {
	if !d.HasDefault {
		return bytecode.InitialValue{Kind: "Number"}
	}
	switch d.Default.Kind() {
	case types.KindString:
		return bytecode.InitialValue{Kind: "String", String: d.Default.AsString()}
	case types.KindBool:
		return bytecode.InitialValue{Kind: "Bool", Bool: d.Default.AsBool()}
	default:
		return bytecode.InitialValue{Kind: "Number", Number: d.Default.AsNumber()}
	}
}

// nodeGen accumulates one node's instruction stream during lowering.
type nodeGen struct {
	node     *bytecode.Node
	file     string
	labels   int             // fresh-label counter for this node
	lineIDs  map[string]bool // every line/option line ID emitted so far, for LineHints
}

func generateNode(node *parser.Node, file string) *bytecode.Node {
	g := &nodeGen{
		node: &bytecode.Node{
			Name:   node.Title,
			Labels: make(map[string]int),
		},
		file:    file,
		lineIDs: make(map[string]bool),
	}
	for _, h := range node.Headers {
		if h.Key == "tags" {
			g.node.Tags = append(g.node.Tags, strings.Fields(h.Value)...)
		}
	}
	if hasRawTextTag(g.node.Tags) {
		g.node.SourceTextStringID = "line:" + node.Title
	}
	g.body(node.Body)
	g.emit(bytecode.OpStop)
	g.node.LineIDs = sortedKeys(g.lineIDs)
	return g.node
}

func hasRawTextTag(tags []string) bool {
	for _, t := range tags {
		if t == "rawText" {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (g *nodeGen) emit(op bytecode.Opcode, operands ...interface{}) int {
	idx := len(g.node.Instructions)
	g.node.Instructions = append(g.node.Instructions, bytecode.Instruction{Op: op, Operands: operands})
	return idx
}

// label allocates a fresh, node-unique label name and records it as
// pointing at the current (next-to-be-emitted) instruction index.
func (g *nodeGen) label(hint string) string {
	name := fmt.Sprintf("%s_%d", hint, g.labels)
	g.labels++
	g.node.Labels[name] = len(g.node.Instructions)
	return name
}

// placeLabel marks an already-allocated label name at the current
// instruction index, used for forward references (jump targets emitted
// before the label's actual position is known).
func (g *nodeGen) placeLabel(name string) {
	g.node.Labels[name] = len(g.node.Instructions)
}

func (g *nodeGen) body(stmts []parser.Statement) {
	for _, stmt := range stmts {
		g.statement(stmt)
	}
}

func (g *nodeGen) statement(stmt parser.Statement) {
	switch s := stmt.(type) {
	case *parser.LineStatement:
		g.line(s.LineID, s.Text, s.Line, s.Interpolations)
	case *parser.OptionGroup:
		g.optionGroup(s)
	case *parser.Command:
		g.command(s)
	case *parser.IfStatement:
		g.ifStatement(s)
	case *parser.SetStatement:
		g.setStatement(s)
	case *parser.JumpStatement:
		g.emit(bytecode.OpRunNode, s.Target)
	case *parser.StopStatement:
		g.emit(bytecode.OpStop)
	case *parser.CallStatement:
		g.expr(s.Call)
		g.emit(bytecode.OpPop)
	case *parser.DeclareStatement:
		// Declarations contribute only to Program.InitialValues; they emit
		// no instructions of their own.
	}
}

func (g *nodeGen) line(lineID, text string, line int, interpolations []parser.Expr) {
	id := g.resolveLineID(lineID, text, line)
	g.lineIDs[id] = true
	for _, e := range interpolations {
		g.expr(e)
	}
	g.emit(bytecode.OpRunLine, id, float64(len(interpolations)))
}

func (g *nodeGen) resolveLineID(lineID, text string, line int) string {
	if lineID != "" {
		return lineID
	}
	return stringtable.GenerateLineID(g.file, g.node.Name, line, text)
}

// optionGroup lowers a "->" block. Each option's condition (if any) is
// evaluated and passed to AddOption alongside the line ID and a label
// naming where that option's body will eventually be placed; a single
// ShowOptions then suspends the VM until the host selects one. On
// resume the VM jumps straight to the selected option's destination
// label — there is no conditional bytecode between options, since the
// condition only determines whether an option is offered, not which
// branch of a JumpIfFalse chain to take (spec.md §4.5 "Shortcut
// options").
func (g *nodeGen) optionGroup(group *parser.OptionGroup) {
	destLabels := make([]string, len(group.Options))
	for i, opt := range group.Options {
		destLabels[i] = fmt.Sprintf("option_body_%d_%d", g.labels, i)
		if opt.Condition != nil {
			g.expr(opt.Condition)
		} else {
			g.emit(bytecode.OpPushBool, true)
		}
		id := g.resolveLineID(opt.LineID, opt.Text, opt.Line)
		g.lineIDs[id] = true
		g.emit(bytecode.OpAddOption, id, destLabels[i])
	}
	g.labels++
	g.emit(bytecode.OpShowOptions)

	endLabel := fmt.Sprintf("option_end_%d", g.labels)
	g.labels++
	for i, opt := range group.Options {
		g.placeLabel(destLabels[i])
		g.body(opt.Body)
		g.emit(bytecode.OpJumpTo, endLabel)
	}
	g.placeLabel(endLabel)
}

func (g *nodeGen) command(c *parser.Command) {
	for _, a := range c.Args {
		g.expr(a)
	}
	g.emit(bytecode.OpRunCommand, c.Name, float64(len(c.Args)))
}

// ifStatement lowers an if/elseif/else chain into a sequence of
// condition-guarded jumps, each branch skipping to a single shared end
// label (spec.md §4.5 "Conditionals").
func (g *nodeGen) ifStatement(s *parser.IfStatement) {
	endLabel := fmt.Sprintf("if_end_%d", g.labels)
	g.labels++
	for _, branch := range s.Branches {
		g.expr(branch.Condition)
		nextLabel := fmt.Sprintf("if_next_%d", g.labels)
		g.labels++
		g.emit(bytecode.OpJumpIfFalse, nextLabel)
		g.body(branch.Body)
		g.emit(bytecode.OpJumpTo, endLabel)
		g.placeLabel(nextLabel)
	}
	g.body(s.Else)
	g.placeLabel(endLabel)
}

func (g *nodeGen) setStatement(s *parser.SetStatement) {
	if s.Op != "=" {
		g.emit(bytecode.OpPushVariable, s.Variable)
		g.expr(s.Value)
		g.emit(bytecode.OpCallFunc, string(s.Op[0]), float64(2))
	} else {
		g.expr(s.Value)
	}
	g.emit(bytecode.OpStoreVariable, s.Variable)
}

// expr lowers an expression in post-order: operands push their values,
// then the operator or function call consumes them (spec.md §4.5
// "Expression lowering").
func (g *nodeGen) expr(e parser.Expr) {
	switch ex := e.(type) {
	case *parser.NumberLiteral:
		g.emit(bytecode.OpPushFloat, ex.Value)
	case *parser.StringLiteral:
		g.emit(bytecode.OpPushString, ex.Value)
	case *parser.BoolLiteral:
		g.emit(bytecode.OpPushBool, ex.Value)
	case *parser.VariableRef:
		g.emit(bytecode.OpPushVariable, ex.Name)
	case *parser.UnaryExpr:
		g.expr(ex.Operand)
		op := ex.Op
		if op == "-" {
			op = "neg"
		}
		g.emit(bytecode.OpCallFunc, op, float64(1))
	case *parser.BinaryExpr:
		g.expr(ex.Left)
		g.expr(ex.Right)
		g.emit(bytecode.OpCallFunc, ex.Op, float64(2))
	case *parser.CallExpr:
		for _, a := range ex.Args {
			g.expr(a)
		}
		g.emit(bytecode.OpCallFunc, ex.Function, float64(len(ex.Args)))
	}
}
