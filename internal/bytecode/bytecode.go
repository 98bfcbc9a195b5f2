// Package bytecode defines the compiled wire format: a flat, serializable
// Program of per-node linear instruction streams that the virtual machine
// interprets directly, with no further tree-walking (spec.md §4.5, §6
// "Compiled program (wire format)").
package bytecode

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Opcode is one instruction in a node's instruction stream (spec.md §4.5
// "Opcode set").
type Opcode int

const (
	OpJumpTo         Opcode = iota // jump to a label within the current node
	OpJump                         // jump to a node by name, ending the current one
	OpRunNode                      // same as OpJump; used for "<<jump X>>"
	OpRunLine                      // emit a Line event: operand 0 is the line ID, operand 1 the interpolation count
	OpRunCommand                   // emit a Command event: operand 0 is the command name, operand 1 the arg count
	OpAddOption                    // pop a Bool (enabled?) and push one option: operand 0 line ID, operand 1 destination label
	OpShowOptions                  // flush the pending option buffer as an Options event and suspend until a selection resumes at the chosen destination label
	OpPushString
	OpPushFloat
	OpPushBool
	OpPushNull
	OpJumpIfFalse // pop a Bool and jump to a label if false
	OpPop
	OpCallFunc     // operand 0 is the function name, operand 1 the arg count
	OpPushVariable // operand 0 is the variable name
	OpStoreVariable
	OpStop
)

var opcodeNames = map[Opcode]string{
	OpJumpTo:        "JumpTo",
	OpJump:          "Jump",
	OpRunNode:       "RunNode",
	OpRunLine:       "RunLine",
	OpRunCommand:    "RunCommand",
	OpAddOption:     "AddOption",
	OpShowOptions:   "ShowOptions",
	OpPushString:    "PushString",
	OpPushFloat:     "PushFloat",
	OpPushBool:      "PushBool",
	OpPushNull:      "PushNull",
	OpJumpIfFalse:   "JumpIfFalse",
	OpPop:           "Pop",
	OpCallFunc:      "CallFunc",
	OpPushVariable:  "PushVariable",
	OpStoreVariable: "StoreVariable",
	OpStop:          "Stop",
}

func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("Opcode(%d)", int(op))
}

// MarshalJSON renders an Opcode as its mnemonic name rather than a bare
// integer, keeping the wire format stable across reorderings of the
// Opcode enum.
func (op Opcode) MarshalJSON() ([]byte, error) {
	return json.Marshal(op.String())
}

// UnmarshalJSON parses an Opcode from its mnemonic name.
func (op *Opcode) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for code, n := range opcodeNames {
		if n == name {
			*op = code
			return nil
		}
	}
	return fmt.Errorf("bytecode: unknown opcode %q", name)
}

// Instruction is one opcode plus its operands. Operands are stored as
// interface{} so a single stream can carry strings (labels, names, line
// IDs), float64s (literal numbers, argument counts) and bools (literal
// booleans) without a per-opcode struct variant.
type Instruction struct {
	Op       Opcode        `json:"op"`
	Operands []interface{} `json:"operands,omitempty"`
}

// Node is one compiled dialogue node: its lowered instruction stream, a
// label-to-instruction-index table local to the node, free-form tags
// copied from its headers, the line IDs it can statically deliver (for
// LineHints emission), and the string table ID of its node-level source
// text, if any (present only when the node's tags header carries
// "rawText").
type Node struct {
	Name               string         `json:"name"`
	Instructions       []Instruction  `json:"instructions"`
	Labels             map[string]int `json:"labels,omitempty"`
	Tags               []string       `json:"tags,omitempty"`
	LineIDs            []string       `json:"line_ids,omitempty"`
	SourceTextStringID string         `json:"source_text_string_id,omitempty"`
}

// Program is the compiled wire format: every node, plus the declaration
// defaults a fresh VariableStorage should seed itself with (spec.md §6
// "Compiled program").
type Program struct {
	Nodes         map[string]*Node        `json:"nodes"`
	InitialValues map[string]InitialValue `json:"initial_values,omitempty"`
}

// InitialValue is a declaration's default, flattened to the wire format —
// exactly one of the three fields is meaningful, selected by Kind.
type InitialValue struct {
	Kind   string  `json:"kind"` // "Number", "String", or "Bool"
	Number float64 `json:"number,omitempty"`
	String string  `json:"string,omitempty"`
	Bool   bool    `json:"bool,omitempty"`
}

// NewProgram returns an empty Program ready to accept nodes.
func NewProgram() *Program {
	return &Program{Nodes: make(map[string]*Node), InitialValues: make(map[string]InitialValue)}
}

// ToJSON serializes a Program to formatted JSON.
func ToJSON(p *Program) ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

// FromJSON deserializes a Program from JSON.
func FromJSON(data []byte) (*Program, error) {
	p := &Program{}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("bytecode: invalid JSON: %w", err)
	}
	return p, nil
}

// MergeError reports a naming collision discovered while combining two
// compiled programs (spec.md Open Question, resolved: duplicate node
// names across combined programs are a compile Error, not a silent
// override).
type MergeError struct {
	NodeName string
}

func (e *MergeError) Error() string {
	return fmt.Sprintf("bytecode: duplicate node %q across combined programs", e.NodeName)
}

// Merge combines other into p, returning a *MergeError (without
// modifying p) if any node name appears in both. Declaration defaults
// are unioned; a name present in both must already agree, since the
// checker errors out on incompatible redeclaration before codegen runs.
func (p *Program) Merge(other *Program) error {
	for name := range other.Nodes {
		if _, exists := p.Nodes[name]; exists {
			return &MergeError{NodeName: name}
		}
	}
	for name, node := range other.Nodes {
		p.Nodes[name] = node
	}
	for name, iv := range other.InitialValues {
		p.InitialValues[name] = iv
	}
	return nil
}

// NodeNames returns every node name in the program, sorted, primarily for
// deterministic test output and CLI listing.
func (p *Program) NodeNames() []string {
	names := make([]string, 0, len(p.Nodes))
	for name := range p.Nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
