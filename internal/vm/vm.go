// Package vm implements the resumable, single-threaded dialogue virtual
// machine: a cooperative state machine that interprets a bytecode.Program
// one node at a time, suspending at lines, options, and commands and
// resuming only when the host asks it to continue (spec.md §4.5, §5
// "Virtual machine").
package vm

import (
	"fmt"
	"math/rand/v2"

	"github.com/barun-bash/dialogic/internal/bytecode"
	"github.com/barun-bash/dialogic/internal/library"
	"github.com/barun-bash/dialogic/internal/types"
)

// ExecutionState is the VM's coarse-grained run state (spec.md §5
// "Execution state").
type ExecutionState int

const (
	StateStopped ExecutionState = iota
	StateRunning
	StateWaitingOnOptionSelection
	StateWaitingForContinue
	StateDeliveringContent
)

func (s ExecutionState) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StateRunning:
		return "Running"
	case StateWaitingOnOptionSelection:
		return "WaitingOnOptionSelection"
	case StateWaitingForContinue:
		return "WaitingForContinue"
	case StateDeliveringContent:
		return "DeliveringContent"
	default:
		return "?"
	}
}

// EventKind tags a DialogueEvent's payload.
type EventKind int

const (
	EventLine EventKind = iota
	EventOptions
	EventCommand
	EventNodeStart
	EventNodeComplete
	EventDialogueComplete
	EventLineHints
)

// OptionChoice is one entry of an Options event: its resolved line text
// and whether the option's condition evaluated to true. Its position in
// the event's Options slice is the index the host passes back to
// SetSelectedOption (spec.md §4.5
// "Shortcut options" — disabled options are still shown, never offered
// as available).
type OptionChoice struct {
	Text      string
	Enabled   bool
	destLabel string
}

// DialogueEvent is one unit of output the VM hands back to the host from
// a single Continue() call. A single Continue() may return several
// events batched together (e.g. consecutive lines before the next
// suspend point), in the order they occurred.
type DialogueEvent struct {
	Kind        EventKind
	Node        string
	LineID      string
	Text        string // resolved text for EventLine, unused otherwise
	Options     []OptionChoice
	CommandName string
	CommandArgs []types.Value
	LineIDs     []string // every line ID reachable from Node, EventLineHints only
}

// VariableStorage is the host-pluggable backing store for declared
// variables (spec.md §5 "Variable storage").
type VariableStorage interface {
	Get(name string) (types.Value, bool)
	Set(name string, v types.Value)
}

// MemoryStorage is the default in-process VariableStorage.
type MemoryStorage struct {
	values map[string]types.Value
}

// NewMemoryStorage returns an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]types.Value)}
}

func (m *MemoryStorage) Get(name string) (types.Value, bool) {
	v, ok := m.values[name]
	return v, ok
}

func (m *MemoryStorage) Set(name string, v types.Value) { m.values[name] = v }

// LineTextResolver resolves a line ID (plus its interpolated argument
// values, already formatted to strings) to final displayable text — the
// host supplies this so markup/localization stay outside the VM proper
// (spec.md §4.6, GLOSSARY "Line").
type LineTextResolver interface {
	Resolve(lineID string, args []string) string
}

// PlainTextResolver returns the line ID itself, unchanged: the
// interpolated arguments are ignored and no markup processing is done —
// used as the default so a VM is usable before a host wires in
// internal/markup.
type PlainTextResolver struct{}

func (PlainTextResolver) Resolve(lineID string, args []string) string { return lineID }

// CommandHandler lets the host intercept RunCommand instructions (e.g.
// play an animation) rather than always surfacing them as a
// DialogueEvent. Returning handled=false causes the VM to surface the
// command as an EventCommand instead.
type CommandHandler func(name string, args []types.Value) (handled bool)

// VirtualMachine interprets a bytecode.Program, one Continue() call at a
// time. It is not safe for concurrent use — re-entrant calls to Continue
// from within a DialogueEvent callback are a programming error (spec.md
// §5 "Non-re-entrancy").
type VirtualMachine struct {
	Program  *bytecode.Program
	Storage  VariableStorage
	Library  *library.Registry
	Resolver LineTextResolver
	OnCommand CommandHandler

	// SendLineHints, when true, makes Continue emit an EventLineHints
	// event immediately before every EventNodeStart, listing every line
	// ID statically reachable from the node about to run (spec.md §4.6
	// "should_send_line_hints").
	SendLineHints bool

	state        ExecutionState
	currentNode  string
	pc           int
	stack        []types.Value
	pendingOpts  []OptionChoice
	visitCounts  map[string]int
	running      bool // guards re-entrancy
	rng          *rand.Rand
	lastSelected int
}

// New constructs a VirtualMachine over prog. If storage is nil, a fresh
// MemoryStorage is created and seeded from prog.InitialValues. If lib is
// nil, library.NewDefault is used, bound to this VM's visited/random
// state.
func New(prog *bytecode.Program, storage VariableStorage, lib *library.Registry) *VirtualMachine {
	v := &VirtualMachine{
		Program:     prog,
		Resolver:    PlainTextResolver{},
		state:       StateStopped,
		visitCounts: make(map[string]int),
		rng:         rand.New(rand.NewPCG(1, 2)),
	}
	if storage == nil {
		storage = NewMemoryStorage()
		for name, iv := range prog.InitialValues {
			storage.Set(name, initialValueToValue(iv))
		}
	}
	v.Storage = storage
	if lib == nil {
		lib = library.NewDefault(v)
	} else {
		lib.BindVisitStore(v)
	}
	lib.BindRandomSource(v)
	v.Library = lib
	return v
}

func initialValueToValue(iv bytecode.InitialValue) types.Value {
	switch iv.Kind {
	case "String":
		return types.String(iv.String)
	case "Bool":
		return types.Bool(iv.Bool)
	default:
		return types.Number(iv.Number)
	}
}

// Visited implements library.VisitStore.
func (v *VirtualMachine) Visited(node string) bool { return v.visitCounts[node] > 0 }

// VisitCount implements library.VisitStore.
func (v *VirtualMachine) VisitCount(node string) int { return v.visitCounts[node] }

// Float64 implements library.RandomSource.
func (v *VirtualMachine) Float64() float64 { return v.rng.Float64() }

// SetSeed reseeds the VM's random source, for reproducible playthroughs.
func (v *VirtualMachine) SetSeed(seed1, seed2 uint64) { v.rng = rand.New(rand.NewPCG(seed1, seed2)) }

// State returns the VM's current execution state.
func (v *VirtualMachine) State() ExecutionState { return v.state }

// CurrentNode returns the name of the node execution is positioned at, or
// "" if the VM has never been given a start node.
func (v *VirtualMachine) CurrentNode() string { return v.currentNode }

// NodeExists reports whether name is a node in the loaded program.
func (v *VirtualMachine) NodeExists(name string) bool {
	_, ok := v.Program.Nodes[name]
	return ok
}

// TagsForNode returns the tags header contents for name, and whether name
// is a node in the loaded program.
func (v *VirtualMachine) TagsForNode(name string) ([]string, bool) {
	node, ok := v.Program.Nodes[name]
	if !ok {
		return nil, false
	}
	return node.Tags, true
}

// StringIDForNode returns the string table ID of name's node-level source
// text (present only when the node's tags header carries "rawText"), and
// whether name is a node in the loaded program (spec.md §6
// "get_string_id_for_node").
func (v *VirtualMachine) StringIDForNode(name string) (string, bool) {
	node, ok := v.Program.Nodes[name]
	if !ok {
		return "", false
	}
	return node.SourceTextStringID, true
}

// nodeStartEvents returns the LineHints event (if enabled) followed by the
// NodeStart event for a node about to begin execution.
func (v *VirtualMachine) nodeStartEvents(name string) []DialogueEvent {
	if !v.SendLineHints {
		return []DialogueEvent{{Kind: EventNodeStart, Node: name}}
	}
	node := v.Program.Nodes[name]
	return []DialogueEvent{
		{Kind: EventLineHints, Node: name, LineIDs: node.LineIDs},
		{Kind: EventNodeStart, Node: name},
	}
}

// SetStartNode selects the node execution begins at. Must be called
// before the first Continue(). Panics if name is not a node in the
// loaded program — an unknown start node is a programmer error, not a
// recoverable one (spec.md §7 "Runtime panics").
func (v *VirtualMachine) SetStartNode(name string) {
	if _, ok := v.Program.Nodes[name]; !ok {
		panic(fmt.Sprintf("vm: unknown start node %q", name))
	}
	v.currentNode = name
	v.pc = 0
	v.state = StateRunning
}

// Stop halts the VM unconditionally; the next Continue() will return only
// a DialogueComplete event.
func (v *VirtualMachine) Stop() {
	v.state = StateStopped
}

// UnloadAll replaces the loaded program with an empty one and clears the
// execution position (state, current node, program counter, stack and
// pending options) (spec.md §5 "unload_all"). Visit counts, the random
// source and variable storage are kept.
func (v *VirtualMachine) UnloadAll() {
	v.Program = bytecode.NewProgram()
	v.state = StateStopped
	v.currentNode = ""
	v.pc = 0
	v.stack = nil
	v.pendingOpts = nil
}

// SetSelectedOption resumes a VM suspended at WaitingOnOptionSelection,
// jumping to the chosen option's destination label. index must name an
// enabled option. Panics on a bad ID or a call outside
// WaitingOnOptionSelection — these are programmer errors, not recoverable
// ones (spec.md §7 "Runtime panics").
func (v *VirtualMachine) SetSelectedOption(index int) {
	if v.state != StateWaitingOnOptionSelection {
		panic(fmt.Sprintf("vm: SetSelectedOption called outside WaitingOnOptionSelection (state=%s)", v.state))
	}
	if index < 0 || index >= len(v.pendingOpts) {
		panic(fmt.Sprintf("vm: option index %d out of range (0..%d)", index, len(v.pendingOpts)-1))
	}
	if !v.pendingOpts[index].Enabled {
		panic(fmt.Sprintf("vm: option index %d is disabled", index))
	}
	node := v.Program.Nodes[v.currentNode]
	dest, ok := node.Labels[v.pendingOpts[index].destLabel]
	if !ok {
		panic(fmt.Sprintf("vm: unresolved destination label %q", v.pendingOpts[index].destLabel))
	}
	v.pc = dest
	v.pendingOpts = nil
	v.state = StateRunning
}

// Continue runs the VM from its current suspend point until it reaches
// the next suspend point (a line, an unhandled command, or options) or
// the program naturally stops, returning every event produced along the
// way. Continue is not re-entrant: calling it from inside the event
// handling of a prior Continue is a programming error and panics.
func (v *VirtualMachine) Continue() []DialogueEvent {
	if v.running {
		panic("vm: Continue called re-entrantly")
	}
	v.running = true
	defer func() { v.running = false }()

	var events []DialogueEvent
	if v.state == StateStopped {
		return append(events, DialogueEvent{Kind: EventDialogueComplete})
	}

	if v.pc == 0 {
		events = append(events, v.nodeStartEvents(v.currentNode)...)
	}

	for {
		node := v.Program.Nodes[v.currentNode]
		if v.pc >= len(node.Instructions) {
			v.visitCounts[v.currentNode]++
			events = append(events, DialogueEvent{Kind: EventNodeComplete, Node: v.currentNode})
			v.state = StateStopped
			events = append(events, DialogueEvent{Kind: EventDialogueComplete})
			return events
		}
		ins := node.Instructions[v.pc]
		v.pc++

		switch ins.Op {
		case bytecode.OpPushFloat:
			v.push(types.Number(ins.Operands[0].(float64)))
		case bytecode.OpPushString:
			v.push(types.String(ins.Operands[0].(string)))
		case bytecode.OpPushBool:
			v.push(types.Bool(ins.Operands[0].(bool)))
		case bytecode.OpPushNull:
			v.push(types.Bool(false))
		case bytecode.OpPop:
			v.pop()
		case bytecode.OpPushVariable:
			name := ins.Operands[0].(string)
			val, ok := v.Storage.Get(name)
			if !ok {
				val = types.Number(0)
			}
			v.push(val)
		case bytecode.OpStoreVariable:
			name := ins.Operands[0].(string)
			v.Storage.Set(name, v.pop())
		case bytecode.OpCallFunc:
			v.callFunc(ins.Operands[0].(string), int(ins.Operands[1].(float64)))
		case bytecode.OpJumpIfFalse:
			cond := v.pop()
			if !cond.AsBool() {
				v.pc = node.Labels[ins.Operands[0].(string)]
			}
		case bytecode.OpJumpTo:
			v.pc = node.Labels[ins.Operands[0].(string)]
		case bytecode.OpJump, bytecode.OpRunNode:
			target := ins.Operands[0].(string)
			v.visitCounts[v.currentNode]++
			if _, ok := v.Program.Nodes[target]; !ok {
				events = append(events, DialogueEvent{Kind: EventDialogueComplete})
				v.state = StateStopped
				return events
			}
			v.currentNode = target
			v.pc = 0
			events = append(events, v.nodeStartEvents(target)...)
		case bytecode.OpRunLine:
			lineID := ins.Operands[0].(string)
			n := int(ins.Operands[1].(float64))
			args := v.popArgs(n)
			text := v.Resolver.Resolve(lineID, args)
			events = append(events, DialogueEvent{Kind: EventLine, Node: v.currentNode, LineID: lineID, Text: text})
			v.state = StateWaitingForContinue
			return events
		case bytecode.OpAddOption:
			enabled := v.pop().AsBool()
			lineID := ins.Operands[0].(string)
			destLabel := ins.Operands[1].(string)
			text := v.Resolver.Resolve(lineID, nil)
			v.pendingOpts = append(v.pendingOpts, OptionChoice{Text: text, Enabled: enabled, destLabel: destLabel})
		case bytecode.OpShowOptions:
			events = append(events, DialogueEvent{Kind: EventOptions, Node: v.currentNode, Options: v.pendingOpts})
			v.state = StateWaitingOnOptionSelection
			return events
		case bytecode.OpRunCommand:
			name := ins.Operands[0].(string)
			n := int(ins.Operands[1].(float64))
			argVals := v.popVals(n)
			if v.OnCommand != nil && v.OnCommand(name, argVals) {
				continue
			}
			events = append(events, DialogueEvent{Kind: EventCommand, Node: v.currentNode, CommandName: name, CommandArgs: argVals})
			v.state = StateWaitingForContinue
			return events
		case bytecode.OpStop:
			v.visitCounts[v.currentNode]++
			events = append(events, DialogueEvent{Kind: EventNodeComplete, Node: v.currentNode})
			events = append(events, DialogueEvent{Kind: EventDialogueComplete})
			v.state = StateStopped
			return events
		}
	}
}

func (v *VirtualMachine) push(val types.Value) { v.stack = append(v.stack, val) }

func (v *VirtualMachine) pop() types.Value {
	n := len(v.stack)
	val := v.stack[n-1]
	v.stack = v.stack[:n-1]
	return val
}

func (v *VirtualMachine) popVals(n int) []types.Value {
	out := make([]types.Value, n)
	for i := n - 1; i >= 0; i-- {
		out[i] = v.pop()
	}
	return out
}

func (v *VirtualMachine) popArgs(n int) []string {
	vals := v.popVals(n)
	out := make([]string, n)
	for i, val := range vals {
		out[i] = val.AsString()
	}
	return out
}

// callFunc dispatches CallFunc: single-character operator names first
// (compound assignment and all binary/unary operators lowered by
// internal/codegen), falling back to a named Library function call
// (spec.md §4.5 "CallFunc").
func (v *VirtualMachine) callFunc(name string, argc int) {
	argTypes := make([]types.Type, argc)
	args := v.popVals(argc)
	for i, a := range args {
		argTypes[i] = types.FromValueKind(a.Kind())
	}
	if isOperatorName(name) {
		result, err := v.Library.CallOperator(name, args, argTypes)
		if err != nil {
			v.push(types.Bool(false))
			return
		}
		v.push(result)
		return
	}
	result, err := v.Library.Call(name, args)
	if err != nil {
		v.push(types.Bool(false))
		return
	}
	v.push(result)
}

func isOperatorName(name string) bool {
	switch name {
	case "+", "-", "*", "/", "%", "<", "<=", ">", ">=", "==", "!=", "and", "or", "xor", "neg", "not":
		return true
	default:
		return false
	}
}
