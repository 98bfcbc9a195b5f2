package host

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/barun-bash/dialogic/internal/bytecode"
	"github.com/barun-bash/dialogic/internal/compiler"
	"github.com/barun-bash/dialogic/internal/diag"
	"github.com/barun-bash/dialogic/internal/library"
	"github.com/barun-bash/dialogic/internal/markup"
	"github.com/barun-bash/dialogic/internal/stringtable"
	"github.com/barun-bash/dialogic/internal/vm"
)

// session holds one compiled project, addressable by the session_id a
// dialogic_compile call returns.
type session struct {
	program *bytecode.Program
	strings *stringtable.Table
}

// runningVM holds one live VM, addressable by the vm_id a dialogic_start
// call returns, plus the resolver feeding its line text.
type runningVM struct {
	machine  *vm.VirtualMachine
	resolver *markupResolver
}

// markupResolver adapts internal/markup onto vm.LineTextResolver: it
// resolves [plural]/[select]/[ordinal] tags against the VM's own
// variable storage before stripping markup down to plain text.
type markupResolver struct {
	locale  markup.Resolver
	storage vm.VariableStorage
}

func (r *markupResolver) Resolve(lineID string, args []string) string {
	nodes := markup.Parse(lineID)
	return r.locale.Render(nodes, func(name string) string {
		if v, ok := r.storage.Get(name); ok {
			return v.AsString()
		}
		return ""
	})
}

// registry tracks every compiled session and running VM for the
// lifetime of one host process.
type registry struct {
	mu       sync.Mutex
	sessions map[string]*session
	vms      map[string]*runningVM
	nextID   int
}

func newRegistry() *registry {
	return &registry{
		sessions: make(map[string]*session),
		vms:      make(map[string]*runningVM),
	}
}

func (r *registry) allocID(prefix string) string {
	r.nextID++
	return fmt.Sprintf("%s-%d", prefix, r.nextID)
}

type fileParam struct {
	Path string `json:"path"`
	Text string `json:"text"`
}

type compileParams struct {
	Files []fileParam `json:"files"`
}

type diagnosticJSON struct {
	Severity string `json:"severity"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	File     string `json:"file"`
	Line     int    `json:"line"`
	Character int   `json:"character"`
}

func (s *Server) handleCompile(args json.RawMessage) *CallToolResult {
	var p compileParams
	if err := json.Unmarshal(args, &p); err != nil {
		return toolError("invalid arguments: " + err.Error())
	}
	if len(p.Files) == 0 {
		return toolError("at least one file is required")
	}

	var sources []compiler.Source
	for _, f := range p.Files {
		sources = append(sources, compiler.Source{File: f.Path, Text: f.Text})
	}

	result, err := compiler.CompileProject(sources, library.NewDefault(nil), nil)
	if err != nil {
		if cerr, ok := err.(*compiler.Error); ok {
			return toolResult(map[string]any{
				"success":     false,
				"diagnostics": diagnosticsToJSON(cerr.Diagnostics),
			})
		}
		return toolError(err.Error())
	}

	s.registry.mu.Lock()
	id := s.registry.allocID("session")
	s.registry.sessions[id] = &session{program: result.Program, strings: result.Strings}
	s.registry.mu.Unlock()

	return toolResult(map[string]any{
		"success":     true,
		"session_id":  id,
		"nodes":       result.Program.NodeNames(),
		"diagnostics": diagnosticsToJSON(result.Diagnostics),
	})
}

func diagnosticsToJSON(d *diag.Diagnostics) []diagnosticJSON {
	var out []diagnosticJSON
	if d == nil {
		return out
	}
	for _, e := range d.Errors() {
		out = append(out, diagnosticJSON{Severity: "error", Code: e.Code, Message: e.Message, File: e.File, Line: e.Range.Start.Line, Character: e.Range.Start.Character})
	}
	for _, w := range d.Warnings() {
		out = append(out, diagnosticJSON{Severity: "warning", Code: w.Code, Message: w.Message, File: w.File, Line: w.Range.Start.Line, Character: w.Range.Start.Character})
	}
	return out
}

type startParams struct {
	SessionID string `json:"session_id"`
	StartNode string `json:"start_node"`
	Locale    string `json:"locale"`
}

func (s *Server) handleStart(args json.RawMessage) *CallToolResult {
	var p startParams
	if err := json.Unmarshal(args, &p); err != nil {
		return toolError("invalid arguments: " + err.Error())
	}

	s.registry.mu.Lock()
	sess, ok := s.registry.sessions[p.SessionID]
	s.registry.mu.Unlock()
	if !ok {
		return toolError(fmt.Sprintf("unknown session_id %q", p.SessionID))
	}

	startNode := p.StartNode
	if startNode == "" {
		startNode = "Start"
	}
	locale := p.Locale
	if locale == "" {
		locale = "en-US"
	}

	storage := vm.NewMemoryStorage()
	machine := vm.New(sess.program, storage, library.NewDefault(nil))
	resolver := &markupResolver{locale: markup.NewResolver(locale), storage: storage}
	machine.Resolver = resolver

	machine.SetStartNode(startNode)

	s.registry.mu.Lock()
	id := s.registry.allocID("vm")
	s.registry.vms[id] = &runningVM{machine: machine, resolver: resolver}
	s.registry.mu.Unlock()

	events := machine.Continue()
	return toolResult(map[string]any{
		"vm_id":  id,
		"state":  machine.State().String(),
		"events": eventsToJSON(events),
	})
}

func eventsToJSON(events []vm.DialogueEvent) []map[string]any {
	out := make([]map[string]any, 0, len(events))
	for _, e := range events {
		entry := map[string]any{
			"kind": eventKindName(e.Kind),
			"node": e.Node,
		}
		switch e.Kind {
		case vm.EventLineHints:
			entry["line_ids"] = e.LineIDs
		case vm.EventLine:
			entry["line_id"] = e.LineID
			entry["text"] = e.Text
		case vm.EventOptions:
			var opts []map[string]any
			for i, o := range e.Options {
				opts = append(opts, map[string]any{"index": i, "text": o.Text, "enabled": o.Enabled})
			}
			entry["options"] = opts
		case vm.EventCommand:
			entry["command"] = e.CommandName
			var argStrs []string
			for _, a := range e.CommandArgs {
				argStrs = append(argStrs, a.AsString())
			}
			entry["args"] = argStrs
		}
		out = append(out, entry)
	}
	return out
}

func eventKindName(k vm.EventKind) string {
	switch k {
	case vm.EventLineHints:
		return "line_hints"
	case vm.EventLine:
		return "line"
	case vm.EventOptions:
		return "options"
	case vm.EventCommand:
		return "command"
	case vm.EventNodeStart:
		return "node_start"
	case vm.EventNodeComplete:
		return "node_complete"
	case vm.EventDialogueComplete:
		return "dialogue_complete"
	default:
		return "unknown"
	}
}

type vmParams struct {
	VMID string `json:"vm_id"`
}

func (s *Server) lookupVM(vmID string) (*runningVM, error) {
	s.registry.mu.Lock()
	defer s.registry.mu.Unlock()
	rv, ok := s.registry.vms[vmID]
	if !ok {
		return nil, fmt.Errorf("unknown vm_id %q", vmID)
	}
	return rv, nil
}

func (s *Server) handleContinue(args json.RawMessage) *CallToolResult {
	var p vmParams
	if err := json.Unmarshal(args, &p); err != nil {
		return toolError("invalid arguments: " + err.Error())
	}
	rv, err := s.lookupVM(p.VMID)
	if err != nil {
		return toolError(err.Error())
	}

	events := rv.machine.Continue()
	return toolResult(map[string]any{
		"state":  rv.machine.State().String(),
		"events": eventsToJSON(events),
	})
}

type selectOptionParams struct {
	VMID  string `json:"vm_id"`
	Index int    `json:"index"`
}

func (s *Server) handleSelectOption(args json.RawMessage) *CallToolResult {
	var p selectOptionParams
	if err := json.Unmarshal(args, &p); err != nil {
		return toolError("invalid arguments: " + err.Error())
	}
	rv, err := s.lookupVM(p.VMID)
	if err != nil {
		return toolError(err.Error())
	}
	rv.machine.SetSelectedOption(p.Index)
	events := rv.machine.Continue()
	return toolResult(map[string]any{
		"state":  rv.machine.State().String(),
		"events": eventsToJSON(events),
	})
}

func (s *Server) handleVMState(args json.RawMessage) *CallToolResult {
	var p vmParams
	if err := json.Unmarshal(args, &p); err != nil {
		return toolError("invalid arguments: " + err.Error())
	}
	rv, err := s.lookupVM(p.VMID)
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(map[string]any{
		"state": rv.machine.State().String(),
		"node":  rv.machine.CurrentNode(),
	})
}

func (s *Server) handleStop(args json.RawMessage) *CallToolResult {
	var p vmParams
	if err := json.Unmarshal(args, &p); err != nil {
		return toolError("invalid arguments: " + err.Error())
	}
	rv, err := s.lookupVM(p.VMID)
	if err != nil {
		return toolError(err.Error())
	}
	rv.machine.Stop()
	return toolResult(map[string]any{"state": rv.machine.State().String()})
}

type nodeParams struct {
	VMID string `json:"vm_id"`
	Node string `json:"node"`
}

func (s *Server) handleNodeExists(args json.RawMessage) *CallToolResult {
	var p nodeParams
	if err := json.Unmarshal(args, &p); err != nil {
		return toolError("invalid arguments: " + err.Error())
	}
	rv, err := s.lookupVM(p.VMID)
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(map[string]any{"exists": rv.machine.NodeExists(p.Node)})
}

func (s *Server) handleCurrentNode(args json.RawMessage) *CallToolResult {
	var p vmParams
	if err := json.Unmarshal(args, &p); err != nil {
		return toolError("invalid arguments: " + err.Error())
	}
	rv, err := s.lookupVM(p.VMID)
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(map[string]any{"node": rv.machine.CurrentNode()})
}

func (s *Server) handleGetTagsForNode(args json.RawMessage) *CallToolResult {
	var p nodeParams
	if err := json.Unmarshal(args, &p); err != nil {
		return toolError("invalid arguments: " + err.Error())
	}
	rv, err := s.lookupVM(p.VMID)
	if err != nil {
		return toolError(err.Error())
	}
	tags, ok := rv.machine.TagsForNode(p.Node)
	if !ok {
		return toolError(fmt.Sprintf("unknown node %q", p.Node))
	}
	return toolResult(map[string]any{"tags": tags})
}

func (s *Server) handleGetStringIDForNode(args json.RawMessage) *CallToolResult {
	var p nodeParams
	if err := json.Unmarshal(args, &p); err != nil {
		return toolError("invalid arguments: " + err.Error())
	}
	rv, err := s.lookupVM(p.VMID)
	if err != nil {
		return toolError(err.Error())
	}
	id, ok := rv.machine.StringIDForNode(p.Node)
	if !ok {
		return toolError(fmt.Sprintf("unknown node %q", p.Node))
	}
	return toolResult(map[string]any{"string_id": id})
}

func (s *Server) handleUnloadAll(args json.RawMessage) *CallToolResult {
	var p vmParams
	if err := json.Unmarshal(args, &p); err != nil {
		return toolError("invalid arguments: " + err.Error())
	}
	rv, err := s.lookupVM(p.VMID)
	if err != nil {
		return toolError(err.Error())
	}
	rv.machine.UnloadAll()
	return toolResult(map[string]any{"state": rv.machine.State().String()})
}

type sessionParams struct {
	SessionID string `json:"session_id"`
}

func (s *Server) handleStrings(args json.RawMessage) *CallToolResult {
	var p sessionParams
	if err := json.Unmarshal(args, &p); err != nil {
		return toolError("invalid arguments: " + err.Error())
	}
	s.registry.mu.Lock()
	sess, ok := s.registry.sessions[p.SessionID]
	s.registry.mu.Unlock()
	if !ok {
		return toolError(fmt.Sprintf("unknown session_id %q", p.SessionID))
	}

	var rows []map[string]any
	for _, e := range sess.strings.All() {
		rows = append(rows, map[string]any{
			"id":       e.ID,
			"text":     e.Text,
			"file":     e.File,
			"node":     e.Node,
			"line":     e.Line,
			"implicit": e.Implicit,
		})
	}
	return toolResult(map[string]any{"strings": rows})
}

func toolResult(payload any) *CallToolResult {
	data, err := json.Marshal(payload)
	if err != nil {
		return toolError("marshaling result: " + err.Error())
	}
	return &CallToolResult{Content: []ContentItem{{Type: "text", Text: string(data)}}}
}

func toolError(message string) *CallToolResult {
	return &CallToolResult{
		Content: []ContentItem{{Type: "text", Text: message}},
		IsError: true,
	}
}
