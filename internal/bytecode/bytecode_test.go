package bytecode

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestJSONRoundTrip(t *testing.T) {
	p := NewProgram()
	p.Nodes["Start"] = &Node{
		Name: "Start",
		Instructions: []Instruction{
			{Op: OpPushString, Operands: []interface{}{"line:abc"}},
			{Op: OpRunLine, Operands: []interface{}{"line:abc", float64(0)}},
			{Op: OpStop},
		},
		Labels: map[string]int{"top": 0},
	}
	p.InitialValues["$gold"] = InitialValue{Kind: "Number", Number: 10}

	data, err := ToJSON(p)
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	back, err := FromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	node, ok := back.Nodes["Start"]
	if !ok {
		t.Fatal("expected Start node to round-trip")
	}
	if len(node.Instructions) != 3 {
		t.Fatalf("expected 3 instructions, got %d", len(node.Instructions))
	}
	if node.Instructions[2].Op != OpStop {
		t.Errorf("expected last instruction to be Stop, got %v", node.Instructions[2].Op)
	}
	if back.InitialValues["$gold"].Number != 10 {
		t.Errorf("expected $gold initial value 10, got %v", back.InitialValues["$gold"])
	}
}

func TestNodeRoundTripPreservesLineIDsAndSourceTextStringID(t *testing.T) {
	want := &Node{
		Name: "Start",
		Instructions: []Instruction{
			{Op: OpRunLine, Operands: []interface{}{"line:abc", float64(0)}},
			{Op: OpStop},
		},
		Labels:             map[string]int{"top": 0},
		Tags:               []string{"rawText"},
		LineIDs:            []string{"line:abc"},
		SourceTextStringID: "line:Start",
	}
	p := NewProgram()
	p.Nodes["Start"] = want

	data, err := ToJSON(p)
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	back, err := FromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if diff := cmp.Diff(want, back.Nodes["Start"]); diff != "" {
		t.Errorf("Node round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeDetectsDuplicateNodeNames(t *testing.T) {
	a := NewProgram()
	a.Nodes["Start"] = &Node{Name: "Start"}
	b := NewProgram()
	b.Nodes["Start"] = &Node{Name: "Start"}

	err := a.Merge(b)
	if err == nil {
		t.Fatal("expected a MergeError for duplicate node Start")
	}
	var mergeErr *MergeError
	if !asMergeError(err, &mergeErr) || mergeErr.NodeName != "Start" {
		t.Fatalf("expected MergeError naming Start, got %v", err)
	}
	// A failed merge must not mutate the receiver.
	if len(a.Nodes) != 1 {
		t.Errorf("expected a.Nodes unchanged after failed merge, got %d entries", len(a.Nodes))
	}
}

func asMergeError(err error, target **MergeError) bool {
	me, ok := err.(*MergeError)
	if ok {
		*target = me
	}
	return ok
}

func TestMergeCombinesDisjointNodes(t *testing.T) {
	a := NewProgram()
	a.Nodes["Start"] = &Node{Name: "Start"}
	b := NewProgram()
	b.Nodes["End"] = &Node{Name: "End"}

	if err := a.Merge(b); err != nil {
		t.Fatalf("unexpected merge error: %v", err)
	}
	if len(a.Nodes) != 2 {
		t.Fatalf("expected 2 nodes after merge, got %d", len(a.Nodes))
	}
}

func TestOpcodeJSONUsesMnemonicName(t *testing.T) {
	data, err := ToJSON(&Program{Nodes: map[string]*Node{
		"Start": {Name: "Start", Instructions: []Instruction{{Op: OpStop}}},
	}})
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	if !contains(string(data), `"Stop"`) {
		t.Errorf("expected opcode serialized as mnemonic \"Stop\", got %s", data)
	}
}

func contains(s, substr string) bool {
	return len(s) >= len(substr) && (func() bool {
		for i := 0; i+len(substr) <= len(s); i++ {
			if s[i:i+len(substr)] == substr {
				return true
			}
		}
		return false
	})()
}
