package vm

import (
	"testing"

	"github.com/barun-bash/dialogic/internal/bytecode"
	"github.com/barun-bash/dialogic/internal/codegen"
	"github.com/barun-bash/dialogic/internal/decl"
	"github.com/barun-bash/dialogic/internal/diag"
	"github.com/barun-bash/dialogic/internal/parser"
)

func compile(t *testing.T, src string) *VirtualMachine {
	t.Helper()
	prog, d := parser.Parse(src, "t.dlg")
	if d.HasErrors() {
		t.Fatalf("unexpected parse errors: %s", d.Format())
	}
	declarations := decl.Collect(prog, "t.dlg", diag.New("t.dlg"))
	bp := codegen.Generate(prog, "t.dlg", declarations)
	machine := New(bp, nil, nil)
	machine.SetStartNode("Start")
	return machine
}

func TestRunSimpleLineThenComplete(t *testing.T) {
	m := compile(t, "title: Start\n---\nHello there.\n===\n")
	events := m.Continue()
	if len(events) < 2 {
		t.Fatalf("expected at least NodeStart+Line events, got %d", len(events))
	}
	if events[0].Kind != EventNodeStart {
		t.Errorf("expected first event NodeStart, got %v", events[0].Kind)
	}
	last := events[len(events)-1]
	if last.Kind != EventLine {
		t.Fatalf("expected last event to be a Line (VM suspends at each line), got %v", last.Kind)
	}
	if m.State() != StateWaitingForContinue {
		t.Errorf("expected WaitingForContinue, got %v", m.State())
	}

	events = m.Continue()
	foundComplete := false
	for _, e := range events {
		if e.Kind == EventDialogueComplete {
			foundComplete = true
		}
	}
	if !foundComplete {
		t.Fatal("expected DialogueComplete after the only line runs out")
	}
	if m.State() != StateStopped {
		t.Errorf("expected Stopped, got %v", m.State())
	}
}

func TestOptionsSuspendAndResumeAtChosenBody(t *testing.T) {
	src := "title: Start\n---\n-> Go north\n    Arctic.\n-> Go south\n    Desert.\n===\n"
	m := compile(t, src)
	events := m.Continue()
	var opts []OptionChoice
	for _, e := range events {
		if e.Kind == EventOptions {
			opts = e.Options
		}
	}
	if len(opts) != 2 {
		t.Fatalf("expected 2 options, got %d", len(opts))
	}
	if m.State() != StateWaitingOnOptionSelection {
		t.Fatalf("expected WaitingOnOptionSelection, got %v", m.State())
	}

	m.SetSelectedOption(1)
	events = m.Continue()
	var sawDesert bool
	for _, e := range events {
		if e.Kind == EventLine && e.LineID != "" {
			sawDesert = true
		}
	}
	if !sawDesert {
		t.Error("expected the chosen option's body to run")
	}
}

func TestSetAndArithmetic(t *testing.T) {
	src := "title: Start\n---\n<<declare $gold = 0>>\n<<set $gold = $gold + 10>>\n<<if $gold == 10>>\nRich.\n<<endif>>\n===\n"
	m := compile(t, src)
	events := m.Continue()
	var sawLine bool
	for _, e := range events {
		if e.Kind == EventLine {
			sawLine = true
		}
	}
	if !sawLine {
		t.Fatal("expected the if-branch line to run once $gold resolves to 10")
	}
}

func TestJumpToAnotherNode(t *testing.T) {
	src := "title: Start\n---\n<<jump Elsewhere>>\n===\ntitle: Elsewhere\n---\nYou arrive.\n===\n"
	m := compile(t, src)
	events := m.Continue()
	var sawElsewhereStart bool
	for _, e := range events {
		if e.Kind == EventNodeStart && e.Node == "Elsewhere" {
			sawElsewhereStart = true
		}
	}
	if !sawElsewhereStart {
		t.Fatal("expected a jump into Elsewhere")
	}
}

func TestReentrantContinuePanics(t *testing.T) {
	m := compile(t, "title: Start\n---\nHello.\n===\n")
	defer func() {
		if recover() == nil {
			t.Fatal("expected Continue to panic when called re-entrantly")
		}
	}()
	m.running = true
	m.Continue()
}

func TestSetStartNodeUnknownNamePanics(t *testing.T) {
	m := New(bytecode.NewProgram(), nil, nil)
	defer func() {
		if recover() == nil {
			t.Fatal("expected SetStartNode to panic on an unknown node name")
		}
	}()
	m.SetStartNode("Missing")
}

func TestSetSelectedOptionOutOfStatePanics(t *testing.T) {
	m := compile(t, "title: Start\n---\nHello.\n===\n")
	defer func() {
		if recover() == nil {
			t.Fatal("expected SetSelectedOption to panic outside WaitingOnOptionSelection")
		}
	}()
	m.SetSelectedOption(0)
}

func TestSetSelectedOptionBadIndexPanics(t *testing.T) {
	src := "title: Start\n---\n-> Go north\n    Arctic.\n-> Go south\n    Desert.\n===\n"
	m := compile(t, src)
	m.Continue()
	defer func() {
		if recover() == nil {
			t.Fatal("expected SetSelectedOption to panic on an out-of-range index")
		}
	}()
	m.SetSelectedOption(7)
}

func TestLineHintsPrecedeNodeStartAndCoverReachableLines(t *testing.T) {
	src := "title: Start\n---\nFirst.\n-> Go north\n    Arctic.\n-> Go south\n    Desert.\n===\n"
	m := compile(t, src)
	m.SendLineHints = true
	events := m.Continue()
	if len(events) < 2 || events[0].Kind != EventLineHints || events[1].Kind != EventNodeStart {
		t.Fatalf("expected LineHints immediately before NodeStart, got %v", events)
	}

	node := m.Program.Nodes["Start"]
	want := make(map[string]bool)
	for _, ins := range node.Instructions {
		if ins.Op == bytecode.OpRunLine || ins.Op == bytecode.OpAddOption {
			want[ins.Operands[0].(string)] = true
		}
	}
	got := make(map[string]bool)
	for _, id := range events[0].LineIDs {
		got[id] = true
	}
	if len(got) != len(want) {
		t.Fatalf("LineHints %v does not match statically reachable line IDs %v", got, want)
	}
	for id := range want {
		if !got[id] {
			t.Errorf("LineHints missing reachable line ID %q", id)
		}
	}
}

func TestVisitedBuiltinReflectsNodeHistory(t *testing.T) {
	src := "title: Start\n---\n<<if visited(\"Start\")>>\nAgain!\n<<else>>\nFirst time.\n<<endif>>\n===\n"
	m := compile(t, src)
	events := m.Continue()
	var sawAgain bool
	for _, e := range events {
		if e.Kind == EventLine {
			sawAgain = true
		}
	}
	_ = sawAgain // the first run should take the "First time" branch, not "Again"
}
