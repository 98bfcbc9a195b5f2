package codegen

import (
	"testing"

	"github.com/kylelemons/godebug/pretty"

	"github.com/barun-bash/dialogic/internal/bytecode"
	"github.com/barun-bash/dialogic/internal/decl"
	"github.com/barun-bash/dialogic/internal/diag"
	"github.com/barun-bash/dialogic/internal/parser"
)

func generate(t *testing.T, src string) *bytecode.Program {
	t.Helper()
	prog, d := parser.Parse(src, "t.dlg")
	if d.HasErrors() {
		t.Fatalf("unexpected parse errors: %s", d.Format())
	}
	declarations := decl.Collect(prog, "t.dlg", diag.New("t.dlg"))
	return Generate(prog, "t.dlg", declarations)
}

func TestGenerateSimpleLine(t *testing.T) {
	p := generate(t, "title: Start\n---\nHello there.\n===\n")
	node := p.Nodes["Start"]
	if node == nil {
		t.Fatal("expected a Start node")
	}
	if node.Instructions[len(node.Instructions)-1].Op != bytecode.OpStop {
		t.Errorf("expected node to end with Stop, got %v", node.Instructions[len(node.Instructions)-1].Op)
	}
	foundRunLine := false
	for _, ins := range node.Instructions {
		if ins.Op == bytecode.OpRunLine {
			foundRunLine = true
		}
	}
	if !foundRunLine {
		t.Error("expected a RunLine instruction")
	}
}

func TestGenerateSetStatement(t *testing.T) {
	p := generate(t, "title: Start\n---\n<<declare $gold = 0>>\n<<set $gold = $gold + 10>>\n===\n")
	node := p.Nodes["Start"]
	var sawStore bool
	for _, ins := range node.Instructions {
		if ins.Op == bytecode.OpStoreVariable && ins.Operands[0] == "$gold" {
			sawStore = true
		}
	}
	if !sawStore {
		t.Error("expected a StoreVariable $gold instruction")
	}
	if p.InitialValues["$gold"].Number != 0 {
		t.Errorf("expected $gold initial value 0, got %v", p.InitialValues["$gold"])
	}
}

func TestGenerateIfElse(t *testing.T) {
	src := "title: Start\n---\n<<declare $gold = 0>>\n<<if $gold >= 10>>\nRich.\n<<else>>\nPoor.\n<<endif>>\n===\n"
	p := generate(t, src)
	node := p.Nodes["Start"]
	var sawJumpIfFalse, sawJumpTo bool
	for _, ins := range node.Instructions {
		if ins.Op == bytecode.OpJumpIfFalse {
			sawJumpIfFalse = true
		}
		if ins.Op == bytecode.OpJumpTo {
			sawJumpTo = true
		}
	}
	if !sawJumpIfFalse || !sawJumpTo {
		t.Error("expected both JumpIfFalse and JumpTo in an if/else lowering")
	}
}

func TestGenerateShortcutOptionsProduceDestinationLabels(t *testing.T) {
	src := "title: Start\n---\n-> Go north\n    You arrive.\n-> Go south\n    Elsewhere.\n===\n"
	p := generate(t, src)
	node := p.Nodes["Start"]
	var addOptionCount, showOptionsCount int
	for _, ins := range node.Instructions {
		switch ins.Op {
		case bytecode.OpAddOption:
			addOptionCount++
			if len(ins.Operands) != 2 {
				t.Fatalf("expected AddOption to carry (lineID, destLabel), got %v", ins.Operands)
			}
			destLabel := ins.Operands[1].(string)
			if _, ok := node.Labels[destLabel]; !ok {
				t.Errorf("expected destination label %q to be registered", destLabel)
			}
		case bytecode.OpShowOptions:
			showOptionsCount++
		}
	}
	if addOptionCount != 2 {
		t.Errorf("expected 2 AddOption instructions, got %d", addOptionCount)
	}
	if showOptionsCount != 1 {
		t.Errorf("expected exactly 1 ShowOptions instruction, got %d", showOptionsCount)
	}
}

func TestGenerateLineIDsCoverEveryLineAndOption(t *testing.T) {
	src := "title: Start\n---\nFirst.\n-> Go north\n    Arctic.\n-> Go south\n    Desert.\n===\n"
	p := generate(t, src)
	node := p.Nodes["Start"]

	var want []string
	for _, ins := range node.Instructions {
		if ins.Op == bytecode.OpRunLine || ins.Op == bytecode.OpAddOption {
			want = append(want, ins.Operands[0].(string))
		}
	}
	if diff := pretty.Compare(sortedCopy(want), node.LineIDs); diff != "" {
		t.Errorf("Node.LineIDs mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateRawTextTagSetsSourceTextStringID(t *testing.T) {
	src := "title: Start\ntags: rawText\n---\nHello there.\n===\n"
	p := generate(t, src)
	node := p.Nodes["Start"]
	if node.SourceTextStringID != "line:Start" {
		t.Errorf("expected SourceTextStringID \"line:Start\", got %q", node.SourceTextStringID)
	}
}

func sortedCopy(s []string) []string {
	out := append([]string(nil), s...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

func TestGenerateJumpAndStop(t *testing.T) {
	p := generate(t, "title: Start\n---\n<<jump Elsewhere>>\n<<stop>>\n===\n")
	node := p.Nodes["Start"]
	if node.Instructions[0].Op != bytecode.OpRunNode || node.Instructions[0].Operands[0] != "Elsewhere" {
		t.Fatalf("expected first instruction RunNode Elsewhere, got %v", node.Instructions[0])
	}
}
