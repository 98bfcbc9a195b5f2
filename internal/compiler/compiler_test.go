package compiler

import "testing"

func TestCompileSingleFile(t *testing.T) {
	sources := []Source{{File: "a.dlg", Text: "title: Start\n---\nHello there.\n===\n"}}
	result, err := CompileProject(sources, nil, nil)
	if err != nil {
		t.Fatalf("CompileProject: %v", err)
	}
	if _, ok := result.Program.Nodes["Start"]; !ok {
		t.Fatal("expected Start node in compiled program")
	}
}

func TestCompileDetectsDuplicateNodeAcrossFiles(t *testing.T) {
	sources := []Source{
		{File: "a.dlg", Text: "title: Start\n---\nFirst.\n===\n"},
		{File: "b.dlg", Text: "title: Start\n---\nSecond.\n===\n"},
	}
	_, err := CompileProject(sources, nil, nil)
	if err == nil {
		t.Fatal("expected a compile error for a duplicate node name across files")
	}
}

func TestCompileResolvesDeclarationAcrossFiles(t *testing.T) {
	sources := []Source{
		{File: "a.dlg", Text: "title: Start\n---\nYou have {$gold} gold.\n===\n"},
		{File: "b.dlg", Text: "title: Shop\n---\n<<declare $gold = 0>>\n===\n"},
	}
	_, err := CompileProject(sources, nil, nil)
	if err != nil {
		t.Fatalf("expected $gold declared in b.dlg to resolve a.dlg's reference, got: %v", err)
	}
}

func TestCompileReportsStillUndeclaredVariable(t *testing.T) {
	sources := []Source{{File: "a.dlg", Text: "title: Start\n---\nYou have {$mystery} things.\n===\n"}}
	_, err := CompileProject(sources, nil, nil)
	if err == nil {
		t.Fatal("expected an error for a variable never declared anywhere in the project")
	}
}

func TestCompileReportsParseErrors(t *testing.T) {
	sources := []Source{{File: "a.dlg", Text: "title: Start\n---\nFirst.\n"}}
	_, err := CompileProject(sources, nil, nil)
	if err == nil {
		t.Fatal("expected an error for a missing \"===\"")
	}
}

func TestCompileReportsProgress(t *testing.T) {
	var stages []string
	sources := []Source{{File: "a.dlg", Text: "title: Start\n---\nHi.\n===\n"}}
	if _, err := CompileProject(sources, nil, func(stage string) { stages = append(stages, stage) }); err != nil {
		t.Fatalf("CompileProject: %v", err)
	}
	if len(stages) == 0 {
		t.Fatal("expected at least one progress stage reported")
	}
}
