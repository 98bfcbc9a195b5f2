package parser

import "testing"

func mustParse(t *testing.T, source string) *Program {
	t.Helper()
	prog, d := Parse(source, "test.dlg")
	if d.HasErrors() {
		t.Fatalf("unexpected parse errors: %s", d.Format())
	}
	return prog
}

func TestParseSimpleNode(t *testing.T) {
	prog := mustParse(t, "title: Start\n---\nHello, traveler.\n===\n")
	if len(prog.Nodes) != 1 {
		t.Fatalf("expected 1 node, got %d", len(prog.Nodes))
	}
	node := prog.Nodes[0]
	if node.Title != "Start" {
		t.Errorf("expected title Start, got %q", node.Title)
	}
	if len(node.Body) != 1 {
		t.Fatalf("expected 1 body statement, got %d", len(node.Body))
	}
	line, ok := node.Body[0].(*LineStatement)
	if !ok {
		t.Fatalf("expected LineStatement, got %T", node.Body[0])
	}
	if line.Text != "Hello, traveler." {
		t.Errorf("unexpected line text: %q", line.Text)
	}
}

func TestParseInterpolatedLine(t *testing.T) {
	prog := mustParse(t, "title: Start\n---\nYou have {$gold} gold.\n===\n")
	line := prog.Nodes[0].Body[0].(*LineStatement)
	if line.Text != "You have {0} gold." {
		t.Errorf("expected positional marker substitution, got %q", line.Text)
	}
	if len(line.Interpolations) != 1 {
		t.Fatalf("expected 1 interpolation, got %d", len(line.Interpolations))
	}
	ref, ok := line.Interpolations[0].(*VariableRef)
	if !ok || ref.Name != "$gold" {
		t.Fatalf("expected $gold variable reference, got %#v", line.Interpolations[0])
	}
}

func TestParseShortcutOptionsWithSubBody(t *testing.T) {
	src := "title: Start\n---\n-> Go north\n    You arrive at the gate.\n-> Go south <<if $has_map>>\n    You find a shortcut.\n===\n"
	prog := mustParse(t, src)
	group, ok := prog.Nodes[0].Body[0].(*OptionGroup)
	if !ok {
		t.Fatalf("expected OptionGroup, got %T", prog.Nodes[0].Body[0])
	}
	if len(group.Options) != 2 {
		t.Fatalf("expected 2 options, got %d", len(group.Options))
	}
	if group.Options[0].Text != "Go north" {
		t.Errorf("unexpected option text: %q", group.Options[0].Text)
	}
	if len(group.Options[0].Body) != 1 {
		t.Fatalf("expected option sub-body of 1 statement, got %d", len(group.Options[0].Body))
	}
	if group.Options[1].Condition == nil {
		t.Fatal("expected second option to have a condition")
	}
}

func TestParseSetStatement(t *testing.T) {
	prog := mustParse(t, "title: Start\n---\n<<set $gold = $gold + 10>>\n===\n")
	set, ok := prog.Nodes[0].Body[0].(*SetStatement)
	if !ok {
		t.Fatalf("expected SetStatement, got %T", prog.Nodes[0].Body[0])
	}
	if set.Variable != "$gold" || set.Op != "=" {
		t.Errorf("unexpected set statement: %+v", set)
	}
	bin, ok := set.Value.(*BinaryExpr)
	if !ok || bin.Op != "+" {
		t.Fatalf("expected addition expression, got %#v", set.Value)
	}
}

func TestParseSetStatementWithToKeyword(t *testing.T) {
	prog := mustParse(t, "title: Start\n---\n<<set $x to $x + 1>>\n===\n")
	set, ok := prog.Nodes[0].Body[0].(*SetStatement)
	if !ok {
		t.Fatalf("expected SetStatement, got %T", prog.Nodes[0].Body[0])
	}
	if set.Op != "=" {
		t.Errorf("expected \"to\" to be treated as \"=\", got %q", set.Op)
	}
}

func TestParseDeclareStatement(t *testing.T) {
	prog := mustParse(t, `title: Start
---
<<declare $gold = 0>>
===
`)
	decl, ok := prog.Nodes[0].Body[0].(*DeclareStatement)
	if !ok {
		t.Fatalf("expected DeclareStatement, got %T", prog.Nodes[0].Body[0])
	}
	if decl.Variable != "$gold" {
		t.Errorf("unexpected variable: %q", decl.Variable)
	}
	num, ok := decl.Default.(*NumberLiteral)
	if !ok || num.Value != 0 {
		t.Fatalf("expected default 0, got %#v", decl.Default)
	}
}

func TestParseIfElseifElse(t *testing.T) {
	src := `title: Start
---
<<if $gold >= 10>>
You can afford it.
<<elseif $gold >= 5>>
Almost there.
<<else>>
Come back later.
<<endif>>
===
`
	prog := mustParse(t, src)
	ifs, ok := prog.Nodes[0].Body[0].(*IfStatement)
	if !ok {
		t.Fatalf("expected IfStatement, got %T", prog.Nodes[0].Body[0])
	}
	if len(ifs.Branches) != 2 {
		t.Fatalf("expected 2 branches (if + elseif), got %d", len(ifs.Branches))
	}
	if len(ifs.Else) != 1 {
		t.Fatalf("expected 1 else statement, got %d", len(ifs.Else))
	}
}

func TestParseJumpAndStop(t *testing.T) {
	prog := mustParse(t, "title: Start\n---\n<<jump NextNode>>\n<<stop>>\n===\n")
	jump, ok := prog.Nodes[0].Body[0].(*JumpStatement)
	if !ok || jump.Target != "NextNode" {
		t.Fatalf("expected jump to NextNode, got %#v", prog.Nodes[0].Body[0])
	}
	if _, ok := prog.Nodes[0].Body[1].(*StopStatement); !ok {
		t.Fatalf("expected StopStatement, got %T", prog.Nodes[0].Body[1])
	}
}

func TestParseCustomCommand(t *testing.T) {
	prog := mustParse(t, `title: Start
---
<<give_item "sword">>
===
`)
	cmd, ok := prog.Nodes[0].Body[0].(*Command)
	if !ok {
		t.Fatalf("expected Command, got %T", prog.Nodes[0].Body[0])
	}
	if cmd.Name != "give_item" || len(cmd.Args) != 1 {
		t.Fatalf("unexpected command: %+v", cmd)
	}
}

func TestParseMultipleNodes(t *testing.T) {
	src := "title: A\n---\nFirst.\n===\ntitle: B\n---\nSecond.\n===\n"
	prog := mustParse(t, src)
	if len(prog.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(prog.Nodes))
	}
}

func TestParserRecoversFromMissingBodyEnd(t *testing.T) {
	prog, d := Parse("title: A\n---\nFirst.\n", "test.dlg")
	if !d.HasErrors() {
		t.Fatal("expected a diagnostic for the missing \"===\"")
	}
	if len(prog.Nodes) != 1 {
		t.Fatalf("expected the parser to still produce the one node, got %d", len(prog.Nodes))
	}
}
