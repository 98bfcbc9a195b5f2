package decl

import (
	"testing"

	"github.com/barun-bash/dialogic/internal/diag"
	"github.com/barun-bash/dialogic/internal/parser"
)

func TestCollectSimpleDeclare(t *testing.T) {
	prog, d := parser.Parse("title: Start\n---\n<<declare $gold = 0>>\n===\n", "t.dlg")
	if d.HasErrors() {
		t.Fatalf("unexpected parse errors: %s", d.Format())
	}
	decls := diag.New("t.dlg")
	table := Collect(prog, "t.dlg", decls)
	if decls.HasErrors() {
		t.Fatalf("unexpected declaration errors: %s", decls.Format())
	}
	got, ok := table.Get("$gold")
	if !ok {
		t.Fatal("expected $gold to be declared")
	}
	if got.Default.AsNumber() != 0 {
		t.Errorf("expected default 0, got %v", got.Default)
	}
	if got.IsImplicit {
		t.Error("explicit declaration must not be marked implicit")
	}
}

func TestCollectFromNestedOptionBody(t *testing.T) {
	src := "title: Start\n---\n-> Option\n    <<declare $visited_shop = false>>\n===\n"
	prog, d := parser.Parse(src, "t.dlg")
	if d.HasErrors() {
		t.Fatalf("unexpected parse errors: %s", d.Format())
	}
	decls := diag.New("t.dlg")
	table := Collect(prog, "t.dlg", decls)
	if _, ok := table.Get("$visited_shop"); !ok {
		t.Fatal("expected declaration nested inside an option body to be collected")
	}
}

func TestDuplicateIncompatibleDeclarationIsError(t *testing.T) {
	src := "title: Start\n---\n<<declare $gold = 0>>\n<<declare $gold = \"zero\">>\n===\n"
	prog, d := parser.Parse(src, "t.dlg")
	if d.HasErrors() {
		t.Fatalf("unexpected parse errors: %s", d.Format())
	}
	decls := diag.New("t.dlg")
	Collect(prog, "t.dlg", decls)
	if !decls.HasErrors() {
		t.Fatal("expected a diagnostic for incompatible redeclaration")
	}
}

func TestEnsureImplicitCreatesUndefinedEntry(t *testing.T) {
	table := NewTable()
	d := table.EnsureImplicit("$mystery")
	if !d.IsImplicit {
		t.Error("expected implicit flag set")
	}
	if again := table.EnsureImplicit("$mystery"); again != d {
		t.Error("expected EnsureImplicit to return the same entry on repeat calls")
	}
}
