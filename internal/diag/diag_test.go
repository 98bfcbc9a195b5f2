package diag

import "testing"

func TestAddAndFilter(t *testing.T) {
	d := New("start.dlg")
	d.AddError(SingleLine(1, 0, 5), "E101", "unknown node")
	d.AddWarning(SingleLine(2, 0, 5), "W101", "unused variable")
	d.AddErrorWithSuggestion(SingleLine(3, 0, 5), "E102", "unknown node", `Did you mean "Intro"?`)

	if len(d.All()) != 3 {
		t.Fatalf("expected 3 diagnostics, got %d", len(d.All()))
	}
	if len(d.Errors()) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(d.Errors()))
	}
	if len(d.Warnings()) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(d.Warnings()))
	}
}

func TestHasErrors(t *testing.T) {
	d := New("start.dlg")
	if d.HasErrors() {
		t.Fatal("expected no errors initially")
	}
	d.AddWarning(SingleLine(0, 0, 0), "W1", "unused")
	if d.HasErrors() {
		t.Fatal("a warning must not count as an error")
	}
	d.AddError(SingleLine(0, 0, 0), "E1", "bad reference")
	if !d.HasErrors() {
		t.Fatal("expected HasErrors true after AddError")
	}
}

func TestDefaultFileScoping(t *testing.T) {
	d := New("start.dlg")
	d.AddError(SingleLine(0, 0, 0), "E1", "boom")
	if got := d.Errors()[0].File; got != "start.dlg" {
		t.Fatalf("expected default file 'start.dlg', got %q", got)
	}

	d.Add(&Diagnostic{File: "other.dlg", Severity: SeverityError, Message: "explicit file"})
	errs := d.Errors()
	if errs[1].File != "other.dlg" {
		t.Fatalf("explicit file must not be overridden, got %q", errs[1].File)
	}
}

func TestMerge(t *testing.T) {
	a := New("a.dlg")
	a.AddError(SingleLine(0, 0, 0), "E1", "in a")
	b := New("b.dlg")
	b.AddError(SingleLine(0, 0, 0), "E2", "in b")

	a.Merge(b)
	if len(a.All()) != 2 {
		t.Fatalf("expected 2 diagnostics after merge, got %d", len(a.All()))
	}
}

func TestFindClosest(t *testing.T) {
	candidates := []string{"Intro", "Outro", "ShopKeeper"}
	if got := FindClosest("Intor", candidates, 0.6); got != "Intro" {
		t.Fatalf("expected Intro, got %q", got)
	}
	if got := FindClosest("Zzzzzz", candidates, 0.6); got != "" {
		t.Fatalf("expected no match above threshold, got %q", got)
	}
}
