package repl

import (
	"sort"
	"strings"
	"testing"
)

func newTestREPLForCompletion() *REPL {
	r, _, _ := newTestREPL("")
	return r
}

func TestCompleteCommandName(t *testing.T) {
	r := newTestREPLForCompletion()
	matches := r.completeCommandName("/sta")
	if !contains(matches, "/start") {
		t.Errorf("expected /start in matches, got: %v", matches)
	}
}

func TestCompleteCommandName_NoMatch(t *testing.T) {
	r := newTestREPLForCompletion()
	matches := r.completeCommandName("/zzz")
	if len(matches) != 0 {
		t.Errorf("expected no matches, got: %v", matches)
	}
}

func TestCommandNames(t *testing.T) {
	r := newTestREPLForCompletion()
	names := r.commandNames()
	sort.Strings(names)
	if !contains(names, "/help") || !contains(names, "/quit") {
		t.Errorf("expected core commands in %v", names)
	}
}

func TestCompleteFromList(t *testing.T) {
	choices := []string{"alpha", "beta", "alarm"}
	matches := completeFromList(choices, "al")
	if len(matches) != 2 {
		t.Errorf("expected 2 matches for 'al', got: %v", matches)
	}
}

func TestCompleteFromList_Empty(t *testing.T) {
	choices := []string{"alpha", "beta"}
	matches := completeFromList(choices, "")
	if len(matches) != len(choices) {
		t.Errorf("expected all choices for empty partial, got: %v", matches)
	}
}

func TestCompleteNodeName_NoProject(t *testing.T) {
	r := newTestREPLForCompletion()
	matches := completeNodeName(r, nil, "")
	if matches != nil {
		t.Errorf("expected nil matches with no compiled project, got: %v", matches)
	}
}

func TestCompleteNodeName_WithProject(t *testing.T) {
	path := writeTempProject(t, sampleProject)
	r, _, _ := newTestREPL("/open " + path + "\n/quit\n")
	r.Run()

	matches := completeNodeName(r, nil, "Sta")
	if !contains(matches, "Start") {
		t.Errorf("expected Start in node completions, got: %v", matches)
	}
}

func TestCompleteTheme(t *testing.T) {
	r := newTestREPLForCompletion()
	matches := completeTheme(r, nil, "")
	if len(matches) == 0 {
		t.Error("expected at least one theme name")
	}
}

func TestBuildCompleter_EmptyLine(t *testing.T) {
	r := newTestREPLForCompletion()
	completer := r.buildCompleter()
	matches := completer("", 0)
	if len(matches) == 0 {
		t.Error("expected all commands for empty line")
	}
}

func TestBuildCompleter_PartialCommand(t *testing.T) {
	r := newTestREPLForCompletion()
	completer := r.buildCompleter()
	matches := completer("/he", 3)
	if !contains(matches, "/help") {
		t.Errorf("expected /help in matches, got: %v", matches)
	}
}

func TestBuildCompleter_DelegatesToCommand(t *testing.T) {
	r := newTestREPLForCompletion()
	completer := r.buildCompleter()
	matches := completer("/theme ", 7)
	if len(matches) == 0 {
		t.Error("expected theme names to be offered after '/theme '")
	}
}

func TestBuildCompleter_UnknownCommandNoComplete(t *testing.T) {
	r := newTestREPLForCompletion()
	completer := r.buildCompleter()
	matches := completer("/version ", 9)
	if matches != nil {
		t.Errorf("expected nil for a command with no completer, got: %v", matches)
	}
}

func TestBuildCompleter_AliasResolves(t *testing.T) {
	path := writeTempProject(t, sampleProject)
	r, _, _ := newTestREPL("/open " + path + "\n/quit\n")
	r.Run()

	// /s is an alias for /start, which completes node names.
	completer := r.buildCompleter()
	matches := completer("/s Sta", 6)
	if !contains(matches, "Start") {
		t.Errorf("expected alias /s to resolve to /start's completer, got: %v", matches)
	}
}

func contains(list []string, target string) bool {
	for _, s := range list {
		if s == target {
			return true
		}
	}
	return false
}

func TestCompleteFiles_FiltersExtension(t *testing.T) {
	matches := completeFiles("")
	for _, m := range matches {
		if strings.HasSuffix(m, "/") {
			continue
		}
		if !strings.HasSuffix(m, ".dlg") {
			t.Errorf("expected only .dlg files or directories, got: %s", m)
		}
	}
}
