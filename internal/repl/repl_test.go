package repl

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/barun-bash/dialogic/internal/cli"
)

func newTestREPL(input string) (*REPL, *bytes.Buffer, *bytes.Buffer) {
	cli.ColorEnabled = false
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	r := New("0.4.0-test",
		WithInput(strings.NewReader(input)),
		WithOutput(out),
		WithErrOutput(errOut),
	)
	return r, out, errOut
}

// writeTempProject writes a single-file .dlg project to a temp dir and
// returns its path.
func writeTempProject(t *testing.T, text string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "story.dlg")
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

const sampleProject = "title: Start\n---\nHello there.\n-> Hi!\n\tHowdy.\n-> Bye.\n\tSee you.\n===\n"

func TestREPL_HelpCommand(t *testing.T) {
	r, out, _ := newTestREPL("/help\n/quit\n")
	r.Run()
	output := out.String()
	if !strings.Contains(output, "Available Commands") {
		t.Error("expected /help output to contain 'Available Commands'")
	}
	if !strings.Contains(output, "/start") {
		t.Error("expected /help output to list /start")
	}
	if !strings.Contains(output, "/theme") {
		t.Error("expected /help output to list /theme")
	}
	if !strings.Contains(output, "/choose") {
		t.Error("expected /help output to list /choose")
	}
}

func TestREPL_VersionCommand(t *testing.T) {
	r, out, _ := newTestREPL("/version\n/quit\n")
	r.Run()
	output := out.String()
	if !strings.Contains(output, "0.4.0-test") {
		t.Errorf("expected version output, got: %s", output)
	}
}

func TestREPL_UnknownCommand(t *testing.T) {
	r, _, errOut := newTestREPL("/foobar\n/quit\n")
	r.Run()
	output := errOut.String()
	if !strings.Contains(output, "Unknown command") {
		t.Errorf("expected 'Unknown command' error, got: %s", output)
	}
}

func TestREPL_NonSlashInput(t *testing.T) {
	r, out, _ := newTestREPL("hello world\n/quit\n")
	r.Run()
	output := out.String()
	if !strings.Contains(output, "Commands start with /") {
		t.Errorf("expected guidance message for non-slash input, got: %s", output)
	}
}

func TestREPL_EOF(t *testing.T) {
	r, out, _ := newTestREPL("")
	r.Run()
	output := out.String()
	if !strings.Contains(output, "Goodbye") {
		t.Errorf("expected 'Goodbye' on EOF, got: %s", output)
	}
}

func TestREPL_StartWithoutProject(t *testing.T) {
	r, _, errOut := newTestREPL("/start\n/quit\n")
	r.Run()
	output := errOut.String()
	if !strings.Contains(output, "No project loaded") {
		t.Errorf("expected 'No project loaded' error, got: %s", output)
	}
}

func TestREPL_OpenAndStart(t *testing.T) {
	path := writeTempProject(t, sampleProject)
	r, out, errOut := newTestREPL("/open " + path + "\n/start\n/quit\n")
	r.Run()
	combined := out.String() + errOut.String()
	if strings.Contains(combined, "panic") {
		t.Fatal("REPL panicked during /open + /start")
	}
	if !strings.Contains(out.String(), "Hello there.") {
		t.Errorf("expected the opening line to print, got: %s", out.String())
	}
	if !strings.Contains(out.String(), "Hi!") {
		t.Errorf("expected the first option to print, got: %s", out.String())
	}
}

func TestREPL_OpenMissingFile(t *testing.T) {
	r, _, errOut := newTestREPL("/open /nonexistent/story.dlg\n/quit\n")
	r.Run()
	if !strings.Contains(errOut.String(), "no such file") && errOut.Len() == 0 {
		t.Error("expected an error for a missing file")
	}
}

func TestREPL_ChooseAndContinue(t *testing.T) {
	path := writeTempProject(t, sampleProject)
	r, out, _ := newTestREPL("/open " + path + "\n/start\n/choose 0\n/quit\n")
	r.Run()
	output := out.String()
	if !strings.Contains(output, "Howdy.") {
		t.Errorf("expected the chosen option's destination line, got: %s", output)
	}
}

func TestREPL_NodesCommand(t *testing.T) {
	path := writeTempProject(t, sampleProject)
	r, out, _ := newTestREPL("/open " + path + "\n/nodes\n/quit\n")
	r.Run()
	if !strings.Contains(out.String(), "Start") {
		t.Errorf("expected /nodes to list Start, got: %s", out.String())
	}
}

func TestREPL_DiagnosticsOnBadSyntax(t *testing.T) {
	path := writeTempProject(t, "title: Start\n---\nHello there.\n") // missing "==="
	r, _, errOut := newTestREPL("/open " + path + "\n/quit\n")
	r.Run()
	if !strings.Contains(errOut.String(), "compile error") {
		t.Errorf("expected a compile error for a missing terminator, got: %s", errOut.String())
	}
}

func TestREPL_QuitAliases(t *testing.T) {
	for _, cmd := range []string{"/quit", "/exit", "/q"} {
		r, out, _ := newTestREPL(cmd + "\n")
		r.Run()
		if !strings.Contains(out.String(), "Goodbye") {
			t.Errorf("expected 'Goodbye' for %s", cmd)
		}
	}
}

func TestREPL_DidYouMean(t *testing.T) {
	r, _, errOut := newTestREPL("/hel\n/quit\n")
	r.Run()
	output := errOut.String()
	if !strings.Contains(output, "Did you mean") {
		t.Errorf("expected 'Did you mean' suggestion, got: %s", output)
	}
}

func TestREPL_BannerContainsUnderscore(t *testing.T) {
	r, out, _ := newTestREPL("/quit\n")
	r.Run()
	output := out.String()
	if !strings.Contains(output, "_") {
		t.Error("banner should contain underscore character")
	}
}

func TestREPL_BannerContainsVersion(t *testing.T) {
	r, out, _ := newTestREPL("/quit\n")
	r.Run()
	output := out.String()
	if !strings.Contains(output, "0.4.0-test") {
		t.Error("banner should contain version")
	}
}

func TestREPL_PromptContainsUnderscore(t *testing.T) {
	r, out, _ := newTestREPL("/quit\n")
	r.Run()
	output := out.String()
	if !strings.Contains(output, "_>") {
		t.Error("prompt should contain branded underscore: _>")
	}
}

func TestREPL_ThemeCommand(t *testing.T) {
	r, out, _ := newTestREPL("/theme\n/quit\n")
	r.Run()
	output := out.String()
	if !strings.Contains(output, "Current theme") {
		t.Error("expected /theme to show current theme name")
	}
}

func TestREPL_ThemeSet(t *testing.T) {
	names := cli.ThemeNames()
	if len(names) == 0 {
		t.Skip("no themes registered")
	}
	r, out, _ := newTestREPL("/theme " + names[0] + "\n/quit\n")
	r.Run()
	if !strings.Contains(out.String(), "Theme set to") {
		t.Errorf("expected theme confirmation, got: %s", out.String())
	}
}

func TestREPL_LocaleCommand(t *testing.T) {
	r, out, _ := newTestREPL("/locale\n/locale fr-FR\n/locale\n/quit\n")
	r.Run()
	output := out.String()
	if !strings.Contains(output, "en-US") {
		t.Errorf("expected default locale en-US, got: %s", output)
	}
	if !strings.Contains(output, "fr-FR") {
		t.Errorf("expected locale set to fr-FR, got: %s", output)
	}
}

func TestREPL_VarsAndSet(t *testing.T) {
	project := "title: Start\n---\n<<declare $count = 0>>\n<<set $count = 3>>\nCount is {$count}.\n===\n"
	path := writeTempProject(t, project)
	r, out, errOut := newTestREPL("/open " + path + "\n/start\n/vars\n/set $count 9\n/vars\n/quit\n")
	r.Run()
	combined := out.String() + errOut.String()
	if strings.Contains(combined, "panic") {
		t.Fatalf("REPL panicked: %s", combined)
	}
	if !strings.Contains(out.String(), "$count") {
		t.Errorf("expected $count to appear in /vars output, got: %s", out.String())
	}
}
