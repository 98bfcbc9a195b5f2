package cli

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"
	"time"
)

// logoLetters stores each letter of DLG_ as 6-row ASCII block art. The
// underscore is a full-width block character, matching the file
// extension this REPL plays.
var logoLetters = [4][6]string{
	// D
	{
		"██████╗ ",
		"██╔══██╗",
		"██║  ██║",
		"██║  ██║",
		"██████╔╝",
		"╚═════╝ ",
	},
	// L
	{
		"██╗     ",
		"██║     ",
		"██║     ",
		"██║     ",
		"███████╗",
		"╚══════╝",
	},
	// G
	{
		" ██████╗ ",
		"██╔════╝ ",
		"██║  ███╗",
		"██║   ██║",
		"╚██████╔╝",
		" ╚═════╝ ",
	},
	// _ (full-width block underscore)
	{
		"         ",
		"         ",
		"         ",
		"         ",
		"████████╗",
		"╚═══════╝",
	},
}

const logoRows = 6

// tips is the pool of startup tips shown randomly on launch.
var tips = []string{
	"Use /open to load one or more .dlg files",
	"Run /compile to re-check a project after editing it on disk",
	"Use /start <node> to begin a playthrough at a specific node",
	"Run /choose <index> to pick an option mid-playthrough",
	"Use /vars to inspect the current playthrough's variables",
	"Run /set $name value to override a variable by hand",
	"Use /visited <node> to check how many times a node has run",
	"Run /seed <n> to make a playthrough's randomness reproducible",
	"Use /locale <tag> to preview [plural]/[select] markup in another language",
	"Try /theme list to see available color themes",
	"Run /strings to dump every line's string table entry and source location",
	"Use /diagnostics to see the last compile's errors and warnings",
}

// BannerInfo holds the data for the startup info block.
type BannerInfo struct {
	ProjectFile string // e.g. "examples/cafe/story.dlg" or ""
	ProjectName string // e.g. "story" or ""
	FirstRun    bool   // true on first launch
}

// PrintBanner renders the DLG_ logo and info block.
// When animate is true and the writer is a TTY, the logo types in letter by
// letter with a blinking underscore. Otherwise, the static logo is printed.
func PrintBanner(w io.Writer, version string, animate bool, info *BannerInfo) {
	if animate && isTTY(w) {
		printAnimatedLogo(w)
	} else {
		printStaticLogo(w)
	}
	fmt.Fprintln(w)
	printInfoBlock(w, version, info)
}

// buildLogoLines composes full logo lines showing the first numLetters letters.
func buildLogoLines(numLetters int) [logoRows]string {
	var lines [logoRows]string
	for row := 0; row < logoRows; row++ {
		parts := make([]string, numLetters)
		for i := 0; i < numLetters; i++ {
			parts[i] = logoLetters[i][row]
		}
		lines[row] = strings.Join(parts, " ")
	}
	return lines
}

func printAnimatedLogo(w io.Writer) {
	accent, rst := accentCodes()

	// Clear screen, cursor to top-left.
	fmt.Fprint(w, "\033[2J\033[H")

	// Reveal letters D-L-G one at a time.
	wordLetters := len(logoLetters) - 1
	for stage := 1; stage <= wordLetters; stage++ {
		fmt.Fprint(w, "\033[H") // cursor home — overwrite in place
		lines := buildLogoLines(stage)
		for _, line := range lines {
			fmt.Fprintf(w, "  %s%s%s\033[K\n", accent, line, rst)
		}
		time.Sleep(80 * time.Millisecond)
	}

	// Blink the full-block underscore 2 times.
	total := len(logoLetters)
	for i := 0; i < 2; i++ {
		printLogoFrame(w, total, accent, rst)
		time.Sleep(250 * time.Millisecond)
		printLogoFrame(w, total-1, accent, rst)
		time.Sleep(250 * time.Millisecond)
	}

	// Final: underscore stays solid.
	printLogoFrame(w, total, accent, rst)
}

// printLogoFrame reprints all logo rows from cursor home for n letters.
func printLogoFrame(w io.Writer, n int, accent, rst string) {
	fmt.Fprint(w, "\033[H")
	lines := buildLogoLines(n)
	for _, line := range lines {
		fmt.Fprintf(w, "  %s%s%s\033[K\n", accent, line, rst)
	}
}

func printStaticLogo(w io.Writer) {
	accent, rst := accentCodes()
	lines := buildLogoLines(len(logoLetters)) // all letters including block underscore
	for _, line := range lines {
		fmt.Fprintf(w, "  %s%s%s\n", accent, line, rst)
	}
}

func printInfoBlock(w io.Writer, version string, info *BannerInfo) {
	if info == nil {
		info = &BannerInfo{}
	}

	fmt.Fprintf(w, "  %s  v%s\n", Muted("Version:"), version)

	if info.ProjectFile != "" {
		fmt.Fprintf(w, "  %s  %s %s\n", Muted("Project:"), info.ProjectName, Muted("("+info.ProjectFile+")"))
	} else {
		fmt.Fprintf(w, "  %s  %s\n", Muted("Project:"), Muted("No project. Run /open <file.dlg>"))
	}

	fmt.Fprintf(w, "  %s      %s\n", Muted("Tip:"), tips[rand.Intn(len(tips))])
	fmt.Fprintln(w)

	if info.FirstRun {
		printFirstRunWelcome(w)
	}
}

func printFirstRunWelcome(w io.Writer) {
	fmt.Fprintln(w, Accent("  Welcome to dialogic! Let's get you started."))
	fmt.Fprintf(w, "  %s Run /open <file.dlg> to load a project\n", Accent("→"))
	fmt.Fprintf(w, "  %s Run /start to begin a playthrough\n", Accent("→"))
	fmt.Fprintf(w, "  %s Run /help to see every command\n", Accent("→"))
	fmt.Fprintln(w)
}

// accentCodes returns the accent color escape and reset, respecting ColorEnabled.
func accentCodes() (string, string) {
	if !ColorEnabled {
		return "", ""
	}
	c := currentTheme.Colors[RoleAccent]
	if c == "" {
		return "", ""
	}
	return c, reset
}

// isTTY returns true if w is a terminal.
func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// RandomTip returns a random startup tip.
func RandomTip() string {
	return tips[rand.Intn(len(tips))]
}
