package repl

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/barun-bash/dialogic/internal/cli"
)

// buildCompleter returns a readline CompleteFunc that dispatches tab
// completion to the appropriate command completer.
func (r *REPL) buildCompleter() func(line string, pos int) []string {
	return func(line string, pos int) []string {
		runes := []rune(line)
		if pos > len(runes) {
			pos = len(runes)
		}
		before := string(runes[:pos])

		parts := strings.Fields(before)
		trailingSpace := len(before) > 0 && before[len(before)-1] == ' '

		// No input yet — show all commands.
		if len(parts) == 0 {
			return r.commandNames()
		}

		cmdName := strings.ToLower(parts[0])

		// Still typing the command name (no space yet).
		if len(parts) == 1 && !trailingSpace {
			return r.completeCommandName(cmdName)
		}

		// Resolve alias to canonical name.
		if target, ok := r.aliases[cmdName]; ok {
			cmdName = target
		}

		// Delegate to command-specific completer.
		cmd, ok := r.commands[cmdName]
		if !ok || cmd.Complete == nil {
			return nil
		}

		// Build args for the completer.
		var args []string
		if len(parts) > 1 {
			args = parts[1:]
		}
		partial := ""
		if !trailingSpace && len(args) > 0 {
			partial = args[len(args)-1]
			args = args[:len(args)-1]
		}

		return cmd.Complete(r, args, partial)
	}
}

// completeCommandName returns commands matching the partial prefix.
func (r *REPL) completeCommandName(partial string) []string {
	var matches []string
	for name := range r.commands {
		if strings.HasPrefix(name, partial) {
			matches = append(matches, name)
		}
	}
	// Also check aliases.
	for alias := range r.aliases {
		if strings.HasPrefix(alias, partial) {
			matches = append(matches, alias)
		}
	}
	return matches
}

// commandNames returns all command names (not aliases).
func (r *REPL) commandNames() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	return names
}

// ── Reusable completion helpers ──

// completeFromList completes partial against a fixed list of choices.
func completeFromList(choices []string, partial string) []string {
	if partial == "" {
		return choices
	}
	var matches []string
	p := strings.ToLower(partial)
	for _, c := range choices {
		if strings.HasPrefix(strings.ToLower(c), p) {
			matches = append(matches, c)
		}
	}
	return matches
}

// completeFiles returns .dlg files matching the partial path.
func completeFiles(partial string) []string {
	dir := "."
	prefix := ""
	if partial != "" {
		dir = filepath.Dir(partial)
		prefix = filepath.Base(partial)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var matches []string
	for _, e := range entries {
		name := e.Name()
		// Skip hidden files/dirs.
		if strings.HasPrefix(name, ".") {
			continue
		}

		fullPath := filepath.Join(dir, name)
		if dir == "." {
			fullPath = name
		}

		if e.IsDir() {
			// Show directories for navigation.
			candidate := fullPath + "/"
			if prefix == "" || strings.HasPrefix(name, prefix) {
				matches = append(matches, candidate)
			}
		} else if strings.HasSuffix(name, ".dlg") {
			if prefix == "" || strings.HasPrefix(name, prefix) {
				matches = append(matches, fullPath)
			}
		}
	}
	return matches
}

// ── Command-specific completers ──

func completeOpen(r *REPL, args []string, partial string) []string {
	return completeFiles(partial)
}

// completeNodeName completes against the compiled project's node names,
// used by /start and /visited.
func completeNodeName(r *REPL, args []string, partial string) []string {
	if r.program == nil {
		return nil
	}
	return completeFromList(r.program.NodeNames(), partial)
}

func completeTheme(_ *REPL, args []string, partial string) []string {
	return completeFromList(cli.ThemeNames(), partial)
}
