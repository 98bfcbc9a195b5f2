package repl

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/barun-bash/dialogic/internal/cli"
	"github.com/barun-bash/dialogic/internal/compiler"
	"github.com/barun-bash/dialogic/internal/vm"
)

// Command is one slash command: its name, aliases, and handler.
type Command struct {
	Name        string
	Aliases     []string
	Description string
	Usage       string
	Handler     func(r *REPL, args []string)
	Complete    func(r *REPL, args []string, partial string) []string
}

// registerCommands builds the REPL's command table.
func (r *REPL) registerCommands() {
	commands := []*Command{
		{
			Name:        "/open",
			Description: "Load and compile one or more .dlg files",
			Usage:       "/open <file.dlg> [file2.dlg ...]",
			Handler:     cmdOpen,
			Complete:    completeOpen,
		},
		{
			Name:        "/compile",
			Aliases:     []string{"/c"},
			Description: "Recompile the loaded project",
			Usage:       "/compile",
			Handler:     cmdCompile,
		},
		{
			Name:        "/diagnostics",
			Aliases:     []string{"/diag"},
			Description: "Show the last compile's diagnostics",
			Usage:       "/diagnostics",
			Handler:     cmdDiagnostics,
		},
		{
			Name:        "/nodes",
			Description: "List the compiled project's node names",
			Usage:       "/nodes",
			Handler:     cmdNodes,
		},
		{
			Name:        "/start",
			Aliases:     []string{"/s"},
			Description: "Start a playthrough at a node (default: Start)",
			Usage:       "/start [node]",
			Handler:     cmdStart,
			Complete:    completeNodeName,
		},
		{
			Name:        "/continue",
			Aliases:     []string{"/cont", "/n"},
			Description: "Advance the running playthrough",
			Usage:       "/continue",
			Handler:     cmdContinue,
		},
		{
			Name:        "/choose",
			Aliases:     []string{"/select", "/pick"},
			Description: "Choose an option by index and continue",
			Usage:       "/choose <index>",
			Handler:     cmdChoose,
		},
		{
			Name:        "/stop",
			Description: "Stop the running playthrough",
			Usage:       "/stop",
			Handler:     cmdStop,
		},
		{
			Name:        "/vars",
			Description: "List the running playthrough's variables",
			Usage:       "/vars",
			Handler:     cmdVars,
		},
		{
			Name:        "/set",
			Description: "Set a variable in the running playthrough",
			Usage:       "/set <$name> <value>",
			Handler:     cmdSet,
		},
		{
			Name:        "/visited",
			Description: "Show visit count for a node (default: current node)",
			Usage:       "/visited [node]",
			Handler:     cmdVisited,
			Complete:    completeNodeName,
		},
		{
			Name:        "/locale",
			Description: "Show or set the markup resolution locale",
			Usage:       "/locale [tag]",
			Handler:     cmdLocale,
		},
		{
			Name:        "/seed",
			Description: "Reseed the running playthrough's RNG",
			Usage:       "/seed <n> [n2]",
			Handler:     cmdSeed,
		},
		{
			Name:        "/strings",
			Description: "Dump the compiled project's string table",
			Usage:       "/strings",
			Handler:     cmdStrings,
		},
		{
			Name:        "/theme",
			Description: "Show or set the color theme",
			Usage:       "/theme [name]",
			Handler:     cmdTheme,
			Complete:    completeTheme,
		},
		{
			Name:        "/history",
			Description: "Show recent commands, re-run one, or clear history",
			Usage:       "/history [n|clear]",
			Handler:     cmdHistory,
		},
		{
			Name:        "/version",
			Description: "Show the dialogic version",
			Usage:       "/version",
			Handler:     cmdVersion,
		},
		{
			Name:        "/help",
			Aliases:     []string{"/?"},
			Description: "Show this help message",
			Usage:       "/help",
			Handler:     cmdHelp,
		},
		{
			Name:        "/quit",
			Aliases:     []string{"/exit", "/q"},
			Description: "Exit the REPL",
			Usage:       "/quit",
			Handler:     cmdQuit,
		},
	}

	for _, cmd := range commands {
		r.commands[cmd.Name] = cmd
		for _, alias := range cmd.Aliases {
			r.aliases[alias] = cmd.Name
		}
	}
}

func cmdOpen(r *REPL, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(r.errOut, cli.Error("Usage: /open <file.dlg> [file2.dlg ...]"))
		return
	}

	var files []compiler.Source
	for _, path := range args {
		data, err := readProjectFile(path)
		if err != nil {
			fmt.Fprintln(r.errOut, cli.Error(fmt.Sprintf("%s: %v", path, err)))
			return
		}
		files = append(files, compiler.Source{File: path, Text: data})
	}

	r.files = files
	r.compile()
}

func cmdCompile(r *REPL, args []string) {
	if !r.requireProject() {
		return
	}
	r.compile()
}

func cmdDiagnostics(r *REPL, args []string) {
	if r.diags == nil || (len(r.diags.Errors()) == 0 && len(r.diags.Warnings()) == 0) {
		fmt.Fprintln(r.out, "No diagnostics.")
		return
	}
	fmt.Fprint(r.out, r.diags.Format())
}

func cmdNodes(r *REPL, args []string) {
	if !r.requireCompiled() {
		return
	}
	names := r.program.NodeNames()
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintln(r.out, "  "+name)
	}
}

func cmdStart(r *REPL, args []string) {
	if !r.requireCompiled() {
		return
	}

	startNode := "Start"
	if len(args) > 0 {
		startNode = args[0]
	}

	r.startVM(startNode)
}

func cmdContinue(r *REPL, args []string) {
	if !r.requireVM() {
		return
	}
	r.printEvents(r.machine.Continue())
}

func cmdChoose(r *REPL, args []string) {
	if !r.requireVM() {
		return
	}
	if len(args) != 1 {
		fmt.Fprintln(r.errOut, cli.Error("Usage: /choose <index>"))
		return
	}
	idx, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintln(r.errOut, cli.Error("index must be a number"))
		return
	}
	if r.machine.State() != vm.StateWaitingOnOptionSelection {
		fmt.Fprintln(r.errOut, cli.Error("no pending options to choose from"))
		return
	}
	if idx < 0 || idx >= len(r.lastOptions) || !r.lastOptions[idx].Enabled {
		fmt.Fprintln(r.errOut, cli.Error(fmt.Sprintf("%d is not a valid, enabled option", idx)))
		return
	}
	r.machine.SetSelectedOption(idx)
	r.printEvents(r.machine.Continue())
}

func cmdStop(r *REPL, args []string) {
	if !r.requireVM() {
		return
	}
	r.machine.Stop()
	fmt.Fprintln(r.out, "Playthrough stopped.")
}

func cmdVars(r *REPL, args []string) {
	if !r.requireVM() {
		return
	}
	names := make([]string, 0, len(r.program.InitialValues))
	for name := range r.program.InitialValues {
		names = append(names, name)
	}
	if len(names) == 0 {
		fmt.Fprintln(r.out, "No declared variables.")
		return
	}
	sort.Strings(names)
	for _, name := range names {
		v, _ := r.storage.Get(name)
		fmt.Fprintf(r.out, "  %s = %s\n", name, v.AsString())
	}
}

func cmdSet(r *REPL, args []string) {
	if !r.requireVM() {
		return
	}
	if len(args) < 2 {
		fmt.Fprintln(r.errOut, cli.Error("Usage: /set <$name> <value>"))
		return
	}
	if err := setVariableFromLiteral(r.storage, args[0], strings.Join(args[1:], " ")); err != nil {
		fmt.Fprintln(r.errOut, cli.Error(err.Error()))
		return
	}
	fmt.Fprintln(r.out, cli.Success("Set "+args[0]))
}

func cmdVisited(r *REPL, args []string) {
	if !r.requireVM() {
		return
	}
	node := r.currentNode
	if len(args) > 0 {
		node = args[0]
	}
	if node == "" {
		fmt.Fprintln(r.errOut, cli.Error("no current node; pass a node name"))
		return
	}
	fmt.Fprintf(r.out, "%s visited %d time(s)\n", node, r.machine.VisitCount(node))
}

func cmdLocale(r *REPL, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(r.out, "Locale: "+r.locale)
		return
	}
	r.locale = args[0]
	fmt.Fprintln(r.out, cli.Success("Locale set to "+r.locale))
	if r.machine != nil {
		fmt.Fprintln(r.out, "Note: restart the playthrough (/start) for the new locale to take effect.")
	}
}

func cmdSeed(r *REPL, args []string) {
	if !r.requireVM() {
		return
	}
	if len(args) != 1 && len(args) != 2 {
		fmt.Fprintln(r.errOut, cli.Error("Usage: /seed <n> [n2]"))
		return
	}
	seed1, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		fmt.Fprintln(r.errOut, cli.Error("seed must be an unsigned integer"))
		return
	}
	seed2 := seed1
	if len(args) == 2 {
		seed2, err = strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			fmt.Fprintln(r.errOut, cli.Error("seed must be an unsigned integer"))
			return
		}
	}
	r.machine.SetSeed(seed1, seed2)
	fmt.Fprintln(r.out, cli.Success(fmt.Sprintf("Seeded with %d, %d", seed1, seed2)))
}

func cmdStrings(r *REPL, args []string) {
	if !r.requireCompiled() {
		return
	}
	entries := r.strings.All()
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	for _, e := range entries {
		fmt.Fprintf(r.out, "  %s  %s:%d  %q\n", e.ID, e.File, e.Line, e.Text)
	}
}

func cmdTheme(r *REPL, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(r.out, "Current theme: "+cli.CurrentThemeName())
		fmt.Fprintln(r.out, "Available: "+strings.Join(cli.ThemeNames(), ", "))
		return
	}
	if err := cli.SetTheme(args[0]); err != nil {
		fmt.Fprintln(r.errOut, cli.Error(err.Error()))
		return
	}
	fmt.Fprintln(r.out, cli.Success("Theme set to "+args[0]))
}

func cmdHistory(r *REPL, args []string) {
	if len(args) == 0 {
		if r.history.Len() == 0 {
			fmt.Fprintln(r.out, "No history.")
			return
		}
		for i, entry := range r.history.Entries() {
			fmt.Fprintf(r.out, "  %d  %s\n", i+1, entry)
		}
		return
	}

	if args[0] == "clear" {
		r.history.Clear()
		fmt.Fprintln(r.out, cli.Success("History cleared."))
		return
	}

	idx, err := strconv.Atoi(args[0])
	if err != nil || idx < 1 || idx > r.history.Len() {
		fmt.Fprintln(r.errOut, cli.Error(fmt.Sprintf("history entry %s does not exist", args[0])))
		return
	}

	line := r.history.Entries()[idx-1]
	fmt.Fprintln(r.out, "Re-executing: "+line)
	r.execute(line)
}

func cmdVersion(r *REPL, args []string) {
	fmt.Fprintln(r.out, "dialogic "+r.version)
}

func cmdHelp(r *REPL, args []string) {
	fmt.Fprintln(r.out, cli.Heading("Available Commands"))

	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		cmd := r.commands[name]
		line := fmt.Sprintf("  %-24s %s", cmd.Usage, cmd.Description)
		if len(cmd.Aliases) > 0 {
			line += " (" + strings.Join(cmd.Aliases, ", ") + ")"
		}
		fmt.Fprintln(r.out, line)
	}
}

func cmdQuit(r *REPL, args []string) {
	r.running = false
}
