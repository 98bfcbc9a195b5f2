// Package repl implements an interactive shell for playtesting dialogue
// projects: load source files, compile them, step a VM through events,
// and inspect variables and visit history as you go (spec.md §9
// "Interactive playtesting").
package repl

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/barun-bash/dialogic/internal/bytecode"
	"github.com/barun-bash/dialogic/internal/cli"
	"github.com/barun-bash/dialogic/internal/compiler"
	"github.com/barun-bash/dialogic/internal/diag"
	"github.com/barun-bash/dialogic/internal/library"
	"github.com/barun-bash/dialogic/internal/markup"
	"github.com/barun-bash/dialogic/internal/readline"
	"github.com/barun-bash/dialogic/internal/stringtable"
	"github.com/barun-bash/dialogic/internal/types"
	"github.com/barun-bash/dialogic/internal/vm"
)

// REPL is the interactive dialogue playtesting shell.
type REPL struct {
	version  string
	in       io.Reader
	out      io.Writer
	errOut   io.Writer
	scanner  *bufio.Scanner     // used for scanLine() sub-prompts
	rl       *readline.Instance // nil when input is not an *os.File
	history  *History
	commands map[string]*Command
	aliases  map[string]string
	running  bool

	// Loaded project state.
	files   []compiler.Source
	program *bytecode.Program
	strings *stringtable.Table
	diags   *diag.Diagnostics

	// Active playthrough.
	machine     *vm.VirtualMachine
	resolver    *markupResolver
	storage     *vm.MemoryStorage
	currentNode string
	locale      string
	lastOptions []vm.OptionChoice // most recent Options event, for /choose bounds checking
}

// markupResolver adapts internal/markup onto vm.LineTextResolver, tying
// [plural]/[select]/[ordinal] resolution to the active VM's own variable
// storage.
type markupResolver struct {
	locale  markup.Resolver
	storage vm.VariableStorage
}

func (r *markupResolver) Resolve(lineID string, args []string) string {
	nodes := markup.Parse(lineID)
	return r.locale.Render(nodes, func(name string) string {
		if v, ok := r.storage.Get(name); ok {
			return v.AsString()
		}
		return ""
	})
}

// Option configures the REPL.
type Option func(*REPL)

// WithInput sets the input reader (default: os.Stdin).
func WithInput(r io.Reader) Option { return func(repl *REPL) { repl.in = r } }

// WithOutput sets the output writer (default: os.Stdout).
func WithOutput(w io.Writer) Option { return func(repl *REPL) { repl.out = w } }

// WithErrOutput sets the error output writer (default: os.Stderr).
func WithErrOutput(w io.Writer) Option { return func(repl *REPL) { repl.errOut = w } }

// New creates a REPL with the given version and options.
func New(version string, opts ...Option) *REPL {
	r := &REPL{
		version:  version,
		in:       os.Stdin,
		out:      os.Stdout,
		errOut:   os.Stderr,
		commands: make(map[string]*Command),
		aliases:  make(map[string]string),
		locale:   "en-US",
	}
	for _, opt := range opts {
		opt(r)
	}

	if f, ok := r.in.(*os.File); ok {
		r.rl = readline.New(f, r.out)
	}

	r.scanner = bufio.NewScanner(r.in)
	r.history = NewHistory()
	r.registerCommands()
	return r
}

// Run starts the REPL loop: banner, prompt, read, dispatch, repeat.
func (r *REPL) Run() {
	r.autoDetectProject()
	r.printBanner()
	r.running = true

	if r.rl != nil && r.rl.IsTTY() {
		r.runReadline()
	} else {
		r.runScanner()
	}

	r.history.Save()
}

func (r *REPL) runReadline() {
	r.rl.SetCompleter(r.buildCompleter())

	for r.running {
		r.rl.SetPrompt(r.promptString())
		r.rl.SetHistory(r.history.Entries())

		line, err := r.rl.ReadLine()
		if err != nil {
			fmt.Fprintln(r.out, "Goodbye.")
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		r.history.Add(line)
		r.execute(line)
	}
}

func (r *REPL) runScanner() {
	for r.running {
		r.printPrompt()
		if !r.scanner.Scan() {
			fmt.Fprintln(r.out)
			fmt.Fprintln(r.out, "Goodbye.")
			break
		}

		line := strings.TrimSpace(r.scanner.Text())
		if line == "" {
			continue
		}

		r.history.Add(line)
		r.execute(line)
	}
}

// scanLine reads one line from the shared scanner, for command handlers
// that need a sub-prompt. Returns the trimmed line and false at EOF.
func (r *REPL) scanLine() (string, bool) {
	if !r.scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(r.scanner.Text()), true
}

func (r *REPL) promptString() string {
	name := "dialogic"
	if len(r.files) == 1 {
		name = strings.TrimSuffix(filepath.Base(r.files[0].File), filepath.Ext(r.files[0].File))
	} else if len(r.files) > 1 {
		name = fmt.Sprintf("%s+%d", strings.TrimSuffix(filepath.Base(r.files[0].File), filepath.Ext(r.files[0].File)), len(r.files)-1)
	}
	if r.machine != nil {
		name += ":" + r.machine.State().String()
	}

	if cli.ColorEnabled {
		return cli.Accent(name+"_>") + " "
	}
	return name + "_> "
}

// autoDetectProject loads every *.dlg file in the current directory if
// any exist, so a bare `dialogic repl` invocation in a project directory
// has something to play immediately.
func (r *REPL) autoDetectProject() {
	matches, _ := filepath.Glob("*.dlg")
	if len(matches) == 0 {
		return
	}
	var files []compiler.Source
	for _, m := range matches {
		data, err := os.ReadFile(m)
		if err != nil {
			continue
		}
		files = append(files, compiler.Source{File: m, Text: string(data)})
	}
	if len(files) == 0 {
		return
	}
	r.files = files
	r.compile()
}

// printBanner displays the startup banner.
func (r *REPL) printBanner() {
	info := &cli.BannerInfo{}
	if len(r.files) > 0 {
		info.ProjectFile = r.files[0].File
		info.ProjectName = strings.TrimSuffix(filepath.Base(r.files[0].File), filepath.Ext(r.files[0].File))
	}
	cli.PrintBanner(r.out, r.version, true, info)
}

func (r *REPL) printPrompt() {
	fmt.Fprint(r.out, r.promptString())
}

// execute dispatches a line of input to the appropriate command handler.
func (r *REPL) execute(line string) {
	if !strings.HasPrefix(line, "/") {
		fmt.Fprintln(r.out, "Commands start with /. Type /help for a list.")
		return
	}

	parts := strings.Fields(line)
	name := strings.ToLower(parts[0])
	args := parts[1:]

	if target, ok := r.aliases[name]; ok {
		name = target
	}

	cmd, ok := r.commands[name]
	if !ok {
		r.suggestCommand(name)
		return
	}

	cmd.Handler(r, args)
}

func (r *REPL) suggestCommand(name string) {
	fmt.Fprintf(r.errOut, "Unknown command: %s\n", name)

	candidates := make([]string, 0, len(r.commands))
	for k := range r.commands {
		candidates = append(candidates, k)
	}

	if closest := diag.FindClosest(name, candidates, 0.5); closest != "" {
		fmt.Fprintf(r.errOut, "Did you mean %s?\n", closest)
	} else {
		fmt.Fprintln(r.errOut, "Type /help for a list of commands.")
	}
}

// requireProject checks that source files are loaded, printing an error
// if not. Returns true if a project is loaded.
func (r *REPL) requireProject() bool {
	if len(r.files) == 0 {
		fmt.Fprintln(r.errOut, cli.Error("No project loaded. Use /open <file.dlg> [file2.dlg ...] to load one."))
		return false
	}
	return true
}

// requireCompiled checks that the loaded project compiled successfully.
func (r *REPL) requireCompiled() bool {
	if !r.requireProject() {
		return false
	}
	if r.program == nil {
		fmt.Fprintln(r.errOut, cli.Error("Project has compile errors. Use /diagnostics to see them."))
		return false
	}
	return true
}

// requireVM checks that a VM is running.
func (r *REPL) requireVM() bool {
	if r.machine == nil {
		fmt.Fprintln(r.errOut, cli.Error("No playthrough running. Use /start [node] to begin."))
		return false
	}
	return true
}

// compile recompiles r.files and stores the result (or diagnostics) on
// the REPL, discarding any in-progress playthrough — a stale VM pointing
// at a now-replaced bytecode.Program would produce nonsensical output.
func (r *REPL) compile() {
	r.machine = nil
	r.resolver = nil

	result, err := compiler.CompileProject(r.files, nil, nil)
	if err != nil {
		if cerr, ok := err.(*compiler.Error); ok {
			r.diags = cerr.Diagnostics
			r.program = nil
			r.strings = nil
			fmt.Fprintln(r.errOut, cli.Error(fmt.Sprintf("%d compile error(s). See /diagnostics.", len(r.diags.Errors()))))
			return
		}
		fmt.Fprintln(r.errOut, cli.Error(err.Error()))
		return
	}

	r.program = result.Program
	r.strings = result.Strings
	r.diags = result.Diagnostics
	fmt.Fprintln(r.out, cli.Success(fmt.Sprintf("Compiled %d node(s).", len(r.program.Nodes))))
}

// startVM builds a fresh VM over the compiled program and begins a
// playthrough at startNode, printing whatever events the first Continue
// call produces.
func (r *REPL) startVM(startNode string) {
	r.storage = vm.NewMemoryStorage()
	r.currentNode = ""
	r.resolver = &markupResolver{locale: markup.NewResolver(r.locale), storage: r.storage}
	r.machine = vm.New(r.program, r.storage, library.NewDefault(nil))
	r.machine.Resolver = r.resolver

	if !r.machine.NodeExists(startNode) {
		fmt.Fprintln(r.errOut, cli.Error(fmt.Sprintf("unknown node %q", startNode)))
		r.machine = nil
		return
	}
	r.machine.SetStartNode(startNode)

	fmt.Fprintln(r.out, cli.Success("Started at "+startNode))
	r.printEvents(r.machine.Continue())
}

// printEvents renders a batch of dialogue events to the REPL's output,
// tracking the current node along the way for /visited's default.
func (r *REPL) printEvents(events []vm.DialogueEvent) {
	for _, e := range events {
		switch e.Kind {
		case vm.EventNodeStart:
			r.currentNode = e.Node
		case vm.EventLine:
			fmt.Fprintln(r.out, e.Text)
		case vm.EventOptions:
			r.lastOptions = e.Options
			for i, o := range e.Options {
				marker := " "
				if !o.Enabled {
					marker = "x"
				}
				fmt.Fprintf(r.out, "  [%s] %d) %s\n", marker, i, o.Text)
			}
		case vm.EventCommand:
			var args []string
			for _, a := range e.CommandArgs {
				args = append(args, a.AsString())
			}
			fmt.Fprintf(r.out, "<<%s %s>>\n", e.CommandName, strings.Join(args, " "))
		case vm.EventNodeComplete:
			// nothing to render; node transitions are implicit in the next NodeStart.
		case vm.EventDialogueComplete:
			fmt.Fprintln(r.out, cli.Muted("-- dialogue complete --"))
		}
	}

	if r.machine.State() == vm.StateWaitingOnOptionSelection {
		fmt.Fprintln(r.out, "Use /choose <index> to pick an option.")
	}
}

// readProjectFile reads a dialogue source file from disk.
func readProjectFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// setVariableFromLiteral parses value as a bool, then a number, falling
// back to a string, and stores it under name (including its leading "$"
// if the caller passed one).
func setVariableFromLiteral(storage vm.VariableStorage, name, value string) error {
	switch strings.ToLower(value) {
	case "true":
		storage.Set(name, types.Bool(true))
		return nil
	case "false":
		storage.Set(name, types.Bool(false))
		return nil
	}

	if n, err := strconv.ParseFloat(value, 64); err == nil {
		storage.Set(name, types.Number(n))
		return nil
	}

	storage.Set(name, types.String(value))
	return nil
}
