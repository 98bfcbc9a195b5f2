// Command dialogic is the dialogue compiler's CLI: check and build
// projects, play them headlessly or interactively, and manage their
// string tables.
package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/kylelemons/godebug/pretty"

	"github.com/barun-bash/dialogic/internal/bytecode"
	"github.com/barun-bash/dialogic/internal/cli"
	"github.com/barun-bash/dialogic/internal/compiler"
	"github.com/barun-bash/dialogic/internal/config"
	"github.com/barun-bash/dialogic/internal/diag"
	"github.com/barun-bash/dialogic/internal/markup"
	"github.com/barun-bash/dialogic/internal/repl"
	"github.com/barun-bash/dialogic/internal/stringtable"
	"github.com/barun-bash/dialogic/internal/version"
	"github.com/barun-bash/dialogic/internal/vm"
)

func main() {
	args := filterGlobalFlags(os.Args[1:])

	if len(args) < 1 {
		printUsage()
		os.Exit(0)
	}

	switch args[0] {
	case "version", "--version", "-v":
		fmt.Printf("dialogic v%s\n", version.Info())
	case "help", "--help", "-h":
		printUsage()
	case "check":
		cmdCheck(args[1:])
	case "build":
		cmdBuild(args[1:])
	case "run":
		cmdRun(args[1:])
	case "repl":
		cmdRepl(args[1:])
	case "strings":
		cmdStrings(args[1:])
	case "dump":
		cmdDump(args[1:])
	default:
		fmt.Fprintln(os.Stderr, cli.Error(fmt.Sprintf("Unknown command: %s", args[0])))
		fmt.Fprintln(os.Stderr)
		printUsage()
		os.Exit(1)
	}
}

// filterGlobalFlags strips --no-color from the args list and applies it.
func filterGlobalFlags(args []string) []string {
	var filtered []string
	for _, arg := range args {
		if arg == "--no-color" {
			cli.ColorEnabled = false
		} else {
			filtered = append(filtered, arg)
		}
	}
	return filtered
}

// ── check ──

func cmdCheck(args []string) {
	files := globOrArgs(args)
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: dialogic check <file.dlg...>")
		os.Exit(1)
	}

	sources, err := readSources(files)
	if err != nil {
		fmt.Fprintln(os.Stderr, cli.Error(err.Error()))
		os.Exit(1)
	}

	spinner := cli.NewSpinner(os.Stdout, fmt.Sprintf("Checking %d file%s...", len(files), plural(len(files))))
	spinner.Start()
	result, err := compiler.CompileProject(sources, nil, nil)
	spinner.Stop()
	if err != nil {
		printCompileError(err)
		os.Exit(1)
	}

	for _, w := range result.Diagnostics.Warnings() {
		printDiagnostic(w)
	}

	msg := fmt.Sprintf("%d file%s valid — %d node%s, %d string%s",
		len(files), plural(len(files)),
		len(result.Program.Nodes), plural(len(result.Program.Nodes)),
		len(result.Strings.All()), plural(len(result.Strings.All())))
	fmt.Println(cli.Success(msg))
}

// ── build ──

func cmdBuild(args []string) {
	var out string
	var files []string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--out", "-o":
			if i+1 < len(args) {
				i++
				out = args[i]
			}
		default:
			if !strings.HasPrefix(args[i], "-") {
				files = append(files, args[i])
			}
		}
	}
	files = globOrArgs(files)
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: dialogic build [--out path] <file.dlg...>")
		os.Exit(1)
	}

	sources, err := readSources(files)
	if err != nil {
		fmt.Fprintln(os.Stderr, cli.Error(err.Error()))
		os.Exit(1)
	}

	box := cli.NewProgressBox(os.Stdout, "dialogic build", []string{
		"Parsing", "Collecting declarations", "Extracting strings", "Type checking", "Generating bytecode",
	})
	box.Start()
	var lastStage string
	result, err := compiler.CompileProject(sources, nil, func(stage string) {
		lastStage = stage
		box.Update(stage)
	})
	if err != nil {
		box.FailStage(lastStage)
		printCompileError(err)
		os.Exit(1)
	}
	box.Finish()

	if out == "" {
		base := strings.TrimSuffix(filepath.Base(files[0]), filepath.Ext(files[0]))
		out = filepath.Join(".dialogic", "build", base+".json")
	}

	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		fmt.Fprintln(os.Stderr, cli.Error(fmt.Sprintf("Error creating output directory: %v", err)))
		os.Exit(1)
	}

	data, err := bytecode.ToJSON(result.Program)
	if err != nil {
		fmt.Fprintln(os.Stderr, cli.Error(fmt.Sprintf("Serialization error: %v", err)))
		os.Exit(1)
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		fmt.Fprintln(os.Stderr, cli.Error(fmt.Sprintf("Error writing %s: %v", out, err)))
		os.Exit(1)
	}

	fmt.Println(cli.Success(fmt.Sprintf("Built %d file%s → %s (%d node%s, %.0fms)",
		len(files), plural(len(files)), out,
		len(result.Program.Nodes), plural(len(result.Program.Nodes)),
		float64(result.Timing.Microseconds())/1000)))
}

// ── run ──

func cmdRun(args []string) {
	var startNode, locale string
	var seed1, seed2 uint64
	var hasSeed bool
	var files []string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--start":
			if i+1 < len(args) {
				i++
				startNode = args[i]
			}
		case "--locale":
			if i+1 < len(args) {
				i++
				locale = args[i]
			}
		case "--seed":
			if i+1 < len(args) {
				i++
				n, err := strconv.ParseUint(args[i], 10, 64)
				if err != nil {
					fmt.Fprintln(os.Stderr, cli.Error("--seed requires a non-negative integer"))
					os.Exit(1)
				}
				seed1, seed2, hasSeed = n, n, true
			}
		default:
			if !strings.HasPrefix(args[i], "-") {
				files = append(files, args[i])
			}
		}
	}
	files = globOrArgs(files)
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: dialogic run [--start node] [--locale tag] [--seed n] <file.dlg...>")
		os.Exit(1)
	}

	sources, err := readSources(files)
	if err != nil {
		fmt.Fprintln(os.Stderr, cli.Error(err.Error()))
		os.Exit(1)
	}

	result, err := compiler.CompileProject(sources, nil, nil)
	if err != nil {
		printCompileError(err)
		os.Exit(1)
	}

	cfg, _ := config.Load(".")
	if startNode == "" {
		startNode = cfg.DefaultStartNode
	}
	if locale == "" {
		locale = cfg.DefaultLocale
	}

	storage := vm.NewMemoryStorage()
	machine := vm.New(result.Program, storage, nil)
	if hasSeed {
		machine.SetSeed(seed1, seed2)
	}
	localeResolver := markup.NewResolver(locale)
	machine.Resolver = runResolver{locale: localeResolver, storage: storage}

	if !machine.NodeExists(startNode) {
		fmt.Fprintln(os.Stderr, cli.Error(fmt.Sprintf("unknown start node %q", startNode)))
		os.Exit(1)
	}
	machine.SetStartNode(startNode)

	ctx, cancel := cli.SetupSignalHandler()
	defer cancel()
	sw := cli.NewStreamWriter(os.Stdout)

	var lastOptions []vm.OptionChoice
	in := bufio.NewScanner(os.Stdin)
	for {
		if ctx.Err() != nil {
			cli.Cancelled(os.Stdout)
			return
		}
		events := machine.Continue()
		done := printRunEvents(sw, events, &lastOptions)
		if done {
			return
		}
		if ctx.Err() != nil {
			cli.Cancelled(os.Stdout)
			return
		}
		if machine.State() == vm.StateWaitingOnOptionSelection {
			fmt.Print("> ")
			if !in.Scan() {
				return
			}
			idx, err := strconv.Atoi(strings.TrimSpace(in.Text()))
			if err != nil {
				fmt.Fprintln(os.Stderr, cli.Error("enter the option's number"))
				continue
			}
			if idx < 0 || idx >= len(lastOptions) || !lastOptions[idx].Enabled {
				fmt.Fprintln(os.Stderr, cli.Error(fmt.Sprintf("%d is not a valid, enabled option", idx)))
				continue
			}
			machine.SetSelectedOption(idx)
		}
	}
}

// runResolver composes a markup.Resolver for one locale with a
// vm.VariableStorage, matching the signature vm.LineTextResolver needs.
type runResolver struct {
	locale  markup.Resolver
	storage vm.VariableStorage
}

func (r runResolver) Resolve(lineID string, args []string) string {
	nodes := markup.Parse(lineID)
	return r.locale.Render(nodes, func(name string) string {
		if v, ok := r.storage.Get(name); ok {
			return v.AsString()
		}
		return ""
	})
}

// printRunEvents prints one batch of events and reports whether the
// dialogue has finished.
func printRunEvents(sw *cli.StreamWriter, events []vm.DialogueEvent, lastOptions *[]vm.OptionChoice) bool {
	for _, ev := range events {
		switch ev.Kind {
		case vm.EventLine:
			fmt.Fprintln(sw, ev.Text)
		case vm.EventOptions:
			*lastOptions = ev.Options
			for i, opt := range ev.Options {
				fmt.Printf("  %d) %s\n", i, opt.Text)
			}
		case vm.EventCommand:
			argStrs := make([]string, len(ev.CommandArgs))
			for i, a := range ev.CommandArgs {
				argStrs[i] = a.AsString()
			}
			fmt.Fprintln(sw, cli.Info(fmt.Sprintf("<<%s %s>>", ev.CommandName, strings.Join(argStrs, " "))))
		case vm.EventDialogueComplete:
			sw.Finish()
			fmt.Println(cli.Success("Dialogue complete."))
			return true
		}
	}
	return false
}

// ── repl ──

func cmdRepl(args []string) {
	_ = args // files are opened interactively via /open, not passed on the command line
	r := repl.New(version.Info())
	r.Run()
}

// ── strings ──

func cmdStrings(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: dialogic strings <export|update> [options] <file.dlg...>")
		os.Exit(1)
	}
	switch args[0] {
	case "export":
		cmdStringsExport(args[1:])
	case "update":
		cmdStringsUpdate(args[1:])
	default:
		fmt.Fprintln(os.Stderr, cli.Error(fmt.Sprintf("Unknown strings subcommand: %s", args[0])))
		os.Exit(1)
	}
}

func cmdStringsExport(args []string) {
	var out string
	var files []string
	for i := 0; i < len(args); i++ {
		if args[i] == "--out" && i+1 < len(args) {
			i++
			out = args[i]
			continue
		}
		if !strings.HasPrefix(args[i], "-") {
			files = append(files, args[i])
		}
	}
	files = globOrArgs(files)
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: dialogic strings export [--out strings.csv] <file.dlg...>")
		os.Exit(1)
	}

	sources, err := readSources(files)
	if err != nil {
		fmt.Fprintln(os.Stderr, cli.Error(err.Error()))
		os.Exit(1)
	}
	result, err := compiler.CompileProject(sources, nil, nil)
	if err != nil {
		printCompileError(err)
		os.Exit(1)
	}

	csvData, err := result.Strings.WriteCSV()
	if err != nil {
		fmt.Fprintln(os.Stderr, cli.Error(fmt.Sprintf("CSV encoding error: %v", err)))
		os.Exit(1)
	}

	if out == "" {
		cfg, _ := config.Load(".")
		out = cfg.StringsFile
	}
	if err := os.WriteFile(out, []byte(csvData), 0644); err != nil {
		fmt.Fprintln(os.Stderr, cli.Error(fmt.Sprintf("Error writing %s: %v", out, err)))
		os.Exit(1)
	}

	fmt.Println(cli.Success(fmt.Sprintf("Exported %d string%s → %s", len(result.Strings.All()), plural(len(result.Strings.All())), out)))
}

func cmdStringsUpdate(args []string) {
	var existingPath string
	var files []string
	for i := 0; i < len(args); i++ {
		if args[i] == "--existing" && i+1 < len(args) {
			i++
			existingPath = args[i]
			continue
		}
		if !strings.HasPrefix(args[i], "-") {
			files = append(files, args[i])
		}
	}
	files = globOrArgs(files)
	if existingPath == "" {
		cfg, _ := config.Load(".")
		existingPath = cfg.StringsFile
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: dialogic strings update [--existing strings.csv] <file.dlg...>")
		os.Exit(1)
	}

	existingData, err := os.ReadFile(existingPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, cli.Error(fmt.Sprintf("Error reading %s: %v", existingPath, err)))
		os.Exit(1)
	}
	existing, err := stringtable.ReadCSV(string(existingData))
	if err != nil {
		fmt.Fprintln(os.Stderr, cli.Error(fmt.Sprintf("Error parsing %s: %v", existingPath, err)))
		os.Exit(1)
	}

	sources, err := readSources(files)
	if err != nil {
		fmt.Fprintln(os.Stderr, cli.Error(err.Error()))
		os.Exit(1)
	}
	result, err := compiler.CompileProject(sources, nil, nil)
	if err != nil {
		printCompileError(err)
		os.Exit(1)
	}

	diffResult := stringtable.Update(existing, result.Strings)
	csvData, err := diffResult.Merged.WriteCSV()
	if err != nil {
		fmt.Fprintln(os.Stderr, cli.Error(fmt.Sprintf("CSV encoding error: %v", err)))
		os.Exit(1)
	}
	if err := os.WriteFile(existingPath, []byte(csvData), 0644); err != nil {
		fmt.Fprintln(os.Stderr, cli.Error(fmt.Sprintf("Error writing %s: %v", existingPath, err)))
		os.Exit(1)
	}

	fmt.Println(cli.Success(fmt.Sprintf("Updated %s", existingPath)))
	if len(diffResult.Added) > 0 {
		fmt.Println(cli.Info(fmt.Sprintf("  +%d added: %s", len(diffResult.Added), strings.Join(diffResult.Added, ", "))))
	}
	if len(diffResult.Removed) > 0 {
		fmt.Println(cli.Warn(fmt.Sprintf("  -%d removed (now unused): %s", len(diffResult.Removed), strings.Join(diffResult.Removed, ", "))))
	}
	if len(diffResult.Changed) > 0 {
		fmt.Println(cli.Warn(fmt.Sprintf("  ~%d source text changed, translations may be stale: %s", len(diffResult.Changed), strings.Join(diffResult.Changed, ", "))))
	}
}

// ── dump ──

func cmdDump(args []string) {
	var debug bool
	var files []string
	for _, a := range args {
		if a == "--pretty" || a == "--debug" {
			debug = true
			continue
		}
		files = append(files, a)
	}
	files = globOrArgs(files)
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: dialogic dump [--pretty] <file.dlg...>")
		os.Exit(1)
	}

	sources, err := readSources(files)
	if err != nil {
		fmt.Fprintln(os.Stderr, cli.Error(err.Error()))
		os.Exit(1)
	}
	result, err := compiler.CompileProject(sources, nil, nil)
	if err != nil {
		printCompileError(err)
		os.Exit(1)
	}

	if debug {
		fmt.Println(pretty.Sprint(result.Program))
		return
	}

	data, err := bytecode.ToJSON(result.Program)
	if err != nil {
		fmt.Fprintln(os.Stderr, cli.Error(fmt.Sprintf("Serialization error: %v", err)))
		os.Exit(1)
	}
	fmt.Println(string(data))
}

// ── helpers ──

// globOrArgs expands any arg containing a glob metacharacter (*, ? or [)
// via filepath.Glob, passes other args through unchanged, and
// also auto-detects every *.dlg file in the current directory when args
// is empty.
func globOrArgs(args []string) []string {
	if len(args) == 0 {
		matches, _ := filepath.Glob("*.dlg")
		sort.Strings(matches)
		return matches
	}
	var out []string
	for _, a := range args {
		if strings.ContainsAny(a, "*?[") {
			matches, _ := filepath.Glob(a)
			out = append(out, matches...)
			continue
		}
		out = append(out, a)
	}
	return out
}

func readSources(files []string) ([]compiler.Source, error) {
	sources := make([]compiler.Source, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f, err)
		}
		sources = append(sources, compiler.Source{File: f, Text: string(data)})
	}
	return sources, nil
}

func printCompileError(err error) {
	cerr, ok := err.(*compiler.Error)
	if !ok {
		fmt.Fprintln(os.Stderr, cli.Error(err.Error()))
		return
	}
	for _, d := range cerr.Diagnostics.Errors() {
		printDiagnostic(d)
	}
	for _, w := range cerr.Diagnostics.Warnings() {
		printDiagnostic(w)
	}
	fmt.Fprintf(os.Stderr, "\n%s\n", cli.Error(fmt.Sprintf("%d error(s) found", len(cerr.Diagnostics.Errors()))))
}

func printDiagnostic(d *diag.Diagnostic) {
	switch d.Severity {
	case diag.SeverityWarning:
		fmt.Fprintln(os.Stderr, cli.Warn(d.Format()))
	default:
		fmt.Fprintln(os.Stderr, cli.Error(d.Format()))
	}
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

func printUsage() {
	fmt.Print(`dialogic — a dialogue-scripting compiler and runtime.

Usage:
  dialogic <command> [options] [file...]

Commands:
  check <file...>                   Validate one or more .dlg files
  build [--out path] <file...>      Compile to bytecode JSON
  run [--start node] [--locale tag] [--seed n] <file...>
                                     Play a project headlessly on the terminal
  repl                              Launch the interactive playtesting REPL
  strings export [--out csv] <file...>
                                     Extract the string table to CSV
  strings update [--existing csv] <file...>
                                     Merge fresh extraction into an existing CSV
  dump [--pretty] <file...>         Print the compiled bytecode as JSON
                                     (--pretty prints a Go-struct debug dump instead)

Flags:
  --no-color        Disable colored output
  --version, -v     Print the compiler version
  --help, -h        Show this help message
`)
}
