// Package compiler implements the multi-file compile pipeline: parsing
// every source file, merging their declaration and string tables, type
// checking across the whole project, lowering each file's nodes to
// bytecode, and combining the results into one bytecode.Program (spec.md
// §4 end-to-end, §4.3 "Declaration pass", §4.4 "Type checking", §4.5
// "Code generation").
package compiler

import (
	"fmt"
	"time"

	"github.com/barun-bash/dialogic/internal/bytecode"
	"github.com/barun-bash/dialogic/internal/checker"
	"github.com/barun-bash/dialogic/internal/codegen"
	"github.com/barun-bash/dialogic/internal/decl"
	"github.com/barun-bash/dialogic/internal/diag"
	"github.com/barun-bash/dialogic/internal/library"
	"github.com/barun-bash/dialogic/internal/parser"
	"github.com/barun-bash/dialogic/internal/stringtable"
)

// Source is one input file: its name (used for diagnostics, line-ID
// derivation, and provenance) and its raw text.
type Source struct {
	File string
	Text string
}

// ProgressFunc is called before each compile stage with the stage name,
// letting a CLI or host render a progress indicator.
type ProgressFunc func(stage string)

// Result is the outcome of a successful CompileProject call.
type Result struct {
	Program     *bytecode.Program
	Strings     *stringtable.Table
	Decls       *decl.Table
	Diagnostics *diag.Diagnostics
	Timing      time.Duration
}

// Error wraps a failed compile: any file's diagnostics had errors, or
// merging two files' bytecode collided on a node name.
type Error struct {
	Diagnostics *diag.Diagnostics
}

func (e *Error) Error() string {
	return fmt.Sprintf("compiler: %d error(s):\n%s", len(e.Diagnostics.Errors()), e.Diagnostics.Format())
}

// CompileProject runs the full pipeline over every source file and
// returns one combined Program. Declarations and deferred-type
// diagnostics are resolved across the whole project before any is
// reported: a variable left undeclared in file A but declared in file B
// is not an error (spec.md §4.4 "deferred type diagnostics").
func CompileProject(sources []Source, lib *library.Registry, progress ProgressFunc) (*Result, error) {
	start := time.Now()
	report := func(stage string) {
		if progress != nil {
			progress(stage)
		}
	}
	if lib == nil {
		lib = library.NewDefault(nil)
	}

	d := diag.New("")
	type parsed struct {
		file string
		prog *parser.Program
	}

	report("Parsing")
	var files []parsed
	for _, src := range sources {
		prog, fileDiag := parser.Parse(src.Text, src.File)
		d.Merge(fileDiag)
		files = append(files, parsed{file: src.File, prog: prog})
	}

	report("Collecting declarations")
	decls := decl.NewTable()
	for _, f := range files {
		fileDecls := decl.Collect(f.prog, f.file, d)
		for _, entry := range fileDecls.All() {
			decls.Put(entry)
		}
	}

	report("Extracting strings")
	strings := stringtable.NewTable()
	for _, f := range files {
		fileStrings := stringtable.Extract(f.prog, f.file)
		for _, entry := range fileStrings.All() {
			strings.Add(entry)
		}
	}

	report("Type checking")
	deferred := make(map[string]int)
	for _, f := range files {
		c := checker.New(decls, lib, d)
		for name, line := range c.Check(f.prog) {
			deferred[name] = line
		}
	}
	// A name one file left Undefined may have been resolved by a later
	// file's "<<declare>>" or assignment against the same shared decls
	// table; only report what is still unresolved once every file has run.
	for name := range deferred {
		if entry, ok := decls.Get(name); ok && entry.Type.IsConcrete() {
			delete(deferred, name)
		}
	}
	checker.ReportDeferred(d, deferred, decls)

	if d.HasErrors() {
		return nil, &Error{Diagnostics: d}
	}

	report("Generating bytecode")
	program := bytecode.NewProgram()
	for _, f := range files {
		filecode := codegen.Generate(f.prog, f.file, decls)
		if err := program.Merge(filecode); err != nil {
			d.AddError(diag.SingleLine(0, 0, 0), "E-LINK-001", err.Error())
			return nil, &Error{Diagnostics: d}
		}
	}

	return &Result{
		Program:     program,
		Strings:     strings,
		Decls:       decls,
		Diagnostics: d,
		Timing:      time.Since(start),
	}, nil
}
