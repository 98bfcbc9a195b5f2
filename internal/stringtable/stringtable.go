// Package stringtable implements the string extraction pass and the
// CSV "strings file" wire format used for localization (spec.md §4.3,
// §6 "String table entry" / "String table file").
package stringtable

import (
	"crypto/sha256"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/barun-bash/dialogic/internal/parser"
)

// Entry is one string table record: a stable line ID plus the text and
// provenance needed for localization tooling (spec.md §6).
type Entry struct {
	ID       string
	Text     string
	File     string
	Node     string
	Line     int
	Implicit bool     // true when ID was hash-derived rather than author-supplied
	Metadata []string // #hashtags other than the #line:… one
}

// Table is an ordered collection of string table entries, indexed by ID.
type Table struct {
	entries []*Entry
	byID    map[string]*Entry
}

// NewTable returns an empty string table.
func NewTable() *Table {
	return &Table{byID: make(map[string]*Entry)}
}

// Add inserts an entry. A duplicate ID overwrites the prior entry but
// keeps its original position, matching append-order semantics for
// unique IDs.
func (t *Table) Add(e *Entry) {
	if _, exists := t.byID[e.ID]; !exists {
		t.entries = append(t.entries, e)
	}
	t.byID[e.ID] = e
}

// Get returns the entry for a line ID, if any.
func (t *Table) Get(id string) (*Entry, bool) {
	e, ok := t.byID[id]
	return e, ok
}

// All returns every entry in insertion order.
func (t *Table) All() []*Entry {
	out := make([]*Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Extract walks every node in prog, computing a stable line_id for each
// line statement and option (author "#line:…" hashtag takes precedence;
// otherwise the ID is deterministically derived from a hash of
// (file, node, line number, text) — spec.md §4.3), and records one
// string table entry per line. Any "{n}" positional markers already
// substituted by the parser are left intact in Text.
func Extract(prog *parser.Program, file string) *Table {
	table := NewTable()
	for _, node := range prog.Nodes {
		extractBody(table, node.Body, file, node.Title)
	}
	return table
}

func extractBody(table *Table, stmts []parser.Statement, file, node string) {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *parser.LineStatement:
			table.Add(entryFor(s.LineID, s.Text, s.Hashtags, file, node, s.Line))
		case *parser.OptionGroup:
			for _, opt := range s.Options {
				table.Add(entryFor(opt.LineID, opt.Text, opt.Hashtags, file, node, opt.Line))
				extractBody(table, opt.Body, file, node)
			}
		case *parser.IfStatement:
			for _, branch := range s.Branches {
				extractBody(table, branch.Body, file, node)
			}
			extractBody(table, s.Else, file, node)
		}
	}
}

func entryFor(lineID, text string, hashtags []string, file, node string, line int) *Entry {
	metadata := make([]string, 0, len(hashtags))
	for _, h := range hashtags {
		if strings.HasPrefix(h, "#line:") {
			continue
		}
		metadata = append(metadata, h)
	}

	implicit := lineID == ""
	id := lineID
	if implicit {
		id = GenerateLineID(file, node, line, text)
	}
	return &Entry{ID: id, Text: text, File: file, Node: node, Line: line, Implicit: implicit, Metadata: metadata}
}

// GenerateLineID deterministically derives a canonical "line:<hex>"
// identifier from a line's (file, node, line number, text) (spec.md §6
// "Line IDs").
func GenerateLineID(file, node string, line int, text string) string {
	h := sha256.Sum256([]byte(file + "\x00" + node + "\x00" + strconv.Itoa(line) + "\x00" + text))
	return "line:" + fmt.Sprintf("%x", h[:8])
}

// LockHash computes the 8-character drift-detection hash stored in the
// strings file's "lock" column (spec.md §6).
func LockHash(text string) string {
	h := sha256.Sum256([]byte(text))
	return fmt.Sprintf("%x", h[:4])
}

// WriteCSV renders the table as the strings-file CSV format:
// "id,text,file,node,lineNumber,lock,comment" (spec.md §6).
func (t *Table) WriteCSV() (string, error) {
	var buf strings.Builder
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"id", "text", "file", "node", "lineNumber", "lock", "comment"}); err != nil {
		return "", err
	}
	entries := t.All()
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	for _, e := range entries {
		comment := ""
		if len(e.Metadata) > 0 {
			comment = strings.Join(e.Metadata, " ")
		}
		row := []string{e.ID, e.Text, e.File, e.Node, strconv.Itoa(e.Line), LockHash(e.Text), comment}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	return buf.String(), w.Error()
}

// ReadCSV parses a strings-file CSV document into a Table.
func ReadCSV(data string) (*Table, error) {
	r := csv.NewReader(strings.NewReader(data))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("stringtable: invalid strings file: %w", err)
	}
	table := NewTable()
	for i, rec := range records {
		if i == 0 || len(rec) == 0 {
			continue // header row
		}
		for len(rec) < 7 {
			rec = append(rec, "")
		}
		line, _ := strconv.Atoi(rec[4])
		var metadata []string
		if rec[6] != "" {
			metadata = strings.Fields(rec[6])
		}
		table.Add(&Entry{ID: rec[0], Text: rec[1], File: rec[2], Node: rec[3], Line: line, Metadata: metadata})
	}
	return table, nil
}

// UpdateResult summarizes the effect of merging freshly extracted entries
// into an existing strings file (spec.md §5 supplemented feature).
type UpdateResult struct {
	Merged  *Table
	Added   []string // IDs present only in fresh
	Removed []string // IDs present only in existing (now obsolete)
	Changed []string // IDs present in both whose source text changed
}

// Update merges a freshly extracted table into an existing one loaded
// from a strings file on disk, preserving existing entries' text
// (translators may have already adapted it) while flagging text drift
// via the lock hash, and reporting additions/removals for the author.
func Update(existing, fresh *Table) UpdateResult {
	result := UpdateResult{Merged: NewTable()}
	freshIDs := make(map[string]bool, len(fresh.entries))

	for _, e := range fresh.entries {
		freshIDs[e.ID] = true
		if old, ok := existing.Get(e.ID); ok {
			merged := *old
			merged.File, merged.Node, merged.Line = e.File, e.Node, e.Line
			if LockHash(old.Text) != LockHash(e.Text) {
				result.Changed = append(result.Changed, e.ID)
			}
			result.Merged.Add(&merged)
		} else {
			result.Added = append(result.Added, e.ID)
			result.Merged.Add(e)
		}
	}
	for _, e := range existing.entries {
		if !freshIDs[e.ID] {
			result.Removed = append(result.Removed, e.ID)
		}
	}
	return result
}
