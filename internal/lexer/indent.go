package lexer

import "github.com/barun-bash/dialogic/internal/diag"

// IndentLexer wraps a base Lexer (composition, not inheritance — spec.md
// §9 design note) and rewrites its flat NEWLINE-delimited stream into one
// with synthetic INDENT/DEDENT tokens, so the parser can treat option
// sub-bodies as ordinary indented blocks.
type IndentLexer struct {
	base *Lexer
	diag *diag.Diagnostics

	flat []Token
	pos  int // read cursor into flat

	lastIndent  int
	indentStack []int
	sawShortcut bool // current line contained a SHORTCUT_ARROW
}

// NewIndentLexer scans source with the base lexer and returns a wrapper
// ready to produce the augmented stream. Diagnostics for malformed
// indentation are appended to d.
func NewIndentLexer(source string, d *diag.Diagnostics) *IndentLexer {
	base := New(source)
	return &IndentLexer{
		base:        base,
		diag:        d,
		flat:        base.Tokenize(),
		indentStack: []int{0},
	}
}

// Tokens runs the wrapper algorithm over the whole base stream and returns
// the final augmented token list (spec.md §4.1).
func (il *IndentLexer) Tokens() []Token {
	var out []Token
	for il.pos < len(il.flat) {
		tok := il.flat[il.pos]
		il.pos++

		switch tok.Type {
		case SHORTCUT_ARROW:
			il.sawShortcut = true
			out = append(out, tok)
		case BODY_END:
			// Unwind unconditionally at body end.
			for len(il.indentStack) > 1 {
				il.indentStack = il.indentStack[:len(il.indentStack)-1]
				out = append(out, Token{Type: DEDENT, Line: tok.Line, Column: tok.Column})
			}
			il.lastIndent = 0
			il.sawShortcut = false
			out = append(out, tok)
		case NEWLINE:
			out = append(out, tok)
			nextIndent, ok := il.peekNextLineIndent()
			if !ok {
				il.sawShortcut = false
				continue
			}
			switch {
			case nextIndent > il.lastIndent && il.sawShortcut:
				il.indentStack = append(il.indentStack, nextIndent)
				out = append(out, Token{Type: INDENT, Line: tok.Line, Column: tok.Column})
				il.lastIndent = nextIndent
			case nextIndent < il.lastIndent:
				for len(il.indentStack) > 1 && il.indentStack[len(il.indentStack)-1] > nextIndent {
					il.indentStack = il.indentStack[:len(il.indentStack)-1]
					out = append(out, Token{Type: DEDENT, Line: tok.Line, Column: tok.Column})
				}
				matched := il.indentStack[len(il.indentStack)-1] == nextIndent
				if !matched && il.diag != nil {
					il.diag.AddError(diag.SingleLine(tok.Line, 0, 0), "E-INDENT",
						"dedent does not match any enclosing indentation level")
				}
				il.lastIndent = nextIndent
			}
			il.sawShortcut = false
		default:
			out = append(out, tok)
		}
	}

	for len(il.indentStack) > 1 {
		il.indentStack = il.indentStack[:len(il.indentStack)-1]
		out = append(out, Token{Type: DEDENT})
	}
	return out
}

// peekNextLineIndent scans ahead (without consuming) past any further
// NEWLINE tokens (blank lines) to find the column of the first token of
// the next non-blank line, measured as that token's Column.
func (il *IndentLexer) peekNextLineIndent() (int, bool) {
	for i := il.pos; i < len(il.flat); i++ {
		t := il.flat[i]
		if t.Type == NEWLINE {
			continue
		}
		if t.Type == EOF {
			return 0, false
		}
		return t.Column, true
	}
	return 0, false
}
