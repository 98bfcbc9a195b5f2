// Package lexer turns dialogue DSL source into a token stream, then wraps
// it with an indentation-aware layer that synthesizes INDENT/DEDENT tokens
// from significant whitespace (spec.md §4.1).
package lexer

import (
	"fmt"
	"strings"
)

// TokenType identifies the kind of a lexical token.
type TokenType int

const (
	// Structural tokens.
	EOF TokenType = iota
	NEWLINE
	INDENT
	DEDENT
	HEADER_DELIMITER // the ":" in a "key: value" header line
	HEADER_END       // ---
	BODY_END         // ===
	SHORTCUT_ARROW   // ->
	COMMAND_START    // <<
	COMMAND_END      // >>
	LBRACE           // {
	RBRACE           // }
	LPAREN
	RPAREN
	COMMA
	HASHTAG // #some_tag (line/node metadata, not a color or comment)
	COMMENT // // comment text

	// Literals.
	STRING_LIT
	NUMBER_LIT
	VARIABLE   // $name
	IDENTIFIER // bare word: header keys, node/function names
	TEXT       // a run of narrative line content outside commands/braces

	// Statement keywords.
	KW_IF
	KW_ELSEIF
	KW_ELSE
	KW_ENDIF
	KW_SET
	KW_DECLARE
	KW_JUMP
	KW_STOP
	KW_CALL
	KW_TO
	KW_AS
	KW_TRUE
	KW_FALSE

	// Boolean operator keywords.
	KW_AND
	KW_OR
	KW_XOR
	KW_NOT

	// Operators.
	PLUS
	MINUS
	STAR
	SLASH
	PERCENT
	ASSIGN   // =
	PLUS_EQ  // +=
	MINUS_EQ // -=
	STAR_EQ  // *=
	SLASH_EQ // /=
	EQ_EQ    // ==
	NEQ      // !=
	LT
	LE
	GT
	GE
)

var tokenNames = map[TokenType]string{
	EOF:              "EOF",
	NEWLINE:          "NEWLINE",
	INDENT:           "INDENT",
	DEDENT:           "DEDENT",
	HEADER_DELIMITER: "HEADER_DELIMITER",
	HEADER_END:       "HEADER_END",
	BODY_END:         "BODY_END",
	SHORTCUT_ARROW:   "SHORTCUT_ARROW",
	COMMAND_START:    "COMMAND_START",
	COMMAND_END:      "COMMAND_END",
	LBRACE:           "LBRACE",
	RBRACE:           "RBRACE",
	LPAREN:           "LPAREN",
	RPAREN:           "RPAREN",
	COMMA:            "COMMA",
	HASHTAG:          "HASHTAG",
	COMMENT:          "COMMENT",
	STRING_LIT:       "STRING",
	NUMBER_LIT:       "NUMBER",
	VARIABLE:         "VARIABLE",
	IDENTIFIER:       "IDENTIFIER",
	TEXT:             "TEXT",
	KW_IF:            "if",
	KW_ELSEIF:        "elseif",
	KW_ELSE:          "else",
	KW_ENDIF:         "endif",
	KW_SET:           "set",
	KW_DECLARE:       "declare",
	KW_JUMP:          "jump",
	KW_STOP:          "stop",
	KW_CALL:          "call",
	KW_TO:            "to",
	KW_AS:            "as",
	KW_TRUE:          "true",
	KW_FALSE:         "false",
	KW_AND:           "and",
	KW_OR:            "or",
	KW_XOR:           "xor",
	KW_NOT:           "not",
	PLUS:             "+",
	MINUS:            "-",
	STAR:             "*",
	SLASH:            "/",
	PERCENT:          "%",
	ASSIGN:           "=",
	PLUS_EQ:          "+=",
	MINUS_EQ:         "-=",
	STAR_EQ:          "*=",
	SLASH_EQ:         "/=",
	EQ_EQ:            "==",
	NEQ:              "!=",
	LT:               "<",
	LE:               "<=",
	GT:               ">",
	GE:               ">=",
}

// String returns the display name of a token type.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TOKEN(%d)", int(t))
}

// keywords maps lowercase keyword spellings to their token types. Only
// consulted for words lexed inside a command or expression context — plain
// narrative text never keywords-matches.
var keywords = map[string]TokenType{
	"if":      KW_IF,
	"elseif":  KW_ELSEIF,
	"else":    KW_ELSE,
	"endif":   KW_ENDIF,
	"set":     KW_SET,
	"declare": KW_DECLARE,
	"jump":    KW_JUMP,
	"stop":    KW_STOP,
	"call":    KW_CALL,
	"to":      KW_TO,
	"as":      KW_AS,
	"true":    KW_TRUE,
	"false":   KW_FALSE,
	"and":     KW_AND,
	"or":      KW_OR,
	"xor":     KW_XOR,
	"not":     KW_NOT,
}

// LookupKeyword returns the keyword token type for word, or IDENTIFIER if
// word is not a keyword. Matching is case-insensitive.
func LookupKeyword(word string) TokenType {
	if tok, ok := keywords[strings.ToLower(word)]; ok {
		return tok
	}
	return IDENTIFIER
}

// Token is a (kind, lexeme, range, channel) tuple (spec.md §3). Channel 0 is
// the syntax channel consulted by the parser; CommentChannel carries
// comments that the parser skips but tooling may still inspect.
type Channel int

const (
	SyntaxChannel Channel = iota
	CommentChannel
)

// Token represents a single lexical token with its position in the source.
type Token struct {
	Type    TokenType
	Literal string
	Line    int // 0-based line number
	Column  int // 0-based column number
	Channel Channel
}

// EndLine/EndColumn approximate the token's range end for diagnostics;
// since nearly all dialogue tokens are single-line, the range collapses to
// (Line, Column) .. (Line, Column+len(Literal)).
func (t Token) EndColumn() int {
	return t.Column + len(t.Literal)
}

func (t Token) String() string {
	switch t.Type {
	case EOF:
		return "EOF"
	case NEWLINE:
		return "NEWLINE"
	case INDENT:
		return "INDENT"
	case DEDENT:
		return "DEDENT"
	default:
		if t.Literal != "" {
			return fmt.Sprintf("%s(%q)", t.Type, t.Literal)
		}
		return t.Type.String()
	}
}
