// Package parser implements a recursive-descent, fail-soft parser over the
// lexer's augmented token stream, producing a dialogue tree (spec.md
// §4.2).
package parser

import (
	"fmt"
	"strconv"

	"github.com/barun-bash/dialogic/internal/diag"
	"github.com/barun-bash/dialogic/internal/lexer"
)

// Parse lexes and parses a dialogue source file into an AST. Parsing never
// aborts outright: it always returns a usable Program, with any errors
// recorded in the returned Diagnostics (spec.md §4.2: "a fail-soft pass").
func Parse(source, filename string) (*Program, *diag.Diagnostics) {
	d := diag.New(filename)
	toks := lexer.NewIndentLexer(source, d).Tokens()
	return ParseTokens(toks, d)
}

// ParseTokens parses a pre-lexed, indent-augmented token stream.
func ParseTokens(tokens []lexer.Token, d *diag.Diagnostics) (*Program, *diag.Diagnostics) {
	p := &parser{tokens: tokens, diag: d}
	return p.parseProgram(), d
}

type parser struct {
	tokens []lexer.Token
	pos    int
	diag   *diag.Diagnostics
}

// ── Top level ──

func (p *parser) parseProgram() *Program {
	prog := &Program{}
	p.skipNoise()
	for !p.isAtEnd() {
		startPos := p.pos
		if node := p.parseNode(); node != nil {
			prog.Nodes = append(prog.Nodes, node)
		}
		if p.pos == startPos {
			p.advance() // always make progress
		}
		p.skipNoise()
	}
	return prog
}

// parseNode parses one "key: value"* "---" body "===" unit.
func (p *parser) parseNode() *Node {
	if p.isAtEnd() {
		return nil
	}
	line := p.peek().Line
	node := &Node{Line: line}

	for p.check(lexer.IDENTIFIER) && !p.check(lexer.HEADER_END) {
		key := p.advance().Literal
		value := ""
		headerLine := line
		if p.match(lexer.HEADER_DELIMITER) {
			if p.check(lexer.IDENTIFIER) {
				value = p.advance().Literal
			}
		}
		node.Headers = append(node.Headers, Header{Key: key, Value: value, Line: headerLine})
		if key == "title" {
			node.Title = value
		}
		p.skipNewlines()
	}

	if !p.match(lexer.HEADER_END) {
		p.addError(p.peek().Line, "E-PARSE-001", "expected \"---\" to end node header")
		p.synchronizeToBodyEnd()
		return node
	}
	p.skipNewlines()

	node.Body = p.parseStatements(func() bool {
		return p.check(lexer.BODY_END) || p.isAtEnd()
	})

	if !p.match(lexer.BODY_END) {
		p.addError(p.peek().Line, "E-PARSE-002", "expected \"===\" to end node body")
	}
	p.skipNewlines()
	return node
}

// ── Body statements ──

// parseStatements parses statements until stop() reports true.
func (p *parser) parseStatements(stop func() bool) []Statement {
	var stmts []Statement
	for !p.isAtEnd() && !stop() {
		switch p.peek().Type {
		case lexer.NEWLINE, lexer.COMMENT, lexer.INDENT, lexer.DEDENT:
			p.advance()
			continue
		}
		startPos := p.pos
		if stmt := p.parseStatement(); stmt != nil {
			stmts = append(stmts, stmt)
		}
		if p.pos == startPos {
			p.advance()
		}
	}
	return stmts
}

func (p *parser) parseStatement() Statement {
	switch p.peek().Type {
	case lexer.TEXT, lexer.LBRACE:
		return p.parseLineStatement()
	case lexer.SHORTCUT_ARROW:
		return p.parseOptionGroup()
	case lexer.COMMAND_START:
		return p.parseCommand()
	default:
		p.addError(p.peek().Line, "E-PARSE-003", fmt.Sprintf("unexpected token %s in node body", p.peek().Type))
		return nil
	}
}

// parseLineStatement consumes TEXT/LBRACE-expr-RBRACE runs and trailing
// #hashtags into one LineStatement. Each interpolation is replaced in
// Text by a "{n}" positional marker, left intact for the string table
// (spec.md §4.3).
func (p *parser) parseLineStatement() *LineStatement {
	line := p.peek().Line
	stmt := &LineStatement{Line: line}
	text := ""
	for {
		switch p.peek().Type {
		case lexer.TEXT:
			if text != "" {
				text += " "
			}
			text += p.advance().Literal
		case lexer.LBRACE:
			p.advance()
			expr := p.parseExpr()
			if expr != nil {
				idx := len(stmt.Interpolations)
				stmt.Interpolations = append(stmt.Interpolations, expr)
				if text != "" {
					text += " "
				}
				text += fmt.Sprintf("{%d}", idx)
			}
			if !p.match(lexer.RBRACE) {
				p.addError(p.peek().Line, "E-PARSE-004", "expected \"}\" to close interpolation")
			}
		case lexer.HASHTAG:
			tag := p.advance().Literal
			stmt.Hashtags = append(stmt.Hashtags, tag)
			if len(tag) > 6 && tag[:6] == "#line:" {
				stmt.LineID = tag[6:]
			}
		default:
			stmt.Text = text
			p.match(lexer.NEWLINE)
			return stmt
		}
	}
}

// parseOptionGroup consumes one or more consecutive "->" options at the
// current indentation level.
func (p *parser) parseOptionGroup() *OptionGroup {
	group := &OptionGroup{Line: p.peek().Line}
	for p.check(lexer.SHORTCUT_ARROW) {
		group.Options = append(group.Options, p.parseOption())
	}
	return group
}

func (p *parser) parseOption() *Option {
	line := p.peek().Line
	p.advance() // SHORTCUT_ARROW
	opt := &Option{Line: line}
	text := ""
loop:
	for {
		switch p.peek().Type {
		case lexer.TEXT:
			if text != "" {
				text += " "
			}
			text += p.advance().Literal
		case lexer.LBRACE:
			p.advance()
			expr := p.parseExpr()
			if expr != nil {
				idx := len(opt.Interpolations)
				opt.Interpolations = append(opt.Interpolations, expr)
				text += fmt.Sprintf("{%d}", idx)
			}
			p.match(lexer.RBRACE)
		case lexer.HASHTAG:
			tag := p.advance().Literal
			opt.Hashtags = append(opt.Hashtags, tag)
			if len(tag) > 6 && tag[:6] == "#line:" {
				opt.LineID = tag[6:]
			}
		case lexer.COMMAND_START:
			save := p.pos
			p.advance()
			if p.check(lexer.KW_IF) {
				p.advance()
				opt.Condition = p.parseExpr()
				p.match(lexer.COMMAND_END)
			} else {
				p.pos = save
				break loop
			}
		default:
			break loop
		}
	}
	opt.Text = text
	p.match(lexer.NEWLINE)

	if p.match(lexer.INDENT) {
		opt.Body = p.parseStatements(func() bool {
			return p.check(lexer.DEDENT) || p.check(lexer.BODY_END) || p.isAtEnd()
		})
		p.match(lexer.DEDENT)
	}
	return opt
}

// parseCommand dispatches a "<<...>>" construct to its keyword form or
// falls back to a generic custom Command.
func (p *parser) parseCommand() Statement {
	line := p.peek().Line
	p.advance() // COMMAND_START

	switch p.peek().Type {
	case lexer.KW_IF:
		return p.parseIfStatement(line)
	case lexer.KW_SET:
		return p.parseSetStatement(line)
	case lexer.KW_DECLARE:
		return p.parseDeclareStatement(line)
	case lexer.KW_JUMP:
		return p.parseJumpStatement(line)
	case lexer.KW_STOP:
		p.advance()
		p.match(lexer.COMMAND_END)
		p.match(lexer.NEWLINE)
		return &StopStatement{Line: line}
	case lexer.KW_CALL:
		return p.parseCallStatement(line)
	default:
		name := ""
		if p.check(lexer.IDENTIFIER) {
			name = p.advance().Literal
		}
		var args []Expr
		for !p.check(lexer.COMMAND_END) && !p.check(lexer.NEWLINE) && !p.isAtEnd() {
			arg := p.parseExpr()
			if arg == nil {
				break
			}
			args = append(args, arg)
		}
		p.match(lexer.COMMAND_END)
		p.match(lexer.NEWLINE)
		return &Command{Name: name, Args: args, Line: line}
	}
}

// atCommandKeyword reports whether the parser is positioned at
// "<<" followed immediately by one of the given keyword token types,
// without consuming anything. Used to find if/elseif/else/endif
// terminators while parsing a branch body.
func (p *parser) atCommandKeyword(types ...lexer.TokenType) bool {
	if !p.check(lexer.COMMAND_START) {
		return false
	}
	next := p.peekAt(1)
	for _, t := range types {
		if next.Type == t {
			return true
		}
	}
	return false
}

func (p *parser) parseIfStatement(line int) *IfStatement {
	ifStmt := &IfStatement{Line: line}

	p.advance() // KW_IF
	cond := p.parseExpr()
	p.match(lexer.COMMAND_END)
	p.match(lexer.NEWLINE)
	body := p.parseStatements(func() bool {
		return p.atCommandKeyword(lexer.KW_ELSEIF, lexer.KW_ELSE, lexer.KW_ENDIF) ||
			p.check(lexer.BODY_END) || p.isAtEnd()
	})
	ifStmt.Branches = append(ifStmt.Branches, IfBranch{Condition: cond, Body: body})

	for p.atCommandKeyword(lexer.KW_ELSEIF) {
		p.advance() // COMMAND_START
		p.advance() // KW_ELSEIF
		cond := p.parseExpr()
		p.match(lexer.COMMAND_END)
		p.match(lexer.NEWLINE)
		body := p.parseStatements(func() bool {
			return p.atCommandKeyword(lexer.KW_ELSEIF, lexer.KW_ELSE, lexer.KW_ENDIF) ||
				p.check(lexer.BODY_END) || p.isAtEnd()
		})
		ifStmt.Branches = append(ifStmt.Branches, IfBranch{Condition: cond, Body: body})
	}

	if p.atCommandKeyword(lexer.KW_ELSE) {
		p.advance() // COMMAND_START
		p.advance() // KW_ELSE
		p.match(lexer.COMMAND_END)
		p.match(lexer.NEWLINE)
		ifStmt.Else = p.parseStatements(func() bool {
			return p.atCommandKeyword(lexer.KW_ENDIF) || p.check(lexer.BODY_END) || p.isAtEnd()
		})
	}

	if p.atCommandKeyword(lexer.KW_ENDIF) {
		p.advance() // COMMAND_START
		p.advance() // KW_ENDIF
		p.match(lexer.COMMAND_END)
		p.match(lexer.NEWLINE)
	} else {
		p.addError(p.peek().Line, "E-PARSE-005", "expected \"<<endif>>\" to close if statement")
	}
	return ifStmt
}

func (p *parser) parseSetStatement(line int) *SetStatement {
	p.advance() // KW_SET
	stmt := &SetStatement{Line: line, Op: "="}
	if p.check(lexer.VARIABLE) {
		stmt.Variable = p.advance().Literal
	}
	switch p.peek().Type {
	case lexer.ASSIGN, lexer.KW_TO:
		stmt.Op = "="
		p.advance()
	case lexer.PLUS_EQ:
		stmt.Op = "+="
		p.advance()
	case lexer.MINUS_EQ:
		stmt.Op = "-="
		p.advance()
	case lexer.STAR_EQ:
		stmt.Op = "*="
		p.advance()
	case lexer.SLASH_EQ:
		stmt.Op = "/="
		p.advance()
	default:
		p.addError(p.peek().Line, "E-PARSE-006", "expected assignment operator in set statement")
	}
	stmt.Value = p.parseExpr()
	p.match(lexer.COMMAND_END)
	p.match(lexer.NEWLINE)
	return stmt
}

func (p *parser) parseDeclareStatement(line int) *DeclareStatement {
	p.advance() // KW_DECLARE
	stmt := &DeclareStatement{Line: line}
	if p.check(lexer.VARIABLE) {
		stmt.Variable = p.advance().Literal
	}
	p.match(lexer.ASSIGN)
	stmt.Default = p.parseUnary()
	if p.check(lexer.STRING_LIT) {
		stmt.Description = p.advance().Literal
	}
	p.match(lexer.COMMAND_END)
	p.match(lexer.NEWLINE)
	return stmt
}

func (p *parser) parseJumpStatement(line int) *JumpStatement {
	p.advance() // KW_JUMP
	stmt := &JumpStatement{Line: line}
	if p.check(lexer.IDENTIFIER) {
		stmt.Target = p.advance().Literal
	}
	p.match(lexer.COMMAND_END)
	p.match(lexer.NEWLINE)
	return stmt
}

func (p *parser) parseCallStatement(line int) *CallStatement {
	p.advance() // KW_CALL
	expr := p.parseExpr()
	call, _ := expr.(*CallExpr)
	p.match(lexer.COMMAND_END)
	p.match(lexer.NEWLINE)
	return &CallStatement{Call: call, Line: line}
}

// ── Expressions (precedence climbing, tightest to loosest) ──

func (p *parser) parseExpr() Expr { return p.parseOr() }

func (p *parser) parseOr() Expr {
	left := p.parseXor()
	for p.check(lexer.KW_OR) {
		line := p.advance().Line
		left = &BinaryExpr{Op: "or", Left: left, Right: p.parseXor(), Line: line}
	}
	return left
}

func (p *parser) parseXor() Expr {
	left := p.parseAnd()
	for p.check(lexer.KW_XOR) {
		line := p.advance().Line
		left = &BinaryExpr{Op: "xor", Left: left, Right: p.parseAnd(), Line: line}
	}
	return left
}

func (p *parser) parseAnd() Expr {
	left := p.parseEquality()
	for p.check(lexer.KW_AND) {
		line := p.advance().Line
		left = &BinaryExpr{Op: "and", Left: left, Right: p.parseEquality(), Line: line}
	}
	return left
}

func (p *parser) parseEquality() Expr {
	left := p.parseComparison()
	for p.check(lexer.EQ_EQ) || p.check(lexer.NEQ) {
		tok := p.advance()
		op := "=="
		if tok.Type == lexer.NEQ {
			op = "!="
		}
		left = &BinaryExpr{Op: op, Left: left, Right: p.parseComparison(), Line: tok.Line}
	}
	return left
}

func (p *parser) parseComparison() Expr {
	left := p.parseAdditive()
	for p.check(lexer.LT) || p.check(lexer.LE) || p.check(lexer.GT) || p.check(lexer.GE) {
		tok := p.advance()
		left = &BinaryExpr{Op: tok.Type.String(), Left: left, Right: p.parseAdditive(), Line: tok.Line}
	}
	return left
}

func (p *parser) parseAdditive() Expr {
	left := p.parseMultiplicative()
	for p.check(lexer.PLUS) || p.check(lexer.MINUS) {
		tok := p.advance()
		left = &BinaryExpr{Op: tok.Type.String(), Left: left, Right: p.parseMultiplicative(), Line: tok.Line}
	}
	return left
}

func (p *parser) parseMultiplicative() Expr {
	left := p.parseUnary()
	for p.check(lexer.STAR) || p.check(lexer.SLASH) || p.check(lexer.PERCENT) {
		tok := p.advance()
		left = &BinaryExpr{Op: tok.Type.String(), Left: left, Right: p.parseUnary(), Line: tok.Line}
	}
	return left
}

func (p *parser) parseUnary() Expr {
	if p.check(lexer.MINUS) || p.check(lexer.KW_NOT) {
		tok := p.advance()
		op := "-"
		if tok.Type == lexer.KW_NOT {
			op = "not"
		}
		return &UnaryExpr{Op: op, Operand: p.parseUnary(), Line: tok.Line}
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() Expr {
	tok := p.peek()
	switch tok.Type {
	case lexer.NUMBER_LIT:
		p.advance()
		n, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			p.addError(tok.Line, "E-PARSE-007", fmt.Sprintf("invalid number literal %q", tok.Literal))
		}
		return &NumberLiteral{Value: n, Line: tok.Line}
	case lexer.STRING_LIT:
		p.advance()
		return &StringLiteral{Value: tok.Literal, Line: tok.Line}
	case lexer.KW_TRUE:
		p.advance()
		return &BoolLiteral{Value: true, Line: tok.Line}
	case lexer.KW_FALSE:
		p.advance()
		return &BoolLiteral{Value: false, Line: tok.Line}
	case lexer.VARIABLE:
		p.advance()
		return &VariableRef{Name: tok.Literal, Line: tok.Line}
	case lexer.LPAREN:
		p.advance()
		expr := p.parseExpr()
		if !p.match(lexer.RPAREN) {
			p.addError(p.peek().Line, "E-PARSE-008", "expected \")\" to close parenthesized expression")
		}
		return expr
	case lexer.IDENTIFIER:
		p.advance()
		call := &CallExpr{Function: tok.Literal, Line: tok.Line}
		if p.match(lexer.LPAREN) {
			if !p.check(lexer.RPAREN) {
				call.Args = append(call.Args, p.parseExpr())
				for p.match(lexer.COMMA) {
					call.Args = append(call.Args, p.parseExpr())
				}
			}
			p.match(lexer.RPAREN)
		}
		return call
	default:
		p.addError(tok.Line, "E-PARSE-009", fmt.Sprintf("unexpected token %s in expression", tok.Type))
		if !p.isAtEnd() {
			p.advance()
		}
		return nil
	}
}

// ── Token movement ──

func (p *parser) peek() lexer.Token {
	if p.pos >= len(p.tokens) {
		return lexer.Token{Type: lexer.EOF}
	}
	return p.tokens[p.pos]
}

func (p *parser) peekAt(offset int) lexer.Token {
	i := p.pos + offset
	if i >= len(p.tokens) {
		return lexer.Token{Type: lexer.EOF}
	}
	return p.tokens[i]
}

func (p *parser) advance() lexer.Token {
	tok := p.peek()
	if tok.Type != lexer.EOF {
		p.pos++
	}
	return tok
}

func (p *parser) check(t lexer.TokenType) bool { return p.peek().Type == t }

func (p *parser) match(t lexer.TokenType) bool {
	if p.check(t) {
		p.advance()
		return true
	}
	return false
}

func (p *parser) isAtEnd() bool {
	return p.pos >= len(p.tokens) || p.peek().Type == lexer.EOF
}

func (p *parser) skipNoise() {
	for !p.isAtEnd() {
		switch p.peek().Type {
		case lexer.NEWLINE, lexer.COMMENT, lexer.DEDENT, lexer.INDENT:
			p.advance()
		default:
			return
		}
	}
}

func (p *parser) skipNewlines() {
	for p.check(lexer.NEWLINE) || p.check(lexer.COMMENT) {
		p.advance()
	}
}

// synchronizeToBodyEnd recovers from a malformed header by skipping to the
// next "===", so the remaining file still has a chance to parse cleanly.
func (p *parser) synchronizeToBodyEnd() {
	for !p.isAtEnd() && !p.check(lexer.BODY_END) {
		p.advance()
	}
	p.match(lexer.BODY_END)
}

func (p *parser) addError(line int, code, msg string) {
	p.diag.AddError(diag.SingleLine(line, 0, 0), code, msg)
}
