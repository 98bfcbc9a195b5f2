// Package markup implements the DSL's inline markup: "[tag attr=value]
// text [/tag]" spans plus the locale-aware "[plural]"/"[select]"/
// "[ordinal]" substitution forms resolved line text carries (spec.md
// §4.6 "Markup").
package markup

import (
	"strconv"
	"strings"

	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
)

// Kind distinguishes an Attribute-carrying markup Node from plain text.
type Kind int

const (
	KindText Kind = iota
	KindTag
)

// Node is one parsed markup span: either a run of plain text, or a tagged
// region with attributes and nested children.
type Node struct {
	Kind     Kind
	Text     string            // meaningful only for KindText
	Tag      string            // meaningful only for KindTag
	Attrs    map[string]string // meaningful only for KindTag
	Children []*Node
	SelfClosing bool
}

// Parse parses one line of markup text into a flat sequence of nodes.
// Unknown tags are preserved as ordinary KindTag nodes — resolving their
// meaning (or stripping them for plain-text display) is left to the
// caller, matching spec.md's "unknown tags pass through" rule.
func Parse(text string) []*Node {
	p := &parser{src: text}
	return p.parseUntil("")
}

type parser struct {
	src string
	pos int
}

func (p *parser) parseUntil(closeTag string) []*Node {
	var nodes []*Node
	var textBuf strings.Builder
	flush := func() {
		if textBuf.Len() > 0 {
			nodes = append(nodes, &Node{Kind: KindText, Text: textBuf.String()})
			textBuf.Reset()
		}
	}
	for p.pos < len(p.src) {
		ch := p.src[p.pos]
		if ch == '\\' && p.pos+1 < len(p.src) && (p.src[p.pos+1] == '[' || p.src[p.pos+1] == ']') {
			textBuf.WriteByte(p.src[p.pos+1])
			p.pos += 2
			continue
		}
		if ch != '[' {
			textBuf.WriteByte(ch)
			p.pos++
			continue
		}
		end := strings.IndexByte(p.src[p.pos:], ']')
		if end == -1 {
			textBuf.WriteByte(ch)
			p.pos++
			continue
		}
		inner := p.src[p.pos+1 : p.pos+end]
		p.pos += end + 1

		if strings.HasPrefix(inner, "/") {
			name := strings.TrimSpace(inner[1:])
			if closeTag != "" && (name == closeTag || name == "") {
				flush()
				return nodes
			}
			continue // stray close tag; ignore
		}

		selfClosing := strings.HasSuffix(inner, "/")
		if selfClosing {
			inner = strings.TrimSuffix(inner, "/")
		}
		name, attrs := parseTagHeader(inner)
		flush()
		if selfClosing {
			nodes = append(nodes, &Node{Kind: KindTag, Tag: name, Attrs: attrs, SelfClosing: true})
			continue
		}
		children := p.parseUntil(name)
		nodes = append(nodes, &Node{Kind: KindTag, Tag: name, Attrs: attrs, Children: children})
	}
	flush()
	return nodes
}

// parseTagHeader splits "name attr=value attr2=\"quoted value\"" into a
// tag name and its attribute map. A bare "[plural value=$n ...]" uses
// `value` as the shorthand first attribute name.
func parseTagHeader(header string) (string, map[string]string) {
	fields := splitAttrs(header)
	if len(fields) == 0 {
		return "", map[string]string{}
	}
	attrs := make(map[string]string)
	name := fields[0]
	if eq := strings.IndexByte(name, '='); eq != -1 {
		// "[select value=$gender ...]" with no bare tag name — the first
		// token is itself an attribute.
		attrs[name[:eq]] = unquote(name[eq+1:])
		name = ""
	}
	for _, f := range fields[1:] {
		eq := strings.IndexByte(f, '=')
		if eq == -1 {
			attrs[f] = "true"
			continue
		}
		attrs[f[:eq]] = unquote(f[eq+1:])
	}
	return name, attrs
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

// splitAttrs tokenizes a tag header on whitespace, respecting quoted
// attribute values that may themselves contain spaces.
func splitAttrs(header string) []string {
	var fields []string
	var buf strings.Builder
	inQuote := byte(0)
	for i := 0; i < len(header); i++ {
		ch := header[i]
		switch {
		case inQuote != 0:
			buf.WriteByte(ch)
			if ch == inQuote {
				inQuote = 0
			}
		case ch == '"' || ch == '\'':
			inQuote = ch
			buf.WriteByte(ch)
		case ch == ' ' || ch == '\t':
			if buf.Len() > 0 {
				fields = append(fields, buf.String())
				buf.Reset()
			}
		default:
			buf.WriteByte(ch)
		}
	}
	if buf.Len() > 0 {
		fields = append(fields, buf.String())
	}
	return fields
}

// Resolver substitutes locale-aware [plural]/[select]/[ordinal] tags and
// renders the remaining markup tree back down to plain text, stripping
// every tag marker (spec.md §4.6).
type Resolver struct {
	Locale language.Tag
}

// NewResolver returns a Resolver for the given BCP-47 locale tag (e.g.
// "en-US"). An unparseable locale falls back to language.Und, which
// plural.Cardinal treats as the "other" category for every count.
func NewResolver(locale string) Resolver {
	tag, _ := language.Parse(locale)
	return Resolver{Locale: tag}
}

// Render walks nodes, resolving plural/select/ordinal tags against vars
// (a name→value lookup for the tag's "value" attribute, typically a
// "$variable" name) and concatenating everything else as plain text.
func (r Resolver) Render(nodes []*Node, vars func(name string) string) string {
	var buf strings.Builder
	for _, n := range nodes {
		r.renderNode(&buf, n, vars)
	}
	return buf.String()
}

func (r Resolver) renderNode(buf *strings.Builder, n *Node, vars func(name string) string) {
	switch n.Kind {
	case KindText:
		buf.WriteString(n.Text)
	case KindTag:
		switch n.Tag {
		case "plural", "ordinal":
			buf.WriteString(r.resolvePluralLike(n, vars, n.Tag == "ordinal"))
		case "select":
			buf.WriteString(r.resolveSelect(n, vars))
		default:
			for _, c := range n.Children {
				r.renderNode(buf, c, vars)
			}
		}
	}
}

// resolvePluralLike handles both "[plural]" (cardinal) and "[ordinal]"
// tags: each case is given as an attribute named after the CLDR plural
// category ("one", "few", "many", "other", ...), and the category
// selected for the resolved numeric value wins.
func (r Resolver) resolvePluralLike(n *Node, vars func(name string) string, ordinal bool) string {
	raw := n.Attrs["value"]
	if strings.HasPrefix(raw, "$") {
		raw = vars(raw)
	}
	count, err := strconv.Atoi(raw)
	if err != nil {
		return n.Attrs["other"]
	}
	rules := plural.Cardinal
	if ordinal {
		rules = plural.Ordinal
	}
	form := rules.MatchPlural(r.Locale, count, 0, 0, 0, 0)
	if val, ok := n.Attrs[formName(form)]; ok {
		return val
	}
	return n.Attrs["other"]
}

func formName(f plural.Form) string {
	switch f {
	case plural.Zero:
		return "zero"
	case plural.One:
		return "one"
	case plural.Two:
		return "two"
	case plural.Few:
		return "few"
	case plural.Many:
		return "many"
	default:
		return "other"
	}
}

// resolveSelect handles "[select value=$var case1=... case2=...]":
// the attribute whose name equals the resolved value wins, falling back
// to "other".
func (r Resolver) resolveSelect(n *Node, vars func(name string) string) string {
	raw := n.Attrs["value"]
	if strings.HasPrefix(raw, "$") {
		raw = vars(raw)
	}
	if val, ok := n.Attrs[raw]; ok {
		return val
	}
	return n.Attrs["other"]
}

// StripTags renders nodes back to plain text with every tag marker
// removed but no plural/select resolution performed — used when a host
// wants markup-free text without a variable lookup available (e.g. for
// the strings file).
func StripTags(nodes []*Node) string {
	var buf strings.Builder
	var walk func([]*Node)
	walk = func(ns []*Node) {
		for _, n := range ns {
			if n.Kind == KindText {
				buf.WriteString(n.Text)
				continue
			}
			walk(n.Children)
		}
	}
	walk(nodes)
	return buf.String()
}
