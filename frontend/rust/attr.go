package rust

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/wippyai/callspec/decl"
)

// Attribute bodies are token trees in the syntax tree; this file turns the
// source text of one attribute into a decl.Annotation.

type tokenKind int

const (
	tokPath tokenKind = iota
	tokString
	tokLiteral
	tokPunct
)

type token struct {
	text string // unquoted for strings
	src  string // source spelling
	off  int
	kind tokenKind
}

// locator maps byte offsets of an attribute's text back to source positions.
type locator struct {
	text  string
	start decl.Pos
}

func (l locator) pos(off int) decl.Pos {
	p := l.start
	for i := 0; i < off && i < len(l.text); i++ {
		if l.text[i] == '\n' {
			p.Line++
			p.Column = 1
			continue
		}
		p.Column++
	}
	return p
}

// parseAttribute parses the text of an attribute item ("#[...]" or "#![...]")
// starting at pos.
func parseAttribute(text string, pos decl.Pos) (decl.Annotation, error) {
	loc := locator{text: text, start: pos}
	ann := decl.Annotation{Pos: pos}

	body, ok := strings.CutPrefix(text, "#")
	if !ok {
		return ann, fmt.Errorf("attribute must start with #")
	}
	if rest, inner := strings.CutPrefix(body, "!"); inner {
		ann.Inner = true
		body = rest
	}
	body = strings.TrimSpace(body)
	if !strings.HasPrefix(body, "[") || !strings.HasSuffix(body, "]") {
		return ann, fmt.Errorf("malformed attribute %q", text)
	}
	base := strings.Index(text, "[") + 1
	inner := text[base:strings.LastIndex(text, "]")]

	toks, err := tokenize(inner, base)
	if err != nil {
		return ann, err
	}
	if len(toks) == 0 || toks[0].kind != tokPath {
		return ann, fmt.Errorf("attribute %q has no name", text)
	}

	ann.Name = toks[0].text
	rest := toks[1:]
	switch {
	case len(rest) == 0:
	case rest[0].src == "=":
		v, n := parseValue(rest[1:], loc)
		if n == 0 || n != len(rest)-1 {
			return ann, fmt.Errorf("expected a single value after = in %q", text)
		}
		ann.Eq = &v
	case rest[0].src == "(" && rest[len(rest)-1].src == ")":
		ann.HasList = true
		values, err := parseList(rest[1:len(rest)-1], loc)
		if err != nil {
			return ann, err
		}
		ann.Values = values
	default:
		return ann, fmt.Errorf("unexpected %q in attribute %s", rest[0].src, ann.Name)
	}
	return ann, nil
}

// parseList splits comma-separated items at depth zero.
func parseList(toks []token, loc locator) ([]decl.Value, error) {
	var (
		out   []decl.Value
		start int
		depth int
	)
	flush := func(end int) error {
		item := toks[start:end]
		if len(item) == 0 {
			return nil
		}
		v, err := parseItem(item, loc)
		if err != nil {
			return err
		}
		out = append(out, v)
		return nil
	}
	for i, t := range toks {
		switch t.src {
		case "(", "[", "{":
			depth++
		case ")", "]", "}":
			depth--
		case ",":
			if depth == 0 {
				if err := flush(i); err != nil {
					return nil, err
				}
				start = i + 1
			}
		}
	}
	if err := flush(len(toks)); err != nil {
		return nil, err
	}
	return out, nil
}

func parseItem(toks []token, loc locator) (decl.Value, error) {
	if len(toks) >= 2 && toks[0].kind == tokPath && toks[1].src == "=" {
		if len(toks) == 2 {
			return decl.Value{}, fmt.Errorf("missing value for %s", toks[0].text)
		}
		rhs, n := parseValue(toks[2:], loc)
		if n != len(toks)-2 {
			rhs = literal(toks[2:], loc)
		}
		return decl.AssignValue(toks[0].text, rhs, loc.pos(toks[0].off)), nil
	}
	v, n := parseValue(toks, loc)
	if n != len(toks) {
		return literal(toks, loc), nil
	}
	return v, nil
}

// parseValue reads one value and reports how many tokens it used.
func parseValue(toks []token, loc locator) (decl.Value, int) {
	if len(toks) == 0 {
		return decl.Value{}, 0
	}
	t := toks[0]
	switch t.kind {
	case tokPath:
		return decl.PathValue(t.text, loc.pos(t.off)), 1
	case tokString:
		return decl.StringValue(t.text, loc.pos(t.off)), 1
	case tokLiteral:
		return decl.Value{Kind: decl.ValueLiteral, Text: t.src, Pos: loc.pos(t.off)}, 1
	}
	if t.src == "-" && len(toks) > 1 && toks[1].kind == tokLiteral {
		return decl.Value{Kind: decl.ValueLiteral, Text: "-" + toks[1].src, Pos: loc.pos(t.off)}, 2
	}
	return decl.Value{}, 0
}

// literal keeps an unrecognized token run as opaque source text.
func literal(toks []token, loc locator) decl.Value {
	first, last := toks[0], toks[len(toks)-1]
	text := loc.text[first.off : last.off+len(last.src)]
	return decl.Value{Kind: decl.ValueLiteral, Text: text, Pos: loc.pos(first.off)}
}

func tokenize(s string, base int) ([]token, error) {
	var toks []token
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++

		case c == '"' || (c == 'r' && i+1 < len(s) && (s[i+1] == '"' || s[i+1] == '#') && rawStart(s[i:])):
			end, text, err := scanString(s[i:])
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{kind: tokString, text: text, src: s[i : i+end], off: base + i})
			i += end

		case startsIdent(s[i:]):
			j := i
			if strings.HasPrefix(s[j:], "r#") {
				j += 2
			}
			for {
				j += identPrefix(s[j:])
				if strings.HasPrefix(s[j:], "::") && startsIdent(s[j+2:]) {
					j += 2
					continue
				}
				break
			}
			word := s[i:j]
			kind := tokPath
			if word == "true" || word == "false" {
				kind = tokLiteral
			}
			toks = append(toks, token{kind: kind, text: word, src: word, off: base + i})
			i = j

		case c >= '0' && c <= '9':
			j := i
			for j < len(s) {
				r, w := utf8.DecodeRuneInString(s[j:])
				if r != '.' && !isIdentPart(r) {
					break
				}
				j += w
			}
			toks = append(toks, token{kind: tokLiteral, text: s[i:j], src: s[i:j], off: base + i})
			i = j

		case c == '\'':
			j := strings.IndexByte(s[i+1:], '\'')
			if j < 0 {
				return nil, fmt.Errorf("unterminated character literal")
			}
			src := s[i : i+j+2]
			toks = append(toks, token{kind: tokLiteral, text: src, src: src, off: base + i})
			i += j + 2

		default:
			_, w := utf8.DecodeRuneInString(s[i:])
			toks = append(toks, token{kind: tokPunct, text: s[i : i+w], src: s[i : i+w], off: base + i})
			i += w
		}
	}
	return toks, nil
}

func rawStart(s string) bool {
	j := 1
	for j < len(s) && s[j] == '#' {
		j++
	}
	return j < len(s) && s[j] == '"'
}

// scanString reads a normal or raw string literal at the start of s and
// returns its length and unquoted contents.
func scanString(s string) (int, string, error) {
	if s[0] == 'r' {
		hashes := 0
		for 1+hashes < len(s) && s[1+hashes] == '#' {
			hashes++
		}
		open := 2 + hashes
		closer := "\"" + strings.Repeat("#", hashes)
		end := strings.Index(s[open:], closer)
		if end < 0 {
			return 0, "", fmt.Errorf("unterminated raw string")
		}
		return open + end + len(closer), s[open : open+end], nil
	}

	for j := 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case '"':
			src := s[:j+1]
			text, err := strconv.Unquote(src)
			if err != nil {
				// Rust escapes that Go does not know (\u{..}) keep their spelling.
				text = src[1 : len(src)-1]
			}
			return j + 1, text, nil
		}
	}
	return 0, "", fmt.Errorf("unterminated string")
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func startsIdent(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return isIdentStart(r)
}

// identPrefix returns the byte length of the identifier characters at the
// start of s.
func identPrefix(s string) int {
	n := 0
	for n < len(s) {
		r, w := utf8.DecodeRuneInString(s[n:])
		if !isIdentPart(r) {
			break
		}
		n += w
	}
	return n
}
