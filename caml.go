package gosharepoint

import (
	"fmt"
	"regexp"
	"strings"
)

// TranslateFilter converts a SQL-like filter expression into the CAML
// filter dialect of the service. The dialect supports comparison
// operators (=, <>, !=, <, >, <=, >=), LIKE, IN [..], IS [NOT] NULL,
// parenthesised AND/OR composition, and the value forms "text", 123,
// TRUE/FALSE, "2024-01-31", "[Today]", "[Today-7]", "[Me]" and "~15"
// (lookup ID). escape controls XML-escaping of value text.
//
// The returned fragment is the inner filter expression; the caller
// owns the surrounding <Where> block.
func TranslateFilter(expr string, escape bool) (string, error) {
	p := &filterParser{toks: tokenizeFilter(expr), escape: escape}
	caml, err := p.parseOr()
	if err != nil {
		return "", err
	}
	if !p.eof() {
		return "", filterSyntaxError(fmt.Sprintf("unexpected %q", p.peek().text))
	}
	return caml, nil
}

type filterTokenKind int

const (
	tokEOF filterTokenKind = iota
	tokIdent
	tokString
	tokNumber
	tokOp
	tokLParen
	tokRParen
	tokLBracket
	tokRBracket
	tokComma
)

type filterToken struct {
	kind filterTokenKind
	text string
}

func tokenizeFilter(expr string) []filterToken {
	var toks []filterToken
	i := 0
	for i < len(expr) {
		c := expr[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			toks = append(toks, filterToken{tokLParen, "("})
			i++
		case c == ')':
			toks = append(toks, filterToken{tokRParen, ")"})
			i++
		case c == '[' && isBracketToken(expr[i:]):
			// [Today], [Today-7], [Me]
			end := strings.IndexByte(expr[i:], ']') + i
			toks = append(toks, filterToken{tokString, expr[i : end+1]})
			i = end + 1
		case c == '[':
			toks = append(toks, filterToken{tokLBracket, "["})
			i++
		case c == ']':
			toks = append(toks, filterToken{tokRBracket, "]"})
			i++
		case c == ',':
			toks = append(toks, filterToken{tokComma, ","})
			i++
		case c == '"' || c == '\'':
			quote := c
			j := i + 1
			for j < len(expr) && expr[j] != quote {
				j++
			}
			toks = append(toks, filterToken{tokString, expr[i+1 : j]})
			i = j + 1
		case c == '<' || c == '>' || c == '=' || c == '!':
			j := i + 1
			if j < len(expr) && (expr[j] == '=' || (c == '<' && expr[j] == '>')) {
				j++
			}
			toks = append(toks, filterToken{tokOp, expr[i:j]})
			i = j
		case c >= '0' && c <= '9' || c == '-' && i+1 < len(expr) && expr[i+1] >= '0' && expr[i+1] <= '9':
			j := i + 1
			for j < len(expr) && (expr[j] >= '0' && expr[j] <= '9' || expr[j] == '.') {
				j++
			}
			toks = append(toks, filterToken{tokNumber, expr[i:j]})
			i = j
		case isIdentChar(c):
			j := i
			for j < len(expr) && isIdentChar(expr[j]) {
				j++
			}
			toks = append(toks, filterToken{tokIdent, expr[i:j]})
			i = j
		default:
			toks = append(toks, filterToken{tokOp, string(c)})
			i++
		}
	}
	toks = append(toks, filterToken{tokEOF, ""})
	return toks
}

func isIdentChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_'
}

var reBracketToken = regexp.MustCompile(`^\[(Today([+-]\d+)?|Me)\]`)

func isBracketToken(s string) bool {
	return reBracketToken.MatchString(s)
}

type filterParser struct {
	toks   []filterToken
	pos    int
	escape bool
}

func (p *filterParser) peek() filterToken { return p.toks[p.pos] }
func (p *filterParser) next() filterToken { t := p.toks[p.pos]; p.pos++; return t }
func (p *filterParser) eof() bool         { return p.peek().kind == tokEOF }

func (p *filterParser) isKeyword(kw string) bool {
	t := p.peek()
	return t.kind == tokIdent && strings.EqualFold(t.text, kw)
}

func (p *filterParser) parseOr() (string, error) {
	left, err := p.parseAnd()
	if err != nil {
		return "", err
	}
	for p.isKeyword("OR") {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return "", err
		}
		left = "<Or>" + left + right + "</Or>"
	}
	return left, nil
}

func (p *filterParser) parseAnd() (string, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return "", err
	}
	for p.isKeyword("AND") {
		p.next()
		right, err := p.parsePrimary()
		if err != nil {
			return "", err
		}
		left = "<And>" + left + right + "</And>"
	}
	return left, nil
}

func (p *filterParser) parsePrimary() (string, error) {
	if p.peek().kind == tokLParen {
		p.next()
		inner, err := p.parseOr()
		if err != nil {
			return "", err
		}
		if p.peek().kind != tokRParen {
			return "", filterSyntaxError("missing closing parenthesis")
		}
		p.next()
		return inner, nil
	}
	return p.parseComparison()
}

var comparisonTags = map[string]string{
	"=": "Eq", "<>": "Neq", "!=": "Neq",
	"<": "Lt", ">": "Gt", "<=": "Leq", ">=": "Geq",
}

func (p *filterParser) parseComparison() (string, error) {
	field := p.next()
	if field.kind != tokIdent {
		return "", filterSyntaxError(fmt.Sprintf("expected a field name, got %q", field.text))
	}
	switch {
	case p.peek().kind == tokOp:
		op := p.next().text
		tag, ok := comparisonTags[op]
		if !ok {
			return "", filterSyntaxError(fmt.Sprintf("unknown operator %q", op))
		}
		v, err := p.parseValue()
		if err != nil {
			return "", err
		}
		return "<" + tag + ">" + fieldRef(field.text, v.lookupID) + v.xml() + "</" + tag + ">", nil
	case p.isKeyword("LIKE"):
		p.next()
		v, err := p.parseValue()
		if err != nil {
			return "", err
		}
		return "<Contains>" + fieldRef(field.text, false) + `<Value Type="Text">` + v.text + "</Value></Contains>", nil
	case p.isKeyword("IN"):
		p.next()
		if p.peek().kind != tokLBracket {
			return "", filterSyntaxError("expected [ after IN")
		}
		p.next()
		var values []*filterValue
		lookup := false
		for {
			v, err := p.parseValue()
			if err != nil {
				return "", err
			}
			lookup = lookup || v.lookupID
			values = append(values, v)
			if p.peek().kind == tokComma {
				p.next()
				continue
			}
			break
		}
		if p.peek().kind != tokRBracket {
			return "", filterSyntaxError("expected ] to close IN list")
		}
		p.next()
		var b strings.Builder
		b.WriteString("<In>")
		b.WriteString(fieldRef(field.text, lookup))
		b.WriteString("<Values>")
		for _, v := range values {
			b.WriteString(v.xml())
		}
		b.WriteString("</Values></In>")
		return b.String(), nil
	case p.isKeyword("IS"):
		p.next()
		tag := "IsNull"
		if p.isKeyword("NOT") {
			p.next()
			tag = "IsNotNull"
		}
		if !p.isKeyword("NULL") {
			return "", filterSyntaxError("expected NULL after IS")
		}
		p.next()
		return "<" + tag + ">" + fieldRef(field.text, false) + "</" + tag + ">", nil
	default:
		return "", filterSyntaxError(fmt.Sprintf("expected an operator after %q", field.text))
	}
}

type filterValue struct {
	typ      string // Value Type attribute
	text     string // escaped text content, or literal child element
	attrs    string // extra Value attributes
	lookupID bool
}

func (v *filterValue) xml() string {
	return `<Value Type="` + v.typ + `"` + v.attrs + `>` + v.text + `</Value>`
}

var (
	reDateValue     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	reDateTimeValue = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}(:\d{2})?$`)
	reTodayValue    = regexp.MustCompile(`^\[Today([+-]\d+)?\]$`)
	reLookupValue   = regexp.MustCompile(`^~(-?\d+)$`)
)

func (p *filterParser) parseValue() (*filterValue, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return &filterValue{typ: "Number", text: t.text}, nil
	case tokIdent:
		switch strings.ToUpper(t.text) {
		case "TRUE":
			return &filterValue{typ: "Boolean", text: "1"}, nil
		case "FALSE":
			return &filterValue{typ: "Boolean", text: "0"}, nil
		}
		return nil, filterSyntaxError(fmt.Sprintf("unexpected value %q", t.text))
	case tokString:
		if m := reLookupValue.FindStringSubmatch(t.text); m != nil {
			return &filterValue{typ: "Integer", text: m[1], lookupID: true}, nil
		}
		if m := reTodayValue.FindStringSubmatch(t.text); m != nil {
			today := "<Today/>"
			if m[1] != "" {
				today = `<Today OffsetDays="` + strings.TrimPrefix(m[1], "+") + `"/>`
			}
			return &filterValue{typ: "DateTime", text: today}, nil
		}
		if t.text == "[Me]" {
			return &filterValue{typ: "Integer", text: "<UserID/>"}, nil
		}
		if reDateValue.MatchString(t.text) {
			return &filterValue{typ: "DateTime", text: t.text}, nil
		}
		if reDateTimeValue.MatchString(t.text) {
			return &filterValue{
				typ:   "DateTime",
				text:  strings.Replace(t.text, " ", "T", 1),
				attrs: ` IncludeTimeValue="True"`,
			}, nil
		}
		text := t.text
		if p.escape {
			text = xmlEscape(text)
		}
		return &filterValue{typ: "Text", text: text}, nil
	default:
		return nil, filterSyntaxError(fmt.Sprintf("expected a value, got %q", t.text))
	}
}

func fieldRef(name string, lookupID bool) string {
	if lookupID {
		return `<FieldRef Name="` + name + `" LookupId="TRUE"/>`
	}
	return `<FieldRef Name="` + name + `"/>`
}
