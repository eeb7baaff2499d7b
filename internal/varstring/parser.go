package varstring

import (
	"bytes"

	"github.com/markschl/seqtool-sub000/internal/errs"
)

// Parse parses a single varstring: text interleaved with "{var_or_func}"
// and "{{ expression }}" segments (§4.8).
func Parse(src []byte) ([]Segment, error) {
	p := &parser{data: src}
	return p.parseSegments()
}

// ParseList parses a comma-delimited varstring list. When allowRaw is
// true, an item that is itself exactly one bareword var_or_func (no
// braces) is accepted without requiring "{...}" around it (§4.8).
func ParseList(src []byte, allowRaw bool) ([][]Segment, error) {
	items := splitTopLevel(src)
	result := make([][]Segment, 0, len(items))
	for _, item := range items {
		item = bytes.TrimSpace(item)
		if allowRaw {
			if segs, ok := tryParseRaw(item); ok {
				result = append(result, segs)
				continue
			}
		}
		segs, err := Parse(item)
		if err != nil {
			return nil, err
		}
		result = append(result, segs)
	}
	return result, nil
}

func tryParseRaw(item []byte) ([]Segment, bool) {
	if len(item) == 0 {
		return nil, false
	}
	p := &parser{data: item}
	call, err := p.parseVarCall()
	if err != nil || p.pos != len(item) {
		return nil, false
	}
	return []Segment{{Kind: SegVar, Var: call}}, true
}

// splitTopLevel splits src on commas that are not nested inside
// (), {}, or quotes.
func splitTopLevel(src []byte) [][]byte {
	var items [][]byte
	depth := 0
	var quote byte
	start := 0
	for i := 0; i < len(src); i++ {
		c := src[i]
		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '(', '{':
			depth++
		case ')', '}':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				items = append(items, src[start:i])
				start = i + 1
			}
		}
	}
	items = append(items, src[start:])
	return items
}

type parser struct {
	data []byte
	pos  int
}

func (p *parser) parseSegments() ([]Segment, error) {
	var segs []Segment
	var textBuf []byte
	flush := func() {
		if len(textBuf) > 0 {
			segs = append(segs, Segment{Kind: SegText, Text: textBuf})
			textBuf = nil
		}
	}
	for p.pos < len(p.data) {
		c := p.data[p.pos]
		switch {
		case c == '{' && p.pos+1 < len(p.data) && p.data[p.pos+1] == '{':
			flush()
			expr, err := p.parseExprBlock()
			if err != nil {
				return nil, err
			}
			segs = append(segs, Segment{Kind: SegExpr, Expr: expr})
		case c == '{':
			flush()
			call, err := p.parseVarBlock()
			if err != nil {
				return nil, err
			}
			segs = append(segs, Segment{Kind: SegVar, Var: call})
		case c == '\\' && p.pos+1 < len(p.data):
			textBuf = append(textBuf, p.data[p.pos+1])
			p.pos += 2
		default:
			textBuf = append(textBuf, c)
			p.pos++
		}
	}
	flush()
	return segs, nil
}

func (p *parser) parseExprBlock() (string, error) {
	p.pos += 2 // skip "{{"
	start := p.pos
	for p.pos+1 < len(p.data) {
		if p.data[p.pos] == '}' && p.data[p.pos+1] == '}' {
			content := string(p.data[start:p.pos])
			p.pos += 2
			return content, nil
		}
		p.pos++
	}
	return "", errs.New(errs.Parse, "unterminated '{{' expression block")
}

func (p *parser) parseVarBlock() (VarCall, error) {
	p.pos++ // skip "{"
	p.skipSpace()
	call, err := p.parseVarCall()
	if err != nil {
		return VarCall{}, err
	}
	p.skipSpace()
	if p.pos >= len(p.data) || p.data[p.pos] != '}' {
		return VarCall{}, errs.New(errs.Parse, "expected '}' closing variable reference %q", call.Name)
	}
	p.pos++
	return call, nil
}

func (p *parser) parseVarCall() (VarCall, error) {
	name, err := p.parseIdent()
	if err != nil {
		return VarCall{}, err
	}
	call := VarCall{Name: name}
	p.skipSpace()
	if p.pos < len(p.data) && p.data[p.pos] == '(' {
		p.pos++
		args, err := p.parseArgs()
		if err != nil {
			return VarCall{}, err
		}
		call.Args = args
		p.skipSpace()
		if p.pos >= len(p.data) || p.data[p.pos] != ')' {
			return VarCall{}, errs.New(errs.Parse, "expected ')' closing arguments to %q", name)
		}
		p.pos++
	}
	return call, nil
}

func (p *parser) parseArgs() ([]Arg, error) {
	var args []Arg
	p.skipSpace()
	if p.pos < len(p.data) && p.data[p.pos] == ')' {
		return args, nil
	}
	for {
		p.skipSpace()
		arg, err := p.parseArg()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		p.skipSpace()
		if p.pos < len(p.data) && p.data[p.pos] == ',' {
			p.pos++
			p.skipSpace()
			if p.pos < len(p.data) && p.data[p.pos] == ')' {
				break // trailing comma
			}
			continue
		}
		break
	}
	return args, nil
}

func (p *parser) parseArg() (Arg, error) {
	if p.pos >= len(p.data) {
		return Arg{}, errs.New(errs.Parse, "unexpected end of input in argument list")
	}
	c := p.data[p.pos]
	if c == '"' || c == '\'' {
		s, err := p.parseQuoted(c)
		if err != nil {
			return Arg{}, err
		}
		return Arg{Kind: ArgLiteral, Literal: s}, nil
	}
	start := p.pos
	name, err := p.parseIdent()
	if err != nil {
		return Arg{}, err
	}
	save := p.pos
	p.skipSpace()
	if p.pos < len(p.data) && p.data[p.pos] == '(' {
		p.pos = start
		call, err := p.parseVarCall()
		if err != nil {
			return Arg{}, err
		}
		return Arg{Kind: ArgCall, Call: call}, nil
	}
	p.pos = save
	return Arg{Kind: ArgLiteral, Literal: name}, nil
}

func (p *parser) parseQuoted(q byte) (string, error) {
	p.pos++ // skip opening quote
	var buf []byte
	for p.pos < len(p.data) {
		c := p.data[p.pos]
		if c == q {
			p.pos++
			return string(buf), nil
		}
		if c == '\\' && p.pos+1 < len(p.data) {
			buf = append(buf, unescape(p.data[p.pos+1]))
			p.pos += 2
			continue
		}
		buf = append(buf, c)
		p.pos++
	}
	return "", errs.New(errs.Parse, "unterminated quoted string")
}

func unescape(c byte) byte {
	switch c {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	default:
		return c
	}
}

func (p *parser) parseIdent() (string, error) {
	start := p.pos
	for p.pos < len(p.data) && isIdentChar(p.data[p.pos], p.pos == start) {
		p.pos++
	}
	if p.pos == start {
		return "", errs.New(errs.Parse, "expected identifier at position %d", start)
	}
	return string(p.data[start:p.pos]), nil
}

func isIdentChar(c byte, first bool) bool {
	if c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
		return true
	}
	return !first && c >= '0' && c <= '9'
}

func (p *parser) skipSpace() {
	for p.pos < len(p.data) && (p.data[p.pos] == ' ' || p.data[p.pos] == '\t') {
		p.pos++
	}
}
