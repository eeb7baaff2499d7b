package expr

import "strings"

// reserved words are never rewritten as variable/function references.
var reserved = map[string]bool{
	"true": true, "false": true, "null": true, "undefined": true,
	"var": true, "let": true, "const": true, "function": true,
	"if": true, "else": true, "for": true, "while": true, "return": true,
	"typeof": true, "new": true, "this": true, "in": true, "of": true,
	"break": true, "continue": true, "instanceof": true, "void": true,
}

// scanCallSites performs a permissive single pass over src, identifying
// every bare identifier or `name(args)` call candidate for the
// variable-rewrite pass (§4.9). Member-access targets (".name") are
// skipped, since those refer to a JS object's own property, not a
// seqtool variable. String/template literals are skipped over without
// inspection; the parser does not recognize regex-literal syntax, so '/'
// is always treated as a plain operator token.
func scanCallSites(src string) []callSite {
	var sites []callSite
	n := len(src)
	i := 0
	lastSignificant := byte(0)

	for i < n {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '"' || c == '\'':
			end := scanQuoted(src, i)
			i = end
			lastSignificant = c
		case c == '`':
			end := scanTemplate(src, i)
			i = end
			lastSignificant = c
		case isIdentStart(c):
			start := i
			j := i + 1
			for j < n && isIdentPart(src[j]) {
				j++
			}
			name := src[start:j]
			skippedMember := lastSignificant == '.'
			lastSignificant = src[j-1]
			// look ahead past whitespace for '('
			k := j
			for k < n && (src[k] == ' ' || src[k] == '\t' || src[k] == '\n' || src[k] == '\r') {
				k++
			}
			if k < n && src[k] == '(' {
				argsStart := k + 1
				argsEnd := matchParen(src, k)
				if !skippedMember && !reserved[name] {
					sites = append(sites, callSite{
						name: name, isCall: true,
						nameStart: start, nameEnd: j,
						argsStart: argsStart, argsEnd: argsEnd,
						argTexts: splitArgs(src[argsStart:argsEnd]),
					})
				}
				i = argsEnd + 1
				lastSignificant = ')'
			} else {
				if !skippedMember && !reserved[name] {
					sites = append(sites, callSite{name: name, nameStart: start, nameEnd: j})
				}
				i = j
			}
		default:
			lastSignificant = c
			i++
		}
	}
	return sites
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// scanQuoted returns the index just past the closing quote matching the
// one at src[start].
func scanQuoted(src string, start int) int {
	q := src[start]
	i := start + 1
	for i < len(src) {
		if src[i] == '\\' && i+1 < len(src) {
			i += 2
			continue
		}
		if src[i] == q {
			return i + 1
		}
		i++
	}
	return len(src)
}

// scanTemplate returns the index just past the closing backtick. Nested
// "${...}" expressions are not separately tokenized — a known limitation
// of the permissive scan (§4.9 notes only identifiers/calls need locating,
// not full template-literal interpolation).
func scanTemplate(src string, start int) int {
	i := start + 1
	for i < len(src) {
		if src[i] == '\\' && i+1 < len(src) {
			i += 2
			continue
		}
		if src[i] == '`' {
			return i + 1
		}
		i++
	}
	return len(src)
}

// matchParen returns the index of the ')' matching the '(' at src[open].
func matchParen(src string, open int) int {
	depth := 0
	i := open
	for i < len(src) {
		switch src[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
			if depth == 0 {
				return i
			}
		case '"', '\'':
			i = scanQuoted(src, i) - 1
		case '`':
			i = scanTemplate(src, i) - 1
		}
		i++
	}
	return len(src)
}

// splitArgs splits a call's argument source on top-level commas.
func splitArgs(src string) []string {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil
	}
	var args []string
	depth := 0
	start := 0
	for i := 0; i < len(src); i++ {
		switch src[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case '"', '\'':
			i = scanQuoted(src, i) - 1
		case '`':
			i = scanTemplate(src, i) - 1
		case ',':
			if depth == 0 {
				args = append(args, strings.TrimSpace(src[start:i]))
				start = i + 1
			}
		}
	}
	args = append(args, strings.TrimSpace(src[start:]))
	return args
}
