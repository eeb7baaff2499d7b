package expr

import (
	"errors"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"

	"github.com/markschl/seqtool-sub000/internal/errs"
	"github.com/markschl/seqtool-sub000/internal/vars"
)

// binding maps one placeholder identifier introduced by the rewrite to the
// symbol id that supplies its value each record.
type binding struct {
	placeholder string
	symbolID    int
}

// rewrite traverses the scanned call sites of script and replaces every one
// that resolve recognizes with a deterministic placeholder identifier
// (§4.9). A site resolve reports as "unknown" (errs.Lookup) is left
// untouched — it is ordinary JS, not a seqtool variable reference.
// Nested arguments are passed to resolve as literal source text (quoted
// strings are unescaped); this covers the common `attr("kind")`/
// `meta(1, "col")` shape without attempting to rewrite inside dynamically
// computed argument expressions.
func rewrite(script string, resolve func(vars.Call) (int, error)) (string, []binding, error) {
	sites := scanCallSites(script)

	type resolved struct {
		site        callSite
		placeholder string
		symbolID    int
	}
	var hits []resolved

	for _, site := range sites {
		call := vars.Call{Name: site.name}
		for _, a := range site.argTexts {
			call.Args = append(call.Args, vars.Arg{Kind: vars.ArgLiteral, Literal: unquoteJSLiteral(a)})
		}
		id, err := resolve(call)
		if err != nil {
			if isUnknown(err) {
				continue
			}
			return "", nil, err
		}
		hits = append(hits, resolved{site: site, placeholder: placeholderFor(site), symbolID: id})
	}

	// apply replacements right-to-left so earlier byte offsets stay valid.
	sort.Slice(hits, func(i, j int) bool { return hits[i].site.nameStart > hits[j].site.nameStart })

	out := script
	var bindings []binding
	seen := make(map[string]bool)
	for _, h := range hits {
		end := h.site.nameEnd
		if h.site.isCall {
			end = h.site.argsEnd + 1
		}
		out = out[:h.site.nameStart] + h.placeholder + out[end:]
		if !seen[h.placeholder] {
			seen[h.placeholder] = true
			bindings = append(bindings, binding{placeholder: h.placeholder, symbolID: h.symbolID})
		}
	}
	return out, bindings, nil
}

func isUnknown(err error) bool {
	var e *errs.Error
	if errors.As(err, &e) {
		return e.Kind == errs.Lookup
	}
	return false
}

// placeholderFor derives a deterministic identifier from a call site's name
// and raw argument text, so that identical calls anywhere in the script (or
// across different expressions) rewrite to the same placeholder and can
// share a compiled program (§4.9).
func placeholderFor(site callSite) string {
	h := fnv.New64a()
	h.Write([]byte(site.name))
	h.Write([]byte{'|'})
	h.Write([]byte(strings.Join(site.argTexts, "\x1f")))
	return fmt.Sprintf("__v_%x", h.Sum64())
}

// unquoteJSLiteral strips surrounding quotes and resolves backslash
// escapes from a single- or double-quoted JS string literal; any other
// source text (barewords, numbers) passes through unchanged.
func unquoteJSLiteral(src string) string {
	if len(src) < 2 {
		return src
	}
	q := src[0]
	if (q != '"' && q != '\'') || src[len(src)-1] != q {
		return src
	}
	inner := src[1 : len(src)-1]
	var buf strings.Builder
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		if c == '\\' && i+1 < len(inner) {
			i++
			buf.WriteByte(unescape(inner[i]))
			continue
		}
		buf.WriteByte(c)
	}
	return buf.String()
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
