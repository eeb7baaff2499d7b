// Package expr implements the JS-like expression engine of §4.9: a
// permissive scan used only to locate identifier and call-name source
// ranges for the variable-rewrite pass, and a runtime built on dop251/goja
// that actually executes the (rewritten) script.
package expr

// callSite marks a source range identified as a call `name(...)` or a bare
// identifier reference, a candidate for the variable-rewrite pass (§4.9).
// argsEnd is the index of the matching ')' when isCall is true.
type callSite struct {
	name           string
	isCall         bool
	nameStart      int
	nameEnd        int
	argsStart      int
	argsEnd        int
	argTexts       []string // raw (untokenized) source of each top-level argument, for literal args
}
