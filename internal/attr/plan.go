package attr

import (
	"github.com/markschl/seqtool-sub000/internal/errs"
	"github.com/markschl/seqtool-sub000/internal/symtab"
)

// Action classifies what the engine does with a registered attribute name
// on output (§3 "Attribute plan").
type Action int

const (
	ReadOnly Action = iota
	Edit
	Append
	Delete
)

// ValueFunc produces the replacement/appended value for an Edit/Append
// action by consulting the symbol table (populated by the variable
// registry for the current record). Kept as a function type rather than
// importing internal/varstring directly, so the varstring/expression
// layers can depend on attr without a cycle.
type ValueFunc func(*symtab.Table) []byte

// def is one registered attribute.
type def struct {
	id     int
	name   string
	action Action
	value  ValueFunc
}

// Engine holds the registered attribute plan and the per-record scan
// state (§4.5).
type Engine struct {
	Format Format

	byName map[string]*def
	order  []*def // registration order, used for stable ids and append order

	needsScan bool
}

// NewEngine constructs an engine with the given header-attribute format.
func NewEngine(format Format) *Engine {
	return &Engine{Format: format, byName: make(map[string]*def)}
}

// Register records an action for attribute name, returning its stable id.
// A name may be registered only once; a second registration with a
// different action is rejected rather than guessed at (§9 Open Question 1).
// Re-registering the same name with the same action and a fresh value
// function is allowed and simply rebinds the value source.
func (e *Engine) Register(name string, action Action, value ValueFunc) (int, error) {
	if existing, ok := e.byName[name]; ok {
		if existing.action != action {
			return 0, errs.New(errs.Parse, "conflicting actions registered for attribute %q", name)
		}
		existing.value = value
		return existing.id, nil
	}
	d := &def{id: len(e.order), name: name, action: action, value: value}
	e.byName[name] = d
	e.order = append(e.order, d)
	if action == ReadOnly || action == Edit || action == Delete || action == Append {
		e.needsScan = true
	}
	return d.id, nil
}

// Len returns the number of distinct registered attribute names.
func (e *Engine) Len() int { return len(e.order) }

// Name returns the attribute name for a stable id returned by Register.
func (e *Engine) Name(id int) string {
	for _, d := range e.order {
		if d.id == id {
			return d.name
		}
	}
	return ""
}
