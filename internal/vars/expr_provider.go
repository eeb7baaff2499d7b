package vars

import (
	"strings"

	"github.com/markschl/seqtool-sub000/internal/symtab"
)

// Evaluator is the subset of internal/expr.Engine the vars package needs.
// Declared here (rather than importing internal/expr directly) so that
// internal/expr can depend on vars.Registry/Builder to resolve an
// expression's free variables without an import cycle.
type Evaluator interface {
	// Compile parses and rewrites script, resolving every free variable
	// via resolve, and returns an opaque handle for Eval.
	Compile(script string, resolve func(Call) (int, error)) (int, error)
	// Eval runs the compiled expression handle against the current symbol
	// table, writing its result into dst. ctx is needed to resolve
	// RecordAttr-aliased cells (id/desc/seq) back to live record bytes.
	Eval(handle int, ctx *Context, table *symtab.Table, dst *symtab.Cell) error
}

type exprSlot struct {
	id     int
	handle int
}

// Expr implements the built-in "{{ script }}" provider (§4.6, §4.9). It is
// always registered last so that the expression engine's variable rewrite
// can resolve any other provider's names via the Builder before itself
// being shadowed by nothing (nothing comes after it).
type Expr struct {
	eval  Evaluator
	slots []exprSlot
}

// NewExpr constructs the provider over an already-constructed Evaluator.
func NewExpr(eval Evaluator) *Expr { return &Expr{eval: eval} }

func (e *Expr) StaticName() string { return "expr" }

// ExprCallPrefix is the synthetic call-name prefix the varstring layer
// uses to hand a raw `{{ ... }}` script to this provider (real parsing of
// the surrounding varstring happens in internal/varstring; by the time it
// reaches here, call.Name carries the prefix plus the literal script text).
const ExprCallPrefix = "__expr__"

func (e *Expr) Register(call Call, b *Builder) (int, bool, error) {
	if !strings.HasPrefix(call.Name, ExprCallPrefix) {
		return 0, false, nil
	}
	script := strings.TrimPrefix(call.Name, ExprCallPrefix)
	handle, err := e.eval.Compile(script, func(inner Call) (int, error) {
		return b.Resolve(inner)
	})
	if err != nil {
		return 0, true, err
	}
	id := b.Alloc()
	e.slots = append(e.slots, exprSlot{id: id, handle: handle})
	return id, true, nil
}

func (e *Expr) SetRecord(ctx *Context, table *symtab.Table) error {
	for _, s := range e.slots {
		if err := e.eval.Eval(s.handle, ctx, table, table.Cell(s.id)); err != nil {
			return err
		}
	}
	return nil
}
