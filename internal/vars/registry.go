package vars

import (
	"github.com/markschl/seqtool-sub000/internal/errs"
	"github.com/markschl/seqtool-sub000/internal/symtab"
)

// Registry holds the ordered provider list and dispatches register_var
// last-to-first (§4.6).
type Registry struct {
	providers []Provider
	nextID    int
}

// NewRegistry constructs an empty registry. Providers are added in the
// order the driver will call SetRecord on them; Add a provider that
// depends on another's output (e.g. the expression provider) last.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add appends a provider to the registration order.
func (r *Registry) Add(p Provider) {
	r.providers = append(r.providers, p)
}

// Builder is handed to a Provider's Register method so it can recursively
// resolve nested variable/function references without seeing itself or any
// provider registered after it (§4.6: "recursively query earlier providers
// via the same builder; this is how an expression evaluator resolves
// embedded variables without being visible to itself").
type Builder struct {
	reg   *Registry
	limit int // exclusive upper bound on provider index visible to Resolve
}

// Resolve looks up name among providers strictly before the one that
// obtained this Builder, last-to-first.
func (b *Builder) Resolve(call Call) (int, error) {
	return b.reg.registerUpTo(call, b.limit)
}

// Alloc reserves a fresh symbol id for a provider's own use (e.g. a
// registered-but-not-yet-seen attribute name) without going through name
// resolution.
func (b *Builder) Alloc() int {
	id := b.reg.nextID
	b.reg.nextID++
	return id
}

// RegisterVar resolves name/args against every provider, last to first,
// returning the first recognizing provider's symbol id (§4.6).
func (r *Registry) RegisterVar(call Call) (int, error) {
	return r.registerUpTo(call, len(r.providers))
}

func (r *Registry) registerUpTo(call Call, limit int) (int, error) {
	for i := limit - 1; i >= 0; i-- {
		p := r.providers[i]
		b := &Builder{reg: r, limit: i}
		id, ok, err := p.Register(call, b)
		if err != nil {
			return 0, err
		}
		if ok {
			return id, nil
		}
	}
	return 0, errs.New(errs.Lookup, "unknown variable or function %q", call.Name)
}

// NewTable allocates a symtab.Table sized for every symbol id handed out so
// far.
func (r *Registry) NewTable() *symtab.Table {
	return symtab.NewTable(r.nextID)
}

// SetRecord iterates providers in registration order, letting each fill its
// owned cells. Provider i may read cells written by providers < i; it must
// not read cells written by providers > i (§4.6 ordering guarantee).
func (r *Registry) SetRecord(ctx *Context, table *symtab.Table) error {
	table.Grow(r.nextID)
	for _, p := range r.providers {
		if err := p.SetRecord(ctx, table); err != nil {
			return err
		}
	}
	return nil
}
