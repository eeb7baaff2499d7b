package expr

import (
	"sync"

	"github.com/dop251/goja"

	"github.com/markschl/seqtool-sub000/internal/errs"
	"github.com/markschl/seqtool-sub000/internal/symtab"
	"github.com/markschl/seqtool-sub000/internal/vars"
)

// program is one compiled expression: its rewritten, goja-compiled source
// plus the bindings that feed its free variables from the symbol table
// before each Eval.
type program struct {
	compiled *goja.Program
	bindings []binding
	source   string // post-rewrite source, used as the program-cache key
}

// Engine is a persistent dop251/goja runtime shared by every "{{ ... }}"
// expression in a run (§4.9). Expressions are compiled once up front;
// identical post-rewrite source shares a single *goja.Program, since
// scripts that reduce to the same rewritten text (e.g. two uses of
// `{{ gc }}`) produce identical compiled code.
type Engine struct {
	mu       sync.Mutex // guards vm, since Eval runs on the single driver goroutine per worker but Compile may run during setup from a different one
	vm       *goja.Runtime
	programs []*program
	cache    map[string]int // post-rewrite source -> index into programs
}

// NewEngine constructs an Engine, optionally running initCode (e.g. helper
// function definitions) once against the shared runtime before any
// expression is compiled.
func NewEngine(initCode string) (*Engine, error) {
	vm := goja.New()
	if initCode != "" {
		if _, err := vm.RunString(initCode); err != nil {
			return nil, errs.New(errs.Parse, "expression init code: %s", err)
		}
	}
	return &Engine{
		vm:    vm,
		cache: make(map[string]int),
	}, nil
}

// Compile implements vars.Evaluator. It rewrites script's free-variable
// references into placeholder identifiers via resolve, compiles the
// rewritten source with goja (sharing a cached *goja.Program when an
// identical rewritten script was seen before), and returns an opaque
// handle for Eval.
func (e *Engine) Compile(script string, resolve func(vars.Call) (int, error)) (int, error) {
	rewritten, bindings, err := rewrite(script, resolve)
	if err != nil {
		return 0, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if idx, ok := e.cache[rewritten]; ok {
		return idx, nil
	}
	compiled, err := goja.Compile("<expr>", rewritten, false)
	if err != nil {
		return 0, errs.New(errs.Parse, "invalid expression %q: %s", script, err)
	}
	idx := len(e.programs)
	e.programs = append(e.programs, &program{compiled: compiled, bindings: bindings, source: rewritten})
	e.cache[rewritten] = idx
	return idx, nil
}

// Eval implements vars.Evaluator. It refreshes the placeholder globals the
// program's bindings reference, runs the program, and maps the JS result
// back onto dst's symtab.Cell kind.
func (e *Engine) Eval(handle int, ctx *vars.Context, table *symtab.Table, dst *symtab.Cell) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	p := e.programs[handle]
	for _, b := range p.bindings {
		if err := e.setGlobal(ctx, table, b); err != nil {
			return err
		}
	}
	v, err := e.vm.RunProgram(p.compiled)
	if err != nil {
		return errs.New(errs.Type, "expression evaluation failed: %s", err)
	}
	setCellFromValue(dst, v)
	return nil
}

func (e *Engine) setGlobal(ctx *vars.Context, table *symtab.Table, b binding) error {
	cell := table.Cell(b.symbolID)
	var val interface{}
	switch cell.Kind() {
	case symtab.None:
		val = goja.Undefined()
	case symtab.Int:
		n, err := cell.Int()
		if err != nil {
			return err
		}
		val = n
	case symtab.Float:
		f, err := cell.Float()
		if err != nil {
			return err
		}
		val = f
	case symtab.Bool:
		bv, err := cell.Bool()
		if err != nil {
			return err
		}
		val = bv
	default:
		val = string(vars.CellText(ctx, cell))
	}
	return e.vm.Set(b.placeholder, val)
}

// setCellFromValue maps a goja result back to a symtab.Cell kind, choosing
// the closest native representation (§4.9 "expressions may return numbers,
// booleans, strings or null/undefined").
func setCellFromValue(dst *symtab.Cell, v goja.Value) {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		dst.SetNone()
		return
	}
	switch exported := v.Export().(type) {
	case bool:
		dst.SetBool(exported)
	case int64:
		dst.SetInt(exported)
	case float64:
		if exported == float64(int64(exported)) {
			dst.SetInt(int64(exported))
		} else {
			dst.SetFloat(exported)
		}
	default:
		dst.SetText([]byte(v.String()))
	}
}
