package varstring

import (
	"github.com/markschl/seqtool-sub000/internal/symtab"
	"github.com/markschl/seqtool-sub000/internal/vars"
)

type compiledSeg struct {
	text  []byte // nil for a resolved var/expr segment
	varID int
	isVar bool
}

// Compiled is a varstring ready for per-record evaluation: every
// var_or_func and {{ expression }} segment has already been registered
// against a vars.Registry, so Eval only touches the symbol table.
type Compiled struct {
	segs []compiledSeg
	sole int // symbol id of the sole Var segment, or -1
}

// Compile registers every variable/expression reference in segs against
// reg and returns a Compiled ready for per-record Eval calls.
func Compile(segs []Segment, reg *vars.Registry) (*Compiled, error) {
	c := &Compiled{sole: -1}
	if len(segs) == 1 && segs[0].Kind == SegVar {
		call, err := compileCall(segs[0].Var, reg)
		if err != nil {
			return nil, err
		}
		id, err := reg.RegisterVar(call)
		if err != nil {
			return nil, err
		}
		c.sole = id
		return c, nil
	}
	for _, s := range segs {
		switch s.Kind {
		case SegText:
			c.segs = append(c.segs, compiledSeg{text: s.Text})
		case SegVar:
			call, err := compileCall(s.Var, reg)
			if err != nil {
				return nil, err
			}
			id, err := reg.RegisterVar(call)
			if err != nil {
				return nil, err
			}
			c.segs = append(c.segs, compiledSeg{varID: id, isVar: true})
		case SegExpr:
			id, err := reg.RegisterVar(vars.Call{Name: vars.ExprCallPrefix + s.Expr})
			if err != nil {
				return nil, err
			}
			c.segs = append(c.segs, compiledSeg{varID: id, isVar: true})
		}
	}
	return c, nil
}

// compileCall resolves a parsed VarCall into a vars.Call, recursively
// registering nested var_or_func arguments so they arrive as already-
// resolved symbol ids (the contract vars.Provider.Register expects).
func compileCall(vc VarCall, reg *vars.Registry) (vars.Call, error) {
	call := vars.Call{Name: vc.Name}
	for _, a := range vc.Args {
		switch a.Kind {
		case ArgLiteral:
			call.Args = append(call.Args, vars.Arg{Kind: vars.ArgLiteral, Literal: a.Literal})
		case ArgCall:
			inner, err := compileCall(a.Call, reg)
			if err != nil {
				return vars.Call{}, err
			}
			id, err := reg.RegisterVar(inner)
			if err != nil {
				return vars.Call{}, err
			}
			call.Args = append(call.Args, vars.Arg{Kind: vars.ArgVar, VarID: id})
		}
	}
	return call, nil
}

// IsSoleVar reports whether this varstring is exactly one Var segment, in
// which case EvalCell should be preferred over Eval so numeric/bool
// results bypass text formatting (§4.8).
func (c *Compiled) IsSoleVar() bool { return c.sole >= 0 }

// EvalCell returns the underlying cell for a sole-Var compiled varstring.
// Only valid when IsSoleVar is true.
func (c *Compiled) EvalCell(table *symtab.Table) *symtab.Cell {
	return table.Cell(c.sole)
}

// Eval renders the varstring to text for the current record.
func (c *Compiled) Eval(ctx *vars.Context, table *symtab.Table) []byte {
	if c.sole >= 0 {
		return vars.CellText(ctx, table.Cell(c.sole))
	}
	var buf []byte
	for _, s := range c.segs {
		if s.isVar {
			buf = append(buf, vars.CellText(ctx, table.Cell(s.varID))...)
		} else {
			buf = append(buf, s.text...)
		}
	}
	return buf
}
