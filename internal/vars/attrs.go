package vars

import (
	"github.com/markschl/seqtool-sub000/internal/attr"
	"github.com/markschl/seqtool-sub000/internal/errs"
	"github.com/markschl/seqtool-sub000/internal/symtab"
)

type attrSlot struct {
	fn       string // attr, opt_attr, attr_del, opt_attr_del, has_attr
	attrName string
	id       int
}

// Attrs implements the built-in "attrs" provider (§4.6), reading header
// key=value attributes via the shared attr.Engine. attr_del/opt_attr_del
// additionally register a Delete action on the engine so the attribute is
// dropped from the composed header.
type Attrs struct {
	engine *attr.Engine
	slots  []attrSlot
}

// NewAttrs constructs the provider bound to engine (the same one used for
// header composition, so reads and deletes share scan state).
func NewAttrs(engine *attr.Engine) *Attrs { return &Attrs{engine: engine} }

func (a *Attrs) StaticName() string { return "attrs" }

var attrFnNames = map[string]bool{
	"attr": true, "opt_attr": true, "attr_del": true, "opt_attr_del": true, "has_attr": true,
}

func (a *Attrs) Register(call Call, b *Builder) (int, bool, error) {
	if !attrFnNames[call.Name] {
		return 0, false, nil
	}
	if len(call.Args) != 1 || call.Args[0].Kind != ArgLiteral {
		return 0, true, errs.New(errs.Parse, "%s() requires one literal attribute-name argument", call.Name)
	}
	name := call.Args[0].Literal
	for _, s := range a.slots {
		if s.fn == call.Name && s.attrName == name {
			return s.id, true, nil
		}
	}
	var action attr.Action
	switch call.Name {
	case "attr_del", "opt_attr_del":
		action = attr.Delete
	default:
		action = attr.ReadOnly
	}
	if _, err := a.engine.Register(name, action, nil); err != nil {
		return 0, true, err
	}
	id := b.Alloc()
	a.slots = append(a.slots, attrSlot{fn: call.Name, attrName: name, id: id})
	return id, true, nil
}

func (a *Attrs) SetRecord(ctx *Context, table *symtab.Table) error {
	for _, s := range a.slots {
		cell := table.Cell(s.id)
		val, found := ctx.Attrs.Find(s.attrName)
		switch s.fn {
		case "has_attr":
			cell.SetBool(found)
		case "attr", "attr_del":
			if !found {
				return errs.New(errs.Lookup, "attribute %q not found in header of record %q", s.attrName, ctx.Record.ID())
			}
			cell.SetText(val)
		case "opt_attr", "opt_attr_del":
			if !found {
				cell.SetNone()
			} else {
				cell.SetText(val)
			}
		}
	}
	return nil
}
