package vars

import (
	"strconv"

	"github.com/markschl/seqtool-sub000/internal/errs"
	"github.com/markschl/seqtool-sub000/internal/symtab"
)

type convertSlot struct {
	id       int
	sourceID int
}

// Convert implements the built-in "num(x)" function (§4.6): forces
// numeric interpretation of a text-typed source, re-parsing on every
// record since the source may vary (e.g. an attribute value); none passes
// through unchanged.
type Convert struct {
	slots []convertSlot
}

// NewConvert constructs the provider.
func NewConvert() *Convert { return &Convert{} }

func (c *Convert) StaticName() string { return "convert" }

func (c *Convert) Register(call Call, b *Builder) (int, bool, error) {
	if call.Name != "num" {
		return 0, false, nil
	}
	if len(call.Args) != 1 {
		return 0, true, errs.New(errs.Parse, "num() requires exactly one argument")
	}
	arg := call.Args[0]
	var sourceID int
	switch arg.Kind {
	case ArgVar:
		sourceID = arg.VarID
	case ArgLiteral:
		id, err := b.Resolve(Call{Name: arg.Literal})
		if err != nil {
			return 0, true, err
		}
		sourceID = id
	}
	for _, s := range c.slots {
		if s.sourceID == sourceID {
			return s.id, true, nil
		}
	}
	id := b.Alloc()
	c.slots = append(c.slots, convertSlot{id: id, sourceID: sourceID})
	return id, true, nil
}

func (c *Convert) SetRecord(ctx *Context, table *symtab.Table) error {
	for _, s := range c.slots {
		src := table.Cell(s.sourceID)
		dst := table.Cell(s.id)
		if src.IsNone() {
			dst.SetNone()
			continue
		}
		if src.Kind() == symtab.Int || src.Kind() == symtab.Float {
			*dst = *src
			continue
		}
		text := string(CellText(ctx, src))
		if iv, err := strconv.ParseInt(text, 10, 64); err == nil {
			dst.SetInt(iv)
			continue
		}
		fv, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return errs.New(errs.Type, "num(): value %q is not numeric", text)
		}
		dst.SetFloat(fv)
	}
	return nil
}
