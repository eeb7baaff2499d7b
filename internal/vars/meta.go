package vars

import (
	"strconv"

	"github.com/markschl/seqtool-sub000/internal/errs"
	"github.com/markschl/seqtool-sub000/internal/meta"
	"github.com/markschl/seqtool-sub000/internal/symtab"
)

type metaSlot struct {
	fn      string // meta, opt_meta, has_meta
	fileNum int    // 0-based index into sources
	col     int    // resolved 0-based column index
	id      int
}

// Meta implements the built-in "meta" provider (§4.6, §4.7): meta(col),
// meta(file-num, col), opt_meta, has_meta, backed by one internal/meta
// Source per configured metadata file.
type Meta struct {
	sources []*meta.Source
	slots   []metaSlot
}

// NewMeta constructs the provider over already-opened metadata sources,
// indexed by 1-based file-num as used in meta(file-num, col) (sources[0]
// is file-num 1, the implicit default for plain meta(col)).
func NewMeta(sources []*meta.Source) *Meta { return &Meta{sources: sources} }

var metaFnNames = map[string]bool{"meta": true, "opt_meta": true, "has_meta": true}

func (m *Meta) StaticName() string { return "meta" }

func (m *Meta) Register(call Call, b *Builder) (int, bool, error) {
	if !metaFnNames[call.Name] {
		return 0, false, nil
	}
	fileNum := 0
	var colArg Arg
	switch len(call.Args) {
	case 1:
		colArg = call.Args[0]
	case 2:
		if call.Args[0].Kind != ArgLiteral {
			return 0, true, errs.New(errs.Parse, "%s(): file-num must be a literal integer", call.Name)
		}
		n, err := strconv.Atoi(call.Args[0].Literal)
		if err != nil || n < 1 {
			return 0, true, errs.New(errs.Parse, "%s(): invalid file-num %q", call.Name, call.Args[0].Literal)
		}
		fileNum = n - 1
		colArg = call.Args[1]
	default:
		return 0, true, errs.New(errs.Parse, "%s() takes 1 or 2 arguments", call.Name)
	}
	if colArg.Kind != ArgLiteral {
		return 0, true, errs.New(errs.Parse, "%s(): column must be a literal name or index", call.Name)
	}
	if fileNum < 0 || fileNum >= len(m.sources) {
		return 0, true, errs.New(errs.Lookup, "%s(): no metadata source configured for file %d", call.Name, fileNum+1)
	}
	src := m.sources[fileNum]

	numIdx, numErr := strconv.Atoi(colArg.Literal)
	var col int
	var err error
	if numErr == nil {
		col, err = src.ColIndex("", numIdx-1)
	} else {
		col, err = src.ColIndex(colArg.Literal, 0)
	}
	if err != nil {
		return 0, true, err
	}

	for _, s := range m.slots {
		if s.fn == call.Name && s.fileNum == fileNum && s.col == col {
			return s.id, true, nil
		}
	}
	id := b.Alloc()
	m.slots = append(m.slots, metaSlot{fn: call.Name, fileNum: fileNum, col: col, id: id})
	return id, true, nil
}

func (m *Meta) SetRecord(ctx *Context, table *symtab.Table) error {
	for _, s := range m.slots {
		cell := table.Cell(s.id)
		src := m.sources[s.fileNum]
		row, ok, err := src.Lookup(string(ctx.Record.ID()))
		if err != nil {
			return err
		}
		switch s.fn {
		case "has_meta":
			cell.SetBool(ok)
		case "meta":
			if !ok {
				return errs.New(errs.Lookup, "no metadata row for id %q", ctx.Record.ID())
			}
			cell.SetText([]byte(row[s.col]))
		case "opt_meta":
			if !ok {
				cell.SetNone()
			} else {
				cell.SetText([]byte(row[s.col]))
			}
		}
	}
	return nil
}
