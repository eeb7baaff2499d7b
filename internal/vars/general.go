package vars

import (
	"path/filepath"
	"strings"

	"github.com/markschl/seqtool-sub000/internal/symtab"
)

// slot remembers which symbol id a General provider name was bound to.
type slot struct {
	name string
	id   int
}

// General implements the built-in "general" provider (§4.6): id, desc,
// seq, num, path, filename, filestem, extension, dirname, default_ext.
type General struct {
	slots []slot
}

// NewGeneral constructs the provider.
func NewGeneral() *General { return &General{} }

func (g *General) StaticName() string { return "general" }

var generalNames = map[string]bool{
	"id": true, "desc": true, "seq": true, "num": true,
	"path": true, "filename": true, "filestem": true,
	"extension": true, "dirname": true, "default_ext": true,
}

func (g *General) Register(call Call, b *Builder) (int, bool, error) {
	if !generalNames[call.Name] {
		return 0, false, nil
	}
	for _, s := range g.slots {
		if s.name == call.Name {
			return s.id, true, nil
		}
	}
	id := b.Alloc()
	g.slots = append(g.slots, slot{name: call.Name, id: id})
	return id, true, nil
}

func (g *General) SetRecord(ctx *Context, table *symtab.Table) error {
	for _, s := range g.slots {
		cell := table.Cell(s.id)
		switch s.name {
		case "id":
			cell.SetRecordAttr(symtab.FieldID)
		case "desc":
			cell.SetRecordAttr(symtab.FieldDesc)
		case "seq":
			cell.SetRecordAttr(symtab.FieldSeq)
		case "num":
			cell.SetInt(ctx.Record.Num)
		case "path":
			cell.SetText([]byte(ctx.Path))
		case "filename":
			cell.SetText([]byte(filepath.Base(ctx.Path)))
		case "filestem":
			base := filepath.Base(ctx.Path)
			cell.SetText([]byte(stripExt(base)))
		case "extension":
			cell.SetText([]byte(extOf(ctx.Path)))
		case "dirname":
			cell.SetText([]byte(filepath.Dir(ctx.Path)))
		case "default_ext":
			cell.SetText([]byte(defaultExtFor(ctx.Path)))
		}
	}
	return nil
}

func stripExt(base string) string {
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		return base[:i]
	}
	return base
}

func extOf(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimPrefix(ext, ".")
}

// defaultExtFor guesses the output extension matching the input's detected
// format, stripping any compression suffix first (fasta/fastq/csv/tsv).
func defaultExtFor(path string) string {
	base := filepath.Base(path)
	for _, cext := range []string{".gz", ".bz2", ".lz4", ".zst"} {
		if strings.HasSuffix(strings.ToLower(base), cext) {
			base = base[:len(base)-len(cext)]
			break
		}
	}
	return extOf(base)
}
