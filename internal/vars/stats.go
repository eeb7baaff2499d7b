package vars

import (
	"github.com/elliotwutingfeng/asciiset"

	"github.com/markschl/seqtool-sub000/internal/errs"
	"github.com/markschl/seqtool-sub000/internal/qual"
	"github.com/markschl/seqtool-sub000/internal/symtab"
)

// gapSet holds the bytes excluded by ungapped_len (common FASTA/alignment gap marks).
var gapSet, _ = asciiset.MakeASCIISet("-.~")

var gcSet, _ = asciiset.MakeASCIISet("ACGTUacgtu")

// statSlot remembers one registered statistics variable, including the
// character class for charcount (a distinct registration per argument).
type statSlot struct {
	name  string
	id    int
	chars string
	set   asciiset.AsciiSet
}

// Stats implements the built-in "stats" provider (§4.6): seqlen,
// ungapped_len, gc, charcount(chars), exp_err.
type Stats struct {
	slots []statSlot
}

// NewStats constructs the provider.
func NewStats() *Stats { return &Stats{} }

func (s *Stats) StaticName() string { return "stats" }

func (s *Stats) Register(call Call, b *Builder) (int, bool, error) {
	switch call.Name {
	case "seqlen", "ungapped_len", "gc", "exp_err":
		for _, sl := range s.slots {
			if sl.name == call.Name {
				return sl.id, true, nil
			}
		}
		id := b.Alloc()
		s.slots = append(s.slots, statSlot{name: call.Name, id: id})
		return id, true, nil
	case "charcount":
		if len(call.Args) != 1 || call.Args[0].Kind != ArgLiteral {
			return 0, true, errs.New(errs.Parse, "charcount() requires one literal character-class argument")
		}
		chars := call.Args[0].Literal
		for _, sl := range s.slots {
			if sl.name == call.Name && sl.chars == chars {
				return sl.id, true, nil
			}
		}
		set, ok := asciiset.MakeASCIISet(chars)
		if !ok {
			return 0, true, errs.New(errs.Parse, "charcount(): non-ASCII character class %q", chars)
		}
		id := b.Alloc()
		s.slots = append(s.slots, statSlot{name: call.Name, id: id, chars: chars, set: set})
		return id, true, nil
	}
	return 0, false, nil
}

func (s *Stats) SetRecord(ctx *Context, table *symtab.Table) error {
	seq := ctx.Record.RawSeq
	for _, sl := range s.slots {
		cell := table.Cell(sl.id)
		switch sl.name {
		case "seqlen":
			cell.SetInt(int64(len(seq)))
		case "ungapped_len":
			n := 0
			for _, b := range seq {
				if !gapSet.Contains(b) {
					n++
				}
			}
			cell.SetInt(int64(n))
		case "gc":
			gc, total := 0, 0
			for _, b := range seq {
				if !gcSet.Contains(b) {
					continue
				}
				total++
				switch b {
				case 'G', 'C', 'g', 'c':
					gc++
				}
			}
			if total == 0 {
				cell.SetFloat(0)
			} else {
				cell.SetFloat(100 * float64(gc) / float64(total))
			}
		case "charcount":
			n := 0
			for _, b := range seq {
				if sl.set.Contains(b) {
					n++
				}
			}
			cell.SetInt(int64(n))
		case "exp_err":
			if !ctx.Record.HasQual() {
				cell.SetNone()
				continue
			}
			cell.SetFloat(qual.TotalError(ctx.Record.Qual, ctx.QualEnc))
		}
	}
	return nil
}
