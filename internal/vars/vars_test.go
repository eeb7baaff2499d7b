package vars

import (
	"testing"

	"github.com/markschl/seqtool-sub000/internal/attr"
	"github.com/markschl/seqtool-sub000/internal/qual"
	"github.com/markschl/seqtool-sub000/internal/record"
)

func lit(s string) Arg { return Arg{Kind: ArgLiteral, Literal: s} }

func TestRegistryGeneralAndStats(t *testing.T) {
	reg := NewRegistry()
	reg.Add(NewGeneral())
	reg.Add(NewStats())

	idID, err := reg.RegisterVar(Call{Name: "id"})
	if err != nil {
		t.Fatalf("RegisterVar(id): %v", err)
	}
	seqlenID, err := reg.RegisterVar(Call{Name: "seqlen"})
	if err != nil {
		t.Fatalf("RegisterVar(seqlen): %v", err)
	}
	gcID, err := reg.RegisterVar(Call{Name: "gc"})
	if err != nil {
		t.Fatalf("RegisterVar(gc): %v", err)
	}
	ccID, err := reg.RegisterVar(Call{Name: "charcount", Args: []Arg{lit("N")}})
	if err != nil {
		t.Fatalf("RegisterVar(charcount): %v", err)
	}
	if _, err := reg.RegisterVar(Call{Name: "nope"}); err == nil {
		t.Fatalf("expected error for unknown variable")
	}

	table := reg.NewTable()
	rec := &record.Record{
		Header: record.NewSplitHeader([]byte("seq1"), nil),
		RawSeq: []byte("ACGTNN"),
		Num:    1,
	}
	ctx := &Context{Record: rec, Attrs: (&attr.Engine{}).Scan(nil, nil), QualEnc: qual.Sanger}
	if err := reg.SetRecord(ctx, table); err != nil {
		t.Fatalf("SetRecord: %v", err)
	}

	if got := string(CellText(ctx, table.Cell(idID))); got != "seq1" {
		t.Fatalf("id: got %q", got)
	}
	if v, _ := table.Cell(seqlenID).Int(); v != 6 {
		t.Fatalf("seqlen: got %d", v)
	}
	if v, _ := table.Cell(gcID).Float(); v < 49 || v > 51 {
		// 2 GC of 4 non-N bases = 50%
		t.Fatalf("gc: got %v", v)
	}
	if v, _ := table.Cell(ccID).Int(); v != 2 {
		t.Fatalf("charcount(N): got %d", v)
	}
}

func TestRegistryAttrs(t *testing.T) {
	engine := attr.NewEngine(attr.DefaultFormat())
	reg := NewRegistry()
	reg.Add(NewAttrs(engine))

	attrID, err := reg.RegisterVar(Call{Name: "attr", Args: []Arg{lit("size")}})
	if err != nil {
		t.Fatalf("RegisterVar(attr): %v", err)
	}
	hasID, err := reg.RegisterVar(Call{Name: "has_attr", Args: []Arg{lit("missing")}})
	if err != nil {
		t.Fatalf("RegisterVar(has_attr): %v", err)
	}

	table := reg.NewTable()
	desc := []byte("sample desc size=42")
	rec := &record.Record{Header: record.NewSplitHeader([]byte("seq1"), desc)}
	ctx := &Context{Record: rec, Attrs: engine.Scan(rec.ID(), desc)}
	if err := reg.SetRecord(ctx, table); err != nil {
		t.Fatalf("SetRecord: %v", err)
	}
	if got := string(table.Cell(attrID).Bytes()); got != "42" {
		t.Fatalf("attr(size): got %q", got)
	}
	if b, _ := table.Cell(hasID).Bool(); b {
		t.Fatalf("has_attr(missing): expected false")
	}
}

func TestRegistryConvert(t *testing.T) {
	engine := attr.NewEngine(attr.DefaultFormat())
	reg := NewRegistry()
	reg.Add(NewAttrs(engine))
	reg.Add(NewConvert())

	attrID, err := reg.RegisterVar(Call{Name: "attr", Args: []Arg{lit("size")}})
	if err != nil {
		t.Fatalf("RegisterVar(attr): %v", err)
	}
	numID, err := reg.RegisterVar(Call{Name: "num", Args: []Arg{{Kind: ArgVar, VarID: attrID}}})
	if err != nil {
		t.Fatalf("RegisterVar(num): %v", err)
	}

	table := reg.NewTable()
	desc := []byte("desc size=42")
	rec := &record.Record{Header: record.NewSplitHeader([]byte("seq1"), desc)}
	ctx := &Context{Record: rec, Attrs: engine.Scan(rec.ID(), desc)}
	if err := reg.SetRecord(ctx, table); err != nil {
		t.Fatalf("SetRecord: %v", err)
	}
	v, err := table.Cell(numID).Int()
	if err != nil || v != 42 {
		t.Fatalf("num(attr(size)): got %d, err %v", v, err)
	}
}
