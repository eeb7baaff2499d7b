package varstring

import (
	"testing"

	"github.com/markschl/seqtool-sub000/internal/attr"
	"github.com/markschl/seqtool-sub000/internal/record"
	"github.com/markschl/seqtool-sub000/internal/vars"
)

func TestParseMixedSegments(t *testing.T) {
	segs, err := Parse([]byte("prefix_{id}_suffix"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(segs) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segs))
	}
	if segs[0].Kind != SegText || string(segs[0].Text) != "prefix_" {
		t.Fatalf("segment 0: %+v", segs[0])
	}
	if segs[1].Kind != SegVar || segs[1].Var.Name != "id" {
		t.Fatalf("segment 1: %+v", segs[1])
	}
	if segs[2].Kind != SegText || string(segs[2].Text) != "_suffix" {
		t.Fatalf("segment 2: %+v", segs[2])
	}
}

func TestParseFunctionArgs(t *testing.T) {
	segs, err := Parse([]byte("{charcount(\"AT\")}"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(segs) != 1 || segs[0].Kind != SegVar {
		t.Fatalf("expected single var segment, got %+v", segs)
	}
	call := segs[0].Var
	if call.Name != "charcount" || len(call.Args) != 1 || call.Args[0].Literal != "AT" {
		t.Fatalf("unexpected call: %+v", call)
	}
}

func TestParseExprBlock(t *testing.T) {
	segs, err := Parse([]byte("value={{ id + '_x' }}"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(segs) != 2 || segs[1].Kind != SegExpr {
		t.Fatalf("unexpected segments: %+v", segs)
	}
	if segs[1].Expr != " id + '_x' " {
		t.Fatalf("unexpected expr content: %q", segs[1].Expr)
	}
}

func TestParseListRaw(t *testing.T) {
	lists, err := ParseList([]byte("id, desc"), true)
	if err != nil {
		t.Fatalf("ParseList: %v", err)
	}
	if len(lists) != 2 {
		t.Fatalf("expected 2 items, got %d", len(lists))
	}
	for i, want := range []string{"id", "desc"} {
		if lists[i][0].Kind != SegVar || lists[i][0].Var.Name != want {
			t.Fatalf("item %d: %+v", i, lists[i])
		}
	}
}

func TestCompileAndEvalSoleVar(t *testing.T) {
	reg := vars.NewRegistry()
	reg.Add(vars.NewGeneral())

	segs, err := Parse([]byte("{id}"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	c, err := Compile(segs, reg)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !c.IsSoleVar() {
		t.Fatalf("expected sole-var optimization to apply")
	}

	table := reg.NewTable()
	rec := &record.Record{Header: record.NewSplitHeader([]byte("seq1"), nil)}
	ctx := &vars.Context{Record: rec, Attrs: attr.NewEngine(attr.DefaultFormat()).Scan(nil, nil)}
	if err := reg.SetRecord(ctx, table); err != nil {
		t.Fatalf("SetRecord: %v", err)
	}
	if got := string(c.Eval(ctx, table)); got != "seq1" {
		t.Fatalf("got %q", got)
	}
}

func TestCompileAndEvalMixed(t *testing.T) {
	reg := vars.NewRegistry()
	reg.Add(vars.NewGeneral())
	reg.Add(vars.NewStats())

	segs, err := Parse([]byte("{id}_len{seqlen}"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	c, err := Compile(segs, reg)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if c.IsSoleVar() {
		t.Fatalf("did not expect sole-var optimization for mixed segments")
	}

	table := reg.NewTable()
	rec := &record.Record{Header: record.NewSplitHeader([]byte("seq1"), nil), RawSeq: []byte("ACGT")}
	ctx := &vars.Context{Record: rec, Attrs: attr.NewEngine(attr.DefaultFormat()).Scan(nil, nil)}
	if err := reg.SetRecord(ctx, table); err != nil {
		t.Fatalf("SetRecord: %v", err)
	}
	if got := string(c.Eval(ctx, table)); got != "seq1_len4" {
		t.Fatalf("got %q", got)
	}
}
