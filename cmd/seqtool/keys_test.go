package main

import (
	"testing"

	"github.com/markschl/seqtool-sub000/internal/attr"
	"github.com/markschl/seqtool-sub000/internal/qual"
	"github.com/markschl/seqtool-sub000/internal/record"
	"github.com/markschl/seqtool-sub000/internal/seqio"
	"github.com/markschl/seqtool-sub000/internal/vars"
)

func buildTestContext(t *testing.T, reg *vars.Registry, id, desc, seq string) (*vars.Context, *record.Record) {
	t.Helper()
	rec := &record.Record{
		Header: record.NewSplitHeader([]byte(id), []byte(desc)),
		RawSeq: []byte(seq),
	}
	engine := attr.NewEngine(attr.DefaultFormat())
	ctx := &vars.Context{
		Record:  rec,
		Attrs:   engine.Scan(rec.ID(), rec.Desc()),
		QualEnc: qual.Sanger,
	}
	return ctx, rec
}

func TestBuildKeyTextAndNumeric(t *testing.T) {
	reg := vars.NewRegistry()
	reg.Add(vars.NewGeneral())
	reg.Add(vars.NewStats())
	reg.Add(vars.NewConvert())

	fields, err := compileKeyFields("id,num(seqlen)", reg)
	if err != nil {
		t.Fatalf("compileKeyFields: %v", err)
	}

	ctx, _ := buildTestContext(t, reg, "seq1", "", "ACGTACGT")
	table := reg.NewTable()
	if err := reg.SetRecord(ctx, table); err != nil {
		t.Fatalf("SetRecord: %v", err)
	}

	key := buildKey(fields, ctx, table)
	if len(key) != 2 {
		t.Fatalf("expected 2 key components, got %d", len(key))
	}
	if string(key[0].Text) != "seq1" {
		t.Fatalf("key[0]: got %q", key[0].Text)
	}
	if key[1].Float != 8 {
		t.Fatalf("key[1]: expected 8, got %v", key[1].Float)
	}
}

func TestFormatRecordFasta(t *testing.T) {
	got := formatRecord(seqio.FormatFasta, []byte("seq1"), []byte("desc"), []byte("ACGT"), nil)
	want := ">seq1 desc\nACGT\n"
	if string(got) != want {
		t.Fatalf("formatRecord: got %q, want %q", got, want)
	}
}

func TestFormatRecordFastq(t *testing.T) {
	got := formatRecord(seqio.FormatFastq, []byte("seq1"), nil, []byte("ACGT"), []byte("IIII"))
	want := "@seq1\nACGT\n+\nIIII\n"
	if string(got) != want {
		t.Fatalf("formatRecord: got %q, want %q", got, want)
	}
}
