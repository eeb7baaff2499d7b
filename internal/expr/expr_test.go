package expr

import (
	"testing"

	"github.com/markschl/seqtool-sub000/internal/errs"
	"github.com/markschl/seqtool-sub000/internal/record"
	"github.com/markschl/seqtool-sub000/internal/vars"
)

func TestScanCallSitesBasic(t *testing.T) {
	sites := scanCallSites(`gc + charcount("N") - obj.seq`)
	var names []string
	for _, s := range sites {
		names = append(names, s.name)
	}
	if len(names) != 3 || names[0] != "gc" || names[1] != "charcount" || names[2] != "obj" {
		t.Fatalf("unexpected sites: %v", names)
	}
}

func TestScanCallSitesSkipsReservedAndMember(t *testing.T) {
	sites := scanCallSites(`if (true) { return this.id }`)
	for _, s := range sites {
		if s.name == "if" || s.name == "true" || s.name == "return" || s.name == "this" || s.name == "id" {
			t.Fatalf("reserved/member name %q should not be a site", s.name)
		}
	}
}

func TestRewriteLeavesUnknownAlone(t *testing.T) {
	resolve := func(c vars.Call) (int, error) {
		return 0, lookupErr(c.Name)
	}
	out, bindings, err := rewrite("Math.floor(x) + 1", resolve)
	if err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if len(bindings) != 0 {
		t.Fatalf("expected no bindings, got %v", bindings)
	}
	if out != "Math.floor(x) + 1" {
		t.Fatalf("expected unchanged source, got %q", out)
	}
}

func TestRewriteDeterministicPlaceholder(t *testing.T) {
	resolve := func(c vars.Call) (int, error) {
		if c.Name == "gc" {
			return 7, nil
		}
		return 0, lookupErr(c.Name)
	}
	out, bindings, err := rewrite("gc > 50 ? gc : 0", resolve)
	if err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if len(bindings) != 1 {
		t.Fatalf("expected one deduped binding, got %d", len(bindings))
	}
	ph := bindings[0].placeholder
	count := 0
	for i := 0; i+len(ph) <= len(out); i++ {
		if out[i:i+len(ph)] == ph {
			count++
		}
	}
	if count != 2 {
		t.Fatalf("expected placeholder to appear twice, got %d in %q", count, out)
	}
}

func TestEngineCompileEvalArithmetic(t *testing.T) {
	reg := vars.NewRegistry()
	reg.Add(vars.NewGeneral())
	reg.Add(vars.NewStats())

	eng, err := NewEngine("")
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	reg.Add(vars.NewExpr(eng))

	id, err := reg.RegisterVar(vars.Call{Name: vars.ExprCallPrefix + "seqlen * 2"})
	if err != nil {
		t.Fatalf("RegisterVar: %v", err)
	}

	table := reg.NewTable()
	rec := &record.Record{Header: record.NewSplitHeader([]byte("seq1"), nil), RawSeq: []byte("ACGTAC")}
	ctx := &vars.Context{Record: rec, Path: "in.fasta"}
	if err := reg.SetRecord(ctx, table); err != nil {
		t.Fatalf("SetRecord: %v", err)
	}

	cell := table.Cell(id)
	n, err := cell.Int()
	if err != nil {
		t.Fatalf("Int: %v", err)
	}
	if n != 12 {
		t.Fatalf("expected 12, got %d", n)
	}
}

func TestEngineCompileEvalStringAndRecordAttr(t *testing.T) {
	reg := vars.NewRegistry()
	reg.Add(vars.NewGeneral())

	eng, err := NewEngine("")
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	reg.Add(vars.NewExpr(eng))

	id, err := reg.RegisterVar(vars.Call{Name: vars.ExprCallPrefix + `id + "_x"`})
	if err != nil {
		t.Fatalf("RegisterVar: %v", err)
	}

	table := reg.NewTable()
	rec := &record.Record{Header: record.NewSplitHeader([]byte("seq1"), nil), RawSeq: []byte("ACGT")}
	ctx := &vars.Context{Record: rec, Path: "in.fasta"}
	if err := reg.SetRecord(ctx, table); err != nil {
		t.Fatalf("SetRecord: %v", err)
	}

	got := string(table.Cell(id).Text())
	if got != "seq1_x" {
		t.Fatalf("expected %q, got %q", "seq1_x", got)
	}
}

func lookupErr(name string) error {
	return errs.New(errs.Lookup, "unknown variable or function %q", name)
}
