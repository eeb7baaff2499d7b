package driver

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/markschl/seqtool-sub000/internal/attr"
	"github.com/markschl/seqtool-sub000/internal/record"
	"github.com/markschl/seqtool-sub000/internal/symtab"
	"github.com/markschl/seqtool-sub000/internal/vars"
)

// sliceReader feeds a fixed list of ids as FASTA-shaped records.
type sliceReader struct {
	ids []string
	pos int
}

func (s *sliceReader) ReadNext() (*record.Record, error) {
	if s.pos >= len(s.ids) {
		return nil, io.EOF
	}
	id := s.ids[s.pos]
	s.pos++
	return &record.Record{
		Header: record.NewSplitHeader([]byte(id), nil),
		RawSeq: []byte("ACGT"),
		Num:    int64(s.pos),
	}, nil
}

func newRegistry() *vars.Registry {
	r := vars.NewRegistry()
	r.Add(vars.NewGeneral())
	return r
}

func collectIDs(ids []string, concurrency int) ([]string, error) {
	reg := newRegistry()
	var got []string
	opts := Options{Registry: reg, Concurrency: concurrency, BatchSize: 2}
	err := Run(&sliceReader{ids: ids}, opts, func(rec *record.Record, scratch *Scratch, ctx *vars.Context, table *symtab.Table) (bool, error) {
		got = append(got, string(rec.ID()))
		return false, nil
	})
	return got, err
}

func TestSequentialOrder(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e"}
	got, err := collectIDs(ids, 1)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if fmt.Sprint(got) != fmt.Sprint(ids) {
		t.Fatalf("got %v want %v", got, ids)
	}
}

func TestParallelPreservesOrder(t *testing.T) {
	ids := make([]string, 0, 50)
	for i := 0; i < 50; i++ {
		ids = append(ids, fmt.Sprintf("id%02d", i))
	}
	got, err := collectIDs(ids, 4)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if fmt.Sprint(got) != fmt.Sprint(ids) {
		t.Fatalf("parallel run reordered records")
	}
}

func TestSequentialStopsEarly(t *testing.T) {
	reg := newRegistry()
	var got []string
	opts := Options{Registry: reg, Concurrency: 1}
	err := Run(&sliceReader{ids: []string{"a", "b", "c"}}, opts, func(rec *record.Record, scratch *Scratch, ctx *vars.Context, table *symtab.Table) (bool, error) {
		got = append(got, string(rec.ID()))
		return rec.ID()[0] == 'b', nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if fmt.Sprint(got) != fmt.Sprint([]string{"a", "b"}) {
		t.Fatalf("got %v", got)
	}
}

func TestParallelStopsEarlyAndDrainsCleanly(t *testing.T) {
	ids := make([]string, 0, 30)
	for i := 0; i < 30; i++ {
		ids = append(ids, fmt.Sprintf("id%02d", i))
	}
	reg := newRegistry()
	var got []string
	opts := Options{Registry: reg, Concurrency: 4, BatchSize: 3}
	err := Run(&sliceReader{ids: ids}, opts, func(rec *record.Record, scratch *Scratch, ctx *vars.Context, table *symtab.Table) (bool, error) {
		got = append(got, string(rec.ID()))
		return string(rec.ID()) == "id05", nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if fmt.Sprint(got) != fmt.Sprint(ids[:6]) {
		t.Fatalf("got %v want prefix %v", got, ids[:6])
	}
}

func TestParallelWorkPopulatesScratch(t *testing.T) {
	ids := []string{"a", "b", "c", "d"}
	reg := newRegistry()
	var total int
	opts := Options{
		Registry:    reg,
		Concurrency: 2,
		BatchSize:   2,
		Work: func(rec *record.Record, scratch *Scratch) error {
			scratch.Attrs = &attr.Scanned{}
			return nil
		},
	}
	err := Run(&sliceReader{ids: ids}, opts, func(rec *record.Record, scratch *Scratch, ctx *vars.Context, table *symtab.Table) (bool, error) {
		if scratch.Attrs == nil || ctx.Attrs != scratch.Attrs {
			return true, fmt.Errorf("record %s: scratch not populated by Work", rec.ID())
		}
		total++
		return false, nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if total != len(ids) {
		t.Fatalf("got %d records, want %d", total, len(ids))
	}
}

func TestParallelWorkErrorSurfacesAtTurn(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e", "f"}
	boom := errors.New("boom")
	reg := newRegistry()
	var got []string
	opts := Options{
		Registry:    reg,
		Concurrency: 3,
		BatchSize:   1,
		Work: func(rec *record.Record, scratch *Scratch) error {
			if string(rec.ID()) == "d" {
				return boom
			}
			return nil
		},
	}
	err := Run(&sliceReader{ids: ids}, opts, func(rec *record.Record, scratch *Scratch, ctx *vars.Context, table *symtab.Table) (bool, error) {
		got = append(got, string(rec.ID()))
		return false, nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("got err %v, want boom", err)
	}
	if fmt.Sprint(got) != fmt.Sprint([]string{"a", "b", "c"}) {
		t.Fatalf("callback ran past the failing batch: %v", got)
	}
}

func TestAlongsideInterleaves(t *testing.T) {
	a := NewAlongside([]Reader{
		&sliceReader{ids: []string{"r1", "r2"}},
		&sliceReader{ids: []string{"r1", "r2"}},
		&sliceReader{ids: []string{"r1", "r2"}},
	}, true)
	var got []int
	for {
		item, err := a.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		got = append(got, item.FileIndex)
	}
	want := []int{0, 1, 2, 0, 1, 2}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestAlongsideIDMismatch(t *testing.T) {
	a := NewAlongside([]Reader{
		&sliceReader{ids: []string{"r1"}},
		&sliceReader{ids: []string{"different"}},
	}, true)
	if _, err := a.Next(); err != nil {
		t.Fatalf("first Next: %v", err)
	}
	if _, err := a.Next(); err == nil {
		t.Fatal("expected id mismatch error")
	}
}

func TestAlongsideUnevenLengths(t *testing.T) {
	a := NewAlongside([]Reader{
		&sliceReader{ids: []string{"a", "b", "c"}},
		&sliceReader{ids: []string{"a"}},
	}, false)
	var got int
	for {
		_, err := a.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		got++
	}
	if got != 4 {
		t.Fatalf("got %d items, want 4", got)
	}
}
