package meta

import (
	"strings"
	"testing"
)

func TestLookupSynchronizedPath(t *testing.T) {
	data := "id,size,kind\nseq1,10,a\nseq2,20,b\nseq3,30,c\n"
	s, err := Open(strings.NewReader(data), ',', 0, true, true)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	for _, want := range []struct {
		id   string
		size string
	}{{"seq1", "10"}, {"seq2", "20"}, {"seq3", "30"}} {
		row, ok, err := s.Lookup(want.id)
		if err != nil {
			t.Fatalf("Lookup(%q): %v", want.id, err)
		}
		if !ok {
			t.Fatalf("Lookup(%q): not found", want.id)
		}
		if row[1] != want.size {
			t.Fatalf("Lookup(%q): got size %q, want %q", want.id, row[1], want.size)
		}
	}
}

func TestLookupTransitionsToIndexed(t *testing.T) {
	// query order doesn't match file order: forces a transition after the
	// first mismatch, then resolves out-of-order queries from the index.
	data := "id,val\na,1\nb,2\nc,3\nd,4\n"
	s, err := Open(strings.NewReader(data), ',', 0, true, false)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	row, ok, err := s.Lookup("c")
	if err != nil || !ok {
		t.Fatalf("Lookup(c): ok=%v err=%v", ok, err)
	}
	if row[1] != "3" {
		t.Fatalf("got %q, want 3", row[1])
	}
	row, ok, err = s.Lookup("a")
	if err != nil || !ok || row[1] != "1" {
		t.Fatalf("Lookup(a) after transition: row=%v ok=%v err=%v", row, ok, err)
	}
	row, ok, err = s.Lookup("d")
	if err != nil || !ok || row[1] != "4" {
		t.Fatalf("Lookup(d) after transition: row=%v ok=%v err=%v", row, ok, err)
	}
	_, ok, err = s.Lookup("missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected not found for missing id")
	}
}

func TestLookupDuplicateDetection(t *testing.T) {
	data := "id,val\nx,1\ny,2\n"
	s, err := Open(strings.NewReader(data), ',', 0, true, true)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, _, err := s.Lookup("x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, err := s.Lookup("x"); err == nil {
		t.Fatalf("expected duplicate-id error on second query for the same sequence id")
	}
}

func TestColIndexByName(t *testing.T) {
	data := "id,size,kind\nseq1,10,a\n"
	s, err := Open(strings.NewReader(data), ',', 0, true, false)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	idx, err := s.ColIndex("kind", 0)
	if err != nil {
		t.Fatalf("ColIndex: %v", err)
	}
	if idx != 2 {
		t.Fatalf("got %d, want 2", idx)
	}
	if _, err := s.ColIndex("nope", 0); err == nil {
		t.Fatalf("expected error for unknown column name")
	}
}
