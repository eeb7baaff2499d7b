package compare

import (
	"io"
	"testing"

	"github.com/markschl/seqtool-sub000/internal/extsort"
	"github.com/markschl/seqtool-sub000/internal/record"
)

func keyOf(id string) extsort.Key { return extsort.Key{extsort.TextValue([]byte(id))} }

func recOf(id string, num int64) *record.Owned {
	r := record.Record{Header: record.NewSplitHeader([]byte(id), nil), RawSeq: []byte("ACGT"), Num: num}
	return r.Clone()
}

// sliceSource feeds a fixed list of (key, record) pairs, then io.EOF.
type sliceSource struct {
	ids []string
	pos int
}

func (s *sliceSource) Next() (extsort.Key, *record.Owned, error) {
	if s.pos >= len(s.ids) {
		return nil, nil, io.EOF
	}
	id := s.ids[s.pos]
	s.pos++
	return keyOf(id), recOf(id, int64(s.pos)), nil
}

func newSource(ids []string) Source { return &sliceSource{ids: ids} }

// collect runs a mode's Emit callback and records the category per id,
// using whichever side carries a non-nil record as the id source.
func collect(t *testing.T, run func(emit Emit) (Stats, error)) (Stats, map[string]Category) {
	t.Helper()
	seen := make(map[string]Category)
	stats, err := run(func(cat Category, key extsort.Key, rec1, rec2 *record.Owned) error {
		id := string(key[0].Text)
		seen[id] = cat
		return nil
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return stats, seen
}

func TestInMemoryBasic(t *testing.T) {
	ids1 := []string{"a", "b", "c"}
	ids2 := []string{"b", "c", "d"}
	stats, seen := collect(t, func(emit Emit) (Stats, error) {
		return RunInMemory(newSource(ids1), newSource(ids2), emit)
	})
	if stats.Common != 2 || stats.Unique1 != 1 || stats.Unique2 != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	want := map[string]Category{"a": Unique1, "b": Common, "c": Common, "d": Unique2}
	for id, cat := range want {
		if seen[id] != cat {
			t.Errorf("id %q: got %v want %v", id, seen[id], cat)
		}
	}
}

func TestKeysOnlyMatchesInMemory(t *testing.T) {
	ids1 := []string{"a", "b", "c", "e"}
	ids2 := []string{"b", "c", "d"}
	statsMem, seenMem := collect(t, func(emit Emit) (Stats, error) {
		return RunInMemory(newSource(ids1), newSource(ids2), emit)
	})
	statsKeys, seenKeys := collect(t, func(emit Emit) (Stats, error) {
		return RunKeysOnly(
			func() (Source, error) { return newSource(ids1), nil },
			func() (Source, error) { return newSource(ids2), nil },
			emit,
		)
	})
	if statsMem != statsKeys {
		t.Fatalf("stats mismatch: in-memory=%+v keys-only=%+v", statsMem, statsKeys)
	}
	for id, cat := range seenMem {
		if seenKeys[id] != cat {
			t.Errorf("id %q: in-memory=%v keys-only=%v", id, cat, seenKeys[id])
		}
	}
}

func TestOrderedStreamingMatchesInMemory(t *testing.T) {
	ids1 := []string{"a", "b", "c", "e", "f"}
	ids2 := []string{"b", "c", "d", "f"}
	statsMem, seenMem := collect(t, func(emit Emit) (Stats, error) {
		return RunInMemory(newSource(ids1), newSource(ids2), emit)
	})
	statsStream, seenStream := collect(t, func(emit Emit) (Stats, error) {
		return RunOrderedStreaming(newSource(ids1), newSource(ids2), 1<<20, emit)
	})
	if statsMem != statsStream {
		t.Fatalf("stats mismatch: in-memory=%+v streaming=%+v", statsMem, statsStream)
	}
	for id, cat := range seenMem {
		if seenStream[id] != cat {
			t.Errorf("id %q: in-memory=%v streaming=%v", id, cat, seenStream[id])
		}
	}
}

func TestOrderedStreamingMemCapExceeded(t *testing.T) {
	ids1 := []string{"a", "b", "c", "d", "e"}
	ids2 := []string{"z"} // never matches, so ids1 piles up in the ring buffer
	_, err := RunOrderedStreaming(newSource(ids1), newSource(ids2), 1, func(Category, extsort.Key, *record.Owned, *record.Owned) error {
		return nil
	})
	if err != ErrMemoryCapExceeded {
		t.Fatalf("expected ErrMemoryCapExceeded, got %v", err)
	}
}

func TestKeysOnlyReopenError(t *testing.T) {
	boom := func() (Source, error) { return nil, io.ErrUnexpectedEOF }
	_, err := RunKeysOnly(boom, func() (Source, error) { return newSource(nil), nil }, func(Category, extsort.Key, *record.Owned, *record.Owned) error {
		return nil
	})
	if err == nil {
		t.Fatal("expected error from failing Open")
	}
}

func TestOrderMapBasics(t *testing.T) {
	m := newOrderMap()
	m.Set("a", 1)
	m.Set("b", 2)
	m.Set("c", 3)
	if v, ok := m.Get("b"); !ok || v.(int) != 2 {
		t.Fatalf("Get(b) = %v, %v", v, ok)
	}
	m.Delete("b")
	if _, ok := m.Get("b"); ok {
		t.Fatal("b should be gone")
	}
	k, v, ok := m.PopFront()
	if !ok || k != "a" || v.(int) != 1 {
		t.Fatalf("PopFront = %v, %v, %v", k, v, ok)
	}
	if got := m.Keys(); len(got) != 1 || got[0] != "c" {
		t.Fatalf("Keys() = %v", got)
	}
}
