package compare

import (
	"github.com/markschl/seqtool-sub000/internal/extsort"
	"github.com/markschl/seqtool-sub000/internal/record"
)

// Emit receives one categorized record pair. rec1/rec2 is nil on whichever
// side the record is absent from; RunInMemory and RunStreaming set both for
// Common, while RunKeysOnly emits Common with only rec1 set (rec2 nil).
type Emit func(cat Category, key extsort.Key, rec1, rec2 *record.Owned) error

// RunInMemory implements §4.13's "Full-record in memory" mode: both
// inputs are fully buffered into insertion-ordered maps keyed by the
// composed key, then map 1 is walked emitting common/unique1, followed by
// map 2's entries not already emitted as common (emitted as unique2).
func RunInMemory(s1, s2 Source, emit Emit) (Stats, error) {
	var stats Stats
	map1 := newOrderMap()
	map2 := newOrderMap()

	for {
		k, rec, ok, err := readOrEOF(s1)
		if err != nil {
			return stats, err
		}
		if !ok {
			break
		}
		map1.Set(extsort.EncodeKey(k), entryOf(k, rec))
	}
	for {
		k, rec, ok, err := readOrEOF(s2)
		if err != nil {
			return stats, err
		}
		if !ok {
			break
		}
		map2.Set(extsort.EncodeKey(k), entryOf(k, rec))
	}

	for _, ks := range map1.Keys() {
		v1, _ := map1.Get(ks)
		e1 := v1.(ordEntry)
		if v2, ok := map2.Get(ks); ok {
			e2 := v2.(ordEntry)
			stats.add(Common)
			if err := emit(Common, e1.key, e1.rec, e2.rec); err != nil {
				return stats, err
			}
			continue
		}
		stats.add(Unique1)
		if err := emit(Unique1, e1.key, e1.rec, nil); err != nil {
			return stats, err
		}
	}
	for _, ks := range map2.Keys() {
		if _, ok := map1.Get(ks); ok {
			continue // already emitted as Common during the map1 walk
		}
		v2, _ := map2.Get(ks)
		e2 := v2.(ordEntry)
		stats.add(Unique2)
		if err := emit(Unique2, e2.key, nil, e2.rec); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

type ordEntry struct {
	key extsort.Key
	rec *record.Owned
}

func entryOf(k extsort.Key, rec *record.Owned) ordEntry { return ordEntry{key: k, rec: rec} }
