package compare

import (
	"github.com/markschl/seqtool-sub000/internal/extsort"
	"github.com/markschl/seqtool-sub000/internal/record"
)

// approxRecordSize is a rough per-buffered-record byte estimate (id+seq
// bytes plus a fixed struct/overhead allowance) used only to decide when
// the combined ring-buffer memory cap (§4.13) is exceeded — not claimed
// exact, in the same spirit as extsort.DeepSize.
func approxRecordSize(rec *record.Owned) int64 {
	return int64(len(rec.ID())+len(rec.Seq())) + 64
}

// RunOrderedStreaming implements §4.13's "Ordered streaming" mode: two
// ring-buffered maps of recently read, as-yet-unmatched records (one per
// input), relying on both inputs sharing a roughly matching key sequence.
// At each step the shorter buffer's side is read next (a heuristic for
// match likelihood); a match drains everything buffered ahead of it as
// unique, then emits the pair as common. memCap bounds the two buffers'
// combined estimated byte size; exceeding it is fatal (§4.13).
func RunOrderedStreaming(s1, s2 Source, memCap int64, emit Emit) (Stats, error) {
	var stats Stats
	buf1, buf2 := newOrderMap(), newOrderMap()
	var size1, size2 int64
	eof1, eof2 := false, false

	park := func(buf *orderMap, size *int64, k extsort.Key, rec *record.Owned) error {
		buf.Set(extsort.EncodeKey(k), ordEntry{key: k, rec: rec})
		*size += approxRecordSize(rec)
		if size1+size2 > memCap {
			return ErrMemoryCapExceeded
		}
		return nil
	}

	// emitUnique flushes every entry of buf strictly ahead of stopAt (not
	// inclusive) as cat, in insertion order — the "couldn't possibly match"
	// prefix implied by finding a match further along the sequence.
	emitUnique := func(buf *orderMap, size *int64, stopAt string, cat Category) error {
		for buf.Len() > 0 {
			k, v, _ := buf.PopFront()
			if k == stopAt {
				buf.Set(k, v) // restore the match itself; caller handles it
				return nil
			}
			e := v.(ordEntry)
			*size -= approxRecordSize(e.rec)
			stats.add(cat)
			if cat == Unique1 {
				if err := emit(cat, e.key, e.rec, nil); err != nil {
					return err
				}
			} else {
				if err := emit(cat, e.key, nil, e.rec); err != nil {
					return err
				}
			}
		}
		return nil
	}

	emitCommon := func(k extsort.Key, rec1, rec2 *record.Owned) error {
		stats.add(Common)
		return emit(Common, k, rec1, rec2)
	}

	for !eof1 || !eof2 {
		side := 1
		switch {
		case eof1:
			side = 2
		case eof2:
			side = 1
		case buf2.Len() < buf1.Len():
			side = 2
		}

		var (
			k   extsort.Key
			rec *record.Owned
			ok  bool
			err error
		)
		if side == 1 {
			k, rec, ok, err = readOrEOF(s1)
		} else {
			k, rec, ok, err = readOrEOF(s2)
		}
		if err != nil {
			return stats, err
		}
		if !ok {
			if side == 1 {
				eof1 = true
			} else {
				eof2 = true
			}
			continue
		}

		ks := extsort.EncodeKey(k)
		if side == 1 {
			if v, found := buf2.Get(ks); found {
				e2 := v.(ordEntry)
				if err := emitUnique(buf2, &size2, ks, Unique2); err != nil {
					return stats, err
				}
				buf2.Delete(ks)
				size2 -= approxRecordSize(e2.rec)
				if err := emitCommon(k, rec, e2.rec); err != nil {
					return stats, err
				}
				continue
			}
		} else {
			if v, found := buf1.Get(ks); found {
				e1 := v.(ordEntry)
				if err := emitUnique(buf1, &size1, ks, Unique1); err != nil {
					return stats, err
				}
				buf1.Delete(ks)
				size1 -= approxRecordSize(e1.rec)
				if err := emitCommon(k, e1.rec, rec); err != nil {
					return stats, err
				}
				continue
			}
		}

		// No match in the opposite buffer yet; try reading one record from
		// the opposite input to look for an immediate or cross match.
		otherEOF := eof2
		otherSource := s2
		if side == 2 {
			otherEOF = eof1
			otherSource = s1
		}
		if !otherEOF {
			k2, rec2, ok2, err2 := readOrEOF(otherSource)
			if err2 != nil {
				return stats, err2
			}
			if !ok2 {
				if side == 1 {
					eof2 = true
				} else {
					eof1 = true
				}
				if err := park(bufFor(side, buf1, buf2), sizeFor(side, &size1, &size2), k, rec); err != nil {
					return stats, err
				}
				continue
			}
			ks2 := extsort.EncodeKey(k2)
			switch {
			case ks2 == ks:
				if err := emitCommon(k, pick(side, rec, rec2), pick(side, rec2, rec)); err != nil {
					return stats, err
				}
			case side == 1:
				if v, found := buf1.Get(ks2); found {
					e1 := v.(ordEntry)
					if err := emitUnique(buf1, &size1, ks2, Unique1); err != nil {
						return stats, err
					}
					buf1.Delete(ks2)
					size1 -= approxRecordSize(e1.rec)
					if err := emitCommon(k2, e1.rec, rec2); err != nil {
						return stats, err
					}
					if err := park(buf1, &size1, k, rec); err != nil {
						return stats, err
					}
				} else {
					if err := park(buf1, &size1, k, rec); err != nil {
						return stats, err
					}
					if err := park(buf2, &size2, k2, rec2); err != nil {
						return stats, err
					}
				}
			default: // side == 2, otherSource == s1
				if v, found := buf2.Get(ks2); found {
					e2 := v.(ordEntry)
					if err := emitUnique(buf2, &size2, ks2, Unique2); err != nil {
						return stats, err
					}
					buf2.Delete(ks2)
					size2 -= approxRecordSize(e2.rec)
					if err := emitCommon(k2, rec2, e2.rec); err != nil {
						return stats, err
					}
					if err := park(buf2, &size2, k, rec); err != nil {
						return stats, err
					}
				} else {
					if err := park(buf2, &size2, k, rec); err != nil {
						return stats, err
					}
					if err := park(buf1, &size1, k2, rec2); err != nil {
						return stats, err
					}
				}
			}
			continue
		}

		// Opposite input already exhausted: this record can never match;
		// park it so the final flush below emits it as unique.
		if err := park(bufFor(side, buf1, buf2), sizeFor(side, &size1, &size2), k, rec); err != nil {
			return stats, err
		}
	}

	for buf1.Len() > 0 {
		_, v, _ := buf1.PopFront()
		e := v.(ordEntry)
		stats.add(Unique1)
		if err := emit(Unique1, e.key, e.rec, nil); err != nil {
			return stats, err
		}
	}
	for buf2.Len() > 0 {
		_, v, _ := buf2.PopFront()
		e := v.(ordEntry)
		stats.add(Unique2)
		if err := emit(Unique2, e.key, nil, e.rec); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

func bufFor(side int, buf1, buf2 *orderMap) *orderMap {
	if side == 1 {
		return buf1
	}
	return buf2
}

func sizeFor(side int, size1, size2 *int64) *int64 {
	if side == 1 {
		return size1
	}
	return size2
}

func pick(side int, a, b *record.Owned) *record.Owned {
	if side == 1 {
		return a
	}
	return b
}
