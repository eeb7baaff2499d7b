package compare

import (
	"github.com/markschl/seqtool-sub000/internal/errs"
	"github.com/markschl/seqtool-sub000/internal/extsort"
)

// Open reopens a seekable input for a second pass. §4.13: "this requires
// seekable inputs; stdin triggers an error" — callers wire Open to return
// that error for a non-seekable source rather than this package guessing
// at seekability itself.
type Open func() (Source, error)

// RunKeysOnly implements §4.13's "Keys only (two-pass)" mode: a first
// pass over both inputs builds key-only membership sets (no records kept
// in memory), then a second pass re-walks each input emitting records
// with the categorization already known from pass one.
func RunKeysOnly(open1, open2 Open, emit Emit) (Stats, error) {
	var stats Stats

	keys1 := make(map[string]struct{})
	s1, err := open1()
	if err != nil {
		return stats, errs.Wrap(errs.IO, err)
	}
	for {
		k, _, ok, err := readOrEOF(s1)
		if err != nil {
			return stats, err
		}
		if !ok {
			break
		}
		keys1[extsort.EncodeKey(k)] = struct{}{}
	}

	keys2 := make(map[string]struct{})
	s2, err := open2()
	if err != nil {
		return stats, errs.Wrap(errs.IO, err)
	}
	for {
		k, _, ok, err := readOrEOF(s2)
		if err != nil {
			return stats, err
		}
		if !ok {
			break
		}
		keys2[extsort.EncodeKey(k)] = struct{}{}
	}

	r1, err := open1()
	if err != nil {
		return stats, errs.Wrap(errs.IO, err)
	}
	for {
		k, rec, ok, err := readOrEOF(r1)
		if err != nil {
			return stats, err
		}
		if !ok {
			break
		}
		ks := extsort.EncodeKey(k)
		if _, ok := keys2[ks]; ok {
			stats.add(Common)
			if err := emit(Common, k, rec, nil); err != nil {
				return stats, err
			}
			continue
		}
		stats.add(Unique1)
		if err := emit(Unique1, k, rec, nil); err != nil {
			return stats, err
		}
	}

	r2, err := open2()
	if err != nil {
		return stats, errs.Wrap(errs.IO, err)
	}
	for {
		k, rec, ok, err := readOrEOF(r2)
		if err != nil {
			return stats, err
		}
		if !ok {
			break
		}
		ks := extsort.EncodeKey(k)
		if _, ok := keys1[ks]; ok {
			continue // already emitted as Common during the first reopened pass
		}
		stats.add(Unique2)
		if err := emit(Unique2, k, nil, rec); err != nil {
			return stats, err
		}
	}
	return stats, nil
}
