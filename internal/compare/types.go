// Package compare implements the multi-input compare core (§4.13): given
// two inputs and a composed key, assign each record to one of three
// categories, in one of three selectable modes trading memory for
// capability (full-record in-memory, keys-only two-pass, or ordered
// ring-buffered streaming).
package compare

import (
	"io"

	"github.com/markschl/seqtool-sub000/internal/extsort"
	"github.com/markschl/seqtool-sub000/internal/record"
)

// Category classifies one record relative to the other input.
type Category int

const (
	Common Category = iota
	Unique1
	Unique2
)

func (c Category) String() string {
	switch c {
	case Common:
		return "common"
	case Unique1:
		return "unique1"
	case Unique2:
		return "unique2"
	default:
		return "unknown"
	}
}

// Stats tallies the three categories; §4.13 requires these to come out
// identical across modes for equivalent inputs.
type Stats struct {
	Common  int64
	Unique1 int64
	Unique2 int64
}

func (s *Stats) add(c Category) {
	switch c {
	case Common:
		s.Common++
	case Unique1:
		s.Unique1++
	case Unique2:
		s.Unique2++
	}
}

// Source yields (key, record) pairs from one input in file order. Next
// returns io.EOF once exhausted; records are owned clones since all three
// compare modes retain records beyond the read that produced them.
type Source interface {
	Next() (extsort.Key, *record.Owned, error)
}

// ErrMemoryCapExceeded is returned by the ordered-streaming mode when its
// combined buffer cap is exceeded (§4.13 "exceeding it is fatal").
var ErrMemoryCapExceeded = errMemCap{}

type errMemCap struct{}

func (errMemCap) Error() string { return "compare: ordered-streaming memory cap exceeded" }

// readOrEOF adapts Source.Next for loops that want a plain ok bool.
func readOrEOF(s Source) (extsort.Key, *record.Owned, bool, error) {
	k, rec, err := s.Next()
	if err == io.EOF {
		return nil, nil, false, nil
	}
	if err != nil {
		return nil, nil, false, err
	}
	return k, rec, true, nil
}
