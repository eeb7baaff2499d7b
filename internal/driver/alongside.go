package driver

import (
	"bytes"
	"io"

	"github.com/markschl/seqtool-sub000/internal/errs"
	"github.com/markschl/seqtool-sub000/internal/record"
)

// AlongsideItem is one step of an Alongside read: which file it came from
// and the record itself.
type AlongsideItem struct {
	FileIndex int
	Record    *record.Record
}

// Alongside interleaves k readers record-by-record (§4.11), cycling
// 0..k-1, used by concatenation and interleaving commands. Readers of
// differing length are allowed: a reader that returns io.EOF is skipped
// for the remainder of the cycle, and Next stops once every reader is
// exhausted.
type Alongside struct {
	readers   []Reader
	done      []bool
	checkIDs  bool
	firstID   []byte
	remaining int
	next      int
}

// NewAlongside constructs an interleaved reader over readers. When
// checkIDs is true, every file's id is compared against file 0's id at
// each step and a mismatch is reported as an error (§4.11 "optional
// id-match checking").
func NewAlongside(readers []Reader, checkIDs bool) *Alongside {
	return &Alongside{
		readers:   readers,
		done:      make([]bool, len(readers)),
		checkIDs:  checkIDs,
		remaining: len(readers),
	}
}

// Next returns the next (file-index, record) pair in cycle order, or
// io.EOF once every reader is exhausted.
func (a *Alongside) Next() (AlongsideItem, error) {
	for a.remaining > 0 {
		i := a.next
		a.next = (a.next + 1) % len(a.readers)
		if a.done[i] {
			continue
		}
		rec, err := a.readers[i].ReadNext()
		if err != nil {
			if err == io.EOF {
				a.done[i] = true
				a.remaining--
				continue
			}
			return AlongsideItem{}, err
		}
		if a.checkIDs {
			if i == 0 {
				a.firstID = append(a.firstID[:0], rec.ID()...)
			} else if !bytes.Equal(rec.ID(), a.firstID) {
				return AlongsideItem{}, errs.New(errs.Parse,
					"id mismatch at file %d: %q != %q (file 0)", i, rec.ID(), a.firstID)
			}
		}
		return AlongsideItem{FileIndex: i, Record: rec}, nil
	}
	return AlongsideItem{}, io.EOF
}
