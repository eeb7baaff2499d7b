// Package meta implements metadata-source lookup (§4.7): delimited text
// files keyed on the record id, read lazily and opportunistically without
// buffering the whole file when input and metadata are already
// co-sorted.
package meta

import (
	"encoding/csv"
	"io"

	"github.com/markschl/seqtool-sub000/internal/errs"
)

const maxTrackedIDs = 10000

// mode is the lookup strategy a Source is currently using.
type mode int

const (
	synchronized mode = iota
	indexed
)

// Source is one metadata file: an ID-keyed index plus a streaming cursor,
// transitioning from synchronized to indexed mode on the first id mismatch
// (§4.7).
type Source struct {
	cr       *csv.Reader
	idCol    int
	colNames map[string]int // header name -> column index, if a header was read

	m     mode
	index map[string][]string
	eof   bool

	trackDup bool
	seen     map[string]bool
	dupCount int
}

// Open constructs a Source reading delimited text from r. idCol is the
// 0-based column holding the join key. If hasHeader, the first row is
// consumed as column names (so later columns may be referenced by name via
// Col). trackDuplicates enables the early duplicate-id check described in
// §4.7 (disable for inputs known to contain duplicate ids).
func Open(r io.Reader, delim rune, idCol int, hasHeader bool, trackDuplicates bool) (*Source, error) {
	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.FieldsPerRecord = -1

	s := &Source{
		cr:       cr,
		idCol:    idCol,
		index:    make(map[string][]string),
		trackDup: trackDuplicates,
		seen:     make(map[string]bool),
	}
	if hasHeader {
		header, err := cr.Read()
		if err != nil {
			return nil, errs.Wrap(errs.Parse, err)
		}
		s.colNames = make(map[string]int, len(header))
		for i, h := range header {
			s.colNames[h] = i
		}
	}
	return s, nil
}

// ColIndex resolves a column reference by name, or returns idx unchanged if
// name is empty.
func (s *Source) ColIndex(name string, idx int) (int, error) {
	if name == "" {
		return idx, nil
	}
	if s.colNames == nil {
		return 0, errs.New(errs.Parse, "metadata source has no header; column %q cannot be resolved by name", name)
	}
	i, ok := s.colNames[name]
	if !ok {
		return 0, errs.New(errs.Lookup, "column %q not found in metadata header", name)
	}
	return i, nil
}

// Lookup returns the row matching id, or (nil, false) if no such row
// exists. It implements the synchronized -> indexed transition of §4.7:
// while synchronized, the next row is read and compared directly to id; on
// the first mismatch the source falls back to building a hash index.
func (s *Source) Lookup(id string) ([]string, bool, error) {
	if s.m == synchronized {
		if err := s.trackDuplicate(id); err != nil {
			return nil, false, err
		}
		row, err := s.readRow()
		if err == io.EOF {
			s.m = indexed
			s.eof = true
		} else if err != nil {
			return nil, false, err
		} else {
			rowID := row[s.idCol]
			if rowID == id {
				return row, true, nil
			}
			// mismatch: everything read so far besides this row is lost;
			// switch strategies and index from here on (§4.7).
			s.m = indexed
			s.index[rowID] = row
		}
	}

	if row, ok := s.index[id]; ok {
		return row, true, nil
	}
	if s.eof {
		return nil, false, nil
	}
	for {
		row, err := s.readRow()
		if err == io.EOF {
			s.eof = true
			return nil, false, nil
		}
		if err != nil {
			return nil, false, err
		}
		rowID := row[s.idCol]
		s.index[rowID] = row
		if rowID == id {
			return row, true, nil
		}
	}
}

func (s *Source) readRow() ([]string, error) {
	row, err := s.cr.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, errs.Wrap(errs.Parse, err)
	}
	if s.idCol >= len(row) {
		return nil, errs.New(errs.Parse, "metadata row has no column %d", s.idCol)
	}
	return row, nil
}

// trackDuplicate records a queried sequence id while synchronized and
// tracking is enabled, reporting an error on the first duplicate seen
// among the first maxTrackedIDs ids — a duplicate sequence id breaks the
// one-row-per-id synchronized invariant (§4.7). Disabled once the source
// has transitioned to indexed mode or the tracked-id budget is exhausted.
func (s *Source) trackDuplicate(id string) error {
	if !s.trackDup || len(s.seen) >= maxTrackedIDs {
		return nil
	}
	if s.seen[id] {
		return errs.New(errs.Parse, "duplicate sequence id %q while metadata lookup is synchronized; pass the no-duplicate-check option if this is expected", id)
	}
	s.seen[id] = true
	return nil
}
