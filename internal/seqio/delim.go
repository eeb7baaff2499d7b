package seqio

import (
	"encoding/csv"
	"io"

	"github.com/markschl/seqtool-sub000/internal/errs"
	"github.com/markschl/seqtool-sub000/internal/record"
)

// ColumnMapping maps logical fields (id, seq, desc?, qual?) onto column
// references, each either a 1-based numeric index or a header name (§4.2).
// Exactly one of Index/Name is set per field that is in use; Index == 0
// means "not set by index".
type ColumnRef struct {
	Index int // 1-based; 0 means unset
	Name  string
}

func (c ColumnRef) set() bool { return c.Index != 0 || c.Name != "" }

type ColumnMapping struct {
	ID, Seq, Desc, Qual ColumnRef
}

// byName reports whether any column in the mapping is referenced by name,
// which implies a header row is present (§4.2).
func (m ColumnMapping) byName() bool {
	for _, c := range []ColumnRef{m.ID, m.Seq, m.Desc, m.Qual} {
		if c.set() && c.Name != "" {
			return true
		}
	}
	return false
}

// DelimReader reads delimited text (CSV/TSV) records, mapping columns by
// index or header name (§4.2). Stdlib encoding/csv is used directly — no
// pack library offers configurable-delimiter ragged-row CSV parsing better
// suited to this than csv.Reader with FieldsPerRecord = -1 (see
// SPEC_FULL.md §4.2).
type DelimReader struct {
	cr      *csv.Reader
	mapping ColumnMapping
	idIdx, seqIdx, descIdx, qualIdx int // 0-based; -1 if absent
	num     int64
}

// NewDelimReader constructs a reader with the given delimiter rune. If any
// mapped column is referenced by name, the first row is consumed as a
// header; otherwise the first row is treated as data.
func NewDelimReader(r io.Reader, delim rune, mapping ColumnMapping) (*DelimReader, error) {
	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.FieldsPerRecord = -1 // flexible row lengths (§4.2)
	cr.ReuseRecord = false

	dr := &DelimReader{cr: cr, mapping: mapping}

	if mapping.byName() {
		header, err := cr.Read()
		if err != nil {
			return nil, errs.Wrap(errs.Parse, err)
		}
		index := make(map[string]int, len(header))
		for i, h := range header {
			index[h] = i
		}
		resolve := func(ref ColumnRef) (int, error) {
			if !ref.set() {
				return -1, nil
			}
			if ref.Name != "" {
				i, ok := index[ref.Name]
				if !ok {
					return -1, errs.New(errs.Lookup, "column %q not found in header", ref.Name)
				}
				return i, nil
			}
			return ref.Index - 1, nil
		}
		var err error
		if dr.idIdx, err = resolve(mapping.ID); err != nil {
			return nil, err
		}
		if dr.seqIdx, err = resolve(mapping.Seq); err != nil {
			return nil, err
		}
		if dr.descIdx, err = resolve(mapping.Desc); err != nil {
			return nil, err
		}
		if dr.qualIdx, err = resolve(mapping.Qual); err != nil {
			return nil, err
		}
	} else {
		byIndex := func(ref ColumnRef) int {
			if !ref.set() {
				return -1
			}
			return ref.Index - 1
		}
		dr.idIdx = byIndex(mapping.ID)
		dr.seqIdx = byIndex(mapping.Seq)
		dr.descIdx = byIndex(mapping.Desc)
		dr.qualIdx = byIndex(mapping.Qual)
	}

	if dr.idIdx < 0 || dr.seqIdx < 0 {
		return nil, errs.New(errs.Parse, "delimited text mapping requires both id and seq columns")
	}
	return dr, nil
}

func field(row []string, idx int) []byte {
	if idx < 0 || idx >= len(row) {
		return nil // missing requested fields surface as empty bytes (§4.2)
	}
	return []byte(row[idx])
}

// ReadNext returns the next record, or io.EOF when exhausted.
func (d *DelimReader) ReadNext() (*record.Record, error) {
	row, err := d.cr.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, errs.Wrap(errs.Parse, err)
	}
	d.num++
	rec := &record.Record{
		Header: record.NewSplitHeader(field(row, d.idIdx), field(row, d.descIdx)),
		RawSeq: field(row, d.seqIdx),
		Num:    d.num,
	}
	if d.qualIdx >= 0 {
		rec.Qual = field(row, d.qualIdx)
	}
	return rec, nil
}

// DelimWriter writes delimited text records, mirroring the input format.
type DelimWriter struct {
	cw      *csv.Writer
	mapping ColumnMapping
	header  []string
	wroteHeader bool
}

// NewDelimWriter constructs a writer; columnOrder lists the header names to
// emit (and their output order) when the mapping uses named columns.
func NewDelimWriter(w io.Writer, delim rune, columnOrder []string) *DelimWriter {
	cw := csv.NewWriter(w)
	cw.Comma = delim
	return &DelimWriter{cw: cw, header: columnOrder}
}

// WriteRow writes one row of already-resolved field values, emitting a
// header row first if columnOrder was provided and hasn't been written yet.
func (d *DelimWriter) WriteRow(fields []string) error {
	if len(d.header) > 0 && !d.wroteHeader {
		if err := d.cw.Write(d.header); err != nil {
			return errs.Wrap(errs.IO, err)
		}
		d.wroteHeader = true
	}
	if err := d.cw.Write(fields); err != nil {
		return errs.Wrap(errs.IO, err)
	}
	return nil
}

// Flush flushes the underlying csv.Writer and surfaces any buffered error.
func (d *DelimWriter) Flush() error {
	d.cw.Flush()
	return errs.Wrap(errs.IO, d.cw.Error())
}
