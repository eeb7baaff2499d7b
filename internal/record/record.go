// Package record implements the polymorphic sequence record abstraction
// (§3, §4.4): a borrowed view into the active input buffer, an owned clone
// for data that must outlive a read, and an editable overlay that lets a
// command swap id/desc/seq without copying unchanged fields.
//
// Grounded on the teacher's record.Clone() / *fastx.Record usage
// ("Important: Clone the record to avoid reference issues", command_sort.go)
// and wangdi2014/bio's FastaRecord segment handling.
package record

import "bytes"

// Header is either already split on the first space (IdDesc) or not yet
// split (Full) — split occurs at most once per record and is memoized
// (§3 "Sequence header").
type Header struct {
	full  []byte
	id    []byte
	desc  []byte
	split bool
}

// NewFullHeader constructs a header whose split is deferred.
func NewFullHeader(full []byte) Header {
	return Header{full: full}
}

// NewSplitHeader constructs an already-split header.
func NewSplitHeader(id, desc []byte) Header {
	return Header{id: id, desc: desc, split: true}
}

func (h *Header) ensureSplit() {
	if h.split {
		return
	}
	h.split = true
	if i := bytes.IndexByte(h.full, ' '); i >= 0 {
		h.id = h.full[:i]
		h.desc = h.full[i+1:]
	} else {
		h.id = h.full
		h.desc = nil
	}
}

// ID returns the id portion, splitting and memoizing on first call.
func (h *Header) ID() []byte {
	h.ensureSplit()
	return h.id
}

// Desc returns the description portion (nil if absent), splitting and
// memoizing on first call.
func (h *Header) Desc() []byte {
	h.ensureSplit()
	return h.desc
}

// Full returns the complete, unsplit header bytes (id + " " + desc, or just
// id if there is no description).
func (h *Header) Full() []byte {
	if h.split && h.full == nil {
		if len(h.desc) == 0 {
			return h.id
		}
		buf := make([]byte, 0, len(h.id)+1+len(h.desc))
		buf = append(buf, h.id...)
		buf = append(buf, ' ')
		buf = append(buf, h.desc...)
		h.full = buf
	}
	return h.full
}

// Segments is a zero-copy iterator over a FASTA record's sequence lines
// (§4.2 "seq_segments"). Segments is nil for non-FASTA formats, which
// expose seq as a single contiguous slice.
type Segments struct {
	lines [][]byte
	pos   int
}

// NewSegments wraps a pre-split slice of sequence lines.
func NewSegments(lines [][]byte) *Segments { return &Segments{lines: lines} }

// Next returns the next sequence line, or (nil, false) once exhausted.
func (s *Segments) Next() ([]byte, bool) {
	if s == nil || s.pos >= len(s.lines) {
		return nil, false
	}
	line := s.lines[s.pos]
	s.pos++
	return line, true
}

// Reset rewinds iteration to the first segment.
func (s *Segments) Reset() {
	if s != nil {
		s.pos = 0
	}
}

// Record is the borrowed view described by §3: fields referring to memory
// owned by the active input buffer, valid only until the next read.
type Record struct {
	Header Header
	RawSeq []byte
	Qual   []byte // nil when the format carries no quality (FASTA)
	Segs   *Segments
	Num    int64 // 1-based record counter, set by the driver
}

// ID returns the record id (memoized header split).
func (r *Record) ID() []byte { return r.Header.ID() }

// Desc returns the record description, or nil.
func (r *Record) Desc() []byte { return r.Header.Desc() }

// SeqLen returns the length of the raw (ungapped-agnostic) sequence.
func (r *Record) SeqLen() int { return len(r.RawSeq) }

// HasQual reports whether this record carries quality scores.
func (r *Record) HasQual() bool { return r.Qual != nil }

// Clone produces an Owned record whose buffers are independent copies,
// safe to retain beyond the next Read call (used by sort/dedup/compare's
// full-record modes, §9 "Record ownership across async").
func (r *Record) Clone() *Owned {
	o := &Owned{
		id:   append([]byte(nil), r.ID()...),
		desc: append([]byte(nil), r.Desc()...),
		seq:  append([]byte(nil), r.RawSeq...),
		num:  r.Num,
	}
	if r.Qual != nil {
		o.qual = append([]byte(nil), r.Qual...)
	}
	return o
}

// Owned is the same shape as Record but with independently-owned buffers,
// used whenever records must outlive the read call that produced them.
type Owned struct {
	id, desc, seq, qual []byte
	num                 int64
}

func (o *Owned) ID() []byte    { return o.id }
func (o *Owned) Desc() []byte  { return o.desc }
func (o *Owned) Seq() []byte   { return o.seq }
func (o *Owned) Qual() []byte  { return o.qual }
func (o *Owned) Num() int64    { return o.num }
func (o *Owned) HasQual() bool { return o.qual != nil }

// AsRecord adapts an Owned record back to the Record shape expected by the
// formatting/attribute layers (borrowing, rather than copying, its buffers
// — safe because Owned already owns them).
func (o *Owned) AsRecord() *Record {
	return &Record{
		Header: NewSplitHeader(o.id, o.desc),
		RawSeq: o.seq,
		Qual:   o.qual,
		Num:    o.num,
	}
}

// Overlay wraps a base Record and lets a command swap id/desc/seq without
// copying unchanged fields (§4.4). HasSeqLines becomes false once the
// sequence is overridden, since overridden sequences are contiguous.
type Overlay struct {
	base *Record

	idOverride, descOverride, seqOverride, qualOverride []byte
	idSet, descSet, seqSet, qualSet                     bool
}

// NewOverlay wraps base for editing.
func NewOverlay(base *Record) *Overlay { return &Overlay{base: base} }

// Reset rebinds the overlay to a new base record, clearing any overrides.
func (o *Overlay) Reset(base *Record) {
	o.base = base
	o.idSet, o.descSet, o.seqSet, o.qualSet = false, false, false, false
}

func (o *Overlay) ID() []byte {
	if o.idSet {
		return o.idOverride
	}
	return o.base.ID()
}

func (o *Overlay) SetID(b []byte) { o.idOverride, o.idSet = b, true }

func (o *Overlay) Desc() []byte {
	if o.descSet {
		return o.descOverride
	}
	return o.base.Desc()
}

func (o *Overlay) SetDesc(b []byte) { o.descOverride, o.descSet = b, true }

func (o *Overlay) Seq() []byte {
	if o.seqSet {
		return o.seqOverride
	}
	return o.base.RawSeq
}

func (o *Overlay) SetSeq(b []byte) { o.seqOverride, o.seqSet = b, true }

// HasSeqLines reports whether the sequence can still be streamed as
// multiple FASTA segments (false once overridden, since overrides are
// contiguous single buffers).
func (o *Overlay) HasSeqLines() bool { return !o.seqSet && o.base.Segs != nil }

func (o *Overlay) Segments() *Segments {
	if o.seqSet || o.base.Segs == nil {
		return nil
	}
	return o.base.Segs
}

func (o *Overlay) Qual() []byte {
	if o.qualSet {
		return o.qualOverride
	}
	return o.base.Qual
}

func (o *Overlay) SetQual(b []byte) { o.qualOverride, o.qualSet = b, true }

func (o *Overlay) Base() *Record { return o.base }
