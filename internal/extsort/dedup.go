package extsort

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
)

// Deferred-emission placeholder markers (§4.12): a command that needs the
// final duplicate count or id list rendered *inside* the formatted record
// writes one of these byte sequences at build time instead, and
// applyDeferred substitutes the real value once the key's final group is
// known at merge/flush time. The sentinel bytes are NUL-delimited and
// include no printable seqtool syntax, so they cannot collide with
// ordinary record content.
var (
	DeferredCountMarker = []byte("\x00DUPCOUNT\x00")
	DeferredIdsMarker   = []byte("\x00DUPIDS\x00")
)

// applyDeferred substitutes DeferredCountMarker/DeferredIdsMarker in data
// with dup's final values. Ids are comma-joined.
func applyDeferred(data []byte, dup *DupInfo) []byte {
	if dup == nil || (bytes.Index(data, DeferredCountMarker) < 0 && bytes.Index(data, DeferredIdsMarker) < 0) {
		return data
	}
	out := bytes.ReplaceAll(data, DeferredCountMarker, []byte(strconv.FormatUint(dup.Count, 10)))
	out = bytes.ReplaceAll(out, DeferredIdsMarker, bytes.Join(dup.Ids, []byte(",")))
	return out
}

// dupGroup accumulates one key's worth of duplicate bookkeeping as
// successive equal-keyed items are folded together (§4.12 "the current
// accumulator is merged with each dropped item and flushed when the key
// changes").
type dupGroup struct {
	key            Key
	representative Payload
	dup            *DupInfo
}

// deduper folds a key-ordered stream of Items down to one representative
// Item per distinct key, optionally recording duplicate info and emitting
// duplicate-map rows as it goes.
type deduper struct {
	dupKind DupKind
	mapW    DupMapWriter // optional

	have  bool
	group dupGroup
}

func newDeduper(dupKind DupKind, mapW DupMapWriter) *deduper {
	return &deduper{dupKind: dupKind, mapW: mapW}
}

// feed processes the next key-ordered Item, invoking emit with the
// previous key's finished representative whenever the key changes.
func (d *deduper) feed(it Item, emit func(Item) error) error {
	if d.have && Compare(d.group.key, it.Key) == 0 {
		return d.fold(it)
	}
	if d.have {
		if err := d.flush(emit); err != nil {
			return err
		}
	}
	return d.start(it)
}

func (d *deduper) start(it Item) error {
	// it.Payload.Dup may already carry a nonzero count/id-list if it was
	// pre-deduped against earlier occurrences before the first spill (see
	// Deduplicator.Add); reuse it so that partial count survives into the
	// final merge instead of resetting to zero.
	dup := it.Payload.Dup
	if dup == nil && d.dupKind != DupNone {
		dup = &DupInfo{Kind: d.dupKind}
	}
	d.group = dupGroup{key: it.Key, representative: it.Payload, dup: dup}
	d.have = true
	return d.startGroup(it)
}

func (d *deduper) fold(it Item) error {
	if d.group.dup != nil {
		d.group.dup.Merge(it.Payload.ID)
		if od := it.Payload.Dup; od != nil {
			d.group.dup.Count += od.Count
			d.group.dup.Ids = append(d.group.dup.Ids, od.Ids...)
		}
	}
	if d.mapW != nil {
		if err := d.mapW.WriteDuplicate(d.group.key, d.group.representative.ID, it.Payload.ID); err != nil {
			return err
		}
	}
	return nil
}

// startGroup notifies mapW, if present, that a new representative group has
// begun, so that formats which write one row per group (wide-family,
// long-star's "*" marker) get that row even when the group turns out to
// have zero further occurrences.
func (d *deduper) startGroup(it Item) error {
	if d.mapW == nil {
		return nil
	}
	return d.mapW.StartGroup(it.Key, it.Payload.ID)
}

// flush emits the accumulated group's representative, substituting any
// deferred markers its payload carries.
func (d *deduper) flush(emit func(Item) error) error {
	p := d.group.representative
	if p.Deferred {
		p.Data = applyDeferred(p.Data, d.group.dup)
	}
	p.Dup = d.group.dup
	d.have = false
	return emit(Item{Key: d.group.key, Payload: p})
}

// Finish flushes any pending group; call once the input is exhausted.
func (d *deduper) Finish(emit func(Item) error) error {
	if !d.have {
		return nil
	}
	return d.flush(emit)
}

// DupMapFormat selects the layout of the duplicate-map side output
// (§4.12 "Duplicate-map output formats").
type DupMapFormat int

const (
	DupMapLong DupMapFormat = iota
	DupMapLongStar
	DupMapWide
	DupMapWideComma
	DupMapWideKey
)

// DupMapWriter receives one call per duplicate relationship as the
// deduper discovers it (long/long-star formats), or is built up then
// flushed per group (wide formats). StartGroup always fires once per
// representative, before any WriteDuplicate calls for that group, so that
// formats with a per-group row (long-star's "*" marker, the wide family)
// still produce it for a group with zero further occurrences.
type DupMapWriter interface {
	// StartGroup announces a new representative group, identified by its
	// own id (refID also equals the group's first occurrence).
	StartGroup(key Key, refID []byte) error
	// WriteDuplicate records that dupID duplicates refID (the
	// representative's own id) within key's group.
	WriteDuplicate(key Key, refID, dupID []byte) error
	Close() error
}

// NewDupMapWriter constructs a DupMapWriter over w in the requested
// format. DupMapWideKey writes each group's key components ahead of its
// ids; the other formats do not write the key.
func NewDupMapWriter(w io.Writer, format DupMapFormat) DupMapWriter {
	switch format {
	case DupMapLongStar:
		return &longDupMapWriter{w: w, star: true}
	case DupMapWide, DupMapWideComma, DupMapWideKey:
		return &wideDupMapWriter{w: w, format: format, groups: make(map[string]*wideGroup)}
	default:
		return &longDupMapWriter{w: w}
	}
}

// longDupMapWriter implements "long" (dup-id TAB ref-id per row) and
// "long-star" (as long, plus one row per representative, rendered with the
// dup-id column as "*", written as soon as the group starts so it appears
// even for a representative with no further occurrences).
type longDupMapWriter struct {
	w    io.Writer
	star bool
}

func (lw *longDupMapWriter) StartGroup(key Key, refID []byte) error {
	if !lw.star {
		return nil
	}
	_, err := fmt.Fprintf(lw.w, "*\t%s\n", refID)
	return err
}

func (lw *longDupMapWriter) WriteDuplicate(key Key, refID, dupID []byte) error {
	_, err := fmt.Fprintf(lw.w, "%s\t%s\n", dupID, refID)
	return err
}

func (lw *longDupMapWriter) Close() error { return nil }

// wideGroup accumulates one representative's occurrence list for the wide
// formats, which must see the whole group before writing a row. dups holds
// one entry per occurrence of the key, starting with the representative
// itself (seeded by StartGroup), followed by each further duplicate.
type wideGroup struct {
	key  Key
	ref  []byte
	dups [][]byte
}

// wideDupMapWriter buffers per-group occurrence lists (wide formats write
// one row per group, not per duplicate) and flushes each on Close; groups
// are written in first-seen order.
type wideDupMapWriter struct {
	w      io.Writer
	format DupMapFormat
	order  []string
	groups map[string]*wideGroup
}

func (ww *wideDupMapWriter) StartGroup(key Key, refID []byte) error {
	ref := string(refID)
	if _, ok := ww.groups[ref]; ok {
		return nil
	}
	g := &wideGroup{key: key, ref: append([]byte(nil), refID...), dups: [][]byte{append([]byte(nil), refID...)}}
	ww.groups[ref] = g
	ww.order = append(ww.order, ref)
	return nil
}

func (ww *wideDupMapWriter) WriteDuplicate(key Key, refID, dupID []byte) error {
	ref := string(refID)
	g, ok := ww.groups[ref]
	if !ok {
		// Defensive: a caller that skips StartGroup still gets a row, just
		// without the representative's own seeded entry.
		g = &wideGroup{key: key, ref: append([]byte(nil), refID...)}
		ww.groups[ref] = g
		ww.order = append(ww.order, ref)
	}
	g.dups = append(g.dups, append([]byte(nil), dupID...))
	return nil
}

func (ww *wideDupMapWriter) Close() error {
	for _, ref := range ww.order {
		g := ww.groups[ref]
		var err error
		switch ww.format {
		case DupMapWideComma:
			_, err = fmt.Fprintf(ww.w, "%s\t%s\n", g.ref, bytes.Join(g.dups, []byte(",")))
		case DupMapWideKey:
			var parts [][]byte
			for _, v := range g.key {
				parts = append(parts, keyColumnText(v))
			}
			parts = append(parts, g.dups...)
			_, err = fmt.Fprintf(ww.w, "%s\n", bytes.Join(parts, []byte("\t")))
		default: // DupMapWide
			parts := append([][]byte{g.ref}, g.dups...)
			_, err = fmt.Fprintf(ww.w, "%s\n", bytes.Join(parts, []byte("\t")))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func keyColumnText(v Value) []byte {
	switch v.Kind {
	case ValText:
		return v.Text
	case ValFloat:
		return []byte(strconv.FormatFloat(v.Float, 'g', -1, 64))
	default:
		return nil
	}
}
