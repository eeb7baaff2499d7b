package attr

import (
	"bytes"

	"github.com/markschl/seqtool-sub000/internal/symtab"
)

// Position locates one matched attribute occurrence within a header field
// (§3 "Attribute position").
type Position struct {
	Start, ValueStart, End int
	Def                    *def
}

// scanField finds every registered attribute occurring in data, using a
// bytes.Index search (indexDelim) for the delimiter and, at each candidate
// position, an attempt to parse "key<value-delim>value" where key contains
// no delimiter bytes (§4.5 step 1). Returns positions sorted by Start.
func (e *Engine) scanField(data []byte) []Position {
	if !e.needsScan || len(data) == 0 {
		return nil
	}
	var found []Position
	remaining := len(e.byName)
	matched := make(map[string]bool, len(e.byName))

	// candidate boundaries: start of string, and just after every
	// delimiter occurrence.
	starts := []int{0}
	for idx := indexDelim(data, e.Format.Delim, 0); idx >= 0; idx = indexDelim(data, e.Format.Delim, idx+1) {
		starts = append(starts, idx+len(e.Format.Delim))
	}

	for _, s := range starts {
		if s > len(data) {
			continue
		}
		rest := data[s:]
		vdIdx := bytes.Index(rest, e.Format.ValueDelim)
		if vdIdx < 0 {
			continue
		}
		key := rest[:vdIdx]
		if len(key) == 0 || bytes.Contains(key, e.Format.Delim) {
			continue
		}
		d, ok := e.byName[string(key)]
		if !ok || matched[d.name] {
			continue
		}
		valueStart := s + vdIdx + len(e.Format.ValueDelim)
		end := indexDelim(data, e.Format.Delim, valueStart)
		if end < 0 {
			end = len(data)
		}
		found = append(found, Position{Start: s, ValueStart: valueStart, End: end, Def: d})
		matched[d.name] = true
		remaining--
		if remaining == 0 {
			break // short-circuit once all registered attributes are located (§4.5)
		}
	}
	return found
}

func indexDelim(data, delim []byte, from int) int {
	if from >= len(data) {
		return -1
	}
	i := bytes.Index(data[from:], delim)
	if i < 0 {
		return -1
	}
	return from + i
}

// Scanned holds the per-record result of scanning both header fields,
// ready for HasAttr/Attr lookups and Compose.
type Scanned struct {
	idPos, descPos []Position
	idData, descData []byte
}

// Scan performs §4.5 step 1 against the current record's id and desc
// bytes.
func (e *Engine) Scan(id, desc []byte) *Scanned {
	return &Scanned{
		idPos:    e.scanField(id),
		descPos:  e.scanField(desc),
		idData:   id,
		descData: desc,
	}
}

// Find returns the raw value bytes for name if present, and whether it was
// found.
func (s *Scanned) Find(name string) ([]byte, bool) {
	for _, p := range s.idPos {
		if p.Def.name == name {
			return s.idData[p.ValueStart:p.End], true
		}
	}
	for _, p := range s.descPos {
		if p.Def.name == name {
			return s.descData[p.ValueStart:p.End], true
		}
	}
	return nil, false
}

// Compose rewrites id and desc applying every registered action, in the
// positional order the attributes were found (§4.5 step 2), then emits
// unmatched Append actions at the end of the default target field (§4.5
// step 3).
func (e *Engine) Compose(id, desc []byte, symbols *symtab.Table) (newID, newDesc []byte) {
	scanned := e.Scan(id, desc)
	newID = applyActions(id, scanned.idPos, symbols, e.Format.Delim)
	newDesc = applyActions(desc, scanned.descPos, symbols, e.Format.Delim)

	matched := make(map[string]bool, len(e.order))
	for _, p := range scanned.idPos {
		matched[p.Def.name] = true
	}
	for _, p := range scanned.descPos {
		matched[p.Def.name] = true
	}

	var appendToID, appendToDesc [][]byte
	for _, d := range e.order {
		if d.action != Append || matched[d.name] {
			continue
		}
		val := d.value(symbols)
		piece := composeKV(d.name, val, e.Format.ValueDelim)
		if e.Format.AppendTo == TargetID {
			appendToID = append(appendToID, piece)
		} else {
			appendToDesc = append(appendToDesc, piece)
		}
	}

	newID = appendPieces(newID, appendToID, e.Format.Delim)
	newDesc = appendPieces(newDesc, appendToDesc, e.Format.Delim)
	return newID, newDesc
}

func composeKV(name string, value []byte, valueDelim []byte) []byte {
	out := make([]byte, 0, len(name)+len(valueDelim)+len(value))
	out = append(out, name...)
	out = append(out, valueDelim...)
	out = append(out, value...)
	return out
}

// appendPieces appends pieces to base, separated by delim; if base is
// empty and delim is a single space, the leading delimiter is suppressed
// (§4.5 step 3).
func appendPieces(base []byte, pieces [][]byte, delim []byte) []byte {
	if len(pieces) == 0 {
		return base
	}
	out := append([]byte(nil), base...)
	spaceDelim := bytes.Equal(delim, []byte(" "))
	for _, p := range pieces {
		if len(out) > 0 || !spaceDelim {
			out = append(out, delim...)
		}
		out = append(out, p...)
	}
	return out
}

// applyActions rewrites one header field given its located positions, in
// positional order (§4.5 step 2):
//   - edit: copy bytes up to the value, emit the new value, skip the old value.
//   - delete: copy up to the attribute's start, dropping the delimiter
//     immediately preceding it (if any lies in the not-yet-copied range);
//     if there is none (the attribute opens the field), drop the one
//     immediately following it instead. Then skip over the attribute.
//   - read-only: copy unchanged (handled implicitly by the final copy).
func applyActions(data []byte, positions []Position, symbols *symtab.Table, delim []byte) []byte {
	if len(positions) == 0 {
		return append([]byte(nil), data...)
	}
	out := make([]byte, 0, len(data))
	cursor := 0
	for _, p := range positions {
		switch p.Def.action {
		case Edit:
			out = append(out, data[cursor:p.ValueStart]...)
			out = append(out, p.Def.value(symbols)...)
			cursor = p.End
		case Delete:
			copyEnd := p.Start
			droppedPreceding := false
			// Only the delimiter directly preceding this attribute is
			// ours to drop; whether it's there depends on the actual
			// bytes at that position, not on what cursor happened to be
			// left at by an earlier, unrelated action (a ReadOnly
			// attribute in between leaves cursor unmoved, so reusing it
			// here would wrongly swallow that untouched text too).
			if n := len(delim); n > 0 && p.Start-n >= cursor && bytes.Equal(data[p.Start-n:p.Start], delim) {
				copyEnd = p.Start - n
				droppedPreceding = true
			}
			out = append(out, data[cursor:copyEnd]...)
			cursor = p.End
			// No delimiter preceded this attribute (it opens the field),
			// so drop the one following it instead, or the field is left
			// with a leading delimiter it never had.
			if n := len(delim); !droppedPreceding && n > 0 && cursor+n <= len(data) && bytes.Equal(data[cursor:cursor+n], delim) {
				cursor += n
			}
		default: // ReadOnly
		}
	}
	out = append(out, data[cursor:]...)
	return out
}
