// Package symtab implements the per-record symbol table: a dense array of
// tagged-union cells indexed by symbol id (§3, §4.6, §9 "avoid a virtual
// hierarchy — variant dispatch is sufficient and cache-friendly").
package symtab

import "strconv"

// Kind tags the active variant of a Cell.
type Kind uint8

const (
	None Kind = iota
	Text
	Int
	Float
	Bool
	RecordAttr
)

// RecordField names which field of the current record a RecordAttr cell
// resolves to.
type RecordField uint8

const (
	FieldID RecordField = iota
	FieldDesc
	FieldSeq
)

// Cell is one slot of the symbol table. Only the field matching Kind is
// meaningful; others are left at their zero value.
type Cell struct {
	kind  Kind
	text  []byte
	i     int64
	f     float64
	b     bool
	field RecordField

	// numParsed caches the result of a lazy numeric parse of text, so that
	// repeated typed getters don't reparse.
	numParsed  bool
	numIsFloat bool
	numErr     error
}

// SetNone clears the cell.
func (c *Cell) SetNone() { *c = Cell{kind: None} }

// SetText stores a borrowed or owned byte slice as text.
func (c *Cell) SetText(b []byte) { *c = Cell{kind: Text, text: b} }

// SetInt stores an integer value.
func (c *Cell) SetInt(v int64) { *c = Cell{kind: Int, i: v} }

// SetFloat stores a floating point value.
func (c *Cell) SetFloat(v float64) { *c = Cell{kind: Float, f: v} }

// SetBool stores a boolean value.
func (c *Cell) SetBool(v bool) { *c = Cell{kind: Bool, b: v} }

// SetRecordAttr marks the cell as an alias for the current record's field,
// resolved lazily by the caller (driver) rather than copied eagerly.
func (c *Cell) SetRecordAttr(f RecordField) { *c = Cell{kind: RecordAttr, field: f} }

// Kind reports the active variant.
func (c *Cell) Kind() Kind { return c.kind }

// IsNone reports whether the cell holds no value.
func (c *Cell) IsNone() bool { return c.kind == None }

// RecordField returns the aliased field, valid only if Kind() == RecordAttr.
func (c *Cell) RecordField() RecordField { return c.field }

// Bytes returns the cell's raw text form (only meaningful for Text cells;
// callers resolving RecordAttr cells should go through the record directly).
func (c *Cell) Bytes() []byte { return c.text }

// Bool returns the boolean value, performing a permissive text coercion
// ("true"/"false"/"1"/"0") when the cell is text-typed.
func (c *Cell) Bool() (bool, error) {
	switch c.kind {
	case Bool:
		return c.b, nil
	case Int:
		return c.i != 0, nil
	case Text:
		s := string(c.text)
		switch s {
		case "true", "1":
			return true, nil
		case "false", "0":
			return false, nil
		}
		return false, errNotCoercible(s, "bool")
	case None:
		return false, nil
	default:
		return false, errNotCoercible("<record-attr>", "bool")
	}
}

// Int performs lazy numeric parsing of text cells, memoizing the result.
func (c *Cell) Int() (int64, error) {
	switch c.kind {
	case Int:
		return c.i, nil
	case Float:
		return int64(c.f), nil
	case Text:
		if err := c.parseNumeric(); err != nil {
			return 0, err
		}
		if c.numIsFloat {
			return int64(c.f), nil
		}
		return c.i, nil
	case None:
		return 0, nil
	default:
		return 0, errNotCoercible("<record-attr>", "int")
	}
}

// Float performs lazy numeric parsing of text cells, memoizing the result.
func (c *Cell) Float() (float64, error) {
	switch c.kind {
	case Float:
		return c.f, nil
	case Int:
		return float64(c.i), nil
	case Text:
		if err := c.parseNumeric(); err != nil {
			return 0, err
		}
		if c.numIsFloat {
			return c.f, nil
		}
		return float64(c.i), nil
	case None:
		return 0, nil
	default:
		return 0, errNotCoercible("<record-attr>", "float")
	}
}

func (c *Cell) parseNumeric() error {
	if c.numParsed {
		return c.numErr
	}
	c.numParsed = true
	s := string(c.text)
	if iv, err := strconv.ParseInt(s, 10, 64); err == nil {
		c.i = iv
		c.numIsFloat = false
		return nil
	}
	fv, err := strconv.ParseFloat(s, 64)
	if err != nil {
		c.numErr = errNotCoercible(s, "number")
		return c.numErr
	}
	c.f = fv
	c.numIsFloat = true
	return nil
}

// Text renders the cell to its text form; numeric cells are formatted,
// None becomes an empty slice.
func (c *Cell) Text() []byte {
	switch c.kind {
	case Text:
		return c.text
	case Int:
		return strconv.AppendInt(nil, c.i, 10)
	case Float:
		return strconv.AppendFloat(nil, c.f, 'g', -1, 64)
	case Bool:
		if c.b {
			return []byte("true")
		}
		return []byte("false")
	default:
		return nil
	}
}

func errNotCoercible(val, target string) error {
	return &coercionError{val: val, target: target}
}

type coercionError struct {
	val, target string
}

func (e *coercionError) Error() string {
	return "value " + strconv.Quote(e.val) + " is not coercible to " + e.target
}

// Table is the dense, per-record array of cells, indexed by symbol id.
type Table struct {
	cells []Cell
}

// NewTable allocates a table with n pre-sized cells.
func NewTable(n int) *Table {
	return &Table{cells: make([]Cell, n)}
}

// Grow extends the table so that symbol id up to n-1 is addressable.
func (t *Table) Grow(n int) {
	if n <= len(t.cells) {
		return
	}
	grown := make([]Cell, n)
	copy(grown, t.cells)
	t.cells = grown
}

// Len returns the number of allocated cells.
func (t *Table) Len() int { return len(t.cells) }

// Cell returns a pointer to the cell for the given symbol id.
func (t *Table) Cell(id int) *Cell { return &t.cells[id] }

// Reset clears every cell to None, ready for providers to refill before the
// next record.
func (t *Table) Reset() {
	for i := range t.cells {
		t.cells[i] = Cell{kind: None}
	}
}
