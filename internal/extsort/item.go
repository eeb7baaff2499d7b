// Package extsort implements the external sort/deduplicate core (§4.12):
// an in-memory keyed vector that spills sorted runs to disk under memory
// pressure, merged back with a k-way heap, with duplicate-set bookkeeping
// layered on top for deduplication.
package extsort

// ValueKind tags one component of a Key tuple.
type ValueKind uint8

const (
	ValNone ValueKind = iota
	ValFloat
	ValText
)

// Value is one ordered component of a sort/dedup Key: text, a float (NaN
// sorts last), or none.
type Value struct {
	Kind  ValueKind
	Text  []byte
	Float float64
}

// TextValue constructs a text key component.
func TextValue(b []byte) Value { return Value{Kind: ValText, Text: b} }

// FloatValue constructs a numeric key component.
func FloatValue(f float64) Value { return Value{Kind: ValFloat, Float: f} }

// NoneValue constructs the absent key component.
func NoneValue() Value { return Value{Kind: ValNone} }

// Key is an ordered tuple of simple values compared component-wise;
// equal-keyed items are considered equal regardless of payload (§3).
type Key []Value

// Compare orders two keys ascending; Less-than-zero means a sorts before
// b. A shorter key that is a prefix of a longer one sorts first.
func Compare(a, b Key) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if c := compareValue(a[i], b[i]); c != 0 {
			return c
		}
	}
	return len(a) - len(b)
}

// compareValue orders None < Float < Text when kinds differ (a stable,
// arbitrary total order for mixed-type keys — see DESIGN.md Open Question
// decisions). Within Float, NaN sorts last (§3 "float (NaN-ordered last)").
func compareValue(a, b Value) int {
	if a.Kind != b.Kind {
		return int(a.Kind) - int(b.Kind)
	}
	switch a.Kind {
	case ValNone:
		return 0
	case ValFloat:
		aNaN, bNaN := a.Float != a.Float, b.Float != b.Float
		switch {
		case aNaN && bNaN:
			return 0
		case aNaN:
			return 1
		case bNaN:
			return -1
		case a.Float < b.Float:
			return -1
		case a.Float > b.Float:
			return 1
		default:
			return 0
		}
	default: // ValText
		switch {
		case string(a.Text) < string(b.Text):
			return -1
		case string(a.Text) > string(b.Text):
			return 1
		default:
			return 0
		}
	}
}

// DupKind selects how duplicate information is tracked for a key during
// deduplication (§3 "selected at registration of the relevant output
// variable").
type DupKind uint8

const (
	DupNone DupKind = iota
	DupCount
	DupIds
)

// DupInfo is either a running duplicate Count or the accumulated list of
// duplicate record ids.
type DupInfo struct {
	Kind  DupKind
	Count uint64
	Ids   [][]byte
}

// Merge folds another occurrence of the same key into d, given the
// duplicate record's own id (used only when Kind == DupIds).
func (d *DupInfo) Merge(otherID []byte) {
	switch d.Kind {
	case DupCount:
		d.Count++
	case DupIds:
		d.Ids = append(d.Ids, append([]byte(nil), otherID...))
	}
}

// Payload is the preformatted output record bytes, plus optional
// duplicate-set info and a flag marking that Data still carries deferred
// placeholder markers to be substituted at emission time (§4.12
// "Deferred emission").
type Payload struct {
	Data     []byte
	ID       []byte // record id, retained for DupIds merging
	Dup      *DupInfo
	Deferred bool
}

// Item is one unit moved through the in-memory vector, spill files, and
// merge heap.
type Item struct {
	Key     Key
	Payload Payload
}

// DeepSize is a per-type recursive byte-size measure used to track the
// in-memory vector's budget (§4.12). It approximates Go's actual heap
// footprint (slice/struct headers plus backing arrays) closely enough to
// decide when to spill; it is not expected to be byte-exact.
func DeepSize(it Item) int64 {
	size := int64(24) // Item struct overhead (two slice headers plus scalars, rounded)
	for _, v := range it.Key {
		size += 16 // Value struct overhead
		size += int64(len(v.Text))
	}
	size += int64(len(it.Payload.Data))
	size += int64(len(it.Payload.ID))
	if d := it.Payload.Dup; d != nil {
		size += 24
		for _, id := range d.Ids {
			size += int64(len(id)) + 16
		}
	}
	return size
}
