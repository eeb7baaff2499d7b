package extsort

import "sort"

// memStore is the append-only in-memory vector of §4.12's "In-memory
// phase": items accumulate until the scaled byte budget is exceeded, at
// which point the caller sorts and spills it.
type memStore struct {
	items    []Item
	size     int64
	budget   int64   // raw user memory limit, in bytes
	overhead float64 // empirical scale factor applied to tracked size before comparing to budget
}

// newMemStore constructs a store targeting budget bytes, scaled by
// overhead (≈1.25 for sort, ≈1.4 for dedup per §4.12).
func newMemStore(budget int64, overhead float64) *memStore {
	return &memStore{budget: budget, overhead: overhead}
}

// add appends it and reports whether the scaled tracked size now exceeds
// the budget.
func (m *memStore) add(it Item) bool {
	m.items = append(m.items, it)
	m.size += DeepSize(it)
	return float64(m.size)*m.overhead > float64(m.budget)
}

func (m *memStore) len() int { return len(m.items) }

// sortInPlace orders the buffered items by key, ascending or descending.
func (m *memStore) sortInPlace(descending bool) {
	sort.SliceStable(m.items, func(i, j int) bool {
		c := Compare(m.items[i].Key, m.items[j].Key)
		if descending {
			return c > 0
		}
		return c < 0
	})
}

// reset clears the buffer after a spill, keeping the backing array.
func (m *memStore) reset() {
	m.items = m.items[:0]
	m.size = 0
}

// drain returns and clears the buffered items, for the no-spill fast path.
func (m *memStore) drain() []Item {
	items := m.items
	m.items = nil
	m.size = 0
	return items
}
