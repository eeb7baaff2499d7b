package extsort

import (
	"errors"
	"io"
)

// itemSource yields Items in ascending (or descending, matching however
// its contents were sorted) key order; ok is false once the source is
// exhausted.
type itemSource interface {
	next() (Item, bool, error)
	closeSource() error
}

// sliceSource adapts an already-sorted in-memory slice (the trailing
// in-memory vector left after the last spill, or the whole vector when no
// spill ever happened) to itemSource, so it can take part in the same
// k-way merge as the spill files without a needless round-trip to disk.
type sliceSource struct {
	items []Item
	pos   int
}

func (s *sliceSource) next() (Item, bool, error) {
	if s.pos >= len(s.items) {
		return Item{}, false, nil
	}
	it := s.items[s.pos]
	s.pos++
	return it, true, nil
}

func (s *sliceSource) closeSource() error { return nil }

// spillSource adapts a spillReader to itemSource.
type spillSource struct{ r *spillReader }

func (s *spillSource) next() (Item, bool, error) {
	it, err := s.r.next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Item{}, false, nil
		}
		return Item{}, false, err
	}
	return it, true, nil
}

func (s *spillSource) closeSource() error { return s.r.close() }

// mergeNode is one live entry in the merge heap: the current front item of
// one source, plus which source it came from.
type mergeNode struct {
	item   Item
	source int
}

// manualHeap is a hand-rolled binary min-heap (container/heap's interface
// boxing triggers allocations we'd rather avoid in the per-record merge
// loop). Grounded on csvquery/internal/indexer/sorter.go's manualHeap.
type manualHeap struct {
	nodes      []mergeNode
	descending bool
}

func (h *manualHeap) less(i, j int) bool {
	c := Compare(h.nodes[i].item.Key, h.nodes[j].item.Key)
	if h.descending {
		return c > 0
	}
	return c < 0
}

func (h *manualHeap) swap(i, j int) { h.nodes[i], h.nodes[j] = h.nodes[j], h.nodes[i] }

func (h *manualHeap) push(n mergeNode) {
	h.nodes = append(h.nodes, n)
	h.up(len(h.nodes) - 1)
}

func (h *manualHeap) pop() mergeNode {
	n := len(h.nodes)
	top := h.nodes[0]
	h.nodes[0] = h.nodes[n-1]
	h.nodes = h.nodes[:n-1]
	if len(h.nodes) > 0 {
		h.down(0)
	}
	return top
}

func (h *manualHeap) up(j int) {
	for {
		i := (j - 1) / 2
		if i == j || !h.less(j, i) {
			break
		}
		h.swap(i, j)
		j = i
	}
}

func (h *manualHeap) down(i0 int) {
	n := len(h.nodes)
	i := i0
	for {
		j1 := 2*i + 1
		if j1 >= n {
			break
		}
		j := j1
		if j2 := j1 + 1; j2 < n && h.less(j2, j1) {
			j = j2
		}
		if !h.less(j, i) {
			break
		}
		h.swap(i, j)
		i = j
	}
}

// mergeSources performs the k-way merge of §4.12's "Merge" phase: open
// sources are seeded with their first item, the minimum (or maximum, under
// descending) is popped and handed to emit, then refilled from the same
// source, until every source is exhausted.
func mergeSources(sources []itemSource, descending bool, emit func(Item) error) error {
	h := &manualHeap{descending: descending}
	for i, src := range sources {
		it, ok, err := src.next()
		if err != nil {
			return err
		}
		if ok {
			h.push(mergeNode{item: it, source: i})
		}
	}
	for len(h.nodes) > 0 {
		top := h.pop()
		if err := emit(top.item); err != nil {
			return err
		}
		next, ok, err := sources[top.source].next()
		if err != nil {
			return err
		}
		if ok {
			h.push(mergeNode{item: next, source: top.source})
		}
	}
	return nil
}
