package extsort

import (
	"encoding/binary"
	"fmt"
	"path/filepath"

	"github.com/markschl/seqtool-sub000/internal/errs"
)

// Config bundles the tunables shared by Sorter and Deduplicator (§4.12).
type Config struct {
	TempDir       string
	MemoryBudget  int64 // raw bytes; scaled internally by an overhead factor
	Descending    bool
	ForceSort     bool // always sort via spill/merge, even pre-spill (dedup only)
	MaxSpillFiles int  // hard cap; 0 means the default of 1000
	WarnAt        int  // soft cap that triggers one warning; 0 means the default of 50
	Warn          func(string)
}

func (c Config) withDefaults() Config {
	if c.MaxSpillFiles == 0 {
		c.MaxSpillFiles = 1000
	}
	if c.WarnAt == 0 {
		c.WarnAt = 50
	}
	return c
}

func (c Config) warn(msg string) {
	if c.Warn != nil {
		c.Warn(msg)
	}
}

// spillSet is the shared in-memory-vector-plus-spill-files bookkeeping
// used by both Sorter and Deduplicator (§4.12's "In-memory phase" /
// "Spill").
type spillSet struct {
	cfg         Config
	store       *memStore
	spillPaths  []string
	nextSpillID int
}

func newSpillSet(cfg Config, overhead float64) *spillSet {
	return &spillSet{cfg: cfg, store: newMemStore(cfg.MemoryBudget, overhead)}
}

// add appends it to the buffer, spilling to disk first if the scaled
// budget is now exceeded. It reports whether a spill happened.
func (s *spillSet) add(it Item) (bool, error) {
	if !s.store.add(it) {
		return false, nil
	}
	if err := s.spillNow(); err != nil {
		return false, err
	}
	return true, nil
}

func (s *spillSet) hasSpilled() bool { return len(s.spillPaths) > 0 }

func (s *spillSet) spillNow() error {
	if s.store.len() == 0 {
		return nil
	}
	s.store.sortInPlace(s.cfg.Descending)
	path := filepath.Join(s.cfg.TempDir, fmt.Sprintf("seqtool-sort-%d.tmp", s.nextSpillID))
	s.nextSpillID++
	if err := writeSpill(path, s.store.items); err != nil {
		return err
	}
	s.spillPaths = append(s.spillPaths, path)
	s.store.reset()
	if len(s.spillPaths) == s.cfg.WarnAt {
		s.cfg.warn(fmt.Sprintf("external sort: %d temporary files written so far", len(s.spillPaths)))
	}
	if len(s.spillPaths) > s.cfg.MaxSpillFiles {
		return errs.New(errs.Resource, "external sort: exceeded temp-file-limit (%d)", s.cfg.MaxSpillFiles)
	}
	return nil
}

// openSources opens every spill file plus (if nonempty) the remaining
// sorted in-memory buffer as itemSources for the final merge.
func (s *spillSet) openSources() (sources []itemSource, err error) {
	defer func() {
		if err != nil {
			for _, src := range sources {
				src.closeSource()
			}
		}
	}()
	for _, p := range s.spillPaths {
		r, oerr := openSpill(p)
		if oerr != nil {
			return sources, oerr
		}
		sources = append(sources, &spillSource{r: r})
	}
	if s.store.len() > 0 {
		s.store.sortInPlace(s.cfg.Descending)
		sources = append(sources, &sliceSource{items: s.store.drain()})
	}
	return sources, nil
}

// Sorter implements the plain (non-dedup) external sort: its whole point
// is a fully key-ordered output, so unlike Deduplicator it always merges
// through the sorted path, spill or no spill.
type Sorter struct {
	set *spillSet
}

// NewSorter constructs a Sorter. The in-memory budget is scaled by the
// ≈1.25 overhead factor §4.12 specifies for sort.
func NewSorter(cfg Config) *Sorter {
	return &Sorter{set: newSpillSet(cfg.withDefaults(), 1.25)}
}

// Add buffers it, spilling to disk if the memory budget is now exceeded.
func (s *Sorter) Add(it Item) error {
	_, err := s.set.add(it)
	return err
}

// Finalize emits every buffered/spilled item in key order and cleans up
// any spill files.
func (s *Sorter) Finalize(emit func(Item) error) error {
	if !s.set.hasSpilled() {
		s.set.store.sortInPlace(s.set.cfg.Descending)
		for _, it := range s.set.store.drain() {
			if err := emit(it); err != nil {
				return err
			}
		}
		return nil
	}
	sources, err := s.set.openSources()
	if err != nil {
		return err
	}
	defer closeAll(sources)
	return mergeSources(sources, s.set.cfg.Descending, emit)
}

// Deduplicator implements §4.12's Deduplicator: insertion-order
// first-occurrence-wins while everything fits in memory, falling back to
// sort+merge-dedupe once a spill (or an explicit force-sort) occurs.
type Deduplicator struct {
	set     *spillSet
	dupKind DupKind
	mapW    DupMapWriter

	keyIndex map[string]int // live only pre-spill: encoded key -> index in set.store.items
}

// NewDeduplicator constructs a Deduplicator. The in-memory budget is
// scaled by the ≈1.4 overhead factor §4.12 specifies for dedup. mapW may
// be nil if no duplicate-map side output is requested.
func NewDeduplicator(cfg Config, dupKind DupKind, mapW DupMapWriter) *Deduplicator {
	cfg = cfg.withDefaults()
	d := &Deduplicator{
		set:     newSpillSet(cfg, 1.4),
		dupKind: dupKind,
		mapW:    mapW,
	}
	if !cfg.ForceSort {
		d.keyIndex = make(map[string]int)
	}
	return d
}

// Add folds it into an existing group (pre-spill, by first occurrence) or
// buffers it as a new group/item.
func (d *Deduplicator) Add(it Item) error {
	if d.keyIndex != nil {
		if idx, ok := d.keyIndex[EncodeKey(it.Key)]; ok {
			existing := &d.set.store.items[idx]
			if d.dupKind != DupNone {
				if existing.Payload.Dup == nil {
					existing.Payload.Dup = &DupInfo{Kind: d.dupKind}
				}
				existing.Payload.Dup.Merge(it.Payload.ID)
			}
			if d.mapW != nil {
				if err := d.mapW.WriteDuplicate(it.Key, existing.Payload.ID, it.Payload.ID); err != nil {
					return err
				}
			}
			return nil
		}
	}
	if d.dupKind != DupNone && it.Payload.Dup == nil {
		it.Payload.Dup = &DupInfo{Kind: d.dupKind}
	}
	if d.mapW != nil {
		if err := d.mapW.StartGroup(it.Key, it.Payload.ID); err != nil {
			return err
		}
	}
	idx := d.set.store.len()
	spilled, err := d.set.add(it)
	if err != nil {
		return err
	}
	if spilled {
		d.keyIndex = nil // switched to sorted mode permanently; see DESIGN.md
		return nil
	}
	if d.keyIndex != nil {
		d.keyIndex[EncodeKey(it.Key)] = idx
	}
	return nil
}

// Finalize emits one representative Item per distinct key.
func (d *Deduplicator) Finalize(emit func(Item) error) error {
	if !d.set.hasSpilled() && d.keyIndex != nil {
		for _, it := range d.set.store.drain() {
			if it.Payload.Deferred {
				it.Payload.Data = applyDeferred(it.Payload.Data, it.Payload.Dup)
			}
			if err := emit(it); err != nil {
				return err
			}
		}
		return nil
	}
	sources, err := d.set.openSources()
	if err != nil {
		return err
	}
	defer closeAll(sources)
	dd := newDeduper(d.dupKind, d.mapW)
	if err := mergeSources(sources, d.set.cfg.Descending, func(it Item) error {
		return dd.feed(it, emit)
	}); err != nil {
		return err
	}
	return dd.Finish(emit)
}

func closeAll(sources []itemSource) {
	for _, s := range sources {
		s.closeSource()
	}
}

// EncodeKey builds an unambiguous string encoding of a Key tuple, suitable
// as a map key anywhere two Keys must be compared for equality (the
// pre-spill insertion-order fast path here; cross-input matching in
// internal/compare). Collisions are impossible since every component's
// kind and bytes are length-prefixed.
func EncodeKey(k Key) string {
	buf := make([]byte, 0, 32)
	for _, v := range k {
		buf = append(buf, byte(v.Kind))
		switch v.Kind {
		case ValText:
			buf = appendUvarint(buf, uint64(len(v.Text)))
			buf = append(buf, v.Text...)
		case ValFloat:
			var fb [8]byte
			binary.LittleEndian.PutUint64(fb[:], floatBits(v.Float))
			buf = append(buf, fb[:]...)
		}
	}
	return string(buf)
}
