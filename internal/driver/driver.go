// Package driver implements the main record loop (§4.10): a sequential
// path and a parallel worker-pool path that both feed a per-record
// callback exactly the same way, so commands are written once against
// Callback regardless of which path runs them.
//
// Grounded on cosnicolaou/pbzip2's Decompressor (workCh/doneCh, a
// monotonic per-item order, and a heap that releases items only in
// order) generalized from bzip2 blocks to record batches, with
// SnellerInc/sneller's sorting/thread_pool.go bounded-pool sizing idiom.
package driver

import (
	"container/heap"
	"io"
	"runtime"
	"sync"

	"github.com/markschl/seqtool-sub000/internal/attr"
	"github.com/markschl/seqtool-sub000/internal/qual"
	"github.com/markschl/seqtool-sub000/internal/record"
	"github.com/markschl/seqtool-sub000/internal/symtab"
	"github.com/markschl/seqtool-sub000/internal/vars"
)

// checkEOF turns io.EOF into nil (end of input is not an error) and
// passes every other error through unchanged.
func checkEOF(err error) error {
	if err == io.EOF {
		return nil
	}
	return err
}

// Reader yields records in file order, returning io.EOF when exhausted.
type Reader interface {
	ReadNext() (*record.Record, error)
}

// Scratch holds whatever a Work closure precomputes for one record off
// the main thread (e.g. an attribute scan), consumed by Callback on the
// main thread together with ctx/table. The sequential path reuses a single
// Scratch for every record; the parallel path allocates one Scratch per
// record with each batch.
type Scratch struct {
	Attrs *attr.Scanned
}

func (s *Scratch) reset() { s.Attrs = nil }

// Work runs off the main thread and must not touch ctx or the symbol
// table (§4.10 invariant: "ctx is touched only by the main thread").
type Work func(rec *record.Record, scratch *Scratch) error

// Callback runs on the main thread after ctx.SetRecord, observing records
// strictly in input order regardless of worker count. Returning stop=true
// ends the run.
type Callback func(rec *record.Record, scratch *Scratch, ctx *vars.Context, table *symtab.Table) (stop bool, err error)

// Options configures a run.
type Options struct {
	Registry    *vars.Registry
	Path        string // fed into ctx.Path for the general provider
	FileNum     int
	QualEnc     qual.Encoding // fed into ctx.QualEnc for the "stats" provider's exp_err
	Concurrency int           // 0 or 1 runs the sequential path
	BatchSize   int           // parallel path only; default 64
	Work        Work
}

func (o *Options) withDefaults() Options {
	oo := *o
	if oo.BatchSize <= 0 {
		oo.BatchSize = 64
	}
	if oo.Concurrency <= 0 {
		oo.Concurrency = 1
	}
	return oo
}

// Run drives r through cb, choosing the sequential or parallel path based
// on Options.Concurrency.
func Run(r Reader, opts Options, cb Callback) error {
	opts = opts.withDefaults()
	if opts.Concurrency <= 1 {
		return runSequential(r, opts, cb)
	}
	return runParallel(r, opts, cb)
}

func runSequential(r Reader, opts Options, cb Callback) error {
	ctx := &vars.Context{Path: opts.Path, FileNum: opts.FileNum, QualEnc: opts.QualEnc}
	table := opts.Registry.NewTable()
	var scratch Scratch
	for {
		rec, err := r.ReadNext()
		if err != nil {
			return checkEOF(err)
		}
		if opts.Work != nil {
			scratch.reset()
			if err := opts.Work(rec, &scratch); err != nil {
				return err
			}
		}
		ctx.Record = rec
		ctx.Attrs = scratch.Attrs
		if err := opts.Registry.SetRecord(ctx, table); err != nil {
			return err
		}
		stop, err := cb(rec, &scratch, ctx, table)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
}

// batch is one fixed-size group of records plus their worker-filled
// scratch buffers, threaded through the pool with a monotonic order so
// the assembler can release batches strictly in input order.
type batch struct {
	order   uint64
	records []*record.Record
	scratch []Scratch
	err     error
}

func runParallel(r Reader, opts Options, cb Callback) error {
	n := opts.Concurrency
	if max := runtime.GOMAXPROCS(-1); n > max {
		n = max
	}
	workCh := make(chan *batch, 2*n)
	doneCh := make(chan *batch, 2*n)

	done := make(chan struct{})
	var workers sync.WaitGroup
	workers.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer workers.Done()
			for b := range workCh {
				if opts.Work != nil {
					for i, rec := range b.records {
						if err := opts.Work(rec, &b.scratch[i]); err != nil {
							b.err = err
							break
						}
					}
				}
				select {
				case doneCh <- b:
				case <-done:
					return
				}
			}
		}()
	}
	go func() {
		workers.Wait()
		close(doneCh)
	}()

	readErrCh := make(chan error, 1)
	go func() {
		defer close(workCh)
		var order uint64
		for {
			batchRecords := make([]*record.Record, 0, opts.BatchSize)
			for len(batchRecords) < opts.BatchSize {
				rec, err := r.ReadNext()
				if err != nil {
					if err := checkEOF(err); err != nil {
						readErrCh <- err
						return
					}
					break
				}
				batchRecords = append(batchRecords, rec)
			}
			if len(batchRecords) == 0 {
				readErrCh <- nil
				return
			}
			order++
			select {
			case workCh <- &batch{order: order, records: batchRecords, scratch: make([]Scratch, len(batchRecords))}:
			case <-done:
				readErrCh <- nil
				return
			}
			if len(batchRecords) < opts.BatchSize {
				readErrCh <- nil
				return
			}
		}
	}()

	ctx := &vars.Context{Path: opts.Path, FileNum: opts.FileNum, QualEnc: opts.QualEnc}
	table := opts.Registry.NewTable()

	h := &batchHeap{}
	heap.Init(h)
	expected := uint64(1)
	var runErr error
	stopped := false

	assemble := func(b *batch) (bool, error) {
		heap.Push(h, b)
		for h.Len() > 0 && (*h)[0].order == expected {
			next := heap.Pop(h).(*batch)
			expected++
			if next.err != nil {
				return true, next.err
			}
			for i, rec := range next.records {
				ctx.Record = rec
				ctx.Attrs = next.scratch[i].Attrs
				if err := opts.Registry.SetRecord(ctx, table); err != nil {
					return true, err
				}
				stop, err := cb(rec, &next.scratch[i], ctx, table)
				if err != nil {
					return true, err
				}
				if stop {
					return true, nil
				}
			}
		}
		return false, nil
	}

drain:
	for b := range doneCh {
		stop, err := assemble(b)
		if err != nil {
			runErr = err
			stopped = true
			break drain
		}
		if stop {
			stopped = true
			break drain
		}
	}
	close(done)
	if stopped {
		// Drain remaining in-flight batches without running their
		// callbacks, per §4.10: "subsequent batches are still consumed to
		// allow clean shutdown but their callbacks are skipped."
		for range doneCh {
		}
	}
	if runErr != nil {
		return runErr
	}
	if err := <-readErrCh; err != nil {
		return err
	}
	return nil
}

type batchHeap []*batch

func (h batchHeap) Len() int            { return len(h) }
func (h batchHeap) Less(i, j int) bool  { return h[i].order < h[j].order }
func (h batchHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *batchHeap) Push(x interface{}) { *h = append(*h, x.(*batch)) }
func (h *batchHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
