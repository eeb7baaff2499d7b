package ioutil

import (
	"io"
	"os"

	"github.com/markschl/seqtool-sub000/internal/errs"
)

// chunk is one fixed-size buffer moving through the ring, grounded on
// cosnicolaou/pbzip2's parallel.go blockDesc (there a decompression unit,
// here a raw byte buffer read from the underlying stream).
type chunk struct {
	buf []byte
	n   int
	err error
}

// threadedReader pulls from a background goroutine filling a bounded ring
// of fixed-size buffers (§4.1, ring length 2). The returned stream pops
// from the ring in order — there is only one producer, so no reassembly
// heap is needed (unlike the parallel driver's multi-worker case).
type threadedReader struct {
	src     io.ReadCloser
	done    chan struct{}
	filled  chan *chunk
	empty   chan *chunk
	cur     *chunk
	pos     int
	started bool
	closed  bool
}

func newThreadedReader(src io.ReadCloser, bufSize int) *threadedReader {
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}
	tr := &threadedReader{
		src:    src,
		done:   make(chan struct{}),
		filled: make(chan *chunk, RingLength),
		empty:  make(chan *chunk, RingLength),
	}
	for i := 0; i < RingLength; i++ {
		tr.empty <- &chunk{buf: make([]byte, bufSize)}
	}
	return tr
}

func (tr *threadedReader) start() {
	if tr.started {
		return
	}
	tr.started = true
	go func() {
		for {
			select {
			case c := <-tr.empty:
				n, err := io.ReadFull(tr.src, c.buf)
				if err == io.ErrUnexpectedEOF {
					err = nil // short final read is fine
				}
				c.n, c.err = n, err
				select {
				case tr.filled <- c:
				case <-tr.done:
					return
				}
				if err != nil {
					return
				}
			case <-tr.done:
				return
			}
		}
	}()
}

func (tr *threadedReader) Read(p []byte) (int, error) {
	if !tr.started {
		tr.start()
	}
	for {
		if tr.cur == nil {
			select {
			case c := <-tr.filled:
				tr.cur = c
				tr.pos = 0
			case <-tr.done:
				return 0, io.EOF
			}
		}
		if tr.pos < tr.cur.n {
			n := copy(p, tr.cur.buf[tr.pos:tr.cur.n])
			tr.pos += n
			return n, nil
		}
		err := tr.cur.err
		prev := tr.cur
		tr.cur = nil
		if err != nil {
			return 0, err
		}
		select {
		case tr.empty <- prev:
		case <-tr.done:
		}
	}
}

func (tr *threadedReader) Close() error {
	if tr.closed {
		return nil
	}
	tr.closed = true
	close(tr.done)
	return tr.src.Close()
}

// Options configures io_reader/io_writer construction (§4.1).
type Options struct {
	Threaded   bool
	BufferSize int
	// CompressLevel applies to writers only (0 = codec default).
	CompressLevel int
	// UseMMap requests the zero-copy mmap fast path for plain local files
	// (only meaningful for uncompressed File inputs; see mmap.go).
	UseMMap bool
}

// OpenReader implements io_reader(kind, compression, threaded, buffer_size):
// returns a byte stream, transparently decompressing and optionally
// threading the raw reader into a dedicated goroutine.
func OpenReader(target Target, c Compression, opts Options) (io.ReadCloser, error) {
	var raw io.ReadCloser
	switch target.Kind {
	case Stdio:
		raw = os.Stdin
	case File:
		if opts.UseMMap && c == NoCompression {
			if mr, err := openMMapReader(target.Path); err == nil {
				return mr, nil
			}
			// fall through to the regular path on mmap failure (e.g. the
			// file is empty, or mmap is unsupported on this platform).
		}
		f, err := os.Open(target.Path)
		if err != nil {
			return nil, errs.WithPath(errs.IO, target.Path, err)
		}
		raw = f
	}

	// compression is considered non-trivial whenever it isn't NoCompression
	// (§4.1 "threaded is true or compression is non-trivial").
	threaded := opts.Threaded || c != NoCompression
	if threaded {
		tr := newThreadedReader(raw, opts.BufferSize)
		raw = tr
	} else {
		raw = &bufferedReadCloser{r: bufferedReader(raw, opts.BufferSize), c: raw}
	}

	dec, err := decompressReader(raw, c)
	if err != nil {
		raw.Close()
		return nil, errs.WithPath(errs.IO, target.Path, err)
	}
	return &composedReadCloser{Reader: dec, closers: []io.Closer{dec, raw}}, nil
}

type bufferedReadCloser struct {
	r io.Reader
	c io.Closer
}

func (b *bufferedReadCloser) Read(p []byte) (int, error) { return b.r.Read(p) }
func (b *bufferedReadCloser) Close() error                { return b.c.Close() }

type composedReadCloser struct {
	io.Reader
	closers []io.Closer
}

func (c *composedReadCloser) Close() error {
	var first error
	for _, cl := range c.closers {
		if err := cl.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
