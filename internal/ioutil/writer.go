package ioutil

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/markschl/seqtool-sub000/internal/errs"
)

// threadedWriter offloads writes to a dedicated goroutine through a
// bounded ring of fixed-size buffers, symmetric to threadedReader (§4.1
// "Symmetric design for writers").
type threadedWriter struct {
	dst      io.WriteCloser
	done     chan struct{}
	filled   chan *chunk
	empty    chan *chunk
	cur      *chunk
	werrCh   chan error
	finished bool
}

func newThreadedWriter(dst io.WriteCloser, bufSize int) *threadedWriter {
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}
	tw := &threadedWriter{
		dst:    dst,
		done:   make(chan struct{}),
		filled: make(chan *chunk, RingLength),
		empty:  make(chan *chunk, RingLength),
		werrCh: make(chan error, 1),
	}
	for i := 0; i < RingLength; i++ {
		tw.empty <- &chunk{buf: make([]byte, bufSize)}
	}
	tw.cur = <-tw.empty
	go tw.run()
	return tw
}

func (tw *threadedWriter) run() {
	var firstErr error
	for c := range tw.filled {
		if firstErr == nil && c.n > 0 {
			if _, err := tw.dst.Write(c.buf[:c.n]); err != nil {
				firstErr = err
			}
		}
		select {
		case tw.empty <- c:
		default:
		}
	}
	tw.werrCh <- firstErr
}

func (tw *threadedWriter) Write(p []byte) (int, error) {
	total := 0
	for len(p) > 0 {
		if tw.cur.n == len(tw.cur.buf) {
			tw.filled <- tw.cur
			tw.cur = <-tw.empty
			tw.cur.n = 0
		}
		n := copy(tw.cur.buf[tw.cur.n:], p)
		tw.cur.n += n
		p = p[n:]
		total += n
	}
	return total, nil
}

// Finish flushes any partially-filled buffer, waits for the background
// writer to drain, and reports the first write error encountered — this
// must succeed on every non-error exit path (§4.1).
func (tw *threadedWriter) Finish() error {
	if tw.finished {
		return nil
	}
	tw.finished = true
	if tw.cur.n > 0 {
		tw.filled <- tw.cur
	}
	close(tw.filled)
	return <-tw.werrCh
}

// writeCloserFinisher is the WriteCloser OpenWriter returns. Its
// finalization order is: compressor footer flushed first, then the outer
// (threaded) buffer, then the file — see Close below.
type writeCloserFinisher struct {
	inner   io.WriteCloser // the compressor
	outer   *threadedWriter
	plain   io.WriteCloser // set instead of outer when not threaded
	file    io.Closer
}

func (w *writeCloserFinisher) Write(p []byte) (int, error) {
	return w.inner.Write(p)
}

func (w *writeCloserFinisher) Close() error {
	// finish() must flush the compression footer and then the outer
	// buffer, in that order, on every non-error exit path (§4.1).
	innerErr := w.inner.Close()
	var outerErr error
	if w.outer != nil {
		outerErr = w.outer.Finish()
	} else if w.plain != nil {
		outerErr = w.plain.Close()
	}
	var fileErr error
	if w.file != nil {
		fileErr = w.file.Close()
	}
	for _, err := range []error{innerErr, outerErr, fileErr} {
		if err != nil {
			return err
		}
	}
	return nil
}

// OpenWriter implements the writer half of §4.1: a WriteCloser whose Close
// performs finish() (compression footer, then outer buffer/thread,
// then the file handle).
func OpenWriter(target Target, c Compression, opts Options) (io.WriteCloser, error) {
	var file io.WriteCloser
	switch target.Kind {
	case Stdio:
		file = stdoutNoClose{}
	case File:
		f, err := os.Create(target.Path)
		if err != nil {
			return nil, errs.WithPath(errs.IO, target.Path, err)
		}
		file = f
	}

	threaded := opts.Threaded || c != NoCompression
	if threaded {
		tw := newThreadedWriter(file, opts.BufferSize)
		comp, err := compressWriter(tw, c, opts.CompressLevel)
		if err != nil {
			return nil, err
		}
		return &writeCloserFinisher{inner: comp, outer: tw, file: closerOrNil(target, file)}, nil
	}

	buf := bufio.NewWriterSize(file, opts.BufferSize)
	if opts.BufferSize <= 0 {
		buf = bufio.NewWriterSize(file, DefaultBufferSize)
	}
	comp, err := compressWriter(buf, c, opts.CompressLevel)
	if err != nil {
		return nil, err
	}
	return &writeCloserFinisher{inner: comp, plain: flushCloser{buf}, file: closerOrNil(target, file)}, nil
}

func closerOrNil(target Target, file io.WriteCloser) io.Closer {
	if target.Kind == Stdio {
		return nil
	}
	return file
}

type flushCloser struct{ w *bufio.Writer }

func (f flushCloser) Close() error { return f.w.Flush() }

// stdoutNoClose wraps os.Stdout so that Close is a flush-only no-op; the
// process owns stdout's lifetime, not the writer. Broken-pipe write errors
// are tagged so the CLI can suppress them on normal exit (§4.1, §6).
type stdoutNoClose struct{}

func (stdoutNoClose) Write(p []byte) (int, error) {
	n, err := os.Stdout.Write(p)
	if err != nil && isBrokenPipe(err) {
		return n, errs.ErrBrokenPipe
	}
	return n, err
}

func (stdoutNoClose) Close() error { return nil }

func isBrokenPipe(err error) bool {
	// os.Stdout.Write surfaces EPIPE as a *PathError/*fs.PathError wrapping
	// syscall.EPIPE on write to a closed pipe; string-matching keeps this
	// platform-agnostic without importing syscall.
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "broken pipe") || strings.Contains(msg, "pipe is being closed")
}
