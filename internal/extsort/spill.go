package extsort

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/golang/snappy"

	"github.com/markschl/seqtool-sub000/internal/errs"
)

// spillFormatVersion is the leading byte of every spill file, so a future
// on-disk layout (or a plain uncompressed fallback) can be distinguished
// safely (§4.12 enrichment note).
const spillFormatVersion byte = 1

// writeSpill writes items, in the order given (the caller sorts them), to
// path as a
// versioned sequence of length-prefixed, snappy-block-compressed records
// (grounded on csvquery's sorter.flushChunk, substituting snappy for
// csvquery's lz4 since lz4 is already bound to this repo's primary IO
// codec — see DESIGN.md).
func writeSpill(path string, items []Item) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errs.WithPath(errs.IO, path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	bw := bufio.NewWriterSize(f, 256*1024)
	if _, err = bw.Write([]byte{spillFormatVersion}); err != nil {
		return errs.WithPath(errs.IO, path, err)
	}

	var lenBuf [4]byte
	var compressed []byte
	for _, it := range items {
		raw := encodeItem(it)
		compressed = snappy.Encode(compressed[:cap(compressed)], raw)
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(compressed)))
		if _, err = bw.Write(lenBuf[:]); err != nil {
			return errs.WithPath(errs.IO, path, err)
		}
		if _, err = bw.Write(compressed); err != nil {
			return errs.WithPath(errs.IO, path, err)
		}
	}
	if err = bw.Flush(); err != nil {
		return errs.WithPath(errs.IO, path, err)
	}
	return nil
}

// spillReader streams Items back out of a file written by writeSpill, in
// the order they were written (ascending or descending, whichever the
// writer sorted by).
type spillReader struct {
	path string
	f    *os.File
	br   *bufio.Reader
}

func openSpill(path string) (*spillReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.WithPath(errs.IO, path, err)
	}
	br := bufio.NewReaderSize(f, 64*1024)
	version, err := br.ReadByte()
	if err != nil {
		f.Close()
		return nil, errs.WithPath(errs.IO, path, err)
	}
	if version != spillFormatVersion {
		f.Close()
		return nil, errs.New(errs.IO, "spill file %q: unsupported format version %d", path, version)
	}
	return &spillReader{path: path, f: f, br: br}, nil
}

// next returns the next Item, or io.EOF once the file is exhausted.
func (r *spillReader) next() (Item, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r.br, lenBuf[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return Item{}, errs.WithPath(errs.IO, r.path, io.ErrUnexpectedEOF)
		}
		return Item{}, err // io.EOF propagates as-is
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	compressed := make([]byte, n)
	if _, err := io.ReadFull(r.br, compressed); err != nil {
		return Item{}, errs.WithPath(errs.IO, r.path, err)
	}
	raw, err := snappy.Decode(nil, compressed)
	if err != nil {
		return Item{}, errs.WithPath(errs.IO, r.path, err)
	}
	return decodeItem(raw)
}

// close releases the file handle and removes the spill file; spill files
// are deleted once their reader reaches EOF (§3 "Spill file" lifecycle).
func (r *spillReader) close() error {
	err := r.f.Close()
	os.Remove(r.path)
	return err
}
