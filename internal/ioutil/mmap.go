package ioutil

import (
	"bytes"
	"io"
	"os"

	"github.com/edsrzf/mmap-go"
)

// mmapReader is the zero-copy fast path for plain (uncompressed) local
// files: the file is memory-mapped once via github.com/edsrzf/mmap-go (a
// teacher indirect dependency otherwise unused by this rewrite) and handed
// back as a *bytes.Reader over the mapping, so format codecs read directly
// from the page cache without an extra buffered copy.
type mmapReader struct {
	f  *os.File
	m  mmap.MMap
	br *bytes.Reader
}

func openMMapReader(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if fi.Size() == 0 {
		// mmap of a zero-length file fails on most platforms; fall back.
		f.Close()
		return nil, errEmptyFile
	}
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &mmapReader{f: f, m: m, br: bytes.NewReader(m)}, nil
}

func (r *mmapReader) Read(p []byte) (int, error) { return r.br.Read(p) }

func (r *mmapReader) Close() error {
	uerr := r.m.Unmap()
	ferr := r.f.Close()
	if uerr != nil {
		return uerr
	}
	return ferr
}

var errEmptyFile = &emptyFileError{}

type emptyFileError struct{}

func (*emptyFileError) Error() string { return "file is empty, mmap fast path not applicable" }
