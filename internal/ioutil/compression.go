package ioutil

import (
	"bufio"
	"fmt"
	"io"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies one of the codecs in §4.1/§6: gzip, bzip2, lz4,
// zstd, deduced recursively from the last path extension (so foo.fasta.gz
// is FASTA + gzip, and in principle foo.fasta.gz.bz2 would recurse further,
// though seqtool only strips a single layer as the spec only names single
// compression per file).
type Compression int

const (
	NoCompression Compression = iota
	Gzip
	Bzip2
	LZ4
	Zstd
)

func (c Compression) String() string {
	switch c {
	case Gzip:
		return "gzip"
	case Bzip2:
		return "bzip2"
	case LZ4:
		return "lz4"
	case Zstd:
		return "zstd"
	default:
		return "none"
	}
}

// DefaultBufferSize is the ring buffer slot size used by threaded transfer
// (§4.1), unless overridden by the caller.
const DefaultBufferSize = 4 << 20 // 4 MiB

// RingLength is the number of buffers kept in flight between the
// background IO thread and the consumer (§4.1).
const RingLength = 2

// decompressReader wraps r with the decoder for c. Each decoder is built
// with its own default buffering (§4.1); no buffer size is set here.
func decompressReader(r io.Reader, c Compression) (io.ReadCloser, error) {
	switch c {
	case NoCompression:
		return io.NopCloser(r), nil
	case Gzip:
		zr, err := pgzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		return zr, nil
	case Bzip2:
		zr, err := bzip2.NewReader(r, nil)
		if err != nil {
			return nil, fmt.Errorf("bzip2: %w", err)
		}
		return zr, nil
	case LZ4:
		zr := lz4.NewReader(r)
		return io.NopCloser(zr), nil
	case Zstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		return readCloserFunc{zr, zr.Close}, nil
	default:
		return nil, fmt.Errorf("unsupported compression %v", c)
	}
}

// compressWriter wraps w with the encoder for c. Writers expose an explicit
// Finish() (via WriteCloser.Close) that flushes the compression footer.
func compressWriter(w io.Writer, c Compression, level int) (io.WriteCloser, error) {
	switch c {
	case NoCompression:
		return nopWriteCloser{w}, nil
	case Gzip:
		// pgzip parallelizes its own compression internally, which doubles
		// as the "background-thread I/O" path for gzip writers (§4.1).
		zw, err := pgzip.NewWriterLevel(w, normalizeLevel(level, pgzip.DefaultCompression, pgzip.BestSpeed, pgzip.BestCompression))
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		return zw, nil
	case Bzip2:
		zw, err := bzip2.NewWriter(w, &bzip2.WriterConfig{Level: normalizeLevel(level, 6, 1, 9)})
		if err != nil {
			return nil, fmt.Errorf("bzip2: %w", err)
		}
		return zw, nil
	case LZ4:
		zw := lz4.NewWriter(w)
		return zw, nil
	case Zstd:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		return zw, nil
	default:
		return nil, fmt.Errorf("unsupported compression %v", c)
	}
}

func normalizeLevel(level, def, min, max int) int {
	if level <= 0 {
		return def
	}
	if level < min {
		return min
	}
	if level > max {
		return max
	}
	return level
}

type readCloserFunc struct {
	io.Reader
	closeFn func()
}

func (r readCloserFunc) Close() error {
	r.closeFn()
	return nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// bufferedReader applies a bufio.Reader of the given size in front of a raw
// stream, used when no threaded transfer is requested.
func bufferedReader(r io.Reader, bufSize int) *bufio.Reader {
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}
	return bufio.NewReaderSize(r, bufSize)
}
