package seqio

import (
	"bufio"
	"bytes"
	"io"

	"github.com/markschl/seqtool-sub000/internal/errs"
	"github.com/markschl/seqtool-sub000/internal/qual"
	"github.com/markschl/seqtool-sub000/internal/record"
)

// FastqReader reads strict 4-line FASTQ records (§4.2): validates that
// sequence length equals quality length, treating a mismatch as a fatal
// parse error.
type FastqReader struct {
	br     *bufio.Reader
	lineNo int
}

// NewFastqReader wraps r for FASTQ parsing.
func NewFastqReader(r io.Reader) *FastqReader {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReaderSize(r, initialBufferSize)
	}
	return &FastqReader{br: br}
}

func (f *FastqReader) readLine() ([]byte, error) {
	line, err := f.br.ReadBytes('\n')
	f.lineNo++
	line = bytes.TrimRight(line, "\r\n")
	if err != nil {
		if err == io.EOF {
			if len(line) == 0 {
				return nil, io.EOF
			}
			return line, nil
		}
		return nil, err
	}
	return line, nil
}

// ReadNext returns the next FASTQ record, or io.EOF when exhausted.
func (f *FastqReader) ReadNext() (*record.Record, error) {
	header, err := f.readLine()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, errs.Wrap(errs.Parse, err)
	}
	if len(header) == 0 || header[0] != '@' {
		return nil, errs.New(errs.Parse, "expected '@' at line %d, found %q", f.lineNo, header)
	}
	seqLine, err := f.readLine()
	if err != nil {
		return nil, errs.Wrap(errs.Parse, errUnexpectedEOF(err, "sequence"))
	}
	plusLine, err := f.readLine()
	if err != nil {
		return nil, errs.Wrap(errs.Parse, errUnexpectedEOF(err, "'+' separator"))
	}
	if len(plusLine) == 0 || plusLine[0] != '+' {
		return nil, errs.New(errs.Parse, "expected '+' at line %d, found %q", f.lineNo, plusLine)
	}
	qualLine, err := f.readLine()
	if err != nil {
		return nil, errs.Wrap(errs.Parse, errUnexpectedEOF(err, "quality"))
	}
	if len(seqLine) != len(qualLine) {
		return nil, errs.New(errs.Parse, "sequence/quality length mismatch at record ending line %d (%d vs %d)", f.lineNo, len(seqLine), len(qualLine))
	}

	return &record.Record{
		Header: record.NewFullHeader(header[1:]),
		RawSeq: seqLine,
		Qual:   qualLine,
	}, nil
}

func errUnexpectedEOF(err error, what string) error {
	if err == io.EOF {
		return errs.New(errs.Parse, "truncated FASTQ record: missing %s line", what)
	}
	return err
}

// FastqWriter writes strict 4-line FASTQ records, re-encoding quality per
// the output quality format (§4.2).
type FastqWriter struct {
	w         io.Writer
	outEnc    qual.Encoding
	srcEnc    qual.Encoding
	recode    bool
}

// NewFastqWriter constructs a writer. If outEnc != srcEnc, quality bytes
// are converted via internal/qual on each write.
func NewFastqWriter(w io.Writer, srcEnc, outEnc qual.Encoding) *FastqWriter {
	return &FastqWriter{w: w, outEnc: outEnc, srcEnc: srcEnc, recode: srcEnc != outEnc}
}

// WriteRecord writes one record using header as the composed header bytes.
func (w *FastqWriter) WriteRecord(header, seq, q []byte) error {
	if w.recode {
		q = qual.ConvertTo(q, w.srcEnc, w.outEnc)
	}
	var buf bytes.Buffer
	buf.Grow(len(header) + len(seq)*2 + 8)
	buf.WriteByte('@')
	buf.Write(header)
	buf.WriteByte('\n')
	buf.Write(seq)
	buf.WriteString("\n+\n")
	buf.Write(q)
	buf.WriteByte('\n')
	if _, err := w.w.Write(buf.Bytes()); err != nil {
		return errs.Wrap(errs.IO, err)
	}
	return nil
}
