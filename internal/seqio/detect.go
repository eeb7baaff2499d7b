package seqio

import (
	"bufio"

	"github.com/markschl/seqtool-sub000/internal/errs"
)

// Format names one of the record formats seqio codes for.
type Format int

const (
	FormatFasta Format = iota
	FormatFastq
)

func (f Format) String() string {
	if f == FormatFastq {
		return "fastq"
	}
	return "fasta"
}

// DetectFormat peeks at the first byte of r after any leading blank lines
// ("\n"/"\r") to tell FASTA
// from FASTQ (">"/"@"), without consuming it — the bufio.Reader returned
// must be used for the actual read, matching the teacher's reliance on a
// one-byte sniff rather than a full magic-number table.
func DetectFormat(r *bufio.Reader) (Format, error) {
	for {
		b, err := r.Peek(1)
		if err != nil {
			return 0, errs.Wrap(errs.Parse, err)
		}
		switch b[0] {
		case '\n', '\r':
			if _, err := r.Discard(1); err != nil {
				return 0, errs.Wrap(errs.IO, err)
			}
			continue
		case '>':
			return FormatFasta, nil
		case '@':
			return FormatFastq, nil
		default:
			return 0, errs.New(errs.Parse, "cannot detect format: unexpected leading byte %q", b[0])
		}
	}
}
