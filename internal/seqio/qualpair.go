package seqio

import (
	"bytes"
	"io"
	"strconv"

	"github.com/markschl/seqtool-sub000/internal/errs"
	"github.com/markschl/seqtool-sub000/internal/record"
)

// QualPairReader reads a FASTA file alongside a side-car QUAL file (§4.2):
// a second FASTA-shaped reader over space-separated integer scores. Both
// readers advance together; ids must match and score counts must equal
// sequence length.
type QualPairReader struct {
	seqR  *FastaReader
	qualR *FastaReader
}

// NewQualPairReader pairs a FASTA reader with a QUAL-file reader.
func NewQualPairReader(seqR, qualR io.Reader) *QualPairReader {
	return &QualPairReader{seqR: NewFastaReader(seqR), qualR: NewFastaReader(qualR)}
}

// ReadNext returns the next record with Qual populated as raw Phred+0
// bytes decoded from the integer scores (caller re-encodes as needed).
func (p *QualPairReader) ReadNext() (*record.Record, error) {
	seqRec, err := p.seqR.ReadNext()
	if err == io.EOF {
		if _, qerr := p.qualR.ReadNext(); qerr != io.EOF {
			return nil, errs.New(errs.Parse, "QUAL file has more records than FASTA file")
		}
		return nil, io.EOF
	}
	if err != nil {
		return nil, err
	}
	qualRec, err := p.qualR.ReadNext()
	if err == io.EOF {
		return nil, errs.New(errs.Parse, "FASTA file has more records than QUAL file (missing id %q)", seqRec.ID())
	}
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(seqRec.ID(), qualRec.ID()) {
		return nil, errs.New(errs.Parse, "QUAL/FASTA id mismatch: %q vs %q", seqRec.ID(), qualRec.ID())
	}

	scores, err := parseIntScores(qualRec.RawSeq)
	if err != nil {
		return nil, errs.Wrap(errs.Parse, err)
	}
	if len(scores) != len(seqRec.RawSeq) {
		return nil, errs.New(errs.Parse, "QUAL/FASTA length mismatch for %q: %d scores vs %d bases", seqRec.ID(), len(scores), len(seqRec.RawSeq))
	}

	qbytes := make([]byte, len(scores))
	for i, s := range scores {
		if s > 93 {
			s = 93
		}
		if s < 0 {
			s = 0
		}
		qbytes[i] = byte(s)
	}
	seqRec.Qual = qbytes
	return seqRec, nil
}

func parseIntScores(line []byte) ([]int, error) {
	fields := bytes.Fields(line)
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.Atoi(string(f))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
