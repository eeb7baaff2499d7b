// Package qual implements the quality-encoding converter (§4.3): validation
// and conversion between Sanger/Illumina1.3/Solexa/raw-Phred encodings, and
// error-probability sums.
//
// Directly adapted from the teacher's qualitymetrics.go (precomputed
// errorProbs table, sumErrorProbs/calculateAvgPhred shape), generalized
// from "always Sanger" to all four encodings and Solexa's non-round-tripping
// formula.
package qual

import (
	"fmt"
	"math"
)

// Encoding identifies one of the four supported quality encodings.
type Encoding int

const (
	Sanger Encoding = iota
	Illumina13
	Solexa
	RawPhred
)

func (e Encoding) String() string {
	switch e {
	case Sanger:
		return "sanger"
	case Illumina13:
		return "illumina1.3"
	case Solexa:
		return "solexa"
	case RawPhred:
		return "phred"
	default:
		return "unknown"
	}
}

// offset returns the ASCII offset for encodings that are a simple Phred
// shift (Sanger, Illumina1.3); Solexa and RawPhred are handled specially.
func (e Encoding) offset() int {
	switch e {
	case Sanger:
		return 33
	case Illumina13:
		return 64
	default:
		return 0
	}
}

// band returns the valid ASCII byte range [lo, hi] for the encoding.
func (e Encoding) band() (lo, hi byte) {
	switch e {
	case Sanger:
		return 33, 126
	case Illumina13:
		return 64, 126
	case Solexa:
		return 59, 126
	case RawPhred:
		return 0, 93
	}
	return 0, 255
}

// QualityError reports a validation failure, naming the offending byte and
// a hint at the likely source encoding (§4.3 "Errors are string-tagged").
type QualityError struct {
	Byte  byte
	Enc   Encoding
	Hint  string
}

func (e *QualityError) Error() string {
	return fmt.Sprintf("invalid quality byte %q for %s encoding (%s)", e.Byte, e.Enc, e.Hint)
}

// Validate checks each byte against the allowed ASCII band for enc.
func Validate(q []byte, enc Encoding) error {
	lo, hi := enc.band()
	for _, b := range q {
		if b < lo || b > hi {
			hint := "byte out of range"
			switch {
			case b >= 64 && b <= 104 && enc != Illumina13:
				hint = "looks like Illumina1.3/1.5 encoding"
			case b >= 33 && b <= 73 && enc != Sanger:
				hint = "looks like Sanger/Phred+33 encoding"
			}
			return &QualityError{Byte: b, Enc: enc, Hint: hint}
		}
	}
	return nil
}

// phredOf converts one byte of the given encoding to a raw Phred score.
func phredOf(b byte, enc Encoding) float64 {
	switch enc {
	case Sanger, Illumina13:
		return float64(int(b) - enc.offset())
	case RawPhred:
		return float64(b)
	case Solexa:
		qs := float64(int(b) - 59)
		return 10 * math.Log10(math.Pow(10, qs/10)+1)
	}
	return 0
}

// fromPhred converts a raw Phred score back into a byte of the target
// encoding, clamping Phred > 93 to 93 where the target's band requires it.
func fromPhred(p float64, target Encoding) byte {
	switch target {
	case Sanger, Illumina13:
		if p > 93 {
			p = 93
		}
		if p < 0 {
			p = 0
		}
		return byte(int(math.Round(p)) + target.offset())
	case RawPhred:
		if p > 93 {
			p = 93
		}
		if p < 0 {
			p = 0
		}
		return byte(int(math.Round(p)))
	case Solexa:
		// Qs = 10*log10(10^(Q/10) - 1), clamped >= 59 ASCII (i.e. Qs >= -5).
		arg := math.Pow(10, p/10) - 1
		var qs float64
		if arg <= 0 {
			qs = -5
		} else {
			qs = 10 * math.Log10(arg)
		}
		if qs < -5 {
			qs = -5
		}
		return byte(int(math.Round(qs)) + 59)
	}
	return 0
}

// ConvertTo produces bytes in the target encoding from bytes encoded as
// src, clamping Phred > 93 to 93 where the target encoding needs it.
func ConvertTo(q []byte, src, target Encoding) []byte {
	if src == target {
		out := make([]byte, len(q))
		copy(out, q)
		return out
	}
	out := make([]byte, len(q))
	for i, b := range q {
		out[i] = fromPhred(phredOf(b, src), target)
	}
	return out
}

// PhredScore pairs a raw quality byte with its computed Phred value.
type PhredScore struct {
	Raw   byte
	Phred float64
}

// PhredScores returns a view pairing raw bytes and computed Phred values.
func PhredScores(q []byte, enc Encoding) []PhredScore {
	out := make([]PhredScore, len(q))
	for i, b := range q {
		out[i] = PhredScore{Raw: b, Phred: phredOf(b, enc)}
	}
	return out
}

var errorProbs [256]float64

func init() {
	for i := range errorProbs {
		errorProbs[i] = math.Pow(10, float64(i)/-10)
	}
}

// TotalError sums 10^(-q/10) over all bases, with a dedicated formula for
// Solexa (which does not round-trip cleanly through Phred, §4.3).
func TotalError(q []byte, enc Encoding) float64 {
	var sum float64
	if enc == Solexa {
		for _, b := range q {
			qs := float64(int(b) - 59)
			sum += 1 / (math.Pow(10, qs/10) + 1)
		}
		return sum
	}
	for _, b := range q {
		p := int(phredOf(b, enc))
		if p < 0 {
			p = 0
		}
		if p > 255 {
			p = 255
		}
		sum += errorProbs[p]
	}
	return sum
}
