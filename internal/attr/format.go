// Package attr implements the header-attribute engine (§4.5): parsing
// key=value pairs embedded in headers, planning edit/append/delete
// operations per registered attribute name, and rewriting headers on
// output with stable ordering.
package attr

import (
	"bytes"

	"github.com/markschl/seqtool-sub000/internal/errs"
)

// Target names which header field ("id" or "desc") an attribute belongs to
// for reading, and where appended attributes land by default (§3).
type Target int

const (
	TargetID Target = iota
	TargetDesc
)

// Format bundles the three byte-sequences governing attribute syntax (§3):
// the between-attribute delimiter, the key/value delimiter, and the
// default append target. Both delimiters must be non-empty and distinct.
type Format struct {
	Delim      []byte
	ValueDelim []byte
	AppendTo   Target
}

// DefaultFormat matches §6's default: attributes appear in the description
// after the first space, separated by single spaces, key=value.
func DefaultFormat() Format {
	return Format{Delim: []byte(" "), ValueDelim: []byte("="), AppendTo: TargetDesc}
}

// Validate enforces the Format invariant (§3).
func (f Format) Validate() error {
	if len(f.Delim) == 0 || len(f.ValueDelim) == 0 {
		return errs.New(errs.Parse, "attribute delimiters must be non-empty")
	}
	if bytes.Equal(f.Delim, f.ValueDelim) {
		return errs.New(errs.Parse, "attribute delimiter and value delimiter must differ")
	}
	return nil
}
