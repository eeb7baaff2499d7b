// Package errs provides the small typed-error taxonomy shared across the
// seqtool substrate: IO, parse, type, lookup, resource and cancellation
// errors, wrapped once with a record id at the record boundary.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an Error for diagnostics and for exit-code decisions.
type Kind int

const (
	IO Kind = iota
	Parse
	Type
	Lookup
	Resource
	Cancellation
)

func (k Kind) String() string {
	switch k {
	case IO:
		return "io error"
	case Parse:
		return "parse error"
	case Type:
		return "type error"
	case Lookup:
		return "lookup error"
	case Resource:
		return "resource error"
	case Cancellation:
		return "cancelled"
	default:
		return "error"
	}
}

// Error wraps an underlying error with a Kind and, once known, the id of
// the record being processed when the error occurred.
type Error struct {
	Kind     Kind
	RecordID string
	Path     string
	Err      error
}

func (e *Error) Error() string {
	switch {
	case e.RecordID != "" && e.Path != "":
		return fmt.Sprintf("%s: %s (record %q, path %q)", e.Kind, e.Err, e.RecordID, e.Path)
	case e.RecordID != "":
		return fmt.Sprintf("%s: %s (record %q)", e.Kind, e.Err, e.RecordID)
	case e.Path != "":
		return fmt.Sprintf("%s: %s (path %q)", e.Kind, e.Err, e.Path)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an Error of the given kind.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Wrap attaches a Kind to an existing error.
func Wrap(kind Kind, err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: kind, Err: err}
}

// WithRecord annotates err with the given record id and returns it as an
// *Error; an err that already is an *Error is annotated in place, and a
// record id it already carries is kept.
func WithRecord(err error, id string) *Error {
	e := Wrap(Resource, err)
	if e.RecordID == "" {
		e.RecordID = id
	}
	return e
}

// WithPath annotates err with the given path and returns it as an *Error;
// an err that already is an *Error is annotated in place, and a path it
// already carries is kept.
func WithPath(kind Kind, path string, err error) *Error {
	e := Wrap(kind, err)
	if e.Path == "" {
		e.Path = path
	}
	return e
}

// IsBrokenPipe reports whether err represents a broken-pipe condition on
// stdout, which the CLI treats as a clean (exit 0) shutdown rather than a
// failure (§6/§8 S8).
func IsBrokenPipe(err error) bool {
	if err == nil {
		return false
	}
	var pe *Error
	if errors.As(err, &pe) {
		err = pe.Err
	}
	return errors.Is(err, ErrBrokenPipe)
}

// ErrBrokenPipe is returned/wrapped by writers when the downstream reader
// of stdout has gone away (e.g. `seqtool pass in.fq | head`).
var ErrBrokenPipe = errors.New("broken pipe")
