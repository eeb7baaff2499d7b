// Package vars implements the symbol-table variable registry (§4.6): a set
// of VarProviders, each owning a slice of the per-record symtab.Table, and
// a Registry that dispatches name resolution last-to-first so that a
// later-registered provider (e.g. the expression engine) can shadow or wrap
// an earlier one.
package vars

import (
	"github.com/markschl/seqtool-sub000/internal/attr"
	"github.com/markschl/seqtool-sub000/internal/qual"
	"github.com/markschl/seqtool-sub000/internal/record"
	"github.com/markschl/seqtool-sub000/internal/symtab"
)

// ArgKind distinguishes a literal argument from one that is itself a
// resolved variable/function reference (§4.8 "arg := var_or_func | quoted_string | bareword").
type ArgKind int

const (
	ArgLiteral ArgKind = iota
	ArgVar
)

// Arg is one call argument, already resolved by the caller (varstring or
// expression layer) before it reaches a provider's Register.
type Arg struct {
	Kind    ArgKind
	Literal string
	VarID   int // valid when Kind == ArgVar: the symbol id of the nested call
}

// Call names a requested variable or function and its arguments.
type Call struct {
	Name string
	Args []Arg
}

// Context bundles everything a provider needs to fill its cells for the
// current record (§4.6 "set_record(record, symbols, attrs, qc)").
type Context struct {
	Record  *record.Record
	Attrs   *attr.Scanned // result of attr.Engine.Scan for this record, or nil
	QualEnc qual.Encoding
	Path    string // current input path (general provider)
	FileNum int    // 1-based input file index, for multi-input commands
}

// CellText resolves a cell to its raw bytes, following a RecordAttr alias
// back to the live record rather than a stale copy (§9 "record attribute
// cells stay zero-copy").
func CellText(ctx *Context, c *symtab.Cell) []byte {
	if c.Kind() == symtab.RecordAttr {
		switch c.RecordField() {
		case symtab.FieldID:
			return ctx.Record.ID()
		case symtab.FieldDesc:
			return ctx.Record.Desc()
		case symtab.FieldSeq:
			return ctx.Record.RawSeq
		}
	}
	return c.Text()
}

// Provider is one source of variables/functions (§4.6).
type Provider interface {
	// StaticName identifies the provider for error messages and the
	// "which provider owns this id" bookkeeping in Registry.
	StaticName() string

	// Register attempts to recognize call.Name. ok is false if this
	// provider doesn't recognize the name, in which case the registry
	// tries the next (earlier-registered) provider.
	Register(call Call, b *Builder) (symID int, ok bool, err error)

	// SetRecord fills every cell this provider owns for the current
	// record into table.
	SetRecord(ctx *Context, table *symtab.Table) error
}
