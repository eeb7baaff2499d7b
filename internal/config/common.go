// Package config implements the shared "common" CLI option group (§6):
// input/output, attribute format, metadata, expression init, and advanced
// tuning flags every subcommand binds the same way, plus the ST_* env
// overrides. Grounded on the teacher's per-command flag-variable-closure
// idiom (command_headersort.go's HeaderSortCommand, command_nosort.go),
// generalized into one struct every subcommand embeds instead of
// redeclaring the same flags.
package config

import (
	"io"
	"math"
	"os"

	"github.com/spf13/pflag"

	"github.com/markschl/seqtool-sub000/internal/attr"
	"github.com/markschl/seqtool-sub000/internal/expr"
	"github.com/markschl/seqtool-sub000/internal/ioutil"
	"github.com/markschl/seqtool-sub000/internal/meta"
	"github.com/markschl/seqtool-sub000/internal/vars"
)

// Common holds the flag values shared by every subcommand (§6 "shared
// 'common' options covering input, output, attribute format, metadata,
// expression init, and advanced tuning").
type Common struct {
	// Input / output
	Input   []string
	Output  string
	Threads int

	// Attribute format (§4.5), defaulted then overridden by env.
	AttrDelim      string
	AttrValueDelim string

	// Metadata (§4.7)
	MetaFile      string
	MetaDelim     string
	MetaIDCol     int
	MetaHasHeader bool

	// Expression init (§4.9)
	ExprInit string

	// Advanced tuning
	BufferSize int
	MaxMemory  int64
	MaxSpill   int
	ForceSort  bool
	Descending bool
	Quiet      bool
	HelpVars   bool
	Pager      string
}

// Register binds every common flag onto fs, matching the teacher's
// StringVarP/BoolVarP/Float64VarP binding style (command_headersort.go).
func (c *Common) Register(fs *pflag.FlagSet) {
	fs.StringSliceVarP(&c.Input, "input", "i", []string{"-"}, "Input file(s) ('-' for stdin)")
	fs.StringVarP(&c.Output, "output", "o", "-", "Output file ('-' for stdout)")
	fs.IntVarP(&c.Threads, "threads", "t", 1, "Worker threads for parallel record processing")

	fs.StringVar(&c.AttrDelim, "attr-delim", " ", "Attribute delimiter in the description field")
	fs.StringVar(&c.AttrValueDelim, "attrval-delim", "=", "Attribute key/value delimiter")

	fs.StringVar(&c.MetaFile, "meta", "", "Delimited metadata file for lookups by record id")
	fs.StringVar(&c.MetaDelim, "meta-delim", "\t", "Metadata file column delimiter")
	fs.IntVar(&c.MetaIDCol, "meta-id-col", 1, "1-based metadata id column")
	fs.BoolVar(&c.MetaHasHeader, "meta-header", true, "Metadata file has a header row")

	fs.StringVar(&c.ExprInit, "expr-init", "", "JavaScript source evaluated once before any record expression")

	fs.IntVar(&c.BufferSize, "buf-size", ioutil.DefaultBufferSize, "I/O buffer size in bytes")
	fs.Int64Var(&c.MaxMemory, "max-mem", 512<<20, "Memory budget for sort/dedup/compare, in bytes")
	fs.IntVar(&c.MaxSpill, "max-spill-files", 1000, "Hard cap on temporary spill files (§4.12)")
	fs.BoolVar(&c.ForceSort, "force-sort", false, "Always sort dedup output, even without spilling")
	fs.BoolVar(&c.Descending, "reverse", false, "Sort/dedup in descending key order")
	fs.BoolVarP(&c.Quiet, "quiet", "q", false, "Suppress warnings on stderr")
	fs.BoolVar(&c.HelpVars, "help-vars", false, "List available variables/functions and exit")

	c.ApplyEnv()
}

// ApplyEnv overrides attribute-format and pager defaults from
// ST_ATTR_DELIM / ST_ATTRVAL_DELIM / ST_PAGER (§6 "Environment
// variables"), applied after flag registration so an explicit flag
// (parsed later by cobra) still wins over both the env and this default.
func (c *Common) ApplyEnv() {
	if v := os.Getenv("ST_ATTR_DELIM"); v != "" {
		c.AttrDelim = v
	}
	if v := os.Getenv("ST_ATTRVAL_DELIM"); v != "" {
		c.AttrValueDelim = v
	}
	if v := os.Getenv("ST_PAGER"); v != "" {
		c.Pager = v
	}
}

// AttrFormat builds the attr.Format this run's flags describe.
func (c *Common) AttrFormat() attr.Format {
	return attr.Format{
		Delim:      []byte(c.AttrDelim),
		ValueDelim: []byte(c.AttrValueDelim),
		AppendTo:   attr.TargetDesc,
	}
}

// IOOptions builds the ioutil.Options this run's flags describe. Threaded
// IO is requested whenever more than one worker thread is configured,
// since a single-threaded run has no concurrent reader to race with.
func (c *Common) IOOptions(compressLevel int) ioutil.Options {
	return ioutil.Options{
		Threaded:      c.Threads > 1,
		BufferSize:    c.BufferSize,
		CompressLevel: compressLevel,
		UseMMap:       true,
	}
}

// MemoryBudget returns MaxMemory, or an effectively unbounded budget if
// unset/non-positive (§4.12 "user's memory budget").
func (c *Common) MemoryBudget() int64 {
	if c.MaxMemory <= 0 {
		return math.MaxInt64
	}
	return c.MaxMemory
}

// OpenMeta opens the configured metadata file, if any, as a meta.Source.
// Returns a nil Source if no --meta flag was given.
func (c *Common) OpenMeta(r io.Reader) (*meta.Source, error) {
	if c.MetaFile == "" {
		return nil, nil
	}
	delim := '\t'
	if len(c.MetaDelim) > 0 {
		delim = []rune(c.MetaDelim)[0]
	}
	return meta.Open(r, delim, c.MetaIDCol-1, c.MetaHasHeader, false)
}

// Pipeline bundles the per-run objects every subcommand wires into
// internal/driver.Run: the attribute engine (shared between header
// composition and the "attrs" variable provider), the variable registry
// every built-in provider is added to, and the goja-backed expression
// engine backing "{{ ... }}" segments (§4.6/§4.9).
type Pipeline struct {
	Attrs *attr.Engine
	Vars  *vars.Registry
	Expr  *expr.Engine
}

// BuildPipeline wires the standard provider set (general, attrs, convert,
// stats, meta, expr) onto a fresh registry, in the order §4.6 requires:
// the expression provider last, so its variable-rewrite pass can resolve
// every other provider's names through the same Builder.
func (c *Common) BuildPipeline(metaSources []*meta.Source) (*Pipeline, error) {
	format := c.AttrFormat()
	if err := format.Validate(); err != nil {
		return nil, err
	}
	attrEngine := attr.NewEngine(format)

	exprEngine, err := expr.NewEngine(c.ExprInit)
	if err != nil {
		return nil, err
	}

	reg := vars.NewRegistry()
	reg.Add(vars.NewGeneral())
	reg.Add(vars.NewAttrs(attrEngine))
	reg.Add(vars.NewConvert())
	reg.Add(vars.NewStats())
	if len(metaSources) > 0 {
		reg.Add(vars.NewMeta(metaSources))
	}
	reg.Add(vars.NewExpr(exprEngine))

	return &Pipeline{Attrs: attrEngine, Vars: reg, Expr: exprEngine}, nil
}
