package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/markschl/seqtool-sub000/internal/compare"
	"github.com/markschl/seqtool-sub000/internal/config"
	"github.com/markschl/seqtool-sub000/internal/errs"
	"github.com/markschl/seqtool-sub000/internal/extsort"
	"github.com/markschl/seqtool-sub000/internal/ioutil"
	"github.com/markschl/seqtool-sub000/internal/qual"
	"github.com/markschl/seqtool-sub000/internal/record"
	"github.com/markschl/seqtool-sub000/internal/seqio"
	"github.com/markschl/seqtool-sub000/internal/symtab"
	"github.com/markschl/seqtool-sub000/internal/varstring"
	"github.com/markschl/seqtool-sub000/internal/vars"
)

func newCompareCommand() *cobra.Command {
	var c config.Common
	var keyFlag, mode string
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Classify two inputs as common/unique1/unique2 by key",
		RunE: func(cmd *cobra.Command, args []string) error {
			if keyFlag == "" {
				return errs.New(errs.Parse, "--key is required")
			}
			if len(c.Input) != 2 {
				return errs.New(errs.Parse, "compare requires exactly two --input files")
			}
			switch mode {
			case "memory", "keys-only", "streaming":
			default:
				return errs.New(errs.Parse, "--mode must be one of memory, keys-only, streaming")
			}
			return runCompare(&c, keyFlag, mode)
		},
	}
	c.Register(cmd.Flags())
	cmd.Flags().StringVarP(&keyFlag, "key", "k", "", "Comma-separated compare key fields (required)")
	cmd.Flags().StringVar(&mode, "mode", "memory", "Comparison strategy: memory, keys-only, streaming")
	return cmd
}

// compareSource adapts one opened input into a compare.Source, computing
// the comparison key the same way sort/unique do (shared vars.Registry,
// compiled key fields) but yielding an owned clone per call since every
// compare.Source implementation retains records past the read that
// produced them (§4.13).
type compareSource struct {
	pipeline *config.Pipeline
	in       *input
	path     string
	fileNum  int
	keys     []*varstring.Compiled
	table    *symtab.Table
}

func (s *compareSource) Next() (extsort.Key, *record.Owned, error) {
	rec, err := s.in.reader.ReadNext()
	if err != nil {
		return nil, nil, err
	}
	ctx := &vars.Context{
		Record:  rec,
		Attrs:   s.pipeline.Attrs.Scan(rec.ID(), rec.Desc()),
		QualEnc: qual.Sanger,
		Path:    s.path,
		FileNum: s.fileNum,
	}
	if err := s.pipeline.Vars.SetRecord(ctx, s.table); err != nil {
		return nil, nil, err
	}
	key := buildKey(s.keys, ctx, s.table)
	return key, rec.Clone(), nil
}

// runCompare exercises internal/compare's three strategies (scenario S6):
// --mode selects in-memory, keys-only two-pass, or ordered streaming. The
// result stream is a single output file of category-tagged records, plus
// a one-line tally printed to stdout.
func runCompare(c *config.Common, keyFlag, mode string) error {
	pipeline, metaCloser, err := setupPipeline(c)
	if err != nil {
		return err
	}
	if metaCloser != nil {
		defer metaCloser.Close()
	}
	keyFields, err := compileKeyFields(keyFlag, pipeline.Vars)
	if err != nil {
		return err
	}
	table := pipeline.Vars.NewTable()

	newSource := func(idx int) (compare.Source, *input, error) {
		in, err := openInput(c.Input[idx], c)
		if err != nil {
			return nil, nil, err
		}
		return &compareSource{
			pipeline: pipeline,
			in:       in,
			path:     c.Input[idx],
			fileNum:  idx + 1,
			keys:     keyFields,
			table:    table,
		}, in, nil
	}

	probe, err := openInput(c.Input[0], c)
	if err != nil {
		return err
	}
	format := probe.format
	probe.closer.Close()

	target := ioutil.ParseTarget(c.Output)
	comp := ioutil.NoCompression
	if target.Kind == ioutil.File {
		_, comp = ioutil.StripCompressionExt(target.Path)
	}
	wc, err := ioutil.OpenWriter(target, comp, c.IOOptions(0))
	if err != nil {
		return err
	}
	defer wc.Close()

	emit := func(cat compare.Category, key extsort.Key, rec1, rec2 *record.Owned) error {
		return writeCompareResult(wc, format, cat, rec1, rec2)
	}

	var stats compare.Stats
	switch mode {
	case "memory":
		s1, in1, err := newSource(0)
		if err != nil {
			return err
		}
		defer in1.closer.Close()
		s2, in2, err := newSource(1)
		if err != nil {
			return err
		}
		defer in2.closer.Close()
		stats, err = compare.RunInMemory(s1, s2, emit)
		if err != nil {
			return err
		}
	case "keys-only":
		for _, p := range c.Input {
			if ioutil.ParseTarget(p).Kind == ioutil.Stdio {
				return errs.New(errs.IO, "keys-only mode needs seekable inputs; stdin is not supported")
			}
		}
		open1 := func() (compare.Source, error) {
			s, _, err := newSource(0)
			return s, err
		}
		open2 := func() (compare.Source, error) {
			s, _, err := newSource(1)
			return s, err
		}
		stats, err = compare.RunKeysOnly(open1, open2, emit)
		if err != nil {
			return err
		}
	case "streaming":
		s1, in1, err := newSource(0)
		if err != nil {
			return err
		}
		defer in1.closer.Close()
		s2, in2, err := newSource(1)
		if err != nil {
			return err
		}
		defer in2.closer.Close()
		stats, err = compare.RunOrderedStreaming(s1, s2, c.MemoryBudget(), emit)
		if err != nil {
			return err
		}
	}

	if !c.Quiet {
		fmt.Printf("common: %d, unique1: %d, unique2: %d\n", stats.Common, stats.Unique1, stats.Unique2)
	}
	return nil
}

// writeCompareResult appends the category-tagged record(s) to the shared
// output: a Common pair writes rec1 once (rec2 carries the matched-but-
// redundant payload for the same key), Unique1/Unique2 write whichever
// side is non-nil.
func writeCompareResult(w io.Writer, format seqio.Format, cat compare.Category, rec1, rec2 *record.Owned) error {
	rec := rec1
	if rec == nil {
		rec = rec2
	}
	if rec == nil {
		return nil
	}
	desc := append(append([]byte(nil), rec.Desc()...), []byte(" category="+cat.String())...)
	data := formatRecord(format, rec.ID(), desc, rec.Seq(), rec.Qual())
	_, err := w.Write(data)
	return err
}
