package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/markschl/seqtool-sub000/internal/config"
	"github.com/markschl/seqtool-sub000/internal/driver"
	"github.com/markschl/seqtool-sub000/internal/errs"
	"github.com/markschl/seqtool-sub000/internal/extsort"
	"github.com/markschl/seqtool-sub000/internal/ioutil"
	"github.com/markschl/seqtool-sub000/internal/qual"
	"github.com/markschl/seqtool-sub000/internal/record"
	"github.com/markschl/seqtool-sub000/internal/symtab"
	"github.com/markschl/seqtool-sub000/internal/vars"
)

func newSortCommand() *cobra.Command {
	var c config.Common
	var keyFlag string
	cmd := &cobra.Command{
		Use:   "sort",
		Short: "Sort records by one or more key fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			if keyFlag == "" {
				return errs.New(errs.Parse, "--key is required")
			}
			return runSort(&c, keyFlag)
		},
	}
	c.Register(cmd.Flags())
	cmd.Flags().StringVarP(&keyFlag, "key", "k", "", "Comma-separated sort key fields (required)")
	return cmd
}

// warnStderr prints a warning line unless --quiet was given, matching the
// teacher's approach of routing non-fatal diagnostics straight to stderr.
func warnStderr(quiet bool, msg string) {
	if !quiet {
		fmt.Fprintln(os.Stderr, yellow("warning:"), msg)
	}
}

// runSort exercises internal/extsort end-to-end (scenario S4): every
// record's formatted output bytes become a Payload riding alongside its
// sort key, buffered until the memory budget forces a spill, then merged
// back in key order.
func runSort(c *config.Common, keyFlag string) error {
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

	var inputs []*input
	defer closeAllInputs(inputs)
	for _, path := range c.Input {
		in, err := openInput(path, c)
		if err != nil {
			return err
		}
		inputs = append(inputs, in)
	}
	format := outputFormatFor(inputs)

	sorter := extsort.NewSorter(extsort.Config{
		TempDir:       os.TempDir(),
		MemoryBudget:  c.MemoryBudget(),
		Descending:    c.Descending,
		MaxSpillFiles: c.MaxSpill,
		Warn:          func(msg string) { warnStderr(c.Quiet, msg) },
	})

	for i, in := range inputs {
		work := func(rec *record.Record, scratch *driver.Scratch) error {
			scratch.Attrs = pipeline.Attrs.Scan(rec.ID(), rec.Desc())
			return nil
		}
		cb := func(rec *record.Record, scratch *driver.Scratch, ctx *vars.Context, table *symtab.Table) (bool, error) {
			id, desc := pipeline.Attrs.Compose(rec.ID(), rec.Desc(), table)
			key := buildKey(keyFields, ctx, table)
			data := formatRecord(format, id, desc, rec.RawSeq, rec.Qual)
			return false, sorter.Add(extsort.Item{
				Key:     key,
				Payload: extsort.Payload{Data: data, ID: append([]byte(nil), id...)},
			})
		}
		opts := driver.Options{
			Registry:    pipeline.Vars,
			Path:        in.path,
			FileNum:     i + 1,
			QualEnc:     qual.Sanger,
			Concurrency: c.Threads,
			Work:        work,
		}
		if err := driver.Run(in.reader, opts, cb); err != nil {
			return err
		}
	}

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

	return sorter.Finalize(func(it extsort.Item) error {
		_, err := wc.Write(it.Payload.Data)
		return err
	})
}
