package main

import (
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

// dupMapFormats maps the --dup-map-format flag's accepted names to their
// extsort.DupMapFormat, in the order listed in the flag's usage string.
var dupMapFormats = map[string]extsort.DupMapFormat{
	"long":       extsort.DupMapLong,
	"long-star":  extsort.DupMapLongStar,
	"wide":       extsort.DupMapWide,
	"wide-comma": extsort.DupMapWideComma,
	"wide-key":   extsort.DupMapWideKey,
}

func newUniqueCommand() *cobra.Command {
	var c config.Common
	var keyFlag, dupMapPath, dupMapFormat string
	var appendCount, appendIds bool
	cmd := &cobra.Command{
		Use:   "unique",
		Short: "Deduplicate records by one or more key fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			if keyFlag == "" {
				return errs.New(errs.Parse, "--key is required")
			}
			if appendCount && appendIds {
				return errs.New(errs.Parse, "--count and --ids are mutually exclusive")
			}
			format, ok := dupMapFormats[dupMapFormat]
			if !ok {
				return errs.New(errs.Parse, "--dup-map-format must be one of long, long-star, wide, wide-comma, wide-key")
			}
			return runUnique(&c, keyFlag, appendCount, appendIds, dupMapPath, format)
		},
	}
	c.Register(cmd.Flags())
	cmd.Flags().StringVarP(&keyFlag, "key", "k", "", "Comma-separated dedup key fields (required)")
	cmd.Flags().BoolVar(&appendCount, "count", false, "Append a dup-count attribute to each survivor's description")
	cmd.Flags().BoolVar(&appendIds, "ids", false, "Append a comma-joined dup-id-list attribute to each survivor's description")
	cmd.Flags().StringVar(&dupMapPath, "dup-map", "", "Write a duplicate map to this file")
	cmd.Flags().StringVar(&dupMapFormat, "dup-map-format", "long", "Duplicate-map layout: long, long-star, wide, wide-comma, wide-key")
	return cmd
}

// runUnique exercises internal/extsort's dedup mode and duplicate-map
// output formats (scenario S5). When --count/--ids is set, the survivor's
// description carries a deferred placeholder substituted once the final
// group is known, per §4.12's deferred-emission contract.
func runUnique(c *config.Common, keyFlag string, appendCount, appendIds bool, dupMapPath string, dupMapFormat extsort.DupMapFormat) error {
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

	dupKind := extsort.DupNone
	switch {
	case appendCount:
		dupKind = extsort.DupCount
	case appendIds:
		dupKind = extsort.DupIds
	}

	var mapW extsort.DupMapWriter
	if dupMapPath != "" {
		f, err := os.Create(dupMapPath)
		if err != nil {
			return errs.WithPath(errs.IO, dupMapPath, err)
		}
		defer f.Close()
		mapW = extsort.NewDupMapWriter(f, dupMapFormat)
		defer mapW.Close()
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

	dedup := extsort.NewDeduplicator(extsort.Config{
		TempDir:       os.TempDir(),
		MemoryBudget:  c.MemoryBudget(),
		Descending:    c.Descending,
		ForceSort:     c.ForceSort,
		MaxSpillFiles: c.MaxSpill,
		Warn:          func(msg string) { warnStderr(c.Quiet, msg) },
	}, dupKind, mapW)

	for i, in := range inputs {
		work := func(rec *record.Record, scratch *driver.Scratch) error {
			scratch.Attrs = pipeline.Attrs.Scan(rec.ID(), rec.Desc())
			return nil
		}
		cb := func(rec *record.Record, scratch *driver.Scratch, ctx *vars.Context, table *symtab.Table) (bool, error) {
			id, desc := pipeline.Attrs.Compose(rec.ID(), rec.Desc(), table)
			key := buildKey(keyFields, ctx, table)

			deferred := dupKind != extsort.DupNone
			if deferred {
				marker := extsort.DeferredCountMarker
				if dupKind == extsort.DupIds {
					marker = extsort.DeferredIdsMarker
				}
				desc = append(append([]byte(nil), desc...), marker...)
			}
			data := formatRecord(format, id, desc, rec.RawSeq, rec.Qual)
			return false, dedup.Add(extsort.Item{
				Key: key,
				Payload: extsort.Payload{
					Data:     data,
					ID:       append([]byte(nil), id...),
					Deferred: deferred,
				},
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

	return dedup.Finalize(func(it extsort.Item) error {
		_, err := wc.Write(it.Payload.Data)
		return err
	})
}
