package main

import (
	"github.com/spf13/cobra"

	"github.com/markschl/seqtool-sub000/internal/config"
	"github.com/markschl/seqtool-sub000/internal/driver"
	"github.com/markschl/seqtool-sub000/internal/errs"
	"github.com/markschl/seqtool-sub000/internal/qual"
	"github.com/markschl/seqtool-sub000/internal/record"
	"github.com/markschl/seqtool-sub000/internal/symtab"
	"github.com/markschl/seqtool-sub000/internal/vars"
)

func newHeadCommand() *cobra.Command {
	var c config.Common
	var n int
	cmd := &cobra.Command{
		Use:   "head",
		Short: "Pass through only the first N records",
		RunE: func(cmd *cobra.Command, args []string) error {
			if n < 0 {
				return errs.New(errs.Parse, "--number must be >= 0")
			}
			return runHead(&c, n)
		},
	}
	c.Register(cmd.Flags())
	cmd.Flags().IntVarP(&n, "number", "n", 10, "Number of records to pass through")
	return cmd
}

// runHead exercises the driver's early-stop contract (§4.10 "Returning
// stop=true ends the run"): the callback stops as soon as n records have
// been written, across however many input files it takes to reach n.
func runHead(c *config.Common, n int) error {
	pipeline, metaCloser, err := setupPipeline(c)
	if err != nil {
		return err
	}
	if metaCloser != nil {
		defer metaCloser.Close()
	}

	var out *output
	remaining := n
	for i, path := range c.Input {
		if remaining <= 0 {
			break
		}
		in, err := openInput(path, c)
		if err != nil {
			return err
		}

		if out == nil {
			out, err = openOutput(c.Output, in.format, c, 0, qual.Sanger, qual.Sanger)
			if err != nil {
				in.closer.Close()
				return err
			}
			defer out.closer.Close()
		}

		work := func(rec *record.Record, scratch *driver.Scratch) error {
			scratch.Attrs = pipeline.Attrs.Scan(rec.ID(), rec.Desc())
			return nil
		}
		cb := func(rec *record.Record, scratch *driver.Scratch, ctx *vars.Context, table *symtab.Table) (bool, error) {
			id, desc := pipeline.Attrs.Compose(rec.ID(), rec.Desc(), table)
			if err := out.Write(id, desc, rec.RawSeq, rec.Qual); err != nil {
				return true, err
			}
			remaining--
			return remaining <= 0, nil
		}

		opts := driver.Options{
			Registry:    pipeline.Vars,
			Path:        path,
			FileNum:     i + 1,
			QualEnc:     qual.Sanger,
			Concurrency: c.Threads,
			Work:        work,
		}
		err = driver.Run(in.reader, opts, cb)
		in.closer.Close()
		if err != nil {
			return err
		}
	}
	return nil
}
