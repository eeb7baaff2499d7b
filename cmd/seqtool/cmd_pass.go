package main

import (
	"github.com/spf13/cobra"

	"github.com/markschl/seqtool-sub000/internal/config"
	"github.com/markschl/seqtool-sub000/internal/driver"
	"github.com/markschl/seqtool-sub000/internal/qual"
	"github.com/markschl/seqtool-sub000/internal/record"
	"github.com/markschl/seqtool-sub000/internal/symtab"
	"github.com/markschl/seqtool-sub000/internal/vars"
)

func newPassCommand() *cobra.Command {
	var c config.Common
	cmd := &cobra.Command{
		Use:   "pass",
		Short: "Identity pipeline (round-trip input to output unchanged)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPass(&c)
		},
	}
	c.Register(cmd.Flags())
	return cmd
}

// runPass drives every input through the record pipeline unchanged,
// exercising the driver + IO layer + format codecs only (no filtering, no
// sort) — scenario S1.
func runPass(c *config.Common) error {
	pipeline, metaCloser, err := setupPipeline(c)
	if err != nil {
		return err
	}
	if metaCloser != nil {
		defer metaCloser.Close()
	}

	var out *output
	for i, path := range c.Input {
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
			return false, out.Write(id, desc, rec.RawSeq, rec.Qual)
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
