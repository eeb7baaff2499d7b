package main

import (
	"github.com/spf13/cobra"

	"github.com/markschl/seqtool-sub000/internal/config"
	"github.com/markschl/seqtool-sub000/internal/driver"
	"github.com/markschl/seqtool-sub000/internal/qual"
	"github.com/markschl/seqtool-sub000/internal/record"
	"github.com/markschl/seqtool-sub000/internal/symtab"
	"github.com/markschl/seqtool-sub000/internal/varstring"
	"github.com/markschl/seqtool-sub000/internal/vars"
)

func newSetCommand() *cobra.Command {
	var c config.Common
	var idTpl, descTpl, seqTpl string
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Rewrite id/description/sequence from varstring templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSet(&c, idTpl, descTpl, seqTpl)
		},
	}
	c.Register(cmd.Flags())
	cmd.Flags().StringVar(&idTpl, "id", "", "New id varstring template")
	cmd.Flags().StringVar(&descTpl, "desc", "", "New description varstring template")
	cmd.Flags().StringVar(&seqTpl, "seq", "", "New sequence varstring template")
	return cmd
}

// runSet exercises the attribute engine + varstring parser (§4.8/§9
// scenario S2/S3): each configured template is parsed once, compiled
// against the run's shared registry, then evaluated per record and
// applied to a zero-copy record.Overlay so unconfigured fields are never
// touched.
func runSet(c *config.Common, idTpl, descTpl, seqTpl string) error {
	pipeline, metaCloser, err := setupPipeline(c)
	if err != nil {
		return err
	}
	if metaCloser != nil {
		defer metaCloser.Close()
	}

	compile := func(tpl string) (*varstring.Compiled, error) {
		if tpl == "" {
			return nil, nil
		}
		segs, err := varstring.Parse([]byte(tpl))
		if err != nil {
			return nil, err
		}
		return varstring.Compile(segs, pipeline.Vars)
	}
	idC, err := compile(idTpl)
	if err != nil {
		return err
	}
	descC, err := compile(descTpl)
	if err != nil {
		return err
	}
	seqC, err := compile(seqTpl)
	if err != nil {
		return err
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
			overlay := record.NewOverlay(rec)
			if idC != nil {
				overlay.SetID(append([]byte(nil), idC.Eval(ctx, table)...))
			}
			if descC != nil {
				overlay.SetDesc(append([]byte(nil), descC.Eval(ctx, table)...))
			}
			if seqC != nil {
				overlay.SetSeq(append([]byte(nil), seqC.Eval(ctx, table)...))
			}
			return false, out.Write(overlay.ID(), overlay.Desc(), overlay.Seq(), overlay.Qual())
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
