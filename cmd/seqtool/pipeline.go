package main

import (
	"io"

	"github.com/markschl/seqtool-sub000/internal/config"
)

// setupPipeline opens --meta (if any) and wires the standard provider
// set onto a fresh vars.Registry; the returned closer must be closed by
// the caller once the run finishes.
func setupPipeline(c *config.Common) (*config.Pipeline, io.Closer, error) {
	metaSources, metaCloser, err := openMetaSources(c)
	if err != nil {
		return nil, nil, err
	}
	pipeline, err := c.BuildPipeline(metaSources)
	if err != nil {
		if metaCloser != nil {
			metaCloser.Close()
		}
		return nil, nil, err
	}
	return pipeline, metaCloser, nil
}
