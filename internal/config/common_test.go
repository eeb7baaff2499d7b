package config

import (
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestRegisterDefaults(t *testing.T) {
	var c Common
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	c.Register(fs)
	if c.AttrDelim != " " || c.AttrValueDelim != "=" {
		t.Fatalf("unexpected attr defaults: %q %q", c.AttrDelim, c.AttrValueDelim)
	}
	if got := c.AttrFormat(); string(got.Delim) != " " || string(got.ValueDelim) != "=" {
		t.Fatalf("AttrFormat() = %+v", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("ST_ATTR_DELIM", ";")
	t.Setenv("ST_ATTRVAL_DELIM", ":")
	t.Setenv("ST_PAGER", "less")
	var c Common
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	c.Register(fs)
	if c.AttrDelim != ";" || c.AttrValueDelim != ":" || c.Pager != "less" {
		t.Fatalf("env override not applied: %+v", c)
	}
}

func TestFlagOverridesEnvAfterParse(t *testing.T) {
	t.Setenv("ST_ATTR_DELIM", ";")
	var c Common
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	c.Register(fs)
	if err := fs.Parse([]string{"--attr-delim", "|"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.AttrDelim != "|" {
		t.Fatalf("flag should win over env after parsing, got %q", c.AttrDelim)
	}
}

func TestMemoryBudgetDefaultsUnbounded(t *testing.T) {
	var c Common
	c.MaxMemory = 0
	if c.MemoryBudget() <= 0 {
		t.Fatalf("expected a positive unbounded budget, got %d", c.MemoryBudget())
	}
	c.MaxMemory = 1024
	if c.MemoryBudget() != 1024 {
		t.Fatalf("expected 1024, got %d", c.MemoryBudget())
	}
}

func TestOpenMetaNilWithoutFlag(t *testing.T) {
	var c Common
	src, err := c.OpenMeta(nil)
	if err != nil || src != nil {
		t.Fatalf("expected nil, nil when --meta unset, got %v, %v", src, err)
	}
}

func TestOpenMetaReadsHeader(t *testing.T) {
	var c Common
	c.MetaFile = "meta.tsv"
	c.MetaDelim = "\t"
	c.MetaIDCol = 1
	c.MetaHasHeader = true
	r := strings.NewReader("id\tcolor\nseq1\tred\n")
	src, err := c.OpenMeta(r)
	if err != nil {
		t.Fatalf("OpenMeta: %v", err)
	}
	if src == nil {
		t.Fatal("expected a non-nil Source")
	}
	row, ok, err := src.Lookup("seq1")
	if err != nil || !ok {
		t.Fatalf("Lookup(seq1) = %v, %v, %v", row, ok, err)
	}
}
