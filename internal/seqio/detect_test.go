package seqio

import (
	"bufio"
	"strings"
	"testing"
)

func TestDetectFormat(t *testing.T) {
	cases := []struct {
		in   string
		want Format
	}{
		{">seq1\nACGT\n", FormatFasta},
		{"@seq1\nACGT\n+\nIIII\n", FormatFastq},
		{"\n\n>seq1\nACGT\n", FormatFasta},
	}
	for _, c := range cases {
		r := bufio.NewReader(strings.NewReader(c.in))
		got, err := DetectFormat(r)
		if err != nil {
			t.Fatalf("DetectFormat(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("DetectFormat(%q) = %v, want %v", c.in, got, c.want)
		}
		// the sniffed byte must still be readable afterward
		b, err := r.ReadByte()
		if err != nil || (b != '>' && b != '@') {
			t.Errorf("expected leading byte still available, got %q, %v", b, err)
		}
	}
}

func TestDetectFormatUnknown(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("not a sequence file"))
	if _, err := DetectFormat(r); err == nil {
		t.Fatal("expected an error for unrecognized content")
	}
}
