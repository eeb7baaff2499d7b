// Package ioutil implements the IO layer (§4.1): kind detection (stdio vs
// file), compression codec selection, and ring-buffered threaded transfer
// for reader/writer streams.
package ioutil

import "strings"

// Kind distinguishes a standard stream from a file path (§4.1).
type Kind int

const (
	Stdio Kind = iota
	File
)

// Target bundles a Kind with its path (empty for Stdio).
type Target struct {
	Kind Kind
	Path string
}

// ParseTarget interprets "-" as stdio and anything else as a file path,
// matching the teacher's xopen.Ropen/Wopen "-" convention (io.go,
// command_sort.go).
func ParseTarget(path string) Target {
	if path == "" || path == "-" {
		return Target{Kind: Stdio}
	}
	return Target{Kind: File, Path: path}
}

// StripCompressionExt removes one recognized compression extension from
// path, if present, returning the remainder and the detected Compression
// (NoCompression if none matched).
func StripCompressionExt(path string) (string, Compression) {
	lower := strings.ToLower(path)
	for _, c := range []struct {
		ext string
		c   Compression
	}{
		{".gz", Gzip},
		{".bz2", Bzip2},
		{".lz4", LZ4},
		{".zst", Zstd},
	} {
		if strings.HasSuffix(lower, c.ext) {
			return path[:len(path)-len(c.ext)], c.c
		}
	}
	return path, NoCompression
}

// FormatFromExt guesses a format discriminator string ("fasta", "fastq",
// "csv", "tsv") from the (compression-stripped) path extension. An empty
// string means "unknown, caller must decide".
func FormatFromExt(path string) string {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".fasta"), strings.HasSuffix(lower, ".fa"),
		strings.HasSuffix(lower, ".fna"), strings.HasSuffix(lower, ".faa"):
		return "fasta"
	case strings.HasSuffix(lower, ".fastq"), strings.HasSuffix(lower, ".fq"):
		return "fastq"
	case strings.HasSuffix(lower, ".csv"):
		return "csv"
	case strings.HasSuffix(lower, ".tsv"), strings.HasSuffix(lower, ".txt"):
		return "tsv"
	default:
		return ""
	}
}
