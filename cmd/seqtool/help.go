package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// helpFunc renders a colorized help screen per subcommand, directly
// adapted from the teacher's help.go (same switch-on-command-name shape).
func helpFunc(cmd *cobra.Command, _ []string) {
	switch cmd.Name() {
	case "pass":
		fmt.Printf(`
%s

%s
  Read every record from the input and write it back out unchanged,
  exercising the driver/IO/format-codec stack with no filtering.

%s
  %s

`,
			bold(logo()+" pass - identity pipeline"),
			bold(yellow("Description:")),
			bold(yellow("Examples:")),
			cyan("seqtool pass -i in.fasta.gz -o out.fasta"),
		)
		return
	case "head":
		fmt.Printf(`
%s

%s
  Stream the first N records and stop, exercising the driver's early-stop
  contract.

%s
  %s

%s
  %s

`,
			bold(logo()+" head - bounded-count streaming filter"),
			bold(yellow("Description:")),
			bold(yellow("Flags:")),
			cyan("-n, --number")+" <int>  : Number of records to pass through (default 10)",
			bold(yellow("Examples:")),
			cyan("seqtool head -n 10 -i in.fq -o out.fq"),
		)
		return
	case "set":
		fmt.Printf(`
%s

%s
  Rewrite id/description/sequence fields from varstring templates
  ("{var}" / "{{ expr }}"), exercising the attribute engine and the
  varstring parser.

%s
  %s
  %s
  %s

%s
  %s

`,
			bold(logo()+" set - rewrite header/sequence fields"),
			bold(yellow("Description:")),
			bold(yellow("Flags:")),
			cyan("--id")+" <varstring>    : New id template",
			cyan("--desc")+" <varstring>  : New description template",
			cyan("--seq")+" <varstring>   : New sequence template",
			bold(yellow("Examples:")),
			cyan(`seqtool set --desc '{{ "gc=" + gc }}' -i in.fa -o out.fa`),
		)
		return
	case "replace":
		fmt.Printf(`
%s

%s
  Regexp find/replace against one record field.

%s
  %s
  %s
  %s

`,
			bold(logo()+" replace - regexp find/replace"),
			bold(yellow("Description:")),
			bold(yellow("Flags:")),
			cyan("--field")+" <id|desc|seq>  : Field to rewrite (default 'id')",
			cyan("--pattern")+" <regexp>      : Pattern to match (required)",
			cyan("--replacement")+" <text>    : Replacement text ($1-style backreferences allowed)",
		)
		return
	case "sort":
		fmt.Printf(`
%s

%s
  Sort records by one or more varstring key fields, spilling to disk once
  the memory budget is exceeded (internal/extsort end-to-end).

%s
  %s

`,
			bold(logo()+" sort - external sort by key"),
			bold(yellow("Description:")),
			bold(yellow("Flags:")),
			cyan("-k, --key")+" <varstring-list>  : Comma-separated sort key fields (required)",
		)
		return
	case "unique":
		fmt.Printf(`
%s

%s
  Deduplicate records by one or more key fields, keeping the first
  occurrence (internal/extsort's dedup mode).

%s
  %s
  %s
  %s
  %s
  %s

`,
			bold(logo()+" unique - deduplicate by key"),
			bold(yellow("Description:")),
			bold(yellow("Flags:")),
			cyan("-k, --key")+" <varstring-list>  : Comma-separated dedup key fields (required)",
			cyan("--count")+"                     : Append a dup-count attribute to survivors",
			cyan("--ids")+"                       : Append a comma-joined dup-id-list attribute to survivors",
			cyan("--dup-map")+"                   : Write a duplicate map to this file",
			cyan("--dup-map-format")+"            : long, long-star, wide, wide-comma, wide-key (default long)",
		)
		return
	case "compare":
		fmt.Printf(`
%s

%s
  Classify records from two inputs as common/unique1/unique2 by key
  (internal/compare's three strategies).

%s
  %s
  %s

`,
			bold(logo()+" compare - classify two inputs by key"),
			bold(yellow("Description:")),
			bold(yellow("Flags:")),
			cyan("-k, --key")+" <varstring-list>  : Comma-separated compare key fields (required)",
			cyan("--mode")+" <memory|keys-only|streaming> : Comparison strategy (default 'memory')",
		)
		return
	}

	fmt.Printf(`
%s

%s
  %s

%s
  %s
  %s
  %s
  %s
  %s
  %s
  %s

%s
  %s

`,
		bold(logo()+" - a streaming FASTA/FASTQ toolkit"),
		bold(yellow("Description:")),
		"Process large FASTA/FASTQ collections through a shared record/attribute/variable pipeline.",
		bold(yellow("Subcommands:")),
		cyan("pass")+"     : identity pipeline",
		cyan("head")+"     : bounded-count streaming filter",
		cyan("set")+"      : rewrite header/sequence fields",
		cyan("replace")+"  : regexp find/replace",
		cyan("sort")+"     : external sort by key",
		cyan("unique")+"   : deduplicate by key",
		cyan("compare")+"  : classify two inputs by key",
		bold(yellow("More information:")),
		cyan("seqtool <subcommand> --help"),
	)
}
