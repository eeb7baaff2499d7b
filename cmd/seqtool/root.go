// Command seqtool is a streaming FASTA/FASTQ toolkit built on the
// record/attribute/variable/driver substrate in internal/. Each
// subcommand is a thin cobra.Command assembling internal/config's shared
// option set, a internal/vars.Registry, and internal/driver.Run.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/markschl/seqtool-sub000/internal/errs"
)

// version is stamped at release time; "dev" is the unreleased default,
// matching the teacher's VERSION constant.
const version = "dev"

var (
	bold   = color.New(color.Bold).SprintFunc()
	yellow = color.New(color.Bold, color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
)

func logo() string {
	return bold("seqtool")
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "seqtool",
		Short:         logo() + " - a streaming FASTA/FASTQ toolkit",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetHelpFunc(helpFunc)
	root.AddCommand(
		newPassCommand(),
		newHeadCommand(),
		newSetCommand(),
		newReplaceCommand(),
		newSortCommand(),
		newUniqueCommand(),
		newCompareCommand(),
	)
	return root
}

// Execute runs the root command, printing a single red(...) diagnostic
// line on failure (§6/§7) and suppressing broken-pipe errors (writing to
// a closed downstream, e.g. `seqtool pass in.fq | head`) as a clean exit.
func Execute() int {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		if errs.IsBrokenPipe(err) {
			return 0
		}
		fmt.Fprintln(os.Stderr, red("Error: "+err.Error()))
		return 1
	}
	return 0
}
