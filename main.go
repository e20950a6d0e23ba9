package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/mudrockdev/mudrockdivergence/config"
	"github.com/mudrockdev/mudrockdivergence/report"
)

var rootCmd = &cobra.Command{
	Use:   "mudrockdivergence [config-file]",
	Short: "Compare the schema of two relational databases",
	Long: `Compare database defaults, tables and columns of a source and a destination
database and list every divergence. Connections are read from a YAML file
(default ` + config.DefaultFileName + `).

Exit status is 0 when the schemas match, 1 when divergences were found and
2 when the comparison could not run.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runCompare,
}

func init() {
	addCompareFlags(rootCmd)
	rootCmd.AddCommand(compareCmd, populateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var code exitError
		if errors.As(err, &code) {
			os.Exit(int(code))
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(report.ExitFailed)
	}
}

// exitError carries a non-zero exit status out of a command without a
// message of its own.
type exitError int

func (e exitError) Error() string {
	return fmt.Sprintf("exit status %d", int(e))
}
