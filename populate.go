package main

import (
	"fmt"
	"math/rand"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/mudrockdev/mudrockdivergence/populator"
)

var (
	populateSource      string
	populateDestination string
	populateRandom      int
	populateSeed        int64
)

var populateCmd = &cobra.Command{
	Use:   "populate",
	Short: "Write a pair of SQLite databases to compare",
	Long: `Write a source and a destination SQLite database. By default the pair
differs in a handful of typical ways. With --random the same random schema
is written to both files.`,
	Args: cobra.NoArgs,
	RunE: runPopulate,
}

func init() {
	populateCmd.Flags().StringVar(&populateSource, "source", "source.db", "Source database file")
	populateCmd.Flags().StringVar(&populateDestination, "destination", "destination.db", "Destination database file")
	populateCmd.Flags().IntVar(&populateRandom, "random", 0, "Number of random tables written to both files")
	populateCmd.Flags().Int64Var(&populateSeed, "seed", 1, "Seed for --random")
}

func runPopulate(cmd *cobra.Command, _ []string) error {
	source, destination := populator.DemoPair()
	if populateRandom > 0 {
		source = populator.Random(rand.New(rand.NewSource(populateSeed)), populateRandom)
		destination = source
	}

	if err := populator.Create(cmd.Context(), populateSource, source); err != nil {
		return errors.Wrap(err, "populate source")
	}
	if err := populator.Create(cmd.Context(), populateDestination, destination); err != nil {
		return errors.Wrap(err, "populate destination")
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d tables) and %s (%d tables)\n",
		populateSource, len(source), populateDestination, len(destination))
	return nil
}
