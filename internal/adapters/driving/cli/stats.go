package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	if indexStore == nil {
		return errors.New("index not configured")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	stats, err := indexStore.Stats(ctx)
	if err != nil {
		return fmt.Errorf("read index stats: %w", err)
	}

	cmd.Printf("Papers:   %d\n", stats.UniquePapers)
	cmd.Printf("Sections: %d\n", stats.UniqueSections)
	cmd.Printf("Chunks:   %d\n", stats.TotalChunks)
	cmd.Printf("Vectors:  %d\n", stats.VectorCount)
	return nil
}
