package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/paperag/internal/core/domain"
)

var summarizeJSON bool

var summarizeCmd = &cobra.Command{
	Use:   "summarize [paper-id]",
	Short: "Summarise an ingested paper section by section",
	Long: `Groups an indexed paper's chunks by section and generates one summary
per section, in document order. Sections the model cannot summarise
get a placeholder instead of aborting the run.`,
	Args: cobra.ExactArgs(1),
	RunE: runSummarize,
}

func init() {
	summarizeCmd.Flags().BoolVar(&summarizeJSON, "json", false, "output the summary as JSON")
	rootCmd.AddCommand(summarizeCmd)
}

func runSummarize(cmd *cobra.Command, args []string) error {
	paperID := args[0]

	if summarizeService == nil {
		return errors.New("summarizer not configured")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	summary, err := summarizeService.Summarize(ctx, paperID)
	if err != nil {
		if errors.Is(err, domain.ErrPaperNotFound) {
			return fmt.Errorf("paper %s is not indexed; run `paperag ingest %s` first", paperID, paperID)
		}
		return fmt.Errorf("summarize failed: %w", err)
	}

	if summarizeJSON {
		data, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal summary: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	return outputSummaryText(cmd, summary)
}

func outputSummaryText(cmd *cobra.Command, summary *domain.PaperSummary) error {
	cmd.Printf("Summary of %s (%d sections)\n", summary.PaperID, len(summary.Sections))
	cmd.Println()

	for _, sec := range summary.Sections {
		title := sec.Section
		if title == "" {
			title = "(untitled)"
		}
		cmd.Printf("## %s\n", title)
		cmd.Println(sec.Summary)
		cmd.Println()
	}

	if summary.TokensUsed > 0 {
		cmd.Printf("(%d tokens used)\n", summary.TokensUsed)
	}
	return nil
}
