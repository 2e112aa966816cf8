package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/paperag/internal/core/domain"
)

var (
	queryPaper string
	queryJSON  bool
	queryFull  bool
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Retrieve the most relevant paper passage",
	Long: `Runs hybrid retrieval over the index: BM25 candidates re-ranked by
embedding similarity. Prints the winning chunk, its section and a
short excerpt without invoking the language model.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&queryPaper, "paper", "", "restrict the search to one paper")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output the result as JSON")
	queryCmd.Flags().BoolVar(&queryFull, "full", false, "print the full section context")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if retrieverService == nil {
		return errors.New("retriever not configured")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	result, err := retrieverService.Query(ctx, args[0], domain.QueryOptions{
		PaperID: queryPaper,
	})
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if queryJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	return outputQueryText(cmd, result)
}

func outputQueryText(cmd *cobra.Command, result *domain.QueryResult) error {
	if !result.Found {
		cmd.Println("No relevant passages found.")
		return nil
	}

	best := result.Best
	cmd.Printf("Paper:   %s\n", best.Chunk.PaperID)
	cmd.Printf("Section: %s\n", best.Chunk.Section)
	cmd.Printf("Score:   %.3f (%s", best.Score, best.SearchType)
	if best.SearchType == "hybrid" {
		cmd.Printf("; lexical %.3f, semantic %.3f", best.LexicalScore, best.SemanticScore)
	}
	cmd.Println(")")
	cmd.Println()

	if queryFull {
		cmd.Println(result.Context)
	} else {
		cmd.Println(result.Preview)
	}
	return nil
}
