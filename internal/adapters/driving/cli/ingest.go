package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/paperag/internal/core/domain"
)

var ingestURL string

var ingestCmd = &cobra.Command{
	Use:   "ingest [paper-id]",
	Short: "Download and index a paper",
	Long: `Fetches a paper by its arXiv identifier, extracts the text, splits it
into section-aware chunks and indexes them for retrieval. Papers that
are already indexed are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestURL, "url", "", "fetch from this locator instead of the arXiv id")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	paperID := args[0]

	if taskQueue == nil {
		return errors.New("task queue not configured")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	task, err := taskQueue.Enqueue(ctx, paperID, ingestURL)
	if err != nil {
		return fmt.Errorf("enqueue ingestion: %w", err)
	}

	cmd.Printf("Ingesting %s...\n", paperID)

	task, err = waitForTask(ctx, cmd, task.ID)
	if err != nil {
		return err
	}

	switch task.Status {
	case domain.TaskCompleted:
		if task.Cached {
			cmd.Printf("Already indexed, nothing to do.\n")
			return nil
		}
		cmd.Printf("Done.\n")
		return nil
	case domain.TaskError:
		return fmt.Errorf("ingestion failed at %s: %s", task.Stage, task.Error)
	default:
		return fmt.Errorf("ingestion ended in unexpected state %q", task.Status)
	}
}

// waitForTask polls the queue until the task reaches a terminal
// state, echoing stage transitions as they happen.
func waitForTask(ctx context.Context, cmd *cobra.Command, taskID string) (*domain.IngestTask, error) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	lastStage := ""
	for {
		task, ok := taskQueue.Get(taskID)
		if !ok {
			return nil, fmt.Errorf("task %s disappeared from the queue", taskID)
		}
		if task.Stage != lastStage && !task.Status.Terminal() {
			cmd.Printf("  %s (%d%%)\n", task.Stage, task.Progress)
			lastStage = task.Stage
		}
		if task.Status.Terminal() {
			return task, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
