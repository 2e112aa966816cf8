package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status [paper-id]",
	Short: "Show ingestion status",
	Long: `With a paper id, reports whether that paper is indexed and the state
of its most recent ingestion task. Without arguments, lists all
ingestion tasks known to this session, newest first.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	if taskQueue == nil {
		return errors.New("task queue not configured")
	}

	if len(args) == 1 {
		return paperStatus(cmd, args[0])
	}

	tasks := taskQueue.List()
	if len(tasks) == 0 {
		cmd.Println("No ingestion tasks.")
		return nil
	}

	for _, t := range tasks {
		line := fmt.Sprintf("%s  %-10s  %s", t.QueuedAt.Format("2006-01-02 15:04:05"), t.Status, t.PaperID)
		if t.Error != "" {
			line += "  (" + t.Error + ")"
		}
		cmd.Println(line)
	}
	return nil
}

func paperStatus(cmd *cobra.Command, paperID string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	ingested, err := ingestService.IsIngested(ctx, paperID)
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}

	if ingested {
		cmd.Printf("%s: indexed\n", paperID)
	} else {
		cmd.Printf("%s: not indexed\n", paperID)
	}

	if task, ok := taskQueue.GetByPaper(paperID); ok {
		cmd.Printf("Last task: %s, stage %s (%d%%)\n", task.Status, task.Stage, task.Progress)
		if task.Error != "" {
			cmd.Printf("Error: %s\n", task.Error)
		}
	}
	return nil
}
