package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/paperag/internal/logger"
)

var chatCmd = &cobra.Command{
	Use:   "chat [paper-id]",
	Short: "Ask questions about an ingested paper",
	Long: `Starts an interactive session over one paper. Each question retrieves
the most relevant section and asks the language model for an answer
grounded in it. The conversation is summarised as it grows so older
turns keep informing later answers.

Type "clear" to forget the conversation and "exit" to leave.`,
	Args: cobra.ExactArgs(1),
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	paperID := args[0]

	if assistantService == nil {
		return errors.New("assistant not configured")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	ingested, err := ingestService.IsIngested(ctx, paperID)
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	if !ingested {
		return fmt.Errorf("paper %s is not indexed; run `paperag ingest %s` first", paperID, paperID)
	}

	// Pick up config edits made while the session is open, so the
	// completion backend can be swapped without restarting.
	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()
	go func() {
		if err := configStore.Watch(watchCtx, llmRegistry.OnConfigChange); err != nil &&
			!errors.Is(err, context.Canceled) {
			logger.Warn("config watch stopped: %v", err)
		}
	}()

	cmd.Printf("Chatting about %s. Type your question, or \"exit\" to leave.\n", paperID)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 64*1024)

	for {
		cmd.Print("> ")
		if !scanner.Scan() {
			cmd.Println()
			return scanner.Err()
		}

		question := strings.TrimSpace(scanner.Text())
		switch question {
		case "":
			continue
		case "exit", "quit":
			return nil
		case "clear":
			dialogueManager.Clear(paperID)
			cmd.Println("Conversation cleared.")
			continue
		}

		answer, err := assistantService.Ask(ctx, paperID, question)
		if err != nil {
			cmd.Printf("Error: %v\n", err)
			continue
		}

		cmd.Println()
		cmd.Println(answer.Content)
		if answer.Found && answer.Section != "" {
			cmd.Printf("\n(from section: %s)\n", answer.Section)
		}
		cmd.Println()
	}
}
