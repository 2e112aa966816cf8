// Package cli wires the core services to a cobra command tree. It is
// the only driving adapter; commands talk to the core through the
// driving ports and never reach into driven adapters directly.
package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/paperag/internal/adapters/driven/config/file"
	ollamaembed "github.com/custodia-labs/paperag/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/paperag/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/paperag/internal/adapters/driven/index"
	ollamallm "github.com/custodia-labs/paperag/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/paperag/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/paperag/internal/adapters/driven/source/arxiv"
	"github.com/custodia-labs/paperag/internal/chunker"
	"github.com/custodia-labs/paperag/internal/core/domain"
	"github.com/custodia-labs/paperag/internal/core/ports/driven"
	"github.com/custodia-labs/paperag/internal/core/ports/driving"
	"github.com/custodia-labs/paperag/internal/core/services"
	"github.com/custodia-labs/paperag/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var verbose bool

// Services shared by the commands. Populated by initServices before
// any command that needs them runs.
var (
	configStore driven.ConfigStore
	cfg         *driven.Config
	indexStore  driven.IndexStore
	llmRegistry *services.LLMRegistry

	ingestService    driving.Ingestor
	retrieverService driving.Retriever
	taskQueue        driving.TaskQueue
	dialogueManager  driving.DialogueManager
	assistantService driving.Assistant
	summarizeService driving.Summarizer
)

var rootCmd = &cobra.Command{
	Use:   "paperag",
	Short: "Question answering over scientific papers",
	Long: `paperag ingests arXiv papers into a local hybrid index and answers
questions about them, grounded in the retrieved paper text.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.SetVerbose(verbose)
		if skipServices(cmd) {
			return nil
		}
		return initServices()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// skipServices reports whether the command runs without the service
// graph. Building the index store just to print a version string
// would create data directories as a side effect.
func skipServices(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "version", "help", "completion":
		return true
	}
	return false
}

// initServices builds the full dependency graph from configuration.
func initServices() error {
	store, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("open config store: %w", err)
	}
	configStore = store

	cfg, err = configStore.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	idx, err := index.NewStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open index: %w", err)
	}
	indexStore = idx

	embedder, err := newEmbedder(cfg.Embedding)
	if err != nil {
		return fmt.Errorf("configure embedding backend: %w", err)
	}

	llmRegistry = services.NewLLMRegistry(newLLM)
	if err := llmRegistry.Configure(cfg.LLM); err != nil {
		return fmt.Errorf("configure llm backend: %w", err)
	}

	prompts, err := file.NewPromptStore("")
	if err != nil {
		return fmt.Errorf("open prompt store: %w", err)
	}

	source := arxiv.NewSource(arxiv.Config{
		Timeout:       cfg.Source.Timeout,
		RatePerSecond: cfg.Source.RatePerSecond,
		CacheDir:      cfg.Source.CacheDir,
	})

	ch := chunker.New(
		chunker.WithMaxSectionSize(cfg.Chunking.MaxSectionSize),
		chunker.WithLatexMaxSectionSize(cfg.Chunking.LatexMaxSectionSize),
		chunker.WithOverlap(cfg.Chunking.Overlap),
	)

	ingestService = services.NewIngestService(source, indexStore, embedder, ch)
	retrieverService = services.NewRetrieverService(indexStore, embedder, cfg.Retrieval)
	dialogueManager = services.NewDialogueService(0)
	assistantService = services.NewAssistantService(
		retrieverService, llmRegistry, dialogueManager, prompts, cfg.LLM)
	summarizeService = services.NewSummarizeService(indexStore, llmRegistry, prompts)

	taskQueue = services.NewTaskQueue(ingestService, 0, services.TaskEvents{
		OnProgress: func(t domain.IngestTask) {
			logger.Debug("task %s: %s (%d%%)", t.PaperID, t.Stage, t.Progress)
		},
	})
	taskQueue.Cleanup(cfg.Tasks.Retention)

	return nil
}

// newEmbedder builds the embedding backend named by the config.
func newEmbedder(cfg driven.EmbeddingConfig) (driven.EmbeddingService, error) {
	switch cfg.Provider {
	case "openai":
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.Endpoint,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		})
	default:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL: cfg.Endpoint,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		}), nil
	}
}

// newLLM is the factory handed to the registry; it is also invoked on
// config reloads to hot-swap the completion backend.
func newLLM(cfg driven.LLMConfig) (driven.LLMService, error) {
	switch cfg.Provider {
	case "openai":
		return openaillm.NewLLMService(openaillm.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.Endpoint,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		})
	default:
		return ollamallm.NewLLMService(ollamallm.Config{
			Endpoint: cfg.Endpoint,
			Model:    cfg.Model,
			Timeout:  cfg.Timeout,
		}), nil
	}
}

// closeServices drains the worker and releases storage.
func closeServices() {
	if taskQueue != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := taskQueue.Stop(ctx); err != nil {
			logger.Warn("task queue shutdown: %v", err)
		}
		cancel()
	}
	if llmRegistry != nil {
		if err := llmRegistry.Close(); err != nil {
			logger.Warn("close llm backend: %v", err)
		}
	}
	if indexStore != nil {
		if err := indexStore.Close(); err != nil {
			logger.Warn("close index: %v", err)
		}
	}
}

// Execute runs the root command.
func Execute() {
	err := rootCmd.Execute()
	closeServices()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
