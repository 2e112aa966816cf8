package cli

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/paperag/internal/core/ports/driven"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View and edit the configuration file. Environment variables prefixed
PAPERAG_ override file values at load time.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Long: `Set a configuration value and write it back to the file.

Supported keys:
  embedding.provider   embedding backend (ollama, openai)
  embedding.model      embedding model name
  embedding.endpoint   embedding API endpoint
  embedding.api_key    embedding API key
  llm.provider         completion backend (ollama, openai)
  llm.model            completion model name
  llm.endpoint         completion API endpoint
  llm.api_key          completion API key
  llm.max_tokens       completion token limit
  llm.temperature      sampling temperature
  retrieval.lexical_weight  BM25 share of the hybrid score [0, 1]`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if configStore == nil {
			return errors.New("config store not configured")
		}
		cmd.Println(configStore.Path())
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if cfg == nil {
		return errors.New("config not loaded")
	}

	cmd.Printf("Config file: %s\n", configStore.Path())
	cmd.Printf("Data dir:    %s\n", cfg.DataDir)
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", cfg.Embedding.Provider)
	cmd.Printf("  Model: %s\n", cfg.Embedding.Model)
	if cfg.Embedding.Endpoint != "" {
		cmd.Printf("  Endpoint: %s\n", cfg.Embedding.Endpoint)
	}
	if cfg.Embedding.APIKey != "" {
		cmd.Printf("  API Key: %s\n", maskAPIKey(cfg.Embedding.APIKey))
	}
	cmd.Println()

	cmd.Println("[LLM]")
	cmd.Printf("  Provider: %s\n", cfg.LLM.Provider)
	cmd.Printf("  Model: %s\n", cfg.LLM.Model)
	if cfg.LLM.Endpoint != "" {
		cmd.Printf("  Endpoint: %s\n", cfg.LLM.Endpoint)
	}
	if cfg.LLM.APIKey != "" {
		cmd.Printf("  API Key: %s\n", maskAPIKey(cfg.LLM.APIKey))
	}
	cmd.Printf("  Max tokens: %d\n", cfg.LLM.MaxTokens)
	cmd.Printf("  Temperature: %.2f\n", cfg.LLM.Temperature)
	cmd.Println()

	cmd.Println("[Retrieval]")
	cmd.Printf("  Lexical weight: %.2f\n", cfg.Retrieval.LexicalWeight)
	cmd.Printf("  Candidates: %d\n", cfg.Retrieval.CandidateK)
	cmd.Println()

	cmd.Println("[Chunking]")
	cmd.Printf("  Max section size: %d\n", cfg.Chunking.MaxSectionSize)
	cmd.Printf("  Latex max section size: %d\n", cfg.Chunking.LatexMaxSectionSize)
	cmd.Printf("  Overlap: %d\n", cfg.Chunking.Overlap)

	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if cfg == nil || configStore == nil {
		return errors.New("config not loaded")
	}

	key, value := args[0], args[1]
	if err := applyConfigKey(cfg, key, value); err != nil {
		return err
	}

	if err := configStore.Save(cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	cmd.Printf("Set %s\n", key)
	return nil
}

func applyConfigKey(cfg *driven.Config, key, value string) error {
	switch key {
	case "data_dir":
		cfg.DataDir = value
	case "embedding.provider":
		cfg.Embedding.Provider = value
	case "embedding.model":
		cfg.Embedding.Model = value
	case "embedding.endpoint":
		cfg.Embedding.Endpoint = value
	case "embedding.api_key":
		cfg.Embedding.APIKey = value
	case "llm.provider":
		cfg.LLM.Provider = value
	case "llm.model":
		cfg.LLM.Model = value
	case "llm.endpoint":
		cfg.LLM.Endpoint = value
	case "llm.api_key":
		cfg.LLM.APIKey = value
	case "llm.max_tokens":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid max_tokens %q", value)
		}
		cfg.LLM.MaxTokens = n
	case "llm.temperature":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid temperature %q", value)
		}
		cfg.LLM.Temperature = f
	case "retrieval.lexical_weight":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 || f > 1 {
			return fmt.Errorf("lexical_weight must be a number in [0, 1]")
		}
		cfg.Retrieval.LexicalWeight = f
	case "tasks.retention":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid retention %q", value)
		}
		cfg.Tasks.Retention = d
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}

// maskAPIKey hides all but the last four characters of a key.
func maskAPIKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}
