package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ledgerchat/ledgerchat/internal/categorize"
	"github.com/ledgerchat/ledgerchat/internal/conversation"
	"github.com/ledgerchat/ledgerchat/internal/dates"
	"github.com/ledgerchat/ledgerchat/internal/llm"
	"github.com/ledgerchat/ledgerchat/internal/parser"
	"github.com/ledgerchat/ledgerchat/internal/service"
	"github.com/ledgerchat/ledgerchat/internal/storage"
)

// expandPath resolves a leading ~ or $HOME in configured paths.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return os.ExpandEnv(path)
}

func openStore() (service.Store, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "~/.local/share/ledgerchat/ledgerchat.db"
	}
	dbPath = expandPath(dbPath)

	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	return storage.NewSQLiteStore(dbPath)
}

func llmConfig() llm.Config {
	return llm.Config{
		Provider:    viper.GetString("llm.provider"),
		APIKey:      viper.GetString("llm.api_key"),
		SimpleModel: viper.GetString("llm.simple_model"),
		HeavyModel:  viper.GetString("llm.heavy_model"),
		MaxTokens:   viper.GetInt("llm.max_tokens"),
		RateLimit:   viper.GetInt("llm.rate_limit"),
		Timeout:     viper.GetDuration("llm.timeout"),
	}
}

// buildOrchestrator wires the full conversation stack for a command.
func buildOrchestrator(ctx context.Context, status service.StatusReporter) (*conversation.Orchestrator, service.Store, error) {
	cfg := llmConfig()
	if cfg.Provider == "" {
		cfg.Provider = "anthropic"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	client, err := llm.NewClient(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	store, err := openStore()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	categorizer := categorize.NewCategorizer()
	resolver := dates.NewResolver()

	env := conversation.NewEnv(
		store,
		status,
		conversation.NewState(),
		client,
		llm.NewEscalator(client, llm.DefaultEscalation()),
		parser.NewParser(categorizer, resolver),
		resolver,
		categorizer,
	)
	return conversation.NewOrchestrator(env), store, nil
}
