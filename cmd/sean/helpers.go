package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lorenco/sean/internal/allocation"
	"github.com/lorenco/sean/internal/common"
	"github.com/lorenco/sean/internal/config"
	"github.com/lorenco/sean/internal/llm"
	"github.com/lorenco/sean/internal/service"
	"github.com/lorenco/sean/internal/storage"
	"github.com/spf13/viper"
)

// initStorage initializes the storage service with proper path expansion.
func initStorage(ctx context.Context) (service.Storage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "$HOME/.local/share/sean/sean.db"
	}

	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, common.NewUserError("failed to open database at "+dbPath, err)
	}

	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// initLLMClient builds the configured completion client, or nil when no
// API key is set. Most commands treat a missing provider as degraded
// operation, not an error.
func initLLMClient() service.CompletionClient {
	apiKey := viper.GetString("llm.api_key")
	if apiKey == "" {
		return nil
	}

	provider := viper.GetString("llm.provider")
	if provider == "" {
		provider = "claude"
	}

	client, err := llm.NewResilientClient(llm.Config{
		Provider: provider,
		APIKey:   apiKey,
		Model:    viper.GetString("llm.model"),
	})
	if err != nil {
		slog.Warn("failed to create LLM client, continuing without it", "error", err)
		return nil
	}
	return client
}

// newAllocationEngine wires the full allocation pipeline.
func newAllocationEngine(store service.Storage) *allocation.Engine {
	suggester := allocation.NewSuggester(store)
	learner := allocation.NewLearner(store, slog.Default())
	fallback := allocation.NewFallback(store, initLLMClient(), slog.Default())
	return allocation.NewEngine(store, suggester, learner, fallback, slog.Default())
}
