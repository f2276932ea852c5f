package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rsawant/fieldledger/internal/bot"
	"github.com/rsawant/fieldledger/internal/config"
	"github.com/rsawant/fieldledger/internal/engine"
	"github.com/rsawant/fieldledger/internal/geocode"
	"github.com/rsawant/fieldledger/internal/llm"
	"github.com/rsawant/fieldledger/internal/ratelimit"
	"github.com/rsawant/fieldledger/internal/registry"
	"github.com/rsawant/fieldledger/internal/service"
	"github.com/rsawant/fieldledger/internal/sheets"
	"github.com/spf13/viper"
)

// initRegistry opens the user registration database with proper path expansion.
func initRegistry() (*registry.SQLiteRegistry, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "$HOME/.local/share/fieldledger/registry.db"
	}
	dbPath = config.ExpandPath(dbPath)

	return registry.NewSQLiteRegistry(dbPath)
}

// buildLimiter creates the rate limiter restricted to configured key slots.
func buildLimiter(llmCfg *llm.Config, logger *slog.Logger) *ratelimit.Limiter {
	keys := make([]ratelimit.KeyConfig, 0, len(llmCfg.APIKeys))
	for _, kc := range ratelimit.DefaultKeys() {
		if _, ok := llmCfg.APIKeys[kc.Name]; ok {
			keys = append(keys, kc)
		}
	}
	return ratelimit.NewLimiter(keys, logger)
}

// buildEngine wires the extraction pipeline: provider clients, limiter,
// extractor, engine.
func buildEngine(logger *slog.Logger) (*engine.Engine, *ratelimit.Limiter, error) {
	llmCfg, err := config.LoadLLMConfig()
	if err != nil {
		return nil, nil, err
	}

	clients, err := llm.NewClients(*llmCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create AI clients: %w", err)
	}

	limiter := buildLimiter(llmCfg, logger)
	extractor := llm.NewExtractor(clients, limiter, logger, llmCfg.Timeout)

	opts := engine.DefaultOptions()
	if v := viper.GetInt("engine.max_batch_size"); v > 0 {
		opts.MaxBatchSize = v
	}
	if v := viper.GetInt("engine.max_workers"); v > 0 {
		opts.MaxWorkers = v
	}

	return engine.New(extractor, logger, opts), limiter, nil
}

// buildHandler assembles the full message handler with all collaborators.
func buildHandler(ctx context.Context, logger *slog.Logger) (*bot.Handler, *registry.SQLiteRegistry, error) {
	eng, _, err := buildEngine(logger)
	if err != nil {
		return nil, nil, err
	}

	sheetsCfg, err := config.LoadSheetsConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load sheets config: %w", err)
	}

	store, err := sheets.NewWriter(ctx, *sheetsCfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create sheets store: %w", err)
	}

	reg, err := initRegistry()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open registry: %w", err)
	}

	var geocoder service.Geocoder
	if !viper.IsSet("geocode.enabled") || viper.GetBool("geocode.enabled") {
		geocoder = geocode.NewClient(logger)
	}

	return bot.NewHandler(eng, store, reg, geocoder, logger), reg, nil
}
