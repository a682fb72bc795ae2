// Command ragbox keeps documents in named collections and answers questions
// from them.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/ragbox/internal/adapters/driven/ai"
	"github.com/custodia-labs/ragbox/internal/adapters/driven/config/file"
	"github.com/custodia-labs/ragbox/internal/adapters/driven/storage"
	"github.com/custodia-labs/ragbox/internal/adapters/driving/cli"
	"github.com/custodia-labs/ragbox/internal/core/domain"
	"github.com/custodia-labs/ragbox/internal/core/services"
	"github.com/custodia-labs/ragbox/internal/logger"
	"github.com/custodia-labs/ragbox/internal/normalisers"
	"github.com/custodia-labs/ragbox/internal/postprocessors"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	if err := file.LoadDotEnv(); err != nil {
		logger.Warn("loading .env: %v", err)
	}

	configStore, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}
	configStore.Override(file.EnvOverrides(os.Getenv))

	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}

	prompts, err := file.NewPromptStore("")
	if err != nil {
		return fmt.Errorf("opening prompts: %w", err)
	}

	aiServices := ai.Init(settings, prompts)
	defer aiServices.Close()

	stores, err := storage.Open(settings.Store, aiServices.EmbeddingService)
	if err != nil {
		return fmt.Errorf("opening %s store: %w", settings.Store.Backend, err)
	}
	defer func() {
		if err := stores.Close(); err != nil {
			logger.Warn("closing store: %v", err)
		}
	}()
	logger.Debug("Using %s store at %s", stores.Backend, stores.Location)

	registry := normalisers.NewRegistry()
	normalisers.RegisterDefaults(registry)

	processors := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(processors)
	pipeline, err := processors.BuildPipeline(settingsService.GetPipelineConfig())
	if err != nil {
		return fmt.Errorf("building pipeline: %w", err)
	}

	locks := services.NewLockArena()
	llm := aiServices.LLMService

	cli.SetServices(&cli.Services{
		Collections: services.NewCollectionService(stores.Collections, stores.Documents, stores.Pending, locks),
		Ingest: services.NewIngestService(stores.Collections, stores.Documents, stores.Pending,
			registry, pipeline, locks, settings.Store.Timeout),
		Documents: services.NewDocumentService(stores.Collections, stores.Documents, locks),
		Query: services.NewQueryService(stores.Collections, stores.Documents,
			aiServices.Generator, locks, settings.Query.TopK),
		Settings: settingsService,
		LLMPing: func(ctx context.Context) error {
			if llm == nil {
				return domain.ErrLLMUnavailable
			}
			return llm.Ping(ctx)
		},
		StorePing: stores.Ping,
		Server:    settings.Server,
	})
	cli.SetVersion(version)

	return cli.Execute(ctx)
}
