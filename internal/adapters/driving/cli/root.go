// Package cli provides the ragbox command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragbox/internal/core/domain"
	"github.com/custodia-labs/ragbox/internal/core/ports/driving"
	"github.com/custodia-labs/ragbox/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services wired by main.
var (
	collectionService driving.CollectionService
	ingestService     driving.IngestService
	documentService   driving.DocumentService
	queryService      driving.QueryService
	settingsService   driving.SettingsService

	llmPing   func(ctx context.Context) error
	storePing func(ctx context.Context) error

	serverSettings domain.ServerSettings
)

// Services holds everything the commands need.
type Services struct {
	Collections driving.CollectionService
	Ingest      driving.IngestService
	Documents   driving.DocumentService
	Query       driving.QueryService
	Settings    driving.SettingsService

	// LLMPing and StorePing back the health endpoint of 'serve'. Optional.
	LLMPing   func(ctx context.Context) error
	StorePing func(ctx context.Context) error

	// Server is the default listen address for 'serve'.
	Server domain.ServerSettings
}

// SetServices injects the services used by all commands.
func SetServices(s *Services) {
	collectionService = s.Collections
	ingestService = s.Ingest
	documentService = s.Documents
	queryService = s.Query
	settingsService = s.Settings
	llmPing = s.LLMPing
	storePing = s.StorePing
	serverSettings = s.Server
}

// SetVersion sets the version reported by 'ragbox version'.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Global flags.
var (
	verbose      bool
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "ragbox",
	Short: "Ask questions about your own documents",
	Long: `ragbox keeps documents in named collections and answers questions
from them with a language model.

Uploading a file that is already in a collection with different content
asks before replacing it; identical files are skipped.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		return validateOutputFormat(outputFormat)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug logs")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", formatTable,
		"output format: table, json or yaml")
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// errNotConfigured reports a service main did not wire.
func errNotConfigured(name string) error {
	return fmt.Errorf("%s service not configured", name)
}

// describeError turns domain errors into short CLI hints.
func describeError(err error) error {
	switch {
	case errors.Is(err, domain.ErrStoreUnavailable):
		return fmt.Errorf("%w (check the store settings with 'ragbox settings')", err)
	case errors.Is(err, domain.ErrGenerationTimeout):
		return fmt.Errorf("%w (the model did not answer in time)", err)
	case errors.Is(err, domain.ErrGenerationUnavailable):
		return fmt.Errorf("%w (check the LLM settings with 'ragbox settings')", err)
	default:
		return err
	}
}
