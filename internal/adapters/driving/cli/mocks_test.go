package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragbox/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragbox/internal/core/domain"
	"github.com/custodia-labs/ragbox/internal/core/services"
	"github.com/custodia-labs/ragbox/internal/normalisers"
	"github.com/custodia-labs/ragbox/internal/postprocessors"
	"github.com/custodia-labs/ragbox/internal/postprocessors/chunker"
)

// stubGenerator answers with a fixed string or error.
type stubGenerator struct {
	answer string
	err    error
}

func (g *stubGenerator) Generate(_ context.Context, req domain.GenerateRequest) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	if req.NoContext {
		return "Nothing in the collection covers that.", nil
	}
	return g.answer, nil
}

type testServices struct {
	generator *stubGenerator
	settings  *services.SettingsService
}

// setupTestServices wires real services over in-memory stores and resets
// the global flag state. The returned function restores the previous state.
func setupTestServices() (*testServices, func()) {
	registry := normalisers.NewRegistry()
	normalisers.RegisterDefaults(registry)
	pipeline := postprocessors.NewPipeline(chunker.New(chunker.WithChunkSize(200), chunker.WithOverlap(0)))

	collections := memory.NewCollectionStore()
	docs := memory.NewDocumentStore()
	pending := memory.NewPendingStore()
	locks := services.NewLockArena()
	gen := &stubGenerator{answer: "Volcanoes erupt."}
	settings := services.NewSettingsService(memory.NewConfigStore(), nil)

	SetServices(&Services{
		Collections: services.NewCollectionService(collections, docs, pending, locks),
		Ingest:      services.NewIngestService(collections, docs, pending, registry, pipeline, locks, 0),
		Documents:   services.NewDocumentService(collections, docs, locks),
		Query:       services.NewQueryService(collections, docs, gen, locks, 3),
		Settings:    settings,
		Server:      domain.ServerSettings{Host: "127.0.0.1", Port: 8000},
	})

	prevTerminal := isTerminal
	isTerminal = func() bool { return false }
	resetFlags()

	return &testServices{generator: gen, settings: settings}, func() {
		SetServices(&Services{})
		isTerminal = prevTerminal
		resetFlags()
	}
}

// resetFlags clears flag values left over from a previous Execute.
func resetFlags() {
	outputFormat = formatTable
	verbose = false
	uploadYes = false
	querySources = false
	mcpPort = 0
}

// run executes the root command with args and stdin and returns its output.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		resetFlags()
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

// mustRun is run that fails the test on error.
func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, "", args...)
	require.NoError(t, err, out)
	return out
}
