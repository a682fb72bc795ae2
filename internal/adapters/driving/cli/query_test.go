package cli

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragbox/internal/core/domain"
)

func TestQueryCmd_HasSourcesFlag(t *testing.T) {
	flag := queryCmd.Flags().Lookup("sources")
	require.NotNil(t, flag)
	assert.Equal(t, "s", flag.Shorthand)
}

func TestQueryCmd_RequiresQuestion(t *testing.T) {
	_, err := run(t, "", "query", "essays")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 2 arg(s)")
}

func TestQueryCmd_Answers(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	seedCollection(t, "essays", map[string]string{"a.md": "Volcanoes erupt when pressure builds."})

	out := mustRun(t, "query", "essays", "why", "do", "volcanoes", "erupt?")
	assert.Equal(t, "Volcanoes erupt.\n", out)

	out = mustRun(t, "query", "--sources", "essays", "volcanoes")
	assert.Contains(t, out, "Sources:")
	assert.Contains(t, out, "[1] a.md")
}

func TestQueryCmd_JSON(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	seedCollection(t, "essays", map[string]string{"a.md": "Volcanoes erupt when pressure builds."})

	out := mustRun(t, "query", "-o", "json", "essays", "volcanoes", "erupt")

	var view answerView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, "volcanoes erupt", view.Question)
	assert.Equal(t, "Volcanoes erupt.", view.Answer)
	require.Len(t, view.SourceNodes, 1)
	assert.Equal(t, "a.md", view.SourceNodes[0].Metadata[domain.MetaFileName])
	assert.Empty(t, view.Error)
}

func TestQueryCmd_GenerationFailureShowsSources(t *testing.T) {
	svc, cleanup := setupTestServices()
	defer cleanup()
	seedCollection(t, "essays", map[string]string{"a.md": "Volcanoes erupt when pressure builds."})
	svc.generator.err = errors.New("connection refused")

	out, err := run(t, "", "query", "essays", "volcanoes")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrGenerationUnavailable)
	assert.Contains(t, err.Error(), "no answer")
	assert.Contains(t, out, "[1] a.md")
}

func TestQueryCmd_Errors(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	mustRun(t, "collection", "create", "essays")

	_, err := run(t, "", "query", "ghost", "anything")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = run(t, "", "query", "essays", "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
