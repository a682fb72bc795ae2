package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestUploadCmd_RequiresCollectionAndFile(t *testing.T) {
	_, err := run(t, "", "upload", "essays")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 2 arg(s)")
}

func TestUploadCmd_HasYesFlag(t *testing.T) {
	flag := uploadCmd.Flags().Lookup("yes")
	require.NotNil(t, flag)
	assert.Equal(t, "y", flag.Shorthand)
	assert.Equal(t, "false", flag.DefValue)
}

func TestUploadCmd_ChangeAwareFlow(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	mustRun(t, "collection", "create", "essays")

	dir := t.TempDir()
	path := writeFile(t, dir, "a.md", "# Volcanoes\n\nVolcanoes erupt when pressure builds.")

	out := mustRun(t, "upload", "essays", path)
	assert.Contains(t, out, "inserted")
	assert.Contains(t, out, "Successfully processed files: added 1")

	out = mustRun(t, "upload", "essays", path)
	assert.Contains(t, out, "unchanged")

	writeFile(t, dir, "a.md", "# Glaciers\n\nGlaciers carve valleys.")
	out = mustRun(t, "upload", "essays", path)
	assert.Contains(t, out, "needs_confirmation")
	assert.Contains(t, out, "The following files already exist: a.md. Do you want to update them?")
	assert.Contains(t, out, "Run 'ragbox update essays a.md'")

	out = mustRun(t, "pending", "essays")
	assert.Contains(t, out, "a.md")

	out = mustRun(t, "update", "essays", "a.md")
	assert.Contains(t, out, "updated")

	out = mustRun(t, "pending", "essays")
	assert.Contains(t, out, "No uploads waiting for confirmation.")

	out = mustRun(t, "document", "list", "essays", "-o", "json")
	assert.Contains(t, out, "Glaciers")
	assert.NotContains(t, out, "Volcanoes")
}

func TestUploadCmd_YesReplacesWithoutStaging(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	mustRun(t, "collection", "create", "essays")

	dir := t.TempDir()
	path := writeFile(t, dir, "a.md", "first version")
	mustRun(t, "upload", "essays", path)

	writeFile(t, dir, "a.md", "second version")
	out := mustRun(t, "upload", "--yes", "essays", path)
	assert.Contains(t, out, "Successfully processed files: updated 1")

	out = mustRun(t, "pending", "essays")
	assert.Contains(t, out, "No uploads waiting for confirmation.")
}

func TestUploadCmd_InteractiveConfirm(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	isTerminal = func() bool { return true }
	mustRun(t, "collection", "create", "essays")

	dir := t.TempDir()
	path := writeFile(t, dir, "a.md", "first version")
	mustRun(t, "upload", "essays", path)
	writeFile(t, dir, "a.md", "second version")

	out, err := run(t, "n\n", "upload", "essays", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Left unchanged. Run 'ragbox update essays a.md' to apply later.")

	out, err = run(t, "y\n", "upload", "essays", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Successfully processed files: updated 1")
}

func TestUploadCmd_InteractiveConfirmKeepsOtherOutcomes(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	isTerminal = func() bool { return true }
	mustRun(t, "collection", "create", "essays")

	dir := t.TempDir()
	changed := writeFile(t, dir, "a.md", "first version")
	same := writeFile(t, dir, "b.md", "steady")
	mustRun(t, "upload", "essays", changed, same)
	writeFile(t, dir, "a.md", "second version")
	fresh := writeFile(t, dir, "c.md", "brand new")

	out, err := run(t, "y\n", "upload", "essays", changed, same, fresh)
	require.NoError(t, err)
	assert.Contains(t, out, "Successfully processed files: added 1, updated 1, 1 unchanged")
}

func TestUploadCmd_JSONOutput(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	mustRun(t, "collection", "create", "essays")

	path := writeFile(t, t.TempDir(), "a.txt", "hello world")
	out := mustRun(t, "upload", "-o", "json", "essays", path)

	var view ingestView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, "Successfully processed files: added 1", view.Message)
	require.Len(t, view.Results, 1)
	assert.Equal(t, "a.txt", view.Results[0].FileName)
	assert.Empty(t, view.FilesToUpdate)
}

func TestUploadCmd_FailedFileExitsNonZero(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	mustRun(t, "collection", "create", "essays")

	dir := t.TempDir()
	good := writeFile(t, dir, "a.txt", "hello")
	empty := writeFile(t, dir, "empty.txt", "")

	out, err := run(t, "", "upload", "essays", good, empty)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 files failed")
	assert.Contains(t, out, "failed")
}

func TestUploadCmd_UnknownCollection(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	path := writeFile(t, t.TempDir(), "a.txt", "hello")
	_, err := run(t, "", "upload", "ghost", path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to upload")
}

func TestUploadCmd_RejectsDirectoryAndMissingFile(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	mustRun(t, "collection", "create", "essays")
	dir := t.TempDir()

	_, err := run(t, "", "upload", "essays", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is a directory")

	_, err = run(t, "", "upload", "essays", filepath.Join(dir, "missing.txt"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestUpdateCmd_WithoutPendingUpload(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	mustRun(t, "collection", "create", "essays")

	out := mustRun(t, "update", "essays", "ghost.md")

	assert.Contains(t, out, "skipped")
	assert.Contains(t, out, "no pending update")
}

func TestReadUploads_UsesBaseName(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	path := writeFile(t, filepath.Join(dir, "sub"), "notes.md", "x")

	files, err := readUploads([]string{path})

	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "notes.md", files[0].FileName)
	assert.Equal(t, path, files[0].Path)
	assert.Equal(t, []byte("x"), files[0].Content)
}
