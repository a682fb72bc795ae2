package files

import (
	"context"
	"errors"
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragbox/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragbox/internal/core/domain"
)

type mockDocumentService struct {
	files      []domain.FileGroup
	err        error
	collection string
}

func (m *mockDocumentService) List(context.Context, string) ([]domain.Chunk, error) {
	return nil, nil
}

func (m *mockDocumentService) Files(_ context.Context, collection string) ([]domain.FileGroup, error) {
	m.collection = collection
	return m.files, m.err
}

func (m *mockDocumentService) Delete(context.Context, string, []string) ([]domain.DeleteResult, error) {
	return nil, nil
}

func groups(n int) []domain.FileGroup {
	out := make([]domain.FileGroup, n)
	for i := range out {
		out[i] = domain.FileGroup{
			FileName: fmt.Sprintf("file%02d.md", i),
			ChunkIDs: []string{"c1", "c2"},
		}
	}
	return out
}

func openView(t *testing.T, svc *mockDocumentService, collection string) *View {
	t.Helper()
	v := NewView(nil, svc)
	v.SetDimensions(80, 24)
	cmd := v.SetCollection(collection)
	require.NotNil(t, cmd)
	v, _ = v.Update(cmd())
	return v
}

func TestView_LoadsFiles(t *testing.T) {
	svc := &mockDocumentService{files: []domain.FileGroup{
		{FileName: "a.md", ChunkIDs: []string{"c1"}},
		{FileName: "b.md", ChunkIDs: []string{"c2", "c3"}},
	}}
	v := openView(t, svc, "essays")

	assert.Equal(t, "essays", svc.collection)
	assert.Equal(t, "essays", v.Collection())
	assert.Len(t, v.Files(), 2)

	view := v.View()
	assert.Contains(t, view, "Files in essays")
	assert.Contains(t, view, "1 chunk")
	assert.Contains(t, view, "2 chunks")
}

func TestView_Empty(t *testing.T) {
	v := openView(t, &mockDocumentService{}, "essays")
	assert.Contains(t, v.View(), "No files in this collection.")
}

func TestView_Error(t *testing.T) {
	v := openView(t, &mockDocumentService{err: domain.ErrNotFound}, "ghost")

	assert.ErrorIs(t, v.Err(), domain.ErrNotFound)
	assert.Contains(t, v.View(), "Error:")
}

func TestView_NilService(t *testing.T) {
	v := NewView(nil, nil)
	msg := v.SetCollection("essays")()

	loaded, ok := msg.(messages.FilesLoaded)
	require.True(t, ok)
	assert.Equal(t, "essays", loaded.Collection)
	assert.Error(t, loaded.Err)
}

func TestView_IgnoresStaleLoad(t *testing.T) {
	v := openView(t, &mockDocumentService{files: groups(1)}, "essays")

	v, _ = v.Update(messages.FilesLoaded{Collection: "notes", Files: groups(5)})

	assert.Len(t, v.Files(), 1)
}

func TestView_NavigationAndScroll(t *testing.T) {
	v := openView(t, &mockDocumentService{files: groups(30)}, "essays")
	down := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")}
	up := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("k")}

	for i := 0; i < 40; i++ {
		v, _ = v.Update(down)
	}
	assert.Equal(t, 29, v.SelectedIndex())
	view := v.View()
	assert.Contains(t, view, "file29.md")
	assert.NotContains(t, view, "file00.md")
	assert.Contains(t, view, "of 30]")

	for i := 0; i < 40; i++ {
		v, _ = v.Update(up)
	}
	assert.Equal(t, 0, v.SelectedIndex())
	assert.Contains(t, v.View(), "file00.md")
}

func TestView_Keys(t *testing.T) {
	v := openView(t, &mockDocumentService{files: groups(1)}, "essays")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewCollections}, cmd())

	_, cmd = v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, messages.CollectionSelected{Name: "essays", View: messages.ViewChat}, cmd())
}

func TestView_Refresh(t *testing.T) {
	svc := &mockDocumentService{files: groups(1)}
	v := openView(t, svc, "essays")
	svc.files = groups(3)

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	require.NotNil(t, cmd)
	v, _ = v.Update(cmd())

	assert.Len(t, v.Files(), 3)
}

func TestView_SetCollectionResets(t *testing.T) {
	svc := &mockDocumentService{files: groups(3)}
	v := openView(t, svc, "essays")
	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyDown})
	require.Equal(t, 1, v.SelectedIndex())

	svc.err = errors.New("gone")
	cmd := v.SetCollection("notes")
	require.NotNil(t, cmd)
	v, _ = v.Update(cmd())

	assert.Equal(t, 0, v.SelectedIndex())
	assert.Empty(t, v.Files())
	assert.EqualError(t, v.Err(), "gone")
}
