package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragbox/internal/core/domain"
)

// fakeIngest records Ingest calls.
type fakeIngest struct {
	mu    sync.Mutex
	files []domain.UploadFile
	opts  []domain.IngestOptions
	err   error
}

func (f *fakeIngest) Ingest(_ context.Context, _ string, files []domain.UploadFile, opts domain.IngestOptions) (*domain.IngestResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files = append(f.files, files...)
	f.opts = append(f.opts, opts)
	if f.err != nil {
		return nil, f.err
	}
	result := &domain.IngestResult{}
	for _, file := range files {
		result.Add(domain.FileResult{FileName: file.FileName, Outcome: domain.OutcomeInserted, Chunks: 1})
	}
	return result, nil
}

func (f *fakeIngest) ConfirmUpdates(context.Context, string, []string) (*domain.IngestResult, error) {
	return &domain.IngestResult{}, nil
}

func (f *fakeIngest) Pending(context.Context, string) ([]domain.PendingUpload, error) {
	return nil, nil
}

func (f *fakeIngest) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.files)
}

// startWatcher runs a watcher in the background and returns a channel of
// ingested paths.
func startWatcher(t *testing.T, ingest *fakeIngest, cfg Config) <-chan string {
	t.Helper()
	results := make(chan string, 16)
	cfg.Collection = "notes"
	if cfg.Debounce == 0 {
		cfg.Debounce = 20 * time.Millisecond
	}
	cfg.OnResult = func(path string, _ *domain.IngestResult, _ error) {
		results <- path
	}

	w, err := New(ingest, cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
		assert.NoError(t, w.Close())
	})

	// Give fsnotify a moment to register the tree.
	time.Sleep(50 * time.Millisecond)
	return results
}

func waitFor(t *testing.T, results <-chan string) string {
	t.Helper()
	select {
	case path := <-results:
		return path
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for ingestion")
		return ""
	}
}

func TestNew_Validation(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := New(&fakeIngest{}, Config{Dir: dir})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = New(&fakeIngest{}, Config{Collection: "notes", Dir: filepath.Join(dir, "missing")})
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = New(&fakeIngest{}, Config{Collection: "notes", Dir: file})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	w, err := New(&fakeIngest{}, Config{Collection: "notes", Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, DefaultDebounce, w.cfg.Debounce)
	assert.NoError(t, w.Close())
}

func TestWatcher_IngestsNewFile(t *testing.T) {
	dir := t.TempDir()
	ingest := &fakeIngest{}
	results := startWatcher(t, ingest, Config{Dir: dir})

	path := filepath.Join(dir, "a.md")
	require.NoError(t, os.WriteFile(path, []byte("# Volcanoes"), 0o644))

	assert.Equal(t, path, waitFor(t, results))
	ingest.mu.Lock()
	defer ingest.mu.Unlock()
	require.Len(t, ingest.files, 1)
	assert.Equal(t, "a.md", ingest.files[0].FileName)
	assert.Equal(t, []byte("# Volcanoes"), ingest.files[0].Content)
	assert.False(t, ingest.files[0].ModifiedAt.IsZero())
	assert.Empty(t, ingest.opts[0].Confirm)
}

func TestWatcher_NamesFilesRelativeToRoot(t *testing.T) {
	dir := t.TempDir()
	ingest := &fakeIngest{}
	results := startWatcher(t, ingest, Config{Dir: dir})

	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(sub, "a.md"), []byte("nested"), 0o644))

	waitFor(t, results)
	ingest.mu.Lock()
	defer ingest.mu.Unlock()
	assert.Equal(t, "sub/a.md", ingest.files[0].FileName)
}

func TestWatcher_DebouncesBurstOfWrites(t *testing.T) {
	dir := t.TempDir()
	ingest := &fakeIngest{}
	results := startWatcher(t, ingest, Config{Dir: dir, Debounce: 150 * time.Millisecond})

	path := filepath.Join(dir, "a.txt")
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte{byte('a' + i)}, 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	waitFor(t, results)
	select {
	case <-results:
		t.Fatal("burst of writes was ingested more than once")
	case <-time.After(300 * time.Millisecond):
	}
	ingest.mu.Lock()
	defer ingest.mu.Unlock()
	assert.Equal(t, []byte("c"), ingest.files[0].Content)
}

func TestWatcher_AutoConfirm(t *testing.T) {
	dir := t.TempDir()
	ingest := &fakeIngest{}
	results := startWatcher(t, ingest, Config{Dir: dir, AutoConfirm: true})

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o644))

	waitFor(t, results)
	ingest.mu.Lock()
	defer ingest.mu.Unlock()
	assert.Equal(t, []string{"a.txt"}, ingest.opts[0].Confirm)
}

func TestWatcher_InitialScanSkipsHidden(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".secret"), []byte("s"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".git", "config"), []byte("c"), 0o644))

	ingest := &fakeIngest{}
	results := startWatcher(t, ingest, Config{Dir: dir, InitialScan: true})

	assert.Equal(t, filepath.Join(dir, "a.txt"), waitFor(t, results))
	assert.Equal(t, 1, ingest.calls())
}

func TestWatcher_IngestErrorIsReported(t *testing.T) {
	dir := t.TempDir()
	ingest := &fakeIngest{err: domain.ErrNotFound}

	var mu sync.Mutex
	var got error
	done := make(chan struct{})
	w, err := New(ingest, Config{
		Collection: "gone",
		Dir:        dir,
		OnResult: func(_ string, _ *domain.IngestResult, err error) {
			mu.Lock()
			got = err
			mu.Unlock()
			close(done)
		},
	})
	require.NoError(t, err)
	defer w.Close()

	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	w.ingestFile(context.Background(), path)

	<-done
	mu.Lock()
	defer mu.Unlock()
	assert.ErrorIs(t, got, domain.ErrNotFound)
}

func TestWatcher_RunAfterClose(t *testing.T) {
	w, err := New(&fakeIngest{}, Config{Collection: "notes", Dir: t.TempDir()})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	assert.True(t, errors.Is(w.Run(context.Background()), ErrClosed))
}

func TestHandleFsEvent(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	hidden := filepath.Join(dir, ".hidden.txt")
	require.NoError(t, os.WriteFile(hidden, []byte("x"), 0o644))
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))

	w, err := New(&fakeIngest{}, Config{Collection: "notes", Dir: dir})
	require.NoError(t, err)
	defer w.Close()

	tests := []struct {
		name   string
		path   string
		op     fsnotify.Op
		expect bool
	}{
		{"create file", file, fsnotify.Create, true},
		{"write file", file, fsnotify.Write, true},
		{"write and chmod", file, fsnotify.Write | fsnotify.Chmod, true},
		{"chmod only", file, fsnotify.Chmod, false},
		{"remove", filepath.Join(dir, "gone.txt"), fsnotify.Remove, false},
		{"rename", filepath.Join(dir, "gone.txt"), fsnotify.Rename, false},
		{"hidden file", hidden, fsnotify.Create, false},
		{"directory", sub, fsnotify.Create, false},
		{"vanished before stat", filepath.Join(dir, "tmp.txt"), fsnotify.Create, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, ok := w.handleFsEvent(fsnotify.Event{Name: tt.path, Op: tt.op})
			assert.Equal(t, tt.expect, ok)
			if tt.expect {
				assert.Equal(t, tt.path, path)
			}
		})
	}
}

func TestIsHidden(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{".hidden", true},
		{"path/to/.hidden", true},
		{"dir/.git/config", true},
		{"file.txt", false},
		{"path/to/file.txt", false},
		{".", false},
		{"..", false},
		{"path/../file", false},
		{"", false},
		{"file.hidden", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, isHidden(tt.path))
		})
	}
}

func TestWatcher_RootInsideDotDirectory(t *testing.T) {
	root := filepath.Join(t.TempDir(), ".config", "docs")
	require.NoError(t, os.MkdirAll(root, 0o755))
	file := filepath.Join(root, "a.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	w, err := New(&fakeIngest{}, Config{Collection: "notes", Dir: root})
	require.NoError(t, err)
	defer w.Close()

	_, ok := w.handleFsEvent(fsnotify.Event{Name: file, Op: fsnotify.Create})
	assert.True(t, ok)
}
