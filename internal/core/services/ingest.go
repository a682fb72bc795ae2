package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/custodia-labs/ragbox/internal/core/domain"
	"github.com/custodia-labs/ragbox/internal/core/ports/driven"
	"github.com/custodia-labs/ragbox/internal/core/ports/driving"
	"github.com/custodia-labs/ragbox/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// DefaultStoreTimeout bounds store writes that run detached from the caller.
const DefaultStoreTimeout = 30 * time.Second

// dateLayout formats the creation and modification dates in chunk metadata.
const dateLayout = "2006-01-02"

var errNoText = errors.New("no extractable text")

// IngestService reconciles upload batches against a collection.
type IngestService struct {
	collections  driven.CollectionStore
	docStore     driven.DocumentStore
	pending      driven.PendingStore
	registry     driven.NormaliserRegistry
	pipeline     driven.PostProcessorPipeline
	locks        *LockArena
	storeTimeout time.Duration
	now          func() time.Time
}

// NewIngestService creates a new ingestion service.
// A zero storeTimeout selects DefaultStoreTimeout.
func NewIngestService(
	collections driven.CollectionStore,
	docStore driven.DocumentStore,
	pending driven.PendingStore,
	registry driven.NormaliserRegistry,
	pipeline driven.PostProcessorPipeline,
	locks *LockArena,
	storeTimeout time.Duration,
) *IngestService {
	if locks == nil {
		locks = NewLockArena()
	}
	if storeTimeout <= 0 {
		storeTimeout = DefaultStoreTimeout
	}
	return &IngestService{
		collections:  collections,
		docStore:     docStore,
		pending:      pending,
		registry:     registry,
		pipeline:     pipeline,
		locks:        locks,
		storeTimeout: storeTimeout,
		now:          time.Now,
	}
}

// Ingest classifies every file of the batch as new, unchanged or changed.
// New files are inserted, unchanged files skipped, and changed files either
// replaced (when confirmed in opts) or staged for confirmation. New files are
// inserted even when other files of the batch need confirmation.
func (s *IngestService) Ingest(
	ctx context.Context,
	collection string,
	files []domain.UploadFile,
	opts domain.IngestOptions,
) (*domain.IngestResult, error) {
	c, unlock, err := s.locks.LockCollection(ctx, s.collections, collection)
	if err != nil {
		return nil, err
	}
	defer unlock()

	result := &domain.IngestResult{}
	batch := make(map[string]string) // file name -> fingerprint of first occurrence

	for i := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		f := files[i]
		f.FileName = cleanFileName(f.FileName)
		if f.FileName == "" {
			result.Add(domain.FileResult{FileName: files[i].FileName, Outcome: domain.OutcomeFailed, Reason: "missing file name"})
			continue
		}

		fr := s.reconcile(ctx, c, f, opts, batch)
		logger.Debug("Ingest %s/%s: %s %s", c.Name, fr.FileName, fr.Outcome, fr.Reason)
		result.Add(fr)
	}

	logger.Info("Ingest into %q: %s", c.Name, result.Message())
	return result, nil
}

// reconcile decides and applies the outcome for one file.
func (s *IngestService) reconcile(
	ctx context.Context,
	c *domain.Collection,
	f domain.UploadFile,
	opts domain.IngestOptions,
	batch map[string]string,
) domain.FileResult {
	fingerprint := Fingerprint(f.Content)
	fr := domain.FileResult{FileName: f.FileName}

	// A repeated name is compared with its first occurrence in the batch.
	if first, ok := batch[f.FileName]; ok {
		if first == fingerprint {
			fr.Outcome = domain.OutcomeUnchanged
			return fr
		}
		existing, err := s.docStore.List(ctx, c.Handle, domain.ChunkFilter{FileNames: []string{f.FileName}})
		if err != nil {
			return failed(fr, fmt.Errorf("list stored chunks: %w", err))
		}
		return s.changed(ctx, c, f, fingerprint, existing, opts)
	}

	existing, err := s.docStore.List(ctx, c.Handle, domain.ChunkFilter{FileNames: []string{f.FileName}})
	if err != nil {
		return failed(fr, fmt.Errorf("list stored chunks: %w", err))
	}

	switch {
	case len(existing) == 0:
		fr = s.insert(ctx, c, f, fingerprint)
	case storedFingerprint(existing) == fingerprint:
		fr.Outcome = domain.OutcomeUnchanged
	default:
		fr = s.changed(ctx, c, f, fingerprint, existing, opts)
	}

	if fr.Outcome != domain.OutcomeFailed {
		batch[f.FileName] = fingerprint
	}
	return fr
}

// insert derives and stores the chunks of a new file.
func (s *IngestService) insert(ctx context.Context, c *domain.Collection, f domain.UploadFile, fingerprint string) domain.FileResult {
	fr := domain.FileResult{FileName: f.FileName}

	chunks, err := s.deriveChunks(ctx, c.Handle, f, fingerprint)
	if err != nil {
		return failed(fr, err)
	}

	wctx, cancel := s.detached(ctx)
	defer cancel()

	if err := s.docStore.Put(wctx, c.Handle, chunks); err != nil {
		return failed(fr, fmt.Errorf("store chunks: %w", err))
	}

	fr.Outcome = domain.OutcomeInserted
	fr.Chunks = len(chunks)
	return fr
}

// changed either replaces a confirmed file or stages it for confirmation.
func (s *IngestService) changed(
	ctx context.Context,
	c *domain.Collection,
	f domain.UploadFile,
	fingerprint string,
	existing []domain.Chunk,
	opts domain.IngestOptions,
) domain.FileResult {
	fr := domain.FileResult{FileName: f.FileName}

	chunks, err := s.deriveChunks(ctx, c.Handle, f, fingerprint)
	if err != nil {
		return failed(fr, err)
	}

	if opts.Confirms(f.FileName) {
		return s.update(ctx, c, f.FileName, chunks, existing)
	}

	staged := &domain.PendingUpload{
		Collection:  c.Handle,
		FileName:    f.FileName,
		Path:        f.Path,
		MIMEType:    f.MIMEType,
		Fingerprint: fingerprint,
		Content:     f.Content,
		StagedAt:    s.now(),
	}
	if err := s.pending.Save(ctx, staged); err != nil {
		return failed(fr, fmt.Errorf("stage update: %w", err))
	}

	fr.Outcome = domain.OutcomeNeedsConfirmation
	return fr
}

// update replaces every stored chunk of a file with the new set.
// It runs detached from the caller so a started unit completes even if the
// client goes away. The staged upload is dropped only on success.
func (s *IngestService) update(
	ctx context.Context,
	c *domain.Collection,
	fileName string,
	chunks []domain.Chunk,
	existing []domain.Chunk,
) domain.FileResult {
	fr := domain.FileResult{FileName: fileName}

	wctx, cancel := s.detached(ctx)
	defer cancel()

	if len(existing) > 0 {
		ids := make([]string, len(existing))
		for i, chunk := range existing {
			ids[i] = chunk.ID
		}

		results, err := s.docStore.DeleteByIDs(wctx, c.Handle, ids)
		if err != nil {
			return failed(fr, fmt.Errorf("delete previous chunks: %w", err))
		}
		for id, derr := range results {
			if derr != nil && !errors.Is(derr, domain.ErrNotFound) {
				return failed(fr, fmt.Errorf("delete previous chunk %s: %w", id, derr))
			}
		}
	}

	if err := s.docStore.Put(wctx, c.Handle, chunks); err != nil {
		logger.Warn("Update of %s/%s removed the previous version but storing the new one failed: %v",
			c.Name, fileName, err)
		fr.Outcome = domain.OutcomeFailed
		fr.Reason = fmt.Sprintf("%s was removed from the collection but its new version could not be stored (%v); retry the update",
			fileName, err)
		return fr
	}

	if err := s.pending.Delete(wctx, c.Handle, fileName); err != nil && !errors.Is(err, domain.ErrNotFound) {
		logger.Warn("Dropping staged upload %s/%s failed: %v", c.Name, fileName, err)
	}

	fr.Outcome = domain.OutcomeUpdated
	fr.Chunks = len(chunks)
	return fr
}

// ConfirmUpdates replaces the named files with their staged uploads.
// A name with nothing staged is reported as skipped.
func (s *IngestService) ConfirmUpdates(ctx context.Context, collection string, fileNames []string) (*domain.IngestResult, error) {
	c, unlock, err := s.locks.LockCollection(ctx, s.collections, collection)
	if err != nil {
		return nil, err
	}
	defer unlock()

	result := &domain.IngestResult{}
	done := make(map[string]bool)

	for _, name := range fileNames {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		name = cleanFileName(name)
		if name == "" || done[name] {
			continue
		}
		done[name] = true

		fr := s.confirm(ctx, c, name)
		logger.Debug("Confirm %s/%s: %s %s", c.Name, name, fr.Outcome, fr.Reason)
		result.Add(fr)
	}

	logger.Info("Update of %q: %s", c.Name, result.Message())
	return result, nil
}

// confirm runs the update unit for one staged upload.
func (s *IngestService) confirm(ctx context.Context, c *domain.Collection, name string) domain.FileResult {
	fr := domain.FileResult{FileName: name}

	staged, err := s.pending.Get(ctx, c.Handle, name)
	if errors.Is(err, domain.ErrNotFound) {
		logger.Warn("No pending update for %s/%s", c.Name, name)
		fr.Outcome = domain.OutcomeSkipped
		fr.Reason = "no pending update"
		return fr
	}
	if err != nil {
		return failed(fr, fmt.Errorf("load staged upload: %w", err))
	}

	existing, err := s.docStore.List(ctx, c.Handle, domain.ChunkFilter{FileNames: []string{name}})
	if err != nil {
		return failed(fr, fmt.Errorf("list stored chunks: %w", err))
	}

	if len(existing) > 0 && storedFingerprint(existing) == staged.Fingerprint {
		if err := s.pending.Delete(ctx, c.Handle, name); err != nil && !errors.Is(err, domain.ErrNotFound) {
			logger.Warn("Dropping staged upload %s/%s failed: %v", c.Name, name, err)
		}
		fr.Outcome = domain.OutcomeUnchanged
		return fr
	}

	chunks, err := s.deriveChunks(ctx, c.Handle, staged.UploadFile(), staged.Fingerprint)
	if err != nil {
		return failed(fr, err)
	}
	return s.update(ctx, c, name, chunks, existing)
}

// Pending lists the uploads staged for confirmation.
func (s *IngestService) Pending(ctx context.Context, collection string) ([]domain.PendingUpload, error) {
	c, err := s.resolve(ctx, collection)
	if err != nil {
		return nil, err
	}

	staged, err := s.pending.List(ctx, c.Handle)
	if err != nil {
		return nil, fmt.Errorf("list staged uploads of %q: %w", collection, err)
	}
	return staged, nil
}

// deriveChunks turns an upload into chunks through the normaliser registry
// and the post-processor pipeline. Pre-derived chunks are adopted as given.
func (s *IngestService) deriveChunks(ctx context.Context, handle string, f domain.UploadFile, fingerprint string) ([]domain.Chunk, error) {
	if f.MIMEType == "" {
		f.MIMEType = detectMIMEType(f.FileName, f.Content)
	}
	meta := s.fileMetadata(f, fingerprint)

	if f.Chunks != nil {
		return adoptChunks(handle, f, fingerprint, meta)
	}

	raw := &domain.RawDocument{
		Collection: handle,
		URI:        uploadPath(f),
		MIMEType:   f.MIMEType,
		Content:    f.Content,
		Metadata:   meta,
	}

	normalised, err := s.registry.Normalise(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("normalise: %w", err)
	}

	doc := normalised.Document
	doc.Collection = handle
	doc.FileName = f.FileName

	chunks, err := s.pipeline.Process(ctx, &doc)
	if err != nil {
		return nil, fmt.Errorf("post-process: %w", err)
	}
	if len(chunks) == 0 {
		return nil, errNoText
	}
	return chunks, nil
}

// fileMetadata builds the metadata copied onto every chunk of a file.
func (s *IngestService) fileMetadata(f domain.UploadFile, fingerprint string) map[string]any {
	now := s.now()
	modified := f.ModifiedAt
	if modified.IsZero() {
		modified = now
	}
	return map[string]any{
		domain.MetaFileName:         f.FileName,
		domain.MetaFilePath:         uploadPath(f),
		domain.MetaFileType:         f.MIMEType,
		domain.MetaFileSize:         len(f.Content),
		domain.MetaCreationDate:     now.Format(dateLayout),
		domain.MetaLastModifiedDate: modified.Format(dateLayout),
		domain.MetaFingerprint:      fingerprint,
	}
}

// adoptChunks normalises caller-supplied chunks onto this collection and file.
func adoptChunks(handle string, f domain.UploadFile, fingerprint string, meta map[string]any) ([]domain.Chunk, error) {
	chunks := make([]domain.Chunk, 0, len(f.Chunks))
	for _, in := range f.Chunks {
		if strings.TrimSpace(in.Content) == "" {
			continue
		}
		c := in
		c.Position = len(chunks)
		c.ID = domain.ChunkID(handle, f.FileName, c.Position)
		c.Collection = handle
		c.FileName = f.FileName
		c.Fingerprint = fingerprint
		c.Metadata = make(map[string]any, len(meta)+len(in.Metadata)+1)
		for k, v := range in.Metadata {
			c.Metadata[k] = v
		}
		for k, v := range meta {
			c.Metadata[k] = v
		}
		c.Metadata[domain.MetaChunkIndex] = c.Position
		chunks = append(chunks, c)
	}
	if len(chunks) == 0 {
		return nil, errNoText
	}
	return chunks, nil
}

func (s *IngestService) resolve(ctx context.Context, collection string) (*domain.Collection, error) {
	c, err := s.collections.Get(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("collection %q: %w", collection, err)
	}
	return c, nil
}

// detached returns a context that survives caller cancellation but is
// bounded by the store timeout.
func (s *IngestService) detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.storeTimeout)
}

// storedFingerprint returns the fingerprint recorded on a file's chunks.
func storedFingerprint(chunks []domain.Chunk) string {
	for _, c := range chunks {
		if c.Fingerprint != "" {
			return c.Fingerprint
		}
		if fp, ok := c.Metadata[domain.MetaFingerprint].(string); ok && fp != "" {
			return fp
		}
	}
	return ""
}

// cleanFileName reduces a client-supplied name to its base name.
func cleanFileName(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	if name == "" {
		return ""
	}
	base := filepath.Base(name)
	if base == "." || base == "/" || base == ".." {
		return ""
	}
	return base
}

func uploadPath(f domain.UploadFile) string {
	if f.Path != "" {
		return f.Path
	}
	return f.FileName
}

func failed(fr domain.FileResult, err error) domain.FileResult {
	fr.Outcome = domain.OutcomeFailed
	fr.Reason = err.Error()
	return fr
}
