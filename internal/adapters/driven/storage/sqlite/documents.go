package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/custodia-labs/ragbox/internal/adapters/driven/storage/rank"
	"github.com/custodia-labs/ragbox/internal/core/domain"
	"github.com/custodia-labs/ragbox/internal/core/ports/driven"
	"github.com/custodia-labs/ragbox/internal/logger"
)

const chunkColumns = "handle, id, file_name, fingerprint, content, position, embedding, metadata"

type documentStore struct {
	db       *sql.DB
	embedder driven.EmbeddingService
}

var _ driven.DocumentStore = (*documentStore)(nil)

// Put upserts chunks by id in one transaction. Chunks without a vector are
// embedded first when an embedder is configured.
func (s *documentStore) Put(ctx context.Context, handle string, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	chunks = slices.Clone(chunks)
	if err := rank.EmbedMissing(ctx, s.embedder, chunks); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("beginning transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO chunks (`+chunkColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(handle, id) DO UPDATE SET
			file_name = excluded.file_name,
			fingerprint = excluded.fingerprint,
			content = excluded.content,
			position = excluded.position,
			embedding = excluded.embedding,
			metadata = excluded.metadata`)
	if err != nil {
		return unavailable("preparing insert", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		meta, err := json.Marshal(c.Metadata)
		if err != nil {
			return fmt.Errorf("encoding metadata of %s: %w", c.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, handle, c.ID, c.FileName, c.Fingerprint,
			c.Content, c.Position, encodeVector(c.Embedding), string(meta)); err != nil {
			return unavailable("saving chunk", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return unavailable("committing chunks", err)
	}
	return nil
}

// List is ordered by file name, then position.
func (s *documentStore) List(ctx context.Context, handle string, filter domain.ChunkFilter) ([]domain.Chunk, error) {
	var q strings.Builder
	q.WriteString("SELECT " + chunkColumns + " FROM chunks WHERE handle = ?")
	args := []any{handle}
	if n := len(filter.FileNames); n > 0 {
		q.WriteString(" AND file_name IN (" + strings.TrimSuffix(strings.Repeat("?, ", n), ", ") + ")")
		for _, name := range filter.FileNames {
			args = append(args, name)
		}
	}
	q.WriteString(" ORDER BY file_name, position")

	rows, err := s.db.QueryContext(ctx, q.String(), args...)
	if err != nil {
		return nil, unavailable("querying chunks", err)
	}
	chunks, err := collect(rows, scanChunk)
	if err != nil {
		return nil, unavailable("reading chunks", err)
	}
	return chunks, nil
}

// DeleteByIDs reports per id: nil when removed, ErrNotFound when absent.
func (s *documentStore) DeleteByIDs(ctx context.Context, handle string, ids []string) (map[string]error, error) {
	results := make(map[string]error, len(ids))
	if len(ids) == 0 {
		return results, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, unavailable("beginning transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, "DELETE FROM chunks WHERE handle = ? AND id = ?")
	if err != nil {
		return nil, unavailable("preparing delete", err)
	}
	defer stmt.Close()

	for _, id := range ids {
		err := exactlyOne(stmt.ExecContext(ctx, handle, id))
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			err = unavailable("deleting chunk", err)
		}
		results[id] = err
	}

	if err := tx.Commit(); err != nil {
		return nil, unavailable("committing deletes", err)
	}
	return results, nil
}

func (s *documentStore) DeleteAll(ctx context.Context, handle string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM chunks WHERE handle = ?", handle); err != nil {
		return unavailable("deleting chunks", err)
	}
	return nil
}

// Search ranks in process: by cosine similarity when the query can be
// embedded, by keyword score otherwise.
func (s *documentStore) Search(ctx context.Context, handle, query string, k int) ([]domain.Passage, error) {
	chunks, err := s.List(ctx, handle, domain.ChunkFilter{})
	if err != nil || len(chunks) == 0 {
		return nil, err
	}

	if s.embedder != nil {
		vec, err := s.embedder.Embed(ctx, query)
		if err == nil {
			return rank.ByVector(chunks, vec, k), nil
		}
		logger.Debug("sqlite: query embedding failed, ranking by keywords: %v", err)
	}
	return rank.ByKeyword(chunks, query, k), nil
}

func scanChunk(row scanner) (*domain.Chunk, error) {
	var (
		c    domain.Chunk
		vec  []byte
		meta string
	)
	if err := row.Scan(&c.Collection, &c.ID, &c.FileName, &c.Fingerprint,
		&c.Content, &c.Position, &vec, &meta); err != nil {
		return nil, err
	}
	c.Embedding = decodeVector(vec)
	if meta != "" {
		if err := json.Unmarshal([]byte(meta), &c.Metadata); err != nil {
			return nil, fmt.Errorf("decoding metadata of %s: %w", c.ID, err)
		}
	}
	return &c, nil
}

// encodeVector packs v as little-endian float32s.
func encodeVector(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}
	buf := make([]byte, 0, 4*len(v))
	for _, f := range v {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) []float32 {
	if len(b) == 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v
}
