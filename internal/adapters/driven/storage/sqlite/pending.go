package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/custodia-labs/ragbox/internal/core/domain"
	"github.com/custodia-labs/ragbox/internal/core/ports/driven"
)

const pendingColumns = "handle, file_name, path, mime_type, fingerprint, content, staged_at"

type pendingStore struct {
	db *sql.DB
}

var _ driven.PendingStore = (*pendingStore)(nil)

// Save replaces any upload already staged for the same file.
func (s *pendingStore) Save(ctx context.Context, p *domain.PendingUpload) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO pending_uploads (`+pendingColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(handle, file_name) DO UPDATE SET
			path = excluded.path,
			mime_type = excluded.mime_type,
			fingerprint = excluded.fingerprint,
			content = excluded.content,
			staged_at = excluded.staged_at`,
		p.Collection, p.FileName, p.Path, p.MIMEType, p.Fingerprint, p.Content, p.StagedAt.UTC())
	if err != nil {
		return fmt.Errorf("staging %s: %w", p.FileName, err)
	}
	return nil
}

func (s *pendingStore) Get(ctx context.Context, handle, fileName string) (*domain.PendingUpload, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+pendingColumns+" FROM pending_uploads WHERE handle = ? AND file_name = ?", handle, fileName)
	p, err := scanPending(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading staged %s: %w", fileName, err)
	}
	return p, nil
}

func (s *pendingStore) Delete(ctx context.Context, handle, fileName string) error {
	err := exactlyOne(s.db.ExecContext(ctx,
		"DELETE FROM pending_uploads WHERE handle = ? AND file_name = ?", handle, fileName))
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("unstaging %s: %w", fileName, err)
	}
	return err
}

func (s *pendingStore) DeleteAll(ctx context.Context, handle string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM pending_uploads WHERE handle = ?", handle); err != nil {
		return fmt.Errorf("clearing staged uploads: %w", err)
	}
	return nil
}

// List is ordered by file name.
func (s *pendingStore) List(ctx context.Context, handle string) ([]domain.PendingUpload, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+pendingColumns+" FROM pending_uploads WHERE handle = ? ORDER BY file_name", handle)
	if err != nil {
		return nil, fmt.Errorf("listing staged uploads: %w", err)
	}
	list, err := collect(rows, scanPending)
	if err != nil {
		return nil, fmt.Errorf("listing staged uploads: %w", err)
	}
	return list, nil
}

func scanPending(row scanner) (*domain.PendingUpload, error) {
	var p domain.PendingUpload
	if err := row.Scan(&p.Collection, &p.FileName, &p.Path, &p.MIMEType,
		&p.Fingerprint, &p.Content, &p.StagedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
