package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/ragbox/internal/core/domain"
	"github.com/custodia-labs/ragbox/internal/core/ports/driven"
)

const collectionColumns = "name, handle, created_at, updated_at"

type collectionStore struct {
	db *sql.DB
}

var _ driven.CollectionStore = (*collectionStore)(nil)

func (s *collectionStore) Create(ctx context.Context, c *domain.Collection) error {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO collections ("+collectionColumns+") VALUES (?, ?, ?, ?) ON CONFLICT(name) DO NOTHING",
		c.Name, c.Handle, c.CreatedAt.UTC(), c.UpdatedAt.UTC())
	err = exactlyOne(res, err)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("creating collection: %w", err)
	}
	return nil
}

func (s *collectionStore) Get(ctx context.Context, name string) (*domain.Collection, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+collectionColumns+" FROM collections WHERE name = ?", name)
	c, err := scanCollection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading collection %q: %w", name, err)
	}
	return c, nil
}

// Rename fails with ErrNotFound when oldName is unknown and with
// ErrAlreadyExists when newName is taken, leaving both entries unchanged.
func (s *collectionStore) Rename(ctx context.Context, oldName, newName string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	exists := func(name string) (bool, error) {
		var n int
		err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM collections WHERE name = ?", name).Scan(&n)
		return n > 0, err
	}
	switch found, err := exists(oldName); {
	case err != nil:
		return fmt.Errorf("looking up collection: %w", err)
	case !found:
		return domain.ErrNotFound
	}
	switch taken, err := exists(newName); {
	case err != nil:
		return fmt.Errorf("looking up collection: %w", err)
	case taken:
		return domain.ErrAlreadyExists
	}

	if _, err := tx.ExecContext(ctx, "UPDATE collections SET name = ?, updated_at = ? WHERE name = ?",
		newName, time.Now().UTC(), oldName); err != nil {
		if constraintViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("renaming collection: %w", err)
	}
	if err := tx.Commit(); err != nil {
		if constraintViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("renaming collection: %w", err)
	}
	return nil
}

func (s *collectionStore) Delete(ctx context.Context, name string) error {
	err := exactlyOne(s.db.ExecContext(ctx, "DELETE FROM collections WHERE name = ?", name))
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("deleting collection: %w", err)
	}
	return err
}

func (s *collectionStore) List(ctx context.Context) ([]domain.Collection, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+collectionColumns+" FROM collections ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("listing collections: %w", err)
	}
	list, err := collect(rows, scanCollection)
	if err != nil {
		return nil, fmt.Errorf("listing collections: %w", err)
	}
	return list, nil
}

func scanCollection(row scanner) (*domain.Collection, error) {
	var c domain.Collection
	if err := row.Scan(&c.Name, &c.Handle, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}
