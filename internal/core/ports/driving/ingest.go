package driving

import (
	"context"

	"github.com/custodia-labs/ragbox/internal/core/domain"
)

// IngestService reconciles upload batches against a collection.
type IngestService interface {
	// Ingest inserts new files, skips unchanged ones and stages changed ones
	// for confirmation unless opts confirms them.
	Ingest(ctx context.Context, collection string, files []domain.UploadFile, opts domain.IngestOptions) (*domain.IngestResult, error)

	// ConfirmUpdates replaces the named files with their staged uploads.
	ConfirmUpdates(ctx context.Context, collection string, fileNames []string) (*domain.IngestResult, error)

	// Pending lists the uploads staged for confirmation.
	Pending(ctx context.Context, collection string) ([]domain.PendingUpload, error)
}
