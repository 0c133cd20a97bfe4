package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"notebin/internal/codec"
	"notebin/internal/domain"
	"notebin/internal/domain/models"
	"notebin/internal/domain/repositories"
	"notebin/internal/domain/services"
)

// importService moves legacy one-file-per-note blobs into the collection
type importService struct {
	store  repositories.BlobStore
	repo   repositories.RecordRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewImportService creates a new import service
func NewImportService(
	store repositories.BlobStore,
	repo repositories.RecordRepository,
	logger *slog.Logger,
) services.ImportService {
	return &importService{
		store:  store,
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// ImportLegacy reads every file under dir and adds the ones whose ID is not
// yet in the collection, in a single optimistic write. Files that cannot be
// decoded are reported as skipped. The legacy files are left in place.
func (s *importService) ImportLegacy(ctx context.Context, dir string) (*services.ImportResult, error) {
	dir = strings.Trim(strings.TrimSpace(dir), "/")
	if dir == "" {
		return nil, fmt.Errorf("%w: dir is required", domain.ErrValidation)
	}

	paths, err := s.store.ListBlobs(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("list legacy files: %w", err)
	}

	result := &services.ImportResult{Scanned: len(paths)}
	records := make([]models.Record, 0, len(paths))
	importedAt := s.now()

	for _, p := range paths {
		blob, err := s.store.FetchBlob(ctx, p)
		if errors.Is(err, domain.ErrBlobNotFound) {
			// removed between list and fetch
			result.Skipped = append(result.Skipped, p)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("fetch legacy file %s: %w", p, err)
		}

		rec, err := codec.DecodeLegacyFile(p, blob.Content, importedAt)
		if err != nil {
			s.logger.Warn("skipping legacy file", "path", p, "error", err)
			result.Skipped = append(result.Skipped, p)
			continue
		}
		records = append(records, *rec)
	}

	if len(records) == 0 {
		return result, nil
	}

	added, err := s.repo.Import(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("import legacy records: %w", err)
	}
	result.Imported = added

	s.logger.Info("legacy import finished",
		"dir", dir,
		"scanned", result.Scanned,
		"imported", result.Imported,
		"skipped", len(result.Skipped),
	)
	return result, nil
}
