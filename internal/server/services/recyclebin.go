package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mediavault/mediavault/internal/common"
	"github.com/mediavault/mediavault/internal/logging"
	"github.com/mediavault/mediavault/internal/server/models"
	"github.com/mediavault/mediavault/internal/server/objstore"
	"github.com/mediavault/mediavault/internal/server/repositories/repomanager"
)

// RecycleBinService applies the strict deletion policy: its operations only
// accept files that are already soft-deleted.
type RecycleBinService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       objstore.Store
	logger      logging.Logger
}

func NewRecycleBinService(db *sql.DB, repomanager repomanager.RepositoryManager,
	store objstore.Store, logger logging.Logger) *RecycleBinService {
	return &RecycleBinService{
		db:          db,
		repomanager: repomanager,
		store:       store,
		logger:      logger.With("service", "recyclebin"),
	}
}

// List returns the owner's soft-deleted files.
func (s *RecycleBinService) List(ctx context.Context, userID string) ([]*models.File, error) {
	fileRepo := s.repomanager.Files(s.db)
	return fileRepo.ListDeleted(ctx, userID)
}

// Restore brings a soft-deleted file back. Unlike the general restore, a
// file that is not in the bin is rejected so clients cannot act on stale
// listings.
func (s *RecycleBinService) Restore(ctx context.Context, userID, fileID string) error {
	fileRepo := s.repomanager.Files(s.db)

	file, err := fileRepo.Get(ctx, userID, fileID)
	if err != nil {
		return err
	}
	if !file.IsDeleted {
		return fmt.Errorf("%w: file is not in the recycle bin", common.ErrValidation)
	}

	return fileRepo.SetDeleted(ctx, userID, fileID, false)
}

// Delete permanently removes a soft-deleted file. The blob goes first; if
// blob deletion fails the record stays, so the file remains reachable
// through the bin and the operation can be retried. An orphaned blob is
// invisible; an orphaned record causes client-visible failures.
func (s *RecycleBinService) Delete(ctx context.Context, userID, fileID string) error {
	fileRepo := s.repomanager.Files(s.db)

	file, err := fileRepo.Get(ctx, userID, fileID)
	if err != nil {
		return err
	}
	if !file.IsDeleted {
		return fmt.Errorf("%w: file is not in the recycle bin", common.ErrValidation)
	}

	if err := s.store.Delete(ctx, file.StorageKey); err != nil {
		return err
	}

	return fileRepo.Delete(ctx, userID, fileID)
}

// Empty permanently removes every file in the owner's bin. Failures on
// individual files are logged and skipped so one bad record cannot wedge
// the sweep; the count of removed files is returned.
func (s *RecycleBinService) Empty(ctx context.Context, userID string) (int, error) {
	fileRepo := s.repomanager.Files(s.db)

	deleted, err := fileRepo.ListDeleted(ctx, userID)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, f := range deleted {
		if err := s.store.Delete(ctx, f.StorageKey); err != nil {
			s.logger.Error(ctx, "blob delete failed during bin sweep", "file_id", f.FileID, "error", err)
			continue
		}
		if err := fileRepo.Delete(ctx, userID, f.FileID); err != nil {
			s.logger.Error(ctx, "record delete failed during bin sweep", "file_id", f.FileID, "error", err)
			continue
		}
		removed++
	}

	return removed, nil
}
