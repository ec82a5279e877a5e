package files

import (
	"context"

	"github.com/mediavault/mediavault/internal/server/models"
)

// Repository is the metadata capability for file records. Conditional
// updates (existence, non-deleted state) are expressed by the store itself;
// callers translate common.ErrNotFound / common.ErrConflict into responses.
type Repository interface {
	// Create inserts a new record. The (user_id, file_id) pair must be fresh.
	Create(ctx context.Context, file *models.File) error

	// Get returns the record addressed by (userID, fileID), deleted or not.
	Get(ctx context.Context, userID, fileID string) (*models.File, error)

	// ListByOwner returns the owner's non-deleted files, newest first.
	ListByOwner(ctx context.Context, userID string) ([]*models.File, error)

	// ListByClass returns the owner's non-deleted files of one media class.
	ListByClass(ctx context.Context, userID, mediaClass string) ([]*models.File, error)

	// ListDeleted returns the owner's soft-deleted files (the recycle bin).
	ListDeleted(ctx context.Context, userID string) ([]*models.File, error)

	// ListByAlbum pages through files linked to albumID. afterFileID is the
	// exclusive keyset cursor ("" for the first page).
	ListByAlbum(ctx context.Context, userID, albumID, afterFileID string, limit int) ([]*models.File, error)

	// SetDeleted toggles the deletion flag. Conditioned on record existence
	// only, so repeated calls settle on the requested value.
	SetDeleted(ctx context.Context, userID, fileID string, deleted bool) error

	// Rename updates the encoded display name. Conditioned on existence and
	// non-deleted state; renaming a soft-deleted file is a conflict.
	Rename(ctx context.Context, userID, fileID, nameEnc string) error

	// SetAlbum links or unlinks the file (albumID or models.NoAlbum).
	SetAlbum(ctx context.Context, userID, fileID, albumID string) error

	// Delete removes the record. Conditioned on existence.
	Delete(ctx context.Context, userID, fileID string) error

	// Stats sums non-deleted usage for the owner.
	Stats(ctx context.Context, userID string) (*models.StorageStats, error)
}
