package albums

import (
	"context"

	"github.com/mediavault/mediavault/internal/server/models"
)

// Repository is the metadata capability for album records. Albums live in
// their own table, so album ids can never collide with file ids sharing
// the same owner.
type Repository interface {
	Create(ctx context.Context, album *models.Album) error

	// Get returns the album addressed by (userID, albumID) or
	// common.ErrNotFound.
	Get(ctx context.Context, userID, albumID string) (*models.Album, error)

	// List returns the owner's albums, newest first.
	List(ctx context.Context, userID string) ([]*models.Album, error)

	// Rename updates the album name. Conditioned on existence.
	Rename(ctx context.Context, userID, albumID, name string) error

	// Delete removes the album record. Conditioned on existence.
	Delete(ctx context.Context, userID, albumID string) error

	// IncrementFileCount adds one to the denormalized count. When coverURL
	// is non-nil it is stored only if the album has no cover yet.
	IncrementFileCount(ctx context.Context, userID, albumID string, coverURL *string) error

	// DecrementFileCount subtracts one from the count, floored at zero.
	DecrementFileCount(ctx context.Context, userID, albumID string) error
}
