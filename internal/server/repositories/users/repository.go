package users

import (
	"context"

	"github.com/mediavault/mediavault/internal/server/models"
)

// Repository stores user profiles and username ownership claims. Username
// uniqueness is enforced by the claim row's primary key, not by a
// query-then-create check: ClaimUsername and CreateProfile are run in one
// transaction by the service.
type Repository interface {
	// ClaimUsername inserts the ownership row for username. Returns
	// common.ErrConflict when the name is already claimed.
	ClaimUsername(ctx context.Context, username, userID string) error

	// CreateProfile inserts the profile row. Returns common.ErrConflict
	// when a profile for the user already exists.
	CreateProfile(ctx context.Context, profile *models.UserProfile) error

	// GetByID returns the profile for the identity subject.
	GetByID(ctx context.Context, userID string) (*models.UserProfile, error)

	// GetByUsername resolves a username to its owner's profile.
	GetByUsername(ctx context.Context, username string) (*models.UserProfile, error)

	// UsernameTaken reports whether a claim row exists for username.
	UsernameTaken(ctx context.Context, username string) (bool, error)
}
