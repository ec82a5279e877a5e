package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mediavault/mediavault/internal/common"
	"github.com/mediavault/mediavault/internal/dbx"
	"github.com/mediavault/mediavault/internal/server/models"
	"github.com/mediavault/mediavault/internal/server/repositories/repomanager"
)

func nowUTC() time.Time {
	return time.Now().UTC()
}

// UserService manages user profiles and username ownership.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewUserService(db *sql.DB, repomanager repomanager.RepositoryManager) *UserService {
	return &UserService{db: db, repomanager: repomanager}
}

// createProfileTx claims the username and inserts the profile in one
// transaction, so a claim row can never exist without its profile.
func createProfileTx(ctx context.Context, db *sql.DB, rm repomanager.RepositoryManager, p *models.UserProfile) error {
	return dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		userRepo := rm.Users(tx)
		if err := userRepo.ClaimUsername(ctx, p.Username, p.UserID); err != nil {
			return err
		}
		return userRepo.CreateProfile(ctx, p)
	})
}

// Create registers a profile for the identity subject. The username must be
// unclaimed; common.ErrConflict is returned when it is taken or when the
// subject already has a profile.
func (s *UserService) Create(ctx context.Context, userID, email, username, name string) (*models.UserProfile, error) {
	if username == "" {
		return nil, fmt.Errorf("%w: empty username", common.ErrValidation)
	}

	p := &models.UserProfile{
		UserID:    userID,
		Email:     email,
		Username:  username,
		Name:      name,
		CreatedAt: nowUTC(),
	}

	if err := createProfileTx(ctx, s.db, s.repomanager, p); err != nil {
		return nil, err
	}

	return p, nil
}

// Get returns the profile for the identity subject.
func (s *UserService) Get(ctx context.Context, userID string) (*models.UserProfile, error) {
	userRepo := s.repomanager.Users(s.db)
	return userRepo.GetByID(ctx, userID)
}

// GetByUsername resolves a public username to its profile.
func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.UserProfile, error) {
	userRepo := s.repomanager.Users(s.db)
	return userRepo.GetByUsername(ctx, username)
}

// UsernameAvailable reports whether the username is still unclaimed.
func (s *UserService) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	if username == "" {
		return false, fmt.Errorf("%w: empty username", common.ErrValidation)
	}

	userRepo := s.repomanager.Users(s.db)
	taken, err := userRepo.UsernameTaken(ctx, username)
	if err != nil {
		return false, err
	}
	return !taken, nil
}
