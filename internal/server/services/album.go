package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mediavault/mediavault/internal/common"
	"github.com/mediavault/mediavault/internal/logging"
	sc "github.com/mediavault/mediavault/internal/server/config"
	"github.com/mediavault/mediavault/internal/server/models"
	"github.com/mediavault/mediavault/internal/server/objstore"
	"github.com/mediavault/mediavault/internal/server/repositories/repomanager"
)

// albumPageSize bounds one page of the unlink sweep during album deletion.
const albumPageSize = 100

// AlbumService manages user-created collections and their file links.
type AlbumService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       objstore.Store
	config      *sc.Config
	logger      logging.Logger
}

func NewAlbumService(db *sql.DB, repomanager repomanager.RepositoryManager, store objstore.Store,
	config *sc.Config, logger logging.Logger) *AlbumService {
	return &AlbumService{
		db:          db,
		repomanager: repomanager,
		store:       store,
		config:      config,
		logger:      logger.With("service", "albums"),
	}
}

// Create makes an empty album. The name is stored trimmed.
func (s *AlbumService) Create(ctx context.Context, userID, name string) (*models.Album, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: empty album name", common.ErrValidation)
	}

	now := nowUTC()
	album := &models.Album{
		UserID:    userID,
		AlbumID:   uuid.New().String(),
		Name:      name,
		FileCount: 0,
		CreatedAt: now,
		UpdatedAt: now,
	}

	albumRepo := s.repomanager.Albums(s.db)
	if err := albumRepo.Create(ctx, album); err != nil {
		return nil, err
	}

	return album, nil
}

// Get returns one album owned by the caller.
func (s *AlbumService) Get(ctx context.Context, userID, albumID string) (*models.Album, error) {
	albumRepo := s.repomanager.Albums(s.db)
	return albumRepo.Get(ctx, userID, albumID)
}

// List returns the owner's albums, newest first.
func (s *AlbumService) List(ctx context.Context, userID string) ([]*models.Album, error) {
	albumRepo := s.repomanager.Albums(s.db)
	return albumRepo.List(ctx, userID)
}

// Files pages through the album's linked files. afterFileID is the exclusive
// cursor; "" starts from the beginning.
func (s *AlbumService) Files(ctx context.Context, userID, albumID, afterFileID string, limit int) ([]*models.File, error) {
	albumRepo := s.repomanager.Albums(s.db)
	if _, err := albumRepo.Get(ctx, userID, albumID); err != nil {
		return nil, err
	}

	if limit <= 0 || limit > albumPageSize {
		limit = albumPageSize
	}

	fileRepo := s.repomanager.Files(s.db)
	return fileRepo.ListByAlbum(ctx, userID, albumID, afterFileID, limit)
}

// Rename changes the album's display name. The name is stored trimmed.
func (s *AlbumService) Rename(ctx context.Context, userID, albumID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: empty album name", common.ErrValidation)
	}

	albumRepo := s.repomanager.Albums(s.db)
	return albumRepo.Rename(ctx, userID, albumID, name)
}

// Delete unlinks every file pointing at the album, then removes the album
// record. The sweep is paginated; a failure mid-sweep leaves the remaining
// files linked to a dangling album id, which the next retry picks up again.
func (s *AlbumService) Delete(ctx context.Context, userID, albumID string) error {
	albumRepo := s.repomanager.Albums(s.db)
	fileRepo := s.repomanager.Files(s.db)

	if _, err := albumRepo.Get(ctx, userID, albumID); err != nil {
		return err
	}

	for {
		// Unlinking moves files out of the album filter, so each page is
		// read from the start rather than behind a cursor.
		page, err := fileRepo.ListByAlbum(ctx, userID, albumID, "", albumPageSize)
		if err != nil {
			return err
		}
		if len(page) == 0 {
			break
		}
		for _, f := range page {
			if err := fileRepo.SetAlbum(ctx, userID, f.FileID, models.NoAlbum); err != nil {
				return err
			}
		}
	}

	return albumRepo.Delete(ctx, userID, albumID)
}

// AddFile links a file into the album and bumps the denormalized count.
// The first image linked into a coverless album becomes its cover via a
// long-lived presigned URL. Link, count, and cover are separate writes;
// a failure between them can leave file_count behind the actual links.
// The drift is accepted: a retry returns early on the same-album check
// and does not touch the counter.
func (s *AlbumService) AddFile(ctx context.Context, userID, albumID, fileID string) error {
	albumRepo := s.repomanager.Albums(s.db)
	fileRepo := s.repomanager.Files(s.db)

	album, err := albumRepo.Get(ctx, userID, albumID)
	if err != nil {
		return err
	}

	file, err := fileRepo.Get(ctx, userID, fileID)
	if err != nil {
		return err
	}
	if file.IsDeleted {
		return fmt.Errorf("%w: file is in the recycle bin", common.ErrValidation)
	}
	if file.AlbumID == albumID {
		return nil
	}
	if file.AlbumID != models.NoAlbum {
		return fmt.Errorf("%w: file already belongs to another album", common.ErrConflict)
	}

	if err := fileRepo.SetAlbum(ctx, userID, fileID, albumID); err != nil {
		return err
	}

	var coverURL *string
	if album.CoverURL == nil && file.MediaClass == models.MediaClassImage {
		url, err := s.store.Presign(ctx, file.StorageKey, s.config.CoverPresignTTL, "")
		if err != nil {
			s.logger.Warn(ctx, "cover presign failed", "album_id", albumID, "error", err)
		} else {
			coverURL = &url
		}
	}

	return albumRepo.IncrementFileCount(ctx, userID, albumID, coverURL)
}

// RemoveFile unlinks a file whose current album is albumID and decrements
// the count, floored at zero by the store.
func (s *AlbumService) RemoveFile(ctx context.Context, userID, albumID, fileID string) error {
	albumRepo := s.repomanager.Albums(s.db)
	fileRepo := s.repomanager.Files(s.db)

	if _, err := albumRepo.Get(ctx, userID, albumID); err != nil {
		return err
	}

	file, err := fileRepo.Get(ctx, userID, fileID)
	if err != nil {
		return err
	}
	if file.AlbumID != albumID {
		return fmt.Errorf("%w: file is not in this album", common.ErrValidation)
	}

	if err := fileRepo.SetAlbum(ctx, userID, fileID, models.NoAlbum); err != nil {
		return err
	}

	return albumRepo.DecrementFileCount(ctx, userID, albumID)
}
