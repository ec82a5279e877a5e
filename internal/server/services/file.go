// Package services implements the application logic on top of the metadata
// repositories, the object store, and the content cipher: the file lifecycle
// (upload, retrieval, rename, soft delete, permanent delete), albums, the
// recycle bin, user profiles, and storage statistics.
package services

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mediavault/mediavault/internal/common"
	"github.com/mediavault/mediavault/internal/cryptox"
	"github.com/mediavault/mediavault/internal/logging"
	sc "github.com/mediavault/mediavault/internal/server/config"
	"github.com/mediavault/mediavault/internal/server/models"
	"github.com/mediavault/mediavault/internal/server/objstore"
	"github.com/mediavault/mediavault/internal/server/repositories/repomanager"
)

// allowedTypes maps accepted MIME types to their coarse media class. A MIME
// type outside this map is a validation error, never silently accepted.
var allowedTypes = map[string]string{
	"image/jpeg":       models.MediaClassImage,
	"image/png":        models.MediaClassImage,
	"image/gif":        models.MediaClassImage,
	"image/webp":       models.MediaClassImage,
	"image/heic":       models.MediaClassImage,
	"video/mp4":        models.MediaClassVideo,
	"video/quicktime":  models.MediaClassVideo,
	"video/x-msvideo":  models.MediaClassVideo,
	"video/x-matroska": models.MediaClassVideo,
	"video/webm":       models.MediaClassVideo,
	"application/pdf":  models.MediaClassDocument,
}

// MediaClassFor returns the media class for a MIME type and whether the type
// is allowed at all.
func MediaClassFor(contentType string) (string, bool) {
	class, ok := allowedTypes[contentType]
	return class, ok
}

// UploadInput carries everything the caller supplies for a single upload.
type UploadInput struct {
	Filename    string
	ContentType string
	Width       *int
	Height      *int
	Data        []byte
}

// UploadOwner identifies the uploading user; the claims come from the
// verified identity token. A profile row is created lazily on first upload.
type UploadOwner struct {
	UserID   string
	Email    string
	Username string
	Name     string
}

// FileService owns the encrypted file lifecycle.
type FileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       objstore.Store
	cipher      *cryptox.Cipher
	config      *sc.Config
	logger      logging.Logger
}

func NewFileService(db *sql.DB, repomanager repomanager.RepositoryManager, store objstore.Store,
	cipher *cryptox.Cipher, config *sc.Config, logger logging.Logger) *FileService {
	return &FileService{
		db:          db,
		repomanager: repomanager,
		store:       store,
		cipher:      cipher,
		config:      config,
		logger:      logger.With("service", "files"),
	}
}

// EncodeName converts a display name to its stored representation.
func EncodeName(name string) string {
	return base64.StdEncoding.EncodeToString([]byte(name))
}

// DecodeName recovers the display name from its stored representation.
// Records written before the encoding was introduced hold raw names; those
// are returned unchanged.
func DecodeName(nameEnc string) string {
	b, err := base64.StdEncoding.DecodeString(nameEnc)
	if err != nil {
		return nameEnc
	}
	return string(b)
}

// Upload validates, encrypts, and stores a new file. The object-store write
// happens before the metadata write; when the metadata write fails the
// orphaned blob is deleted best-effort and the original error is returned.
func (s *FileService) Upload(ctx context.Context, owner *UploadOwner, in *UploadInput) (*models.File, error) {
	if len(in.Data) == 0 {
		return nil, fmt.Errorf("%w: empty file", common.ErrValidation)
	}
	if int64(len(in.Data)) > s.config.MaxUploadBytes {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", common.ErrValidation, s.config.MaxUploadBytes)
	}

	mediaClass, ok := MediaClassFor(in.ContentType)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported content type %q", common.ErrValidation, in.ContentType)
	}

	if err := s.ensureProfile(ctx, owner); err != nil {
		return nil, err
	}

	// One id generated before either write, so blob and record agree.
	fileID := uuid.New().String()
	safeName := objstore.SanitizeFilename(in.Filename)
	key := objstore.MakeKey(owner.UserID, fileID, safeName)

	blob, hash, err := s.cipher.Encrypt(in.Data, owner.UserID)
	if err != nil {
		return nil, err
	}

	if err := s.store.Put(ctx, key, blob, "application/octet-stream"); err != nil {
		return nil, err
	}

	now := nowUTC()
	file := &models.File{
		UserID:      owner.UserID,
		FileID:      fileID,
		NameEnc:     EncodeName(safeName),
		StorageKey:  key,
		MediaClass:  mediaClass,
		SizeBytes:   int64(len(in.Data)),
		ContentHash: hash,
		ContentType: in.ContentType,
		Width:       in.Width,
		Height:      in.Height,
		AlbumID:     models.NoAlbum,
		IsDeleted:   false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	fileRepo := s.repomanager.Files(s.db)
	if err := fileRepo.Create(ctx, file); err != nil {
		// Compensate: the blob is orphaned now. Its loss is invisible to
		// clients, so a failed cleanup is logged, never escalated.
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.logger.Error(ctx, "orphaned blob cleanup failed", "key", key, "error", delErr)
		}
		return nil, err
	}

	return file, nil
}

// ensureProfile creates the profile row on first contact. The username claim
// and the profile insert run in one transaction so a username can never be
// claimed without its profile.
func (s *FileService) ensureProfile(ctx context.Context, owner *UploadOwner) error {
	userRepo := s.repomanager.Users(s.db)

	_, err := userRepo.GetByID(ctx, owner.UserID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return err
	}

	return createProfileTx(ctx, s.db, s.repomanager, &models.UserProfile{
		UserID:    owner.UserID,
		Email:     owner.Email,
		Username:  owner.Username,
		Name:      owner.Name,
		CreatedAt: nowUTC(),
	})
}

// Get returns the metadata record for a non-deleted file.
func (s *FileService) Get(ctx context.Context, userID, fileID string) (*models.File, error) {
	fileRepo := s.repomanager.Files(s.db)

	file, err := fileRepo.Get(ctx, userID, fileID)
	if err != nil {
		return nil, err
	}
	if file.IsDeleted {
		return nil, common.ErrNotFound
	}
	return file, nil
}

// FileDetail is a metadata record plus a short-lived presigned read URL.
type FileDetail struct {
	File *models.File
	URL  string
}

// Detail returns the record together with a presigned URL for direct reads
// of the encrypted blob.
func (s *FileService) Detail(ctx context.Context, userID, fileID string) (*FileDetail, error) {
	file, err := s.Get(ctx, userID, fileID)
	if err != nil {
		return nil, err
	}

	url, err := s.store.Presign(ctx, file.StorageKey, s.config.PresignTTL, "")
	if err != nil {
		return nil, err
	}

	return &FileDetail{File: file, URL: url}, nil
}

// List returns the owner's non-deleted files, optionally narrowed to one
// media class. An unknown class is a validation error.
func (s *FileService) List(ctx context.Context, userID, mediaClass string) ([]*models.File, error) {
	fileRepo := s.repomanager.Files(s.db)

	if mediaClass == "" {
		return fileRepo.ListByOwner(ctx, userID)
	}

	switch mediaClass {
	case models.MediaClassImage, models.MediaClassVideo, models.MediaClassDocument:
		return fileRepo.ListByClass(ctx, userID, mediaClass)
	default:
		return nil, fmt.Errorf("%w: unknown media class %q", common.ErrValidation, mediaClass)
	}
}

// Content fetches and decrypts the file body for preview or download.
func (s *FileService) Content(ctx context.Context, userID, fileID string) (*models.File, []byte, error) {
	file, err := s.Get(ctx, userID, fileID)
	if err != nil {
		return nil, nil, err
	}

	blob, err := s.store.Get(ctx, file.StorageKey)
	if err != nil {
		return nil, nil, err
	}

	plaintext, err := s.cipher.Decrypt(blob, userID)
	if err != nil {
		return nil, nil, err
	}

	return file, plaintext, nil
}

// Rename changes the display name of a non-deleted file. The name is
// stored trimmed.
func (s *FileService) Rename(ctx context.Context, userID, fileID, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return fmt.Errorf("%w: empty name", common.ErrValidation)
	}

	fileRepo := s.repomanager.Files(s.db)
	return fileRepo.Rename(ctx, userID, fileID, EncodeName(newName))
}

// SoftDelete moves a file to the recycle bin. Deleting an already-deleted
// file settles on the same state.
func (s *FileService) SoftDelete(ctx context.Context, userID, fileID string) error {
	fileRepo := s.repomanager.Files(s.db)
	return fileRepo.SetDeleted(ctx, userID, fileID, true)
}

// Restore clears the deletion flag. Restoring a never-deleted file is not an
// error here; the recycle bin entry point applies a stricter policy.
func (s *FileService) Restore(ctx context.Context, userID, fileID string) error {
	fileRepo := s.repomanager.Files(s.db)
	return fileRepo.SetDeleted(ctx, userID, fileID, false)
}

// Stats sums non-deleted usage for the owner.
func (s *FileService) Stats(ctx context.Context, userID string) (*models.StorageStats, error) {
	fileRepo := s.repomanager.Files(s.db)
	return fileRepo.Stats(ctx, userID)
}
