package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/mediavault/mediavault/internal/common"
	"github.com/mediavault/mediavault/internal/dbx"
	"github.com/mediavault/mediavault/internal/logging"
	"github.com/mediavault/mediavault/internal/server/models"
	"github.com/mediavault/mediavault/internal/server/repositories/albums"
	"github.com/mediavault/mediavault/internal/server/repositories/files"
	"github.com/mediavault/mediavault/internal/server/repositories/users"
)

// noopLogger satisfies logging.Logger for tests.
type noopLogger struct{}

func (noopLogger) Info(context.Context, string, ...any)  {}
func (noopLogger) Warn(context.Context, string, ...any)  {}
func (noopLogger) Error(context.Context, string, ...any) {}
func (l noopLogger) With(...any) logging.Logger          { return l }

// fakeStore is an in-memory objstore.Store with per-op error injection.
type fakeStore struct {
	blobs map[string][]byte

	putErr     error
	getErr     error
	deleteErr  error
	presignErr error

	deleted     []string
	presignTTLs []time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{blobs: map[string][]byte{}}
}

func (s *fakeStore) Put(_ context.Context, key string, data []byte, _ string) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.blobs[key] = data
	return nil
}

func (s *fakeStore) Get(_ context.Context, key string) ([]byte, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	b, ok := s.blobs[key]
	if !ok {
		return nil, common.ErrNotFound
	}
	return b, nil
}

func (s *fakeStore) Delete(_ context.Context, key string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.blobs, key)
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *fakeStore) Head(_ context.Context, key string) (int64, error) {
	b, ok := s.blobs[key]
	if !ok {
		return 0, common.ErrNotFound
	}
	return int64(len(b)), nil
}

func (s *fakeStore) Presign(_ context.Context, key string, ttl time.Duration, _ string) (string, error) {
	if s.presignErr != nil {
		return "", s.presignErr
	}
	s.presignTTLs = append(s.presignTTLs, ttl)
	return fmt.Sprintf("https://signed.example/%s?ttl=%d", key, int(ttl.Seconds())), nil
}

func (s *fakeStore) PublicURL(key string) string {
	return "https://cdn.example/" + key
}

// fakeFilesRepo keeps records in a map keyed by user_id+file_id.
type fakeFilesRepo struct {
	records map[string]*models.File

	createErr   error
	setAlbumErr error
	deleteErr   error
}

func newFakeFilesRepo() *fakeFilesRepo {
	return &fakeFilesRepo{records: map[string]*models.File{}}
}

func fkey(userID, fileID string) string { return userID + "/" + fileID }

func (r *fakeFilesRepo) Create(_ context.Context, f *models.File) error {
	if r.createErr != nil {
		return r.createErr
	}
	k := fkey(f.UserID, f.FileID)
	if _, ok := r.records[k]; ok {
		return common.ErrConflict
	}
	cp := *f
	r.records[k] = &cp
	return nil
}

func (r *fakeFilesRepo) Get(_ context.Context, userID, fileID string) (*models.File, error) {
	f, ok := r.records[fkey(userID, fileID)]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (r *fakeFilesRepo) list(userID string, pred func(*models.File) bool) []*models.File {
	var out []*models.File
	for _, f := range r.records {
		if f.UserID == userID && pred(f) {
			cp := *f
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FileID < out[j].FileID })
	return out
}

func (r *fakeFilesRepo) ListByOwner(_ context.Context, userID string) ([]*models.File, error) {
	return r.list(userID, func(f *models.File) bool { return !f.IsDeleted }), nil
}

func (r *fakeFilesRepo) ListByClass(_ context.Context, userID, mediaClass string) ([]*models.File, error) {
	return r.list(userID, func(f *models.File) bool { return !f.IsDeleted && f.MediaClass == mediaClass }), nil
}

func (r *fakeFilesRepo) ListDeleted(_ context.Context, userID string) ([]*models.File, error) {
	return r.list(userID, func(f *models.File) bool { return f.IsDeleted }), nil
}

func (r *fakeFilesRepo) ListByAlbum(_ context.Context, userID, albumID, afterFileID string, limit int) ([]*models.File, error) {
	// Soft-deleted members are included, matching the store: the album
	// delete sweep must unlink them too.
	all := r.list(userID, func(f *models.File) bool {
		return f.AlbumID == albumID && f.FileID > afterFileID
	})
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *fakeFilesRepo) SetDeleted(_ context.Context, userID, fileID string, deleted bool) error {
	f, ok := r.records[fkey(userID, fileID)]
	if !ok {
		return common.ErrNotFound
	}
	f.IsDeleted = deleted
	return nil
}

func (r *fakeFilesRepo) Rename(_ context.Context, userID, fileID, nameEnc string) error {
	f, ok := r.records[fkey(userID, fileID)]
	if !ok {
		return common.ErrNotFound
	}
	if f.IsDeleted {
		return common.ErrConflict
	}
	f.NameEnc = nameEnc
	return nil
}

func (r *fakeFilesRepo) SetAlbum(_ context.Context, userID, fileID, albumID string) error {
	if r.setAlbumErr != nil {
		return r.setAlbumErr
	}
	f, ok := r.records[fkey(userID, fileID)]
	if !ok {
		return common.ErrNotFound
	}
	f.AlbumID = albumID
	return nil
}

func (r *fakeFilesRepo) Delete(_ context.Context, userID, fileID string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	k := fkey(userID, fileID)
	if _, ok := r.records[k]; !ok {
		return common.ErrNotFound
	}
	delete(r.records, k)
	return nil
}

func (r *fakeFilesRepo) Stats(_ context.Context, userID string) (*models.StorageStats, error) {
	st := &models.StorageStats{}
	for _, f := range r.records {
		if f.UserID != userID || f.IsDeleted {
			continue
		}
		st.FileCount++
		st.TotalBytes += f.SizeBytes
		switch f.MediaClass {
		case models.MediaClassImage:
			st.ImageBytes += f.SizeBytes
		case models.MediaClassVideo:
			st.VideoBytes += f.SizeBytes
		case models.MediaClassDocument:
			st.DocumentBytes += f.SizeBytes
		}
	}
	return st, nil
}

// fakeAlbumsRepo keeps album records and counts increment/decrement calls.
type fakeAlbumsRepo struct {
	records map[string]*models.Album

	increments int
	decrements int
}

func newFakeAlbumsRepo() *fakeAlbumsRepo {
	return &fakeAlbumsRepo{records: map[string]*models.Album{}}
}

func (r *fakeAlbumsRepo) Create(_ context.Context, a *models.Album) error {
	k := fkey(a.UserID, a.AlbumID)
	if _, ok := r.records[k]; ok {
		return common.ErrConflict
	}
	cp := *a
	r.records[k] = &cp
	return nil
}

func (r *fakeAlbumsRepo) Get(_ context.Context, userID, albumID string) (*models.Album, error) {
	a, ok := r.records[fkey(userID, albumID)]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAlbumsRepo) List(_ context.Context, userID string) ([]*models.Album, error) {
	var out []*models.Album
	for _, a := range r.records {
		if a.UserID == userID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AlbumID < out[j].AlbumID })
	return out, nil
}

func (r *fakeAlbumsRepo) Rename(_ context.Context, userID, albumID, name string) error {
	a, ok := r.records[fkey(userID, albumID)]
	if !ok {
		return common.ErrNotFound
	}
	a.Name = name
	return nil
}

func (r *fakeAlbumsRepo) Delete(_ context.Context, userID, albumID string) error {
	k := fkey(userID, albumID)
	if _, ok := r.records[k]; !ok {
		return common.ErrNotFound
	}
	delete(r.records, k)
	return nil
}

func (r *fakeAlbumsRepo) IncrementFileCount(_ context.Context, userID, albumID string, coverURL *string) error {
	a, ok := r.records[fkey(userID, albumID)]
	if !ok {
		return common.ErrNotFound
	}
	a.FileCount++
	if coverURL != nil && a.CoverURL == nil {
		a.CoverURL = coverURL
	}
	r.increments++
	return nil
}

func (r *fakeAlbumsRepo) DecrementFileCount(_ context.Context, userID, albumID string) error {
	a, ok := r.records[fkey(userID, albumID)]
	if !ok {
		return common.ErrNotFound
	}
	if a.FileCount > 0 {
		a.FileCount--
	}
	r.decrements++
	return nil
}

// fakeUsersRepo stores profiles and username claims in maps.
type fakeUsersRepo struct {
	profiles map[string]*models.UserProfile
	claims   map[string]string
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{
		profiles: map[string]*models.UserProfile{},
		claims:   map[string]string{},
	}
}

func (r *fakeUsersRepo) ClaimUsername(_ context.Context, username, userID string) error {
	if _, ok := r.claims[username]; ok {
		return common.ErrConflict
	}
	r.claims[username] = userID
	return nil
}

func (r *fakeUsersRepo) CreateProfile(_ context.Context, p *models.UserProfile) error {
	if _, ok := r.profiles[p.UserID]; ok {
		return common.ErrConflict
	}
	cp := *p
	r.profiles[p.UserID] = &cp
	return nil
}

func (r *fakeUsersRepo) GetByID(_ context.Context, userID string) (*models.UserProfile, error) {
	p, ok := r.profiles[userID]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeUsersRepo) GetByUsername(_ context.Context, username string) (*models.UserProfile, error) {
	for _, p := range r.profiles {
		if p.Username == username {
			cp := *p
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *fakeUsersRepo) UsernameTaken(_ context.Context, username string) (bool, error) {
	_, ok := r.claims[username]
	return ok, nil
}

// fakeRepoManager vends the same fakes regardless of the handle passed in.
type fakeRepoManager struct {
	files  *fakeFilesRepo
	albums *fakeAlbumsRepo
	users  *fakeUsersRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		files:  newFakeFilesRepo(),
		albums: newFakeAlbumsRepo(),
		users:  newFakeUsersRepo(),
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Files(dbx.DBTX) files.Repository              { return m.files }
func (m *fakeRepoManager) Albums(dbx.DBTX) albums.Repository            { return m.albums }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository              { return m.users }
