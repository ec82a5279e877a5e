package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediavault/mediavault/internal/common"
	"github.com/mediavault/mediavault/internal/cryptox"
	"github.com/mediavault/mediavault/internal/server/models"
)

func newAlbumServiceForTest(t *testing.T) (*AlbumService, *FileService, *fakeRepoManager, *fakeStore) {
	t.Helper()
	rm := newFakeRepoManager()
	store := newFakeStore()
	files := NewFileService(nil, rm, store, cryptox.NewCipher("test-master"), testConfig(), noopLogger{})
	albums := NewAlbumService(nil, rm, store, testConfig(), noopLogger{})
	return albums, files, rm, store
}

func TestAlbumService_CreateAndList(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newAlbumServiceForTest(t)

	album, err := svc.Create(ctx, "alice", "Holiday")
	require.NoError(t, err)
	assert.Equal(t, "Holiday", album.Name)
	assert.Equal(t, 0, album.FileCount)
	assert.Nil(t, album.CoverURL)

	list, err := svc.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, album.AlbumID, list[0].AlbumID)

	_, err = svc.Create(ctx, "alice", "")
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestAlbumService_Rename(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newAlbumServiceForTest(t)

	album, err := svc.Create(ctx, "alice", "Old")
	require.NoError(t, err)

	require.NoError(t, svc.Rename(ctx, "alice", album.AlbumID, "New"))

	got, err := svc.Get(ctx, "alice", album.AlbumID)
	require.NoError(t, err)
	assert.Equal(t, "New", got.Name)

	assert.ErrorIs(t, svc.Rename(ctx, "alice", album.AlbumID, ""), common.ErrValidation)
	assert.ErrorIs(t, svc.Rename(ctx, "alice", "missing", "x"), common.ErrNotFound)
}

func TestAlbumService_NamesAreTrimmed(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newAlbumServiceForTest(t)

	album, err := svc.Create(ctx, "alice", "  Holiday  ")
	require.NoError(t, err)
	assert.Equal(t, "Holiday", album.Name)

	require.NoError(t, svc.Rename(ctx, "alice", album.AlbumID, "\tSummer "))
	got, err := svc.Get(ctx, "alice", album.AlbumID)
	require.NoError(t, err)
	assert.Equal(t, "Summer", got.Name)

	_, err = svc.Create(ctx, "alice", "   ")
	assert.ErrorIs(t, err, common.ErrValidation)
	assert.ErrorIs(t, svc.Rename(ctx, "alice", album.AlbumID, " \t "), common.ErrValidation)
}

func TestAlbumService_AddFile(t *testing.T) {
	ctx := context.Background()
	svc, files, rm, store := newAlbumServiceForTest(t)
	seedProfile(rm, "alice")

	album, err := svc.Create(ctx, "alice", "Holiday")
	require.NoError(t, err)
	fileID := uploadTestFile(t, files, "alice", "beach.png")

	require.NoError(t, svc.AddFile(ctx, "alice", album.AlbumID, fileID))

	got, err := svc.Get(ctx, "alice", album.AlbumID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.FileCount)

	// First image became the cover, presigned with the long-lived TTL.
	require.NotNil(t, got.CoverURL)
	require.Len(t, store.presignTTLs, 1)
	assert.Equal(t, 24*time.Hour, store.presignTTLs[0])

	linked, err := rm.files.Get(ctx, "alice", fileID)
	require.NoError(t, err)
	assert.Equal(t, album.AlbumID, linked.AlbumID)
}

func TestAlbumService_AddFile_IdempotentForSameAlbum(t *testing.T) {
	ctx := context.Background()
	svc, files, rm, _ := newAlbumServiceForTest(t)
	seedProfile(rm, "alice")

	album, err := svc.Create(ctx, "alice", "Holiday")
	require.NoError(t, err)
	fileID := uploadTestFile(t, files, "alice", "beach.png")

	require.NoError(t, svc.AddFile(ctx, "alice", album.AlbumID, fileID))
	require.NoError(t, svc.AddFile(ctx, "alice", album.AlbumID, fileID))

	assert.Equal(t, 1, rm.albums.increments)
}

func TestAlbumService_AddFile_Rejections(t *testing.T) {
	ctx := context.Background()
	svc, files, rm, _ := newAlbumServiceForTest(t)
	seedProfile(rm, "alice")

	album, err := svc.Create(ctx, "alice", "Holiday")
	require.NoError(t, err)
	other, err := svc.Create(ctx, "alice", "Work")
	require.NoError(t, err)

	binned := uploadTestFile(t, files, "alice", "trash.png")
	require.NoError(t, files.SoftDelete(ctx, "alice", binned))
	assert.ErrorIs(t, svc.AddFile(ctx, "alice", album.AlbumID, binned), common.ErrValidation)

	taken := uploadTestFile(t, files, "alice", "taken.png")
	require.NoError(t, svc.AddFile(ctx, "alice", album.AlbumID, taken))
	assert.ErrorIs(t, svc.AddFile(ctx, "alice", other.AlbumID, taken), common.ErrConflict)

	assert.ErrorIs(t, svc.AddFile(ctx, "alice", "missing", taken), common.ErrNotFound)
	assert.ErrorIs(t, svc.AddFile(ctx, "alice", album.AlbumID, "missing"), common.ErrNotFound)
}

func TestAlbumService_AddFile_PresignFailureStillCounts(t *testing.T) {
	ctx := context.Background()
	svc, files, rm, store := newAlbumServiceForTest(t)
	seedProfile(rm, "alice")

	album, err := svc.Create(ctx, "alice", "Holiday")
	require.NoError(t, err)
	fileID := uploadTestFile(t, files, "alice", "beach.png")

	store.presignErr = errors.New("presign down")
	require.NoError(t, svc.AddFile(ctx, "alice", album.AlbumID, fileID))

	got, err := svc.Get(ctx, "alice", album.AlbumID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.FileCount)
	assert.Nil(t, got.CoverURL)
}

func TestAlbumService_RemoveFile(t *testing.T) {
	ctx := context.Background()
	svc, files, rm, _ := newAlbumServiceForTest(t)
	seedProfile(rm, "alice")

	album, err := svc.Create(ctx, "alice", "Holiday")
	require.NoError(t, err)
	fileID := uploadTestFile(t, files, "alice", "beach.png")
	loose := uploadTestFile(t, files, "alice", "loose.png")

	require.NoError(t, svc.AddFile(ctx, "alice", album.AlbumID, fileID))

	// A file not in this album cannot be removed from it.
	assert.ErrorIs(t, svc.RemoveFile(ctx, "alice", album.AlbumID, loose), common.ErrValidation)

	require.NoError(t, svc.RemoveFile(ctx, "alice", album.AlbumID, fileID))

	got, err := svc.Get(ctx, "alice", album.AlbumID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.FileCount)

	unlinked, err := rm.files.Get(ctx, "alice", fileID)
	require.NoError(t, err)
	assert.Equal(t, models.NoAlbum, unlinked.AlbumID)
}

func TestAlbumService_Delete_UnlinksAllFiles(t *testing.T) {
	ctx := context.Background()
	svc, files, rm, _ := newAlbumServiceForTest(t)
	seedProfile(rm, "alice")

	album, err := svc.Create(ctx, "alice", "Holiday")
	require.NoError(t, err)

	var ids []string
	for _, name := range []string{"a.png", "b.png", "c.png"} {
		id := uploadTestFile(t, files, "alice", name)
		require.NoError(t, svc.AddFile(ctx, "alice", album.AlbumID, id))
		ids = append(ids, id)
	}

	require.NoError(t, svc.Delete(ctx, "alice", album.AlbumID))

	_, err = svc.Get(ctx, "alice", album.AlbumID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	for _, id := range ids {
		f, err := rm.files.Get(ctx, "alice", id)
		require.NoError(t, err)
		assert.Equal(t, models.NoAlbum, f.AlbumID)
	}
}

func TestAlbumService_Delete_UnlinksBinnedFiles(t *testing.T) {
	ctx := context.Background()
	svc, files, rm, _ := newAlbumServiceForTest(t)
	seedProfile(rm, "alice")

	album, err := svc.Create(ctx, "alice", "Holiday")
	require.NoError(t, err)

	binned := uploadTestFile(t, files, "alice", "binned.png")
	require.NoError(t, svc.AddFile(ctx, "alice", album.AlbumID, binned))
	require.NoError(t, files.SoftDelete(ctx, "alice", binned))

	// The unlink sweep must reach members sitting in the recycle bin too,
	// or they would keep pointing at a deleted album.
	require.NoError(t, svc.Delete(ctx, "alice", album.AlbumID))

	f, err := rm.files.Get(ctx, "alice", binned)
	require.NoError(t, err)
	assert.Equal(t, models.NoAlbum, f.AlbumID)
}

func TestAlbumService_Files_Pagination(t *testing.T) {
	ctx := context.Background()
	svc, files, rm, _ := newAlbumServiceForTest(t)
	seedProfile(rm, "alice")

	album, err := svc.Create(ctx, "alice", "Holiday")
	require.NoError(t, err)

	for _, name := range []string{"a.png", "b.png", "c.png"} {
		id := uploadTestFile(t, files, "alice", name)
		require.NoError(t, svc.AddFile(ctx, "alice", album.AlbumID, id))
	}

	page1, err := svc.Files(ctx, "alice", album.AlbumID, "", 2)
	require.NoError(t, err)
	require.Len(t, page1, 2)

	page2, err := svc.Files(ctx, "alice", album.AlbumID, page1[1].FileID, 2)
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.NotEqual(t, page1[0].FileID, page2[0].FileID)
	assert.NotEqual(t, page1[1].FileID, page2[0].FileID)

	_, err = svc.Files(ctx, "alice", "missing", "", 10)
	assert.ErrorIs(t, err, common.ErrNotFound)
}
