package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/mediavault/mediavault/internal/common"
	"github.com/mediavault/mediavault/internal/server/models"
)

// AlbumOps is the slice of the album service the handlers need.
type AlbumOps interface {
	Create(ctx context.Context, userID, name string) (*models.Album, error)
	Get(ctx context.Context, userID, albumID string) (*models.Album, error)
	List(ctx context.Context, userID string) ([]*models.Album, error)
	Files(ctx context.Context, userID, albumID, afterFileID string, limit int) ([]*models.File, error)
	Rename(ctx context.Context, userID, albumID, name string) error
	Delete(ctx context.Context, userID, albumID string) error
	AddFile(ctx context.Context, userID, albumID, fileID string) error
	RemoveFile(ctx context.Context, userID, albumID, fileID string) error
}

// AlbumResponse is the wire shape of an album.
type AlbumResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CoverURL  *string   `json:"cover_url,omitempty"`
	FileCount int       `json:"file_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toAlbumResponse(a *models.Album) *AlbumResponse {
	return &AlbumResponse{
		ID:        a.AlbumID,
		Name:      a.Name,
		CoverURL:  a.CoverURL,
		FileCount: a.FileCount,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// AlbumRequest is the body for album create and rename.
type AlbumRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

// CreateAlbum makes a new empty album.
func CreateAlbum(albums AlbumOps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			_ = WriteJSON(w, http.StatusUnauthorized, GeneralError(errors.New("not authenticated")))
			return
		}

		var body AlbumRequest
		if !decodeBody(w, r, &body) {
			return
		}

		album, err := albums.Create(r.Context(), claims.Subject, body.Name)
		if err != nil {
			WriteError(w, err)
			return
		}

		_ = WriteJSON(w, http.StatusCreated, RequestOK("Album created", toAlbumResponse(album)))
	}
}

// ListAlbums returns the caller's albums.
func ListAlbums(albums AlbumOps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			_ = WriteJSON(w, http.StatusUnauthorized, GeneralError(errors.New("not authenticated")))
			return
		}

		list, err := albums.List(r.Context(), claims.Subject)
		if err != nil {
			WriteError(w, err)
			return
		}

		out := make([]*AlbumResponse, 0, len(list))
		for _, a := range list {
			out = append(out, toAlbumResponse(a))
		}
		_ = WriteJSON(w, http.StatusOK, RequestOK("Albums fetched", out))
	}
}

// GetAlbum returns one album.
func GetAlbum(albums AlbumOps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			_ = WriteJSON(w, http.StatusUnauthorized, GeneralError(errors.New("not authenticated")))
			return
		}

		id, err := pathUUID(r, "id")
		if err != nil {
			WriteError(w, err)
			return
		}

		album, err := albums.Get(r.Context(), claims.Subject, id)
		if err != nil {
			WriteError(w, err)
			return
		}

		_ = WriteJSON(w, http.StatusOK, RequestOK("Album fetched", toAlbumResponse(album)))
	}
}

// AlbumFilesPage carries one page of an album's files plus the cursor for
// the next page, empty when the listing is exhausted.
type AlbumFilesPage struct {
	Files      []*FileResponse `json:"files"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

// ListAlbumFiles pages through an album's files via ?after= and ?limit=.
func ListAlbumFiles(albums AlbumOps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			_ = WriteJSON(w, http.StatusUnauthorized, GeneralError(errors.New("not authenticated")))
			return
		}

		id, err := pathUUID(r, "id")
		if err != nil {
			WriteError(w, err)
			return
		}

		after := r.URL.Query().Get("after")
		if after != "" {
			if _, err := uuid.Parse(after); err != nil {
				WriteError(w, fmt.Errorf("%w: malformed cursor", common.ErrValidation))
				return
			}
		}

		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			limit, _ = strconv.Atoi(v)
		}

		page, err := albums.Files(r.Context(), claims.Subject, id, after, limit)
		if err != nil {
			WriteError(w, err)
			return
		}

		out := &AlbumFilesPage{Files: toFileResponses(page)}
		if len(page) > 0 && len(page) == limit {
			out.NextCursor = page[len(page)-1].FileID
		}
		_ = WriteJSON(w, http.StatusOK, RequestOK("Album files fetched", out))
	}
}

// RenameAlbum updates the album's display name.
func RenameAlbum(albums AlbumOps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			_ = WriteJSON(w, http.StatusUnauthorized, GeneralError(errors.New("not authenticated")))
			return
		}

		id, err := pathUUID(r, "id")
		if err != nil {
			WriteError(w, err)
			return
		}

		var body AlbumRequest
		if !decodeBody(w, r, &body) {
			return
		}

		if err := albums.Rename(r.Context(), claims.Subject, id, body.Name); err != nil {
			WriteError(w, err)
			return
		}

		_ = WriteJSON(w, http.StatusOK, RequestOK("Album renamed", nil))
	}
}

// DeleteAlbum unlinks all files and removes the album.
func DeleteAlbum(albums AlbumOps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			_ = WriteJSON(w, http.StatusUnauthorized, GeneralError(errors.New("not authenticated")))
			return
		}

		id, err := pathUUID(r, "id")
		if err != nil {
			WriteError(w, err)
			return
		}

		if err := albums.Delete(r.Context(), claims.Subject, id); err != nil {
			WriteError(w, err)
			return
		}

		_ = WriteJSON(w, http.StatusOK, RequestOK("Album deleted", nil))
	}
}

// AddAlbumFile links a file into the album.
func AddAlbumFile(albums AlbumOps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			_ = WriteJSON(w, http.StatusUnauthorized, GeneralError(errors.New("not authenticated")))
			return
		}

		id, err := pathUUID(r, "id")
		if err != nil {
			WriteError(w, err)
			return
		}
		fileID, err := pathUUID(r, "fileID")
		if err != nil {
			WriteError(w, err)
			return
		}

		if err := albums.AddFile(r.Context(), claims.Subject, id, fileID); err != nil {
			WriteError(w, err)
			return
		}

		_ = WriteJSON(w, http.StatusOK, RequestOK("File added to album", nil))
	}
}

// RemoveAlbumFile unlinks a file from the album.
func RemoveAlbumFile(albums AlbumOps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			_ = WriteJSON(w, http.StatusUnauthorized, GeneralError(errors.New("not authenticated")))
			return
		}

		id, err := pathUUID(r, "id")
		if err != nil {
			WriteError(w, err)
			return
		}
		fileID, err := pathUUID(r, "fileID")
		if err != nil {
			WriteError(w, err)
			return
		}

		if err := albums.RemoveFile(r.Context(), claims.Subject, id, fileID); err != nil {
			WriteError(w, err)
			return
		}

		_ = WriteJSON(w, http.StatusOK, RequestOK("File removed from album", nil))
	}
}
