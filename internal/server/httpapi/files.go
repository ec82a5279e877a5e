package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mediavault/mediavault/internal/server/models"
	"github.com/mediavault/mediavault/internal/server/services"
)

// FileOps is the slice of the file service the handlers need.
type FileOps interface {
	Upload(ctx context.Context, owner *services.UploadOwner, in *services.UploadInput) (*models.File, error)
	Detail(ctx context.Context, userID, fileID string) (*services.FileDetail, error)
	List(ctx context.Context, userID, mediaClass string) ([]*models.File, error)
	Content(ctx context.Context, userID, fileID string) (*models.File, []byte, error)
	Rename(ctx context.Context, userID, fileID, newName string) error
	SoftDelete(ctx context.Context, userID, fileID string) error
	Restore(ctx context.Context, userID, fileID string) error
	Stats(ctx context.Context, userID string) (*models.StorageStats, error)
}

// FileResponse is the wire shape of a file record; the display name is
// decoded for the client.
type FileResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	MediaClass  string    `json:"media_class"`
	SizeBytes   int64     `json:"size_bytes"`
	ContentHash string    `json:"content_hash"`
	ContentType string    `json:"content_type"`
	Width       *int      `json:"width,omitempty"`
	Height      *int      `json:"height,omitempty"`
	AlbumID     string    `json:"album_id"`
	IsDeleted   bool      `json:"is_deleted"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toFileResponse(f *models.File) *FileResponse {
	return &FileResponse{
		ID:          f.FileID,
		Name:        services.DecodeName(f.NameEnc),
		MediaClass:  f.MediaClass,
		SizeBytes:   f.SizeBytes,
		ContentHash: f.ContentHash,
		ContentType: f.ContentType,
		Width:       f.Width,
		Height:      f.Height,
		AlbumID:     f.AlbumID,
		IsDeleted:   f.IsDeleted,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

func toFileResponses(fs []*models.File) []*FileResponse {
	out := make([]*FileResponse, 0, len(fs))
	for _, f := range fs {
		out = append(out, toFileResponse(f))
	}
	return out
}

// multipartOverhead is headroom for the multipart boundary, part headers,
// and the small width/height fields, so a file of exactly the configured
// maximum still reaches the service's byte-exact size check.
const multipartOverhead = 64 << 10

// UploadFile accepts a multipart form with the file part plus optional
// width/height fields.
func UploadFile(files FileOps, maxUploadBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			_ = WriteJSON(w, http.StatusUnauthorized, GeneralError(errors.New("not authenticated")))
			return
		}
		if claims.Username == "" {
			_ = WriteJSON(w, http.StatusBadRequest, GeneralError(errors.New("username missing for user")))
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+multipartOverhead)
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				_ = WriteJSON(w, http.StatusRequestEntityTooLarge, GeneralError(errors.New("file too large")))
				return
			}
			_ = WriteJSON(w, http.StatusBadRequest, GeneralError(errors.New("malformed multipart body")))
			return
		}

		part, header, err := r.FormFile("file")
		if err != nil {
			_ = WriteJSON(w, http.StatusBadRequest, GeneralError(errors.New("missing file part")))
			return
		}
		defer part.Close()

		data, err := io.ReadAll(part)
		if err != nil {
			_ = WriteJSON(w, http.StatusBadRequest, GeneralError(errors.New("unreadable file part")))
			return
		}

		in := &services.UploadInput{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Width:       formInt(r, "width"),
			Height:      formInt(r, "height"),
			Data:        data,
		}

		owner := &services.UploadOwner{
			UserID:   claims.Subject,
			Email:    claims.Email,
			Username: claims.Username,
			Name:     claims.Name,
		}

		file, err := files.Upload(r.Context(), owner, in)
		if err != nil {
			WriteError(w, err)
			return
		}

		_ = WriteJSON(w, http.StatusCreated, RequestOK("File uploaded", toFileResponse(file)))
	}
}

func formInt(r *http.Request, field string) *int {
	v := r.FormValue(field)
	if v == "" {
		return nil
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
		return nil
	}
	return &n
}

// ListFiles returns the caller's active files; ?class=image|video|document
// narrows by media class.
func ListFiles(files FileOps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			_ = WriteJSON(w, http.StatusUnauthorized, GeneralError(errors.New("not authenticated")))
			return
		}

		list, err := files.List(r.Context(), claims.Subject, r.URL.Query().Get("class"))
		if err != nil {
			WriteError(w, err)
			return
		}

		_ = WriteJSON(w, http.StatusOK, RequestOK("Files fetched", toFileResponses(list)))
	}
}

// FileDetailResponse pairs the record with a presigned read URL.
type FileDetailResponse struct {
	*FileResponse
	URL string `json:"url"`
}

// GetFile returns one record plus a short-lived presigned URL.
func GetFile(files FileOps) http.HandlerFunc {
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

		detail, err := files.Detail(r.Context(), claims.Subject, id)
		if err != nil {
			WriteError(w, err)
			return
		}

		_ = WriteJSON(w, http.StatusOK, RequestOK("File fetched", &FileDetailResponse{
			FileResponse: toFileResponse(detail.File),
			URL:          detail.URL,
		}))
	}
}

// PreviewFile streams decrypted content, honoring a single contiguous
// byte-range request against the plaintext.
func PreviewFile(files FileOps) http.HandlerFunc {
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

		file, plaintext, err := files.Content(r.Context(), claims.Subject, id)
		if err != nil {
			WriteError(w, err)
			return
		}

		size := int64(len(plaintext))
		w.Header().Set("Accept-Ranges", "bytes")
		w.Header().Set("Content-Type", file.ContentType)

		rangeSpec := r.Header.Get("Range")
		if rangeSpec == "" {
			w.Header().Set("Content-Length", fmt.Sprintf("%d", size))
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(plaintext)
			return
		}

		start, end, err := parseRange(rangeSpec, size)
		if err != nil {
			w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
			_ = WriteJSON(w, http.StatusRequestedRangeNotSatisfiable, GeneralError(errors.New("invalid range")))
			return
		}

		w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, size))
		w.Header().Set("Content-Length", fmt.Sprintf("%d", end-start+1))
		w.WriteHeader(http.StatusPartialContent)
		_, _ = w.Write(plaintext[start : end+1])
	}
}

// DownloadFile returns the full decrypted plaintext as an attachment with a
// percent-encoded filename.
func DownloadFile(files FileOps) http.HandlerFunc {
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

		file, plaintext, err := files.Content(r.Context(), claims.Subject, id)
		if err != nil {
			WriteError(w, err)
			return
		}

		name := services.DecodeName(file.NameEnc)
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf(`attachment; filename="%s"`, url.PathEscape(name)))
		w.Header().Set("Content-Length", fmt.Sprintf("%d", len(plaintext)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(plaintext)
	}
}

// RenameRequest is the body for the rename endpoint.
type RenameRequest struct {
	Name string `json:"name" validate:"required,min=1,max=255"`
}

// RenameFile updates the display name of an active file.
func RenameFile(files FileOps) http.HandlerFunc {
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

		var body RenameRequest
		if !decodeBody(w, r, &body) {
			return
		}

		if err := files.Rename(r.Context(), claims.Subject, id, body.Name); err != nil {
			WriteError(w, err)
			return
		}

		_ = WriteJSON(w, http.StatusOK, RequestOK("File renamed", nil))
	}
}

// DeleteFile soft-deletes into the recycle bin.
func DeleteFile(files FileOps) http.HandlerFunc {
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

		if err := files.SoftDelete(r.Context(), claims.Subject, id); err != nil {
			WriteError(w, err)
			return
		}

		_ = WriteJSON(w, http.StatusOK, RequestOK("File moved to recycle bin", nil))
	}
}

// RestoreFile clears the deletion flag; restoring an active file is a no-op.
func RestoreFile(files FileOps) http.HandlerFunc {
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

		if err := files.Restore(r.Context(), claims.Subject, id); err != nil {
			WriteError(w, err)
			return
		}

		_ = WriteJSON(w, http.StatusOK, RequestOK("File restored", nil))
	}
}

// StorageStats reports aggregate usage for the caller.
func StorageStats(files FileOps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			_ = WriteJSON(w, http.StatusUnauthorized, GeneralError(errors.New("not authenticated")))
			return
		}

		stats, err := files.Stats(r.Context(), claims.Subject)
		if err != nil {
			WriteError(w, err)
			return
		}

		_ = WriteJSON(w, http.StatusOK, RequestOK("Stats fetched", map[string]int64{
			"total_bytes":    stats.TotalBytes,
			"image_bytes":    stats.ImageBytes,
			"video_bytes":    stats.VideoBytes,
			"document_bytes": stats.DocumentBytes,
			"file_count":     stats.FileCount,
		}))
	}
}

// decodeBody decodes and validates a JSON request body, writing the error
// response itself when the body is unusable.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		_ = WriteJSON(w, http.StatusBadRequest, GeneralError(errors.New("request body cannot be empty")))
		return false
	} else if err != nil {
		_ = WriteJSON(w, http.StatusBadRequest, GeneralError(errors.New("malformed request body")))
		return false
	}

	if err := validator.New().Struct(dst); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok {
			_ = WriteJSON(w, http.StatusBadRequest, ValidationError(ve))
			return false
		}
		_ = WriteJSON(w, http.StatusBadRequest, GeneralError(errors.New("invalid request body")))
		return false
	}

	return true
}
