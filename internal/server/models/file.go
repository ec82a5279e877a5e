// Package models defines server-side data models persisted in the database.
package models

import "time"

// Media classes a file can be declared as, derived from its MIME type.
const (
	MediaClassImage    = "image"
	MediaClassVideo    = "video"
	MediaClassDocument = "document"
)

// NoAlbum is the sentinel AlbumID for files that belong to no album.
const NoAlbum = "none"

// File describes metadata for one uploaded file. The encrypted content
// itself lives in object storage under StorageKey; this record stores only
// ciphertext-derived data (plaintext hash, encoded display name).
type File struct {
	// UserID is the owner's identity subject. (UserID, FileID) is the sole
	// addressing key for metadata.
	UserID string
	// FileID is an immutable UUID allocated once, before either store write.
	FileID string

	// NameEnc is the base64-encoded display name. Reversible encoding,
	// not encryption.
	NameEnc string
	// StorageKey locates the ciphertext blob in the object store. Never
	// reused after permanent deletion.
	StorageKey string
	// MediaClass is one of MediaClassImage/Video/Document.
	MediaClass string
	// SizeBytes is the plaintext size.
	SizeBytes int64
	// ContentHash is the hex SHA-256 of the plaintext, computed at
	// encryption time.
	ContentHash string
	// ContentType is the declared MIME type, replayed on preview responses.
	ContentType string

	// Width and Height are optional pixel dimensions.
	Width  *int
	Height *int

	// AlbumID links the file to an album owned by the same user, or NoAlbum.
	AlbumID string

	// IsDeleted marks the file as sitting in the recycle bin.
	IsDeleted bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// StorageStats aggregates non-deleted file usage for one owner.
type StorageStats struct {
	TotalBytes    int64
	ImageBytes    int64
	VideoBytes    int64
	DocumentBytes int64
	FileCount     int64
}
