package models

import "time"

// Album is a user-created collection of files. FileCount is maintained
// incrementally (incremented on link, decremented on unlink) and can drift
// under partial failure; it is not recomputed on read.
type Album struct {
	UserID  string
	AlbumID string

	Name string
	// CoverURL is set once, from the first image linked, and is not
	// refreshed when that file is later removed.
	CoverURL  *string
	FileCount int

	CreatedAt time.Time
	UpdatedAt time.Time
}
