// Package objstore adapts an S3-compatible backend into the blob operations
// the file lifecycle needs: put/get/delete/head of opaque encrypted blobs,
// presigned read URLs and stable public URLs.
package objstore

import (
	"context"
	"time"
)

// DefaultPresignTTL bounds presigned read URLs when callers pass no TTL.
const DefaultPresignTTL = 900 * time.Second

// Store is the blob capability consumed by the lifecycle engines.
type Store interface {
	// Put stores data under key. No partial-write state is exposed: either
	// the blob is fully written or an error is returned.
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// Get returns the blob stored under key, or common.ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes the blob under key. Deleting an absent key is not an
	// error, so cleanup paths can call it unconditionally.
	Delete(ctx context.Context, key string) error

	// Head returns the stored size of the blob, or common.ErrNotFound.
	Head(ctx context.Context, key string) (int64, error)

	// Presign returns a time-bounded read-only URL for key. When
	// responseFilename is non-empty the URL forces an attachment
	// disposition with that (percent-encoded) name.
	Presign(ctx context.Context, key string, ttl time.Duration, responseFilename string) (string, error)

	// PublicURL returns a stable CDN-style URL when a content-delivery
	// domain is configured, else a direct backend URL.
	PublicURL(key string) string
}

// Config holds the backend settings for an S3 store.
type Config struct {
	Bucket       string
	Region       string
	AccessKey    string
	SecretKey    string
	BaseEndpoint string
	// CDNDomain, when set, is used to build public URLs instead of the
	// backend endpoint.
	CDNDomain string
}
