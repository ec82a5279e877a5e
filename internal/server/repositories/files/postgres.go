package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mediavault/mediavault/internal/common"
	"github.com/mediavault/mediavault/internal/dbx"
	"github.com/mediavault/mediavault/internal/server/models"
)

const fileColumns = `user_id, file_id, name_enc, storage_key, media_class, size_bytes,
		content_hash, content_type, width, height, album_id, is_deleted, created_at, updated_at`

// PostgresRepository implements file metadata storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, f *models.File) error {
	query := `
		INSERT INTO files (` + fileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := r.db.ExecContext(ctx, query,
		f.UserID, f.FileID, f.NameEnc, f.StorageKey, f.MediaClass, f.SizeBytes,
		f.ContentHash, f.ContentType, f.Width, f.Height, f.AlbumID, f.IsDeleted,
		f.CreatedAt, f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%w: insert file: %v", common.ErrStorage, err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID, fileID string) (*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE user_id=$1 AND file_id=$2`

	f, err := scanFile(r.db.QueryRowContext(ctx, query, userID, fileID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("%w: select file: %v", common.ErrStorage, err)
	}
	return f, nil
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, userID string) ([]*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files
		WHERE user_id=$1 AND NOT is_deleted
		ORDER BY created_at DESC, file_id`
	return r.selectFiles(ctx, query, userID)
}

func (r *PostgresRepository) ListByClass(ctx context.Context, userID, mediaClass string) ([]*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files
		WHERE user_id=$1 AND media_class=$2 AND NOT is_deleted
		ORDER BY created_at DESC, file_id`
	return r.selectFiles(ctx, query, userID, mediaClass)
}

func (r *PostgresRepository) ListDeleted(ctx context.Context, userID string) ([]*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files
		WHERE user_id=$1 AND is_deleted
		ORDER BY updated_at DESC, file_id`
	return r.selectFiles(ctx, query, userID)
}

func (r *PostgresRepository) ListByAlbum(ctx context.Context, userID, albumID, afterFileID string, limit int) ([]*models.File, error) {
	// The cursor binds as NULL on the first page; an empty string cannot be
	// bound against the uuid column.
	cursor := sql.NullString{String: afterFileID, Valid: afterFileID != ""}
	query := `SELECT ` + fileColumns + ` FROM files
		WHERE user_id=$1 AND album_id=$2 AND ($3::uuid IS NULL OR file_id > $3)
		ORDER BY file_id
		LIMIT $4`
	return r.selectFiles(ctx, query, userID, albumID, cursor, limit)
}

func (r *PostgresRepository) SetDeleted(ctx context.Context, userID, fileID string, deleted bool) error {
	query := `UPDATE files SET is_deleted=$3, updated_at=now()
		WHERE user_id=$1 AND file_id=$2`
	return r.execExpectingRow(ctx, query, userID, fileID, deleted)
}

func (r *PostgresRepository) Rename(ctx context.Context, userID, fileID, nameEnc string) error {
	query := `UPDATE files SET name_enc=$3, updated_at=now()
		WHERE user_id=$1 AND file_id=$2 AND NOT is_deleted`
	res, err := r.db.ExecContext(ctx, query, userID, fileID, nameEnc)
	if err != nil {
		return fmt.Errorf("%w: rename file: %v", common.ErrStorage, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 1 {
		return nil
	}

	// The precondition failed: distinguish a missing record from a
	// soft-deleted one.
	if _, err := r.Get(ctx, userID, fileID); err != nil {
		return err
	}
	return common.ErrConflict
}

func (r *PostgresRepository) SetAlbum(ctx context.Context, userID, fileID, albumID string) error {
	query := `UPDATE files SET album_id=$3, updated_at=now()
		WHERE user_id=$1 AND file_id=$2`
	return r.execExpectingRow(ctx, query, userID, fileID, albumID)
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, fileID string) error {
	query := `DELETE FROM files WHERE user_id=$1 AND file_id=$2`
	return r.execExpectingRow(ctx, query, userID, fileID)
}

func (r *PostgresRepository) Stats(ctx context.Context, userID string) (*models.StorageStats, error) {
	query := `SELECT
			COALESCE(SUM(size_bytes), 0),
			COALESCE(SUM(size_bytes) FILTER (WHERE media_class='image'), 0),
			COALESCE(SUM(size_bytes) FILTER (WHERE media_class='video'), 0),
			COALESCE(SUM(size_bytes) FILTER (WHERE media_class='document'), 0),
			COUNT(*)
		FROM files WHERE user_id=$1 AND NOT is_deleted`

	stats := &models.StorageStats{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&stats.TotalBytes, &stats.ImageBytes, &stats.VideoBytes, &stats.DocumentBytes, &stats.FileCount)
	if err != nil {
		return nil, fmt.Errorf("%w: storage stats: %v", common.ErrStorage, err)
	}
	return stats, nil
}

// execExpectingRow runs an exists-conditioned write and maps zero affected
// rows to common.ErrNotFound.
func (r *PostgresRepository) execExpectingRow(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrStorage, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

func (r *PostgresRepository) selectFiles(ctx context.Context, query string, args ...any) ([]*models.File, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: select files: %v", common.ErrStorage, err)
	}
	defer rows.Close()

	var result []*models.File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row rowScanner) (*models.File, error) {
	f := &models.File{}
	err := row.Scan(&f.UserID, &f.FileID, &f.NameEnc, &f.StorageKey, &f.MediaClass,
		&f.SizeBytes, &f.ContentHash, &f.ContentType, &f.Width, &f.Height,
		&f.AlbumID, &f.IsDeleted, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return f, nil
}
