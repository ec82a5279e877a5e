package albums

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mediavault/mediavault/internal/common"
	"github.com/mediavault/mediavault/internal/dbx"
	"github.com/mediavault/mediavault/internal/server/models"
)

const albumColumns = `user_id, album_id, name, cover_url, file_count, created_at, updated_at`

// PostgresRepository implements album storage over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, a *models.Album) error {
	query := `
		INSERT INTO albums (` + albumColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		a.UserID, a.AlbumID, a.Name, a.CoverURL, a.FileCount, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%w: insert album: %v", common.ErrStorage, err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID, albumID string) (*models.Album, error) {
	query := `SELECT ` + albumColumns + ` FROM albums WHERE user_id=$1 AND album_id=$2`

	a := &models.Album{}
	err := r.db.QueryRowContext(ctx, query, userID, albumID).Scan(
		&a.UserID, &a.AlbumID, &a.Name, &a.CoverURL, &a.FileCount, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("%w: select album: %v", common.ErrStorage, err)
	}
	return a, nil
}

func (r *PostgresRepository) List(ctx context.Context, userID string) ([]*models.Album, error) {
	query := `SELECT ` + albumColumns + ` FROM albums
		WHERE user_id=$1
		ORDER BY created_at DESC, album_id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: select albums: %v", common.ErrStorage, err)
	}
	defer rows.Close()

	var result []*models.Album
	for rows.Next() {
		a := &models.Album{}
		if err := rows.Scan(&a.UserID, &a.AlbumID, &a.Name, &a.CoverURL, &a.FileCount,
			&a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Rename(ctx context.Context, userID, albumID, name string) error {
	query := `UPDATE albums SET name=$3, updated_at=now()
		WHERE user_id=$1 AND album_id=$2`
	return r.execExpectingRow(ctx, query, userID, albumID, name)
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, albumID string) error {
	query := `DELETE FROM albums WHERE user_id=$1 AND album_id=$2`
	return r.execExpectingRow(ctx, query, userID, albumID)
}

func (r *PostgresRepository) IncrementFileCount(ctx context.Context, userID, albumID string, coverURL *string) error {
	// COALESCE keeps an existing cover: the first image linked wins and the
	// URL is not refreshed afterwards.
	query := `UPDATE albums
		SET file_count = file_count + 1,
		    cover_url  = COALESCE(cover_url, $3),
		    updated_at = now()
		WHERE user_id=$1 AND album_id=$2`
	return r.execExpectingRow(ctx, query, userID, albumID, coverURL)
}

func (r *PostgresRepository) DecrementFileCount(ctx context.Context, userID, albumID string) error {
	// GREATEST floors the count at zero when unlinking more than was linked.
	query := `UPDATE albums
		SET file_count = GREATEST(file_count - 1, 0),
		    updated_at = now()
		WHERE user_id=$1 AND album_id=$2`
	return r.execExpectingRow(ctx, query, userID, albumID)
}

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
