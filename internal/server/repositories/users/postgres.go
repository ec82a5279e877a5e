package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mediavault/mediavault/internal/common"
	"github.com/mediavault/mediavault/internal/dbx"
	"github.com/mediavault/mediavault/internal/server/models"
)

// PostgresRepository implements profile storage over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ClaimUsername(ctx context.Context, username, userID string) error {
	query := `INSERT INTO usernames (username, user_id) VALUES ($1, $2)
		ON CONFLICT (username) DO NOTHING`
	return r.insertExpectingRow(ctx, query, username, userID)
}

func (r *PostgresRepository) CreateProfile(ctx context.Context, p *models.UserProfile) error {
	query := `INSERT INTO user_profiles (user_id, email, username, name, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO NOTHING`
	return r.insertExpectingRow(ctx, query, p.UserID, p.Email, p.Username, p.Name, p.CreatedAt)
}

func (r *PostgresRepository) GetByID(ctx context.Context, userID string) (*models.UserProfile, error) {
	query := `SELECT user_id, email, username, name, created_at
		FROM user_profiles WHERE user_id=$1`
	return r.scanProfile(r.db.QueryRowContext(ctx, query, userID))
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.UserProfile, error) {
	query := `SELECT user_id, email, username, name, created_at
		FROM user_profiles WHERE username=$1`
	return r.scanProfile(r.db.QueryRowContext(ctx, query, username))
}

func (r *PostgresRepository) UsernameTaken(ctx context.Context, username string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM usernames WHERE username=$1)`

	var taken bool
	if err := r.db.QueryRowContext(ctx, query, username).Scan(&taken); err != nil {
		return false, fmt.Errorf("%w: username lookup: %v", common.ErrStorage, err)
	}
	return taken, nil
}

func (r *PostgresRepository) scanProfile(row *sql.Row) (*models.UserProfile, error) {
	p := &models.UserProfile{}
	err := row.Scan(&p.UserID, &p.Email, &p.Username, &p.Name, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("%w: select profile: %v", common.ErrStorage, err)
	}
	return p, nil
}

// insertExpectingRow maps a conflict-suppressed insert's zero affected rows
// to common.ErrConflict.
func (r *PostgresRepository) insertExpectingRow(ctx context.Context, query string, args ...any) error {
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
		return common.ErrConflict
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
