package users

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mediavault/mediavault/internal/common"
	"github.com/mediavault/mediavault/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func sampleProfile() *models.UserProfile {
	return &models.UserProfile{
		UserID:    "u1",
		Email:     "alice@example.com",
		Username:  "alice",
		Name:      "Alice",
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func profileRows(profiles ...*models.UserProfile) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"user_id", "email", "username", "name", "created_at"})
	for _, p := range profiles {
		rows.AddRow(p.UserID, p.Email, p.Username, p.Name, p.CreatedAt)
	}
	return rows
}

func TestClaimUsername_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO usernames .* ON CONFLICT \(username\) DO NOTHING`).
		WithArgs("alice", "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.ClaimUsername(context.Background(), "alice", "u1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestClaimUsername_TakenIsConflict(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	// DO NOTHING swallows the duplicate; zero affected rows means someone
	// else holds the name.
	mock.ExpectExec(`INSERT INTO usernames .* ON CONFLICT \(username\) DO NOTHING`).
		WithArgs("alice", "u2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.ClaimUsername(context.Background(), "alice", "u2")
	if !errors.Is(err, common.ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}
}

func TestClaimUsername_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO usernames`).
		WillReturnError(errors.New("boom"))

	err := repo.ClaimUsername(context.Background(), "alice", "u1")
	if !errors.Is(err, common.ErrStorage) {
		t.Fatalf("want ErrStorage, got %v", err)
	}
}

func TestCreateProfile_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	p := sampleProfile()

	mock.ExpectExec(`INSERT INTO user_profiles .* ON CONFLICT \(user_id\) DO NOTHING`).
		WithArgs(p.UserID, p.Email, p.Username, p.Name, p.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.CreateProfile(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreateProfile_ExistingIsConflict(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	p := sampleProfile()

	mock.ExpectExec(`INSERT INTO user_profiles .* ON CONFLICT \(user_id\) DO NOTHING`).
		WithArgs(p.UserID, p.Email, p.Username, p.Name, p.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.CreateProfile(context.Background(), p)
	if !errors.Is(err, common.ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}
}

func TestGetByID_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	p := sampleProfile()
	mock.ExpectQuery(`SELECT .* FROM user_profiles WHERE user_id=\$1`).
		WithArgs("u1").
		WillReturnRows(profileRows(p))

	got, err := repo.GetByID(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Username != "alice" {
		t.Errorf("username mismatch: %s", got.Username)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM user_profiles WHERE user_id=\$1`).
		WithArgs("missing").
		WillReturnRows(profileRows())

	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestGetByUsername_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	p := sampleProfile()
	mock.ExpectQuery(`SELECT .* FROM user_profiles WHERE username=\$1`).
		WithArgs("alice").
		WillReturnRows(profileRows(p))

	got, err := repo.GetByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.UserID != "u1" {
		t.Errorf("user id mismatch: %s", got.UserID)
	}
}

func TestUsernameTaken(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM usernames WHERE username=\$1\)`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	taken, err := repo.UsernameTaken(context.Background(), "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !taken {
		t.Error("want taken=true")
	}
}

func TestUsernameTaken_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT EXISTS`).
		WillReturnError(errors.New("boom"))

	_, err := repo.UsernameTaken(context.Background(), "alice")
	if !errors.Is(err, common.ErrStorage) {
		t.Fatalf("want ErrStorage, got %v", err)
	}
}
