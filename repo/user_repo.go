package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Skryldev/postboard/db"
	"github.com/Skryldev/postboard/models"
)

// ─────────────────────────────────────────────────────────────────────────────
// UserRepository interface — for mocking in tests
// ─────────────────────────────────────────────────────────────────────────────

//go:generate mockgen -source=user_repo.go -destination=../mocks/user_repo_mock.go -package=mocks

// UserRepository defines the contract for user persistence operations.
// Users are only ever written by upsert; there is no delete.
type UserRepository interface {
	Upsert(ctx context.Context, u models.User) error
	PrepareUpsert(ctx context.Context) (UserUpserter, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	Count(ctx context.Context) (int64, error)
}

// UserUpserter writes users through one prepared statement. It is meant for
// a single bulk run and must be closed afterwards.
type UserUpserter interface {
	Upsert(ctx context.Context, u models.User) error
	Close() error
}

// ─────────────────────────────────────────────────────────────────────────────
// userRepo — concrete implementation
// ─────────────────────────────────────────────────────────────────────────────

// userRepo is the production implementation backed by a db.Querier.
type userRepo struct {
	q db.Querier
}

// NewUserRepo returns a UserRepository backed by q.
// q can be a *db.DB or *db.Tx; both satisfy db.Querier.
func NewUserRepo(q db.Querier) UserRepository {
	return &userRepo{q: q}
}

// ─────────────────────────────────────────────────────────────────────────────
// SQL — written with '?' placeholders and rebound per dialect
// ─────────────────────────────────────────────────────────────────────────────

var userColumns = []string{"id", "name", "username", "email", "phone", "website"}

const (
	sqlGetUserByID = `
		SELECT id, name, username, email, phone, website
		FROM   users
		WHERE  id = ?`

	sqlCountUsers = `
		SELECT COUNT(*) FROM users`
)

func (r *userRepo) upsertSQL() string {
	return r.q.Dialect().Upsert("users", "id", userColumns)
}

// ─────────────────────────────────────────────────────────────────────────────
// Upsert
// ─────────────────────────────────────────────────────────────────────────────

// Upsert inserts u or, when a user with u.ID exists, overwrites every other
// column. A nil Phone or Website is written as NULL, clearing a previous value.
func (r *userRepo) Upsert(ctx context.Context, u models.User) error {
	if _, err := r.q.Exec(ctx, r.upsertSQL(), userArgs(u)...); err != nil {
		return fmt.Errorf("repo/user: upsert %d: %w", u.ID, err)
	}
	return nil
}

// PrepareUpsert prepares the upsert statement once for repeated use.
func (r *userRepo) PrepareUpsert(ctx context.Context) (UserUpserter, error) {
	stmt, err := r.q.Prepare(ctx, r.upsertSQL())
	if err != nil {
		return nil, fmt.Errorf("repo/user: prepare upsert: %w", err)
	}
	return &userUpserter{stmt: stmt}, nil
}

type userUpserter struct {
	stmt *db.Stmt
}

func (p *userUpserter) Upsert(ctx context.Context, u models.User) error {
	if _, err := p.stmt.Exec(ctx, userArgs(u)...); err != nil {
		return fmt.Errorf("repo/user: upsert %d: %w", u.ID, err)
	}
	return nil
}

func (p *userUpserter) Close() error { return p.stmt.Close() }

func userArgs(u models.User) []any {
	return []any{u.ID, u.Name, u.Username, u.Email, NullString(u.Phone), NullString(u.Website)}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetByID
// ─────────────────────────────────────────────────────────────────────────────

// GetByID returns a single user by primary key.
// Returns db.ErrNotFound when no record matches.
func (r *userRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	row := r.q.QueryRow(ctx, r.q.Dialect().Rebind(sqlGetUserByID), id)
	return scanUser(row)
}

// ─────────────────────────────────────────────────────────────────────────────
// Count
// ─────────────────────────────────────────────────────────────────────────────

// Count returns the total number of users.
func (r *userRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.q.QueryRow(ctx, sqlCountUsers).Scan(&n); err != nil {
		return 0, fmt.Errorf("repo/user: count: %w", err)
	}
	return n, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// scanUser — centralised column mapping
// ─────────────────────────────────────────────────────────────────────────────

func scanUser(row *db.Row) (*models.User, error) {
	u := &models.User{}
	var phone, website sql.NullString
	err := row.Scan(&u.ID, &u.Name, &u.Username, &u.Email, &phone, &website)
	if err != nil {
		return nil, fmt.Errorf("repo/user: %w", err)
	}
	u.Phone = StringPtr(phone)
	u.Website = StringPtr(website)
	return u, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Compile-time interface assertion
// ─────────────────────────────────────────────────────────────────────────────

var (
	_ UserRepository = (*userRepo)(nil)
	_ UserUpserter   = (*userUpserter)(nil)
)

// ─────────────────────────────────────────────────────────────────────────────
// Null helpers
// ─────────────────────────────────────────────────────────────────────────────

// NullString converts *string to sql.NullString for optional columns.
func NullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// StringPtr is the inverse of NullString.
func StringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
