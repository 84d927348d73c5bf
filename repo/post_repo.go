package repo

import (
	"context"
	"fmt"

	"github.com/Skryldev/postboard/db"
	"github.com/Skryldev/postboard/models"
)

// ─────────────────────────────────────────────────────────────────────────────
// PostRepository interface — for mocking in tests
// ─────────────────────────────────────────────────────────────────────────────

//go:generate mockgen -source=post_repo.go -destination=../mocks/post_repo_mock.go -package=mocks

// PostRepository defines the contract for post persistence operations.
type PostRepository interface {
	Upsert(ctx context.Context, p models.Post) error
	PrepareUpsert(ctx context.Context) (PostUpserter, error)
	List(ctx context.Context, f PostFilter) ([]models.PostWithOwner, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}

// PostUpserter writes posts through one prepared statement.
type PostUpserter interface {
	Upsert(ctx context.Context, p models.Post) error
	Close() error
}

// PostFilter narrows List. UserID zero means every owner.
type PostFilter struct {
	UserID int64
}

// ─────────────────────────────────────────────────────────────────────────────
// postRepo — concrete implementation
// ─────────────────────────────────────────────────────────────────────────────

type postRepo struct {
	q db.Querier
}

// NewPostRepo returns a PostRepository backed by q.
func NewPostRepo(q db.Querier) PostRepository {
	return &postRepo{q: q}
}

var postColumns = []string{"id", "user_id", "title", "body"}

const (
	sqlListPosts = `
		SELECT p.id, p.user_id, p.title, p.body, u.id, u.name
		FROM   posts p
		JOIN   users u ON u.id = p.user_id`

	sqlListPostsByOwner = sqlListPosts + `
		WHERE  p.user_id = ?`

	sqlPostExists = `
		SELECT 1 FROM posts WHERE id = ?`

	sqlDeletePost = `
		DELETE FROM posts WHERE id = ?`

	sqlCountPosts = `
		SELECT COUNT(*) FROM posts`

	orderByID = `
		ORDER  BY p.id ASC`
)

func (r *postRepo) upsertSQL() string {
	return r.q.Dialect().Upsert("posts", "id", postColumns)
}

// ─────────────────────────────────────────────────────────────────────────────
// Upsert
// ─────────────────────────────────────────────────────────────────────────────

// Upsert inserts p or overwrites owner, title and body of the post with p.ID.
func (r *postRepo) Upsert(ctx context.Context, p models.Post) error {
	if _, err := r.q.Exec(ctx, r.upsertSQL(), postArgs(p)...); err != nil {
		return fmt.Errorf("repo/post: upsert %d: %w", p.ID, err)
	}
	return nil
}

// PrepareUpsert prepares the upsert statement once for repeated use.
func (r *postRepo) PrepareUpsert(ctx context.Context) (PostUpserter, error) {
	stmt, err := r.q.Prepare(ctx, r.upsertSQL())
	if err != nil {
		return nil, fmt.Errorf("repo/post: prepare upsert: %w", err)
	}
	return &postUpserter{stmt: stmt}, nil
}

type postUpserter struct {
	stmt *db.Stmt
}

func (p *postUpserter) Upsert(ctx context.Context, post models.Post) error {
	if _, err := p.stmt.Exec(ctx, postArgs(post)...); err != nil {
		return fmt.Errorf("repo/post: upsert %d: %w", post.ID, err)
	}
	return nil
}

func (p *postUpserter) Close() error { return p.stmt.Close() }

func postArgs(p models.Post) []any {
	return []any{p.ID, p.UserID, p.Title, p.Body}
}

// ─────────────────────────────────────────────────────────────────────────────
// List
// ─────────────────────────────────────────────────────────────────────────────

// List returns the posts matching f in ascending id order, each with its
// owner's id and name. The result is never nil.
func (r *postRepo) List(ctx context.Context, f PostFilter) ([]models.PostWithOwner, error) {
	query, args := sqlListPosts+orderByID, []any(nil)
	if f.UserID != 0 {
		query, args = sqlListPostsByOwner+orderByID, []any{f.UserID}
	}

	rows, err := r.q.Query(ctx, r.q.Dialect().Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("repo/post: list: %w", err)
	}
	defer rows.Close()

	posts := make([]models.PostWithOwner, 0)
	for rows.Next() {
		var p models.PostWithOwner
		if err := rows.Scan(&p.ID, &p.UserID, &p.Title, &p.Body, &p.User.ID, &p.User.Name); err != nil {
			return nil, fmt.Errorf("repo/post: scan: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo/post: list: %w", err)
	}
	return posts, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Exists / Delete
// ─────────────────────────────────────────────────────────────────────────────

// Exists reports whether a post with id is present.
func (r *postRepo) Exists(ctx context.Context, id int64) (bool, error) {
	var one int
	err := r.q.QueryRow(ctx, r.q.Dialect().Rebind(sqlPostExists), id).Scan(&one)
	switch {
	case db.IsNotFound(err):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("repo/post: exists %d: %w", id, err)
	}
	return true, nil
}

// Delete removes a post by id.
// Returns db.ErrNotFound if no row was deleted.
func (r *postRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.q.Exec(ctx, r.q.Dialect().Rebind(sqlDeletePost), id)
	if err != nil {
		return fmt.Errorf("repo/post: delete %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("repo/post: delete %d: %w", id, err)
	}
	if n == 0 {
		return db.ErrNotFound
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Count
// ─────────────────────────────────────────────────────────────────────────────

// Count returns the total number of posts.
func (r *postRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.q.QueryRow(ctx, sqlCountPosts).Scan(&n); err != nil {
		return 0, fmt.Errorf("repo/post: count: %w", err)
	}
	return n, nil
}

var (
	_ PostRepository = (*postRepo)(nil)
	_ PostUpserter   = (*postUpserter)(nil)
)
