package repo_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Skryldev/postboard/db"
	"github.com/Skryldev/postboard/migrations"
	"github.com/Skryldev/postboard/models"
	"github.com/Skryldev/postboard/repo"
)

// ─────────────────────────────────────────────────────────────────────────────
// Test fixture
// ─────────────────────────────────────────────────────────────────────────────

func newTestDB(t *testing.T) *db.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "repo.db")
	if err := migrations.Up("sqlite3", dsn, nil); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	database, err := db.Open(db.Config{
		DSN:        dsn,
		DriverName: "sqlite3",
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func newTestRepo(t *testing.T) (repo.UserRepository, *db.DB) {
	t.Helper()
	database := newTestDB(t)
	return repo.NewUserRepo(database), database
}

func strptr(s string) *string { return &s }

// ─────────────────────────────────────────────────────────────────────────────
// Upsert
// ─────────────────────────────────────────────────────────────────────────────

func TestUserRepo_Upsert_Insert(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()

	err := r.Upsert(ctx, models.User{
		ID: 1, Name: "Leanne Graham", Username: "Bret", Email: "leanne@example.com",
		Phone: strptr("1-770-736-8031"),
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	u, err := r.GetByID(ctx, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if u.Username != "Bret" || u.Phone == nil || *u.Phone != "1-770-736-8031" {
		t.Fatalf("unexpected user: %+v", u)
	}
	if u.Website != nil {
		t.Fatalf("expected NULL website, got %q", *u.Website)
	}
}

func TestUserRepo_Upsert_OverwritesAndClearsOptional(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()

	first := models.User{ID: 3, Name: "A", Username: "a", Email: "a@x", Website: strptr("a.example")}
	if err := r.Upsert(ctx, first); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	second := models.User{ID: 3, Name: "B", Username: "b", Email: "b@x"}
	if err := r.Upsert(ctx, second); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	u, err := r.GetByID(ctx, 3)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if u.Name != "B" || u.Username != "b" || u.Website != nil {
		t.Fatalf("upsert did not overwrite: %+v", u)
	}

	n, _ := r.Count(ctx)
	if n != 1 {
		t.Fatalf("expected 1 user, got %d", n)
	}
}

func TestUserRepo_Upsert_DuplicateUsername(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()

	if err := r.Upsert(ctx, models.User{ID: 1, Name: "A", Username: "same", Email: "a@x"}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	err := r.Upsert(ctx, models.User{ID: 2, Name: "B", Username: "same", Email: "b@x"})
	if !db.IsDuplicateKey(err) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestUserRepo_PrepareUpsert(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()

	up, err := r.PrepareUpsert(ctx)
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	defer up.Close()

	for i := int64(1); i <= 5; i++ {
		u := models.User{ID: i, Name: "user", Username: "u" + string(rune('0'+i)), Email: "u@x"}
		if err := up.Upsert(ctx, u); err != nil {
			t.Fatalf("upsert %d: %v", i, err)
		}
	}

	n, err := r.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 5 {
		t.Fatalf("expected 5 users, got %d", n)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetByID
// ─────────────────────────────────────────────────────────────────────────────

func TestUserRepo_GetByID_NotFound(t *testing.T) {
	r, _ := newTestRepo(t)
	_, err := r.GetByID(context.Background(), 99999)
	if !db.IsNotFound(err) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Transaction integration
// ─────────────────────────────────────────────────────────────────────────────

func TestUserRepo_InTransaction_Rollback(t *testing.T) {
	_, database := newTestRepo(t)
	ctx := context.Background()

	_ = database.ExecTx(ctx, func(tx *db.Tx) error {
		txRepo := repo.NewUserRepo(tx)
		if err := txRepo.Upsert(ctx, models.User{ID: 9, Name: "Tx", Username: "tx", Email: "tx@x"}); err != nil {
			return err
		}
		return db.ErrDeadlock // force rollback
	})

	_, err := repo.NewUserRepo(database).GetByID(ctx, 9)
	if !db.IsNotFound(err) {
		t.Fatal("expected user to be rolled back")
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Null helpers
// ─────────────────────────────────────────────────────────────────────────────

func TestNullStringRoundTrip(t *testing.T) {
	if ns := repo.NullString(nil); ns.Valid {
		t.Fatal("nil must map to NULL")
	}
	if p := repo.StringPtr(repo.NullString(strptr("x"))); p == nil || *p != "x" {
		t.Fatalf("unexpected %v", p)
	}
}
