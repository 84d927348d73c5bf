package repo_test

import (
	"context"
	"testing"

	"github.com/Skryldev/postboard/db"
	"github.com/Skryldev/postboard/models"
	"github.com/Skryldev/postboard/repo"
)

func seedPosts(t *testing.T, database *db.DB) repo.PostRepository {
	t.Helper()
	ctx := context.Background()

	users := repo.NewUserRepo(database)
	for _, u := range []models.User{
		{ID: 1, Name: "Leanne Graham", Username: "Bret", Email: "l@x"},
		{ID: 2, Name: "Ervin Howell", Username: "Antonette", Email: "e@x"},
	} {
		if err := users.Upsert(ctx, u); err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}

	posts := repo.NewPostRepo(database)
	// inserted out of id order on purpose
	for _, p := range []models.Post{
		{ID: 12, UserID: 2, Title: "b2", Body: "..."},
		{ID: 3, UserID: 1, Title: "a3", Body: "..."},
		{ID: 11, UserID: 2, Title: "b1", Body: "..."},
		{ID: 1, UserID: 1, Title: "a1", Body: "..."},
	} {
		if err := posts.Upsert(ctx, p); err != nil {
			t.Fatalf("seed post: %v", err)
		}
	}
	return posts
}

func ids(posts []models.PostWithOwner) []int64 {
	out := make([]int64, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ─────────────────────────────────────────────────────────────────────────────
// List
// ─────────────────────────────────────────────────────────────────────────────

func TestPostRepo_List_All(t *testing.T) {
	r := seedPosts(t, newTestDB(t))

	posts, err := r.List(context.Background(), repo.PostFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if got := ids(posts); !equalIDs(got, []int64{1, 3, 11, 12}) {
		t.Fatalf("unexpected order %v", got)
	}
	if posts[0].User.Name != "Leanne Graham" || posts[0].User.ID != 1 {
		t.Fatalf("owner not joined: %+v", posts[0].User)
	}
}

func TestPostRepo_List_ByOwner(t *testing.T) {
	r := seedPosts(t, newTestDB(t))

	posts, err := r.List(context.Background(), repo.PostFilter{UserID: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if got := ids(posts); !equalIDs(got, []int64{11, 12}) {
		t.Fatalf("unexpected posts %v", got)
	}
	for _, p := range posts {
		if p.UserID != 2 || p.User.ID != 2 {
			t.Fatalf("post %d has owner %d", p.ID, p.UserID)
		}
	}
}

func TestPostRepo_List_EmptyIsNotNil(t *testing.T) {
	r := repo.NewPostRepo(newTestDB(t))

	posts, err := r.List(context.Background(), repo.PostFilter{UserID: 42})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if posts == nil || len(posts) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", posts)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Upsert
// ─────────────────────────────────────────────────────────────────────────────

func TestPostRepo_Upsert_UnknownOwner(t *testing.T) {
	r := repo.NewPostRepo(newTestDB(t))

	err := r.Upsert(context.Background(), models.Post{ID: 1, UserID: 77, Title: "t", Body: "b"})
	if !db.IsForeignKeyViolation(err) {
		t.Fatalf("expected ErrForeignKeyViolation, got %v", err)
	}
}

func TestPostRepo_PrepareUpsert_Overwrites(t *testing.T) {
	database := newTestDB(t)
	r := seedPosts(t, database)
	ctx := context.Background()

	up, err := r.PrepareUpsert(ctx)
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	defer up.Close()

	if err := up.Upsert(ctx, models.Post{ID: 1, UserID: 2, Title: "moved", Body: "new"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	posts, _ := r.List(ctx, repo.PostFilter{UserID: 2})
	if got := ids(posts); !equalIDs(got, []int64{1, 11, 12}) {
		t.Fatalf("expected post 1 to move to owner 2, got %v", got)
	}
	if n, _ := r.Count(ctx); n != 4 {
		t.Fatalf("expected 4 posts, got %d", n)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Exists / Delete
// ─────────────────────────────────────────────────────────────────────────────

func TestPostRepo_ExistsAndDelete(t *testing.T) {
	r := seedPosts(t, newTestDB(t))
	ctx := context.Background()

	ok, err := r.Exists(ctx, 3)
	if err != nil || !ok {
		t.Fatalf("expected post 3 to exist: ok=%v err=%v", ok, err)
	}

	if err := r.Delete(ctx, 3); err != nil {
		t.Fatalf("delete: %v", err)
	}

	ok, err = r.Exists(ctx, 3)
	if err != nil || ok {
		t.Fatalf("expected post 3 to be gone: ok=%v err=%v", ok, err)
	}

	posts, _ := r.List(ctx, repo.PostFilter{})
	if got := ids(posts); !equalIDs(got, []int64{1, 11, 12}) {
		t.Fatalf("unexpected remaining posts %v", got)
	}
}

func TestPostRepo_Delete_NotFound(t *testing.T) {
	r := repo.NewPostRepo(newTestDB(t))

	if err := r.Delete(context.Background(), 999999); !db.IsNotFound(err) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostRepo_CountInsideSnapshot(t *testing.T) {
	database := newTestDB(t)
	seedPosts(t, database)
	ctx := context.Background()

	var users, posts int64
	err := database.ReadSnapshot(ctx, func(tx *db.Tx) error {
		var err error
		if users, err = repo.NewUserRepo(tx).Count(ctx); err != nil {
			return err
		}
		posts, err = repo.NewPostRepo(tx).Count(ctx)
		return err
	})
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if users != 2 || posts != 4 {
		t.Fatalf("unexpected counts users=%d posts=%d", users, posts)
	}
}
