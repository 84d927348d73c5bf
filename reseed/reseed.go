// Package reseed loads the fixture documents into the store.
//
// Users are written before any post, one upsert per record in input order.
// Each record is decoded and its ids checked just before its own upsert.
// The upserts are not wrapped in a transaction: when a record is invalid or
// its write fails the run stops and the rows already written stay. Only the
// final pair of counts is read atomically.
package reseed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Skryldev/postboard/db"
	"github.com/Skryldev/postboard/fixture"
	"github.com/Skryldev/postboard/models"
	"github.com/Skryldev/postboard/repo"
)

// Reseeder owns the dependencies of one reseed routine.
type Reseeder struct {
	DB         *db.DB
	Users      repo.UserRepository
	Posts      repo.PostRepository
	FixtureDir string
	Logger     *slog.Logger
}

// New wires a Reseeder whose repositories write through database.
func New(database *db.DB, fixtureDir string, logger *slog.Logger) *Reseeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reseeder{
		DB:         database,
		Users:      repo.NewUserRepo(database),
		Posts:      repo.NewPostRepo(database),
		FixtureDir: fixtureDir,
		Logger:     logger,
	}
}

// Run loads the fixtures from FixtureDir and applies them. A missing file or
// a document that is not an array is reported before anything is written.
func (r *Reseeder) Run(ctx context.Context) (models.Counts, error) {
	doc, err := fixture.Load(r.FixtureDir)
	if err != nil {
		return models.Counts{}, fmt.Errorf("reseed: %w", err)
	}
	return r.ApplyDocument(ctx, doc)
}

// Apply runs an in-memory set through ApplyDocument.
func (r *Reseeder) Apply(ctx context.Context, set *fixture.Set) (models.Counts, error) {
	doc, err := set.Document()
	if err != nil {
		return models.Counts{}, fmt.Errorf("reseed: %w", err)
	}
	return r.ApplyDocument(ctx, doc)
}

// ApplyDocument upserts every user in doc, then every post, then reports
// both table counts from one snapshot.
func (r *Reseeder) ApplyDocument(ctx context.Context, doc *fixture.Document) (models.Counts, error) {
	start := time.Now()

	if err := r.upsertUsers(ctx, doc); err != nil {
		return models.Counts{}, err
	}
	if err := r.upsertPosts(ctx, doc); err != nil {
		return models.Counts{}, err
	}

	counts, err := r.Counts(ctx)
	if err != nil {
		return models.Counts{}, err
	}

	r.logger().Info("reseed completed",
		"users_written", len(doc.Users),
		"posts_written", len(doc.Posts),
		"user_count", counts.UserCount,
		"post_count", counts.PostCount,
		"duration", time.Since(start),
	)
	return counts, nil
}

func (r *Reseeder) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

func (r *Reseeder) upsertUsers(ctx context.Context, doc *fixture.Document) error {
	if len(doc.Users) == 0 {
		return nil
	}
	up, err := r.Users.PrepareUpsert(ctx)
	if err != nil {
		return fmt.Errorf("reseed: %w", err)
	}
	defer up.Close()

	for i := range doc.Users {
		rec, err := doc.User(i)
		if err != nil {
			return fmt.Errorf("reseed: %w", err)
		}
		if err := up.Upsert(ctx, rec.User()); err != nil {
			return fmt.Errorf("reseed: %w", err)
		}
	}
	return nil
}

func (r *Reseeder) upsertPosts(ctx context.Context, doc *fixture.Document) error {
	if len(doc.Posts) == 0 {
		return nil
	}
	up, err := r.Posts.PrepareUpsert(ctx)
	if err != nil {
		return fmt.Errorf("reseed: %w", err)
	}
	defer up.Close()

	for i := range doc.Posts {
		rec, err := doc.Post(i)
		if err != nil {
			return fmt.Errorf("reseed: %w", err)
		}
		if err := up.Upsert(ctx, rec.Post()); err != nil {
			return fmt.Errorf("reseed: %w", err)
		}
	}
	return nil
}

// Counts reads the user and post totals inside one read snapshot so the two
// numbers are mutually consistent.
func (r *Reseeder) Counts(ctx context.Context) (models.Counts, error) {
	var c models.Counts
	err := r.DB.ReadSnapshot(ctx, func(tx *db.Tx) error {
		var err error
		if c.UserCount, err = repo.NewUserRepo(tx).Count(ctx); err != nil {
			return err
		}
		c.PostCount, err = repo.NewPostRepo(tx).Count(ctx)
		return err
	})
	if err != nil {
		return models.Counts{}, fmt.Errorf("reseed: counts: %w", err)
	}
	return c, nil
}
