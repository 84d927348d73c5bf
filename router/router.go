package router

import (
	"log/slog"
	"net/http"

	"github.com/Skryldev/postboard/config"
	"github.com/Skryldev/postboard/db"
	"github.com/Skryldev/postboard/handlers"
	"github.com/Skryldev/postboard/middleware"
	"github.com/Skryldev/postboard/repo"
	"github.com/Skryldev/postboard/reseed"
	"github.com/Skryldev/postboard/web"
)

// NewRouter wires every route onto database. queries may be nil.
func NewRouter(database *db.DB, queries *db.QueryCounter, cfg config.Config) (http.Handler, error) {
	mux := http.NewServeMux()

	// Initialize handlers
	posts := repo.NewPostRepo(database)
	reseeder := reseed.New(database, cfg.FixturesDir, slog.Default())
	postHandler := handlers.NewPostHandler(posts, reseeder)
	healthHandler := handlers.NewHealthHandler(database, queries)
	dashboard, err := web.NewDashboard(posts, postHandler, reseeder)
	if err != nil {
		return nil, err
	}

	// Health check
	mux.HandleFunc("GET /health", healthHandler.Health)

	// JSON API
	mux.HandleFunc("GET /api/posts", middleware.WithLogging(postHandler.List))
	mux.HandleFunc("DELETE /api/posts/{id}", middleware.WithLogging(postHandler.Delete))
	mux.HandleFunc("POST /api/posts/reseed", middleware.WithLogging(postHandler.Reseed))

	// Dashboard
	mux.HandleFunc("GET /posts", middleware.WithLogging(dashboard.Index))
	mux.HandleFunc("POST /posts/reseed", middleware.WithLogging(dashboard.Reseed))
	mux.HandleFunc("POST /posts/{id}/delete", middleware.WithLogging(dashboard.Delete))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/posts", http.StatusFound)
	})

	return middleware.Recover(mux), nil
}
