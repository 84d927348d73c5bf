// Package web serves the server-rendered posts dashboard.
//
// The full list is loaded on every page view and filtered in memory. The
// last list that loaded successfully is kept per process so that a later
// load failure degrades to a banner over stale data instead of an error page.
// Delete and re-seed are plain form posts that redirect back with the
// outcome in the query string, so the page works without JavaScript.
package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/Skryldev/postboard/handlers"
	"github.com/Skryldev/postboard/models"
	"github.com/Skryldev/postboard/repo"
)

//go:embed templates/*.html
var templateFS embed.FS

// PostDeleter deletes one post and reports the HTTP status of the outcome.
type PostDeleter interface {
	DeletePost(ctx context.Context, id int64) (status int, message string)
}

type Dashboard struct {
	posts    repo.PostRepository
	deleter  PostDeleter
	reseeder handlers.Reseeder
	tmpl     *template.Template

	mu       sync.RWMutex
	lastGood []models.PostWithOwner
	loaded   bool
}

func NewDashboard(posts repo.PostRepository, deleter PostDeleter, reseeder handlers.Reseeder) (*Dashboard, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("web: parse templates: %w", err)
	}
	return &Dashboard{posts: posts, deleter: deleter, reseeder: reseeder, tmpl: tmpl}, nil
}

// Outcome codes carried across the post/redirect/get round trip.
const (
	flashDeleted  = "deleted"
	flashReseeded = "reseeded"

	errInvalid  = "invalid"
	errNotFound = "notfound"
	errFailed   = "failed"
)

var deleteMessages = map[string]string{
	errInvalid:  handlers.MsgInvalidID,
	errNotFound: handlers.MsgPostNotFound,
	errFailed:   handlers.MsgDeleteFailed,
}

// Index handles GET /posts
func (d *Dashboard) Index(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := Filter{Search: q.Get("q"), Owner: q.Get("user")}
	confirmID, _ := strconv.ParseInt(q.Get("confirm"), 10, 64)

	posts, err := d.posts.List(r.Context(), repo.PostFilter{})
	banner := false
	if err != nil {
		slog.Error("failed to load posts for dashboard", "operation", "dashboard_list", "error", err)
		stale, ok := d.snapshot()
		if !ok {
			d.render(w, http.StatusInternalServerError, Page{State: StateLoadError, Filter: filter.Normalize(nil)})
			return
		}
		posts, banner = stale, true
	} else {
		d.remember(posts)
	}

	page := buildPage(posts, filter, confirmID)
	page.Banner = banner

	switch q.Get("flash") {
	case flashDeleted:
		page.Flash = "Post deleted."
	case flashReseeded:
		users, _ := strconv.ParseInt(q.Get("users"), 10, 64)
		total, _ := strconv.ParseInt(q.Get("posts"), 10, 64)
		page.Flash = fmt.Sprintf("Re-seeded %s users and %s posts.", humanize.Comma(users), humanize.Comma(total))
	}
	if q.Get("reseedError") != "" {
		page.ReseedError = handlers.MsgReseedFailed
	}
	if code := q.Get("deleteError"); code != "" {
		page.DeleteError = deleteMessages[code]
		if page.DeleteError == "" {
			page.DeleteError = handlers.MsgDeleteFailed
		}
		// A failed delete keeps its dialog open even when the post is no
		// longer in the list, so the error shows where the user clicked.
		if page.Confirm == nil && confirmID > 0 {
			page.Confirm = &Card{ID: confirmID}
		}
	}

	d.render(w, http.StatusOK, page)
}

// Delete handles POST /posts/{id}/delete
func (d *Dashboard) Delete(w http.ResponseWriter, r *http.Request) {
	back := backQuery(r)

	id, err := handlers.ParseID("id", r.PathValue("id"), handlers.MsgInvalidID)
	if err != nil {
		back.Set("deleteError", errInvalid)
		redirect(w, r, back)
		return
	}

	switch status, _ := d.deleter.DeletePost(r.Context(), id); status {
	case http.StatusOK:
		d.forget(id)
		back.Set("flash", flashDeleted)
	case http.StatusNotFound:
		back.Set("confirm", strconv.FormatInt(id, 10))
		back.Set("deleteError", errNotFound)
	default:
		back.Set("confirm", strconv.FormatInt(id, 10))
		back.Set("deleteError", errFailed)
	}
	redirect(w, r, back)
}

// Reseed handles POST /posts/reseed
func (d *Dashboard) Reseed(w http.ResponseWriter, r *http.Request) {
	back := backQuery(r)

	counts, err := d.reseeder.Run(r.Context())
	if err != nil {
		slog.Error("failed to reseed from dashboard", "operation", "reseed", "error", err)
		back.Set("reseedError", errFailed)
		redirect(w, r, back)
		return
	}

	back.Set("flash", flashReseeded)
	back.Set("users", strconv.FormatInt(counts.UserCount, 10))
	back.Set("posts", strconv.FormatInt(counts.PostCount, 10))
	redirect(w, r, back)
}

// ─────────────────────────────────────────────────────────────────────────────
// last good list
// ─────────────────────────────────────────────────────────────────────────────

func (d *Dashboard) remember(posts []models.PostWithOwner) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastGood = posts
	d.loaded = true
}

func (d *Dashboard) snapshot() ([]models.PostWithOwner, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lastGood, d.loaded
}

// forget drops a deleted post from the last good list.
func (d *Dashboard) forget(id int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	kept := make([]models.PostWithOwner, 0, len(d.lastGood))
	for _, p := range d.lastGood {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	d.lastGood = kept
}

// ─────────────────────────────────────────────────────────────────────────────
// helpers
// ─────────────────────────────────────────────────────────────────────────────

// backQuery keeps the caller's filters across the redirect.
func backQuery(r *http.Request) url.Values {
	back := url.Values{}
	if q := r.FormValue("q"); q != "" {
		back.Set("q", q)
	}
	if u := r.FormValue("user"); u != "" && u != ownerAll {
		back.Set("user", u)
	}
	return back
}

func redirect(w http.ResponseWriter, r *http.Request, q url.Values) {
	target := "/posts"
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (d *Dashboard) render(w http.ResponseWriter, status int, page Page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := d.tmpl.ExecuteTemplate(w, "posts.html", page); err != nil {
		slog.Error("failed to render dashboard", "error", err)
	}
}
