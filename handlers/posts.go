package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/Skryldev/postboard/middleware"
	"github.com/Skryldev/postboard/models"
	"github.com/Skryldev/postboard/repo"
)

// Client-facing messages. Store and fixture errors are logged, never returned.
const (
	MsgInvalidUserID = "Invalid userId. It must be a positive integer."
	MsgInvalidID     = "Invalid id. It must be a positive integer."
	MsgPostNotFound  = "Post not found."
	MsgListFailed    = "Couldn’t load posts. Please try again."
	MsgDeleteFailed  = "Couldn’t delete the post. Please try again."
	MsgReseedFailed  = "Couldn't re-seed posts. Please try again."
)

// ValidationError is a request input that failed parsing. It always maps to
// 400 and its Message is safe to show to the caller.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// ParseID parses a positive base-10 integer id. Surrounding whitespace is
// ignored, but "2.0", "1e3", "0x10" and "+-3" are rejected even when they
// denote a whole number. message becomes the ValidationError message on
// failure.
func ParseID(field, raw, message string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, &ValidationError{Field: field, Message: message}
	}
	return id, nil
}

// Reseeder runs the fixture-to-store routine.
type Reseeder interface {
	Run(ctx context.Context) (models.Counts, error)
}

type PostHandler struct {
	posts    repo.PostRepository
	reseeder Reseeder
}

func NewPostHandler(posts repo.PostRepository, reseeder Reseeder) *PostHandler {
	return &PostHandler{posts: posts, reseeder: reseeder}
}

type ListPostsResponse struct {
	Posts []models.PostWithOwner `json:"posts"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}

type ReseedResponse struct {
	OK bool `json:"ok"`
	models.Counts
}

// List handles GET /api/posts[?userId=n]
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter repo.PostFilter
	if q := r.URL.Query(); q.Has("userId") {
		id, err := ParseID("userId", q.Get("userId"), MsgInvalidUserID)
		if err != nil {
			writeValidationError(w, err)
			return
		}
		filter.UserID = id
	}

	posts, err := h.posts.List(r.Context(), filter)
	if err != nil {
		slog.Error("failed to list posts",
			"operation", "list_posts",
			"user_id", filter.UserID,
			"request_id", middleware.RequestID(r.Context()),
			"error", err,
		)
		middleware.ErrorResponse(w, http.StatusInternalServerError, MsgListFailed)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, ListPostsResponse{Posts: posts})
}

// Delete handles DELETE /api/posts/{id}
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID("id", r.PathValue("id"), MsgInvalidID)
	if err != nil {
		writeValidationError(w, err)
		return
	}

	status, msg := h.DeletePost(r.Context(), id)
	if status != http.StatusOK {
		middleware.ErrorResponse(w, status, msg)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, OKResponse{OK: true})
}

// DeletePost checks that post id exists and deletes it. It returns the HTTP
// status for the outcome and, for failures, the client message.
func (h *PostHandler) DeletePost(ctx context.Context, id int64) (int, string) {
	exists, err := h.posts.Exists(ctx, id)
	if err != nil {
		logDeleteFailure(ctx, id, err)
		return http.StatusInternalServerError, MsgDeleteFailed
	}
	if !exists {
		return http.StatusNotFound, MsgPostNotFound
	}

	if err := h.posts.Delete(ctx, id); err != nil {
		logDeleteFailure(ctx, id, err)
		return http.StatusInternalServerError, MsgDeleteFailed
	}

	slog.Info("post deleted", "post_id", id)
	return http.StatusOK, ""
}

func logDeleteFailure(ctx context.Context, id int64, err error) {
	slog.Error("failed to delete post",
		"operation", "delete_post",
		"post_id", id,
		"request_id", middleware.RequestID(ctx),
		"error", err,
	)
}

// Reseed handles POST /api/posts/reseed
func (h *PostHandler) Reseed(w http.ResponseWriter, r *http.Request) {
	counts, err := h.reseeder.Run(r.Context())
	if err != nil {
		slog.Error("failed to reseed",
			"operation", "reseed",
			"request_id", middleware.RequestID(r.Context()),
			"error", err,
		)
		middleware.ErrorResponse(w, http.StatusInternalServerError, MsgReseedFailed)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, ReseedResponse{OK: true, Counts: counts})
}

func writeValidationError(w http.ResponseWriter, err error) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		middleware.ErrorResponse(w, http.StatusBadRequest, ve.Message)
		return
	}
	middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
}
