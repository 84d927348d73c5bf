package handlers

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/Skryldev/postboard/db"
	"github.com/Skryldev/postboard/middleware"
)

// Store is the part of *db.DB the health check needs.
type Store interface {
	Ping(ctx context.Context) error
	Stats() sql.DBStats
}

type HealthHandler struct {
	store   Store
	queries *db.QueryCounter
}

// NewHealthHandler reports on store; queries may be nil.
func NewHealthHandler(store Store, queries *db.QueryCounter) *HealthHandler {
	return &HealthHandler{store: store, queries: queries}
}

type PoolStats struct {
	Open  int `json:"open"`
	InUse int `json:"inUse"`
	Idle  int `json:"idle"`
}

type HealthResponse struct {
	Status  string         `json:"status"`
	Queries *db.QueryStats `json:"queries,omitempty"`
	Pool    PoolStats      `json:"pool"`
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "ok"}
	status := http.StatusOK
	if err := h.store.Ping(ctx); err != nil {
		slog.Warn("health check ping failed", "error", err)
		resp.Status = "unavailable"
		status = http.StatusServiceUnavailable
	}

	st := h.store.Stats()
	resp.Pool = PoolStats{Open: st.OpenConnections, InUse: st.InUse, Idle: st.Idle}
	if h.queries != nil {
		qs := h.queries.Snapshot()
		resp.Queries = &qs
	}
	middleware.JSONResponse(w, status, resp)
}
