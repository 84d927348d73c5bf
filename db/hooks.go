package db

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Hook interface
// ─────────────────────────────────────────────────────────────────────────────

// Hook is called before and after every statement execution.
//
// Implementations MUST be goroutine-safe and SHOULD be non-blocking.
// Panics inside a hook are recovered by the hook chain and logged.
type Hook interface {
	// BeforeQuery is invoked immediately before the statement is sent to the
	// database driver.
	BeforeQuery(ctx context.Context, query string, args []any)

	// AfterQuery is invoked after the driver returns. duration is the
	// wall-clock time spent in the driver call. err is the (already mapped)
	// error returned to the caller, nil on success.
	AfterQuery(ctx context.Context, query string, args []any, duration time.Duration, err error)
}

// ─────────────────────────────────────────────────────────────────────────────
// hookChain — internal dispatcher
// ─────────────────────────────────────────────────────────────────────────────

type hookChain struct {
	hooks []Hook
}

func newHookChain(hooks []Hook) hookChain {
	filtered := make([]Hook, 0, len(hooks))
	for _, h := range hooks {
		if h != nil {
			filtered = append(filtered, h)
		}
	}
	return hookChain{hooks: filtered}
}

func (c hookChain) Before(ctx context.Context, query string, args []any) {
	for _, h := range c.hooks {
		func() {
			defer recoverHook("BeforeQuery")
			h.BeforeQuery(ctx, query, args)
		}()
	}
}

func (c hookChain) After(ctx context.Context, query string, args []any, d time.Duration, err error) {
	for _, h := range c.hooks {
		func() {
			defer recoverHook("AfterQuery")
			h.AfterQuery(ctx, query, args, d, err)
		}()
	}
}

// observe runs call between the Before and After dispatch, mapping its error
// through m first so hooks see the same error the caller gets.
func (c hookChain) observe(ctx context.Context, query string, args []any, m ErrorMapper, call func() error) error {
	start := time.Now()
	c.Before(ctx, query, args)
	err := call()
	if err != nil {
		err = m.Map(err)
	}
	c.After(ctx, query, args, time.Since(start), err)
	return err
}

// observeRow is observe for QueryRow, whose error is only known at Scan.
func (c hookChain) observeRow(ctx context.Context, query string, args []any, call func()) {
	start := time.Now()
	c.Before(ctx, query, args)
	call()
	c.After(ctx, query, args, time.Since(start), nil)
}

// recoverHook keeps a panicking hook from failing the statement it observes.
func recoverHook(phase string) {
	if r := recover(); r != nil {
		slog.Error("postboard/db: hook panicked", "phase", phase, "panic", r)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Logging hook
// ─────────────────────────────────────────────────────────────────────────────

// LogHookConfig configures the structured logging hook.
type LogHookConfig struct {
	// Logger defaults to slog.Default() if nil.
	Logger *slog.Logger
	// SlowQueryThreshold logs a warning when duration exceeds this value.
	// Zero disables slow-query logging.
	SlowQueryThreshold time.Duration
	// LogArgs includes bound parameters in log entries. Fixture rows carry
	// emails and phone numbers, so leave it off outside development.
	LogArgs bool
}

// NewLogHook returns a Hook that emits structured log entries via slog.
func NewLogHook(cfg LogHookConfig) Hook {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &logHook{cfg: cfg, logger: logger}
}

type logHook struct {
	cfg    LogHookConfig
	logger *slog.Logger
}

func (h *logHook) BeforeQuery(_ context.Context, _ string, _ []any) {}

func (h *logHook) AfterQuery(ctx context.Context, query string, args []any, d time.Duration, err error) {
	attrs := []any{
		slog.String("query", compactQuery(query)),
		slog.Duration("duration", d),
	}
	if h.cfg.LogArgs && len(args) > 0 {
		attrs = append(attrs, slog.Any("args", args))
	}

	switch {
	case err != nil:
		h.logger.ErrorContext(ctx, "postboard/db: query failed", append(attrs, slog.Any("error", err))...)
	case h.cfg.SlowQueryThreshold > 0 && d > h.cfg.SlowQueryThreshold:
		h.logger.WarnContext(ctx, "postboard/db: slow query", append(attrs, slog.Duration("threshold", h.cfg.SlowQueryThreshold))...)
	default:
		h.logger.DebugContext(ctx, "postboard/db: query", attrs...)
	}
}

// maxLoggedQuery bounds the query text in one log entry.
const maxLoggedQuery = 500

// compactQuery folds the multi-line statement constants onto one line and
// truncates what is left.
func compactQuery(q string) string {
	q = strings.Join(strings.Fields(q), " ")
	if len(q) > maxLoggedQuery {
		return q[:maxLoggedQuery] + "…"
	}
	return q
}

// ─────────────────────────────────────────────────────────────────────────────
// Metrics hook
// ─────────────────────────────────────────────────────────────────────────────

// MetricsCollector receives one call per executed statement.
type MetricsCollector interface {
	RecordQuery(query string, duration time.Duration, success bool)
}

// NewMetricsHook returns a Hook that delegates to a MetricsCollector.
func NewMetricsHook(collector MetricsCollector) Hook {
	return &metricsHook{c: collector}
}

type metricsHook struct{ c MetricsCollector }

func (h *metricsHook) BeforeQuery(_ context.Context, _ string, _ []any) {}
func (h *metricsHook) AfterQuery(_ context.Context, query string, _ []any, d time.Duration, err error) {
	h.c.RecordQuery(query, d, err == nil)
}

// QueryCounter is an in-process MetricsCollector. The health endpoint
// reports its totals.
type QueryCounter struct {
	total    atomic.Int64
	failed   atomic.Int64
	duration atomic.Int64 // nanoseconds
}

// RecordQuery implements MetricsCollector.
func (c *QueryCounter) RecordQuery(_ string, d time.Duration, success bool) {
	c.total.Add(1)
	c.duration.Add(int64(d))
	if !success {
		c.failed.Add(1)
	}
}

// QueryStats is a point-in-time copy of a QueryCounter.
type QueryStats struct {
	Total     int64         `json:"total"`
	Failed    int64         `json:"failed"`
	TotalTime time.Duration `json:"totalTimeNs"`
}

// Snapshot returns the current totals.
func (c *QueryCounter) Snapshot() QueryStats {
	return QueryStats{
		Total:     c.total.Load(),
		Failed:    c.failed.Load(),
		TotalTime: time.Duration(c.duration.Load()),
	}
}
