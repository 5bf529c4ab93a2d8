package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// QueryLogger is a bun.QueryHook that reports failed queries and queries
// slower than a threshold. Missing rows are not failures.
type QueryLogger struct {
	logger *zap.Logger
	slow   time.Duration
}

var _ bun.QueryHook = (*QueryLogger)(nil)

// NewQueryLogger builds a QueryLogger. A zero threshold disables slow-query logs.
func NewQueryLogger(logger *zap.Logger, slow time.Duration) *QueryLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryLogger{logger: logger.Named("sql"), slow: slow}
}

// BeforeQuery is a no-op; bun stamps the start time on the event.
func (h *QueryLogger) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

// AfterQuery logs the finished query when it failed or ran long.
func (h *QueryLogger) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	elapsed := time.Since(event.StartTime)

	switch {
	case event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows):
		h.logger.Warn("query failed",
			zap.String("operation", event.Operation()),
			zap.Duration("elapsed", elapsed),
			zap.Bool("unique_violation", IsUniqueViolation(event.Err)),
			zap.Error(event.Err),
		)
	case h.slow > 0 && elapsed >= h.slow:
		h.logger.Warn("slow query",
			zap.String("operation", event.Operation()),
			zap.Duration("elapsed", elapsed),
			zap.String("query", event.Query),
		)
	}
}
