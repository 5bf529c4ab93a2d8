package analytics

import (
	"context"
	"errors"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/tableorder/internal/database"
	"github.com/Additional-Code/tableorder/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/tableorder/repository/analytics")

// Repository appends analytics events. Events are never read or updated here.
type Repository struct {
	writer *bun.DB
}

// NewRepository wires a repository backed by the write connection.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{writer: conns.Writer}
}

// Insert appends a single event.
func (r *Repository) Insert(ctx context.Context, event *entity.AnalyticsEvent) error {
	if event == nil {
		return errors.New("nil analytics event")
	}
	ctx, span := repoTracer.Start(ctx, "AnalyticsRepository.Insert", trace.WithAttributes(
		attribute.String("event.type", event.EventType),
		attribute.String("outlet.id", event.OutletID.String()),
	))
	defer span.End()

	if _, err := r.writer.NewInsert().Model(event).Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}
	return nil
}
