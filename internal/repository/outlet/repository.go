package outlet

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/tableorder/internal/database"
	"github.com/Additional-Code/tableorder/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/tableorder/repository/outlet")

var (
	// ErrNotFound is returned when an outlet is missing.
	ErrNotFound = errors.New("outlet not found")
	// ErrTableNotFound is returned when no table matches within an outlet.
	ErrTableNotFound = errors.New("table not found")
)

// Repository reads outlets and their tables. Outlets are never written by checkout.
type Repository struct {
	reader *bun.DB
}

// NewRepository wires a repository backed by the read connection.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{reader: conns.Reader}
}

// GetByID fetches an outlet by primary key.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Outlet, error) {
	ctx, span := repoTracer.Start(ctx, "OutletRepository.GetByID", trace.WithAttributes(attribute.String("outlet.id", id.String())))
	defer span.End()

	outlet := new(entity.Outlet)
	err := r.reader.NewSelect().Model(outlet).Where("ol.id = ?", id).Scan(ctx)
	if err := finish(span, err, ErrNotFound); err != nil {
		return nil, err
	}
	return outlet, nil
}

// GetBySlug fetches an outlet by its public slug.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*entity.Outlet, error) {
	ctx, span := repoTracer.Start(ctx, "OutletRepository.GetBySlug", trace.WithAttributes(attribute.String("outlet.slug", slug)))
	defer span.End()

	outlet := new(entity.Outlet)
	err := r.reader.NewSelect().Model(outlet).Where("ol.slug = ?", slug).Scan(ctx)
	if err := finish(span, err, ErrNotFound); err != nil {
		return nil, err
	}
	return outlet, nil
}

// FindTable resolves a table number within an outlet.
func (r *Repository) FindTable(ctx context.Context, outletID uuid.UUID, number string) (*entity.Table, error) {
	ctx, span := repoTracer.Start(ctx, "OutletRepository.FindTable", trace.WithAttributes(
		attribute.String("outlet.id", outletID.String()),
		attribute.String("table.number", number),
	))
	defer span.End()

	table := new(entity.Table)
	err := r.reader.NewSelect().
		Model(table).
		Where("t.outlet_id = ?", outletID).
		Where("t.table_number = ?", number).
		Limit(1).
		Scan(ctx)
	if err := finish(span, err, ErrTableNotFound); err != nil {
		return nil, err
	}
	return table, nil
}

func finish(span trace.Span, err, notFound error) error {
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return notFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
	}
	return err
}
