package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/tableorder/internal/database"
	"github.com/Additional-Code/tableorder/internal/entity"
	"github.com/Additional-Code/tableorder/internal/orderstate"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/tableorder/repository/order")

var (
	// ErrNotFound is returned when an order is missing.
	ErrNotFound = errors.New("order not found")
	// ErrDuplicateNumber is returned when the order number is already taken.
	ErrDuplicateNumber = errors.New("order number already exists")
	// ErrStatusChanged is returned when the stored status no longer matches
	// the status an update was based on.
	ErrStatusChanged = errors.New("order status changed concurrently")
)

// ListFilter narrows ListByOutlet results.
type ListFilter struct {
	Status orderstate.Status
	Limit  int
}

const defaultListLimit = 50

// Repository encapsulates read/write access for orders and their items.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
	}
}

// Create persists an order header on its own.
func (r *Repository) Create(ctx context.Context, order *entity.Order) error {
	if order == nil {
		return errors.New("nil order")
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Create", trace.WithAttributes(attribute.String("order.number", order.Number)))
	defer span.End()

	_, err := r.writer.NewInsert().Model(order).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return translateInsert(err)
	}
	return nil
}

// CreateItem persists a single order line.
func (r *Repository) CreateItem(ctx context.Context, item *entity.OrderItem) error {
	if item == nil {
		return errors.New("nil order item")
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.CreateItem", trace.WithAttributes(
		attribute.String("order.id", item.OrderID.String()),
		attribute.String("dish.id", item.DishID),
	))
	defer span.End()

	if _, err := r.writer.NewInsert().Model(item).Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}
	return nil
}

// CreateWithItems persists the header and all items in one transaction. A
// non-nil event is appended in the same transaction.
func (r *Repository) CreateWithItems(ctx context.Context, order *entity.Order, items []entity.OrderItem, event *entity.AnalyticsEvent) error {
	if order == nil {
		return errors.New("nil order")
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.CreateWithItems", trace.WithAttributes(
		attribute.String("order.number", order.Number),
		attribute.Int("order.items", len(items)),
	))
	defer span.End()

	err := r.writer.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(order).Exec(ctx); err != nil {
			return translateInsert(err)
		}
		if len(items) > 0 {
			if _, err := tx.NewInsert().Model(&items).Exec(ctx); err != nil {
				return fmt.Errorf("insert items: %w", err)
			}
		}
		if event != nil {
			if _, err := tx.NewInsert().Model(event).Exec(ctx); err != nil {
				return fmt.Errorf("insert analytics event: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transaction failed")
	}
	return err
}

// GetByID fetches an order by primary key using the read replica when available.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID, withItems bool) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.GetByID", trace.WithAttributes(attribute.String("order.id", id.String())))
	defer span.End()

	order, err := r.get(ctx, r.reader, id, withItems)
	if err != nil && !errors.Is(err, ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
	}
	return order, err
}

// ListByOutlet returns the newest orders for an outlet.
func (r *Repository) ListByOutlet(ctx context.Context, outletID uuid.UUID, filter ListFilter) ([]entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.ListByOutlet", trace.WithAttributes(
		attribute.String("outlet.id", outletID.String()),
		attribute.String("order.status", string(filter.Status)),
	))
	defer span.End()

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	var orders []entity.Order
	q := r.reader.NewSelect().
		Model(&orders).
		Where("o.outlet_id = ?", outletID).
		Order("o.created_at DESC").
		Limit(limit)
	if filter.Status != "" {
		q = q.Where("o.status = ?", filter.Status)
	}
	if err := q.Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return orders, nil
}

// GetCurrent fetches an order header from the writer, bypassing replica lag.
func (r *Repository) GetCurrent(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.GetCurrent", trace.WithAttributes(attribute.String("order.id", id.String())))
	defer span.End()

	order, err := r.get(ctx, r.writer, id, false)
	if err != nil && !errors.Is(err, ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
	}
	return order, err
}

// UpdateStatus moves an order from one status to another. The update only
// applies while the stored status still equals from; otherwise ErrStatusChanged
// is returned and nothing is written.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to orderstate.Status) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.UpdateStatus", trace.WithAttributes(
		attribute.String("order.id", id.String()),
		attribute.String("order.from_status", string(from)),
		attribute.String("order.status", string(to)),
	))
	defer span.End()

	res, err := r.writer.NewUpdate().
		Model((*entity.Order)(nil)).
		Set("status = ?", to).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Where("status = ?", from).
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if n == 0 {
		if _, err := r.get(ctx, r.writer, id, false); err != nil {
			span.SetStatus(codes.Error, "not found")
			return nil, err
		}
		span.SetStatus(codes.Error, "status changed")
		return nil, ErrStatusChanged
	}

	return r.get(ctx, r.writer, id, false)
}

func (r *Repository) get(ctx context.Context, db bun.IDB, id uuid.UUID, withItems bool) (*entity.Order, error) {
	order := new(entity.Order)
	q := db.NewSelect().Model(order).Where("o.id = ?", id)
	if withItems {
		q = q.Relation("Items", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("oi.position ASC")
		})
	}
	err := q.Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}

func translateInsert(err error) error {
	if database.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %v", ErrDuplicateNumber, err)
	}
	return err
}
