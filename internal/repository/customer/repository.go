package customer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/tableorder/internal/database"
	"github.com/Additional-Code/tableorder/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/tableorder/repository/customer")

var (
	// ErrNotFound is returned when no customer matches.
	ErrNotFound = errors.New("customer not found")
	// ErrDuplicate is returned when (restaurant_id, phone_number) already exists.
	ErrDuplicate = errors.New("customer already exists")
)

// Repository encapsulates customer persistence.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{writer: conns.Writer, reader: conns.Reader}
}

// FindByPhone looks a customer up by restaurant and phone number. It reads
// from the writer so a row created moments ago by a concurrent checkout is visible.
func (r *Repository) FindByPhone(ctx context.Context, restaurantID uuid.UUID, phone string) (*entity.Customer, error) {
	return r.findBy(ctx, "CustomerRepository.FindByPhone", restaurantID, "c.phone_number = ?", phone)
}

// FindByEmail looks a customer up by restaurant and email address.
func (r *Repository) FindByEmail(ctx context.Context, restaurantID uuid.UUID, email string) (*entity.Customer, error) {
	return r.findBy(ctx, "CustomerRepository.FindByEmail", restaurantID, "c.email_address = ?", email)
}

// FindByToken looks a customer up by the client-held token.
func (r *Repository) FindByToken(ctx context.Context, restaurantID uuid.UUID, token string) (*entity.Customer, error) {
	return r.findBy(ctx, "CustomerRepository.FindByToken", restaurantID, "c.customer_token = ?", token)
}

func (r *Repository) findBy(ctx context.Context, spanName string, restaurantID uuid.UUID, where string, arg string) (*entity.Customer, error) {
	ctx, span := repoTracer.Start(ctx, spanName, trace.WithAttributes(attribute.String("restaurant.id", restaurantID.String())))
	defer span.End()

	customer := new(entity.Customer)
	err := r.writer.NewSelect().
		Model(customer).
		Where("c.restaurant_id = ?", restaurantID).
		Where(where, arg).
		Order("c.created_at ASC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return customer, nil
}

// Create inserts a new customer row.
func (r *Repository) Create(ctx context.Context, customer *entity.Customer) error {
	if customer == nil {
		return errors.New("nil customer")
	}
	ctx, span := repoTracer.Start(ctx, "CustomerRepository.Create", trace.WithAttributes(attribute.String("restaurant.id", customer.RestaurantID.String())))
	defer span.End()

	if _, err := r.writer.NewInsert().Model(customer).Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %v", ErrDuplicate, err)
		}
		return err
	}
	return nil
}

// RecordOrder bumps the aggregate order counters for a customer.
func (r *Repository) RecordOrder(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	ctx, span := repoTracer.Start(ctx, "CustomerRepository.RecordOrder", trace.WithAttributes(attribute.String("customer.id", id.String())))
	defer span.End()

	_, err := r.writer.NewUpdate().
		Model((*entity.Customer)(nil)).
		Set("total_orders = total_orders + 1").
		Set("total_spent = total_spent + ?", amount).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
	}
	return err
}
