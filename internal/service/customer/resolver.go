package customer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/tableorder/internal/cache"
	"github.com/Additional-Code/tableorder/internal/config"
	"github.com/Additional-Code/tableorder/internal/entity"
	repo "github.com/Additional-Code/tableorder/internal/repository/customer"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/tableorder/service/customer")

// Store is the persistence the resolver needs.
type Store interface {
	FindByPhone(ctx context.Context, restaurantID uuid.UUID, phone string) (*entity.Customer, error)
	FindByEmail(ctx context.Context, restaurantID uuid.UUID, email string) (*entity.Customer, error)
	Create(ctx context.Context, customer *entity.Customer) error
	RecordOrder(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error
}

// Contact is the optional identity a diner supplies at checkout.
type Contact struct {
	Phone string
	Email string
	Name  string
	Token string
}

// Normalize trims whitespace and lowercases the email.
func (c Contact) Normalize() Contact {
	return Contact{
		Phone: strings.TrimSpace(c.Phone),
		Email: strings.ToLower(strings.TrimSpace(c.Email)),
		Name:  strings.TrimSpace(c.Name),
		Token: strings.TrimSpace(c.Token),
	}
}

// Anonymous reports whether neither phone nor email is present.
func (c Contact) Anonymous() bool {
	return c.Phone == "" && c.Email == ""
}

// Resolver maps a diner's contact details to a stable customer record.
type Resolver struct {
	store    Store
	cache    cache.Store
	cacheTTL time.Duration
	logger   *zap.Logger
}

// Params defines dependencies for constructing Resolver.
type Params struct {
	fx.In

	Repository *repo.Repository
	Cache      cache.Store
	Config     config.Config
	Logger     *zap.Logger
}

// NewResolver wires a Resolver backed by the customer repository.
func NewResolver(p Params) *Resolver {
	return newResolver(p.Repository, p.Cache, p.Config.Cache.DefaultTTL, p.Logger)
}

func newResolver(store Store, c cache.Store, ttl time.Duration, logger *zap.Logger) *Resolver {
	if c == nil {
		c = cache.Noop()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{store: store, cache: c, cacheTTL: ttl, logger: logger}
}

// Resolve returns the customer id for contact within restaurantID. It returns
// nil without error for anonymous contacts. Repeated calls with the same phone
// converge on one row; a concurrent insert that loses the unique race re-reads
// the winner.
func (r *Resolver) Resolve(ctx context.Context, restaurantID uuid.UUID, contact Contact) (*uuid.UUID, error) {
	contact = contact.Normalize()
	if contact.Anonymous() {
		return nil, nil
	}

	ctx, span := serviceTracer.Start(ctx, "CustomerResolver.Resolve", trace.WithAttributes(
		attribute.String("restaurant.id", restaurantID.String()),
		attribute.Bool("customer.has_phone", contact.Phone != ""),
	))
	defer span.End()

	key := lookupKey(restaurantID, contact)
	var cachedID uuid.UUID
	if err := cache.GetJSON(ctx, r.cache, key, &cachedID); err == nil && cachedID != uuid.Nil {
		return &cachedID, nil
	} else if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
		r.logger.Warn("customer cache read failed", zap.String("key", key), zap.Error(err))
	}

	existing, err := r.find(ctx, restaurantID, contact)
	switch {
	case err == nil:
		r.remember(ctx, key, existing.ID)
		return &existing.ID, nil
	case !errors.Is(err, repo.ErrNotFound):
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		return nil, fmt.Errorf("lookup customer: %w", err)
	}

	created, err := r.create(ctx, restaurantID, contact)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
		return nil, err
	}
	r.remember(ctx, key, created)
	return &created, nil
}

// RecordOrder bumps the aggregate counters of a customer after a placed order.
func (r *Resolver) RecordOrder(ctx context.Context, id uuid.UUID, total decimal.Decimal) error {
	return r.store.RecordOrder(ctx, id, total)
}

func (r *Resolver) find(ctx context.Context, restaurantID uuid.UUID, contact Contact) (*entity.Customer, error) {
	if contact.Phone != "" {
		return r.store.FindByPhone(ctx, restaurantID, contact.Phone)
	}
	return r.store.FindByEmail(ctx, restaurantID, contact.Email)
}

func (r *Resolver) create(ctx context.Context, restaurantID uuid.UUID, contact Contact) (uuid.UUID, error) {
	token := contact.Token
	if token == "" {
		token = uuid.NewString()
	}
	now := time.Now().UTC()
	customer := &entity.Customer{
		ID:              uuid.New(),
		RestaurantID:    restaurantID,
		PhoneNumber:     contact.Phone,
		EmailAddress:    contact.Email,
		Token:           token,
		FullName:        contact.Name,
		OptedForUpdates: true,
		TotalSpent:      decimal.Zero,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err := r.store.Create(ctx, customer)
	if err == nil {
		return customer.ID, nil
	}
	if !errors.Is(err, repo.ErrDuplicate) {
		return uuid.Nil, fmt.Errorf("create customer: %w", err)
	}

	winner, findErr := r.find(ctx, restaurantID, contact)
	if findErr != nil {
		return uuid.Nil, fmt.Errorf("re-read customer after conflict: %w", findErr)
	}
	return winner.ID, nil
}

func (r *Resolver) remember(ctx context.Context, key string, id uuid.UUID) {
	if err := cache.SetJSON(ctx, r.cache, key, id, r.cacheTTL); err != nil {
		r.logger.Warn("customer cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func lookupKey(restaurantID uuid.UUID, contact Contact) string {
	if contact.Phone != "" {
		return fmt.Sprintf("customers:%s:phone:%s", restaurantID, contact.Phone)
	}
	return fmt.Sprintf("customers:%s:email:%s", restaurantID, contact.Email)
}
