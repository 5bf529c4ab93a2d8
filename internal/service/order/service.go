package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/tableorder/internal/auth"
	"github.com/Additional-Code/tableorder/internal/cache"
	"github.com/Additional-Code/tableorder/internal/config"
	"github.com/Additional-Code/tableorder/internal/entity"
	"github.com/Additional-Code/tableorder/internal/messaging"
	"github.com/Additional-Code/tableorder/internal/observability"
	"github.com/Additional-Code/tableorder/internal/orderstate"
	"github.com/Additional-Code/tableorder/internal/pricing"
	analyticsrepo "github.com/Additional-Code/tableorder/internal/repository/analytics"
	repo "github.com/Additional-Code/tableorder/internal/repository/order"
	outletrepo "github.com/Additional-Code/tableorder/internal/repository/outlet"
	"github.com/Additional-Code/tableorder/internal/service/customer"
	"github.com/Additional-Code/tableorder/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/tableorder/service/order")

// OrderStore persists orders and their items.
type OrderStore interface {
	Create(ctx context.Context, order *entity.Order) error
	CreateItem(ctx context.Context, item *entity.OrderItem) error
	CreateWithItems(ctx context.Context, order *entity.Order, items []entity.OrderItem, event *entity.AnalyticsEvent) error
	GetByID(ctx context.Context, id uuid.UUID, withItems bool) (*entity.Order, error)
	GetCurrent(ctx context.Context, id uuid.UUID) (*entity.Order, error)
	ListByOutlet(ctx context.Context, outletID uuid.UUID, filter repo.ListFilter) ([]entity.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to orderstate.Status) (*entity.Order, error)
}

// OutletStore resolves outlets and their tables.
type OutletStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Outlet, error)
	FindTable(ctx context.Context, outletID uuid.UUID, number string) (*entity.Table, error)
}

// CustomerResolver maps checkout contact details to a customer id.
type CustomerResolver interface {
	Resolve(ctx context.Context, restaurantID uuid.UUID, contact customer.Contact) (*uuid.UUID, error)
	RecordOrder(ctx context.Context, id uuid.UUID, total decimal.Decimal) error
}

// AnalyticsStore appends analytics events.
type AnalyticsStore interface {
	Insert(ctx context.Context, event *entity.AnalyticsEvent) error
}

// Service encapsulates checkout and the order lifecycle.
type Service struct {
	orders    OrderStore
	outlets   OutletStore
	customers CustomerResolver
	analytics AnalyticsStore
	cache     cache.Store
	cacheTTL  time.Duration
	publisher messaging.Client
	metrics   *observability.OrderMetrics
	logger    *zap.Logger

	pricing pricing.Engine
	policy  orderstate.Policy
	opts    options

	now       func() time.Time
	newNumber func(time.Time) string
}

type options struct {
	writeMode       string
	strictCustomer  bool
	strictAnalytics bool
	stepTimeout     time.Duration
	numberAttempts  int
	source          string
	publish         bool
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Orders    *repo.Repository
	Outlets   *outletrepo.Repository
	Analytics *analyticsrepo.Repository
	Customers *customer.Resolver
	Cache     cache.Store
	Config    config.Config
	Logger    *zap.Logger
	Publisher messaging.Client
	Metrics   *observability.OrderMetrics `optional:"true"`
}

// NewService wires a new Service instance.
func NewService(p Params) (*Service, error) {
	policy, err := orderstate.PolicyFor(p.Config.Ordering.StatusPolicy)
	if err != nil {
		return nil, err
	}
	deps := dependencies{
		orders:    p.Orders,
		outlets:   p.Outlets,
		customers: p.Customers,
		analytics: p.Analytics,
		cache:     p.Cache,
		publisher: p.Publisher,
		metrics:   p.Metrics,
		logger:    p.Logger,
	}
	return newService(deps, p.Config, policy), nil
}

type dependencies struct {
	orders    OrderStore
	outlets   OutletStore
	customers CustomerResolver
	analytics AnalyticsStore
	cache     cache.Store
	publisher messaging.Client
	metrics   *observability.OrderMetrics
	logger    *zap.Logger
}

func newService(d dependencies, cfg config.Config, policy orderstate.Policy) *Service {
	if d.cache == nil {
		d.cache = cache.Noop()
	}
	if d.logger == nil {
		d.logger = zap.NewNop()
	}
	ordering := cfg.Ordering
	return &Service{
		orders:    d.orders,
		outlets:   d.outlets,
		customers: d.customers,
		analytics: d.analytics,
		cache:     d.cache,
		cacheTTL:  cfg.Cache.DefaultTTL,
		publisher: d.publisher,
		metrics:   d.metrics,
		logger:    d.logger,
		pricing:   pricing.New(ordering.TaxRate),
		policy:    policy,
		opts: options{
			writeMode:       ordering.WriteMode,
			strictCustomer:  ordering.CustomerPolicy == config.PolicyStrict,
			strictAnalytics: ordering.AnalyticsPolicy == config.PolicyStrict,
			stepTimeout:     ordering.StepTimeout,
			numberAttempts:  ordering.NumberRetries,
			source:          ordering.Source,
			publish:         cfg.Messaging.Enabled && d.publisher != nil,
		},
		now:       func() time.Time { return time.Now().UTC() },
		newNumber: NewOrderNumber,
	}
}

// Get retrieves an order by id, consulting cache when available.
func (s *Service) Get(ctx context.Context, id uuid.UUID, withItems bool) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Get", trace.WithAttributes(
		attribute.String("order.id", id.String()),
		attribute.Bool("order.with_items", withItems),
	))
	defer span.End()

	key := cacheKey(id, withItems)
	var cached entity.Order
	if err := cache.GetJSON(ctx, s.cache, key, &cached); err == nil {
		if err := s.authorizeOutlet(ctx, cached.OutletID); err != nil {
			return nil, err
		}
		return &cached, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("orders cache read failed", zap.String("key", key), zap.Error(err))
	}

	order, err := s.orders.GetByID(ctx, id, withItems)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("order not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Dependency("failed to load order", err)
	}
	if err := s.authorizeOutlet(ctx, order.OutletID); err != nil {
		return nil, err
	}

	s.storeInCache(ctx, order, withItems)
	return order, nil
}

// List returns the most recent orders of an outlet, newest first.
func (s *Service) List(ctx context.Context, outletID uuid.UUID, status string, limit int) ([]entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.List", trace.WithAttributes(attribute.String("outlet.id", outletID.String())))
	defer span.End()

	filter := repo.ListFilter{Limit: limit}
	if status != "" {
		parsed, err := orderstate.Parse(status)
		if err != nil {
			return nil, errorbank.BadRequest("invalid status filter", errorbank.WithDetail("status", status))
		}
		filter.Status = parsed
	}

	if err := s.authorizeOutlet(ctx, outletID); err != nil {
		return nil, err
	}

	orders, err := s.orders.ListByOutlet(ctx, outletID, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Dependency("failed to list orders", err)
	}
	return orders, nil
}

// authorizeOutlet loads the outlet and checks the caller's restaurant scope.
// Without an authenticated actor on ctx only existence is checked.
func (s *Service) authorizeOutlet(ctx context.Context, outletID uuid.UUID) error {
	if _, ok := auth.FromContext(ctx); !ok {
		return nil
	}
	outlet, err := s.outlets.GetByID(ctx, outletID)
	if err != nil {
		if errors.Is(err, outletrepo.ErrNotFound) {
			return errorbank.NotFound("outlet not found")
		}
		return errorbank.Dependency("failed to load outlet", err)
	}
	return auth.Authorize(ctx, outlet.RestaurantID)
}

func (s *Service) storeInCache(ctx context.Context, order *entity.Order, withItems bool) {
	key := cacheKey(order.ID, withItems)
	if err := cache.SetJSON(ctx, s.cache, key, order, s.cacheTTL); err != nil {
		s.logger.Warn("orders cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *Service) evictFromCache(ctx context.Context, id uuid.UUID) {
	if err := s.cache.Delete(ctx, cacheKey(id, false), cacheKey(id, true)); err != nil {
		s.logger.Warn("orders cache evict failed", zap.String("order_id", id.String()), zap.Error(err))
	}
}

// step bounds a single external call of a multi-step operation.
func (s *Service) step(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.stepTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.opts.stepTimeout)
}

func cacheKey(id uuid.UUID, withItems bool) string {
	if withItems {
		return fmt.Sprintf("orders:%s:items", id)
	}
	return fmt.Sprintf("orders:%s", id)
}
