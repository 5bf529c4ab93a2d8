package order

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Additional-Code/tableorder/internal/config"
	"github.com/Additional-Code/tableorder/internal/entity"
	"github.com/Additional-Code/tableorder/internal/logger"
	"github.com/Additional-Code/tableorder/internal/orderstate"
	"github.com/Additional-Code/tableorder/internal/pricing"
	repo "github.com/Additional-Code/tableorder/internal/repository/order"
	outletrepo "github.com/Additional-Code/tableorder/internal/repository/outlet"
	"github.com/Additional-Code/tableorder/internal/service/customer"
	"github.com/Additional-Code/tableorder/pkg/errorbank"
)

// Step names reported when a checkout dependency fails.
const (
	StepCustomer  = "customer"
	StepTable     = "table"
	StepItem      = "order_item"
	StepAnalytics = "analytics"
	StepAggregate = "customer_aggregate"
)

// Line is one cart entry as submitted by the diner.
type Line struct {
	DishID    string
	VariantID string
	Name      string
	Price     decimal.Decimal
	Quantity  int
}

// PlaceRequest is a checkout submission for one outlet.
type PlaceRequest struct {
	Items               []Line
	TableNumber         string
	Contact             customer.Contact
	SpecialInstructions string
	UserAgent           string
	IPAddress           string
}

// Place validates, prices and persists a checkout. The returned order carries
// the items that were written.
func (s *Service) Place(ctx context.Context, outletID uuid.UUID, req PlaceRequest) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Place", trace.WithAttributes(
		attribute.String("outlet.id", outletID.String()),
		attribute.Int("order.lines", len(req.Items)),
	))
	defer span.End()

	outlet, err := s.loadOutlet(ctx, outletID)
	if err != nil {
		return nil, err
	}

	if err := validateLines(req.Items); err != nil {
		return nil, err
	}
	totals, err := s.pricing.Price(toPricingLines(req.Items))
	if err != nil {
		return nil, pricingError(err)
	}

	customerID, err := s.resolveCustomer(ctx, outlet.RestaurantID, req.Contact)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "customer resolution failed")
		return nil, err
	}

	tableNumber := strings.TrimSpace(req.TableNumber)
	tableID := s.lookupTable(ctx, outlet.ID, tableNumber)

	contact := req.Contact.Normalize()
	now := s.now()
	order := &entity.Order{
		ID:                  uuid.New(),
		OutletID:            outlet.ID,
		CustomerID:          customerID,
		TableID:             tableID,
		TableNumber:         tableNumber,
		Status:              orderstate.Initial,
		PaymentStatus:       orderstate.PaymentPending,
		Subtotal:            totals.Subtotal,
		Tax:                 totals.Tax,
		Total:               totals.Total,
		SpecialInstructions: strings.TrimSpace(req.SpecialInstructions),
		CustomerPhone:       contact.Phone,
		CustomerEmail:       contact.Email,
		CustomerName:        contact.Name,
		Source:              s.opts.source,
		UserAgent:           req.UserAgent,
		IPAddress:           req.IPAddress,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	items := buildItems(order.ID, req.Items, now)

	var inTx *entity.AnalyticsEvent
	if s.opts.writeMode == config.WriteModeBestEffort {
		items, err = s.persistBestEffort(ctx, order, items)
	} else {
		if s.opts.strictAnalytics {
			inTx = s.placedEvent(order, contact.Token, len(items))
		}
		err = s.persistTransactional(ctx, order, items, inTx)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		return nil, err
	}
	order.Items = items
	span.SetAttributes(attribute.String("order.number", order.Number))

	if inTx == nil {
		s.recordAnalytics(ctx, s.placedEvent(order, contact.Token, len(items)))
	}
	if customerID != nil {
		s.recordAggregate(ctx, *customerID, order.Total)
	}

	s.storeInCache(ctx, order, true)
	s.publishPlaced(ctx, order)
	s.metrics.OrderPlaced(ctx, order.Source, len(order.Items))

	logger.WithTrace(ctx, s.logger).Info("order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.Number),
		zap.String("outlet_id", outlet.ID.String()),
		zap.Int("items", len(order.Items)),
		zap.String("total", order.Total.StringFixed(2)),
	)
	return order, nil
}

func (s *Service) loadOutlet(ctx context.Context, id uuid.UUID) (*entity.Outlet, error) {
	stepCtx, cancel := s.step(ctx)
	defer cancel()

	outlet, err := s.outlets.GetByID(stepCtx, id)
	if err != nil {
		if errors.Is(err, outletrepo.ErrNotFound) {
			return nil, errorbank.NotFound("outlet not found", errorbank.WithDetail("outlet_id", id.String()))
		}
		return nil, errorbank.Dependency("failed to load outlet", err)
	}
	return outlet, nil
}

func validateLines(lines []Line) error {
	if len(lines) == 0 {
		return errorbank.BadRequest("order must contain at least one item")
	}
	for i, line := range lines {
		if strings.TrimSpace(line.DishID) == "" {
			return errorbank.BadRequest("item is missing a dish id", errorbank.WithDetail("line", i+1))
		}
		if strings.TrimSpace(line.Name) == "" {
			return errorbank.BadRequest("item is missing a name", errorbank.WithDetail("line", i+1))
		}
	}
	return nil
}

// resolveCustomer returns nil without error for anonymous checkouts and, under
// the lenient policy, when resolution fails.
func (s *Service) resolveCustomer(ctx context.Context, restaurantID uuid.UUID, contact customer.Contact) (*uuid.UUID, error) {
	if s.customers == nil || contact.Normalize().Anonymous() {
		return nil, nil
	}

	stepCtx, cancel := s.step(ctx)
	defer cancel()

	id, err := s.customers.Resolve(stepCtx, restaurantID, contact)
	if err == nil {
		return id, nil
	}
	if s.opts.strictCustomer {
		return nil, errorbank.Dependency("failed to resolve customer", err)
	}
	s.logger.Warn("customer resolution failed, continuing anonymously",
		zap.String("restaurant_id", restaurantID.String()),
		zap.Error(err),
	)
	s.metrics.DependencyFailed(ctx, StepCustomer)
	return nil, nil
}

// lookupTable returns the table id, or nil when the number is blank or unknown.
func (s *Service) lookupTable(ctx context.Context, outletID uuid.UUID, number string) *uuid.UUID {
	if number == "" {
		return nil
	}

	stepCtx, cancel := s.step(ctx)
	defer cancel()

	table, err := s.outlets.FindTable(stepCtx, outletID, number)
	switch {
	case err == nil:
		return &table.ID
	case errors.Is(err, outletrepo.ErrTableNotFound):
		s.logger.Debug("table not registered", zap.String("outlet_id", outletID.String()), zap.String("table", number))
	default:
		s.logger.Warn("table lookup failed", zap.String("outlet_id", outletID.String()), zap.String("table", number), zap.Error(err))
		s.metrics.DependencyFailed(ctx, StepTable)
	}
	return nil
}

func toPricingLines(lines []Line) []pricing.Line {
	out := make([]pricing.Line, len(lines))
	for i, line := range lines {
		out[i] = pricing.Line{UnitPrice: line.Price, Quantity: line.Quantity}
	}
	return out
}

func pricingError(err error) error {
	var lineErr *pricing.LineError
	if errors.As(err, &lineErr) {
		return errorbank.BadRequest(lineErr.Err.Error(), errorbank.WithDetail("line", lineErr.Index+1))
	}
	return errorbank.BadRequest(err.Error())
}

func buildItems(orderID uuid.UUID, lines []Line, now time.Time) []entity.OrderItem {
	items := make([]entity.OrderItem, len(lines))
	for i, line := range lines {
		priced := pricing.Line{UnitPrice: line.Price, Quantity: line.Quantity}
		items[i] = entity.OrderItem{
			ID:            uuid.New(),
			OrderID:       orderID,
			DishID:        strings.TrimSpace(line.DishID),
			DishVariantID: strings.TrimSpace(line.VariantID),
			DishName:      strings.TrimSpace(line.Name),
			Position:      i,
			Price:         line.Price,
			Quantity:      line.Quantity,
			ItemTotal:     priced.Total(),
			CreatedAt:     now,
		}
	}
	return items
}

// persistTransactional writes header, items and an optional event atomically,
// drawing a fresh order number when the previous one collides.
func (s *Service) persistTransactional(ctx context.Context, order *entity.Order, items []entity.OrderItem, event *entity.AnalyticsEvent) error {
	return s.withNumber(order, func() error {
		if event != nil {
			event.Metadata["order_number"] = order.Number
		}
		stepCtx, cancel := s.step(ctx)
		defer cancel()
		return s.orders.CreateWithItems(stepCtx, order, items, event)
	})
}

// persistBestEffort writes the header and then each item independently. Item
// failures are logged and skipped; the items actually written are returned.
func (s *Service) persistBestEffort(ctx context.Context, order *entity.Order, items []entity.OrderItem) ([]entity.OrderItem, error) {
	err := s.withNumber(order, func() error {
		stepCtx, cancel := s.step(ctx)
		defer cancel()
		return s.orders.Create(stepCtx, order)
	})
	if err != nil {
		s.logger.Error("order header write failed", zap.String("outlet_id", order.OutletID.String()), zap.Error(err))
		return nil, err
	}

	written := make([]entity.OrderItem, 0, len(items))
	for i := range items {
		item := items[i]
		stepCtx, cancel := s.step(ctx)
		err := s.orders.CreateItem(stepCtx, &item)
		cancel()
		if err != nil {
			s.logger.Error("order item write failed",
				zap.String("order_id", order.ID.String()),
				zap.String("dish_id", item.DishID),
				zap.Int("position", item.Position),
				zap.Error(err),
			)
			s.metrics.DependencyFailed(ctx, StepItem)
			continue
		}
		written = append(written, item)
	}
	return written, nil
}

func (s *Service) withNumber(order *entity.Order, write func() error) error {
	attempts := s.opts.numberAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		order.Number = s.newNumber(order.CreatedAt)
		err = write()
		if err == nil {
			return nil
		}
		if !errors.Is(err, repo.ErrDuplicateNumber) {
			return errorbank.Dependency("failed to place order", err)
		}
		s.logger.Warn("order number collision", zap.String("order_number", order.Number), zap.Int("attempt", i+1))
	}
	return errorbank.Conflict("could not allocate a unique order number", errorbank.WithCause(err))
}

func (s *Service) placedEvent(order *entity.Order, customerToken string, items int) *entity.AnalyticsEvent {
	return &entity.AnalyticsEvent{
		ID:            uuid.New(),
		OutletID:      order.OutletID,
		EventType:     entity.EventOrderPlaced,
		CustomerID:    order.CustomerID,
		CustomerToken: customerToken,
		Metadata: map[string]any{
			"order_id":     order.ID.String(),
			"order_number": order.Number,
			"total_amount": order.Total.StringFixed(2),
			"item_count":   items,
		},
		CreatedAt: order.CreatedAt,
	}
}

// recordAnalytics appends the order_placed event after the order is durable.
func (s *Service) recordAnalytics(ctx context.Context, event *entity.AnalyticsEvent) {
	if s.analytics == nil {
		return
	}
	stepCtx, cancel := s.step(ctx)
	defer cancel()

	if err := s.analytics.Insert(stepCtx, event); err != nil {
		s.logger.Warn("order analytics write failed", zap.String("outlet_id", event.OutletID.String()), zap.Error(err))
		s.metrics.DependencyFailed(ctx, StepAnalytics)
	}
}

func (s *Service) recordAggregate(ctx context.Context, customerID uuid.UUID, total decimal.Decimal) {
	if s.customers == nil {
		return
	}
	stepCtx, cancel := s.step(ctx)
	defer cancel()

	if err := s.customers.RecordOrder(stepCtx, customerID, total); err != nil {
		s.logger.Warn("customer aggregate update failed", zap.String("customer_id", customerID.String()), zap.Error(err))
		s.metrics.DependencyFailed(ctx, StepAggregate)
	}
}
