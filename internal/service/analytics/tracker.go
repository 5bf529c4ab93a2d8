// Package analytics records customer-side usage events for an outlet.
package analytics

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/tableorder/internal/entity"
	analyticsrepo "github.com/Additional-Code/tableorder/internal/repository/analytics"
	outletrepo "github.com/Additional-Code/tableorder/internal/repository/outlet"
	"github.com/Additional-Code/tableorder/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/tableorder/service/analytics")

// EventStore appends analytics events.
type EventStore interface {
	Insert(ctx context.Context, event *entity.AnalyticsEvent) error
}

// OutletStore confirms an outlet exists.
type OutletStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Outlet, error)
}

// Event is a client-reported interaction with the menu.
type Event struct {
	Type          string
	DishID        string
	CustomerToken string
	Metadata      map[string]any
}

// trackable lists the event types clients may report. order_placed is only
// written by checkout.
var trackable = map[string]bool{
	entity.EventMenuViewed:      true,
	entity.EventItemAddedToCart: true,
}

// Tracker validates and stores client events.
type Tracker struct {
	events  EventStore
	outlets OutletStore
	logger  *zap.Logger
	now     func() time.Time
}

// Params defines dependencies for constructing Tracker.
type Params struct {
	fx.In

	Events  *analyticsrepo.Repository
	Outlets *outletrepo.Repository
	Logger  *zap.Logger
}

// NewTracker wires a Tracker.
func NewTracker(p Params) *Tracker {
	return newTracker(p.Events, p.Outlets, p.Logger)
}

func newTracker(events EventStore, outlets OutletStore, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{events: events, outlets: outlets, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Track stores ev for outletID.
func (t *Tracker) Track(ctx context.Context, outletID uuid.UUID, ev Event) (*entity.AnalyticsEvent, error) {
	eventType := strings.ToLower(strings.TrimSpace(ev.Type))
	ctx, span := serviceTracer.Start(ctx, "AnalyticsTracker.Track", trace.WithAttributes(
		attribute.String("outlet.id", outletID.String()),
		attribute.String("event.type", eventType),
	))
	defer span.End()

	if !trackable[eventType] {
		return nil, errorbank.BadRequest("unsupported event type", errorbank.WithDetail("event_type", ev.Type))
	}
	if eventType == entity.EventItemAddedToCart && strings.TrimSpace(ev.DishID) == "" {
		return nil, errorbank.BadRequest("dish_id is required for item_added_to_cart")
	}

	if _, err := t.outlets.GetByID(ctx, outletID); err != nil {
		if errors.Is(err, outletrepo.ErrNotFound) {
			return nil, errorbank.NotFound("outlet not found")
		}
		return nil, errorbank.Dependency("failed to load outlet", err)
	}

	event := &entity.AnalyticsEvent{
		ID:            uuid.New(),
		OutletID:      outletID,
		EventType:     eventType,
		CustomerToken: strings.TrimSpace(ev.CustomerToken),
		DishID:        strings.TrimSpace(ev.DishID),
		Metadata:      ev.Metadata,
		CreatedAt:     t.now(),
	}
	if err := t.events.Insert(ctx, event); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		t.logger.Warn("analytics event write failed", zap.String("event_type", eventType), zap.Error(err))
		return nil, errorbank.Dependency("failed to record event", err)
	}
	return event, nil
}
