package order

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/Additional-Code/tableorder/internal/entity"
	"github.com/Additional-Code/tableorder/internal/messaging"
	"github.com/Additional-Code/tableorder/internal/orderstate"
)

// Event types carried in the messaging.HeaderEventType header.
const (
	EventOrderPlaced        = "order.placed"
	EventOrderStatusChanged = "order.status_changed"
)

// OrderPlacedEvent is emitted once an order is persisted.
type OrderPlacedEvent struct {
	ID          string    `json:"id"`
	Number      string    `json:"number"`
	OutletID    string    `json:"outlet_id"`
	TableNumber string    `json:"table_number,omitempty"`
	Status      string    `json:"status"`
	Total       string    `json:"total_amount"`
	ItemCount   int       `json:"items_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// OrderStatusChangedEvent is emitted after a status update.
type OrderStatusChangedEvent struct {
	ID        string    `json:"id"`
	Number    string    `json:"number"`
	OutletID  string    `json:"outlet_id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	ChangedAt time.Time `json:"changed_at"`
}

func (s *Service) publishPlaced(ctx context.Context, order *entity.Order) {
	s.publish(ctx, EventOrderPlaced, order, OrderPlacedEvent{
		ID:          order.ID.String(),
		Number:      order.Number,
		OutletID:    order.OutletID.String(),
		TableNumber: order.TableNumber,
		Status:      order.Status.String(),
		Total:       order.Total.StringFixed(2),
		ItemCount:   len(order.Items),
		CreatedAt:   order.CreatedAt,
	})
}

func (s *Service) publishStatusChanged(ctx context.Context, order *entity.Order, from orderstate.Status) {
	s.publish(ctx, EventOrderStatusChanged, order, OrderStatusChangedEvent{
		ID:        order.ID.String(),
		Number:    order.Number,
		OutletID:  order.OutletID.String(),
		From:      from.String(),
		To:        order.Status.String(),
		ChangedAt: order.UpdatedAt,
	})
}

func (s *Service) publish(ctx context.Context, eventType string, order *entity.Order, event any) {
	if !s.opts.publish {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("marshal order event", zap.String("event_type", eventType), zap.Error(err))
		return
	}
	headers := map[string]string{messaging.HeaderEventType: eventType}
	if err := s.publisher.Publish(ctx, []byte(order.ID.String()), payload, headers); err != nil {
		s.logger.Error("publish order event", zap.String("event_type", eventType), zap.String("order_id", order.ID.String()), zap.Error(err))
	}
}
