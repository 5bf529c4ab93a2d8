package order

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Additional-Code/tableorder/internal/config"
	"github.com/Additional-Code/tableorder/internal/messaging"
	ordersvc "github.com/Additional-Code/tableorder/internal/service/order"
	"github.com/Additional-Code/tableorder/internal/worker"
)

var workerTracer = otel.Tracer("github.com/Additional-Code/tableorder/worker/order")

// NewOrderPlacedHandler turns placed orders into kitchen tickets for the outlet.
func NewOrderPlacedHandler(logger *zap.Logger, cfg config.Config) worker.HandlerRegistration {
	logger = logger.Named("kitchen")

	handler := func(ctx context.Context, msg messaging.Message) error {
		_, span := workerTracer.Start(ctx, "worker.orders.placed", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
		))
		defer span.End()

		var event ordersvc.OrderPlacedEvent
		if err := decode(msg, &event, span); err != nil {
			logger.Error("failed to decode order placed", zap.Error(err))
			return err
		}
		span.SetAttributes(attribute.String("order.id", event.ID))

		table := event.TableNumber
		if table == "" {
			table = "takeaway"
		}
		logger.Info("new order ticket",
			zap.String("order_id", event.ID),
			zap.String("order_number", event.Number),
			zap.String("outlet_id", event.OutletID),
			zap.String("table", table),
			zap.Int("items", event.ItemCount),
			zap.String("total_amount", event.Total),
		)

		return nil
	}

	return worker.HandlerRegistration{
		Topic:     cfg.Messaging.Kafka.Topic,
		EventType: ordersvc.EventOrderPlaced,
		Handler:   handler,
	}
}

// NewStatusChangedHandler notifies guests about progress on their order.
func NewStatusChangedHandler(logger *zap.Logger, cfg config.Config) worker.HandlerRegistration {
	logger = logger.Named("guest")

	handler := func(ctx context.Context, msg messaging.Message) error {
		_, span := workerTracer.Start(ctx, "worker.orders.status_changed", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
		))
		defer span.End()

		var event ordersvc.OrderStatusChangedEvent
		if err := decode(msg, &event, span); err != nil {
			logger.Error("failed to decode status change", zap.Error(err))
			return err
		}
		span.SetAttributes(attribute.String("order.id", event.ID))

		if event.From == event.To {
			logger.Debug("status unchanged; nothing to notify", zap.String("order_id", event.ID))
			return nil
		}
		logger.Info("order status notification",
			zap.String("order_id", event.ID),
			zap.String("order_number", event.Number),
			zap.String("from", event.From),
			zap.String("to", event.To),
		)

		return nil
	}

	return worker.HandlerRegistration{
		Topic:     cfg.Messaging.Kafka.Topic,
		EventType: ordersvc.EventOrderStatusChanged,
		Handler:   handler,
	}
}

func decode(msg messaging.Message, dst any, span trace.Span) error {
	if err := json.Unmarshal(msg.Value, dst); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "decode error")
		return err
	}
	return nil
}
