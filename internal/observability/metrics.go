package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const orderMeterName = "github.com/Additional-Code/tableorder/orders"

// OrderMetrics records checkout and lifecycle counters. A nil *OrderMetrics
// is valid and records nothing.
type OrderMetrics struct {
	placed             metric.Int64Counter
	transitions        metric.Int64Counter
	dependencyFailures metric.Int64Counter
}

// NewOrderMetrics registers order instruments on the manager's meter.
func NewOrderMetrics(mgr *Manager) (*OrderMetrics, error) {
	meter := mgr.Meter(orderMeterName)

	placed, err := meter.Int64Counter("orders_placed_total",
		metric.WithDescription("Orders persisted by checkout"))
	if err != nil {
		return nil, err
	}
	transitions, err := meter.Int64Counter("order_status_transitions_total",
		metric.WithDescription("Order status updates applied by staff"))
	if err != nil {
		return nil, err
	}
	failures, err := meter.Int64Counter("checkout_dependency_failures_total",
		metric.WithDescription("Non-fatal checkout step failures"))
	if err != nil {
		return nil, err
	}

	return &OrderMetrics{placed: placed, transitions: transitions, dependencyFailures: failures}, nil
}

// OrderPlaced counts a persisted order.
func (m *OrderMetrics) OrderPlaced(ctx context.Context, source string, items int) {
	if m == nil {
		return
	}
	m.placed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", source),
		attribute.Bool("has_items", items > 0),
	))
}

// StatusChanged counts an applied transition.
func (m *OrderMetrics) StatusChanged(ctx context.Context, from, to string) {
	if m == nil {
		return
	}
	m.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

// DependencyFailed counts a swallowed failure of a checkout step.
func (m *OrderMetrics) DependencyFailed(ctx context.Context, step string) {
	if m == nil {
		return
	}
	m.dependencyFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("step", step)))
}
