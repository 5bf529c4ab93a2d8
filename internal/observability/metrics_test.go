package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestOrderMetricsRecordsCounters(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mgr := &Manager{meterProvider: sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))}

	m, err := NewOrderMetrics(mgr)
	require.NoError(t, err)

	ctx := context.Background()
	m.OrderPlaced(ctx, "qr_menu", 2)
	m.OrderPlaced(ctx, "qr_menu", 1)
	m.StatusChanged(ctx, "pending", "accepted")
	m.DependencyFailed(ctx, "customer")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	totals := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, metric := range sm.Metrics {
			sum, ok := metric.Data.(metricdata.Sum[int64])
			require.True(t, ok, metric.Name)
			for _, dp := range sum.DataPoints {
				totals[metric.Name] += dp.Value
			}
		}
	}
	assert.Equal(t, int64(2), totals["orders_placed_total"])
	assert.Equal(t, int64(1), totals["order_status_transitions_total"])
	assert.Equal(t, int64(1), totals["checkout_dependency_failures_total"])
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *OrderMetrics
	assert.NotPanics(t, func() {
		m.OrderPlaced(context.Background(), "qr_menu", 1)
		m.StatusChanged(context.Background(), "a", "b")
		m.DependencyFailed(context.Background(), "analytics")
	})

	noopBacked, err := NewOrderMetrics(&Manager{})
	require.NoError(t, err)
	assert.NotPanics(t, func() { noopBacked.OrderPlaced(context.Background(), "qr_menu", 1) })
}
