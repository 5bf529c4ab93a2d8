package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/Additional-Code/tableorder/internal/config"
)

func TestKafkaHeaders(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	headers := toKafkaHeaders(map[string]string{HeaderEventType: "order.placed", HeaderProducedAt: "spoofed"}, at)

	require.Len(t, headers, 3)
	decoded := fromKafkaHeaders(headers)
	assert.Equal(t, "order.placed", decoded[HeaderEventType])
	assert.Equal(t, "application/json", decoded[HeaderContentType])
	assert.Equal(t, "2026-03-01T10:00:00Z", decoded[HeaderProducedAt])

	assert.Nil(t, fromKafkaHeaders(nil))
	assert.Equal(t, map[string]string{"a": "b"}, fromKafkaHeaders([]kafka.Header{{Key: "a", Value: []byte("b")}}))
}

func TestHandleWithRetry(t *testing.T) {
	ctx := context.Background()

	calls := 0
	flaky := func(context.Context, Message) error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	}
	require.NoError(t, handleWithRetry(ctx, flaky, Message{}, 3, time.Millisecond))
	assert.Equal(t, 2, calls)

	calls = 0
	broken := func(context.Context, Message) error {
		calls++
		return errors.New("poison")
	}
	assert.EqualError(t, handleWithRetry(ctx, broken, Message{}, 3, time.Millisecond), "poison")
	assert.Equal(t, 3, calls)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, handleWithRetry(cancelled, broken, Message{}, 3, time.Hour), context.Canceled)
}

func TestNewClientNoop(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	cfg := config.Config{Messaging: config.Messaging{Enabled: false, Kafka: config.Kafka{Topic: "orders.events"}}}

	client, err := NewClient(lc, cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "orders.events", client.Topic())
	assert.NoError(t, client.Publish(context.Background(), nil, []byte("{}"), nil))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, client.Consume(ctx, nil), context.DeadlineExceeded)
}
