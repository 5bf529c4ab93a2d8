package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/tableorder/internal/config"
	"github.com/Additional-Code/tableorder/internal/messaging"
)

type channelClient struct {
	messages chan messaging.Message
}

func (c *channelClient) Publish(context.Context, []byte, []byte, map[string]string) error { return nil }

func (c *channelClient) Consume(ctx context.Context, handler messaging.Handler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-c.messages:
			if err := handler(ctx, msg); err != nil {
				return err
			}
		}
	}
}

func (c *channelClient) Topic() string { return "orders.events" }

type recorder struct {
	mu   sync.Mutex
	seen []string
}

func (r *recorder) handler(name string) messaging.Handler {
	return func(context.Context, messaging.Message) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.seen = append(r.seen, name)
		return nil
	}
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.seen...)
}

func newTestEngine(client messaging.Client, rec *recorder) *Engine {
	cfg := config.Config{Messaging: config.Messaging{Enabled: true, Workers: config.Worker{Enabled: true, Concurrency: 1}}}
	return NewEngine(Params{
		Client: client,
		Logger: zap.NewNop(),
		Config: cfg,
		Registrations: []HandlerRegistration{
			{Topic: "orders.events", EventType: "order.placed", Handler: rec.handler("placed")},
			{Topic: "orders.events", Handler: rec.handler("fallback")},
			{Topic: "", Handler: rec.handler("ignored")},
		},
	})
}

func TestDispatchRoutesByEventType(t *testing.T) {
	rec := &recorder{}
	engine := newTestEngine(&channelClient{}, rec)
	ctx := context.Background()

	placed := messaging.Message{Topic: "orders.events", Headers: map[string]string{messaging.HeaderEventType: "order.placed"}}
	other := messaging.Message{Topic: "orders.events", Headers: map[string]string{messaging.HeaderEventType: "order.status_changed"}}
	stray := messaging.Message{Topic: "payments"}

	require.NoError(t, engine.dispatch(ctx, placed))
	require.NoError(t, engine.dispatch(ctx, other))
	require.NoError(t, engine.dispatch(ctx, stray))

	assert.Equal(t, []string{"placed", "fallback"}, rec.names())
}

func TestEngineConsumesUntilStopped(t *testing.T) {
	rec := &recorder{}
	client := &channelClient{messages: make(chan messaging.Message, 1)}
	engine := newTestEngine(client, rec)

	require.NoError(t, engine.start(context.Background()))
	client.messages <- messaging.Message{Topic: "orders.events", Headers: map[string]string{messaging.HeaderEventType: "order.placed"}}

	assert.Eventually(t, func() bool { return len(rec.names()) == 1 }, time.Second, 5*time.Millisecond)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, engine.stop(stopCtx))
}

func TestEngineDisabled(t *testing.T) {
	engine := NewEngine(Params{Client: &channelClient{}, Logger: zap.NewNop(), Config: config.Config{}})

	require.NoError(t, engine.start(context.Background()))
	assert.Nil(t, engine.cancel)
	require.NoError(t, engine.stop(context.Background()))
}

func TestDispatchRecoversPanics(t *testing.T) {
	engine := NewEngine(Params{
		Client: &channelClient{},
		Logger: zap.NewNop(),
		Registrations: []HandlerRegistration{{
			Topic: "orders.events",
			Handler: func(context.Context, messaging.Message) error {
				panic("boom")
			},
		}},
	})

	err := engine.dispatch(context.Background(), messaging.Message{Topic: "orders.events"})

	assert.EqualError(t, err, "handler panic: boom")
}
