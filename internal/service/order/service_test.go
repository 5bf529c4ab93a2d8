package order

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/tableorder/internal/auth"
	"github.com/Additional-Code/tableorder/internal/config"
	"github.com/Additional-Code/tableorder/internal/entity"
	"github.com/Additional-Code/tableorder/internal/messaging"
	"github.com/Additional-Code/tableorder/internal/orderstate"
	repo "github.com/Additional-Code/tableorder/internal/repository/order"
	"github.com/Additional-Code/tableorder/internal/service/customer"
	"github.com/Additional-Code/tableorder/pkg/errorbank"
)

type harness struct {
	svc        *Service
	orders     *fakeOrders
	outlets    *fakeOutlets
	customers  *fakeCustomers
	analytics  *fakeAnalytics
	publisher  *recordingPublisher
	cache      *mapCache
	outlet     entity.Outlet
	restaurant uuid.UUID
}

func testConfig() config.Config {
	return config.Config{
		Cache:     config.Cache{DefaultTTL: time.Minute},
		Messaging: config.Messaging{Enabled: true},
		Ordering: config.Ordering{
			TaxRate:         decimal.RequireFromString("0.18"),
			StatusPolicy:    "lenient",
			WriteMode:       config.WriteModeTransactional,
			CustomerPolicy:  config.PolicyLenient,
			AnalyticsPolicy: config.PolicyLenient,
			StepTimeout:     time.Second,
			NumberRetries:   3,
			Source:          "qr_menu",
		},
	}
}

func newHarness(t *testing.T, mutate func(*config.Config)) *harness {
	t.Helper()

	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	policy, err := orderstate.PolicyFor(cfg.Ordering.StatusPolicy)
	require.NoError(t, err)

	restaurant := uuid.New()
	outlet := entity.Outlet{ID: uuid.New(), RestaurantID: restaurant, Name: "Main", Slug: "main", IsActive: true}
	h := &harness{
		orders: newFakeOrders(),
		outlets: &fakeOutlets{
			outlets: map[uuid.UUID]entity.Outlet{outlet.ID: outlet},
			tables:  map[string]entity.Table{},
		},
		customers:  &fakeCustomers{id: uuid.New()},
		analytics:  &fakeAnalytics{},
		publisher:  &recordingPublisher{},
		cache:      newMapCache(),
		outlet:     outlet,
		restaurant: restaurant,
	}
	h.svc = newService(dependencies{
		orders:    h.orders,
		outlets:   h.outlets,
		customers: h.customers,
		analytics: h.analytics,
		cache:     h.cache,
		publisher: h.publisher,
	}, cfg, policy)
	return h
}

func twoLineCheckout() PlaceRequest {
	return PlaceRequest{
		Items: []Line{
			{DishID: "dish-1", Name: "Paneer Tikka", Price: decimal.NewFromInt(100), Quantity: 2},
			{DishID: "dish-2", Name: "Lassi", Price: decimal.NewFromInt(50), Quantity: 1},
		},
		TableNumber: "T1",
		Contact:     customer.Contact{Phone: "+911234567890", Name: "Asha", Token: "tok-1"},
		UserAgent:   "test-agent",
		IPAddress:   "10.0.0.1",
	}
}

var numberPattern = regexp.MustCompile(`^ORD-\d+-[0-9A-Z]{9}$`)

func TestPlaceTwoLineOrder(t *testing.T) {
	h := newHarness(t, nil)

	order, err := h.svc.Place(context.Background(), h.outlet.ID, twoLineCheckout())
	require.NoError(t, err)

	assert.True(t, order.Subtotal.Equal(decimal.NewFromInt(250)), order.Subtotal.String())
	assert.True(t, order.Tax.Equal(decimal.NewFromInt(45)), order.Tax.String())
	assert.True(t, order.Total.Equal(decimal.NewFromInt(295)), order.Total.String())
	assert.Equal(t, orderstate.Pending, order.Status)
	assert.Equal(t, orderstate.PaymentPending, order.PaymentStatus)
	assert.Regexp(t, numberPattern, order.Number)
	assert.Equal(t, "qr_menu", order.Source)
	assert.Equal(t, "test-agent", order.UserAgent)
	assert.Equal(t, "T1", order.TableNumber)
	require.NotNil(t, order.CustomerID)
	assert.Equal(t, h.customers.id, *order.CustomerID)

	stored, err := h.orders.GetByID(context.Background(), order.ID, true)
	require.NoError(t, err)
	require.Len(t, stored.Items, 2)
	assert.Equal(t, "dish-1", stored.Items[0].DishID)
	assert.True(t, stored.Items[0].ItemTotal.Equal(decimal.NewFromInt(200)))
	assert.True(t, stored.Items[1].ItemTotal.Equal(decimal.NewFromInt(50)))

	require.Len(t, h.analytics.events, 1)
	event := h.analytics.events[0]
	assert.Equal(t, entity.EventOrderPlaced, event.EventType)
	assert.Equal(t, order.ID.String(), event.Metadata["order_id"])
	assert.Equal(t, order.Number, event.Metadata["order_number"])
	assert.Equal(t, "295.00", event.Metadata["total_amount"])
	assert.Equal(t, 2, event.Metadata["item_count"])
	assert.Equal(t, "tok-1", event.CustomerToken)

	assert.True(t, h.customers.recorded[h.customers.id].Equal(decimal.NewFromInt(295)))

	require.Len(t, h.publisher.messages, 1)
	msg := h.publisher.messages[0]
	assert.Equal(t, EventOrderPlaced, msg.headers[messaging.HeaderEventType])
	var payload OrderPlacedEvent
	require.NoError(t, json.Unmarshal(msg.value, &payload))
	assert.Equal(t, order.Number, payload.Number)
	assert.Equal(t, "295.00", payload.Total)
	assert.Equal(t, 2, payload.ItemCount)
}

func TestPlaceRejectsEmptyCart(t *testing.T) {
	h := newHarness(t, nil)

	req := twoLineCheckout()
	req.Items = nil
	_, err := h.svc.Place(context.Background(), h.outlet.ID, req)

	assert.True(t, errorbank.Is(err, errorbank.KindBadRequest))
	assert.Empty(t, h.orders.orders)
	assert.Empty(t, h.analytics.events)
	assert.Empty(t, h.customers.contacts)
}

func TestPlaceRejectsInvalidLines(t *testing.T) {
	cases := map[string]Line{
		"zero quantity":        {DishID: "d", Name: "x", Price: decimal.NewFromInt(10), Quantity: 0},
		"negative price":       {DishID: "d", Name: "x", Price: decimal.NewFromInt(-1), Quantity: 1},
		"missing dish":         {Name: "x", Price: decimal.NewFromInt(10), Quantity: 1},
		"fraction of a cent":   {DishID: "d", Name: "x", Price: decimal.RequireFromString("0.004"), Quantity: 3},
		"quantity too large":   {DishID: "d", Name: "x", Price: decimal.NewFromInt(1), Quantity: 1001},
		"line total too large": {DishID: "d", Name: "x", Price: decimal.RequireFromString("99999999999"), Quantity: 1},
	}
	for name, bad := range cases {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t, nil)
			req := twoLineCheckout()
			req.Items = append(req.Items, bad)

			_, err := h.svc.Place(context.Background(), h.outlet.ID, req)
			require.True(t, errorbank.Is(err, errorbank.KindBadRequest), "got %v", err)
			assert.Equal(t, 3, errorbank.From(err).Details()["line"])
			assert.Empty(t, h.orders.orders)
		})
	}
}

func TestPlaceRejectsOrderTotalAboveMaximum(t *testing.T) {
	h := newHarness(t, nil)
	req := twoLineCheckout()
	req.Items = []Line{
		{DishID: "d1", Name: "Banquet", Price: decimal.NewFromInt(9000000), Quantity: 1000},
	}

	_, err := h.svc.Place(context.Background(), h.outlet.ID, req)

	require.True(t, errorbank.Is(err, errorbank.KindBadRequest), "got %v", err)
	assert.Empty(t, h.orders.orders)
	assert.Empty(t, h.customers.contacts)
}

func TestPlaceUnknownOutlet(t *testing.T) {
	h := newHarness(t, nil)

	_, err := h.svc.Place(context.Background(), uuid.New(), twoLineCheckout())

	assert.True(t, errorbank.Is(err, errorbank.KindNotFound))
	assert.Empty(t, h.orders.orders)
}

func TestPlaceAnonymousSkipsCustomer(t *testing.T) {
	h := newHarness(t, nil)
	req := twoLineCheckout()
	req.Contact = customer.Contact{Name: "Walk-in"}

	order, err := h.svc.Place(context.Background(), h.outlet.ID, req)
	require.NoError(t, err)

	assert.Nil(t, order.CustomerID)
	assert.Empty(t, h.customers.contacts)
	assert.Empty(t, h.customers.recorded)
}

func TestPlaceCustomerFailureIsNonFatalWhenLenient(t *testing.T) {
	h := newHarness(t, nil)
	h.customers.err = errors.New("customers table locked")

	order, err := h.svc.Place(context.Background(), h.outlet.ID, twoLineCheckout())
	require.NoError(t, err)

	assert.Nil(t, order.CustomerID)
	assert.Equal(t, "+911234567890", order.CustomerPhone)
	assert.Len(t, h.orders.orders, 1)
}

func TestPlaceCustomerFailureIsFatalWhenStrict(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) { cfg.Ordering.CustomerPolicy = config.PolicyStrict })
	h.customers.err = errors.New("customers table locked")

	_, err := h.svc.Place(context.Background(), h.outlet.ID, twoLineCheckout())

	assert.True(t, errorbank.Is(err, errorbank.KindInternal))
	assert.Empty(t, h.orders.orders)
}

func TestPlaceCustomerTimeoutIsUnavailableWhenStrict(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) {
		cfg.Ordering.CustomerPolicy = config.PolicyStrict
		cfg.Ordering.StepTimeout = 20 * time.Millisecond
	})
	h.customers.block = true

	_, err := h.svc.Place(context.Background(), h.outlet.ID, twoLineCheckout())

	assert.True(t, errorbank.Is(err, errorbank.KindUnavailable), "got %v", err)
	assert.Empty(t, h.orders.orders)
}

func TestPlaceUnknownTableIsTolerated(t *testing.T) {
	h := newHarness(t, nil)

	order, err := h.svc.Place(context.Background(), h.outlet.ID, twoLineCheckout())
	require.NoError(t, err)

	assert.Nil(t, order.TableID)
	assert.Equal(t, "T1", order.TableNumber)
}

func TestPlaceLinksKnownTable(t *testing.T) {
	h := newHarness(t, nil)
	table := entity.Table{ID: uuid.New(), OutletID: h.outlet.ID, TableNumber: "T1"}
	h.outlets.tables[h.outlet.ID.String()+"/T1"] = table

	order, err := h.svc.Place(context.Background(), h.outlet.ID, twoLineCheckout())
	require.NoError(t, err)

	require.NotNil(t, order.TableID)
	assert.Equal(t, table.ID, *order.TableID)
}

func TestPlaceTableLookupErrorIsTolerated(t *testing.T) {
	h := newHarness(t, nil)
	h.outlets.tableErr = errors.New("connection reset")

	order, err := h.svc.Place(context.Background(), h.outlet.ID, twoLineCheckout())
	require.NoError(t, err)
	assert.Nil(t, order.TableID)
}

func TestPlaceRetriesNumberCollisions(t *testing.T) {
	h := newHarness(t, nil)
	h.orders.duplicates = 2

	order, err := h.svc.Place(context.Background(), h.outlet.ID, twoLineCheckout())
	require.NoError(t, err)
	assert.Regexp(t, numberPattern, order.Number)
	assert.Len(t, h.orders.orders, 1)
}

func TestPlaceGivesUpAfterNumberRetries(t *testing.T) {
	h := newHarness(t, nil)
	h.orders.duplicates = 3

	_, err := h.svc.Place(context.Background(), h.outlet.ID, twoLineCheckout())

	assert.True(t, errorbank.Is(err, errorbank.KindConflict))
	assert.Empty(t, h.orders.orders)
	assert.Empty(t, h.analytics.events)
}

func TestPlaceTransactionFailureWritesNothing(t *testing.T) {
	h := newHarness(t, nil)
	h.orders.txErr = errors.New("insert items: constraint")

	_, err := h.svc.Place(context.Background(), h.outlet.ID, twoLineCheckout())

	assert.True(t, errorbank.Is(err, errorbank.KindInternal))
	assert.Empty(t, h.orders.orders)
	assert.Empty(t, h.orders.items)
	assert.Empty(t, h.publisher.messages)
	assert.Empty(t, h.customers.recorded)
}

func TestPlaceRetryAfterFailedTransactionReusesCustomer(t *testing.T) {
	h := newHarness(t, nil)
	h.orders.txErr = errors.New("insert order: connection reset")

	_, err := h.svc.Place(context.Background(), h.outlet.ID, twoLineCheckout())
	require.True(t, errorbank.Is(err, errorbank.KindInternal), "got %v", err)
	require.Len(t, h.customers.contacts, 1)
	assert.Empty(t, h.customers.recorded)

	h.orders.txErr = nil
	order, err := h.svc.Place(context.Background(), h.outlet.ID, twoLineCheckout())
	require.NoError(t, err)
	require.NotNil(t, order.CustomerID)
	assert.Equal(t, h.customers.id, *order.CustomerID)
	assert.Len(t, h.orders.orders, 1)
	assert.True(t, h.customers.recorded[h.customers.id].Equal(decimal.NewFromInt(295)))
}

func TestPlaceBestEffortSkipsFailedItems(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) { cfg.Ordering.WriteMode = config.WriteModeBestEffort })
	h.orders.itemErr = func(item entity.OrderItem) error {
		if item.DishID == "dish-2" {
			return errors.New("deadlock detected")
		}
		return nil
	}

	order, err := h.svc.Place(context.Background(), h.outlet.ID, twoLineCheckout())
	require.NoError(t, err)

	require.Len(t, order.Items, 1)
	assert.Equal(t, "dish-1", order.Items[0].DishID)
	assert.True(t, order.Total.Equal(decimal.NewFromInt(295)), "totals reflect the submitted cart")

	stored, err := h.orders.GetByID(context.Background(), order.ID, true)
	require.NoError(t, err)
	assert.Len(t, stored.Items, 1)
	require.Len(t, h.analytics.events, 1)
	assert.Equal(t, 1, h.analytics.events[0].Metadata["item_count"])
}

func TestPlaceBestEffortHeaderFailureIsFatal(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) { cfg.Ordering.WriteMode = config.WriteModeBestEffort })
	h.orders.headerErr = errors.New("disk full")

	_, err := h.svc.Place(context.Background(), h.outlet.ID, twoLineCheckout())

	assert.True(t, errorbank.Is(err, errorbank.KindInternal))
	assert.Empty(t, h.orders.items)
	assert.Empty(t, h.analytics.events)
}

func TestPlaceAnalyticsFailureIsNonFatalWhenLenient(t *testing.T) {
	h := newHarness(t, nil)
	h.analytics.err = errors.New("analytics down")

	order, err := h.svc.Place(context.Background(), h.outlet.ID, twoLineCheckout())
	require.NoError(t, err)
	assert.NotEmpty(t, order.Number)
}

func TestPlaceStrictAnalyticsWritesEventInTransaction(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) { cfg.Ordering.AnalyticsPolicy = config.PolicyStrict })

	order, err := h.svc.Place(context.Background(), h.outlet.ID, twoLineCheckout())
	require.NoError(t, err)

	assert.Empty(t, h.analytics.events)
	require.Len(t, h.orders.txEvents, 1)
	assert.Equal(t, order.Number, h.orders.txEvents[0].Metadata["order_number"])
}

func TestPlaceCachesOrderWithItems(t *testing.T) {
	h := newHarness(t, nil)

	order, err := h.svc.Place(context.Background(), h.outlet.ID, twoLineCheckout())
	require.NoError(t, err)

	delete(h.orders.orders, order.ID)
	cached, err := h.svc.Get(context.Background(), order.ID, true)
	require.NoError(t, err)
	assert.Equal(t, order.Number, cached.Number)
	assert.Len(t, cached.Items, 2)
	assert.True(t, cached.Total.Equal(order.Total))
}

func TestGetNotFound(t *testing.T) {
	h := newHarness(t, nil)

	_, err := h.svc.Get(context.Background(), uuid.New(), false)
	assert.True(t, errorbank.Is(err, errorbank.KindNotFound))
}

func TestGetEnforcesRestaurantScope(t *testing.T) {
	h := newHarness(t, nil)
	order, err := h.svc.Place(context.Background(), h.outlet.ID, twoLineCheckout())
	require.NoError(t, err)

	stranger := auth.WithActor(context.Background(), auth.Actor{UserID: uuid.New(), RestaurantID: uuid.New()})
	_, err = h.svc.Get(stranger, order.ID, false)
	assert.True(t, errorbank.Is(err, errorbank.KindForbidden))

	owner := auth.WithActor(context.Background(), auth.Actor{UserID: uuid.New(), RestaurantID: h.restaurant})
	got, err := h.svc.Get(owner, order.ID, false)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)
}

func TestListFiltersByStatus(t *testing.T) {
	h := newHarness(t, nil)
	first, err := h.svc.Place(context.Background(), h.outlet.ID, twoLineCheckout())
	require.NoError(t, err)
	_, err = h.svc.Place(context.Background(), h.outlet.ID, twoLineCheckout())
	require.NoError(t, err)
	_, err = h.svc.UpdateStatus(context.Background(), first.ID, "accepted")
	require.NoError(t, err)

	all, err := h.svc.List(context.Background(), h.outlet.ID, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	accepted, err := h.svc.List(context.Background(), h.outlet.ID, "accepted", 0)
	require.NoError(t, err)
	require.Len(t, accepted, 1)
	assert.Equal(t, first.ID, accepted[0].ID)

	_, err = h.svc.List(context.Background(), h.outlet.ID, "lost", 0)
	assert.True(t, errorbank.Is(err, errorbank.KindBadRequest))
}

func TestUpdateStatusLenientAllowsAnyTransition(t *testing.T) {
	h := newHarness(t, nil)
	order, err := h.svc.Place(context.Background(), h.outlet.ID, twoLineCheckout())
	require.NoError(t, err)

	updated, err := h.svc.UpdateStatus(context.Background(), order.ID, "completed")
	require.NoError(t, err)
	assert.Equal(t, orderstate.Completed, updated.Status)
	assert.True(t, updated.Total.Equal(order.Total))

	back, err := h.svc.UpdateStatus(context.Background(), order.ID, "pending")
	require.NoError(t, err)
	assert.Equal(t, orderstate.Pending, back.Status)

	require.Len(t, h.publisher.messages, 3)
	assert.Equal(t, EventOrderStatusChanged, h.publisher.messages[1].headers[messaging.HeaderEventType])
	var payload OrderStatusChangedEvent
	require.NoError(t, json.Unmarshal(h.publisher.messages[1].value, &payload))
	assert.Equal(t, "pending", payload.From)
	assert.Equal(t, "completed", payload.To)
}

func TestUpdateStatusEvictsCache(t *testing.T) {
	h := newHarness(t, nil)
	order, err := h.svc.Place(context.Background(), h.outlet.ID, twoLineCheckout())
	require.NoError(t, err)
	_, err = h.svc.Get(context.Background(), order.ID, false)
	require.NoError(t, err)

	_, err = h.svc.UpdateStatus(context.Background(), order.ID, "preparing")
	require.NoError(t, err)

	got, err := h.svc.Get(context.Background(), order.ID, true)
	require.NoError(t, err)
	assert.Equal(t, orderstate.Preparing, got.Status)
}

func TestUpdateStatusMonotonic(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) { cfg.Ordering.StatusPolicy = "monotonic" })
	order, err := h.svc.Place(context.Background(), h.outlet.ID, twoLineCheckout())
	require.NoError(t, err)

	_, err = h.svc.UpdateStatus(context.Background(), order.ID, "completed")
	require.True(t, errorbank.Is(err, errorbank.KindUnprocessableEntity))
	details := errorbank.From(err).Details()
	assert.Equal(t, "pending", details["from"])
	assert.Equal(t, "completed", details["to"])

	updated, err := h.svc.UpdateStatus(context.Background(), order.ID, "accepted")
	require.NoError(t, err)
	assert.Equal(t, orderstate.Accepted, updated.Status)
}

func TestUpdateStatusRechecksPolicyAfterConcurrentChange(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) { cfg.Ordering.StatusPolicy = "monotonic" })
	ctx := context.Background()
	order, err := h.svc.Place(ctx, h.outlet.ID, twoLineCheckout())
	require.NoError(t, err)
	for _, step := range []string{"accepted", "preparing", "served"} {
		_, err = h.svc.UpdateStatus(ctx, order.ID, step)
		require.NoError(t, err)
	}

	// Another staff member completes the order after this request read "served".
	h.orders.beforeUpdate = func(f *fakeOrders, id uuid.UUID) {
		f.setStatus(id, orderstate.Completed)
	}
	_, err = h.svc.UpdateStatus(ctx, order.ID, "cancelled")

	require.True(t, errorbank.Is(err, errorbank.KindUnprocessableEntity), "got %v", err)
	assert.Equal(t, "completed", errorbank.From(err).Details()["from"])
	stored, err := h.orders.GetByID(ctx, order.ID, false)
	require.NoError(t, err)
	assert.Equal(t, orderstate.Completed, stored.Status)
}

func TestUpdateStatusRetriesFromFreshStatus(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	order, err := h.svc.Place(ctx, h.outlet.ID, twoLineCheckout())
	require.NoError(t, err)

	h.orders.beforeUpdate = func(f *fakeOrders, id uuid.UUID) {
		f.setStatus(id, orderstate.Preparing)
	}
	updated, err := h.svc.UpdateStatus(ctx, order.ID, "served")
	require.NoError(t, err)
	assert.Equal(t, orderstate.Served, updated.Status)

	last := h.publisher.messages[len(h.publisher.messages)-1]
	var payload OrderStatusChangedEvent
	require.NoError(t, json.Unmarshal(last.value, &payload))
	assert.Equal(t, "preparing", payload.From)
	assert.Equal(t, "served", payload.To)
}

func TestUpdateStatusConflictAfterRepeatedRaces(t *testing.T) {
	h := newHarness(t, nil)
	order, err := h.svc.Place(context.Background(), h.outlet.ID, twoLineCheckout())
	require.NoError(t, err)
	h.orders.updateErr = repo.ErrStatusChanged

	_, err = h.svc.UpdateStatus(context.Background(), order.ID, "accepted")
	assert.True(t, errorbank.Is(err, errorbank.KindConflict), "got %v", err)
}

func TestUpdateStatusRejectsUnknownValues(t *testing.T) {
	h := newHarness(t, nil)
	order, err := h.svc.Place(context.Background(), h.outlet.ID, twoLineCheckout())
	require.NoError(t, err)

	_, err = h.svc.UpdateStatus(context.Background(), order.ID, "done")
	assert.True(t, errorbank.Is(err, errorbank.KindBadRequest))

	_, err = h.svc.UpdateStatus(context.Background(), uuid.New(), "accepted")
	assert.True(t, errorbank.Is(err, errorbank.KindNotFound))
}

func TestUpdateStatusEnforcesRestaurantScope(t *testing.T) {
	h := newHarness(t, nil)
	order, err := h.svc.Place(context.Background(), h.outlet.ID, twoLineCheckout())
	require.NoError(t, err)

	stranger := auth.WithActor(context.Background(), auth.Actor{UserID: uuid.New(), RestaurantID: uuid.New()})
	_, err = h.svc.UpdateStatus(stranger, order.ID, "accepted")
	assert.True(t, errorbank.Is(err, errorbank.KindForbidden))

	stored, err := h.orders.GetByID(context.Background(), order.ID, false)
	require.NoError(t, err)
	assert.Equal(t, orderstate.Pending, stored.Status)
}

func TestNewOrderNumberFormat(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		n := NewOrderNumber(now)
		assert.Regexp(t, `^ORD-1700000000123-[0-9A-Z]{9}$`, n)
		seen[n] = true
	}
	assert.Greater(t, len(seen), 190)
}

func TestRandomSymbolsAreUniform(t *testing.T) {
	counts := map[byte]int{}
	const draws = 36 * 10000
	for _, c := range randomSymbols(draws) {
		counts[c]++
	}

	require.Len(t, counts, len(numberAlphabet))
	expected := draws / len(numberAlphabet)
	for symbol, n := range counts {
		// A modulo-biased draw puts the first four symbols about 12% high.
		assert.InDelta(t, expected, n, float64(expected)*0.06, "symbol %c", symbol)
	}
	assert.Equal(t, 252, rejectAbove)
}
