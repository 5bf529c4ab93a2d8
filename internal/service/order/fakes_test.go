package order

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Additional-Code/tableorder/internal/cache"
	"github.com/Additional-Code/tableorder/internal/entity"
	"github.com/Additional-Code/tableorder/internal/messaging"
	"github.com/Additional-Code/tableorder/internal/orderstate"
	repo "github.com/Additional-Code/tableorder/internal/repository/order"
	outletrepo "github.com/Additional-Code/tableorder/internal/repository/outlet"
	"github.com/Additional-Code/tableorder/internal/service/customer"
)

type fakeOrders struct {
	mu       sync.Mutex
	orders   map[uuid.UUID]entity.Order
	items    map[uuid.UUID][]entity.OrderItem
	txEvents []entity.AnalyticsEvent

	duplicates int
	txErr      error
	headerErr  error
	itemErr    func(entity.OrderItem) error
	updateErr  error
	// beforeUpdate runs after the service has read the order and before the
	// conditional write is applied, standing in for a concurrent writer.
	beforeUpdate func(f *fakeOrders, id uuid.UUID)
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{orders: map[uuid.UUID]entity.Order{}, items: map[uuid.UUID][]entity.OrderItem{}}
}

func (f *fakeOrders) insertHeader(order *entity.Order) error {
	if f.duplicates > 0 {
		f.duplicates--
		return repo.ErrDuplicateNumber
	}
	for _, existing := range f.orders {
		if existing.Number == order.Number {
			return repo.ErrDuplicateNumber
		}
	}
	header := *order
	header.Items = nil
	f.orders[order.ID] = header
	return nil
}

func (f *fakeOrders) Create(_ context.Context, order *entity.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.headerErr != nil {
		return f.headerErr
	}
	return f.insertHeader(order)
}

func (f *fakeOrders) CreateItem(_ context.Context, item *entity.OrderItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.itemErr != nil {
		if err := f.itemErr(*item); err != nil {
			return err
		}
	}
	f.items[item.OrderID] = append(f.items[item.OrderID], *item)
	return nil
}

func (f *fakeOrders) CreateWithItems(_ context.Context, order *entity.Order, items []entity.OrderItem, event *entity.AnalyticsEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.txErr != nil {
		return f.txErr
	}
	if err := f.insertHeader(order); err != nil {
		return err
	}
	f.items[order.ID] = append([]entity.OrderItem(nil), items...)
	if event != nil {
		f.txEvents = append(f.txEvents, *event)
	}
	return nil
}

func (f *fakeOrders) GetByID(_ context.Context, id uuid.UUID, withItems bool) (*entity.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	if withItems {
		order.Items = append([]entity.OrderItem(nil), f.items[id]...)
		sort.Slice(order.Items, func(i, j int) bool { return order.Items[i].Position < order.Items[j].Position })
	}
	return &order, nil
}

func (f *fakeOrders) ListByOutlet(_ context.Context, outletID uuid.UUID, filter repo.ListFilter) ([]entity.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.Order
	for _, order := range f.orders {
		if order.OutletID != outletID {
			continue
		}
		if filter.Status != "" && order.Status != filter.Status {
			continue
		}
		out = append(out, order)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeOrders) GetCurrent(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	return f.GetByID(ctx, id, false)
}

func (f *fakeOrders) setStatus(id uuid.UUID, status orderstate.Status) {
	order := f.orders[id]
	order.Status = status
	order.UpdatedAt = time.Now().UTC()
	f.orders[id] = order
}

func (f *fakeOrders) UpdateStatus(_ context.Context, id uuid.UUID, from, to orderstate.Status) (*entity.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	if hook := f.beforeUpdate; hook != nil {
		f.beforeUpdate = nil
		hook(f, id)
	}
	order, ok := f.orders[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	if order.Status != from {
		return nil, repo.ErrStatusChanged
	}
	f.setStatus(id, to)
	order = f.orders[id]
	return &order, nil
}

type fakeOutlets struct {
	outlets  map[uuid.UUID]entity.Outlet
	tables   map[string]entity.Table
	tableErr error
}

func (f *fakeOutlets) GetByID(_ context.Context, id uuid.UUID) (*entity.Outlet, error) {
	outlet, ok := f.outlets[id]
	if !ok {
		return nil, outletrepo.ErrNotFound
	}
	return &outlet, nil
}

func (f *fakeOutlets) FindTable(_ context.Context, outletID uuid.UUID, number string) (*entity.Table, error) {
	if f.tableErr != nil {
		return nil, f.tableErr
	}
	table, ok := f.tables[outletID.String()+"/"+number]
	if !ok {
		return nil, outletrepo.ErrTableNotFound
	}
	return &table, nil
}

type fakeCustomers struct {
	mu        sync.Mutex
	id        uuid.UUID
	err       error
	block     bool
	contacts  []customer.Contact
	recorded  map[uuid.UUID]decimal.Decimal
	recordErr error
}

func (f *fakeCustomers) Resolve(ctx context.Context, _ uuid.UUID, contact customer.Contact) (*uuid.UUID, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contacts = append(f.contacts, contact)
	if f.err != nil {
		return nil, f.err
	}
	id := f.id
	return &id, nil
}

func (f *fakeCustomers) RecordOrder(_ context.Context, id uuid.UUID, total decimal.Decimal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recordErr != nil {
		return f.recordErr
	}
	if f.recorded == nil {
		f.recorded = map[uuid.UUID]decimal.Decimal{}
	}
	f.recorded[id] = f.recorded[id].Add(total)
	return nil
}

type fakeAnalytics struct {
	mu     sync.Mutex
	events []entity.AnalyticsEvent
	err    error
}

func (f *fakeAnalytics) Insert(_ context.Context, event *entity.AnalyticsEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, *event)
	return nil
}

type published struct {
	key     string
	value   []byte
	headers map[string]string
}

type recordingPublisher struct {
	mu       sync.Mutex
	messages []published
}

func (p *recordingPublisher) Publish(_ context.Context, key, value []byte, headers map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, published{key: string(key), value: value, headers: headers})
	return nil
}

func (p *recordingPublisher) Consume(ctx context.Context, _ messaging.Handler) error {
	<-ctx.Done()
	return ctx.Err()
}

func (p *recordingPublisher) Topic() string { return "orders.events" }

type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMapCache() *mapCache { return &mapCache{data: map[string][]byte{}} }

func (m *mapCache) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return v, nil
}

func (m *mapCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mapCache) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}
