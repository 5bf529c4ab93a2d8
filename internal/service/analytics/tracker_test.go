package analytics

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/tableorder/internal/entity"
	outletrepo "github.com/Additional-Code/tableorder/internal/repository/outlet"
	"github.com/Additional-Code/tableorder/pkg/errorbank"
)

type sliceStore struct {
	events []entity.AnalyticsEvent
	err    error
}

func (s *sliceStore) Insert(_ context.Context, event *entity.AnalyticsEvent) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, *event)
	return nil
}

type outletSet map[uuid.UUID]bool

func (o outletSet) GetByID(_ context.Context, id uuid.UUID) (*entity.Outlet, error) {
	if !o[id] {
		return nil, outletrepo.ErrNotFound
	}
	return &entity.Outlet{ID: id}, nil
}

func TestTrack(t *testing.T) {
	outlet := uuid.New()
	store := &sliceStore{}
	tracker := newTracker(store, outletSet{outlet: true}, nil)

	ev, err := tracker.Track(context.Background(), outlet, Event{
		Type:          " Item_Added_To_Cart ",
		DishID:        "dish-9",
		CustomerToken: "tok",
		Metadata:      map[string]any{"quantity": 2},
	})
	require.NoError(t, err)

	assert.Equal(t, entity.EventItemAddedToCart, ev.EventType)
	require.Len(t, store.events, 1)
	assert.Equal(t, "dish-9", store.events[0].DishID)
	assert.Equal(t, outlet, store.events[0].OutletID)
}

func TestTrackRejections(t *testing.T) {
	outlet := uuid.New()
	tracker := newTracker(&sliceStore{}, outletSet{outlet: true}, nil)

	_, err := tracker.Track(context.Background(), outlet, Event{Type: entity.EventOrderPlaced})
	assert.True(t, errorbank.Is(err, errorbank.KindBadRequest))

	_, err = tracker.Track(context.Background(), outlet, Event{Type: entity.EventItemAddedToCart})
	assert.True(t, errorbank.Is(err, errorbank.KindBadRequest))

	_, err = tracker.Track(context.Background(), uuid.New(), Event{Type: entity.EventMenuViewed})
	assert.True(t, errorbank.Is(err, errorbank.KindNotFound))
}

func TestTrackStoreFailure(t *testing.T) {
	outlet := uuid.New()
	tracker := newTracker(&sliceStore{err: errors.New("down")}, outletSet{outlet: true}, nil)

	_, err := tracker.Track(context.Background(), outlet, Event{Type: entity.EventMenuViewed})
	assert.True(t, errorbank.Is(err, errorbank.KindInternal))
}
