package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Analytics event types.
const (
	EventMenuViewed      = "menu_viewed"
	EventItemAddedToCart = "item_added_to_cart"
	EventOrderPlaced     = "order_placed"
)

// AnalyticsEvent is an append-only usage fact.
type AnalyticsEvent struct {
	bun.BaseModel `bun:"table:analytics_events,alias:ae"`

	ID            uuid.UUID      `bun:"id,pk,type:uuid"`
	OutletID      uuid.UUID      `bun:"outlet_id,type:uuid,notnull"`
	EventType     string         `bun:"event_type,notnull"`
	CustomerID    *uuid.UUID     `bun:"customer_id,type:uuid"`
	CustomerToken string         `bun:"customer_token,nullzero"`
	DishID        string         `bun:"dish_id,nullzero"`
	Metadata      map[string]any `bun:"metadata,type:jsonb"`
	CreatedAt     time.Time      `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
}
