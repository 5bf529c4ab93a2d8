package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"github.com/Additional-Code/tableorder/internal/orderstate"
)

// Order is a placed customer order. Money fields and items are fixed at
// creation; only Status and PaymentStatus change afterwards.
type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	ID                  uuid.UUID                `bun:"id,pk,type:uuid"`
	OutletID            uuid.UUID                `bun:"outlet_id,type:uuid,notnull"`
	CustomerID          *uuid.UUID               `bun:"customer_id,type:uuid"`
	TableID             *uuid.UUID               `bun:"table_id,type:uuid"`
	TableNumber         string                   `bun:"table_number,nullzero"`
	Number              string                   `bun:"order_number,notnull,unique"`
	Status              orderstate.Status        `bun:"status,notnull"`
	PaymentStatus       orderstate.PaymentStatus `bun:"payment_status,notnull"`
	Subtotal            decimal.Decimal          `bun:"subtotal,type:numeric,notnull"`
	Tax                 decimal.Decimal          `bun:"tax,type:numeric,notnull"`
	Total               decimal.Decimal          `bun:"total_amount,type:numeric,notnull"`
	SpecialInstructions string                   `bun:"special_instructions,nullzero"`
	CustomerPhone       string                   `bun:"customer_phone,nullzero"`
	CustomerEmail       string                   `bun:"customer_email,nullzero"`
	CustomerName        string                   `bun:"customer_name,nullzero"`
	Source              string                   `bun:"source,notnull"`
	UserAgent           string                   `bun:"user_agent,nullzero"`
	IPAddress           string                   `bun:"ip_address,nullzero"`
	CreatedAt           time.Time                `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt           time.Time                `bun:"updated_at,nullzero"`

	Items []OrderItem `bun:"rel:has-many,join:id=order_id"`
}

// OrderItem is a priced snapshot of one cart line.
type OrderItem struct {
	bun.BaseModel `bun:"table:order_items,alias:oi"`

	ID            uuid.UUID       `bun:"id,pk,type:uuid"`
	OrderID       uuid.UUID       `bun:"order_id,type:uuid,notnull"`
	DishID        string          `bun:"dish_id,notnull"`
	DishVariantID string          `bun:"dish_variant_id,nullzero"`
	DishName      string          `bun:"dish_name,notnull"`
	Position      int             `bun:"position,notnull"`
	Price         decimal.Decimal `bun:"price,type:numeric,notnull"`
	Quantity      int             `bun:"quantity,notnull"`
	ItemTotal     decimal.Decimal `bun:"item_total,type:numeric,notnull"`
	CreatedAt     time.Time       `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
}
