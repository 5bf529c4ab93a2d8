package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Restaurant is the tenant that owns outlets and customers.
type Restaurant struct {
	bun.BaseModel `bun:"table:restaurants,alias:r"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	Name      string    `bun:"name,notnull"`
	Email     string    `bun:"email,notnull,unique"`
	Currency  string    `bun:"currency,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
}

// Outlet is an ordering location. Slug is immutable and used in menu URLs.
type Outlet struct {
	bun.BaseModel `bun:"table:outlets,alias:ol"`

	ID           uuid.UUID `bun:"id,pk,type:uuid"`
	RestaurantID uuid.UUID `bun:"restaurant_id,type:uuid,notnull"`
	Name         string    `bun:"name,notnull"`
	Slug         string    `bun:"slug,notnull,unique"`
	Address      string    `bun:"address,nullzero"`
	IsActive     bool      `bun:"is_active,notnull"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
}

// Table is a seat group inside an outlet, addressed by a free-form number.
type Table struct {
	bun.BaseModel `bun:"table:tables,alias:t"`

	ID          uuid.UUID `bun:"id,pk,type:uuid"`
	OutletID    uuid.UUID `bun:"outlet_id,type:uuid,notnull,unique:tables_outlet_number"`
	TableNumber string    `bun:"table_number,notnull,unique:tables_outlet_number"`
	QRDeepLink  string    `bun:"qr_code_deep_link,nullzero"`
	Capacity    int       `bun:"capacity,notnull"`
	IsActive    bool      `bun:"is_active,notnull"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
}
