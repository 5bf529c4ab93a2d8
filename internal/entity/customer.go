package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Customer is a diner scoped to a restaurant. (RestaurantID, PhoneNumber) is
// unique when a phone number is present.
type Customer struct {
	bun.BaseModel `bun:"table:customers,alias:c"`

	ID              uuid.UUID       `bun:"id,pk,type:uuid"`
	RestaurantID    uuid.UUID       `bun:"restaurant_id,type:uuid,notnull,unique:customers_restaurant_phone"`
	PhoneNumber     string          `bun:"phone_number,nullzero,unique:customers_restaurant_phone"`
	EmailAddress    string          `bun:"email_address,nullzero"`
	Token           string          `bun:"customer_token,notnull"`
	FullName        string          `bun:"full_name,nullzero"`
	OptedForUpdates bool            `bun:"opted_for_updates,notnull"`
	TotalOrders     int             `bun:"total_orders,notnull"`
	TotalSpent      decimal.Decimal `bun:"total_spent,type:numeric,notnull"`
	CreatedAt       time.Time       `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time       `bun:"updated_at,nullzero"`
}
