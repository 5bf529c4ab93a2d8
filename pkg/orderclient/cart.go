// Package orderclient is a Go client for the customer-facing ordering API.
// Client state lives in an explicit Session rather than ambient storage.
package orderclient

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Line is one dish-and-quantity entry in the cart.
type Line struct {
	DishID    string          `json:"dish_id"`
	VariantID string          `json:"dish_variant_id,omitempty"`
	Name      string          `json:"dish_name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// Cart holds pending lines in the order they were first added.
type Cart struct {
	Lines []Line `json:"lines"`
}

// Add puts qty of a dish into the cart, merging with an existing line for
// the same dish and variant.
func (c *Cart) Add(line Line) {
	if line.Quantity <= 0 {
		line.Quantity = 1
	}
	for i := range c.Lines {
		if c.Lines[i].DishID == line.DishID && c.Lines[i].VariantID == line.VariantID {
			c.Lines[i].Quantity += line.Quantity
			return
		}
	}
	c.Lines = append(c.Lines, line)
}

// SetQuantity updates a line; zero or less removes it.
func (c *Cart) SetQuantity(dishID, variantID string, qty int) {
	for i := range c.Lines {
		if c.Lines[i].DishID != dishID || c.Lines[i].VariantID != variantID {
			continue
		}
		if qty <= 0 {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return
		}
		c.Lines[i].Quantity = qty
		return
	}
}

// Subtotal is the sum of price times quantity over all lines.
func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range c.Lines {
		sum = sum.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum
}

// Len reports the number of distinct lines.
func (c *Cart) Len() int { return len(c.Lines) }

// Clear empties the cart.
func (c *Cart) Clear() { c.Lines = nil }

// Session is the state a diner's device keeps between page loads.
type Session struct {
	Token string `json:"customer_token"`
	Cart  Cart   `json:"cart"`
}

// NewSession returns a session with a fresh customer token.
func NewSession() *Session {
	return &Session{Token: uuid.NewString()}
}

// EnsureToken assigns a token if the session has none and returns it.
func (s *Session) EnsureToken() string {
	if s.Token == "" {
		s.Token = uuid.NewString()
	}
	return s.Token
}
