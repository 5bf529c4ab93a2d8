// Package pricing turns order lines into subtotal, tax and total amounts.
//
// Amounts are exact decimals. Unit prices carry at most two decimal places, so
// line totals and the subtotal are exact in cents. Only the tax is rounded
// (half-up to the cent) and total is subtotal + rounded tax.
package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultTaxRate is the flat tax applied to every order.
var DefaultTaxRate = decimal.RequireFromString("0.18")

const centPlaces = 2

// MaxQuantity is the largest quantity accepted on a single line.
const MaxQuantity = 1000

// MaxAmount bounds every stored amount; money columns are NUMERIC(12,2).
var MaxAmount = decimal.New(1, 10)

var (
	// ErrNoLines is returned for an empty line list.
	ErrNoLines = errors.New("order must contain at least one item")
	// ErrInvalidQuantity is returned for a zero or negative quantity.
	ErrInvalidQuantity = errors.New("quantity must be positive")
	// ErrNegativePrice is returned for a price below zero.
	ErrNegativePrice = errors.New("price must not be negative")
	// ErrPricePrecision is returned for a price with fractions of a cent.
	ErrPricePrecision = errors.New("price must have at most two decimal places")
	// ErrQuantityTooLarge is returned for a quantity above MaxQuantity.
	ErrQuantityTooLarge = fmt.Errorf("quantity must not exceed %d", MaxQuantity)
	// ErrAmountTooLarge is returned when a line or order total reaches MaxAmount.
	ErrAmountTooLarge = errors.New("amount exceeds the supported maximum")
)

// Line is a single priced cart entry.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Total returns UnitPrice x Quantity.
func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Totals is the priced result for a list of lines.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// LineError points at the offending line.
type LineError struct {
	Index int
	Err   error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Index+1, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// Engine prices lines with a fixed tax rate.
type Engine struct {
	rate decimal.Decimal
}

// New returns an Engine using rate; a negative rate falls back to DefaultTaxRate.
func New(rate decimal.Decimal) Engine {
	if rate.IsNegative() {
		rate = DefaultTaxRate
	}
	return Engine{rate: rate}
}

// Rate returns the configured tax rate.
func (e Engine) Rate() decimal.Decimal { return e.rate }

// Price validates lines and computes totals. It performs no I/O.
func (e Engine) Price(lines []Line) (Totals, error) {
	if len(lines) == 0 {
		return Totals{}, ErrNoLines
	}

	subtotal := decimal.Zero
	for i, line := range lines {
		if line.Quantity <= 0 {
			return Totals{}, &LineError{Index: i, Err: ErrInvalidQuantity}
		}
		if line.Quantity > MaxQuantity {
			return Totals{}, &LineError{Index: i, Err: ErrQuantityTooLarge}
		}
		if line.UnitPrice.IsNegative() {
			return Totals{}, &LineError{Index: i, Err: ErrNegativePrice}
		}
		if !line.UnitPrice.Equal(line.UnitPrice.Round(centPlaces)) {
			return Totals{}, &LineError{Index: i, Err: ErrPricePrecision}
		}
		total := line.Total()
		if total.GreaterThanOrEqual(MaxAmount) {
			return Totals{}, &LineError{Index: i, Err: ErrAmountTooLarge}
		}
		subtotal = subtotal.Add(total)
	}

	tax := subtotal.Mul(e.rate).Round(centPlaces)
	total := subtotal.Add(tax)
	if total.GreaterThanOrEqual(MaxAmount) {
		return Totals{}, ErrAmountTooLarge
	}
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    total,
	}, nil
}

// Compute prices lines with DefaultTaxRate.
func Compute(lines []Line) (Totals, error) {
	return New(DefaultTaxRate).Price(lines)
}
