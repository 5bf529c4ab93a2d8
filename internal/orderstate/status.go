package orderstate

import (
	"fmt"
	"strings"
)

// Status is the lifecycle state of an order as seen by restaurant staff.
type Status string

const (
	Pending   Status = "pending"
	Accepted  Status = "accepted"
	Preparing Status = "preparing"
	Served    Status = "served"
	Completed Status = "completed"
	Cancelled Status = "cancelled"
)

// All lists every status in lifecycle order.
var All = []Status{Pending, Accepted, Preparing, Served, Completed, Cancelled}

// Initial is the status assigned to freshly placed orders.
const Initial = Pending

// Parse normalises s and returns the matching Status.
func Parse(s string) (Status, error) {
	candidate := Status(strings.ToLower(strings.TrimSpace(s)))
	if candidate.Valid() {
		return candidate, nil
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

// Valid reports whether s is one of the six lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case Pending, Accepted, Preparing, Served, Completed, Cancelled:
		return true
	}
	return false
}

// Terminal reports whether no further progress is expected from s.
func (s Status) Terminal() bool {
	return s == Completed || s == Cancelled
}

func (s Status) String() string { return string(s) }

// PaymentStatus is tracked alongside an order but never enforced by checkout.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)
