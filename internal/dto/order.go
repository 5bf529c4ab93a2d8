package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Additional-Code/tableorder/internal/entity"
)

// CheckoutItem is one cart line submitted by the customer menu.
type CheckoutItem struct {
	DishID        string          `json:"dish_id" validate:"required,max=128"`
	DishName      string          `json:"dish_name" validate:"required,max=255"`
	DishVariantID string          `json:"dish_variant_id,omitempty" validate:"omitempty,max=128"`
	Price         decimal.Decimal `json:"price"`
	Quantity      int             `json:"quantity"`
}

// CheckoutRequest is the body of POST /outlets/:outletId/orders.
type CheckoutRequest struct {
	Items               []CheckoutItem `json:"items" validate:"dive"`
	TableNumber         string         `json:"table_number,omitempty" validate:"omitempty,max=32"`
	CustomerPhone       string         `json:"customer_phone,omitempty" validate:"omitempty,max=32"`
	CustomerEmail       string         `json:"customer_email,omitempty" validate:"omitempty,email,max=255"`
	CustomerName        string         `json:"customer_name,omitempty" validate:"omitempty,max=255"`
	CustomerToken       string         `json:"customer_token,omitempty" validate:"omitempty,max=128"`
	SpecialInstructions string         `json:"special_instructions,omitempty" validate:"omitempty,max=1000"`
}

// StatusUpdateRequest is the body of PATCH /orders/:id/status.
type StatusUpdateRequest struct {
	Status string `json:"status" validate:"required"`
}

// OrderItemResponse is an order line as exposed via transport layers.
type OrderItemResponse struct {
	ID            string `json:"id"`
	DishID        string `json:"dish_id"`
	DishVariantID string `json:"dish_variant_id,omitempty"`
	DishName      string `json:"dish_name"`
	Price         string `json:"price"`
	Quantity      int    `json:"quantity"`
	ItemTotal     string `json:"item_total"`
}

// OrderResponse represents an order as exposed via transport layers.
type OrderResponse struct {
	ID                  string              `json:"id"`
	OutletID            string              `json:"outlet_id"`
	CustomerID          *string             `json:"customer_id,omitempty"`
	TableID             *string             `json:"table_id,omitempty"`
	TableNumber         string              `json:"table_number,omitempty"`
	Number              string              `json:"order_number"`
	Status              string              `json:"status"`
	PaymentStatus       string              `json:"payment_status"`
	Subtotal            string              `json:"subtotal"`
	Tax                 string              `json:"tax"`
	Total               string              `json:"total_amount"`
	SpecialInstructions string              `json:"special_instructions,omitempty"`
	CustomerName        string              `json:"customer_name,omitempty"`
	CustomerPhone       string              `json:"customer_phone,omitempty"`
	CustomerEmail       string              `json:"customer_email,omitempty"`
	Source              string              `json:"source"`
	Items               []OrderItemResponse `json:"items,omitempty"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
}

// NewOrderResponse maps an order entity. Money renders with two decimals.
func NewOrderResponse(order *entity.Order) OrderResponse {
	resp := OrderResponse{
		ID:                  order.ID.String(),
		OutletID:            order.OutletID.String(),
		TableNumber:         order.TableNumber,
		Number:              order.Number,
		Status:              order.Status.String(),
		PaymentStatus:       string(order.PaymentStatus),
		Subtotal:            money(order.Subtotal),
		Tax:                 money(order.Tax),
		Total:               money(order.Total),
		SpecialInstructions: order.SpecialInstructions,
		CustomerName:        order.CustomerName,
		CustomerPhone:       order.CustomerPhone,
		CustomerEmail:       order.CustomerEmail,
		Source:              order.Source,
		CreatedAt:           order.CreatedAt,
		UpdatedAt:           order.UpdatedAt,
	}
	if order.CustomerID != nil {
		id := order.CustomerID.String()
		resp.CustomerID = &id
	}
	if order.TableID != nil {
		id := order.TableID.String()
		resp.TableID = &id
	}
	if len(order.Items) > 0 {
		resp.Items = make([]OrderItemResponse, len(order.Items))
		for i, item := range order.Items {
			resp.Items[i] = OrderItemResponse{
				ID:            item.ID.String(),
				DishID:        item.DishID,
				DishVariantID: item.DishVariantID,
				DishName:      item.DishName,
				Price:         money(item.Price),
				Quantity:      item.Quantity,
				ItemTotal:     money(item.ItemTotal),
			}
		}
	}
	return resp
}

// NewOrderListResponse maps a slice of orders.
func NewOrderListResponse(orders []entity.Order) []OrderResponse {
	out := make([]OrderResponse, len(orders))
	for i := range orders {
		out[i] = NewOrderResponse(&orders[i])
	}
	return out
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
