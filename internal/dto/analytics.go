package dto

import "time"

// TrackEventRequest is the body of POST /outlets/:outletId/events.
type TrackEventRequest struct {
	EventType     string         `json:"event_type" validate:"required,oneof=menu_viewed item_added_to_cart"`
	DishID        string         `json:"dish_id,omitempty" validate:"omitempty,max=128"`
	CustomerToken string         `json:"customer_token,omitempty" validate:"omitempty,max=128"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// TrackEventResponse acknowledges a stored event.
type TrackEventResponse struct {
	ID        string    `json:"id"`
	EventType string    `json:"event_type"`
	CreatedAt time.Time `json:"created_at"`
}

// TableLinkResponse carries a table's deep link.
type TableLinkResponse struct {
	OutletID    string `json:"outlet_id"`
	TableNumber string `json:"table_number"`
	Link        string `json:"link"`
}
