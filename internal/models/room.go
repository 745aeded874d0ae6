package models

import "time"

// Room is a floor-plan area that owns tables. Capacity is the operator-declared
// headline figure; actual seating capacity is always derived from the room's tables.
type Room struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Color         string    `json:"color,omitempty"`
	Capacity      int       `json:"capacity"`
	OrderIndex    int       `json:"order_index"`
	Active        bool      `json:"active"`
	BackgroundKey string    `json:"background_key,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
