package models

import (
	"encoding/json"
	"time"
)

// TableStatus is the operator-set availability state of a table.
type TableStatus string

const (
	StatusAvailable   TableStatus = "available"
	StatusBlocked     TableStatus = "blocked"
	StatusMaintenance TableStatus = "maintenance"
	StatusHidden      TableStatus = "hidden"
)

// Table is a single seating unit on the floor plan. Tables sharing a non-empty
// JoinGroup belong to the same room and are treated as one combined unit.
type Table struct {
	ID         int64           `json:"id"`
	RoomID     int64           `json:"room_id"`
	Code       string          `json:"code"`
	SeatsMin   *int            `json:"seats_min,omitempty"`
	SeatsStd   *int            `json:"seats_std,omitempty"`
	SeatsMax   *int            `json:"seats_max,omitempty"`
	Attributes json.RawMessage `json:"attributes,omitempty"`
	JoinGroup  *string         `json:"join_group,omitempty"`
	PosX       float64         `json:"pos_x"`
	PosY       float64         `json:"pos_y"`
	Status     TableStatus     `json:"status"`
	Active     bool            `json:"active"`
	OrderIndex int             `json:"order_index"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
