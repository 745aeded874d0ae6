package floorplan

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/dinefloor/backend/internal/models"
)

var (
	colorPattern     = regexp.MustCompile(`^#?[0-9a-fA-F]{6}$`)
	groupCodePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,30}$`)
)

// RoomInput is the raw payload for creating or updating a room.
type RoomInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
	Capacity    int    `json:"capacity"`
	OrderIndex  int    `json:"order_index"`
	Active      *bool  `json:"active"`
}

// TableInput is the raw payload for creating or updating a table.
type TableInput struct {
	RoomID     int64           `json:"room_id"`
	Code       string          `json:"code"`
	SeatsMin   *int            `json:"seats_min"`
	SeatsStd   *int            `json:"seats_std"`
	SeatsMax   *int            `json:"seats_max"`
	Attributes json.RawMessage `json:"attributes"`
	PosX       float64         `json:"pos_x"`
	PosY       float64         `json:"pos_y"`
	Status     string          `json:"status"`
	Active     *bool           `json:"active"`
	OrderIndex int             `json:"order_index"`
}

// NormalizeRoom validates and coerces a raw room payload into a canonical Room.
// The returned Room carries no ID; the store assigns one on insert.
func NormalizeRoom(in RoomInput) (models.Room, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Room{}, Validationf("name required")
	}

	color := strings.TrimSpace(in.Color)
	if color != "" {
		if !colorPattern.MatchString(color) {
			return models.Room{}, Validationf("invalid color %q, expected hex RRGGBB", in.Color)
		}
		if !strings.HasPrefix(color, "#") {
			color = "#" + color
		}
	}

	capacity := in.Capacity
	if capacity < 0 {
		capacity = 0
	}

	active := true
	if in.Active != nil {
		active = *in.Active
	}

	return models.Room{
		Name:        name,
		Description: in.Description,
		Color:       color,
		Capacity:    capacity,
		OrderIndex:  in.OrderIndex,
		Active:      active,
	}, nil
}

// NormalizeTable validates and coerces a raw table payload into a canonical Table.
// Room existence is the layout service's concern, not checked here.
func NormalizeTable(in TableInput) (models.Table, error) {
	code := strings.TrimSpace(in.Code)
	if code == "" {
		return models.Table{}, Validationf("code required")
	}
	if in.RoomID <= 0 {
		return models.Table{}, Validationf("room_id must be a positive integer")
	}

	active := true
	if in.Active != nil {
		active = *in.Active
	}

	return models.Table{
		RoomID:     in.RoomID,
		Code:       code,
		SeatsMin:   positiveOrNil(in.SeatsMin),
		SeatsStd:   positiveOrNil(in.SeatsStd),
		SeatsMax:   positiveOrNil(in.SeatsMax),
		Attributes: in.Attributes,
		PosX:       in.PosX,
		PosY:       in.PosY,
		Status:     NormalizeStatus(in.Status),
		Active:     active,
		OrderIndex: in.OrderIndex,
	}, nil
}

// NormalizeStatus coerces a raw status string to one of the table status values.
// Unrecognized input falls back to "available" without error.
func NormalizeStatus(s string) models.TableStatus {
	switch models.TableStatus(strings.ToLower(strings.TrimSpace(s))) {
	case models.StatusBlocked:
		return models.StatusBlocked
	case models.StatusMaintenance:
		return models.StatusMaintenance
	case models.StatusHidden:
		return models.StatusHidden
	default:
		return models.StatusAvailable
	}
}

// NormalizeGroupCode validates and lowercases a join-group code, or generates a
// fresh one for the room when code is empty.
func NormalizeGroupCode(code string, roomID int64) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return generateGroupCode(roomID), nil
	}
	if !groupCodePattern.MatchString(code) {
		return "", Validationf("invalid group code %q, expected 3-30 chars of [A-Za-z0-9_-]", code)
	}
	return strings.ToLower(code), nil
}

func generateGroupCode(roomID int64) string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return "grp-" + strconv.FormatInt(roomID, 10) + "-" + suffix
}

func positiveOrNil(v *int) *int {
	if v == nil || *v <= 0 {
		return nil
	}
	n := *v
	return &n
}
