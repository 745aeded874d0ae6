package floorplan

import (
	"context"

	"github.com/dinefloor/backend/internal/models"
)

// Store is the persistence contract the layout service depends on. Find
// methods return (nil, nil) when the record is absent; Delete methods report
// whether a record was removed so the service can surface NotFoundError.
type Store interface {
	ListRooms(ctx context.Context) ([]models.Room, error)
	FindRoom(ctx context.Context, id int64) (*models.Room, error)
	InsertRoom(ctx context.Context, room models.Room) (int64, error)
	UpdateRoom(ctx context.Context, id int64, room models.Room) error
	// DeleteRoom removes a room and cascades deletion of its tables.
	DeleteRoom(ctx context.Context, id int64) (bool, error)
	UpdateRoomBackground(ctx context.Context, id int64, key string) error

	// ListTables returns all tables, scoped to one room when roomID is non-nil.
	ListTables(ctx context.Context, roomID *int64) ([]models.Table, error)
	FindTable(ctx context.Context, id int64) (*models.Table, error)
	InsertTable(ctx context.Context, table models.Table) (int64, error)
	UpdateTable(ctx context.Context, id int64, table models.Table) error
	DeleteTable(ctx context.Context, id int64) (bool, error)

	// ExistingCodes returns the set of table codes already used in a room.
	ExistingCodes(ctx context.Context, roomID int64) (map[string]struct{}, error)
	// UpdateJoinGroup assigns (or clears, when code is nil) the join group on
	// all listed tables.
	UpdateJoinGroup(ctx context.Context, tableIDs []int64, code *string) error
	// UpdatePosition moves one table; returns false for unknown ids.
	UpdatePosition(ctx context.Context, tableID int64, x, y float64) (bool, error)

	// WithTx runs fn against a transaction-scoped Store, committing on nil
	// return and rolling back otherwise. Calls on an already transactional
	// Store reuse the open transaction.
	WithTx(ctx context.Context, fn func(Store) error) error
}
