package floorplan

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dinefloor/backend/internal/models"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx so every query method
// works inside and outside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository is the PostgreSQL-backed Store.
type Repository struct {
	pool *pgxpool.Pool // nil when transaction-scoped
	db   querier
}

// NewRepository creates a floor-plan repository on a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, db: pool}
}

// WithTx runs fn against a transaction-scoped Repository. A Repository that is
// already transaction-scoped runs fn in the open transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(Store) error) error {
	if r.pool == nil {
		return fn(r)
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return storagef("begin tx", err)
	}
	if err := fn(&Repository{db: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return storagef("commit tx", err)
	}
	return nil
}

const roomColumns = `id, name, description, color, capacity, order_index, active, background_key, created_at, updated_at`

// ListRooms returns all rooms ordered by order index.
func (r *Repository) ListRooms(ctx context.Context) ([]models.Room, error) {
	rows, err := r.db.Query(ctx, `SELECT `+roomColumns+` FROM rooms ORDER BY order_index, id`)
	if err != nil {
		return nil, storagef("list rooms", err)
	}
	defer rows.Close()

	var list []models.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, storagef("scan room", err)
		}
		list = append(list, room)
	}
	if err := rows.Err(); err != nil {
		return nil, storagef("list rooms", err)
	}
	return list, nil
}

// FindRoom returns a room by id, or nil when absent.
func (r *Repository) FindRoom(ctx context.Context, id int64) (*models.Room, error) {
	row := r.db.QueryRow(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = $1`, id)
	room, err := scanRoom(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storagef("find room", err)
	}
	return &room, nil
}

// InsertRoom inserts a room and returns its id.
func (r *Repository) InsertRoom(ctx context.Context, room models.Room) (int64, error) {
	const q = `INSERT INTO rooms (name, description, color, capacity, order_index, active)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	var id int64
	err := r.db.QueryRow(ctx, q, room.Name, room.Description, room.Color, room.Capacity, room.OrderIndex, room.Active).Scan(&id)
	if err != nil {
		return 0, storagef("insert room", err)
	}
	return id, nil
}

// UpdateRoom overwrites a room's editable fields.
func (r *Repository) UpdateRoom(ctx context.Context, id int64, room models.Room) error {
	const q = `UPDATE rooms SET name = $1, description = $2, color = $3, capacity = $4,
		order_index = $5, active = $6, updated_at = NOW() WHERE id = $7`
	_, err := r.db.Exec(ctx, q, room.Name, room.Description, room.Color, room.Capacity, room.OrderIndex, room.Active, id)
	if err != nil {
		return storagef("update room", err)
	}
	return nil
}

// DeleteRoom removes a room; owned tables cascade at the schema level.
func (r *Repository) DeleteRoom(ctx context.Context, id int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM rooms WHERE id = $1`, id)
	if err != nil {
		return false, storagef("delete room", err)
	}
	return tag.RowsAffected() > 0, nil
}

// UpdateRoomBackground stores the S3 object key of the room's floor-plan image.
func (r *Repository) UpdateRoomBackground(ctx context.Context, id int64, key string) error {
	_, err := r.db.Exec(ctx, `UPDATE rooms SET background_key = $1, updated_at = NOW() WHERE id = $2`, key, id)
	if err != nil {
		return storagef("update room background", err)
	}
	return nil
}

const tableColumns = `id, room_id, code, seats_min, seats_std, seats_max, attributes, join_group,
	pos_x, pos_y, status, active, order_index, created_at, updated_at`

// ListTables returns all tables, scoped to one room when roomID is non-nil.
func (r *Repository) ListTables(ctx context.Context, roomID *int64) ([]models.Table, error) {
	q := `SELECT ` + tableColumns + ` FROM tables`
	var args []any
	if roomID != nil {
		q += ` WHERE room_id = $1`
		args = append(args, *roomID)
	}
	rows, err := r.db.Query(ctx, q+` ORDER BY order_index, id`, args...)
	if err != nil {
		return nil, storagef("list tables", err)
	}
	defer rows.Close()

	var list []models.Table
	for rows.Next() {
		table, err := scanTable(rows)
		if err != nil {
			return nil, storagef("scan table", err)
		}
		list = append(list, table)
	}
	if err := rows.Err(); err != nil {
		return nil, storagef("list tables", err)
	}
	return list, nil
}

// FindTable returns a table by id, or nil when absent.
func (r *Repository) FindTable(ctx context.Context, id int64) (*models.Table, error) {
	row := r.db.QueryRow(ctx, `SELECT `+tableColumns+` FROM tables WHERE id = $1`, id)
	table, err := scanTable(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storagef("find table", err)
	}
	return &table, nil
}

// InsertTable inserts a table and returns its id.
func (r *Repository) InsertTable(ctx context.Context, t models.Table) (int64, error) {
	const q = `INSERT INTO tables (room_id, code, seats_min, seats_std, seats_max, attributes, join_group,
		pos_x, pos_y, status, active, order_index)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, '{}'::jsonb), $7, $8, $9, $10, $11, $12) RETURNING id`
	var id int64
	err := r.db.QueryRow(ctx, q, t.RoomID, t.Code, t.SeatsMin, t.SeatsStd, t.SeatsMax, []byte(t.Attributes),
		t.JoinGroup, t.PosX, t.PosY, string(t.Status), t.Active, t.OrderIndex).Scan(&id)
	if err != nil {
		return 0, storagef("insert table", err)
	}
	return id, nil
}

// UpdateTable overwrites a table's editable fields. The room pairing is
// immutable, so room_id is not part of the update.
func (r *Repository) UpdateTable(ctx context.Context, id int64, t models.Table) error {
	const q = `UPDATE tables SET code = $1, seats_min = $2, seats_std = $3, seats_max = $4,
		attributes = COALESCE($5, '{}'::jsonb), pos_x = $6, pos_y = $7, status = $8, active = $9,
		order_index = $10, updated_at = NOW() WHERE id = $11`
	_, err := r.db.Exec(ctx, q, t.Code, t.SeatsMin, t.SeatsStd, t.SeatsMax, []byte(t.Attributes),
		t.PosX, t.PosY, string(t.Status), t.Active, t.OrderIndex, id)
	if err != nil {
		return storagef("update table", err)
	}
	return nil
}

// DeleteTable removes a table by id.
func (r *Repository) DeleteTable(ctx context.Context, id int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM tables WHERE id = $1`, id)
	if err != nil {
		return false, storagef("delete table", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ExistingCodes returns the set of table codes already used in a room.
func (r *Repository) ExistingCodes(ctx context.Context, roomID int64) (map[string]struct{}, error) {
	rows, err := r.db.Query(ctx, `SELECT code FROM tables WHERE room_id = $1`, roomID)
	if err != nil {
		return nil, storagef("existing codes", err)
	}
	defer rows.Close()

	codes := make(map[string]struct{})
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, storagef("scan code", err)
		}
		codes[code] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, storagef("existing codes", err)
	}
	return codes, nil
}

// UpdateJoinGroup assigns or clears the join group on the listed tables.
func (r *Repository) UpdateJoinGroup(ctx context.Context, tableIDs []int64, code *string) error {
	const q = `UPDATE tables SET join_group = $1, updated_at = NOW() WHERE id = ANY($2)`
	_, err := r.db.Exec(ctx, q, code, tableIDs)
	if err != nil {
		return storagef("update join group", err)
	}
	return nil
}

// UpdatePosition moves one table; unknown ids report false.
func (r *Repository) UpdatePosition(ctx context.Context, tableID int64, x, y float64) (bool, error) {
	const q = `UPDATE tables SET pos_x = $1, pos_y = $2, updated_at = NOW() WHERE id = $3`
	tag, err := r.db.Exec(ctx, q, x, y, tableID)
	if err != nil {
		return false, storagef("update position", err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanRoom(row pgx.Row) (models.Room, error) {
	var room models.Room
	err := row.Scan(&room.ID, &room.Name, &room.Description, &room.Color, &room.Capacity,
		&room.OrderIndex, &room.Active, &room.BackgroundKey, &room.CreatedAt, &room.UpdatedAt)
	return room, err
}

func scanTable(row pgx.Row) (models.Table, error) {
	var (
		t      models.Table
		attrs  []byte
		status string
	)
	err := row.Scan(&t.ID, &t.RoomID, &t.Code, &t.SeatsMin, &t.SeatsStd, &t.SeatsMax, &attrs, &t.JoinGroup,
		&t.PosX, &t.PosY, &status, &t.Active, &t.OrderIndex, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return t, err
	}
	t.Attributes = attrs
	t.Status = models.TableStatus(status)
	return t, nil
}
