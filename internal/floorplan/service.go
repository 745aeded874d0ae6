package floorplan

import (
	"context"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/dinefloor/backend/internal/models"
)

const (
	defaultRoomName  = "Main Room"
	defaultSeatsStd  = 2
	defaultMaxTables = 3
	maxBulkCount     = 200
	bulkGridColumns  = 10
	bulkGridSpacing  = 120.0
)

// Service orchestrates floor-plan reads and mutations on top of a Store.
// It holds no state of its own and is safe for concurrent use.
type Service struct {
	store  Store
	logger *zap.Logger
}

// NewService creates a layout service.
func NewService(store Store, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// GroupSummary describes one join group and its combined capacity.
type GroupSummary struct {
	Code     string   `json:"code"`
	RoomID   int64    `json:"room_id"`
	TableIDs []int64  `json:"table_ids"`
	Capacity Capacity `json:"capacity"`
}

// RoomOverview is a room with its tables, join groups, and derived capacity.
type RoomOverview struct {
	models.Room
	Tables   []models.Table `json:"tables"`
	Groups   []GroupSummary `json:"groups"`
	Capacity Capacity       `json:"capacity_actual"`
}

// EnsureDefaultRoom creates a starter room when none exist yet. Idempotent;
// meant to run once at startup so reads never mutate state.
func (s *Service) EnsureDefaultRoom(ctx context.Context) error {
	rooms, err := s.store.ListRooms(ctx)
	if err != nil {
		return err
	}
	if len(rooms) > 0 {
		return nil
	}
	id, err := s.store.InsertRoom(ctx, models.Room{Name: defaultRoomName, Active: true})
	if err != nil {
		return err
	}
	s.logger.Info("created default room", zap.Int64("room_id", id))
	return nil
}

// Overview returns all rooms with nested tables and join-group membership.
func (s *Service) Overview(ctx context.Context) ([]RoomOverview, error) {
	rooms, err := s.store.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	tables, err := s.store.ListTables(ctx, nil)
	if err != nil {
		return nil, err
	}

	byRoom := groupByRoom(tables)
	overview := make([]RoomOverview, 0, len(rooms))
	for _, room := range rooms {
		roomTables := byRoom[room.ID]
		overview = append(overview, RoomOverview{
			Room:     room,
			Tables:   append([]models.Table{}, roomTables...),
			Groups:   groupSummaries(roomTables),
			Capacity: Calculate(roomTables),
		})
	}
	return overview, nil
}

func groupSummaries(tables []models.Table) []GroupSummary {
	groups := groupByJoinCode(tables)
	summaries := make([]GroupSummary, 0, len(groups))
	for code, members := range groups {
		summaries = append(summaries, GroupSummary{
			Code:     code,
			RoomID:   members[0].RoomID,
			TableIDs: tableIDs(members),
			Capacity: Calculate(members),
		})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Code < summaries[j].Code })
	return summaries
}

// Room returns a single room by id.
func (s *Service) Room(ctx context.Context, id int64) (*models.Room, error) {
	room, err := s.store.FindRoom(ctx, id)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, &NotFoundError{Entity: "room", ID: id}
	}
	return room, nil
}

// SaveRoom creates a room, or updates one when id is given.
func (s *Service) SaveRoom(ctx context.Context, in RoomInput, id *int64) (*models.Room, error) {
	room, err := NormalizeRoom(in)
	if err != nil {
		return nil, err
	}

	if id == nil {
		newID, err := s.store.InsertRoom(ctx, room)
		if err != nil {
			return nil, err
		}
		return s.store.FindRoom(ctx, newID)
	}

	existing, err := s.store.FindRoom(ctx, *id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, &NotFoundError{Entity: "room", ID: *id}
	}
	if err := s.store.UpdateRoom(ctx, *id, room); err != nil {
		return nil, err
	}
	return s.store.FindRoom(ctx, *id)
}

// DeleteRoom removes a room and all of its tables.
func (s *Service) DeleteRoom(ctx context.Context, id int64) error {
	found, err := s.store.DeleteRoom(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return &NotFoundError{Entity: "room", ID: id}
	}
	return nil
}

// SaveTable creates a table, or updates one when id is given. The target room
// must exist; on update the room pairing stays as it is.
func (s *Service) SaveTable(ctx context.Context, in TableInput, id *int64) (*models.Table, error) {
	table, err := NormalizeTable(in)
	if err != nil {
		return nil, err
	}

	room, err := s.store.FindRoom(ctx, table.RoomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, &NotFoundError{Entity: "room", ID: table.RoomID}
	}

	if id == nil {
		newID, err := s.store.InsertTable(ctx, table)
		if err != nil {
			return nil, err
		}
		return s.store.FindTable(ctx, newID)
	}

	existing, err := s.store.FindTable(ctx, *id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, &NotFoundError{Entity: "table", ID: *id}
	}
	if err := s.store.UpdateTable(ctx, *id, table); err != nil {
		return nil, err
	}
	return s.store.FindTable(ctx, *id)
}

// DeleteTable removes a table.
func (s *Service) DeleteTable(ctx context.Context, id int64) error {
	found, err := s.store.DeleteTable(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return &NotFoundError{Entity: "table", ID: id}
	}
	return nil
}

// BulkCreateInput creates many tables in one transaction. Either an explicit
// Tables list or the generative Prefix/Count mode must be supplied.
type BulkCreateInput struct {
	RoomID      int64        `json:"room_id"`
	Tables      []TableInput `json:"tables"`
	Prefix      string       `json:"prefix"`
	Count       int          `json:"count"`
	SeatsStd    int          `json:"seats_std"`
	OnDuplicate string       `json:"on_duplicate"`
}

// BulkCreateResult reports created tables and codes skipped as duplicates.
type BulkCreateResult struct {
	Created []models.Table `json:"created"`
	Skipped []string       `json:"skipped"`
}

// CreateTablesBulk creates tables from an explicit list or generatively from a
// code prefix. All writes happen in a single transaction. Duplicate codes
// abort everything under the default "error" policy, or are reported in
// Skipped under "skip" while the rest of the batch commits.
func (s *Service) CreateTablesBulk(ctx context.Context, in BulkCreateInput) (*BulkCreateResult, error) {
	if in.RoomID <= 0 {
		return nil, Validationf("room_id must be a positive integer")
	}
	policy := in.OnDuplicate
	if policy == "" {
		policy = "error"
	}
	if policy != "error" && policy != "skip" {
		return nil, Validationf("on_duplicate must be %q or %q", "error", "skip")
	}

	room, err := s.store.FindRoom(ctx, in.RoomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, &NotFoundError{Entity: "room", ID: in.RoomID}
	}

	payloads := in.Tables
	if len(payloads) == 0 {
		if in.Count <= 0 && in.Prefix == "" {
			return nil, Validationf("either tables or prefix/count required")
		}
		payloads = generateTablePayloads(in)
	}

	result := &BulkCreateResult{Created: []models.Table{}, Skipped: []string{}}
	err = s.store.WithTx(ctx, func(tx Store) error {
		codes, err := tx.ExistingCodes(ctx, in.RoomID)
		if err != nil {
			return err
		}
		for _, payload := range payloads {
			payload.RoomID = in.RoomID
			table, err := NormalizeTable(payload)
			if err != nil {
				return err
			}
			if _, dup := codes[table.Code]; dup {
				if policy == "skip" {
					result.Skipped = append(result.Skipped, table.Code)
					continue
				}
				return Validationf("duplicate table code %q in room %d", table.Code, in.RoomID)
			}
			codes[table.Code] = struct{}{}

			id, err := tx.InsertTable(ctx, table)
			if err != nil {
				return err
			}
			created, err := tx.FindTable(ctx, id)
			if err != nil {
				return err
			}
			result.Created = append(result.Created, *created)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("bulk created tables",
		zap.Int64("room_id", in.RoomID),
		zap.Int("created", len(result.Created)),
		zap.Int("skipped", len(result.Skipped)),
	)
	return result, nil
}

// generateTablePayloads expands the generative bulk mode: Count tables named
// Prefix+N laid out on a grid, with Count clamped to [1,200] and a standard
// seat default of 2.
func generateTablePayloads(in BulkCreateInput) []TableInput {
	count := in.Count
	if count < 1 {
		count = 1
	}
	if count > maxBulkCount {
		count = maxBulkCount
	}
	prefix := in.Prefix
	if prefix == "" {
		prefix = "T"
	}
	seatsStd := in.SeatsStd
	if seatsStd <= 0 {
		seatsStd = defaultSeatsStd
	}

	payloads := make([]TableInput, 0, count)
	for i := 0; i < count; i++ {
		std := seatsStd
		payloads = append(payloads, TableInput{
			RoomID:     in.RoomID,
			Code:       prefix + strconv.Itoa(i+1),
			SeatsStd:   &std,
			PosX:       float64(i%bulkGridColumns) * bulkGridSpacing,
			PosY:       float64(i/bulkGridColumns) * bulkGridSpacing,
			OrderIndex: i,
		})
	}
	return payloads
}

// PositionUpdate moves one table to new floor-plan coordinates.
type PositionUpdate struct {
	ID int64   `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// UpdatePositions applies each position update as its own write; unknown ids
// are skipped. Returns the number of tables moved. Partial application on
// failure is acceptable, re-submitting the same batch is safe.
func (s *Service) UpdatePositions(ctx context.Context, updates []PositionUpdate) (int, error) {
	applied := 0
	for _, u := range updates {
		moved, err := s.store.UpdatePosition(ctx, u.ID, u.X, u.Y)
		if err != nil {
			return applied, err
		}
		if moved {
			applied++
		}
	}
	return applied, nil
}

// MergeTables joins two or more tables of one room into a combined seating
// unit. An empty code generates a fresh group code.
func (s *Service) MergeTables(ctx context.Context, ids []int64, code string) (*GroupSummary, error) {
	ids = dedupeIDs(ids)
	if len(ids) < 2 {
		return nil, Validationf("merge requires at least 2 distinct table ids")
	}

	tables := make([]models.Table, 0, len(ids))
	for _, id := range ids {
		t, err := s.store.FindTable(ctx, id)
		if err != nil {
			return nil, err
		}
		if t == nil {
			return nil, &NotFoundError{Entity: "table", ID: id}
		}
		tables = append(tables, *t)
	}

	roomID := tables[0].RoomID
	for _, t := range tables[1:] {
		if t.RoomID != roomID {
			return nil, Validationf("tables to merge must belong to the same room")
		}
	}

	groupCode, err := NormalizeGroupCode(code, roomID)
	if err != nil {
		return nil, err
	}

	err = s.store.WithTx(ctx, func(tx Store) error {
		return tx.UpdateJoinGroup(ctx, ids, &groupCode)
	})
	if err != nil {
		return nil, err
	}

	return &GroupSummary{
		Code:     groupCode,
		RoomID:   roomID,
		TableIDs: tableIDs(tables),
		Capacity: Calculate(tables),
	}, nil
}

// SplitTables clears the join group on the given tables. An empty list is a
// no-op.
func (s *Service) SplitTables(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return s.store.WithTx(ctx, func(tx Store) error {
		return tx.UpdateJoinGroup(ctx, ids, nil)
	})
}

// SuggestCriteria scopes a table allocation query.
type SuggestCriteria struct {
	Party              int    `json:"party"`
	MaxTables          int    `json:"max_tables"`
	RoomID             *int64 `json:"room_id"`
	IncludeInactive    bool   `json:"include_inactive"`
	IncludeUnavailable bool   `json:"include_unavailable"`
}

// Suggest loads candidate tables per the criteria and delegates to the
// suggestion engine. The result is advisory: it may race with concurrent
// writes, so availability must be re-validated before seating the party.
func (s *Service) Suggest(ctx context.Context, criteria SuggestCriteria) (*SuggestResult, error) {
	if criteria.Party <= 0 {
		return nil, Validationf("party must be a positive integer")
	}
	maxTables := criteria.MaxTables
	if maxTables <= 0 {
		maxTables = defaultMaxTables
	}

	tables, err := s.store.ListTables(ctx, criteria.RoomID)
	if err != nil {
		return nil, err
	}

	candidates := make([]models.Table, 0, len(tables))
	for _, t := range tables {
		if !criteria.IncludeInactive && !t.Active {
			continue
		}
		if !criteria.IncludeUnavailable && t.Status != models.StatusAvailable {
			continue
		}
		candidates = append(candidates, t)
	}

	result := Suggest(candidates, criteria.Party, maxTables)
	return &result, nil
}

// SetRoomBackground records the storage key of a room's floor-plan image.
func (s *Service) SetRoomBackground(ctx context.Context, roomID int64, key string) error {
	room, err := s.store.FindRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if room == nil {
		return &NotFoundError{Entity: "room", ID: roomID}
	}
	return s.store.UpdateRoomBackground(ctx, roomID, key)
}

func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
