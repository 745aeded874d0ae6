package floorplan

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dinefloor/backend/internal/models"
)

func newTestService(t *testing.T) (*Service, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	return NewService(store, zap.NewNop()), store
}

func mustRoom(t *testing.T, svc *Service, name string) *models.Room {
	t.Helper()
	room, err := svc.SaveRoom(context.Background(), RoomInput{Name: name}, nil)
	require.NoError(t, err)
	return room
}

func mustTable(t *testing.T, svc *Service, in TableInput) *models.Table {
	t.Helper()
	table, err := svc.SaveTable(context.Background(), in, nil)
	require.NoError(t, err)
	return table
}

func TestEnsureDefaultRoomIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	require.NoError(t, svc.EnsureDefaultRoom(ctx))
	require.NoError(t, svc.EnsureDefaultRoom(ctx))

	rooms, err := store.ListRooms(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, defaultRoomName, rooms[0].Name)
}

func TestSaveRoomCreateAndUpdate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	room := mustRoom(t, svc, "Terrace")
	assert.NotZero(t, room.ID)

	updated, err := svc.SaveRoom(ctx, RoomInput{Name: "Patio", Color: "ff0000"}, &room.ID)
	require.NoError(t, err)
	assert.Equal(t, "Patio", updated.Name)
	assert.Equal(t, "#ff0000", updated.Color)

	_, err = svc.SaveRoom(ctx, RoomInput{Name: "Ghost"}, int64p(999))
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	_, err = svc.SaveRoom(ctx, RoomInput{Name: ""}, nil)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestDeleteRoomCascadesTables(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	room := mustRoom(t, svc, "Main")
	mustTable(t, svc, TableInput{RoomID: room.ID, Code: "T1"})
	mustTable(t, svc, TableInput{RoomID: room.ID, Code: "T2"})

	require.NoError(t, svc.DeleteRoom(ctx, room.ID))

	tables, err := store.ListTables(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, tables)

	err = svc.DeleteRoom(ctx, room.ID)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestSaveTableRoomMustExist(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.SaveTable(ctx, TableInput{RoomID: 41, Code: "T1"}, nil)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	room := mustRoom(t, svc, "Main")
	table := mustTable(t, svc, TableInput{RoomID: room.ID, Code: "T1", SeatsStd: intp(4)})
	assert.Equal(t, room.ID, table.RoomID)

	_, err = svc.SaveTable(ctx, TableInput{RoomID: room.ID, Code: "T1"}, int64p(999))
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	err = svc.DeleteTable(ctx, table.ID)
	require.NoError(t, err)
	err = svc.DeleteTable(ctx, table.ID)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestBulkCreateDuplicateAborts(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	room := mustRoom(t, svc, "Main")

	_, err := svc.CreateTablesBulk(ctx, BulkCreateInput{
		RoomID: room.ID,
		Tables: []TableInput{{Code: "A1"}, {Code: "A1"}},
	})
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	// All-or-nothing: the first A1 must have been rolled back too.
	tables, err := store.ListTables(ctx, &room.ID)
	require.NoError(t, err)
	assert.Empty(t, tables)
}

func TestBulkCreateSkipPolicy(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	room := mustRoom(t, svc, "Main")

	result, err := svc.CreateTablesBulk(ctx, BulkCreateInput{
		RoomID:      room.ID,
		Tables:      []TableInput{{Code: "A1"}, {Code: "A1"}, {Code: "A2"}},
		OnDuplicate: "skip",
	})
	require.NoError(t, err)
	require.Len(t, result.Created, 2)
	assert.Equal(t, "A1", result.Created[0].Code)
	assert.Equal(t, "A2", result.Created[1].Code)
	assert.Equal(t, []string{"A1"}, result.Skipped)
}

func TestBulkCreateSkipsCodesAlreadyInRoom(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	room := mustRoom(t, svc, "Main")
	mustTable(t, svc, TableInput{RoomID: room.ID, Code: "A1"})

	result, err := svc.CreateTablesBulk(ctx, BulkCreateInput{
		RoomID:      room.ID,
		Tables:      []TableInput{{Code: "A1"}, {Code: "A2"}},
		OnDuplicate: "skip",
	})
	require.NoError(t, err)
	require.Len(t, result.Created, 1)
	assert.Equal(t, "A2", result.Created[0].Code)
	assert.Equal(t, []string{"A1"}, result.Skipped)
}

func TestBulkCreateGenerativeMode(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	room := mustRoom(t, svc, "Main")

	result, err := svc.CreateTablesBulk(ctx, BulkCreateInput{
		RoomID: room.ID,
		Prefix: "P",
		Count:  5,
	})
	require.NoError(t, err)
	require.Len(t, result.Created, 5)
	for i, table := range result.Created {
		assert.Equal(t, "P"+string(rune('1'+i)), table.Code)
		require.NotNil(t, table.SeatsStd)
		assert.Equal(t, defaultSeatsStd, *table.SeatsStd)
	}
	// Positions auto-increment across the grid.
	assert.NotEqual(t, result.Created[0].PosX, result.Created[1].PosX)
}

func TestBulkCreateCountClamped(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	room := mustRoom(t, svc, "Main")

	result, err := svc.CreateTablesBulk(ctx, BulkCreateInput{RoomID: room.ID, Prefix: "Z", Count: 500})
	require.NoError(t, err)
	assert.Len(t, result.Created, maxBulkCount)

	result, err = svc.CreateTablesBulk(ctx, BulkCreateInput{RoomID: room.ID, Prefix: "Q", Count: -3})
	require.NoError(t, err)
	assert.Len(t, result.Created, 1)
}

func TestBulkCreateValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	room := mustRoom(t, svc, "Main")

	_, err := svc.CreateTablesBulk(ctx, BulkCreateInput{RoomID: room.ID})
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	_, err = svc.CreateTablesBulk(ctx, BulkCreateInput{RoomID: room.ID, Count: 1, OnDuplicate: "maybe"})
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	_, err = svc.CreateTablesBulk(ctx, BulkCreateInput{RoomID: 999, Count: 1})
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestUpdatePositionsIgnoresUnknownIDs(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	room := mustRoom(t, svc, "Main")
	table := mustTable(t, svc, TableInput{RoomID: room.ID, Code: "T1"})

	applied, err := svc.UpdatePositions(ctx, []PositionUpdate{
		{ID: table.ID, X: 10, Y: 20},
		{ID: 9999, X: 1, Y: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	moved, err := store.FindTable(ctx, table.ID)
	require.NoError(t, err)
	assert.Equal(t, 10.0, moved.PosX)
	assert.Equal(t, 20.0, moved.PosY)
}

func TestMergeTablesValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	roomA := mustRoom(t, svc, "A")
	roomB := mustRoom(t, svc, "B")
	t1 := mustTable(t, svc, TableInput{RoomID: roomA.ID, Code: "T1"})
	t2 := mustTable(t, svc, TableInput{RoomID: roomB.ID, Code: "T2"})

	_, err := svc.MergeTables(ctx, []int64{t1.ID}, "")
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	// Duplicated ids collapse to one table.
	_, err = svc.MergeTables(ctx, []int64{t1.ID, t1.ID}, "")
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	_, err = svc.MergeTables(ctx, []int64{t1.ID, t2.ID}, "")
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	_, err = svc.MergeTables(ctx, []int64{t1.ID, 9999}, "")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestMergeAndSplitTables(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	room := mustRoom(t, svc, "Main")
	t1 := mustTable(t, svc, TableInput{RoomID: room.ID, Code: "T1", SeatsStd: intp(2), SeatsMax: intp(2)})
	t2 := mustTable(t, svc, TableInput{RoomID: room.ID, Code: "T2", SeatsStd: intp(4), SeatsMax: intp(6)})

	group, err := svc.MergeTables(ctx, []int64{t1.ID, t2.ID}, "Window-Pair")
	require.NoError(t, err)
	assert.Equal(t, "window-pair", group.Code)
	assert.Equal(t, room.ID, group.RoomID)
	assert.Equal(t, []int64{t1.ID, t2.ID}, group.TableIDs)
	assert.Equal(t, Capacity{Min: 6, Std: 6, Max: 8}, group.Capacity)

	stored, err := store.FindTable(ctx, t1.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.JoinGroup)
	assert.Equal(t, "window-pair", *stored.JoinGroup)

	// Empty split is a no-op.
	require.NoError(t, svc.SplitTables(ctx, nil))
	stored, err = store.FindTable(ctx, t1.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.JoinGroup)

	require.NoError(t, svc.SplitTables(ctx, []int64{t1.ID, t2.ID}))
	stored, err = store.FindTable(ctx, t1.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.JoinGroup)
}

func TestMergeGeneratesGroupCode(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	room := mustRoom(t, svc, "Main")
	t1 := mustTable(t, svc, TableInput{RoomID: room.ID, Code: "T1"})
	t2 := mustTable(t, svc, TableInput{RoomID: room.ID, Code: "T2"})

	group, err := svc.MergeTables(ctx, []int64{t1.ID, t2.ID}, "")
	require.NoError(t, err)
	assert.Regexp(t, `^[a-z0-9_-]+$`, group.Code)
}

func TestServiceSuggestFiltersCandidates(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	room := mustRoom(t, svc, "Main")

	inactive := false
	mustTable(t, svc, TableInput{RoomID: room.ID, Code: "T1", SeatsStd: intp(4), SeatsMax: intp(4), Active: &inactive})
	mustTable(t, svc, TableInput{RoomID: room.ID, Code: "T2", SeatsStd: intp(4), SeatsMax: intp(4), Status: "blocked"})
	available := mustTable(t, svc, TableInput{RoomID: room.ID, Code: "T3", SeatsStd: intp(2), SeatsMax: intp(2)})

	result, err := svc.Suggest(ctx, SuggestCriteria{Party: 4})
	require.NoError(t, err)
	assert.Nil(t, result.Best)

	result, err = svc.Suggest(ctx, SuggestCriteria{Party: 2})
	require.NoError(t, err)
	require.NotNil(t, result.Best)
	assert.Equal(t, []int64{available.ID}, result.Best.TableIDs)

	result, err = svc.Suggest(ctx, SuggestCriteria{Party: 4, IncludeInactive: true, IncludeUnavailable: true})
	require.NoError(t, err)
	require.NotNil(t, result.Best)
	assert.Len(t, result.Best.TableIDs, 1)
}

func TestServiceSuggestValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.Suggest(ctx, SuggestCriteria{Party: 0})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestOverviewIncludesTablesAndGroups(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	room := mustRoom(t, svc, "Main")
	empty := mustRoom(t, svc, "Terrace")
	t1 := mustTable(t, svc, TableInput{RoomID: room.ID, Code: "T1", SeatsStd: intp(2)})
	t2 := mustTable(t, svc, TableInput{RoomID: room.ID, Code: "T2", SeatsStd: intp(4)})
	_, err := svc.MergeTables(ctx, []int64{t1.ID, t2.ID}, "booth")
	require.NoError(t, err)

	overview, err := svc.Overview(ctx)
	require.NoError(t, err)
	require.Len(t, overview, 2)

	main := overview[0]
	assert.Equal(t, room.ID, main.ID)
	assert.Len(t, main.Tables, 2)
	require.Len(t, main.Groups, 1)
	assert.Equal(t, "booth", main.Groups[0].Code)
	assert.Equal(t, []int64{t1.ID, t2.ID}, main.Groups[0].TableIDs)
	assert.Equal(t, 6, main.Capacity.Std)

	terrace := overview[1]
	assert.Equal(t, empty.ID, terrace.ID)
	assert.Empty(t, terrace.Tables)
	assert.Empty(t, terrace.Groups)
	assert.Equal(t, Capacity{}, terrace.Capacity)
}

func int64p(n int64) *int64 { return &n }
