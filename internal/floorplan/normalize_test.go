package floorplan

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dinefloor/backend/internal/models"
)

func TestNormalizeRoomNameRequired(t *testing.T) {
	_, err := NormalizeRoom(RoomInput{Name: "   "})
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	room, err := NormalizeRoom(RoomInput{Name: "  Terrace  "})
	require.NoError(t, err)
	assert.Equal(t, "Terrace", room.Name)
	assert.True(t, room.Active)
}

func TestNormalizeRoomColor(t *testing.T) {
	room, err := NormalizeRoom(RoomInput{Name: "Bar", Color: "aabbcc"})
	require.NoError(t, err)
	assert.Equal(t, "#aabbcc", room.Color)

	room, err = NormalizeRoom(RoomInput{Name: "Bar", Color: "#AABBCC"})
	require.NoError(t, err)
	assert.Equal(t, "#AABBCC", room.Color)

	room, err = NormalizeRoom(RoomInput{Name: "Bar"})
	require.NoError(t, err)
	assert.Empty(t, room.Color)

	_, err = NormalizeRoom(RoomInput{Name: "Bar", Color: "red"})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestNormalizeRoomCapacityClampedAtZero(t *testing.T) {
	room, err := NormalizeRoom(RoomInput{Name: "Bar", Capacity: -5})
	require.NoError(t, err)
	assert.Equal(t, 0, room.Capacity)

	room, err = NormalizeRoom(RoomInput{Name: "Bar", Capacity: 40})
	require.NoError(t, err)
	assert.Equal(t, 40, room.Capacity)
}

func TestNormalizeTableRequiredFields(t *testing.T) {
	_, err := NormalizeTable(TableInput{RoomID: 1})
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	_, err = NormalizeTable(TableInput{Code: "T1"})
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	table, err := NormalizeTable(TableInput{RoomID: 1, Code: " T1 "})
	require.NoError(t, err)
	assert.Equal(t, "T1", table.Code)
	assert.True(t, table.Active)
}

func TestNormalizeTableStatusLenientFallback(t *testing.T) {
	table, err := NormalizeTable(TableInput{RoomID: 1, Code: "T1", Status: "nonsense"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusAvailable, table.Status)

	table, err = NormalizeTable(TableInput{RoomID: 1, Code: "T1", Status: " BLOCKED "})
	require.NoError(t, err)
	assert.Equal(t, models.StatusBlocked, table.Status)

	table, err = NormalizeTable(TableInput{RoomID: 1, Code: "T1"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusAvailable, table.Status)
}

func TestNormalizeTableSeatsPositiveOrNull(t *testing.T) {
	table, err := NormalizeTable(TableInput{
		RoomID:   1,
		Code:     "T1",
		SeatsMin: intp(0),
		SeatsStd: intp(-2),
		SeatsMax: intp(6),
	})
	require.NoError(t, err)
	assert.Nil(t, table.SeatsMin)
	assert.Nil(t, table.SeatsStd)
	require.NotNil(t, table.SeatsMax)
	assert.Equal(t, 6, *table.SeatsMax)
}

func TestNormalizeGroupCode(t *testing.T) {
	code, err := NormalizeGroupCode("WinDow-Pair_1", 3)
	require.NoError(t, err)
	assert.Equal(t, "window-pair_1", code)

	_, err = NormalizeGroupCode("ab", 3)
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	_, err = NormalizeGroupCode("has space", 3)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestGeneratedGroupCodeShape(t *testing.T) {
	lowercase := regexp.MustCompile(`^[a-z0-9_-]+$`)
	shape := regexp.MustCompile(`^grp-42-[0-9a-f]{8}$`)

	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		code, err := NormalizeGroupCode("", 42)
		require.NoError(t, err)
		assert.Regexp(t, lowercase, code)
		assert.Regexp(t, shape, code)
		seen[code] = struct{}{}
	}
	// Collision-improbable suffixes.
	assert.Len(t, seen, 50)
}
