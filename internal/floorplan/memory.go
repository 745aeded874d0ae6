package floorplan

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dinefloor/backend/internal/models"
)

// MemoryStore is an in-memory Store for tests and DB-less development. WithTx
// serializes transactions and restores a snapshot on failure; it must not be
// nested.
type MemoryStore struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	nextRoomID  int64
	nextTableID int64
	rooms       map[int64]models.Room
	tables      map[int64]models.Table
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms:  make(map[int64]models.Room),
		tables: make(map[int64]models.Table),
	}
}

func (s *MemoryStore) WithTx(_ context.Context, fn func(Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	roomsSnap := cloneRooms(s.rooms)
	tablesSnap := cloneTables(s.tables)
	nextRoom, nextTable := s.nextRoomID, s.nextTableID
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.rooms = roomsSnap
		s.tables = tablesSnap
		s.nextRoomID, s.nextTableID = nextRoom, nextTable
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *MemoryStore) ListRooms(context.Context) ([]models.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]models.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		list = append(list, room)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].OrderIndex != list[j].OrderIndex {
			return list[i].OrderIndex < list[j].OrderIndex
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

func (s *MemoryStore) FindRoom(_ context.Context, id int64) (*models.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[id]
	if !ok {
		return nil, nil
	}
	return &room, nil
}

func (s *MemoryStore) InsertRoom(_ context.Context, room models.Room) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextRoomID++
	room.ID = s.nextRoomID
	room.CreatedAt = time.Now()
	room.UpdatedAt = room.CreatedAt
	s.rooms[room.ID] = room
	return room.ID, nil
}

func (s *MemoryStore) UpdateRoom(_ context.Context, id int64, room models.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.rooms[id]
	if !ok {
		return nil
	}
	room.ID = id
	room.BackgroundKey = existing.BackgroundKey
	room.CreatedAt = existing.CreatedAt
	room.UpdatedAt = time.Now()
	s.rooms[id] = room
	return nil
}

func (s *MemoryStore) DeleteRoom(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[id]; !ok {
		return false, nil
	}
	delete(s.rooms, id)
	for tid, t := range s.tables {
		if t.RoomID == id {
			delete(s.tables, tid)
		}
	}
	return true, nil
}

func (s *MemoryStore) UpdateRoomBackground(_ context.Context, id int64, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if room, ok := s.rooms[id]; ok {
		room.BackgroundKey = key
		room.UpdatedAt = time.Now()
		s.rooms[id] = room
	}
	return nil
}

func (s *MemoryStore) ListTables(_ context.Context, roomID *int64) ([]models.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]models.Table, 0, len(s.tables))
	for _, t := range s.tables {
		if roomID != nil && t.RoomID != *roomID {
			continue
		}
		list = append(list, t)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].OrderIndex != list[j].OrderIndex {
			return list[i].OrderIndex < list[j].OrderIndex
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

func (s *MemoryStore) FindTable(_ context.Context, id int64) (*models.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (s *MemoryStore) InsertTable(_ context.Context, t models.Table) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextTableID++
	t.ID = s.nextTableID
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	s.tables[t.ID] = t
	return t.ID, nil
}

func (s *MemoryStore) UpdateTable(_ context.Context, id int64, t models.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.tables[id]
	if !ok {
		return nil
	}
	t.ID = id
	t.RoomID = existing.RoomID
	t.JoinGroup = existing.JoinGroup
	t.CreatedAt = existing.CreatedAt
	t.UpdatedAt = time.Now()
	s.tables[id] = t
	return nil
}

func (s *MemoryStore) DeleteTable(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tables[id]; !ok {
		return false, nil
	}
	delete(s.tables, id)
	return true, nil
}

func (s *MemoryStore) ExistingCodes(_ context.Context, roomID int64) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	codes := make(map[string]struct{})
	for _, t := range s.tables {
		if t.RoomID == roomID {
			codes[t.Code] = struct{}{}
		}
	}
	return codes, nil
}

func (s *MemoryStore) UpdateJoinGroup(_ context.Context, tableIDs []int64, code *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range tableIDs {
		t, ok := s.tables[id]
		if !ok {
			continue
		}
		if code == nil {
			t.JoinGroup = nil
		} else {
			c := *code
			t.JoinGroup = &c
		}
		t.UpdatedAt = time.Now()
		s.tables[id] = t
	}
	return nil
}

func (s *MemoryStore) UpdatePosition(_ context.Context, tableID int64, x, y float64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[tableID]
	if !ok {
		return false, nil
	}
	t.PosX = x
	t.PosY = y
	t.UpdatedAt = time.Now()
	s.tables[tableID] = t
	return true, nil
}

func cloneRooms(src map[int64]models.Room) map[int64]models.Room {
	dst := make(map[int64]models.Room, len(src))
	for id, room := range src {
		dst[id] = room
	}
	return dst
}

func cloneTables(src map[int64]models.Table) map[int64]models.Table {
	dst := make(map[int64]models.Table, len(src))
	for id, t := range src {
		dst[id] = t
	}
	return dst
}
