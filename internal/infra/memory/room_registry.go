package memory

import (
	"context"
	"sync"

	"studysync-service/internal/domain"
)

// RoomRegistry is an in-memory implementation of app.RoomRegistry.
type RoomRegistry struct {
	mu    sync.RWMutex
	rooms map[string]*domain.Room
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{
		rooms: make(map[string]*domain.Room),
	}
}

func (r *RoomRegistry) CreateRoom(_ context.Context, id string, cfg domain.RoomConfig) (*domain.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[id]; ok {
		return nil, domain.ErrRoomExists
	}
	room := domain.NewRoom(id, cfg)
	r.rooms[id] = room
	return room, nil
}

func (r *RoomRegistry) GetRoom(id string) (*domain.Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[id]
	return room, ok
}

func (r *RoomRegistry) ListRoomIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.rooms))
	for id := range r.rooms {
		ids = append(ids, id)
	}
	return ids
}

func (r *RoomRegistry) RemoveRoom(_ context.Context, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms, id)
}

func (r *RoomRegistry) Clear(_ context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rooms = make(map[string]*domain.Room)
}
