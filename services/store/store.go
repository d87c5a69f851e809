package store

import (
	"errors"
	"sync"

	game_constants "gamehub/constants/game"
	game "gamehub/models/game"
)

var ErrRoomNotFound = errors.New("room not found")

// entry pairs a room with the mutex that serializes every intent touching
// it. Intents for different rooms proceed fully in parallel.
type entry struct {
	mu   sync.Mutex
	room *game.Room
}

// Store is the in-memory registry of active rooms. The outer lock only
// guards the map itself; room state is owned by each entry's lock.
type Store struct {
	mu    sync.Mutex
	rooms map[string]*entry
}

func New() *Store {
	return &Store{rooms: make(map[string]*entry)}
}

// Create allocates a fresh unique room id and registers the room returned by
// build. The id loop matches the small collision space of human-shareable
// codes; with 36^8 ids it effectively never retries.
func (s *Store) Create(build func(roomID string) *game.Room) *game.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		id := game.GenerateRoomID(game_constants.RoomIDLength)
		if _, exists := s.rooms[id]; exists {
			continue
		}
		room := build(id)
		s.rooms[id] = &entry{room: room}
		return room.Snapshot()
	}
}

// Get returns a snapshot of the room, taken under the room's lock.
func (s *Store) Get(roomID string) (*game.Room, error) {
	var snap *game.Room
	err := s.Mutate(roomID, func(r *game.Room) error {
		snap = r.Snapshot()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Mutate runs fn as the room's single logical owner: concurrent intents for
// the same room are serialized here, in arrival order of the lock. fn must
// not block; the engine performs no I/O inside a mutation.
func (s *Store) Mutate(roomID string, fn func(room *game.Room) error) error {
	s.mu.Lock()
	e, ok := s.rooms[roomID]
	s.mu.Unlock()
	if !ok {
		return ErrRoomNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.room)
}

func (s *Store) Delete(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, roomID)
}

// RoomIDs lists currently registered rooms, for the janitor sweep.
func (s *Store) RoomIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.rooms))
	for id := range s.rooms {
		ids = append(ids, id)
	}
	return ids
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}
