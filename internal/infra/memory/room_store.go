package memory

import (
	"sync"

	"quiz-master-client/internal/server"
)

// RoomStore is an in-memory implementation of server.RoomRepository.
type RoomStore struct {
	mu    sync.RWMutex
	rooms map[string]*server.Room
}

func NewRoomStore() *RoomStore {
	return &RoomStore{
		rooms: make(map[string]*server.Room),
	}
}

func (s *RoomStore) Put(room *server.Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.Code()] = room
}

func (s *RoomStore) Get(code string) (*server.Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[code]
	return room, ok
}

func (s *RoomStore) Exists(code string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rooms[code]
	return ok
}

func (s *RoomStore) DeleteIfEmpty(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[code]
	if !ok {
		return
	}
	if room.IsEmpty() {
		delete(s.rooms, code)
	}
}
