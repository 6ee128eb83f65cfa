package redis

import (
	"context"
	"sync"
	"time"

	"quiz-master-client/internal/server"

	"github.com/redis/go-redis/v9"
)

// RoomStore is a Redis-aware implementation of server.RoomRepository.
// Notes:
//   - It still keeps a local in-memory map of rooms to reuse the existing
//     in-process broadcast logic.
//   - Redis marks room liveness, which also makes code uniqueness visible
//     across instances (and could be extended to cross-instance pub/sub).
type RoomStore struct {
	client *redis.Client
	ttl    time.Duration
	mu     sync.RWMutex
	rooms  map[string]*server.Room
}

func NewRoomStore(client *redis.Client, ttl time.Duration) *RoomStore {
	return &RoomStore{
		client: client,
		ttl:    ttl,
		rooms:  make(map[string]*server.Room),
	}
}

func (s *RoomStore) Put(room *server.Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.Code()] = room
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(room.Code()), "1", s.ttl).Err()
}

func (s *RoomStore) Get(code string) (*server.Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[code]
	return room, ok
}

func (s *RoomStore) Exists(code string) bool {
	s.mu.RLock()
	if _, ok := s.rooms[code]; ok {
		s.mu.RUnlock()
		return true
	}
	s.mu.RUnlock()
	n, err := s.client.Exists(context.Background(), s.key(code)).Result()
	return err == nil && n > 0
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
		_ = s.client.Del(context.Background(), s.key(code)).Err()
	}
}

func (s *RoomStore) key(code string) string {
	return "room:session:" + code
}
