// utils/utils.go

package utils

import (
	"sync"

	"github.com/cameroncuttingedge/dots_and_boxes/game"
	"github.com/google/uuid"
)

func GenerateUUIDString() string {
	id := uuid.New()
	return id.String()
}

// Store holds all running games in memory.
type Store struct {
	mu    sync.RWMutex
	games map[string]*game.Game
}

func NewStore() *Store {
	return &Store{games: make(map[string]*game.Game)}
}

func (s *Store) Add(g *game.Game) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[g.ID] = g
}

// Get returns the game with the given ID, or nil if not found.
func (s *Store) Get(id string) *game.Game {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.games[id]
}

func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.games, id)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.games)
}
