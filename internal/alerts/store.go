package alerts

import (
	"sync"

	"ossectail/internal/model"
)

// Store keeps the most recently persisted alerts for the status API.
type Store struct {
	mu    sync.RWMutex
	ring  []model.Alert
	next  int
	full  bool
	total int64
}

func NewStore(limit int) *Store {
	if limit <= 0 {
		limit = 1000
	}
	return &Store{ring: make([]model.Alert, limit)}
}

func (s *Store) Add(alert model.Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ring[s.next] = alert
	s.next = (s.next + 1) % len(s.ring)
	if s.next == 0 {
		s.full = true
	}
	s.total++
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lenLocked()
}

func (s *Store) lenLocked() int {
	if s.full {
		return len(s.ring)
	}
	return s.next
}

// List returns up to limit alerts, newest first.
func (s *Store) List(limit int) []model.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := s.lenLocked()
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]model.Alert, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (s.next - i + len(s.ring)) % len(s.ring)
		out = append(out, s.ring[idx])
	}
	return out
}

func (s *Store) Find(ossecID string) (model.Alert, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := s.lenLocked()
	for i := 1; i <= n; i++ {
		a := s.ring[(s.next-i+len(s.ring))%len(s.ring)]
		if a.OSSECID == ossecID {
			return a, true
		}
	}
	return model.Alert{}, false
}

func (s *Store) Total() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total
}
