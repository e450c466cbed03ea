package memory

import (
	"sync"
	"time"

	"villagemap/internal/domain/town"
)

type Store struct {
	mu       sync.RWMutex
	towns    map[string]*town.Document
	modTimes map[string]time.Time
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{
		towns:    make(map[string]*town.Document),
		modTimes: make(map[string]time.Time),
		now:      time.Now,
	}
}

// WithClock swaps the time source; modification times still strictly
// increase per village.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) SeedTown(village string, doc *town.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.towns[village] = doc.Clone()
	s.modTimes[village] = s.nextModTime(village)
}

// Touch bumps a village's modification time as an outside writer would.
func (s *Store) Touch(village string) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.nextModTime(village)
	s.modTimes[village] = t
	return t
}

func (s *Store) nextModTime(village string) time.Time {
	next := s.now()
	if last, ok := s.modTimes[village]; ok && !next.After(last) {
		next = last.Add(time.Microsecond)
	}
	return next
}
