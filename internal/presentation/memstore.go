package presentation

import (
	"context"
	"sync"
)

// Compile-time assertion that MemStore satisfies the Store interface.
var _ Store = (*MemStore)(nil)

// MemStore is a thread-safe, in-memory implementation of [Store].
// It is suitable for single-session use and testing.
type MemStore struct {
	mu            sync.RWMutex
	presentations map[string]Presentation
}

// NewMemStore returns an initialised [MemStore].
func NewMemStore() *MemStore {
	return &MemStore{
		presentations: make(map[string]Presentation),
	}
}

// Save implements [Store.Save].
func (s *MemStore) Save(ctx context.Context, p Presentation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.presentations == nil {
		s.presentations = make(map[string]Presentation)
	}
	s.presentations[p.ID] = p.Clone()
	return nil
}

// Get implements [Store.Get].
func (s *MemStore) Get(ctx context.Context, id string) (Presentation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.presentations[id]
	if !ok {
		return Presentation{}, ErrNotFound
	}
	return p.Clone(), nil
}

// List implements [Store.List].
func (s *MemStore) List(ctx context.Context) ([]Presentation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Presentation, 0, len(s.presentations))
	for _, p := range s.presentations {
		result = append(result, p.Clone())
	}
	return result, nil
}

// Delete implements [Store.Delete].
func (s *MemStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.presentations[id]; !ok {
		return ErrNotFound
	}
	delete(s.presentations, id)
	return nil
}
