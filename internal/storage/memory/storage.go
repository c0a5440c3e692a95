package memory

import (
	"context"
	"sync"

	"github.com/panda19/prisonscore/internal/model"
	"github.com/panda19/prisonscore/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu      sync.RWMutex
	records map[model.ProfileID]model.Record
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		records: make(map[model.ProfileID]model.Record),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) Load(ctx context.Context, id model.ProfileID) (*model.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, model.ErrProfileNotFound
	}
	return &rec, nil
}

func (s *Storage) Save(ctx context.Context, rec *model.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = *rec
	return nil
}

func (s *Storage) Delete(ctx context.Context, id model.ProfileID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}

// Len returns the number of stored records
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
