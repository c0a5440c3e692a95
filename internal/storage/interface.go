package storage

import (
	"context"

	"github.com/panda19/prisonscore/internal/model"
)

// Storage persists one record per profile. Implementations are called
// from a single goroutine and need no internal coordination beyond what
// their backing store requires.
type Storage interface {
	// Load returns model.ErrProfileNotFound when no record exists.
	// Unreadable records are reported the same way.
	Load(ctx context.Context, id model.ProfileID) (*model.Record, error)
	// Save replaces the record atomically.
	Save(ctx context.Context, rec *model.Record) error
	// Delete succeeds when the record is already gone.
	Delete(ctx context.Context, id model.ProfileID) error
}
