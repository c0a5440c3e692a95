// Package file stores each profile as a JSON document under
// <dir>/players/<uuid>.json, replaced atomically on every save.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	"github.com/panda19/prisonscore/internal/model"
	"github.com/panda19/prisonscore/internal/storage"
)

// Storage is a directory-backed implementation of the storage interface
type Storage struct {
	dir    string
	logger *slog.Logger

	// replace is atomic.ReplaceFile outside of tests
	replace func(source, destination string) error
}

// New creates the players directory under dataDir if needed
func New(dataDir string, logger *slog.Logger) (*Storage, error) {
	dir := filepath.Join(dataDir, "players")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create players dir: %w", err)
	}
	return &Storage{
		dir:     dir,
		logger:  logger,
		replace: atomic.ReplaceFile,
	}, nil
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) path(id model.ProfileID) string {
	return filepath.Join(s.dir, id.String()+".json")
}

func (s *Storage) Load(ctx context.Context, id model.ProfileID) (*model.Record, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, model.ErrProfileNotFound
		}
		return nil, fmt.Errorf("read profile: %w", err)
	}

	var rec model.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		s.logger.Error("corrupt profile record",
			slog.String("profile_id", id.String()),
			slog.String("error", err.Error()),
		)
		return nil, model.ErrProfileNotFound
	}
	return &rec, nil
}

// Save writes to a temporary sibling and atomically replaces the target
// with it, so readers only ever see a complete record. The temp name is
// unique per call, so a shutdown fallback save may overlap a worker save.
func (s *Storage) Save(ctx context.Context, rec *model.Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	target := s.path(rec.ID)
	tmp, err := os.CreateTemp(s.dir, rec.ID.String()+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := s.replace(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace profile: %w", err)
	}
	return nil
}

func (s *Storage) Delete(ctx context.Context, id model.ProfileID) error {
	err := os.Remove(s.path(id))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete profile: %w", err)
	}
	return nil
}
