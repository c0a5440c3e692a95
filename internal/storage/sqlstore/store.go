// Package sqlstore persists profiles in a SQL database, one row per
// profile, upserted on save.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/panda19/prisonscore/internal/model"
	"github.com/panda19/prisonscore/internal/storage"
)

const (
	loadQuery = `SELECT identity, display_name, level, experience, prestige,
		balance_mirror, reward_multiplier, last_seen, schema_version
		FROM profiles WHERE identity = ?`

	saveQuery = `INSERT INTO profiles (identity, display_name, level, experience,
		prestige, balance_mirror, reward_multiplier, last_seen, schema_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (identity) DO UPDATE SET
			display_name = excluded.display_name,
			level = excluded.level,
			experience = excluded.experience,
			prestige = excluded.prestige,
			balance_mirror = excluded.balance_mirror,
			reward_multiplier = excluded.reward_multiplier,
			last_seen = excluded.last_seen,
			schema_version = excluded.schema_version`

	deleteQuery = `DELETE FROM profiles WHERE identity = ?`
)

// Store is a SQL-backed implementation of the storage interface
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// Ensure Store implements the interface
var _ storage.Storage = (*Store)(nil)

// OpenSQLite opens (creating if needed) a SQLite database file
func OpenSQLite(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	return open(SQLite, dsn)
}

// OpenPostgres connects to a Postgres database by URL
func OpenPostgres(url string) (*Store, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("database url is required")
	}
	store, err := open(Postgres, url)
	if err != nil {
		return nil, err
	}
	store.db.SetMaxOpenConns(10)
	store.db.SetMaxIdleConns(5)
	store.db.SetConnMaxLifetime(30 * time.Minute)
	return store, nil
}

func open(d Dialect, dsn string) (*Store, error) {
	db, err := sql.Open(d.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", d.Name, err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s db: %w", d.Name, err)
	}
	store := &Store{db: db, dialect: d}
	if err := store.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.schema); err != nil {
		return fmt.Errorf("create profiles table: %w", err)
	}
	return nil
}

// Close closes the database handle
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Load(ctx context.Context, id model.ProfileID) (*model.Record, error) {
	var (
		rec      model.Record
		identity string
		lastSeen int64
	)
	err := s.db.QueryRowContext(ctx, s.dialect.rebind(loadQuery), id.String()).Scan(
		&identity,
		&rec.DisplayName,
		&rec.Level,
		&rec.Experience,
		&rec.Prestige,
		&rec.BalanceMirror,
		&rec.RewardMultiplier,
		&lastSeen,
		&rec.SchemaVersion,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrProfileNotFound
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}
	parsed, err := model.ParseProfileID(identity)
	if err != nil {
		return nil, model.ErrProfileNotFound
	}
	rec.ID = parsed
	rec.LastSeen = time.UnixMilli(lastSeen).UTC()
	return &rec, nil
}

func (s *Store) Save(ctx context.Context, rec *model.Record) error {
	_, err := s.db.ExecContext(ctx, s.dialect.rebind(saveQuery),
		rec.ID.String(),
		rec.DisplayName,
		rec.Level,
		rec.Experience,
		rec.Prestige,
		rec.BalanceMirror,
		rec.RewardMultiplier,
		rec.LastSeen.UTC().UnixMilli(),
		rec.SchemaVersion,
	)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id model.ProfileID) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.rebind(deleteQuery), id.String()); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return nil
}
