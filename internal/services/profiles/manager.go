// Package profiles keeps the authoritative in-memory copy of every online
// player's profile and schedules all storage I/O on a single worker.
package profiles

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/panda19/prisonscore/internal/dependencies/clock"
	"github.com/panda19/prisonscore/internal/model"
	"github.com/panda19/prisonscore/internal/storage"
	"github.com/panda19/prisonscore/internal/worker"
)

// Poster runs callbacks on the main loop
type Poster interface {
	Post(fn func())
}

// Manager is the profile cache and I/O scheduler
type Manager struct {
	storage storage.Storage
	worker  *worker.Worker
	loop    Poster
	clock   clock.Clock
	logger  *slog.Logger

	mu        sync.RWMutex
	profiles  map[model.ProfileID]*model.Profile
	pending   map[model.ProfileID]*pendingLoad
	abandoned map[model.ProfileID]bool

	autosaveMu   sync.Mutex
	autosaveStop chan struct{}
	autosaveDone chan struct{}
}

// pendingLoad is a load queued on the worker that later joins share
type pendingLoad struct {
	// name is the display name of the most recent join
	name    string
	waiters []func(*model.Profile)
	// deleted is set when the record was deleted while the load was
	// queued; the load result is then replaced by a fresh profile.
	deleted bool
}

// New creates a Manager. The worker becomes owned by the Manager and is
// closed by SaveAllSync.
func New(store storage.Storage, w *worker.Worker, loop Poster, clk clock.Clock, logger *slog.Logger) *Manager {
	return &Manager{
		storage:   store,
		worker:    w,
		loop:      loop,
		clock:     clk,
		logger:    logger,
		profiles:  make(map[model.ProfileID]*model.Profile),
		pending:   make(map[model.ProfileID]*pendingLoad),
		abandoned: make(map[model.ProfileID]bool),
	}
}

// Get returns the cached profile or nil. It never touches storage.
func (m *Manager) Get(id model.ProfileID) *model.Profile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.profiles[id]
}

// GetOrCreate returns the cached profile, inserting a fresh one if absent
func (m *Manager) GetOrCreate(id model.ProfileID, name string) *model.Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.profiles[id]; ok {
		return p
	}
	p := model.NewProfile(model.NewRecord(id, name, m.clock.Now()))
	m.profiles[id] = p
	return p
}

// List returns every cached profile in no particular order
func (m *Manager) List() []*model.Profile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Profile, 0, len(m.profiles))
	for _, p := range m.profiles {
		out = append(out, p)
	}
	return out
}

// Len returns the number of cached profiles
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.profiles)
}

// GetOrLoad makes the profile available and then calls onReady on the
// main loop. A miss is loaded from storage on the worker; concurrent
// misses for the same id share one load. A missing, unreadable or failed
// record yields a fresh profile.
func (m *Manager) GetOrLoad(id model.ProfileID, name string, onReady func(*model.Profile)) {
	m.mu.Lock()
	if p, ok := m.profiles[id]; ok {
		m.mu.Unlock()
		p.Touch(name, m.clock.Now())
		m.ready(p, onReady)
		return
	}
	delete(m.abandoned, id)
	pl, inFlight := m.pending[id]
	if !inFlight {
		pl = &pendingLoad{}
		m.pending[id] = pl
	}
	pl.name = name
	pl.waiters = append(pl.waiters, onReady)
	m.mu.Unlock()

	if inFlight {
		return
	}

	err := m.worker.Submit(func() {
		rec := m.load(id, name)
		m.completeLoad(id, rec)
	})
	if err != nil {
		m.logger.Warn("load not scheduled, using fresh profile",
			slog.String("profile_id", id.String()),
			slog.String("error", err.Error()),
		)
		m.completeLoad(id, model.NewRecord(id, name, m.clock.Now()))
	}
}

func (m *Manager) load(id model.ProfileID, name string) model.Record {
	rec, err := m.storage.Load(context.Background(), id)
	switch {
	case err == nil:
		rec.Migrate()
		return *rec
	case errors.Is(err, model.ErrProfileNotFound):
		m.logger.Info("no stored profile, creating new",
			slog.String("profile_id", id.String()),
		)
	default:
		m.logger.Error("failed to load profile, creating new",
			slog.String("profile_id", id.String()),
			slog.String("error", err.Error()),
		)
	}
	return model.NewRecord(id, name, m.clock.Now())
}

func (m *Manager) completeLoad(id model.ProfileID, rec model.Record) {
	m.mu.Lock()
	pl := m.pending[id]
	delete(m.pending, id)
	if pl == nil {
		pl = &pendingLoad{name: rec.DisplayName}
	}
	if m.abandoned[id] {
		delete(m.abandoned, id)
		m.mu.Unlock()
		m.logger.Info("player left before profile loaded", slog.String("profile_id", id.String()))
		return
	}
	if pl.deleted {
		m.logger.Info("profile deleted while loading, starting fresh", slog.String("profile_id", id.String()))
		rec = model.NewRecord(id, pl.name, m.clock.Now())
	}
	p, ok := m.profiles[id]
	if !ok {
		p = model.NewProfile(rec)
		m.profiles[id] = p
	}
	m.mu.Unlock()

	p.Touch(pl.name, m.clock.Now())
	for _, onReady := range pl.waiters {
		m.ready(p, onReady)
	}
}

func (m *Manager) ready(p *model.Profile, onReady func(*model.Profile)) {
	if onReady == nil {
		return
	}
	m.loop.Post(func() { onReady(p) })
}

// SaveAsync schedules a save of the profile's current state
func (m *Manager) SaveAsync(id model.ProfileID) error {
	p := m.Get(id)
	if p == nil {
		return model.ErrProfileNotCached
	}
	rec := p.Snapshot()
	return m.worker.Submit(func() { m.save(&rec) })
}

// SaveAllAsync schedules one batch saving every cached profile as it is
// right now. It returns the number of profiles in the batch.
func (m *Manager) SaveAllAsync() (int, error) {
	recs := m.snapshotAll()
	if len(recs) == 0 {
		return 0, nil
	}
	err := m.worker.Submit(func() {
		for i := range recs {
			m.save(&recs[i])
		}
		m.logger.Info("autosave complete", slog.Int("profiles", len(recs)))
	})
	if err != nil {
		return 0, err
	}
	return len(recs), nil
}

// SaveAllSync is for shutdown. It schedules a save per cached profile,
// closes the worker and waits up to timeout. If the worker has not
// drained by then every profile is written directly from this goroutine.
func (m *Manager) SaveAllSync(timeout time.Duration) error {
	recs := m.snapshotAll()
	for i := range recs {
		rec := recs[i]
		if err := m.worker.Submit(func() { m.save(&rec) }); err != nil {
			m.logger.Warn("shutdown save not scheduled",
				slog.String("profile_id", rec.ID.String()),
				slog.String("error", err.Error()),
			)
		}
	}
	m.worker.Close()

	if m.worker.Wait(timeout) {
		m.logger.Info("all profiles saved", slog.Int("profiles", len(recs)))
		return nil
	}

	m.logger.Warn("shutdown flush timed out, saving directly",
		slog.Duration("timeout", timeout),
		slog.Int("profiles", len(recs)),
	)
	var errs []error
	for i := range recs {
		if err := m.storage.Save(context.Background(), &recs[i]); err != nil {
			errs = append(errs, err)
			m.logger.Error("fallback save failed",
				slog.String("profile_id", recs[i].ID.String()),
				slog.String("error", err.Error()),
			)
		}
	}
	return errors.Join(errs...)
}

// RemoveAndSave evicts the profile and schedules its final save
func (m *Manager) RemoveAndSave(id model.ProfileID) error {
	m.mu.Lock()
	p, ok := m.profiles[id]
	delete(m.profiles, id)
	if _, loading := m.pending[id]; loading {
		m.abandoned[id] = true
	}
	m.mu.Unlock()

	if !ok {
		return nil
	}
	rec := p.Snapshot()
	rec.LastSeen = m.clock.Now()
	return m.worker.Submit(func() { m.save(&rec) })
}

// DeleteAsync evicts the profile and schedules removal of its record. A
// load already queued for the id read the record before the delete runs,
// so it is told to start the player fresh instead.
func (m *Manager) DeleteAsync(id model.ProfileID) error {
	m.mu.Lock()
	delete(m.profiles, id)
	if pl, loading := m.pending[id]; loading {
		pl.deleted = true
	}
	m.mu.Unlock()

	return m.worker.Submit(func() {
		if err := m.storage.Delete(context.Background(), id); err != nil {
			m.logger.Error("failed to delete profile",
				slog.String("profile_id", id.String()),
				slog.String("error", err.Error()),
			)
			return
		}
		m.logger.Info("profile deleted", slog.String("profile_id", id.String()))
	})
}

// LoadStored reads a record from storage on the worker, so the read never
// overlaps a save or delete. It does not touch the cache.
func (m *Manager) LoadStored(ctx context.Context, id model.ProfileID) (*model.Record, error) {
	type result struct {
		rec *model.Record
		err error
	}
	done := make(chan result, 1)
	err := m.worker.Submit(func() {
		rec, err := m.storage.Load(ctx, id)
		if err == nil {
			rec.Migrate()
		}
		done <- result{rec, err}
	})
	if err != nil {
		return nil, err
	}

	select {
	case res := <-done:
		return res.rec, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *Manager) snapshotAll() []model.Record {
	profiles := m.List()
	recs := make([]model.Record, 0, len(profiles))
	for _, p := range profiles {
		recs = append(recs, p.Snapshot())
	}
	return recs
}

func (m *Manager) save(rec *model.Record) {
	if err := m.storage.Save(context.Background(), rec); err != nil {
		m.logger.Error("failed to save profile",
			slog.String("profile_id", rec.ID.String()),
			slog.String("error", err.Error()),
		)
	}
}

// StartAutosave saves every cached profile each interval until
// StopAutosave. A non-positive interval disables autosave.
func (m *Manager) StartAutosave(interval time.Duration) {
	if interval <= 0 {
		return
	}
	m.autosaveMu.Lock()
	defer m.autosaveMu.Unlock()
	if m.autosaveStop != nil {
		return
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	m.autosaveStop, m.autosaveDone = stop, done

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := m.SaveAllAsync(); err != nil {
					m.logger.Warn("autosave not scheduled", slog.String("error", err.Error()))
				}
			case <-stop:
				return
			}
		}
	}()
}

// StopAutosave cancels the autosave timer and waits for it to exit
func (m *Manager) StopAutosave() {
	m.autosaveMu.Lock()
	stop, done := m.autosaveStop, m.autosaveDone
	m.autosaveStop, m.autosaveDone = nil, nil
	m.autosaveMu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

// Shutdown stops autosave and flushes every profile, bounded by timeout
func (m *Manager) Shutdown(timeout time.Duration) error {
	m.StopAutosave()
	return m.SaveAllSync(timeout)
}
