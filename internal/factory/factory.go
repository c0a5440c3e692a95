package factory

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/panda19/prisonscore/internal/config"
	"github.com/panda19/prisonscore/internal/dependencies/clock"
	"github.com/panda19/prisonscore/internal/economy"
	ledgermem "github.com/panda19/prisonscore/internal/economy/memory"
	ledgerredis "github.com/panda19/prisonscore/internal/economy/redis"
	"github.com/panda19/prisonscore/internal/formula"
	"github.com/panda19/prisonscore/internal/mainloop"
	"github.com/panda19/prisonscore/internal/policy"
	"github.com/panda19/prisonscore/internal/services/gameplay"
	"github.com/panda19/prisonscore/internal/services/profiles"
	"github.com/panda19/prisonscore/internal/services/progression"
	"github.com/panda19/prisonscore/internal/storage"
	"github.com/panda19/prisonscore/internal/storage/file"
	"github.com/panda19/prisonscore/internal/storage/memory"
	redisstorage "github.com/panda19/prisonscore/internal/storage/redis"
	"github.com/panda19/prisonscore/internal/storage/sqlstore"
	"github.com/panda19/prisonscore/internal/worker"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage
	Ledger  economy.Ledger

	// External dependencies
	Clock clock.Clock

	// Threads
	Worker *worker.Worker
	Loop   *mainloop.Loop

	// Services
	Policy   *policy.Service
	Profiles *profiles.Manager
	Economy  *economy.Service
	Machine  *progression.Machine
	Gameplay *gameplay.Handler

	logger  *slog.Logger
	closers []func() error
}

// New creates a new application with all dependencies wired. Policy
// files are loaded before it returns.
func New(cfg config.Config, logger *slog.Logger) (*App, error) {
	// Use no-op logger if not provided
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	r := &resources{cfg: cfg, logger: logger}

	store, err := r.storage()
	if err != nil {
		_ = r.close()
		return nil, err
	}
	ledger, err := r.ledger()
	if err != nil {
		_ = r.close()
		return nil, err
	}

	pol := policy.New(logger, formula.New(logger, cfg.DebugFormulas), cfg.ProgressionPath(), cfg.RewardsPath())
	if err := pol.Load(); err != nil {
		logger.Warn("policy loaded with errors", slog.String("error", err.Error()))
	}

	app := newWithDependencies(store, ledger, clock.New(), pol, cfg.TickInterval, cfg.DebugXP, logger)
	app.closers = r.closers
	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	ledger economy.Ledger,
	clk clock.Clock,
	pol *policy.Service,
	tick time.Duration,
	debugXP bool,
	logger *slog.Logger,
) *App {
	w := worker.New(logger)
	loop := mainloop.New(logger, tick)
	manager := profiles.New(store, w, loop, clk, logger)
	econ := economy.NewService(ledger, manager, logger)
	machine := progression.New(pol, econ, loop, manager, logger)
	handler := gameplay.New(manager, machine, pol, econ, gameplay.NewLogFeedback(logger), debugXP, logger)

	return &App{
		Storage:  store,
		Ledger:   ledger,
		Clock:    clk,
		Worker:   w,
		Loop:     loop,
		Policy:   pol,
		Profiles: manager,
		Economy:  econ,
		Machine:  machine,
		Gameplay: handler,
		logger:   logger,
	}
}

// Shutdown flushes every online profile, bounded by timeout, then
// releases backend connections.
func (a *App) Shutdown(timeout time.Duration) error {
	flushErr := a.Profiles.Shutdown(timeout)
	var errs []error
	if flushErr != nil {
		errs = append(errs, fmt.Errorf("flush profiles: %w", flushErr))
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// resources opens backends, sharing one redis client between storage
// and the ledger.
type resources struct {
	cfg     config.Config
	logger  *slog.Logger
	client  *redis.Client
	closers []func() error
}

func (r *resources) redisConfig() redisstorage.Config {
	redisCfg := redisstorage.DefaultConfig()
	redisCfg.URL = r.cfg.RedisURL
	redisCfg.KeyPrefix = r.cfg.RedisPrefix
	return redisCfg
}

func (r *resources) redis() (*redis.Client, error) {
	if r.client != nil {
		return r.client, nil
	}
	client, err := redisstorage.Connect(r.redisConfig())
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	r.client = client
	r.closers = append(r.closers, client.Close)
	return client, nil
}

func (r *resources) storage() (storage.Storage, error) {
	switch r.cfg.StorageType {
	case config.StorageMemory:
		return memory.New(), nil
	case config.StorageJSON, "":
		return file.New(r.cfg.DataDir, r.logger)
	case config.StorageRedis:
		client, err := r.redis()
		if err != nil {
			return nil, err
		}
		return redisstorage.NewWithClient(client, r.redisConfig(), r.logger), nil
	case config.StorageSQLite:
		store, err := sqlstore.OpenSQLite(r.cfg.SQLiteFile())
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		r.closers = append(r.closers, store.Close)
		return store, nil
	case config.StoragePostgres:
		store, err := sqlstore.OpenPostgres(r.cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		r.closers = append(r.closers, store.Close)
		return store, nil
	default:
		return nil, fmt.Errorf("invalid storage type %q", r.cfg.StorageType)
	}
}

func (r *resources) ledger() (economy.Ledger, error) {
	switch r.cfg.EconomyType {
	case config.EconomyMemory, "":
		return ledgermem.New(), nil
	case config.EconomyRedis:
		client, err := r.redis()
		if err != nil {
			return nil, err
		}
		return ledgerredis.New(client, r.redisConfig().Key("balances")), nil
	case config.EconomyNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("invalid economy type %q", r.cfg.EconomyType)
	}
}

func (r *resources) close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i]())
	}
	return errors.Join(errs...)
}
