package factory

import (
	"path/filepath"
	"time"

	"github.com/panda19/prisonscore/internal/dependencies/mocks"
	ledgermem "github.com/panda19/prisonscore/internal/economy/memory"
	"github.com/panda19/prisonscore/internal/formula"
	"github.com/panda19/prisonscore/internal/policy"
	"github.com/panda19/prisonscore/internal/storage/memory"
	"github.com/panda19/prisonscore/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock *mocks.MockClock
	MemStore  *memory.Storage
	MemLedger *ledgermem.Ledger
	PolicyDir string
}

// NewTestApp creates an App with in-memory backends and a mocked clock.
// Policy files are seeded into dir.
func NewTestApp(dir string) *TestApp {
	logger := testutil.NopLogger()
	store := memory.New()
	ledger := ledgermem.New()
	mockClock := mocks.NewMockClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))

	pol := policy.New(logger, formula.New(logger, false),
		filepath.Join(dir, "progression.yml"),
		filepath.Join(dir, "blockrewards.yml"))
	_ = pol.Load()

	app := newWithDependencies(store, ledger, mockClock, pol, time.Millisecond, false, logger)

	return &TestApp{
		App:       app,
		MockClock: mockClock,
		MemStore:  store,
		MemLedger: ledger,
		PolicyDir: dir,
	}
}

// Settle waits for queued storage work and then drains the main loop
// until nothing is left, so chained callbacks have run.
func (t *TestApp) Settle() {
	done := make(chan struct{})
	if err := t.Worker.Submit(func() { close(done) }); err == nil {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
		}
	}
	for i := 0; i < 10; i++ {
		if t.Loop.RunPending() == 0 {
			return
		}
	}
}
