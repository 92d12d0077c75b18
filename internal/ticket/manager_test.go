package ticket

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"shedmail/internal/store"

	"go.uber.org/zap"
)

type fakeTimer struct {
	stop bool
	fn   func()
}

func (t *fakeTimer) Stop() bool {
	t.stop = true
	return true
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
	delays []time.Duration
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) AfterFunc(d time.Duration, fn func()) Timer {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTimer{fn: fn}
	f.timers = append(f.timers, t)
	f.delays = append(f.delays, d)
	return t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	pending := append([]*fakeTimer{}, f.timers...)
	f.timers = nil
	f.delays = nil
	f.mu.Unlock()
	for _, timer := range pending {
		timer.fn()
	}
}

func newTestManager(t *testing.T) (*Manager, *store.TicketStore, *fakeClock) {
	t.Helper()
	ticketStore, err := store.NewTicketStore(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("new ticket store: %v", err)
	}
	manager := NewManager(ticketStore, zap.NewNop())
	clock := &fakeClock{now: time.Unix(0, 0)}
	manager.WithClock(clock)
	return manager, ticketStore, clock
}

func TestOpenCreatesTicket(t *testing.T) {
	manager, ticketStore, _ := newTestManager(t)

	calls := 0
	rec, err := manager.Open("u1", "alice", func() (string, error) {
		calls++
		return "c1", nil
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected one provision call, got %d", calls)
	}
	if rec.Status != StatusOpen || rec.ChannelID != "c1" || rec.User != "alice" {
		t.Fatalf("unexpected record: %+v", rec)
	}

	stored, ok := ticketStore.Get("u1")
	if !ok || stored.Status != StatusOpen {
		t.Fatalf("expected stored open ticket, got %+v ok=%t", stored, ok)
	}
}

func TestOpenDuplicateReturnsExistingChannel(t *testing.T) {
	manager, _, _ := newTestManager(t)

	if _, err := manager.Open("u1", "alice", func() (string, error) { return "c1", nil }); err != nil {
		t.Fatalf("first open: %v", err)
	}

	calls := 0
	rec, err := manager.Open("u1", "alice", func() (string, error) {
		calls++
		return "c2", nil
	})
	var already *AlreadyOpenError
	if !errors.As(err, &already) {
		t.Fatalf("expected AlreadyOpenError, got %v", err)
	}
	if already.ChannelID != "c1" {
		t.Fatalf("expected existing channel c1, got %s", already.ChannelID)
	}
	if calls != 0 {
		t.Fatalf("provision must not run on duplicate open, ran %d times", calls)
	}
	if rec.ChannelID != "c1" {
		t.Fatalf("expected existing record, got %+v", rec)
	}
}

func TestResolveAllowsReopen(t *testing.T) {
	manager, ticketStore, _ := newTestManager(t)

	if _, err := manager.Open("u1", "alice", func() (string, error) { return "c1", nil }); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := manager.Resolve("c1"); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if rec, _ := ticketStore.Get("u1"); rec.Status != StatusResolved {
		t.Fatalf("expected resolved, got %s", rec.Status)
	}

	rec, err := manager.Open("u1", "alice", func() (string, error) { return "c2", nil })
	if err != nil {
		t.Fatalf("reopen after resolve: %v", err)
	}
	if rec.ChannelID != "c2" || rec.Status != StatusOpen {
		t.Fatalf("unexpected reopened record: %+v", rec)
	}
}

func TestResolveUnknownChannel(t *testing.T) {
	manager, _, _ := newTestManager(t)
	if err := manager.Resolve("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := manager.Close("missing", func() {}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCloseDeletesAfterGraceDelay(t *testing.T) {
	manager, ticketStore, clock := newTestManager(t)

	if _, err := manager.Open("u1", "alice", func() (string, error) { return "c1", nil }); err != nil {
		t.Fatalf("open: %v", err)
	}

	deleted := false
	if err := manager.Close("c1", func() { deleted = true }); err != nil {
		t.Fatalf("close: %v", err)
	}
	if rec, _ := ticketStore.Get("u1"); rec.Status != StatusClosed {
		t.Fatalf("expected closed, got %s", rec.Status)
	}
	if deleted {
		t.Fatalf("channel deleted before grace delay")
	}
	if len(clock.delays) != 1 || clock.delays[0] != CloseGraceDelay {
		t.Fatalf("expected one %s timer, got %v", CloseGraceDelay, clock.delays)
	}

	clock.Advance(CloseGraceDelay)
	if !deleted {
		t.Fatalf("channel not deleted after grace delay")
	}
}

func TestOpenPropagatesProvisionFailure(t *testing.T) {
	manager, ticketStore, _ := newTestManager(t)

	boom := errors.New("category missing")
	if _, err := manager.Open("u1", "alice", func() (string, error) { return "", boom }); !errors.Is(err, boom) {
		t.Fatalf("expected provision error, got %v", err)
	}
	if _, ok := ticketStore.Get("u1"); ok {
		t.Fatalf("no record may exist after failed provisioning")
	}
}

func TestOpenPropagatesWriteFailure(t *testing.T) {
	dir := t.TempDir()
	ticketStore, err := store.NewTicketStore(filepath.Join(dir, "data"), zap.NewNop())
	if err != nil {
		t.Fatalf("new ticket store: %v", err)
	}
	manager := NewManager(ticketStore, zap.NewNop())

	// Replace the data dir with a plain file so the store write fails.
	if err := removeAndBlock(filepath.Join(dir, "data")); err != nil {
		t.Fatalf("block data dir: %v", err)
	}
	if _, err := manager.Open("u1", "alice", func() (string, error) { return "c1", nil }); err == nil {
		t.Fatalf("expected write failure to propagate")
	}
}

func removeAndBlock(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return err
	}
	return os.WriteFile(path, []byte("x"), 0o644)
}
