package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"kassenwerk/backend/internal/domain"
	"kassenwerk/backend/internal/settingscache"
	"kassenwerk/backend/internal/store"
)

type fakeSettingsSource struct {
	settings *domain.Settings
	err      error
}

func (f *fakeSettingsSource) GetSettings(_ context.Context) (*domain.Settings, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.settings, nil
}

type fakeStore struct {
	mu          sync.Mutex
	txs         []domain.Transaction
	closings    []domain.DailyClosing
	rangeFrom   []time.Time
	rangeTo     []time.Time
	lastCloseAt *time.Time
	createErr   error
	user        *domain.UserAccount
}

func (f *fakeStore) FindTransactionsInRange(_ context.Context, from, to time.Time) ([]domain.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rangeFrom = append(f.rangeFrom, from)
	f.rangeTo = append(f.rangeTo, to)

	out := make([]domain.Transaction, 0, len(f.txs))
	for _, tx := range f.txs {
		if !tx.CreatedAt.Before(from) && tx.CreatedAt.Before(to) {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateDailyClosing(_ context.Context, closing domain.DailyClosing) (*domain.DailyClosing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.closings = append(f.closings, closing)
	return &closing, nil
}

func (f *fakeStore) SetLastCloseAt(_ context.Context, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastCloseAt = &at
	return nil
}

func (f *fakeStore) FindSystemUser(_ context.Context) (*domain.UserAccount, error) {
	if f.user == nil {
		return nil, store.ErrNotFound
	}
	return f.user, nil
}

func testSettings() *domain.Settings {
	return &domain.Settings{
		AutoCloseEnabled:   true,
		AutoStartTime:      "22:00",
		BusinessDayEndTime: "04:00",
	}
}

func newTestScheduler(repo *fakeStore, source *fakeSettingsSource, now time.Time) *AutoCloseScheduler {
	s := New(repo, settingscache.New(source, time.Minute), time.UTC)
	s.clock = func() time.Time { return now }
	return s
}

func TestTickFiresOnExactMinuteMatch(t *testing.T) {
	repo := &fakeStore{
		user: &domain.UserAccount{Username: "admin", Role: domain.RoleAdmin, Active: true},
		txs: []domain.Transaction{
			{Total: decimal.RequireFromString("20"), PaymentMethod: "cash", TillID: "1", TillName: "Till 1",
				CreatedAt: time.Date(2024, 1, 1, 23, 30, 0, 0, time.UTC)},
		},
	}
	s := newTestScheduler(repo, &fakeSettingsSource{settings: testSettings()}, time.Date(2024, 1, 2, 4, 0, 30, 0, time.UTC))

	s.tick()

	if len(repo.closings) != 1 {
		t.Fatalf("expected 1 closing, got %d", len(repo.closings))
	}
	closing := repo.closings[0]
	if closing.UserID != "admin" {
		t.Fatalf("expected closing attributed to admin, got %q", closing.UserID)
	}
	if closing.Summary.Transactions != 1 || !closing.Summary.TotalSales.Equal(decimal.RequireFromString("20")) {
		t.Fatalf("unexpected summary %+v", closing.Summary)
	}
	if !repo.rangeFrom[0].Equal(time.Date(2024, 1, 1, 22, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected window starting 22:00 previous day, got %v", repo.rangeFrom[0])
	}
	if repo.lastCloseAt == nil {
		t.Fatalf("expected the close watermark to advance")
	}
}

func TestTickSkipsOutsideCloseMinute(t *testing.T) {
	repo := &fakeStore{user: &domain.UserAccount{Username: "admin"}}
	s := newTestScheduler(repo, &fakeSettingsSource{settings: testSettings()}, time.Date(2024, 1, 2, 4, 1, 0, 0, time.UTC))

	s.tick()

	if len(repo.closings) != 0 {
		t.Fatalf("expected no closing off the boundary minute, got %d", len(repo.closings))
	}
}

func TestTickDeduplicatesWithinSameMinute(t *testing.T) {
	repo := &fakeStore{user: &domain.UserAccount{Username: "admin"}}
	s := newTestScheduler(repo, &fakeSettingsSource{settings: testSettings()}, time.Date(2024, 1, 2, 4, 0, 0, 0, time.UTC))

	s.tick()
	s.tick()

	if len(repo.closings) != 1 {
		t.Fatalf("expected a single closing for the boundary, got %d", len(repo.closings))
	}
}

func TestTickSkipsWhenAutoCloseDisabled(t *testing.T) {
	settings := testSettings()
	settings.AutoCloseEnabled = false
	repo := &fakeStore{user: &domain.UserAccount{Username: "admin"}}
	s := newTestScheduler(repo, &fakeSettingsSource{settings: settings}, time.Date(2024, 1, 2, 4, 0, 0, 0, time.UTC))

	s.tick()

	if len(repo.closings) != 0 {
		t.Fatalf("expected no closing while auto close is disabled")
	}
}

func TestTickStaysIdleWithoutSettings(t *testing.T) {
	repo := &fakeStore{user: &domain.UserAccount{Username: "admin"}}
	s := newTestScheduler(repo, &fakeSettingsSource{err: store.ErrNotFound}, time.Date(2024, 1, 2, 4, 0, 0, 0, time.UTC))

	s.tick()

	if len(repo.closings) != 0 {
		t.Fatalf("expected no closing without configuration")
	}
}

func TestManualCloseTruncatesWindow(t *testing.T) {
	settings := testSettings()
	manual := time.Date(2024, 1, 2, 2, 0, 0, 0, time.UTC)
	settings.LastCloseAt = &manual

	repo := &fakeStore{user: &domain.UserAccount{Username: "admin"}}
	s := newTestScheduler(repo, &fakeSettingsSource{settings: settings}, time.Date(2024, 1, 2, 4, 0, 0, 0, time.UTC))

	s.tick()

	if len(repo.rangeFrom) != 1 {
		t.Fatalf("expected one range query, got %d", len(repo.rangeFrom))
	}
	if !repo.rangeFrom[0].Equal(manual) {
		t.Fatalf("expected window truncated to manual close %v, got %v", manual, repo.rangeFrom[0])
	}
}

func TestForceCloseRespectsGuard(t *testing.T) {
	repo := &fakeStore{user: &domain.UserAccount{Username: "admin"}}
	s := newTestScheduler(repo, &fakeSettingsSource{settings: testSettings()}, time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC))

	s.mu.Lock()
	s.closingInProgress = true
	s.mu.Unlock()

	if _, err := s.ForceClose(context.Background()); !errors.Is(err, ErrClosingInProgress) {
		t.Fatalf("expected ErrClosingInProgress, got %v", err)
	}
	if len(repo.closings) != 0 {
		t.Fatalf("expected the guard to block the close")
	}
}

func TestCloseFailureClearsGuard(t *testing.T) {
	repo := &fakeStore{
		user:      &domain.UserAccount{Username: "admin"},
		createErr: errors.New("db down"),
	}
	s := newTestScheduler(repo, &fakeSettingsSource{settings: testSettings()}, time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC))

	if _, err := s.ForceClose(context.Background()); err == nil {
		t.Fatalf("expected persistence error")
	}

	s.mu.Lock()
	busy := s.closingInProgress
	s.mu.Unlock()
	if busy {
		t.Fatalf("guard must be cleared on failure")
	}

	// A later manual close compensates; the failed one is not retried.
	repo.createErr = nil
	if _, err := s.ForceClose(context.Background()); err != nil {
		t.Fatalf("expected recovery after failure: %v", err)
	}
	if len(repo.closings) != 1 {
		t.Fatalf("expected exactly one closing, got %d", len(repo.closings))
	}
}

func TestStatusReportsNextScheduledClose(t *testing.T) {
	repo := &fakeStore{user: &domain.UserAccount{Username: "admin"}}
	now := time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC)
	s := newTestScheduler(repo, &fakeSettingsSource{settings: testSettings()}, now)

	status := s.Status(context.Background())

	if status.IsRunning {
		t.Fatalf("scheduler was never started")
	}
	if !status.AutoCloseEnabled || status.BusinessDayEndTime != "04:00" {
		t.Fatalf("unexpected settings fields: %+v", status)
	}
	want := time.Date(2024, 1, 3, 4, 0, 0, 0, time.UTC)
	if status.NextScheduledClose == nil || !status.NextScheduledClose.Equal(want) {
		t.Fatalf("expected next close %v, got %v", want, status.NextScheduledClose)
	}
}

func TestStartStop(t *testing.T) {
	repo := &fakeStore{user: &domain.UserAccount{Username: "admin"}}
	s := newTestScheduler(repo, &fakeSettingsSource{settings: testSettings()}, time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC))
	s.tickInterval = 5 * time.Millisecond

	s.Start()
	if !s.Status(context.Background()).IsRunning {
		t.Fatalf("expected running after start")
	}
	// Idempotent start must not spawn a second loop.
	s.Start()

	time.Sleep(20 * time.Millisecond)
	s.Stop()
	s.Stop()

	if s.Status(context.Background()).IsRunning {
		t.Fatalf("expected stopped after stop")
	}
}
