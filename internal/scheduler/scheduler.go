// Package scheduler runs the automatic business-day close. A
// once-per-minute tick watches wall-clock time in the configured
// location and fires exactly once per boundary crossing; the same body
// backs the manual force-close path. All failures are terminal for the
// tick that saw them: the loop never crashes and never retries a missed
// close on its own.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"kassenwerk/backend/internal/businessday"
	"kassenwerk/backend/internal/domain"
	"kassenwerk/backend/internal/report"
	"kassenwerk/backend/internal/settingscache"
	"kassenwerk/backend/internal/store"
	"kassenwerk/backend/internal/xid"
)

var ErrClosingInProgress = errors.New("closing already in progress")

const (
	defaultTickInterval = time.Minute

	// closeDedupWindow suppresses a second trigger for the same minute
	// boundary, e.g. ticker jitter delivering two ticks in one minute.
	closeDedupWindow = 60 * time.Second

	closeTimeout = 30 * time.Second
)

// Store is the slice of the repository the scheduler needs.
type Store interface {
	FindTransactionsInRange(ctx context.Context, from time.Time, to time.Time) ([]domain.Transaction, error)
	CreateDailyClosing(ctx context.Context, closing domain.DailyClosing) (*domain.DailyClosing, error)
	SetLastCloseAt(ctx context.Context, at time.Time) error
	FindSystemUser(ctx context.Context) (*domain.UserAccount, error)
}

type AutoCloseScheduler struct {
	repo         Store
	settings     *settingscache.Cache
	location     *time.Location
	clock        func() time.Time
	tickInterval time.Duration

	mu                sync.Mutex
	running           bool
	closingInProgress bool
	lastCloseTime     *time.Time
	ticker            *time.Ticker
	stop              chan struct{}
	wg                sync.WaitGroup
}

func New(repo Store, settings *settingscache.Cache, location *time.Location) *AutoCloseScheduler {
	if location == nil {
		location = time.UTC
	}
	return &AutoCloseScheduler{
		repo:         repo,
		settings:     settings,
		location:     location,
		clock:        time.Now,
		tickInterval: defaultTickInterval,
	}
}

func (s *AutoCloseScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true
	s.stop = make(chan struct{})
	s.ticker = time.NewTicker(s.tickInterval)
	s.wg.Add(1)
	go s.run()

	log.Printf("[scheduler] started, checking every %v in %v", s.tickInterval, s.location)
}

// Stop prevents new ticks and waits for an in-flight close to finish.
func (s *AutoCloseScheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.ticker.Stop()
	close(s.stop)
	s.mu.Unlock()

	s.wg.Wait()
	log.Println("[scheduler] stopped")
}

func (s *AutoCloseScheduler) run() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ticker.C:
			s.tick()
		case <-s.stop:
			return
		}
	}
}

// tick is one scheduler pass: skip when busy or disabled, fire only on
// an exact hour:minute match with the configured close time, and
// deduplicate against a close completed within the last minute.
func (s *AutoCloseScheduler) tick() {
	s.mu.Lock()
	busy := s.closingInProgress
	last := s.lastCloseTime
	s.mu.Unlock()

	if busy {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	settings, err := s.settings.Get(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Println("[scheduler] no settings configured, staying idle")
		} else {
			log.Printf("[scheduler] settings unavailable: %v", err)
		}
		return
	}
	if !settings.AutoCloseEnabled {
		return
	}

	end, err := businessday.ParseTimeOfDay(settings.BusinessDayEndTime)
	if err != nil {
		log.Printf("[scheduler] invalid business day end time %q: %v", settings.BusinessDayEndTime, err)
		return
	}

	now := s.clock().In(s.location)
	if now.Hour() != end.Hour || now.Minute() != end.Minute {
		return
	}

	if last != nil && now.Sub(*last) < closeDedupWindow {
		return
	}

	if _, err := s.runClose(ctx, settings); err != nil && !errors.Is(err, ErrClosingInProgress) {
		log.Printf("[scheduler] automatic close failed: %v", err)
	}
}

// ForceClose triggers a manual close with the same body and the same
// in-progress guard as the automatic path. It returns the close time,
// or ErrClosingInProgress when a close is already running.
func (s *AutoCloseScheduler) ForceClose(ctx context.Context) (time.Time, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("load settings: %w", err)
	}

	closing, err := s.runClose(ctx, settings)
	if err != nil {
		return time.Time{}, err
	}
	return closing.ClosedAt, nil
}

// runClose performs one close under the in-progress guard. The guard is
// check-and-set under the mutex so a timer tick and a concurrent
// ForceClose cannot both enter; it is cleared on every path.
func (s *AutoCloseScheduler) runClose(ctx context.Context, settings *domain.Settings) (*domain.DailyClosing, error) {
	s.mu.Lock()
	if s.closingInProgress {
		s.mu.Unlock()
		return nil, ErrClosingInProgress
	}
	s.closingInProgress = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.closingInProgress = false
		s.mu.Unlock()
	}()

	cfg, err := businessday.ParseConfig(settings.AutoStartTime, settings.BusinessDayEndTime)
	if err != nil {
		return nil, fmt.Errorf("invalid business day configuration: %w", err)
	}

	now := s.clock().In(s.location)
	rng := businessday.ComputeJustEndedRange(now, cfg, settings.LastCloseAt)

	user, err := s.repo.FindSystemUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve closing user: %w", err)
	}

	txs, err := s.repo.FindTransactionsInRange(ctx, rng.Start, rng.End)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}

	summary := report.Summarize(txs)

	closing, err := s.repo.CreateDailyClosing(ctx, domain.DailyClosing{
		ID:       xid.New("close"),
		ClosedAt: now,
		Summary:  summary,
		UserID:   user.Username,
	})
	if err != nil {
		return nil, fmt.Errorf("persist closing: %w", err)
	}

	// The closing record exists at this point; a failed watermark write
	// only risks double-counting after a restart.
	if err := s.repo.SetLastCloseAt(ctx, now); err != nil {
		log.Printf("[scheduler] WARN: failed to advance close watermark: %v", err)
	}
	s.settings.Invalidate()

	closedAt := now
	s.mu.Lock()
	s.lastCloseTime = &closedAt
	s.mu.Unlock()

	log.Printf("[scheduler] closed business day %s - %s: %d transactions, %s total",
		rng.Start.Format(time.RFC3339), rng.End.Format(time.RFC3339),
		summary.Transactions, summary.TotalSales)

	return closing, nil
}

// Status reports the scheduler's process-local state plus the
// scheduling-relevant settings fields.
func (s *AutoCloseScheduler) Status(ctx context.Context) domain.SchedulerStatus {
	s.mu.Lock()
	status := domain.SchedulerStatus{
		IsRunning:           s.running,
		IsClosingInProgress: s.closingInProgress,
		LastCloseTime:       s.lastCloseTime,
	}
	s.mu.Unlock()

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return status
	}
	status.AutoCloseEnabled = settings.AutoCloseEnabled
	status.BusinessDayEndTime = settings.BusinessDayEndTime

	if settings.AutoCloseEnabled {
		if next, err := s.nextClose(settings.BusinessDayEndTime); err == nil {
			status.NextScheduledClose = &next
		}
	}
	return status
}

// nextClose resolves the next boundary via a daily cron schedule in the
// configured location, so daylight-saving transitions follow one zone
// instead of the server locale.
func (s *AutoCloseScheduler) nextClose(endTime string) (time.Time, error) {
	tod, err := businessday.ParseTimeOfDay(endTime)
	if err != nil {
		return time.Time{}, err
	}
	schedule, err := cron.ParseStandard(fmt.Sprintf("%d %d * * *", tod.Minute, tod.Hour))
	if err != nil {
		return time.Time{}, err
	}
	return schedule.Next(s.clock().In(s.location)), nil
}
