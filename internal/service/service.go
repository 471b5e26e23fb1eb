package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"kassenwerk/backend/internal/businessday"
	"kassenwerk/backend/internal/cache"
	"kassenwerk/backend/internal/domain"
	"kassenwerk/backend/internal/report"
	"kassenwerk/backend/internal/settingscache"
	"kassenwerk/backend/internal/store"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

const (
	defaultStartTime = "08:00"
	defaultEndTime   = "04:00"
)

type Service struct {
	repo      store.Repository
	settings  *settingscache.Cache
	reports   cache.ReportCache
	reportTTL time.Duration
	location  *time.Location
	clock     func() time.Time
}

func New(repo store.Repository, settings *settingscache.Cache, reports cache.ReportCache, location *time.Location, reportTTL time.Duration) *Service {
	if reports == nil {
		reports = cache.NoopReportCache{}
	}
	if location == nil {
		location = time.UTC
	}
	if reportTTL <= 0 {
		reportTTL = 30 * time.Second
	}

	return &Service{
		repo:      repo,
		settings:  settings,
		reports:   reports,
		reportTTL: reportTTL,
		location:  location,
		clock:     time.Now,
	}
}

func requireAdmin(ctx context.Context) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return fmt.Errorf("admin role required")
	}
	return nil
}

func (s *Service) ListRooms(ctx context.Context) ([]domain.Room, error) {
	return s.repo.ListRooms(ctx)
}

func (s *Service) CreateRoom(ctx context.Context, req domain.RoomCreateRequest) (domain.Room, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Room{}, err
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return domain.Room{}, store.ErrInvalidInput
	}

	created, err := s.repo.CreateRoom(ctx, domain.Room{
		Name:      req.Name,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		return domain.Room{}, err
	}
	return *created, nil
}

func (s *Service) UpdateRoom(ctx context.Context, id string, req domain.RoomUpdateRequest) (domain.Room, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Room{}, err
	}

	existing, err := s.repo.GetRoom(ctx, id)
	if err != nil {
		return domain.Room{}, err
	}

	updated := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Room{}, store.ErrInvalidInput
		}
		updated.Name = name
	}
	if req.SortOrder != nil {
		updated.SortOrder = *req.SortOrder
	}

	saved, err := s.repo.UpdateRoom(ctx, updated)
	if err != nil {
		return domain.Room{}, err
	}
	return *saved, nil
}

func (s *Service) DeleteRoom(ctx context.Context, id string) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	return s.repo.DeleteRoom(ctx, id)
}

func (s *Service) ListTables(ctx context.Context, roomID string) ([]domain.Table, error) {
	return s.repo.ListTables(ctx, roomID)
}

func (s *Service) CreateTable(ctx context.Context, req domain.TableCreateRequest) (domain.Table, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Table{}, err
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.RoomID == "" || req.Seats < 0 {
		return domain.Table{}, store.ErrInvalidInput
	}
	if _, err := s.repo.GetRoom(ctx, req.RoomID); err != nil {
		return domain.Table{}, err
	}

	created, err := s.repo.CreateTable(ctx, domain.Table{
		RoomID: req.RoomID,
		Name:   req.Name,
		Seats:  req.Seats,
		PosX:   req.PosX,
		PosY:   req.PosY,
	})
	if err != nil {
		return domain.Table{}, err
	}
	return *created, nil
}

func (s *Service) UpdateTable(ctx context.Context, id string, req domain.TableUpdateRequest) (domain.Table, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Table{}, err
	}

	existing, err := s.repo.GetTable(ctx, id)
	if err != nil {
		return domain.Table{}, err
	}

	updated := *existing
	if req.RoomID != nil {
		if _, err := s.repo.GetRoom(ctx, *req.RoomID); err != nil {
			return domain.Table{}, err
		}
		updated.RoomID = *req.RoomID
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Table{}, store.ErrInvalidInput
		}
		updated.Name = name
	}
	if req.Seats != nil {
		if *req.Seats < 0 {
			return domain.Table{}, store.ErrInvalidInput
		}
		updated.Seats = *req.Seats
	}
	if req.PosX != nil {
		updated.PosX = *req.PosX
	}
	if req.PosY != nil {
		updated.PosY = *req.PosY
	}

	saved, err := s.repo.UpdateTable(ctx, updated)
	if err != nil {
		return domain.Table{}, err
	}
	return *saved, nil
}

func (s *Service) DeleteTable(ctx context.Context, id string) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	return s.repo.DeleteTable(ctx, id)
}

func (s *Service) ListProducts(ctx context.Context, includeInactive bool) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx, includeInactive)
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Product{}, err
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)
	if req.Name == "" {
		return domain.Product{}, store.ErrInvalidInput
	}

	created, err := s.repo.CreateProduct(ctx, domain.Product{
		Name:     req.Name,
		Category: req.Category,
		Price:    req.Price,
		TaxRate:  req.TaxRate,
		Color:    req.Color,
		Active:   true,
	})
	if err != nil {
		return domain.Product{}, err
	}
	return *created, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (domain.Product, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Product{}, err
	}

	existing, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}

	updated := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Product{}, store.ErrInvalidInput
		}
		updated.Name = name
	}
	if req.Category != nil {
		updated.Category = strings.TrimSpace(*req.Category)
	}
	if req.Price != nil {
		updated.Price = *req.Price
	}
	if req.TaxRate != nil {
		updated.TaxRate = *req.TaxRate
	}
	if req.Color != nil {
		updated.Color = *req.Color
	}
	if req.Active != nil {
		updated.Active = *req.Active
	}

	saved, err := s.repo.UpdateProduct(ctx, updated)
	if err != nil {
		return domain.Product{}, err
	}
	return *saved, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	return s.repo.DeleteProduct(ctx, id)
}

func (s *Service) ListTills(ctx context.Context) ([]domain.Till, error) {
	return s.repo.ListTills(ctx)
}

func (s *Service) CreateTill(ctx context.Context, req domain.TillCreateRequest) (domain.Till, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Till{}, err
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return domain.Till{}, store.ErrInvalidInput
	}

	created, err := s.repo.CreateTill(ctx, domain.Till{Name: req.Name, Active: true})
	if err != nil {
		return domain.Till{}, err
	}
	return *created, nil
}

func (s *Service) UpdateTill(ctx context.Context, id string, req domain.TillUpdateRequest) (domain.Till, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Till{}, err
	}

	existing, err := s.repo.GetTill(ctx, id)
	if err != nil {
		return domain.Till{}, err
	}

	updated := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Till{}, store.ErrInvalidInput
		}
		updated.Name = name
	}
	if req.Active != nil {
		updated.Active = *req.Active
	}

	saved, err := s.repo.UpdateTill(ctx, updated)
	if err != nil {
		return domain.Till{}, err
	}
	return *saved, nil
}

func (s *Service) DeleteTill(ctx context.Context, id string) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	return s.repo.DeleteTill(ctx, id)
}

func (s *Service) ListGridLayouts(ctx context.Context, tillID string) ([]domain.GridLayout, error) {
	return s.repo.ListGridLayouts(ctx, tillID)
}

func (s *Service) GetGridLayout(ctx context.Context, id string) (domain.GridLayout, error) {
	layout, err := s.repo.GetGridLayout(ctx, id)
	if err != nil {
		return domain.GridLayout{}, err
	}
	return *layout, nil
}

func (s *Service) SaveGridLayout(ctx context.Context, req domain.GridLayoutSaveRequest) (domain.GridLayout, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.GridLayout{}, err
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.TillID == "" || req.Name == "" || req.Rows < 1 || req.Cols < 1 {
		return domain.GridLayout{}, store.ErrInvalidInput
	}
	if _, err := s.repo.GetTill(ctx, req.TillID); err != nil {
		return domain.GridLayout{}, err
	}

	saved, err := s.repo.SaveGridLayout(ctx, domain.GridLayout{
		TillID: req.TillID,
		Name:   req.Name,
		Rows:   req.Rows,
		Cols:   req.Cols,
		Cells:  req.Cells,
	})
	if err != nil {
		return domain.GridLayout{}, err
	}
	return *saved, nil
}

func (s *Service) DeleteGridLayout(ctx context.Context, id string) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	return s.repo.DeleteGridLayout(ctx, id)
}

func (s *Service) CreateTransaction(ctx context.Context, req domain.TransactionCreateRequest) (domain.Transaction, error) {
	if req.PaymentMethod != domain.PaymentCash && req.PaymentMethod != domain.PaymentCard {
		return domain.Transaction{}, store.ErrInvalidInput
	}
	if req.TillID == "" {
		return domain.Transaction{}, store.ErrInvalidInput
	}
	if req.Total.IsNegative() || req.Tax.IsNegative() || req.Tip.IsNegative() {
		return domain.Transaction{}, store.ErrInvalidInput
	}

	tillName := strings.TrimSpace(req.TillName)
	if tillName == "" {
		till, err := s.repo.GetTill(ctx, req.TillID)
		if err != nil {
			return domain.Transaction{}, err
		}
		tillName = till.Name
	}

	actor, _ := ActorFromContext(ctx)

	tx := domain.Transaction{
		CreatedAt:     s.clock().In(s.location),
		Total:         req.Total,
		Tax:           req.Tax,
		Tip:           req.Tip,
		PaymentMethod: req.PaymentMethod,
		TillID:        req.TillID,
		TillName:      tillName,
		UserID:        actor.Username,
	}
	if len(req.Items) > 0 {
		tx.Items = req.Items
	}

	created, err := s.repo.CreateTransaction(ctx, tx)
	if err != nil {
		return domain.Transaction{}, err
	}
	return *created, nil
}

func (s *Service) ListTransactions(ctx context.Context, limit int) ([]domain.Transaction, error) {
	if limit < 1 {
		limit = 100
	}
	return s.repo.ListTransactions(ctx, limit)
}

func (s *Service) GetSettings(ctx context.Context) (domain.Settings, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return domain.Settings{}, err
	}
	return *settings, nil
}

func (s *Service) UpdateSettings(ctx context.Context, req domain.SettingsUpdateRequest) (domain.Settings, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Settings{}, err
	}

	current, err := s.repo.GetSettings(ctx)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return domain.Settings{}, err
		}
		current = &domain.Settings{
			TaxMode:            domain.TaxModeGross,
			AutoStartTime:      defaultStartTime,
			BusinessDayEndTime: defaultEndTime,
		}
	}

	updated := *current
	if req.TaxMode != nil {
		mode := strings.TrimSpace(*req.TaxMode)
		if mode != domain.TaxModeGross && mode != domain.TaxModeNet {
			return domain.Settings{}, store.ErrInvalidInput
		}
		updated.TaxMode = mode
	}
	if req.AutoCloseEnabled != nil {
		updated.AutoCloseEnabled = *req.AutoCloseEnabled
	}
	if req.AutoStartTime != nil {
		if _, err := businessday.ParseTimeOfDay(*req.AutoStartTime); err != nil {
			return domain.Settings{}, fmt.Errorf("%w: %v", store.ErrInvalidInput, err)
		}
		updated.AutoStartTime = *req.AutoStartTime
	}
	if req.BusinessDayEndTime != nil {
		if _, err := businessday.ParseTimeOfDay(*req.BusinessDayEndTime); err != nil {
			return domain.Settings{}, fmt.Errorf("%w: %v", store.ErrInvalidInput, err)
		}
		updated.BusinessDayEndTime = *req.BusinessDayEndTime
	}

	saved, err := s.repo.UpdateSettings(ctx, updated)
	if err != nil {
		return domain.Settings{}, err
	}

	// Stale business-day config must not linger; the scheduler reads
	// through this cache on its next tick.
	s.settings.Invalidate()

	actor, _ := ActorFromContext(ctx)
	log.Printf("[service] settings updated by=%s auto_close=%t end=%s", actor.Username, saved.AutoCloseEnabled, saved.BusinessDayEndTime)

	return *saved, nil
}

func (s *Service) ClearSettingsCache(ctx context.Context) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	s.settings.Invalidate()
	return nil
}

// businessConfig resolves the active business-day window, falling back
// to defaults when no settings row exists yet.
func (s *Service) businessConfig(ctx context.Context) (businessday.Config, *domain.Settings, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return businessday.Config{}, nil, err
		}
		settings = &domain.Settings{
			TaxMode:            domain.TaxModeGross,
			AutoStartTime:      defaultStartTime,
			BusinessDayEndTime: defaultEndTime,
		}
	}

	cfg, err := businessday.ParseConfig(settings.AutoStartTime, settings.BusinessDayEndTime)
	if err != nil {
		return businessday.Config{}, nil, fmt.Errorf("business day config: %w", err)
	}
	return cfg, settings, nil
}

// ClosingPreview summarizes the business day currently in progress
// without persisting anything.
func (s *Service) ClosingPreview(ctx context.Context) (domain.ClosingSummary, error) {
	cfg, _, err := s.businessConfig(ctx)
	if err != nil {
		return domain.ClosingSummary{}, err
	}

	rng := businessday.ComputeRange(s.clock().In(s.location), cfg)
	txs, err := s.repo.FindTransactionsInRange(ctx, rng.Start, rng.End)
	if err != nil {
		return domain.ClosingSummary{}, err
	}
	return report.Summarize(txs), nil
}

// rangeForDate anchors the business day on the given calendar date: the
// window opens at the configured start time on that date.
func (s *Service) rangeForDate(date time.Time, cfg businessday.Config) businessday.Range {
	ref := time.Date(date.Year(), date.Month(), date.Day(), cfg.Start.Hour, cfg.Start.Minute, 0, 0, s.location)
	return businessday.ComputeRange(ref, cfg)
}

func (s *Service) resolveDate(date string) (time.Time, error) {
	if strings.TrimSpace(date) == "" {
		return s.clock().In(s.location), nil
	}
	parsed, err := time.ParseInLocation("2006-01-02", date, s.location)
	if err != nil {
		return time.Time{}, store.ErrInvalidInput
	}
	return parsed, nil
}

func (s *Service) HourlySales(ctx context.Context, date string) (domain.HourlySalesResult, error) {
	day, err := s.resolveDate(date)
	if err != nil {
		return domain.HourlySalesResult{}, err
	}

	cfg, _, err := s.businessConfig(ctx)
	if err != nil {
		return domain.HourlySalesResult{}, err
	}
	return s.hourlyForDay(ctx, day, cfg)
}

func (s *Service) hourlyForDay(ctx context.Context, day time.Time, cfg businessday.Config) (domain.HourlySalesResult, error) {
	key := "hourly:" + day.Format("2006-01-02")
	if cached, ok, err := s.reports.Get(ctx, key); err != nil {
		log.Printf("[service] WARN: report cache read key=%s: %v", key, err)
	} else if ok {
		return *cached, nil
	}

	rng := s.rangeForDate(day, cfg)
	txs, err := s.repo.FindTransactionsInRange(ctx, rng.Start, rng.End)
	if err != nil {
		return domain.HourlySalesResult{}, err
	}

	result := report.AggregateHourly(txs, rng, cfg.Start.Hour)
	if err := s.reports.Set(ctx, key, &result, s.reportTTL); err != nil {
		log.Printf("[service] WARN: report cache write key=%s: %v", key, err)
	}
	return result, nil
}

func (s *Service) HourlyComparison(ctx context.Context, date string) (domain.HourlyComparison, error) {
	day, err := s.resolveDate(date)
	if err != nil {
		return domain.HourlyComparison{}, err
	}

	cfg, _, err := s.businessConfig(ctx)
	if err != nil {
		return domain.HourlyComparison{}, err
	}

	current, err := s.hourlyForDay(ctx, day, cfg)
	if err != nil {
		return domain.HourlyComparison{}, err
	}
	previous, err := s.hourlyForDay(ctx, day.AddDate(0, 0, -1), cfg)
	if err != nil {
		return domain.HourlyComparison{}, err
	}

	return report.Compare(current, previous), nil
}

func (s *Service) ProductSalesReport(ctx context.Context, date string) ([]domain.ProductSales, error) {
	day, err := s.resolveDate(date)
	if err != nil {
		return nil, err
	}

	cfg, _, err := s.businessConfig(ctx)
	if err != nil {
		return nil, err
	}

	rng := s.rangeForDate(day, cfg)
	txs, err := s.repo.FindTransactionsInRange(ctx, rng.Start, rng.End)
	if err != nil {
		return nil, err
	}
	return report.ProductBreakdown(txs), nil
}

func (s *Service) ListDailyClosings(ctx context.Context, limit int) ([]domain.DailyClosing, error) {
	if limit < 1 {
		limit = 50
	}
	return s.repo.ListDailyClosings(ctx, limit)
}

func (s *Service) GetDailyClosing(ctx context.Context, id string) (domain.DailyClosing, error) {
	closing, err := s.repo.GetDailyClosing(ctx, id)
	if err != nil {
		return domain.DailyClosing{}, err
	}
	return *closing, nil
}
