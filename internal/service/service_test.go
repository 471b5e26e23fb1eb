package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"kassenwerk/backend/internal/domain"
	"kassenwerk/backend/internal/settingscache"
	"kassenwerk/backend/internal/store"
	"kassenwerk/backend/internal/store/memory"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", s, err)
	}
	return d
}

func adminCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{Username: "admin", Role: domain.RoleAdmin})
}

func waiterCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{Username: "waiter", Role: domain.RoleWaiter})
}

type fakeReportCache struct {
	entries map[string]*domain.HourlySalesResult
	sets    int
}

func newFakeReportCache() *fakeReportCache {
	return &fakeReportCache{entries: make(map[string]*domain.HourlySalesResult)}
}

func (f *fakeReportCache) Get(_ context.Context, key string) (*domain.HourlySalesResult, bool, error) {
	v, ok := f.entries[key]
	return v, ok, nil
}

func (f *fakeReportCache) Set(_ context.Context, key string, value *domain.HourlySalesResult, _ time.Duration) error {
	f.entries[key] = value
	f.sets++
	return nil
}

func newTestService(t *testing.T) (*Service, *memory.Store, *fakeReportCache) {
	t.Helper()
	repo := memory.NewSeeded()
	reports := newFakeReportCache()
	svc := New(repo, settingscache.New(repo, time.Minute), reports, time.UTC, time.Minute)
	return svc, repo, reports
}

func seedTransaction(t *testing.T, repo *memory.Store, at time.Time, total string, method string, tillID string, items any) domain.Transaction {
	t.Helper()
	tx, err := repo.CreateTransaction(context.Background(), domain.Transaction{
		CreatedAt:     at,
		Total:         dec(t, total),
		Tax:           decimal.Zero,
		Tip:           decimal.Zero,
		PaymentMethod: method,
		TillID:        tillID,
		TillName:      "Theke",
		Items:         items,
	})
	if err != nil {
		t.Fatalf("seed transaction: %v", err)
	}
	return *tx
}

func TestCreateRoomRequiresAdmin(t *testing.T) {
	svc, _, _ := newTestService(t)

	if _, err := svc.CreateRoom(waiterCtx(), domain.RoomCreateRequest{Name: "Biergarten"}); err == nil {
		t.Fatalf("expected waiter room creation to fail")
	}
	if _, err := svc.CreateRoom(adminCtx(), domain.RoomCreateRequest{Name: "Biergarten"}); err != nil {
		t.Fatalf("admin room creation failed: %v", err)
	}
}

func TestDeleteRoomCascadesTables(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := adminCtx()

	room, err := svc.CreateRoom(ctx, domain.RoomCreateRequest{Name: "Saal"})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	if _, err := svc.CreateTable(ctx, domain.TableCreateRequest{RoomID: room.ID, Name: "Tisch 9", Seats: 4}); err != nil {
		t.Fatalf("create table: %v", err)
	}

	if err := svc.DeleteRoom(ctx, room.ID); err != nil {
		t.Fatalf("delete room: %v", err)
	}

	tables, err := svc.ListTables(ctx, room.ID)
	if err != nil {
		t.Fatalf("list tables: %v", err)
	}
	if len(tables) != 0 {
		t.Fatalf("expected tables to be removed with room, got %d", len(tables))
	}
}

func TestCreateTransactionResolvesTillName(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := waiterCtx()

	tills, err := svc.ListTills(ctx)
	if err != nil || len(tills) == 0 {
		t.Fatalf("expected seeded tills, err=%v", err)
	}

	tx, err := svc.CreateTransaction(ctx, domain.TransactionCreateRequest{
		Total:         dec(t, "12.50"),
		Tax:           dec(t, "2.00"),
		Tip:           decimal.Zero,
		PaymentMethod: domain.PaymentCash,
		TillID:        tills[0].ID,
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	if tx.TillName != tills[0].Name {
		t.Fatalf("expected till name %q, got %q", tills[0].Name, tx.TillName)
	}
	if tx.UserID != "waiter" {
		t.Fatalf("expected transaction attributed to waiter, got %q", tx.UserID)
	}
}

func TestCreateTransactionRejectsUnknownPaymentMethod(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.CreateTransaction(waiterCtx(), domain.TransactionCreateRequest{
		Total:         dec(t, "5.00"),
		PaymentMethod: "voucher",
		TillID:        "till-1",
	})
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestUpdateSettingsInvalidatesCache(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := adminCtx()

	before, err := svc.GetSettings(ctx)
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if before.BusinessDayEndTime != "04:00" {
		t.Fatalf("unexpected seeded end time %q", before.BusinessDayEndTime)
	}

	end := "05:00"
	if _, err := svc.UpdateSettings(ctx, domain.SettingsUpdateRequest{BusinessDayEndTime: &end}); err != nil {
		t.Fatalf("update settings: %v", err)
	}

	// The cached snapshot must not survive the mutation; no TTL wait.
	after, err := svc.GetSettings(ctx)
	if err != nil {
		t.Fatalf("get settings after update: %v", err)
	}
	if after.BusinessDayEndTime != "05:00" {
		t.Fatalf("expected updated end time visible immediately, got %q", after.BusinessDayEndTime)
	}
}

func TestUpdateSettingsRejectsMalformedTime(t *testing.T) {
	svc, _, _ := newTestService(t)

	for _, bad := range []string{"25:00", "04:60", "0400", "abc"} {
		value := bad
		_, err := svc.UpdateSettings(adminCtx(), domain.SettingsUpdateRequest{BusinessDayEndTime: &value})
		if !errors.Is(err, store.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput for %q, got %v", bad, err)
		}
	}
}

func TestUpdateSettingsRequiresAdmin(t *testing.T) {
	svc, _, _ := newTestService(t)

	enabled := true
	if _, err := svc.UpdateSettings(waiterCtx(), domain.SettingsUpdateRequest{AutoCloseEnabled: &enabled}); err == nil {
		t.Fatalf("expected waiter settings update to fail")
	}
}

func TestClosingPreviewCoversCurrentBusinessDay(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := waiterCtx()

	// Seeded window is 08:00 -> 04:00 next day. Freeze the clock at noon.
	now := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	svc.clock = func() time.Time { return now }

	inside := time.Date(2024, 3, 5, 11, 30, 0, 0, time.UTC)
	alsoInside := time.Date(2024, 3, 6, 1, 15, 0, 0, time.UTC)
	outside := time.Date(2024, 3, 5, 6, 0, 0, 0, time.UTC)

	seedTransaction(t, repo, inside, "10.00", domain.PaymentCash, "till-1", nil)
	seedTransaction(t, repo, alsoInside, "15.00", domain.PaymentCard, "till-1", nil)
	seedTransaction(t, repo, outside, "99.00", domain.PaymentCash, "till-1", nil)

	summary, err := svc.ClosingPreview(ctx)
	if err != nil {
		t.Fatalf("closing preview: %v", err)
	}
	if summary.Transactions != 2 {
		t.Fatalf("expected 2 transactions in window, got %d", summary.Transactions)
	}
	if !summary.TotalSales.Equal(dec(t, "25.00")) {
		t.Fatalf("expected total 25.00, got %s", summary.TotalSales)
	}
}

func TestHourlySalesUsesReportCache(t *testing.T) {
	svc, repo, reports := newTestService(t)
	ctx := waiterCtx()

	now := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	svc.clock = func() time.Time { return now }

	seedTransaction(t, repo, time.Date(2024, 3, 5, 9, 10, 0, 0, time.UTC), "8.00", domain.PaymentCash, "till-1", nil)

	first, err := svc.HourlySales(ctx, "2024-03-05")
	if err != nil {
		t.Fatalf("hourly sales: %v", err)
	}
	if first.TotalTransactions != 1 {
		t.Fatalf("expected 1 transaction, got %d", first.TotalTransactions)
	}
	if reports.sets != 1 {
		t.Fatalf("expected one cache write, got %d", reports.sets)
	}

	// A transaction added after the cached computation must not appear
	// until the cache entry expires.
	seedTransaction(t, repo, time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC), "4.00", domain.PaymentCash, "till-1", nil)

	second, err := svc.HourlySales(ctx, "2024-03-05")
	if err != nil {
		t.Fatalf("hourly sales (cached): %v", err)
	}
	if second.TotalTransactions != 1 {
		t.Fatalf("expected cached result, got %d transactions", second.TotalTransactions)
	}
	if reports.sets != 1 {
		t.Fatalf("expected no second cache write, got %d", reports.sets)
	}
}

func TestHourlySalesRejectsMalformedDate(t *testing.T) {
	svc, _, _ := newTestService(t)

	if _, err := svc.HourlySales(waiterCtx(), "05.03.2024"); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestHourlyComparisonAcrossDays(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := waiterCtx()

	seedTransaction(t, repo, time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC), "10.00", domain.PaymentCash, "till-1", nil)
	seedTransaction(t, repo, time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC), "15.00", domain.PaymentCash, "till-1", nil)

	comparison, err := svc.HourlyComparison(ctx, "2024-03-05")
	if err != nil {
		t.Fatalf("hourly comparison: %v", err)
	}
	if !comparison.TotalDifference.Equal(dec(t, "5.00")) {
		t.Fatalf("expected total difference 5.00, got %s", comparison.TotalDifference)
	}
	if comparison.TotalPercentChange != 50 {
		t.Fatalf("expected 50%% change, got %v", comparison.TotalPercentChange)
	}
}

func TestProductSalesReportAggregatesItems(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := waiterCtx()

	items := []domain.TransactionItem{
		{ProductID: "prod-helles", Quantity: 2, Price: dec(t, "4.20")},
		{ProductID: "prod-brezn", Quantity: 1, Price: dec(t, "2.50")},
	}
	seedTransaction(t, repo, time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC), "10.90", domain.PaymentCash, "till-1", items)
	// JSON-string items, as the postgres driver produces.
	seedTransaction(t, repo, time.Date(2024, 3, 5, 13, 0, 0, 0, time.UTC), "4.20", domain.PaymentCash, "till-1",
		`[{"productId":"prod-helles","quantity":1,"price":"4.20"}]`)

	sales, err := svc.ProductSalesReport(ctx, "2024-03-05")
	if err != nil {
		t.Fatalf("product sales: %v", err)
	}
	if len(sales) != 2 {
		t.Fatalf("expected 2 products, got %d", len(sales))
	}
	if sales[0].ProductID != "prod-helles" || sales[0].Quantity != 3 {
		t.Fatalf("expected prod-helles x3 first, got %+v", sales[0])
	}
	if !sales[0].Revenue.Equal(dec(t, "12.60")) {
		t.Fatalf("expected revenue 12.60, got %s", sales[0].Revenue)
	}
}

func TestGetDailyClosingNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	if _, err := svc.GetDailyClosing(waiterCtx(), "close-missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
