package settingscache

import (
	"context"
	"errors"
	"testing"
	"time"

	"kassenwerk/backend/internal/domain"
)

type fakeSource struct {
	calls    int
	settings *domain.Settings
	err      error
}

func (f *fakeSource) GetSettings(_ context.Context) (*domain.Settings, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.settings, nil
}

func TestGetCachesWithinTTL(t *testing.T) {
	source := &fakeSource{settings: &domain.Settings{BusinessDayEndTime: "04:00"}}
	cache := New(source, time.Minute)

	now := time.Date(2024, 1, 2, 3, 0, 0, 0, time.UTC)
	cache.clock = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		settings, err := cache.Get(context.Background())
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if settings.BusinessDayEndTime != "04:00" {
			t.Fatalf("unexpected snapshot %+v", settings)
		}
		now = now.Add(10 * time.Second)
	}

	if source.calls != 1 {
		t.Fatalf("expected a single source fetch within TTL, got %d", source.calls)
	}
}

func TestGetRefetchesAfterTTL(t *testing.T) {
	source := &fakeSource{settings: &domain.Settings{}}
	cache := New(source, time.Minute)

	now := time.Date(2024, 1, 2, 3, 0, 0, 0, time.UTC)
	cache.clock = func() time.Time { return now }

	if _, err := cache.Get(context.Background()); err != nil {
		t.Fatalf("get failed: %v", err)
	}
	now = now.Add(61 * time.Second)
	if _, err := cache.Get(context.Background()); err != nil {
		t.Fatalf("get failed: %v", err)
	}

	if source.calls != 2 {
		t.Fatalf("expected refetch after TTL, got %d calls", source.calls)
	}
}

func TestInvalidateForcesRefetch(t *testing.T) {
	source := &fakeSource{settings: &domain.Settings{AutoCloseEnabled: false}}
	cache := New(source, time.Minute)

	if _, err := cache.Get(context.Background()); err != nil {
		t.Fatalf("get failed: %v", err)
	}

	source.settings = &domain.Settings{AutoCloseEnabled: true}
	cache.Invalidate()

	settings, err := cache.Get(context.Background())
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !settings.AutoCloseEnabled {
		t.Fatalf("expected invalidate to surface the new snapshot immediately")
	}
	if source.calls != 2 {
		t.Fatalf("expected 2 fetches, got %d", source.calls)
	}
}

func TestGetDoesNotCacheErrors(t *testing.T) {
	source := &fakeSource{err: errors.New("store down")}
	cache := New(source, time.Minute)

	if _, err := cache.Get(context.Background()); err == nil {
		t.Fatalf("expected error from source")
	}

	source.err = nil
	source.settings = &domain.Settings{}
	if _, err := cache.Get(context.Background()); err != nil {
		t.Fatalf("expected recovery after source error: %v", err)
	}
	if source.calls != 2 {
		t.Fatalf("expected 2 fetches, got %d", source.calls)
	}
}
