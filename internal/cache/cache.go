package cache

import (
	"context"
	"time"

	"kassenwerk/backend/internal/domain"
)

// ReportCache holds computed hourly sales series under a short TTL so
// dashboards polling the same day do not re-aggregate on every request.
type ReportCache interface {
	Get(ctx context.Context, key string) (*domain.HourlySalesResult, bool, error)
	Set(ctx context.Context, key string, value *domain.HourlySalesResult, ttl time.Duration) error
}

type NoopReportCache struct{}

func (NoopReportCache) Get(_ context.Context, _ string) (*domain.HourlySalesResult, bool, error) {
	return nil, false, nil
}

func (NoopReportCache) Set(_ context.Context, _ string, _ *domain.HourlySalesResult, _ time.Duration) error {
	return nil
}
