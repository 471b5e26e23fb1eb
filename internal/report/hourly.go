package report

import (
	"github.com/shopspring/decimal"

	"kassenwerk/backend/internal/businessday"
	"kassenwerk/backend/internal/domain"
)

// AggregateHourly buckets transactions into fixed-width hour-of-day
// buckets aligned to startHour, wrapping at 24 for overnight days. The
// bucket count equals the range length in whole hours, so callers must
// use hour-aligned boundaries here even though businessday itself
// supports minute granularity. Transaction hours are read in the
// range's location.
func AggregateHourly(txs []domain.Transaction, rng businessday.Range, startHour int) domain.HourlySalesResult {
	count := rng.Hours()
	if count <= 0 {
		return domain.HourlySalesResult{StartHour: startHour, Buckets: []domain.HourlyBucket{}}
	}

	loc := rng.Start.Location()
	buckets := make([]domain.HourlyBucket, count)
	for i := range buckets {
		buckets[i].Hour = (startHour + i) % 24
	}

	for _, tx := range txs {
		hour := tx.CreatedAt.In(loc).Hour()
		idx := (hour - startHour + 24) % 24
		if idx >= count {
			continue
		}
		buckets[idx].Transactions++
		buckets[idx].Total = buckets[idx].Total.Add(tx.Total)
	}

	result := domain.HourlySalesResult{
		StartHour: startHour,
		Buckets:   buckets,
	}

	peak := 0
	for i, b := range buckets {
		result.TotalSales = result.TotalSales.Add(b.Total)
		result.TotalTransactions += b.Transactions
		// Ties resolve to the earliest-iterated bucket.
		if b.Total.GreaterThan(buckets[peak].Total) {
			peak = i
		}
	}
	result.PeakHour = buckets[peak].Hour
	result.PeakHourTotal = buckets[peak].Total
	result.AverageHourly = result.TotalSales.Div(decimal.NewFromInt(int64(count)))

	return result
}

// Compare pairs the buckets of two hourly series positionally. Both
// series must have been built with the same start hour and length for
// the pairing to be meaningful.
func Compare(current, previous domain.HourlySalesResult) domain.HourlyComparison {
	n := len(current.Buckets)
	if len(previous.Buckets) < n {
		n = len(previous.Buckets)
	}

	cmp := domain.HourlyComparison{
		Hours: make([]domain.HourlyComparisonEntry, 0, n),
	}
	for i := 0; i < n; i++ {
		cur := current.Buckets[i]
		prev := previous.Buckets[i]
		cmp.Hours = append(cmp.Hours, domain.HourlyComparisonEntry{
			Hour:          cur.Hour,
			Total:         cur.Total,
			PreviousTotal: prev.Total,
			Difference:    cur.Total.Sub(prev.Total),
			PercentChange: percentChange(cur.Total, prev.Total),
		})
	}

	cmp.TotalDifference = current.TotalSales.Sub(previous.TotalSales)
	cmp.TotalPercentChange = percentChange(current.TotalSales, previous.TotalSales)

	return cmp
}

// percentChange is (current-previous)/previous*100 when previous is
// positive. A change from zero to nonzero reports 100 rather than
// dividing by zero; zero to zero reports 0.
func percentChange(current, previous decimal.Decimal) float64 {
	if previous.IsPositive() {
		change, _ := current.Sub(previous).
			Div(previous).
			Mul(decimal.NewFromInt(100)).
			Float64()
		return change
	}
	if current.IsPositive() {
		return 100
	}
	return 0
}
