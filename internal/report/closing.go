// Package report holds the pure aggregation paths: closing summaries,
// hour-bucketed sales series, and line-item breakdowns. Nothing in this
// package touches a store or shared state; callers pass in transactions
// already filtered to the range they care about.
package report

import (
	"fmt"

	"kassenwerk/backend/internal/domain"
)

// Summarize reduces a business day's transactions into a closing
// summary in a single pass. The caller is responsible for range
// filtering; every transaction passed in is counted exactly once, so
// the per-payment-method and per-till totals each sum to TotalSales.
// An empty input yields an all-zero summary with empty maps.
func Summarize(txs []domain.Transaction) domain.ClosingSummary {
	summary := domain.ClosingSummary{
		PaymentMethods: make(map[string]domain.PaymentMethodStats),
		Tills:          make(map[string]domain.TillStats),
	}

	for _, tx := range txs {
		summary.Transactions++
		summary.TotalSales = summary.TotalSales.Add(tx.Total)
		summary.TotalTax = summary.TotalTax.Add(tx.Tax)
		summary.TotalTips = summary.TotalTips.Add(tx.Tip)

		pm := summary.PaymentMethods[tx.PaymentMethod]
		pm.Count++
		pm.Total = pm.Total.Add(tx.Total)
		summary.PaymentMethods[tx.PaymentMethod] = pm

		key := fmt.Sprintf("%s-%s", tx.TillID, tx.TillName)
		till := summary.Tills[key]
		till.Transactions++
		till.Total = till.Total.Add(tx.Total)
		summary.Tills[key] = till
	}

	return summary
}
