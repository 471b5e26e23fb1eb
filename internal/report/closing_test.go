package report

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"kassenwerk/backend/internal/domain"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestSummarizeEmpty(t *testing.T) {
	summary := Summarize(nil)

	if summary.Transactions != 0 {
		t.Fatalf("expected 0 transactions, got %d", summary.Transactions)
	}
	if !summary.TotalSales.IsZero() || !summary.TotalTax.IsZero() || !summary.TotalTips.IsZero() {
		t.Fatalf("expected zero totals, got %v/%v/%v", summary.TotalSales, summary.TotalTax, summary.TotalTips)
	}
	if summary.PaymentMethods == nil || len(summary.PaymentMethods) != 0 {
		t.Fatalf("expected empty payment method map")
	}
	if summary.Tills == nil || len(summary.Tills) != 0 {
		t.Fatalf("expected empty till map")
	}
}

func TestSummarizeSingleCashTransaction(t *testing.T) {
	summary := Summarize([]domain.Transaction{
		{
			Total:         dec("20"),
			Tax:           dec("3.8"),
			Tip:           dec("0"),
			PaymentMethod: "cash",
			TillID:        "1",
			TillName:      "Till 1",
		},
	})

	if summary.Transactions != 1 {
		t.Fatalf("expected 1 transaction, got %d", summary.Transactions)
	}
	if !summary.TotalSales.Equal(dec("20")) {
		t.Fatalf("expected total sales 20, got %v", summary.TotalSales)
	}
	if !summary.TotalTax.Equal(dec("3.8")) {
		t.Fatalf("expected total tax 3.8, got %v", summary.TotalTax)
	}
	if !summary.TotalTips.IsZero() {
		t.Fatalf("expected zero tips, got %v", summary.TotalTips)
	}

	cash, ok := summary.PaymentMethods["cash"]
	if !ok || cash.Count != 1 || !cash.Total.Equal(dec("20")) {
		t.Fatalf("unexpected cash bucket: %+v", cash)
	}
	till, ok := summary.Tills["1-Till 1"]
	if !ok || till.Transactions != 1 || !till.Total.Equal(dec("20")) {
		t.Fatalf("unexpected till bucket: %+v", till)
	}
}

func TestSummarizeBreakdownsSumToTotal(t *testing.T) {
	base := time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC)
	txs := []domain.Transaction{
		{Total: dec("12.50"), Tax: dec("2.00"), Tip: dec("1.00"), PaymentMethod: "cash", TillID: "1", TillName: "Bar", CreatedAt: base},
		{Total: dec("33.10"), Tax: dec("5.28"), Tip: dec("0"), PaymentMethod: "card", TillID: "1", TillName: "Bar", CreatedAt: base.Add(time.Hour)},
		{Total: dec("7.40"), Tax: dec("1.18"), Tip: dec("0.60"), PaymentMethod: "cash", TillID: "2", TillName: "Terrace", CreatedAt: base.Add(2 * time.Hour)},
		{Total: dec("0"), Tax: dec("0"), Tip: dec("0"), PaymentMethod: "voucher", TillID: "2", TillName: "Terrace", CreatedAt: base.Add(3 * time.Hour)},
	}

	summary := Summarize(txs)

	if summary.Transactions != len(txs) {
		t.Fatalf("expected %d transactions, got %d", len(txs), summary.Transactions)
	}

	var byPayment, byTill decimal.Decimal
	for _, pm := range summary.PaymentMethods {
		byPayment = byPayment.Add(pm.Total)
	}
	for _, till := range summary.Tills {
		byTill = byTill.Add(till.Total)
	}

	if !byPayment.Equal(summary.TotalSales) {
		t.Fatalf("payment methods sum %v != total sales %v", byPayment, summary.TotalSales)
	}
	if !byTill.Equal(summary.TotalSales) {
		t.Fatalf("tills sum %v != total sales %v", byTill, summary.TotalSales)
	}
	if !summary.TotalSales.Equal(dec("53.00")) {
		t.Fatalf("expected total sales 53.00, got %v", summary.TotalSales)
	}
}
