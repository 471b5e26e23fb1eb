package report

import (
	"encoding/json"
	"testing"

	"kassenwerk/backend/internal/domain"
)

func TestNormalizeItemsShapes(t *testing.T) {
	want := []domain.TransactionItem{
		{ProductID: "p1", Quantity: 2, Price: dec("4.50")},
	}
	encoded := `[{"productId":"p1","quantity":2,"price":"4.50"}]`

	cases := []struct {
		name string
		raw  any
	}{
		{"materialized", want},
		{"json string", encoded},
		{"json bytes", []byte(encoded)},
		{"raw message", json.RawMessage(encoded)},
		{"decoded slice", []any{map[string]any{"productId": "p1", "quantity": 2, "price": 4.5}}},
	}

	for _, c := range cases {
		items, ok := NormalizeItems(c.raw)
		if !ok {
			t.Fatalf("%s: expected ok", c.name)
		}
		if len(items) != 1 {
			t.Fatalf("%s: expected 1 item, got %d", c.name, len(items))
		}
		if items[0].ProductID != "p1" || items[0].Quantity != 2 {
			t.Fatalf("%s: unexpected item %+v", c.name, items[0])
		}
		if !items[0].Price.Equal(want[0].Price) {
			t.Fatalf("%s: expected price 4.50, got %v", c.name, items[0].Price)
		}
	}
}

func TestNormalizeItemsEmptyAndNull(t *testing.T) {
	for _, raw := range []any{nil, "", "null", []byte(nil), json.RawMessage("null")} {
		items, ok := NormalizeItems(raw)
		if !ok {
			t.Fatalf("expected empty payload %v to normalize", raw)
		}
		if len(items) != 0 {
			t.Fatalf("expected no items, got %d", len(items))
		}
	}
}

func TestNormalizeItemsMalformed(t *testing.T) {
	for _, raw := range []any{"{broken", []byte(`{"not":"an array"}`), "42"} {
		if _, ok := NormalizeItems(raw); ok {
			t.Fatalf("expected %v to be rejected", raw)
		}
	}
}

func TestProductBreakdownSkipsMalformed(t *testing.T) {
	txs := []domain.Transaction{
		{Total: dec("9.00"), Items: `[{"productId":"p1","quantity":1,"price":"9.00"}]`},
		{Total: dec("5.00"), Items: "{definitely not json"},
		{Total: dec("18.00"), Items: []domain.TransactionItem{
			{ProductID: "p1", Quantity: 1, Price: dec("9.00")},
			{ProductID: "p2", Quantity: 3, Price: dec("3.00")},
		}},
	}

	breakdown := ProductBreakdown(txs)

	if len(breakdown) != 2 {
		t.Fatalf("expected 2 products, got %d", len(breakdown))
	}
	// Ordered by revenue: p1 has 18.00, p2 has 9.00.
	if breakdown[0].ProductID != "p1" || breakdown[0].Quantity != 2 || !breakdown[0].Revenue.Equal(dec("18.00")) {
		t.Fatalf("unexpected first row %+v", breakdown[0])
	}
	if breakdown[1].ProductID != "p2" || breakdown[1].Quantity != 3 || !breakdown[1].Revenue.Equal(dec("9.00")) {
		t.Fatalf("unexpected second row %+v", breakdown[1])
	}

	// The malformed row still counts in the scalar closing summary.
	summary := Summarize(txs)
	if summary.Transactions != 3 || !summary.TotalSales.Equal(dec("32.00")) {
		t.Fatalf("malformed items must not drop the transaction: %+v", summary)
	}
}
