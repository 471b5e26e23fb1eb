package report

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/shopspring/decimal"

	"kassenwerk/backend/internal/domain"
)

// NormalizeItems coerces the items payload of a transaction into a
// typed slice. Depending on the store driver the payload arrives as a
// materialized []TransactionItem, a JSON-encoded string or []byte, or
// an already-decoded []any. Malformed payloads report ok=false and are
// skipped by callers, never treated as fatal.
func NormalizeItems(raw any) ([]domain.TransactionItem, bool) {
	switch v := raw.(type) {
	case nil:
		return []domain.TransactionItem{}, true
	case []domain.TransactionItem:
		return v, true
	case json.RawMessage:
		return unmarshalItems(v)
	case []byte:
		return unmarshalItems(v)
	case string:
		return unmarshalItems([]byte(v))
	default:
		// Already-decoded shapes ([]any, []map[string]any) round-trip
		// through JSON to pick up field names and number conversions.
		buf, err := json.Marshal(v)
		if err != nil {
			return nil, false
		}
		return unmarshalItems(buf)
	}
}

func unmarshalItems(data []byte) ([]domain.TransactionItem, bool) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []domain.TransactionItem{}, true
	}
	var items []domain.TransactionItem
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, false
	}
	return items, true
}

// ProductBreakdown aggregates line items across transactions into
// per-product quantity and revenue, ordered by revenue. Transactions
// whose items cannot be normalized contribute nothing; their scalar
// totals are unaffected elsewhere.
func ProductBreakdown(txs []domain.Transaction) []domain.ProductSales {
	acc := make(map[string]*domain.ProductSales)

	for _, tx := range txs {
		items, ok := NormalizeItems(tx.Items)
		if !ok {
			continue
		}
		for _, item := range items {
			if item.ProductID == "" || item.Quantity <= 0 {
				continue
			}
			sales, exists := acc[item.ProductID]
			if !exists {
				sales = &domain.ProductSales{ProductID: item.ProductID}
				acc[item.ProductID] = sales
			}
			sales.Quantity += item.Quantity
			sales.Revenue = sales.Revenue.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
	}

	out := make([]domain.ProductSales, 0, len(acc))
	for _, sales := range acc {
		out = append(out, *sales)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Revenue.Equal(out[j].Revenue) {
			return out[i].Revenue.GreaterThan(out[j].Revenue)
		}
		return out[i].ProductID < out[j].ProductID
	})

	return out
}
