package extraction

import (
	"math"
	"testing"

	"github.com/spendview/spendview/internal/domain"
)

func TestAggregate(t *testing.T) {
	categories := defaultSet()
	transactions := []domain.Transaction{
		{ID: "txn_001", Amount: -87.12, Category: "Groceries"},
		{ID: "txn_002", Amount: -12.88, Category: "Groceries"},
		{ID: "txn_003", Amount: -254.18, Category: "Car"},
		{ID: "txn_004", Amount: -19.99, Category: "Streaming"}, // unknown, lands in catch-all
	}

	total, summary := Aggregate(transactions, categories)

	if total != 374.17 {
		t.Errorf("total = %v, want 374.17", total)
	}
	if got := summary["Groceries"]; got != 100.00 {
		t.Errorf("Groceries = %v, want 100.00", got)
	}
	if got := summary["Car"]; got != 254.18 {
		t.Errorf("Car = %v, want 254.18", got)
	}
	if got := summary[domain.CatchAllCategory]; got != 19.99 {
		t.Errorf("%s = %v, want 19.99", domain.CatchAllCategory, got)
	}
	if got := summary["Restaurants"]; got != 0 {
		t.Errorf("Restaurants = %v, want 0 for unused category", got)
	}
	if len(summary) != categories.Len() {
		t.Errorf("summary has %d entries, want %d", len(summary), categories.Len())
	}
}

func TestAggregateEmpty(t *testing.T) {
	categories := defaultSet()

	total, summary := Aggregate(nil, categories)
	if total != 0 {
		t.Errorf("total = %v, want 0", total)
	}
	if len(summary) != categories.Len() {
		t.Errorf("summary has %d entries, want %d", len(summary), categories.Len())
	}
	for name, v := range summary {
		if v != 0 {
			t.Errorf("summary[%q] = %v, want 0", name, v)
		}
	}
}

func TestAggregateAvoidsFloatDrift(t *testing.T) {
	categories := defaultSet()

	// 0.1+0.2 style additions accumulate binary error with raw float64.
	var transactions []domain.Transaction
	for i := 0; i < 10; i++ {
		transactions = append(transactions, domain.Transaction{Amount: -0.10, Category: "Groceries"})
	}

	total, summary := Aggregate(transactions, categories)
	if total != 1.00 {
		t.Errorf("total = %v, want exactly 1.00", total)
	}
	if summary["Groceries"] != 1.00 {
		t.Errorf("Groceries = %v, want exactly 1.00", summary["Groceries"])
	}

	var sum float64
	for _, v := range summary {
		sum += v
	}
	if math.Abs(sum-total) > 0.01 {
		t.Errorf("sum(summary) = %v, total = %v", sum, total)
	}
}
