package bigquery

import (
	"testing"

	"github.com/spendview/spendview/internal/domain"
)

func TestTransactionRows(t *testing.T) {
	result := &domain.Result{
		Transactions: []domain.Transaction{
			{ID: "txn_001", Date: "2025-07-14", Description: "Toyota Finance", Amount: -254.18, Category: "Car", Confidence: 1.0},
			{ID: "txn_002", Date: "2025-07-02", Description: "Safeway", Amount: -87.12, Category: "Groceries", Confidence: 0.8},
		},
	}

	rows, err := TransactionRows(result, "stmt-1", "run-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}

	if rows[0].TransactionID != "run-1/txn_001" {
		t.Errorf("TransactionID = %q, want run-1/txn_001", rows[0].TransactionID)
	}
	if rows[0].TransactionDate.String() != "2025-07-14" {
		t.Errorf("TransactionDate = %v, want 2025-07-14", rows[0].TransactionDate)
	}
	if got, _ := rows[0].Amount.Float64(); got != -254.18 {
		t.Errorf("Amount = %v, want -254.18", got)
	}
}

func TestTransactionRowsBadDate(t *testing.T) {
	result := &domain.Result{
		Transactions: []domain.Transaction{
			{ID: "txn_001", Date: "14/07/2025", Description: "X", Amount: -1},
		},
	}
	if _, err := TransactionRows(result, "stmt-1", "run-1"); err == nil {
		t.Error("expected error for non-ISO date")
	}
}

func TestCategoryTotalRows(t *testing.T) {
	result := &domain.Result{
		Summary: map[string]float64{
			"Groceries":     87.12,
			"Car":           254.18,
			"Entertainment": 0,
		},
	}

	rows := CategoryTotalRows(result, "run-1")
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	for _, row := range rows {
		if row.RunID != "run-1" {
			t.Errorf("RunID = %q, want run-1", row.RunID)
		}
	}
}
