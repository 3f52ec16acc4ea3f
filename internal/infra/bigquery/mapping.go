package bigquery

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"github.com/spendview/spendview/internal/domain"
)

// TransactionRows maps an extraction result onto insertable transaction rows.
// Dates were validated upstream, so a parse failure here is a real error.
func TransactionRows(result *domain.Result, statementID, runID string) ([]*TransactionRow, error) {
	now := time.Now()
	rows := make([]*TransactionRow, 0, len(result.Transactions))

	for _, tx := range result.Transactions {
		date, err := civil.ParseDate(tx.Date)
		if err != nil {
			return nil, fmt.Errorf("transaction %s: parse date %q: %w", tx.ID, tx.Date, err)
		}
		rows = append(rows, &TransactionRow{
			TransactionID:   fmt.Sprintf("%s/%s", runID, tx.ID),
			StatementID:     statementID,
			RunID:           runID,
			TransactionDate: date,
			Description:     tx.Description,
			Amount:          Numeric(tx.Amount),
			Category:        tx.Category,
			Confidence:      tx.Confidence,
			CreatedTS:       now,
		})
	}
	return rows, nil
}

// CategoryTotalRows maps the per-category summary of a run onto insertable
// rows. Zero-total categories are included so dashboards see the full set.
func CategoryTotalRows(result *domain.Result, runID string) []*CategoryTotalRow {
	now := time.Now()
	rows := make([]*CategoryTotalRow, 0, len(result.Summary))

	for category, total := range result.Summary {
		rows = append(rows, &CategoryTotalRow{
			RunID:     runID,
			Category:  category,
			Total:     Numeric(total),
			CreatedTS: now,
		})
	}
	return rows
}
