package extraction

import (
	"github.com/shopspring/decimal"
	"github.com/spendview/spendview/internal/domain"
)

// Aggregate computes the batch total and the per-category summary for a list
// of transactions. Every category in the active set appears in the summary,
// with 0 when nothing matched. Values sum abs(amount) and are rounded to two
// decimal places, so sum(summary) equals the total within 0.01.
func Aggregate(transactions []domain.Transaction, categories domain.CategorySet) (float64, map[string]float64) {
	totals := make(map[string]decimal.Decimal, categories.Len())
	grand := decimal.Zero

	for _, name := range categories.Names() {
		totals[name] = decimal.Zero
	}

	for _, tx := range transactions {
		amount := decimal.NewFromFloat(tx.Amount).Abs()
		grand = grand.Add(amount)

		category := categories.Canonical(tx.Category)
		totals[category] = totals[category].Add(amount)
	}

	summary := make(map[string]float64, len(totals))
	for name, total := range totals {
		summary[name] = total.Round(2).InexactFloat64()
	}

	return grand.Round(2).InexactFloat64(), summary
}
