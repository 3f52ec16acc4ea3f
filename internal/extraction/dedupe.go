package extraction

import (
	"fmt"

	"github.com/spendview/spendview/internal/domain"
)

// Deduplicate drops repeated (date, description, amount) records, keeping the
// first occurrence. Statement formatting quirks sometimes repeat the same
// payment across page boundaries; this is an explicit opt-in pipeline stage,
// not parser behavior.
func Deduplicate(records []domain.RawTransaction) []domain.RawTransaction {
	seen := make(map[string]bool, len(records))
	out := make([]domain.RawTransaction, 0, len(records))

	for _, r := range records {
		key := fmt.Sprintf("%s|%s|%.2f", r.Date, r.Description, r.Amount)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}

	return out
}
