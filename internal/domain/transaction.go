package domain

// RawTransaction is an unclassified (date, description, amount) tuple produced
// by the line parser, prior to category and confidence assignment.
type RawTransaction struct {
	Date        string  // canonical YYYY-MM-DD
	Description string  // cleaned of statement boilerplate
	Amount      float64 // negative for expenses
	Line        int     // 1-based source line number, for diagnostics
}

// Transaction is one fully processed expense record. The extraction pipeline
// only emits expenses, so Amount is always negative.
type Transaction struct {
	ID          string  `json:"id"`
	Date        string  `json:"date"` // YYYY-MM-DD
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Confidence  float64 `json:"confidence"` // in [0,1]
}

// Classification is the ephemeral result of categorizing one description.
// Reasoning is advisory only and lists up to three match explanations.
type Classification struct {
	Category   string   `json:"category"`
	Confidence float64  `json:"confidence"`
	Reasoning  []string `json:"reasoning,omitempty"`
}

// Result is the output of one extraction run: the emitted transactions plus
// their aggregation. Summary holds the total absolute amount per category and
// contains an entry for every category in the active set.
type Result struct {
	Transactions []Transaction      `json:"transactions"`
	TotalAmount  float64            `json:"total_amount"`
	Summary      map[string]float64 `json:"summary"`
}
