package extraction

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spendview/spendview/internal/domain"
)

// defaultModelConfidence is assumed when a model entry carries no confidence.
// It is deliberately different from the keyword classifier's floors: a
// model-sourced confidence reflects a different production process.
const defaultModelConfidence = 0.8

var isoDateFormat = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ValidateModelResponse extracts the JSON object embedded in a free-form
// model response and validates it into expense transactions.
//
// Malformed individual entries are dropped silently; only a response with no
// parseable {"transactions": [...]} object at all fails, with an error
// wrapping ErrModelResponse so callers can fall back to local parsing.
func ValidateModelResponse(response string, categories domain.CategorySet) ([]domain.Transaction, error) {
	raw, err := extractResponseObject(response)
	if err != nil {
		return nil, err
	}

	entries, ok := raw["transactions"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("validate: missing transactions array: %w", ErrModelResponse)
	}

	transactions := make([]domain.Transaction, 0, len(entries))
	for i, item := range entries {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		if tx, ok := validateEntry(obj, i+1, categories); ok {
			transactions = append(transactions, tx)
		}
	}

	return transactions, nil
}

// extractResponseObject searches the response for the first top-level JSON
// object using a greedy brace scan (first '{' to last '}'). If that substring
// does not parse, the entire response is tried as JSON directly.
func extractResponseObject(response string) (map[string]interface{}, error) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")

	if start != -1 && end > start {
		var out map[string]interface{}
		if err := json.Unmarshal([]byte(response[start:end+1]), &out); err == nil {
			return out, nil
		}
	}

	var out map[string]interface{}
	if err := json.Unmarshal([]byte(response), &out); err == nil {
		return out, nil
	}

	return nil, fmt.Errorf("validate: %w", ErrModelResponse)
}

// validateEntry normalizes one candidate entry. position is the entry's
// 1-based index in the source array and seeds the synthesized id, so dropped
// siblings leave gaps in the sequence rather than renumbering later entries.
func validateEntry(obj map[string]interface{}, position int, categories domain.CategorySet) (domain.Transaction, bool) {
	date := stringField(obj, "date")
	description := stringField(obj, "description")
	amount, hasAmount := numberField(obj, "amount")

	if date == "" || description == "" || !hasAmount || amount == 0 {
		return domain.Transaction{}, false
	}
	if !isoDateFormat.MatchString(date) {
		return domain.Transaction{}, false
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return domain.Transaction{}, false
	}

	// The pipeline only emits expenses.
	if amount > 0 {
		amount = -amount
	}
	amount = roundAmount(amount)

	confidence := defaultModelConfidence
	if c, ok := numberField(obj, "confidence"); ok {
		confidence = clamp(c, 0.5, 1.0)
	}

	id := stringField(obj, "id")
	if id == "" {
		id = fmt.Sprintf("txn_%03d", position)
	}

	return domain.Transaction{
		ID:          id,
		Date:        date,
		Description: strings.TrimSpace(description),
		Amount:      amount,
		Category:    categories.Canonical(stringField(obj, "category")),
		Confidence:  confidence,
	}, true
}

func stringField(obj map[string]interface{}, key string) string {
	if v, ok := obj[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func numberField(obj map[string]interface{}, key string) (float64, bool) {
	switch v := obj[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

// roundAmount rounds to 2 decimal places, half up on the magnitude, to avoid
// floating-point artifacts from JSON number round-tripping.
func roundAmount(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
