package extraction

import (
	"errors"
	"testing"

	"github.com/spendview/spendview/internal/domain"
)

func defaultSet() domain.CategorySet {
	return domain.NewCategorySet(domain.DefaultCategories...)
}

func TestValidateModelResponseEmbeddedInProse(t *testing.T) {
	response := `Sure, here is the result: {"transactions":[{"date":"2025-07-14","description":"Bell Canada","amount":119.91,"category":"Utilities","confidence":1.5}]} Let me know if you need anything else.`

	got, err := ValidateModelResponse(response, defaultSet())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d transactions, want 1", len(got))
	}

	tx := got[0]
	if tx.ID != "txn_001" {
		t.Errorf("ID = %q, want txn_001", tx.ID)
	}
	if tx.Amount != -119.91 {
		t.Errorf("Amount = %v, want -119.91 (expenses are negative)", tx.Amount)
	}
	if tx.Category != domain.CatchAllCategory {
		t.Errorf("Category = %q, want %q for unknown model category", tx.Category, domain.CatchAllCategory)
	}
	if tx.Confidence != 1.0 {
		t.Errorf("Confidence = %v, want 1.0 (clamped)", tx.Confidence)
	}
}

func TestValidateModelResponseBareJSON(t *testing.T) {
	response := `{"transactions":[
		{"date":"2025-07-02","description":"  SAFEWAY #1234  ","amount":-87.12,"category":"groceries"},
		{"date":"2025-07-05","description":"Netflix","amount":-20.99,"category":"Entertainment","confidence":0.95}
	]}`

	got, err := ValidateModelResponse(response, defaultSet())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d transactions, want 2", len(got))
	}

	if got[0].Description != "SAFEWAY #1234" {
		t.Errorf("Description = %q, want trimmed", got[0].Description)
	}
	if got[0].Category != "Groceries" {
		t.Errorf("Category = %q, want Groceries (case-insensitive mapping)", got[0].Category)
	}
	if got[0].Confidence != 0.8 {
		t.Errorf("Confidence = %v, want 0.8 default when absent", got[0].Confidence)
	}
	if got[1].Confidence != 0.95 {
		t.Errorf("Confidence = %v, want 0.95 passed through", got[1].Confidence)
	}
	if got[1].ID != "txn_002" {
		t.Errorf("ID = %q, want txn_002", got[1].ID)
	}
}

func TestValidateModelResponseDropsMalformedEntries(t *testing.T) {
	tests := []struct {
		name     string
		response string
		wantLen  int
		wantIDs  []string
	}{
		{
			name: "missing description dropped, siblings keep source positions",
			response: `{"transactions":[
				{"date":"2025-07-01","description":"Rent","amount":1850.00},
				{"date":"2025-07-02","amount":40.00},
				{"date":"2025-07-03","description":"Costco","amount":210.55}
			]}`,
			wantLen: 2,
			wantIDs: []string{"txn_001", "txn_003"},
		},
		{
			name:     "zero amount dropped",
			response: `{"transactions":[{"date":"2025-07-01","description":"Void","amount":0}]}`,
			wantLen:  0,
		},
		{
			name:     "non numeric amount dropped",
			response: `{"transactions":[{"date":"2025-07-01","description":"Rent","amount":"1850.00"}]}`,
			wantLen:  0,
		},
		{
			name:     "malformed date dropped",
			response: `{"transactions":[{"date":"07/01/2025","description":"Rent","amount":1850.00}]}`,
			wantLen:  0,
		},
		{
			name:     "impossible calendar date dropped",
			response: `{"transactions":[{"date":"2025-02-30","description":"Rent","amount":1850.00}]}`,
			wantLen:  0,
		},
		{
			name:     "non object entry dropped",
			response: `{"transactions":["not an object",{"date":"2025-07-03","description":"Costco","amount":210.55}]}`,
			wantLen:  1,
			wantIDs:  []string{"txn_002"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateModelResponse(tt.response, defaultSet())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != tt.wantLen {
				t.Fatalf("got %d transactions, want %d", len(got), tt.wantLen)
			}
			for i, id := range tt.wantIDs {
				if got[i].ID != id {
					t.Errorf("got[%d].ID = %q, want %q", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestValidateModelResponseUnparseable(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"no json at all", "I could not find any transactions in the document."},
		{"broken json", `{"transactions": [}`},
		{"missing transactions key", `{"results": []}`},
		{"transactions not an array", `{"transactions": "none"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateModelResponse(tt.response, defaultSet())
			if !errors.Is(err, ErrModelResponse) {
				t.Errorf("error = %v, want ErrModelResponse", err)
			}
		})
	}
}

func TestValidateModelResponseConfidenceClamp(t *testing.T) {
	response := `{"transactions":[
		{"date":"2025-07-01","description":"A","amount":10.00,"confidence":0.1},
		{"date":"2025-07-02","description":"B","amount":10.00,"confidence":0.75}
	]}`

	got, err := ValidateModelResponse(response, defaultSet())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0].Confidence != 0.5 {
		t.Errorf("low confidence = %v, want clamped to 0.5", got[0].Confidence)
	}
	if got[1].Confidence != 0.75 {
		t.Errorf("in-range confidence = %v, want 0.75 unchanged", got[1].Confidence)
	}
}

func TestValidateModelResponseRoundsAmounts(t *testing.T) {
	response := `{"transactions":[{"date":"2025-07-01","description":"Fuel","amount":45.6789}]}`

	got, err := ValidateModelResponse(response, defaultSet())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0].Amount != -45.68 {
		t.Errorf("Amount = %v, want -45.68", got[0].Amount)
	}
}

func TestValidateModelResponseKeepsProvidedID(t *testing.T) {
	response := `{"transactions":[{"id":"stmt-42","date":"2025-07-01","description":"Rent","amount":1850.00}]}`

	got, err := ValidateModelResponse(response, defaultSet())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0].ID != "stmt-42" {
		t.Errorf("ID = %q, want model-provided id preserved", got[0].ID)
	}
}
