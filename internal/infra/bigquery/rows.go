package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
)

// StatementRow mirrors the spending.statements table: one row per uploaded
// statement document.
type StatementRow struct {
	StatementID string `bigquery:"statement_id"` // REQUIRED
	GCSURI      string `bigquery:"gcs_uri"`      // NULLABLE

	OriginalFilename string `bigquery:"original_filename"` // NULLABLE
	ChecksumSHA256   string `bigquery:"checksum_sha256"`   // NULLABLE

	UploadTS    time.Time              `bigquery:"upload_ts"`    // REQUIRED
	ProcessedTS bigquery.NullTimestamp `bigquery:"processed_ts"` // NULLABLE

	Metadata bigquery.NullJSON `bigquery:"metadata"` // NULLABLE
}

// ExtractionRunRow mirrors spending.extraction_runs: one row per extraction
// attempt over a statement, local or model-backed.
type ExtractionRunRow struct {
	RunID       string `bigquery:"run_id"`       // REQUIRED
	StatementID string `bigquery:"statement_id"` // REQUIRED

	// Source records which path produced the transactions, LOCAL or GEMINI.
	Source string `bigquery:"source"`

	StartedTS  time.Time              `bigquery:"started_ts"`  // REQUIRED
	FinishedTS bigquery.NullTimestamp `bigquery:"finished_ts"` // NULLABLE

	Status       string `bigquery:"status"`        // RUNNING, SUCCESS, FAILED
	ErrorMessage string `bigquery:"error_message"` // NULLABLE
}

// TransactionRow mirrors spending.transactions. Amounts are NUMERIC in the
// schema; expenses carry negative values.
type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED
	StatementID   string `bigquery:"statement_id"`   // NULLABLE
	RunID         string `bigquery:"run_id"`         // NULLABLE

	TransactionDate civil.Date `bigquery:"transaction_date"` // REQUIRED
	Description     string     `bigquery:"description"`      // REQUIRED
	Amount          *big.Rat   `bigquery:"amount"`           // REQUIRED NUMERIC

	Category   string  `bigquery:"category"`   // REQUIRED
	Confidence float64 `bigquery:"confidence"` // REQUIRED

	SourceLine bigquery.NullInt64 `bigquery:"source_line"` // NULLABLE

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED
}

// CategoryTotalRow mirrors spending.category_totals: the per-category
// aggregation of one extraction run.
type CategoryTotalRow struct {
	RunID    string   `bigquery:"run_id"`   // REQUIRED
	Category string   `bigquery:"category"` // REQUIRED
	Total    *big.Rat `bigquery:"total"`    // REQUIRED NUMERIC

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED
}
