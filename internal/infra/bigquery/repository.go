package bigquery

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"github.com/spendview/spendview/internal/logger"
)

const (
	statementsTable     = "statements"
	runsTable           = "extraction_runs"
	transactionsTable   = "transactions"
	categoryTotalsTable = "category_totals"

	dateFormat = "2006-01-02"

	maxErrorMessageLen = 2000
)

// Repository is the persistence surface the worker and API need. It is an
// interface so handlers and jobs can be tested against a mock.
type Repository interface {
	InsertStatement(ctx context.Context, row *StatementRow) error
	FindStatementByChecksum(ctx context.Context, checksum string) (*StatementRow, error)

	StartRun(ctx context.Context, statementID, source string) (string, error)
	MarkRunSucceeded(ctx context.Context, runID string) error
	MarkRunFailed(ctx context.Context, runID string, runErr error)

	InsertTransactions(ctx context.Context, rows []*TransactionRow) error
	InsertCategoryTotals(ctx context.Context, rows []*CategoryTotalRow) error

	QueryTransactionsByDateRange(ctx context.Context, start, end time.Time) ([]*TransactionRow, error)
	QueryCategoryTotals(ctx context.Context, runID string) ([]*CategoryTotalRow, error)
}

// BigQueryRepository implements Repository over a shared BigQuery client.
type BigQueryRepository struct {
	client  *bigquery.Client
	dataset string
}

// NewRepository connects to BigQuery for the given project and dataset. The
// caller owns Close.
func NewRepository(ctx context.Context, projectID, dataset string) (*BigQueryRepository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("bigquery client: %w", err)
	}
	return &BigQueryRepository{client: client, dataset: dataset}, nil
}

// Close closes the underlying BigQuery client.
func (r *BigQueryRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// InsertStatement streams one statement row into the statements table.
func (r *BigQueryRepository) InsertStatement(ctx context.Context, row *StatementRow) error {
	inserter := r.client.Dataset(r.dataset).Table(statementsTable).Inserter()
	if err := inserter.Put(ctx, row); err != nil {
		return fmt.Errorf("insert statement: %w", err)
	}
	return nil
}

// FindStatementByChecksum returns the statement with the given checksum, or
// nil when none exists. Used to skip re-processing duplicate uploads.
func (r *BigQueryRepository) FindStatementByChecksum(ctx context.Context, checksum string) (*StatementRow, error) {
	q := r.client.Query(fmt.Sprintf(`
		SELECT statement_id, gcs_uri, original_filename, checksum_sha256, upload_ts, processed_ts
		FROM %s.%s
		WHERE checksum_sha256 = @checksum
		LIMIT 1
	`, r.dataset, statementsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "checksum", Value: checksum},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("find statement by checksum: %w", err)
	}

	var row StatementRow
	switch err := it.Next(&row); err {
	case nil:
		return &row, nil
	case iterator.Done:
		return nil, nil
	default:
		return nil, fmt.Errorf("find statement by checksum: iter next: %w", err)
	}
}

// StartRun inserts a RUNNING extraction run row and returns its generated id.
func (r *BigQueryRepository) StartRun(ctx context.Context, statementID, source string) (string, error) {
	runID := uuid.NewString()

	q := r.client.Query(fmt.Sprintf(`
		INSERT %s.%s (run_id, statement_id, source, started_ts, status)
		VALUES (@run_id, @statement_id, @source, @started_ts, @status)
	`, r.dataset, runsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "run_id", Value: runID},
		{Name: "statement_id", Value: statementID},
		{Name: "source", Value: source},
		{Name: "started_ts", Value: time.Now()},
		{Name: "status", Value: "RUNNING"},
	}

	if err := r.runAndWait(ctx, q); err != nil {
		return "", fmt.Errorf("start run: %w", err)
	}
	return runID, nil
}

// MarkRunSucceeded sets status=SUCCESS and finished_ts, clearing any error.
func (r *BigQueryRepository) MarkRunSucceeded(ctx context.Context, runID string) error {
	q := r.client.Query(fmt.Sprintf(`
		UPDATE %s.%s
		SET status = @status, finished_ts = @finished_ts, error_message = ""
		WHERE run_id = @run_id
	`, r.dataset, runsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: "SUCCESS"},
		{Name: "finished_ts", Value: time.Now()},
		{Name: "run_id", Value: runID},
	}

	if err := r.runAndWait(ctx, q); err != nil {
		return fmt.Errorf("mark run succeeded: %w", err)
	}
	return nil
}

// MarkRunFailed sets status=FAILED with the truncated error message. Failures
// to record a failure are logged, not returned, so they never mask runErr.
func (r *BigQueryRepository) MarkRunFailed(ctx context.Context, runID string, runErr error) {
	log := logger.FromContext(ctx)

	errMsg := ""
	if runErr != nil {
		errMsg = runErr.Error()
		if len(errMsg) > maxErrorMessageLen {
			errMsg = errMsg[:maxErrorMessageLen]
		}
	}

	q := r.client.Query(fmt.Sprintf(`
		UPDATE %s.%s
		SET status = @status, finished_ts = @finished_ts, error_message = @error_message
		WHERE run_id = @run_id
	`, r.dataset, runsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: "FAILED"},
		{Name: "finished_ts", Value: time.Now()},
		{Name: "error_message", Value: errMsg},
		{Name: "run_id", Value: runID},
	}

	if err := r.runAndWait(ctx, q); err != nil {
		log.Error().
			Err(err).
			Str("run_id", runID).
			Msg("Failed to record extraction run failure")
	}
}

// InsertTransactions streams a batch of transaction rows.
func (r *BigQueryRepository) InsertTransactions(ctx context.Context, rows []*TransactionRow) error {
	if len(rows) == 0 {
		return nil
	}
	inserter := r.client.Dataset(r.dataset).Table(transactionsTable).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("insert transactions: %w", err)
	}
	return nil
}

// InsertCategoryTotals streams the per-category aggregation of a run.
func (r *BigQueryRepository) InsertCategoryTotals(ctx context.Context, rows []*CategoryTotalRow) error {
	if len(rows) == 0 {
		return nil
	}
	inserter := r.client.Dataset(r.dataset).Table(categoryTotalsTable).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("insert category totals: %w", err)
	}
	return nil
}

// QueryTransactionsByDateRange returns transactions from successful runs
// within [start, end], ordered by date.
func (r *BigQueryRepository) QueryTransactionsByDateRange(ctx context.Context, start, end time.Time) ([]*TransactionRow, error) {
	q := r.client.Query(fmt.Sprintf(`
		SELECT
			t.transaction_id, t.statement_id, t.run_id,
			t.transaction_date, t.description, t.amount,
			t.category, t.confidence, t.source_line, t.created_ts
		FROM %s.%s t
		INNER JOIN %s.%s r ON t.run_id = r.run_id
		WHERE t.transaction_date >= @start_date
		  AND t.transaction_date <= @end_date
		  AND r.status = 'SUCCESS'
		ORDER BY t.transaction_date, t.created_ts
	`, r.dataset, transactionsTable, r.dataset, runsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "start_date", Value: start.Format(dateFormat)},
		{Name: "end_date", Value: end.Format(dateFormat)},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}

	var rows []*TransactionRow
	for {
		var row TransactionRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("query transactions: iter next: %w", err)
		}
		rows = append(rows, &row)
	}
	return rows, nil
}

// QueryCategoryTotals returns the per-category totals recorded for a run.
func (r *BigQueryRepository) QueryCategoryTotals(ctx context.Context, runID string) ([]*CategoryTotalRow, error) {
	q := r.client.Query(fmt.Sprintf(`
		SELECT run_id, category, total, created_ts
		FROM %s.%s
		WHERE run_id = @run_id
		ORDER BY category
	`, r.dataset, categoryTotalsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "run_id", Value: runID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("query category totals: %w", err)
	}

	var rows []*CategoryTotalRow
	for {
		var row CategoryTotalRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("query category totals: iter next: %w", err)
		}
		rows = append(rows, &row)
	}
	return rows, nil
}

func (r *BigQueryRepository) runAndWait(ctx context.Context, q *bigquery.Query) error {
	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}
	return nil
}

// Numeric converts a float64 amount into the *big.Rat BigQuery NUMERIC
// representation.
func Numeric(v float64) *big.Rat {
	return new(big.Rat).SetFloat64(v)
}
