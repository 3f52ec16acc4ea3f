package worker

import (
	"context"
	"fmt"

	"github.com/spendview/spendview/internal/domain"
	"github.com/spendview/spendview/internal/extraction"
	"github.com/spendview/spendview/internal/extractor"
	"github.com/spendview/spendview/internal/gcs"
	"github.com/spendview/spendview/internal/infra/bigquery"
	"github.com/spendview/spendview/internal/jobs"
	"github.com/spendview/spendview/internal/logger"
)

// Run sources recorded on extraction runs.
const (
	sourceLocal = "LOCAL"
	sourceModel = "GEMINI"
)

// TextExtractor turns a fetched document into raw statement text.
type TextExtractor func(data []byte) (string, error)

// Processor executes statement extraction jobs end to end: fetch the
// document, extract text, run the pipeline and persist the results.
type Processor struct {
	Storage  gcs.Service
	Repo     bigquery.Repository
	Pipeline *extraction.Pipeline

	// Model is the optional model-backed parser. When nil, or when the
	// model path fails, jobs fall back to local line parsing.
	Model extraction.ModelParser

	// ExtractText defaults to PDF extraction; tests substitute their own.
	ExtractText TextExtractor
}

// Handle is the jobs.JobHandler for statement extraction jobs.
func (p *Processor) Handle(ctx context.Context, job jobs.Job) error {
	extractJob, ok := job.(*jobs.ExtractStatementJob)
	if !ok {
		return fmt.Errorf("unexpected job type: %T", job)
	}
	return p.Process(ctx, extractJob)
}

// Process runs one job. The extraction run is recorded in the warehouse
// whatever the outcome; the returned error marks the job for retry.
func (p *Processor) Process(ctx context.Context, job *jobs.ExtractStatementJob) error {
	log := logger.FromContext(ctx).With().
		Str("job_id", job.JobID).
		Str("statement_id", job.StatementID).
		Logger()
	ctx = logger.WithContext(ctx, log)

	data, err := p.Storage.Fetch(ctx, job.GCSURI)
	if err != nil {
		return fmt.Errorf("fetch statement: %w", err)
	}

	extractText := p.ExtractText
	if extractText == nil {
		extractText = extractor.TextFromBytes
	}
	rawText, err := extractText(data)
	if err != nil {
		return fmt.Errorf("extract text: %w", err)
	}

	source := sourceLocal
	if job.UseModel && p.Model != nil {
		source = sourceModel
	}

	runID, err := p.Repo.StartRun(ctx, job.StatementID, source)
	if err != nil {
		return fmt.Errorf("start run: %w", err)
	}
	job.RunID = runID

	result, err := p.extract(ctx, rawText, source)
	if err != nil {
		p.Repo.MarkRunFailed(ctx, runID, err)
		return fmt.Errorf("extraction: %w", err)
	}

	if err := p.persist(ctx, job.StatementID, runID, result); err != nil {
		p.Repo.MarkRunFailed(ctx, runID, err)
		return err
	}

	if err := p.Repo.MarkRunSucceeded(ctx, runID); err != nil {
		return fmt.Errorf("mark run succeeded: %w", err)
	}

	log.Info().
		Str("run_id", runID).
		Int("transactions", len(result.Transactions)).
		Float64("total", result.TotalAmount).
		Msg("Statement extraction completed")
	return nil
}

// extract runs the model path when selected, falling back to the local line
// parser when the model call or its response validation fails.
func (p *Processor) extract(ctx context.Context, rawText, source string) (*domain.Result, error) {
	log := logger.FromContext(ctx)

	if source == sourceModel {
		response, err := p.Model.ParseStatement(ctx, rawText, p.Pipeline.Categories)
		if err == nil {
			result, vErr := p.Pipeline.ProcessModelResponse(ctx, response)
			if vErr == nil {
				return result, nil
			}
			err = vErr
		}
		log.Warn().Err(err).Msg("Model extraction failed, falling back to local parsing")
	}

	return p.Pipeline.ProcessText(ctx, rawText)
}

func (p *Processor) persist(ctx context.Context, statementID, runID string, result *domain.Result) error {
	txRows, err := bigquery.TransactionRows(result, statementID, runID)
	if err != nil {
		return fmt.Errorf("map transactions: %w", err)
	}
	if err := p.Repo.InsertTransactions(ctx, txRows); err != nil {
		return fmt.Errorf("persist transactions: %w", err)
	}
	if err := p.Repo.InsertCategoryTotals(ctx, bigquery.CategoryTotalRows(result, runID)); err != nil {
		return fmt.Errorf("persist category totals: %w", err)
	}
	return nil
}
