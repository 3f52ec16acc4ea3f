package worker

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spendview/spendview/internal/domain"
	"github.com/spendview/spendview/internal/extraction"
	"github.com/spendview/spendview/internal/infra/bigquery"
	"github.com/spendview/spendview/internal/jobs"
)

const statementText = `Account Statement - March 2025
2025-03-02 SAFEWAY #1123 VANCOUVER BC Purchase 87.12
2025-03-05 TOYOTA FINANCE Payment 254.18
`

type fakeStorage struct {
	data     map[string][]byte
	fetchErr error
}

func (s *fakeStorage) Upload(ctx context.Context, objectName, filePath string) (string, error) {
	return "gs://test-bucket/" + objectName, nil
}

func (s *fakeStorage) Fetch(ctx context.Context, uri string) ([]byte, error) {
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return s.data[uri], nil
}

type fakeRepo struct {
	bigquery.Repository

	startErr     error
	insertTxErr  error
	startedRuns  []string
	succeeded    []string
	failed       []string
	transactions []*bigquery.TransactionRow
	totals       []*bigquery.CategoryTotalRow
}

func (r *fakeRepo) StartRun(ctx context.Context, statementID, source string) (string, error) {
	if r.startErr != nil {
		return "", r.startErr
	}
	r.startedRuns = append(r.startedRuns, source)
	return "run-1", nil
}

func (r *fakeRepo) MarkRunSucceeded(ctx context.Context, runID string) error {
	r.succeeded = append(r.succeeded, runID)
	return nil
}

func (r *fakeRepo) MarkRunFailed(ctx context.Context, runID string, runErr error) {
	r.failed = append(r.failed, runID)
}

func (r *fakeRepo) InsertTransactions(ctx context.Context, rows []*bigquery.TransactionRow) error {
	if r.insertTxErr != nil {
		return r.insertTxErr
	}
	r.transactions = append(r.transactions, rows...)
	return nil
}

func (r *fakeRepo) InsertCategoryTotals(ctx context.Context, rows []*bigquery.CategoryTotalRow) error {
	r.totals = append(r.totals, rows...)
	return nil
}

type fakeModel struct {
	response string
	err      error
	calls    int
}

func (m *fakeModel) ParseStatement(ctx context.Context, rawText string, categories domain.CategorySet) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func newTestProcessor(storage *fakeStorage, repo *fakeRepo, model extraction.ModelParser) *Processor {
	categories := domain.NewCategorySet(domain.DefaultCategories...)
	return &Processor{
		Storage:  storage,
		Repo:     repo,
		Pipeline: extraction.NewPipeline(extraction.NewClassifier(nil, domain.CatchAllCategory), categories),
		Model:    model,
		ExtractText: func(data []byte) (string, error) {
			return string(data), nil
		},
	}
}

func testJob(useModel bool) *jobs.ExtractStatementJob {
	return &jobs.ExtractStatementJob{
		JobID:       "job-1",
		StatementID: "stmt-1",
		GCSURI:      "gs://test-bucket/statements/stmt-1.pdf",
		UseModel:    useModel,
	}
}

func TestProcessLocalPath(t *testing.T) {
	storage := &fakeStorage{data: map[string][]byte{
		"gs://test-bucket/statements/stmt-1.pdf": []byte(statementText),
	}}
	repo := &fakeRepo{}
	p := newTestProcessor(storage, repo, nil)

	job := testJob(false)
	if err := p.Process(context.Background(), job); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if job.RunID != "run-1" {
		t.Errorf("job.RunID = %q, want run-1", job.RunID)
	}
	if len(repo.startedRuns) != 1 || repo.startedRuns[0] != "LOCAL" {
		t.Errorf("started runs = %v, want [LOCAL]", repo.startedRuns)
	}
	if len(repo.transactions) != 2 {
		t.Fatalf("inserted %d transactions, want 2", len(repo.transactions))
	}
	if repo.transactions[0].Description != "SAFEWAY #1123 VANCOUVER BC Purchase" {
		t.Errorf("first description = %q", repo.transactions[0].Description)
	}
	if len(repo.totals) == 0 {
		t.Error("no category totals inserted")
	}
	if len(repo.succeeded) != 1 {
		t.Errorf("succeeded runs = %v, want one", repo.succeeded)
	}
	if len(repo.failed) != 0 {
		t.Errorf("failed runs = %v, want none", repo.failed)
	}
}

func TestProcessModelPath(t *testing.T) {
	storage := &fakeStorage{data: map[string][]byte{
		"gs://test-bucket/statements/stmt-1.pdf": []byte(statementText),
	}}
	repo := &fakeRepo{}
	model := &fakeModel{response: `{"transactions": [
		{"date": "2025-03-02", "description": "SAFEWAY #1123", "amount": 87.12, "category": "Groceries", "confidence": 0.95}
	]}`}
	p := newTestProcessor(storage, repo, model)

	if err := p.Process(context.Background(), testJob(true)); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if model.calls != 1 {
		t.Errorf("model calls = %d, want 1", model.calls)
	}
	if len(repo.startedRuns) != 1 || repo.startedRuns[0] != "GEMINI" {
		t.Errorf("started runs = %v, want [GEMINI]", repo.startedRuns)
	}
	if len(repo.transactions) != 1 {
		t.Fatalf("inserted %d transactions, want 1", len(repo.transactions))
	}
	if repo.transactions[0].Category != "Groceries" {
		t.Errorf("category = %q, want Groceries", repo.transactions[0].Category)
	}
}

func TestProcessModelFailureFallsBackToLocal(t *testing.T) {
	storage := &fakeStorage{data: map[string][]byte{
		"gs://test-bucket/statements/stmt-1.pdf": []byte(statementText),
	}}
	repo := &fakeRepo{}
	model := &fakeModel{err: errors.New("model unavailable")}
	p := newTestProcessor(storage, repo, model)

	if err := p.Process(context.Background(), testJob(true)); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	// The run is recorded against the model source even though the local
	// parser produced the transactions.
	if len(repo.startedRuns) != 1 || repo.startedRuns[0] != "GEMINI" {
		t.Errorf("started runs = %v, want [GEMINI]", repo.startedRuns)
	}
	if len(repo.transactions) != 2 {
		t.Fatalf("inserted %d transactions, want 2 from local fallback", len(repo.transactions))
	}
	if len(repo.succeeded) != 1 {
		t.Errorf("succeeded runs = %v, want one", repo.succeeded)
	}
}

func TestProcessUnparseableModelResponseFallsBack(t *testing.T) {
	storage := &fakeStorage{data: map[string][]byte{
		"gs://test-bucket/statements/stmt-1.pdf": []byte(statementText),
	}}
	repo := &fakeRepo{}
	model := &fakeModel{response: "I could not read the statement, sorry."}
	p := newTestProcessor(storage, repo, model)

	if err := p.Process(context.Background(), testJob(true)); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(repo.transactions) != 2 {
		t.Fatalf("inserted %d transactions, want 2 from local fallback", len(repo.transactions))
	}
}

func TestProcessFetchError(t *testing.T) {
	storage := &fakeStorage{fetchErr: errors.New("object not found")}
	repo := &fakeRepo{}
	p := newTestProcessor(storage, repo, nil)

	err := p.Process(context.Background(), testJob(false))
	if err == nil || !strings.Contains(err.Error(), "fetch statement") {
		t.Fatalf("Process() error = %v, want fetch statement error", err)
	}
	if len(repo.startedRuns) != 0 {
		t.Errorf("started runs = %v, want none before fetch succeeds", repo.startedRuns)
	}
}

func TestProcessPersistErrorFailsRun(t *testing.T) {
	storage := &fakeStorage{data: map[string][]byte{
		"gs://test-bucket/statements/stmt-1.pdf": []byte(statementText),
	}}
	repo := &fakeRepo{insertTxErr: errors.New("streaming insert rejected")}
	p := newTestProcessor(storage, repo, nil)

	err := p.Process(context.Background(), testJob(false))
	if err == nil {
		t.Fatal("Process() error = nil, want persist error")
	}
	if len(repo.failed) != 1 || repo.failed[0] != "run-1" {
		t.Errorf("failed runs = %v, want [run-1]", repo.failed)
	}
	if len(repo.succeeded) != 0 {
		t.Errorf("succeeded runs = %v, want none", repo.succeeded)
	}
}

func TestHandleRejectsUnknownJobType(t *testing.T) {
	p := newTestProcessor(&fakeStorage{}, &fakeRepo{}, nil)

	err := p.Handle(context.Background(), nil)
	if err == nil {
		t.Fatal("Handle() error = nil, want type error")
	}
}
