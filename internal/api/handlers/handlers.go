package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/spendview/spendview/internal/api/middleware"
	"github.com/spendview/spendview/internal/domain"
	"github.com/spendview/spendview/internal/extraction"
	"github.com/spendview/spendview/internal/gcs"
	"github.com/spendview/spendview/internal/infra/bigquery"
	"github.com/spendview/spendview/internal/jobs"
)

// maxStatementBody bounds pasted statement text and uploads at 20 MiB.
const maxStatementBody = 20 << 20

// ExtractHandler runs the extraction pipeline synchronously over pasted
// statement text or a raw model response.
type ExtractHandler struct {
	pipeline *extraction.Pipeline
	log      zerolog.Logger
}

// NewExtractHandler creates the synchronous extraction handler.
func NewExtractHandler(pipeline *extraction.Pipeline, log zerolog.Logger) *ExtractHandler {
	return &ExtractHandler{pipeline: pipeline, log: log}
}

// Extract handles POST /api/extract. The body carries either "text" (local
// line parsing) or "model_response" (validation of an external model's
// output); "text" wins when both are present.
func (h *ExtractHandler) Extract(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text          string `json:"text"`
		ModelResponse string `json:"model_response"`
	}

	body := http.MaxBytesReader(w, r.Body, maxStatementBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var (
		result *domain.Result
		err    error
	)
	switch {
	case req.Text != "":
		result, err = h.pipeline.ProcessText(r.Context(), req.Text)
	case req.ModelResponse != "":
		result, err = h.pipeline.ProcessModelResponse(r.Context(), req.ModelResponse)
	default:
		middleware.WriteError(w, http.StatusBadRequest, "text or model_response is required")
		return
	}

	switch {
	case errors.Is(err, extraction.ErrEmptyInput):
		middleware.WriteError(w, http.StatusBadRequest, "Input is empty")
	case errors.Is(err, extraction.ErrModelResponse):
		middleware.WriteError(w, http.StatusUnprocessableEntity, "Model response contains no parseable transactions")
	case err != nil:
		h.log.Error().Err(err).Msg("Extraction failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Extraction failed")
	default:
		middleware.WriteJSON(w, http.StatusOK, result)
	}
}

// StatementsHandler handles statement upload and asynchronous processing.
type StatementsHandler struct {
	repo      bigquery.Repository
	storage   gcs.Service
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewStatementsHandler creates the statements handler.
func NewStatementsHandler(repo bigquery.Repository, storage gcs.Service, publisher jobs.Publisher, log zerolog.Logger) *StatementsHandler {
	return &StatementsHandler{repo: repo, storage: storage, publisher: publisher, log: log}
}

// Upload handles POST /api/statements. The request body is the PDF itself;
// the filename comes from the query string. The document is stored, recorded
// in the warehouse and queued for extraction.
func (h *StatementsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filename := filepath.Base(r.URL.Query().Get("filename"))
	if filename == "" || filename == "." {
		filename = "statement.pdf"
	}

	tmp, err := os.CreateTemp("", "statement-*.pdf")
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to buffer upload")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to store statement")
		return
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	hash := sha256.New()
	if _, err := io.Copy(io.MultiWriter(tmp, hash), http.MaxBytesReader(w, r.Body, maxStatementBody)); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Failed to read upload")
		return
	}
	checksum := hex.EncodeToString(hash.Sum(nil))

	if existing, err := h.repo.FindStatementByChecksum(ctx, checksum); err == nil && existing != nil {
		h.log.Info().
			Str("statement_id", existing.StatementID).
			Msg("Duplicate statement upload skipped")
		middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"statement_id": existing.StatementID,
			"gcs_uri":      existing.GCSURI,
			"duplicate":    true,
		})
		return
	}

	statementID := uuid.NewString()
	objectName := fmt.Sprintf("statements/%s/%s-%s", time.Now().Format("2006/01"), statementID, filename)

	uri, err := h.storage.Upload(ctx, objectName, tmp.Name())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to upload statement to storage")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to store statement")
		return
	}

	row := &bigquery.StatementRow{
		StatementID:      statementID,
		GCSURI:           uri,
		OriginalFilename: filename,
		ChecksumSHA256:   checksum,
		UploadTS:         time.Now(),
	}
	if err := h.repo.InsertStatement(ctx, row); err != nil {
		h.log.Error().Err(err).Msg("Failed to record statement")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to record statement")
		return
	}

	job := &jobs.ExtractStatementJob{
		StatementID: statementID,
		GCSURI:      uri,
		UseModel:    r.URL.Query().Get("use_model") == "true",
	}
	if err := h.publisher.PublishExtractStatement(ctx, job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue extraction job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue extraction job")
		return
	}

	h.log.Info().
		Str("statement_id", statementID).
		Str("job_id", job.JobID).
		Str("gcs_uri", uri).
		Msg("Statement uploaded and queued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"statement_id": statementID,
		"job_id":       job.JobID,
		"gcs_uri":      uri,
		"status":       string(job.Status),
	})
}

// TransactionsHandler serves persisted transactions.
type TransactionsHandler struct {
	repo bigquery.Repository
	log  zerolog.Logger
}

// NewTransactionsHandler creates the transactions handler.
func NewTransactionsHandler(repo bigquery.Repository, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{repo: repo, log: log}
}

// List handles GET /api/transactions?start_date=&end_date=. The default
// window is the trailing year.
func (h *TransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	start := time.Now().AddDate(-1, 0, 0)
	end := time.Now()
	var err error

	if s := query.Get("start_date"); s != "" {
		if start, err = time.Parse("2006-01-02", s); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid start_date format")
			return
		}
	}
	if s := query.Get("end_date"); s != "" {
		if end, err = time.Parse("2006-01-02", s); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid end_date format")
			return
		}
	}

	transactions, err := h.repo.QueryTransactionsByDateRange(ctx, start, end)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to query transactions")
		return
	}

	if transactions == nil {
		transactions = []*bigquery.TransactionRow{}
	}
	middleware.WriteJSON(w, http.StatusOK, transactions)
}

// CategoriesHandler serves the active category set.
type CategoriesHandler struct {
	categories domain.CategorySet
}

// NewCategoriesHandler creates the categories handler.
func NewCategoriesHandler(categories domain.CategorySet) *CategoriesHandler {
	return &CategoriesHandler{categories: categories}
}

// List handles GET /api/categories.
func (h *CategoriesHandler) List(w http.ResponseWriter, r *http.Request) {
	names := h.categories.Names()
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"categories": names,
		"count":      len(names),
	})
}

// JobsHandler serves job progress.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates the jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{store: store, log: log}
}

// Get handles GET /api/jobs/{id}.
func (h *JobsHandler) Get(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := h.store.GetJob(r.Context(), jobID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, job)
}

// List handles GET /api/jobs.
func (h *JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := jobs.JobFilter{
		StatementID: query.Get("statement_id"),
		Status:      jobs.JobStatus(query.Get("status")),
	}
	if s := query.Get("limit"); s != "" {
		if limit, err := strconv.Atoi(s); err == nil {
			filter.Limit = limit
		}
	}
	if s := query.Get("offset"); s != "" {
		if offset, err := strconv.Atoi(s); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}

// Health handles GET /healthz.
func Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
