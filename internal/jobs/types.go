package jobs

import (
	"context"
	"time"
)

// JobType identifies what kind of work a job carries.
type JobType string

// JobTypeExtractStatement is a statement extraction job: fetch the uploaded
// document, extract its transactions and persist the results.
const JobTypeExtractStatement JobType = "extract_statement"

// JobStatus is the lifecycle state of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusRetrying  JobStatus = "retrying"
)

// ExtractStatementJob carries one statement through asynchronous extraction.
type ExtractStatementJob struct {
	JobID string `json:"job_id"`

	// StatementID is the statement's id in the warehouse.
	StatementID string `json:"statement_id"`

	// GCSURI locates the uploaded document in blob storage.
	GCSURI string `json:"gcs_uri"`

	// RunID is set once an extraction run has been opened for this job.
	RunID string `json:"run_id,omitempty"`

	// UseModel selects the model-backed extraction path instead of the
	// local line parser.
	UseModel bool `json:"use_model,omitempty"`

	Status JobStatus `json:"status"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Error string `json:"error,omitempty"`

	RetryCount int `json:"retry_count"`
	MaxRetries int `json:"max_retries"`
}

// Job is the generic surface shared by all job types.
type Job interface {
	GetID() string
	GetType() JobType
	GetStatus() JobStatus
}

func (j *ExtractStatementJob) GetID() string        { return j.JobID }
func (j *ExtractStatementJob) GetType() JobType     { return JobTypeExtractStatement }
func (j *ExtractStatementJob) GetStatus() JobStatus { return j.Status }

// Publisher enqueues jobs. The abstraction keeps the API free to swap the
// in-memory queue for Cloud Tasks or Pub/Sub later.
type Publisher interface {
	PublishExtractStatement(ctx context.Context, job *ExtractStatementJob) error
	Close() error
}

// Consumer drains jobs and hands each one to the handler.
type Consumer interface {
	// Start begins consuming. The handler is invoked once per job; a
	// returned error marks the job for retry.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming and waits for in-flight jobs to finish.
	Stop(ctx context.Context) error
}

// JobHandler processes one job.
type JobHandler func(ctx context.Context, job Job) error

// JobStore tracks job state so the API can report progress.
type JobStore interface {
	SaveJob(ctx context.Context, job *ExtractStatementJob) error
	GetJob(ctx context.Context, jobID string) (*ExtractStatementJob, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]*ExtractStatementJob, error)
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error
}

// JobFilter narrows ListJobs results.
type JobFilter struct {
	StatementID string
	Status      JobStatus
	Limit       int
	Offset      int
}
