package jobs

import (
	"context"
	"time"
)

// JobType identifies what a job does.
type JobType string

const (
	// JobTypeParseStatement parses an uploaded bank statement file.
	JobTypeParseStatement JobType = "parse_statement"
)

// JobStatus is the lifecycle state of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusRetrying  JobStatus = "retrying"
)

// ParseStatementJob asks a worker to fetch an archived statement file,
// run extraction and suggestions, and persist the resulting rows.
type ParseStatementJob struct {
	JobID string `json:"job_id"`

	StatementID string `json:"statement_id"`
	FileURI     string `json:"file_uri"`
	FileType    string `json:"file_type"` // "csv", "excel" or "pdf"
	BankName    string `json:"bank_name"`

	Status    JobStatus `json:"status"`
	CreatedAt time.Time `json:"created_at"`

	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Error      string `json:"error,omitempty"`
	RetryCount int    `json:"retry_count"`
	MaxRetries int    `json:"max_retries"`
}

// Job is the generic view the queue exposes to handlers.
type Job interface {
	GetID() string
	GetType() JobType
	GetStatus() JobStatus
}

func (j *ParseStatementJob) GetID() string        { return j.JobID }
func (j *ParseStatementJob) GetType() JobType     { return JobTypeParseStatement }
func (j *ParseStatementJob) GetStatus() JobStatus { return j.Status }

// Publisher enqueues jobs. The abstraction keeps the API handlers
// independent of the queue implementation (in-memory today, Cloud Tasks
// or Pub/Sub for multi-instance deployments).
type Publisher interface {
	PublishParseStatement(ctx context.Context, job *ParseStatementJob) error
	Close() error
}

// Consumer drains jobs and hands them to a handler.
type Consumer interface {
	// Start begins consuming; the handler runs concurrently per job.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming and waits for in-flight jobs.
	Stop(ctx context.Context) error
}

// JobHandler processes one job. A returned error triggers a retry until
// the job's retry budget runs out.
type JobHandler func(ctx context.Context, job Job) error

// JobStore tracks job state so callers can poll progress.
type JobStore interface {
	SaveJob(ctx context.Context, job *ParseStatementJob) error
	GetJob(ctx context.Context, jobID string) (*ParseStatementJob, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]*ParseStatementJob, error)
}

// JobFilter narrows ListJobs results.
type JobFilter struct {
	StatementID string
	Status      JobStatus
	Limit       int
	Offset      int
}
