package inmemory

import (
	"context"
	"fmt"
	"sync"

	"github.com/obiorah-dev/bankrecon/internal/jobs"
)

// Store keeps job state in memory, safe for concurrent use. State is lost
// on restart.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*jobs.ParseStatementJob
}

func NewStore() *Store {
	return &Store{
		jobs: make(map[string]*jobs.ParseStatementJob),
	}
}

// SaveJob inserts or replaces a job. A copy is stored so callers cannot
// mutate it afterwards.
func (s *Store) SaveJob(ctx context.Context, job *jobs.ParseStatementJob) error {
	if job.JobID == "" {
		return fmt.Errorf("job ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	jobCopy := *job
	s.jobs[job.JobID] = &jobCopy
	return nil
}

// GetJob returns a copy of the job or an error when unknown.
func (s *Store) GetJob(ctx context.Context, jobID string) (*jobs.ParseStatementJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return nil, fmt.Errorf("job not found: %s", jobID)
	}
	jobCopy := *job
	return &jobCopy, nil
}

// ListJobs returns copies of jobs matching the filter.
func (s *Store) ListJobs(ctx context.Context, filter jobs.JobFilter) ([]*jobs.ParseStatementJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*jobs.ParseStatementJob
	for _, job := range s.jobs {
		if filter.StatementID != "" && job.StatementID != filter.StatementID {
			continue
		}
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		jobCopy := *job
		result = append(result, &jobCopy)
	}

	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return []*jobs.ParseStatementJob{}, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, nil
}

var _ jobs.JobStore = (*Store)(nil)
