package memory

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"tiktok_ingest/internal/domain"
)

// ImportJobRepository is an in-memory implementation of
// domain.ImportJobRepository, used by tests. It enforces the same unique
// external-video-id constraint as the SQLite implementation.
type ImportJobRepository struct {
	mu         sync.RWMutex
	jobs       map[string]*domain.ImportJob // keyed by id
	byVideoID  map[string]string            // external video id -> job id
	insertSeq  int64
	insertedAt map[string]int64 // job id -> insertion order
}

// NewImportJobRepository creates an empty in-memory repository.
func NewImportJobRepository() *ImportJobRepository {
	return &ImportJobRepository{
		jobs:       make(map[string]*domain.ImportJob),
		byVideoID:  make(map[string]string),
		insertedAt: make(map[string]int64),
	}
}

func (r *ImportJobRepository) GetByExternalVideoID(externalVideoID string) (*domain.ImportJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byVideoID[externalVideoID]
	if !ok {
		return nil, nil
	}
	return cloneJob(r.jobs[id]), nil
}

func (r *ImportJobRepository) Create(job *domain.ImportJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byVideoID[job.ExternalVideoID]; exists {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateImport, job.ExternalVideoID)
	}

	now := time.Now().UTC()
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = domain.ImportStatusPending
	}
	job.CreatedAt = now
	job.UpdatedAt = now

	r.insertSeq++
	r.jobs[job.ID] = cloneJob(job)
	r.byVideoID[job.ExternalVideoID] = job.ID
	r.insertedAt[job.ID] = r.insertSeq
	return nil
}

func (r *ImportJobRepository) MarkCompleted(id, postID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return fmt.Errorf("import job not found: %s", id)
	}
	job.Status = domain.ImportStatusCompleted
	job.PostID = postID
	job.ErrorMessage = ""
	job.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *ImportJobRepository) MarkFailed(id, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return fmt.Errorf("import job not found: %s", id)
	}
	job.Status = domain.ImportStatusFailed
	job.ErrorMessage = message
	job.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *ImportJobRepository) ListRecent(limit int) ([]*domain.ImportJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	jobs := make([]*domain.ImportJob, 0, len(r.jobs))
	for _, job := range r.jobs {
		jobs = append(jobs, cloneJob(job))
	}

	// Insertion order stands in for created_at, which has second
	// granularity in tests
	sort.Slice(jobs, func(i, j int) bool {
		return r.insertedAt[jobs[i].ID] > r.insertedAt[jobs[j].ID]
	})

	if limit > 0 && len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs, nil
}

// Count returns the number of stored jobs.
func (r *ImportJobRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}

func cloneJob(job *domain.ImportJob) *domain.ImportJob {
	if job == nil {
		return nil
	}
	clone := *job
	return &clone
}
