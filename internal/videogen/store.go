package videogen

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/haasonsaas/syndicate/pkg/models"
)

// ErrJobNotFound is returned when a job id does not exist.
var ErrJobNotFound = errors.New("render job not found")

// Job is one asynchronous video-generation attempt. It outlives the request
// that created it and is polled until it reaches a terminal state.
type Job struct {
	models.RenderResult

	WorkspaceID     string  `json:"workspaceId"`
	Prompt          string  `json:"prompt"`
	DurationSeconds int     `json:"durationSeconds"`
	TestRender      bool    `json:"testRender"`
	EstimatedCost   float64 `json:"estimatedCost"`
}

// JobStore persists render jobs. Update applies the mutation atomically so
// concurrent status changes cannot interleave between read and write.
type JobStore interface {
	Create(ctx context.Context, job *Job) error
	Get(ctx context.Context, jobID string) (*Job, error)
	Update(ctx context.Context, jobID string, mutate func(*Job) error) (*Job, error)
	List(ctx context.Context, workspaceID string) ([]*Job, error)

	// PruneTerminal deletes terminal jobs last updated before the cutoff and
	// returns how many were removed.
	PruneTerminal(ctx context.Context, cutoff time.Time) (int, error)
}

// MemoryJobStore is an in-memory JobStore for tests and single-node use.
type MemoryJobStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewMemoryJobStore creates an empty in-memory job store.
func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{jobs: make(map[string]*Job)}
}

// Create implements JobStore.
func (s *MemoryJobStore) Create(ctx context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *job
	s.jobs[job.JobID] = &clone
	return nil
}

// Get implements JobStore.
func (s *MemoryJobStore) Get(ctx context.Context, jobID string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, ErrJobNotFound
	}
	clone := *job
	return &clone, nil
}

// Update implements JobStore. The mutation runs under the store lock.
func (s *MemoryJobStore) Update(ctx context.Context, jobID string, mutate func(*Job) error) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, ErrJobNotFound
	}
	if err := mutate(job); err != nil {
		return nil, err
	}
	job.UpdatedAt = time.Now().UTC()
	clone := *job
	return &clone, nil
}

// List implements JobStore.
func (s *MemoryJobStore) List(ctx context.Context, workspaceID string) ([]*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Job
	for _, job := range s.jobs {
		if job.WorkspaceID == workspaceID {
			clone := *job
			out = append(out, &clone)
		}
	}
	return out, nil
}

// PruneTerminal implements JobStore.
func (s *MemoryJobStore) PruneTerminal(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pruned := 0
	for id, job := range s.jobs {
		if job.Status.Terminal() && job.UpdatedAt.Before(cutoff) {
			delete(s.jobs, id)
			pruned++
		}
	}
	return pruned, nil
}
