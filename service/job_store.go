package service

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Sanjana-Siddireddi/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/model"
)

// JobStore is an in-memory registry of pipeline jobs. Artifacts live in the
// ArtifactStore; this only tracks status and progress for the API.
type JobStore struct {
	jobs    map[string]*model.Job
	mu      sync.RWMutex
	maxJobs int // 0 = unlimited
}

func NewJobStore(maxJobs int) *JobStore {
	if maxJobs < 0 {
		maxJobs = 0
	}
	return &JobStore{
		jobs:    make(map[string]*model.Job),
		maxJobs: maxJobs,
	}
}

// Save inserts or replaces a job. Returned jobs are copies; mutate through
// the store.
func (s *JobStore) Save(job *model.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *job
	cp.UpdatedAt = time.Now()
	s.jobs[job.ID] = &cp

	s.cleanupIfNeeded()
}

func (s *JobStore) Get(id string) *model.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if j, ok := s.jobs[id]; ok {
		cp := *j
		return &cp
	}
	return nil
}

// GetByTenant returns the tenant's jobs, newest first.
func (s *JobStore) GetByTenant(tenant string) []*model.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*model.Job
	for _, j := range s.jobs {
		if j.Tenant == tenant {
			cp := *j
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, k int) bool {
		return result[i].CreatedAt.After(result[k].CreatedAt)
	})
	return result
}

func (s *JobStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, id)
}

// Update applies fn to the stored job under the lock. It reports whether the
// job exists.
func (s *JobStore) Update(id string, fn func(*model.Job)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return false
	}
	fn(j)
	j.UpdatedAt = time.Now()
	return true
}

func (s *JobStore) UpdateStatus(id, status, errMsg string) {
	s.Update(id, func(j *model.Job) {
		j.Status = status
		j.ErrorMsg = errMsg
	})
}

// UpdateProgress records a progress event; percentages never go backwards.
func (s *JobStore) UpdateProgress(id string, percent int, phase string) {
	s.Update(id, func(j *model.Job) {
		if p := clampPercent(percent); p > j.Progress {
			j.Progress = p
		}
		j.Phase = phase
	})
}

// cleanupIfNeeded removes the oldest finished jobs once the store exceeds
// maxJobs. Running jobs are never evicted.
// Must be called with lock held
func (s *JobStore) cleanupIfNeeded() {
	if s.maxJobs <= 0 || len(s.jobs) <= s.maxJobs {
		return
	}

	finished := make([]*model.Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		if j.Terminal() {
			finished = append(finished, j)
		}
	}
	sort.Slice(finished, func(i, k int) bool {
		return finished[i].CreatedAt.Before(finished[k].CreatedAt)
	})

	removeCount := len(s.jobs) - s.maxJobs
	for i := 0; i < removeCount && i < len(finished); i++ {
		slog.Info("evicting old job record",
			"job_id", finished[i].ID,
			"created_at", finished[i].CreatedAt,
		)
		delete(s.jobs, finished[i].ID)
	}
}

// Count returns the number of jobs in the store
func (s *JobStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}
