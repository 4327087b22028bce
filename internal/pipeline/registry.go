package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-engine/internal/model"
)

// Registry is the in-memory job map. Records live for the retention
// window measured from submission; a background sweep plus a lazy check
// on read enforce expiry. Terminal states are absorbing: once a job is
// completed or errored, further mutations are ignored.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]*model.Job

	retention time.Duration
	sweep     time.Duration
	now       func() time.Time
}

// NewRegistry creates a job registry with the given retention window and
// sweep interval.
func NewRegistry(retention, sweep time.Duration) *Registry {
	return &Registry{
		jobs:      make(map[string]*model.Job),
		retention: retention,
		sweep:     sweep,
		now:       time.Now,
	}
}

// NewJobID mints a process-unique job id: a millisecond timestamp plus a
// random suffix, so ids sort roughly by submission time.
func NewJobID() string {
	return fmt.Sprintf("analysis_%d_%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}

// Add registers a new job record.
func (r *Registry) Add(job *model.Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = job
}

// Get returns a copy of the job if present and unexpired. Expired records
// are removed on read.
func (r *Registry) Get(id string) (*model.Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return nil, false
	}
	if r.now().After(job.ExpiresAt) {
		delete(r.jobs, id)
		return nil, false
	}
	cp := *job
	return &cp, true
}

// Update applies fn to the job under the registry lock. Updates to a job
// already in a terminal state are dropped; progress never decreases.
func (r *Registry) Update(id string, fn func(*model.Job)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok || job.Status.Terminal() {
		return
	}
	before := job.Progress
	fn(job)
	if job.Progress < before {
		job.Progress = before
	}
}

// Len reports the number of live records.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}

// Run sweeps expired records until the context is canceled.
func (r *Registry) Run(ctx context.Context) {
	ticker := time.NewTicker(r.sweep)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.evictExpired(); n > 0 {
				zap.L().Debug("evicted expired jobs", zap.Int("count", n))
			}
		}
	}
}

func (r *Registry) evictExpired() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	n := 0
	for id, job := range r.jobs {
		if now.After(job.ExpiresAt) {
			delete(r.jobs, id)
			n++
		}
	}
	return n
}
