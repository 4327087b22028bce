package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-engine/internal/model"
)

func newJob(id string, expires time.Time) *model.Job {
	return &model.Job{
		ID:        id,
		Status:    model.JobStatusStarted,
		StartedAt: time.Now(),
		ExpiresAt: expires,
	}
}

func TestRegistryGetMissing(t *testing.T) {
	r := NewRegistry(time.Hour, time.Minute)
	_, ok := r.Get("nope")
	assert.False(t, ok)
}

func TestRegistryLazyExpiryOnRead(t *testing.T) {
	r := NewRegistry(time.Hour, time.Minute)
	r.Add(newJob("j1", time.Now().Add(time.Hour)))

	r.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, ok := r.Get("j1")
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())
}

func TestRegistryUpdateMonotonicProgress(t *testing.T) {
	r := NewRegistry(time.Hour, time.Minute)
	r.Add(newJob("j1", time.Now().Add(time.Hour)))

	r.Update("j1", func(j *model.Job) { j.Progress = 40 })
	r.Update("j1", func(j *model.Job) { j.Progress = 25 })

	job, ok := r.Get("j1")
	require.True(t, ok)
	assert.Equal(t, 40, job.Progress)
}

func TestRegistryTerminalAbsorbing(t *testing.T) {
	r := NewRegistry(time.Hour, time.Minute)
	r.Add(newJob("j1", time.Now().Add(time.Hour)))

	r.Update("j1", func(j *model.Job) {
		j.Status = model.JobStatusError
		j.Error = &model.ErrorInfo{Message: "boom"}
	})
	r.Update("j1", func(j *model.Job) {
		j.Status = model.JobStatusCompleted
		j.Progress = 100
	})

	job, ok := r.Get("j1")
	require.True(t, ok)
	assert.Equal(t, model.JobStatusError, job.Status)
	assert.Equal(t, 0, job.Progress)
}

func TestRegistryGetReturnsCopy(t *testing.T) {
	r := NewRegistry(time.Hour, time.Minute)
	r.Add(newJob("j1", time.Now().Add(time.Hour)))

	job, ok := r.Get("j1")
	require.True(t, ok)
	job.Progress = 99

	fresh, _ := r.Get("j1")
	assert.Equal(t, 0, fresh.Progress)
}

func TestRegistrySweeperEvicts(t *testing.T) {
	r := NewRegistry(time.Hour, 10*time.Millisecond)
	r.Add(newJob("old", time.Now().Add(-time.Minute)))
	r.Add(newJob("live", time.Now().Add(time.Hour)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	require.Eventually(t, func() bool { return r.Len() == 1 }, time.Second, 10*time.Millisecond)
	_, ok := r.Get("live")
	assert.True(t, ok)
}

func TestNewJobIDUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for range 200 {
		id := NewJobID()
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
		assert.Regexp(t, `^analysis_\d+_[0-9a-f-]{8}$`, id)
	}
}
