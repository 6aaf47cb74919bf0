package session

import (
	"context"
	"sync"
	"testing"
	"time"

	assert_ "github.com/stretchr/testify/assert"

	"github.com/alanbriolat/spotdown/internal/backend"
)

type updateRecorder struct {
	mu      sync.Mutex
	updates []Task
}

func (r *updateRecorder) record(_ *PollHandle, task Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, task)
}

func (r *updateRecorder) statuses() []TaskStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []TaskStatus
	for _, u := range r.updates {
		result = append(result, u.Status)
	}
	return result
}

func (r *updateRecorder) last() Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updates[len(r.updates)-1]
}

func waitDone(t *testing.T, h *PollHandle) {
	select {
	case <-h.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("poll did not finish")
	}
}

func TestPoller_FullSequence(t *testing.T) {
	assert := assert_.New(t)
	b := newFakeBackend()
	b.setProgress(script(
		progress(backend.StatusStarting),
		downloading(30),
		downloading(30),
		progress(backend.StatusProcessing),
		progress(backend.StatusCompleted),
	))
	rec := &updateRecorder{}

	h := NewPoller(b, time.Millisecond, 0).Start(context.Background(), testTask(), rec.record)
	waitDone(t, h)

	assert.Equal([]TaskStatus{TaskStatusDownloading, TaskStatusProcessing, TaskStatusCompleted}, rec.statuses())
	assert.Equal(100.0, rec.last().Percent)
	assert.Equal(5, b.progressCount("t1"))

	// No requests once the task is terminal
	time.Sleep(20 * time.Millisecond)
	assert.Equal(5, b.progressCount("t1"))
}

func TestPoller_JobError(t *testing.T) {
	assert := assert_.New(t)
	b := newFakeBackend()
	b.setProgress(script(
		downloading(45),
		&backend.Progress{Status: backend.StatusFailed, Error: "disk full"},
	))
	rec := &updateRecorder{}

	h := NewPoller(b, time.Millisecond, 0).Start(context.Background(), testTask(), rec.record)
	waitDone(t, h)

	last := rec.last()
	assert.Equal(TaskStatusError, last.Status)
	assert.Equal("disk full", last.ErrorDetail)
	assert.Equal(2, b.progressCount("t1"))
}

func TestPoller_TransportErrorKeepsPolling(t *testing.T) {
	assert := assert_.New(t)
	b := newFakeBackend()
	b.setProgress(script(nil, nil, progress(backend.StatusCompleted)))
	rec := &updateRecorder{}

	h := NewPoller(b, time.Millisecond, time.Nanosecond).Start(context.Background(), testTask(), rec.record)
	waitDone(t, h)

	assert.Equal([]TaskStatus{TaskStatusCompleted}, rec.statuses())
	assert.Equal(3, b.progressCount("t1"))
}

func TestPoller_StallTimeout(t *testing.T) {
	assert := assert_.New(t)
	b := newFakeBackend()
	rec := &updateRecorder{}

	p := NewPoller(b, time.Millisecond, 5*time.Minute)
	clock := time.Unix(0, 0)
	p.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	h := p.Start(context.Background(), testTask(), rec.record)
	waitDone(t, h)

	assert.Equal([]TaskStatus{TaskStatusError}, rec.statuses())
	assert.Equal("no progress for 5m0s", rec.last().ErrorDetail)
	assert.Equal(5, b.progressCount("t1"))
}

func TestPoller_Cancel(t *testing.T) {
	assert := assert_.New(t)
	b := newFakeBackend()
	rec := &updateRecorder{}

	h := NewPoller(b, time.Millisecond, 0).Start(context.Background(), testTask(), rec.record)
	assert.Equal(TaskID("t1"), h.TaskID())
	assert.Eventually(func() bool { return b.progressCount("t1") > 0 }, time.Second, time.Millisecond)
	h.Cancel()
	waitDone(t, h)

	count := b.progressCount("t1")
	time.Sleep(20 * time.Millisecond)
	assert.Equal(count, b.progressCount("t1"))
	assert.Empty(rec.statuses())
}
