package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/alanbriolat/spotdown/internal/backend"
	"github.com/alanbriolat/spotdown/internal/metrics"
	"github.com/alanbriolat/spotdown/internal/sync_"
)

// UpdateFunc receives every changed Task from a poll, along with the handle it came from. The last call for a handle
// carries a terminal status.
type UpdateFunc func(h *PollHandle, task Task)

// Poller tracks tasks by asking the backend for their progress at a fixed interval.
type Poller struct {
	backend      Backend
	interval     time.Duration
	stallTimeout time.Duration
	now          func() time.Time
	log          *zap.SugaredLogger
}

// NewPoller creates a Poller. A stallTimeout of 0 means a task may go without progress forever.
func NewPoller(b Backend, interval, stallTimeout time.Duration) *Poller {
	return &Poller{
		backend:      b,
		interval:     interval,
		stallTimeout: stallTimeout,
		now:          time.Now,
		log:          zap.S().Named("poller"),
	}
}

// PollHandle owns one running poll. Cancelling it stops the ticks; it never needs to be closed otherwise because the
// poll ends on its own once the task is terminal.
type PollHandle struct {
	taskID  TaskID
	cancel  context.CancelFunc
	stopped sync_.Event
}

func (h *PollHandle) TaskID() TaskID {
	return h.taskID
}

// Cancel stops polling without waiting; an update already being delivered may still arrive.
func (h *PollHandle) Cancel() {
	h.cancel()
}

// Done is closed once the poll goroutine has exited.
func (h *PollHandle) Done() <-chan struct{} {
	return h.stopped.Wait()
}

func (h *PollHandle) Wait() {
	<-h.Done()
}

// Start polls task until it is terminal or ctx is cancelled.
func (p *Poller) Start(ctx context.Context, task Task, onUpdate UpdateFunc) *PollHandle {
	ctx, cancel := context.WithCancel(ctx)
	h := &PollHandle{taskID: task.ID, cancel: cancel}
	go p.run(ctx, h, task, onUpdate)
	return h
}

func (p *Poller) run(ctx context.Context, h *PollHandle, task Task, onUpdate UpdateFunc) {
	defer h.stopped.Set()
	defer h.cancel()

	log := p.log.With("task_id", task.ID)
	limiter := rate.NewLimiter(rate.Every(p.interval), 1)
	lastChange := p.now()

	for {
		if err := limiter.Wait(ctx); err != nil {
			log.Debugf("polling stopped: %v", err)
			return
		}

		resp, err := p.backend.Progress(ctx, string(task.ID))
		if ctx.Err() != nil {
			log.Debug("polling cancelled")
			return
		}
		now := p.now()
		var next Task
		var changed bool
		if err != nil {
			log.Warnf("progress request failed, will retry: %v", err)
			// A backend that answers but refuses to report still counts towards the stall bound
			var statusErr *backend.StatusError
			if !errors.As(err, &statusErr) {
				metrics.PollTicks.WithLabelValues("transport_error").Inc()
				continue
			}
			metrics.PollTicks.WithLabelValues("status_error").Inc()
			next = task
		} else {
			metrics.PollTicks.WithLabelValues("ok").Inc()
			next, changed = task.Apply(resp)
		}

		if changed {
			lastChange = now
		} else if p.stallTimeout > 0 && now.Sub(lastChange) >= p.stallTimeout {
			next = task.fail(fmt.Sprintf("no progress for %v", p.stallTimeout))
			changed = true
		}
		if !changed {
			continue
		}

		next.UpdatedAt = now
		task = next
		log.Debugf("status %s, %.0f%%", task.Status, task.Percent)
		onUpdate(h, task)
		if task.Status.IsTerminal() {
			metrics.TasksFinished.WithLabelValues(string(task.Status)).Inc()
			log.Infof("task finished: %s", task.StatusLine())
			return
		}
	}
}
