// Package session tracks one lookup-and-download cycle at a time against the backend job processor.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/alanbriolat/spotdown/internal/media"
	"github.com/alanbriolat/spotdown/internal/metrics"
	"github.com/alanbriolat/spotdown/internal/pubsub"
)

// Session is the lookup -> download -> poll state machine. At most one task is tracked at a time; starting a new
// search (or resetting, or closing) cancels the active poll, and updates from a cancelled poll are discarded.
type Session struct {
	config    Config
	ctx       context.Context
	ctxCancel context.CancelFunc
	log       *zap.SugaredLogger
	now       func() time.Time

	resolver  *Resolver
	initiator *Initiator
	poller    *Poller

	mu         sync.Mutex
	state      State
	generation uint64 // Bumped by every search and reset, to fence stale responses
	poll       *PollHandle
	closed     bool

	// Events are queued under mu and published in order by a single dispatcher, so that state changes never wait on
	// subscribers.
	outbox         []Event
	wake           chan struct{}
	stopDispatch   chan struct{}
	dispatcherDone chan struct{}
	// Cancelled on close, after which a subscriber that isn't keeping up is dropped.
	deliveryCtx    context.Context
	cancelDelivery context.CancelFunc
	events         pubsub.Publisher[Event]
}

func New(ctx context.Context, config Config, b Backend) (*Session, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session config: %w", err)
	}
	ctx, cancel := context.WithCancel(ctx)
	deliveryCtx, cancelDelivery := context.WithCancel(context.Background())
	s := &Session{
		config:    config,
		ctx:       ctx,
		ctxCancel: cancel,
		log:       zap.S().Named("session"),
		now:       time.Now,

		resolver:  NewResolver(b),
		initiator: NewInitiator(b, config.Preferences),
		poller:    NewPoller(b, config.PollInterval, config.StallTimeout),

		state: State{Phase: PhaseIdle},

		wake:           make(chan struct{}, 1),
		stopDispatch:   make(chan struct{}),
		dispatcherDone: make(chan struct{}),
		deliveryCtx:    deliveryCtx,
		cancelDelivery: cancelDelivery,
		events:         pubsub.NewPublisher[Event](),
	}
	go s.dispatch()
	// Tearing down the parent context closes the session
	go func() {
		<-s.ctx.Done()
		s.Close()
	}()
	return s, nil
}

// Subscribe returns a receiver of every Event from now on. It is closed when the Session closes.
func (s *Session) Subscribe() (pubsub.ReceiverCloser[Event], error) {
	return s.events.Subscribe()
}

func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Search looks up sourceURL, replacing whatever was resolved or tracked before. If another Search or Reset happens
// while the lookup is in flight, its result is discarded and ErrSuperseded is returned.
func (s *Session) Search(ctx context.Context, sourceURL string) (media.ResolvedItem, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return media.ResolvedItem{}, ErrSessionClosed
	}
	s.cancelPollLocked()
	s.generation++
	generation := s.generation
	s.state = State{Phase: PhaseSearching, Query: sourceURL, Status: "looking up..."}
	s.emitLocked(SearchStarted{stateEvent{s.state}})
	s.mu.Unlock()

	item, err := s.resolver.Resolve(ctx, sourceURL)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return media.ResolvedItem{}, ErrSessionClosed
	}
	if generation != s.generation {
		metrics.Lookups.WithLabelValues("superseded").Inc()
		s.log.Debugw("discarding superseded lookup", "url", sourceURL)
		return media.ResolvedItem{}, ErrSuperseded
	}
	if err != nil {
		metrics.Lookups.WithLabelValues("failed").Inc()
		s.state.Phase = PhaseSearchFailed
		s.state.Err = err
		s.state.Status = err.Error()
		s.emitLocked(SearchFailed{stateEvent{s.state}, err})
		return media.ResolvedItem{}, err
	}
	metrics.Lookups.WithLabelValues("resolved").Inc()
	s.state.Phase = PhaseResolved
	s.state.Item = &item
	s.state.Status = "ready to download"
	s.emitLocked(ItemResolved{stateEvent{s.state}})
	return item, nil
}

// Download starts a job for the resolved item and begins polling it. It does nothing (returning ErrTaskActive,
// ErrAlreadyCompleted or ErrNothingResolved) when a download isn't allowed in the current phase.
func (s *Session) Download(ctx context.Context) (TaskHandle, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return TaskHandle{}, ErrSessionClosed
	}
	if err := s.downloadAllowedLocked(); err != nil {
		s.mu.Unlock()
		return TaskHandle{}, err
	}
	item := *s.state.Item
	query := s.state.Query
	generation := s.generation
	s.state.Phase = PhaseInitiating
	s.state.Task = nil
	s.state.Err = nil
	s.state.Status = "starting download..."
	s.emitLocked(DownloadInitiating{stateEvent{s.state}})
	s.mu.Unlock()

	handle, err := s.initiator.Initiate(ctx, item, query)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || generation != s.generation || s.state.Phase != PhaseInitiating {
		if err == nil {
			s.log.Warnw("job started for an item that is no longer current, not tracking it", "task_id", handle.ID)
		}
		if s.closed {
			return handle, ErrSessionClosed
		}
		return handle, ErrSuperseded
	}
	if err != nil {
		s.state.Phase = PhaseInitiationFailed
		s.state.Err = err
		s.state.Status = err.Error()
		s.emitLocked(InitiationFailed{stateEvent{s.state}, err})
		return TaskHandle{}, err
	}

	task := newTask(handle, s.now())
	s.state.Phase = PhasePolling
	s.state.Task = &task
	s.state.Status = task.StatusLine()
	s.poll = s.poller.Start(s.ctx, task, s.onPollUpdate)
	s.emitLocked(TaskCreated{stateEvent{s.state}, task})
	return handle, nil
}

// Reset cancels any tracked task and forgets the resolved item.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.cancelPollLocked()
	s.generation++
	s.state = State{Phase: PhaseIdle}
	s.emitLocked(SessionReset{stateEvent{s.state}})
}

// Close stops polling, waits for the poll to exit, delivers pending events and closes all subscribers. Subscribers
// that have stopped reading don't hold it up: they are closed without the events that didn't fit in their buffer.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	h := s.poll
	s.cancelPollLocked()
	s.mu.Unlock()

	s.ctxCancel()
	if h != nil {
		h.Wait()
	}
	s.cancelDelivery()
	close(s.stopDispatch)
	<-s.dispatcherDone
	s.events.Close()
}

func (s *Session) downloadAllowedLocked() error {
	switch s.state.Phase {
	case PhaseInitiating, PhasePolling:
		return ErrTaskActive
	case PhaseCompleted:
		return ErrAlreadyCompleted
	}
	if !s.state.CanDownload() {
		return ErrNothingResolved
	}
	return nil
}

func (s *Session) cancelPollLocked() {
	if s.poll != nil {
		s.log.Debugw("cancelling poll", "task_id", s.poll.TaskID())
		s.poll.Cancel()
		s.poll = nil
	}
}

func (s *Session) onPollUpdate(h *PollHandle, task Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.poll != h {
		s.log.Debugw("dropping update from cancelled poll", "task_id", task.ID)
		return
	}

	var old Task
	if s.state.Task != nil {
		old = *s.state.Task
	}
	s.state.Task = &task
	s.state.Status = task.StatusLine()

	if !task.Status.IsTerminal() {
		s.emitLocked(TaskUpdated{stateEvent{s.state}, old, task})
		return
	}

	s.poll = nil
	if task.Status == TaskStatusCompleted {
		s.state.Phase = PhaseCompleted
		s.state.Err = nil
	} else {
		s.state.Phase = PhaseFailed
		s.state.Err = &JobError{TaskID: task.ID, Message: task.ErrorDetail}
		s.state.Status = s.state.Err.Error()
	}
	var title string
	if s.state.Item != nil {
		title = s.state.Item.Display().Title
	}
	if err := s.config.History.RecordTask(newTaskRecord(task, title)); err != nil {
		s.log.Errorw("failed to record finished task", "task_id", task.ID, "error", err)
	}
	s.emitLocked(TaskFinished{stateEvent{s.state}, task})
}

func (s *Session) emitLocked(e Event) {
	s.outbox = append(s.outbox, e)
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Session) dispatch() {
	defer close(s.dispatcherDone)
	for {
		select {
		case <-s.wake:
			s.flush()
		case <-s.stopDispatch:
			s.flush()
			return
		}
	}
}

func (s *Session) flush() {
	s.mu.Lock()
	pending := s.outbox
	s.outbox = nil
	s.mu.Unlock()
	for _, e := range pending {
		s.events.SendContext(s.deliveryCtx, e)
	}
}
