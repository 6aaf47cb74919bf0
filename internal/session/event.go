package session

type Event interface {
	// The session state right after the change this event describes.
	State() State
}

type stateEvent struct {
	state State
}

func (e stateEvent) State() State {
	return e.state
}

type SearchStarted struct {
	stateEvent
}
type ItemResolved struct {
	stateEvent
}
type SearchFailed struct {
	stateEvent
	Err error
}
type DownloadInitiating struct {
	stateEvent
}
type TaskCreated struct {
	stateEvent
	Task Task
}
type InitiationFailed struct {
	stateEvent
	Err error
}
type TaskUpdated struct {
	stateEvent
	Old Task
	New Task
}
type TaskFinished struct {
	stateEvent
	Task Task
}
type SessionReset struct {
	stateEvent
}
