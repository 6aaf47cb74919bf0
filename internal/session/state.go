package session

import (
	"fmt"

	"github.com/alanbriolat/spotdown/internal/media"
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSearching
	PhaseResolved
	PhaseSearchFailed
	PhaseInitiating
	PhaseInitiationFailed
	PhasePolling
	PhaseCompleted
	PhaseFailed
)

var phaseNames = map[Phase]string{
	PhaseIdle:             "idle",
	PhaseSearching:        "searching",
	PhaseResolved:         "resolved",
	PhaseSearchFailed:     "search-failed",
	PhaseInitiating:       "initiating",
	PhaseInitiationFailed: "initiation-failed",
	PhasePolling:          "polling",
	PhaseCompleted:        "completed",
	PhaseFailed:           "failed",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// State is a snapshot of the session. Item and Task point at values that are never modified once published.
type State struct {
	Phase Phase
	// The URL the user looked up.
	Query string
	Item  *media.ResolvedItem
	// The tracked task, or the last one once it's finished.
	Task *Task
	// Status is the single user-facing status line.
	Status string
	Err    error
}

// Tracking returns true while a job is being started or polled.
func (s State) Tracking() bool {
	return s.Phase == PhaseInitiating || s.Phase == PhasePolling
}

// CanDownload returns true if Download would submit a job.
func (s State) CanDownload() bool {
	switch s.Phase {
	case PhaseResolved, PhaseInitiationFailed, PhaseFailed:
		return s.Item != nil
	default:
		return false
	}
}
