package session

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyURL         = errors.New("empty source URL")
	ErrSuperseded       = errors.New("superseded by a newer request")
	ErrTaskActive       = errors.New("a task is already being tracked")
	ErrAlreadyCompleted = errors.New("item already downloaded")
	ErrNothingResolved  = errors.New("nothing resolved to download")
	ErrSessionClosed    = errors.New("session closed")
)

// ResolutionError means a metadata lookup failed, for whatever reason.
type ResolutionError struct {
	URL string
	Err error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("could not fetch information, check the link: %v", e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

type InitiationReason string

const (
	ReasonNoURL         InitiationReason = "no-url"
	ReasonMissingID     InitiationReason = "missing-id"
	ReasonRequestFailed InitiationReason = "request-failed"
)

// InitiationError means a download job could not be started, or was started without a usable task id.
type InitiationError struct {
	Reason InitiationReason
	Err    error
}

func (e *InitiationError) Error() string {
	switch e.Reason {
	case ReasonNoURL:
		return "could not start download: no source URL"
	case ReasonMissingID:
		return "could not start download: backend returned no task id"
	default:
		return fmt.Sprintf("could not start download: %v", e.Err)
	}
}

func (e *InitiationError) Unwrap() error {
	return e.Err
}

// JobError is a failure reported by the job processor itself. It is terminal for the task.
type JobError struct {
	TaskID  TaskID
	Message string
}

func (e *JobError) Error() string {
	return fmt.Sprintf("download failed: %s", e.Message)
}
