package session

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/alanbriolat/spotdown/generic"
	"github.com/alanbriolat/spotdown/internal/backend"
	"github.com/alanbriolat/spotdown/internal/preference"
)

type TaskID string

type TaskStatus string

const (
	TaskStatusStarting    TaskStatus = backend.StatusStarting
	TaskStatusDownloading TaskStatus = backend.StatusDownloading
	TaskStatusProcessing  TaskStatus = backend.StatusProcessing
	TaskStatusCompleted   TaskStatus = backend.StatusCompleted
	TaskStatusError       TaskStatus = backend.StatusFailed
)

// Position in the success path; a task only ever moves forward along it.
var taskStatusRank = map[TaskStatus]int{
	TaskStatusStarting:    0,
	TaskStatusDownloading: 1,
	TaskStatusProcessing:  2,
	TaskStatusCompleted:   3,
}

var terminalStatuses = generic.NewSet(TaskStatusCompleted, TaskStatusError)

// ParseTaskStatus maps a backend status string, returning false for values this client doesn't know.
func ParseTaskStatus(s string) (TaskStatus, bool) {
	status := TaskStatus(strings.ToLower(strings.TrimSpace(s)))
	if status == TaskStatusError {
		return status, true
	}
	_, ok := taskStatusRank[status]
	return status, ok
}

// IsTerminal returns true for statuses after which nothing changes.
func (s TaskStatus) IsTerminal() bool {
	return terminalStatuses.Contains(s)
}

// MultiItemProgress is present for jobs that download a collection.
type MultiItemProgress struct {
	CurrentIndex     int
	TotalCount       int
	CurrentItemLabel string
}

// TaskHandle identifies a job the backend accepted.
type TaskHandle struct {
	ID        TaskID
	SourceURL string
	Quality   preference.Quality
}

type Task struct {
	ID          TaskID
	SourceURL   string
	Quality     preference.Quality
	Status      TaskStatus
	Percent     float64
	Items       *MultiItemProgress
	ErrorDetail string
	UpdatedAt   time.Time
}

func newTask(handle TaskHandle, now time.Time) Task {
	return Task{
		ID:        handle.ID,
		SourceURL: handle.SourceURL,
		Quality:   handle.Quality,
		Status:    TaskStatusStarting,
		UpdatedAt: now,
	}
}

// Apply folds one progress report into the task, returning the new task and whether anything changed. Unknown or
// backwards statuses are ignored, as is anything after a terminal status. Forward jumps (e.g. starting straight to
// completed) are accepted since a fast job can pass several statuses between two polls.
func (t Task) Apply(p *backend.Progress) (Task, bool) {
	if p == nil || t.Status.IsTerminal() {
		return t, false
	}
	status, ok := ParseTaskStatus(p.Status)
	if !ok {
		return t, false
	}

	next := t
	if status == TaskStatusError {
		detail := strings.TrimSpace(p.Error)
		if detail == "" {
			detail = "unknown error"
		}
		return next.fail(detail), true
	}
	if taskStatusRank[status] < taskStatusRank[t.Status] {
		return t, false
	}
	next.Status = status

	switch status {
	case TaskStatusDownloading:
		if p.Percent != nil {
			next.Percent = math.Max(t.Percent, clampPercent(*p.Percent))
		}
	case TaskStatusProcessing, TaskStatusCompleted:
		next.Percent = 100
	}

	if p.CurrentTrack != nil && p.TotalTracks != nil && *p.TotalTracks > 0 {
		next.Items = &MultiItemProgress{
			CurrentIndex:     *p.CurrentTrack,
			TotalCount:       *p.TotalTracks,
			CurrentItemLabel: p.Filename,
		}
	}

	return next, !next.sameProgress(t)
}

func (t Task) fail(detail string) Task {
	t.Status = TaskStatusError
	t.ErrorDetail = detail
	return t
}

func (t Task) sameProgress(other Task) bool {
	if t.Status != other.Status || t.Percent != other.Percent || t.ErrorDetail != other.ErrorDetail {
		return false
	}
	if t.Items == nil || other.Items == nil {
		return t.Items == other.Items
	}
	return *t.Items == *other.Items
}

// StatusLine is a one-line human readable summary.
func (t Task) StatusLine() string {
	switch t.Status {
	case TaskStatusStarting:
		return "starting download..."
	case TaskStatusDownloading:
		if t.Items != nil {
			line := fmt.Sprintf("downloading %d/%d", t.Items.CurrentIndex, t.Items.TotalCount)
			if t.Items.CurrentItemLabel != "" {
				line += ": " + t.Items.CurrentItemLabel
			}
			return line
		}
		return fmt.Sprintf("downloading %.0f%%", t.Percent)
	case TaskStatusProcessing:
		return "processing..."
	case TaskStatusCompleted:
		return "download complete"
	case TaskStatusError:
		return "download failed: " + t.ErrorDetail
	default:
		return string(t.Status)
	}
}

func clampPercent(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
