package session

import (
	"time"

	"github.com/alanbriolat/spotdown/internal/preference"
)

// TaskRecord is what's kept about a task once it has finished.
type TaskRecord struct {
	ID          TaskID
	SourceURL   string
	Title       string
	Quality     preference.Quality
	Status      TaskStatus
	ErrorDetail string
	FinishedAt  time.Time
}

func newTaskRecord(task Task, title string) TaskRecord {
	return TaskRecord{
		ID:          task.ID,
		SourceURL:   task.SourceURL,
		Title:       title,
		Quality:     task.Quality,
		Status:      task.Status,
		ErrorDetail: task.ErrorDetail,
		FinishedAt:  task.UpdatedAt,
	}
}

// History stores finished tasks.
type History interface {
	RecordTask(TaskRecord) error
	ListTasks() ([]TaskRecord, error)
}

type NilHistory struct{}

func (h NilHistory) RecordTask(_ TaskRecord) error {
	return nil
}

func (h NilHistory) ListTasks() ([]TaskRecord, error) {
	return nil, nil
}
