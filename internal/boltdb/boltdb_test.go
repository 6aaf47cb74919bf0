package boltdb

import (
	"path/filepath"
	"testing"
	"time"

	assert_ "github.com/stretchr/testify/assert"

	"github.com/alanbriolat/spotdown/internal/preference"
	"github.com/alanbriolat/spotdown/internal/session"
)

func openTestDB(t *testing.T) (Database, string) {
	path := filepath.Join(t.TempDir(), "spotdown.db")
	db, err := New(path)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	return db, path
}

func TestDatabase_Preferences(t *testing.T) {
	assert := assert_.New(t)
	db, path := openTestDB(t)

	q, err := preference.ReadQuality(db)
	assert.NoError(err)
	assert.Equal(preference.DefaultQuality, q)

	_, err = db.Get(preference.KeyQuality)
	assert.ErrorIs(err, preference.ErrNotFound)

	assert.NoError(preference.WriteQuality(db, preference.Quality192))
	assert.NoError(db.Close())

	// Survives reopening
	db, err = New(path)
	assert.NoError(err)
	defer db.Close()
	q, err = preference.ReadQuality(db)
	assert.NoError(err)
	assert.Equal(preference.Quality192, q)
}

func TestDatabase_Tasks(t *testing.T) {
	assert := assert_.New(t)
	db, _ := openTestDB(t)
	defer db.Close()

	records, err := db.ListTasks()
	assert.NoError(err)
	assert.Empty(records)

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	second := session.TaskRecord{
		ID:          "b",
		SourceURL:   "https://src/2",
		Title:       "Song B",
		Quality:     preference.Quality128,
		Status:      session.TaskStatusError,
		ErrorDetail: "disk full",
		FinishedAt:  base.Add(time.Minute),
	}
	first := session.TaskRecord{
		ID:         "a",
		SourceURL:  "https://src/1",
		Title:      "Song A",
		Quality:    preference.Quality320,
		Status:     session.TaskStatusCompleted,
		FinishedAt: base,
	}
	assert.NoError(db.RecordTask(second))
	assert.NoError(db.RecordTask(first))

	records, err = db.ListTasks()
	assert.NoError(err)
	assert.Equal([]session.TaskRecord{first, second}, records)
}

func TestOnDemand_ReleasesLock(t *testing.T) {
	assert := assert_.New(t)
	path := filepath.Join(t.TempDir(), "spotdown.db")
	store := OnDemand{Path: path}

	assert.NoError(preference.WriteQuality(store, preference.Quality256))
	record := session.TaskRecord{ID: "a", Status: session.TaskStatusCompleted, FinishedAt: time.Unix(0, 0).UTC()}
	assert.NoError(store.RecordTask(record))

	// Nothing stays open between operations, so another handle can take the lock
	db, err := New(path)
	if assert.NoError(err) {
		q, err := preference.ReadQuality(db)
		assert.NoError(err)
		assert.Equal(preference.Quality256, q)
		assert.NoError(db.Close())
	}

	records, err := store.ListTasks()
	assert.NoError(err)
	assert.Equal([]session.TaskRecord{record}, records)
	_, err = store.Get("missing")
	assert.ErrorIs(err, preference.ErrNotFound)
}
