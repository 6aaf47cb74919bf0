// Package boltdb keeps preferences and finished-task history in a single bbolt file.
package boltdb

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/alanbriolat/spotdown/internal/preference"
	"github.com/alanbriolat/spotdown/internal/session"
)

var Buckets = struct {
	Metadata    []byte
	Preferences []byte
	Tasks       []byte
}{
	Metadata:    []byte("__metadata__"),
	Preferences: []byte("preferences"),
	Tasks:       []byte("tasks"),
}

var MetadataKeys = struct {
	Version []byte
}{
	Version: []byte("version"),
}

const currentVersion = 1

type Database interface {
	Close() error

	preference.Store
	session.History
}

type database struct {
	*bbolt.DB
}

func New(path string) (_ Database, err error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) (err error) {
		var metadata *bbolt.Bucket
		if metadata, err = tx.CreateBucketIfNotExists(Buckets.Metadata); err != nil {
			return err
		}
		for _, name := range [][]byte{Buckets.Preferences, Buckets.Tasks} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}

		var version int
		if versionBytes := metadata.Get(MetadataKeys.Version); versionBytes == nil {
			version = 0
		} else if err = json.Unmarshal(versionBytes, &version); err != nil {
			return err
		}
		if version > currentVersion {
			return fmt.Errorf("database version %d is newer than supported version %d", version, currentVersion)
		}

		if versionBytes, err := json.Marshal(currentVersion); err != nil {
			return err
		} else if err = metadata.Put(MetadataKeys.Version, versionBytes); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &database{db}, nil
}

func (d database) Get(key string) (value string, err error) {
	err = d.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(Buckets.Preferences).Get([]byte(key))
		if v == nil {
			return preference.ErrNotFound
		}
		value = string(v)
		return nil
	})
	return value, err
}

func (d database) Set(key, value string) error {
	return d.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(Buckets.Preferences).Put([]byte(key), []byte(value))
	})
}

// taskKey sorts records by finish time, then by id.
func taskKey(r session.TaskRecord) []byte {
	return []byte(r.FinishedAt.UTC().Format("20060102T150405.000000000Z") + "/" + string(r.ID))
}

func (d database) RecordTask(r session.TaskRecord) error {
	if data, err := json.Marshal(r); err != nil {
		return err
	} else {
		return d.Update(func(tx *bbolt.Tx) error {
			return tx.Bucket(Buckets.Tasks).Put(taskKey(r), data)
		})
	}
}

// ListTasks returns every recorded task, oldest first.
func (d database) ListTasks() (records []session.TaskRecord, err error) {
	err = d.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(Buckets.Tasks).ForEach(func(k, v []byte) error {
			var r session.TaskRecord
			if err := json.Unmarshal(v, &r); err != nil {
				return fmt.Errorf("task %s: %w", k, err)
			}
			records = append(records, r)
			return nil
		})
	})
	if err != nil {
		return nil, err
	} else {
		return records, nil
	}
}

// OnDemand opens the database at Path for each operation and closes it straight after, so the file lock is only
// held briefly and several processes can share the file.
type OnDemand struct {
	Path string
}

var (
	_ preference.Store = OnDemand{}
	_ session.History  = OnDemand{}
)

func (o OnDemand) with(fn func(Database) error) (err error) {
	db, err := New(o.Path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); err == nil {
			err = closeErr
		}
	}()
	return fn(db)
}

func (o OnDemand) Get(key string) (value string, err error) {
	err = o.with(func(db Database) (err error) {
		value, err = db.Get(key)
		return err
	})
	return value, err
}

func (o OnDemand) Set(key, value string) error {
	return o.with(func(db Database) error {
		return db.Set(key, value)
	})
}

func (o OnDemand) RecordTask(r session.TaskRecord) error {
	return o.with(func(db Database) error {
		return db.RecordTask(r)
	})
}

func (o OnDemand) ListTasks() (records []session.TaskRecord, err error) {
	err = o.with(func(db Database) (err error) {
		records, err = db.ListTasks()
		return err
	})
	return records, err
}
