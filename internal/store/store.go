// Package store persists the record carried between invocations as a small
// JSON file.
package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/sweeney/rachio-notifier/internal/logic"
)

// DefaultPath is where the record lives when no path is configured.
const DefaultPath = "/var/lib/misc/sprinklers.json"

// ErrNotFound is returned by Load when no record has been written yet.
var ErrNotFound = errors.New("state file not found")

// Store loads and saves the persisted record.
type Store interface {
	Load() (logic.Record, error)
	Save(rec logic.Record) error
}

// fileRecord is the on-disk layout. Both keys may be null or missing.
type fileRecord struct {
	NextRun  *string `json:"next_run"`
	Reminder *bool   `json:"reminder"`
}

var _ Store = &File{}

// File is a Store backed by a single JSON file. It provides no locking:
// concurrent invocations race and the last writer wins.
type File struct {
	path string
}

// NewFile returns a File store for the given path.
func NewFile(path string) *File {
	if path == "" {
		path = DefaultPath
	}
	return &File{path: path}
}

// Path returns the file location.
func (f *File) Path() string {
	return f.path
}

// Load reads the record. Missing or null keys are logged and treated as absent.
func (f *File) Load() (logic.Record, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return logic.Record{}, ErrNotFound
		}
		return logic.Record{}, pkgerrors.Wrapf(err, "failed to read state file %s", f.path)
	}

	var raw fileRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return logic.Record{}, pkgerrors.Wrapf(err, "failed to decode state file %s", f.path)
	}

	var rec logic.Record
	if raw.NextRun != nil {
		rec.NextRun = *raw.NextRun
	} else {
		logrus.WithField("path", f.path).Warn("next_run not found in state file")
	}
	if raw.Reminder != nil {
		rec.ReminderSent = *raw.Reminder
	} else {
		logrus.WithField("path", f.path).Warn("reminder not found in state file")
	}

	return rec, nil
}

// Save replaces the record wholesale. The data is written to a temporary file
// in the same directory and renamed over the target.
func (f *File) Save(rec logic.Record) error {
	raw := fileRecord{Reminder: &rec.ReminderSent}
	if rec.NextRun != "" {
		raw.NextRun = &rec.NextRun
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to encode state")
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return pkgerrors.Wrapf(err, "failed to create state directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return pkgerrors.Wrap(err, "failed to create temp state file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return pkgerrors.Wrap(err, "failed to write temp state file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return pkgerrors.Wrap(err, "failed to close temp state file")
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return pkgerrors.Wrap(err, "failed to chmod temp state file")
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return pkgerrors.Wrapf(err, "failed to replace state file %s", f.path)
	}

	logrus.WithFields(logrus.Fields{
		"path":     f.path,
		"next_run": rec.NextRun,
		"reminder": rec.ReminderSent,
	}).Debug("state saved")
	return nil
}
