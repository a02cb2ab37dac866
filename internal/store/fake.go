package store

import "github.com/sweeney/rachio-notifier/internal/logic"

// FakeStore keeps the record in memory for test assertions.
type FakeStore struct {
	// Record is returned by Load when Exists is true.
	Record logic.Record

	// Exists controls whether Load returns ErrNotFound.
	Exists bool

	// Saved contains every record passed to Save.
	Saved []logic.Record

	// LoadError, if set, will be returned by Load.
	LoadError error

	// SaveError, if set, will be returned by Save.
	SaveError error
}

// NewFakeStore creates a FakeStore holding rec.
func NewFakeStore(rec logic.Record) *FakeStore {
	return &FakeStore{Record: rec, Exists: true}
}

// NewEmptyFakeStore creates a FakeStore with no record written yet.
func NewEmptyFakeStore() *FakeStore {
	return &FakeStore{}
}

// Load returns the stored record.
func (f *FakeStore) Load() (logic.Record, error) {
	if f.LoadError != nil {
		return logic.Record{}, f.LoadError
	}
	if !f.Exists {
		return logic.Record{}, ErrNotFound
	}
	return f.Record, nil
}

// Save records rec and makes it the current record.
func (f *FakeStore) Save(rec logic.Record) error {
	if f.SaveError != nil {
		return f.SaveError
	}
	f.Saved = append(f.Saved, rec)
	f.Record = rec
	f.Exists = true
	return nil
}
