// Package audit keeps the append-only journal of record lifecycle events.
// Entries are written once under a monotonically increasing sequence key and
// never updated or deleted.
package audit

import (
	"encoding/json"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// Lifecycle events recorded in the journal.
const (
	EventRecordCreated    = "record_created"
	EventBatchCreated     = "batch_created"
	EventRecordApproved   = "record_approved"
	EventBatchApproved    = "batch_approved"
	EventUserCreated      = "user_created"
	EventSignatureUpdated = "signature_updated"
)

const keyPrefix = "audit/"

// Entry is one journal line.
type Entry struct {
	ID         string    `json:"id"`
	Seq        uint64    `json:"seq"`
	Event      string    `json:"event"`
	RecordKind string    `json:"record_kind,omitempty"` // checklist | calibration | user
	RecordID   string    `json:"record_id,omitempty"`
	Actor      string    `json:"actor,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	At         time.Time `json:"at"`
}

// Journal is a badger-backed append-only event log.
type Journal struct {
	db  *badger.DB
	seq *badger.Sequence
}

// Open opens (or creates) the journal under dir.
func Open(dir string) (*Journal, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	return open(opts)
}

// OpenInMemory opens a journal that lives only for the process. Used in tests.
func OpenInMemory() (*Journal, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts)
}

func open(opts badger.Options) (*Journal, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening audit journal: %w", err)
	}
	seq, err := db.GetSequence([]byte("audit_seq"), 64)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("opening audit sequence: %w", err)
	}
	return &Journal{db: db, seq: seq}, nil
}

// Close releases the sequence and closes the store.
func (j *Journal) Close() error {
	if err := j.seq.Release(); err != nil {
		j.db.Close()
		return err
	}
	return j.db.Close()
}

// Append writes one entry. The sequence number and entry ID are assigned
// here; callers only describe the event.
func (j *Journal) Append(e Entry) error {
	seq, err := j.seq.Next()
	if err != nil {
		return fmt.Errorf("assigning audit sequence: %w", err)
	}
	e.Seq = seq
	e.ID = uuid.NewString()
	if e.At.IsZero() {
		e.At = time.Now()
	}
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding audit entry: %w", err)
	}
	key := []byte(fmt.Sprintf("%s%020d", keyPrefix, seq))
	return j.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

// List returns all entries in append order.
func (j *Journal) List() ([]Entry, error) {
	var entries []Entry
	err := j.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek([]byte(keyPrefix)); it.ValidForPrefix([]byte(keyPrefix)); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var e Entry
				if err := json.Unmarshal(val, &e); err != nil {
					return err
				}
				entries = append(entries, e)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading audit journal: %w", err)
	}
	return entries, nil
}
