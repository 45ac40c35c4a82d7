package study

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/chipflow-eda/dse-core/pkg/config"
)

// Store persists one study in an embedded BadgerDB keyed by study name,
// so several studies can share a storage directory. Writes are synchronous
// for persistent stores: a trial transition is durable before the
// scheduler makes its next decision, and a crash between batches loses at
// most the in-flight batch.
type Store struct {
	db   *badger.DB
	name string

	nextTrialID int64
	lastBatchID int64
}

type studyMeta struct {
	Name             string `json:"name"`
	SpaceFingerprint string `json:"space_fingerprint"`
	CreatedAtUnixMs  int64  `json:"created_at_unix_ms"`
}

// Open opens (or creates) the study named name in the database directory
// at path, and resumes the trial-id and batch-id counters from their
// stored maxima.
func Open(path, name string) (*Store, error) {
	opts := badger.DefaultOptions(path).
		WithSyncWrites(true).
		WithLogger(nil)
	return open(opts, name)
}

// OpenInMemory opens a throwaway in-memory store for tests.
func OpenInMemory(name string) (*Store, error) {
	opts := badger.DefaultOptions("").
		WithInMemory(true).
		WithLogger(nil)
	return open(opts, name)
}

func open(opts badger.Options, name string) (*Store, error) {
	if name == "" {
		return nil, storageErr("open", errors.New("study name must not be empty"))
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, storageErr("open", err)
	}

	s := &Store{db: db, name: name}
	if err := s.load(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return storageErr("close", err)
	}
	return nil
}

// Name returns the study name.
func (s *Store) Name() string {
	return s.name
}

func (s *Store) metaKey() []byte {
	return []byte("study!" + s.name + "!meta")
}

func (s *Store) batchSeqKey() []byte {
	return []byte("study!" + s.name + "!batch_seq")
}

func (s *Store) trialPrefix() []byte {
	return []byte("study!" + s.name + "!trial!")
}

func (s *Store) trialKey(id int64) []byte {
	// Zero-padded so lexicographic key order equals id order.
	return []byte(fmt.Sprintf("study!%s!trial!%012d", s.name, id))
}

// load resumes the counters from the stored history: next trial id is the
// stored maximum + 1, and the batch sequence continues where it stopped.
func (s *Store) load() error {
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{
			Prefix:  s.trialPrefix(),
			Reverse: false,
		})
		defer it.Close()

		var maxID int64 = -1
		for it.Rewind(); it.Valid(); it.Next() {
			var t Trial
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &t)
			})
			if err != nil {
				return fmt.Errorf("decode trial %s: %w", it.Item().Key(), err)
			}
			if t.ID > maxID {
				maxID = t.ID
			}
		}
		s.nextTrialID = maxID + 1

		item, err := txn.Get(s.batchSeqKey())
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			s.lastBatchID = 0
		case err != nil:
			return err
		default:
			if err := item.Value(func(val []byte) error {
				if len(val) != 8 {
					return fmt.Errorf("batch sequence value has %d bytes", len(val))
				}
				s.lastBatchID = int64(binary.BigEndian.Uint64(val))
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return storageErr("load", err)
	}
	return nil
}

// EnsureSpace records the parameter-space fingerprint on first use and
// verifies it on resume. The space is immutable once a study starts;
// resuming against a different space is a configuration error.
func (s *Store) EnsureSpace(fingerprint string) error {
	var existing *studyMeta
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.metaKey())
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			existing = &studyMeta{}
			return json.Unmarshal(val, existing)
		})
	})
	if err != nil {
		return storageErr("read meta", err)
	}

	if existing != nil {
		if existing.SpaceFingerprint != fingerprint {
			return config.NewConfigError(
				"study %q was created with a different parameter space; refusing to resume", s.name)
		}
		return nil
	}

	meta := studyMeta{
		Name:             s.name,
		SpaceFingerprint: fingerprint,
		CreatedAtUnixMs:  nowUnixMs(),
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return storageErr("encode meta", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(s.metaKey(), data)
	})
	if err != nil {
		return storageErr("write meta", err)
	}
	return nil
}

// NextTrialID hands out the next trial id. Ids are strictly increasing
// and never reused; the caller persists the created trial immediately, so
// the maximum stored id always reflects every id ever handed out and
// acted upon.
func (s *Store) NextTrialID() int64 {
	id := s.nextTrialID
	s.nextTrialID++
	return id
}

// NextBatchID increments and durably persists the batch counter, then
// returns the new value. Persisting before dispatch means a resumed run
// can never issue a batch id that an earlier run already used, which is
// what keeps slot reuse safe against external build caches.
func (s *Store) NextBatchID() (int64, error) {
	next := s.lastBatchID + 1
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(next))

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(s.batchSeqKey(), buf[:])
	})
	if err != nil {
		return 0, storageErr("advance batch sequence", err)
	}
	s.lastBatchID = next
	return next, nil
}

// LastBatchID returns the most recently issued batch id (0 if none).
func (s *Store) LastBatchID() int64 {
	return s.lastBatchID
}

// PutTrial durably persists a trial transition.
func (s *Store) PutTrial(t *Trial) error {
	data, err := json.Marshal(t)
	if err != nil {
		return storageErr("encode trial", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(s.trialKey(t.ID), data)
	})
	if err != nil {
		return storageErr(fmt.Sprintf("write trial %d", t.ID), err)
	}
	return nil
}

// Trials returns the full trial history in id order.
func (s *Store) Trials() ([]*Trial, error) {
	var out []*Trial
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = s.trialPrefix()
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var t Trial
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &t)
			})
			if err != nil {
				return fmt.Errorf("decode trial %s: %w", it.Item().Key(), err)
			}
			out = append(out, &t)
		}
		return nil
	})
	if err != nil {
		return nil, storageErr("list trials", err)
	}
	return out, nil
}
