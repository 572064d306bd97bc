package world

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// Key prefixes of BadgerStore records.
const (
	keyMeta      = "meta"
	prefixItem   = "item/"
	prefixBlock  = "block/"
	prefixDrive  = "drive/"
	prefixHolder = "container/"
)

// BadgerStore keeps one record per catalog class, block, drive and container.
type BadgerStore struct {
	db *badger.DB
}

type badgerMeta struct {
	BayCount int `json:"bay_count"`
}

// OpenBadgerStore opens a badger database in dir. An empty dir opens an
// in-memory database.
func OpenBadgerStore(dir string) (*BadgerStore, error) {
	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(dir)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// Load reads the snapshot, or returns ErrStateNotFound.
func (s *BadgerStore) Load() (Snapshot, error) {
	var snap Snapshot
	err := s.db.View(func(txn *badger.Txn) error {
		entry, err := txn.Get([]byte(keyMeta))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrStateNotFound
		}
		if err != nil {
			return err
		}
		var meta badgerMeta
		if err := entry.Value(func(val []byte) error { return json.Unmarshal(val, &meta) }); err != nil {
			return fmt.Errorf("meta: %w", err)
		}
		snap.BayCount = meta.BayCount

		if err := scan(txn, prefixItem, &snap.Catalog); err != nil {
			return err
		}
		if err := scan(txn, prefixBlock, &snap.Blocks); err != nil {
			return err
		}
		if err := scan(txn, prefixDrive, &snap.Drives); err != nil {
			return err
		}
		return scan(txn, prefixHolder, &snap.Containers)
	})
	if err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// scan decodes every record under prefix, in key order, into out.
func scan[T any](txn *badger.Txn, prefix string, out *[]T) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		var v T
		err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &v)
		})
		if err != nil {
			return fmt.Errorf("%s: %w", it.Item().Key(), err)
		}
		*out = append(*out, v)
	}
	return nil
}

// Save replaces the stored snapshot in one transaction.
func (s *BadgerStore) Save(snap Snapshot) error {
	return s.db.Update(func(txn *badger.Txn) error {
		for _, prefix := range []string{prefixItem, prefixBlock, prefixDrive, prefixHolder} {
			if err := deletePrefix(txn, prefix); err != nil {
				return err
			}
		}

		if err := put(txn, keyMeta, badgerMeta{BayCount: snap.BayCount}); err != nil {
			return err
		}
		for i, c := range snap.Catalog {
			if err := put(txn, fmt.Sprintf("%s%08d", prefixItem, i), c); err != nil {
				return err
			}
		}
		for i, b := range snap.Blocks {
			if err := put(txn, fmt.Sprintf("%s%08d", prefixBlock, i), b); err != nil {
				return err
			}
		}
		for i, d := range snap.Drives {
			if err := put(txn, fmt.Sprintf("%s%08d", prefixDrive, i), d); err != nil {
				return err
			}
		}
		for i, c := range snap.Containers {
			if err := put(txn, fmt.Sprintf("%s%08d", prefixHolder, i), c); err != nil {
				return err
			}
		}
		return nil
	})
}

func put(txn *badger.Txn, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return txn.Set([]byte(key), data)
}

func deletePrefix(txn *badger.Txn, prefix string) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)

	var keys [][]byte
	for it.Rewind(); it.Valid(); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	it.Close()

	for _, k := range keys {
		if err := txn.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
