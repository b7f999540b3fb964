package store

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
)

// BadgerStore is an embedded backend. Values are stored as an 8 byte
// big-endian version followed by the payload.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens dir, or an in-memory database when inMemory is set.
func NewBadgerStore(dir string, inMemory bool) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Get(ctx context.Context, key string) (Entry, error) {
	var entry Entry
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		entry, err = readEntry(txn, key)
		return err
	})
	if err != nil {
		return Entry{}, wrapBadger("get", key, err)
	}
	return entry, nil
}

func (s *BadgerStore) Set(ctx context.Context, key string, value []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		current, err := readEntry(txn, key)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		return txn.Set([]byte(key), encodeVersioned(current.Version+1, value))
	})
	return wrapBadger("set", key, err)
}

func (s *BadgerStore) GetByPrefix(ctx context.Context, prefix string) ([]Entry, error) {
	var entries []Entry
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			raw, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			version, value, err := decodeVersioned(raw)
			if err != nil {
				return err
			}
			entries = append(entries, Entry{Key: string(item.KeyCopy(nil)), Value: value, Version: version})
		}
		return nil
	})
	if err != nil {
		return nil, wrapBadger("scan", prefix, err)
	}
	return entries, nil
}

func (s *BadgerStore) CompareAndSwap(ctx context.Context, key string, value []byte, version uint64) (uint64, error) {
	err := s.db.Update(func(txn *badger.Txn) error {
		current, err := readEntry(txn, key)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		if current.Version != version {
			return ErrVersionConflict
		}
		return txn.Set([]byte(key), encodeVersioned(version+1, value))
	})
	if err != nil {
		return 0, wrapBadger("cas", key, err)
	}
	return version + 1, nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func readEntry(txn *badger.Txn, key string) (Entry, error) {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, err
	}
	raw, err := item.ValueCopy(nil)
	if err != nil {
		return Entry{}, err
	}
	version, value, err := decodeVersioned(raw)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Key: key, Value: value, Version: version}, nil
}

func encodeVersioned(version uint64, value []byte) []byte {
	buf := make([]byte, 8+len(value))
	binary.BigEndian.PutUint64(buf, version)
	copy(buf[8:], value)
	return buf
}

func decodeVersioned(raw []byte) (uint64, []byte, error) {
	if len(raw) < 8 {
		return 0, nil, fmt.Errorf("corrupt entry: %d bytes", len(raw))
	}
	return binary.BigEndian.Uint64(raw[:8]), raw[8:], nil
}

// wrapBadger maps badger's optimistic transaction conflict onto ErrVersionConflict.
func wrapBadger(op, key string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrVersionConflict):
		return err
	case errors.Is(err, badger.ErrConflict):
		return ErrVersionConflict
	default:
		return fmt.Errorf("badger %s %s: %w", op, key, err)
	}
}
