package cluster

// store.go defines the optional slower-storage tier a Cluster falls back to
// when a key isn't resident in the shard's in-memory ordered index or hot
// tier. badger is the concrete, durable implementation; Store is kept as an
// interface so tests can substitute an in-memory fake without pulling in
// badger's on-disk machinery.
//
// © 2025 contihash authors. MIT License.

import (
	"context"
	"errors"

	badger "github.com/dgraph-io/badger/v4"
)

// ErrStoreMiss is returned by Store.Get when the key is genuinely absent.
var ErrStoreMiss = errors.New("cluster: key not found in store")

// Store is the slower-storage contract a Cluster may consult after both the
// shard's ordered index and its hot tier miss.
type Store interface {
	Get(ctx context.Context, key []byte) ([]byte, error)
	Set(ctx context.Context, key, val []byte) error
	Close() error
}

// BadgerStore adapts a *badger.DB to the Store interface.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadgerStore opens (creating if absent) a badger database at dir.
func OpenBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerStore{db: db}, nil
}

// Get returns the value stored at key, or ErrStoreMiss if absent.
func (b *BadgerStore) Get(_ context.Context, key []byte) ([]byte, error) {
	var val []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrStoreMiss
		}
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			val = append([]byte(nil), v...)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return val, nil
}

// Set writes key/val, overwriting any existing value.
func (b *BadgerStore) Set(_ context.Context, key, val []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, val)
	})
}

// Close releases the underlying badger database.
func (b *BadgerStore) Close() error {
	return b.db.Close()
}
