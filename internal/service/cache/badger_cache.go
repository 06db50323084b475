package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

// BadgerCache persists cached bytes on local disk so repeated runs skip the network.
type BadgerCache struct {
	db *badger.DB
}

// NewBadgerCache opens (or creates) a cache in dir. An empty dir keeps the cache in memory.
func NewBadgerCache(dir string) (*BadgerCache, error) {
	options := badger.DefaultOptions(dir).WithLoggingLevel(badger.ERROR)
	if dir == "" {
		options = badger.DefaultOptions("").WithInMemory(true).WithLoggingLevel(badger.ERROR)
	}
	db, err := badger.Open(options)
	if err != nil {
		return nil, fmt.Errorf("open badger cache %q: %w", dir, err)
	}
	return &BadgerCache{db: db}, nil
}

func (c *BadgerCache) GetBytes(_ context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (c *BadgerCache) SetBytes(_ context.Context, key string, value []byte, ttl time.Duration) error {
	return c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), value)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
}

func (c *BadgerCache) Close() error { return c.db.Close() }
