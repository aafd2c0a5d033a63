// Package store implements the persisted library state on top of a
// key-value blob abstraction.
package store

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

// BadgerBlobs is the durable Blobs implementation backed by a Badger database.
type BadgerBlobs struct {
	db     *badger.DB
	logger *slog.Logger
}

// OpenBadger opens (or creates) the Badger database at path.
func OpenBadger(path string, logger *slog.Logger) (*BadgerBlobs, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Sync writes to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	if logger != nil {
		logger.Info("Badger database opened successfully", "path", path)
	}

	return &BadgerBlobs{db: db, logger: logger}, nil
}

// Close gracefully closes the database.
func (b *BadgerBlobs) Close() error {
	if b.logger != nil {
		b.logger.Info("Closing database connection")
	}
	return b.db.Close()
}

// Get implements Blobs.
func (b *BadgerBlobs) Get(name string) ([]byte, error) {
	var data []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(name))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Set implements Blobs.
func (b *BadgerBlobs) Set(name string, data []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(name), data)
	})
}

// Delete implements Blobs.
func (b *BadgerBlobs) Delete(name string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(name))
	})
}
