package storedb

import (
	"curbdb/pkg/logger"

	"github.com/cockroachdb/pebble"
)

// returns write options with sync toggled
func WriteOpt(sync bool) *pebble.WriteOptions {
	if sync {
		return pebble.Sync
	}
	return pebble.NoSync
}

// Reader returns the live database as a Reader.
func (s *Store) Reader() (Reader, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	return s.client, nil
}

// Snapshot returns a point-in-time view; caller must close it.
func (s *Store) Snapshot() (*pebble.Snapshot, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	return s.client.NewSnapshot(), nil
}

// NewBatch returns an empty write batch bound to the store.
func (s *Store) NewBatch() (*pebble.Batch, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	return s.client.NewBatch(), nil
}

// ApplyBatch commits batch atomically and closes it.
func (s *Store) ApplyBatch(batch *pebble.Batch, sync bool) error {
	if err := s.check(); err != nil {
		return err
	}
	defer batch.Close()
	if err := batch.Commit(WriteOpt(sync)); err != nil {
		logger.Error("apply_batch_failed", "count", batch.Count(), "error", err)
		return err
	}
	return nil
}

// Checkpoint writes a consistent copy of the store into dir, which must not exist.
func (s *Store) Checkpoint(dir string) error {
	if err := s.check(); err != nil {
		return err
	}
	return s.client.Checkpoint(dir, pebble.WithFlushedWAL())
}

// ForceSync flushes memtables to disk.
func (s *Store) ForceSync() error {
	if err := s.check(); err != nil {
		return err
	}
	return s.client.Flush()
}
