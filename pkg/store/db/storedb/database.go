package storedb

import (
	"errors"
	"fmt"
	"io"

	"curbdb/pkg/logger"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
)

// Options controls how the pebble store is opened.
type Options struct {
	// DisableWAL turns off pebble's write-ahead log. Commits are then only
	// durable after a flush.
	DisableWAL bool
	// InMemory keeps all data on a memory filesystem; path is ignored.
	InMemory bool
}

// Store owns an opened pebble database.
type Store struct {
	client *pebble.DB
	path   string
}

// Reader is the read surface shared by *pebble.DB and *pebble.Snapshot.
type Reader interface {
	Get(key []byte) ([]byte, io.Closer, error)
	NewIter(o *pebble.IterOptions) (*pebble.Iterator, error)
}

// opens/creates the pebble store at path
func Open(path string, o Options) (*Store, error) {
	opts := &pebble.Options{
		DisableWAL: o.DisableWAL,
	}
	if o.InMemory {
		opts.FS = vfs.NewMem()
		path = ""
	}
	if o.DisableWAL {
		logger.Warn("durability_reduced", "wal", "disabled")
	}

	client, err := pebble.Open(path, opts)
	if err != nil {
		logger.Error("pebble_open_failed", "path", path, "error", err)
		return nil, err
	}
	logger.Info("pebble_opened", "path", path, "in_memory", o.InMemory)
	return &Store{client: client, path: path}, nil
}

// OpenInMemory opens an empty store backed by memory.
func OpenInMemory() (*Store, error) {
	return Open("", Options{InMemory: true})
}

// closes the opened pebble client
func (s *Store) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	if err := s.client.Close(); err != nil {
		return err
	}
	s.client = nil
	return nil
}

// returns true if the client is opened
func (s *Store) Ready() bool {
	return s != nil && s.client != nil
}

// Path returns the on-disk location, empty for memory stores.
func (s *Store) Path() string {
	return s.path
}

// returns true if error is pebble.ErrNotFound
func IsNotFound(err error) bool {
	return errors.Is(err, pebble.ErrNotFound)
}

func (s *Store) check() error {
	if !s.Ready() {
		return fmt.Errorf("pebble not opened; call storedb.Open first")
	}
	return nil
}
