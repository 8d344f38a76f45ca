// Package txn stages reads and writes against the pebble store so an
// operation either commits every mutation in one batch or none of them.
package txn

import (
	"bytes"
	"encoding/json"
	"sort"

	"curbdb/pkg/logger"
	"curbdb/pkg/store/db/storedb"

	"github.com/cockroachdb/pebble"
	"github.com/pkg/errors"
)

// ErrReadOnly is returned when committing a view transaction.
var ErrReadOnly = errors.New("transaction is read-only")

// ErrDone is returned when a transaction is used after commit or discard.
var ErrDone = errors.New("transaction already finished")

// Txn is a write overlay on top of a pebble reader. Staged values shadow the
// store; a nil entry in writes is a delete.
type Txn struct {
	store    *storedb.Store
	reader   storedb.Reader
	snap     *pebble.Snapshot
	writes   map[string][]byte
	readOnly bool
	done     bool
	hooks    []func()
}

// Begin starts a writable transaction reading through to the live store.
func Begin(s *storedb.Store) (*Txn, error) {
	r, err := s.Reader()
	if err != nil {
		return nil, err
	}
	return &Txn{store: s, reader: r, writes: make(map[string][]byte)}, nil
}

// View starts a read-only transaction over a snapshot of the store.
func View(s *storedb.Store) (*Txn, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	return &Txn{store: s, reader: snap, snap: snap, writes: make(map[string][]byte), readOnly: true}, nil
}

// Get returns the value for key. found is false when the key is absent or
// deleted in this transaction.
func (t *Txn) Get(key string) (val []byte, found bool, err error) {
	if v, ok := t.writes[key]; ok {
		if v == nil {
			return nil, false, nil
		}
		return v, true, nil
	}
	v, closer, err := t.reader.Get([]byte(key))
	if err != nil {
		if storedb.IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, errors.Wrapf(err, "get %s", key)
	}
	out := append([]byte(nil), v...)
	if closer != nil {
		closer.Close()
	}
	return out, true, nil
}

// Has reports whether key is present.
func (t *Txn) Has(key string) (bool, error) {
	_, found, err := t.Get(key)
	return found, err
}

// Set stages a write.
func (t *Txn) Set(key string, val []byte) {
	if val == nil {
		val = []byte{}
	}
	t.writes[key] = val
}

// Delete stages a removal.
func (t *Txn) Delete(key string) {
	t.writes[key] = nil
}

// GetJSON decodes the value at key into v.
func (t *Txn) GetJSON(key string, v any) (bool, error) {
	raw, found, err := t.Get(key)
	if err != nil || !found {
		return found, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return true, errors.Wrapf(err, "decode %s", key)
	}
	return true, nil
}

// SetJSON encodes v and stages it at key.
func (t *Txn) SetJSON(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encode %s", key)
	}
	t.Set(key, raw)
	return nil
}

// Scan calls fn for every visible key with prefix, in key order. Staged
// writes and deletes are merged over the store's contents.
func (t *Txn) Scan(prefix string, fn func(key string, val []byte) error) error {
	merged := make(map[string][]byte)
	opts := &pebble.IterOptions{LowerBound: []byte(prefix), UpperBound: upperBound([]byte(prefix))}
	iter, err := t.reader.NewIter(opts)
	if err != nil {
		return errors.Wrapf(err, "iter %s", prefix)
	}
	for iter.First(); iter.Valid(); iter.Next() {
		merged[string(iter.Key())] = append([]byte(nil), iter.Value()...)
	}
	if err := iter.Error(); err != nil {
		iter.Close()
		return errors.Wrapf(err, "iter %s", prefix)
	}
	if err := iter.Close(); err != nil {
		return errors.Wrapf(err, "iter close %s", prefix)
	}

	for k, v := range t.writes {
		if len(k) < len(prefix) || k[:len(prefix)] != prefix {
			continue
		}
		if v == nil {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := fn(k, merged[k]); err != nil {
			return err
		}
	}
	return nil
}

// Keys lists the visible keys with prefix.
func (t *Txn) Keys(prefix string) ([]string, error) {
	var out []string
	err := t.Scan(prefix, func(key string, _ []byte) error {
		out = append(out, key)
		return nil
	})
	return out, err
}

// DeletePrefix stages removal of every visible key with prefix.
func (t *Txn) DeletePrefix(prefix string) error {
	ks, err := t.Keys(prefix)
	if err != nil {
		return err
	}
	for _, k := range ks {
		t.Delete(k)
	}
	return nil
}

// OnCommit registers fn to run after a successful commit.
func (t *Txn) OnCommit(fn func()) {
	t.hooks = append(t.hooks, fn)
}

// Pending returns the number of staged mutations.
func (t *Txn) Pending() int {
	return len(t.writes)
}

// Commit writes every staged mutation in one batch, then runs commit hooks.
func (t *Txn) Commit() error {
	if t.done {
		return ErrDone
	}
	if t.readOnly {
		return ErrReadOnly
	}
	t.done = true
	if len(t.writes) > 0 {
		batch, err := t.store.NewBatch()
		if err != nil {
			return err
		}
		for k, v := range t.writes {
			if v == nil {
				err = batch.Delete([]byte(k), nil)
			} else {
				err = batch.Set([]byte(k), v, nil)
			}
			if err != nil {
				batch.Close()
				return errors.Wrapf(err, "stage %s", k)
			}
		}
		if err := t.store.ApplyBatch(batch, true); err != nil {
			logger.Error("txn_commit_failed", "writes", len(t.writes), "error", err)
			return errors.Wrap(err, "commit")
		}
		logger.Debug("txn_committed", "writes", len(t.writes))
	}
	for _, h := range t.hooks {
		h()
	}
	t.writes = nil
	return nil
}

// Discard drops staged state and releases the snapshot, if any. Safe to call
// after Commit.
func (t *Txn) Discard() {
	if t.snap != nil {
		t.snap.Close()
		t.snap = nil
	}
	if !t.done {
		t.done = true
		t.writes = nil
		t.hooks = nil
	}
}

// Update runs fn in a writable transaction and commits when fn returns nil.
func Update(s *storedb.Store, fn func(*Txn) error) error {
	t, err := Begin(s)
	if err != nil {
		return err
	}
	defer t.Discard()
	if err := fn(t); err != nil {
		return err
	}
	return t.Commit()
}

// Read runs fn in a read-only snapshot transaction.
func Read(s *storedb.Store, fn func(*Txn) error) error {
	t, err := View(s)
	if err != nil {
		return err
	}
	defer t.Discard()
	return fn(t)
}

// upperBound returns the smallest key greater than every key with prefix.
func upperBound(prefix []byte) []byte {
	end := bytes.Clone(prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
