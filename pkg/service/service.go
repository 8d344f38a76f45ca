// Package service exposes the store's entry points. Every mutating call
// runs in one staged transaction under the writer lock and either commits
// all of its effects or none.
package service

import (
	"strconv"
	"sync"
	"time"

	"curbdb/pkg/errs"
	"curbdb/pkg/identity"
	"curbdb/pkg/logger"
	"curbdb/pkg/models"
	"curbdb/pkg/notify"
	"curbdb/pkg/store/db/storedb"
	"curbdb/pkg/store/features/directory"
	"curbdb/pkg/store/keys"
	"curbdb/pkg/store/txn"
	"curbdb/pkg/telemetry"
)

// DefaultName is used when Options.Name is empty.
const DefaultName = "curbdb"

// Caller identifies who invokes an entry point. Now is the caller's clock in
// milliseconds and stamps activity and metadata.
type Caller struct {
	ID  string
	Key string
	Now uint64
}

// Emitter receives events after a successful commit.
type Emitter interface {
	Emit(ev notify.Event)
}

type Options struct {
	Name            string
	ActiveThreshold time.Duration
	Events          Emitter
	// Clock supplies "now" in ms for queries and system records.
	Clock func() uint64
}

// Service is the entry point facade over a store.
type Service struct {
	store   *storedb.Store
	members *identity.Registry
	dir     *directory.Directory
	events  Emitter
	clock   func() uint64
	mu      sync.Mutex
}

// New wraps store and records the system name and creation time on first use.
func New(store *storedb.Store, opts Options) (*Service, error) {
	if opts.Name == "" {
		opts.Name = DefaultName
	}
	if opts.Clock == nil {
		opts.Clock = func() uint64 { return uint64(time.Now().UnixMilli()) }
	}
	reg := identity.NewRegistry(opts.ActiveThreshold)
	s := &Service{
		store:   store,
		members: reg,
		dir:     directory.New(reg),
		events:  opts.Events,
		clock:   opts.Clock,
	}
	err := txn.Update(store, func(tx *txn.Txn) error {
		ok, err := tx.Has(keys.SystemNameKey)
		if err != nil || ok {
			return err
		}
		tx.Set(keys.SystemNameKey, []byte(opts.Name))
		tx.Set(keys.SystemCreatedAtKey, []byte(strconv.FormatUint(s.clock(), 10)))
		logger.Info("system_initialized", "name", opts.Name)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Now returns the service clock in ms.
func (s *Service) Now() uint64 {
	return s.clock()
}

// update runs fn as one atomic operation named op.
func (s *Service) update(op string, fn func(tx *txn.Txn) error) error {
	tr := telemetry.Track("service." + op)
	defer tr.Finish()

	s.mu.Lock()
	defer s.mu.Unlock()
	tr.Mark("lock")

	err := txn.Update(s.store, fn)
	if err != nil {
		kind := errs.KindOf(err)
		telemetry.Fail(op, string(kind))
		if kind == errs.KindUnknown {
			logger.Error("operation_failed", "op", op, "error", err)
		} else {
			logger.Debug("operation_rejected", "op", op, "kind", kind, "error", err)
		}
	}
	return err
}

// view runs fn against a consistent snapshot.
func (s *Service) view(op string, fn func(tx *txn.Txn) error) error {
	tr := telemetry.Track("service." + op)
	defer tr.Finish()
	err := txn.Read(s.store, fn)
	if err != nil {
		telemetry.Fail(op, string(errs.KindOf(err)))
	}
	return err
}

// emit queues ev for delivery once tx commits.
func (s *Service) emit(tx *txn.Txn, ev notify.Event) {
	if s.events == nil {
		return
	}
	tx.OnCommit(func() { s.events.Emit(ev) })
}

func (s *Service) requireMember(tx *txn.Txn, id string) error {
	ok, err := s.members.IsMember(tx, id)
	if err != nil {
		return err
	}
	if !ok {
		return errs.NotAMember("%q is not a member", id)
	}
	return nil
}

// Name returns the system name.
func (s *Service) Name() (string, error) {
	var name string
	err := s.view("get_name", func(tx *txn.Txn) error {
		v, _, err := tx.Get(keys.SystemNameKey)
		name = string(v)
		return err
	})
	return name, err
}

// CreatedAt returns the system creation time in ms.
func (s *Service) CreatedAt() (uint64, error) {
	var at uint64
	err := s.view("created_at", func(tx *txn.Txn) error {
		v, found, err := tx.Get(keys.SystemCreatedAtKey)
		if err != nil || !found {
			return err
		}
		at, err = strconv.ParseUint(string(v), 10, 64)
		return err
	})
	return at, err
}

// Info returns the system record.
func (s *Service) Info() (models.SystemInfo, error) {
	name, err := s.Name()
	if err != nil {
		return models.SystemInfo{}, err
	}
	at, err := s.CreatedAt()
	return models.SystemInfo{Name: name, CreatedAt: at}, err
}
