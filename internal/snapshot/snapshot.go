// Package snapshot takes scheduled pebble checkpoints of the store and
// prunes old ones.
package snapshot

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"curbdb/pkg/logger"
	"curbdb/pkg/telemetry"

	"github.com/adhocore/gronx"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
)

// dirLayout names checkpoints so lexical order is chronological.
const dirLayout = "20060102T150405.000000000Z"

// Checkpointer writes a consistent copy of the store into dir.
type Checkpointer interface {
	Checkpoint(dir string) error
}

type Config struct {
	Cron string
	Dir  string
	Keep int
}

// Manager runs checkpoints on a cron schedule. Runs never overlap.
type Manager struct {
	cfg     Config
	db      Checkpointer
	now     func() time.Time
	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func New(db Checkpointer, cfg Config) *Manager {
	return &Manager{cfg: cfg, db: db, now: time.Now}
}

// Start launches the schedule loop; Stop ends it.
func (m *Manager) Start(ctx context.Context) error {
	if !gronx.New().IsValid(m.cfg.Cron) {
		return errors.Errorf("invalid snapshot cron %q", m.cfg.Cron)
	}
	if err := os.MkdirAll(m.cfg.Dir, 0o700); err != nil {
		return errors.Wrapf(err, "create snapshot dir %s", m.cfg.Dir)
	}
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	logger.Info("snapshot_enabled", "cron", m.cfg.Cron, "dir", m.cfg.Dir, "keep", m.cfg.Keep)
	go m.scheduleLoop(ctx)
	return nil
}

func (m *Manager) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
}

func (m *Manager) scheduleLoop(ctx context.Context) {
	defer close(m.done)
	for {
		next, err := gronx.NextTickAfter(m.cfg.Cron, m.now(), false)
		if err != nil {
			logger.Error("snapshot_nexttick_failed", "cron", m.cfg.Cron, "error", err)
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		wait := time.Until(next)
		if wait < time.Second {
			wait = time.Second
		}
		select {
		case <-time.After(wait):
			if _, err := m.RunNow(); err != nil {
				logger.Error("snapshot_run_failed", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// RunNow takes a checkpoint immediately and prunes old ones. It returns the
// checkpoint path, or "" when another run is in progress.
func (m *Manager) RunNow() (string, error) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		logger.Info("snapshot_run_skipped", "reason", "already_running")
		return "", nil
	}
	m.running = true
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.running = false
		m.mu.Unlock()
	}()

	tr := telemetry.Track("snapshot.run")
	defer tr.Finish()

	if err := os.MkdirAll(m.cfg.Dir, 0o700); err != nil {
		return "", errors.Wrapf(err, "create snapshot dir %s", m.cfg.Dir)
	}
	path := filepath.Join(m.cfg.Dir, m.now().UTC().Format(dirLayout))
	if err := m.db.Checkpoint(path); err != nil {
		telemetry.Fail("snapshot.run", "checkpoint")
		return "", err
	}
	tr.Mark("checkpoint")

	size, err := dirSize(path)
	if err != nil {
		logger.Warn("snapshot_size_failed", "path", path, "error", err)
	}
	logger.Info("snapshot_written", "path", path, "size", humanize.IBytes(uint64(size)))

	removed, err := m.prune()
	if err != nil {
		return path, err
	}
	if removed > 0 {
		logger.Info("snapshot_pruned", "removed", removed, "keep", m.cfg.Keep)
	}
	return path, nil
}

// prune removes all but the newest Keep checkpoints.
func (m *Manager) prune() (int, error) {
	names, err := m.List()
	if err != nil {
		return 0, err
	}
	if len(names) <= m.cfg.Keep {
		return 0, nil
	}
	stale := names[:len(names)-m.cfg.Keep]
	for _, name := range stale {
		if err := os.RemoveAll(filepath.Join(m.cfg.Dir, name)); err != nil {
			return 0, errors.Wrapf(err, "remove snapshot %s", name)
		}
	}
	return len(stale), nil
}

// List returns checkpoint directory names, oldest first.
func (m *Manager) List() ([]string, error) {
	entries, err := os.ReadDir(m.cfg.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "read snapshot dir %s", m.cfg.Dir)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if _, err := time.Parse(dirLayout, e.Name()); err != nil {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func dirSize(root string) (int64, error) {
	var total int64
	err := filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	return total, err
}
