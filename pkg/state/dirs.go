// Package state prepares the on-disk layout and records crash dumps.
package state

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths is the resolved on-disk layout.
type Paths struct {
	Store     string
	Snapshots string
	Crash     string
}

// PathsVar is set by Init.
var PathsVar Paths

// Init resolves and creates the layout rooted at dbPath. snapshotDir may be
// empty when snapshots are disabled.
func Init(dbPath, snapshotDir string) error {
	p := Paths{
		Store:     dbPath,
		Snapshots: snapshotDir,
		Crash:     filepath.Join(dbPath, "..", filepath.Base(dbPath)+".crash"),
	}
	dirs := []string{p.Store, p.Crash}
	if p.Snapshots != "" {
		dirs = append(dirs, p.Snapshots)
	}
	if err := EnsureStateDirs(dirs...); err != nil {
		return err
	}
	PathsVar = p
	return nil
}

// EnsureStateDirs creates each path and checks it is a writable, real directory.
func EnsureStateDirs(paths ...string) error {
	for _, p := range paths {
		if fi, err := os.Lstat(p); err == nil {
			if fi.Mode()&os.ModeSymlink != 0 {
				return fmt.Errorf("path is a symlink: %s", p)
			}
			if !fi.IsDir() {
				return fmt.Errorf("path exists and is not a directory: %s", p)
			}
		}

		if err := os.MkdirAll(p, 0o700); err != nil {
			return fmt.Errorf("cannot create path %s: %w", p, err)
		}

		tmp, err := os.CreateTemp(p, ".validate-*")
		if err != nil {
			return fmt.Errorf("path not writable: %s: %w", p, err)
		}
		tmp.Close()
		_ = os.Remove(tmp.Name())
	}
	return nil
}
