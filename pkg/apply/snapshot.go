package apply

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// snapshot records one path's pre-transaction state. Paths the transaction
// creates are snapshotted as absent; restoring an absent snapshot deletes
// whatever the transaction put there. Directories are recorded without
// content: a renamed directory is moved back wholesale before snapshots
// restore, so the directory snapshot only re-establishes existence.
type snapshot struct {
	path    string
	existed bool
	isDir   bool
	content []byte
	mode    fs.FileMode
}

func takeSnapshot(path string) (snapshot, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return snapshot{path: path}, nil
	}
	if err != nil {
		return snapshot{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return snapshot{path: path, existed: true, isDir: true, mode: info.Mode()}, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return snapshot{}, fmt.Errorf("failed to snapshot %s: %w", path, err)
	}
	return snapshot{path: path, existed: true, content: content, mode: info.Mode()}, nil
}

func (s snapshot) restore() error {
	if !s.existed {
		if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s during rollback: %w", s.path, err)
		}
		return nil
	}
	if s.isDir {
		if err := os.MkdirAll(s.path, s.mode.Perm()); err != nil {
			return fmt.Errorf("failed to restore %s during rollback: %w", s.path, err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to restore %s during rollback: %w", s.path, err)
	}
	return writeFileAtomic(s.path, s.content, s.mode)
}

// snapshotSet holds every snapshot of one transaction, restorable in
// reverse acquisition order.
type snapshotSet struct {
	snaps []snapshot
	taken map[string]struct{}
}

func newSnapshotSet() *snapshotSet {
	return &snapshotSet{taken: make(map[string]struct{})}
}

func (ss *snapshotSet) add(path string) error {
	if _, ok := ss.taken[path]; ok {
		return nil
	}
	snap, err := takeSnapshot(path)
	if err != nil {
		return err
	}
	ss.snaps = append(ss.snaps, snap)
	ss.taken[path] = struct{}{}
	return nil
}

// restoreAll undoes every snapshot, newest first, continuing past
// individual failures so one bad restore does not strand the rest. The
// first failure is reported.
func (ss *snapshotSet) restoreAll() error {
	var firstErr error
	for i := len(ss.snaps) - 1; i >= 0; i-- {
		if err := ss.snaps[i].restore(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// paths returns the snapshotted paths, sorted for stable reporting.
func (ss *snapshotSet) paths() []string {
	out := make([]string, 0, len(ss.snaps))
	for _, s := range ss.snaps {
		out = append(out, s.path)
	}
	sort.Strings(out)
	return out
}

// writeFileAtomic writes content next to path and renames it into place,
// so readers never observe a half-written file.
func writeFileAtomic(path string, content []byte, mode fs.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
