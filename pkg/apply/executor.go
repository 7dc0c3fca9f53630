// Package apply executes edit plans atomically: a transaction either lands
// every edit and file operation of a plan or leaves the tree untouched.
// Files are locked for the duration, written via temp-file-and-rename, and
// verified after writing; any failure rolls the whole transaction back from
// pre-write snapshots.
package apply

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/mamaar/reshape/pkg/project"
	"github.com/mamaar/reshape/pkg/types"
)

// TxState is the lifecycle phase of one transaction.
type TxState string

const (
	StateValidating   TxState = "validating"
	StateSnapshotting TxState = "snapshotting"
	StateWriting      TxState = "writing"
	StateVerifying    TxState = "verifying"
	StateCommitted    TxState = "committed"
	StateRollingBack  TxState = "rolling-back"
	StateRolledBack   TxState = "rolled-back"
)

// Result reports a finished transaction. For dry runs FilesChanged lists
// the files that would have been written.
type Result struct {
	TransactionID string   `json:"transactionId"`
	State         TxState  `json:"state"`
	DryRun        bool     `json:"dryRun"`
	FilesChanged  []string `json:"filesChanged"`
}

// Invalidator receives the paths a committed transaction changed, so caches
// keyed on file content can drop stale entries.
type Invalidator interface {
	Invalidate(paths []string)
}

// Executor applies plans to one project. Safe for concurrent use; the lock
// manager queues transactions with overlapping file sets.
type Executor struct {
	project     *project.Project
	validator   *Validator
	locks       *LockManager
	invalidator Invalidator
	logger      *slog.Logger
	lockTimeout time.Duration
}

func NewExecutor(p *project.Project, locks *LockManager, logger *slog.Logger) *Executor {
	return &Executor{
		project:     p,
		validator:   NewValidator(p),
		locks:       locks,
		logger:      logger,
		lockTimeout: p.Config().LockTimeout,
	}
}

// SetInvalidator registers the cache-invalidation sink notified on commit.
func (e *Executor) SetInvalidator(inv Invalidator) {
	e.invalidator = inv
}

// SetChecksumSource routes checksum validation through a cache instead of
// re-hashing every file from disk.
func (e *Executor) SetChecksumSource(src ChecksumSource) {
	e.validator.checksums = src
}

// Apply runs plan as one transaction. With dryRun the transaction stops
// after validation and reports the would-be file set; nothing is locked and
// nothing is written. Cancellation is honored during validation only: once
// writing starts the transaction runs to commit or rollback.
func (e *Executor) Apply(ctx context.Context, plan *types.EditPlan, dryRun bool) (*Result, error) {
	txID := uuid.NewString()
	logger := e.logger.With("transaction", txID, "intent", plan.Metadata.IntentName)
	state := StateValidating
	logger.Debug("transaction started", "state", state, "dry_run", dryRun)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := e.validator.Validate(plan); err != nil {
		logger.Warn("plan rejected", "err", err)
		return nil, err
	}

	changed := e.touchedFiles(plan)
	if dryRun {
		return &Result{
			TransactionID: txID,
			State:         StateValidating,
			DryRun:        true,
			FilesChanged:  changed,
		}, nil
	}

	release, err := e.locks.Acquire(ctx, changed, e.lockTimeout)
	if err != nil {
		return nil, err
	}
	defer release()

	// Disk may have moved while we waited for locks.
	if err := e.validator.Validate(plan); err != nil {
		return nil, err
	}

	state = StateSnapshotting
	logger.Debug("snapshotting", "state", state, "files", len(changed))
	snaps := newSnapshotSet()
	for _, path := range changed {
		if err := snaps.add(path); err != nil {
			return nil, types.NewInternal("snapshot failed", err)
		}
	}

	state = StateWriting
	logger.Debug("writing", "state", state)
	if err := e.write(plan); err != nil {
		return e.rollback(logger, txID, plan, snaps, err)
	}

	state = StateVerifying
	logger.Debug("verifying", "state", state)
	if err := e.verify(plan); err != nil {
		return e.rollback(logger, txID, plan, snaps, err)
	}

	state = StateCommitted
	logger.Info("transaction committed", "state", state, "files", len(changed))
	if e.invalidator != nil {
		e.invalidator.Invalidate(changed)
	}
	return &Result{TransactionID: txID, State: state, FilesChanged: changed}, nil
}

func (e *Executor) rollback(logger *slog.Logger, txID string, plan *types.EditPlan, snaps *snapshotSet, cause error) (*Result, error) {
	logger.Warn("transaction failed, rolling back", "state", StateRollingBack, "err", cause)
	undoRenames(plan)
	if restoreErr := snaps.restoreAll(); restoreErr != nil {
		// The tree is now inconsistent; surface both failures.
		return nil, types.NewPartialWrite("rollback incomplete", restoreErr).
			WithDetail("cause", cause.Error())
	}
	logger.Info("transaction rolled back", "state", StateRolledBack)
	return &Result{TransactionID: txID, State: StateRolledBack}, cause
}

// undoRenames moves renamed paths back, newest first, before content
// snapshots restore. Renaming back is what carries a directory's contents
// through rollback; file snapshots overwrite afterwards.
func undoRenames(plan *types.EditPlan) {
	for i := len(plan.FileOps) - 1; i >= 0; i-- {
		op := plan.FileOps[i]
		if op.Kind != types.FileRename {
			continue
		}
		if _, err := os.Stat(op.NewPath); err != nil {
			continue
		}
		if _, err := os.Stat(op.Path); err == nil {
			continue
		}
		_ = os.Rename(op.NewPath, op.Path)
	}
}

// touchedFiles is every path the transaction writes, creates, removes, or
// renames, lexically sorted.
func (e *Executor) touchedFiles(plan *types.EditPlan) []string {
	seen := make(map[string]struct{})
	for _, edit := range plan.AllEdits() {
		seen[edit.FilePath] = struct{}{}
	}
	for _, op := range plan.FileOps {
		seen[op.Path] = struct{}{}
		if op.NewPath != "" {
			seen[op.NewPath] = struct{}{}
		}
	}
	files := make([]string, 0, len(seen))
	for f := range seen {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

// write applies every textual edit, then the file operations. Edits land
// before renames so edit locations stay valid against the plan-time paths.
func (e *Executor) write(plan *types.EditPlan) error {
	byFile := make(map[string][]types.TextEdit)
	for _, edit := range plan.AllEdits() {
		byFile[edit.FilePath] = append(byFile[edit.FilePath], edit)
	}
	for path, edits := range byFile {
		info, err := os.Stat(path)
		if err != nil {
			return types.NewPartialWrite(path, err)
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return types.NewPartialWrite(path, err)
		}
		updated, err := applyEdits(content, edits)
		if err != nil {
			return types.NewPartialWrite(path, err)
		}
		if err := writeFileAtomic(path, updated, info.Mode()); err != nil {
			return types.NewPartialWrite(path, err)
		}
	}

	for _, op := range plan.FileOps {
		if err := e.applyFileOp(op); err != nil {
			return err
		}
	}
	return nil
}

func (e *Executor) applyFileOp(op types.FileOp) error {
	switch op.Kind {
	case types.FileCreate:
		if err := os.MkdirAll(filepath.Dir(op.Path), 0o755); err != nil {
			return types.NewPartialWrite(op.Path, err)
		}
		if err := writeFileAtomic(op.Path, []byte(op.Content), 0o644); err != nil {
			return types.NewPartialWrite(op.Path, err)
		}
	case types.FileDelete:
		if err := os.Remove(op.Path); err != nil {
			return types.NewPartialWrite(op.Path, err)
		}
	case types.FileRename:
		if err := os.MkdirAll(filepath.Dir(op.NewPath), 0o755); err != nil {
			return types.NewPartialWrite(op.NewPath, err)
		}
		if err := os.Rename(op.Path, op.NewPath); err != nil {
			return types.NewPartialWrite(op.NewPath, err)
		}
	default:
		return types.NewInvalidRequest("unknown file operation %q", op.Kind)
	}
	return nil
}

// verify re-reads every written file and confirms the edits landed: each
// edit's new text must be present where the descending application put it.
// A mismatch means an interleaved writer or a short write, reported as
// partial_write_detected and followed by rollback.
func (e *Executor) verify(plan *types.EditPlan) error {
	byFile := make(map[string][]types.TextEdit)
	for _, edit := range plan.AllEdits() {
		byFile[edit.FilePath] = append(byFile[edit.FilePath], edit)
	}
	for path, edits := range byFile {
		if renamedAway(plan, path) {
			continue
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return types.NewPartialWrite(path, err)
		}
		// Undoing the edits succeeds only when every new text sits at its
		// computed post-write location; that failing means the write was
		// torn or another writer interleaved.
		if _, err := revertEdits(content, edits); err != nil {
			return types.NewPartialWrite(path, err)
		}
	}
	for _, op := range plan.FileOps {
		switch op.Kind {
		case types.FileCreate:
			if _, err := os.Stat(op.Path); err != nil {
				return types.NewPartialWrite(op.Path, err)
			}
		case types.FileDelete:
			if _, err := os.Stat(op.Path); err == nil {
				return types.NewPartialWrite(op.Path, fmt.Errorf("file still exists after delete"))
			}
		case types.FileRename:
			if _, err := os.Stat(op.NewPath); err != nil {
				return types.NewPartialWrite(op.NewPath, err)
			}
		}
	}
	return nil
}

func renamedAway(plan *types.EditPlan, path string) bool {
	for _, op := range plan.FileOps {
		if op.Kind == types.FileRename && op.Path == path {
			return true
		}
	}
	return false
}

// applyEdits splices edits into content in descending position order, so
// earlier offsets stay valid while later ones are rewritten. Edits at the
// same position are ordered by priority: the higher-priority edit's text
// lands first in the output, so a lower-priority one is spliced in before
// it during the descending pass.
func applyEdits(content []byte, edits []types.TextEdit) ([]byte, error) {
	ordered := append([]types.TextEdit(nil), edits...)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i].Location, ordered[j].Location
		if a.StartLine != b.StartLine {
			return a.StartLine > b.StartLine
		}
		if a.StartCol != b.StartCol {
			return a.StartCol > b.StartCol
		}
		return ordered[i].Priority < ordered[j].Priority
	})
	out := content
	for _, edit := range ordered {
		start, end, err := types.RangeOffsets(out, edit.Location)
		if err != nil {
			return nil, err
		}
		patched := make([]byte, 0, len(out)-(end-start)+len(edit.NewText))
		patched = append(patched, out[:start]...)
		patched = append(patched, edit.NewText...)
		patched = append(patched, out[end:]...)
		out = patched
	}
	return out, nil
}

// revertEdits undoes applyEdits in ascending order: the lowest edit's
// location is unshifted in the written content, and restoring its original
// text re-validates the next location in turn. Same-position ties unwind in
// reverse of the apply order, higher priority first, since that text sits
// frontmost.
func revertEdits(content []byte, edits []types.TextEdit) ([]byte, error) {
	ordered := append([]types.TextEdit(nil), edits...)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i].Location, ordered[j].Location
		if a.StartLine != b.StartLine {
			return a.StartLine < b.StartLine
		}
		if a.StartCol != b.StartCol {
			return a.StartCol < b.StartCol
		}
		return ordered[i].Priority > ordered[j].Priority
	})
	out := content
	for _, edit := range ordered {
		start, _, err := types.RangeOffsets(out, edit.Location)
		if err != nil {
			return nil, err
		}
		end := start + len(edit.NewText)
		if end > len(out) || string(out[start:end]) != edit.NewText {
			return nil, fmt.Errorf("expected new text missing at %s", edit.Location)
		}
		patched := make([]byte, 0, len(out)-len(edit.NewText)+len(edit.OriginalText))
		patched = append(patched, out[:start]...)
		patched = append(patched, edit.OriginalText...)
		patched = append(patched, out[end:]...)
		out = patched
	}
	return out, nil
}
