// Package erase deletes batches of files atomically. Targets are first
// moved (renamed, never copied) into a holding directory; only once
// every target is staged is the holding directory removed in one
// operation. Any failure before that point rolls every staged file back
// to its original path, so the filesystem is always observed in either
// the fully-original or fully-erased state.
//
// The staging directory itself is the recovery log: its mere existence
// at startup signals an incomplete prior transaction. Rollback removes
// it only once every staged file is back at its original path; when a
// restore fails, the directory stays behind so the staged copy is never
// the one that gets deleted.
package erase

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/jamesainslie/mde/pkg/mde/logging"
)

// StagingDirName is the holding directory created inside the target
// root for the duration of a transaction.
const StagingDirName = ".mde_staging"

// State identifies where a transaction is in its lifecycle.
type State int

// Transaction states. The happy path runs Idle through Committed;
// RollingBack is reachable from Staging, Staged, and Committing.
const (
	Idle State = iota
	Staging
	Staged
	Committing
	Committed
	RollingBack
	RolledBack
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Staging:
		return "staging"
	case Staged:
		return "staged"
	case Committing:
		return "committing"
	case Committed:
		return "committed"
	case RollingBack:
		return "rolling-back"
	case RolledBack:
		return "rolled-back"
	default:
		return "unknown"
	}
}

// stagedFile records one original path and where it was staged to.
// The recorded pairs are the rollback mechanism; no separate journal
// file exists.
type stagedFile struct {
	original string
	staged   string
}

// Progress reports staging advancement. Advisory only.
type Progress func(done, total int)

// Transaction is a single-use atomic erase over one batch of files.
type Transaction struct {
	id         string
	stagingDir string
	state      State
	staged     []stagedFile
	progress   Progress
	log        *log.Logger
}

// New creates a transaction whose holding directory lives inside root.
// The transaction assumes single-writer access to root for its whole
// duration; no lock file is taken.
func New(root string) *Transaction {
	id := uuid.NewString()
	return &Transaction{
		id:         id,
		stagingDir: filepath.Join(root, StagingDirName),
		state:      Idle,
		log:        logging.Get("erase").With("txn", id[:8]),
	}
}

// WithProgress attaches a staging progress callback.
func (t *Transaction) WithProgress(p Progress) *Transaction {
	t.progress = p
	return t
}

// ID returns the transaction's correlation id.
func (t *Transaction) ID() string { return t.id }

// State returns the current transaction state.
func (t *Transaction) State() State { return t.state }

// Staged returns how many files have been staged so far.
func (t *Transaction) Staged() int { return len(t.staged) }

// Run erases the target files atomically and returns the number of
// files deleted. On any staging or commit failure every staged file is
// restored to its original path before the underlying error is
// returned; per-file restore failures are logged but never mask it.
func (t *Transaction) Run(targets []string) (int, error) {
	if err := t.prepare(); err != nil {
		return 0, err
	}

	if err := t.stage(targets); err != nil {
		t.rollback()
		return 0, err
	}

	if err := t.commit(); err != nil {
		t.rollback()
		return 0, err
	}

	return len(targets), nil
}

// prepare discards any holding directory left by a crashed prior run
// and creates a fresh one. A leftover directory is always safe to
// remove: nothing has been deleted if it still exists.
func (t *Transaction) prepare() error {
	if _, err := os.Stat(t.stagingDir); err == nil {
		t.log.Warn("removing leftover staging directory from a previous run",
			"dir", t.stagingDir)
		if err := os.RemoveAll(t.stagingDir); err != nil {
			return fmt.Errorf("failed to remove leftover staging directory: %w", err)
		}
	}

	if err := os.MkdirAll(t.stagingDir, 0o755); err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}

	return nil
}

// stage moves every target into the holding directory under a synthetic
// index name. The first failure aborts immediately; remaining targets
// are left untouched at their original paths.
func (t *Transaction) stage(targets []string) error {
	t.state = Staging

	for i, target := range targets {
		stagedPath := filepath.Join(t.stagingDir, strconv.Itoa(i))

		if err := os.Rename(target, stagedPath); err != nil {
			t.log.Error("failed to stage file", "path", target, "error", err)
			return fmt.Errorf("failed to stage %q: %w", target, err)
		}

		t.staged = append(t.staged, stagedFile{original: target, staged: stagedPath})
		t.log.Debug("staged", "from", target, "to", stagedPath)

		if t.progress != nil {
			t.progress(i+1, len(targets))
		}
	}

	t.state = Staged
	return nil
}

// commit permanently removes the holding directory and everything
// under it in one operation.
func (t *Transaction) commit() error {
	t.state = Committing

	if err := os.RemoveAll(t.stagingDir); err != nil {
		t.log.Error("failed to remove staging directory", "error", err)
		return fmt.Errorf("failed to commit erase: %w", err)
	}

	t.state = Committed
	t.log.Info("erase committed", "files", len(t.staged))
	return nil
}

// rollback restores every staged file that still exists back to its
// original path. A failure restoring one file does not stop attempts
// to restore the others, and rollback never fails the caller; the
// triggering error is the transaction's result. The holding directory
// is removed only when every restore succeeded.
func (t *Transaction) rollback() {
	t.state = RollingBack
	t.log.Warn("rolling back", "files", len(t.staged))

	restoreFailed := false
	for _, f := range t.staged {
		if _, err := os.Stat(f.staged); err != nil {
			// Already gone; a partial commit removed it.
			continue
		}
		if err := os.Rename(f.staged, f.original); err != nil {
			t.log.Error("failed to restore file",
				"original", f.original, "staged", f.staged, "error", err)
			restoreFailed = true
			continue
		}
		t.log.Debug("restored", "path", f.original)
	}

	// If any restore failed, the staged copy is the only surviving one
	// and the holding directory must outlive the transaction.
	if restoreFailed {
		t.log.Error("some files could not be restored; their copies remain staged",
			"dir", t.stagingDir)
	} else {
		_ = os.RemoveAll(t.stagingDir)
	}

	t.state = RolledBack
	t.log.Warn("rollback complete, no files were deleted")
}
