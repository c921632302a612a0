package erase

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTargets(t *testing.T, dir string, names ...string) []string {
	t.Helper()
	paths := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("duplicate content"), 0o644))
		paths = append(paths, path)
	}
	return paths
}

func TestRunDeletesAllTargets(t *testing.T) {
	dir := t.TempDir()
	targets := writeTargets(t, dir, "a.jpg", "b.jpg", "c.jpg")
	keep := filepath.Join(dir, "keep.jpg")
	require.NoError(t, os.WriteFile(keep, []byte("original"), 0o644))

	txn := New(dir)
	deleted, err := txn.Run(targets)

	require.NoError(t, err)
	assert.Equal(t, 3, deleted)
	assert.Equal(t, Committed, txn.State())

	for _, target := range targets {
		assert.NoFileExists(t, target)
	}
	assert.FileExists(t, keep)
	assert.NoDirExists(t, filepath.Join(dir, StagingDirName))
}

func TestRunEmptyTargets(t *testing.T) {
	dir := t.TempDir()

	deleted, err := New(dir).Run(nil)
	require.NoError(t, err)
	assert.Zero(t, deleted)
	assert.NoDirExists(t, filepath.Join(dir, StagingDirName))
}

// A failure partway through staging must leave every target at its
// original path and no holding directory behind.
func TestRunStagingFailureRollsBack(t *testing.T) {
	dir := t.TempDir()
	targets := writeTargets(t, dir, "a.jpg", "b.jpg")
	missing := filepath.Join(dir, "vanished.jpg")
	rest := writeTargets(t, dir, "d.jpg")

	all := append(append(targets, missing), rest...)

	txn := New(dir)
	_, err := txn.Run(all)

	require.Error(t, err)
	assert.Equal(t, RolledBack, txn.State())

	for _, target := range targets {
		assert.FileExists(t, target)
	}
	for _, target := range rest {
		assert.FileExists(t, target)
	}
	assert.NoDirExists(t, filepath.Join(dir, StagingDirName))
}

// When a staged file cannot be renamed back, the staged copy is the
// only one left; rollback must keep the holding directory so that copy
// survives.
func TestRollbackKeepsStagedCopyWhenRestoreFails(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	target := filepath.Join(sub, "a.jpg")
	require.NoError(t, os.WriteFile(target, []byte("only copy"), 0o644))
	missing := filepath.Join(dir, "vanished.jpg")

	// Drop the target's parent directory after it was staged, so the
	// rollback rename has nowhere to restore it to.
	txn := New(dir).WithProgress(func(done, _ int) {
		if done == 1 {
			require.NoError(t, os.RemoveAll(sub))
		}
	})

	_, err := txn.Run([]string{target, missing})

	require.Error(t, err)
	assert.Equal(t, RolledBack, txn.State())

	staged := filepath.Join(dir, StagingDirName, "0")
	assert.FileExists(t, staged)
	data, readErr := os.ReadFile(staged)
	require.NoError(t, readErr)
	assert.Equal(t, "only copy", string(data))
}

func TestRunRemovesLeftoverStagingDir(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, StagingDirName)
	require.NoError(t, os.MkdirAll(stale, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(stale, "0"), []byte("orphan"), 0o644))

	targets := writeTargets(t, dir, "a.jpg")

	_, err := New(dir).Run(targets)
	require.NoError(t, err)
	assert.NoDirExists(t, stale)
	assert.NoFileExists(t, targets[0])
}

func TestRunProgressReported(t *testing.T) {
	dir := t.TempDir()
	targets := writeTargets(t, dir, "a.jpg", "b.jpg", "c.jpg")

	var calls []int
	txn := New(dir).WithProgress(func(done, total int) {
		assert.Equal(t, 3, total)
		calls = append(calls, done)
	})

	_, err := txn.Run(targets)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, calls)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "committed", Committed.String())
	assert.Equal(t, "rolled-back", RolledBack.String())
	assert.Equal(t, "unknown", State(99).String())
}

func TestTransactionHasID(t *testing.T) {
	a := New(t.TempDir())
	b := New(t.TempDir())
	assert.NotEmpty(t, a.ID())
	assert.NotEqual(t, a.ID(), b.ID())
}
