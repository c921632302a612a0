package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/mde/pkg/mde/erase"
	"github.com/jamesainslie/mde/pkg/mde/logging"
	"github.com/jamesainslie/mde/pkg/mde/manifest"
)

var eraseCmd = &cobra.Command{
	Use:   "erase [path]",
	Short: "Delete the duplicates recorded by the last scan",
	Long: `Erase reads the duplicates.json manifest written by a previous scan
and deletes every listed duplicate. Originals are never listed, so the
first copy of each group always survives.

Deletion is transactional: every duplicate is moved into a staging
directory before anything is removed, and any failure restores the
staged files to their original locations. On success the manifest is
deleted along with the duplicates.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runErase,
}

func init() {
	eraseCmd.Flags().String("manifest", "", "manifest path (default: duplicates.json in the directory)")

	rootCmd.AddCommand(eraseCmd)
}

// runErase is the erase command handler.
func runErase(cmd *cobra.Command, args []string) error {
	log := logging.Get("erase")

	root, err := resolveDir(args)
	if err != nil {
		return err
	}

	path, _ := cmd.Flags().GetString("manifest")
	if path == "" {
		path = filepath.Join(root, manifest.Filename)
	}

	doc, err := manifest.Load(path)
	if err != nil {
		if errors.Is(err, manifest.ErrNotFound) {
			printInfo("No manifest at %s. Run 'mde scan' first.", path)
			return nil
		}
		return err
	}

	targets := make([]string, 0, len(doc.TargetFiles()))
	for _, target := range doc.TargetFiles() {
		if _, err := os.Stat(target); err != nil {
			log.Warn("duplicate no longer exists, skipping", "path", target, "error", err)
			continue
		}
		targets = append(targets, target)
	}

	tx := erase.New(root).WithProgress(eraseProgress(len(targets)))
	removed, err := tx.Run(targets)
	if err != nil {
		return fmt.Errorf("erase failed, duplicates restored: %w", err)
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warn("duplicates removed but manifest remains", "path", path, "error", err)
	}

	printInfo("Removed %d duplicate file(s).", removed)
	return nil
}

// eraseProgress returns a progress callback that logs staging progress
// at debug level.
func eraseProgress(total int) erase.Progress {
	log := logging.Get("progress")
	return func(done, _ int) {
		if done == total {
			log.Debug("staging complete", "files", total)
		}
	}
}
