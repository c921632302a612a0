package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/mde/pkg/mde/manifest"
)

var cleanCmd = &cobra.Command{
	Use:   "clean [path]",
	Short: "Discard the duplicates manifest without deleting any file",
	Long: `Clean removes the duplicates.json manifest left by a previous scan.
The media files themselves are never touched. Running clean when no
manifest exists is a no-op.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().String("manifest", "", "manifest path (default: duplicates.json in the directory)")

	rootCmd.AddCommand(cleanCmd)
}

// runClean is the clean command handler.
func runClean(cmd *cobra.Command, args []string) error {
	root, err := resolveDir(args)
	if err != nil {
		return err
	}

	path, _ := cmd.Flags().GetString("manifest")
	if path == "" {
		path = filepath.Join(root, manifest.Filename)
	}

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			printInfo("No manifest at %s, nothing to clean.", path)
			return nil
		}
		return fmt.Errorf("remove manifest: %w", err)
	}

	printInfo("Removed %s.", path)
	return nil
}
