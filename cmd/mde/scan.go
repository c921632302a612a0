package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/mde/pkg/mde/cache"
	"github.com/jamesainslie/mde/pkg/mde/dedup"
	"github.com/jamesainslie/mde/pkg/mde/logging"
	"github.com/jamesainslie/mde/pkg/mde/manifest"
	"github.com/jamesainslie/mde/pkg/mde/output"
	"github.com/jamesainslie/mde/pkg/mde/walker"
)

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Scan a directory for duplicate media files",
	Long: `Scan detects exact and perceptually similar duplicate media files
under the given directory and records them in a duplicates.json manifest.
Nothing is deleted; run 'mde erase' afterwards to remove the duplicates.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().BoolP("recursive", "r", true, "scan subdirectories")
	scanCmd.Flags().Bool("include-hidden", false, "include hidden files (starting with '.')")
	scanCmd.Flags().StringP("output", "o", "", "manifest path (default: duplicates.json in the scanned directory)")
	scanCmd.Flags().StringP("media", "m", "", "media filter: all, images, or videos")
	scanCmd.Flags().BoolP("json", "j", false, "print the manifest document instead of the report")
	scanCmd.Flags().Bool("no-cache", false, "bypass the digest cache, hash every file")
	scanCmd.Flags().IntP("threshold", "t", -1, "similarity threshold in bits (default from config)")

	_ = viper.BindPFlag("recursive", scanCmd.Flags().Lookup("recursive"))
	_ = viper.BindPFlag("include_hidden", scanCmd.Flags().Lookup("include-hidden"))
	_ = viper.BindPFlag("json", scanCmd.Flags().Lookup("json"))
	_ = viper.BindPFlag("no_cache", scanCmd.Flags().Lookup("no-cache"))

	rootCmd.AddCommand(scanCmd)
}

// runScan is the scan command handler.
func runScan(cmd *cobra.Command, args []string) error {
	log := logging.Get("scan")
	start := time.Now()

	root, err := resolveDir(args)
	if err != nil {
		return err
	}

	media := walker.MediaFilter(viper.GetString("media"))
	if flagMedia, _ := cmd.Flags().GetString("media"); flagMedia != "" {
		media = walker.MediaFilter(flagMedia)
	}
	if !media.Valid() {
		return fmt.Errorf("invalid media filter %q (want all, images, or videos)", media)
	}

	threshold := viper.GetInt("threshold")
	if flagThreshold, _ := cmd.Flags().GetInt("threshold"); flagThreshold >= 0 {
		threshold = flagThreshold
	}
	// A threshold of zero is an explicit request, not an unset option.
	if threshold == 0 {
		threshold = dedup.ToleranceExact
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	walkRes, err := walker.Walk(ctx, root, walker.Options{
		Recursive:     viper.GetBool("recursive"),
		IncludeHidden: viper.GetBool("include_hidden"),
		Media:         media,
	})
	if err != nil {
		return err
	}
	log.Info("enumeration complete", "candidates", len(walkRes.Paths))

	digestCache := openDigestCache(log)
	defer func() { _ = digestCache.Close() }()

	finder := dedup.New(dedup.Options{
		Cache:     digestCache,
		Workers:   viper.GetInt("workers"),
		Tolerance: threshold,
		Progress:  scanProgress(),
	})

	report, err := finder.Find(ctx, walkRes.Paths)
	if err != nil {
		return err
	}

	hits, misses := digestCache.Stats()
	log.Debug("digest cache", "hits", hits, "misses", misses)

	doc := manifest.FromReport(report, time.Now())

	targetPath, _ := cmd.Flags().GetString("output")
	if targetPath == "" {
		targetPath = filepath.Join(root, manifest.Filename)
	}

	manifestPath := ""
	if len(doc.Entries) > 0 {
		if err := doc.Save(targetPath); err != nil {
			return err
		}
		manifestPath = targetPath
		log.Info("manifest written", "path", manifestPath, "entries", len(doc.Entries))
	} else if err := os.Remove(targetPath); err == nil {
		// A manifest from an earlier scan must not outlive a
		// duplicate-free rescan; erase would act on outdated groups.
		log.Info("removed stale manifest", "path", targetPath)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stale manifest: %w", err)
	}

	if viper.GetBool("json") {
		return output.RenderJSON(os.Stdout, doc)
	}

	if !getQuiet() {
		output.RenderPretty(os.Stdout, &output.Result{
			Root:         root,
			Report:       report,
			ManifestPath: manifestPath,
			Elapsed:      time.Since(start),
			WalkErrors:   len(walkRes.Errors),
		})
	}

	return nil
}

// openDigestCache opens the configured digest cache. Failures degrade
// to a nil cache: every lookup misses and the scan hashes everything.
func openDigestCache(log *log.Logger) *cache.Cache {
	if viper.GetBool("no_cache") || !viper.GetBool("cache.enabled") {
		return nil
	}

	c, err := cache.Open(viper.GetString("cache.path"))
	if err != nil {
		log.Warn("cannot open digest cache, hashing everything",
			"path", viper.GetString("cache.path"), "error", err)
		return nil
	}
	return c
}

// scanProgress returns a progress callback that logs phase transitions
// at debug level. The callback may run on hashing workers, so it keeps
// no mutable state besides the logger.
func scanProgress() dedup.Progress {
	log := logging.Get("progress")
	return func(done, total int, phase string) {
		if done == total {
			log.Debug("phase complete", "phase", phase, "files", total)
		}
	}
}
