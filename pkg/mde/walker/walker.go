// Package walker enumerates candidate media files under a root using
// parallel directory traversal. It honors recursive and hidden-file
// flags plus a media-type filter, and hands detection an ordered,
// path-deduplicated candidate list.
package walker

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"

	"github.com/jamesainslie/mde/pkg/mde/erase"
	"github.com/jamesainslie/mde/pkg/mde/logging"
	"github.com/jamesainslie/mde/pkg/mde/types"
)

// MediaFilter selects which media categories a walk yields.
type MediaFilter string

// Supported media filters.
const (
	MediaAll    MediaFilter = "all"
	MediaImages MediaFilter = "images"
	MediaVideos MediaFilter = "videos"
)

// ErrNotDirectory is returned when the walk root is not a directory.
var ErrNotDirectory = errors.New("path is not a directory")

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".bmp": true, ".tiff": true, ".tif": true, ".webp": true,
	".heic": true, ".heif": true,
}

var videoExtensions = map[string]bool{
	".mp4": true, ".mov": true, ".avi": true, ".mkv": true,
	".webm": true, ".m4v": true, ".mpg": true, ".mpeg": true,
	".wmv": true, ".flv": true,
}

// Matches reports whether the filter accepts a file name's extension.
func (m MediaFilter) Matches(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	switch m {
	case MediaImages:
		return imageExtensions[ext]
	case MediaVideos:
		return videoExtensions[ext]
	default:
		return imageExtensions[ext] || videoExtensions[ext]
	}
}

// Valid reports whether the filter is one of the supported values.
func (m MediaFilter) Valid() bool {
	switch m {
	case MediaAll, MediaImages, MediaVideos:
		return true
	}
	return false
}

// Options configures a walk.
type Options struct {
	// Recursive descends into subdirectories; otherwise only the root's
	// immediate files are considered.
	Recursive bool

	// IncludeHidden includes dot-prefixed files and directories.
	// The root itself is always traversed regardless of its name.
	IncludeHidden bool

	// Media filters candidates by extension. Empty means MediaAll.
	Media MediaFilter
}

// Result holds the walk outcome.
type Result struct {
	// Paths is the sorted, deduplicated list of absolute candidate paths.
	Paths []string

	// Errors holds per-path traversal failures; they do not abort the walk.
	Errors []types.ScanError
}

// Walk enumerates candidate files under root. A missing or non-directory
// root is fatal; unreadable entries below it are collected as errors and
// skipped.
func Walk(ctx context.Context, root string, opts Options) (*Result, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %q: %w", root, err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("cannot access %q: %w", absRoot, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, absRoot)
	}

	media := opts.Media
	if media == "" {
		media = MediaAll
	}

	log := logging.Get("walker")
	log.Debug("walking", "root", absRoot,
		"recursive", opts.Recursive, "hidden", opts.IncludeHidden, "media", media)

	var (
		mu      sync.Mutex
		paths   []string
		errs    []types.ScanError
		seen    = make(map[string]bool)
		staging = filepath.Join(absRoot, erase.StagingDirName)
		cancel  = ctx.Done()
	)

	conf := fastwalk.Config{
		Follow: false, // Don't follow symlinks.
	}

	walkErr := fastwalk.Walk(&conf, absRoot, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-cancel:
			return context.Cause(ctx)
		default:
		}

		if err != nil {
			mu.Lock()
			errs = append(errs, types.ScanError{Path: path, Error: err.Error()})
			mu.Unlock()
			return nil
		}

		hidden := strings.HasPrefix(d.Name(), ".")

		if d.IsDir() {
			if path == absRoot {
				return nil
			}
			if !opts.Recursive || path == staging || (hidden && !opts.IncludeHidden) {
				return fastwalk.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}
		if hidden && !opts.IncludeHidden {
			return nil
		}
		if !media.Matches(d.Name()) {
			return nil
		}

		mu.Lock()
		if !seen[path] {
			seen[path] = true
			paths = append(paths, path)
		}
		mu.Unlock()
		return nil
	})

	if walkErr != nil && !errors.Is(walkErr, context.Canceled) {
		return nil, walkErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Strings(paths)
	log.Debug("walk complete", "files", len(paths), "errors", len(errs))

	return &Result{Paths: paths, Errors: errs}, nil
}
