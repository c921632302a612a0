package dedup

import (
	"context"
	"os"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/jamesainslie/mde/pkg/mde/fingerprint"
)

// exactPass groups byte-identical files within each size partition.
// It returns the exact groups (members sorted, groups ordered by their
// first member) and the files that joined no exact group. Digests are
// never compared across partitions: files of different length cannot
// collide by construction.
func (f *Finder) exactPass(ctx context.Context, partitions map[int64][]string) ([][]string, []string, error) {
	sizes := make([]int64, 0, len(partitions))
	for size := range partitions {
		sizes = append(sizes, size)
	}
	sort.Slice(sizes, func(i, j int) bool { return sizes[i] < sizes[j] })

	var toHash, remaining []string
	for _, size := range sizes {
		paths := partitions[size]
		if len(paths) < 2 {
			// A unique length needs no digest but stays eligible for
			// perceptual comparison.
			remaining = append(remaining, paths...)
			continue
		}
		toHash = append(toHash, paths...)
	}

	digests, err := f.digestAll(ctx, toHash)
	if err != nil {
		return nil, nil, err
	}

	var groups [][]string
	for _, size := range sizes {
		paths := partitions[size]
		if len(paths) < 2 {
			continue
		}

		byDigest := make(map[fingerprint.Digest][]string)
		for _, path := range paths {
			digest, ok := digests[path]
			if !ok {
				// Digest failure, already counted; the file neither
				// joins a group nor blocks others.
				continue
			}
			byDigest[digest] = append(byDigest[digest], path)
		}

		for _, members := range byDigest {
			if len(members) < 2 {
				remaining = append(remaining, members...)
				continue
			}
			sort.Strings(members)
			groups = append(groups, members)
		}
	}

	sort.Strings(remaining)
	sort.Slice(groups, func(i, j int) bool { return groups[i][0] < groups[j][0] })

	f.log.Debug("exact pass complete",
		"groups", len(groups), "remaining", len(remaining))
	return groups, remaining, nil
}

// digestAll fans digest computation out across the worker pool and
// collects results keyed by path. Failed files are counted and omitted.
func (f *Finder) digestAll(ctx context.Context, paths []string) (map[string]fingerprint.Digest, error) {
	results := make(map[string]fingerprint.Digest, len(paths))
	if len(paths) == 0 {
		return results, nil
	}

	var (
		mu   sync.Mutex
		done atomic.Int64
		wg   sync.WaitGroup
	)

	jobs := make(chan string)
	for range min(f.opts.Workers, len(paths)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				digest, err := f.digestOne(path)
				n := int(done.Add(1))
				if err != nil {
					f.log.Warn("cannot hash file", "path", path, "error", err)
					f.errors.Add(1)
				} else {
					mu.Lock()
					results[path] = digest
					mu.Unlock()
				}
				f.report(n, len(paths), PhaseHashing)
			}
		}()
	}

feed:
	for _, path := range paths {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- path:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// digestOne returns the content digest for one file, consulting the
// cache first. Cache attributes come from a fresh stat so a file
// modified since the sizing pass invalidates its entry.
func (f *Finder) digestOne(path string) (fingerprint.Digest, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}

	size := info.Size()
	mtime := info.ModTime().UnixNano()

	if cached, ok := f.opts.Cache.Lookup(path, size, mtime); ok {
		return fingerprint.Digest(cached), nil
	}

	digest, err := f.opts.Provider.ExactDigest(path)
	if err != nil {
		return "", err
	}

	f.opts.Cache.Record(path, size, mtime, string(digest))
	return digest, nil
}
