package dedup

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/jamesainslie/mde/pkg/mde/fingerprint"
)

// perceptualPass clusters visually similar files among those that
// joined no exact group, plus one representative per exact group so an
// exact group that also resembles other files can be folded into a
// perceptual cluster by the reconciler.
//
// Clustering is greedy and seed-anchored: files are visited in
// lexicographic order, each unassigned file opens a cluster, and later
// unassigned files join only when within tolerance of the cluster's
// seed. This is deliberately not transitive closure; the asymmetry is
// part of the observable grouping contract.
func (f *Finder) perceptualPass(ctx context.Context, remaining []string, exactGroups [][]string) ([][]string, error) {
	eligible := make([]string, 0, len(remaining)+len(exactGroups))
	eligible = append(eligible, remaining...)
	for _, group := range exactGroups {
		eligible = append(eligible, group[0])
	}
	sort.Strings(eligible)

	prints, err := f.fingerprintAll(ctx, eligible)
	if err != nil {
		return nil, err
	}

	assigned := make(map[string]bool, len(prints))
	var clusters [][]string

	for i, seed := range eligible {
		seedPrint := prints[seed]
		if seedPrint == nil || assigned[seed] {
			continue
		}

		cluster := []string{seed}
		assigned[seed] = true

		for _, candidate := range eligible[i+1:] {
			candidatePrint := prints[candidate]
			if candidatePrint == nil || assigned[candidate] {
				continue
			}
			if fingerprint.Similar(seedPrint, candidatePrint, f.opts.Tolerance) {
				cluster = append(cluster, candidate)
				assigned[candidate] = true
			}
		}

		if len(cluster) >= 2 {
			clusters = append(clusters, cluster)
		}
	}

	f.log.Debug("perceptual pass complete",
		"eligible", len(eligible), "fingerprinted", len(prints), "clusters", len(clusters))
	return clusters, nil
}

// fingerprintAll computes perceptual fingerprints across the worker
// pool. Unsupported files are skipped silently; provider errors are
// counted. The result map holds only files with a fingerprint.
func (f *Finder) fingerprintAll(ctx context.Context, paths []string) (map[string]*fingerprint.Fingerprint, error) {
	results := make(map[string]*fingerprint.Fingerprint)
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
				fp, err := f.opts.Provider.PerceptualFingerprint(path)
				n := int(done.Add(1))
				switch {
				case err != nil:
					f.log.Warn("cannot fingerprint file", "path", path, "error", err)
					f.errors.Add(1)
				case fp == nil:
					f.log.Debug("skipping non-media file", "path", path)
				default:
					mu.Lock()
					results[path] = fp
					mu.Unlock()
				}
				f.report(n, len(paths), PhaseFingerprinting)
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
