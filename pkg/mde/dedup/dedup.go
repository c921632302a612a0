// Package dedup implements multi-pass duplicate detection: candidates
// are partitioned by size, matched exactly by content digest, clustered
// perceptually by fingerprint distance, and the two kinds of group are
// reconciled into one non-overlapping set.
package dedup

import (
	"context"
	"runtime"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/jamesainslie/mde/pkg/mde/cache"
	"github.com/jamesainslie/mde/pkg/mde/fingerprint"
	"github.com/jamesainslie/mde/pkg/mde/logging"
	"github.com/jamesainslie/mde/pkg/mde/types"
)

// Phase labels passed to the progress callback.
const (
	PhaseSizing         = "sizing"
	PhaseHashing        = "hashing"
	PhaseFingerprinting = "fingerprinting"
)

// maxDefaultWorkers caps the automatic worker count; digesting is I/O
// bound and more workers than this just thrash the disk.
const maxDefaultWorkers = 8

// ToleranceExact requests a tolerance of zero bits: only files with
// identical fingerprints cluster. The zero Options value means "use the
// default", so an explicit zero needs its own sentinel.
const ToleranceExact = -1

// Progress reports per-file advancement within a pass. It is advisory
// only: implementations must not block, and absence changes no behavior.
// It may be invoked concurrently from hashing workers.
type Progress func(done, total int, phase string)

// Options configures a Finder.
type Options struct {
	// Provider computes digests and perceptual fingerprints.
	// Defaults to the built-in media provider.
	Provider fingerprint.Provider

	// Cache is an optional digest cache; nil disables caching.
	Cache *cache.Cache

	// Workers bounds the digest/fingerprint fan-out. Zero or negative
	// selects an automatic value.
	Workers int

	// Tolerance is the maximum Hamming distance for perceptual
	// similarity. Zero selects fingerprint.DefaultTolerance; pass
	// ToleranceExact to match identical fingerprints only.
	Tolerance int

	// Progress, when non-nil, receives per-file progress updates.
	Progress Progress
}

// Validate applies defaults for unset or invalid options.
func (o *Options) Validate() {
	if o.Provider == nil {
		o.Provider = fingerprint.NewMediaProvider(fingerprint.DefaultHashSize)
	}
	if o.Workers <= 0 {
		o.Workers = min(runtime.NumCPU(), maxDefaultWorkers)
	}
	switch {
	case o.Tolerance == 0:
		o.Tolerance = fingerprint.DefaultTolerance
	case o.Tolerance < 0:
		o.Tolerance = 0
	}
}

// Finder runs the detection passes over one candidate set.
// A Finder is single-use: create one per scan.
type Finder struct {
	opts Options
	log  *log.Logger

	errors atomic.Int64

	// sizes caches the byte length of every candidate that survived the
	// sizing pass. Written by the sizing pass only, read afterwards.
	sizes map[string]int64
}

// New creates a Finder with the given options.
func New(opts Options) *Finder {
	opts.Validate()
	return &Finder{
		opts:  opts,
		log:   logging.Get("dedup"),
		sizes: make(map[string]int64),
	}
}

// Find classifies the candidate paths into duplicate groups. Per-file
// failures are counted and excluded; only context cancellation aborts
// the run. Passes run strictly in sequence and communicate through
// fully materialized intermediate maps.
func (f *Finder) Find(ctx context.Context, paths []string) (*types.Report, error) {
	total := len(paths)
	f.log.Info("starting duplicate detection", "files", total)

	partitions, err := f.partitionBySize(ctx, paths)
	if err != nil {
		return nil, err
	}

	exactGroups, remaining, err := f.exactPass(ctx, partitions)
	if err != nil {
		return nil, err
	}

	clusters, err := f.perceptualPass(ctx, remaining, exactGroups)
	if err != nil {
		return nil, err
	}

	groups := f.reconcile(exactGroups, clusters)

	f.log.Info("duplicate detection complete",
		"groups", len(groups), "errors", f.errors.Load())

	return &types.Report{
		Groups:     groups,
		TotalFiles: total,
		Errors:     int(f.errors.Load()),
	}, nil
}

// report invokes the progress callback if one is configured.
func (f *Finder) report(done, total int, phase string) {
	if f.opts.Progress != nil {
		f.opts.Progress(done, total, phase)
	}
}
