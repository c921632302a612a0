// Package config provides configuration management for the mde duplicate
// eraser.
package config

// Default configuration values for mde.
const (
	// DefaultThreshold is the maximum Hamming distance between two
	// perceptual fingerprints for them to count as duplicates.
	DefaultThreshold = 10

	// DefaultMedia is the media filter applied when none is specified.
	DefaultMedia = "all"

	// DefaultRecursive controls whether scans descend into
	// subdirectories by default.
	DefaultRecursive = true

	// DefaultWorkers is the hashing worker count; zero selects an
	// automatic value based on the CPU count.
	DefaultWorkers = 0

	// DefaultLogLevel is the logging level when none is configured.
	DefaultLogLevel = "warn"

	// DefaultCacheEnabled controls whether the digest cache is used.
	DefaultCacheEnabled = true
)
