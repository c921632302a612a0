// Package types provides core data types for the mde duplicate finder.
// It includes the duplicate group and report structures shared between the
// detection engine, the manifest, and the output formatters.
package types

import (
	"github.com/dustin/go-humanize"
)

// DuplicateType classifies how the members of a group were matched.
type DuplicateType string

const (
	// Exact marks files with byte-identical content (same content digest).
	Exact DuplicateType = "exact"

	// Perceptual marks files judged visually similar by fingerprint
	// distance. A group containing any perceptual linkage is tagged
	// Perceptual even when some of its members are byte-identical.
	Perceptual DuplicateType = "perceptual"
)

// FileRecord pairs a file path with its cached byte length.
// Records are created per scan and discarded after grouping.
type FileRecord struct {
	// Path is the absolute path to the file.
	Path string `json:"path"`

	// Size is the file size in bytes.
	Size int64 `json:"size"`
}

// DuplicateGroup is an ordered set of two or more paths that duplicate
// each other. The first path is the designated original (kept on erase).
type DuplicateGroup struct {
	// Files holds the member paths in lexicographic order.
	Files []string `json:"files"`

	// Type records whether the group was matched exactly or perceptually.
	Type DuplicateType `json:"type"`

	// WastedBytes is the total size of the removable members, i.e. every
	// member except the designated original.
	WastedBytes int64 `json:"wasted_bytes"`
}

// DuplicateCount returns the number of removable files in the group.
func (g *DuplicateGroup) DuplicateCount() int {
	if len(g.Files) == 0 {
		return 0
	}
	return len(g.Files) - 1
}

// ScanError pairs a path with the message of an error encountered while
// enumerating it. Traversal errors are collected, not fatal.
type ScanError struct {
	// Path is the file or directory path where the error occurred.
	Path string `json:"path"`

	// Error is the message describing what went wrong.
	Error string `json:"error"`
}

// Report contains the aggregated result of a duplicate scan.
type Report struct {
	// Groups holds the final, non-overlapping duplicate groups.
	Groups []DuplicateGroup `json:"groups"`

	// TotalFiles is the number of candidate files fed into detection.
	TotalFiles int `json:"total_files"`

	// Errors is the number of files that could not be processed
	// (stat, hash, or fingerprint failures). Such files are excluded
	// from grouping but do not abort the scan.
	Errors int `json:"errors"`
}

// DuplicateCount returns the total number of removable files across
// all groups, excluding one kept original per group.
func (r *Report) DuplicateCount() int {
	n := 0
	for i := range r.Groups {
		n += r.Groups[i].DuplicateCount()
	}
	return n
}

// ExactDuplicateCount returns the removable file count in Exact groups.
func (r *Report) ExactDuplicateCount() int {
	return r.countByType(Exact)
}

// PerceptualDuplicateCount returns the removable file count in
// Perceptual groups.
func (r *Report) PerceptualDuplicateCount() int {
	return r.countByType(Perceptual)
}

func (r *Report) countByType(t DuplicateType) int {
	n := 0
	for i := range r.Groups {
		if r.Groups[i].Type == t {
			n += r.Groups[i].DuplicateCount()
		}
	}
	return n
}

// WastedBytes returns the total reclaimable bytes across all groups.
func (r *Report) WastedBytes() int64 {
	var n int64
	for i := range r.Groups {
		n += r.Groups[i].WastedBytes
	}
	return n
}

// FormatSize converts a size in bytes to a human-readable string using
// binary (IEC) units for consistency with common filesystem tools.
func FormatSize(bytes int64) string {
	return humanize.IBytes(uint64(bytes))
}
