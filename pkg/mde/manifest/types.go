// Package manifest persists the outcome of a duplicate scan as a
// versioned document. The manifest is the contract between detection
// and erasure: written once per scan, consumed read-only by erase, and
// deleted by the caller after a successful erase.
package manifest

import (
	"time"

	"github.com/jamesainslie/mde/pkg/mde/types"
)

// Filename is the manifest file name written into a scanned directory.
const Filename = "duplicates.json"

// Version is the manifest schema version this package writes.
const Version = "1.0"

// Entry designates one group's kept original and its removable
// duplicates.
type Entry struct {
	Original      string              `json:"original"`
	Duplicates    []string            `json:"duplicates"`
	DuplicateType types.DuplicateType `json:"duplicate_type"`
}

// Document is the persisted record of a scan.
type Document struct {
	Version           string    `json:"version"`
	ScannedAt         time.Time `json:"scanned_at"`
	TotalFilesScanned int       `json:"total_files_scanned"`
	DuplicateGroups   int       `json:"duplicate_groups"`
	TotalDuplicates   int       `json:"total_duplicates"`
	Entries           []Entry   `json:"entries"`
}

// TargetFiles returns every removable duplicate across all entries, in
// entry order.
func (d *Document) TargetFiles() []string {
	var targets []string
	for i := range d.Entries {
		targets = append(targets, d.Entries[i].Duplicates...)
	}
	return targets
}
