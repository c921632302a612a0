package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jamesainslie/mde/pkg/mde/logging"
	"github.com/jamesainslie/mde/pkg/mde/types"
)

// ErrNotFound is returned by Load when no manifest exists at the path.
var ErrNotFound = errors.New("manifest not found")

// ErrMalformed is returned by Load when the document exists but does
// not decode into the expected structure.
var ErrMalformed = errors.New("malformed manifest")

// FromReport builds a manifest document from a detection report. Each
// group's first file (already the lexicographically smallest) becomes
// the kept original; the rest are removable duplicates. Aggregate
// totals are computed here, not supplied by the caller.
func FromReport(report *types.Report, scannedAt time.Time) *Document {
	doc := &Document{
		Version:           Version,
		ScannedAt:         scannedAt.UTC(),
		TotalFilesScanned: report.TotalFiles,
		DuplicateGroups:   len(report.Groups),
		TotalDuplicates:   report.DuplicateCount(),
		Entries:           make([]Entry, 0, len(report.Groups)),
	}

	for i := range report.Groups {
		group := &report.Groups[i]
		if len(group.Files) < 2 {
			continue
		}
		doc.Entries = append(doc.Entries, Entry{
			Original:      group.Files[0],
			Duplicates:    group.Files[1:],
			DuplicateType: group.Type,
		})
	}

	return doc
}

// Save serializes the document as indented JSON at path, overwriting
// any existing manifest. The write goes through a temp file and rename
// so a crash never leaves a truncated manifest behind.
func (d *Document) Save(path string) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp manifest: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp manifest: %w", err)
	}

	return nil
}

// Load reads and validates a manifest document. A missing file yields
// ErrNotFound; a document that does not decode or fails structural
// validation yields ErrMalformed. Unknown schema versions are accepted
// permissively with a warning so newer manifests remain erasable.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read manifest %q: %w", path, err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if err := doc.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if doc.Version != Version {
		logging.Get("manifest").Warn("unknown manifest version, loading anyway",
			"version", doc.Version, "supported", Version)
	}

	return &doc, nil
}

// validate checks the structural invariants an erasable manifest must
// hold. The version string is deliberately not checked here.
func (d *Document) validate() error {
	if d.Version == "" {
		return errors.New("missing version")
	}
	for i := range d.Entries {
		entry := &d.Entries[i]
		if entry.Original == "" {
			return fmt.Errorf("entry %d: missing original", i)
		}
		if len(entry.Duplicates) == 0 {
			return fmt.Errorf("entry %d: no duplicates", i)
		}
		switch entry.DuplicateType {
		case types.Exact, types.Perceptual:
		default:
			return fmt.Errorf("entry %d: unknown duplicate type %q", i, entry.DuplicateType)
		}
	}
	return nil
}
