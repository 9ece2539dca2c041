package model

import (
	"fmt"
	"strings"
)

// ManifestEntry is one line of a run's manifest.txt: the live path that was
// mutated and the run-scoped location of its original bytes.
//
// An empty BackupPath records that OriginalPath did not exist when it was
// first touched. Rollback of such an entry deletes the path.
type ManifestEntry struct {
	OriginalPath string
	BackupPath   string
}

// Exists tells whether the original file existed when backed up.
func (e ManifestEntry) Exists() bool {
	return e.BackupPath != ""
}

// EncodeManifestEntry renders one append-only TSV manifest line.
func EncodeManifestEntry(e ManifestEntry) string {
	return e.OriginalPath + "\t" + e.BackupPath + "\n"
}

// ParseManifestEntry parses a single manifest line.
func ParseManifestEntry(line string) (ManifestEntry, error) {
	fields := strings.Split(strings.TrimSuffix(line, "\n"), "\t")
	if len(fields) != 2 {
		return ManifestEntry{}, fmt.Errorf("manifest line has %d fields, want 2: %q", len(fields), line)
	}
	if !strings.HasPrefix(fields[0], "/") {
		return ManifestEntry{}, fmt.Errorf("manifest original path is not absolute: %q", fields[0])
	}
	return ManifestEntry{OriginalPath: fields[0], BackupPath: fields[1]}, nil
}

// ParseManifest parses a whole manifest file, skipping blank lines.
func ParseManifest(b []byte) ([]ManifestEntry, error) {
	var entries []ManifestEntry
	for i, line := range strings.Split(string(b), "\n") {
		if line == "" {
			continue
		}
		e, err := ParseManifestEntry(line)
		if err != nil {
			return nil, fmt.Errorf("manifest line %d: %w", i+1, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
