package model

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

const (
	manifestFile = "manifest.txt"
	metadataFile = "metadata.json"
	backupSubdir = "files"

	// ActiveRunFile marks the run currently accepting backups. It lives
	// directly under the backup root and contains the run ID.
	ActiveRunFile = "active"

	// CriticalOpFile journals an in-flight critical operation under the
	// backup root so an interrupted atomic replace is recoverable.
	CriticalOpFile = "critical.json"
)

// GetPathToManifest yields the manifest location relative to the backup root.
func GetPathToManifest(runID string) string {
	return path.Join(runID, manifestFile)
}

// GetPathToMetadata yields the metadata location relative to the backup root.
func GetPathToMetadata(runID string) string {
	return path.Join(runID, metadataFile)
}

// GetBackupPath yields the run-scoped backup location for a live path,
// relative to the backup root.
func GetBackupPath(runID, originalPath string) string {
	return path.Join(runID, backupSubdir, EncodeBackupName(originalPath))
}

// EncodeBackupName flattens an absolute path into a single backup file name.
//
// The encoding percent-escapes '%' and '/' only, so it is bijective: decoding
// is unambiguous even for paths containing the literal sequence "%2F".
func EncodeBackupName(p string) string {
	r := strings.NewReplacer("%", "%25", "/", "%2F")
	return r.Replace(p)
}

// DecodeBackupName is the inverse of EncodeBackupName.
func DecodeBackupName(name string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(name); {
		if name[i] != '%' {
			b.WriteByte(name[i])
			i++
			continue
		}
		switch {
		case strings.HasPrefix(name[i:], "%25"):
			b.WriteByte('%')
		case strings.HasPrefix(name[i:], "%2F"):
			b.WriteByte('/')
		default:
			return "", fmt.Errorf("invalid escape in backup name %q at offset %d", name, i)
		}
		i += 3
	}
	return b.String(), nil
}

// StagedPath maps an absolute live target onto its staging mirror location.
func StagedPath(stagingRoot, target string) string {
	return filepath.Join(stagingRoot, target)
}

// LiveTarget maps a path inside the staging tree back to its live location.
func LiveTarget(stagingRoot, stagedPath string) (string, error) {
	rel, err := filepath.Rel(stagingRoot, stagedPath)
	if err != nil {
		return "", err
	}
	if rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("path %q is outside the staging root", stagedPath)
	}
	return "/" + filepath.ToSlash(rel), nil
}
