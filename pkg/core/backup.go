package core

import (
	"os"
	"path/filepath"

	"github.com/bootstage/bootstage/pkg/core/status"
	"github.com/bootstage/bootstage/pkg/model"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// BackupOutcome reports what Backup did for a path.
type BackupOutcome string

const (
	// Backed means the original bytes were copied and the manifest grew.
	Backed BackupOutcome = "backed"

	// AlreadyBacked means a backup for this path exists in the active
	// run. The first backup wins; the file is untouched.
	AlreadyBacked BackupOutcome = "already-backed"

	// Skipped means the path does not exist. Its absence is still
	// recorded, so rollback knows to delete whatever gets created there.
	Skipped BackupOutcome = "skipped"

	// Failed means the backup could not be taken. The error carries the
	// reason; the caller must not mutate the path.
	Failed BackupOutcome = "failed"
)

// CreateRun allocates a fresh run directory with an empty manifest and a
// metadata record, and marks it active. A session cannot proceed without
// durable backup capability, so any error here is fatal to the session.
func (s *Session) CreateRun() (string, error) {
	id := model.NewRunID(s.clock())
	runDir := filepath.Join(s.backupRoot, id)
	if err := s.fs.MkdirAll(filepath.Join(runDir, "files"), 0o700); err != nil {
		return "", status.ErrBackup.WrapMessage("cannot create run directory %s: %v", runDir, err)
	}
	meta, err := model.MarshalMetadata(model.RunMetadata{
		Timestamp: s.clock().UTC(),
		Host:      s.host,
		RunID:     id,
	})
	if err != nil {
		return "", status.ErrBackup.Wrap(err)
	}
	metaPath := filepath.Join(s.backupRoot, model.GetPathToMetadata(id))
	if err := afero.WriteFile(s.fs, metaPath, meta, 0o600); err != nil {
		return "", status.ErrBackup.WrapMessage("cannot write run metadata: %v", err)
	}
	manifestPath := filepath.Join(s.backupRoot, model.GetPathToManifest(id))
	if err := afero.WriteFile(s.fs, manifestPath, nil, 0o600); err != nil {
		return "", status.ErrBackup.WrapMessage("cannot create run manifest: %v", err)
	}
	activePath := filepath.Join(s.backupRoot, model.ActiveRunFile)
	if err := afero.WriteFile(s.fs, activePath, []byte(id+"\n"), 0o600); err != nil {
		return "", status.ErrBackup.WrapMessage("cannot mark run active: %v", err)
	}
	s.run = &activeRun{id: id, backed: make(map[string]bool)}
	s.l.Info("created run", zap.String("run", id), zap.String("host", s.host))
	return id, nil
}

// Backup records the original state of path in the active run before its
// first mutation. It is idempotent: only the first call for a path within
// a run copies anything.
//
// The manifest line is durably appended before Backup returns, so a
// caller observing a nil error (or AlreadyBacked) may mutate the path and
// rollback will still find the true original.
func (s *Session) Backup(path string) (BackupOutcome, error) {
	if s.run == nil {
		return Failed, status.ErrNoActiveRun
	}
	if !filepath.IsAbs(path) {
		return Failed, status.ErrBackup.WrapMessage("backup path %q is not absolute", path)
	}
	if s.run.backed[path] {
		return AlreadyBacked, nil
	}

	fi, err := s.fs.Stat(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return Failed, status.ErrBackup.WrapMessage("cannot stat %s: %v", path, err)
		}
		// absent original: record it so rollback deletes the file
		if err := s.appendManifest(model.ManifestEntry{OriginalPath: path}); err != nil {
			return Failed, err
		}
		s.run.backed[path] = true
		s.l.Debug("backup skipped, no such file", zap.String("path", path))
		return Skipped, nil
	}
	if fi.IsDir() {
		return Failed, status.ErrBackup.WrapMessage("%s is a directory", path)
	}

	backupRel := model.GetBackupPath(s.run.id, path)
	backupAbs := filepath.Join(s.backupRoot, backupRel)
	if err := copyPreserving(s.fs, path, backupAbs, fi); err != nil {
		s.l.Warn("backup copy failed", zap.String("path", path), zap.Error(err))
		return Failed, status.ErrBackup.WrapMessage("cannot copy %s: %v", path, err)
	}
	if err := s.appendManifest(model.ManifestEntry{OriginalPath: path, BackupPath: backupRel}); err != nil {
		return Failed, err
	}
	s.run.backed[path] = true
	s.l.Debug("backed up", zap.String("path", path), zap.String("backup", backupRel))
	return Backed, nil
}

// appendManifest durably appends one manifest line. The sync must complete
// before any mutation of the entry's path is permitted; this ordering is
// the crash-safety invariant the whole engine rests on.
func (s *Session) appendManifest(e model.ManifestEntry) error {
	manifestPath := filepath.Join(s.backupRoot, model.GetPathToManifest(s.run.id))
	f, err := s.fs.OpenFile(manifestPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return status.ErrBackup.WrapMessage("cannot open manifest: %v", err)
	}
	if _, err := f.WriteString(model.EncodeManifestEntry(e)); err != nil {
		_ = f.Close()
		return status.ErrBackup.WrapMessage("cannot append manifest line: %v", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return status.ErrBackup.WrapMessage("cannot sync manifest: %v", err)
	}
	if err := f.Close(); err != nil {
		return status.ErrBackup.WrapMessage("cannot close manifest: %v", err)
	}
	return nil
}

// copyPreserving copies src to dst, preserving mode and times.
func copyPreserving(fs afero.Fs, src, dst string, fi os.FileInfo) error {
	b, err := afero.ReadFile(fs, src)
	if err != nil {
		return err
	}
	if err := fs.MkdirAll(filepath.Dir(dst), 0o700); err != nil {
		return err
	}
	if err := afero.WriteFile(fs, dst, b, fi.Mode().Perm()); err != nil {
		return err
	}
	if err := fs.Chmod(dst, fi.Mode().Perm()); err != nil {
		return err
	}
	return fs.Chtimes(dst, fi.ModTime(), fi.ModTime())
}
