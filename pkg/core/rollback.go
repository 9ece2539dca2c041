package core

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/bootstage/bootstage/pkg/core/status"
	"github.com/bootstage/bootstage/pkg/model"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// LastRun selects the most recent run on disk as the rollback target.
const LastRun = "last"

// Regenerator re-derives a generated artifact after a rollback restores
// the source it is built from (the canonical case: regenerating the
// bootloader menu after the default file is restored). The engine never
// runs external tools itself; hooks are injected by the caller.
type Regenerator struct {
	// Source is the restored path that makes regeneration necessary.
	Source string
	// Regenerate rebuilds the derived artifact.
	Regenerate func(ctx context.Context) error
}

// RollbackResult reports one rollback pass.
type RollbackResult struct {
	RunID          string `yaml:"run_id"`
	Restored       int    `yaml:"restored"`
	Failed         int    `yaml:"failed"`
	VerificationOK bool   `yaml:"verification_ok"`
}

// Rollback replays a run's manifest, restoring every recorded original.
// Individual restore failures are counted and do not stop the pass.
// Repeated rollbacks of the same run converge to the same filesystem
// state.
//
// An unknown run yields ErrRunNotFound with zero writes performed.
func (s *Session) Rollback(ctx context.Context, runID string) (RollbackResult, error) {
	var res RollbackResult

	if runID == "" || runID == LastRun {
		runs, err := s.ListRuns()
		if err != nil {
			return res, err
		}
		if len(runs) == 0 {
			return res, status.ErrRunNotFound.WrapMessage("no runs under %s", s.backupRoot)
		}
		runID = runs[len(runs)-1]
	} else {
		ok, err := afero.DirExists(s.fs, filepath.Join(s.backupRoot, runID))
		if err != nil {
			return res, err
		}
		if !ok {
			return res, status.ErrRunNotFound.WrapMessage("run %q", runID)
		}
	}
	res.RunID = runID

	manifestPath := filepath.Join(s.backupRoot, model.GetPathToManifest(runID))
	raw, err := afero.ReadFile(s.fs, manifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			return res, status.ErrManifestNotFound.WrapMessage("run %q", runID)
		}
		return res, status.ErrManifestNotFound.Wrap(err)
	}
	entries, err := model.ParseManifest(raw)
	if err != nil {
		return res, status.ErrManifestNotFound.Wrap(err)
	}

	restored := make(map[string]bool, len(entries))
	for _, e := range entries {
		if ctx.Err() != nil {
			return res, status.ErrInterrupted.Wrap(ctx.Err())
		}
		if err := s.restoreEntry(e); err != nil {
			res.Failed++
			s.l.Error("restore failed",
				zap.String("path", e.OriginalPath), zap.Error(err))
			continue
		}
		res.Restored++
		restored[e.OriginalPath] = true
		s.l.Info("restored", zap.String("path", e.OriginalPath),
			zap.Bool("existed", e.Exists()))
	}

	for _, r := range s.regenerators {
		if !restored[r.Source] {
			continue
		}
		if err := r.Regenerate(ctx); err != nil {
			s.l.Error("regeneration of derived artifact failed",
				zap.String("source", r.Source), zap.Error(err))
			res.Failed++
		} else {
			s.l.Info("regenerated derived artifact", zap.String("source", r.Source))
		}
	}

	res.VerificationOK = s.verifyRestored(entries)
	if res.Failed > 0 {
		return res, status.ErrRollback.WrapMessage(
			"run %s: %d of %d restores failed", runID, res.Failed, len(entries))
	}
	return res, nil
}

// restoreEntry puts one original back: a recorded backup is copied over
// the live path, a recorded absence deletes whatever was created there.
func (s *Session) restoreEntry(e model.ManifestEntry) error {
	if !e.Exists() {
		err := s.fs.Remove(e.OriginalPath)
		if err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
	backupAbs := filepath.Join(s.backupRoot, e.BackupPath)
	fi, err := s.fs.Stat(backupAbs)
	if err != nil {
		return err
	}
	if err := s.fs.MkdirAll(filepath.Dir(e.OriginalPath), 0o755); err != nil {
		return err
	}
	return copyPreserving(s.fs, backupAbs, e.OriginalPath, fi)
}

// verifyRestored confirms the post-pass state matches the manifest: every
// backed-up original exists again, every recorded absence is absent.
func (s *Session) verifyRestored(entries []model.ManifestEntry) bool {
	ok := true
	for _, e := range entries {
		exists, err := afero.Exists(s.fs, e.OriginalPath)
		if err != nil || exists != e.Exists() {
			ok = false
			s.l.Warn("post-rollback verification mismatch",
				zap.String("path", e.OriginalPath),
				zap.Bool("want", e.Exists()),
				zap.Bool("have", exists))
		}
	}
	return ok
}

// ListRuns returns all run IDs under the backup root in creation order.
func (s *Session) ListRuns() ([]string, error) {
	infos, err := afero.ReadDir(s.fs, s.backupRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var runs []string
	for _, fi := range infos {
		if fi.IsDir() && model.IsRunID(fi.Name()) {
			runs = append(runs, fi.Name())
		}
	}
	sort.Strings(runs)
	return runs, nil
}

// RunInfo summarizes one run for listings.
type RunInfo struct {
	ID        string `yaml:"run_id"`
	Host      string `yaml:"host"`
	Timestamp string `yaml:"timestamp"`
	Files     int    `yaml:"files"`
	Bytes     int64  `yaml:"bytes"`
}

// DescribeRun loads a run's metadata and sizes its backup set.
func (s *Session) DescribeRun(runID string) (RunInfo, error) {
	var info RunInfo
	metaRaw, err := afero.ReadFile(s.fs, filepath.Join(s.backupRoot, model.GetPathToMetadata(runID)))
	if err != nil {
		if os.IsNotExist(err) {
			return info, status.ErrRunNotFound.WrapMessage("run %q", runID)
		}
		return info, err
	}
	meta, err := model.UnmarshalMetadata(metaRaw)
	if err != nil {
		return info, err
	}
	info.ID = meta.RunID
	info.Host = meta.Host
	info.Timestamp = meta.Timestamp.Format("2006-01-02 15:04:05 MST")

	manifestRaw, err := afero.ReadFile(s.fs, filepath.Join(s.backupRoot, model.GetPathToManifest(runID)))
	if err != nil {
		return info, status.ErrManifestNotFound.WrapMessage("run %q", runID)
	}
	entries, err := model.ParseManifest(manifestRaw)
	if err != nil {
		return info, err
	}
	info.Files = len(entries)
	for _, e := range entries {
		if !e.Exists() {
			continue
		}
		if fi, serr := s.fs.Stat(filepath.Join(s.backupRoot, e.BackupPath)); serr == nil {
			info.Bytes += fi.Size()
		}
	}
	return info, nil
}
