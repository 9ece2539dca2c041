package core

import (
	"context"
	"path/filepath"
	"time"

	"github.com/bootstage/bootstage/pkg/core/status"
	"github.com/bootstage/bootstage/pkg/model"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// CommitResult counts what a commit pass did.
type CommitResult struct {
	Applied int
	Failed  int
}

// Commit copies the staging tree onto the live filesystem. It is meant to
// run once, early at boot, before user-facing services start.
//
// After the copy pass it clears any stale verified marker, writes the
// pending marker, closes the active run and consumes the staging tree so
// a later boot cannot re-apply it. The boot is then in the pending phase
// until a Verifier confirms it or the next boot's Guard reverts it.
//
// When the majority of staged files fail to apply, the pending marker is
// still written (so the guard reverts the partial state on the next boot)
// and an error is returned; the staging tree is kept for inspection.
func (s *Session) Commit(ctx context.Context) (CommitResult, error) {
	var res CommitResult

	files, err := s.stagedFiles()
	if err != nil {
		return res, status.ErrCommit.Wrap(err)
	}
	if len(files) == 0 {
		s.l.Info("nothing staged, commit is a no-op")
		return res, nil
	}

	for _, stagedPath := range files {
		if ctx.Err() != nil {
			return res, status.ErrInterrupted.Wrap(ctx.Err())
		}
		target, terr := model.LiveTarget(s.stagingRoot, stagedPath)
		if terr != nil {
			res.Failed++
			s.l.Error("staged path does not map to a live target",
				zap.String("staged", stagedPath), zap.Error(terr))
			continue
		}
		if aerr := s.applyStaged(stagedPath, target); aerr != nil {
			res.Failed++
			s.l.Error("cannot apply staged file",
				zap.String("target", target), zap.Error(aerr))
			continue
		}
		res.Applied++
		s.l.Info("applied", zap.String("target", target))
	}

	// flip the boot state machine to pending: stale confirmation first
	if err := s.fs.MkdirAll(filepath.Dir(s.pendingPath), 0o700); err != nil {
		return res, status.ErrCommit.Wrap(err)
	}
	if err := removeIfExists(s.fs, s.verifiedPath); err != nil {
		return res, status.ErrCommit.WrapMessage("cannot clear verified marker: %v", err)
	}
	stamp := s.clock().UTC().Format(time.RFC3339) + "\n"
	if err := afero.WriteFile(s.fs, s.pendingPath, []byte(stamp), 0o600); err != nil {
		return res, status.ErrCommit.WrapMessage("cannot write pending marker: %v", err)
	}

	if res.Failed > res.Applied {
		return res, status.ErrCommit.WrapMessage(
			"%d of %d staged files failed to apply", res.Failed, res.Applied+res.Failed)
	}

	// consume the staging tree and close the run: this commit is done and
	// must not run again on a later boot
	if err := s.fs.RemoveAll(s.stagingRoot); err != nil {
		return res, status.ErrCommit.WrapMessage("cannot consume staging tree: %v", err)
	}
	if err := removeIfExists(s.fs, filepath.Join(s.backupRoot, model.ActiveRunFile)); err != nil {
		return res, status.ErrCommit.WrapMessage("cannot close active run: %v", err)
	}
	s.run = nil

	s.l.Info("commit complete",
		zap.Int("applied", res.Applied),
		zap.Int("failed", res.Failed))
	return res, nil
}

func (s *Session) applyStaged(stagedPath, target string) error {
	fi, err := s.fs.Stat(stagedPath)
	if err != nil {
		return err
	}
	if err := s.fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	return copyPreserving(s.fs, stagedPath, target, fi)
}

func removeIfExists(fs afero.Fs, path string) error {
	if ok, err := afero.Exists(fs, path); err != nil || !ok {
		return err
	}
	return fs.Remove(path)
}
