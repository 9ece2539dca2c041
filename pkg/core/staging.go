package core

import (
	"os"
	"path/filepath"

	"github.com/bootstage/bootstage/pkg/core/status"
	"github.com/bootstage/bootstage/pkg/model"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Stage validates and stages one unit of producer output.
func (s *Session) Stage(f model.StagedFile) error {
	return s.StageWrite(f.TargetPath, f.Content, f.Domain)
}

// StageWrite validates content and writes it into the staging mirror at
// the location derived from target. The live filesystem is untouched: a
// crash at any point before Commit leaves the real target as it was.
//
// The last write for a target before commit wins.
func (s *Session) StageWrite(target string, content []byte, d model.Domain) error {
	if err := s.checkStageable(target); err != nil {
		return err
	}
	v := s.newValidator(d)
	if err := v.Validate(target, content); err != nil {
		return status.ErrValidation.Wrap(err)
	}
	return s.stageBytes(target, content)
}

// StageAppend appends content to the staged copy of target. When nothing
// is staged for target yet in this run, the live bytes (if any) are
// copied into staging first, so appends compose onto the real current
// state rather than an empty file.
func (s *Session) StageAppend(target string, content []byte, d model.Domain) error {
	if err := s.checkStageable(target); err != nil {
		return err
	}
	stagedPath := model.StagedPath(s.stagingRoot, target)

	// the staged copy may predate this process: a resumed run keeps its
	// staging tree, so the tree on disk decides the base
	hasStaged, err := afero.Exists(s.fs, stagedPath)
	if err != nil {
		return status.ErrBackup.Wrap(err)
	}

	var base []byte
	if hasStaged {
		b, err := afero.ReadFile(s.fs, stagedPath)
		if err != nil {
			return status.ErrBackup.WrapMessage("cannot read staged copy of %s: %v", target, err)
		}
		base = b
	} else {
		b, err := afero.ReadFile(s.fs, target)
		if err == nil {
			base = b
		} else if !os.IsNotExist(err) {
			return status.ErrBackup.WrapMessage("cannot read live %s: %v", target, err)
		}
	}

	composed := append(append([]byte(nil), base...), content...)
	v := s.newValidator(d)
	if err := v.Validate(target, composed); err != nil {
		return status.ErrValidation.Wrap(err)
	}
	return s.stageBytes(target, composed)
}

// stageBytes records the original, then writes the staging mirror entry.
func (s *Session) stageBytes(target string, content []byte) error {
	outcome, err := s.Backup(target)
	if err != nil {
		// staging this path without a durable manifest entry would let a
		// later rollback "restore" post-deployment bytes
		return err
	}

	stagedPath := model.StagedPath(s.stagingRoot, target)
	if err := s.fs.MkdirAll(filepath.Dir(stagedPath), 0o755); err != nil {
		return status.ErrCommit.WrapMessage("cannot create staging directories for %s: %v", target, err)
	}
	mode := os.FileMode(0o644)
	if fi, serr := s.fs.Stat(target); serr == nil {
		mode = fi.Mode().Perm()
	}
	if err := afero.WriteFile(s.fs, stagedPath, content, mode); err != nil {
		return status.ErrCommit.WrapMessage("cannot stage %s: %v", target, err)
	}
	s.rebootRequired = true
	s.l.Info("staged",
		zap.String("target", target),
		zap.Int("bytes", len(content)),
		zap.String("backup", string(outcome)))
	return nil
}

func (s *Session) checkStageable(target string) error {
	if s.run == nil {
		return status.ErrNoActiveRun
	}
	if !filepath.IsAbs(target) {
		return status.ErrValidation.WrapMessage("staging target %q is not absolute", target)
	}
	return nil
}

// stagedFiles lists all file paths currently in the staging tree.
func (s *Session) stagedFiles() ([]string, error) {
	ok, err := afero.DirExists(s.fs, s.stagingRoot)
	if err != nil || !ok {
		return nil, err
	}
	var files []string
	err = afero.Walk(s.fs, s.stagingRoot, func(path string, info os.FileInfo, werr error) error {
		if werr != nil {
			return werr
		}
		if !info.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
