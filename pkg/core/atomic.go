package core

import (
	"path/filepath"

	"github.com/bootstage/bootstage/pkg/core/status"
	"github.com/bootstage/bootstage/pkg/model"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Transform rewrites the content of a live-critical file.
type Transform func(content []byte) ([]byte, error)

// ApplyAtomic safely rewrites a file that must change in place right now
// rather than at the next boot (the bootloader default file is the
// canonical case): the transformed content is validated against its
// domain, the pre-transform bytes are backed up into the active run, and
// the replacement is a single rename that is never observably partial.
//
// On every failure path the target's bytes are identical to the pre-call
// state.
func (s *Session) ApplyAtomic(target string, transform Transform, d model.Domain) error {
	if s.run == nil {
		return status.ErrNoActiveRun
	}
	if !filepath.IsAbs(target) {
		return status.ErrTransaction.WrapMessage("target %q is not absolute", target)
	}
	orig, err := afero.ReadFile(s.fs, target)
	if err != nil {
		return status.ErrTransaction.WrapMessage("cannot read target %s: %v", target, err)
	}
	fi, err := s.fs.Stat(target)
	if err != nil {
		return status.ErrTransaction.Wrap(err)
	}

	// work on a sibling so the final rename stays within one filesystem
	tmp, err := afero.TempFile(s.fs, filepath.Dir(target), filepath.Base(target)+".tmp-")
	if err != nil {
		return status.ErrTransaction.WrapMessage("cannot create temp file next to %s: %v", target, err)
	}
	tmpPath := tmp.Name()
	discard := func() {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpPath)
	}

	out, err := transform(orig)
	if err != nil {
		discard()
		return status.ErrTransaction.WrapMessage("transform of %s: %v", target, err)
	}
	v := s.newValidator(d)
	if err := v.Validate(target, out); err != nil {
		discard()
		return status.ErrValidation.Wrap(err)
	}
	if _, err := tmp.Write(out); err != nil {
		discard()
		return status.ErrTransaction.WrapMessage("cannot write temp file: %v", err)
	}
	if err := tmp.Sync(); err != nil {
		discard()
		return status.ErrTransaction.WrapMessage("cannot sync temp file: %v", err)
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpPath)
		return status.ErrTransaction.Wrap(err)
	}
	if err := s.fs.Chmod(tmpPath, fi.Mode().Perm()); err != nil {
		_ = s.fs.Remove(tmpPath)
		return status.ErrTransaction.Wrap(err)
	}

	// the window between backup and rename is journaled so an interrupt
	// landing exactly there is individually recoverable
	guard, err := s.beginCriticalOp(target, tmpPath)
	if err != nil {
		_ = s.fs.Remove(tmpPath)
		return err
	}
	defer guard.end()

	if _, err := s.Backup(target); err != nil {
		_ = s.fs.Remove(tmpPath)
		return err
	}
	if err := s.fs.Rename(tmpPath, target); err != nil {
		_ = s.fs.Remove(tmpPath)
		return status.ErrTransaction.WrapMessage("cannot rename over %s: %v", target, err)
	}

	s.criticalModified[target] = true
	s.rebootRequired = true
	s.l.Info("applied atomic replacement",
		zap.String("target", target),
		zap.String("domain", d.String()),
		zap.Int("bytes", len(out)))
	return nil
}

// CriticalModified tells whether an atomic replacement touched target in
// this session.
func (s *Session) CriticalModified(target string) bool {
	return s.criticalModified[target]
}
