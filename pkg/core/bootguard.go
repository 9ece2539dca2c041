package core

import (
	"context"

	"github.com/bootstage/bootstage/pkg/core/status"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// GuardResult reports what the boot guard decided.
type GuardResult struct {
	RolledBack bool
	Rollback   *RollbackResult
}

// Guard runs very early on every boot, before a verifier could possibly
// fire for this boot. A pending marker without a verified marker means the
// previous boot never stabilized: the last run is rolled back, exactly
// once, and pending is cleared so the guard never retries in a loop.
// Any other sentinel combination is a no-op.
//
// Guard also clears the critical-operation journal a dying process may
// have left behind, before reading any state it protects.
func (s *Session) Guard(ctx context.Context) (GuardResult, error) {
	if recovered, err := RecoverInterrupted(s.fs, s.backupRoot, s.l); err != nil {
		return GuardResult{}, err
	} else if recovered {
		s.l.Info("cleared interrupted critical operation before guard decision")
	}

	pending, err := afero.Exists(s.fs, s.pendingPath)
	if err != nil {
		return GuardResult{}, err
	}
	verified, err := afero.Exists(s.fs, s.verifiedPath)
	if err != nil {
		return GuardResult{}, err
	}
	if !pending || verified {
		s.l.Debug("boot guard pass, nothing to do",
			zap.Bool("pending", pending), zap.Bool("verified", verified))
		return GuardResult{}, nil
	}

	s.l.Warn("previous boot was never verified, rolling back last run")
	res, rbErr := s.Rollback(ctx, "last")

	// one attempt per unconfirmed boot: the marker goes away whatever the
	// rollback outcome, so a crashing rollback cannot loop forever
	if err := removeIfExists(s.fs, s.pendingPath); err != nil {
		if rbErr == nil {
			rbErr = status.ErrRollback.WrapMessage("cannot clear pending marker: %v", err)
		}
	}
	return GuardResult{RolledBack: true, Rollback: &res}, rbErr
}
