package core

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/bootstage/bootstage/pkg/core/status"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// DefaultDwell is how long a booted system must stay up before its
// deployment counts as confirmed. The dwell cannot distinguish a slow
// boot from a broken one, so it is deliberately a tunable rather than a
// constant buried in the engine; size it well above the worst observed
// healthy boot time for the host.
const DefaultDwell = 5 * time.Minute

// Verify is the dead-man's switch arm: once the dwell window has elapsed
// since commit on a still-running system, it writes the verified marker
// and clears pending. If the machine crashes or reboots first, Verify
// simply never completes; that silence is the designed rollback trigger,
// not an error.
func (s *Session) Verify(ctx context.Context, dwell time.Duration) error {
	if dwell <= 0 {
		dwell = DefaultDwell
	}
	pending, err := afero.Exists(s.fs, s.pendingPath)
	if err != nil {
		return err
	}
	if !pending {
		s.l.Info("no pending deployment to verify")
		return nil
	}

	remaining := dwell
	if b, rerr := afero.ReadFile(s.fs, s.pendingPath); rerr == nil {
		if committedAt, perr := time.Parse(time.RFC3339, strings.TrimSpace(string(b))); perr == nil {
			remaining = dwell - s.clock().Sub(committedAt)
		}
	}
	if remaining > 0 {
		s.l.Info("dwelling before confirmation", zap.Duration("remaining", remaining))
		timer := time.NewTimer(remaining)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			// a reboot or shutdown cancels the dwell; the pending marker
			// stays and the next boot's guard decides
			return status.ErrInterrupted.Wrap(ctx.Err())
		case <-timer.C:
		}
	}

	stamp := s.clock().UTC().Format(time.RFC3339) + "\n"
	if err := s.fs.MkdirAll(filepath.Dir(s.verifiedPath), 0o700); err != nil {
		return err
	}
	if err := afero.WriteFile(s.fs, s.verifiedPath, []byte(stamp), 0o600); err != nil {
		return err
	}
	if err := removeIfExists(s.fs, s.pendingPath); err != nil {
		return err
	}
	s.l.Info("boot verified", zap.Duration("dwell", dwell))
	return nil
}
