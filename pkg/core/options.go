package core

import (
	"time"

	"github.com/bootstage/bootstage/pkg/validate"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// SessionOption is a functor to build a session with some options
type SessionOption func(*Session)

// Logger sets the logger for a session. Defaults to a no-op logger.
func Logger(l *zap.Logger) SessionOption {
	return func(s *Session) {
		if l != nil {
			s.l = l
		}
	}
}

// Filesystem sets the filesystem the engine operates on. Defaults to the
// host filesystem; tests substitute an in-memory one.
func Filesystem(fs afero.Fs) SessionOption {
	return func(s *Session) {
		if fs != nil {
			s.fs = fs
		}
	}
}

// Clock overrides the time source.
func Clock(fn func() time.Time) SessionOption {
	return func(s *Session) {
		if fn != nil {
			s.clock = fn
		}
	}
}

// Host overrides the host name recorded in run metadata.
func Host(h string) SessionOption {
	return func(s *Session) {
		s.host = h
	}
}

// LockPath overrides the location of the advisory session lock. The lock
// always lives on the real host filesystem.
func LockPath(p string) SessionOption {
	return func(s *Session) {
		s.lockPath = p
	}
}

// SentinelPaths overrides the locations of the boot-pending and
// boot-verified flag files.
func SentinelPaths(pending, verified string) SessionOption {
	return func(s *Session) {
		s.pendingPath = pending
		s.verifiedPath = verified
	}
}

// ValidatorOptions forwards options to the validators the session builds
// for each domain.
func ValidatorOptions(opts ...validate.Option) SessionOption {
	return func(s *Session) {
		s.valOpts = append(s.valOpts, opts...)
	}
}

// Regenerators registers hooks re-deriving generated artifacts after a
// rollback restores their source.
func Regenerators(r ...Regenerator) SessionOption {
	return func(s *Session) {
		s.regenerators = append(s.regenerators, r...)
	}
}
