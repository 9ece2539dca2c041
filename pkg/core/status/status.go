// Package status exports the errors produced by the core deployment engine.
package status

import (
	"github.com/bootstage/bootstage/pkg/errors"
)

var (
	// ErrValidation indicates content was rejected by its domain validator.
	// The target file is untouched and nothing was committed.
	ErrValidation = errors.New("content rejected by validation")

	// ErrBackup indicates a backup or manifest write could not complete.
	ErrBackup = errors.New("backup failed")

	// ErrTransaction indicates an atomic file replacement could not
	// complete. The original file is preserved byte for byte.
	ErrTransaction = errors.New("atomic transaction failed")

	// ErrCommit indicates the staged tree could not be applied to the
	// live filesystem.
	ErrCommit = errors.New("commit of staged tree failed")

	// ErrRollback indicates a rollback pass completed with failures.
	ErrRollback = errors.New("rollback failed")

	// ErrRunNotFound indicates a rollback target run does not exist.
	// No file was written.
	ErrRunNotFound = errors.New("run not found")

	// ErrManifestNotFound indicates a run exists but has no readable
	// manifest. No file was written.
	ErrManifestNotFound = errors.New("run manifest not found")

	// ErrSessionActive indicates another deployment session holds the
	// advisory lock for this host.
	ErrSessionActive = errors.New("another deployment session is active")

	// ErrNoActiveRun indicates a mutation was attempted outside a
	// deployment session.
	ErrNoActiveRun = errors.New("no active run")

	// ErrInterrupted signals that processing stopped on a cancelled context.
	ErrInterrupted = errors.New("processing interrupted")
)
