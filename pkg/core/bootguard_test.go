package core

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/bootstage/bootstage/pkg/model"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sentinelExists(t *testing.T, fs afero.Fs, name string) bool {
	t.Helper()
	ok, err := afero.Exists(fs, filepath.Join(testBackupRoot, name))
	require.NoError(t, err)
	return ok
}

func TestGuardRollsBackUnverifiedBoot(t *testing.T) {
	s, fs, _ := newTestSession(t)
	_, err := s.CreateRun()
	require.NoError(t, err)

	writeLive(t, fs, "/etc/motd", "original\n")
	require.NoError(t, s.StageWrite("/etc/motd", []byte("changed\n"), model.Generic))
	_, err = s.Commit(context.Background())
	require.NoError(t, err)

	// the previous boot never verified: pending set, verified unset
	res, err := s.Guard(context.Background())
	require.NoError(t, err)
	require.True(t, res.RolledBack)
	require.NotNil(t, res.Rollback)
	assert.Equal(t, 1, res.Rollback.Restored)
	assert.Equal(t, 0, res.Rollback.Failed)

	assert.Equal(t, "original\n", readLive(t, fs, "/etc/motd"))
	assert.False(t, sentinelExists(t, fs, "boot-pending"))

	// a second guard pass must not roll back again
	res, err = s.Guard(context.Background())
	require.NoError(t, err)
	assert.False(t, res.RolledBack)
}

func TestGuardIsANoOpWhenVerified(t *testing.T) {
	s, fs, _ := newTestSession(t)
	writeLive(t, fs, filepath.Join(testBackupRoot, "boot-pending"), "t\n")
	writeLive(t, fs, filepath.Join(testBackupRoot, "boot-verified"), "t\n")
	writeLive(t, fs, "/etc/motd", "current\n")

	res, err := s.Guard(context.Background())
	require.NoError(t, err)
	assert.False(t, res.RolledBack)
	assert.Equal(t, "current\n", readLive(t, fs, "/etc/motd"))
}

func TestGuardIsANoOpWithoutPending(t *testing.T) {
	s, _, _ := newTestSession(t)
	res, err := s.Guard(context.Background())
	require.NoError(t, err)
	assert.False(t, res.RolledBack)
}

// the full dead-man's-switch scenario: stage a sysctl change, commit it at
// boot, crash before verification, and let the next boot's guard restore
// the prior content.
func TestGuardCrashBeforeVerificationScenario(t *testing.T) {
	s, fs, _ := newTestSession(t)
	_, err := s.CreateRun()
	require.NoError(t, err)

	// no prior file at this path
	target := "/etc/sysctl.d/99-bootstage.conf"
	require.NoError(t, s.StageWrite(target, []byte("vm.swappiness = 10\n"), model.Generic))
	_, err = s.Commit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "vm.swappiness = 10\n", readLive(t, fs, target))

	// crash: the verifier never fires; next boot runs the guard
	next, err := New(testBackupRoot, testStagingRoot,
		Filesystem(fs), Host("testhost"),
		LockPath(filepath.Join(t.TempDir(), "next.lock")))
	require.NoError(t, err)

	res, err := next.Guard(context.Background())
	require.NoError(t, err)
	require.True(t, res.RolledBack)
	assert.Equal(t, 1, res.Rollback.Restored)
	assert.Equal(t, 0, res.Rollback.Failed)
	assert.True(t, res.Rollback.VerificationOK)

	// the file did not exist before the deployment, so it is gone again
	ok, _ := afero.Exists(fs, target)
	assert.False(t, ok)

	state, err := next.Status()
	require.NoError(t, err)
	assert.Equal(t, model.StateNoPending, state)
}

func TestGuardRecoversInterruptedCriticalOp(t *testing.T) {
	s, fs, _ := newTestSession(t)
	_, err := s.CreateRun()
	require.NoError(t, err)

	writeLive(t, fs, "/etc/default/grub", grubWithRoot)
	writeLive(t, fs, "/etc/default/grub.tmp-9", "partial\n")
	_, err = s.beginCriticalOp("/etc/default/grub", "/etc/default/grub.tmp-9")
	require.NoError(t, err)

	res, err := s.Guard(context.Background())
	require.NoError(t, err)
	assert.False(t, res.RolledBack)

	ok, _ := afero.Exists(fs, "/etc/default/grub.tmp-9")
	assert.False(t, ok)
	assert.Equal(t, grubWithRoot, readLive(t, fs, "/etc/default/grub"))
}
