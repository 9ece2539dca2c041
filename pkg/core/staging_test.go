package core

import (
	"path/filepath"
	"testing"

	"github.com/bootstage/bootstage/pkg/core/status"
	"github.com/bootstage/bootstage/pkg/errors"
	"github.com/bootstage/bootstage/pkg/model"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageWriteLeavesLiveUntouched(t *testing.T) {
	s, fs, _ := newTestSession(t)
	_, err := s.CreateRun()
	require.NoError(t, err)

	writeLive(t, fs, "/etc/motd", "welcome\n")
	require.NoError(t, s.StageWrite("/etc/motd", []byte("maintenance\n"), model.Generic))

	assert.Equal(t, "welcome\n", readLive(t, fs, "/etc/motd"))
	assert.Equal(t, "maintenance\n",
		readLive(t, fs, model.StagedPath(testStagingRoot, "/etc/motd")))
	assert.True(t, s.RebootRequired())
}

func TestStageWriteLastWriteWins(t *testing.T) {
	s, fs, _ := newTestSession(t)
	_, err := s.CreateRun()
	require.NoError(t, err)

	require.NoError(t, s.StageWrite("/etc/motd", []byte("one\n"), model.Generic))
	require.NoError(t, s.StageWrite("/etc/motd", []byte("two\n"), model.Generic))

	assert.Equal(t, "two\n", readLive(t, fs, model.StagedPath(testStagingRoot, "/etc/motd")))

	// only one manifest entry despite two writes
	entries, err := model.ParseManifest([]byte(readManifest(t, fs, s.ActiveRun())))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestStageWriteValidationRejection(t *testing.T) {
	s, fs, _ := newTestSession(t)
	_, err := s.CreateRun()
	require.NoError(t, err)

	writeLive(t, fs, "/etc/motd", "welcome\n")
	err = s.StageWrite("/etc/motd", nil, model.Generic)
	require.True(t, errors.Is(err, status.ErrValidation))

	// rejection is free of side effects: live file intact, nothing
	// staged, no manifest entry
	assert.Equal(t, "welcome\n", readLive(t, fs, "/etc/motd"))
	staged, err := afero.Exists(fs, model.StagedPath(testStagingRoot, "/etc/motd"))
	require.NoError(t, err)
	assert.False(t, staged)
	assert.Empty(t, readManifest(t, fs, s.ActiveRun()))
	assert.False(t, s.RebootRequired())
}

func TestStageAppendComposesOntoLiveState(t *testing.T) {
	s, fs, _ := newTestSession(t)
	_, err := s.CreateRun()
	require.NoError(t, err)

	writeLive(t, fs, "/etc/sysctl.conf", "vm.swappiness = 60\n")
	require.NoError(t, s.StageAppend("/etc/sysctl.conf",
		[]byte("vm.dirty_ratio = 10\n"), model.Generic))

	got := readLive(t, fs, model.StagedPath(testStagingRoot, "/etc/sysctl.conf"))
	assert.Equal(t, "vm.swappiness = 60\nvm.dirty_ratio = 10\n", got)
	assert.Equal(t, "vm.swappiness = 60\n", readLive(t, fs, "/etc/sysctl.conf"))
}

func TestStageAppendAfterStageWrite(t *testing.T) {
	s, fs, _ := newTestSession(t)
	_, err := s.CreateRun()
	require.NoError(t, err)

	writeLive(t, fs, "/etc/sysctl.conf", "live content ignored once staged\n")
	require.NoError(t, s.StageWrite("/etc/sysctl.conf", []byte("a\n"), model.Generic))
	require.NoError(t, s.StageAppend("/etc/sysctl.conf", []byte("b\n"), model.Generic))

	assert.Equal(t, "a\nb\n",
		readLive(t, fs, model.StagedPath(testStagingRoot, "/etc/sysctl.conf")))
}

func TestStageAppendToAbsentFile(t *testing.T) {
	s, fs, _ := newTestSession(t)
	_, err := s.CreateRun()
	require.NoError(t, err)

	require.NoError(t, s.StageAppend("/etc/modprobe.d/new.conf",
		[]byte("blacklist nouveau\n"), model.Generic))
	assert.Equal(t, "blacklist nouveau\n",
		readLive(t, fs, model.StagedPath(testStagingRoot, "/etc/modprobe.d/new.conf")))

	entries, err := model.ParseManifest([]byte(readManifest(t, fs, s.ActiveRun())))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Exists())
}

func TestStageAppendAfterResume(t *testing.T) {
	s, fs, _ := newTestSession(t)
	require.NoError(t, s.Begin(nil))

	writeLive(t, fs, "/etc/sysctl.conf", "live\n")
	require.NoError(t, s.StageWrite("/etc/sysctl.conf",
		[]byte("staged-by-first\n"), model.Generic))
	require.NoError(t, s.Close())

	// a later invocation resumes the run; appends must compose onto
	// what is already staged, not onto the live bytes
	s2, err := New(testBackupRoot, testStagingRoot,
		Filesystem(fs), Host("testhost"),
		LockPath(filepath.Join(t.TempDir(), "s2.lock")))
	require.NoError(t, err)
	require.NoError(t, s2.Begin(nil))
	defer func() { _ = s2.Close() }()

	require.NoError(t, s2.StageAppend("/etc/sysctl.conf",
		[]byte("appended-by-second\n"), model.Generic))
	assert.Equal(t, "staged-by-first\nappended-by-second\n",
		readLive(t, fs, model.StagedPath(testStagingRoot, "/etc/sysctl.conf")))
}

func TestStageRequiresActiveRun(t *testing.T) {
	s, _, _ := newTestSession(t)
	err := s.StageWrite("/etc/motd", []byte("x\n"), model.Generic)
	assert.True(t, errors.Is(err, status.ErrNoActiveRun))
}
