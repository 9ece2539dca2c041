package core

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

const (
	testBackupRoot  = "/var/lib/bootstage/backups"
	testStagingRoot = "/var/lib/bootstage/staging"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

// newTestSession wires a session onto an in-memory filesystem with a
// controllable clock. The advisory lock is the one thing that has to live
// on the real filesystem, so it goes into the test's temp dir.
func newTestSession(t *testing.T, opts ...SessionOption) (*Session, afero.Fs, *testClock) {
	t.Helper()
	fs := afero.NewMemMapFs()
	clk := &testClock{now: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
	base := []SessionOption{
		Filesystem(fs),
		Clock(clk.Now),
		Host("testhost"),
		LockPath(filepath.Join(t.TempDir(), "session.lock")),
	}
	s, err := New(testBackupRoot, testStagingRoot, append(base, opts...)...)
	require.NoError(t, err)
	return s, fs, clk
}

func writeLive(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
}

func readLive(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()
	b, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	return string(b)
}

func readManifest(t *testing.T, fs afero.Fs, runID string) string {
	t.Helper()
	b, err := afero.ReadFile(fs, filepath.Join(testBackupRoot, runID, "manifest.txt"))
	require.NoError(t, err)
	return string(b)
}
