package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bootstage/bootstage/pkg/core/status"
	"github.com/bootstage/bootstage/pkg/errors"
	"github.com/bootstage/bootstage/pkg/model"
	"github.com/bootstage/bootstage/pkg/validate"
	"github.com/cenkalti/backoff/v4"
	"github.com/nightlyone/lockfile"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	lockRetryInterval = 200 * time.Millisecond
	lockRetries       = 5
)

// Session is the deployment engine for one host. All run, staging and
// sentinel state is threaded through it explicitly; there is no ambient
// global state.
//
// Mutating operations (Backup, StageWrite, StageAppend, ApplyAtomic)
// require Begin to have acquired the host's advisory lock and opened a
// run. Boot-time operations (Commit, Verify, Guard, Rollback, Status)
// work on disk state alone.
type Session struct {
	backupRoot   string
	stagingRoot  string
	pendingPath  string
	verifiedPath string
	lockPath     string
	host         string

	fs           afero.Fs
	l            *zap.Logger
	clock        func() time.Time
	valOpts      []validate.Option
	newValidator func(model.Domain) validate.Validator
	regenerators []Regenerator

	lock     lockfile.Lockfile
	lockHeld bool

	run              *activeRun
	criticalModified map[string]bool
	rebootRequired   bool
}

// activeRun is the in-memory view of the run currently accepting backups.
type activeRun struct {
	id     string
	backed map[string]bool
}

// New builds a Session rooted at the given backup and staging directories.
// Both must be absolute paths.
func New(backupRoot, stagingRoot string, opts ...SessionOption) (*Session, error) {
	if !filepath.IsAbs(backupRoot) || !filepath.IsAbs(stagingRoot) {
		return nil, fmt.Errorf("backup root %q and staging root %q must be absolute", backupRoot, stagingRoot)
	}
	s := &Session{
		backupRoot:       backupRoot,
		stagingRoot:      stagingRoot,
		pendingPath:      filepath.Join(backupRoot, "boot-pending"),
		verifiedPath:     filepath.Join(backupRoot, "boot-verified"),
		lockPath:         filepath.Join(backupRoot, ".session.lock"),
		fs:               afero.NewOsFs(),
		l:                zap.NewNop(),
		clock:            time.Now,
		criticalModified: make(map[string]bool),
	}
	for _, apply := range opts {
		apply(s)
	}
	if s.host == "" {
		h, err := os.Hostname()
		if err != nil {
			h = "unknown"
		}
		s.host = h
	}
	s.newValidator = func(d model.Domain) validate.Validator {
		vo := append([]validate.Option{validate.Filesystem(s.fs)}, s.valOpts...)
		return validate.ForDomain(d, vo...)
	}
	return s, nil
}

// Begin acquires the host's session lock and opens a run: resuming the
// active one when a previous session left it open, creating a fresh one
// otherwise. Paths known to be touched later are backed up immediately,
// before anything mutates them.
func (s *Session) Begin(touched []string) error {
	if s.run != nil {
		return nil
	}
	if err := s.acquireLock(); err != nil {
		return err
	}
	if err := s.openRun(); err != nil {
		s.releaseLock()
		return err
	}
	for _, p := range touched {
		outcome, err := s.Backup(p)
		if err != nil {
			s.l.Warn("pre-seed backup failed",
				zap.String("path", p), zap.Error(err))
			continue
		}
		s.l.Debug("pre-seeded backup",
			zap.String("path", p), zap.String("outcome", string(outcome)))
	}
	return nil
}

// Close releases the session lock. The run stays open on disk so a later
// session resumes it; Commit is what closes a run.
func (s *Session) Close() error {
	s.run = nil
	return s.releaseLock()
}

// ActiveRun returns the ID of the run accepting backups, or "".
func (s *Session) ActiveRun() string {
	if s.run == nil {
		return ""
	}
	return s.run.id
}

// RebootRequired tells whether this session staged or modified anything
// that only takes effect across a reboot.
func (s *Session) RebootRequired() bool {
	return s.rebootRequired
}

// Status derives the boot-state machine phase from the sentinel files and
// the staging tree.
func (s *Session) Status() (model.BootState, error) {
	verified, err := afero.Exists(s.fs, s.verifiedPath)
	if err != nil {
		return "", err
	}
	if verified {
		return model.StateVerified, nil
	}
	pending, err := afero.Exists(s.fs, s.pendingPath)
	if err != nil {
		return "", err
	}
	if pending {
		return model.StatePending, nil
	}
	stagedFiles, err := s.stagedFiles()
	if err != nil {
		return "", err
	}
	if len(stagedFiles) > 0 {
		return model.StateStaged, nil
	}
	return model.StateNoPending, nil
}

func (s *Session) acquireLock() error {
	// the lock is process-level: it always lives on the host filesystem,
	// independently of the filesystem the engine is wired to
	_ = os.MkdirAll(filepath.Dir(s.lockPath), 0o755)
	lf, err := lockfile.New(s.lockPath)
	if err != nil {
		return status.ErrSessionActive.Wrap(err)
	}
	try := func() error {
		lerr := lf.TryLock()
		switch {
		case lerr == nil:
			return nil
		case errors.Is(lerr, lockfile.ErrBusy):
			return lerr
		default:
			return backoff.Permanent(lerr)
		}
	}
	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(lockRetryInterval), lockRetries)
	if err := backoff.Retry(try, policy); err != nil {
		return status.ErrSessionActive.Wrap(err)
	}
	s.lock = lf
	s.lockHeld = true
	return nil
}

func (s *Session) releaseLock() error {
	if !s.lockHeld {
		return nil
	}
	s.lockHeld = false
	return s.lock.Unlock()
}

// openRun resumes the active run recorded on disk, or creates a new one.
func (s *Session) openRun() error {
	if err := s.fs.MkdirAll(s.backupRoot, 0o700); err != nil {
		return status.ErrBackup.WrapMessage("cannot create backup root %s: %v", s.backupRoot, err)
	}
	activePath := filepath.Join(s.backupRoot, model.ActiveRunFile)
	b, err := afero.ReadFile(s.fs, activePath)
	if err == nil {
		id := strings.TrimSpace(string(b))
		if model.IsRunID(id) {
			return s.resumeRun(id)
		}
		s.l.Warn("ignoring corrupt active run marker", zap.String("content", id))
	} else if !os.IsNotExist(err) {
		return status.ErrBackup.Wrap(err)
	}
	_, err = s.CreateRun()
	return err
}

func (s *Session) resumeRun(id string) error {
	manifestPath := filepath.Join(s.backupRoot, model.GetPathToManifest(id))
	b, err := afero.ReadFile(s.fs, manifestPath)
	if err != nil {
		return status.ErrBackup.WrapMessage("active run %s has no readable manifest: %v", id, err)
	}
	entries, err := model.ParseManifest(b)
	if err != nil {
		return status.ErrBackup.Wrap(err)
	}
	run := &activeRun{id: id, backed: make(map[string]bool, len(entries))}
	for _, e := range entries {
		run.backed[e.OriginalPath] = true
	}
	s.run = run
	s.l.Info("resumed active run", zap.String("run", id), zap.Int("backed", len(entries)))
	return nil
}
