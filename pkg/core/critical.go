package core

import (
	"os"
	"path/filepath"
	"time"

	"github.com/bootstage/bootstage/pkg/core/status"
	"github.com/bootstage/bootstage/pkg/model"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// criticalRecord journals the single file currently inside a critical
// window, so recovery after an interrupt is scoped and deterministic
// instead of depending on a global "critical in progress" flag.
type criticalRecord struct {
	Target    string    `json:"target"`
	TempPath  string    `json:"temp_path"`
	StartedAt time.Time `json:"started_at"`
}

// criticalOp is the scoped guard bracketing an atomic replacement between
// its backup and its rename.
type criticalOp struct {
	fs         afero.Fs
	markerPath string
}

func (s *Session) beginCriticalOp(target, tempPath string) (*criticalOp, error) {
	markerPath := filepath.Join(s.backupRoot, model.CriticalOpFile)
	if ok, _ := afero.Exists(s.fs, markerPath); ok {
		return nil, status.ErrTransaction.WrapMessage(
			"an interrupted critical operation is journaled at %s; run recovery first", markerPath)
	}
	b, err := json.Marshal(criticalRecord{
		Target:    target,
		TempPath:  tempPath,
		StartedAt: s.clock().UTC(),
	})
	if err != nil {
		return nil, status.ErrTransaction.Wrap(err)
	}
	if err := afero.WriteFile(s.fs, markerPath, b, 0o600); err != nil {
		return nil, status.ErrTransaction.WrapMessage("cannot journal critical operation: %v", err)
	}
	return &criticalOp{fs: s.fs, markerPath: markerPath}, nil
}

// end closes the critical window. Once the marker is gone, either the
// rename happened (new content live, original in the manifest) or it never
// started (original untouched); both are plain states needing no recovery.
func (c *criticalOp) end() {
	_ = c.fs.Remove(c.markerPath)
}

// RecoverInterrupted inspects the critical-operation journal left by a
// process that died mid-replacement and performs the single-file cleanup:
// a surviving temp file is removed (the rename never happened, the target
// is intact); a missing temp file means the rename completed and the
// run's manifest already covers the target.
//
// Returns true when a journal entry was found and cleared.
func RecoverInterrupted(fs afero.Fs, backupRoot string, l *zap.Logger) (bool, error) {
	markerPath := filepath.Join(backupRoot, model.CriticalOpFile)
	b, err := afero.ReadFile(fs, markerPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, status.ErrTransaction.Wrap(err)
	}
	var rec criticalRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		_ = fs.Remove(markerPath)
		return true, status.ErrTransaction.WrapMessage("corrupt critical journal: %v", err)
	}
	if ok, _ := afero.Exists(fs, rec.TempPath); ok {
		if err := fs.Remove(rec.TempPath); err != nil {
			return true, status.ErrTransaction.WrapMessage(
				"cannot remove leftover temp file %s: %v", rec.TempPath, err)
		}
		l.Info("recovered interrupted replacement, target left intact",
			zap.String("target", rec.Target),
			zap.String("temp", rec.TempPath))
	} else {
		l.Info("interrupted replacement had completed its rename",
			zap.String("target", rec.Target))
	}
	if err := fs.Remove(markerPath); err != nil {
		return true, status.ErrTransaction.Wrap(err)
	}
	return true, nil
}
