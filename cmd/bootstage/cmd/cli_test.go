package cmd

import (
	"fmt"
	"testing"

	"github.com/bootstage/bootstage/pkg/core/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePlan(t *testing.T) {
	raw := []byte(`
touch:
  - /etc/default/grub
  - /etc/sysctl.d/99-tuning.conf
files:
  - target: /etc/sysctl.d/99-tuning.conf
    content: |
      vm.swappiness = 10
    domain: kernel-params
  - target: /etc/modprobe.d/gpu.conf
    content: "blacklist nouveau\n"
    domain: module-options
    append: true
`)
	p, err := parsePlan(raw)
	require.NoError(t, err)
	assert.Len(t, p.Touch, 2)
	require.Len(t, p.Files, 2)
	assert.Equal(t, "/etc/sysctl.d/99-tuning.conf", p.Files[0].Target)
	assert.False(t, p.Files[0].Append)
	assert.True(t, p.Files[1].Append)
}

func TestParsePlanErrors(t *testing.T) {
	for name, raw := range map[string]string{
		"no files":       "touch: [/etc/x]\n",
		"missing target": "files:\n  - content: x\n",
		"bad domain":     "files:\n  - target: /etc/x\n    domain: nonsense\n",
		"unknown field":  "files:\n  - target: /etc/x\n    contnet: typo\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := parsePlan([]byte(raw))
			require.Error(t, err)
		})
	}
}

func TestExitCodeFor(t *testing.T) {
	cause := fmt.Errorf("cause")
	assert.Equal(t, exitOK, exitCodeFor(nil))
	assert.Equal(t, exitValidation, exitCodeFor(status.ErrValidation.Wrap(cause)))
	assert.Equal(t, exitBackup, exitCodeFor(status.ErrBackup.Wrap(cause)))
	assert.Equal(t, exitBackup, exitCodeFor(status.ErrNoActiveRun))
	assert.Equal(t, exitRollback, exitCodeFor(status.ErrRollback.Wrap(cause)))
	assert.Equal(t, exitRollback, exitCodeFor(status.ErrRunNotFound))
	assert.Equal(t, exitRollback, exitCodeFor(status.ErrManifestNotFound))
	assert.Equal(t, exitTransaction, exitCodeFor(status.ErrTransaction.Wrap(cause)))
	assert.Equal(t, exitGeneric, exitCodeFor(cause))
}
