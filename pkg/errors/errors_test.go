package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsSentinelIdentity(t *testing.T) {
	sentinel := New("backup failed")
	cause := fmt.Errorf("disk full")

	e := sentinel.Wrap(cause)
	assert.True(t, Is(e, sentinel))
	assert.True(t, Is(e, cause))
	assert.Equal(t, "backup failed: disk full", e.Error())

	// wrapping never mutates the sentinel
	assert.Nil(t, sentinel.Unwrap())
}

func TestDoubleWrap(t *testing.T) {
	sentinel := New("rollback failed")
	e := sentinel.Wrap(fmt.Errorf("first"))
	e2 := e.Wrap(fmt.Errorf("second"))
	assert.True(t, Is(e2, sentinel))
	assert.False(t, Is(e2, e))
}

func TestWrapMessage(t *testing.T) {
	sentinel := New("validation rejected")
	e := sentinel.WrapMessage("file %s: %d problems", "/etc/x", 3)
	assert.True(t, Is(e, sentinel))
	assert.Equal(t, "validation rejected: file /etc/x: 3 problems", e.Error())
}
