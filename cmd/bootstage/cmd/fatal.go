package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/bootstage/bootstage/pkg/core/status"
	"github.com/bootstage/bootstage/pkg/errors"
)

// exit-code classes for CLI automation
const (
	exitOK          = 0
	exitGeneric     = 1
	exitValidation  = 2
	exitBackup      = 3
	exitRollback    = 4
	exitTransaction = 5
)

// infoLogger wraps informative messages to os.Stdout without cluttering
// expected output in tests.
var infoLogger = log.New(os.Stdout, "", 0)

// exitCodeFor maps the engine's error taxonomy onto exit-code classes.
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, status.ErrValidation):
		return exitValidation
	case errors.Is(err, status.ErrBackup), errors.Is(err, status.ErrNoActiveRun):
		return exitBackup
	case errors.Is(err, status.ErrRollback),
		errors.Is(err, status.ErrRunNotFound),
		errors.Is(err, status.ErrManifestNotFound):
		return exitRollback
	case errors.Is(err, status.ErrTransaction):
		return exitTransaction
	default:
		return exitGeneric
	}
}

func wrapFatalln(msg string, err error) {
	if err == nil {
		logFatalln(msg)
		return
	}
	logFatalf("%v", fmt.Errorf(msg+": %w", err))
}

// wrapFatalWithCode reports the error and exits with its taxonomy code.
func wrapFatalWithCode(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	osExit(exitCodeFor(err))
}
