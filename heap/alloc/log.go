package alloc

// logging helpers

import (
	"fmt"

	"github.com/intuitivelabs/slog"
)

const logName = "heapkit"

const (
	pWARN  = "WARNING: " + logName + ": "
	pERR   = "ERROR: " + logName + ": "
	pBUG   = "BUG: " + logName + ": "
	pPANIC = logName + ": "
)

// Log is the package logger. Diagnostics go to stderr so they never mix
// with the statistics and free-list output on stdout.
var Log slog.Log = slog.New(slog.LERR, slog.LbackTraceS|slog.LlocInfoS,
	slog.LStdErr)

// WARN is a shorthand for logging a warning message.
func WARN(f string, a ...interface{}) {
	Log.LLog(slog.LWARN, 1, pWARN, f, a...)
}

// ERR is a shorthand for logging an error message.
func ERR(f string, a ...interface{}) {
	Log.LLog(slog.LERR, 1, pERR, f, a...)
}

// BUG is a shorthand for logging a bug message.
func BUG(f string, a ...interface{}) {
	Log.LLog(slog.LBUG, 1, pBUG, f, a...)
}

// PANIC logs the message and panics. Used when sanity checks find
// corrupted block metadata.
func PANIC(f string, a ...interface{}) {
	s := fmt.Sprintf(pPANIC+f, a...)
	Log.LLog(slog.LBUG, 1, "", "%s", s)
	panic(s)
}
