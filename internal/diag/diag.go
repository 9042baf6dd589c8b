// Package diag is the core's logging gate. It follows the teacher's
// internal/debug package: plain stdlib log.Logger output, suppressed by
// default and enabled by the host process, rather than a structured
// logging dependency the core's embedding IDE has no use for.
package diag

import (
	"log"
	"os"
	"sync"
	"sync/atomic"
)

var (
	enabled  int32
	logger   = log.New(os.Stderr, "tucore: ", log.LstdFlags)
	loggerMu sync.RWMutex
)

// SetEnabled turns diagnostic output on or off. Off by default so an
// embedding IDE's stdio stays clean unless it opts in.
func SetEnabled(on bool) {
	if on {
		atomic.StoreInt32(&enabled, 1)
	} else {
		atomic.StoreInt32(&enabled, 0)
	}
}

// SetOutput redirects where enabled diagnostics are written.
func SetOutput(l *log.Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	logger = l
}

// Printf logs a diagnostic line when output is enabled; it is a no-op
// otherwise so call sites can be left in hot paths (parse loops, indexing
// batches) without cost beyond the atomic load.
func Printf(format string, args ...interface{}) {
	if atomic.LoadInt32(&enabled) == 0 {
		return
	}
	loggerMu.RLock()
	l := logger
	loggerMu.RUnlock()
	l.Printf(format, args...)
}
