package nativeparser

import "sync"

var processInit sync.Once

// InitProcess performs the one-shot, process-wide initialization spec.md
// §4.A requires before any other call into this package: "enable
// crash-recovery, enable stack traces." tree-sitter's Go binding has no
// native crash-recovery switch of its own (unlike libclang's
// clang_toggleCrashRecovery), so this installs the equivalent contract at
// the Go level — Index.Parse, TU.Reparse and TU.Save recover from a panic
// inside the cgo-backed parser and turn it into an error instead of
// crashing the host process, mirroring what
// clang_enableStackTraces()/clang_toggleCrashRecovery(1) buy a libclang
// embedder.
func InitProcess() {
	processInit.Do(func() {
		crashRecoveryEnabled = true
	})
}

var crashRecoveryEnabled bool

// recoverInto is deferred at the top of Index.Parse, TU.Reparse and
// TU.Save; if crash recovery is enabled and that function panics, it
// converts the panic into *err instead of propagating it.
func recoverInto(err *error) {
	if !crashRecoveryEnabled {
		return
	}
	if r := recover(); r != nil {
		*err = panicError{r}
	}
}

type panicError struct{ v interface{} }

func (p panicError) Error() string {
	return "nativeparser: recovered panic in native call"
}
