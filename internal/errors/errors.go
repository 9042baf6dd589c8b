// Package errors implements the core's error taxonomy (spec.md §7): a
// small set of typed Kinds, none of which ever terminate the process. Every
// operation either collapses to an empty result, invalidates a handle for
// the next retry, or reports the error alongside its return value.
package errors

import (
	"fmt"
	"time"
)

// Kind enumerates the error taxonomy from spec.md §7. It is not named
// "ErrorType" to avoid stutter with the package name at call sites
// (errors.Kind vs errors.ErrorType).
type Kind string

const (
	KindParseFailure         Kind = "parse_failure"
	KindReparseFailure       Kind = "reparse_failure"
	KindSaveFailure          Kind = "save_failure"
	KindNoHandle             Kind = "no_handle"
	KindCanceled             Kind = "canceled"
	KindStalePersistedIndex  Kind = "stale_persisted_index"
	KindFormatMismatch       Kind = "format_mismatch"
	KindLoadFailure          Kind = "load_failure"
)

// CoreError is the one error type every component returns. Operation names
// the failing call ("tu.Parse", "symboldb.Deserialize", ...); FilePath is
// set when the error concerns a specific file.
type CoreError struct {
	Kind        Kind
	Operation   string
	FilePath    string
	Underlying  error
	Timestamp   time.Time
	Recoverable bool
}

// New creates a CoreError of the given kind for the named operation.
func New(kind Kind, op string, err error) *CoreError {
	return &CoreError{
		Kind:       kind,
		Operation:  op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// WithFile returns a copy of e with the file path the error concerns
// attached. It never mutates e itself, since e is frequently one of the
// package-level sentinels below — mutating those in place would let one
// caller's WithFile leak into every other caller currently comparing
// against errors.Is(err, errors.NoHandle).
func (e *CoreError) WithFile(path string) *CoreError {
	clone := *e
	clone.Timestamp = time.Now()
	clone.FilePath = path
	return &clone
}

// WithRecoverable returns a copy of e marking whether the caller can retry
// (e.g. ReparseFailure is always recoverable: the handle is invalidated
// and the next call reparses from scratch). Like WithFile, this never
// mutates e in place.
func (e *CoreError) WithRecoverable(recoverable bool) *CoreError {
	clone := *e
	clone.Recoverable = recoverable
	return &clone
}

func (e *CoreError) Error() string {
	if e.FilePath != "" {
		if e.Underlying != nil {
			return fmt.Sprintf("%s: %s failed for %s: %v", e.Kind, e.Operation, e.FilePath, e.Underlying)
		}
		return fmt.Sprintf("%s: %s failed for %s", e.Kind, e.Operation, e.FilePath)
	}
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s failed: %v", e.Kind, e.Operation, e.Underlying)
	}
	return fmt.Sprintf("%s: %s failed", e.Kind, e.Operation)
}

// Unwrap supports errors.Is/errors.As against the underlying cause.
func (e *CoreError) Unwrap() error {
	return e.Underlying
}

// Is makes errors.Is(err, errors.NoHandle) (or any other sentinel below)
// match every CoreError of the same Kind, mirroring the teacher's IsRecoverable-style helper but for taxonomy
// membership instead of recoverability.
func (e *CoreError) Is(target error) bool {
	other, ok := target.(*CoreError)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

// Sentinel markers usable with errors.Is(err, errors.NoHandle), matching
// each Kind so callers don't have to construct a *CoreError just to probe.
var (
	ParseFailure        = &CoreError{Kind: KindParseFailure}
	ReparseFailure      = &CoreError{Kind: KindReparseFailure}
	SaveFailure         = &CoreError{Kind: KindSaveFailure}
	NoHandle            = &CoreError{Kind: KindNoHandle}
	Canceled            = &CoreError{Kind: KindCanceled}
	StalePersistedIndex = &CoreError{Kind: KindStalePersistedIndex}
	FormatMismatch      = &CoreError{Kind: KindFormatMismatch}
	LoadFailure         = &CoreError{Kind: KindLoadFailure}
)
