// Package apperr defines the error kinds that cross the codexmonitor core
// boundary.
//
// Operation failures from the settings Repository and the files, router,
// remote and daemonbin packages are *Error values carrying one Kind, as are
// the config.toml mirror warnings of a settings update. Callers branch on
// the kind while the message stays human-readable.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	// KindConfigStore is a read or write failure against config.toml.
	KindConfigStore Kind = iota + 1
	// KindPersistence is a settings file write failure.
	KindPersistence
	// KindRouting is a remote-call or local I/O failure while dispatching an operation.
	KindRouting
	// KindValidation is rejected input, reported before any I/O.
	KindValidation
	// KindUnsupported is an operation the current runtime or mode cannot perform.
	KindUnsupported
	// KindNotFound is a missing workspace, file or binary.
	KindNotFound
)

// Sentinel errors, one per Kind, for errors.Is matching.
var (
	ErrConfigStore = errors.New("config store error")
	ErrPersistence = errors.New("persistence error")
	ErrRouting     = errors.New("routing error")
	ErrValidation  = errors.New("validation error")
	ErrUnsupported = errors.New("unsupported operation")
	ErrNotFound    = errors.New("not found")
)

func (k Kind) String() string {
	switch k {
	case KindConfigStore:
		return "config_store"
	case KindPersistence:
		return "persistence"
	case KindRouting:
		return "routing"
	case KindValidation:
		return "validation"
	case KindUnsupported:
		return "unsupported"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindConfigStore:
		return ErrConfigStore
	case KindPersistence:
		return ErrPersistence
	case KindRouting:
		return ErrRouting
	case KindValidation:
		return ErrValidation
	case KindUnsupported:
		return ErrUnsupported
	case KindNotFound:
		return ErrNotFound
	default:
		return nil
	}
}

// Error wraps a failure with its kind and the operation that produced it.
type Error struct {
	Kind Kind   // Failure classification
	Op   string // Operation that failed ("file_read", "update_settings")
	Err  error  // Underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// New creates a new Error.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Newf creates a new Error with a formatted message.
func Newf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Message creates an Error without an operation prefix, so Error() returns
// msg unchanged.
func Message(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Err: errors.New(msg)}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// IsKind checks whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
