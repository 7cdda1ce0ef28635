package source

import (
	"errors"
	"fmt"
)

// Sentinel errors. Use errors.Is, or the Is* helpers, to test for them.
var (
	// ErrSourceUnavailable means the named source cannot be located.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrObjectNotExported means the object is absent from the source's
	// manifest. It points at a content bug and is always returned to the caller.
	ErrObjectNotExported = errors.New("object not exported")

	// ErrMalformedManifest is reported by loaders when the manifest exists but
	// cannot be read. The Store degrades it to an empty manifest.
	ErrMalformedManifest = errors.New("malformed manifest")
)

// ErrorCode categorizes data store errors.
type ErrorCode string

const (
	CodeSourceUnavailable ErrorCode = "SOURCE_UNAVAILABLE"
	CodeObjectNotExported ErrorCode = "OBJECT_NOT_EXPORTED"
	CodeMalformedManifest ErrorCode = "MALFORMED_MANIFEST"
	CodeLoadFailed        ErrorCode = "LOAD_FAILED"
)

// Error carries the source and object an operation failed on.
type Error struct {
	Code   ErrorCode
	Source string
	Object string
	Err    error
}

func (e *Error) Error() string {
	if e.Object != "" {
		return fmt.Sprintf("%s: %s/%s: %v", e.Code, e.Source, e.Object, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Source, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsUnavailable reports whether err means a source could not be located.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrSourceUnavailable)
}

// IsNotExported reports whether err means an object is missing from a manifest.
func IsNotExported(err error) bool {
	return errors.Is(err, ErrObjectNotExported)
}

func unavailable(source string, err error) *Error {
	if err == nil || !errors.Is(err, ErrSourceUnavailable) {
		err = joinCause(ErrSourceUnavailable, err)
	}
	return &Error{Code: CodeSourceUnavailable, Source: source, Err: err}
}

func notExported(source, object, detail string) *Error {
	err := ErrObjectNotExported
	if detail != "" {
		err = fmt.Errorf("%w: %s", ErrObjectNotExported, detail)
	}
	return &Error{Code: CodeObjectNotExported, Source: source, Object: object, Err: err}
}

func joinCause(sentinel, cause error) error {
	if cause == nil {
		return sentinel
	}
	return fmt.Errorf("%w: %v", sentinel, cause)
}
