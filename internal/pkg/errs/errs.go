package errs

import (
	"errors"
	"fmt"
)

// Kind classifies pipeline failures so callers can decide between
// surfacing, retrying with backoff, or degrading in place.
type Kind string

const (
	// KindConflict marks a persistence write whose referenced chunk is
	// missing. Surfaced to the caller, never retried blindly.
	KindConflict Kind = "persistence_conflict"
	// KindTransient marks a recoverable persistence failure.
	KindTransient Kind = "persistence_transient"
	// KindExternalTransient marks a search/completion timeout or
	// rate-limit. Bounded retry with backoff.
	KindExternalTransient Kind = "external_transient"
	// KindExternalPermanent marks a malformed external request.
	// Surfaced immediately, no retry.
	KindExternalPermanent Kind = "external_permanent"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrInvalidArgument = errors.New("invalid argument")
)

type kindError struct {
	kind Kind
	err  error
}

func (e *kindError) Error() string { return fmt.Sprintf("%s: %v", e.kind, e.err) }
func (e *kindError) Unwrap() error { return e.err }

// Wrap tags err with a failure kind. A nil err stays nil.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &kindError{kind: kind, err: err}
}

func Wrapf(kind Kind, format string, args ...any) error {
	return &kindError{kind: kind, err: fmt.Errorf(format, args...)}
}

// KindOf reports the kind tagged on err, or "" when untagged.
func KindOf(err error) Kind {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.kind
	}
	return ""
}

func IsConflict(err error) bool  { return KindOf(err) == KindConflict }
func IsTransient(err error) bool { return KindOf(err) == KindTransient || KindOf(err) == KindExternalTransient }
func IsPermanent(err error) bool { return KindOf(err) == KindExternalPermanent }
