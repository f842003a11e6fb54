package repositories

import (
	"errors"
	"fmt"
)

// ErrFavoriteLimitReached is wrapped by the conflict a favorites repository returns when the
// shopper already holds the maximum number of stores.
var ErrFavoriteLimitReached = errors.New("favorite store limit reached")

type errorKind int

const (
	kindUnknown errorKind = iota
	kindNotFound
	kindConflict
	kindUnavailable
)

// Error is the RepositoryError returned by in-process and HTTP backed repositories.
type Error struct {
	Op   string
	Msg  string
	Err  error
	kind errorKind
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, msg)
	}
	return msg
}

func (e *Error) Unwrap() error       { return e.Err }
func (e *Error) IsNotFound() bool    { return e != nil && e.kind == kindNotFound }
func (e *Error) IsConflict() bool    { return e != nil && e.kind == kindConflict }
func (e *Error) IsUnavailable() bool { return e != nil && e.kind == kindUnavailable }

func NewNotFound(op, msg string) *Error {
	return &Error{Op: op, Msg: msg, kind: kindNotFound}
}

func NewConflict(op, msg string) *Error {
	return &Error{Op: op, Msg: msg, kind: kindConflict}
}

func NewFavoriteLimitReached(op string, limit int) *Error {
	return &Error{Op: op, Msg: fmt.Sprintf("favorite store limit %d reached", limit), Err: ErrFavoriteLimitReached, kind: kindConflict}
}

func NewUnavailable(op string, err error) *Error {
	return &Error{Op: op, Err: err, kind: kindUnavailable}
}

// IsNotFound reports whether err carries a not-found repository classification.
func IsNotFound(err error) bool {
	var repoErr RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsNotFound()
}

func IsConflict(err error) bool {
	var repoErr RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsConflict()
}

func IsUnavailable(err error) bool {
	var repoErr RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsUnavailable()
}
