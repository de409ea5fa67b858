package file

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotAuthenticated means no requester could be resolved for the call.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrInvalidArgument covers missing fields and records failing the storage reference check.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUpstream means the metadata store or the object bucket rejected a call.
	ErrUpstream = errors.New("upstream failure")
	// ErrFileNotFound signals that the file could not be located or is not visible to the requester.
	ErrFileNotFound = errors.New("file not found")
	// ErrFileTooLarge signals that the upload exceeds configured limits.
	ErrFileTooLarge = fmt.Errorf("%w: file too large", ErrInvalidArgument)
)

// Error attaches operation context to a failure. It matches both its Kind and
// the underlying cause with errors.Is.
type Error struct {
	Op     string
	FileID string
	Kind   error
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.FileID != "" {
		b.WriteString(" ")
		b.WriteString(e.FileID)
	}
	b.WriteString(": ")
	switch {
	case e.Err == nil:
		b.WriteString(e.Kind.Error())
	case errors.Is(e.Err, e.Kind):
		b.WriteString(e.Err.Error())
	default:
		b.WriteString(e.Kind.Error())
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(op, fileID string, kind, err error) error {
	return &Error{Op: op, FileID: fileID, Kind: kind, Err: err}
}

func invalidArgument(op, fileID, format string, args ...any) error {
	return newError(op, fileID, ErrInvalidArgument, fmt.Errorf(format, args...))
}

// upstreamError wraps a backend failure, keeping not-found as its own kind.
func upstreamError(op, fileID string, err error) error {
	if errors.Is(err, ErrFileNotFound) {
		return newError(op, fileID, ErrFileNotFound, nil)
	}
	return newError(op, fileID, ErrUpstream, err)
}
