package bucket

import "errors"

var (
	// ErrObjectNotFound indicates the referenced object is absent from the bucket.
	ErrObjectNotFound = errors.New("object not found")
	// ErrEmptyObjectID is returned when an operation is attempted without an object id.
	ErrEmptyObjectID = errors.New("object id is empty")
)
