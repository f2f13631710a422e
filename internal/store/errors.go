package store

import "errors"

var (
	// ErrDuplicate is returned when a record for the same (name, part) exists
	ErrDuplicate = errors.New("record for this part already exists")
	// ErrNotFound is returned when an update targets an unknown record
	ErrNotFound = errors.New("record not found")
	// ErrInvalidRecord is returned for records failing validation
	ErrInvalidRecord = errors.New("invalid record")
	// ErrBackend wraps failures of the underlying storage
	ErrBackend = errors.New("backend unavailable")
)
