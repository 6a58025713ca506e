package gnsync

import "errors"

var (
	// ErrDiscontinuous is returned when the base block hash of a diff is not the block hash of the list.
	ErrDiscontinuous = errors.New("diff is not continuous with the list")
	// ErrNoSnapshot is returned when no diff has been persisted yet.
	ErrNoSnapshot = errors.New("snapshot does not exist")
)
