package container

import "errors"

var (
	// ErrEmptyModel indicates a write was attempted with no elements.
	ErrEmptyModel = errors.New("model has no elements")
	// ErrUnknownFormat indicates a manifest with an unrecognized format tag.
	ErrUnknownFormat = errors.New("unknown container format")
	// ErrUnsupportedVersion indicates a manifest version this engine cannot read.
	ErrUnsupportedVersion = errors.New("unsupported container version")
	// ErrIndexNotLoaded indicates a spatial query on a reader without a
	// loaded spatial index. Queries fail fast rather than silently
	// returning an empty result.
	ErrIndexNotLoaded = errors.New("spatial index not loaded")
	// ErrElementNotFound indicates the element is in no loaded or
	// resolvable chunk.
	ErrElementNotFound = errors.New("element not found")
	// ErrNotParsed indicates a reader operation before a successful Parse.
	ErrNotParsed = errors.New("container not parsed")
)
