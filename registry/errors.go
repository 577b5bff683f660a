package registry

import "errors"

var (
	// ErrNotFound is returned when no record matches the lookup.
	ErrNotFound = errors.New("registry: not found")

	// ErrDuplicateIdentity is returned when a user already has a palm enrolled.
	ErrDuplicateIdentity = errors.New("registry: identity already enrolled")

	// ErrInvalidEmbedding is returned when an embedding is not a canonical vector.
	ErrInvalidEmbedding = errors.New("registry: invalid embedding")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("registry: closed")
)
