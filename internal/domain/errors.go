package domain

import "errors"

var (
	// ErrNotFound signals a missing document or published template.
	ErrNotFound = errors.New("not found")
	// ErrInvalidSchema signals a schema definition that cannot be loaded.
	ErrInvalidSchema = errors.New("invalid schema")
	// ErrInvalidRequest signals missing or malformed render parameters.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrStoreDisabled signals a publishing call without a configured store.
	ErrStoreDisabled = errors.New("template store not configured")
)
