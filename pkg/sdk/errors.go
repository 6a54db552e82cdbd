package sdk

import (
	"github.com/kailas-cloud/estemplate/internal/domain"
	"github.com/kailas-cloud/estemplate/internal/domain/mapping"
	"github.com/kailas-cloud/estemplate/internal/domain/schema"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound            = domain.ErrNotFound
	ErrInvalidSchema       = domain.ErrInvalidSchema
	ErrInvalidRequest      = domain.ErrInvalidRequest
	ErrStoreDisabled       = domain.ErrStoreDisabled
	ErrUnknownRole         = schema.ErrUnknownRole
	ErrDuplicateField      = schema.ErrDuplicateField
	ErrRecursiveDocument   = mapping.ErrRecursiveDocument
	ErrReservedField       = mapping.ErrReservedField
	ErrUnresolvedAttribute = schema.ErrUnresolvedAttribute
)
