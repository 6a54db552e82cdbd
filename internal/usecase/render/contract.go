package render

import (
	"context"

	"github.com/kailas-cloud/estemplate/internal/domain"
	"github.com/kailas-cloud/estemplate/internal/domain/schema"
)

// Catalog resolves schema documents by name.
type Catalog interface {
	Get(name string) (*schema.Document, error)
	Names() []string
}

// Repository defines the storage contract for published templates.
type Repository interface {
	Save(ctx context.Context, t domain.PublishedTemplate) error
	SaveMulti(ctx context.Context, ts []domain.PublishedTemplate) error
	Get(ctx context.Context, name string) (domain.PublishedTemplate, error)
	List(ctx context.Context) ([]domain.PublishedTemplate, error)
	Delete(ctx context.Context, name string) error
}
