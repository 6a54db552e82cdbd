package health

import "context"

// DBPinger checks template store availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// CatalogCounter reports how many schema documents are loaded.
type CatalogCounter interface {
	Len() int
}
