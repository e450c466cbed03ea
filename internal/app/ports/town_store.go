package ports

import (
	"context"
	"time"

	"villagemap/internal/domain/town"
)

// TownStore reads and writes whole town documents. ModTime is the
// store's last-write marker used for advisory conflict checks.
type TownStore interface {
	Load(ctx context.Context, village string) (*town.Document, error)
	Save(ctx context.Context, village string, doc *town.Document) (time.Time, error)
	ModTime(ctx context.Context, village string) (time.Time, error)
	List(ctx context.Context) ([]string, error)
}

type CatalogProvider interface {
	Catalog(ctx context.Context) (town.Catalog, error)
}
