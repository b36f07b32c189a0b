// Package store provides storage backends for EstatePipe listings.
//
// Three implementations share the ListingStore interface: an
// in-memory store for tests and ephemeral runs, an SQLite store for
// single-node deployments, and a PostgreSQL store for shared
// deployments. The backend is selected from the DSN.
package store

import (
	"context"
	"log/slog"

	"github.com/BTreeMap/EstatePipe/internal/models"
)

// DefaultQueryLimit caps the number of rows returned by list, search
// and keyword queries.
const DefaultQueryLimit = 50

// ListingStore is the persistence interface used by the flow engine
// and the HTTP API.
type ListingStore interface {
	// Create stores a new listing from extracted fields and returns
	// its ID. Missing required fields fall back to neutral defaults.
	Create(ctx context.Context, ownerID string, fields models.Fields) (int64, error)
	// Get returns the listing with the given ID, or (nil, nil) when
	// no such listing exists.
	Get(ctx context.Context, id int64) (*models.Listing, error)
	// ListByOwner returns the owner's listings, most recent first.
	ListByOwner(ctx context.Context, ownerID string) ([]models.Listing, error)
	// Search returns listings matching the filter criteria, most
	// recent first. A non-empty ownerID restricts results to that
	// owner.
	Search(ctx context.Context, filters models.Filters, ownerID string) ([]models.Listing, error)
	// KeywordFilter returns listings whose text fields contain the
	// keyword, most recent first.
	KeywordFilter(ctx context.Context, keyword string) ([]models.Listing, error)
	// Update applies the given field changes to a listing. It reports
	// whether a listing with that ID existed.
	Update(ctx context.Context, id int64, fields models.Fields) (bool, error)
	// Delete removes a listing. A non-empty ownerID additionally
	// requires the listing to belong to that owner.
	Delete(ctx context.Context, id int64, ownerID string) (bool, error)
	// Stats aggregates totals and averages over all listings.
	Stats(ctx context.Context) (models.ListingStats, error)
	// Close releases underlying resources.
	Close() error
}

// NewStore selects and opens a backend from the configured DSN. An
// empty DSN yields the in-memory store.
func NewStore(opts ...Option) (ListingStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.DSN == "" {
		slog.Debug("store.NewStore: no DSN configured, using in-memory store")
		return NewInMemoryStore(), nil
	}
	switch DetectDSNType(cfg.DSN) {
	case "postgres":
		slog.Debug("store.NewStore: using Postgres store")
		return NewPostgresStore(opts...)
	default:
		slog.Debug("store.NewStore: using SQLite store")
		return NewSQLiteStore(opts...)
	}
}

// ensure the factory return types satisfy the interface
var (
	_ ListingStore = (*InMemoryStore)(nil)
	_ ListingStore = (*SQLiteStore)(nil)
	_ ListingStore = (*PostgresStore)(nil)
)
