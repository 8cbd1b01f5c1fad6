package domain

import (
	"context"
	"errors"
	"time"
)

// ErrUnknownObject is returned when a provider/object pair has no registered
// record shape.
var ErrUnknownObject = errors.New("unknown provider object")

// ContentRepository defines the persistence operations of the catalog.
// Implementations: internal/infra/postgres/content_repository.go
type ContentRepository interface {
	// Query returns up to settings.Limit() rows matching the tag filter,
	// ordered by submission time.
	Query(ctx context.Context, settings ViewSettings) ([]*Content, error)

	// InsertBatch appends all rows in one statement and returns the number
	// of rows the store reports as affected. IDs are written back.
	InsertBatch(ctx context.Context, contents []*Content) (int64, error)
}

// ExternalDataRepository persists resolved external data keyed by URN.
// Implementations: internal/infra/postgres/external_data_repository.go
type ExternalDataRepository interface {
	// FindByURNs returns the stored rows whose URN is in the set.
	FindByURNs(ctx context.Context, urns []string) ([]StoredExternalData, error)

	// UpsertBatch inserts or updates every row by URN in one transaction.
	UpsertBatch(ctx context.Context, rows []StoredExternalData) error

	// ListStale returns up to limit URNs last written before olderThan,
	// oldest first.
	ListStale(ctx context.Context, olderThan time.Time, limit int) ([]string, error)

	// Touch marks the rows as checked now without changing their payload.
	Touch(ctx context.Context, urns []string) error
}

// Fetcher is the capability a provider exposes.
// A nil record with a nil error means the object could not be found.
type Fetcher interface {
	Fetch(ctx context.Context, urn URN) (Record, error)
}

// Provider is a Fetcher that knows its name and the record shapes it produces.
// Implementations: internal/infra/provider/{pixiv,tumblr,twitter,discord}
type Provider interface {
	Fetcher

	// Name returns the URN provider tag, e.g. "pixiv".
	Name() string

	// Objects maps every object type the provider serves to its record shape.
	Objects() map[string]RecordFactory
}

// ProviderRegistry dispatches URNs to registered providers.
// Implementations: internal/infra/provider/registry/registry.go
type ProviderRegistry interface {
	// Fetch returns nil without any network call when the provider or the
	// object type is not registered.
	Fetch(ctx context.Context, urn URN) (Record, error)

	// Decode rebuilds a stored record using the shape registered for the
	// URN's provider/object. It returns ErrUnknownObject when none is.
	Decode(urn URN, payload []byte) (Record, error)
}

// BlobStore is the object-storage capability.
// Implementations: internal/infra/s3/s3.go
type BlobStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
}

// Cache defines the interface for caching operations.
// Implementations: internal/infra/redis/cache.go
type Cache interface {
	// Get retrieves a value by key. Returns nil if not found.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Clear removes all cached values.
	Clear(ctx context.Context) error
}
