package core

import "context"

// BlobStore is durable object storage for media payloads.
type BlobStore interface {
	// Put writes data under key, replacing any existing object.
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// Delete removes the object at key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// PublicURL returns the URL clients use to fetch key.
	PublicURL(key string) string
}

// RecordStore is the metadata database consumed by the engine.
type RecordStore interface {
	// InsertMediaRecord links a stored blob to its entity.
	InsertMediaRecord(ctx context.Context, rec MediaRecord) error

	// InsertEntityRecord creates a new entity from an imported row.
	InsertEntityRecord(ctx context.Context, rec EntityRecord) error

	// ListEntities returns the entities visible under filter.
	ListEntities(ctx context.Context, filter EntityFilter) ([]Entity, error)
}
