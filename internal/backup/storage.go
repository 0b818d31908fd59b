package backup

import (
	"context"
)

// StorageProvider stores snapshot blobs by name. Blob names are deterministic
// per table, so a restore can locate a table's snapshot without a catalog.
type StorageProvider interface {
	// Store writes one blob, replacing any existing blob with the same name.
	Store(ctx context.Context, name string, data []byte) error
	// Retrieve reads one blob by name.
	Retrieve(ctx context.Context, name string) ([]byte, error)
	// Delete removes one blob by name.
	Delete(ctx context.Context, name string) error
	// List returns the names of stored blobs matching the prefix.
	List(ctx context.Context, prefix string) ([]string, error)
	// Location returns a human-readable location string for a blob name.
	Location(name string) string
	// HealthCheck verifies the provider is accessible and writable.
	HealthCheck(ctx context.Context) error
}
