package backup

import (
	"context"
	"fmt"
)

// StorageProviderFactory creates storage providers based on configuration
type StorageProviderFactory struct{}

// NewStorageProviderFactory creates a new storage provider factory
func NewStorageProviderFactory() *StorageProviderFactory {
	return &StorageProviderFactory{}
}

// CreateStorageProvider creates a storage provider based on the storage configuration
func (spf *StorageProviderFactory) CreateStorageProvider(ctx context.Context, config StorageConfig) (StorageProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, NewValidationError("invalid storage configuration", err)
	}

	switch config.Provider {
	case StorageProviderLocal:
		return NewLocalStorageProvider(config.Local)

	case StorageProviderS3:
		return NewS3StorageProvider(config.S3)

	case StorageProviderAzure:
		return NewAzureStorageProvider(config.Azure)

	case StorageProviderGCS:
		return NewGCSStorageProvider(ctx, config.GCS)

	default:
		return nil, NewValidationError(fmt.Sprintf("unsupported storage provider: %s", config.Provider), nil)
	}
}

// GetSupportedProviders returns a list of supported storage provider types
func (spf *StorageProviderFactory) GetSupportedProviders() []StorageProviderType {
	return []StorageProviderType{
		StorageProviderLocal,
		StorageProviderS3,
		StorageProviderAzure,
		StorageProviderGCS,
	}
}

// ValidateStorageConfig validates a storage configuration without creating the provider
func (spf *StorageProviderFactory) ValidateStorageConfig(config StorageConfig) error {
	return config.Validate()
}
